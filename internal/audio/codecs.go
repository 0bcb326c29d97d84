package audio

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
	gomp3 "github.com/hajimehoshi/go-mp3"
	"github.com/jfreymuth/oggvorbis"
	"github.com/mewkiz/flac"

	"github.com/Alexander-D-Karpov/ampwave/pkg/types"
)

type WAVDecoder struct{}

func (WAVDecoder) Decode(data []byte) (*types.AudioBuffer, error) {
	dec := wav.NewDecoder(bytes.NewReader(data))
	if !dec.IsValidFile() {
		return nil, errors.New("invalid WAV file")
	}

	intBuf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to read PCM buffer: %w", err)
	}

	maxVal := float32(goaudio.IntMaxSignedValue(int(dec.BitDepth)))
	samples := make([]float32, len(intBuf.Data))
	for i, v := range intBuf.Data {
		samples[i] = float32(v) / maxVal
	}
	return deinterleave(samples, int(dec.NumChans), int(dec.SampleRate)), nil
}

// MP3Decoder decodes with go-mp3, which always yields 16-bit stereo.
type MP3Decoder struct{}

func (MP3Decoder) Decode(data []byte) (*types.AudioBuffer, error) {
	dec, err := gomp3.NewDecoder(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to create MP3 decoder: %w", err)
	}

	pcm, err := io.ReadAll(dec)
	if err != nil {
		return nil, fmt.Errorf("failed to read MP3 frames: %w", err)
	}

	samples := make([]float32, len(pcm)/2)
	for i := range samples {
		v := int16(binary.LittleEndian.Uint16(pcm[2*i:]))
		samples[i] = float32(v) / 32768.0
	}
	return deinterleave(samples, 2, dec.SampleRate()), nil
}

type FLACDecoder struct{}

func (FLACDecoder) Decode(data []byte) (*types.AudioBuffer, error) {
	stream, err := flac.New(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to create FLAC decoder: %w", err)
	}
	defer stream.Close()

	buf := &types.AudioBuffer{
		SampleRate: int(stream.Info.SampleRate),
		Channels:   make([][]float32, stream.Info.NChannels),
	}

	for {
		frame, err := stream.ParseNext()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to parse FLAC frame: %w", err)
		}

		maxVal := float32(int64(1) << (frame.BitsPerSample - 1))
		for c, sub := range frame.Subframes {
			if c >= len(buf.Channels) {
				break
			}
			for _, s := range sub.Samples {
				buf.Channels[c] = append(buf.Channels[c], float32(s)/maxVal)
			}
		}
	}
	return buf, nil
}

type VorbisDecoder struct{}

func (VorbisDecoder) Decode(data []byte) (*types.AudioBuffer, error) {
	samples, format, err := oggvorbis.ReadAll(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode vorbis stream: %w", err)
	}
	return deinterleave(samples, format.Channels, format.SampleRate), nil
}
