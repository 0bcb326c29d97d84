package audio

import (
	"bytes"
	"context"
	"fmt"
	"sync"

	"github.com/Alexander-D-Karpov/ampwave/pkg/types"
)

const (
	FormatWAV    = "wav"
	FormatMP3    = "mp3"
	FormatFLAC   = "flac"
	FormatVorbis = "ogg vorbis"
)

// Decoder turns a complete encoded file into de-interleaved PCM.
type Decoder interface {
	Decode(data []byte) (*types.AudioBuffer, error)
}

// Registry maps container formats to decoders.
type Registry struct {
	codecs map[string]Decoder
	mtx    sync.RWMutex
}

func NewRegistry() *Registry {
	return &Registry{codecs: make(map[string]Decoder)}
}

// DefaultRegistry knows every format the player can open.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(FormatWAV, WAVDecoder{})
	r.Register(FormatMP3, MP3Decoder{})
	r.Register(FormatFLAC, FLACDecoder{})
	r.Register(FormatVorbis, VorbisDecoder{})
	return r
}

func (r *Registry) Register(format string, d Decoder) {
	r.mtx.Lock()
	defer r.mtx.Unlock()
	r.codecs[format] = d
}

func (r *Registry) Get(format string) (Decoder, bool) {
	r.mtx.RLock()
	defer r.mtx.RUnlock()
	d, ok := r.codecs[format]
	return d, ok
}

// Decode sniffs the container and runs the matching decoder. A cancelled
// context discards the result.
func (r *Registry) Decode(ctx context.Context, data []byte) (*types.AudioBuffer, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	format, ok := Sniff(data)
	if !ok {
		return nil, fmt.Errorf("%w: unrecognised header", ErrUnsupportedFormat)
	}
	dec, ok := r.Get(format)
	if !ok {
		return nil, fmt.Errorf("%w: no decoder for %s", ErrUnsupportedFormat, format)
	}

	buf, err := dec.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", format, err)
	}
	if buf.Length() == 0 {
		return nil, fmt.Errorf("decode %s: %w", format, ErrEmptyAudio)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return buf, nil
}

// Sniff identifies the container from its leading bytes.
func Sniff(data []byte) (string, bool) {
	switch {
	case len(data) >= 12 && bytes.Equal(data[:4], []byte("RIFF")) && bytes.Equal(data[8:12], []byte("WAVE")):
		return FormatWAV, true
	case bytes.HasPrefix(data, []byte("fLaC")):
		return FormatFLAC, true
	case bytes.HasPrefix(data, []byte("OggS")):
		return FormatVorbis, true
	case bytes.HasPrefix(data, []byte("ID3")):
		return FormatMP3, true
	case len(data) >= 2 && data[0] == 0xFF && data[1]&0xE0 == 0xE0:
		return FormatMP3, true
	}
	return "", false
}

func deinterleave(samples []float32, channels, sampleRate int) *types.AudioBuffer {
	if channels <= 0 {
		channels = 1
	}
	frames := len(samples) / channels
	buf := &types.AudioBuffer{
		SampleRate: sampleRate,
		Channels:   make([][]float32, channels),
	}
	for c := range buf.Channels {
		buf.Channels[c] = make([]float32, frames)
	}
	for i := 0; i < frames; i++ {
		for c := 0; c < channels; c++ {
			buf.Channels[c][i] = samples[i*channels+c]
		}
	}
	return buf
}
