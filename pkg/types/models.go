package types

import (
	"time"
)

// AmplitudeFrame is one time-domain snapshot of unsigned byte samples, 128 = silence.
type AmplitudeFrame []byte

// AudioBuffer holds decoded, de-interleaved PCM in [-1, 1].
type AudioBuffer struct {
	SampleRate int
	Channels   [][]float32
}

func (b *AudioBuffer) NumberOfChannels() int {
	return len(b.Channels)
}

// Length returns the number of frames per channel.
func (b *AudioBuffer) Length() int {
	if len(b.Channels) == 0 {
		return 0
	}
	return len(b.Channels[0])
}

// ChannelData returns the samples of channel i, or nil when out of range.
func (b *AudioBuffer) ChannelData(i int) []float32 {
	if i < 0 || i >= len(b.Channels) {
		return nil
	}
	return b.Channels[i]
}

func (b *AudioBuffer) Duration() time.Duration {
	if b.SampleRate <= 0 {
		return 0
	}
	return time.Duration(float64(b.Length()) / float64(b.SampleRate) * float64(time.Second))
}

// PlaybackState is what the controls render.
type PlaybackState struct {
	Paused   bool    `json:"paused"`
	Position float64 `json:"position"`
	Volume   float64 `json:"volume"`
}

// PlayChanged is the payload of the play-changed event.
type PlayChanged struct {
	Paused   bool    `json:"paused"`
	Position float64 `json:"position"`
}
