package types

import (
	"context"
	"image/color"
	"time"
)

// Host is the attachment point a player widget is mounted into. It exposes
// whatever media element the caller projected into the widget.
type Host interface {
	QueryMedia() (MediaElement, bool)
}

// MediaElement defines the playback surface of an externally owned media resource
type MediaElement interface {
	Paused() bool
	Play() error
	Pause() error
	CurrentTime() float64
	SetCurrentTime(seconds float64) error
	Duration() float64
	Src() string
}

// AudioNode is a vertex of an audio processing graph.
type AudioNode interface {
	Connect(dst AudioNode) error
	Disconnect()
}

// Analyser exposes time and frequency domain snapshots of the signal passing through it.
type Analyser interface {
	AudioNode
	SetFFTSize(size int) error
	FFTSize() int
	FrequencyBinCount() int
	SetMinDecibels(db float64)
	SetMaxDecibels(db float64)
	SetSmoothingTimeConstant(v float64)
	GetByteTimeDomainData(dst []byte)
	GetByteFrequencyData(dst []byte)
}

// GainNode scales the signal by a linear factor.
type GainNode interface {
	AudioNode
	SetGain(v float64)
	Gain() float64
}

// AudioContext builds processing graphs and decodes encoded audio
type AudioContext interface {
	CreateMediaElementSource(media MediaElement) (AudioNode, error)
	CreateAnalyser() Analyser
	CreateGain() GainNode
	Destination() AudioNode
	DecodeAudioData(ctx context.Context, data []byte) (*AudioBuffer, error)
	Resume(ctx context.Context) error
	Close() error
}

// Surface2D is the minimal immediate-mode drawing surface used by the live renderer.
type Surface2D interface {
	Size() (width, height float64)
	SetFillStyle(c color.Color)
	SetStrokeStyle(c color.Color)
	SetLineWidth(w float64)
	ClearRect(x, y, w, h float64)
	FillRect(x, y, w, h float64)
	BeginPath()
	MoveTo(x, y float64)
	LineTo(x, y float64)
	Stroke()
}

// FrameHandle identifies a pending frame callback.
type FrameHandle uint64

// FrameCallback runs once on the next display frame.
type FrameCallback func(now time.Time)

// FrameScheduler runs one-shot callbacks on the host's display refresh.
type FrameScheduler interface {
	RequestFrame(cb FrameCallback) FrameHandle
	CancelFrame(h FrameHandle)
}

// Fetcher retrieves the full byte stream behind a locator.
type Fetcher interface {
	Fetch(ctx context.Context, locator string) ([]byte, error)
}

// PlayerControl defines the interface for player control components
type PlayerControl interface {
	TogglePlayPause(ctx context.Context) error
	SetVolume(gain float64)
	Seek(seconds float64) error
}
