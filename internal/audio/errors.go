package audio

import "errors"

var (
	// ErrMissingMedia is returned by NewGraph when there is no media element to analyse.
	ErrMissingMedia = errors.New("track not found")

	ErrUnsupportedFormat = errors.New("unsupported audio format")
	ErrEmptyAudio        = errors.New("no audio samples")
	ErrContextClosed     = errors.New("audio context is closed")
	ErrForeignNode       = errors.New("node belongs to another audio context")
	ErrCycle             = errors.New("connection would create a cycle")
	ErrInvalidFFTSize    = errors.New("fft size must be a power of two in [32, 32768]")
	ErrNotCapturable     = errors.New("media element cannot be routed into an audio graph")
	ErrAlreadyCaptured   = errors.New("media element is already connected to an audio graph")
	ErrNotLoaded         = errors.New("media element is not loaded")
)
