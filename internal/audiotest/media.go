// Package audiotest provides in-memory stand-ins for the capabilities the
// player consumes: media elements, audio contexts, fetchers, drawing surfaces
// and frame schedulers.
package audiotest

import (
	"sync"

	"github.com/Alexander-D-Karpov/ampwave/pkg/types"
)

// Media is a scripted media element.
type Media struct {
	mu sync.Mutex

	SrcValue      string
	DurationValue float64
	Position      float64
	IsPaused      bool

	PlayCalls  int
	PauseCalls int
	Seeks      []float64
	PlayErr    error
}

func NewMedia(src string, duration float64) *Media {
	return &Media{SrcValue: src, DurationValue: duration, IsPaused: true}
}

func (m *Media) Paused() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.IsPaused
}

func (m *Media) Play() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.PlayCalls++
	if m.PlayErr != nil {
		return m.PlayErr
	}
	m.IsPaused = false
	return nil
}

func (m *Media) Pause() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.PauseCalls++
	m.IsPaused = true
	return nil
}

func (m *Media) CurrentTime() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Position
}

func (m *Media) SetCurrentTime(seconds float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Seeks = append(m.Seeks, seconds)
	m.Position = seconds
	return nil
}

// Advance moves the playback position forward, as if time had passed.
func (m *Media) Advance(seconds float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Position += seconds
}

func (m *Media) Duration() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.DurationValue
}

func (m *Media) Src() string { return m.SrcValue }

// Host projects at most one media element.
type Host struct {
	Media types.MediaElement
}

func (h Host) QueryMedia() (types.MediaElement, bool) {
	if h.Media == nil {
		return nil, false
	}
	return h.Media, true
}
