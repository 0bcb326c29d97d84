// Package render draws the live oscilloscope trace of whatever is playing.
package render

import (
	"image/color"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/Alexander-D-Karpov/ampwave/pkg/types"
)

// FrameSource yields the current waveform snapshot.
type FrameSource interface {
	SampleFrame() types.AmplitudeFrame
}

// Clock reports the playback position in seconds.
type Clock interface {
	CurrentTime() float64
}

// PositionSink receives the playback position once per drawn frame.
type PositionSink interface {
	SetPosition(seconds float64)
}

type State int

const (
	NotStarted State = iota
	Scheduled
	Stopped
)

func (s State) String() string {
	switch s {
	case NotStarted:
		return "not started"
	case Scheduled:
		return "scheduled"
	case Stopped:
		return "stopped"
	default:
		return "unknown"
	}
}

type Style struct {
	Stroke     color.Color
	Background color.Color
	LineWidth  float64
}

// LiveRenderer redraws the waveform on every display frame until stopped.
// Each frame re-requests the next one; the handle of the pending request is
// kept so Stop can cancel it.
type LiveRenderer struct {
	mu        sync.Mutex
	source    FrameSource
	clock     Clock
	surface   types.Surface2D
	scheduler types.FrameScheduler
	sink      PositionSink
	style     Style
	onFrame   func(peak float64)

	state  State
	handle types.FrameHandle
	frames uint64
	peak   float64
	log    zerolog.Logger
}

func NewLiveRenderer(source FrameSource, clock Clock, surface types.Surface2D, scheduler types.FrameScheduler, style Style, logger zerolog.Logger) *LiveRenderer {
	if style.LineWidth <= 0 {
		style.LineWidth = 2
	}
	if style.Stroke == nil {
		style.Stroke = color.Black
	}
	return &LiveRenderer{
		source:    source,
		clock:     clock,
		surface:   surface,
		scheduler: scheduler,
		style:     style,
		log:       logger,
	}
}

// SetPositionSink sets where the position is reflected each frame. nil disables it.
func (r *LiveRenderer) SetPositionSink(sink PositionSink) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sink = sink
}

// OnFrame registers a hook run after each frame is drawn, e.g. to refresh a
// widget. It gets the peak of the frame that was drawn.
func (r *LiveRenderer) OnFrame(fn func(peak float64)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.onFrame = fn
}

// Start schedules the first frame. Only the first call has an effect.
func (r *LiveRenderer) Start() bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state != NotStarted {
		return false
	}
	r.state = Scheduled
	r.handle = r.scheduler.RequestFrame(r.tick)
	r.log.Debug().Uint64("handle", uint64(r.handle)).Msg("live renderer started")
	return true
}

// Stop cancels the pending frame. The renderer cannot be restarted.
func (r *LiveRenderer) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state == Scheduled {
		r.scheduler.CancelFrame(r.handle)
		r.log.Debug().Uint64("frames", r.frames).Msg("live renderer stopped")
	}
	r.state = Stopped
}

func (r *LiveRenderer) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

func (r *LiveRenderer) Frames() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.frames
}

func (r *LiveRenderer) tick(time.Time) {
	r.mu.Lock()
	if r.state != Scheduled {
		r.mu.Unlock()
		return
	}
	r.draw()
	r.frames++
	r.handle = r.scheduler.RequestFrame(r.tick)
	hook, peak := r.onFrame, r.peak
	r.mu.Unlock()

	if hook != nil {
		hook(peak)
	}
}

// DrawFrame paints a single frame without touching the schedule.
func (r *LiveRenderer) DrawFrame() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.draw()
}

// Level is the peak of the last frame drawn.
func (r *LiveRenderer) Level() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.peak
}

func (r *LiveRenderer) draw() {
	frame := r.source.SampleFrame()
	position := r.clock.CurrentTime()
	r.peak = Peak(frame)

	s := r.surface
	w, h := s.Size()

	s.ClearRect(0, 0, w, h)
	if r.style.Background != nil {
		s.SetFillStyle(r.style.Background)
		s.FillRect(0, 0, w, h)
	}

	s.SetLineWidth(r.style.LineWidth)
	s.SetStrokeStyle(r.style.Stroke)
	s.BeginPath()

	if len(frame) == 0 {
		s.MoveTo(0, h/2)
	}
	slice := w / float64(len(frame))
	x := 0.0
	for i, b := range frame {
		v := float64(b) / 128.0
		y := v * h / 2
		if i == 0 {
			s.MoveTo(x, y)
		} else {
			s.LineTo(x, y)
		}
		x += slice
	}
	s.LineTo(w, h/2)
	s.Stroke()

	if r.sink != nil {
		r.sink.SetPosition(position)
	}
}

// Peak returns the largest deviation from silence in frame, in [0, 1].
func Peak(frame types.AmplitudeFrame) float64 {
	peak := 0
	for _, b := range frame {
		d := int(b) - 128
		if d < 0 {
			d = -d
		}
		peak = max(peak, d)
	}
	return float64(peak) / 128
}
