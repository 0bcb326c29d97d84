package audiotest

import (
	"fmt"
	"image/color"
	"sync"
	"time"

	"github.com/Alexander-D-Karpov/ampwave/pkg/types"
)

// Point is a path vertex recorded by Surface.
type Point struct{ X, Y float64 }

// Surface records drawing calls. Ops holds one entry per call, Path the
// vertices of the most recent path.
type Surface struct {
	W, H        float64
	Ops         []string
	Path        []Point
	Strokes     int
	Clears      int
	LineWidth   float64
	StrokeColor color.Color
	FillColor   color.Color
}

func NewSurface(w, h float64) *Surface {
	return &Surface{W: w, H: h}
}

func (s *Surface) Size() (float64, float64) { return s.W, s.H }

func (s *Surface) SetFillStyle(c color.Color) {
	s.FillColor = c
	s.Ops = append(s.Ops, "fillStyle")
}

func (s *Surface) SetStrokeStyle(c color.Color) {
	s.StrokeColor = c
	s.Ops = append(s.Ops, "strokeStyle")
}

func (s *Surface) SetLineWidth(w float64) {
	s.LineWidth = w
	s.Ops = append(s.Ops, "lineWidth")
}

func (s *Surface) ClearRect(x, y, w, h float64) {
	s.Clears++
	s.Ops = append(s.Ops, fmt.Sprintf("clearRect(%g,%g,%g,%g)", x, y, w, h))
}

func (s *Surface) FillRect(x, y, w, h float64) {
	s.Ops = append(s.Ops, fmt.Sprintf("fillRect(%g,%g,%g,%g)", x, y, w, h))
}

func (s *Surface) BeginPath() {
	s.Path = s.Path[:0]
	s.Ops = append(s.Ops, "beginPath")
}

func (s *Surface) MoveTo(x, y float64) {
	s.Path = append(s.Path, Point{x, y})
	s.Ops = append(s.Ops, "moveTo")
}

func (s *Surface) LineTo(x, y float64) {
	s.Path = append(s.Path, Point{x, y})
	s.Ops = append(s.Ops, "lineTo")
}

func (s *Surface) Stroke() {
	s.Strokes++
	s.Ops = append(s.Ops, "stroke")
}

func (s *Surface) Reset() {
	s.Ops = nil
	s.Path = nil
	s.Strokes = 0
	s.Clears = 0
}

// Scheduler queues frame callbacks until Step runs them.
type Scheduler struct {
	mu      sync.Mutex
	next    types.FrameHandle
	pending map[types.FrameHandle]types.FrameCallback
	order   []types.FrameHandle
	Cancels []types.FrameHandle
}

func NewScheduler() *Scheduler {
	return &Scheduler{pending: map[types.FrameHandle]types.FrameCallback{}}
}

func (s *Scheduler) RequestFrame(cb types.FrameCallback) types.FrameHandle {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.next++
	s.pending[s.next] = cb
	s.order = append(s.order, s.next)
	return s.next
}

func (s *Scheduler) CancelFrame(h types.FrameHandle) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Cancels = append(s.Cancels, h)
	delete(s.pending, h)
}

// Step runs the callbacks pending at the time of the call and reports how many ran.
func (s *Scheduler) Step(now time.Time) int {
	s.mu.Lock()
	order := s.order
	s.order = nil
	var due []types.FrameCallback
	for _, h := range order {
		if cb, ok := s.pending[h]; ok {
			due = append(due, cb)
			delete(s.pending, h)
		}
	}
	s.mu.Unlock()

	for _, cb := range due {
		cb(now)
	}
	return len(due)
}

func (s *Scheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}
