package ui

import (
	"time"

	"fyne.io/fyne/v2"

	"github.com/Alexander-D-Karpov/ampwave/internal/render"
)

// AnimationScheduler flushes its frame queue on every tick of a fyne
// animation, so frame callbacks run on the UI thread at the display rate.
type AnimationScheduler struct {
	*render.FrameQueue
	anim *fyne.Animation
}

func NewAnimationScheduler() *AnimationScheduler {
	s := &AnimationScheduler{FrameQueue: render.NewFrameQueue()}
	s.anim = fyne.NewAnimation(time.Second, func(float32) {
		s.Flush(time.Now())
	})
	s.anim.Curve = fyne.AnimationLinear
	s.anim.RepeatCount = fyne.AnimationRepeatForever
	return s
}

func (s *AnimationScheduler) Start() { s.anim.Start() }
func (s *AnimationScheduler) Stop()  { s.anim.Stop() }
