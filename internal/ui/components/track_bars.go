package components

import (
	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
)

// TrackBars draws one bar per preview height. Heights are in [0, 100]; bars
// before the playback position use the primary colour.
type TrackBars struct {
	widget.BaseWidget
	heights  []float64
	progress float64 // 0..1
}

func NewTrackBars() *TrackBars {
	t := &TrackBars{}
	t.ExtendBaseWidget(t)
	return t
}

func (t *TrackBars) Clear() {
	t.heights = nil
	t.Refresh()
}

// SetHeights replaces the bars. The slice is kept, not copied.
func (t *TrackBars) SetHeights(heights []float64) {
	t.heights = heights
	t.Refresh()
}

func (t *TrackBars) SetProgress(p float64) {
	p = max(0, min(p, 1))
	if p == t.progress {
		return
	}
	t.progress = p
	t.Refresh()
}

func (t *TrackBars) Len() int { return len(t.heights) }

func (t *TrackBars) MinSize() fyne.Size { return fyne.NewSize(10, 40) }

type trackBarsRenderer struct {
	t       *TrackBars
	track   *canvas.Rectangle
	bars    []*canvas.Rectangle
	objects []fyne.CanvasObject
	barGap  float32
}

func (t *TrackBars) CreateRenderer() fyne.WidgetRenderer {
	r := &trackBarsRenderer{
		t:      t,
		track:  canvas.NewRectangle(theme.ShadowColor()),
		barGap: 1,
	}
	r.objects = []fyne.CanvasObject{r.track}
	return r
}

func (r *trackBarsRenderer) MinSize() fyne.Size           { return r.t.MinSize() }
func (r *trackBarsRenderer) Objects() []fyne.CanvasObject { return r.objects }
func (r *trackBarsRenderer) Destroy()                     {}

func (r *trackBarsRenderer) Refresh() {
	r.Layout(r.t.Size())
	canvas.Refresh(r.track)
}

func (r *trackBarsRenderer) Layout(size fyne.Size) {
	r.track.Resize(size)

	heights := r.t.heights
	count := len(heights)
	for len(r.bars) < count {
		rect := canvas.NewRectangle(theme.DisabledColor())
		r.bars = append(r.bars, rect)
		r.objects = append(r.objects, rect)
	}
	for i := count; i < len(r.bars); i++ {
		r.bars[i].Hide()
	}
	if count == 0 || size.Width <= 0 || size.Height <= 0 {
		for _, b := range r.bars {
			b.Hide()
		}
		return
	}

	step := size.Width / float32(count)
	bw := max(step-r.barGap, 1)
	played := int(r.t.progress * float64(count))
	h := size.Height

	for i, v := range heights {
		barHeight := float32(v/100) * h
		if barHeight < 1 {
			barHeight = 1 // keep silent stretches visible
		}

		bar := r.bars[i]
		if i < played {
			bar.FillColor = theme.PrimaryColor()
		} else {
			bar.FillColor = theme.DisabledColor()
		}
		bar.Show()
		bar.Resize(fyne.NewSize(bw, barHeight))
		bar.Move(fyne.NewPos(float32(i)*step, h-barHeight))
		bar.Refresh()
	}
}
