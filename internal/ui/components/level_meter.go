package components

import (
	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
)

// LevelMeter is a horizontal bar showing the current signal peak.
type LevelMeter struct {
	widget.BaseWidget
	value float64 // 0..1
}

func NewLevelMeter() *LevelMeter {
	m := &LevelMeter{}
	m.ExtendBaseWidget(m)
	return m
}

func (m *LevelMeter) SetValue(v float64) {
	v = max(0, min(v, 1))
	if v == m.value {
		return
	}
	m.value = v
	m.Refresh()
}

func (m *LevelMeter) Value() float64 { return m.value }

func (m *LevelMeter) MinSize() fyne.Size { return fyne.NewSize(60, 4) }

type levelMeterRenderer struct {
	meter   *LevelMeter
	track   *canvas.Rectangle
	fill    *canvas.Rectangle
	objects []fyne.CanvasObject
}

func (m *LevelMeter) CreateRenderer() fyne.WidgetRenderer {
	r := &levelMeterRenderer{
		meter: m,
		track: canvas.NewRectangle(theme.ShadowColor()),
		fill:  canvas.NewRectangle(theme.PrimaryColor()),
	}
	r.objects = []fyne.CanvasObject{r.track, r.fill}
	return r
}

func (r *levelMeterRenderer) Layout(size fyne.Size) {
	r.track.Resize(size)
	r.fill.Resize(fyne.NewSize(size.Width*float32(r.meter.value), size.Height))
}
func (r *levelMeterRenderer) MinSize() fyne.Size           { return r.meter.MinSize() }
func (r *levelMeterRenderer) Refresh()                     { r.Layout(r.meter.Size()); canvas.Refresh(r.fill) }
func (r *levelMeterRenderer) Objects() []fyne.CanvasObject { return r.objects }
func (r *levelMeterRenderer) Destroy()                     {}
