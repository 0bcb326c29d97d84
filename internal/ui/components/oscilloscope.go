package components

import (
	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/widget"

	"github.com/Alexander-D-Karpov/ampwave/internal/render"
)

// Oscilloscope shows the live waveform. The renderer draws into Surface; the
// image is stretched to the widget's size.
type Oscilloscope struct {
	widget.BaseWidget
	surface *render.Canvas
	image   *canvas.Image
}

func NewOscilloscope(width, height int) *Oscilloscope {
	surface := render.NewCanvas(width, height)
	img := canvas.NewImageFromImage(surface.Image())
	img.FillMode = canvas.ImageFillStretch
	img.ScaleMode = canvas.ImageScaleSmooth

	o := &Oscilloscope{surface: surface, image: img}
	o.ExtendBaseWidget(o)
	return o
}

func (o *Oscilloscope) Surface() *render.Canvas { return o.surface }

// Redraw pushes the surface's current pixels to the screen.
func (o *Oscilloscope) Redraw() {
	o.image.Image = o.surface.Image()
	o.image.Refresh()
}

func (o *Oscilloscope) MinSize() fyne.Size { return fyne.NewSize(200, 80) }

func (o *Oscilloscope) CreateRenderer() fyne.WidgetRenderer {
	return widget.NewSimpleRenderer(o.image)
}
