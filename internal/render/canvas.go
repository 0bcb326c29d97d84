package render

import (
	"image"
	"image/color"
	"image/draw"

	"github.com/golang/freetype/raster"
	"golang.org/x/image/math/fixed"
)

// Canvas is a Surface2D that rasterises into an RGBA image.
type Canvas struct {
	img        *image.RGBA
	rasterizer *raster.Rasterizer
	path       raster.Path

	fill      color.Color
	stroke    color.Color
	lineWidth float64
}

func NewCanvas(width, height int) *Canvas {
	width, height = max(width, 1), max(height, 1)
	return &Canvas{
		img:        image.NewRGBA(image.Rect(0, 0, width, height)),
		rasterizer: raster.NewRasterizer(width, height),
		fill:       color.Black,
		stroke:     color.Black,
		lineWidth:  1,
	}
}

// Image returns the backing image. It is drawn into in place.
func (c *Canvas) Image() *image.RGBA { return c.img }

// Resize replaces the backing image when the size changes.
func (c *Canvas) Resize(width, height int) {
	width, height = max(width, 1), max(height, 1)
	b := c.img.Bounds()
	if b.Dx() == width && b.Dy() == height {
		return
	}
	c.img = image.NewRGBA(image.Rect(0, 0, width, height))
	c.rasterizer.SetBounds(width, height)
}

func (c *Canvas) Size() (float64, float64) {
	b := c.img.Bounds()
	return float64(b.Dx()), float64(b.Dy())
}

func (c *Canvas) SetFillStyle(col color.Color)   { c.fill = col }
func (c *Canvas) SetStrokeStyle(col color.Color) { c.stroke = col }
func (c *Canvas) SetLineWidth(w float64)         { c.lineWidth = w }

func (c *Canvas) ClearRect(x, y, w, h float64) {
	draw.Draw(c.img, rect(x, y, w, h), image.Transparent, image.Point{}, draw.Src)
}

func (c *Canvas) FillRect(x, y, w, h float64) {
	draw.Draw(c.img, rect(x, y, w, h), image.NewUniform(c.fill), image.Point{}, draw.Over)
}

func (c *Canvas) BeginPath() {
	c.path.Clear()
}

func (c *Canvas) MoveTo(x, y float64) {
	c.path.Start(point(x, y))
}

// LineTo with no current point starts the path there.
func (c *Canvas) LineTo(x, y float64) {
	if len(c.path) == 0 {
		c.path.Start(point(x, y))
		return
	}
	c.path.Add1(point(x, y))
}

func (c *Canvas) Stroke() {
	if len(c.path) == 0 || c.lineWidth <= 0 {
		return
	}

	r := c.rasterizer
	r.Clear()
	r.UseNonZeroWinding = true
	r.AddStroke(c.path, fixed.Int26_6(c.lineWidth*64), raster.RoundCapper, raster.RoundJoiner)

	painter := raster.NewRGBAPainter(c.img)
	painter.SetColor(c.stroke)
	r.Rasterize(painter)
}

func point(x, y float64) fixed.Point26_6 {
	return fixed.Point26_6{X: fixed.Int26_6(x * 64), Y: fixed.Int26_6(y * 64)}
}

func rect(x, y, w, h float64) image.Rectangle {
	return image.Rect(int(x), int(y), int(x+w+0.5), int(y+h+0.5))
}
