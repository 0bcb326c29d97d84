package term

import (
	"image/color"
	"math"
	"strings"
)

// Each terminal cell holds a 2x4 grid of braille dots.
const (
	dotsX = 2
	dotsY = 4

	brailleBase = 0x2800
)

// dotBits maps a dot's position inside a cell to its bit in the braille block.
var dotBits = [dotsY][dotsX]rune{
	{0x01, 0x08},
	{0x02, 0x10},
	{0x04, 0x20},
	{0x40, 0x80},
}

type dot struct{ x, y float64 }

// Braille is a Surface2D for terminals. Its coordinate space is measured in
// dots, two per column and four per row, and strokes are 1 dot wide whatever
// the line width. Colours are left to the caller's lipgloss style.
type Braille struct {
	cols, rows int
	dots       []bool
	path       [][]dot
}

func NewBraille(cols, rows int) *Braille {
	b := &Braille{}
	b.Resize(cols, rows)
	return b
}

// Resize changes the grid to cols x rows cells and clears it.
func (b *Braille) Resize(cols, rows int) {
	b.cols, b.rows = max(cols, 1), max(rows, 1)
	b.dots = make([]bool, b.cols*dotsX*b.rows*dotsY)
	b.path = nil
}

func (b *Braille) Cells() (cols, rows int) { return b.cols, b.rows }

func (b *Braille) Size() (float64, float64) {
	return float64(b.cols * dotsX), float64(b.rows * dotsY)
}

func (b *Braille) SetFillStyle(color.Color)   {}
func (b *Braille) SetStrokeStyle(color.Color) {}
func (b *Braille) SetLineWidth(float64)       {}

func (b *Braille) ClearRect(x, y, w, h float64) {
	b.fill(x, y, w, h, false)
}

// FillRect is a no-op: the terminal background stands in for fills.
func (b *Braille) FillRect(x, y, w, h float64) {}

func (b *Braille) BeginPath() {
	b.path = b.path[:0]
}

func (b *Braille) MoveTo(x, y float64) {
	b.path = append(b.path, []dot{{x, y}})
}

func (b *Braille) LineTo(x, y float64) {
	if len(b.path) == 0 {
		b.MoveTo(x, y)
		return
	}
	last := len(b.path) - 1
	b.path[last] = append(b.path[last], dot{x, y})
}

func (b *Braille) Stroke() {
	for _, sub := range b.path {
		if len(sub) == 1 {
			b.set(sub[0].x, sub[0].y)
			continue
		}
		for i := 1; i < len(sub); i++ {
			b.line(sub[i-1], sub[i])
		}
	}
}

// Dot reports whether the dot at (x, y) is set.
func (b *Braille) Dot(x, y int) bool {
	w, h := b.cols*dotsX, b.rows*dotsY
	if x < 0 || y < 0 || x >= w || y >= h {
		return false
	}
	return b.dots[y*w+x]
}

// String renders the grid, one line per row.
func (b *Braille) String() string {
	var sb strings.Builder
	sb.Grow(b.rows * (b.cols*3 + 1))
	for row := 0; row < b.rows; row++ {
		if row > 0 {
			sb.WriteByte('\n')
		}
		for col := 0; col < b.cols; col++ {
			r := rune(brailleBase)
			for dy := 0; dy < dotsY; dy++ {
				for dx := 0; dx < dotsX; dx++ {
					if b.Dot(col*dotsX+dx, row*dotsY+dy) {
						r |= dotBits[dy][dx]
					}
				}
			}
			sb.WriteRune(r)
		}
	}
	return sb.String()
}

// line plots from a to b with Bresenham's algorithm.
func (b *Braille) line(a, c dot) {
	x0, y0 := int(math.Round(a.x)), int(math.Round(a.y))
	x1, y1 := int(math.Round(c.x)), int(math.Round(c.y))

	dx := abs(x1 - x0)
	dy := -abs(y1 - y0)
	sx, sy := 1, 1
	if x0 > x1 {
		sx = -1
	}
	if y0 > y1 {
		sy = -1
	}
	e := dx + dy
	for {
		b.setInt(x0, y0)
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * e
		if e2 >= dy {
			e += dy
			x0 += sx
		}
		if e2 <= dx {
			e += dx
			y0 += sy
		}
	}
}

func (b *Braille) set(x, y float64) {
	b.setInt(int(math.Round(x)), int(math.Round(y)))
}

// setInt clamps onto the grid, so the bottom edge (y == height) stays visible.
func (b *Braille) setInt(x, y int) {
	w, h := b.cols*dotsX, b.rows*dotsY
	x = min(max(x, 0), w-1)
	y = min(max(y, 0), h-1)
	b.dots[y*w+x] = true
}

func (b *Braille) fill(x, y, w, h float64, v bool) {
	gw, gh := b.cols*dotsX, b.rows*dotsY
	x0, y0 := max(int(x), 0), max(int(y), 0)
	x1, y1 := min(int(math.Ceil(x+w)), gw), min(int(math.Ceil(y+h)), gh)
	for yy := y0; yy < y1; yy++ {
		for xx := x0; xx < x1; xx++ {
			b.dots[yy*gw+xx] = v
		}
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
