package view

import (
	"fmt"

	"github.com/gdamore/tcell/v2"

	"github.com/0mlml/localstorage-window-sync/internal/frame"
	"github.com/0mlml/localstorage-window-sync/internal/spatial"
)

// Glyphs used by the rasterizer.
const (
	GlyphWindow     = '·'
	GlyphSelfWindow = '#'
	GlyphNode       = 'o'
	GlyphHovered    = '@'
	GlyphGrabbed    = 'O'
	GlyphCenter     = '+'
	GlyphPointer    = 'x'
)

var (
	styleWindow     = tcell.StyleDefault.Foreground(tcell.ColorGray)
	styleSelfWindow = tcell.StyleDefault.Foreground(tcell.ColorBlue)
	styleBody       = tcell.StyleDefault.Foreground(tcell.ColorGreen)
	styleGrabbed    = tcell.StyleDefault.Foreground(tcell.ColorYellow).Bold(true)
	stylePointer    = tcell.StyleDefault.Foreground(tcell.ColorRed)
	styleStatus     = tcell.StyleDefault.Reverse(true)
)

// Cell is one terminal cell.
type Cell struct {
	Ch    rune
	Style tcell.Style
}

// Canvas is a rasterized frame. Row 0 is the status line; the scene fills
// the remaining rows.
type Canvas struct {
	Cols, Rows int
	Cells      []Cell
}

// At returns the cell at column x, row y.
func (c *Canvas) At(x, y int) Cell { return c.Cells[y*c.Cols+x] }

func (c *Canvas) set(x, y int, ch rune, style tcell.Style) {
	if x < 0 || y < 0 || x >= c.Cols || y >= c.Rows {
		return
	}
	c.Cells[y*c.Cols+x] = Cell{Ch: ch, Style: style}
}

func (c *Canvas) text(x, y int, s string, style tcell.Style) {
	for _, r := range s {
		c.set(x, y, r, style)
		x++
	}
}

// projection maps world coordinates into scene cells.
type projection struct {
	world      spatial.Box
	cols, rows int
}

func (p projection) cell(v spatial.Vec2) (int, int) {
	w, h := p.world.Width(), p.world.Height()
	if w <= 0 || h <= 0 {
		return -1, -1
	}
	x := int((v.X - p.world.Left) / w * float64(p.cols-1))
	y := int((v.Y - p.world.Top) / h * float64(p.rows-1))
	return x, y + 1
}

// Rasterize draws a frame onto a cols x rows canvas. The scene is scaled so
// that the union of all known windows fills it.
func Rasterize(f frame.Frame, cols, rows int) *Canvas {
	c := &Canvas{Cols: cols, Rows: rows, Cells: make([]Cell, cols*rows)}
	for i := range c.Cells {
		c.Cells[i] = Cell{Ch: ' ', Style: tcell.StyleDefault}
	}
	if cols <= 0 || rows <= 1 {
		return c
	}

	role := "mirror"
	if f.Authority {
		role = "authority"
	}
	status := fmt.Sprintf(" %s  %s  epoch %d  bodies %d  peers %d ", f.Peer, role, f.Epoch, len(f.Bodies), len(f.Peers))
	for x := 0; x < cols; x++ {
		c.set(x, 0, ' ', styleStatus)
	}
	c.text(0, 0, status, styleStatus)

	p := projection{world: sceneBounds(f), cols: cols, rows: rows - 1}

	for _, pv := range f.Peers {
		glyph, style := GlyphWindow, styleWindow
		if pv.Self {
			glyph, style = GlyphSelfWindow, styleSelfWindow
		}
		outlineBox(c, p, pv.Rect.Box(), glyph, style)
	}

	for _, b := range f.Bodies {
		glyph, style := GlyphNode, styleBody
		switch {
		case b.Grabbed:
			glyph, style = GlyphGrabbed, styleGrabbed
		case b.Hovered:
			glyph = GlyphHovered
		}
		for _, n := range b.Outline {
			x, y := p.cell(n)
			c.set(x, y, glyph, style)
		}
		x, y := p.cell(b.Center)
		c.set(x, y, GlyphCenter, style)
	}

	x, y := p.cell(f.Pointer.Pos)
	c.set(x, y, GlyphPointer, stylePointer)
	return c
}

// sceneBounds is the union of the peer windows, or this peer's window when
// no peers are known.
func sceneBounds(f frame.Frame) spatial.Box {
	boxes := make([]spatial.Box, 0, len(f.Peers))
	for _, pv := range f.Peers {
		boxes = append(boxes, pv.Rect.Box())
	}
	if union, ok := spatial.UnionOfBoxes(boxes); ok {
		return union
	}
	return f.Window.Box()
}

func outlineBox(c *Canvas, p projection, b spatial.Box, glyph rune, style tcell.Style) {
	x0, y0 := p.cell(spatial.V(b.Left, b.Top))
	x1, y1 := p.cell(spatial.V(b.Right, b.Bottom))
	for x := x0; x <= x1; x++ {
		c.set(x, y0, glyph, style)
		c.set(x, y1, glyph, style)
	}
	for y := y0; y <= y1; y++ {
		c.set(x0, y, glyph, style)
		c.set(x1, y, glyph, style)
	}
}
