package spatial

import "math"

// Rect is a window rectangle: screen offset plus size.
type Rect struct {
	Left   float64 `json:"left"`
	Top    float64 `json:"top"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Box converts the rectangle to edge form.
func (r Rect) Box() Box {
	return Box{Left: r.Left, Top: r.Top, Right: r.Left + r.Width, Bottom: r.Top + r.Height}
}

// Center returns the middle of the rectangle.
func (r Rect) Center() Vec2 {
	return Vec2{X: r.Left + r.Width/2, Y: r.Top + r.Height/2}
}

// ToLocal converts a world point to this window's local coordinates.
func (r Rect) ToLocal(p Vec2) Vec2 { return Vec2{X: p.X - r.Left, Y: p.Y - r.Top} }

// ToWorld converts a local window point to world coordinates.
func (r Rect) ToWorld(p Vec2) Vec2 { return Vec2{X: p.X + r.Left, Y: p.Y + r.Top} }

// Box is an axis-aligned box in edge form.
type Box struct {
	Left   float64 `json:"left"`
	Top    float64 `json:"top"`
	Right  float64 `json:"right"`
	Bottom float64 `json:"bottom"`
}

// Contains reports whether p lies in the box, edges included.
func (b Box) Contains(p Vec2) bool {
	return p.X >= b.Left && p.X <= b.Right && p.Y >= b.Top && p.Y <= b.Bottom
}

// Union returns the smallest box covering both b and o.
func (b Box) Union(o Box) Box {
	return Box{
		Left:   math.Min(b.Left, o.Left),
		Top:    math.Min(b.Top, o.Top),
		Right:  math.Max(b.Right, o.Right),
		Bottom: math.Max(b.Bottom, o.Bottom),
	}
}

func (b Box) Width() float64  { return b.Right - b.Left }
func (b Box) Height() float64 { return b.Bottom - b.Top }

// UnionOfBoxes folds boxes into their bounding box. ok is false for an empty
// input.
func UnionOfBoxes(boxes []Box) (Box, bool) {
	if len(boxes) == 0 {
		return Box{}, false
	}
	u := boxes[0]
	for _, b := range boxes[1:] {
		u = u.Union(b)
	}
	return u, true
}
