// Package spatial holds the 2D geometry shared by the registry and the
// integrator: vectors, axis-aligned boxes and polygons in world coordinates.
package spatial

import "math"

// Vec2 is a point or displacement in world (screen) coordinates.
type Vec2 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// V is shorthand for Vec2{X: x, Y: y}.
func V(x, y float64) Vec2 { return Vec2{X: x, Y: y} }

func (v Vec2) Add(o Vec2) Vec2 { return Vec2{X: v.X + o.X, Y: v.Y + o.Y} }

func (v Vec2) Sub(o Vec2) Vec2 { return Vec2{X: v.X - o.X, Y: v.Y - o.Y} }

func (v Vec2) Scale(f float64) Vec2 { return Vec2{X: v.X * f, Y: v.Y * f} }

// Len returns the Euclidean length.
func (v Vec2) Len() float64 { return math.Hypot(v.X, v.Y) }

// Distance returns the Euclidean distance between two points.
func (v Vec2) Distance(o Vec2) float64 { return v.Sub(o).Len() }

// Unit returns v scaled to length 1, or the zero vector when v is zero.
func (v Vec2) Unit() Vec2 {
	l := v.Len()
	if l == 0 {
		return Vec2{}
	}
	return v.Scale(1 / l)
}

// IsZero reports whether both components are zero.
func (v Vec2) IsZero() bool { return v.X == 0 && v.Y == 0 }

// Finite reports whether both components are finite numbers.
func (v Vec2) Finite() bool {
	return !math.IsNaN(v.X) && !math.IsInf(v.X, 0) && !math.IsNaN(v.Y) && !math.IsInf(v.Y, 0)
}

// OnCircle returns the point at angle 2π·i/n on the circle of radius r
// around center.
func OnCircle(center Vec2, r float64, i, n int) Vec2 {
	angle := float64(i) / float64(n) * 2 * math.Pi
	return Vec2{X: center.X + r*math.Cos(angle), Y: center.Y + r*math.Sin(angle)}
}
