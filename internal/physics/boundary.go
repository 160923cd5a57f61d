package physics

import "github.com/0mlml/localstorage-window-sync/internal/spatial"

// Boundary yields the collision box for a position. ok is false when no
// geometry is known, in which case the position is left unclamped.
type Boundary interface {
	BoundaryAt(p spatial.Vec2) (box spatial.Box, ok bool)
}

// Fixed is a Boundary that is the same box everywhere.
type Fixed spatial.Box

func (f Fixed) BoundaryAt(spatial.Vec2) (spatial.Box, bool) { return spatial.Box(f), true }

// Unbounded never clamps.
type Unbounded struct{}

func (Unbounded) BoundaryAt(spatial.Vec2) (spatial.Box, bool) { return spatial.Box{}, false }

// bounce clamps *pos into [lo, hi] and reflects *vel with the given
// restitution. It reports whether either side was hit.
func bounce(pos, vel *float64, lo, hi, restitution float64) bool {
	hit := false
	if *pos < lo {
		*pos = lo
		*vel *= -restitution
		hit = true
	}
	if *pos > hi {
		*pos = hi
		*vel *= -restitution
		hit = true
	}
	return hit
}
