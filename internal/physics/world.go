// Package physics integrates the soft bodies. Each body is a ring of point
// masses held in shape by springs toward their angular slots and kept
// together by a weak pull toward the body's center.
package physics

import (
	"math/rand"

	"github.com/0mlml/localstorage-window-sync/internal/spatial"
)

// World is the ordered set of bodies. The authority mutates it each frame;
// mirrors rebuild it from snapshots and only read it.
type World struct {
	Bodies []*Body
}

// NewWorld returns an empty world.
func NewWorld() *World { return &World{} }

// Empty reports whether the world has no bodies.
func (w *World) Empty() bool { return len(w.Bodies) == 0 }

// Spawn adds a body and returns it.
func (w *World) Spawn(center spatial.Vec2, radius float64) *Body {
	b := NewBody(center, radius)
	w.Bodies = append(w.Bodies, b)
	return b
}

// SpawnRandom adds a body with a random radius in [SpawnRadiusMin,
// SpawnRadiusMin+SpawnRadiusSpread).
func (w *World) SpawnRandom(center spatial.Vec2, rng *rand.Rand) *Body {
	return w.Spawn(center, SpawnRadiusMin+rng.Float64()*SpawnRadiusSpread)
}

// Step runs one simulation frame: grab bookkeeping through g, the
// integrator, then the hover test for the new outlines.
func (w *World) Step(bounds Boundary, g *Grip, pointer spatial.Vec2, buttonDown bool) {
	g.Apply(w, buttonDown)
	for _, b := range w.Bodies {
		b.Update(bounds, pointer)
	}
	w.RefreshHover(pointer)
}

// Inherit copies the per-peer interaction flags of prev onto w, body by body
// in order. Mirrors call it after loading a snapshot, which carries no grab or
// hover state.
func (w *World) Inherit(prev *World) {
	if prev == nil {
		return
	}
	for i, b := range w.Bodies {
		if i >= len(prev.Bodies) {
			return
		}
		b.Grabbed = prev.Bodies[i].Grabbed
		b.Hovered = prev.Bodies[i].Hovered
	}
}

// RefreshHover recomputes every body's hover flag for the pointer position.
func (w *World) RefreshHover(pointer spatial.Vec2) {
	for _, b := range w.Bodies {
		b.Hovered = b.Contains(pointer)
	}
}

// AnyHovered reports whether the pointer is over some body.
func (w *World) AnyHovered() bool {
	for _, b := range w.Bodies {
		if b.Hovered {
			return true
		}
	}
	return false
}
