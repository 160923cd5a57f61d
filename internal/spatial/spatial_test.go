package spatial_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/0mlml/localstorage-window-sync/internal/spatial"
)

func TestVectorOps(t *testing.T) {
	a := spatial.V(3, 4)
	assert.InDelta(t, 5.0, a.Len(), 1e-9)
	assert.InDelta(t, 5.0, spatial.V(0, 0).Distance(a), 1e-9)
	assert.Equal(t, spatial.V(4, 6), a.Add(spatial.V(1, 2)))
	assert.Equal(t, spatial.V(2, 2), a.Sub(spatial.V(1, 2)))
	assert.Equal(t, spatial.V(6, 8), a.Scale(2))

	u := a.Unit()
	assert.InDelta(t, 1.0, u.Len(), 1e-9)
	assert.Equal(t, spatial.Vec2{}, spatial.Vec2{}.Unit())
}

func TestOnCircle(t *testing.T) {
	c := spatial.V(10, 10)
	p0 := spatial.OnCircle(c, 5, 0, 4)
	assert.InDelta(t, 15, p0.X, 1e-9)
	assert.InDelta(t, 10, p0.Y, 1e-9)

	p1 := spatial.OnCircle(c, 5, 1, 4)
	assert.InDelta(t, 10, p1.X, 1e-9)
	assert.InDelta(t, 15, p1.Y, 1e-9)
}

func TestRectBoxAndConversion(t *testing.T) {
	r := spatial.Rect{Left: 80, Top: -20, Width: 100, Height: 50}
	assert.Equal(t, spatial.Box{Left: 80, Top: -20, Right: 180, Bottom: 30}, r.Box())
	assert.Equal(t, spatial.V(130, 5), r.Center())

	world := spatial.V(100, 0)
	local := r.ToLocal(world)
	assert.Equal(t, spatial.V(20, 20), local)
	assert.Equal(t, world, r.ToWorld(local))
}

func TestBoxContainsEdgesInclusive(t *testing.T) {
	b := spatial.Box{Left: 0, Top: 0, Right: 10, Bottom: 10}
	assert.True(t, b.Contains(spatial.V(0, 0)))
	assert.True(t, b.Contains(spatial.V(10, 10)))
	assert.True(t, b.Contains(spatial.V(5, 5)))
	assert.False(t, b.Contains(spatial.V(10.01, 5)))
	assert.False(t, b.Contains(spatial.V(5, -0.01)))
}

func TestUnionOfBoxes(t *testing.T) {
	_, ok := spatial.UnionOfBoxes(nil)
	assert.False(t, ok)

	u, ok := spatial.UnionOfBoxes([]spatial.Box{
		{Left: 0, Top: 0, Right: 100, Bottom: 50},
		{Left: 80, Top: -20, Right: 180, Bottom: 30},
	})
	require.True(t, ok)
	assert.Equal(t, spatial.Box{Left: 0, Top: -20, Right: 180, Bottom: 50}, u)
	assert.InDelta(t, 180, u.Width(), 1e-9)
	assert.InDelta(t, 70, u.Height(), 1e-9)
}

func TestPolygonContains(t *testing.T) {
	square := spatial.Polygon{spatial.V(0, 0), spatial.V(10, 0), spatial.V(10, 10), spatial.V(0, 10)}
	assert.True(t, square.Contains(spatial.V(5, 5)))
	assert.False(t, square.Contains(spatial.V(15, 5)))
	assert.False(t, square.Contains(spatial.V(5, -1)))

	// concave "L"
	l := spatial.Polygon{
		spatial.V(0, 0), spatial.V(10, 0), spatial.V(10, 4),
		spatial.V(4, 4), spatial.V(4, 10), spatial.V(0, 10),
	}
	assert.True(t, l.Contains(spatial.V(2, 8)))
	assert.False(t, l.Contains(spatial.V(8, 8)))

	assert.False(t, spatial.Polygon{spatial.V(0, 0), spatial.V(1, 1)}.Contains(spatial.V(0.5, 0.5)))
}

func TestPolygonSelfIntersectingUsesNonzeroWinding(t *testing.T) {
	// a pentagram: every second vertex of a pentagon, so the center is
	// wound twice
	star := make(spatial.Polygon, 5)
	for k := range star {
		star[k] = spatial.OnCircle(spatial.Vec2{}, 10, (2*k)%5, 5)
	}
	assert.True(t, star.Contains(spatial.V(0, 0)))
	assert.True(t, star.Contains(spatial.V(8, 0)), "inside a tip")
	assert.False(t, star.Contains(spatial.V(11, 0)))

	// reversing the winding direction does not change containment
	rev := make(spatial.Polygon, len(star))
	for i := range star {
		rev[i] = star[len(star)-1-i]
	}
	assert.True(t, rev.Contains(spatial.V(0, 0)))
}

func TestPolygonCircleCentroid(t *testing.T) {
	c := spatial.V(-7, 12)
	poly := make(spatial.Polygon, 30)
	for i := range poly {
		poly[i] = spatial.OnCircle(c, 50, i, len(poly))
	}
	got := poly.Centroid()
	assert.InDelta(t, c.X, got.X, 1e-9)
	assert.InDelta(t, c.Y, got.Y, 1e-9)
	assert.True(t, poly.Contains(c))
	assert.False(t, poly.Contains(spatial.V(c.X+51, c.Y)))
	assert.False(t, math.IsNaN(got.X))
}
