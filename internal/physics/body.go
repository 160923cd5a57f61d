package physics

import "github.com/0mlml/localstorage-window-sync/internal/spatial"

// Body is a ring of nodes elastically tied to a moving center. Node i owns
// the angular slot 2π·i/len(Nodes).
type Body struct {
	Pos    spatial.Vec2
	Vel    spatial.Vec2
	Acc    spatial.Vec2
	Radius float64
	Nodes  []Node

	Grabbed bool
	Hovered bool
}

// NewBody places NodeCount nodes on a circle around center.
func NewBody(center spatial.Vec2, radius float64) *Body {
	return NewBodyWithNodes(center, radius, NodeCount)
}

// NewBodyWithNodes is NewBody with an explicit node count.
func NewBodyWithNodes(center spatial.Vec2, radius float64, n int) *Body {
	b := &Body{Pos: center, Radius: radius, Nodes: make([]Node, n)}
	for i := range b.Nodes {
		b.Nodes[i] = Node{Pos: spatial.OnCircle(center, radius, i, n), Radius: radius}
	}
	return b
}

// Slot returns the rest position of node i around the current center.
func (b *Body) Slot(i int) spatial.Vec2 {
	return spatial.OnCircle(b.Pos, b.Radius, i, len(b.Nodes))
}

// Outline returns the node positions as a polygon.
func (b *Body) Outline() spatial.Polygon {
	poly := make(spatial.Polygon, len(b.Nodes))
	for i := range b.Nodes {
		poly[i] = b.Nodes[i].Pos
	}
	return poly
}

// Centroid is the mean node position.
func (b *Body) Centroid() spatial.Vec2 { return b.Outline().Centroid() }

// Contains reports whether p is inside the node outline.
func (b *Body) Contains(p spatial.Vec2) bool { return b.Outline().Contains(p) }

// Update advances the body one step. While grabbed the center homes in on
// pointer at constant acceleration.
func (b *Body) Update(bounds Boundary, pointer spatial.Vec2) {
	// acceleration from the previous step is applied before it is recomputed
	b.Vel = b.Vel.Add(b.Acc)
	if b.Grabbed {
		b.Acc = pointer.Sub(b.Pos).Unit().Scale(BodyFollow)
	} else {
		b.Acc = spatial.Vec2{}
	}
	b.Vel = b.Vel.Scale(BodyDamping)

	box, ok := bounds.BoundaryAt(b.Pos)
	b.Pos = b.Pos.Add(b.Vel)
	if ok {
		bounce(&b.Pos.X, &b.Vel.X, box.Left, box.Right, BodyBounce)
		bounce(&b.Pos.Y, &b.Vel.Y, box.Top, box.Bottom, BodyBounce)
	}

	if len(b.Nodes) == 0 {
		return
	}

	drift := b.Pos.Sub(b.Centroid())
	correction := drift.Scale(drift.Len() / CenterForceDivisor)

	for i := range b.Nodes {
		n := &b.Nodes[i]
		n.Acc = n.Acc.Add(correction)
		// later slots see the center already moved by earlier push-backs
		push := n.Update(bounds, b.Slot(i), true)
		b.Pos = b.Pos.Add(push)
	}
}
