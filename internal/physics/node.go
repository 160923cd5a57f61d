package physics

import "github.com/0mlml/localstorage-window-sync/internal/spatial"

// Node is one point mass on a body's ring.
type Node struct {
	Pos    spatial.Vec2
	Vel    spatial.Vec2
	Acc    spatial.Vec2
	Radius float64
}

// Update advances the node one step with semi-implicit Euler. The boundary
// is looked up at the position before the move. When hasTarget is set the
// node is pulled toward target with a force growing with distance.
// The returned push-back is the impulse from a wall hit on each axis, for the
// parent body to absorb.
func (n *Node) Update(bounds Boundary, target spatial.Vec2, hasTarget bool) spatial.Vec2 {
	n.Vel = n.Vel.Add(n.Acc).Scale(NodeDamping)
	n.Acc = spatial.Vec2{}

	box, ok := bounds.BoundaryAt(n.Pos)

	n.Pos = n.Pos.Add(n.Vel)

	var push spatial.Vec2
	if ok {
		if bounce(&n.Pos.X, &n.Vel.X, box.Left, box.Right, NodeBounce) {
			push.X = n.Vel.X * NodeStiffness
		}
		if bounce(&n.Pos.Y, &n.Vel.Y, box.Top, box.Bottom, NodeBounce) {
			push.Y = n.Vel.Y * NodeStiffness
		}
	}

	if hasTarget {
		d := target.Sub(n.Pos)
		force := NodeStiffness * d.Len() / ShapeForceDivisor
		n.Acc = n.Acc.Add(d.Scale(force))
	}
	return push
}
