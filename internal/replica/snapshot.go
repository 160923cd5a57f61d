package replica

import (
	"encoding/json"
	"fmt"

	"github.com/0mlml/localstorage-window-sync/internal/physics"
	"github.com/0mlml/localstorage-window-sync/internal/spatial"
)

// NodeState is the stored kinematics of one node.
type NodeState struct {
	X  float64 `json:"x"`
	Y  float64 `json:"y"`
	VX float64 `json:"vx"`
	VY float64 `json:"vy"`
	AX float64 `json:"ax"`
	AY float64 `json:"ay"`
}

// BodyState is the stored kinematics of one body and its nodes.
type BodyState struct {
	TX     float64     `json:"tx"`
	TY     float64     `json:"ty"`
	TXV    float64     `json:"txv"`
	TYV    float64     `json:"tyv"`
	TXA    float64     `json:"txa"`
	TYA    float64     `json:"tya"`
	Radius float64     `json:"radius"`
	Nodes  []NodeState `json:"nodes"`
}

// Snapshot captures the world in its stored form.
func Snapshot(w *physics.World) []BodyState {
	out := make([]BodyState, 0, len(w.Bodies))
	for _, b := range w.Bodies {
		bs := BodyState{
			TX: b.Pos.X, TY: b.Pos.Y,
			TXV: b.Vel.X, TYV: b.Vel.Y,
			TXA: b.Acc.X, TYA: b.Acc.Y,
			Radius: b.Radius,
			Nodes:  make([]NodeState, len(b.Nodes)),
		}
		for i, n := range b.Nodes {
			bs.Nodes[i] = NodeState{
				X: n.Pos.X, Y: n.Pos.Y,
				VX: n.Vel.X, VY: n.Vel.Y,
				AX: n.Acc.X, AY: n.Acc.Y,
			}
		}
		out = append(out, bs)
	}
	return out
}

// Restore rebuilds a world from stored kinematics. A body stored without
// nodes gets a fresh ring at its center.
func Restore(states []BodyState) *physics.World {
	w := physics.NewWorld()
	for _, bs := range states {
		center := spatial.V(bs.TX, bs.TY)
		var b *physics.Body
		if len(bs.Nodes) == 0 {
			b = physics.NewBody(center, bs.Radius)
		} else {
			b = physics.NewBodyWithNodes(center, bs.Radius, 0)
			b.Nodes = make([]physics.Node, len(bs.Nodes))
			for i, ns := range bs.Nodes {
				b.Nodes[i] = physics.Node{
					Pos:    spatial.V(ns.X, ns.Y),
					Vel:    spatial.V(ns.VX, ns.VY),
					Acc:    spatial.V(ns.AX, ns.AY),
					Radius: bs.Radius,
				}
			}
		}
		b.Vel = spatial.V(bs.TXV, bs.TYV)
		b.Acc = spatial.V(bs.TXA, bs.TYA)
		w.Bodies = append(w.Bodies, b)
	}
	return w
}

// Encode serializes the world as the bodies JSON array.
func Encode(w *physics.World) (string, error) {
	data, err := json.Marshal(Snapshot(w))
	if err != nil {
		return "", fmt.Errorf("encode bodies: %w", err)
	}
	return string(data), nil
}

// Decode parses the bodies JSON array. "null" decodes to an empty world.
func Decode(raw string) (*physics.World, error) {
	var states []BodyState
	if err := json.Unmarshal([]byte(raw), &states); err != nil {
		return nil, fmt.Errorf("decode bodies: %w", err)
	}
	for i, bs := range states {
		if !spatial.V(bs.TX, bs.TY).Finite() || bs.Radius <= 0 {
			return nil, fmt.Errorf("decode bodies: body %d is degenerate", i)
		}
	}
	return Restore(states), nil
}
