// Package frame is the render output of a peer: what a collaborator needs to
// draw one tick of the scene in its window.
package frame

import (
	"time"

	"github.com/0mlml/localstorage-window-sync/internal/peer"
	"github.com/0mlml/localstorage-window-sync/internal/physics"
	"github.com/0mlml/localstorage-window-sync/internal/pointer"
	"github.com/0mlml/localstorage-window-sync/internal/registry"
	"github.com/0mlml/localstorage-window-sync/internal/spatial"
)

// Cursor styles.
const (
	CursorDefault = "default"
	CursorPointer = "pointer"
)

// Frame is one rendered tick.
type Frame struct {
	Peer      peer.ID        `json:"peer"`
	Seq       uint64         `json:"seq"`
	At        time.Time      `json:"at"`
	Authority bool           `json:"authority"`
	Epoch     uint64         `json:"epoch"`
	Window    spatial.Rect   `json:"window"`
	Pointer   pointer.Sample `json:"pointer"`
	Cursor    string         `json:"cursor"`
	Bodies    []BodyView     `json:"bodies"`
	Peers     []PeerView     `json:"peers"`
}

// BodyView is a body outline in world and window-local coordinates.
type BodyView struct {
	Center  spatial.Vec2   `json:"center"`
	Radius  float64        `json:"radius"`
	Outline []spatial.Vec2 `json:"outline"`
	Local   []spatial.Vec2 `json:"local"`
	Hovered bool           `json:"hovered"`
	Grabbed bool           `json:"grabbed"`
}

// PeerView is a live window rectangle.
type PeerView struct {
	Peer peer.ID      `json:"peer"`
	Rect spatial.Rect `json:"rect"`
	Self bool         `json:"self"`
}

// Sink consumes frames. Publish is called from the scheduler goroutine and
// must not block.
type Sink interface {
	Publish(f Frame)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(f Frame)

func (fn SinkFunc) Publish(f Frame) { fn(f) }

// Bodies projects the world into views for a window.
func Bodies(w *physics.World, window spatial.Rect) []BodyView {
	views := make([]BodyView, 0, len(w.Bodies))
	for _, b := range w.Bodies {
		v := BodyView{
			Center:  b.Pos,
			Radius:  b.Radius,
			Outline: make([]spatial.Vec2, len(b.Nodes)),
			Local:   make([]spatial.Vec2, len(b.Nodes)),
			Hovered: b.Hovered,
			Grabbed: b.Grabbed,
		}
		for i, n := range b.Nodes {
			v.Outline[i] = n.Pos
			v.Local[i] = window.ToLocal(n.Pos)
		}
		views = append(views, v)
	}
	return views
}

// Peers converts registry rectangles into views.
func Peers(self peer.ID, rects []registry.PeerRect) []PeerView {
	views := make([]PeerView, len(rects))
	for i, pr := range rects {
		views[i] = PeerView{Peer: pr.Peer, Rect: pr.Rect, Self: pr.Peer == self}
	}
	return views
}

// CursorFor returns the cursor style for the window.
func CursorFor(w *physics.World) string {
	if w.AnyHovered() {
		return CursorPointer
	}
	return CursorDefault
}
