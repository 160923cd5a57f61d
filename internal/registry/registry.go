// Package registry tracks the window rectangle of every live peer and turns
// them into the collision geometry used by the integrator.
package registry

import (
	"context"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/0mlml/localstorage-window-sync/internal/peer"
	"github.com/0mlml/localstorage-window-sync/internal/spatial"
	"github.com/0mlml/localstorage-window-sync/internal/storage"
)

// Registry reads and writes the pos<peerId> entries and caches the geometry
// of the last UpdateEdges call. It is owned by one scheduler goroutine.
type Registry struct {
	sc *peer.SyncContext

	peers    []PeerRect
	edges    spatial.Box
	hasEdges bool
}

// New creates a Registry.
func New(sc *peer.SyncContext) *Registry {
	return &Registry{sc: sc}
}

// PublishSelf writes this peer's window rectangle stamped with the current time.
func (r *Registry) PublishSelf(ctx context.Context, rect spatial.Rect) error {
	pr := PeerRect{Peer: r.sc.Self, Rect: rect, LastSeen: r.sc.Now()}
	if err := r.sc.Store.Set(ctx, storage.PeerRectKey(r.sc.Self.String()), pr.Encode()); err != nil {
		return fmt.Errorf("publish rect: %w", err)
	}
	return nil
}

// CollectLivePeers returns every parseable rectangle in the store, ordered by
// peer id. Staleness is not checked here; stale entries linger until the
// authority evicts them.
func (r *Registry) CollectLivePeers(ctx context.Context) ([]PeerRect, error) {
	entries, err := storage.Scan(ctx, r.sc.Store, storage.PeerRectPrefix)
	if err != nil {
		return nil, err
	}
	peers := make([]PeerRect, 0, len(entries))
	for key, value := range entries {
		id, ok := peerIDFromKey(key)
		if !ok {
			continue
		}
		pr, err := ParsePeerRect(id, value)
		if err != nil {
			continue
		}
		peers = append(peers, pr)
	}
	sort.Slice(peers, func(i, j int) bool { return peers[i].Peer < peers[j].Peer })
	return peers, nil
}

// EvictStale deletes rectangles older than the stale window and entries that
// do not parse. Only the authority may call it; mirrors never delete peer
// entries. Returns the evicted peer ids.
func (r *Registry) EvictStale(ctx context.Context) ([]peer.ID, error) {
	entries, err := storage.Scan(ctx, r.sc.Store, storage.PeerRectPrefix)
	if err != nil {
		return nil, err
	}
	now := r.sc.Now()
	var evicted []peer.ID
	for key, value := range entries {
		id, ok := peerIDFromKey(key)
		if ok {
			pr, err := ParsePeerRect(id, value)
			if err == nil && now.Sub(pr.LastSeen) <= r.sc.Timing.StaleAfter {
				continue
			}
		}
		if err := r.sc.Store.Delete(ctx, key); err != nil {
			return evicted, fmt.Errorf("evict %q: %w", key, err)
		}
		evicted = append(evicted, peer.ID(key[len(storage.PeerRectPrefix):]))
	}
	if len(evicted) > 0 {
		sort.Slice(evicted, func(i, j int) bool { return evicted[i] < evicted[j] })
		r.sc.Logger.Debug("Evicted stale peers", zap.Int("count", len(evicted)))
	}
	return evicted, nil
}

// UpdateEdges snapshots the peer rectangles and the world edges. Every
// boundary query until the next call uses this snapshot.
func (r *Registry) UpdateEdges(ctx context.Context) error {
	peers, err := r.CollectLivePeers(ctx)
	if err != nil {
		return err
	}
	r.peers = peers
	if edges, ok := WorldEdges(peers); ok {
		r.edges, r.hasEdges = edges, true
	}
	return nil
}

// Peers returns the rectangles captured by the last UpdateEdges.
func (r *Registry) Peers() []PeerRect {
	out := make([]PeerRect, len(r.peers))
	copy(out, r.peers)
	return out
}

// WorldEdges returns the cached world edges. ok is false until a snapshot
// with at least one peer has been taken.
func (r *Registry) WorldEdges() (spatial.Box, bool) {
	return r.edges, r.hasEdges
}

// BoxesContaining returns the rectangles containing p. When none do it falls
// back to the cached world edges, or to nothing if no edges are known yet.
func (r *Registry) BoxesContaining(p spatial.Vec2) []spatial.Box {
	var boxes []spatial.Box
	for _, pr := range r.peers {
		if b := pr.Rect.Box(); b.Contains(p) {
			boxes = append(boxes, b)
		}
	}
	if len(boxes) == 0 && r.hasEdges {
		return []spatial.Box{r.edges}
	}
	return boxes
}

// BoundaryAt is the collision boundary for a point: the union of the windows
// covering it.
func (r *Registry) BoundaryAt(p spatial.Vec2) (spatial.Box, bool) {
	return spatial.UnionOfBoxes(r.BoxesContaining(p))
}

// WorldEdges folds rectangles into their bounding union. ok is false when
// peers is empty.
func WorldEdges(peers []PeerRect) (spatial.Box, bool) {
	boxes := make([]spatial.Box, len(peers))
	for i, pr := range peers {
		boxes[i] = pr.Rect.Box()
	}
	return spatial.UnionOfBoxes(boxes)
}

func peerIDFromKey(key string) (peer.ID, bool) {
	raw, ok := storage.PeerIDFromRectKey(key)
	if !ok {
		return "", false
	}
	return peer.ParseID(raw)
}
