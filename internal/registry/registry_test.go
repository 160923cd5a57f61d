package registry_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/0mlml/localstorage-window-sync/internal/peer"
	"github.com/0mlml/localstorage-window-sync/internal/registry"
	"github.com/0mlml/localstorage-window-sync/internal/spatial"
	"github.com/0mlml/localstorage-window-sync/internal/storage"
	"github.com/0mlml/localstorage-window-sync/internal/storage/local"
)

type fixture struct {
	store *local.MemoryStore
	clock *peer.ManualClock
}

func newFixture() *fixture {
	return &fixture{
		store: local.NewMemoryStore(),
		clock: peer.NewManualClock(time.UnixMilli(1_000_000)),
	}
}

func (f *fixture) registry(id peer.ID) *registry.Registry {
	sc := peer.NewSyncContext(id, f.store, f.clock, peer.DefaultTiming(), zap.NewNop())
	return registry.New(sc)
}

func TestPeerRectEncodeParse(t *testing.T) {
	pr := registry.PeerRect{
		Peer:     "abc",
		Rect:     spatial.Rect{Left: -10, Top: 20.5, Width: 800, Height: 600},
		LastSeen: time.UnixMilli(12345),
	}
	enc := pr.Encode()
	assert.Equal(t, "-10,20.5,800,600,12345", enc)

	got, err := registry.ParsePeerRect("abc", enc)
	require.NoError(t, err)
	assert.Equal(t, pr.Rect, got.Rect)
	assert.Equal(t, int64(12345), got.LastSeen.UnixMilli())
}

func TestParsePeerRectRejectsMalformed(t *testing.T) {
	for _, bad := range []string{"", "1,2,3,4", "1,2,3,4,5,6", "a,2,3,4,5", "1,2,3,4,x"} {
		_, err := registry.ParsePeerRect("p", bad)
		assert.Error(t, err, bad)
	}
}

func TestPublishAndCollect(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	a := f.registry("aaa")
	b := f.registry("bbb")

	require.NoError(t, b.PublishSelf(ctx, spatial.Rect{Left: 80, Top: -20, Width: 100, Height: 50}))
	require.NoError(t, a.PublishSelf(ctx, spatial.Rect{Left: 0, Top: 0, Width: 100, Height: 50}))
	// garbage entries are skipped, not returned
	require.NoError(t, f.store.Set(ctx, "posccc", "nonsense"))

	peers, err := a.CollectLivePeers(ctx)
	require.NoError(t, err)
	require.Len(t, peers, 2)
	assert.Equal(t, peer.ID("aaa"), peers[0].Peer)
	assert.Equal(t, peer.ID("bbb"), peers[1].Peer)
}

func TestWorldEdgesExample(t *testing.T) {
	peers := []registry.PeerRect{
		{Peer: "a", Rect: spatial.Rect{Left: 0, Top: 0, Width: 100, Height: 50}},
		{Peer: "b", Rect: spatial.Rect{Left: 80, Top: -20, Width: 100, Height: 50}},
	}
	edges, ok := registry.WorldEdges(peers)
	require.True(t, ok)
	assert.Equal(t, spatial.Box{Left: 0, Right: 180, Top: -20, Bottom: 50}, edges)

	_, ok = registry.WorldEdges(nil)
	assert.False(t, ok)
}

func TestEvictStaleExactness(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	old := f.registry("old")
	edge := f.registry("edge")
	fresh := f.registry("fresh")

	require.NoError(t, old.PublishSelf(ctx, spatial.Rect{Width: 10, Height: 10}))
	f.clock.Advance(time.Millisecond)
	require.NoError(t, edge.PublishSelf(ctx, spatial.Rect{Width: 10, Height: 10}))
	f.clock.Advance(399 * time.Millisecond)
	require.NoError(t, fresh.PublishSelf(ctx, spatial.Rect{Width: 10, Height: 10}))
	require.NoError(t, f.store.Set(ctx, "posbroken", "1,2,3"))

	// old: 501ms, edge: exactly 500ms, fresh: 101ms
	f.clock.Advance(101 * time.Millisecond)

	evicted, err := fresh.EvictStale(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []peer.ID{"broken", "old"}, evicted)

	keys, err := f.store.Keys(ctx, storage.PeerRectPrefix)
	require.NoError(t, err)
	assert.Equal(t, []string{"posedge", "posfresh"}, keys)

	// one more millisecond and "edge" crosses the window
	f.clock.Advance(time.Millisecond)
	evicted, err = fresh.EvictStale(ctx)
	require.NoError(t, err)
	assert.Equal(t, []peer.ID{"edge"}, evicted)
}

// overlapFixture publishes two windows: A = [0,100]x[0,100] and
// B = [80,200]x[20,120].
func overlapFixture(t *testing.T) *registry.Registry {
	t.Helper()
	f := newFixture()
	ctx := context.Background()
	a := f.registry("a")
	b := f.registry("b")
	require.NoError(t, a.PublishSelf(ctx, spatial.Rect{Left: 0, Top: 0, Width: 100, Height: 100}))
	require.NoError(t, b.PublishSelf(ctx, spatial.Rect{Left: 80, Top: 20, Width: 120, Height: 100}))
	require.NoError(t, a.UpdateEdges(ctx))
	return a
}

func TestBoxesContainingOverlap(t *testing.T) {
	r := overlapFixture(t)

	boxes := r.BoxesContaining(spatial.V(90, 50))
	require.Len(t, boxes, 2)

	union, ok := r.BoundaryAt(spatial.V(90, 50))
	require.True(t, ok)
	assert.Equal(t, spatial.Box{Left: 0, Top: 0, Right: 200, Bottom: 120}, union)
	assert.NotEqual(t, boxes[0], union)
	assert.NotEqual(t, boxes[1], union)
}

func TestBoxesContainingSingleWindow(t *testing.T) {
	r := overlapFixture(t)

	boundary, ok := r.BoundaryAt(spatial.V(10, 10))
	require.True(t, ok)
	assert.Equal(t, spatial.Box{Left: 0, Top: 0, Right: 100, Bottom: 100}, boundary)
}

func TestBoxesContainingFallsBackToWorldEdges(t *testing.T) {
	r := overlapFixture(t)

	// (150, 5) is inside the world edges but inside no window
	boxes := r.BoxesContaining(spatial.V(150, 5))
	require.Len(t, boxes, 1)
	edges, ok := r.WorldEdges()
	require.True(t, ok)
	assert.Equal(t, edges, boxes[0])
	assert.Equal(t, spatial.Box{Left: 0, Top: 0, Right: 200, Bottom: 120}, edges)
}

func TestBoundaryWithoutGeometry(t *testing.T) {
	f := newFixture()
	r := f.registry("lonely")
	require.NoError(t, r.UpdateEdges(context.Background()))

	assert.Empty(t, r.BoxesContaining(spatial.V(0, 0)))
	_, ok := r.BoundaryAt(spatial.V(0, 0))
	assert.False(t, ok)
}

func TestUpdateEdgesKeepsLastKnownEdges(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	r := f.registry("a")
	require.NoError(t, r.PublishSelf(ctx, spatial.Rect{Width: 100, Height: 100}))
	require.NoError(t, r.UpdateEdges(ctx))

	require.NoError(t, f.store.Delete(ctx, storage.PeerRectKey("a")))
	require.NoError(t, r.UpdateEdges(ctx))

	assert.Empty(t, r.Peers())
	edges, ok := r.WorldEdges()
	require.True(t, ok)
	assert.Equal(t, spatial.Box{Right: 100, Bottom: 100}, edges)
}
