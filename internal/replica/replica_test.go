package replica_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/0mlml/localstorage-window-sync/internal/peer"
	"github.com/0mlml/localstorage-window-sync/internal/physics"
	"github.com/0mlml/localstorage-window-sync/internal/replica"
	"github.com/0mlml/localstorage-window-sync/internal/spatial"
	"github.com/0mlml/localstorage-window-sync/internal/storage"
	"github.com/0mlml/localstorage-window-sync/internal/storage/local"
)

func replicator(id peer.ID, s storage.Store) *replica.Replicator {
	clock := peer.NewManualClock(time.UnixMilli(0))
	return replica.New(peer.NewSyncContext(id, s, clock, peer.DefaultTiming(), zap.NewNop()))
}

func movingWorld() *physics.World {
	w := physics.NewWorld()
	b := w.Spawn(spatial.V(120, 80), 50)
	b.Vel = spatial.V(3, -1)
	w.Spawn(spatial.V(400, 300), 25)
	for i := 0; i < 10; i++ {
		w.Step(physics.Fixed(spatial.Box{Right: 800, Bottom: 600}), &physics.Grip{}, spatial.Vec2{}, false)
	}
	return w
}

func TestRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := local.NewMemoryStore()
	authority := replicator("auth", s)
	mirror := replicator("mirror", s)

	w := movingWorld()
	require.NoError(t, authority.Publish(ctx, w))

	got, err := mirror.Fetch(ctx)
	require.NoError(t, err)
	require.Len(t, got.Bodies, len(w.Bodies))
	for i, b := range w.Bodies {
		gb := got.Bodies[i]
		assert.Equal(t, b.Pos, gb.Pos)
		assert.Equal(t, b.Vel, gb.Vel)
		assert.Equal(t, b.Acc, gb.Acc)
		assert.Equal(t, b.Radius, gb.Radius)
		require.Len(t, gb.Nodes, len(b.Nodes))
		for j := range b.Nodes {
			assert.Equal(t, b.Nodes[j].Pos, gb.Nodes[j].Pos)
			assert.Equal(t, b.Nodes[j].Vel, gb.Nodes[j].Vel)
			assert.Equal(t, b.Nodes[j].Acc, gb.Nodes[j].Acc)
		}
	}
}

func TestWireFieldNames(t *testing.T) {
	w := physics.NewWorld()
	w.Bodies = append(w.Bodies, physics.NewBodyWithNodes(spatial.V(1, 2), 3, 1))
	raw, err := replica.Encode(w)
	require.NoError(t, err)
	assert.JSONEq(t,
		`[{"tx":1,"ty":2,"txv":0,"tyv":0,"txa":0,"tya":0,"radius":3,"nodes":[{"x":4,"y":2,"vx":0,"vy":0,"ax":0,"ay":0}]}]`,
		raw)
}

func TestFetchAbsentOrMalformedIsEmpty(t *testing.T) {
	ctx := context.Background()
	s := local.NewMemoryStore()
	mirror := replicator("mirror", s)

	w, err := mirror.Fetch(ctx)
	require.NoError(t, err)
	assert.True(t, w.Empty())

	for _, bad := range []string{"{", `{"tx":1}`, `[{"tx":1,"ty":1,"radius":0}]`} {
		require.NoError(t, s.Set(ctx, storage.KeyBodies, bad))
		w, err = mirror.Fetch(ctx)
		require.NoError(t, err)
		assert.True(t, w.Empty(), bad)
	}

	require.NoError(t, s.Set(ctx, storage.KeyBodies, "null"))
	w, err = mirror.Fetch(ctx)
	require.NoError(t, err)
	assert.True(t, w.Empty())
}

func TestDecodeWithoutNodesBuildsRing(t *testing.T) {
	w, err := replica.Decode(`[{"tx":10,"ty":10,"radius":5}]`)
	require.NoError(t, err)
	require.Len(t, w.Bodies, 1)
	assert.Len(t, w.Bodies[0].Nodes, physics.NodeCount)
}
