// Package replica copies the authority's world to every other peer through
// the bodies key. The authority is the single writer; mirrors rebuild their
// world from the latest snapshot each frame and never write it back.
package replica

import (
	"context"

	"go.uber.org/zap"

	"github.com/0mlml/localstorage-window-sync/internal/physics"
	"github.com/0mlml/localstorage-window-sync/internal/peer"
	"github.com/0mlml/localstorage-window-sync/internal/storage"
)

type Replicator struct {
	sc *peer.SyncContext
}

func New(sc *peer.SyncContext) *Replicator {
	return &Replicator{sc: sc}
}

// Publish writes the world snapshot. Only the authority calls it.
func (r *Replicator) Publish(ctx context.Context, w *physics.World) error {
	raw, err := Encode(w)
	if err != nil {
		return err
	}
	return r.sc.Store.Set(ctx, storage.KeyBodies, raw)
}

// Fetch reads the latest snapshot. Absent or malformed snapshots yield an
// empty world; only store errors are returned.
func (r *Replicator) Fetch(ctx context.Context) (*physics.World, error) {
	raw, ok, err := storage.Lookup(ctx, r.sc.Store, storage.KeyBodies)
	if err != nil {
		return physics.NewWorld(), err
	}
	if !ok {
		return physics.NewWorld(), nil
	}
	w, err := Decode(raw)
	if err != nil {
		r.sc.Logger.Debug("Ignoring malformed bodies snapshot", zap.Error(err))
		return physics.NewWorld(), nil
	}
	return w, nil
}
