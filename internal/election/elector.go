// Package election decides which peer simulates the scene. The protocol is a
// heartbeat lease fenced by timestamp: the holder rewrites the claim every
// tick and anyone may take over a claim older than the lease. The store has
// no compare-and-swap, so two peers can claim in the same period; the next
// tick settles on whichever write the store kept.
package election

import (
	"context"
	"fmt"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/0mlml/localstorage-window-sync/internal/peer"
	"github.com/0mlml/localstorage-window-sync/internal/storage"
)

// Elector runs this peer's side of the election. Tick and ForceClaim must be
// called from one goroutine; IsAuthority and Epoch may be read from any.
type Elector struct {
	sc        *peer.SyncContext
	authority atomic.Bool
	epoch     atomic.Uint64
}

// New creates an Elector. The peer starts as a non-authority.
func New(sc *peer.SyncContext) *Elector {
	return &Elector{sc: sc}
}

// IsAuthority reports the outcome of the last Tick or ForceClaim.
func (e *Elector) IsAuthority() bool { return e.authority.Load() }

// Epoch returns the epoch last written or observed.
func (e *Elector) Epoch() uint64 { return e.epoch.Load() }

// Current reads the claim in the store. ok is false when the key is absent
// or does not parse.
func (e *Elector) Current(ctx context.Context) (Claim, bool, error) {
	raw, found, err := storage.Lookup(ctx, e.sc.Store, storage.KeyAuthority)
	if err != nil {
		return Claim{}, false, fmt.Errorf("read claim: %w", err)
	}
	if !found {
		return Claim{}, false, nil
	}
	c, err := ParseClaim(raw)
	if err != nil {
		e.sc.Logger.Debug("Ignoring malformed claim", zap.String("value", raw), zap.Error(err))
		return Claim{}, false, nil
	}
	return c, true, nil
}

// Tick runs one election round and returns whether this peer is authority.
// On a store error the previous role is kept.
func (e *Elector) Tick(ctx context.Context) (bool, error) {
	c, ok, err := e.Current(ctx)
	if err != nil {
		return e.IsAuthority(), err
	}
	now := e.sc.Now()
	switch {
	case !ok:
		return e.claim(ctx, 0, "absent")
	case c.Holder == e.sc.Self:
		renewed := Claim{Holder: e.sc.Self, ClaimedAt: now, Epoch: c.Epoch}
		if err := e.sc.Store.Set(ctx, storage.KeyAuthority, renewed.Encode()); err != nil {
			return e.IsAuthority(), fmt.Errorf("renew claim: %w", err)
		}
		e.epoch.Store(c.Epoch)
		e.setAuthority(true, c.Epoch, "renewed")
		return true, nil
	case c.Live(now, e.sc.Timing.Lease):
		e.epoch.Store(c.Epoch)
		e.setAuthority(false, c.Epoch, "held by "+c.Holder.String())
		return false, nil
	default:
		return e.claim(ctx, c.Epoch, "expired")
	}
}

// ForceClaim takes authority regardless of the current claim. It is used
// when the pointer enters this peer's window.
func (e *Elector) ForceClaim(ctx context.Context) error {
	c, ok, err := e.Current(ctx)
	if err != nil {
		return err
	}
	var epoch uint64
	if ok {
		if c.Holder == e.sc.Self {
			// already ours: a renewal, not a takeover
			_, err := e.Tick(ctx)
			return err
		}
		epoch = c.Epoch
	}
	_, err = e.claim(ctx, epoch, "forced")
	return err
}

func (e *Elector) claim(ctx context.Context, observedEpoch uint64, reason string) (bool, error) {
	c := Claim{Holder: e.sc.Self, ClaimedAt: e.sc.Now(), Epoch: observedEpoch + 1}
	if err := e.sc.Store.Set(ctx, storage.KeyAuthority, c.Encode()); err != nil {
		return e.IsAuthority(), fmt.Errorf("write claim: %w", err)
	}
	e.epoch.Store(c.Epoch)
	e.setAuthority(true, c.Epoch, reason)
	return true, nil
}

func (e *Elector) setAuthority(v bool, epoch uint64, reason string) {
	if e.authority.Swap(v) == v {
		return
	}
	if v {
		e.sc.Logger.Info("Assumed authority", zap.Uint64("epoch", epoch), zap.String("reason", reason))
	} else {
		e.sc.Logger.Info("Yielded authority", zap.Uint64("epoch", epoch), zap.String("reason", reason))
	}
}
