package node

import (
	"context"
	"fmt"
	"math/rand"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/0mlml/localstorage-window-sync/internal/election"
	"github.com/0mlml/localstorage-window-sync/internal/frame"
	"github.com/0mlml/localstorage-window-sync/internal/peer"
	"github.com/0mlml/localstorage-window-sync/internal/physics"
	"github.com/0mlml/localstorage-window-sync/internal/pointer"
	"github.com/0mlml/localstorage-window-sync/internal/registry"
	"github.com/0mlml/localstorage-window-sync/internal/replica"
	"github.com/0mlml/localstorage-window-sync/internal/spatial"
)

// Peer is one window's view of the shared scene. A single scheduler
// goroutine (Run) owns the world, the registry cache and the window
// rectangle; other goroutines talk to it through the command queue and read
// the latest frame.
type Peer struct {
	sc       *peer.SyncContext
	elector  *election.Elector
	registry *registry.Registry
	pointer  *pointer.Tracker
	replica  *replica.Replicator

	frameInterval time.Duration
	commands      chan command
	sinks         []frame.Sink
	rng           *rand.Rand

	// owned by the scheduler goroutine
	world *physics.World
	grip  physics.Grip
	rect  spatial.Rect
	seq   uint64

	latest atomic.Pointer[frame.Frame]
}

// NewPeer creates a Peer for the window rect.
func NewPeer(sc *peer.SyncContext, rect spatial.Rect, frameInterval time.Duration, sinks ...frame.Sink) *Peer {
	return &Peer{
		sc:            sc,
		elector:       election.New(sc),
		registry:      registry.New(sc),
		pointer:       pointer.NewTracker(sc),
		replica:       replica.New(sc),
		frameInterval: frameInterval,
		commands:      make(chan command, commandQueueSize),
		sinks:         sinks,
		rng:           rand.New(rand.NewSource(sc.Now().UnixNano())),
		world:         physics.NewWorld(),
		rect:          rect,
	}
}

// AddSink registers a frame consumer. It must be called before Run.
func (p *Peer) AddSink(s frame.Sink) { p.sinks = append(p.sinks, s) }

// Self returns this peer's id.
func (p *Peer) Self() peer.ID { return p.sc.Self }

// Role returns the role decided by the last election round.
func (p *Peer) Role() Role { return roleOf(p.elector.IsAuthority()) }

// Latest returns the last published frame.
func (p *Peer) Latest() (frame.Frame, bool) {
	f := p.latest.Load()
	if f == nil {
		return frame.Frame{}, false
	}
	return *f, true
}

// Authority reads the current claim from the store.
func (p *Peer) Authority(ctx context.Context) (election.Claim, bool, error) {
	return p.elector.Current(ctx)
}

// Peers reads every published window rectangle from the store.
func (p *Peer) Peers(ctx context.Context) ([]registry.PeerRect, error) {
	return p.registry.CollectLivePeers(ctx)
}

// Resize queues a window rectangle change (screen coordinates).
func (p *Peer) Resize(rect spatial.Rect) error {
	if rect.Width <= 0 || rect.Height <= 0 {
		return fmt.Errorf("window %+v: size must be positive", rect)
	}
	return p.submit(command{kind: cmdResize, rect: rect})
}

// PointerMove queues a pointer position in window-local coordinates.
func (p *Peer) PointerMove(local spatial.Vec2) error {
	return p.submit(command{kind: cmdPointerMove, local: local})
}

// PointerButton queues a button transition.
func (p *Peer) PointerButton(b pointer.Button, down bool) error {
	return p.submit(command{kind: cmdPointerButton, button: b, down: down})
}

// PointerEnter queues the pointer entering this window, which force-claims
// authority.
func (p *Peer) PointerEnter() error { return p.submit(command{kind: cmdPointerEnter}) }

// PointerLeave queues the pointer leaving this window.
func (p *Peer) PointerLeave() error { return p.submit(command{kind: cmdPointerLeave}) }

// Spawn queues a new body at a window-local position. Only the authority
// honours it.
func (p *Peer) Spawn(local spatial.Vec2) error {
	return p.submit(command{kind: cmdSpawn, local: local})
}

func (p *Peer) submit(cmd command) error {
	select {
	case p.commands <- cmd:
		return nil
	default:
		p.sc.Logger.Warn("Dropping input", zap.Stringer("command", cmd.kind))
		return ErrBusy
	}
}

// Run drives the peer until ctx is cancelled. Frames and election rounds
// share one goroutine so they never overlap.
func (p *Peer) Run(ctx context.Context) error {
	p.sc.Logger.Info("Peer running",
		zap.Duration("frame", p.frameInterval),
		zap.Duration("heartbeat", p.sc.Timing.Heartbeat),
	)
	p.Elect(ctx)

	frameTicker := time.NewTicker(p.frameInterval)
	defer frameTicker.Stop()
	electTicker := time.NewTicker(p.sc.Timing.Heartbeat)
	defer electTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			p.sc.Logger.Info("Peer stopped", zap.Stringer("role", p.Role()))
			return nil
		case <-electTicker.C:
			p.Elect(ctx)
		case <-frameTicker.C:
			if _, err := p.Step(ctx); err != nil && ctx.Err() == nil {
				p.sc.Logger.Warn("Frame skipped", zap.Error(err))
			}
		}
	}
}

// Elect runs one election round.
func (p *Peer) Elect(ctx context.Context) Role {
	authority, err := p.elector.Tick(ctx)
	if err != nil && ctx.Err() == nil {
		p.sc.Logger.Warn("Election round failed", zap.Error(err))
	}
	return roleOf(authority)
}

// Step runs one frame: apply queued inputs, publish this window, then
// either simulate and publish the world (authority) or load the latest
// snapshot (mirror). Both roles track the press edge of the shared pointer.
// The resulting frame is handed to every sink.
func (p *Peer) Step(ctx context.Context) (frame.Frame, error) {
	p.drain(ctx)

	sample, err := p.pointer.Fetch(ctx)
	if err != nil {
		return frame.Frame{}, fmt.Errorf("fetch pointer: %w", err)
	}

	authority := p.elector.IsAuthority()
	if authority {
		if _, err := p.registry.EvictStale(ctx); err != nil {
			return frame.Frame{}, fmt.Errorf("evict: %w", err)
		}
	}
	if err := p.registry.PublishSelf(ctx, p.rect); err != nil {
		return frame.Frame{}, err
	}
	if err := p.registry.UpdateEdges(ctx); err != nil {
		return frame.Frame{}, fmt.Errorf("update edges: %w", err)
	}

	if authority {
		if p.world.Empty() {
			p.world.Spawn(p.rect.Center(), physics.DefaultRadius)
		}
		p.world.Step(p.registry, &p.grip, sample.Pos, sample.Down)
		if err := p.replica.Publish(ctx, p.world); err != nil {
			return frame.Frame{}, fmt.Errorf("publish world: %w", err)
		}
	} else {
		w, err := p.replica.Fetch(ctx)
		if err != nil {
			return frame.Frame{}, fmt.Errorf("fetch world: %w", err)
		}
		// mirrors keep their own grab bookkeeping against the shared
		// pointer, so a takeover mid-drag continues with the same grab set
		w.Inherit(p.world)
		p.grip.Apply(w, sample.Down)
		w.RefreshHover(sample.Pos)
		p.world = w
	}

	p.seq++
	f := frame.Frame{
		Peer:      p.sc.Self,
		Seq:       p.seq,
		At:        p.sc.Now(),
		Authority: authority,
		Epoch:     p.elector.Epoch(),
		Window:    p.rect,
		Pointer:   sample,
		Cursor:    frame.CursorFor(p.world),
		Bodies:    frame.Bodies(p.world, p.rect),
		Peers:     frame.Peers(p.sc.Self, p.registry.Peers()),
	}
	p.latest.Store(&f)
	for _, s := range p.sinks {
		s.Publish(f)
	}
	return f, nil
}

// drain applies every queued command without blocking.
func (p *Peer) drain(ctx context.Context) {
	for {
		select {
		case cmd := <-p.commands:
			if err := p.apply(ctx, cmd); err != nil {
				p.sc.Logger.Warn("Input failed", zap.Stringer("command", cmd.kind), zap.Error(err))
			}
		default:
			return
		}
	}
}

func (p *Peer) apply(ctx context.Context, cmd command) error {
	switch cmd.kind {
	case cmdResize:
		p.rect = cmd.rect
		return nil
	case cmdPointerMove:
		return p.pointer.Move(ctx, p.rect.ToWorld(cmd.local))
	case cmdPointerButton:
		if cmd.button == pointer.ButtonSecondary {
			if cmd.down {
				p.spawn(p.pointer.Last().Pos)
			}
			return nil
		}
		return p.pointer.Press(ctx, cmd.down)
	case cmdPointerEnter:
		if err := p.elector.ForceClaim(ctx); err != nil {
			return err
		}
		return p.pointer.Enter(ctx)
	case cmdPointerLeave:
		return p.pointer.Leave(ctx)
	case cmdSpawn:
		p.spawn(p.rect.ToWorld(cmd.local))
		return nil
	}
	return fmt.Errorf("unknown command %d", cmd.kind)
}

func (p *Peer) spawn(at spatial.Vec2) {
	if !p.elector.IsAuthority() {
		p.sc.Logger.Debug("Ignoring spawn on mirror")
		return
	}
	b := p.world.SpawnRandom(at, p.rng)
	p.sc.Logger.Debug("Spawned body",
		zap.Float64("x", at.X), zap.Float64("y", at.Y), zap.Float64("radius", b.Radius))
}
