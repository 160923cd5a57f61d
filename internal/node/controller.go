// Package node runs a peer of the shared scene: the scheduler loop that
// multiplexes election rounds and frames, and the bootstrap that wires it to
// a store and the REST API.
package node

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/0mlml/localstorage-window-sync/internal/api/grpc/clients"
	"github.com/0mlml/localstorage-window-sync/internal/api/rest"
	"github.com/0mlml/localstorage-window-sync/internal/config"
	"github.com/0mlml/localstorage-window-sync/internal/frame"
	"github.com/0mlml/localstorage-window-sync/internal/peer"
	"github.com/0mlml/localstorage-window-sync/internal/storage"
	"github.com/0mlml/localstorage-window-sync/internal/storage/local"
)

// Controller bootstraps one peer, wires all components, and runs until shutdown.
type Controller struct {
	cfg    *config.Config
	logger *zap.Logger
	peerID peer.ID
	sinks  []frame.Sink
}

// NewController creates a Controller. Extra sinks receive every frame.
func NewController(cfg *config.Config, logger *zap.Logger, sinks ...frame.Sink) *Controller {
	return &Controller{
		cfg:    cfg,
		logger: logger,
		peerID: cfg.PeerID(),
		sinks:  sinks,
	}
}

// Run opens the store, starts the peer loop and the REST API, and blocks
// until SIGINT/SIGTERM or ctx cancellation.
func (c *Controller) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	c.logger.Info("Starting peer",
		zap.String("peer", c.peerID.String()),
		zap.String("store", c.cfg.Store.Backend),
	)

	store, err := OpenStore(ctx, c.cfg.Store, c.logger)
	if err != nil {
		return err
	}
	defer store.Close()

	sc := peer.NewSyncContext(c.peerID, store, peer.SystemClock{}, c.cfg.Timing(), c.logger)
	hub := rest.NewHub()
	p := NewPeer(sc, c.cfg.WindowRect(), c.cfg.FrameInterval(), append([]frame.Sink{hub}, c.sinks...)...)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return p.Run(gctx) })
	if c.cfg.Rest.Addr != "" {
		api := rest.New(p, hub, sc.Logger)
		g.Go(func() error { return api.Serve(gctx, c.cfg.Rest.Addr) })
	}

	err = g.Wait()
	c.logger.Info("Peer shut down", zap.String("peer", c.peerID.String()))
	return err
}

// OpenStore builds the configured shared store. Remote stores are pinged
// until they answer.
func OpenStore(ctx context.Context, cfg config.StoreConfig, logger *zap.Logger) (storage.Store, error) {
	switch cfg.Backend {
	case config.BackendMemory:
		return local.NewMemoryStore(), nil
	case config.BackendPebble:
		s := local.NewPebbleStore(cfg.Path, logger)
		if err := s.Init(); err != nil {
			return nil, fmt.Errorf("storage init: %w", err)
		}
		return s, nil
	case config.BackendRemote:
		s, err := clients.NewStoreClient(cfg.Address, logger)
		if err != nil {
			return nil, fmt.Errorf("store client: %w", err)
		}
		if err := s.Connect(ctx, cfg.DialAttempts, cfg.DialDelay); err != nil {
			s.Close()
			return nil, err
		}
		return s, nil
	}
	return nil, fmt.Errorf("unknown store backend %q", cfg.Backend)
}
