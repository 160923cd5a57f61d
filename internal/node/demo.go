package node

import (
	"context"
	"fmt"
	"net"
	"os/signal"
	"strconv"
	"syscall"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/0mlml/localstorage-window-sync/internal/api/rest"
	"github.com/0mlml/localstorage-window-sync/internal/config"
	"github.com/0mlml/localstorage-window-sync/internal/frame"
	"github.com/0mlml/localstorage-window-sync/internal/peer"
	"github.com/0mlml/localstorage-window-sync/internal/spatial"
	"github.com/0mlml/localstorage-window-sync/internal/storage"
)

// Demo runs several peers in one process over a single store, with windows
// laid out side by side. Peer i serves REST on basePort+i when basePort is
// non-zero.
type Demo struct {
	cfg      *config.Config
	logger   *zap.Logger
	count    int
	basePort int
	sinks    []frame.Sink
}

// NewDemo creates a Demo of count peers. Sinks receive the frames of the
// first peer.
func NewDemo(cfg *config.Config, count, basePort int, logger *zap.Logger, sinks ...frame.Sink) *Demo {
	return &Demo{cfg: cfg, logger: logger, count: count, basePort: basePort, sinks: sinks}
}

// Windows returns the window rectangles of the demo peers: the configured
// window repeated to the right, overlapping by a tenth of its width.
func (d *Demo) Windows() []spatial.Rect {
	base := d.cfg.WindowRect()
	rects := make([]spatial.Rect, d.count)
	for i := range rects {
		r := base
		r.Left += float64(i) * base.Width * 0.9
		rects[i] = r
	}
	return rects
}

// Run starts every peer and blocks until SIGINT/SIGTERM or ctx cancellation.
func (d *Demo) Run(ctx context.Context) error {
	if d.count < 1 {
		return fmt.Errorf("demo needs at least one peer, got %d", d.count)
	}
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := OpenStore(ctx, d.cfg.Store, d.logger)
	if err != nil {
		return err
	}
	defer store.Close()

	g, gctx := errgroup.WithContext(ctx)
	for i, rect := range d.Windows() {
		d.start(gctx, g, i, rect, store)
	}
	d.logger.Info("Demo running", zap.Int("peers", d.count), zap.Int("basePort", d.basePort))
	return g.Wait()
}

func (d *Demo) start(ctx context.Context, g *errgroup.Group, i int, rect spatial.Rect, store storage.Store) {
	sc := peer.NewSyncContext(peer.NewID(), store, peer.SystemClock{}, d.cfg.Timing(), d.logger)
	hub := rest.NewHub()
	sinks := []frame.Sink{hub}
	if i == 0 {
		sinks = append(sinks, d.sinks...)
	}
	p := NewPeer(sc, rect, d.cfg.FrameInterval(), sinks...)
	g.Go(func() error { return p.Run(ctx) })

	if d.basePort == 0 {
		return
	}
	addr := net.JoinHostPort("127.0.0.1", strconv.Itoa(d.basePort+i))
	api := rest.New(p, hub, sc.Logger)
	g.Go(func() error { return api.Serve(ctx, addr) })
}
