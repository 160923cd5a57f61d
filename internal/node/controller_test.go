package node_test

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/0mlml/localstorage-window-sync/internal/api/grpc/servers"
	"github.com/0mlml/localstorage-window-sync/internal/config"
	"github.com/0mlml/localstorage-window-sync/internal/frame"
	"github.com/0mlml/localstorage-window-sync/internal/node"
	"github.com/0mlml/localstorage-window-sync/internal/storage/local"
)

func testConfig() *config.Config {
	return &config.Config{
		Peer: config.PeerConfig{
			ID:     "ctl",
			Window: config.WindowConfig{Width: 400, Height: 300},
		},
		Store: config.StoreConfig{
			Backend:      config.BackendMemory,
			DialAttempts: 3,
			DialDelay:    10 * time.Millisecond,
		},
		Election: config.ElectionConfig{Heartbeat: 20 * time.Millisecond, Lease: 60 * time.Millisecond},
		Registry: config.RegistryConfig{StaleAfter: 100 * time.Millisecond},
		Frame:    config.FrameConfig{Rate: 200},
	}
}

func TestOpenStoreBackends(t *testing.T) {
	ctx := context.Background()

	cfg := testConfig().Store
	s, err := node.OpenStore(ctx, cfg, zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, s.Close())

	cfg.Backend = config.BackendPebble
	cfg.Path = t.TempDir() + "/pebble"
	s, err = node.OpenStore(ctx, cfg, zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, s.Set(ctx, "k", "v"))
	require.NoError(t, s.Close())

	lis, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	backing := local.NewMemoryStore()
	srv := servers.NewStoreServiceServer(backing, zap.NewNop()).ServeListener(lis)
	defer srv.Stop()

	cfg.Backend = config.BackendRemote
	cfg.Address = lis.Addr().String()
	s, err = node.OpenStore(ctx, cfg, zap.NewNop())
	require.NoError(t, err)
	defer s.Close()
	require.NoError(t, s.Set(ctx, "k", "remote"))
	got, err := backing.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "remote", got)

	cfg.Backend = "redis"
	_, err = node.OpenStore(ctx, cfg, zap.NewNop())
	assert.Error(t, err)
}

func TestControllerRunsUntilCancelled(t *testing.T) {
	frames := make(chan frame.Frame, 512)
	sink := frame.SinkFunc(func(f frame.Frame) {
		select {
		case frames <- f:
		default:
		}
	})

	ctx, cancel := context.WithTimeout(context.Background(), 150*time.Millisecond)
	defer cancel()
	require.NoError(t, node.NewController(testConfig(), zap.NewNop(), sink).Run(ctx))

	require.NotEmpty(t, frames)
	f := <-frames
	assert.Equal(t, "ctl", f.Peer.String())
}

func TestDemoLayoutAndRun(t *testing.T) {
	d := node.NewDemo(testConfig(), 3, 0, zap.NewNop())
	windows := d.Windows()
	require.Len(t, windows, 3)
	assert.Equal(t, 0.0, windows[0].Left)
	assert.Equal(t, 360.0, windows[1].Left)
	assert.Equal(t, 720.0, windows[2].Left)

	frames := make(chan frame.Frame, 512)
	d = node.NewDemo(testConfig(), 3, 0, zap.NewNop(), frame.SinkFunc(func(f frame.Frame) {
		select {
		case frames <- f:
		default:
		}
	}))
	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()
	require.NoError(t, d.Run(ctx))

	var last frame.Frame
	for len(frames) > 0 {
		last = <-frames
	}
	assert.Len(t, last.Peers, 3)
	assert.NotEmpty(t, last.Bodies)

	assert.Error(t, node.NewDemo(testConfig(), 0, 0, zap.NewNop()).Run(context.Background()))
}
