package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gdamore/tcell/v2"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/0mlml/localstorage-window-sync/internal/api/grpc/servers"
	"github.com/0mlml/localstorage-window-sync/internal/config"
	"github.com/0mlml/localstorage-window-sync/internal/node"
	"github.com/0mlml/localstorage-window-sync/internal/storage/local"
	"github.com/0mlml/localstorage-window-sync/internal/view"
)

var (
	cfgFile string
	debug   bool
	logFile string

	storeListen string
	storePath   string
	storeReset  bool

	watchURL string

	demoPeers    int
	demoBasePort int
	demoTUI      bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:          "softsync",
		Short:        "Soft bodies shared across windows through one key-value store",
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "Path to config file (default: configs/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Development logging")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "softsync.log", "Log destination while a terminal viewer owns the screen")

	peerCmd := &cobra.Command{
		Use:   "peer",
		Short: "Run one peer (window) of the scene",
		RunE:  runPeer,
	}

	storeCmd := &cobra.Command{
		Use:   "store",
		Short: "Serve a Pebble-backed shared store over gRPC",
		RunE:  runStore,
	}
	storeCmd.Flags().StringVar(&storeListen, "listen", "", "Listen address (default: store.address)")
	storeCmd.Flags().StringVar(&storePath, "path", "", "Pebble directory (default: store.path)")
	storeCmd.Flags().BoolVar(&storeReset, "reset", false, "Delete every key before serving")

	watchCmd := &cobra.Command{
		Use:   "watch",
		Short: "Draw a peer's frames in the terminal",
		RunE:  runWatch,
	}
	watchCmd.Flags().StringVar(&watchURL, "url", "", "Frame stream URL (default: ws://<rest.addr>/softsync/frames)")

	demoCmd := &cobra.Command{
		Use:   "demo",
		Short: "Run several peers in one process over one store",
		RunE:  runDemo,
	}
	demoCmd.Flags().IntVarP(&demoPeers, "peers", "n", 3, "Number of peers")
	demoCmd.Flags().IntVar(&demoBasePort, "base-port", 8080, "REST port of the first peer (0 disables REST)")
	demoCmd.Flags().BoolVar(&demoTUI, "tui", false, "Draw the first peer's frames in the terminal")

	rootCmd.AddCommand(peerCmd, storeCmd, watchCmd, demoCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newLogger(toFile bool) (*zap.Logger, error) {
	zc := zap.NewProductionConfig()
	if debug {
		zc = zap.NewDevelopmentConfig()
	}
	if toFile {
		zc.OutputPaths = []string{logFile}
		zc.ErrorOutputPaths = []string{logFile}
	}
	logger, err := zc.Build()
	if err != nil {
		return nil, fmt.Errorf("logger init: %w", err)
	}
	return logger, nil
}

func setup(toFile bool) (*config.Config, *zap.Logger, error) {
	logger, err := newLogger(toFile)
	if err != nil {
		return nil, nil, err
	}
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, nil, fmt.Errorf("config load: %w", err)
	}
	return cfg, logger, nil
}

func runPeer(cmd *cobra.Command, args []string) error {
	cfg, logger, err := setup(false)
	if err != nil {
		return err
	}
	defer logger.Sync()

	return node.NewController(cfg, logger).Run(cmd.Context())
}

func runStore(cmd *cobra.Command, args []string) error {
	cfg, logger, err := setup(false)
	if err != nil {
		return err
	}
	defer logger.Sync()

	if storeListen == "" {
		storeListen = cfg.Store.Address
	}
	if storePath == "" {
		storePath = cfg.Store.Path
	}

	store := local.NewPebbleStore(storePath, logger)
	if err := store.Init(); err != nil {
		return fmt.Errorf("storage init: %w", err)
	}
	defer store.Close()
	if storeReset {
		if err := store.Truncate(); err != nil {
			return fmt.Errorf("reset store: %w", err)
		}
	}

	srv, err := servers.NewStoreServiceServer(store, logger).Serve(storeListen)
	if err != nil {
		return fmt.Errorf("store gRPC serve: %w", err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()
	logger.Info("Shutdown signal received")
	srv.GracefulStop()
	return nil
}

func runWatch(cmd *cobra.Command, args []string) error {
	cfg, logger, err := setup(true)
	if err != nil {
		return err
	}
	defer logger.Sync()

	if watchURL == "" {
		watchURL = "ws://" + cfg.Rest.Addr + "/softsync/frames"
	}

	screen, err := newScreen()
	if err != nil {
		return err
	}
	defer screen.Fini()
	viewer := view.New(screen, logger)

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return viewer.Run(gctx) })
	g.Go(func() error { return view.Follow(gctx, watchURL, viewer, logger) })
	err = g.Wait()
	if errors.Is(err, view.ErrStreamClosed) {
		logger.Info("Peer closed the frame stream", zap.String("url", watchURL))
		return nil
	}
	return quitIsClean(err)
}

func runDemo(cmd *cobra.Command, args []string) error {
	cfg, logger, err := setup(demoTUI)
	if err != nil {
		return err
	}
	defer logger.Sync()

	if !demoTUI {
		return node.NewDemo(cfg, demoPeers, demoBasePort, logger).Run(cmd.Context())
	}

	screen, err := newScreen()
	if err != nil {
		return err
	}
	defer screen.Fini()
	viewer := view.New(screen, logger)
	demo := node.NewDemo(cfg, demoPeers, demoBasePort, logger, viewer)

	g, gctx := errgroup.WithContext(cmd.Context())
	g.Go(func() error { return viewer.Run(gctx) })
	g.Go(func() error { return demo.Run(gctx) })
	return quitIsClean(g.Wait())
}

func newScreen() (tcell.Screen, error) {
	screen, err := tcell.NewScreen()
	if err != nil {
		return nil, err
	}
	if err := screen.Init(); err != nil {
		return nil, err
	}
	return screen, nil
}

func quitIsClean(err error) error {
	if errors.Is(err, view.ErrQuit) || errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
