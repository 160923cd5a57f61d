package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/0mlml/localstorage-window-sync/internal/peer"
	"github.com/0mlml/localstorage-window-sync/internal/spatial"
)

// Store backends.
const (
	BackendMemory = "memory"
	BackendPebble = "pebble"
	BackendRemote = "remote"
)

// EnvPrefix prefixes every environment override, e.g. SOFTSYNC_STORE_BACKEND.
const EnvPrefix = "SOFTSYNC"

// MaxFrameRate caps frame.rate so the frame interval stays a usable ticker
// period.
const MaxFrameRate = 1000

// Config is the root configuration struct
type Config struct {
	Peer     PeerConfig     `mapstructure:"peer"`
	Store    StoreConfig    `mapstructure:"store"`
	Election ElectionConfig `mapstructure:"election"`
	Registry RegistryConfig `mapstructure:"registry"`
	Frame    FrameConfig    `mapstructure:"frame"`
	Rest     RestConfig     `mapstructure:"rest"`
}

// PeerConfig holds per-process identity and the initial window rectangle
type PeerConfig struct {
	ID     string       `mapstructure:"id"`
	Window WindowConfig `mapstructure:"window"`
}

// WindowConfig is a window rectangle in screen coordinates
type WindowConfig struct {
	Left   float64 `mapstructure:"left"`
	Top    float64 `mapstructure:"top"`
	Width  float64 `mapstructure:"width"`
	Height float64 `mapstructure:"height"`
}

// StoreConfig selects the shared store backend
type StoreConfig struct {
	Backend      string        `mapstructure:"backend"`
	Path         string        `mapstructure:"path"`
	Address      string        `mapstructure:"address"`
	DialAttempts uint          `mapstructure:"dialAttempts"`
	DialDelay    time.Duration `mapstructure:"dialDelay"`
}

// ElectionConfig holds the authority protocol windows
type ElectionConfig struct {
	Heartbeat time.Duration `mapstructure:"heartbeat"`
	Lease     time.Duration `mapstructure:"lease"`
}

// RegistryConfig holds peer rectangle liveness settings
type RegistryConfig struct {
	StaleAfter time.Duration `mapstructure:"staleAfter"`
}

// FrameConfig holds the render/simulation rate
type FrameConfig struct {
	Rate int `mapstructure:"rate"`
}

// RestConfig holds the HTTP listener settings
type RestConfig struct {
	Addr string `mapstructure:"addr"`
}

// Load reads configuration from an optional .env file, the config file and
// the environment. Environment variables win over the file.
func Load(cfgFile string) (*Config, error) {
	// a missing .env is normal outside development
	_ = godotenv.Load()

	v := viper.New()

	v.SetDefault("peer.id", "")
	v.SetDefault("peer.window.left", 0.0)
	v.SetDefault("peer.window.top", 0.0)
	v.SetDefault("peer.window.width", 800.0)
	v.SetDefault("peer.window.height", 600.0)
	v.SetDefault("store.backend", BackendMemory)
	v.SetDefault("store.path", "/tmp/softsync-pebble")
	v.SetDefault("store.address", "127.0.0.1:7400")
	v.SetDefault("store.dialAttempts", 10)
	v.SetDefault("store.dialDelay", 200*time.Millisecond)
	v.SetDefault("election.heartbeat", 100*time.Millisecond)
	v.SetDefault("election.lease", 300*time.Millisecond)
	v.SetDefault("registry.staleAfter", 500*time.Millisecond)
	v.SetDefault("frame.rate", 60)
	v.SetDefault("rest.addr", "127.0.0.1:8080")

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./configs")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings the protocol cannot run with.
func (c *Config) Validate() error {
	switch c.Store.Backend {
	case BackendMemory, BackendPebble, BackendRemote:
	default:
		return fmt.Errorf("store.backend %q: want memory, pebble or remote", c.Store.Backend)
	}
	if c.Peer.ID != "" {
		if _, ok := peer.ParseID(c.Peer.ID); !ok {
			return fmt.Errorf("peer.id %q is not a valid peer id", c.Peer.ID)
		}
	}
	if c.Election.Heartbeat <= 0 || c.Election.Lease <= 0 || c.Registry.StaleAfter <= 0 {
		return errors.New("election and registry windows must be positive")
	}
	if c.Election.Lease <= c.Election.Heartbeat {
		return fmt.Errorf("election.lease %s must exceed election.heartbeat %s", c.Election.Lease, c.Election.Heartbeat)
	}
	if c.Frame.Rate <= 0 || c.Frame.Rate > MaxFrameRate {
		return fmt.Errorf("frame.rate must be in [1, %d], got %d", MaxFrameRate, c.Frame.Rate)
	}
	if c.Peer.Window.Width <= 0 || c.Peer.Window.Height <= 0 {
		return errors.New("peer.window must have a positive size")
	}
	return nil
}

// Timing returns the protocol windows.
func (c *Config) Timing() peer.Timing {
	return peer.Timing{
		Heartbeat:  c.Election.Heartbeat,
		Lease:      c.Election.Lease,
		StaleAfter: c.Registry.StaleAfter,
	}
}

// FrameInterval returns the period of the simulation loop.
func (c *Config) FrameInterval() time.Duration {
	return time.Second / time.Duration(c.Frame.Rate)
}

// WindowRect returns the configured window rectangle.
func (c *Config) WindowRect() spatial.Rect {
	w := c.Peer.Window
	return spatial.Rect{Left: w.Left, Top: w.Top, Width: w.Width, Height: w.Height}
}

// PeerID returns the configured id or a fresh random one.
func (c *Config) PeerID() peer.ID {
	if id, ok := peer.ParseID(c.Peer.ID); ok {
		return id
	}
	return peer.NewID()
}
