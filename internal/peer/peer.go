// Package peer holds per-process identity and the SyncContext threaded
// through the elector, registry, replicator and integrator.
package peer

import (
	"math/rand"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/0mlml/localstorage-window-sync/internal/storage"
)

// ID identifies one process for its lifetime. It is never persisted.
type ID string

func (id ID) String() string { return string(id) }

// NewID returns a random 9-character base-36 token.
func NewID() ID {
	s := strconv.FormatUint(rand.Uint64(), 36)
	for len(s) < 9 {
		s = "0" + s
	}
	return ID(s[len(s)-9:])
}

// ParseID validates a stored peer id. Ids may not contain the comma used as
// the field separator in stored values.
func ParseID(s string) (ID, bool) {
	s = strings.TrimSpace(s)
	if s == "" || s == "null" || strings.Contains(s, ",") {
		return "", false
	}
	return ID(s), true
}

// Timing holds the protocol windows.
type Timing struct {
	// Heartbeat is the election tick period.
	Heartbeat time.Duration
	// Lease is how long a claim stays live without renewal.
	Lease time.Duration
	// StaleAfter is how long a window rectangle stays live without refresh.
	StaleAfter time.Duration
}

// DefaultTiming returns the standard 100ms / 300ms / 500ms windows.
func DefaultTiming() Timing {
	return Timing{
		Heartbeat:  100 * time.Millisecond,
		Lease:      300 * time.Millisecond,
		StaleAfter: 500 * time.Millisecond,
	}
}

// SyncContext is constructed once per process and passed to every component
// that touches the shared store.
type SyncContext struct {
	Self   ID
	Store  storage.Store
	Clock  Clock
	Timing Timing
	Logger *zap.Logger
}

// NewSyncContext builds a SyncContext. The logger is tagged with the peer id.
func NewSyncContext(self ID, store storage.Store, clock Clock, timing Timing, logger *zap.Logger) *SyncContext {
	return &SyncContext{
		Self:   self,
		Store:  store,
		Clock:  clock,
		Timing: timing,
		Logger: logger.With(zap.String("peer", self.String())),
	}
}

// Now reads the context clock.
func (sc *SyncContext) Now() time.Time { return sc.Clock.Now() }

// Millis converts a time to the Unix-millisecond form used in stored values.
func Millis(t time.Time) int64 { return t.UnixMilli() }

// FromMillis is the inverse of Millis.
func FromMillis(ms int64) time.Time { return time.UnixMilli(ms) }
