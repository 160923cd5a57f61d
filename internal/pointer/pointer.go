// Package pointer shares the pointer between windows. Whichever window holds
// the cursor writes its world position; the window receiving a click writes
// the button state; the authority reads both to drive grabbing.
package pointer

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/0mlml/localstorage-window-sync/internal/peer"
	"github.com/0mlml/localstorage-window-sync/internal/spatial"
	"github.com/0mlml/localstorage-window-sync/internal/storage"
)

const noWindow = "null"

// Sample is the latest shared pointer state.
type Sample struct {
	Pos       spatial.Vec2 `json:"pos"`
	Down      bool         `json:"down"`
	Window    peer.ID      `json:"window,omitempty"`
	HasWindow bool         `json:"hasWindow"`
}

// Tracker reads and writes the pointer keys for one peer. Fetch keeps the
// previous value of any key that is missing or unparseable.
type Tracker struct {
	sc   *peer.SyncContext
	last Sample
}

func NewTracker(sc *peer.SyncContext) *Tracker {
	return &Tracker{sc: sc}
}

// Move publishes a world position.
func (t *Tracker) Move(ctx context.Context, pos spatial.Vec2) error {
	t.last.Pos = pos
	return t.sc.Store.Set(ctx, storage.KeyMousePosition, EncodePos(pos))
}

// Press publishes the primary button state.
func (t *Tracker) Press(ctx context.Context, down bool) error {
	t.last.Down = down
	return t.sc.Store.Set(ctx, storage.KeyMouseDown, strconv.FormatBool(down))
}

// Enter marks this peer's window as holding the pointer.
func (t *Tracker) Enter(ctx context.Context) error {
	t.last.Window, t.last.HasWindow = t.sc.Self, true
	return t.sc.Store.Set(ctx, storage.KeyMouseWindow, t.sc.Self.String())
}

// Leave clears the pointer window.
func (t *Tracker) Leave(ctx context.Context) error {
	t.last.Window, t.last.HasWindow = "", false
	return t.sc.Store.Set(ctx, storage.KeyMouseWindow, noWindow)
}

// Fetch reads the shared pointer keys.
func (t *Tracker) Fetch(ctx context.Context) (Sample, error) {
	raw, ok, err := storage.Lookup(ctx, t.sc.Store, storage.KeyMousePosition)
	if err != nil {
		return t.last, err
	}
	if ok {
		if pos, err := ParsePos(raw); err == nil {
			t.last.Pos = pos
		} else {
			t.sc.Logger.Debug("Ignoring pointer position", zap.String("value", raw))
		}
	}

	raw, ok, err = storage.Lookup(ctx, t.sc.Store, storage.KeyMouseDown)
	if err != nil {
		return t.last, err
	}
	if ok {
		if down, err := strconv.ParseBool(raw); err == nil {
			t.last.Down = down
		}
	}

	raw, ok, err = storage.Lookup(ctx, t.sc.Store, storage.KeyMouseWindow)
	if err != nil {
		return t.last, err
	}
	if ok {
		t.last.Window, t.last.HasWindow = peer.ParseID(raw)
	}
	return t.last, nil
}

// Last returns the sample from the previous Fetch or write.
func (t *Tracker) Last() Sample { return t.last }

// EncodePos formats a position as "x,y".
func EncodePos(p spatial.Vec2) string {
	return strconv.FormatFloat(p.X, 'f', -1, 64) + "," + strconv.FormatFloat(p.Y, 'f', -1, 64)
}

// ParsePos parses "x,y".
func ParsePos(s string) (spatial.Vec2, error) {
	xs, ys, ok := strings.Cut(s, ",")
	if !ok {
		return spatial.Vec2{}, fmt.Errorf("pointer position %q: want x,y", s)
	}
	x, err := strconv.ParseFloat(strings.TrimSpace(xs), 64)
	if err != nil {
		return spatial.Vec2{}, fmt.Errorf("pointer x: %w", err)
	}
	y, err := strconv.ParseFloat(strings.TrimSpace(ys), 64)
	if err != nil {
		return spatial.Vec2{}, fmt.Errorf("pointer y: %w", err)
	}
	p := spatial.V(x, y)
	if !p.Finite() {
		return spatial.Vec2{}, fmt.Errorf("pointer position %q: not finite", s)
	}
	return p, nil
}

// Button identifies a pointer button.
type Button int

const (
	ButtonPrimary Button = iota
	ButtonSecondary
)

func (b Button) String() string {
	switch b {
	case ButtonPrimary:
		return "primary"
	case ButtonSecondary:
		return "secondary"
	default:
		return "unknown"
	}
}

// ParseButton accepts "primary"/"left" and "secondary"/"right".
func ParseButton(s string) (Button, error) {
	switch strings.ToLower(s) {
	case "primary", "left", "":
		return ButtonPrimary, nil
	case "secondary", "right":
		return ButtonSecondary, nil
	}
	return 0, fmt.Errorf("unknown pointer button %q", s)
}
