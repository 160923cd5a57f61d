// Package view renders frames in a terminal with tcell. It is a read-only
// collaborator: it consumes frames and never feeds input back to a peer.
package view

import (
	"context"
	"errors"
	"fmt"

	"github.com/gdamore/tcell/v2"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/0mlml/localstorage-window-sync/internal/frame"
)

var (
	// ErrQuit is returned by Run when the user closes the viewer.
	ErrQuit = errors.New("view: quit")
	// ErrStreamClosed is returned by Follow when the peer ends the stream.
	ErrStreamClosed = errors.New("view: frame stream closed")
)

// Viewer draws the latest frame on a tcell screen. Frames arriving faster
// than they can be drawn are coalesced.
type Viewer struct {
	screen tcell.Screen
	frames chan frame.Frame
	logger *zap.Logger
}

// New creates a Viewer on an initialized screen.
func New(screen tcell.Screen, logger *zap.Logger) *Viewer {
	return &Viewer{screen: screen, frames: make(chan frame.Frame, 1), logger: logger}
}

// Publish implements frame.Sink, keeping only the newest pending frame.
func (v *Viewer) Publish(f frame.Frame) {
	for {
		select {
		case v.frames <- f:
			return
		default:
		}
		select {
		case <-v.frames:
		default:
		}
	}
}

// Run draws frames until ctx is done or the user presses q, Esc or Ctrl-C.
func (v *Viewer) Run(ctx context.Context) error {
	quit := make(chan struct{})
	go func() {
		for {
			ev := v.screen.PollEvent()
			if ev == nil {
				return
			}
			switch ev := ev.(type) {
			case *tcell.EventKey:
				if ev.Key() == tcell.KeyEscape || ev.Key() == tcell.KeyCtrlC ||
					(ev.Key() == tcell.KeyRune && ev.Rune() == 'q') {
					close(quit)
					return
				}
			case *tcell.EventResize:
				v.screen.Sync()
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-quit:
			return ErrQuit
		case f := <-v.frames:
			v.Draw(f)
		}
	}
}

// Draw renders one frame.
func (v *Viewer) Draw(f frame.Frame) {
	cols, rows := v.screen.Size()
	c := Rasterize(f, cols, rows)
	for y := 0; y < c.Rows; y++ {
		for x := 0; x < c.Cols; x++ {
			cell := c.At(x, y)
			v.screen.SetContent(x, y, cell.Ch, nil, cell.Style)
		}
	}
	v.screen.Show()
}

// Follow reads frames from a peer's websocket stream into sink. It returns nil
// once ctx is done and ErrStreamClosed when the peer closes the stream, so an
// errgroup running it alongside Viewer.Run tears the screen down.
func Follow(ctx context.Context, url string, sink frame.Sink, logger *zap.Logger) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return fmt.Errorf("dial %s: %w", url, err)
	}
	defer conn.Close()
	logger.Info("Following frames", zap.String("url", url))

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()

	for {
		var f frame.Frame
		if err := conn.ReadJSON(&f); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return ErrStreamClosed
			}
			return fmt.Errorf("read frame: %w", err)
		}
		sink.Publish(f)
	}
}
