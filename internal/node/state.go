package node

import (
	"errors"

	"github.com/0mlml/localstorage-window-sync/internal/pointer"
	"github.com/0mlml/localstorage-window-sync/internal/spatial"
)

// ErrBusy is returned when the scheduler's command queue is full.
var ErrBusy = errors.New("node: command queue full")

// commandQueueSize bounds the inputs buffered between two frames.
const commandQueueSize = 64

type commandKind int

const (
	cmdResize commandKind = iota
	cmdPointerMove
	cmdPointerButton
	cmdPointerEnter
	cmdPointerLeave
	cmdSpawn
)

func (k commandKind) String() string {
	switch k {
	case cmdResize:
		return "resize"
	case cmdPointerMove:
		return "pointer-move"
	case cmdPointerButton:
		return "pointer-button"
	case cmdPointerEnter:
		return "pointer-enter"
	case cmdPointerLeave:
		return "pointer-leave"
	case cmdSpawn:
		return "spawn"
	default:
		return "unknown"
	}
}

// command is a collaborator input queued for the scheduler goroutine.
type command struct {
	kind   commandKind
	rect   spatial.Rect   // cmdResize
	local  spatial.Vec2   // cmdPointerMove, cmdSpawn: window-local position
	button pointer.Button // cmdPointerButton
	down   bool           // cmdPointerButton
}
