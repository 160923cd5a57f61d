package physics

// Grip tracks the primary button between frames. It lives with the peer
// rather than the world so a press seen while mirroring is not seen again
// after the peer takes over the simulation.
type Grip struct {
	wasDown bool
}

// Down reports the button state of the last Apply.
func (g *Grip) Down() bool { return g.wasDown }

// Apply updates the grab flags of w. A body is grabbed when the button goes
// down while it is hovered, stays grabbed while the button is held and is
// released when the button comes up.
func (g *Grip) Apply(w *World, buttonDown bool) {
	pressed := buttonDown && !g.wasDown
	g.wasDown = buttonDown
	for _, b := range w.Bodies {
		switch {
		case !buttonDown:
			b.Grabbed = false
		case pressed:
			b.Grabbed = b.Hovered
		}
	}
}
