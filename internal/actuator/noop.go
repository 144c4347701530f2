package actuator

import "log"

// Noop is an Actuator that logs button and scroll activity instead of
// injecting it. Used for headless runs and when no pointer helper is
// installed. Moves are deliberately not logged; at 30 Hz they drown
// everything else.
type Noop struct{}

// NewNoop creates a logging no-op actuator.
func NewNoop() *Noop {
	return &Noop{}
}

func (Noop) MoveTo(x, y float64) error {
	return nil
}

func (Noop) MouseDown(b Button) error {
	log.Printf("actuator: mouse down %s (noop)", b)
	return nil
}

func (Noop) MouseUp(b Button) error {
	log.Printf("actuator: mouse up %s (noop)", b)
	return nil
}

func (Noop) ScrollBy(dx, dy int) error {
	log.Printf("actuator: scroll %d,%d (noop)", dx, dy)
	return nil
}

func (Noop) Close() error {
	return nil
}
