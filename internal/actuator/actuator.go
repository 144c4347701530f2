// Package actuator abstracts the operating system input layer: moving the
// pointer, pressing and releasing mouse buttons, and scrolling.
package actuator

import "errors"

// ErrActuation is wrapped by every injection failure. Callers treat these
// as transient: a failed move or click is logged and dropped, never fatal.
var ErrActuation = errors.New("actuation failed")

// Button identifies a mouse button on the wire.
type Button string

const (
	ButtonLeft  Button = "left"
	ButtonRight Button = "right"
)

// Actuator defines the interface for pointer injection backends.
type Actuator interface {
	// MoveTo places the pointer at absolute screen coordinates in pixels.
	MoveTo(x, y float64) error

	// MouseDown presses a button and leaves it held.
	MouseDown(b Button) error

	// MouseUp releases a previously pressed button. Releasing a button
	// that is not held is a no-op, not an error.
	MouseUp(b Button) error

	// ScrollBy scrolls by the given number of lines. Positive dy scrolls up.
	ScrollBy(dx, dy int) error

	// Close releases any resources held by the actuator.
	Close() error
}
