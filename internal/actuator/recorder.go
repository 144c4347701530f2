package actuator

import (
	"fmt"
	"sync"
)

// Command is one recorded actuator call.
type Command struct {
	Op     string // "move", "down", "up", "scroll"
	X, Y   float64
	Button Button
	DX, DY int
}

// String renders the command compactly for test assertions:
// "move", "down:left", "up:left", "scroll:0,3".
func (c Command) String() string {
	switch c.Op {
	case "down", "up":
		return c.Op + ":" + string(c.Button)
	case "scroll":
		return fmt.Sprintf("scroll:%d,%d", c.DX, c.DY)
	default:
		return c.Op
	}
}

// Recorder is a test implementation of the Actuator interface. It records
// every call and lets tests inject failures.
type Recorder struct {
	mu       sync.Mutex
	commands []Command
	err      error
	held     map[Button]bool
}

// NewRecorder creates a new Recorder instance.
func NewRecorder() *Recorder {
	return &Recorder{held: make(map[Button]bool)}
}

// SetError makes every subsequent call return err. Pass nil to clear.
func (r *Recorder) SetError(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.err = err
}

// Commands returns a copy of everything recorded so far.
func (r *Recorder) Commands() []Command {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Command, len(r.commands))
	copy(out, r.commands)
	return out
}

// Ops returns the recorded calls in compact string form.
func (r *Recorder) Ops() []string {
	cmds := r.Commands()
	out := make([]string, len(cmds))
	for i, c := range cmds {
		out[i] = c.String()
	}
	return out
}

// Held reports whether the recorder believes b is currently pressed.
func (r *Recorder) Held(b Button) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.held[b]
}

// LastMove returns the coordinates of the most recent move, if any.
func (r *Recorder) LastMove() (x, y float64, ok bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := len(r.commands) - 1; i >= 0; i-- {
		if r.commands[i].Op == "move" {
			return r.commands[i].X, r.commands[i].Y, true
		}
	}
	return 0, 0, false
}

// Reset clears the recorded commands but keeps held-button state.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.commands = r.commands[:0]
}

func (r *Recorder) record(c Command) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return fmt.Errorf("%w: %v", ErrActuation, r.err)
	}
	r.commands = append(r.commands, c)
	switch c.Op {
	case "down":
		r.held[c.Button] = true
	case "up":
		r.held[c.Button] = false
	}
	return nil
}

// MoveTo records a pointer move.
func (r *Recorder) MoveTo(x, y float64) error {
	return r.record(Command{Op: "move", X: x, Y: y})
}

// MouseDown records a button press.
func (r *Recorder) MouseDown(b Button) error {
	return r.record(Command{Op: "down", Button: b})
}

// MouseUp records a button release.
func (r *Recorder) MouseUp(b Button) error {
	return r.record(Command{Op: "up", Button: b})
}

// ScrollBy records a scroll.
func (r *Recorder) ScrollBy(dx, dy int) error {
	return r.record(Command{Op: "scroll", DX: dx, DY: dy})
}

// Close is a no-op for the recorder.
func (r *Recorder) Close() error {
	return nil
}
