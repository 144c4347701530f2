package capture

import (
	"sync"
	"time"

	"github.com/ayusman/mudra/internal/landmark"
)

// Replay is a Source that plays back a scripted frame sequence. A nil
// entry in the script is a gap: one Next call that sees no hand. Tests
// and the -replay development mode are built on it.
type Replay struct {
	mu     sync.Mutex
	script []*landmark.Frame
	pos    int
	loop   bool
	err    error
	closed bool
	seq    uint64
}

// NewReplay creates a replay source over the given script.
func NewReplay(script []*landmark.Frame) *Replay {
	return &Replay{script: script}
}

// SetLoop makes the script start over when exhausted.
func (r *Replay) SetLoop(loop bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.loop = loop
}

// SetError makes every subsequent Next return err. Pass nil to clear.
func (r *Replay) SetError(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.err = err
}

// Append adds frames to the end of the script. Tests use it to feed a
// running session phase by phase.
func (r *Replay) Append(frames ...*landmark.Frame) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.script = append(r.script, frames...)
}

// Remaining returns how many script entries have not been consumed yet.
func (r *Replay) Remaining() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.script) - r.pos
}

// Next returns the script's next entry. Gaps and an exhausted script
// report ErrNoFrame, which is exactly what a camera with no hand in view
// looks like. Frames are copied out with fresh Seq numbers so scripts can
// reuse fixture pointers.
func (r *Replay) Next(timeout time.Duration) (*landmark.Frame, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil, ErrClosed
	}
	if r.err != nil {
		return nil, r.err
	}
	if r.pos >= len(r.script) {
		if !r.loop || len(r.script) == 0 {
			return nil, ErrNoFrame
		}
		r.pos = 0
	}

	entry := r.script[r.pos]
	r.pos++
	if entry == nil {
		return nil, ErrNoFrame
	}

	r.seq++
	frame := *entry
	frame.Seq = r.seq
	frame.Timestamp = time.Now()
	return &frame, nil
}

// Close marks the source closed.
func (r *Replay) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	return nil
}
