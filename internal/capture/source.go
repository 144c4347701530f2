// Package capture provides landmark frame sources: the live MediaPipe hand
// tracker and a scripted replay source for tests and development.
package capture

import (
	"errors"
	"time"

	"github.com/ayusman/mudra/internal/landmark"
)

// Frame pacing defaults for the live tracker.
const (
	DefaultCamera = 0
	DefaultFPS    = 30
)

// ErrNoFrame is returned by Next when no frame arrived within the timeout.
// The control loop treats it as tracking loss, not as a failure.
var ErrNoFrame = errors.New("no frame available")

// ErrClosed is returned by Next after the source has been closed or its
// upstream process has exited.
var ErrClosed = errors.New("frame source is closed")

// Source defines the interface for landmark frame producers.
type Source interface {
	// Next blocks up to timeout for the next hand observation.
	// Returns ErrNoFrame when nothing arrives in time and ErrClosed
	// once the source is shut down.
	Next(timeout time.Duration) (*landmark.Frame, error)

	// Close releases the source and any underlying capture device.
	Close() error
}
