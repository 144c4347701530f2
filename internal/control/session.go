// Package control runs the cursor control session: landmark frames in,
// pointer motion and input events out, on a fixed tick.
package control

import (
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"

	"github.com/ayusman/mudra/internal/actuator"
	"github.com/ayusman/mudra/internal/capture"
	"github.com/ayusman/mudra/internal/cursor"
	"github.com/ayusman/mudra/internal/gesture"
)

// Session timing constants.
const (
	// DefaultTick is the control loop period: 30 updates per second.
	DefaultTick = 33 * time.Millisecond
	// scrollLines is how far one scroll event moves the wheel.
	scrollLines = 3
	// clickCooldown and scrollCooldown bound how fast bound actions can
	// fire, whatever the classifier emits.
	clickCooldown  = 150 * time.Millisecond
	scrollCooldown = 100 * time.Millisecond
)

// KeySender delivers key taps for key_press bindings. The plugin layer
// provides the real one; sessions without one skip those bindings.
type KeySender interface {
	KeyTap(key string) error
}

// Options holds the session knobs that are not part of the hot-swappable
// cursor configuration.
type Options struct {
	// Tick is the control loop period. Defaults to DefaultTick.
	Tick time.Duration
	// FrameTimeout is how long one tick waits for a frame before counting
	// the tick as missed. Defaults to half the tick.
	FrameTimeout time.Duration
	// Keys handles key_press bindings. Optional.
	Keys KeySender
	// OnUpdate, if set, receives one Update per tick from the loop
	// goroutine. It must not block.
	OnUpdate func(Update)
}

// Update is the per-tick snapshot pushed to observers and served over the
// websocket.
type Update struct {
	Tick     uint64   `json:"tick"`
	State    string   `json:"state"`
	Events   []string `json:"events,omitempty"`
	X        float64  `json:"x"`
	Y        float64  `json:"y"`
	Dragging bool     `json:"dragging"`
}

// Status describes a session for the HTTP API.
type Status struct {
	Running         bool          `json:"running"`
	State           string        `json:"state"`
	Dragging        bool          `json:"dragging"`
	X               float64       `json:"x"`
	Y               float64       `json:"y"`
	Ticks           uint64        `json:"ticks"`
	Frames          uint64        `json:"frames"`
	MissedTicks     uint64        `json:"missed_ticks"`
	Overruns        uint64        `json:"overruns"`
	Events          uint64        `json:"events"`
	ActuationErrors uint64        `json:"actuation_errors"`
	Config          cursor.Config `json:"config"`
}

type counters struct {
	ticks         uint64
	frames        uint64
	missed        uint64
	overruns      uint64
	events        uint64
	actuationErrs uint64
}

// Session drives one control loop over a frame source and an actuator.
// The session borrows both: closing them when the program exits is the
// caller's job, which lets a session stop and start again over the same
// devices.
type Session struct {
	source capture.Source
	act    actuator.Actuator
	opts   Options

	// cfg is the active configuration snapshot. The loop loads it once
	// per tick; SetConfig swaps it without stopping the loop.
	cfg atomic.Pointer[cursor.Config]

	mu     sync.RWMutex
	stopCh chan struct{}
	done   chan struct{}
	last   Update
	stats  counters

	// Loop-owned state, touched only by the run goroutine.
	classifier *gesture.Classifier
	filter     *cursor.Filter
	buttonHeld bool
	srcClosed  bool
	clickLim   *rate.Limiter
	scrollLim  *rate.Limiter
}

// NewSession creates a session. The configuration is validated here and
// on every SetConfig; the loop itself never sees an invalid snapshot.
func NewSession(source capture.Source, act actuator.Actuator, cfg cursor.Config, opts Options) (*Session, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if opts.Tick <= 0 {
		opts.Tick = DefaultTick
	}
	if opts.FrameTimeout <= 0 {
		opts.FrameTimeout = opts.Tick / 2
	}

	s := &Session{
		source:    source,
		act:       act,
		opts:      opts,
		clickLim:  rate.NewLimiter(rate.Every(clickCooldown), 1),
		scrollLim: rate.NewLimiter(rate.Every(scrollCooldown), 1),
	}
	snap := cfg.Clone()
	s.cfg.Store(&snap)
	return s, nil
}

// Config returns a copy of the active configuration snapshot.
func (s *Session) Config() cursor.Config {
	return s.cfg.Load().Clone()
}

// SetConfig validates and atomically swaps the active configuration. The
// next tick picks it up. Motion parameters apply immediately; classifier
// tuning applies on the next Start, which is when the vote history it
// shapes is rebuilt.
func (s *Session) SetConfig(cfg cursor.Config) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("rejecting config: %w", err)
	}
	snap := cfg.Clone()
	s.cfg.Store(&snap)
	return nil
}

// Running reports whether the loop is active.
func (s *Session) Running() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.stopCh != nil
}

// Status returns a snapshot of the session for the HTTP API.
func (s *Session) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Status{
		Running:         s.stopCh != nil,
		State:           s.last.State,
		Dragging:        s.last.Dragging,
		X:               s.last.X,
		Y:               s.last.Y,
		Ticks:           s.stats.ticks,
		Frames:          s.stats.frames,
		MissedTicks:     s.stats.missed,
		Overruns:        s.stats.overruns,
		Events:          s.stats.events,
		ActuationErrors: s.stats.actuationErrs,
		Config:          s.cfg.Load().Clone(),
	}
}

// Start begins the control loop. Starting a running session is a no-op.
func (s *Session) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopCh != nil {
		return nil
	}

	cfg := s.cfg.Load()
	s.classifier = gesture.NewClassifier(cfg.Gesture)
	s.filter = cursor.NewFilter(cfg.Center())
	s.buttonHeld = false
	s.srcClosed = false
	s.last = Update{State: gesture.Idle.String()}

	s.stopCh = make(chan struct{})
	s.done = make(chan struct{})
	go s.run(s.stopCh, s.done)

	log.Println("control: session started")
	return nil
}

// Stop halts the loop and waits for it to wind down. Any held button is
// released before Stop returns. Stopping a stopped session is a no-op.
func (s *Session) Stop() {
	s.mu.Lock()
	stopCh, done := s.stopCh, s.done
	s.stopCh = nil
	s.done = nil
	s.mu.Unlock()

	if stopCh == nil {
		return
	}
	close(stopCh)
	<-done

	log.Println("control: session stopped")
}
