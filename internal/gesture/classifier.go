// Package gesture turns a stream of hand-landmark frames into debounced
// gesture states and edge-triggered events.
package gesture

import (
	"fmt"

	"github.com/ayusman/mudra/internal/landmark"
)

// State is the classifier's debounced gesture state.
type State int

const (
	// Idle means no hand, or a hand in no recognized pose.
	Idle State = iota
	// Pointing tracks the cursor with the index finger.
	Pointing
	// PinchArmed is a pinch that has not yet crossed the drag threshold.
	PinchArmed
	// PinchHolding is a pinch held long enough to drag.
	PinchHolding
	// FistHeld, PeaceHeld and OpenHeld are the remaining held poses.
	FistHeld
	PeaceHeld
	OpenHeld

	numStates
)

var stateNames = [numStates]string{
	Idle:         "idle",
	Pointing:     "pointing",
	PinchArmed:   "pinch_armed",
	PinchHolding: "pinch_holding",
	FistHeld:     "fist_held",
	PeaceHeld:    "peace_held",
	OpenHeld:     "open_held",
}

func (s State) String() string {
	if s < 0 || s >= numStates {
		return fmt.Sprintf("state(%d)", int(s))
	}
	return stateNames[s]
}

// Moves reports whether the cursor tracks the hand in this state.
func (s State) Moves() bool {
	return s == Pointing || s == PinchHolding
}

// Pinching reports whether a pinch is in progress, armed or holding.
func (s State) Pinching() bool {
	return s == PinchArmed || s == PinchHolding
}

// Config tunes the classifier. All durations are in ticks so the state
// machine stays deterministic; the control loop owns the wall clock.
type Config struct {
	// PinchThreshold is the thumb-index distance, as a fraction of the
	// hand scale, below which the hand reads as a pinch.
	PinchThreshold float64 `json:"pinch_threshold"`
	// VoteWindow is the number of recent frames in the majority vote.
	VoteWindow int `json:"vote_window"`
	// HoldTicks is how long a pinch must hold before it becomes a drag.
	HoldTicks int `json:"hold_ticks"`
	// LossTicks is how many missed ticks force the state back to Idle.
	LossTicks int `json:"loss_ticks"`
	// ScrollRepeatTicks is the interval between scroll events while an
	// open hand is held.
	ScrollRepeatTicks int `json:"scroll_repeat_ticks"`
	// MinScore rejects frames whose tracking confidence is too low.
	MinScore float64 `json:"min_score"`
}

// DefaultConfig returns the classifier tuning used at 30 ticks/s: a 0.3 s
// drag hold, a 0.5 s loss timeout, and a 0.1 s scroll repeat.
func DefaultConfig() Config {
	return Config{
		PinchThreshold:    0.45,
		VoteWindow:        5,
		HoldTicks:         9,
		LossTicks:         15,
		ScrollRepeatTicks: 3,
		MinScore:          0.5,
	}
}

// Validate reports whether the tuning is usable.
func (c Config) Validate() error {
	if !(c.PinchThreshold > 0) || c.PinchThreshold > 2 {
		return fmt.Errorf("pinch threshold %v out of range (0, 2]", c.PinchThreshold)
	}
	if c.VoteWindow < 1 || c.VoteWindow > 30 {
		return fmt.Errorf("vote window %d out of range [1, 30]", c.VoteWindow)
	}
	if c.HoldTicks < 1 {
		return fmt.Errorf("hold ticks %d must be positive", c.HoldTicks)
	}
	if c.LossTicks < 1 {
		return fmt.Errorf("loss ticks %d must be positive", c.LossTicks)
	}
	if c.ScrollRepeatTicks < 1 {
		return fmt.Errorf("scroll repeat ticks %d must be positive", c.ScrollRepeatTicks)
	}
	if !(c.MinScore >= 0 && c.MinScore <= 1) {
		return fmt.Errorf("min score %v out of range [0, 1]", c.MinScore)
	}
	return nil
}

// Classifier is the per-tick gesture state machine. It is deterministic:
// the same sequence of frames always produces the same states and events.
// It is not safe for concurrent use; the control loop owns it.
type Classifier struct {
	cfg       Config
	state     State
	votes     []pose
	voteIdx   int
	effective pose
	ticks     int // completed ticks in the current state, incl. the entry tick
	missed    int
	seq       uint64
}

// NewClassifier creates a classifier with the given tuning. The tuning is
// assumed valid; callers validate it at the config boundary.
func NewClassifier(cfg Config) *Classifier {
	c := &Classifier{
		cfg:   cfg,
		votes: make([]pose, cfg.VoteWindow),
	}
	c.Reset()
	return c
}

// State returns the current debounced state.
func (c *Classifier) State() State { return c.state }

// Reset returns the classifier to Idle and clears all history.
func (c *Classifier) Reset() {
	c.state = Idle
	for i := range c.votes {
		c.votes[i] = poseNone
	}
	c.voteIdx = 0
	c.effective = poseNone
	c.ticks = 0
	c.missed = 0
}

// Step advances the state machine by one tick. A nil frame, an invalid
// frame, or a frame below the confidence floor counts as a missed tick:
// the classifier fails closed, holding its state and emitting nothing,
// until the loss timeout forces Idle.
func (c *Classifier) Step(f *landmark.Frame) (State, []Event) {
	if f == nil || f.Validate() != nil || f.Score < c.cfg.MinScore {
		return c.missedTick()
	}
	c.missed = 0
	c.seq = f.Seq

	c.votes[c.voteIdx] = poseOf(f, c.cfg.PinchThreshold)
	c.voteIdx = (c.voteIdx + 1) % len(c.votes)
	c.tally()

	return c.advance()
}

func (c *Classifier) missedTick() (State, []Event) {
	c.missed++
	if c.missed > c.cfg.LossTicks && c.state != Idle {
		// Tracking is gone. Drop to Idle without synthesizing a release
		// event; the control loop repairs physical button state itself.
		c.state = Idle
		for i := range c.votes {
			c.votes[i] = poseNone
		}
		c.effective = poseNone
		c.ticks = 0
	}
	return c.state, nil
}

// tally recomputes the effective pose. A pose must hold a strict majority
// of the vote window to take effect; short of that the previous effective
// pose stands, so a single noisy frame cannot flip a gesture.
func (c *Classifier) tally() {
	var counts [poseCount]int
	for _, v := range c.votes {
		counts[v]++
	}
	need := len(c.votes)/2 + 1
	for p := pose(0); p < poseCount; p++ {
		if counts[p] >= need {
			c.effective = p
			return
		}
	}
}

func (c *Classifier) advance() (State, []Event) {
	var events []Event
	next := c.state

	if c.effective == posePinch {
		switch c.state {
		case PinchHolding:
			// Drag continues; nothing to emit.
		case PinchArmed:
			if c.ticks+1 >= c.cfg.HoldTicks {
				next = PinchHolding
				events = append(events, Event{Kind: EventDragStart, Seq: c.seq})
			}
		default:
			next = PinchArmed
			if c.cfg.HoldTicks <= 1 {
				next = PinchHolding
				events = append(events, Event{Kind: EventDragStart, Seq: c.seq})
			}
		}
	} else {
		// A pinch that ends is either a click (released early) or the end
		// of a drag, regardless of what pose follows it.
		switch c.state {
		case PinchArmed:
			events = append(events, Event{Kind: EventClick, Seq: c.seq})
		case PinchHolding:
			events = append(events, Event{Kind: EventDragEnd, Seq: c.seq})
		}

		switch c.effective {
		case poseFist:
			if c.state != FistHeld {
				events = append(events, Event{Kind: EventLeftClick, Seq: c.seq})
			}
			next = FistHeld
		case posePeace:
			if c.state != PeaceHeld {
				events = append(events, Event{Kind: EventRightClick, Seq: c.seq})
			}
			next = PeaceHeld
		case poseOpen:
			if c.state != OpenHeld {
				events = append(events, Event{Kind: EventScrollUp, Seq: c.seq})
			} else if c.ticks%c.cfg.ScrollRepeatTicks == 0 {
				events = append(events, Event{Kind: EventScrollUp, Seq: c.seq})
			}
			next = OpenHeld
		case posePoint:
			next = Pointing
		case poseNone:
			next = Idle
		}
	}

	if next == c.state {
		c.ticks++
	} else {
		c.ticks = 1
	}
	c.state = next
	return c.state, events
}
