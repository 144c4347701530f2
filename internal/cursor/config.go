// Package cursor provides the cursor configuration and the motion filter
// that turns raw hand positions into smoothed screen coordinates.
package cursor

import (
	"errors"
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/ayusman/mudra/internal/gesture"
	"github.com/ayusman/mudra/internal/landmark"
)

// ErrInvalidConfig is returned when a configuration is rejected at a swap
// or start boundary. The previous configuration stays in effect.
var ErrInvalidConfig = errors.New("invalid cursor config")

// Validated ranges for the tunable motion parameters. The calibration grid
// spans exactly these.
const (
	MinSensitivity = 0.3
	MaxSensitivity = 2.0
	MinSmoothing   = 0.1
	MaxSmoothing   = 0.8
)

// Action is what a gesture event does when it fires. Drag start/end are
// not bindable: they always press and release the left button, or drags
// would not be drags.
type Action string

const (
	ActionNone        Action = "none"
	ActionLeftClick   Action = "left_click"
	ActionRightClick  Action = "right_click"
	ActionDoubleClick Action = "double_click"
	ActionScrollUp    Action = "scroll_up"
	ActionScrollDown  Action = "scroll_down"
	ActionKeyPress    Action = "key_press"
)

var validActions = map[Action]bool{
	ActionNone:        true,
	ActionLeftClick:   true,
	ActionRightClick:  true,
	ActionDoubleClick: true,
	ActionScrollUp:    true,
	ActionScrollDown:  true,
	ActionKeyPress:    true,
}

// Binding maps a gesture event to an action. Key names the keystroke for
// ActionKeyPress bindings and is ignored otherwise.
type Binding struct {
	Action Action `json:"action"`
	Key    string `json:"key,omitempty"`
}

// Config is the snapshot the control loop runs on. It is swapped
// atomically as a whole; an in-flight tick finishes on the old snapshot.
type Config struct {
	// Sensitivity is the gain applied to hand-position deltas.
	Sensitivity float64 `json:"sensitivity"`
	// Smoothing is the exponential smoothing factor; higher is steadier
	// and slower.
	Smoothing float64 `json:"smoothing"`
	// Deadzone suppresses per-tick movements below this many pixels.
	Deadzone float64 `json:"deadzone"`
	// Acceleration multiplies fast movements; 1.0 disables the boost.
	Acceleration float64 `json:"acceleration"`

	InvertX bool `json:"invert_x"`
	InvertY bool `json:"invert_y"`

	ScreenW int `json:"screen_w"`
	ScreenH int `json:"screen_h"`

	// TrackPoint is the landmark index that drives the cursor while
	// pointing. During a pinch the loop tracks the pinky tip instead,
	// since the pinching fingers are busy.
	TrackPoint int `json:"track_point"`

	Bindings map[gesture.EventKind]Binding `json:"bindings"`

	Gesture gesture.Config `json:"gesture"`
}

// DefaultBindings maps events to the conventional pointer actions.
func DefaultBindings() map[gesture.EventKind]Binding {
	return map[gesture.EventKind]Binding{
		gesture.EventClick:      {Action: ActionLeftClick},
		gesture.EventLeftClick:  {Action: ActionLeftClick},
		gesture.EventRightClick: {Action: ActionRightClick},
		gesture.EventScrollUp:   {Action: ActionScrollUp},
	}
}

// DefaultConfig returns a usable configuration for a 1920x1080 screen.
// Callers normally overwrite the screen size with the actuator's real
// bounds before starting a session.
func DefaultConfig() Config {
	return Config{
		Sensitivity:  1.0,
		Smoothing:    0.2,
		Deadzone:     3.0,
		Acceleration: 1.2,
		ScreenW:      1920,
		ScreenH:      1080,
		TrackPoint:   landmark.IndexTip,
		Bindings:     DefaultBindings(),
		Gesture:      gesture.DefaultConfig(),
	}
}

// Center returns the middle of the configured screen, where the filter
// parks its reference until the first frame arrives.
func (c Config) Center() mgl64.Vec2 {
	return mgl64.Vec2{float64(c.ScreenW) / 2, float64(c.ScreenH) / 2}
}

// Clone returns a deep copy; mutating the copy's bindings does not touch
// the original.
func (c Config) Clone() Config {
	out := c
	out.Bindings = make(map[gesture.EventKind]Binding, len(c.Bindings))
	for k, v := range c.Bindings {
		out.Bindings[k] = v
	}
	return out
}

// Validate rejects configurations the loop must never run on. All
// failures wrap ErrInvalidConfig.
func (c *Config) Validate() error {
	for name, v := range map[string]float64{
		"sensitivity":  c.Sensitivity,
		"smoothing":    c.Smoothing,
		"deadzone":     c.Deadzone,
		"acceleration": c.Acceleration,
	} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: %s is not finite", ErrInvalidConfig, name)
		}
	}
	if c.Sensitivity < MinSensitivity || c.Sensitivity > MaxSensitivity {
		return fmt.Errorf("%w: sensitivity %v out of range [%v, %v]",
			ErrInvalidConfig, c.Sensitivity, MinSensitivity, MaxSensitivity)
	}
	if c.Smoothing < MinSmoothing || c.Smoothing > MaxSmoothing {
		return fmt.Errorf("%w: smoothing %v out of range [%v, %v]",
			ErrInvalidConfig, c.Smoothing, MinSmoothing, MaxSmoothing)
	}
	if c.Deadzone < 0 || c.Deadzone > 100 {
		return fmt.Errorf("%w: deadzone %v out of range [0, 100]", ErrInvalidConfig, c.Deadzone)
	}
	if c.Acceleration < 1 || c.Acceleration > 3 {
		return fmt.Errorf("%w: acceleration %v out of range [1, 3]", ErrInvalidConfig, c.Acceleration)
	}
	if c.ScreenW < 1 || c.ScreenH < 1 {
		return fmt.Errorf("%w: screen %dx%d", ErrInvalidConfig, c.ScreenW, c.ScreenH)
	}
	if c.TrackPoint < 0 || c.TrackPoint >= landmark.NumLandmarks {
		return fmt.Errorf("%w: track point %d", ErrInvalidConfig, c.TrackPoint)
	}
	for kind, b := range c.Bindings {
		if !validActions[b.Action] {
			return fmt.Errorf("%w: binding %s: unknown action %q", ErrInvalidConfig, kind, b.Action)
		}
		if b.Action == ActionKeyPress && b.Key == "" {
			return fmt.Errorf("%w: binding %s: key_press needs a key", ErrInvalidConfig, kind)
		}
	}
	if err := c.Gesture.Validate(); err != nil {
		return fmt.Errorf("%w: gesture: %v", ErrInvalidConfig, err)
	}
	return nil
}
