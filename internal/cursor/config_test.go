package cursor

import (
	"encoding/json"
	"errors"
	"math"
	"testing"

	"github.com/ayusman/mudra/internal/gesture"
)

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"default", func(c *Config) {}, false},
		{"nan sensitivity", func(c *Config) { c.Sensitivity = math.NaN() }, true},
		{"inf smoothing", func(c *Config) { c.Smoothing = math.Inf(1) }, true},
		{"sensitivity too low", func(c *Config) { c.Sensitivity = 0.1 }, true},
		{"sensitivity too high", func(c *Config) { c.Sensitivity = 2.5 }, true},
		{"smoothing too high", func(c *Config) { c.Smoothing = 0.9 }, true},
		{"negative deadzone", func(c *Config) { c.Deadzone = -1 }, true},
		{"acceleration below one", func(c *Config) { c.Acceleration = 0.5 }, true},
		{"zero screen", func(c *Config) { c.ScreenW = 0 }, true},
		{"track point out of range", func(c *Config) { c.TrackPoint = 21 }, true},
		{"unknown binding action", func(c *Config) {
			c.Bindings[gesture.EventClick] = Binding{Action: "launch_rockets"}
		}, true},
		{"key press without key", func(c *Config) {
			c.Bindings[gesture.EventRightClick] = Binding{Action: ActionKeyPress}
		}, true},
		{"key press with key", func(c *Config) {
			c.Bindings[gesture.EventRightClick] = Binding{Action: ActionKeyPress, Key: "escape"}
		}, false},
		{"bad gesture tuning", func(c *Config) { c.Gesture.VoteWindow = 0 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("error %v does not wrap ErrInvalidConfig", err)
			}
		})
	}
}

func TestConfigCloneIsIndependent(t *testing.T) {
	orig := DefaultConfig()
	copied := orig.Clone()

	copied.Sensitivity = 1.7
	copied.Bindings[gesture.EventClick] = Binding{Action: ActionDoubleClick}

	if orig.Sensitivity != 1.0 {
		t.Errorf("clone mutated original sensitivity: %v", orig.Sensitivity)
	}
	if got := orig.Bindings[gesture.EventClick].Action; got != ActionLeftClick {
		t.Errorf("clone mutated original binding: %v", got)
	}
}

func TestConfigJSONRoundTrip(t *testing.T) {
	orig := DefaultConfig()
	orig.Bindings[gesture.EventScrollUp] = Binding{Action: ActionScrollDown}
	orig.Bindings[gesture.EventLeftClick] = Binding{Action: ActionKeyPress, Key: "space"}

	data, err := json.Marshal(orig)
	if err != nil {
		t.Fatalf("marshal error = %v", err)
	}

	// Binding keys serialize as event names, not numbers; stored configs
	// must survive event renumbering.
	var asMap map[string]json.RawMessage
	if err := json.Unmarshal(data, &asMap); err != nil {
		t.Fatalf("unmarshal to map error = %v", err)
	}
	var bindings map[string]Binding
	if err := json.Unmarshal(asMap["bindings"], &bindings); err != nil {
		t.Fatalf("unmarshal bindings error = %v", err)
	}
	if _, ok := bindings["scroll_up"]; !ok {
		t.Errorf("bindings keys = %v, want event names", bindings)
	}

	var back Config
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("unmarshal error = %v", err)
	}
	if got := back.Bindings[gesture.EventLeftClick]; got != (Binding{Action: ActionKeyPress, Key: "space"}) {
		t.Errorf("binding after round trip = %+v", got)
	}
	if back.Sensitivity != orig.Sensitivity || back.Gesture != orig.Gesture {
		t.Errorf("scalars after round trip: %+v", back)
	}
}
