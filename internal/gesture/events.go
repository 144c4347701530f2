package gesture

import (
	"errors"
	"fmt"
)

// EventKind identifies an edge-triggered gesture event. Events fire on
// transitions only; holding a pose never re-emits its entry event.
type EventKind int

const (
	// EventClick is a pinch released before the drag hold threshold.
	EventClick EventKind = iota
	// EventLeftClick fires on the rising edge of a fist.
	EventLeftClick
	// EventRightClick fires on the rising edge of a peace sign.
	EventRightClick
	// EventDragStart fires when a pinch has been held long enough to
	// become a drag.
	EventDragStart
	// EventDragEnd fires when a held drag pinch is released.
	EventDragEnd
	// EventScrollUp fires when an open hand appears and repeats at a fixed
	// tick interval while it is held.
	EventScrollUp

	numEventKinds
)

var eventNames = [numEventKinds]string{
	EventClick:      "click",
	EventLeftClick:  "left_click",
	EventRightClick: "right_click",
	EventDragStart:  "drag_start",
	EventDragEnd:    "drag_end",
	EventScrollUp:   "scroll_up",
}

// ErrUnknownEvent is returned when parsing an event name that does not
// exist.
var ErrUnknownEvent = errors.New("unknown gesture event")

func (k EventKind) String() string {
	if k < 0 || k >= numEventKinds {
		return fmt.Sprintf("event(%d)", int(k))
	}
	return eventNames[k]
}

// MarshalText implements encoding.TextMarshaler so event kinds can key
// JSON objects (action bindings in stored configuration).
func (k EventKind) MarshalText() ([]byte, error) {
	if k < 0 || k >= numEventKinds {
		return nil, fmt.Errorf("%w: %d", ErrUnknownEvent, int(k))
	}
	return []byte(eventNames[k]), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *EventKind) UnmarshalText(text []byte) error {
	name := string(text)
	for i, n := range eventNames {
		if n == name {
			*k = EventKind(i)
			return nil
		}
	}
	return fmt.Errorf("%w: %q", ErrUnknownEvent, name)
}

// Event is one edge-triggered gesture occurrence. Seq is the sequence
// number of the landmark frame that produced it.
type Event struct {
	Kind EventKind `json:"kind"`
	Seq  uint64    `json:"seq"`
}

func (e Event) String() string {
	return fmt.Sprintf("%s@%d", e.Kind, e.Seq)
}
