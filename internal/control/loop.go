package control

import (
	"errors"
	"log"
	"time"

	"github.com/ayusman/mudra/internal/actuator"
	"github.com/ayusman/mudra/internal/capture"
	"github.com/ayusman/mudra/internal/cursor"
	"github.com/ayusman/mudra/internal/gesture"
	"github.com/ayusman/mudra/internal/landmark"
)

// run is the control loop goroutine. One iteration per tick; a tick that
// overruns swallows the tick it shadowed instead of letting ticks queue,
// so a slow actuator degrades to a lower rate rather than falling behind
// the hand.
func (s *Session) run(stopCh, done chan struct{}) {
	defer close(done)
	defer s.releaseButton()

	ticker := time.NewTicker(s.opts.Tick)
	defer ticker.Stop()

	for {
		select {
		case <-stopCh:
			return
		case <-ticker.C:
			start := time.Now()
			s.step()
			if time.Since(start) >= s.opts.Tick {
				select {
				case <-ticker.C:
					s.mu.Lock()
					s.stats.overruns++
					s.mu.Unlock()
				default:
				}
			}
		}
	}
}

// step runs one tick: frame, classify, move, repair the button, dispatch
// events, publish the update.
func (s *Session) step() {
	cfg := s.cfg.Load()

	frame, err := s.source.Next(s.opts.FrameTimeout)
	if err != nil {
		frame = nil
		if errors.Is(err, capture.ErrClosed) && !s.srcClosed {
			s.srcClosed = true
			log.Printf("control: frame source closed, coasting until stop: %v", err)
		}
	} else if frame.Validate() != nil || frame.Score < cfg.Gesture.MinScore {
		// Fail closed: a frame the classifier would reject must not
		// reach the filter either.
		frame = nil
	}

	prev := s.classifier.State()
	st, events := s.classifier.Step(frame)

	// Entering a move state re-anchors the filter so the cursor picks up
	// from where it is instead of snapping toward the hand. This covers
	// re-acquisition after loss and the index-to-pinky handoff when a
	// pinch starts.
	if st.Moves() && !prev.Moves() {
		s.filter.Reset()
	}

	pos := s.filter.Position()
	if st.Moves() && frame != nil {
		track := cfg.TrackPoint
		if st.Pinching() {
			track = landmark.PinkyTip
		}
		pos = s.filter.Update(frame.Points[track].Vec2(), s.opts.Tick, cfg)
		if err := s.act.MoveTo(pos.X(), pos.Y()); err != nil {
			s.actFailed("move", err)
		}
	}

	// Button safety: the left button is physically held exactly while the
	// classifier is in the holding state. Loss timeouts and stops emit no
	// release event, so the repair happens here, where the hardware is.
	s.repairButton(st == gesture.PinchHolding)

	for _, ev := range events {
		s.dispatch(cfg, ev)
	}

	up := Update{
		State:    st.String(),
		Events:   eventNames(events),
		X:        pos.X(),
		Y:        pos.Y(),
		Dragging: st == gesture.PinchHolding,
	}

	s.mu.Lock()
	s.stats.ticks++
	if frame != nil {
		s.stats.frames++
	} else {
		s.stats.missed++
	}
	s.stats.events += uint64(len(events))
	up.Tick = s.stats.ticks
	s.last = up
	s.mu.Unlock()

	if s.opts.OnUpdate != nil {
		s.opts.OnUpdate(up)
	}
}

// repairButton converges the physical button on the wanted state. On
// actuation failure the flag is left alone so the next tick retries.
func (s *Session) repairButton(want bool) {
	if want == s.buttonHeld {
		return
	}
	var err error
	if want {
		err = s.act.MouseDown(actuator.ButtonLeft)
	} else {
		err = s.act.MouseUp(actuator.ButtonLeft)
	}
	if err != nil {
		s.actFailed("button", err)
		return
	}
	s.buttonHeld = want
}

// releaseButton is the loop's exit safety net: whatever state the
// classifier was in, no button survives the session.
func (s *Session) releaseButton() {
	if !s.buttonHeld {
		return
	}
	if err := s.act.MouseUp(actuator.ButtonLeft); err != nil {
		log.Printf("control: releasing button on stop: %v", err)
	}
	s.buttonHeld = false
}

// dispatch runs the bound action for one event. Rate limiters bound how
// fast clicks and scrolls can fire no matter what the classifier emits.
func (s *Session) dispatch(cfg *cursor.Config, ev gesture.Event) {
	// Drag events have no binding: the held button is structural and
	// repairButton already owns it.
	if ev.Kind == gesture.EventDragStart || ev.Kind == gesture.EventDragEnd {
		return
	}

	b, ok := cfg.Bindings[ev.Kind]
	if !ok || b.Action == cursor.ActionNone {
		return
	}

	switch b.Action {
	case cursor.ActionLeftClick, cursor.ActionRightClick, cursor.ActionDoubleClick:
		if !s.clickLim.Allow() {
			return
		}
		btn := actuator.ButtonLeft
		if b.Action == cursor.ActionRightClick {
			btn = actuator.ButtonRight
		}
		n := 1
		if b.Action == cursor.ActionDoubleClick {
			n = 2
		}
		for i := 0; i < n; i++ {
			if err := s.act.MouseDown(btn); err != nil {
				s.actFailed("click", err)
				return
			}
			if err := s.act.MouseUp(btn); err != nil {
				s.actFailed("click", err)
				return
			}
		}

	case cursor.ActionScrollUp, cursor.ActionScrollDown:
		if !s.scrollLim.Allow() {
			return
		}
		lines := scrollLines
		if b.Action == cursor.ActionScrollDown {
			lines = -scrollLines
		}
		if err := s.act.ScrollBy(0, lines); err != nil {
			s.actFailed("scroll", err)
		}

	case cursor.ActionKeyPress:
		if s.opts.Keys == nil || !s.clickLim.Allow() {
			return
		}
		if err := s.opts.Keys.KeyTap(b.Key); err != nil {
			log.Printf("control: key press %q failed: %v", b.Key, err)
		}
	}
}

// actFailed counts and logs a non-fatal actuation error. The loop keeps
// running; a cursor that stalls for one tick beats one that dies.
func (s *Session) actFailed(op string, err error) {
	s.mu.Lock()
	s.stats.actuationErrs++
	s.mu.Unlock()
	log.Printf("control: %s failed: %v", op, err)
}

func eventNames(events []gesture.Event) []string {
	if len(events) == 0 {
		return nil
	}
	names := make([]string, len(events))
	for i, ev := range events {
		names[i] = ev.Kind.String()
	}
	return names
}
