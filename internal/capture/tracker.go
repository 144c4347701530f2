package capture

import (
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/ayusman/mudra/internal/landmark"
	"github.com/ayusman/mudra/internal/sidecar"
)

const trackerScript = "hand_tracker.py"

// Tracker implements Source using a Python MediaPipe subprocess that owns
// the camera. The helper streams one JSON line per camera frame; frames
// with no visible hand produce no output here, so consumers see loss as
// a Next timeout.
type Tracker struct {
	camera int
	fps    int

	mu      sync.Mutex
	proc    *sidecar.Process
	started bool
	closed  bool

	frames chan *landmark.Frame
	done   chan struct{}
	seq    uint64
}

// NewTracker creates a tracker for the given camera device. The Python
// process is started lazily on the first call to Next.
func NewTracker(camera, fps int) (*Tracker, error) {
	if sidecar.LookupScript(trackerScript) == "" {
		return nil, fmt.Errorf("%s not found", trackerScript)
	}
	if fps <= 0 {
		fps = DefaultFPS
	}
	return &Tracker{
		camera: camera,
		fps:    fps,
		frames: make(chan *landmark.Frame, 1),
		done:   make(chan struct{}),
	}, nil
}

func (t *Tracker) ensureStarted() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return ErrClosed
	}
	if t.started {
		return nil
	}

	proc, err := sidecar.Start(trackerScript,
		fmt.Sprintf("--camera=%d", t.camera),
		fmt.Sprintf("--fps=%d", t.fps))
	if err != nil {
		return err
	}
	t.proc = proc
	t.started = true

	go t.readLoop(proc)
	return nil
}

// readLoop pumps helper output into the frame channel until the process
// exits. The channel holds a single frame: for cursor control a stale
// observation is worse than a dropped one, so the newest frame wins.
func (t *Tracker) readLoop(proc *sidecar.Process) {
	defer close(t.done)

	for {
		line, err := proc.ReadLine()
		if err != nil {
			// Helper exited, on purpose or not.
			close(t.frames)
			return
		}

		frame, err := decodeFrame(line)
		if err != nil {
			log.Printf("capture: dropping bad frame: %v", err)
			continue
		}
		if frame == nil {
			continue // no hand in view
		}

		t.seq++
		frame.Seq = t.seq
		frame.Timestamp = time.Now()

		select {
		case t.frames <- frame:
		default:
			select {
			case <-t.frames:
			default:
			}
			select {
			case t.frames <- frame:
			default:
			}
		}
	}
}

// Next blocks up to timeout for the next hand observation.
func (t *Tracker) Next(timeout time.Duration) (*landmark.Frame, error) {
	if err := t.ensureStarted(); err != nil {
		return nil, err
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case f, ok := <-t.frames:
		if !ok {
			return nil, ErrClosed
		}
		return f, nil
	case <-timer.C:
		return nil, ErrNoFrame
	}
}

// Close shuts down the Python process and releases the camera.
func (t *Tracker) Close() error {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return nil
	}
	t.closed = true
	started := t.started
	proc := t.proc
	t.proc = nil
	t.mu.Unlock()

	if !started {
		return nil
	}
	err := proc.Stop()
	<-t.done
	return err
}

// Wire format from the tracker helper, one line per camera frame:
// {"hands": [{"points": [...21 points...], "handedness": "Right", "score": 0.97}]}
type wireHand struct {
	Points     []wirePoint `json:"points"`
	Handedness string      `json:"handedness"`
	Score      float64     `json:"score"`
}

type wirePoint struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

type wireFrame struct {
	Hands []wireHand `json:"hands"`
}

// decodeFrame parses one helper line. A line with no hands decodes to
// (nil, nil). Control is single-handed: when the helper reports several
// hands the first one wins.
func decodeFrame(line string) (*landmark.Frame, error) {
	var wf wireFrame
	if err := json.Unmarshal([]byte(line), &wf); err != nil {
		return nil, fmt.Errorf("parse frame: %w", err)
	}
	if len(wf.Hands) == 0 {
		return nil, nil
	}

	hand := wf.Hands[0]
	if len(hand.Points) != landmark.NumLandmarks {
		return nil, fmt.Errorf("expected %d landmarks, got %d", landmark.NumLandmarks, len(hand.Points))
	}

	frame := &landmark.Frame{
		Handedness: hand.Handedness,
		Score:      hand.Score,
	}
	for i, p := range hand.Points {
		frame.Points[i] = landmark.Point{X: p.X, Y: p.Y, Z: p.Z}
	}
	return frame, nil
}
