package actuator

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/ayusman/mudra/internal/sidecar"
)

const serviceScript = "pointer_service.py"

// Service implements Actuator using a Python pointer-injection subprocess.
// Requests and responses are single JSON lines; one round trip per call.
type Service struct {
	mu      sync.Mutex
	proc    *sidecar.Process
	started bool
}

// NewService creates a new pointer service client. The Python process is
// started lazily on the first call.
func NewService() (*Service, error) {
	if sidecar.LookupScript(serviceScript) == "" {
		return nil, fmt.Errorf("%s not found", serviceScript)
	}
	return &Service{}, nil
}

type request struct {
	Op     string  `json:"op"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Button string  `json:"button,omitempty"`
	DX     int     `json:"dx"`
	DY     int     `json:"dy"`
}

type response struct {
	OK     bool   `json:"ok"`
	Error  string `json:"error,omitempty"`
	Width  int    `json:"w,omitempty"`
	Height int    `json:"h,omitempty"`
}

func (s *Service) ensureStarted() error {
	if s.started {
		return nil
	}
	proc, err := sidecar.Start(serviceScript)
	if err != nil {
		return err
	}
	s.proc = proc
	s.started = true
	return nil
}

// roundTrip sends one request and decodes the reply. Injection failures
// reported by the helper come back wrapped in ErrActuation.
func (s *Service) roundTrip(req request) (response, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureStarted(); err != nil {
		return response{}, fmt.Errorf("%w: %v", ErrActuation, err)
	}

	data, err := json.Marshal(req)
	if err != nil {
		return response{}, fmt.Errorf("marshal request: %w", err)
	}
	if err := s.proc.WriteLine(data); err != nil {
		s.shutdown()
		return response{}, fmt.Errorf("%w: %v", ErrActuation, err)
	}

	line, err := s.proc.ReadLine()
	if err != nil {
		s.shutdown()
		return response{}, fmt.Errorf("%w: %v", ErrActuation, err)
	}

	var resp response
	if err := json.Unmarshal([]byte(line), &resp); err != nil {
		return response{}, fmt.Errorf("parse response: %w", err)
	}
	if !resp.OK {
		return response{}, fmt.Errorf("%w: %s", ErrActuation, resp.Error)
	}
	return resp, nil
}

// MoveTo places the pointer at absolute screen coordinates.
func (s *Service) MoveTo(x, y float64) error {
	_, err := s.roundTrip(request{Op: "move", X: x, Y: y})
	return err
}

// MouseDown presses a button.
func (s *Service) MouseDown(b Button) error {
	_, err := s.roundTrip(request{Op: "down", Button: string(b)})
	return err
}

// MouseUp releases a button.
func (s *Service) MouseUp(b Button) error {
	_, err := s.roundTrip(request{Op: "up", Button: string(b)})
	return err
}

// ScrollBy scrolls by whole lines.
func (s *Service) ScrollBy(dx, dy int) error {
	_, err := s.roundTrip(request{Op: "scroll", DX: dx, DY: dy})
	return err
}

// Screen queries the helper for the primary display size in pixels.
func (s *Service) Screen() (w, h int, err error) {
	resp, err := s.roundTrip(request{Op: "screen"})
	if err != nil {
		return 0, 0, err
	}
	if resp.Width <= 0 || resp.Height <= 0 {
		return 0, 0, fmt.Errorf("%w: bad screen size %dx%d", ErrActuation, resp.Width, resp.Height)
	}
	return resp.Width, resp.Height, nil
}

// Close shuts down the Python process.
func (s *Service) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.shutdown()
}

func (s *Service) shutdown() error {
	if !s.started {
		return nil
	}
	err := s.proc.Stop()
	s.proc = nil
	s.started = false
	return err
}
