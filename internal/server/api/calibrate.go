package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ayusman/mudra/internal/calib"
	"github.com/ayusman/mudra/internal/control"
	"github.com/ayusman/mudra/internal/cursor"
	"github.com/ayusman/mudra/internal/store"
)

// DefaultBudget caps how many tunings one interactive calibration asks the
// user to sit through. The full grid is 36.
const DefaultBudget = 8

// Calibration bridge errors.
var (
	ErrCalibrationRunning = errors.New("calibration already running")
	ErrNoPendingTrial     = errors.New("no trial awaiting outcomes")
)

// Calibrator runs at most one calibration search at a time and bridges it
// to HTTP clients. The search blocks inside its oracle while the training
// UI fetches the pending tuning, has the user chase targets under it, and
// posts the measured outcomes back.
//
// While a run is active it owns the session's config slot: each trial's
// tuning is applied live. On exit the winning tuning is applied and
// persisted (the original is restored when nothing usable completed) and
// the session is stopped, which releases any held button.
type Calibrator struct {
	session *control.Session
	store   *store.Store // optional, nil skips persistence

	mu  sync.Mutex
	run *calibRun // latest run, nil before the first
}

// NewCalibrator creates a Calibrator over the given session and store.
func NewCalibrator(s *control.Session, st *store.Store) *Calibrator {
	return &Calibrator{session: s, store: st}
}

// PendingTrial is the tuning the search is waiting on outcomes for.
type PendingTrial struct {
	Seq         int     `json:"seq"`
	Sensitivity float64 `json:"sensitivity"`
	Smoothing   float64 `json:"smoothing"`
}

// Progress is a snapshot of a calibration run.
type Progress struct {
	ID        string        `json:"id"`
	Running   bool          `json:"running"`
	Budget    int           `json:"budget"`
	Completed int           `json:"completed"`
	Pending   *PendingTrial `json:"pending,omitempty"`
	Result    *calib.Result `json:"result,omitempty"`
	Error     string        `json:"error,omitempty"`
}

type calibRun struct {
	id      string
	started time.Time
	budget  int
	session *control.Session
	cancel  context.CancelFunc

	outcomes chan []calib.Outcome
	done     chan struct{}

	mu      sync.Mutex
	seq     int
	current *PendingTrial
	result  *calib.Result
	err     error
}

// RunTrial implements calib.Oracle. It applies the candidate tuning to the
// live session, publishes it as the pending trial, and blocks until
// outcomes arrive or the run is cancelled.
func (r *calibRun) RunTrial(ctx context.Context, cfg cursor.Config) ([]calib.Outcome, error) {
	if r.session != nil {
		if err := r.session.SetConfig(cfg); err != nil {
			return nil, err
		}
	}

	r.mu.Lock()
	r.current = &PendingTrial{Seq: r.seq, Sensitivity: cfg.Sensitivity, Smoothing: cfg.Smoothing}
	r.mu.Unlock()

	select {
	case outcomes := <-r.outcomes:
		r.mu.Lock()
		r.current = nil
		r.seq++
		r.mu.Unlock()
		return outcomes, nil
	case <-ctx.Done():
		r.mu.Lock()
		r.current = nil
		r.mu.Unlock()
		return nil, ctx.Err()
	}
}

func (r *calibRun) finished() bool {
	select {
	case <-r.done:
		return true
	default:
		return false
	}
}

func (r *calibRun) progress() Progress {
	r.mu.Lock()
	defer r.mu.Unlock()

	p := Progress{
		ID:        r.id,
		Running:   !r.finished(),
		Budget:    r.budget,
		Completed: r.seq,
		Pending:   r.current,
		Result:    r.result,
	}
	if r.err != nil {
		p.Error = r.err.Error()
	}
	return p
}

// Start launches a search from the session's current tuning. A budget of
// zero or less means DefaultBudget.
func (c *Calibrator) Start(budget int) (Progress, error) {
	if budget <= 0 {
		budget = DefaultBudget
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.run != nil && !c.run.finished() {
		return Progress{}, ErrCalibrationRunning
	}

	base := cursor.DefaultConfig()
	if c.session != nil {
		base = c.session.Config()
	}

	ctx, cancel := context.WithCancel(context.Background())
	run := &calibRun{
		id:       uuid.New().String(),
		started:  time.Now(),
		budget:   budget,
		session:  c.session,
		cancel:   cancel,
		outcomes: make(chan []calib.Outcome),
		done:     make(chan struct{}),
	}
	c.run = run

	go c.search(ctx, run, base)

	return run.progress(), nil
}

// search drives calib.Search to completion, then settles the session and
// records the run. done closes only after both, so Progress never reports
// a finished run whose side effects are still in flight.
func (c *Calibrator) search(ctx context.Context, run *calibRun, base cursor.Config) {
	defer close(run.done)
	defer run.cancel()

	res, err := calib.Search(ctx, run, base, calib.Params{
		Budget: run.budget,
		Start:  calib.DefaultGrid().Locate(base.Sensitivity, base.Smoothing),
	})
	if err != nil {
		log.Printf("calibration %s: %v", run.id, err)
	}

	run.mu.Lock()
	run.result = res
	run.err = err
	run.mu.Unlock()

	c.settle(run, res, err, base)
	c.persist(run, res)
}

// settle applies the winning tuning, or restores the original when the run
// produced nothing usable, and leaves the session stopped.
func (c *Calibrator) settle(run *calibRun, res *calib.Result, err error, base cursor.Config) {
	if run.session == nil {
		return
	}
	defer run.session.Stop()

	won := err == nil && res != nil && res.Best != nil

	cfg := base
	if won {
		cfg = base.Clone()
		cfg.Sensitivity = res.Best.Sensitivity
		cfg.Smoothing = res.Best.Smoothing
	}

	if serr := run.session.SetConfig(cfg); serr != nil {
		log.Printf("calibration %s: failed to apply final config: %v", run.id, serr)
		return
	}

	if won && c.store != nil {
		if serr := c.store.Settings().SaveConfig(cfg); serr != nil {
			log.Printf("calibration %s: failed to persist config: %v", run.id, serr)
		}
	}
}

// persist records the run and its trials in calibration history.
func (c *Calibrator) persist(run *calibRun, res *calib.Result) {
	if c.store == nil || res == nil {
		return
	}

	sess := &store.CalibrationSession{
		ID:         run.id,
		StartedAt:  run.started,
		FinishedAt: time.Now(),
		Budget:     run.budget,
		Trials:     len(res.Trials),
		Reason:     res.Reason,
		MeanCost:   res.MeanCost,
		StddevCost: res.StddevCost,
	}
	if res.Best != nil {
		sess.BestSensitivity = res.Best.Sensitivity
		sess.BestSmoothing = res.Best.Smoothing
		sess.BestCost = res.Best.Cost
	}

	if err := c.store.Calibrations().Create(sess); err != nil {
		log.Printf("calibration %s: failed to record session: %v", run.id, err)
		return
	}

	for i, trial := range res.Trials {
		outcomes, err := json.Marshal(trial.Outcomes)
		if err != nil {
			outcomes = []byte("[]")
		}
		t := &store.CalibrationTrial{
			ID:          trial.ID,
			SessionID:   run.id,
			Seq:         i,
			Sensitivity: trial.Sensitivity,
			Smoothing:   trial.Smoothing,
			Cost:        trial.Cost,
			Outcomes:    string(outcomes),
		}
		if err := c.store.Calibrations().AddTrial(t); err != nil {
			log.Printf("calibration %s: failed to record trial %d: %v", run.id, i, err)
		}
	}

	if err := c.store.Calibrations().Finish(sess); err != nil {
		log.Printf("calibration %s: failed to close session record: %v", run.id, err)
	}
}

// Cancel stops the active run and blocks until it has settled. It reports
// whether there was a run to cancel.
func (c *Calibrator) Cancel() bool {
	c.mu.Lock()
	run := c.run
	c.mu.Unlock()

	if run == nil || run.finished() {
		return false
	}

	run.cancel()
	<-run.done
	return true
}

// Submit delivers one trial's outcomes to the search. At least one outcome
// is required; a trial nobody measured cannot be scored.
func (c *Calibrator) Submit(outcomes []calib.Outcome) error {
	if len(outcomes) == 0 {
		return errors.New("at least one outcome is required")
	}

	c.mu.Lock()
	run := c.run
	c.mu.Unlock()

	if run == nil || run.finished() {
		return ErrNoPendingTrial
	}

	run.mu.Lock()
	pending := run.current != nil
	run.mu.Unlock()
	if !pending {
		return ErrNoPendingTrial
	}

	select {
	case run.outcomes <- outcomes:
		return nil
	case <-run.done:
		return ErrNoPendingTrial
	}
}

// Progress returns the latest run's snapshot; ok is false when no run has
// ever started.
func (c *Calibrator) Progress() (Progress, bool) {
	c.mu.Lock()
	run := c.run
	c.mu.Unlock()

	if run == nil {
		return Progress{}, false
	}
	return run.progress(), true
}

// CalibrationHandler handles HTTP requests for calibration runs and their
// history.
type CalibrationHandler struct {
	calibrator *Calibrator
	store      *store.Store // optional, history endpoints need it
}

// NewCalibrationHandler creates a new CalibrationHandler.
func NewCalibrationHandler(c *Calibrator, st *store.Store) *CalibrationHandler {
	return &CalibrationHandler{calibrator: c, store: st}
}

// ServeHTTP implements the http.Handler interface and routes requests to
// appropriate methods. Expected paths:
//
//	/api/calibration                start, progress, cancel
//	/api/calibration/trial          the tuning awaiting outcomes
//	/api/calibration/outcome        outcome submission
//	/api/calibration/sessions       history
//	/api/calibration/sessions/{id}  one recorded run
func (h *CalibrationHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/calibration")
	path = strings.TrimPrefix(path, "/")

	switch {
	case path == "":
		switch r.Method {
		case http.MethodGet:
			h.progress(w, r)
		case http.MethodPost:
			h.start(w, r)
		case http.MethodDelete:
			h.cancel(w, r)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	case path == "trial":
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		h.trial(w, r)
	case path == "outcome":
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		h.outcome(w, r)
	case path == "sessions":
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		h.listSessions(w, r)
	case strings.HasPrefix(path, "sessions/"):
		id := strings.TrimPrefix(path, "sessions/")
		switch r.Method {
		case http.MethodGet:
			h.getSession(w, r, id)
		case http.MethodDelete:
			h.deleteSession(w, r, id)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	default:
		http.NotFound(w, r)
	}
}

// Request and response types

type startCalibrationRequest struct {
	Budget int `json:"budget"`
}

type outcomePayload struct {
	Target     int   `json:"target"`
	DurationMs int64 `json:"duration_ms"`
	Misses     int   `json:"misses"`
}

type outcomeRequest struct {
	Outcomes []outcomePayload `json:"outcomes"`
}

type sessionResponse struct {
	ID              string  `json:"id"`
	StartedAt       string  `json:"started_at"`
	FinishedAt      string  `json:"finished_at,omitempty"`
	Budget          int     `json:"budget"`
	Trials          int     `json:"trials"`
	Reason          string  `json:"reason"`
	BestSensitivity float64 `json:"best_sensitivity"`
	BestSmoothing   float64 `json:"best_smoothing"`
	BestCost        float64 `json:"best_cost"`
	MeanCost        float64 `json:"mean_cost"`
	StddevCost      float64 `json:"stddev_cost"`
}

type listSessionsResponse struct {
	Sessions []sessionResponse `json:"sessions"`
}

type trialResponse struct {
	ID          string          `json:"id"`
	Seq         int             `json:"seq"`
	Sensitivity float64         `json:"sensitivity"`
	Smoothing   float64         `json:"smoothing"`
	Cost        float64         `json:"cost"`
	Outcomes    json.RawMessage `json:"outcomes"`
	CreatedAt   string          `json:"created_at"`
}

type sessionDetailResponse struct {
	Session sessionResponse `json:"session"`
	Trials  []trialResponse `json:"trials"`
}

// toSessionResponse converts a store.CalibrationSession to its DTO.
func toSessionResponse(s *store.CalibrationSession) sessionResponse {
	resp := sessionResponse{
		ID:              s.ID,
		StartedAt:       s.StartedAt.Format("2006-01-02T15:04:05Z07:00"),
		Budget:          s.Budget,
		Trials:          s.Trials,
		Reason:          s.Reason,
		BestSensitivity: s.BestSensitivity,
		BestSmoothing:   s.BestSmoothing,
		BestCost:        s.BestCost,
		MeanCost:        s.MeanCost,
		StddevCost:      s.StddevCost,
	}
	if s.Finished() {
		resp.FinishedAt = s.FinishedAt.Format("2006-01-02T15:04:05Z07:00")
	}
	return resp
}

// start handles POST /api/calibration and launches a run. An empty body
// means default parameters.
func (h *CalibrationHandler) start(w http.ResponseWriter, r *http.Request) {
	var req startCalibrationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	prog, err := h.calibrator.Start(req.Budget)
	if err != nil {
		if errors.Is(err, ErrCalibrationRunning) {
			writeError(w, http.StatusConflict, "Calibration already running")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to start calibration")
		return
	}

	writeJSON(w, http.StatusCreated, prog)
}

// progress handles GET /api/calibration.
func (h *CalibrationHandler) progress(w http.ResponseWriter, r *http.Request) {
	prog, ok := h.calibrator.Progress()
	if !ok {
		writeError(w, http.StatusNotFound, "No calibration has run")
		return
	}

	writeJSON(w, http.StatusOK, prog)
}

// cancel handles DELETE /api/calibration.
func (h *CalibrationHandler) cancel(w http.ResponseWriter, r *http.Request) {
	if !h.calibrator.Cancel() {
		writeError(w, http.StatusNotFound, "No active calibration")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// trial handles GET /api/calibration/trial and returns the tuning the
// search is waiting on.
func (h *CalibrationHandler) trial(w http.ResponseWriter, r *http.Request) {
	prog, ok := h.calibrator.Progress()
	if !ok || prog.Pending == nil {
		writeError(w, http.StatusNotFound, "No trial awaiting outcomes")
		return
	}

	writeJSON(w, http.StatusOK, prog.Pending)
}

// outcome handles POST /api/calibration/outcome and scores the pending
// trial.
func (h *CalibrationHandler) outcome(w http.ResponseWriter, r *http.Request) {
	var req outcomeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	if len(req.Outcomes) == 0 {
		writeError(w, http.StatusBadRequest, "At least one outcome is required")
		return
	}

	outcomes := make([]calib.Outcome, 0, len(req.Outcomes))
	for _, o := range req.Outcomes {
		if o.DurationMs < 0 || o.Misses < 0 {
			writeError(w, http.StatusBadRequest, "Outcome durations and misses must be non-negative")
			return
		}
		outcomes = append(outcomes, calib.Outcome{
			Target:   o.Target,
			Duration: time.Duration(o.DurationMs) * time.Millisecond,
			Misses:   o.Misses,
		})
	}

	if err := h.calibrator.Submit(outcomes); err != nil {
		if errors.Is(err, ErrNoPendingTrial) {
			writeError(w, http.StatusConflict, "No trial awaiting outcomes")
			return
		}
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	prog, _ := h.calibrator.Progress()
	writeJSON(w, http.StatusOK, prog)
}

// listSessions handles GET /api/calibration/sessions.
func (h *CalibrationHandler) listSessions(w http.ResponseWriter, r *http.Request) {
	if h.store == nil {
		writeError(w, http.StatusNotFound, "Calibration history not available")
		return
	}

	limit := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "Invalid limit")
			return
		}
		limit = n
	}

	sessions, err := h.store.Calibrations().List(limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list calibration sessions")
		return
	}

	response := listSessionsResponse{
		Sessions: make([]sessionResponse, 0, len(sessions)),
	}
	for _, s := range sessions {
		response.Sessions = append(response.Sessions, toSessionResponse(s))
	}

	writeJSON(w, http.StatusOK, response)
}

// getSession handles GET /api/calibration/sessions/{id} and returns the
// run with its trials.
func (h *CalibrationHandler) getSession(w http.ResponseWriter, r *http.Request, id string) {
	if h.store == nil {
		writeError(w, http.StatusNotFound, "Calibration history not available")
		return
	}

	sess, err := h.store.Calibrations().GetByID(id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Calibration session not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to get calibration session")
		return
	}

	trials, err := h.store.Calibrations().Trials(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get calibration trials")
		return
	}

	detail := sessionDetailResponse{
		Session: toSessionResponse(sess),
		Trials:  make([]trialResponse, 0, len(trials)),
	}
	for _, t := range trials {
		detail.Trials = append(detail.Trials, trialResponse{
			ID:          t.ID,
			Seq:         t.Seq,
			Sensitivity: t.Sensitivity,
			Smoothing:   t.Smoothing,
			Cost:        t.Cost,
			Outcomes:    json.RawMessage(t.Outcomes),
			CreatedAt:   t.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
		})
	}

	writeJSON(w, http.StatusOK, detail)
}

// deleteSession handles DELETE /api/calibration/sessions/{id}.
func (h *CalibrationHandler) deleteSession(w http.ResponseWriter, r *http.Request, id string) {
	if h.store == nil {
		writeError(w, http.StatusNotFound, "Calibration history not available")
		return
	}

	if err := h.store.Calibrations().Delete(id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Calibration session not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to delete calibration session")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
