package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/ayusman/mudra/internal/calib"
)

// pendingTrial waits for the search to publish the trial with the given
// sequence number and returns its tuning.
func pendingTrial(t *testing.T, c *Calibrator, seq int) PendingTrial {
	t.Helper()
	var out PendingTrial
	waitFor(t, "pending trial", func() bool {
		p, ok := c.Progress()
		if !ok || p.Pending == nil || p.Pending.Seq != seq {
			return false
		}
		out = *p.Pending
		return true
	})
	return out
}

// scoreTrial delivers a single outcome with the given duration to the
// pending trial.
func scoreTrial(t *testing.T, c *Calibrator, d time.Duration) {
	t.Helper()
	if err := c.Submit([]calib.Outcome{{Target: 0, Duration: d}}); err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
}

// waitFinished waits for the run to settle and returns its final snapshot.
func waitFinished(t *testing.T, c *Calibrator) Progress {
	t.Helper()
	var out Progress
	waitFor(t, "calibration to finish", func() bool {
		p, ok := c.Progress()
		if !ok || p.Running {
			return false
		}
		out = p
		return true
	})
	return out
}

func TestCalibrator_RunsToBudget(t *testing.T) {
	st := newTestStore(t)
	c := NewCalibrator(nil, st)

	prog, err := c.Start(3)
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if prog.Budget != 3 {
		t.Errorf("Budget = %d, want 3", prog.Budget)
	}
	if !prog.Running {
		t.Error("expected a freshly started run to be running")
	}
	if prog.ID == "" {
		t.Error("expected a run ID")
	}

	for i := 0; i < 3; i++ {
		pendingTrial(t, c, i)
		scoreTrial(t, c, time.Second)
	}

	final := waitFinished(t, c)
	if final.Error != "" {
		t.Fatalf("run failed: %s", final.Error)
	}
	if final.Completed != 3 {
		t.Errorf("Completed = %d, want 3", final.Completed)
	}
	if final.Result == nil {
		t.Fatal("expected a result")
	}
	if final.Result.Reason != calib.ReasonBudgetExhausted {
		t.Errorf("Reason = %q, want %q", final.Result.Reason, calib.ReasonBudgetExhausted)
	}
	if len(final.Result.Trials) != 3 {
		t.Errorf("got %d trials, want 3", len(final.Result.Trials))
	}
	if final.Result.Best == nil {
		t.Fatal("expected a best trial")
	}
	if final.Result.Best.Cost != 1.0 {
		t.Errorf("Best.Cost = %v, want 1.0", final.Result.Best.Cost)
	}
	if final.Result.MeanCost != 1.0 {
		t.Errorf("MeanCost = %v, want 1.0", final.Result.MeanCost)
	}

	// The run is in history by the time it reports finished.
	sessions, err := st.Calibrations().List(10)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(sessions) != 1 {
		t.Fatalf("got %d recorded sessions, want 1", len(sessions))
	}
	if sessions[0].ID != final.ID {
		t.Errorf("recorded ID = %q, want %q", sessions[0].ID, final.ID)
	}
	if sessions[0].Trials != 3 {
		t.Errorf("recorded trials = %d, want 3", sessions[0].Trials)
	}
	if sessions[0].Reason != calib.ReasonBudgetExhausted {
		t.Errorf("recorded reason = %q", sessions[0].Reason)
	}
	if !sessions[0].Finished() {
		t.Error("recorded session should be finished")
	}

	trials, err := st.Calibrations().Trials(final.ID)
	if err != nil {
		t.Fatalf("Trials() error = %v", err)
	}
	if len(trials) != 3 {
		t.Errorf("got %d recorded trials, want 3", len(trials))
	}
}

func TestCalibrator_BestTuningApplied(t *testing.T) {
	session := newTestSession(t)
	st := newTestStore(t)
	c := NewCalibrator(session, st)

	if _, err := c.Start(3); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	// Make the second trial far cheaper than the others.
	var tunings []PendingTrial
	for i := 0; i < 3; i++ {
		tunings = append(tunings, pendingTrial(t, c, i))
		d := 2 * time.Second
		if i == 1 {
			d = 50 * time.Millisecond
		}
		scoreTrial(t, c, d)
	}

	final := waitFinished(t, c)
	if final.Result == nil || final.Result.Best == nil {
		t.Fatal("expected a best trial")
	}
	want := tunings[1]
	best := final.Result.Best
	if best.Sensitivity != want.Sensitivity || best.Smoothing != want.Smoothing {
		t.Errorf("best tuning = %v/%v, want %v/%v",
			best.Sensitivity, best.Smoothing, want.Sensitivity, want.Smoothing)
	}

	// The winner is live on the session, the rest of the config untouched.
	cfg := session.Config()
	if cfg.Sensitivity != want.Sensitivity || cfg.Smoothing != want.Smoothing {
		t.Errorf("session tuning = %v/%v, want %v/%v",
			cfg.Sensitivity, cfg.Smoothing, want.Sensitivity, want.Smoothing)
	}
	if cfg.ScreenW != 1000 {
		t.Errorf("ScreenW = %d, want 1000", cfg.ScreenW)
	}
	if session.Running() {
		t.Error("session should be left stopped")
	}

	// And persisted for the next launch.
	saved, err := st.Settings().LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if saved.Sensitivity != want.Sensitivity || saved.Smoothing != want.Smoothing {
		t.Errorf("saved tuning = %v/%v, want %v/%v",
			saved.Sensitivity, saved.Smoothing, want.Sensitivity, want.Smoothing)
	}
}

func TestCalibrator_CancelRestoresConfig(t *testing.T) {
	session := newTestSession(t)
	before := session.Config()
	c := NewCalibrator(session, nil)

	if _, err := c.Start(0); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	// While a trial is pending its tuning is live on the session.
	pending := pendingTrial(t, c, 0)
	live := session.Config()
	if live.Sensitivity != pending.Sensitivity || live.Smoothing != pending.Smoothing {
		t.Errorf("trial tuning not applied: session has %v/%v, pending is %v/%v",
			live.Sensitivity, live.Smoothing, pending.Sensitivity, pending.Smoothing)
	}

	if !c.Cancel() {
		t.Fatal("Cancel() = false, want true for an active run")
	}

	final, ok := c.Progress()
	if !ok {
		t.Fatal("expected progress after a run")
	}
	if final.Running {
		t.Error("cancelled run still reports running")
	}
	if final.Error != "" {
		t.Errorf("cancellation is not an error, got %q", final.Error)
	}
	if final.Result == nil || final.Result.Reason != calib.ReasonCancelled {
		t.Fatalf("Result = %+v, want reason %q", final.Result, calib.ReasonCancelled)
	}
	if final.Result.Best != nil {
		t.Error("no trial completed, there should be no best")
	}
	if final.Completed != 0 {
		t.Errorf("Completed = %d, want 0", final.Completed)
	}

	// Nothing won, so the original tuning is back and the session stopped.
	after := session.Config()
	if after.Sensitivity != before.Sensitivity || after.Smoothing != before.Smoothing {
		t.Errorf("config not restored: %v/%v, want %v/%v",
			after.Sensitivity, after.Smoothing, before.Sensitivity, before.Smoothing)
	}
	if session.Running() {
		t.Error("session should be left stopped")
	}

	if err := c.Submit([]calib.Outcome{{Duration: time.Second}}); !errors.Is(err, ErrNoPendingTrial) {
		t.Errorf("Submit() after cancel = %v, want ErrNoPendingTrial", err)
	}
}

func TestCalibrator_RejectsConcurrentRuns(t *testing.T) {
	c := NewCalibrator(nil, nil)

	if _, err := c.Start(2); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if _, err := c.Start(2); !errors.Is(err, ErrCalibrationRunning) {
		t.Errorf("second Start() = %v, want ErrCalibrationRunning", err)
	}

	if !c.Cancel() {
		t.Fatal("Cancel() = false, want true")
	}

	// A settled run no longer blocks new ones.
	if _, err := c.Start(1); err != nil {
		t.Fatalf("Start() after cancel error = %v", err)
	}
	pendingTrial(t, c, 0)
	scoreTrial(t, c, time.Second)
	final := waitFinished(t, c)
	if final.Result == nil || final.Result.Reason != calib.ReasonBudgetExhausted {
		t.Fatalf("Result = %+v, want reason %q", final.Result, calib.ReasonBudgetExhausted)
	}
}

func TestCalibrator_SubmitValidation(t *testing.T) {
	c := NewCalibrator(nil, nil)

	if err := c.Submit(nil); err == nil || !strings.Contains(err.Error(), "at least one outcome") {
		t.Errorf("Submit(nil) = %v, want outcome requirement error", err)
	}
	if err := c.Submit([]calib.Outcome{{Duration: time.Second}}); !errors.Is(err, ErrNoPendingTrial) {
		t.Errorf("Submit() before any run = %v, want ErrNoPendingTrial", err)
	}
}

// calibRequest runs one request through the handler.
func calibRequest(h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestCalibrationHandler_Workflow(t *testing.T) {
	session := newTestSession(t)
	st := newTestStore(t)
	calibrator := NewCalibrator(session, st)
	handler := NewCalibrationHandler(calibrator, st)

	rec := calibRequest(handler, http.MethodPost, "/api/calibration", `{"budget": 2}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("start status = %d, body %s", rec.Code, rec.Body.String())
	}
	var started Progress
	if err := json.NewDecoder(rec.Body).Decode(&started); err != nil {
		t.Fatalf("decode start response: %v", err)
	}
	if started.Budget != 2 || started.ID == "" {
		t.Errorf("started = %+v, want budget 2 and an ID", started)
	}

	// Starting again while running conflicts.
	rec = calibRequest(handler, http.MethodPost, "/api/calibration", "")
	if rec.Code != http.StatusConflict {
		t.Errorf("duplicate start status = %d, want 409", rec.Code)
	}

	// Chase targets under each tuning and post what happened. The first
	// trial comes back much better than the second.
	outcomes := []string{
		`{"outcomes": [{"target": 0, "duration_ms": 400, "misses": 0}]}`,
		`{"outcomes": [{"target": 0, "duration_ms": 900, "misses": 1}]}`,
	}
	var tunings []PendingTrial
	for i, body := range outcomes {
		var pending PendingTrial
		waitFor(t, "pending trial", func() bool {
			r := calibRequest(handler, http.MethodGet, "/api/calibration/trial", "")
			if r.Code != http.StatusOK {
				return false
			}
			if err := json.NewDecoder(r.Body).Decode(&pending); err != nil {
				return false
			}
			return pending.Seq == i
		})
		tunings = append(tunings, pending)

		rec = calibRequest(handler, http.MethodPost, "/api/calibration/outcome", body)
		if rec.Code != http.StatusOK {
			t.Fatalf("outcome %d status = %d, body %s", i, rec.Code, rec.Body.String())
		}
	}

	// The run settles asynchronously after the last outcome.
	var final Progress
	waitFor(t, "calibration to finish", func() bool {
		r := calibRequest(handler, http.MethodGet, "/api/calibration", "")
		if r.Code != http.StatusOK {
			return false
		}
		if err := json.NewDecoder(r.Body).Decode(&final); err != nil {
			return false
		}
		return !final.Running
	})
	if final.Result == nil || final.Result.Best == nil {
		t.Fatalf("final = %+v, want a result with a best trial", final)
	}
	if final.Result.Reason != calib.ReasonBudgetExhausted {
		t.Errorf("reason = %q, want %q", final.Result.Reason, calib.ReasonBudgetExhausted)
	}
	if final.Result.Best.Sensitivity != tunings[0].Sensitivity {
		t.Errorf("best sensitivity = %v, want the first trial's %v",
			final.Result.Best.Sensitivity, tunings[0].Sensitivity)
	}

	// History: the finished run and its trials are queryable.
	rec = calibRequest(handler, http.MethodGet, "/api/calibration/sessions", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("list status = %d", rec.Code)
	}
	var list listSessionsResponse
	if err := json.NewDecoder(rec.Body).Decode(&list); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(list.Sessions) != 1 {
		t.Fatalf("got %d sessions, want 1", len(list.Sessions))
	}
	got := list.Sessions[0]
	if got.ID != started.ID || got.Trials != 2 || got.FinishedAt == "" {
		t.Errorf("session = %+v, want ID %s with 2 finished trials", got, started.ID)
	}

	rec = calibRequest(handler, http.MethodGet, "/api/calibration/sessions/"+started.ID, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("detail status = %d", rec.Code)
	}
	var detail sessionDetailResponse
	if err := json.NewDecoder(rec.Body).Decode(&detail); err != nil {
		t.Fatalf("decode detail: %v", err)
	}
	if len(detail.Trials) != 2 {
		t.Fatalf("got %d trials, want 2", len(detail.Trials))
	}
	if detail.Trials[0].Cost >= detail.Trials[1].Cost {
		t.Errorf("trial costs = %v, %v, want the first cheaper",
			detail.Trials[0].Cost, detail.Trials[1].Cost)
	}
	var recorded []calib.Outcome
	if err := json.Unmarshal(detail.Trials[1].Outcomes, &recorded); err != nil {
		t.Fatalf("unmarshal recorded outcomes: %v", err)
	}
	if len(recorded) != 1 || recorded[0].Misses != 1 {
		t.Errorf("recorded outcomes = %+v, want one outcome with a miss", recorded)
	}

	rec = calibRequest(handler, http.MethodDelete, "/api/calibration/sessions/"+started.ID, "")
	if rec.Code != http.StatusNoContent {
		t.Errorf("delete status = %d, want 204", rec.Code)
	}
	rec = calibRequest(handler, http.MethodGet, "/api/calibration/sessions/"+started.ID, "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("get after delete status = %d, want 404", rec.Code)
	}
}

func TestCalibrationHandler_NoRun(t *testing.T) {
	handler := NewCalibrationHandler(NewCalibrator(nil, nil), nil)

	rec := calibRequest(handler, http.MethodGet, "/api/calibration", "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("progress status = %d, want 404", rec.Code)
	}

	rec = calibRequest(handler, http.MethodDelete, "/api/calibration", "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("cancel status = %d, want 404", rec.Code)
	}

	rec = calibRequest(handler, http.MethodGet, "/api/calibration/trial", "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("trial status = %d, want 404", rec.Code)
	}

	rec = calibRequest(handler, http.MethodPost, "/api/calibration/outcome",
		`{"outcomes": [{"target": 0, "duration_ms": 100, "misses": 0}]}`)
	if rec.Code != http.StatusConflict {
		t.Errorf("outcome status = %d, want 409", rec.Code)
	}

	// History needs a store.
	rec = calibRequest(handler, http.MethodGet, "/api/calibration/sessions", "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("sessions status = %d, want 404", rec.Code)
	}

	rec = calibRequest(handler, http.MethodPut, "/api/calibration", "")
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("PUT status = %d, want 405", rec.Code)
	}

	rec = calibRequest(handler, http.MethodGet, "/api/calibration/bogus", "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("unknown path status = %d, want 404", rec.Code)
	}
}

func TestCalibrationHandler_OutcomeValidation(t *testing.T) {
	calibrator := NewCalibrator(nil, nil)
	handler := NewCalibrationHandler(calibrator, nil)
	t.Cleanup(func() { calibrator.Cancel() })

	if _, err := calibrator.Start(1); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	pendingTrial(t, calibrator, 0)

	cases := []struct {
		name string
		body string
	}{
		{"invalid json", `not json`},
		{"no outcomes", `{"outcomes": []}`},
		{"negative duration", `{"outcomes": [{"target": 0, "duration_ms": -5, "misses": 0}]}`},
		{"negative misses", `{"outcomes": [{"target": 0, "duration_ms": 100, "misses": -1}]}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := calibRequest(handler, http.MethodPost, "/api/calibration/outcome", tc.body)
			if rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400, body %s", rec.Code, rec.Body.String())
			}
		})
	}

	// The trial is still pending after every rejected submission.
	prog, ok := calibrator.Progress()
	if !ok || prog.Pending == nil {
		t.Error("rejected outcomes should leave the trial pending")
	}
}

func TestCalibrationHandler_StartInvalidJSON(t *testing.T) {
	handler := NewCalibrationHandler(NewCalibrator(nil, nil), nil)

	rec := calibRequest(handler, http.MethodPost, "/api/calibration", `{"budget": `)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}
