package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ayusman/mudra/internal/control"
)

func TestSessionHandler_Status(t *testing.T) {
	handler := NewSessionHandler(newTestSession(t))

	req := httptest.NewRequest(http.MethodGet, "/api/session", nil)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
	}

	var status control.Status
	if err := json.NewDecoder(rec.Body).Decode(&status); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	if status.Running {
		t.Error("fresh session should not report running")
	}
	if status.Config.ScreenW != 1000 {
		t.Errorf("expected config in status, got screen width %d", status.Config.ScreenW)
	}
}

func TestSessionHandler_StartStop(t *testing.T) {
	session := newTestSession(t)
	handler := NewSessionHandler(session)

	req := httptest.NewRequest(http.MethodPost, "/api/session/start", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("start: expected status %d, got %d: %s", http.StatusOK, rec.Code, rec.Body.String())
	}

	var status control.Status
	if err := json.NewDecoder(rec.Body).Decode(&status); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if !status.Running {
		t.Error("expected running=true after start")
	}
	if !session.Running() {
		t.Error("session should be running after start")
	}

	// Starting again is a no-op, not an error.
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/session/start", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("second start: expected status %d, got %d", http.StatusOK, rec.Code)
	}

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/session/stop", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("stop: expected status %d, got %d", http.StatusOK, rec.Code)
	}
	if session.Running() {
		t.Error("session should be stopped after stop")
	}
}

func TestSessionHandler_MethodNotAllowed(t *testing.T) {
	handler := NewSessionHandler(newTestSession(t))

	cases := []struct {
		method string
		path   string
	}{
		{http.MethodDelete, "/api/session"},
		{http.MethodGet, "/api/session/start"},
		{http.MethodGet, "/api/session/stop"},
		{http.MethodPut, "/api/session"},
	}

	for _, tc := range cases {
		req := httptest.NewRequest(tc.method, tc.path, nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusMethodNotAllowed {
			t.Errorf("%s %s: expected status %d, got %d", tc.method, tc.path, http.StatusMethodNotAllowed, rec.Code)
		}
	}
}

func TestSessionHandler_UnknownPath(t *testing.T) {
	handler := NewSessionHandler(newTestSession(t))

	req := httptest.NewRequest(http.MethodPost, "/api/session/restart", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("expected status %d, got %d", http.StatusNotFound, rec.Code)
	}
}
