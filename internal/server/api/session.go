package api

import (
	"net/http"
	"strings"

	"github.com/ayusman/mudra/internal/control"
)

// SessionHandler handles HTTP requests for the control session.
type SessionHandler struct {
	session *control.Session
}

// NewSessionHandler creates a new SessionHandler for the given session.
func NewSessionHandler(s *control.Session) *SessionHandler {
	return &SessionHandler{session: s}
}

// ServeHTTP implements the http.Handler interface and routes requests to
// appropriate methods. Expected paths: /api/session, /api/session/start,
// /api/session/stop.
func (h *SessionHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/session")
	path = strings.TrimPrefix(path, "/")

	switch path {
	case "":
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		h.status(w, r)
	case "start":
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		h.start(w, r)
	case "stop":
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		h.stop(w, r)
	default:
		http.NotFound(w, r)
	}
}

// status handles GET /api/session and returns a session snapshot.
func (h *SessionHandler) status(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.session.Status())
}

// start handles POST /api/session/start. Starting a running session is
// not an error; the response reflects the session either way.
func (h *SessionHandler) start(w http.ResponseWriter, r *http.Request) {
	if err := h.session.Start(); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to start session: "+err.Error())
		return
	}

	writeJSON(w, http.StatusOK, h.session.Status())
}

// stop handles POST /api/session/stop. Stopping a stopped session is a
// no-op.
func (h *SessionHandler) stop(w http.ResponseWriter, r *http.Request) {
	h.session.Stop()

	writeJSON(w, http.StatusOK, h.session.Status())
}
