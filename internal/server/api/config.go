package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/ayusman/mudra/internal/control"
	"github.com/ayusman/mudra/internal/cursor"
	"github.com/ayusman/mudra/internal/store"
)

// ConfigHandler handles HTTP requests for the cursor configuration. The
// running session's snapshot is the source of truth; the store only keeps
// it across restarts.
type ConfigHandler struct {
	session *control.Session
	store   *store.Store // optional, nil skips persistence
}

// NewConfigHandler creates a new ConfigHandler.
func NewConfigHandler(s *control.Session, st *store.Store) *ConfigHandler {
	return &ConfigHandler{session: s, store: st}
}

// ServeHTTP implements the http.Handler interface.
func (h *ConfigHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.get(w, r)
	case http.MethodPut:
		h.update(w, r)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// get handles GET /api/config and returns the active configuration.
func (h *ConfigHandler) get(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.session.Config())
}

// update handles PUT /api/config. The request body is decoded over the
// active configuration, so omitted fields keep their current values and
// bindings merge by gesture event; a binding is cleared by setting its
// action to "none". An invalid result is rejected whole and the running
// loop keeps the old snapshot.
func (h *ConfigHandler) update(w http.ResponseWriter, r *http.Request) {
	cfg := h.session.Config()

	if err := json.NewDecoder(r.Body).Decode(&cfg); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	if err := h.session.SetConfig(cfg); err != nil {
		if errors.Is(err, cursor.ErrInvalidConfig) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to apply config")
		return
	}

	if h.store != nil {
		if err := h.store.Settings().SaveConfig(cfg); err != nil {
			log.Printf("config API: failed to persist config: %v", err)
		}
	}

	writeJSON(w, http.StatusOK, h.session.Config())
}
