package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/ayusman/mudra/internal/plugin"
)

// PluginsHandler handles HTTP requests for discovered plugins.
type PluginsHandler struct {
	manager  *plugin.Manager
	executor *plugin.Executor
}

// NewPluginsHandler creates a new PluginsHandler.
func NewPluginsHandler(m *plugin.Manager, e *plugin.Executor) *PluginsHandler {
	return &PluginsHandler{manager: m, executor: e}
}

// ServeHTTP implements the http.Handler interface. Expected paths:
// /api/plugins and /api/plugins/run.
func (h *PluginsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/plugins")
	path = strings.TrimPrefix(path, "/")

	switch path {
	case "":
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		h.list(w, r)
	case "run":
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		h.run(w, r)
	default:
		http.NotFound(w, r)
	}
}

// Request and response types

type pluginResponse struct {
	Name        string   `json:"name"`
	Version     string   `json:"version"`
	Description string   `json:"description"`
	Actions     []string `json:"actions"`
}

type listPluginsResponse struct {
	Plugins []pluginResponse `json:"plugins"`
}

type runPluginRequest struct {
	Plugin string          `json:"plugin"`
	Action string          `json:"action"`
	Params json.RawMessage `json:"params"`
}

type runPluginResponse struct {
	Success bool            `json:"success"`
	Error   string          `json:"error,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// list handles GET /api/plugins and returns all discovered plugins.
func (h *PluginsHandler) list(w http.ResponseWriter, r *http.Request) {
	response := listPluginsResponse{Plugins: make([]pluginResponse, 0)}

	for _, p := range h.manager.List() {
		response.Plugins = append(response.Plugins, pluginResponse{
			Name:        p.Manifest.Name,
			Version:     p.Manifest.Version,
			Description: p.Manifest.Description,
			Actions:     p.Manifest.Actions,
		})
	}

	writeJSON(w, http.StatusOK, response)
}

// run handles POST /api/plugins/run and executes one plugin action. It
// exists so the settings UI can let users test a plugin without wiring a
// gesture to it first.
func (h *PluginsHandler) run(w http.ResponseWriter, r *http.Request) {
	var req runPluginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	if req.Plugin == "" {
		writeError(w, http.StatusBadRequest, "plugin is required")
		return
	}
	if req.Action == "" {
		writeError(w, http.StatusBadRequest, "action is required")
		return
	}

	plug, err := h.manager.Get(req.Plugin)
	if err != nil {
		if errors.Is(err, plugin.ErrPluginNotFound) {
			writeError(w, http.StatusNotFound, "Plugin not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to look up plugin")
		return
	}

	if !plug.Supports(req.Action) {
		writeError(w, http.StatusBadRequest, "Plugin does not support this action")
		return
	}

	resp, err := h.executor.Execute(plug, &plugin.Request{
		Action: req.Action,
		Params: req.Params,
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Plugin execution failed: "+err.Error())
		return
	}

	writeJSON(w, http.StatusOK, runPluginResponse{
		Success: resp.Success,
		Error:   resp.Error,
		Data:    resp.Data,
	})
}
