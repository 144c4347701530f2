// Package server provides the HTTP server and WebSocket update stream for
// mudra. It exposes the control session, cursor configuration, calibration
// bridge, and plugin management to the settings UI.
package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/ayusman/mudra/internal/control"
	"github.com/ayusman/mudra/internal/plugin"
	"github.com/ayusman/mudra/internal/server/api"
	"github.com/ayusman/mudra/internal/store"
)

// Config holds the server configuration. Nil fields disable the routes
// that need them.
type Config struct {
	StaticDir string
	Store     *store.Store
	Session   *control.Session
	Plugins   *plugin.Manager
	Executor  *plugin.Executor
	Updates   *UpdatesHandler
}

// Server represents the HTTP server for the mudra application.
type Server struct {
	config Config
	mux    *http.ServeMux
	start  time.Time
}

// New creates a new Server with the given configuration.
func New(config Config) *Server {
	s := &Server{
		config: config,
		mux:    http.NewServeMux(),
		start:  time.Now(),
	}
	s.setupRoutes()
	return s
}

// setupRoutes configures all HTTP routes for the server.
func (s *Server) setupRoutes() {
	s.mux.HandleFunc("/api/health", s.handleHealth)

	if s.config.Session != nil {
		sessionHandler := api.NewSessionHandler(s.config.Session)
		s.mux.Handle("/api/session", sessionHandler)
		s.mux.Handle("/api/session/", sessionHandler)

		configHandler := api.NewConfigHandler(s.config.Session, s.config.Store)
		s.mux.Handle("/api/config", configHandler)

		calibrator := api.NewCalibrator(s.config.Session, s.config.Store)
		calibrationHandler := api.NewCalibrationHandler(calibrator, s.config.Store)
		s.mux.Handle("/api/calibration", calibrationHandler)
		s.mux.Handle("/api/calibration/", calibrationHandler)
	}

	if s.config.Plugins != nil && s.config.Executor != nil {
		pluginsHandler := api.NewPluginsHandler(s.config.Plugins, s.config.Executor)
		s.mux.Handle("/api/plugins", pluginsHandler)
		s.mux.Handle("/api/plugins/", pluginsHandler)
	}

	if s.config.Updates != nil {
		s.mux.Handle("/ws", s.config.Updates)
	}

	// Serve static files if StaticDir is configured
	if s.config.StaticDir != "" {
		fs := http.FileServer(http.Dir(s.config.StaticDir))
		s.mux.Handle("/", fs)
	}
}

// ServeHTTP implements the http.Handler interface.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// handleHealth handles GET requests to /api/health.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	uptime := time.Since(s.start)

	response := map[string]interface{}{
		"status": "ok",
		"uptime": uptime.String(),
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(response); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
		return
	}
}

// ListenAndServe starts the HTTP server on the given address.
func (s *Server) ListenAndServe(addr string) error {
	return http.ListenAndServe(addr, s)
}
