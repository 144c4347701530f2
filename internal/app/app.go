// Package app assembles the mudra daemon: the store, the capture source,
// the pointer actuator, plugins, the control session, and the HTTP server.
package app

import (
	"errors"
	"fmt"
	"log"
	"net/http"

	"github.com/ayusman/mudra/internal/actuator"
	"github.com/ayusman/mudra/internal/capture"
	"github.com/ayusman/mudra/internal/control"
	"github.com/ayusman/mudra/internal/cursor"
	"github.com/ayusman/mudra/internal/plugin"
	"github.com/ayusman/mudra/internal/server"
	"github.com/ayusman/mudra/internal/store"
)

// pluginTimeoutMs bounds a single plugin invocation.
const pluginTimeoutMs = 5000

// Config holds the wiring options for the daemon.
type Config struct {
	// DBPath is the SQLite database file. Empty runs without persistence:
	// default tuning, no calibration history.
	DBPath string
	// StaticDir serves the settings UI when set.
	StaticDir string
	// PluginDir is scanned for action plugins. Empty disables plugins.
	PluginDir string
	// Camera and FPS select the capture device for the live tracker.
	Camera int
	FPS    int
	// Replay is a recorded tracker session to play on a loop instead of
	// the live camera.
	Replay string

	// Source and Actuator, when set, replace the live tracker and pointer
	// service. Tests inject replay scripts and recorders here.
	Source   capture.Source
	Actuator actuator.Actuator

	// OnUpdate, when set, receives every session update in addition to
	// the WebSocket stream. It runs on the control loop's tick and must
	// not block.
	OnUpdate func(control.Update)
}

// App owns the daemon's subsystems and their lifetimes.
type App struct {
	store    *store.Store
	source   capture.Source
	actuator actuator.Actuator
	plugins  *plugin.Manager
	executor *plugin.Executor
	session  *control.Session
	updates  *server.UpdatesHandler
	server   *server.Server
}

// New wires up a daemon from the given configuration. Optional pieces
// degrade rather than fail: a missing tracker leaves an empty feed, a
// missing pointer service logs actuations instead of performing them.
func New(config Config) (*App, error) {
	a := &App{}

	if config.DBPath != "" {
		st, err := store.New(config.DBPath)
		if err != nil {
			return nil, fmt.Errorf("open store: %w", err)
		}
		a.store = st
	}

	cfg, err := a.loadConfig()
	if err != nil {
		a.closePartial()
		return nil, err
	}

	a.actuator = config.Actuator
	if a.actuator == nil {
		svc, err := actuator.NewService()
		if err != nil {
			log.Printf("app: pointer service unavailable (%v), using noop actuator", err)
			a.actuator = actuator.NewNoop()
		} else {
			a.actuator = svc
		}
	}

	// Screen geometry is environmental, not a tunable; whenever the
	// actuator can report it, it wins over whatever was saved.
	if sized, ok := a.actuator.(interface{ Screen() (int, int, error) }); ok {
		if w, h, err := sized.Screen(); err != nil {
			log.Printf("app: screen size query failed: %v", err)
		} else if w > 0 && h > 0 {
			cfg.ScreenW, cfg.ScreenH = w, h
		}
	}

	if err := a.openSource(config); err != nil {
		a.closePartial()
		return nil, err
	}

	if config.PluginDir != "" {
		a.plugins = plugin.NewManager(config.PluginDir)
		if err := a.plugins.Discover(); err != nil {
			log.Printf("app: plugin discovery failed: %v", err)
		}
		a.executor = plugin.NewExecutor(pluginTimeoutMs)
	}

	a.updates = server.NewUpdatesHandler()
	onUpdate := a.updates.Publish
	if config.OnUpdate != nil {
		extra := config.OnUpdate
		onUpdate = func(u control.Update) {
			a.updates.Publish(u)
			extra(u)
		}
	}

	opts := control.Options{OnUpdate: onUpdate}
	if a.plugins != nil && a.executor != nil {
		opts.Keys = plugin.NewKeyboard(a.plugins, a.executor)
	}

	session, err := control.NewSession(a.source, a.actuator, cfg, opts)
	if err != nil {
		a.closePartial()
		return nil, fmt.Errorf("create session: %w", err)
	}
	a.session = session

	a.server = server.New(server.Config{
		StaticDir: config.StaticDir,
		Store:     a.store,
		Session:   a.session,
		Plugins:   a.plugins,
		Executor:  a.executor,
		Updates:   a.updates,
	})

	return a, nil
}

// loadConfig reads the saved cursor tuning, falling back to defaults when
// none has been saved yet. A saved configuration that no longer parses or
// validates is an error; silently discarding a user's tuning hides bugs.
func (a *App) loadConfig() (cursor.Config, error) {
	if a.store == nil {
		return cursor.DefaultConfig(), nil
	}
	cfg, err := a.store.Settings().LoadConfig()
	if errors.Is(err, store.ErrNotFound) {
		return cursor.DefaultConfig(), nil
	}
	if err != nil {
		return cursor.Config{}, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

// openSource picks the frame source: an injected one, a recording, or the
// live tracker. An unavailable tracker degrades to an empty feed so the
// server and settings UI stay reachable.
func (a *App) openSource(config Config) error {
	if config.Source != nil {
		a.source = config.Source
		return nil
	}

	if config.Replay != "" {
		frames, err := capture.LoadScript(config.Replay)
		if err != nil {
			return fmt.Errorf("load replay: %w", err)
		}
		replay := capture.NewReplay(frames)
		replay.SetLoop(true)
		log.Printf("app: replaying %s (%d frames)", config.Replay, len(frames))
		a.source = replay
		return nil
	}

	camera, fps := config.Camera, config.FPS
	if fps <= 0 {
		fps = capture.DefaultFPS
	}
	tracker, err := capture.NewTracker(camera, fps)
	if err != nil {
		log.Printf("app: hand tracker unavailable (%v), running with an empty feed", err)
		a.source = capture.NewReplay(nil)
		return nil
	}
	a.source = tracker
	return nil
}

// Session returns the control session.
func (a *App) Session() *control.Session {
	return a.session
}

// Store returns the store, or nil when running without persistence.
func (a *App) Store() *store.Store {
	return a.store
}

// Handler returns the HTTP handler serving the API, the WebSocket stream,
// and the settings UI.
func (a *App) Handler() http.Handler {
	return a.server
}

// ListenAndServe starts the HTTP server on the given address.
func (a *App) ListenAndServe(addr string) error {
	return a.server.ListenAndServe(addr)
}

// Close stops the session and releases every subsystem. Safe to call once,
// after which the App must not be used.
func (a *App) Close() {
	if a.session != nil {
		a.session.Stop()
	}
	a.closePartial()
}

// closePartial releases whatever New has opened so far.
func (a *App) closePartial() {
	if a.source != nil {
		if err := a.source.Close(); err != nil {
			log.Printf("app: closing source: %v", err)
		}
		a.source = nil
	}
	if a.actuator != nil {
		if err := a.actuator.Close(); err != nil {
			log.Printf("app: closing actuator: %v", err)
		}
		a.actuator = nil
	}
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			log.Printf("app: closing store: %v", err)
		}
		a.store = nil
	}
}
