package api

import (
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/ayusman/mudra/internal/plugin"
)

// newTestPlugins builds a scripted echo plugin on disk and returns a
// manager and executor over it.
func newTestPlugins(t *testing.T) (*plugin.Manager, *plugin.Executor) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("plugin scripts use /bin/sh")
	}

	root, err := os.MkdirTemp("", "mudra-api-plugins-*")
	if err != nil {
		t.Fatalf("failed to create temp dir: %v", err)
	}
	t.Cleanup(func() { os.RemoveAll(root) })

	dir := filepath.Join(root, "echo")
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatalf("failed to create plugin dir: %v", err)
	}

	manifest := `{
		"name": "echo",
		"version": "1.0.0",
		"description": "Echoes a pong",
		"executable": "echo.sh",
		"actions": ["ping"]
	}`
	if err := os.WriteFile(filepath.Join(dir, "plugin.json"), []byte(manifest), 0644); err != nil {
		t.Fatalf("failed to write manifest: %v", err)
	}

	script := "#!/bin/sh\ncat > /dev/null\necho '{\"success\": true, \"data\": {\"pong\": true}}'\n"
	if err := os.WriteFile(filepath.Join(dir, "echo.sh"), []byte(script), 0755); err != nil {
		t.Fatalf("failed to write script: %v", err)
	}

	m := plugin.NewManager(root)
	if err := m.Discover(); err != nil {
		t.Fatalf("Discover() error = %v", err)
	}
	return m, plugin.NewExecutor(2000)
}

func TestPluginsHandler_List(t *testing.T) {
	m, e := newTestPlugins(t)
	handler := NewPluginsHandler(m, e)

	rec := calibRequest(handler, http.MethodGet, "/api/plugins", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var list listPluginsResponse
	if err := json.NewDecoder(rec.Body).Decode(&list); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(list.Plugins) != 1 {
		t.Fatalf("got %d plugins, want 1", len(list.Plugins))
	}
	p := list.Plugins[0]
	if p.Name != "echo" || p.Version != "1.0.0" {
		t.Errorf("plugin = %+v, want echo 1.0.0", p)
	}
	if len(p.Actions) != 1 || p.Actions[0] != "ping" {
		t.Errorf("actions = %v, want [ping]", p.Actions)
	}
}

func TestPluginsHandler_Run(t *testing.T) {
	m, e := newTestPlugins(t)
	handler := NewPluginsHandler(m, e)

	rec := calibRequest(handler, http.MethodPost, "/api/plugins/run",
		`{"plugin": "echo", "action": "ping", "params": {"n": 1}}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	var resp runPluginResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !resp.Success {
		t.Errorf("Success = false, error %q", resp.Error)
	}
	if !strings.Contains(string(resp.Data), "pong") {
		t.Errorf("Data = %s, want the plugin's pong payload", resp.Data)
	}
}

func TestPluginsHandler_Run_NotFound(t *testing.T) {
	m, e := newTestPlugins(t)
	handler := NewPluginsHandler(m, e)

	rec := calibRequest(handler, http.MethodPost, "/api/plugins/run",
		`{"plugin": "ghost", "action": "ping"}`)
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestPluginsHandler_Run_UnsupportedAction(t *testing.T) {
	m, e := newTestPlugins(t)
	handler := NewPluginsHandler(m, e)

	rec := calibRequest(handler, http.MethodPost, "/api/plugins/run",
		`{"plugin": "echo", "action": "reboot"}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestPluginsHandler_Run_Validation(t *testing.T) {
	m, e := newTestPlugins(t)
	handler := NewPluginsHandler(m, e)

	cases := []struct {
		name string
		body string
	}{
		{"invalid json", `{`},
		{"missing plugin", `{"action": "ping"}`},
		{"missing action", `{"plugin": "echo"}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := calibRequest(handler, http.MethodPost, "/api/plugins/run", tc.body)
			if rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", rec.Code)
			}
		})
	}
}

func TestPluginsHandler_MethodNotAllowed(t *testing.T) {
	m, e := newTestPlugins(t)
	handler := NewPluginsHandler(m, e)

	rec := calibRequest(handler, http.MethodPost, "/api/plugins", "")
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("POST list status = %d, want 405", rec.Code)
	}

	rec = calibRequest(handler, http.MethodGet, "/api/plugins/run", "")
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("GET run status = %d, want 405", rec.Code)
	}

	rec = calibRequest(handler, http.MethodGet, "/api/plugins/bogus", "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("unknown path status = %d, want 404", rec.Code)
	}
}
