// Package plugin provides discovery and execution of external action plugins.
// A plugin is a directory containing a plugin.json manifest and an executable
// that reads one JSON request from stdin and writes one JSON response to
// stdout. Gesture bindings that reach beyond the pointer (key taps, media
// keys) are delegated to plugins so the core never links platform input APIs.
package plugin

import "encoding/json"

// Manifest describes a plugin's metadata and capabilities.
type Manifest struct {
	Name        string   `json:"name"`
	Version     string   `json:"version"`
	Description string   `json:"description"`
	Executable  string   `json:"executable"`
	Actions     []string `json:"actions"`
}

// Request represents a request sent to a plugin for execution.
type Request struct {
	// Action is one of the actions the plugin's manifest declares.
	Action string `json:"action"`
	// Event names the gesture event that triggered the action, when the
	// request originates from a binding rather than an API call.
	Event string `json:"event"`
	// Params carries action-specific arguments, such as the key to tap.
	Params json.RawMessage `json:"params"`
}

// Response represents the response from a plugin execution.
type Response struct {
	Success bool            `json:"success"`
	Error   string          `json:"error,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// Plugin represents a discovered plugin with its manifest and location.
type Plugin struct {
	Manifest   Manifest
	Path       string
	Executable string
}

// Supports reports whether the plugin's manifest declares the action.
func (p *Plugin) Supports(action string) bool {
	for _, a := range p.Manifest.Actions {
		if a == action {
			return true
		}
	}
	return false
}
