// Package main implements the keyboard plugin. It taps keys on behalf of
// gesture bindings, using xdotool on Linux and AppleScript on macOS.
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"strings"
)

// Request represents the input from the plugin executor.
type Request struct {
	Action string          `json:"action"`
	Event  string          `json:"event"`
	Params json.RawMessage `json:"params"`
}

// Response represents the output to the plugin executor.
type Response struct {
	Success bool            `json:"success"`
	Error   string          `json:"error,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// KeyParams defines parameters for the key_press action.
type KeyParams struct {
	Key       string   `json:"key"`
	Modifiers []string `json:"modifiers"` // ctrl, alt, shift, cmd/super
}

func main() {
	var req Request
	if err := json.NewDecoder(os.Stdin).Decode(&req); err != nil {
		writeErrorResponse(fmt.Sprintf("failed to decode request: %v", err))
		return
	}

	switch req.Action {
	case "key_press":
		if err := handleKeyPress(req.Params); err != nil {
			writeErrorResponse(fmt.Sprintf("action %s failed: %v", req.Action, err))
			return
		}
	default:
		writeErrorResponse(fmt.Sprintf("unknown action: %s", req.Action))
		return
	}

	writeSuccessResponse()
}

// handleKeyPress parses the key parameters and taps the key once.
func handleKeyPress(params json.RawMessage) error {
	var p KeyParams
	if err := json.Unmarshal(params, &p); err != nil {
		return fmt.Errorf("failed to parse params: %w", err)
	}

	if p.Key == "" {
		return fmt.Errorf("key is required")
	}

	switch runtime.GOOS {
	case "linux":
		return tapLinux(p.Key, p.Modifiers)
	case "darwin":
		return tapDarwin(p.Key, p.Modifiers)
	default:
		return fmt.Errorf("unsupported platform: %s", runtime.GOOS)
	}
}

// linuxModifierMap maps user-friendly modifier names to xdotool equivalents.
var linuxModifierMap = map[string]string{
	"ctrl":    "ctrl",
	"control": "ctrl",
	"alt":     "alt",
	"option":  "alt",
	"shift":   "shift",
	"super":   "super",
	"cmd":     "super",
	"command": "super",
}

// tapLinux sends the key through xdotool. Modifiers are joined into a
// single chord, so ctrl+shift+t arrives as one key event.
func tapLinux(key string, modifiers []string) error {
	var chord []string
	for _, mod := range modifiers {
		if m, ok := linuxModifierMap[strings.ToLower(mod)]; ok {
			chord = append(chord, m)
		}
	}
	chord = append(chord, key)

	cmd := exec.Command("xdotool", "key", strings.Join(chord, "+"))
	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("%w: %s", err, string(output))
	}
	return nil
}

// darwinModifierMap maps user-friendly modifier names to AppleScript equivalents.
var darwinModifierMap = map[string]string{
	"command": "command down",
	"cmd":     "command down",
	"super":   "command down",
	"option":  "option down",
	"alt":     "option down",
	"control": "control down",
	"ctrl":    "control down",
	"shift":   "shift down",
}

// tapDarwin sends the key through AppleScript's System Events.
func tapDarwin(key string, modifiers []string) error {
	var appleModifiers []string
	for _, mod := range modifiers {
		if m, ok := darwinModifierMap[strings.ToLower(mod)]; ok {
			appleModifiers = append(appleModifiers, m)
		}
	}

	script := fmt.Sprintf(`tell application "System Events" to keystroke "%s"`, key)
	if len(appleModifiers) > 0 {
		script = fmt.Sprintf(`tell application "System Events" to keystroke "%s" using {%s}`,
			key, strings.Join(appleModifiers, ", "))
	}

	cmd := exec.Command("osascript", "-e", script)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("%w: %s", err, string(output))
	}
	return nil
}

// writeErrorResponse writes an error response to stdout.
func writeErrorResponse(errMsg string) {
	resp := Response{
		Success: false,
		Error:   errMsg,
	}
	json.NewEncoder(os.Stdout).Encode(resp)
}

// writeSuccessResponse writes a success response to stdout.
func writeSuccessResponse() {
	resp := Response{
		Success: true,
	}
	json.NewEncoder(os.Stdout).Encode(resp)
}
