// Package main implements the media plugin. It adjusts volume and media
// playback, using amixer and playerctl on Linux and AppleScript on macOS.
// It exists mostly as a template for writing further action plugins.
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"runtime"
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

// actionHandler defines a function type for handling specific actions.
type actionHandler func() error

// actionHandlers maps action names to their handler functions.
var actionHandlers = map[string]actionHandler{
	"volume_up":        volumeUp,
	"volume_down":      volumeDown,
	"volume_mute":      volumeMute,
	"media_play_pause": mediaPlayPause,
}

func main() {
	var req Request
	if err := json.NewDecoder(os.Stdin).Decode(&req); err != nil {
		writeErrorResponse(fmt.Sprintf("failed to decode request: %v", err))
		return
	}

	handler, ok := actionHandlers[req.Action]
	if !ok {
		writeErrorResponse(fmt.Sprintf("unknown action: %s", req.Action))
		return
	}

	if err := handler(); err != nil {
		writeErrorResponse(fmt.Sprintf("action %s failed: %v", req.Action, err))
		return
	}

	writeSuccessResponse()
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

// run executes a command and returns its combined output on failure.
func run(name string, args ...string) error {
	cmd := exec.Command(name, args...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("%w: %s", err, string(output))
	}
	return nil
}

// runAppleScript executes an AppleScript command and returns any error.
func runAppleScript(script string) error {
	return run("osascript", "-e", script)
}

// volumeUp increases the system volume by 10%.
func volumeUp() error {
	if runtime.GOOS == "darwin" {
		return runAppleScript(`set volume output volume ((output volume of (get volume settings)) + 10)`)
	}
	return run("amixer", "-q", "set", "Master", "10%+")
}

// volumeDown decreases the system volume by 10%.
func volumeDown() error {
	if runtime.GOOS == "darwin" {
		return runAppleScript(`set volume output volume ((output volume of (get volume settings)) - 10)`)
	}
	return run("amixer", "-q", "set", "Master", "10%-")
}

// volumeMute toggles the system mute state.
func volumeMute() error {
	if runtime.GOOS == "darwin" {
		return runAppleScript(`set volume output muted (not (output muted of (get volume settings)))`)
	}
	return run("amixer", "-q", "set", "Master", "toggle")
}

// mediaPlayPause toggles media play/pause.
func mediaPlayPause() error {
	if runtime.GOOS == "darwin" {
		return runAppleScript(`tell application "System Events"
	key code 100
end tell`)
	}
	return run("playerctl", "play-pause")
}
