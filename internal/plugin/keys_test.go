package plugin

import (
	"encoding/json"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
)

// keysFixture builds a plugin dir holding one scripted key_press plugin
// and returns a Keyboard wired to it. The script records the request it
// received into a file so tests can inspect what reached the plugin.
func keysFixture(t *testing.T) (*Keyboard, string) {
	t.Helper()

	if runtime.GOOS == "windows" {
		t.Skip("skipping shell-script plugin test on Windows")
	}

	tmpDir, err := os.MkdirTemp("", "mudra-keys-test")
	if err != nil {
		t.Fatalf("failed to create temp dir: %v", err)
	}
	t.Cleanup(func() { os.RemoveAll(tmpDir) })

	pluginDir := filepath.Join(tmpDir, "keyboard")
	if err := os.MkdirAll(pluginDir, 0755); err != nil {
		t.Fatalf("failed to create plugin dir: %v", err)
	}

	manifest := Manifest{
		Name:       "keyboard",
		Version:    "1.0.0",
		Executable: "keyboard.sh",
		Actions:    []string{"key_press"},
	}
	manifestBytes, err := json.Marshal(manifest)
	if err != nil {
		t.Fatalf("failed to marshal manifest: %v", err)
	}
	if err := os.WriteFile(filepath.Join(pluginDir, "plugin.json"), manifestBytes, 0644); err != nil {
		t.Fatalf("failed to write manifest: %v", err)
	}

	recordPath := filepath.Join(tmpDir, "request.json")
	script := `#!/bin/sh
INPUT=$(cat)
printf '%s' "$INPUT" > ` + recordPath + `
case "$INPUT" in
*'"key":""'*)
	echo '{"success":false,"error":"key is required"}'
	;;
*)
	echo '{"success":true}'
	;;
esac
`
	if err := os.WriteFile(filepath.Join(pluginDir, "keyboard.sh"), []byte(script), 0755); err != nil {
		t.Fatalf("failed to write script: %v", err)
	}

	manager := NewManager(tmpDir)
	if err := manager.Discover(); err != nil {
		t.Fatalf("Discover() failed: %v", err)
	}

	return NewKeyboard(manager, NewExecutor(5000)), recordPath
}

func TestKeyboard_KeyTap(t *testing.T) {
	keyboard, recordPath := keysFixture(t)

	if err := keyboard.KeyTap("space"); err != nil {
		t.Fatalf("KeyTap() failed: %v", err)
	}

	raw, err := os.ReadFile(recordPath)
	if err != nil {
		t.Fatalf("plugin never wrote the request record: %v", err)
	}

	var req Request
	if err := json.Unmarshal(raw, &req); err != nil {
		t.Fatalf("failed to unmarshal recorded request: %v", err)
	}
	if req.Action != "key_press" {
		t.Errorf("expected action 'key_press', got %q", req.Action)
	}

	var params map[string]string
	if err := json.Unmarshal(req.Params, &params); err != nil {
		t.Fatalf("failed to unmarshal recorded params: %v", err)
	}
	if params["key"] != "space" {
		t.Errorf("expected key 'space', got %q", params["key"])
	}
}

func TestKeyboard_KeyTap_EmptyKey(t *testing.T) {
	keyboard, _ := keysFixture(t)

	err := keyboard.KeyTap("")
	if err == nil {
		t.Fatal("expected error for empty key, got nil")
	}
	// Must be rejected before any plugin runs.
	if strings.Contains(err.Error(), "plugin") {
		t.Errorf("empty key should fail locally, got: %v", err)
	}
}

func TestKeyboard_KeyTap_PluginFailure(t *testing.T) {
	keyboard, _ := keysFixture(t)

	// The scripted plugin rejects requests whose key param is empty. Force
	// that path through the executor by tapping a key the script rejects:
	// reuse the script's check via a raw executor call instead.
	manager := keyboard.manager
	plug, err := manager.Get("keyboard")
	if err != nil {
		t.Fatalf("Get() failed: %v", err)
	}

	resp, err := keyboard.executor.Execute(plug, &Request{
		Action: "key_press",
		Params: json.RawMessage(`{"key":""}`),
	})
	if err != nil {
		t.Fatalf("Execute() failed: %v", err)
	}
	if resp.Success {
		t.Error("expected plugin to reject empty key")
	}
	if resp.Error != "key is required" {
		t.Errorf("expected 'key is required', got %q", resp.Error)
	}
}

func TestKeyboard_KeyTap_NoPlugin(t *testing.T) {
	tmpDir, err := os.MkdirTemp("", "mudra-keys-test")
	if err != nil {
		t.Fatalf("failed to create temp dir: %v", err)
	}
	defer os.RemoveAll(tmpDir)

	manager := NewManager(tmpDir)
	if err := manager.Discover(); err != nil {
		t.Fatalf("Discover() failed: %v", err)
	}

	keyboard := NewKeyboard(manager, NewExecutor(5000))

	err = keyboard.KeyTap("escape")
	if err == nil {
		t.Fatal("expected error when no key_press plugin is discovered")
	}
	if !strings.Contains(err.Error(), "plugin not found") {
		t.Errorf("expected ErrPluginNotFound in chain, got: %v", err)
	}
}
