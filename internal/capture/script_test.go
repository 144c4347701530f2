package capture

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ayusman/mudra/internal/landmark"
)

func TestReadScript(t *testing.T) {
	input := strings.Join([]string{
		trackerLine(landmark.NumLandmarks),
		`{"hands":[]}`,
		"",
		trackerLine(landmark.NumLandmarks),
	}, "\n")

	script, err := ReadScript(strings.NewReader(input))
	if err != nil {
		t.Fatalf("ReadScript: %v", err)
	}
	if len(script) != 3 {
		t.Fatalf("len(script) = %d, want 3 (two frames and a gap)", len(script))
	}
	if script[0] == nil || script[2] == nil {
		t.Error("hand frames decoded to nil")
	}
	if script[1] != nil {
		t.Error("a no-hand line should become a gap")
	}
}

func TestReadScriptMalformedLine(t *testing.T) {
	input := trackerLine(landmark.NumLandmarks) + "\n" + `{"hands":[`

	_, err := ReadScript(strings.NewReader(input))
	if err == nil || !strings.Contains(err.Error(), "line 2") {
		t.Errorf("error = %v, want one naming line 2", err)
	}
}

func TestLoadScript(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.jsonl")
	if err := os.WriteFile(path, []byte(trackerLine(landmark.NumLandmarks)+"\n"), 0644); err != nil {
		t.Fatalf("write script: %v", err)
	}

	script, err := LoadScript(path)
	if err != nil {
		t.Fatalf("LoadScript: %v", err)
	}
	if len(script) != 1 {
		t.Fatalf("len(script) = %d, want 1", len(script))
	}

	if _, err := LoadScript(filepath.Join(t.TempDir(), "missing.jsonl")); err == nil {
		t.Error("expected error for a missing file")
	}
}
