// Package testdata embeds recorded tracker sessions for replay in tests.
// Each recording is one JSON line per camera frame in the tracker wire
// format; lines with no hands are tracking gaps.
package testdata

import (
	"bytes"
	"embed"
	"fmt"
	"strings"

	"github.com/ayusman/mudra/internal/capture"
	"github.com/ayusman/mudra/internal/landmark"
)

//go:embed replays/*.jsonl
var replaysFS embed.FS

// Replay loads a recorded session by name, e.g. "pinch_drag". Gaps in
// the recording come back as nil frames, so a replay source reproduces
// tracking loss exactly as it was captured.
func Replay(name string) ([]*landmark.Frame, error) {
	data, err := replaysFS.ReadFile("replays/" + name + ".jsonl")
	if err != nil {
		return nil, fmt.Errorf("load replay %s: %w", name, err)
	}
	frames, err := capture.ReadScript(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode replay %s: %w", name, err)
	}
	return frames, nil
}

// Names lists the embedded recordings.
func Names() ([]string, error) {
	entries, err := replaysFS.ReadDir("replays")
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, strings.TrimSuffix(e.Name(), ".jsonl"))
	}
	return names, nil
}
