package capture

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ayusman/mudra/internal/landmark"
)

// ReadScript parses a recorded tracker session: one JSON line per camera
// frame, the same wire format the live helper emits. Frames with no hands
// become gaps in the script, so a recording replays loss exactly as it
// happened. Blank lines are skipped.
func ReadScript(r io.Reader) ([]*landmark.Frame, error) {
	var script []*landmark.Frame

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		frame, err := decodeFrame(line)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
		script = append(script, frame)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return script, nil
}

// LoadScript reads a recorded tracker session from a file.
func LoadScript(path string) ([]*landmark.Frame, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	script, err := ReadScript(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return script, nil
}
