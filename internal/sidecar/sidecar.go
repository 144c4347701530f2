// Package sidecar manages the Python helper processes that own the pieces
// Go cannot reach portably: the MediaPipe hand tracker and the OS pointer
// injector. Helpers speak newline-delimited JSON over stdin/stdout.
package sidecar

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
)

// Process is a started helper with line-oriented pipes. It does no locking
// of its own; callers serialize access the way their protocol requires.
type Process struct {
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	stdout *bufio.Reader
}

// LookupScript resolves a helper script by name, probing the working
// directory, the executable's directory, and the per-user install.
// Returns "" when the script cannot be found.
func LookupScript(name string) string {
	execPath, err := os.Executable()
	var execDir string
	if err == nil {
		execDir = filepath.Dir(execPath)
	}

	candidates := []string{
		filepath.Join("scripts", name),
		filepath.Join("..", "scripts", name),
		filepath.Join(execDir, "scripts", name),
		filepath.Join(os.Getenv("HOME"), ".mudra/scripts", name),
	}

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			absPath, err := filepath.Abs(path)
			if err == nil {
				return absPath
			}
			return path
		}
	}
	return ""
}

// findVenvPython looks for a Python interpreter in a virtual environment,
// falling back to "" when none is installed.
func findVenvPython() string {
	execPath, err := os.Executable()
	if err != nil {
		return ""
	}
	execDir := filepath.Dir(execPath)

	candidates := []string{
		"venv/bin/python",
		"../venv/bin/python",
		filepath.Join(execDir, "venv/bin/python"),
		filepath.Join(os.Getenv("HOME"), ".mudra/venv/bin/python"),
	}

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			absPath, err := filepath.Abs(path)
			if err == nil {
				return absPath
			}
			return path
		}
	}
	return ""
}

// Start launches the named helper script and wires up its pipes. Helper
// stderr goes to our stderr so tracebacks stay visible.
func Start(name string, args ...string) (*Process, error) {
	scriptPath := LookupScript(name)
	if scriptPath == "" {
		return nil, fmt.Errorf("%s not found", name)
	}

	pythonPath := findVenvPython()
	if pythonPath == "" {
		pythonPath = "python3"
	}

	cmd := exec.Command(pythonPath, append([]string{scriptPath}, args...)...)

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("create stdin pipe: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("create stdout pipe: %w", err)
	}
	cmd.Stderr = os.Stderr

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start %s: %w", name, err)
	}

	return &Process{
		cmd:    cmd,
		stdin:  stdin,
		stdout: bufio.NewReader(stdout),
	}, nil
}

// WriteLine sends one newline-terminated message to the helper.
func (p *Process) WriteLine(data []byte) error {
	if _, err := p.stdin.Write(data); err != nil {
		return fmt.Errorf("write request: %w", err)
	}
	if _, err := p.stdin.Write([]byte{'\n'}); err != nil {
		return fmt.Errorf("write request: %w", err)
	}
	return nil
}

// ReadLine blocks for the helper's next message.
func (p *Process) ReadLine() (string, error) {
	line, err := p.stdout.ReadString('\n')
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}
	return line, nil
}

// Stop closes stdin, which tells the helper to exit, and reaps it.
func (p *Process) Stop() error {
	if p.stdin != nil {
		p.stdin.Close()
	}
	return p.cmd.Wait()
}
