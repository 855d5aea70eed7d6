package tools

import (
	"context"
	"fmt"
	"os/exec"
	"time"
)

// XDGOpen launches URLs with xdg-open without waiting for the browser.
type XDGOpen struct {
	// Command defaults to "xdg-open".
	Command string
}

// Open starts the opener and returns once the process is spawned.
func (x XDGOpen) Open(_ context.Context, url string) error {
	name := x.Command
	if name == "" {
		name = "xdg-open"
	}
	cmd := exec.Command(name, url)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start %s: %w", name, err)
	}
	go func() { _ = cmd.Wait() }()
	return nil
}

const defaultCommandTimeout = 10 * time.Second

// ShellRunner runs commands with /bin/sh -c and returns combined output.
type ShellRunner struct {
	Shell   string
	Timeout time.Duration
}

// Run executes command, bounded by the runner timeout.
func (s ShellRunner) Run(ctx context.Context, command string) (string, error) {
	shell := s.Shell
	if shell == "" {
		shell = "/bin/sh"
	}
	timeout := s.Timeout
	if timeout <= 0 {
		timeout = defaultCommandTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	out, err := exec.CommandContext(ctx, shell, "-c", command).CombinedOutput()
	if err != nil {
		return string(out), fmt.Errorf("run %q: %w", command, err)
	}
	return string(out), nil
}
