package runtime

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"mvdan.cc/sh/v3/shell"
)

// Phase names the step a child process belongs to.
type Phase string

const (
	PhaseInstall Phase = "install"
	PhaseStart   Phase = "start"
	PhaseCommand Phase = "command"
)

// ErrEmptyCommand is returned for a command line with no words.
var ErrEmptyCommand = errors.New("empty command")

// SubprocessError reports a child process that failed to start or exited
// non-zero.
type SubprocessError struct {
	Phase    Phase
	Command  string
	ExitCode int
	Err      error
}

func (e *SubprocessError) Error() string {
	var msg string
	switch e.Phase {
	case PhaseInstall:
		msg = "dependency install failed"
	case PhaseStart:
		msg = "startup failed"
	default:
		msg = "command failed"
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", msg, e.Command, e.Err)
	}
	return fmt.Sprintf("%s: %s exited with code %d", msg, e.Command, e.ExitCode)
}

func (e *SubprocessError) Unwrap() error { return e.Err }

// SplitCommandLine splits line into words with POSIX shell quoting rules.
// $VAR references expand from the process environment.
func SplitCommandLine(line string) ([]string, error) {
	words, err := shell.Fields(line, os.Getenv)
	if err != nil {
		return nil, fmt.Errorf("parsing command %q: %w", line, err)
	}
	if len(words) == 0 {
		return nil, ErrEmptyCommand
	}
	return words, nil
}

// RunCommandLine runs line in dir with inherited stdio. A blank line is a
// no-op. Failures are returned as *SubprocessError tagged with phase.
func RunCommandLine(ctx context.Context, phase Phase, line, dir string) error {
	return runCommandLine(ctx, phase, line, SpawnOptions{Dir: dir})
}

func runCommandLine(ctx context.Context, phase Phase, line string, opts SpawnOptions) error {
	if strings.TrimSpace(line) == "" {
		return nil
	}
	words, err := SplitCommandLine(line)
	if err != nil {
		return &SubprocessError{Phase: phase, Command: line, ExitCode: -1, Err: err}
	}
	code, err := Spawn(ctx, words[0], words[1:], opts)
	if err != nil {
		return &SubprocessError{Phase: phase, Command: line, ExitCode: code, Err: err}
	}
	if code != 0 {
		return &SubprocessError{Phase: phase, Command: line, ExitCode: code}
	}
	return nil
}
