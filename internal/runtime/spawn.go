package runtime

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	goruntime "runtime"
	"strings"
)

// SpawnOptions controls a child process. Zero values inherit from the CLI:
// the working directory, the environment and the standard streams.
type SpawnOptions struct {
	Dir    string
	Env    []string
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

// Command builds the exec.Cmd for name and args on the running OS.
func Command(ctx context.Context, name string, args []string) *exec.Cmd {
	return command(ctx, goruntime.GOOS, name, args)
}

func command(ctx context.Context, goos, name string, args []string) *exec.Cmd {
	if goos == "windows" {
		return exec.CommandContext(ctx, "cmd", append([]string{"/c", name}, args...)...)
	}
	return exec.CommandContext(ctx, name, args...)
}

// Spawn runs name with args and waits for it. The exit code is returned
// with a nil error whenever the process ran; the error is set only when it
// could not be started or the context ended it.
func Spawn(ctx context.Context, name string, args []string, opts SpawnOptions) (int, error) {
	cmd := Command(ctx, name, args)
	cmd.Dir = opts.Dir
	cmd.Env = opts.Env
	cmd.Stdin = opts.Stdin
	cmd.Stdout = opts.Stdout
	cmd.Stderr = opts.Stderr
	if cmd.Stdin == nil {
		cmd.Stdin = os.Stdin
	}
	if cmd.Stdout == nil {
		cmd.Stdout = os.Stdout
	}
	if cmd.Stderr == nil {
		cmd.Stderr = os.Stderr
	}

	err := cmd.Run()
	if err == nil {
		return 0, nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return -1, fmt.Errorf("running %s: %w", name, ctxErr)
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode(), nil
	}
	return -1, fmt.Errorf("starting %s: %w", name, err)
}

// setEnv sets or replaces key in env.
func setEnv(env []string, key, value string) []string {
	prefix := key + "="
	for i, e := range env {
		if strings.HasPrefix(e, prefix) {
			env[i] = prefix + value
			return env
		}
	}
	return append(env, prefix+value)
}
