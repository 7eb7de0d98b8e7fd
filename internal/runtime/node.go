package runtime

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/Masterminds/semver/v3"

	"github.com/stencil-labs/stencil/internal/branding"
)

// DefaultNodeMinVersion is the oldest Node.js the CLI will run entries with.
const DefaultNodeMinVersion = "12.0.0"

// ErrNodeTooOld is returned by CheckNodeVersion.
var ErrNodeTooOld = errors.New("node.js version too old")

var (
	entryEnv   = branding.EnvVar("ENTRY")
	payloadEnv = branding.EnvVar("PAYLOAD")
)

// loaderScript requires the module named by the entry variable and calls its
// export with the decoded payload. It uses no double quotes so it survives
// "cmd /c" argument quoting on Windows.
var loaderScript = strings.Join([]string{
	"const m = require(process.env." + entryEnv + ");",
	"const fn = typeof m === 'function' ? m : (m && m.default);",
	"if (typeof fn !== 'function') { console.error('entry does not export a function: ' + process.env." + entryEnv + "); process.exit(1); }",
	"Promise.resolve(fn(JSON.parse(process.env." + payloadEnv + " || 'null'))).catch(function (e) { console.error((e && e.stack) || e); process.exit(1); });",
}, " ")

// NodeRuntime runs package entry points with Node.js.
type NodeRuntime struct {
	// Stdout and Stderr default to the CLI's own streams.
	Stdout io.Writer
	Stderr io.Writer
	// Dir is the child's working directory; empty means the CLI's.
	Dir string
}

// Run calls the function exported by entry with payload, JSON-encoded. It
// returns node's exit code.
func (n *NodeRuntime) Run(ctx context.Context, entry string, payload any) (int, error) {
	if _, err := exec.LookPath("node"); err != nil {
		return -1, fmt.Errorf("running %s requires Node.js: %w", entry, err)
	}
	entry, err := ResolveEntry(entry)
	if err != nil {
		return -1, err
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return -1, fmt.Errorf("encoding payload: %w", err)
	}

	env := os.Environ()
	env = setEnv(env, entryEnv, entry)
	env = setEnv(env, payloadEnv, string(data))

	return Spawn(ctx, "node", []string{"-e", loaderScript}, SpawnOptions{
		Dir:    n.Dir,
		Env:    env,
		Stdout: n.Stdout,
		Stderr: n.Stderr,
	})
}

// entryExtensions are tried in order after the bare path, as require does.
var entryExtensions = []string{".js", ".json", ".node"}

// ResolveEntry finds the file require would load for entry: the path
// itself, the path with a known extension, or an index file inside it.
func ResolveEntry(entry string) (string, error) {
	if file, ok := resolveFile(entry); ok {
		return file, nil
	}
	if file, ok := resolveFile(filepath.Join(entry, "index")); ok {
		return file, nil
	}
	return "", fmt.Errorf("entry point not found at %s: %w", entry, os.ErrNotExist)
}

func resolveFile(base string) (string, bool) {
	if isFile(base) {
		return base, true
	}
	for _, ext := range entryExtensions {
		if isFile(base + ext) {
			return base + ext, true
		}
	}
	return "", false
}

func isFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

// NodeVersion returns the version reported by `node --version`, without
// the leading "v".
func NodeVersion(ctx context.Context) (string, error) {
	var out bytes.Buffer
	cmd := Command(ctx, "node", []string{"--version"})
	cmd.Stdout = &out
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("running node --version: %w", err)
	}
	return strings.TrimPrefix(strings.TrimSpace(out.String()), "v"), nil
}

// CheckNodeVersion fails unless the installed Node.js is at least lowest.
func CheckNodeVersion(ctx context.Context, lowest string) (string, error) {
	current, err := NodeVersion(ctx)
	if err != nil {
		return "", err
	}
	return current, compareNodeVersion(current, lowest)
}

func compareNodeVersion(current, lowest string) error {
	if lowest == "" {
		lowest = DefaultNodeMinVersion
	}
	floor, err := semver.NewVersion(lowest)
	if err != nil {
		return fmt.Errorf("invalid minimum node version %q: %w", lowest, err)
	}
	cur, err := semver.NewVersion(current)
	if err != nil {
		return fmt.Errorf("unrecognized node version %q: %w", current, err)
	}
	if cur.LessThan(floor) {
		return fmt.Errorf("%w: need v%s or later, found v%s", ErrNodeTooOld, floor, cur)
	}
	return nil
}
