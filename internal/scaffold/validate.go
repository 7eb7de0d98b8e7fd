package scaffold

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/Masterminds/semver/v3"
)

var (
	ErrInvalidProjectName = errors.New("invalid project name")
	ErrInvalidVersion     = errors.New("invalid project version")
)

// Names start with a letter; "-" and "_" must be followed by a letter, so
// "a", "a1", "a-b" and "a_b" pass while "a-", "a_" and "1a" do not.
var projectNamePattern = regexp.MustCompile(`^[a-zA-Z]+([-][a-zA-Z][a-zA-Z0-9]*|[_][a-zA-Z][a-zA-Z0-9]*|[a-zA-Z0-9])*$`)

// ValidateProjectName checks a project name.
func ValidateProjectName(name string) error {
	if !projectNamePattern.MatchString(name) {
		return fmt.Errorf("%w: %q", ErrInvalidProjectName, name)
	}
	return nil
}

// ValidateVersion checks a semantic version and returns it normalized:
// surrounding space and a leading "v" or "=" are dropped.
func ValidateVersion(v string) (string, error) {
	s := strings.TrimSpace(v)
	s = strings.TrimLeft(s, "=v")
	parsed, err := semver.StrictNewVersion(s)
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrInvalidVersion, v)
	}
	return parsed.String(), nil
}

// IsDirEmpty reports whether dir holds nothing besides dot-files and
// node_modules. A missing directory counts as empty.
func IsDirEmpty(dir string) (bool, error) {
	entries, err := os.ReadDir(dir)
	if errors.Is(err, os.ErrNotExist) {
		return true, nil
	}
	if err != nil {
		return false, fmt.Errorf("reading %s: %w", dir, err)
	}
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), ".") || e.Name() == "node_modules" {
			continue
		}
		return false, nil
	}
	return true, nil
}

// EmptyDir removes everything inside dir, creating dir if it is missing.
func EmptyDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if errors.Is(err, os.ErrNotExist) {
		return os.MkdirAll(dir, 0755)
	}
	if err != nil {
		return fmt.Errorf("reading %s: %w", dir, err)
	}
	for _, e := range entries {
		if err := os.RemoveAll(filepath.Join(dir, e.Name())); err != nil {
			return fmt.Errorf("removing %s: %w", e.Name(), err)
		}
	}
	return nil
}
