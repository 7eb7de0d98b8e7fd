package updater

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

const (
	cacheFileName = "version-check.json"
	// DefaultCacheMaxAge is how long a registry answer is trusted.
	DefaultCacheMaxAge = 24 * time.Hour
)

// VersionCache is the last registry answer for the CLI package.
type VersionCache struct {
	Package        string    `json:"package"`
	CurrentVersion string    `json:"current_version"`
	// LatestVersion is "" when nothing newer than CurrentVersion was published.
	LatestVersion string    `json:"latest_version,omitempty"`
	CheckedAt     time.Time `json:"checked_at"`
}

// CachePath returns the cache file location under dir.
func CachePath(dir string) string {
	return filepath.Join(dir, cacheFileName)
}

// LoadCache reads the cache in dir. A missing file yields nil, nil.
func LoadCache(dir string) (*VersionCache, error) {
	data, err := os.ReadFile(CachePath(dir))
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading version cache: %w", err)
	}

	var c VersionCache
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parsing version cache: %w", err)
	}
	return &c, nil
}

// SaveCache writes c to dir through a temp file and rename.
func SaveCache(dir string, c *VersionCache) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating cache directory: %w", err)
	}
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling version cache: %w", err)
	}

	tmp, err := os.CreateTemp(dir, cacheFileName+".*")
	if err != nil {
		return fmt.Errorf("creating temp cache file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("writing version cache: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("writing version cache: %w", err)
	}
	if err := os.Rename(tmp.Name(), CachePath(dir)); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("replacing version cache: %w", err)
	}
	return nil
}

// Stale reports whether c must be refreshed: it is missing, older than
// maxAge, or was written for a different package or CLI version.
func (c *VersionCache) Stale(pkg, current string, now time.Time, maxAge time.Duration) bool {
	if c == nil {
		return true
	}
	if c.Package != pkg || c.CurrentVersion != current {
		return true
	}
	return now.Sub(c.CheckedAt) > maxAge
}
