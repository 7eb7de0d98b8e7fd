package pkgcache

import (
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Entry is one cached package version found on disk.
type Entry struct {
	Name    string
	Version string
	Path    string
}

// ParseCacheKey reverses CacheKey. Scoped keys are given with their "/"
// separator, e.g. "_@acme_init@1.0.0@@acme/init".
func ParseCacheKey(key string) (name, version string, ok bool) {
	rest, found := strings.CutPrefix(filepath.ToSlash(key), "_")
	if !found {
		return "", "", false
	}

	if scoped, isScoped := strings.CutPrefix(rest, "@"); isScoped {
		parts := strings.Split(scoped, "@")
		if len(parts) != 4 || parts[2] != "" {
			return "", "", false
		}
		name, version = "@"+parts[3], parts[1]
	} else {
		parts := strings.Split(rest, "@")
		if len(parts) != 3 {
			return "", "", false
		}
		name, version = parts[2], parts[1]
	}

	if name == "" || version == "" || CacheKey(name, version) != filepath.ToSlash(key) {
		return "", "", false
	}
	return name, version, true
}

// List returns the package versions cached in storeDir, sorted by name
// then directory order. A missing store is empty.
func List(storeDir string) ([]Entry, error) {
	top, err := os.ReadDir(storeDir)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var entries []Entry
	for _, d := range top {
		if !d.IsDir() || !strings.HasPrefix(d.Name(), "_") {
			continue
		}
		if name, version, ok := ParseCacheKey(d.Name()); ok {
			entries = append(entries, Entry{Name: name, Version: version, Path: CachePath(storeDir, name, version)})
			continue
		}
		// Scoped keys span two segments.
		inner, err := os.ReadDir(filepath.Join(storeDir, d.Name()))
		if err != nil {
			continue
		}
		for _, s := range inner {
			if !s.IsDir() {
				continue
			}
			if name, version, ok := ParseCacheKey(d.Name() + "/" + s.Name()); ok {
				entries = append(entries, Entry{Name: name, Version: version, Path: CachePath(storeDir, name, version)})
			}
		}
	}
	sort.SliceStable(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })
	return entries, nil
}

// Remove deletes a cached version. For scoped packages the now-empty
// parent segment is removed too.
func Remove(storeDir string, e Entry) error {
	if err := os.RemoveAll(e.Path); err != nil {
		return err
	}
	if parent := filepath.Dir(e.Path); parent != filepath.Clean(storeDir) {
		if rest, err := os.ReadDir(parent); err == nil && len(rest) == 0 {
			return os.Remove(parent)
		}
	}
	return nil
}
