package pkgcache

import (
	"path/filepath"
	"strings"
)

// LatestVersion is the sentinel asking for the newest published version.
const LatestVersion = "latest"

// CacheKey returns the directory name for name at version:
// "_<name with scope separator replaced>@<version>@<name>".
//
// Scoped names keep their "/" in the trailing part, so for "@acme/init" the
// key is "_@acme_init@1.0.0@@acme/init" and spans two path segments.
func CacheKey(name, version string) string {
	return "_" + strings.Replace(name, "/", "_", 1) + "@" + version + "@" + name
}

// CachePath returns the absolute cache directory for name at version under
// storeDir. It does not touch the filesystem. Passing LatestVersion yields
// a path no install will ever create.
func CachePath(storeDir, name, version string) string {
	p := filepath.Join(storeDir, CacheKey(name, version))
	if abs, err := filepath.Abs(p); err == nil {
		return abs
	}
	return p
}
