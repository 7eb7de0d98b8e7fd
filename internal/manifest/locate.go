package manifest

import (
	"os"
	"path/filepath"
)

// FindPackageDir walks from start up to the filesystem root and returns the
// first directory containing a package.json. start need not exist.
func FindPackageDir(start string) (string, bool) {
	if start == "" {
		return "", false
	}
	abs, err := filepath.Abs(start)
	if err != nil {
		return "", false
	}

	cur := filepath.Clean(abs)
	for {
		info, err := os.Stat(filepath.Join(cur, FileName))
		if err == nil && !info.IsDir() {
			return cur, true
		}

		parent := filepath.Dir(cur)
		if parent == cur {
			return "", false
		}
		cur = parent
	}
}

// Locate returns the entry file declared by the nearest manifest at or
// above start, as an absolute forward-slash path. It returns "" with a nil
// error when no manifest is found or the manifest has no main field.
func Locate(start string) (string, error) {
	dir, ok := FindPackageDir(start)
	if !ok {
		return "", nil
	}

	pkg, err := ParsePackageJSON(filepath.Join(dir, FileName))
	if err != nil {
		return "", err
	}
	if pkg.Main == "" {
		return "", nil
	}

	entry := filepath.Join(dir, filepath.FromSlash(pkg.Main))
	return FormatPath(entry), nil
}

// FormatPath converts host path separators to forward slashes.
func FormatPath(p string) string {
	return filepath.ToSlash(p)
}
