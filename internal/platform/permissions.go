package platform

import (
	"os"
	"runtime"
)

// Chmod sets permission bits. It is a no-op on Windows.
func Chmod(path string, mode os.FileMode) error {
	if runtime.GOOS == "windows" {
		return nil
	}
	return os.Chmod(path, mode)
}

// FileMode normalizes a tar header mode for an extracted file: owner
// read/write is always granted, and executable bits are kept only when the
// archive set one.
func FileMode(headerMode int64) os.FileMode {
	mode := os.FileMode(0644)
	if headerMode&0111 != 0 {
		mode = 0755
	}
	return mode
}
