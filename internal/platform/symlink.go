package platform

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

const sidecarSuffix = ".target"

// LinkDir points link at the directory target, replacing any existing link
// or sidecar at that path. Parent directories of link are created. A real
// directory at link is left alone and reported as an error.
//
// On Windows, when symlinks are unavailable, only a sidecar is written.
func LinkDir(target, link string) error {
	if err := os.MkdirAll(filepath.Dir(link), 0755); err != nil {
		return fmt.Errorf("creating link parent: %w", err)
	}

	if info, err := os.Lstat(link); err == nil {
		if info.Mode()&os.ModeSymlink == 0 {
			return fmt.Errorf("%s exists and is not a link", link)
		}
		if err := os.Remove(link); err != nil {
			return fmt.Errorf("removing stale link: %w", err)
		}
	}
	os.Remove(link + sidecarSuffix)

	err := os.Symlink(target, link)
	if err == nil || runtime.GOOS != "windows" {
		return err
	}
	if werr := os.WriteFile(link+sidecarSuffix, []byte(target), 0644); werr != nil {
		return fmt.Errorf("symlink failed (%v) and sidecar could not be written: %w", err, werr)
	}
	return nil
}

// RemoveLink removes a link and its sidecar. A missing link is not an error.
func RemoveLink(path string) error {
	err := os.Remove(path)
	os.Remove(path + sidecarSuffix)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

// ReadLinkTarget returns where link points, consulting the sidecar when the
// path is not a symlink.
func ReadLinkTarget(link string) (string, error) {
	target, err := os.Readlink(link)
	if err == nil {
		return target, nil
	}
	data, serr := os.ReadFile(link + sidecarSuffix)
	if serr != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}
