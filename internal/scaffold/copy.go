package scaffold

import (
	"os"
	"path/filepath"
)

// skippedNames are never copied out of a template.
var skippedNames = map[string]bool{
	"node_modules": true,
	".git":         true,
	".DS_Store":    true,
}

// copyDir recursively copies src into dst and returns the copied files as
// slash-separated paths relative to dst. Symlinks and special files are
// skipped.
func copyDir(src, dst string) ([]string, error) {
	var files []string
	err := copyTree(src, dst, "", &files)
	return files, err
}

func copyTree(src, dst, rel string, files *[]string) error {
	info, err := os.Stat(src)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dst, info.Mode().Perm()|0700); err != nil {
		return err
	}

	entries, err := os.ReadDir(src)
	if err != nil {
		return err
	}
	for _, entry := range entries {
		if skippedNames[entry.Name()] {
			continue
		}
		srcPath := filepath.Join(src, entry.Name())
		dstPath := filepath.Join(dst, entry.Name())
		relPath := entry.Name()
		if rel != "" {
			relPath = rel + "/" + entry.Name()
		}

		switch {
		case entry.IsDir():
			if err := copyTree(srcPath, dstPath, relPath, files); err != nil {
				return err
			}
		case entry.Type().IsRegular():
			if err := copyFile(srcPath, dstPath); err != nil {
				return err
			}
			*files = append(*files, relPath)
		}
	}
	return nil
}

// copyFile copies a single file, preserving permissions.
func copyFile(src, dst string) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	info, err := os.Stat(src)
	if err != nil {
		return err
	}
	return os.WriteFile(dst, data, info.Mode().Perm())
}
