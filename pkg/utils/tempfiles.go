package utils

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// CreateTempFile creates a temp file in dir with a unique name and extension.
// Returns the full path and the open file handle.
func CreateTempFile(dir, prefix, ext string) (string, *os.File, error) {
	name := fmt.Sprintf("%s_%s%s", prefix, uuid.NewString(), ext)
	fullPath := filepath.Join(dir, name)
	f, err := os.OpenFile(fullPath, os.O_RDWR|os.O_CREATE|os.O_EXCL, 0600)
	if err != nil {
		return "", nil, err
	}
	return fullPath, f, nil
}

// WriteFileAtomic writes data to a temp file next to path and renames it into
// place. On failure the previous contents of path are left untouched.
func WriteFileAtomic(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	tmpPath, f, err := CreateTempFile(dir, "."+filepath.Base(path), ".tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}

	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to sync temp file: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Chmod(tmpPath, perm); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to set permissions: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to replace %s: %w", path, err)
	}
	return nil
}

// RemoveAllTempFiles removes all temp files in tempDir matching the given prefix and extension.
// Example: RemoveAllTempFiles(dir, "*", ".tmp") removes leftovers of interrupted atomic writes.
func RemoveAllTempFiles(tempDir, prefix, ext string) (int, error) {
	if _, err := os.Stat(tempDir); os.IsNotExist(err) {
		return 0, nil // Nothing to clean
	}

	pattern := filepath.Join(tempDir, fmt.Sprintf("%s_*%s", prefix, ext))
	files, err := filepath.Glob(pattern)
	if err != nil {
		return 0, fmt.Errorf("failed to glob temp files: %w", err)
	}

	removed := 0
	var firstErr error
	for _, file := range files {
		if err := os.Remove(file); err != nil {
			if firstErr == nil {
				firstErr = fmt.Errorf("failed to remove temp file %s: %w", file, err)
			}
			continue
		}
		removed++
	}
	return removed, firstErr
}
