// Package filex provides small filesystem helpers shared by storage code.
package filex

import (
	"fmt"
	"os"
	"path/filepath"
)

// EnsureDir creates dir (including parents) if it does not exist yet and
// returns the path unchanged.
func EnsureDir(dir string) (string, error) {
	if err := os.MkdirAll(dir, 0o770); err != nil {
		return "", fmt.Errorf("mkdir %s: %w", dir, err)
	}
	return dir, nil
}

// WriteAtomic writes b to path with replace semantics: the bytes go to a
// temp file in the target directory first and are then renamed over path.
// A reader never observes a partially written file.
func WriteAtomic(path string, b []byte) error {
	dir := filepath.Dir(path)

	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp in %s: %w", dir, err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(b); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("write %s: %w", tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("close %s: %w", tmpName, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("rename %s -> %s: %w", tmpName, path, err)
	}
	return nil
}
