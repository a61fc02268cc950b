// Package atomicfile replaces files through a temp file and a rename, so
// readers never observe a partially written file.
package atomicfile

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// TempPrefix is the prefix of the temporary files created next to the target.
const TempPrefix = "fieldkit-tmp-"

// IsTemp reports whether name is an in-flight temporary file.
// Watchers use it to ignore their own writes.
func IsTemp(name string) bool {
	return strings.HasPrefix(filepath.Base(name), TempPrefix)
}

// WriteFile writes data to filename atomically, creating parent directories.
// The temporary file is removed on every failure path.
func WriteFile(filename string, data []byte, perm os.FileMode) (err error) {
	dir := filepath.Dir(filename)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, TempPrefix+"*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	steps := []struct {
		op string
		fn func() error
	}{
		{"write", func() error { _, err := tmp.Write(data); return err }},
		{"sync", tmp.Sync},
		{"chmod", func() error { return tmp.Chmod(perm) }},
		{"close", tmp.Close},
	}
	for _, s := range steps {
		if err := s.fn(); err != nil {
			return fmt.Errorf("failed to %s temp file: %w", s.op, err)
		}
	}

	if err := os.Rename(tmpName, filename); err != nil {
		return fmt.Errorf("failed to replace %s: %w", filename, err)
	}
	return nil
}
