package writeback

import (
	"fmt"
	"os"
	"path/filepath"
)

// WriteFile replaces the contents of an existing file with newContent.
// The write is atomic: content is written to a temp file in the same
// directory first, then renamed over the original. File permissions are
// preserved.
func WriteFile(path string, newContent []byte) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("stat source %s: %w", path, err)
	}

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".infs-fmt-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(newContent); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName) // best-effort cleanup
		return fmt.Errorf("write temp: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName) // best-effort cleanup
		return fmt.Errorf("close temp: %w", err)
	}

	_ = os.Chmod(tmpName, info.Mode()) // best-effort permission sync

	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName) // best-effort cleanup
		return fmt.Errorf("rename temp to %s: %w", path, err)
	}
	return nil
}

// FormatFile formats the file at path in place. It reports whether the
// content changed. Content that fails validation is left untouched and the
// *ValidationError is returned.
func FormatFile(path string) (bool, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return false, fmt.Errorf("read source %s: %w", path, err)
	}
	if err := Validate(src, path); err != nil {
		return false, err
	}
	out := FormatBuffer(src, path)
	if string(out) == string(src) {
		return false, nil
	}
	if err := WriteFile(path, out); err != nil {
		return false, err
	}
	return true, nil
}
