package biliupr

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// commitBinary copies src over dst. The copy goes to a temp file in dst's
// directory first and is renamed into place, so dst is never observed
// half-written. Mode and modification time of src are carried over; when
// executable is set the result is forced to 0755.
func commitBinary(src, dst string, executable bool) (err error) {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("opening extracted binary: %w", err)
	}
	defer func() { _ = in.Close() }()

	info, err := in.Stat()
	if err != nil {
		return fmt.Errorf("stat extracted binary: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(dst), "."+filepath.Base(dst)+"-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp binary: %w", err)
	}
	tmpPath := tmp.Name()
	defer func() {
		if err != nil {
			_ = os.Remove(tmpPath)
		}
	}()

	if _, err := io.Copy(tmp, in); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("copying binary: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temp binary: %w", err)
	}

	mode := info.Mode().Perm()
	if executable {
		mode = 0o755
	}
	if err := os.Chmod(tmpPath, mode); err != nil {
		return fmt.Errorf("setting permissions: %w", err)
	}
	// Best effort
	_ = os.Chtimes(tmpPath, info.ModTime(), info.ModTime())

	if err := os.Rename(tmpPath, dst); err != nil {
		return fmt.Errorf("replacing binary: %w", err)
	}
	return nil
}
