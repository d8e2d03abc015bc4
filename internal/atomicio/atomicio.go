// Package atomicio provides crash-safe file replacement: content is written to
// a temporary file in the destination directory and renamed over the target,
// so a reader never observes a partially written file.
package atomicio

import (
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
)

// WriteFile atomically replaces the file at path with data.
func WriteFile(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return eris.Wrap(err, "atomicio: create temp file")
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close() //nolint:errcheck
		os.Remove(tmpName)
		return eris.Wrap(err, "atomicio: write temp file")
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close() //nolint:errcheck
		os.Remove(tmpName)
		return eris.Wrap(err, "atomicio: sync temp file")
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return eris.Wrap(err, "atomicio: close temp file")
	}

	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return eris.Wrap(err, "atomicio: rename into place")
	}
	return nil
}
