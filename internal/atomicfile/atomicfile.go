// Package atomicfile replaces files so that readers see either the old or
// the new content, never a partial write.
package atomicfile

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/spf13/afero"
)

// Writer writes files atomically on a filesystem
type Writer struct {
	fs afero.Fs
}

// NewWriter creates a writer on the given filesystem
func NewWriter(fs afero.Fs) *Writer {
	return &Writer{fs: fs}
}

// NewOsWriter creates a writer on the OS filesystem
func NewOsWriter() *Writer {
	return NewWriter(afero.NewOsFs())
}

// Write stores data at path. The data goes to a temporary file in the same
// directory, is synced, then renamed over path.
func (w *Writer) Write(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	if err := w.fs.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	tmpPath := filepath.Join(dir, "."+filepath.Base(path)+"."+uuid.NewString()+".tmp")
	f, err := w.fs.OpenFile(tmpPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, perm)
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}

	if _, err := f.Write(data); err != nil {
		f.Close()
		w.fs.Remove(tmpPath)
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		w.fs.Remove(tmpPath)
		return fmt.Errorf("failed to sync temp file: %w", err)
	}
	if err := f.Close(); err != nil {
		w.fs.Remove(tmpPath)
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := w.fs.Rename(tmpPath, path); err != nil {
		w.fs.Remove(tmpPath)
		return fmt.Errorf("failed to replace %s: %w", path, err)
	}

	// Persist the rename itself. Only possible on a real directory.
	if _, ok := w.fs.(*afero.OsFs); ok {
		if d, err := os.Open(dir); err == nil {
			d.Sync()
			d.Close()
		}
	}
	return nil
}

// ReadFile reads a whole file
func (w *Writer) ReadFile(path string) ([]byte, error) {
	return afero.ReadFile(w.fs, path)
}
