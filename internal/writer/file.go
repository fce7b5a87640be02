package writer

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/fiscalsync/ajustes-sync/internal/records"
)

// FileWriter writes the snapshot to a local file, replacing it atomically
type FileWriter struct {
	path string
}

// NewFileWriter creates a writer for the given path
func NewFileWriter(path string) (*FileWriter, error) {
	if path == "" {
		return nil, fmt.Errorf("snapshot path is required")
	}
	return &FileWriter{path: filepath.Clean(path)}, nil
}

// Path returns the target file path
func (f *FileWriter) Path() string {
	return f.path
}

// Write encodes the records and swaps them into place through a temp file
func (f *FileWriter) Write(_ context.Context, recs []records.Record) (string, error) {
	data, err := EncodeCSV(recs)
	if err != nil {
		return "", newWriteError(f.path, err)
	}

	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return "", newWriteError(f.path, fmt.Errorf("failed to create snapshot directory: %w", err))
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(f.path)+".*.tmp")
	if err != nil {
		return "", newWriteError(f.path, fmt.Errorf("failed to create temporary snapshot file: %w", err))
	}
	tempPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tempPath)
		return "", newWriteError(f.path, fmt.Errorf("failed to write temporary snapshot file: %w", err))
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tempPath)
		return "", newWriteError(f.path, fmt.Errorf("failed to close temporary snapshot file: %w", err))
	}

	if err := os.Rename(tempPath, f.path); err != nil {
		_ = os.Remove(tempPath)
		return "", newWriteError(f.path, fmt.Errorf("failed to rename snapshot file: %w", err))
	}

	slog.Info("Snapshot written", "path", f.path, "records", len(recs), "bytes", len(data))
	return f.path, nil
}
