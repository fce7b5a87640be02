package writer

import (
	"context"
	"fmt"

	"github.com/fiscalsync/ajustes-sync/internal/config"
)

// NewSnapshotWriter creates the SnapshotWriter for the configured destinations.
//
// The local file is always written. When an S3 destination is configured the
// snapshot is fanned out to both, and a failure in either is reported.
func NewSnapshotWriter(ctx context.Context, cfg *config.SnapshotConfig) (SnapshotWriter, error) {
	if cfg == nil {
		return nil, fmt.Errorf("snapshot configuration is required")
	}

	fileWriter, err := NewFileWriter(cfg.GetPath())
	if err != nil {
		return nil, err
	}

	if !cfg.S3Enabled() {
		return fileWriter, nil
	}

	s3Writer, err := NewS3WriterFromDefaultConfig(ctx, cfg.S3.Bucket, cfg.S3Key(), cfg.S3.Region)
	if err != nil {
		return nil, fmt.Errorf("failed to create S3 snapshot writer: %w", err)
	}

	return NewFanOutWriter(fileWriter, s3Writer), nil
}

// NewFanOutWriter writes to the file destination and then to S3
func NewFanOutWriter(file *FileWriter, s3w *S3Writer) SnapshotWriter {
	return &fanOutWriter{writers: []namedWriter{
		{name: file.Path(), writer: file},
		{name: s3w.Location(), writer: s3w},
	}}
}
