package status

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

//go:generate mockgen -destination=mocks/mock_report_persistence.go -package=mocks -source=persistence.go ReportPersistence

// ErrNoReport is returned by Load when no report has been saved yet
var ErrNoReport = errors.New("no run report found")

// ReportPersistence stores the report of the latest run
type ReportPersistence interface {
	// Save replaces the stored report
	Save(ctx context.Context, report *RunReport) error

	// Load returns the stored report, or ErrNoReport on first run
	Load(ctx context.Context) (*RunReport, error)
}

// fileReportPersistence implements ReportPersistence using a local JSON file
type fileReportPersistence struct {
	path string
}

// NewFileReportPersistence creates a file-based report persistence
func NewFileReportPersistence(path string) ReportPersistence {
	return &fileReportPersistence{path: filepath.Clean(path)}
}

// Save writes the report as JSON through a temp file and rename
func (f *fileReportPersistence) Save(_ context.Context, report *RunReport) error {
	if report == nil {
		return fmt.Errorf("report is required")
	}

	if err := os.MkdirAll(filepath.Dir(f.path), 0750); err != nil {
		return fmt.Errorf("failed to create report directory: %w", err)
	}

	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal run report: %w", err)
	}

	tempPath := f.path + ".tmp"
	if err := os.WriteFile(tempPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write temporary report file: %w", err)
	}

	if err := os.Rename(tempPath, f.path); err != nil {
		_ = os.Remove(tempPath)
		return fmt.Errorf("failed to rename report file: %w", err)
	}

	return nil
}

// Load reads the report file
func (f *fileReportPersistence) Load(_ context.Context) (*RunReport, error) {
	// #nosec G304 -- path comes from operator configuration
	data, err := os.ReadFile(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNoReport
		}
		return nil, fmt.Errorf("failed to read report file: %w", err)
	}

	var report RunReport
	if err := json.Unmarshal(data, &report); err != nil {
		return nil, fmt.Errorf("failed to unmarshal run report: %w", err)
	}

	return &report, nil
}
