// Package writer contains the SnapshotWriter interface and the destinations
// a run snapshot can be written to.
package writer

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/fiscalsync/ajustes-sync/internal/records"
)

//go:generate mockgen -destination=mocks/mock_snapshot_writer.go -package=mocks -source=writer.go SnapshotWriter

// utf8BOM is prepended so spreadsheet tools detect the encoding
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// SnapshotWriter persists the normalized table of a run
type SnapshotWriter interface {
	// Write stores the records and returns the location they were written to
	Write(ctx context.Context, recs []records.Record) (string, error)
}

// WriteError reports the destinations a snapshot could not be written to
type WriteError struct {
	// Destination names each failing destination with its cause
	Destination map[string]error
}

// Error implements the error interface. Destinations are listed in sorted order.
func (e *WriteError) Error() string {
	parts := make([]string, 0, len(e.Destination))
	for _, dest := range e.destinations() {
		parts = append(parts, fmt.Sprintf("%s: %v", dest, e.Destination[dest]))
	}
	return "snapshot write failed: " + strings.Join(parts, "; ")
}

// Unwrap returns the causes so errors.Is/As can inspect them
func (e *WriteError) Unwrap() []error {
	errs := make([]error, 0, len(e.Destination))
	for _, dest := range e.destinations() {
		errs = append(errs, e.Destination[dest])
	}
	return errs
}

func (e *WriteError) destinations() []string {
	return slices.Sorted(maps.Keys(e.Destination))
}

func newWriteError(dest string, err error) *WriteError {
	return &WriteError{Destination: map[string]error{dest: err}}
}

// EncodeCSV renders the records as a UTF-8 CSV document with a BOM and header
func EncodeCSV(recs []records.Record) ([]byte, error) {
	var buf bytes.Buffer
	buf.Write(utf8BOM)

	w := csv.NewWriter(&buf)
	if err := w.Write(records.Header()); err != nil {
		return nil, fmt.Errorf("failed to write header: %w", err)
	}
	for i, rec := range recs {
		if err := w.Write(rec.Values()); err != nil {
			return nil, fmt.Errorf("failed to write record %d: %w", i, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("failed to flush csv: %w", err)
	}

	return buf.Bytes(), nil
}

// fanOutWriter writes the same snapshot to every destination
type fanOutWriter struct {
	writers []namedWriter
}

type namedWriter struct {
	name   string
	writer SnapshotWriter
}

// Write attempts every destination and reports all failures together. The
// returned location is the first successful one, in destination order.
func (f *fanOutWriter) Write(ctx context.Context, recs []records.Record) (string, error) {
	var (
		location string
		failed   = map[string]error{}
	)

	for _, nw := range f.writers {
		loc, err := nw.writer.Write(ctx, recs)
		if err != nil {
			var we *WriteError
			if errors.As(err, &we) {
				for dest, cause := range we.Destination {
					failed[dest] = cause
				}
			} else {
				failed[nw.name] = err
			}
			continue
		}
		if location == "" {
			location = loc
		}
	}

	if len(failed) > 0 {
		return location, &WriteError{Destination: failed}
	}
	return location, nil
}
