package status

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"

	"github.com/fiscalsync/ajustes-sync/internal/sources"
)

// maxDetailWidth truncates long causes so the region table stays readable
const maxDetailWidth = 80

// Render prints the per-region table followed by a run summary
func (r *RunReport) Render(w io.Writer) error {
	regions := tablewriter.NewWriter(w)
	regions.Header("Region", "Outcome", "Rows", "HTTP", "Duration", "Detail")
	for _, region := range r.Regions {
		httpStatus := ""
		if region.StatusCode > 0 {
			httpStatus = strconv.Itoa(region.StatusCode)
		}
		if err := regions.Append(
			region.Region,
			string(region.Outcome),
			strconv.Itoa(region.Rows),
			httpStatus,
			region.Duration.Round(time.Millisecond).String(),
			truncate(region.Message, maxDetailWidth),
		); err != nil {
			return fmt.Errorf("failed to render region %s: %w", region.Region, err)
		}
	}
	if err := regions.Render(); err != nil {
		return fmt.Errorf("failed to render region table: %w", err)
	}

	summary := tablewriter.NewWriter(w)
	summary.Header("Field", "Value")
	for _, line := range r.summaryLines() {
		if err := summary.Append(line[0], line[1]); err != nil {
			return fmt.Errorf("failed to render summary: %w", err)
		}
	}
	if err := summary.Render(); err != nil {
		return fmt.Errorf("failed to render summary table: %w", err)
	}

	return nil
}

func (r *RunReport) summaryLines() [][2]string {
	counts := r.Counts()
	outcomes := make([]string, 0, len(sources.OutcomeKinds))
	for _, kind := range sources.OutcomeKinds {
		outcomes = append(outcomes, fmt.Sprintf("%s=%d", kind, counts[kind]))
	}

	lines := [][2]string{
		{"Run ID", r.RunID},
		{"Phase", string(r.Phase)},
		{"Duration", r.Duration().Round(time.Millisecond).String()},
		{"Regions", strings.Join(outcomes, " ")},
		{"Records", strconv.Itoa(r.RecordCount)},
		{"Snapshot", describeSnapshot(r.Snapshot)},
		{"Sync", describeSync(r.Sync)},
	}
	return lines
}

func describeSnapshot(s *SnapshotStatus) string {
	switch {
	case s == nil:
		return "not written"
	case s.Error != "":
		return "failed: " + truncate(s.Error, maxDetailWidth)
	default:
		return s.Location
	}
}

func describeSync(s *SyncStatus) string {
	switch {
	case s == nil:
		return "not attempted"
	case s.Error != "":
		return "failed: " + truncate(s.Error, maxDetailWidth)
	case s.Skipped:
		return "skipped (" + s.Reason + ")"
	default:
		return fmt.Sprintf("delivered %d records", s.Delivered)
	}
}

func truncate(s string, width int) string {
	s = strings.Join(strings.Fields(s), " ")
	runes := []rune(s)
	if len(runes) <= width {
		return s
	}
	return string(runes[:width-3]) + "..."
}
