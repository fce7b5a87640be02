// Package app wires the pipeline components together and runs one
// fetch, normalize, snapshot and sync cycle.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/fiscalsync/ajustes-sync/internal/config"
	"github.com/fiscalsync/ajustes-sync/internal/coordinator"
	"github.com/fiscalsync/ajustes-sync/internal/otel"
	"github.com/fiscalsync/ajustes-sync/internal/records"
	"github.com/fiscalsync/ajustes-sync/internal/sources"
	"github.com/fiscalsync/ajustes-sync/internal/status"
	pkgsync "github.com/fiscalsync/ajustes-sync/internal/sync"
	"github.com/fiscalsync/ajustes-sync/internal/versions"
)

// SyncApp runs the adjustment code pipeline
type SyncApp struct {
	config     *config.Config
	components *AppComponents
	tracer     trace.Tracer

	now      func() time.Time
	newRunID func() string
}

// Run executes one pipeline run.
//
// When no region contributes rows the report is returned with phase NoData
// together with coordinator.ErrNoDataAvailable, and nothing is written or
// synced. Otherwise the snapshot is written before the sync is attempted and
// the returned error joins both failures.
func (a *SyncApp) Run(ctx context.Context) (*status.RunReport, error) {
	runID := a.newRunID()
	ctx = pkgsync.ContextWithRunID(ctx, runID)
	ctx, span := otel.StartSpan(ctx, a.tracer, "ajustes.run", trace.WithAttributes(otel.AttrRunID.String(runID)))
	defer span.End()

	report := &status.RunReport{
		RunID:     runID,
		Version:   versions.GetVersionInfo().Version,
		StartedAt: a.now(),
	}
	slog.Info("Starting run", "run_id", runID, "regions", len(a.config.Regions))

	result, err := a.components.Coordinator.Run(ctx, a.config.Regions)
	if result != nil {
		report.Regions = status.NewRegionStatuses(result.Outcomes)
	}
	if err != nil {
		if !errors.Is(err, coordinator.ErrNoDataAvailable) {
			otel.RecordError(span, err, "fetch phase failed")
			return nil, fmt.Errorf("fetch phase failed: %w", err)
		}
		report.Phase = status.PhaseNoData
		a.finish(ctx, span, report)
		return report, err
	}

	recs := records.Normalize(result.Rows)
	report.RecordCount = len(recs)

	location, writeErr := a.components.SnapshotWriter.Write(ctx, recs)
	report.Snapshot = &status.SnapshotStatus{Location: location}
	if writeErr != nil {
		report.Snapshot.Error = writeErr.Error()
		slog.Error("Snapshot write failed", "run_id", runID, "error", writeErr)
	}

	syncResult, syncErr := a.components.Synchronizer.Deliver(ctx, recs)
	report.Sync = newSyncStatus(syncResult, syncErr)
	if syncErr != nil {
		slog.Error("Sync failed", "run_id", runID, "error", syncErr)
	}

	runErr := errors.Join(writeErr, syncErr)
	report.Phase = status.PhaseComplete
	if runErr != nil {
		report.Phase = status.PhasePartiallyFailed
		otel.RecordError(span, runErr, string(report.Phase))
	}

	a.finish(ctx, span, report)
	return report, runErr
}

// GetConfig returns the application configuration
func (a *SyncApp) GetConfig() *config.Config {
	return a.config
}

func (a *SyncApp) finish(ctx context.Context, span trace.Span, report *status.RunReport) {
	report.FinishedAt = a.now()
	span.SetAttributes(
		otel.AttrPhase.String(string(report.Phase)),
		otel.AttrRecordCount.Int(report.RecordCount),
	)

	counts := report.Counts()
	args := []any{
		"run_id", report.RunID,
		"phase", report.Phase,
		"records", report.RecordCount,
		"duration", report.Duration(),
	}
	for _, kind := range sources.OutcomeKinds {
		args = append(args, string(kind), counts[kind])
	}
	slog.Info("Run finished", args...)

	if a.components.ReportPersistence == nil {
		return
	}
	if err := a.components.ReportPersistence.Save(ctx, report); err != nil {
		slog.Warn("Failed to persist run report", "run_id", report.RunID, "error", err)
	}
}

func newSyncStatus(result *pkgsync.Result, err error) *status.SyncStatus {
	s := &status.SyncStatus{}
	if result != nil {
		s.Delivered = result.Delivered
		s.Skipped = result.Skipped
		s.Reason = result.Reason
		s.Confirmation = result.Confirmation
	}
	if err != nil {
		s.Error = err.Error()
		var deliveryErr *pkgsync.DeliveryError
		if errors.As(err, &deliveryErr) {
			s.StatusCode = deliveryErr.StatusCode
		}
	}
	return s
}
