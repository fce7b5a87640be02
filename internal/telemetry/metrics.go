package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	// FetchMetricsMeterName is the name used for the region fetch meter
	FetchMetricsMeterName = "github.com/fiscalsync/ajustes-sync/fetch"

	// SyncMetricsMeterName is the name used for the sync meter
	SyncMetricsMeterName = "github.com/fiscalsync/ajustes-sync/sync"
)

// FetchMetrics holds the instruments for region fetches
type FetchMetrics struct {
	fetchTotal    metric.Int64Counter
	fetchDuration metric.Float64Histogram
	rowsFetched   metric.Int64Counter
}

// NewFetchMetrics creates the region fetch instruments.
// If provider is nil, it returns nil (no-op metrics).
func NewFetchMetrics(provider metric.MeterProvider) (*FetchMetrics, error) {
	if provider == nil {
		return nil, nil
	}

	meter := provider.Meter(FetchMetricsMeterName)

	fetchTotal, err := meter.Int64Counter(
		"ajustes_region_fetch_total",
		metric.WithDescription("Region fetches by outcome"),
		metric.WithUnit("{fetch}"),
	)
	if err != nil {
		return nil, err
	}

	fetchDuration, err := meter.Float64Histogram(
		"ajustes_region_fetch_duration_seconds",
		metric.WithDescription("Duration of region fetches in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30),
	)
	if err != nil {
		return nil, err
	}

	rowsFetched, err := meter.Int64Counter(
		"ajustes_rows_fetched_total",
		metric.WithDescription("Raw rows parsed from region tables"),
		metric.WithUnit("{row}"),
	)
	if err != nil {
		return nil, err
	}

	return &FetchMetrics{
		fetchTotal:    fetchTotal,
		fetchDuration: fetchDuration,
		rowsFetched:   rowsFetched,
	}, nil
}

// RecordFetch records one region fetch outcome
func (m *FetchMetrics) RecordFetch(ctx context.Context, region, outcome string, duration time.Duration, rows int) {
	if m == nil {
		return
	}

	attrs := metric.WithAttributes(
		attribute.String("region", region),
		attribute.String("outcome", outcome),
	)

	m.fetchTotal.Add(ctx, 1, attrs)
	m.fetchDuration.Record(ctx, duration.Seconds(), attrs)
	if rows > 0 {
		m.rowsFetched.Add(ctx, int64(rows), metric.WithAttributes(attribute.String("region", region)))
	}
}

// SyncMetrics holds the instruments for downstream delivery
type SyncMetrics struct {
	syncDuration     metric.Float64Histogram
	recordsDelivered metric.Int64Gauge
}

// NewSyncMetrics creates the sync instruments.
// If provider is nil, it returns nil (no-op metrics).
func NewSyncMetrics(provider metric.MeterProvider) (*SyncMetrics, error) {
	if provider == nil {
		return nil, nil
	}

	meter := provider.Meter(SyncMetricsMeterName)

	syncDuration, err := meter.Float64Histogram(
		"ajustes_sync_duration_seconds",
		metric.WithDescription("Duration of the downstream delivery in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.5, 1, 2.5, 5, 10, 30, 60, 120),
	)
	if err != nil {
		return nil, err
	}

	recordsDelivered, err := meter.Int64Gauge(
		"ajustes_records_delivered",
		metric.WithDescription("Records delivered by the last sync"),
		metric.WithUnit("{record}"),
	)
	if err != nil {
		return nil, err
	}

	return &SyncMetrics{
		syncDuration:     syncDuration,
		recordsDelivered: recordsDelivered,
	}, nil
}

// RecordSync records one delivery attempt. Delivered is only recorded on success.
func (m *SyncMetrics) RecordSync(ctx context.Context, duration time.Duration, delivered int, success bool) {
	if m == nil {
		return
	}

	m.syncDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attribute.Bool("success", success)))
	if success {
		m.recordsDelivered.Record(ctx, int64(delivered))
	}
}
