package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"

	"github.com/fiscalsync/ajustes-sync/internal/config"
	"github.com/fiscalsync/ajustes-sync/internal/coordinator"
	"github.com/fiscalsync/ajustes-sync/internal/httpclient"
	"github.com/fiscalsync/ajustes-sync/internal/sources"
	"github.com/fiscalsync/ajustes-sync/internal/status"
	pkgsync "github.com/fiscalsync/ajustes-sync/internal/sync"
	"github.com/fiscalsync/ajustes-sync/internal/telemetry"
	"github.com/fiscalsync/ajustes-sync/internal/writer"
)

// SyncAppOptions is a function that configures the sync app builder
type SyncAppOptions func(*syncAppConfig) error

// syncAppConfig holds what is needed to build a SyncApp.
// Component overrides are primarily for testing.
type syncAppConfig struct {
	config *config.Config

	fetcher           sources.RegionFetcher
	synchronizer      pkgsync.Synchronizer
	snapshotWriter    writer.SnapshotWriter
	reportPersistence status.ReportPersistence

	meterProvider  metric.MeterProvider
	tracerProvider trace.TracerProvider

	now      func() time.Time
	newRunID func() string
}

func baseConfig(opts ...SyncAppOptions) (*syncAppConfig, error) {
	cfg := &syncAppConfig{
		now:      time.Now,
		newRunID: uuid.NewString,
	}

	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}

	if cfg.config == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if cfg.tracerProvider == nil {
		cfg.tracerProvider = tracenoop.NewTracerProvider()
	}

	return cfg, nil
}

// NewSyncApp builds a SyncApp from configuration
func NewSyncApp(ctx context.Context, opts ...SyncAppOptions) (*SyncApp, error) {
	cfg, err := baseConfig(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to build base configuration: %w", err)
	}

	components, err := buildComponents(ctx, cfg)
	if err != nil {
		return nil, err
	}

	return &SyncApp{
		config:     cfg.config,
		components: components,
		tracer:     cfg.tracerProvider.Tracer(telemetry.TracerName),
		now:        cfg.now,
		newRunID:   cfg.newRunID,
	}, nil
}

// WithConfig sets the configuration
func WithConfig(c *config.Config) SyncAppOptions {
	return func(cfg *syncAppConfig) error {
		cfg.config = c
		return nil
	}
}

// WithRegionFetcher allows injecting a custom region fetcher (for testing)
func WithRegionFetcher(f sources.RegionFetcher) SyncAppOptions {
	return func(cfg *syncAppConfig) error {
		cfg.fetcher = f
		return nil
	}
}

// WithSynchronizer allows injecting a custom synchronizer (for testing)
func WithSynchronizer(s pkgsync.Synchronizer) SyncAppOptions {
	return func(cfg *syncAppConfig) error {
		cfg.synchronizer = s
		return nil
	}
}

// WithSnapshotWriter allows injecting a custom snapshot writer (for testing)
func WithSnapshotWriter(w writer.SnapshotWriter) SyncAppOptions {
	return func(cfg *syncAppConfig) error {
		cfg.snapshotWriter = w
		return nil
	}
}

// WithReportPersistence allows injecting a custom report store (for testing)
func WithReportPersistence(p status.ReportPersistence) SyncAppOptions {
	return func(cfg *syncAppConfig) error {
		cfg.reportPersistence = p
		return nil
	}
}

// WithMeterProvider sets the OpenTelemetry meter provider for run metrics
func WithMeterProvider(mp metric.MeterProvider) SyncAppOptions {
	return func(cfg *syncAppConfig) error {
		cfg.meterProvider = mp
		return nil
	}
}

// WithTracerProvider sets the OpenTelemetry tracer provider for run spans
func WithTracerProvider(tp trace.TracerProvider) SyncAppOptions {
	return func(cfg *syncAppConfig) error {
		cfg.tracerProvider = tp
		return nil
	}
}

// WithClock overrides the time source used for report timestamps
func WithClock(now func() time.Time) SyncAppOptions {
	return func(cfg *syncAppConfig) error {
		if now == nil {
			return fmt.Errorf("clock cannot be nil")
		}
		cfg.now = now
		return nil
	}
}

// WithRunIDGenerator overrides how run ids are generated
func WithRunIDGenerator(gen func() string) SyncAppOptions {
	return func(cfg *syncAppConfig) error {
		if gen == nil {
			return fmt.Errorf("run id generator cannot be nil")
		}
		cfg.newRunID = gen
		return nil
	}
}

func buildComponents(ctx context.Context, b *syncAppConfig) (*AppComponents, error) {
	slog.Info("Initializing sync components")

	coord, err := buildCoordinator(b)
	if err != nil {
		return nil, fmt.Errorf("failed to build coordinator: %w", err)
	}

	if b.snapshotWriter == nil {
		b.snapshotWriter, err = writer.NewSnapshotWriter(ctx, &b.config.Snapshot)
		if err != nil {
			return nil, fmt.Errorf("failed to create snapshot writer: %w", err)
		}
	}

	if b.synchronizer == nil {
		b.synchronizer, err = buildSynchronizer(b)
		if err != nil {
			return nil, fmt.Errorf("failed to create synchronizer: %w", err)
		}
	}

	if b.reportPersistence == nil && b.config.Report.Path != "" {
		b.reportPersistence = status.NewFileReportPersistence(b.config.Report.Path)
	}

	slog.Info("Sync components initialized successfully")
	return &AppComponents{
		Coordinator:       coord,
		SnapshotWriter:    b.snapshotWriter,
		Synchronizer:      b.synchronizer,
		ReportPersistence: b.reportPersistence,
	}, nil
}

func buildCoordinator(b *syncAppConfig) (*coordinator.Coordinator, error) {
	if b.fetcher == nil {
		enc, err := sources.LookupEncoding(b.config.Source.GetEncoding())
		if err != nil {
			return nil, err
		}
		b.fetcher, err = sources.NewTableFetcher(
			httpclient.NewDefaultClient(b.config.Source.GetTimeout()),
			b.config.Source.BaseURL,
			sources.WithEncoding(enc),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to create region fetcher: %w", err)
		}
	}

	coordOpts := []coordinator.Option{
		coordinator.WithTracer(b.tracerProvider.Tracer(telemetry.TracerName)),
	}

	// Create fetch metrics if meter provider is configured
	if b.meterProvider != nil {
		fetchMetrics, err := telemetry.NewFetchMetrics(b.meterProvider)
		if err != nil {
			return nil, fmt.Errorf("failed to create fetch metrics: %w", err)
		}
		coordOpts = append(coordOpts, coordinator.WithFetchMetrics(fetchMetrics))
		slog.Info("Fetch metrics enabled")
	}

	return coordinator.New(b.fetcher, b.config.Source.GetWorkers(), coordOpts...), nil
}

func buildSynchronizer(b *syncAppConfig) (pkgsync.Synchronizer, error) {
	if !b.config.Sync.Enabled {
		return pkgsync.NewDisabledSynchronizer(), nil
	}

	var syncOpts []pkgsync.Option
	if b.meterProvider != nil {
		syncMetrics, err := telemetry.NewSyncMetrics(b.meterProvider)
		if err != nil {
			return nil, fmt.Errorf("failed to create sync metrics: %w", err)
		}
		syncOpts = append(syncOpts, pkgsync.WithSyncMetrics(syncMetrics))
		slog.Info("Sync metrics enabled")
	}

	return pkgsync.NewHTTPSynchronizer(
		httpclient.NewDefaultClient(b.config.Sync.GetTimeout()),
		b.config.Sync.Endpoint,
		syncOpts...,
	)
}
