package coordinator

import (
	"context"
	"errors"
	"log/slog"

	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
	"golang.org/x/sync/errgroup"

	"github.com/fiscalsync/ajustes-sync/internal/catalogue"
	"github.com/fiscalsync/ajustes-sync/internal/otel"
	"github.com/fiscalsync/ajustes-sync/internal/records"
	"github.com/fiscalsync/ajustes-sync/internal/sources"
	"github.com/fiscalsync/ajustes-sync/internal/telemetry"
)

// DefaultWorkers is the number of concurrent region fetches
const DefaultWorkers = 10

// ErrNoDataAvailable is returned when no region contributed any row
var ErrNoDataAvailable = errors.New("no data available from any region")

// Result is the merged outcome of one fetch phase
type Result struct {
	// Rows holds the raw rows of every contributing region, in catalogue order
	Rows []records.RawRow

	// Outcomes holds one outcome per region, in catalogue order
	Outcomes []*sources.Outcome
}

// Coordinator runs the fetch phase of a pipeline run
type Coordinator struct {
	fetcher sources.RegionFetcher
	workers int

	fetchMetrics *telemetry.FetchMetrics
	tracer       trace.Tracer
}

// Option is a function that configures the coordinator
type Option func(*Coordinator)

// WithFetchMetrics sets the fetch metrics for the coordinator
func WithFetchMetrics(metrics *telemetry.FetchMetrics) Option {
	return func(c *Coordinator) {
		c.fetchMetrics = metrics
	}
}

// WithTracer sets the tracer used for per-region spans
func WithTracer(tracer trace.Tracer) Option {
	return func(c *Coordinator) {
		if tracer != nil {
			c.tracer = tracer
		}
	}
}

// New creates a coordinator. A non-positive worker count falls back to DefaultWorkers.
func New(fetcher sources.RegionFetcher, workers int, opts ...Option) *Coordinator {
	if workers <= 0 {
		workers = DefaultWorkers
	}

	c := &Coordinator{
		fetcher: fetcher,
		workers: workers,
		tracer:  tracenoop.NewTracerProvider().Tracer(telemetry.TracerName),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

type job struct {
	index  int
	region catalogue.Region
}

// Run fetches every region and merges the results. Individual region
// failures never abort the run; ErrNoDataAvailable is returned together with
// the full Result when no region contributed rows.
func (c *Coordinator) Run(ctx context.Context, regions []catalogue.Region) (*Result, error) {
	slog.Info("Starting region fetch", "regions", len(regions), "workers", c.workers)

	outcomes := make([]*sources.Outcome, len(regions))
	jobs := make(chan job)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer close(jobs)
		for i, region := range regions {
			if err := gctx.Err(); err != nil {
				return err
			}
			select {
			case jobs <- job{index: i, region: region}:
			case <-gctx.Done():
				return gctx.Err()
			}
		}
		return nil
	})

	for range min(c.workers, max(len(regions), 1)) {
		g.Go(func() error {
			for j := range jobs {
				outcomes[j.index] = c.fetch(gctx, j.region)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	result := merge(regions, outcomes)
	if len(result.Rows) == 0 {
		slog.Warn("No region contributed rows", "regions", len(regions))
		return result, ErrNoDataAvailable
	}

	slog.Info("Region fetch completed", "rows", len(result.Rows))
	return result, nil
}

func (c *Coordinator) fetch(ctx context.Context, region catalogue.Region) *sources.Outcome {
	ctx, span := otel.StartSpan(ctx, c.tracer, "coordinator.fetch",
		trace.WithAttributes(otel.AttrRegion.String(region.Name)))
	defer span.End()

	outcome := c.fetcher.Fetch(ctx, region)
	if outcome == nil {
		outcome = &sources.Outcome{
			Region: region.Name,
			Kind:   sources.OutcomeNetworkFailure,
			Err:    errors.New("fetcher returned no outcome"),
		}
	}

	span.SetAttributes(
		otel.AttrOutcome.String(string(outcome.Kind)),
		otel.AttrRowCount.Int(len(outcome.Rows)),
	)
	if outcome.Kind.IsFailure() {
		otel.RecordError(span, outcome.Err, outcome.Message())
	}

	logOutcome(outcome)
	c.fetchMetrics.RecordFetch(ctx, outcome.Region, string(outcome.Kind), outcome.Duration, len(outcome.Rows))

	return outcome
}

func logOutcome(outcome *sources.Outcome) {
	switch {
	case outcome.Kind == sources.OutcomeSuccess:
		slog.Info("Region fetched",
			"region", outcome.Region,
			"rows", len(outcome.Rows),
			"duration", outcome.Duration)
	case outcome.Kind == sources.OutcomeSkipped:
		slog.Info("Region skipped", "region", outcome.Region, "reason", outcome.Message())
	default:
		slog.Warn("Region fetch failed",
			"region", outcome.Region,
			"outcome", outcome.Kind,
			"status_code", outcome.StatusCode,
			"error", outcome.Message())
	}
}

// merge concatenates contributing rows in catalogue order
func merge(regions []catalogue.Region, outcomes []*sources.Outcome) *Result {
	result := &Result{Outcomes: outcomes}
	for i, outcome := range outcomes {
		if outcome == nil {
			outcomes[i] = &sources.Outcome{
				Region: regions[i].Name,
				Kind:   sources.OutcomeNetworkFailure,
				Err:    errors.New("region was not fetched"),
			}
			continue
		}
		if outcome.Contributes() {
			result.Rows = append(result.Rows, outcome.Rows...)
		}
	}
	return result
}
