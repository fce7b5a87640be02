package sync

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/fiscalsync/ajustes-sync/internal/httpclient"
	"github.com/fiscalsync/ajustes-sync/internal/records"
	"github.com/fiscalsync/ajustes-sync/internal/telemetry"
)

//go:generate mockgen -destination=mocks/mock_synchronizer.go -package=mocks -source=sync.go Synchronizer

const (
	// DefaultTimeout is the default timeout of the delivery request
	DefaultTimeout = 120 * time.Second

	// HeaderRunID carries the run id of a delivery
	HeaderRunID = "X-Run-ID"
)

// Skip reasons
const (
	// ReasonEmptyTable means there was nothing to deliver
	ReasonEmptyTable = "empty-table"

	// ReasonDisabled means delivery is turned off in configuration
	ReasonDisabled = "disabled"
)

// Result contains the outcome of a delivery attempt
type Result struct {
	// Delivered is the number of records accepted by the endpoint
	Delivered int `json:"delivered"`

	// Skipped is true when no request was made
	Skipped bool `json:"skipped"`

	// Reason explains why the delivery was skipped
	Reason string `json:"reason,omitempty"`

	// Confirmation is the response body of a successful delivery
	Confirmation string `json:"confirmation,omitempty"`
}

// DeliveryError reports a failed delivery. StatusCode is 0 when the endpoint
// could not be reached.
type DeliveryError struct {
	StatusCode int
	Body       string
	Err        error
}

func (e *DeliveryError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("sync endpoint returned HTTP %d: %s", e.StatusCode, strings.TrimSpace(e.Body))
	}
	return fmt.Sprintf("sync request failed: %v", e.Err)
}

func (e *DeliveryError) Unwrap() error {
	return e.Err
}

// Synchronizer delivers a normalized table downstream
type Synchronizer interface {
	// Deliver sends the records. An empty table is skipped without a request.
	Deliver(ctx context.Context, recs []records.Record) (*Result, error)
}

type runIDKey struct{}

// ContextWithRunID returns a context carrying the run id sent with deliveries
func ContextWithRunID(ctx context.Context, runID string) context.Context {
	return context.WithValue(ctx, runIDKey{}, runID)
}

// RunIDFromContext returns the run id stored in ctx, if any
func RunIDFromContext(ctx context.Context) string {
	runID, _ := ctx.Value(runIDKey{}).(string)
	return runID
}

// HTTPSynchronizer posts the table as JSON to an HTTP endpoint
type HTTPSynchronizer struct {
	client   httpclient.Client
	endpoint string
	metrics  *telemetry.SyncMetrics
	now      func() time.Time
}

// Option is a function that configures the synchronizer
type Option func(*HTTPSynchronizer)

// WithSyncMetrics sets the sync metrics for the synchronizer
func WithSyncMetrics(metrics *telemetry.SyncMetrics) Option {
	return func(s *HTTPSynchronizer) {
		s.metrics = metrics
	}
}

// NewHTTPSynchronizer creates a synchronizer for the given endpoint
func NewHTTPSynchronizer(client httpclient.Client, endpoint string, opts ...Option) (*HTTPSynchronizer, error) {
	if client == nil {
		return nil, fmt.Errorf("http client is required")
	}
	if endpoint == "" {
		return nil, fmt.Errorf("sync endpoint is required")
	}

	s := &HTTPSynchronizer{
		client:   client,
		endpoint: endpoint,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Deliver posts the records in a single request
func (s *HTTPSynchronizer) Deliver(ctx context.Context, recs []records.Record) (*Result, error) {
	if len(recs) == 0 {
		slog.Info("Nothing to deliver, skipping sync")
		return &Result{Skipped: true, Reason: ReasonEmptyTable}, nil
	}

	payload, err := json.Marshal(recs)
	if err != nil {
		return nil, &DeliveryError{Err: fmt.Errorf("failed to encode records: %w", err)}
	}

	header := http.Header{}
	header.Set("Content-Type", "application/json")
	header.Set("Accept", "application/json")
	runID := RunIDFromContext(ctx)
	if runID != "" {
		header.Set(HeaderRunID, runID)
	}

	slog.Info("Delivering records",
		"endpoint", s.endpoint,
		"records", len(recs),
		"bytes", len(payload),
		"run_id", runID)

	start := s.now()
	body, err := s.client.Post(ctx, s.endpoint, payload, header)
	duration := s.now().Sub(start)
	if err != nil {
		s.metrics.RecordSync(ctx, duration, 0, false)
		return nil, toDeliveryError(err)
	}
	s.metrics.RecordSync(ctx, duration, len(recs), true)

	confirmation := strings.TrimSpace(string(body))
	logConfirmation(confirmation)

	slog.Info("Records delivered", "records", len(recs), "duration", duration)
	return &Result{
		Delivered:    len(recs),
		Confirmation: confirmation,
	}, nil
}

func toDeliveryError(err error) *DeliveryError {
	var httpErr *httpclient.HTTPError
	if errors.As(err, &httpErr) {
		return &DeliveryError{
			StatusCode: httpErr.StatusCode,
			Body:       httpErr.Body,
			Err:        err,
		}
	}
	return &DeliveryError{Err: err}
}

func logConfirmation(confirmation string) {
	if confirmation == "" {
		return
	}
	if !gjson.Valid(confirmation) {
		slog.Warn("Sync confirmation is not valid JSON", "confirmation", confirmation)
		return
	}

	attrs := []any{}
	for _, field := range []string{"status", "message", "inserted", "updated", "total"} {
		if value := gjson.Get(confirmation, field); value.Exists() {
			attrs = append(attrs, field, value.String())
		}
	}
	slog.Info("Sync confirmation received", attrs...)
}

// disabledSynchronizer skips every delivery
type disabledSynchronizer struct{}

// NewDisabledSynchronizer returns a Synchronizer that never sends anything
func NewDisabledSynchronizer() Synchronizer {
	return disabledSynchronizer{}
}

func (disabledSynchronizer) Deliver(_ context.Context, _ []records.Record) (*Result, error) {
	slog.Info("Sync disabled, skipping delivery")
	return &Result{Skipped: true, Reason: ReasonDisabled}, nil
}
