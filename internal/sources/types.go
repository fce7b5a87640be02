package sources

import (
	"context"
	"errors"
	"time"

	"github.com/fiscalsync/ajustes-sync/internal/catalogue"
	"github.com/fiscalsync/ajustes-sync/internal/records"
)

//go:generate mockgen -destination=mocks/mock_region_fetcher.go -package=mocks -source=types.go RegionFetcher

// OutcomeKind tags the result of fetching one region
type OutcomeKind string

const (
	// OutcomeSuccess means the table was fetched and parsed
	OutcomeSuccess OutcomeKind = "success"

	// OutcomeSkipped means the region has no table and was not requested
	OutcomeSkipped OutcomeKind = "skipped"

	// OutcomeNetworkFailure means the request failed or returned a non-2xx status
	OutcomeNetworkFailure OutcomeKind = "network_failure"

	// OutcomeEmptyResponse means the service returned a blank body
	OutcomeEmptyResponse OutcomeKind = "empty_response"

	// OutcomeParseFailure means the body could not be parsed as a region table
	OutcomeParseFailure OutcomeKind = "parse_failure"
)

// OutcomeKinds lists every kind in reporting order
var OutcomeKinds = []OutcomeKind{
	OutcomeSuccess,
	OutcomeSkipped,
	OutcomeNetworkFailure,
	OutcomeEmptyResponse,
	OutcomeParseFailure,
}

// IsFailure reports whether the kind is one of the per-region failures
func (k OutcomeKind) IsFailure() bool {
	switch k {
	case OutcomeNetworkFailure, OutcomeEmptyResponse, OutcomeParseFailure:
		return true
	default:
		return false
	}
}

var (
	// ErrEmptyResponse is the cause attached to OutcomeEmptyResponse
	ErrEmptyResponse = errors.New("empty response body")
)

// Outcome is the tagged result of fetching one region
type Outcome struct {
	// Region is the region name
	Region string

	// Kind tags the outcome
	Kind OutcomeKind

	// Rows holds the parsed table, only set for OutcomeSuccess
	Rows []records.RawRow

	// Err is the cause of a failure outcome
	Err error

	// StatusCode is the HTTP status of a failed request, 0 when there was no response
	StatusCode int

	// Duration is the time spent fetching and parsing
	Duration time.Duration
}

// Contributes reports whether the outcome adds rows to the merged table
func (o *Outcome) Contributes() bool {
	return o != nil && o.Kind == OutcomeSuccess && len(o.Rows) > 0
}

// Message returns a human readable description of the outcome cause
func (o *Outcome) Message() string {
	switch {
	case o.Kind == OutcomeSkipped:
		return "region has no table id"
	case o.Err != nil:
		return o.Err.Error()
	default:
		return ""
	}
}

// RegionFetcher retrieves the table of one region
type RegionFetcher interface {
	// Fetch retrieves and parses the region table. It never returns nil.
	Fetch(ctx context.Context, region catalogue.Region) *Outcome
}
