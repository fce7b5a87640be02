package sources

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/encoding"

	"github.com/fiscalsync/ajustes-sync/internal/catalogue"
	"github.com/fiscalsync/ajustes-sync/internal/httpclient"
)

const (
	// QueryTableID is the query parameter carrying the region table id
	QueryTableID = "idTabela"

	// QueryPackageID is the query parameter carrying the region package id
	QueryPackageID = "idPacote"
)

// TableFetcher fetches region tables from the SPED external table endpoint
type TableFetcher struct {
	client   httpclient.Client
	baseURL  *url.URL
	encoding encoding.Encoding
	now      func() time.Time
}

// FetcherOption configures a TableFetcher
type FetcherOption func(*TableFetcher)

// WithEncoding sets the charset of upstream bodies
func WithEncoding(enc encoding.Encoding) FetcherOption {
	return func(f *TableFetcher) {
		f.encoding = enc
	}
}

// NewTableFetcher creates a fetcher for the given endpoint
func NewTableFetcher(client httpclient.Client, baseURL string, opts ...FetcherOption) (*TableFetcher, error) {
	if client == nil {
		return nil, fmt.Errorf("http client is required")
	}
	parsed, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return nil, fmt.Errorf("base URL must be absolute: %s", baseURL)
	}

	enc, _ := LookupEncoding("")
	f := &TableFetcher{
		client:   client,
		baseURL:  parsed,
		encoding: enc,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f, nil
}

// TableURL returns the request URL for a supported region
func (f *TableFetcher) TableURL(region catalogue.Region) string {
	u := *f.baseURL
	query := u.Query()
	query.Set(QueryTableID, strconv.Itoa(*region.TableID))
	query.Set(QueryPackageID, strconv.Itoa(region.PackageID))
	u.RawQuery = query.Encode()
	return u.String()
}

// Fetch retrieves and parses the table of one region
func (f *TableFetcher) Fetch(ctx context.Context, region catalogue.Region) *Outcome {
	start := f.now()
	outcome := &Outcome{Region: region.Name}
	defer func() {
		outcome.Duration = f.now().Sub(start)
	}()

	if !region.Supported() {
		outcome.Kind = OutcomeSkipped
		return outcome
	}

	tableURL := f.TableURL(region)
	slog.Debug("Fetching region table", "region", region.Name, "url", tableURL)

	body, err := f.client.Get(ctx, tableURL)
	if err != nil {
		outcome.Kind = OutcomeNetworkFailure
		outcome.StatusCode = httpclient.StatusCode(err)
		outcome.Err = fmt.Errorf("failed to fetch table for %s: %w", region.Name, err)
		return outcome
	}

	text, err := f.encoding.NewDecoder().Bytes(body)
	if err != nil {
		outcome.Kind = OutcomeParseFailure
		outcome.Err = fmt.Errorf("failed to decode table for %s: %w", region.Name, err)
		return outcome
	}

	if strings.TrimSpace(string(text)) == "" {
		outcome.Kind = OutcomeEmptyResponse
		outcome.Err = ErrEmptyResponse
		return outcome
	}

	rows, err := ParseTable(string(text))
	if err != nil {
		outcome.Kind = OutcomeParseFailure
		outcome.Err = fmt.Errorf("failed to parse table for %s: %w", region.Name, err)
		return outcome
	}

	outcome.Kind = OutcomeSuccess
	outcome.Rows = rows
	return outcome
}
