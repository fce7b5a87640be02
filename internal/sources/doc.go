// Package sources retrieves the adjustment code table of a single region from
// the SPED external table service.
//
// A RegionFetcher never returns an error value. Every call produces an
// Outcome tagged with one of:
//
//   - OutcomeSuccess: the table was fetched and parsed (it may hold zero rows)
//   - OutcomeSkipped: the region has no table id, nothing was requested
//   - OutcomeNetworkFailure: transport error or non-2xx status
//   - OutcomeEmptyResponse: the service answered with a blank body
//   - OutcomeParseFailure: the body is not a 4 column pipe-delimited table
//
// The upstream body is encoded in a legacy single-byte charset and its first
// line is a banner, not data. TableFetcher decodes the body to UTF-8, drops
// the banner and validates the row shape, so that downstream code can rely on
// records.RawRow being well formed.
package sources
