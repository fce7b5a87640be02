// Package records defines the raw and normalized shapes of an adjustment code
// row and the cleaning rules that turn one into the other.
package records

import (
	"fmt"
	"strings"
)

const (
	// OpenEndDate is the sentinel end date meaning the code has no defined end
	OpenEndDate = "31129999"

	// RawFieldCount is the number of pipe-delimited fields of an upstream row
	RawFieldCount = 4
)

// absentTokens are the textual spellings of "no value" produced by upstream
// exports and tabular tools. Matching is case-insensitive on trimmed input.
var absentTokens = map[string]struct{}{
	"":     {},
	"nan":  {},
	"nat":  {},
	"null": {},
	"none": {},
	"<na>": {},
}

// RawRow is one upstream row before normalization. Fields are kept exactly as
// received.
type RawRow struct {
	AdjustmentCode string
	Description    string
	StartDate      string
	EndDate        string
}

// NewRawRow builds a RawRow from positional fields, rejecting any row that
// does not have exactly RawFieldCount fields.
func NewRawRow(fields []string) (RawRow, error) {
	if len(fields) != RawFieldCount {
		return RawRow{}, fmt.Errorf("expected %d fields, got %d", RawFieldCount, len(fields))
	}
	return RawRow{
		AdjustmentCode: fields[0],
		Description:    fields[1],
		StartDate:      fields[2],
		EndDate:        fields[3],
	}, nil
}

// Record is a normalized adjustment code as delivered downstream
type Record struct {
	AdjustmentCode string `json:"cod_aj_apur"`
	Description    string `json:"descricao"`
	StartDate      string `json:"data_inicio"`
	EndDate        string `json:"data_fim"`
	RegionCode     string `json:"uf"`
}

// Header returns the column names of a Record, in output order
func Header() []string {
	return []string{"cod_aj_apur", "descricao", "data_inicio", "data_fim", "uf"}
}

// Values returns the record fields in Header order
func (r Record) Values() []string {
	return []string{r.AdjustmentCode, r.Description, r.StartDate, r.EndDate, r.RegionCode}
}

// IsAbsent reports whether a raw value represents a missing value
func IsAbsent(v string) bool {
	_, ok := absentTokens[strings.ToLower(strings.TrimSpace(v))]
	return ok
}

// Normalize applies the cleaning rules to the merged raw rows. Output order
// matches input order and the function has no side effects, so running it
// twice on the same input yields identical output.
func Normalize(rows []RawRow) []Record {
	out := make([]Record, 0, len(rows))
	for _, row := range rows {
		out = append(out, normalizeRow(row))
	}
	return out
}

func normalizeRow(row RawRow) Record {
	endDate := row.EndDate
	if IsAbsent(endDate) {
		endDate = OpenEndDate
	}

	return Record{
		AdjustmentCode: row.AdjustmentCode,
		Description:    EscapeQuotes(row.Description),
		StartDate:      row.StartDate,
		EndDate:        endDate,
		RegionCode:     RegionCode(row.AdjustmentCode),
	}
}

// EscapeQuotes doubles every single quote so the value can be embedded in a
// single-quoted SQL literal.
func EscapeQuotes(s string) string {
	return strings.ReplaceAll(s, "'", "''")
}

// RegionCode returns the first two characters of an adjustment code, or the
// whole code when it is shorter.
func RegionCode(code string) string {
	runes := []rune(code)
	if len(runes) < 2 {
		return code
	}
	return string(runes[:2])
}
