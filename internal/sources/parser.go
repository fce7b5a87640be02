package sources

import (
	"fmt"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"

	"github.com/fiscalsync/ajustes-sync/internal/records"
)

const (
	// EncodingWindows1252 is the charset the SPED service serves tables in
	EncodingWindows1252 = "windows-1252"

	// EncodingISO88591 is accepted for mirrors that label Latin-1 bodies
	EncodingISO88591 = "iso-8859-1"

	// EncodingUTF8 disables transcoding
	EncodingUTF8 = "utf-8"

	fieldSeparator = "|"
)

// LookupEncoding returns the decoder for a charset name. An empty name selects
// Windows-1252.
func LookupEncoding(name string) (encoding.Encoding, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", EncodingWindows1252, "cp1252":
		return charmap.Windows1252, nil
	case EncodingISO88591, "latin1":
		return charmap.ISO8859_1, nil
	case EncodingUTF8, "utf8":
		return unicode.UTF8, nil
	default:
		return nil, fmt.Errorf("unsupported encoding %q", name)
	}
}

// ParseTable parses a decoded region table. The first line is a banner and is
// discarded; every following non-blank line is a pipe-delimited row. Cells are
// raw text, quotes included. Rows shorter than records.RawFieldCount are
// padded with empty trailing fields, a row longer than that fails the whole
// table, and so does a table narrower than records.RawFieldCount.
func ParseTable(text string) ([]records.RawRow, error) {
	lines := strings.Split(text, "\n")
	if len(lines) < 2 {
		return []records.RawRow{}, nil
	}

	rows := make([]records.RawRow, 0, len(lines)-1)
	width := 0
	for i, raw := range lines[1:] {
		line := strings.TrimSuffix(raw, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}

		// +2: one-based, plus the banner line
		lineNo := i + 2

		fields := strings.Split(line, fieldSeparator)
		if len(fields) > records.RawFieldCount {
			return nil, fmt.Errorf("line %d: expected %d fields, saw %d", lineNo, records.RawFieldCount, len(fields))
		}
		width = max(width, len(fields))

		for len(fields) < records.RawFieldCount {
			fields = append(fields, "")
		}
		row, err := records.NewRawRow(fields)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
		rows = append(rows, row)
	}

	if len(rows) > 0 && width != records.RawFieldCount {
		return nil, fmt.Errorf("table has %d columns, expected %d", width, records.RawFieldCount)
	}

	return rows, nil
}
