// Package ingest parses raw bank statement payloads into normalized rows.
// Parsers are row-tolerant: a malformed row is reported and skipped, it
// never aborts the batch.
package ingest

import (
	"fmt"
	"strings"
	"time"
)

// Row is one successfully parsed statement line, not yet deduplicated.
type Row struct {
	Line            int // 1-based position in the source payload
	PostedDate      time.Time
	Description     string
	AmountMinor     int64
	CurrencyCode    string
	AccountHint     string
	SourceReference string
	IsVoid          bool
}

// RowError describes one rejected statement line.
type RowError struct {
	Line   int    `json:"line"`
	Reason string `json:"reason"`
}

func (e RowError) Error() string {
	return fmt.Sprintf("line %d: %s", e.Line, e.Reason)
}

// Parser turns a raw statement payload into rows plus per-row errors.
// The returned error is reserved for payload-level failures (empty input,
// missing header); row-level problems go into the RowError slice.
type Parser interface {
	Parse(payload []byte) ([]Row, []RowError, error)
}

// ParserFor selects a parser by statement format name.
func ParserFor(format string, precision int) (Parser, error) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", "csv":
		return NewCSVParser(DefaultCSVProfile(), precision), nil
	case "ofx":
		return NewOFXParser(precision), nil
	default:
		return nil, fmt.Errorf("unsupported statement format %q", format)
	}
}
