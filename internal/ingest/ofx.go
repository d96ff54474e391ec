package ingest

import (
	"fmt"
	"strings"
	"time"
)

// ofxParser reads the SGML flavour of OFX: tags are line-oriented and value
// tags have no closing element. Only the fields the normalizer needs are
// extracted; everything else is ignored.
type ofxParser struct {
	precision int
}

// NewOFXParser builds an OFX statement parser.
func NewOFXParser(precision int) Parser {
	return &ofxParser{precision: precision}
}

var _ Parser = (*ofxParser)(nil)

func (p *ofxParser) Parse(payload []byte) ([]Row, []RowError, error) {
	text := string(payload)
	if !strings.Contains(strings.ToUpper(text), "<STMTTRN>") {
		return nil, nil, fmt.Errorf("payload contains no STMTTRN blocks")
	}

	defaultCurrency := tagValue(text, "CURDEF")

	var rows []Row
	var rowErrors []RowError

	remaining := text
	blockIndex := 0
	for {
		start := indexFold(remaining, "<STMTTRN>")
		if start < 0 {
			break
		}
		remaining = remaining[start+len("<STMTTRN>"):]
		blockIndex++

		block := remaining
		if end := indexFold(remaining, "</STMTTRN>"); end >= 0 {
			block = remaining[:end]
			remaining = remaining[end+len("</STMTTRN>"):]
		} else {
			// Unterminated final block still parses
			remaining = ""
		}

		row, rowErr := p.parseBlock(block, blockIndex, defaultCurrency)
		if rowErr != nil {
			rowErrors = append(rowErrors, *rowErr)
			continue
		}
		rows = append(rows, row)
	}

	return rows, rowErrors, nil
}

func (p *ofxParser) parseBlock(block string, index int, defaultCurrency string) (Row, *RowError) {
	dateStr := tagValue(block, "DTPOSTED")
	if len(dateStr) < 8 {
		return Row{}, &RowError{Line: index, Reason: fmt.Sprintf("missing or short DTPOSTED %q", dateStr)}
	}
	postedDate, err := time.Parse("20060102", dateStr[:8])
	if err != nil {
		return Row{}, &RowError{Line: index, Reason: fmt.Sprintf("unparseable DTPOSTED %q", dateStr)}
	}

	amountStr := tagValue(block, "TRNAMT")
	amountMinor, err := ParseAmountMinor(amountStr, p.precision)
	if err != nil {
		return Row{}, &RowError{Line: index, Reason: fmt.Sprintf("bad TRNAMT: %v", err)}
	}

	description := tagValue(block, "NAME")
	if memo := tagValue(block, "MEMO"); memo != "" {
		if description == "" {
			description = memo
		} else {
			description = description + " " + memo
		}
	}

	currency := strings.ToUpper(tagValue(block, "CURSYM"))
	if currency == "" {
		currency = strings.ToUpper(defaultCurrency)
	}

	return Row{
		Line:            index,
		PostedDate:      postedDate,
		Description:     description,
		AmountMinor:     amountMinor,
		CurrencyCode:    currency,
		SourceReference: tagValue(block, "FITID"),
		IsVoid:          amountMinor == 0,
	}, nil
}

// tagValue extracts the value following an SGML-style <TAG> up to the next
// tag or line break.
func tagValue(text, tag string) string {
	open := "<" + tag + ">"
	idx := indexFold(text, open)
	if idx < 0 {
		return ""
	}
	rest := text[idx+len(open):]
	end := len(rest)
	if lt := strings.IndexByte(rest, '<'); lt >= 0 && lt < end {
		end = lt
	}
	if nl := strings.IndexAny(rest, "\r\n"); nl >= 0 && nl < end {
		end = nl
	}
	return strings.TrimSpace(rest[:end])
}

func indexFold(haystack, needle string) int {
	return strings.Index(strings.ToUpper(haystack), strings.ToUpper(needle))
}
