package ingest

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"
)

// CSVProfile maps statement columns onto row fields by header name.
// Matching is case-insensitive; the first alias found wins.
type CSVProfile struct {
	DateColumns        []string
	DescriptionColumns []string
	AmountColumns      []string
	CurrencyColumns    []string
	ReferenceColumns   []string
	AccountHintColumns []string
	DateLayouts        []string
	DefaultCurrency    string
}

// DefaultCSVProfile covers the column names common bank exports use.
func DefaultCSVProfile() CSVProfile {
	return CSVProfile{
		DateColumns:        []string{"date", "posted", "posted_date", "transaction date"},
		DescriptionColumns: []string{"description", "memo", "details", "narrative"},
		AmountColumns:      []string{"amount", "value"},
		CurrencyColumns:    []string{"currency", "ccy"},
		ReferenceColumns:   []string{"reference", "ref", "id", "transaction id"},
		AccountHintColumns: []string{"account", "category", "account hint"},
		DateLayouts:        []string{"2006-01-02", "01/02/2006", "02.01.2006"},
	}
}

type csvParser struct {
	profile   CSVProfile
	precision int
}

// NewCSVParser builds a header-driven CSV statement parser. Amounts are
// parsed at the given currency precision.
func NewCSVParser(profile CSVProfile, precision int) Parser {
	return &csvParser{profile: profile, precision: precision}
}

var _ Parser = (*csvParser)(nil)

func (p *csvParser) Parse(payload []byte) ([]Row, []RowError, error) {
	reader := csv.NewReader(bytes.NewReader(payload))
	reader.FieldsPerRecord = -1 // Row width is validated per row
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, nil, fmt.Errorf("statement has no header row: %w", err)
	}

	columns := p.resolveColumns(header)
	if columns.date < 0 || columns.amount < 0 {
		return nil, nil, fmt.Errorf("statement header missing required date or amount column")
	}

	var rows []Row
	var rowErrors []RowError
	line := 1
	for {
		line++
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			rowErrors = append(rowErrors, RowError{Line: line, Reason: fmt.Sprintf("malformed csv row: %v", err)})
			continue
		}

		row, rowErr := p.parseRecord(record, columns, line)
		if rowErr != nil {
			rowErrors = append(rowErrors, *rowErr)
			continue
		}
		rows = append(rows, row)
	}

	return rows, rowErrors, nil
}

type columnIndexes struct {
	date, description, amount, currency, reference, accountHint int
}

func (p *csvParser) resolveColumns(header []string) columnIndexes {
	find := func(aliases []string) int {
		for i, name := range header {
			name = strings.ToLower(strings.TrimSpace(name))
			for _, alias := range aliases {
				if name == alias {
					return i
				}
			}
		}
		return -1
	}
	return columnIndexes{
		date:        find(p.profile.DateColumns),
		description: find(p.profile.DescriptionColumns),
		amount:      find(p.profile.AmountColumns),
		currency:    find(p.profile.CurrencyColumns),
		reference:   find(p.profile.ReferenceColumns),
		accountHint: find(p.profile.AccountHintColumns),
	}
}

func (p *csvParser) parseRecord(record []string, cols columnIndexes, line int) (Row, *RowError) {
	get := func(idx int) string {
		if idx < 0 || idx >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[idx])
	}

	dateStr := get(cols.date)
	if dateStr == "" {
		return Row{}, &RowError{Line: line, Reason: "missing posted date"}
	}
	var postedDate time.Time
	var err error
	parsed := false
	for _, layout := range p.profile.DateLayouts {
		postedDate, err = time.Parse(layout, dateStr)
		if err == nil {
			parsed = true
			break
		}
	}
	if !parsed {
		return Row{}, &RowError{Line: line, Reason: fmt.Sprintf("unparseable date %q", dateStr)}
	}

	amountStr := get(cols.amount)
	amountMinor, err := ParseAmountMinor(amountStr, p.precision)
	if err != nil {
		return Row{}, &RowError{Line: line, Reason: err.Error()}
	}

	currency := strings.ToUpper(get(cols.currency))
	if currency == "" {
		currency = p.profile.DefaultCurrency
	}

	return Row{
		Line:            line,
		PostedDate:      postedDate,
		Description:     get(cols.description),
		AmountMinor:     amountMinor,
		CurrencyCode:    currency,
		AccountHint:     get(cols.accountHint),
		SourceReference: get(cols.reference),
		IsVoid:          amountMinor == 0,
	}, nil
}
