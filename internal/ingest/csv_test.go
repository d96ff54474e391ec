package ingest

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCSVParser_ParsesWellFormedRows(t *testing.T) {
	payload := []byte(`Date,Description,Amount,Currency,Reference
2025-03-01,COFFEE SHOP,-4.50,USD,TXN-1
2025-03-02,PAYROLL,2500.00,USD,TXN-2
`)

	parser := NewCSVParser(DefaultCSVProfile(), 2)
	rows, rowErrors, err := parser.Parse(payload)
	require.NoError(t, err)
	assert.Empty(t, rowErrors)
	require.Len(t, rows, 2)

	assert.Equal(t, time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC), rows[0].PostedDate)
	assert.Equal(t, int64(-450), rows[0].AmountMinor)
	assert.Equal(t, "USD", rows[0].CurrencyCode)
	assert.Equal(t, "TXN-1", rows[0].SourceReference)
	assert.Equal(t, int64(250000), rows[1].AmountMinor)
}

func TestCSVParser_SkipsMalformedRowsAndKeepsTheRest(t *testing.T) {
	payload := []byte(`Date,Description,Amount
2025-03-01,OK ROW,10.00
not-a-date,BAD DATE,5.00
2025-03-03,BAD AMOUNT,abc
2025-03-04,ANOTHER OK ROW,-7.25
`)

	parser := NewCSVParser(DefaultCSVProfile(), 2)
	rows, rowErrors, err := parser.Parse(payload)
	require.NoError(t, err)
	assert.Len(t, rows, 2, "well-formed rows survive their bad neighbours")
	require.Len(t, rowErrors, 2)
	assert.Equal(t, 3, rowErrors[0].Line)
	assert.Contains(t, rowErrors[0].Reason, "unparseable date")
	assert.Equal(t, 4, rowErrors[1].Line)
}

func TestCSVParser_RejectsHeaderlessPayload(t *testing.T) {
	parser := NewCSVParser(DefaultCSVProfile(), 2)
	_, _, err := parser.Parse([]byte("no useful,columns,here\n1,2,3\n"))
	assert.Error(t, err)
}

func TestCSVParser_ZeroAmountRowsAreVoid(t *testing.T) {
	payload := []byte("Date,Description,Amount\n2025-03-01,VOIDED,0.00\n")
	parser := NewCSVParser(DefaultCSVProfile(), 2)
	rows, rowErrors, err := parser.Parse(payload)
	require.NoError(t, err)
	assert.Empty(t, rowErrors)
	require.Len(t, rows, 1)
	assert.True(t, rows[0].IsVoid)
}
