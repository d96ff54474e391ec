package ingest

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleOFX = `OFXHEADER:100
DATA:OFXSGML

<OFX>
<BANKMSGSRSV1>
<STMTRS>
<CURDEF>USD
<BANKTRANLIST>
<STMTTRN>
<TRNTYPE>DEBIT
<DTPOSTED>20250301120000
<TRNAMT>-4.50
<FITID>TXN-1
<NAME>COFFEE SHOP
</STMTTRN>
<STMTTRN>
<TRNTYPE>CREDIT
<DTPOSTED>20250302
<TRNAMT>2500.00
<FITID>TXN-2
<NAME>PAYROLL
<MEMO>MARCH SALARY
</STMTTRN>
<STMTTRN>
<TRNTYPE>DEBIT
<DTPOSTED>bogus
<TRNAMT>-1.00
<FITID>TXN-3
</STMTTRN>
</BANKTRANLIST>
</STMTRS>
</BANKMSGSRSV1>
</OFX>`

func TestOFXParser_ParsesStatementBlocks(t *testing.T) {
	parser := NewOFXParser(2)
	rows, rowErrors, err := parser.Parse([]byte(sampleOFX))
	require.NoError(t, err)

	require.Len(t, rows, 2)
	assert.Equal(t, time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC), rows[0].PostedDate)
	assert.Equal(t, int64(-450), rows[0].AmountMinor)
	assert.Equal(t, "USD", rows[0].CurrencyCode, "statement CURDEF applies when the block has no currency")
	assert.Equal(t, "TXN-1", rows[0].SourceReference)
	assert.Equal(t, "PAYROLL MARCH SALARY", rows[1].Description)

	require.Len(t, rowErrors, 1)
	assert.Contains(t, rowErrors[0].Reason, "DTPOSTED")
}

func TestOFXParser_RejectsPayloadWithoutTransactions(t *testing.T) {
	parser := NewOFXParser(2)
	_, _, err := parser.Parse([]byte("<OFX><STMTRS><CURDEF>USD</STMTRS></OFX>"))
	assert.Error(t, err)
}

func TestChecksum_IdenticalRowsCollide(t *testing.T) {
	date := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)

	a := Checksum(date, -450, "USD", "Coffee Shop", "TXN-1")
	b := Checksum(date, -450, "usd", "coffee   shop", "TXN-1")
	assert.Equal(t, a, b, "case and whitespace variants are the same transaction")

	c := Checksum(date, -451, "USD", "Coffee Shop", "TXN-1")
	assert.NotEqual(t, a, c)

	d := Checksum(date.AddDate(0, 0, 1), -450, "USD", "Coffee Shop", "TXN-1")
	assert.NotEqual(t, a, d)
}
