package ingest

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"
)

// Checksum derives the dedupe key for a statement row. Two rows with the
// same posted date, amount, currency, description and source reference are
// the same transaction regardless of which file they arrived in.
func Checksum(postedDate time.Time, amountMinor int64, currencyCode, description, sourceReference string) string {
	fields := []string{
		postedDate.UTC().Format("2006-01-02"),
		fmt.Sprintf("%d", amountMinor),
		strings.ToUpper(currencyCode),
		strings.Join(strings.Fields(strings.ToLower(description)), " "),
		sourceReference,
	}
	sum := sha256.Sum256([]byte(strings.Join(fields, "|")))
	return hex.EncodeToString(sum[:])
}

// RowChecksum is Checksum applied to a parsed row.
func RowChecksum(row Row) string {
	return Checksum(row.PostedDate, row.AmountMinor, row.CurrencyCode, row.Description, row.SourceReference)
}
