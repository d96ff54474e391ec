package utils

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// FormatMinorUnits renders an integer minor-unit amount as a decimal string
// at the currency's precision.
// Example: amount 123456 with precision 2 returns "1234.56"
// Example: amount -500 with precision 0 returns "-500"
func FormatMinorUnits(amountMinor int64, precision int) string {
	if precision <= 0 {
		return fmt.Sprintf("%d", amountMinor)
	}
	return decimal.New(amountMinor, -int32(precision)).StringFixed(int32(precision))
}

// FormatWithPrecision formats a decimal amount with the given precision.
// This is a convenience function when the value is already a decimal.
func FormatWithPrecision(amount decimal.Decimal, precision int) string {
	return amount.Round(int32(precision)).String()
}

// NormalizeDescription lowercases and collapses whitespace so descriptions
// from different statement formats compare consistently.
func NormalizeDescription(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}
