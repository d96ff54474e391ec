package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Currency represents a supported currency in the domain.
type Currency struct {
	CurrencyCode string `json:"currencyCode"` // Primary Key (e.g., "USD")
	Symbol       string `json:"symbol"`       // e.g., "$"
	Name         string `json:"name"`         // e.g., "US Dollar"
	Precision    int    `json:"precision"`    // Minor unit digits (2 for USD, 0 for JPY)
	AuditFields
}

// RateType distinguishes where an exchange rate came from and how it is used.
type RateType string

const (
	RateSpot         RateType = "SPOT"
	RateAverage      RateType = "AVERAGE"
	RateUserSupplied RateType = "USER_SUPPLIED"
)

// CurrencyRate is one immutable observation of an exchange rate.
// Corrections are new rows with later effective timestamps, never updates.
type CurrencyRate struct {
	RateID           string          `json:"rateID"` // Primary Key (UUID)
	FromCurrencyCode string          `json:"fromCurrencyCode"`
	ToCurrencyCode   string          `json:"toCurrencyCode"`
	Rate             decimal.Decimal `json:"rate"` // Units of To per one unit of From
	RateType         RateType        `json:"rateType"`
	EffectiveAt      time.Time       `json:"effectiveAt"`
	Source           string          `json:"source"` // Provider tag or user reference
	AuditFields
}
