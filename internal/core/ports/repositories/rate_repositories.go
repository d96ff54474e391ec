package repositories

import (
	"context"
	"time"

	"github.com/openbooks-app/openbooks/internal/core/domain"
)

// CurrencyReader defines read operations for the currency registry
type CurrencyReader interface {
	// FindCurrencyByCode retrieves a currency by its ISO code.
	FindCurrencyByCode(ctx context.Context, code string) (*domain.Currency, error)

	// ListCurrencies retrieves all registered currencies.
	ListCurrencies(ctx context.Context) ([]domain.Currency, error)
}

// CurrencyWriter defines write operations for the currency registry
type CurrencyWriter interface {
	// SaveCurrency persists a currency definition.
	SaveCurrency(ctx context.Context, currency domain.Currency) error
}

// CurrencyRepositoryFacade combines currency registry interfaces
type CurrencyRepositoryFacade interface {
	CurrencyReader
	CurrencyWriter
}

// RateReader defines read operations for exchange rates
type RateReader interface {
	// FindRateAt resolves the rate for a pair and type whose effective
	// timestamp is the latest at or before asOf. Returns ErrNotFound when
	// no such observation exists.
	FindRateAt(ctx context.Context, fromCurrency string, toCurrency string, rateType domain.RateType, asOf time.Time) (*domain.CurrencyRate, error)

	// ListRates retrieves all observations for a pair, newest first.
	ListRates(ctx context.Context, fromCurrency string, toCurrency string) ([]domain.CurrencyRate, error)
}

// RateWriter defines write operations for exchange rates.
// Rates are immutable observations; there is no update.
type RateWriter interface {
	// SaveRate persists a new rate observation.
	SaveRate(ctx context.Context, rate domain.CurrencyRate) error
}

// RateRepositoryFacade combines all rate-related repository interfaces
type RateRepositoryFacade interface {
	RateReader
	RateWriter
}
