package services

import (
	"context"
	"time"

	"github.com/openbooks-app/openbooks/internal/core/domain"
	"github.com/openbooks-app/openbooks/internal/dto"
)

// CurrencyReaderSvc exposes the currency registry.
type CurrencyReaderSvc interface {
	// GetCurrency retrieves one currency definition.
	GetCurrency(ctx context.Context, code string) (*domain.Currency, error)

	// ListCurrencies retrieves all registered currencies.
	ListCurrencies(ctx context.Context) ([]domain.Currency, error)
}

// RateSvc defines rate submission and resolution.
type RateSvc interface {
	// SubmitRate stores one immutable rate observation.
	SubmitRate(ctx context.Context, req dto.CreateRateRequest, actor string) (*domain.CurrencyRate, error)

	// ResolveRate finds the rate effective at or before asOf for a pair.
	// Returns ErrNoRateAvailable when nothing matches.
	ResolveRate(ctx context.Context, fromCurrency string, toCurrency string, rateType domain.RateType, asOf time.Time) (*domain.CurrencyRate, error)

	// ListRates retrieves all observations for a pair, newest first.
	ListRates(ctx context.Context, fromCurrency string, toCurrency string) ([]domain.CurrencyRate, error)
}

// ConverterSvc converts amounts between currencies.
type ConverterSvc interface {
	// Convert restates an amount into another currency at the resolved
	// rate, rounding half-to-even at the target currency's precision.
	Convert(ctx context.Context, amountMinor int64, fromCurrency string, toCurrency string, rateType domain.RateType, asOf time.Time) (int64, *domain.CurrencyRate, error)
}

// FxSvcFacade combines currency and rate service interfaces
type FxSvcFacade interface {
	CurrencyReaderSvc
	RateSvc
	ConverterSvc
}
