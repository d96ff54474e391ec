package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/openbooks-app/openbooks/internal/apperrors"
	"github.com/openbooks-app/openbooks/internal/core/domain"
	portsrepo "github.com/openbooks-app/openbooks/internal/core/ports/repositories"
	portssvc "github.com/openbooks-app/openbooks/internal/core/ports/services"
	"github.com/openbooks-app/openbooks/internal/dto"
	"github.com/openbooks-app/openbooks/internal/middleware"
	"github.com/openbooks-app/openbooks/internal/telemetry"
)

// fxService resolves exchange rates and converts minor-unit amounts.
type fxService struct {
	currencyRepo portsrepo.CurrencyRepositoryFacade
	rateRepo     portsrepo.RateRepositoryFacade
	auditSvc     portssvc.AuditRecorderSvc
	counters     *telemetry.Counters
}

// NewFxService creates a new FxService.
func NewFxService(currencyRepo portsrepo.CurrencyRepositoryFacade, rateRepo portsrepo.RateRepositoryFacade, auditSvc portssvc.AuditRecorderSvc, counters *telemetry.Counters) portssvc.FxSvcFacade {
	return &fxService{
		currencyRepo: currencyRepo,
		rateRepo:     rateRepo,
		auditSvc:     auditSvc,
		counters:     counters,
	}
}

// Ensure fxService implements the portssvc.FxSvcFacade interface
var _ portssvc.FxSvcFacade = (*fxService)(nil)

// GetCurrency retrieves one currency definition.
func (s *fxService) GetCurrency(ctx context.Context, code string) (*domain.Currency, error) {
	return s.currencyRepo.FindCurrencyByCode(ctx, strings.ToUpper(code))
}

// ListCurrencies retrieves all registered currencies.
func (s *fxService) ListCurrencies(ctx context.Context) ([]domain.Currency, error) {
	return s.currencyRepo.ListCurrencies(ctx)
}

// SubmitRate validates and stores one immutable rate observation.
func (s *fxService) SubmitRate(ctx context.Context, req dto.CreateRateRequest, actor string) (*domain.CurrencyRate, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	from := strings.ToUpper(req.FromCurrencyCode)
	to := strings.ToUpper(req.ToCurrencyCode)
	if from == to {
		return nil, fmt.Errorf("%w: rate pair must use two different currencies", apperrors.ErrValidation)
	}
	if !req.Rate.IsPositive() {
		return nil, fmt.Errorf("%w: rate must be positive, got %s", apperrors.ErrValidation, req.Rate.String())
	}
	for _, code := range []string{from, to} {
		if _, err := s.currencyRepo.FindCurrencyByCode(ctx, code); err != nil {
			return nil, fmt.Errorf("%w: unknown currency %s", apperrors.ErrValidation, code)
		}
	}

	rateType := req.RateType
	if rateType == "" {
		rateType = domain.RateSpot
	}

	now := time.Now().UTC()
	rate := domain.CurrencyRate{
		RateID:           uuid.NewString(),
		FromCurrencyCode: from,
		ToCurrencyCode:   to,
		Rate:             req.Rate,
		RateType:         rateType,
		EffectiveAt:      req.EffectiveAt.UTC(),
		Source:           req.Source,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     actor,
			LastUpdatedAt: now,
			LastUpdatedBy: actor,
		},
	}

	if err := s.rateRepo.SaveRate(ctx, rate); err != nil {
		logger.Error("Failed to save rate", slog.String("pair", from+"/"+to), slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to save rate: %w", err)
	}
	s.counters.IncRatesSubmitted()

	logger.Info("Rate submitted",
		slog.String("pair", from+"/"+to),
		slog.String("rate", req.Rate.String()),
		slog.Time("effective_at", rate.EffectiveAt))
	return &rate, nil
}

// ResolveRate finds the observation effective at or before asOf.
// An empty rateType matches any observation type.
func (s *fxService) ResolveRate(ctx context.Context, fromCurrency string, toCurrency string, rateType domain.RateType, asOf time.Time) (*domain.CurrencyRate, error) {
	from := strings.ToUpper(fromCurrency)
	to := strings.ToUpper(toCurrency)

	rate, err := s.rateRepo.FindRateAt(ctx, from, to, rateType, asOf)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s/%s at %s", apperrors.ErrNoRateAvailable, from, to, asOf.UTC().Format(time.RFC3339))
		}
		return nil, fmt.Errorf("failed to resolve rate: %w", err)
	}
	return rate, nil
}

// ListRates retrieves all observations for a pair, newest first.
func (s *fxService) ListRates(ctx context.Context, fromCurrency string, toCurrency string) ([]domain.CurrencyRate, error) {
	return s.rateRepo.ListRates(ctx, strings.ToUpper(fromCurrency), strings.ToUpper(toCurrency))
}

// Convert restates an amount into another currency. Decimal math only;
// rounding is half-to-even at the target currency's precision.
func (s *fxService) Convert(ctx context.Context, amountMinor int64, fromCurrency string, toCurrency string, rateType domain.RateType, asOf time.Time) (int64, *domain.CurrencyRate, error) {
	from := strings.ToUpper(fromCurrency)
	to := strings.ToUpper(toCurrency)
	if from == to {
		return amountMinor, nil, nil
	}

	rate, err := s.ResolveRate(ctx, from, to, rateType, asOf)
	if err != nil {
		return 0, nil, err
	}

	fromPrecision, err := s.precisionOf(ctx, from)
	if err != nil {
		return 0, nil, err
	}
	toPrecision, err := s.precisionOf(ctx, to)
	if err != nil {
		return 0, nil, err
	}

	converted := ConvertMinor(amountMinor, rate.Rate, fromPrecision, toPrecision)
	return converted, rate, nil
}

func (s *fxService) precisionOf(ctx context.Context, code string) (int, error) {
	currency, err := s.currencyRepo.FindCurrencyByCode(ctx, code)
	if err != nil {
		return 0, fmt.Errorf("%w: unknown currency %s", apperrors.ErrValidation, code)
	}
	return currency.Precision, nil
}

// ConvertMinor multiplies a minor-unit amount by a rate and rounds
// half-to-even at the target precision. Exported for reuse by the ledger's
// revaluation path, which converts at snapshot rates of its own.
func ConvertMinor(amountMinor int64, rate decimal.Decimal, fromPrecision int, toPrecision int) int64 {
	amount := decimal.New(amountMinor, -int32(fromPrecision))
	converted := amount.Mul(rate).RoundBank(int32(toPrecision))
	return converted.Shift(int32(toPrecision)).IntPart()
}
