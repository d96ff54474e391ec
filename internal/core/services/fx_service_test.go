package services_test

import (
	"testing"
	"time"

	"github.com/openbooks-app/openbooks/internal/apperrors"
	"github.com/openbooks-app/openbooks/internal/core/domain"
	"github.com/openbooks-app/openbooks/internal/core/services"
	"github.com/openbooks-app/openbooks/internal/dto"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func submitRate(t *testing.T, env *testEnv, rate string, effectiveAt time.Time) *domain.CurrencyRate {
	t.Helper()
	saved, err := env.services.Fx.SubmitRate(env.ctx, dto.CreateRateRequest{
		FromCurrencyCode: "EUR",
		ToCurrencyCode:   "USD",
		Rate:             decimal.RequireFromString(rate),
		EffectiveAt:      effectiveAt,
	}, "tester")
	require.NoError(t, err)
	return saved
}

func TestSubmitRate_Validation(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.services.Fx.SubmitRate(env.ctx, dto.CreateRateRequest{
		FromCurrencyCode: "USD",
		ToCurrencyCode:   "USD",
		Rate:             decimal.NewFromInt(1),
		EffectiveAt:      marchDate,
	}, "tester")
	assert.ErrorIs(t, err, apperrors.ErrValidation, "identity pairs are rejected")

	_, err = env.services.Fx.SubmitRate(env.ctx, dto.CreateRateRequest{
		FromCurrencyCode: "EUR",
		ToCurrencyCode:   "USD",
		Rate:             decimal.Zero,
		EffectiveAt:      marchDate,
	}, "tester")
	assert.ErrorIs(t, err, apperrors.ErrValidation, "rates must be positive")

	_, err = env.services.Fx.SubmitRate(env.ctx, dto.CreateRateRequest{
		FromCurrencyCode: "XXX",
		ToCurrencyCode:   "USD",
		Rate:             decimal.NewFromInt(1),
		EffectiveAt:      marchDate,
	}, "tester")
	assert.ErrorIs(t, err, apperrors.ErrValidation, "both currencies must be registered")
}

func TestSubmitRate_DefaultsToSpot(t *testing.T) {
	env := newTestEnv(t)
	saved := submitRate(t, env, "1.08", marchDate)
	assert.Equal(t, domain.RateSpot, saved.RateType)
}

func TestResolveRate_LatestAtOrBefore(t *testing.T) {
	env := newTestEnv(t)

	older := submitRate(t, env, "1.05", marchDate.AddDate(0, 0, -10))
	newer := submitRate(t, env, "1.12", marchDate.AddDate(0, 0, -2))

	// Between the two observations the older one is effective.
	resolved, err := env.services.Fx.ResolveRate(env.ctx, "EUR", "USD", "", marchDate.AddDate(0, 0, -5))
	require.NoError(t, err)
	assert.Equal(t, older.RateID, resolved.RateID)

	// At or after the newer observation it takes over.
	resolved, err = env.services.Fx.ResolveRate(env.ctx, "EUR", "USD", "", marchDate)
	require.NoError(t, err)
	assert.Equal(t, newer.RateID, resolved.RateID)

	// Exactly on the effective instant counts as "at or before".
	resolved, err = env.services.Fx.ResolveRate(env.ctx, "EUR", "USD", "", newer.EffectiveAt)
	require.NoError(t, err)
	assert.Equal(t, newer.RateID, resolved.RateID)
}

func TestResolveRate_NothingBeforeAsOf(t *testing.T) {
	env := newTestEnv(t)

	submitRate(t, env, "1.05", marchDate)

	_, err := env.services.Fx.ResolveRate(env.ctx, "EUR", "USD", "", marchDate.AddDate(0, 0, -1))
	assert.ErrorIs(t, err, apperrors.ErrNoRateAvailable, "future observations never resolve")

	_, err = env.services.Fx.ResolveRate(env.ctx, "EUR", "JPY", "", marchDate)
	assert.ErrorIs(t, err, apperrors.ErrNoRateAvailable, "an unknown pair has no rate")
}

func TestResolveRate_FiltersByType(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.services.Fx.SubmitRate(env.ctx, dto.CreateRateRequest{
		FromCurrencyCode: "EUR", ToCurrencyCode: "USD",
		Rate: decimal.RequireFromString("1.05"), RateType: domain.RateSpot,
		EffectiveAt: marchDate.AddDate(0, 0, -2),
	}, "tester")
	require.NoError(t, err)
	average, err := env.services.Fx.SubmitRate(env.ctx, dto.CreateRateRequest{
		FromCurrencyCode: "EUR", ToCurrencyCode: "USD",
		Rate: decimal.RequireFromString("1.07"), RateType: domain.RateAverage,
		EffectiveAt: marchDate.AddDate(0, 0, -5),
	}, "tester")
	require.NoError(t, err)

	resolved, err := env.services.Fx.ResolveRate(env.ctx, "EUR", "USD", domain.RateAverage, marchDate)
	require.NoError(t, err)
	assert.Equal(t, average.RateID, resolved.RateID, "type filter skips newer observations of other types")
}

func TestConvert_SameCurrencyIsIdentity(t *testing.T) {
	env := newTestEnv(t)

	converted, rate, err := env.services.Fx.Convert(env.ctx, 12345, "USD", "usd", "", marchDate)
	require.NoError(t, err)
	assert.Equal(t, int64(12345), converted)
	assert.Nil(t, rate, "no rate participates in an identity conversion")
}

func TestConvert_UsesTargetPrecision(t *testing.T) {
	env := newTestEnv(t)

	// EUR (precision 2) to JPY (precision 0).
	_, err := env.services.Fx.SubmitRate(env.ctx, dto.CreateRateRequest{
		FromCurrencyCode: "EUR", ToCurrencyCode: "JPY",
		Rate:        decimal.RequireFromString("161.50"),
		EffectiveAt: marchDate.AddDate(0, 0, -1),
	}, "tester")
	require.NoError(t, err)

	converted, rate, err := env.services.Fx.Convert(env.ctx, 1000, "EUR", "JPY", "", marchDate)
	require.NoError(t, err)
	require.NotNil(t, rate)
	// 10.00 EUR * 161.50 = 1615 JPY, no fractional yen.
	assert.Equal(t, int64(1615), converted)
}

func TestConvertMinor_RoundsHalfToEven(t *testing.T) {
	half := decimal.RequireFromString("0.5")
	testCases := []struct {
		name        string
		amountMinor int64
		rate        decimal.Decimal
		want        int64
	}{
		{"exact half rounds down to even", 25, half, 12},  // 0.125 -> 0.12
		{"exact half rounds up to even", 75, half, 38},    // 0.375 -> 0.38
		{"above half rounds up", 2510, half, 1255},        // 12.55 exactly, no rounding
		{"negative half rounds toward even", -25, half, -12},
		{"plain multiplication", 10000, decimal.RequireFromString("1.10"), 11000},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, services.ConvertMinor(tc.amountMinor, tc.rate, 2, 2))
		})
	}
}

func TestConvertMinor_PrecisionShift(t *testing.T) {
	// 1502.50 JPY is impossible; half a yen rounds to the even neighbor.
	rate := decimal.RequireFromString("150.25")
	assert.Equal(t, int64(1502), services.ConvertMinor(1000, rate, 2, 0))

	// JPY (0) to USD (2): 1000 JPY * 0.0067 = 6.70 USD.
	assert.Equal(t, int64(670), services.ConvertMinor(1000, decimal.RequireFromString("0.0067"), 0, 2))
}
