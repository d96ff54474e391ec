package pgsql

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/openbooks-app/openbooks/internal/core/domain"
	portsrepo "github.com/openbooks-app/openbooks/internal/core/ports/repositories"
)

type PgxCurrencyRepository struct {
	BaseRepository
}

func newPgxCurrencyRepository(pool *pgxpool.Pool) portsrepo.CurrencyRepositoryFacade {
	return &PgxCurrencyRepository{BaseRepository: BaseRepository{Pool: pool}}
}

// Ensure PgxCurrencyRepository implements portsrepo.CurrencyRepositoryFacade
var _ portsrepo.CurrencyRepositoryFacade = (*PgxCurrencyRepository)(nil)

func (r *PgxCurrencyRepository) SaveCurrency(ctx context.Context, currency domain.Currency) error {
	query := `
		INSERT INTO currencies (currency_code, symbol, name, precision, created_at, created_by, last_updated_at, last_updated_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (currency_code) DO NOTHING;
	`
	_, err := r.Pool.Exec(ctx, query,
		currency.CurrencyCode,
		currency.Symbol,
		currency.Name,
		currency.Precision,
		currency.CreatedAt,
		currency.CreatedBy,
		currency.LastUpdatedAt,
		currency.LastUpdatedBy,
	)
	if err != nil {
		return fmt.Errorf("failed to save currency %s: %w", currency.CurrencyCode, err)
	}
	return nil
}

func (r *PgxCurrencyRepository) FindCurrencyByCode(ctx context.Context, code string) (*domain.Currency, error) {
	query := `
		SELECT currency_code, symbol, name, precision, created_at, created_by, last_updated_at, last_updated_by
		FROM currencies
		WHERE currency_code = $1;
	`
	var currency domain.Currency
	err := r.Pool.QueryRow(ctx, query, code).Scan(
		&currency.CurrencyCode,
		&currency.Symbol,
		&currency.Name,
		&currency.Precision,
		&currency.CreatedAt,
		&currency.CreatedBy,
		&currency.LastUpdatedAt,
		&currency.LastUpdatedBy,
	)
	if err != nil {
		return nil, mapNoRows(err, "currency "+code)
	}
	return &currency, nil
}

func (r *PgxCurrencyRepository) ListCurrencies(ctx context.Context) ([]domain.Currency, error) {
	query := `
		SELECT currency_code, symbol, name, precision, created_at, created_by, last_updated_at, last_updated_by
		FROM currencies
		ORDER BY currency_code;
	`
	rows, err := r.Pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list currencies: %w", err)
	}
	defer rows.Close()

	var currencies []domain.Currency
	for rows.Next() {
		var currency domain.Currency
		if err := rows.Scan(
			&currency.CurrencyCode,
			&currency.Symbol,
			&currency.Name,
			&currency.Precision,
			&currency.CreatedAt,
			&currency.CreatedBy,
			&currency.LastUpdatedAt,
			&currency.LastUpdatedBy,
		); err != nil {
			return nil, fmt.Errorf("failed to scan currency row: %w", err)
		}
		currencies = append(currencies, currency)
	}
	return currencies, rows.Err()
}

type PgxRateRepository struct {
	BaseRepository
}

func newPgxRateRepository(pool *pgxpool.Pool) portsrepo.RateRepositoryFacade {
	return &PgxRateRepository{BaseRepository: BaseRepository{Pool: pool}}
}

// Ensure PgxRateRepository implements portsrepo.RateRepositoryFacade
var _ portsrepo.RateRepositoryFacade = (*PgxRateRepository)(nil)

const rateColumns = `rate_id, from_currency_code, to_currency_code, rate, rate_type, effective_at, source, created_at, created_by, last_updated_at, last_updated_by`

func scanRate(row interface{ Scan(...any) error }) (*domain.CurrencyRate, error) {
	var rate domain.CurrencyRate
	err := row.Scan(
		&rate.RateID,
		&rate.FromCurrencyCode,
		&rate.ToCurrencyCode,
		&rate.Rate,
		&rate.RateType,
		&rate.EffectiveAt,
		&rate.Source,
		&rate.CreatedAt,
		&rate.CreatedBy,
		&rate.LastUpdatedAt,
		&rate.LastUpdatedBy,
	)
	if err != nil {
		return nil, err
	}
	return &rate, nil
}

func (r *PgxRateRepository) SaveRate(ctx context.Context, rate domain.CurrencyRate) error {
	query := `
		INSERT INTO currency_rates (` + rateColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11);
	`
	_, err := r.Pool.Exec(ctx, query,
		rate.RateID,
		rate.FromCurrencyCode,
		rate.ToCurrencyCode,
		rate.Rate,
		rate.RateType,
		rate.EffectiveAt,
		rate.Source,
		rate.CreatedAt,
		rate.CreatedBy,
		rate.LastUpdatedAt,
		rate.LastUpdatedBy,
	)
	if err != nil {
		return fmt.Errorf("failed to save rate %s: %w", rate.RateID, err)
	}
	return nil
}

// FindRateAt picks the observation with the latest effective timestamp at or
// before asOf. Ties break on created_at so later corrections win.
func (r *PgxRateRepository) FindRateAt(ctx context.Context, fromCurrency string, toCurrency string, rateType domain.RateType, asOf time.Time) (*domain.CurrencyRate, error) {
	args := []any{fromCurrency, toCurrency, asOf}
	query := `
		SELECT ` + rateColumns + `
		FROM currency_rates
		WHERE from_currency_code = $1 AND to_currency_code = $2 AND effective_at <= $3
	`
	if rateType != "" {
		query += ` AND rate_type = $4`
		args = append(args, rateType)
	}
	query += ` ORDER BY effective_at DESC, created_at DESC LIMIT 1;`

	rate, err := scanRate(r.Pool.QueryRow(ctx, query, args...))
	if err != nil {
		return nil, mapNoRows(err, fmt.Sprintf("rate %s->%s", fromCurrency, toCurrency))
	}
	return rate, nil
}

func (r *PgxRateRepository) ListRates(ctx context.Context, fromCurrency string, toCurrency string) ([]domain.CurrencyRate, error) {
	query := `
		SELECT ` + rateColumns + `
		FROM currency_rates
		WHERE from_currency_code = $1 AND to_currency_code = $2
		ORDER BY effective_at DESC, created_at DESC;
	`
	rows, err := r.Pool.Query(ctx, query, fromCurrency, toCurrency)
	if err != nil {
		return nil, fmt.Errorf("failed to list rates: %w", err)
	}
	defer rows.Close()

	var rates []domain.CurrencyRate
	for rows.Next() {
		rate, err := scanRate(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan rate row: %w", err)
		}
		rates = append(rates, *rate)
	}
	return rates, rows.Err()
}
