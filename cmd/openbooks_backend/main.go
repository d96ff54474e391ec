package main

import (
	"context"
	"database/sql"
	"log/slog"
	"os"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/openbooks-app/openbooks/internal/core/domain"
	portsrepo "github.com/openbooks-app/openbooks/internal/core/ports/repositories"
	"github.com/openbooks-app/openbooks/internal/core/services"
	"github.com/openbooks-app/openbooks/internal/handlers"
	"github.com/openbooks-app/openbooks/internal/middleware"
	"github.com/openbooks-app/openbooks/internal/repositories/database/pgsql"
	memstore "github.com/openbooks-app/openbooks/internal/repositories/memory"
	"github.com/openbooks-app/openbooks/internal/telemetry"
	"github.com/openbooks-app/openbooks/pkg/config"
	"github.com/openbooks-app/openbooks/pkg/database"
	"github.com/ulule/limiter/v3"
	limitermem "github.com/ulule/limiter/v3/drivers/store/memory"

	migrate "github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/jackc/pgx/v5/stdlib"
)

// @title OpenBooks API
// @version 1.0
// @description Multi-tenant double-entry accounting core with bank statement
// @description ingestion and reconciliation.

// @host localhost:8080
// @BasePath /api/v1
func main() {
	// Initialize structured logger
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Error("Failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	var repos portsrepo.RepositoryProvider
	var dbPool *pgxpool.Pool
	if cfg.DatabaseURL == "" {
		logger.Warn("No database configured, using in-memory storage; all data is lost on shutdown")
		repos = memstore.NewRepositoryProvider()
	} else {
		dbPool, err = database.NewPgxPool(context.Background(), cfg.DatabaseURL)
		if err != nil {
			logger.Error("Failed to initialize database pool", slog.String("error", err.Error()))
			os.Exit(1)
		}
		defer database.ClosePgxPool(dbPool)
		logger.Info("Database connection pool established.")

		if err := runMigrations(logger, cfg.DatabaseURL); err != nil {
			logger.Error("Failed to apply migrations", slog.String("error", err.Error()))
			os.Exit(1)
		}

		repos = pgsql.NewRepositoryProvider(dbPool)
	}

	if err := seedCurrencies(context.Background(), repos); err != nil {
		logger.Error("Failed to seed currency registry", slog.String("error", err.Error()))
		os.Exit(1)
	}

	counters := telemetry.New()
	serviceContainer := services.NewServiceContainer(cfg, repos, counters)

	if cfg.IsProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Global middleware (logging, recovery, actor attribution)
	r.Use(middleware.StructuredLoggingMiddleware(logger), gin.Recovery(), middleware.ActorMiddleware())
	r.Use(cors.Default())

	rate, err := limiter.NewRateFromFormatted(cfg.RateLimit)
	if err != nil {
		logger.Error("Invalid rate limit format", slog.String("rate_limit", cfg.RateLimit), slog.String("error", err.Error()))
		os.Exit(1)
	}
	r.Use(middleware.RateLimit(limiter.New(limitermem.NewStore(), rate)))

	if err := r.SetTrustedProxies(nil); err != nil {
		logger.Error("Failed to set trusted proxies", slog.String("error", err.Error()))
		os.Exit(1)
	}

	handlers.RegisterRoutes(r, cfg, serviceContainer, counters, dbPool)

	logger.Info("Server starting", slog.String("port", cfg.Port))
	if err := r.Run(":" + cfg.Port); err != nil {
		logger.Error("Server failed to run", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

// runMigrations applies all pending "up" migrations before the server
// starts taking traffic.
func runMigrations(logger *slog.Logger, databaseURL string) error {
	logger.Info("Running database migrations...")

	// Open a temporary standard sql.DB connection for migrations,
	// using the pgx stdlib driver to stay compatible with the main pool.
	migrationDB, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := migrationDB.Close(); cerr != nil {
			logger.Error("Error closing migration DB connection", slog.String("error", cerr.Error()))
		}
	}()
	if err := migrationDB.Ping(); err != nil {
		return err
	}

	driver, err := postgres.WithInstance(migrationDB, &postgres.Config{})
	if err != nil {
		return err
	}

	m, err := migrate.NewWithDatabaseInstance("file://migrations", "postgres", driver)
	if err != nil {
		return err
	}

	upErr := m.Up()
	sourceErr, dbErr := m.Close()
	if upErr != nil && upErr != migrate.ErrNoChange {
		return upErr
	}
	if sourceErr != nil {
		return sourceErr
	}
	if dbErr != nil {
		return dbErr
	}

	if upErr == migrate.ErrNoChange {
		logger.Info("No new migrations to apply.")
	} else {
		logger.Info("Database migrations applied successfully.")
	}
	return nil
}

// seedCurrencies registers the common ISO 4217 currencies so companies and
// rates can reference them out of the box. Saving is idempotent, so
// restarts are harmless.
func seedCurrencies(ctx context.Context, repos portsrepo.RepositoryProvider) error {
	now := time.Now().UTC()
	seed := []domain.Currency{
		{CurrencyCode: "USD", Symbol: "$", Name: "US Dollar", Precision: 2},
		{CurrencyCode: "EUR", Symbol: "€", Name: "Euro", Precision: 2},
		{CurrencyCode: "GBP", Symbol: "£", Name: "Pound Sterling", Precision: 2},
		{CurrencyCode: "JPY", Symbol: "¥", Name: "Japanese Yen", Precision: 0},
		{CurrencyCode: "CHF", Symbol: "CHF", Name: "Swiss Franc", Precision: 2},
		{CurrencyCode: "CAD", Symbol: "$", Name: "Canadian Dollar", Precision: 2},
		{CurrencyCode: "AUD", Symbol: "$", Name: "Australian Dollar", Precision: 2},
		{CurrencyCode: "INR", Symbol: "₹", Name: "Indian Rupee", Precision: 2},
		{CurrencyCode: "KWD", Symbol: "KD", Name: "Kuwaiti Dinar", Precision: 3},
	}
	for _, currency := range seed {
		currency.CreatedAt = now
		currency.CreatedBy = "system"
		currency.LastUpdatedAt = now
		currency.LastUpdatedBy = "system"
		if err := repos.CurrencyRepo.SaveCurrency(ctx, currency); err != nil {
			return err
		}
	}
	return nil
}
