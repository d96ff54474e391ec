package config

import (
	"log"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds application configuration.
type Config struct {
	DatabaseURL   string
	Port          string
	IsProduction  bool
	EnableDBCheck bool

	// Rate limiting, e.g. "100-M" for 100 requests per minute.
	RateLimit string

	// Reconciliation matcher knobs.
	MatcherAmountWeight         float64
	MatcherDateWeight           float64
	MatcherDescriptionWeight    float64
	MatcherAmountToleranceMinor int64
	MatcherDateToleranceDays    int
	MatcherMinScore             float64
}

// LoadConfig loads configuration from environment variables and .env file if present.
func LoadConfig() (*Config, error) {
	// Attempt to load .env file, ignore error if it doesn't exist
	_ = godotenv.Load()

	viper.SetDefault("PGSQL_URL", "")
	viper.SetDefault("PORT", "8080")
	viper.SetDefault("IS_PRODUCTION", false)
	viper.SetDefault("ENABLE_DB_CHECK", false)
	viper.SetDefault("RATE_LIMIT", "100-M")
	viper.SetDefault("MATCHER_AMOUNT_WEIGHT", 0.45)
	viper.SetDefault("MATCHER_DATE_WEIGHT", 0.35)
	viper.SetDefault("MATCHER_DESCRIPTION_WEIGHT", 0.20)
	viper.SetDefault("MATCHER_AMOUNT_TOLERANCE_MINOR", 5000)
	viper.SetDefault("MATCHER_DATE_TOLERANCE_DAYS", 7)
	viper.SetDefault("MATCHER_MIN_SCORE", 0.35)

	viper.AutomaticEnv()

	cfg := &Config{}

	cfg.DatabaseURL = viper.GetString("PGSQL_URL")
	if cfg.DatabaseURL == "" {
		log.Println("Warning: PGSQL_URL environment variable not set. Falling back to in-memory storage.")
	}

	cfg.Port = viper.GetString("PORT")
	if cfg.Port == "" {
		cfg.Port = "8080" // Default port
		log.Printf("Warning: PORT environment variable not set. Defaulting to %s\n", cfg.Port)
	}

	cfg.IsProduction = viper.GetBool("IS_PRODUCTION")
	cfg.EnableDBCheck = viper.GetBool("ENABLE_DB_CHECK")
	cfg.RateLimit = viper.GetString("RATE_LIMIT")

	cfg.MatcherAmountWeight = viper.GetFloat64("MATCHER_AMOUNT_WEIGHT")
	cfg.MatcherDateWeight = viper.GetFloat64("MATCHER_DATE_WEIGHT")
	cfg.MatcherDescriptionWeight = viper.GetFloat64("MATCHER_DESCRIPTION_WEIGHT")
	cfg.MatcherAmountToleranceMinor = viper.GetInt64("MATCHER_AMOUNT_TOLERANCE_MINOR")
	cfg.MatcherDateToleranceDays = viper.GetInt("MATCHER_DATE_TOLERANCE_DAYS")
	cfg.MatcherMinScore = viper.GetFloat64("MATCHER_MIN_SCORE")

	weightSum := cfg.MatcherAmountWeight + cfg.MatcherDateWeight + cfg.MatcherDescriptionWeight
	if weightSum < 0.999 || weightSum > 1.001 {
		log.Printf("Warning: matcher weights sum to %.3f, not 1. Using defaults.\n", weightSum)
		cfg.MatcherAmountWeight = 0.45
		cfg.MatcherDateWeight = 0.35
		cfg.MatcherDescriptionWeight = 0.20
	}

	return cfg, nil
}
