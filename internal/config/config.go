// Package config reads process settings from the environment. A .env file in
// the working directory is loaded first when present.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"revengepos/internal/core/types"
)

const devJWTSecret = "dev-secret-change-me"

// Config holds every setting used by the binaries.
type Config struct {
	App         AppConfig
	Database    DatabaseConfig
	Redis       RedisConfig
	JWT         JWTConfig
	Pricing     PricingConfig
	Idempotency IdempotencyConfig
	Worker      WorkerConfig
}

type AppConfig struct {
	Env      string
	Port     string
	LogLevel string
}

// Development reports whether the process runs outside production.
func (c AppConfig) Development() bool {
	return c.Env != "production"
}

type DatabaseConfig struct {
	URL      string
	MaxConns int32
	MinConns int32
}

// RedisConfig enables the shared L2 cache when URL is set.
type RedisConfig struct {
	URL      string
	CacheTTL time.Duration
}

type JWTConfig struct {
	Secret string
}

type PricingConfig struct {
	TaxRate types.Money
}

type IdempotencyConfig struct {
	Enabled bool
	TTL     time.Duration
}

type WorkerConfig struct {
	PollInterval   time.Duration
	BatchSize      int
	LowStockAlerts bool
}

// Load reads the configuration. Malformed numeric values fall back to their
// defaults; a malformed tax rate is an error.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		App: AppConfig{
			Env:      getEnv("APP_ENV", "development"),
			Port:     getEnv("APP_PORT", "8080"),
			LogLevel: getEnv("LOG_LEVEL", "info"),
		},
		Database: DatabaseConfig{
			URL:      getEnv("DATABASE_URL", ""),
			MaxConns: int32(getEnvInt("DB_MAX_CONNS", 20)),
			MinConns: int32(getEnvInt("DB_MIN_CONNS", 2)),
		},
		Redis: RedisConfig{
			URL:      getEnv("REDIS_URL", ""),
			CacheTTL: getEnvDuration("REDIS_CACHE_TTL", 10*time.Minute),
		},
		JWT: JWTConfig{
			Secret: getEnv("JWT_SECRET", ""),
		},
		Idempotency: IdempotencyConfig{
			Enabled: getEnvBool("IDEMPOTENCY_ENABLED", true),
			TTL:     getEnvDuration("IDEMPOTENCY_TTL", 24*time.Hour),
		},
		Worker: WorkerConfig{
			PollInterval:   getEnvDuration("WORKER_POLL_INTERVAL", 2*time.Second),
			BatchSize:      getEnvInt("WORKER_BATCH_SIZE", 100),
			LowStockAlerts: getEnvBool("LOW_STOCK_ALERTS", true),
		},
	}

	rate, err := types.NewMoneyFromString(getEnv("TAX_RATE", "0.18"))
	if err != nil {
		return nil, fmt.Errorf("TAX_RATE: %w", err)
	}
	cfg.Pricing.TaxRate = rate

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks required settings.
func (c *Config) Validate() error {
	var errs []error
	if c.Database.URL == "" {
		errs = append(errs, errors.New("DATABASE_URL is required"))
	}
	if c.JWT.Secret == "" {
		if c.App.Development() {
			c.JWT.Secret = devJWTSecret
		} else {
			errs = append(errs, errors.New("JWT_SECRET is required in production"))
		}
	}
	if c.Pricing.TaxRate.IsNegative() || c.Pricing.TaxRate.GreaterThanOrEqual(types.MoneyFromInt(1)) {
		errs = append(errs, fmt.Errorf("TAX_RATE must be in [0, 1), got %s", c.Pricing.TaxRate))
	}
	if c.Database.MinConns > c.Database.MaxConns {
		errs = append(errs, errors.New("DB_MIN_CONNS exceeds DB_MAX_CONNS"))
	}
	return errors.Join(errs...)
}

func getEnv(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
