// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New(ctx) to build a Config with defaults.
// - All functions accept context.Context as the first parameter.
// - Errors are wrapped with this package's sentinel kinds.
package config

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/okian/factboard/pkg/retry"
)

// Store drivers and numeric policies accepted by Validate.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
	DriverMemory   = "memory"

	PolicyCoerce = "coerce"
	PolicyStrict = "strict"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the log handler: text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// StoreDriver selects the leaderboard backend: postgres, sqlite or memory.
	StoreDriver string `koanf:"store_driver"`

	// StoreURL is the Postgres connection string.
	StoreURL string `koanf:"store_url"`

	// StoreKey is the access key for the hosted database.
	StoreKey string `koanf:"store_key"`

	// StoreMigrate creates the leaderboard table on start-up when missing.
	StoreMigrate bool `koanf:"store_migrate"`

	// SeedBaseline writes the reference row into an empty leaderboard on start-up.
	SeedBaseline bool `koanf:"seed_baseline"`

	// SQLitePath is the database file used by the sqlite driver.
	SQLitePath string `koanf:"sqlite_path"`

	// RetryMaxAttempts and RetryBaseDelayMS bound store retries.
	RetryMaxAttempts int `koanf:"retry_max_attempts"`
	RetryBaseDelayMS int `koanf:"retry_base_delay_ms"`

	// StoreTimeoutMS bounds a single store attempt.
	StoreTimeoutMS int `koanf:"store_timeout_ms"`

	// WriteTimeoutMS is the HTTP server write timeout. It must exceed the
	// worst-case store budget so exhausted retries still reach the client.
	WriteTimeoutMS int `koanf:"write_timeout_ms"`

	// NumericPolicy controls how uploaded scores are read: coerce or strict.
	NumericPolicy string `koanf:"numeric_policy"`

	// GroundTruthPath points at the JSON labels used for scoring.
	GroundTruthPath string `koanf:"ground_truth_path"`

	// MaxUploadBytes caps multipart and JSON request bodies.
	MaxUploadBytes int64 `koanf:"max_upload_bytes"`

	// CORSAllowOrigin is sent as Access-Control-Allow-Origin.
	CORSAllowOrigin string `koanf:"cors_allow_origin"`
}

// New creates a Config with defaults.
func New(_ context.Context) *Config {
	return &Config{
		LogLevel:         "info",
		LogFormat:        "text",
		Addr:             ":3000",
		StoreDriver:      DriverSQLite,
		StoreMigrate:     true,
		SQLitePath:       "data/leaderboard.db",
		RetryMaxAttempts: 3,
		RetryBaseDelayMS: 1000,
		StoreTimeoutMS:   5_000,
		WriteTimeoutMS:   30_000,
		NumericPolicy:    PolicyCoerce,
		GroundTruthPath:  "data/ground_truth.json",
		MaxUploadBytes:   1 << 20,
		CORSAllowOrigin:  "*",
	}
}

// RetryBaseDelay returns RetryBaseDelayMS as a duration.
func (c *Config) RetryBaseDelay() time.Duration {
	return time.Duration(c.RetryBaseDelayMS) * time.Millisecond
}

// StoreTimeout returns StoreTimeoutMS as a duration.
func (c *Config) StoreTimeout() time.Duration {
	return time.Duration(c.StoreTimeoutMS) * time.Millisecond
}

// WriteTimeout returns WriteTimeoutMS as a duration.
func (c *Config) WriteTimeout() time.Duration {
	return time.Duration(c.WriteTimeoutMS) * time.Millisecond
}

// StoreBudget is the longest a store call can take before retries are
// exhausted: every attempt running into its timeout plus the backoff waits.
func (c *Config) StoreBudget() time.Duration {
	budget := time.Duration(c.RetryMaxAttempts) * c.StoreTimeout()
	policy := retry.Policy{MaxAttempts: c.RetryMaxAttempts, BaseDelay: c.RetryBaseDelay()}
	for _, d := range policy.Delays() {
		if d > math.MaxInt64-budget {
			return math.MaxInt64
		}
		budget += d
	}
	return budget
}

// Validate checks the configuration for values the service cannot run with.
func (c *Config) Validate(_ context.Context) error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.RetryMaxAttempts < 1:
		return fmt.Errorf("%w: retry_max_attempts must be at least 1, got %d", ErrInvalidConfig, c.RetryMaxAttempts)
	case c.RetryBaseDelayMS < 0:
		return fmt.Errorf("%w: retry_base_delay_ms must not be negative, got %d", ErrInvalidConfig, c.RetryBaseDelayMS)
	case c.StoreTimeoutMS < 1:
		return fmt.Errorf("%w: store_timeout_ms must be positive, got %d", ErrInvalidConfig, c.StoreTimeoutMS)
	case c.WriteTimeoutMS < 1:
		return fmt.Errorf("%w: write_timeout_ms must be positive, got %d", ErrInvalidConfig, c.WriteTimeoutMS)
	case int64(c.RetryMaxAttempts)*int64(c.StoreTimeoutMS) >= int64(c.WriteTimeoutMS):
		return fmt.Errorf("%w: %d attempts of store_timeout_ms %d do not fit in write_timeout_ms %d",
			ErrInvalidConfig, c.RetryMaxAttempts, c.StoreTimeoutMS, c.WriteTimeoutMS)
	case c.MaxUploadBytes <= 0:
		return fmt.Errorf("%w: max_upload_bytes must be positive, got %d", ErrInvalidConfig, c.MaxUploadBytes)
	}

	if budget := c.StoreBudget(); budget >= c.WriteTimeout() {
		return fmt.Errorf("%w: store retry budget %s must be below write_timeout_ms %d",
			ErrInvalidConfig, budget, c.WriteTimeoutMS)
	}

	switch c.NumericPolicy {
	case PolicyCoerce, PolicyStrict:
	default:
		return fmt.Errorf("%w: numeric_policy must be coerce or strict, got %q", ErrInvalidConfig, c.NumericPolicy)
	}

	switch c.StoreDriver {
	case DriverPostgres:
		if c.StoreURL == "" {
			return fmt.Errorf("%w: store_url is required for the postgres driver", ErrInvalidConfig)
		}
	case DriverSQLite:
		if c.SQLitePath == "" {
			return fmt.Errorf("%w: sqlite_path is required for the sqlite driver", ErrInvalidConfig)
		}
	case DriverMemory:
	default:
		return fmt.Errorf("%w: unknown store_driver %q", ErrInvalidConfig, c.StoreDriver)
	}
	return nil
}
