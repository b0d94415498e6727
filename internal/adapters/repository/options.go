package repository

import (
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/okian/factboard/internal/domain/model"
	"github.com/okian/factboard/pkg/logger"
)

// Backend names accepted by Open.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
	DriverMemory   = "memory"
)

// Option applies a configuration option to Open.
type Option func(*settings)

type settings struct {
	url        string
	key        string
	sqlitePath string
	migrate    bool
	seed       []model.Record
	logger     logger.Logger
}

// WithURL sets the Postgres connection string.
func WithURL(url string) Option {
	return func(s *settings) {
		s.url = url
	}
}

// WithKey sets the access key presented to the hosted database. It replaces
// any password carried by the connection string.
func WithKey(key string) Option {
	return func(s *settings) {
		s.key = key
	}
}

// WithSQLitePath sets the database file used by the sqlite driver.
func WithSQLitePath(path string) Option {
	return func(s *settings) {
		if path != "" {
			s.sqlitePath = path
		}
	}
}

// WithMigrate controls whether the leaderboard table is created on open.
func WithMigrate(migrate bool) Option {
	return func(s *settings) {
		s.migrate = migrate
	}
}

// WithSeed sets rows written when the table is empty right after opening
// with migration enabled.
func WithSeed(rows ...model.Record) Option {
	return func(s *settings) {
		s.seed = append(s.seed, rows...)
	}
}

// WithLogger sets the logger used by the backend.
func WithLogger(l logger.Logger) Option {
	return func(s *settings) {
		if l != nil {
			s.logger = l
		}
	}
}

// RetryOption applies a configuration option to the Retrying decorator.
type RetryOption func(*RetryingStore)

// WithRetryLogger sets the logger used to report retries.
func WithRetryLogger(l logger.Logger) RetryOption {
	return func(r *RetryingStore) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithAttemptTimeout bounds each attempt; zero leaves attempts unbounded.
func WithAttemptTimeout(d time.Duration) RetryOption {
	return func(r *RetryingStore) {
		if d > 0 {
			r.attemptTimeout = d
		}
	}
}

// WithRetryTimer replaces the wall-clock timer between attempts. The timer
// is shared by every call, so it must only be used without concurrency.
func WithRetryTimer(t backoff.Timer) RetryOption {
	return func(r *RetryingStore) {
		r.timer = t
	}
}
