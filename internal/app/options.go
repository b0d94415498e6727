package service

import (
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/okian/factboard/internal/adapters/repository"
	"github.com/okian/factboard/internal/domain/scoring"
	"github.com/okian/factboard/internal/domain/submission"
	"github.com/okian/factboard/pkg/logger"
	"github.com/okian/factboard/pkg/retry"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithStore injects an open backend instead of opening one on Start.
// The service takes ownership and closes it on Stop.
func WithStore(store repository.Store) Option {
	return func(s *Service) {
		if store != nil {
			s.backend = store
		}
	}
}

// WithStoreDriver selects the backend opened on Start.
func WithStoreDriver(driver string, opts ...repository.Option) Option {
	return func(s *Service) {
		if driver != "" {
			s.storeDriver = driver
		}
		s.storeOpts = append(s.storeOpts, opts...)
	}
}

// WithRetryPolicy sets the retry policy for store operations.
func WithRetryPolicy(p retry.Policy) Option {
	return func(s *Service) {
		s.retryPolicy = p
	}
}

// WithStoreTimeout bounds each store attempt.
func WithStoreTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.storeTimeout = d
		}
	}
}

// WithRetryTimer replaces the wall-clock timer between store retries.
func WithRetryTimer(t backoff.Timer) Option {
	return func(s *Service) {
		s.retryTimer = t
	}
}

// WithNumericPolicy sets how uploaded scores are read.
func WithNumericPolicy(p submission.NumericPolicy) Option {
	return func(s *Service) {
		if p != "" {
			s.numericPolicy = p
		}
	}
}

// WithGroundTruth injects scoring labels instead of loading them on Start.
func WithGroundTruth(gt scoring.GroundTruth) Option {
	return func(s *Service) {
		if gt != nil {
			s.groundTruth = gt
		}
	}
}

// WithGroundTruthPath sets the file loaded on Start when no labels were injected.
func WithGroundTruthPath(path string) Option {
	return func(s *Service) {
		s.groundTruthPath = path
	}
}

// WithClock replaces the clock used to stamp submission dates.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}
