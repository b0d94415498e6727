package retry

import (
	"time"

	"github.com/cenkalti/backoff/v4"
)

// Option configures a single Do call.
type Option func(*settings)

type settings struct {
	retryable func(error) bool
	notify    func(attempt int, err error, wait time.Duration)
	timer     backoff.Timer
}

// WithRetryable sets the classifier deciding whether a failure is worth another attempt.
// By default every failure is retried.
func WithRetryable(fn func(error) bool) Option {
	return func(s *settings) {
		if fn != nil {
			s.retryable = fn
		}
	}
}

// WithNotify registers a hook invoked before each wait. attempt is the
// 1-based number of the attempt that just failed.
func WithNotify(fn func(attempt int, err error, wait time.Duration)) Option {
	return func(s *settings) {
		s.notify = fn
	}
}

// WithTimer replaces the wall-clock timer used between attempts.
func WithTimer(t backoff.Timer) Option {
	return func(s *settings) {
		s.timer = t
	}
}
