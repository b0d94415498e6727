// Package retry runs fallible operations with bounded exponential backoff.
package retry

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// Default policy values.
const (
	DefaultMaxAttempts = 3
	DefaultBaseDelay   = time.Second
	backoffMultiplier  = 2
)

// Policy bounds a retry loop: at most MaxAttempts calls, waiting
// BaseDelay * 2^i after the i-th failure (0-based).
type Policy struct {
	MaxAttempts int
	BaseDelay   time.Duration
}

// DefaultPolicy returns three attempts with a one second base delay.
func DefaultPolicy() Policy {
	return Policy{MaxAttempts: DefaultMaxAttempts, BaseDelay: DefaultBaseDelay}
}

func (p Policy) normalized() Policy {
	if p.MaxAttempts < 1 {
		p.MaxAttempts = 1
	}
	if p.BaseDelay < 0 {
		p.BaseDelay = 0
	}
	return p
}

// Delays lists the waits the policy would apply between attempts.
func (p Policy) Delays() []time.Duration {
	p = p.normalized()
	b := p.backOff()
	b.Reset()
	out := make([]time.Duration, 0, p.MaxAttempts-1)
	for i := 0; i < p.MaxAttempts-1; i++ {
		out = append(out, b.NextBackOff())
	}
	return out
}

func (p Policy) backOff() *backoff.ExponentialBackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = p.BaseDelay
	b.RandomizationFactor = 0
	b.Multiplier = backoffMultiplier
	b.MaxInterval = time.Duration(math.MaxInt64)
	b.MaxElapsedTime = 0
	return b
}

// Do invokes op until it succeeds, the policy is used up, a non-retryable
// error occurs or ctx is done.
//
// Exhaustion returns an error wrapping ErrExhausted and the last failure;
// a non-retryable failure is returned wrapped in ErrPermanent; cancellation
// returns the context error.
func Do[T any](ctx context.Context, policy Policy, op func(ctx context.Context) (T, error), opts ...Option) (T, error) {
	var zero T
	if err := ctx.Err(); err != nil {
		return zero, err
	}

	s := settings{retryable: func(error) bool { return true }}
	for _, opt := range opts {
		opt(&s)
	}

	policy = policy.normalized()
	b := backoff.WithMaxRetries(backoff.WithContext(policy.backOff(), ctx), uint64(policy.MaxAttempts-1)) //nolint:gosec // MaxAttempts >= 1

	attempts := 0
	permanent := false
	operation := func() (T, error) {
		attempts++
		res, err := op(ctx)
		if err == nil {
			return res, nil
		}
		if !s.retryable(err) {
			permanent = true
			return res, backoff.Permanent(err)
		}
		return res, err
	}

	var notify backoff.Notify
	if s.notify != nil {
		notify = func(err error, wait time.Duration) {
			s.notify(attempts, err, wait)
		}
	}

	res, err := backoff.RetryNotifyWithTimerAndData(operation, b, notify, s.timer)
	if err == nil {
		return res, nil
	}

	switch {
	case permanent:
		return zero, fmt.Errorf("%w: %w", ErrPermanent, err)
	case ctx.Err() != nil && errors.Is(err, ctx.Err()):
		return zero, err
	default:
		return zero, fmt.Errorf("%w after %d attempts: %w", ErrExhausted, attempts, err)
	}
}
