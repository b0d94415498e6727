package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/okian/factboard/internal/domain/model"
	"github.com/okian/factboard/pkg/logger"
	"github.com/okian/factboard/pkg/metrics"
	"github.com/okian/factboard/pkg/retry"
)

// Operation names used in errors, logs and metrics.
const (
	opList   = "list"
	opInsert = "insert"
	opCount  = "count"
	opPing   = "ping"
)

// RetryingStore runs List, Insert and Count of an inner Store through the
// retry wrapper. Only transient failures are retried.
type RetryingStore struct {
	inner          Store
	policy         retry.Policy
	logger         logger.Logger
	attemptTimeout time.Duration
	timer          backoff.Timer
}

// Retrying decorates s with policy.
func Retrying(s Store, policy retry.Policy, opts ...RetryOption) *RetryingStore {
	r := &RetryingStore{
		inner:  s,
		policy: policy,
		logger: logger.Nop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// List implements Store.
func (r *RetryingStore) List(ctx context.Context) ([]model.Record, error) {
	return run(ctx, r, opList, r.inner.List)
}

// Insert implements Store.
func (r *RetryingStore) Insert(ctx context.Context, rec model.Record) error {
	_, err := run(ctx, r, opInsert, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, r.inner.Insert(ctx, rec)
	})
	return err
}

// Count implements Store.
func (r *RetryingStore) Count(ctx context.Context) (int, error) {
	return run(ctx, r, opCount, r.inner.Count)
}

// Ping implements Store. Health checks are not retried.
func (r *RetryingStore) Ping(ctx context.Context) error {
	ctx, cancel := r.attemptContext(ctx)
	defer cancel()
	return r.inner.Ping(ctx)
}

// Driver implements Store.
func (r *RetryingStore) Driver() string { return r.inner.Driver() }

// Close implements Store.
func (r *RetryingStore) Close() error { return r.inner.Close() }

// Policy returns the retry policy in use.
func (r *RetryingStore) Policy() retry.Policy { return r.policy }

func (r *RetryingStore) attemptContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if r.attemptTimeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, r.attemptTimeout)
}

func run[T any](ctx context.Context, r *RetryingStore, op string, fn func(context.Context) (T, error)) (T, error) {
	start := time.Now()
	defer func() {
		metrics.RecordStoreLatency(op, float64(time.Since(start).Milliseconds()))
	}()

	attempt := func(ctx context.Context) (T, error) {
		actx, cancel := r.attemptContext(ctx)
		defer cancel()
		res, err := fn(actx)
		// Expiry of the per-attempt deadline alone is transient.
		if err != nil && ctx.Err() == nil && errors.Is(err, context.DeadlineExceeded) && !IsTransient(err) {
			err = storeErr(op, err, true)
		}
		return res, err
	}

	opts := []retry.Option{
		retry.WithRetryable(IsTransient),
		retry.WithNotify(func(n int, err error, wait time.Duration) {
			metrics.RecordStoreRetry(op)
			r.logger.Warn(ctx, "store operation failed, retrying",
				logger.String("op", op),
				logger.Int("attempt", n),
				logger.Duration("wait", wait),
				logger.Error(err))
		}),
	}
	if r.timer != nil {
		opts = append(opts, retry.WithTimer(r.timer))
	}

	res, err := retry.Do(ctx, r.policy, attempt, opts...)
	if err == nil {
		return res, nil
	}

	var zero T
	switch {
	case errors.Is(err, retry.ErrPermanent):
		metrics.RecordStoreFailure(op, "permanent")
		r.logger.Error(ctx, "store operation rejected", logger.String("op", op), logger.Error(err))
		return zero, fmt.Errorf("%w: %w", ErrStoreRejected, err)
	case ctx.Err() != nil:
		metrics.RecordStoreFailure(op, "cancelled")
		return zero, fmt.Errorf("%w: %s: %w", ErrStoreUnavailable, op, err)
	default:
		metrics.RecordStoreFailure(op, "exhausted")
		r.logger.Error(ctx, "store operation failed after retries",
			logger.String("op", op),
			logger.Int("max_attempts", r.policy.MaxAttempts),
			logger.Error(err))
		return zero, fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}
}
