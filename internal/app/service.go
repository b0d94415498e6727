// Package service provides the core business service that implements
// the dependencies required by the HTTP API.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/okian/factboard/internal/adapters/repository"
	"github.com/okian/factboard/internal/domain/model"
	"github.com/okian/factboard/internal/domain/ranking"
	"github.com/okian/factboard/internal/domain/scoring"
	"github.com/okian/factboard/internal/domain/submission"
	"github.com/okian/factboard/internal/domain/types"
	"github.com/okian/factboard/internal/domain/validate"
	"github.com/okian/factboard/pkg/logger"
	"github.com/okian/factboard/pkg/metrics"
	"github.com/okian/factboard/pkg/retry"
)

const dateLayout = "2006-01-02"

// Health status values.
const (
	StatusOK       = types.HealthOK
	StatusDegraded = types.HealthDegraded
)

// Service implements the API dependencies for the leaderboard system.
type Service struct {
	mu sync.RWMutex

	// Core components
	backend     repository.Store
	store       *repository.RetryingStore
	groundTruth scoring.GroundTruth

	// Configuration
	storeDriver     string
	storeOpts       []repository.Option
	retryPolicy     retry.Policy
	storeTimeout    time.Duration
	retryTimer      backoff.Timer
	numericPolicy   submission.NumericPolicy
	groundTruthPath string
	now             func() time.Time

	// State
	started bool

	// Logging
	logger logger.Logger
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		storeDriver:   repository.DriverMemory,
		retryPolicy:   retry.DefaultPolicy(),
		numericPolicy: submission.PolicyCoerce,
		now:           time.Now,
		logger:        nil, // Will be replaced when service starts
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Start opens the store and loads the ground truth.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	if s.logger == nil {
		s.logger = logger.Get()
	}

	s.logger.Info(ctx, "starting leaderboard service...")

	if s.backend == nil {
		opts := append([]repository.Option{repository.WithLogger(s.logger.Named("store"))}, s.storeOpts...)
		backend, err := repository.Open(ctx, s.storeDriver, opts...)
		if err != nil {
			return fmt.Errorf("open %s store: %w", s.storeDriver, err)
		}
		s.backend = backend
	}

	retryOpts := []repository.RetryOption{
		repository.WithRetryLogger(s.logger.Named("store")),
		repository.WithAttemptTimeout(s.storeTimeout),
	}
	if s.retryTimer != nil {
		retryOpts = append(retryOpts, repository.WithRetryTimer(s.retryTimer))
	}
	s.store = repository.Retrying(s.backend, s.retryPolicy, retryOpts...)

	if err := s.loadGroundTruth(ctx); err != nil {
		_ = s.backend.Close()
		s.backend, s.store = nil, nil
		return err
	}

	s.started = true
	s.logger.Info(ctx, "leaderboard service started",
		logger.String("store", s.backend.Driver()),
		logger.String("numericPolicy", string(s.numericPolicy)),
		logger.Int("retryMaxAttempts", s.retryPolicy.MaxAttempts),
		logger.Duration("retryBaseDelay", s.retryPolicy.BaseDelay),
		logger.Int("groundTruthSize", len(s.groundTruth)),
	)

	return nil
}

func (s *Service) loadGroundTruth(ctx context.Context) error {
	if s.groundTruth != nil {
		return nil
	}
	if s.groundTruthPath == "" {
		s.groundTruth = scoring.GroundTruth{}
		return nil
	}

	gt, err := scoring.LoadGroundTruth(s.groundTruthPath)
	switch {
	case errors.Is(err, scoring.ErrGroundTruthNotFound):
		s.logger.Warn(ctx, "ground truth file not found, scoring disabled",
			logger.String("path", s.groundTruthPath))
	case err != nil:
		return fmt.Errorf("load ground truth: %w", err)
	}
	s.groundTruth = gt
	return nil
}

// Stop gracefully shuts down the service.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	s.logger.Info(context.Background(), "stopping leaderboard service...")

	if err := s.store.Close(); err != nil {
		s.logger.Warn(context.Background(), "failed to close store", logger.Error(err))
	}

	s.started = false
	s.backend, s.store = nil, nil
	s.logger.Info(context.Background(), "leaderboard service stopped")
}

func (s *Service) current() (*repository.RetryingStore, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return nil, ErrNotStarted
	}
	return s.store, nil
}

// Ingest parses one results file, stamps it with teamName and today's UTC
// date, validates it and appends it to the store.
func (s *Service) Ingest(ctx context.Context, raw []byte, teamName string) error {
	store, err := s.current()
	if err != nil {
		return err
	}

	record, sub, err := s.buildRecord(raw, teamName)
	if err != nil {
		s.reject(ctx, teamName, err)
		return err
	}

	if err := store.Insert(ctx, record); err != nil {
		s.reject(ctx, record.Team, err)
		return fmt.Errorf("insert submission: %w", err)
	}

	metrics.RecordSubmissionAccepted()
	s.logger.Info(ctx, "submission accepted",
		logger.String("team", record.Team),
		logger.String("model", record.Model),
		logger.Float64("fullContext", sub.FullContext),
		logger.Float64("goldEvidence", sub.GoldEvidence),
		logger.Float64("delta", sub.Delta()),
		logger.String("date", record.Date),
	)
	return nil
}

func (s *Service) buildRecord(raw []byte, teamName string) (model.Record, submission.Submission, error) {
	sub, err := submission.Parse(raw, s.numericPolicy)
	if err != nil {
		return model.Record{}, submission.Submission{}, err
	}

	team := strings.TrimSpace(teamName)
	if team == "" {
		var verr validate.ValidationError
		verr.Missing(validate.FieldTeam)
		return model.Record{}, sub, fmt.Errorf("%w: %w", ErrMissingTeam, verr.Err())
	}

	record := model.Record{
		Team:         team,
		Model:        sub.Model,
		FullContext:  model.Float(sub.FullContext),
		GoldEvidence: model.Float(sub.GoldEvidence),
		Date:         s.now().UTC().Format(dateLayout),
	}
	if err := validate.Record(record); err != nil {
		return model.Record{}, sub, err
	}
	return record, sub, nil
}

func (s *Service) reject(ctx context.Context, team string, err error) {
	reason := RejectReason(err)
	metrics.RecordSubmissionRejected(reason)
	s.logger.Warn(ctx, "submission rejected",
		logger.String("team", team),
		logger.String("reason", reason),
		logger.Error(err),
	)
}

// RejectReason maps an ingestion error to a short metrics label.
func RejectReason(err error) string {
	switch {
	case errors.Is(err, submission.ErrMalformedPayload):
		return "malformed_payload"
	case errors.Is(err, validate.ErrMissingField):
		return "missing_field"
	case errors.Is(err, validate.ErrValidation):
		return "validation"
	case errors.Is(err, repository.ErrStoreUnavailable):
		return "store_unavailable"
	case errors.Is(err, repository.ErrStoreRejected):
		return "store_rejected"
	default:
		return "internal"
	}
}

// Rank returns every valid stored entry ordered by sortKey, highest first.
// An empty key means fullContext. Invalid rows are dropped and logged.
func (s *Service) Rank(ctx context.Context, sortKey string) ([]types.Entry, error) {
	key, err := ranking.ParseSortKey(sortKey)
	if err != nil {
		return nil, err
	}

	store, err := s.current()
	if err != nil {
		return nil, err
	}

	rows, err := store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list leaderboard: %w", err)
	}

	entries := make([]types.Entry, 0, len(rows))
	dropped := 0
	for _, r := range rows {
		if err := validate.Record(r); err != nil {
			dropped++
			s.logger.Warn(ctx, "dropping invalid leaderboard row",
				logger.String("team", r.Team),
				logger.String("model", r.Model),
				logger.Error(err),
			)
			continue
		}
		entries = append(entries, types.Entry{
			Team:         r.Team,
			Model:        r.Model,
			FullContext:  *r.FullContext,
			GoldEvidence: *r.GoldEvidence,
			Delta:        types.ComputeDelta(*r.FullContext, *r.GoldEvidence),
			Date:         r.Date,
		})
	}

	ranking.Sort(entries, key)

	metrics.RecordLeaderboardQuery(string(key))
	metrics.RecordRowsFiltered(dropped)
	metrics.UpdateLeaderboardEntries(len(entries))
	s.logger.Debug(ctx, "leaderboard ranked",
		logger.String("sortBy", string(key)),
		logger.Int("entries", len(entries)),
		logger.Int("dropped", dropped),
	)
	return entries, nil
}

// Score computes F1 metrics for predictions against the loaded ground truth.
func (s *Service) Score(ctx context.Context, predictions []model.Prediction) (scoring.Result, error) {
	s.mu.RLock()
	gt := s.groundTruth
	s.mu.RUnlock()

	res, err := scoring.Score(gt, predictions)
	if err != nil {
		if len(gt) == 0 {
			err = fmt.Errorf("%w: %w", ErrNoGroundTruth, err)
		}
		s.logger.Warn(ctx, "predictions not scorable",
			logger.Int("predictions", len(predictions)),
			logger.Error(err))
		return scoring.Result{}, err
	}

	metrics.RecordPredictionsScored(res.Scored, res.MacroF1)
	s.logger.Info(ctx, "predictions scored",
		logger.Int("predictions", len(predictions)),
		logger.Int("scored", res.Scored),
		logger.Float64("macroF1", res.MacroF1),
	)
	return res, nil
}

// Health pings the store.
func (s *Service) Health(ctx context.Context) types.Health {
	report := types.Health{Status: StatusOK, Timestamp: s.now().UTC()}

	store, err := s.current()
	if err == nil {
		report.Store = store.Driver()
		err = store.Ping(ctx)
	}
	if err != nil {
		report.Status = StatusDegraded
		report.Error = err.Error()
		s.logger.Warn(ctx, "health check failed", logger.Error(err))
	}
	return report
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats(ctx context.Context) map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]interface{}{
		"started":           s.started,
		"storeDriver":       s.storeDriver,
		"numericPolicy":     string(s.numericPolicy),
		"retryMaxAttempts":  s.retryPolicy.MaxAttempts,
		"retryBaseDelayMs":  s.retryPolicy.BaseDelay.Milliseconds(),
		"groundTruthSize":   len(s.groundTruth),
		"groundTruthLabels": s.groundTruth.Labels(),
	}

	if accepted, err := metrics.Sum("factboard_leaderboard_submissions_accepted_total"); err == nil {
		stats["submissionsAccepted"] = int(accepted)
	}

	if s.started {
		stats["storeDriver"] = s.store.Driver()
		if n, err := s.store.Count(ctx); err == nil {
			stats["totalEntries"] = n
		} else {
			stats["storeError"] = err.Error()
		}
	}

	return stats
}
