package repository

import (
	"context"
	"fmt"

	"github.com/okian/factboard/internal/domain/model"
	"github.com/okian/factboard/pkg/logger"
)

// Open creates the backend named by driver.
func Open(ctx context.Context, driver string, opts ...Option) (Store, error) {
	s := settings{
		sqlitePath: "data/leaderboard.db",
		migrate:    true,
		logger:     logger.Nop(),
	}
	for _, opt := range opts {
		opt(&s)
	}

	var (
		store Store
		err   error
	)
	switch driver {
	case DriverPostgres:
		if s.url == "" {
			return nil, fmt.Errorf("%w: store_url is required for %s", ErrInvalidConfig, driver)
		}
		store, err = NewPGStore(ctx, s.url, s.key, s.migrate, s.logger)
	case DriverSQLite:
		store, err = NewSQLiteStore(ctx, s.sqlitePath, s.migrate, s.logger)
	case DriverMemory:
		store = NewMemStore()
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, driver)
	}
	if err != nil {
		return nil, err
	}

	if s.migrate && len(s.seed) > 0 {
		if err := seedEmpty(ctx, store, s.seed, s.logger); err != nil {
			_ = store.Close()
			return nil, err
		}
	}
	return store, nil
}

// Baseline is the reference row a fresh leaderboard starts with.
func Baseline() model.Record {
	return model.Record{
		Team:         "ViFactCheck",
		Model:        "Gemma",
		FullContext:  model.Float(85.94),
		GoldEvidence: model.Float(89.90),
		Date:         "2024-03-20",
	}
}

func seedEmpty(ctx context.Context, store Store, rows []model.Record, l logger.Logger) error {
	n, err := store.Count(ctx)
	if err != nil {
		return fmt.Errorf("failed to seed leaderboard: %w", err)
	}
	if n > 0 {
		return nil
	}
	for _, r := range rows {
		if err := store.Insert(ctx, r); err != nil {
			return fmt.Errorf("failed to seed leaderboard: %w", err)
		}
	}
	l.Info(ctx, "leaderboard seeded", logger.String("driver", store.Driver()), logger.Int("rows", len(rows)))
	return nil
}
