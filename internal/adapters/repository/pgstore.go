package repository

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/okian/factboard/internal/domain/model"
	"github.com/okian/factboard/pkg/logger"
)

const (
	pgSelectAll = `
        SELECT team, model, "fullContext", "goldEvidence", "date"::text
        FROM leaderboard
        ORDER BY "fullContext" DESC NULLS LAST, created_at;
    `
	pgInsert = `
        INSERT INTO leaderboard (id, team, model, "fullContext", "goldEvidence", "date")
        VALUES ($1, $2, $3, $4, $5, $6);
    `
	pgCount = `SELECT count(*) FROM leaderboard;`
)

// PGStore keeps the leaderboard in a hosted Postgres table.
type PGStore struct {
	pool *pgxpool.Pool
}

// NewPGStore connects to url and verifies the connection. A non-empty key
// is used as the connection password. When migrate is set, the table is
// created if missing.
func NewPGStore(ctx context.Context, url, key string, migrate bool, l logger.Logger) (*PGStore, error) {
	if l == nil {
		l = logger.Nop()
	}
	cfg, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, fmt.Errorf("%w: parse store_url: %w", ErrInvalidConfig, err)
	}
	if key != "" {
		cfg.ConnConfig.Password = key
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}
	s := &PGStore{pool: pool}

	if err := s.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping DB: %w", err)
	}

	if migrate {
		if _, err := pool.Exec(ctx, schemaPostgres); err != nil {
			pool.Close()
			return nil, fmt.Errorf("failed to create schema: %w", err)
		}
		l.Info(ctx, "leaderboard schema ready", logger.String("driver", DriverPostgres))
	}
	return s, nil
}

// List implements Store.
func (s *PGStore) List(ctx context.Context) ([]model.Record, error) {
	rows, err := s.pool.Query(ctx, pgSelectAll)
	if err != nil {
		return nil, pgErr(opList, err)
	}
	defer rows.Close()

	out := make([]model.Record, 0)
	for rows.Next() {
		var (
			team, mdl, date *string
			r               model.Record
		)
		if err := rows.Scan(&team, &mdl, &r.FullContext, &r.GoldEvidence, &date); err != nil {
			return nil, pgErr(opList, err)
		}
		r.Team, r.Model, r.Date = deref(team), deref(mdl), deref(date)
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, pgErr(opList, err)
	}
	return out, nil
}

// Insert implements Store.
func (s *PGStore) Insert(ctx context.Context, r model.Record) error {
	date, err := time.Parse(dateLayout, r.Date)
	if err != nil {
		return storeErr(opInsert, fmt.Errorf("bad date %q: %w", r.Date, err), false)
	}
	if _, err := s.pool.Exec(ctx, pgInsert, uuid.New(), r.Team, r.Model, r.FullContext, r.GoldEvidence, date); err != nil {
		return pgErr(opInsert, err)
	}
	return nil
}

// Count implements Store.
func (s *PGStore) Count(ctx context.Context) (int, error) {
	var n int64
	if err := s.pool.QueryRow(ctx, pgCount).Scan(&n); err != nil {
		return 0, pgErr(opCount, err)
	}
	return int(n), nil
}

// Ping implements Store.
func (s *PGStore) Ping(ctx context.Context) error {
	c, err := s.pool.Acquire(ctx)
	if err != nil {
		return pgErr(opPing, err)
	}
	defer c.Release()
	return pgErr(opPing, c.Ping(ctx))
}

// Driver implements Store.
func (s *PGStore) Driver() string { return DriverPostgres }

// Close implements Store.
func (s *PGStore) Close() error {
	s.pool.Close()
	return nil
}

func pgErr(op string, err error) error {
	if err == nil {
		return nil
	}
	return storeErr(op, err, pgTransient(err))
}

// pgTransient reports whether a Postgres failure may clear up on its own:
// connection loss, timeouts, serialization conflicts, resource exhaustion
// and server shutdown.
func pgTransient(err error) bool {
	if pgconn.SafeToRetry(err) || pgconn.Timeout(err) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var pgError *pgconn.PgError
	if errors.As(err, &pgError) {
		switch {
		case strings.HasPrefix(pgError.Code, "08"), // connection exception
			strings.HasPrefix(pgError.Code, "53"): // insufficient resources
			return true
		}
		switch pgError.Code {
		case "40001", "40P01", "57P01", "57P02", "57P03":
			return true
		}
		return false
	}

	var connectErr *pgconn.ConnectError
	if errors.As(err, &connectErr) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	return errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
