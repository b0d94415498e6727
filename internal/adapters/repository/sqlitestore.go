package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/okian/factboard/internal/domain/model"
	"github.com/okian/factboard/pkg/logger"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

const (
	sqliteBusyTimeoutMs = 5000

	sqliteSelectAll = `
        SELECT team, model, "fullContext", "goldEvidence", "date"
        FROM leaderboard
        ORDER BY "fullContext" DESC NULLS LAST, rowid;
    `
	sqliteInsert = `
        INSERT INTO leaderboard (id, team, model, "fullContext", "goldEvidence", "date")
        VALUES (?, ?, ?, ?, ?, ?);
    `
	sqliteCount = `SELECT count(*) FROM leaderboard;`
)

// SQLiteStore keeps the leaderboard in a local database file.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (creating if needed) the database at path.
func NewSQLiteStore(ctx context.Context, path string, migrate bool, l logger.Logger) (*SQLiteStore, error) {
	if l == nil {
		l = logger.Nop()
	}
	if path == "" {
		return nil, fmt.Errorf("%w: sqlite_path is required", ErrInvalidConfig)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	q := url.Values{}
	q.Add("_pragma", fmt.Sprintf("busy_timeout(%d)", sqliteBusyTimeoutMs))
	q.Add("_pragma", "journal_mode(WAL)")
	db, err := sql.Open("sqlite", "file:"+path+"?"+q.Encode())
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}
	s := &SQLiteStore{db: db}

	if err := s.Ping(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("database ping failed: %w", err)
	}
	if migrate {
		if _, err := db.ExecContext(ctx, schemaSQLite); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to create schema: %w", err)
		}
		l.Info(ctx, "leaderboard schema ready", logger.String("driver", DriverSQLite), logger.String("path", path))
	}
	return s, nil
}

// List implements Store.
func (s *SQLiteStore) List(ctx context.Context) ([]model.Record, error) {
	rows, err := s.db.QueryContext(ctx, sqliteSelectAll)
	if err != nil {
		return nil, sqliteErr(opList, err)
	}
	defer rows.Close()

	out := make([]model.Record, 0)
	for rows.Next() {
		var (
			team, mdl, date sql.NullString
			fc, ge          sql.NullFloat64
		)
		if err := rows.Scan(&team, &mdl, &fc, &ge, &date); err != nil {
			return nil, sqliteErr(opList, err)
		}
		r := model.Record{Team: team.String, Model: mdl.String, Date: date.String}
		if fc.Valid {
			r.FullContext = model.Float(fc.Float64)
		}
		if ge.Valid {
			r.GoldEvidence = model.Float(ge.Float64)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, sqliteErr(opList, err)
	}
	return out, nil
}

// Insert implements Store.
func (s *SQLiteStore) Insert(ctx context.Context, r model.Record) error {
	_, err := s.db.ExecContext(ctx, sqliteInsert,
		uuid.NewString(), r.Team, r.Model, nullFloat(r.FullContext), nullFloat(r.GoldEvidence), r.Date)
	return sqliteErr(opInsert, err)
}

// Count implements Store.
func (s *SQLiteStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, sqliteCount).Scan(&n); err != nil {
		return 0, sqliteErr(opCount, err)
	}
	return n, nil
}

// Ping implements Store.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return sqliteErr(opPing, s.db.PingContext(ctx))
}

// Driver implements Store.
func (s *SQLiteStore) Driver() string { return DriverSQLite }

// Close implements Store.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func nullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}

func sqliteErr(op string, err error) error {
	if err == nil {
		return nil
	}
	return storeErr(op, err, sqliteTransient(err))
}

// sqliteTransient treats lock contention as transient.
func sqliteTransient(err error) bool {
	var se *sqlite.Error
	if !errors.As(err, &se) {
		return false
	}
	switch se.Code() & 0xff {
	case sqlite3.SQLITE_BUSY, sqlite3.SQLITE_LOCKED:
		return true
	default:
		return false
	}
}
