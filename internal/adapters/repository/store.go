// Package repository defines the leaderboard store interface, its backends and errors.
package repository

import (
	"context"

	"github.com/okian/factboard/internal/domain/model"
)

// Store provides append-only access to the leaderboard table.
type Store interface {
	// List returns every stored row, highest fullContext first. Rows are
	// returned as stored; callers validate them.
	List(ctx context.Context) ([]model.Record, error)

	// Insert appends one row. The store assigns the row id.
	Insert(ctx context.Context, r model.Record) error

	// Count returns the number of stored rows.
	Count(ctx context.Context) (int, error)

	// Ping checks that the backend is reachable.
	Ping(ctx context.Context) error

	// Driver names the backend, e.g. "postgres".
	Driver() string

	// Close releases backend resources.
	Close() error
}
