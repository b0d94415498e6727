package repository

import (
	"cmp"
	"context"
	"slices"
	"sync"

	"github.com/okian/factboard/internal/domain/model"
)

// MemStore keeps rows in process memory. Contents are lost on exit.
type MemStore struct {
	mu     sync.RWMutex
	rows   []model.Record
	closed bool
}

// NewMemStore creates an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{}
}

// List implements Store.
func (m *MemStore) List(ctx context.Context) ([]model.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, storeErr(opList, err, false)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return nil, storeErr(opList, ErrClosed, false)
	}

	out := make([]model.Record, len(m.rows))
	for i, r := range m.rows {
		out[i] = cloneRecord(r)
	}
	// Null scores sort last, like NULLS LAST in SQL.
	slices.SortStableFunc(out, func(a, b model.Record) int {
		switch {
		case a.FullContext == nil && b.FullContext == nil:
			return 0
		case a.FullContext == nil:
			return 1
		case b.FullContext == nil:
			return -1
		default:
			return cmp.Compare(*b.FullContext, *a.FullContext)
		}
	})
	return out, nil
}

// Insert implements Store.
func (m *MemStore) Insert(ctx context.Context, r model.Record) error {
	if err := ctx.Err(); err != nil {
		return storeErr(opInsert, err, false)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return storeErr(opInsert, ErrClosed, false)
	}
	m.rows = append(m.rows, cloneRecord(r))
	return nil
}

// Count implements Store.
func (m *MemStore) Count(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, storeErr(opCount, err, false)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return 0, storeErr(opCount, ErrClosed, false)
	}
	return len(m.rows), nil
}

// Ping implements Store.
func (m *MemStore) Ping(ctx context.Context) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return storeErr(opPing, ErrClosed, false)
	}
	return ctx.Err()
}

// Driver implements Store.
func (m *MemStore) Driver() string { return DriverMemory }

// Close implements Store.
func (m *MemStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

func cloneRecord(r model.Record) model.Record {
	if r.FullContext != nil {
		r.FullContext = model.Float(*r.FullContext)
	}
	if r.GoldEvidence != nil {
		r.GoldEvidence = model.Float(*r.GoldEvidence)
	}
	return r
}
