// Package ranking orders leaderboard entries by a caller-chosen score.
package ranking

import (
	"fmt"
	"sort"
	"strings"

	"github.com/okian/factboard/internal/domain/types"
)

// SortKey names the score an ordering uses.
type SortKey string

// Known sort keys.
const (
	ByFullContext  SortKey = "fullContext"
	ByGoldEvidence SortKey = "goldEvidence"
	ByDelta        SortKey = "delta"
)

// DefaultKey is used when the caller passes no key.
const DefaultKey = ByFullContext

// Keys lists every accepted sort key.
func Keys() []SortKey {
	return []SortKey{ByFullContext, ByGoldEvidence, ByDelta}
}

// ParseSortKey maps s to a SortKey; empty means DefaultKey. Matching is exact.
func ParseSortKey(s string) (SortKey, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return DefaultKey, nil
	}
	for _, k := range Keys() {
		if string(k) == s {
			return k, nil
		}
	}
	return "", fmt.Errorf("%w: %q (expected one of fullContext, goldEvidence, delta)", ErrInvalidSortKey, s)
}

// Value returns the score of e that key orders by.
func (k SortKey) Value(e types.Entry) float64 {
	switch k {
	case ByGoldEvidence:
		return e.GoldEvidence
	case ByDelta:
		return e.Delta
	default:
		return e.FullContext
	}
}

// Sort orders entries in place, highest score first. Ties keep their input order.
func Sort(entries []types.Entry, key SortKey) {
	sort.SliceStable(entries, func(i, j int) bool {
		return key.Value(entries[i]) > key.Value(entries[j])
	})
}

// IsSorted reports whether entries are in non-increasing order of key.
func IsSorted(entries []types.Entry, key SortKey) bool {
	for i := 1; i < len(entries); i++ {
		if key.Value(entries[i-1]) < key.Value(entries[i]) {
			return false
		}
	}
	return true
}
