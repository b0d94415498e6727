// Package model contains domain models passed between layers.
package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// Record is a leaderboard row as exchanged with the data store. Rows written
// by other clients of a shared table may be incomplete, so the numeric
// columns are nullable.
type Record struct {
	Team         string
	Model        string
	FullContext  *float64
	GoldEvidence *float64
	Date         string // YYYY-MM-DD
}

// Float returns a pointer to v.
func Float(v float64) *float64 { return &v }

// Text is a JSON scalar kept in its text form. It accepts JSON strings and
// numbers; null decodes to the empty string. Numbers are written in their
// shortest form, so 1, 1.0 and 1e0 all become "1".
type Text string

// UnmarshalJSON implements json.Unmarshaler.
func (t *Text) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*t = ""
		return nil
	case len(data) > 0 && data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*t = Text(s)
		return nil
	default:
		var n json.Number
		if err := json.Unmarshal(data, &n); err != nil {
			return fmt.Errorf("expected string or number, got %s", data)
		}
		*t = Text(canonicalNumber(n.String()))
		return nil
	}
}

func canonicalNumber(s string) string {
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return strconv.FormatInt(i, 10)
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
	return s
}

// Prediction is one classifier output submitted for scoring.
type Prediction struct {
	ID         Text `json:"id"`
	Prediction Text `json:"prediction"`
}

// Label is one ground-truth row.
type Label struct {
	ID    Text `json:"id"`
	Label Text `json:"label"`
}
