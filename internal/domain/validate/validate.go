// Package validate decides whether a leaderboard record is fit to be stored or shown.
package validate

import (
	"math"
	"strings"

	"github.com/okian/factboard/internal/domain/model"
)

// Field names as they appear on the wire.
const (
	FieldTeam         = "team"
	FieldModel        = "model"
	FieldFullContext  = "fullContext"
	FieldGoldEvidence = "goldEvidence"
)

// Record checks r and returns a *ValidationError naming every offending
// field, or nil. Zero is a valid score; absent, NaN and infinite scores are not.
func Record(r model.Record) error {
	var verr ValidationError

	if strings.TrimSpace(r.Team) == "" {
		verr.Missing(FieldTeam)
	}
	if strings.TrimSpace(r.Model) == "" {
		verr.Missing(FieldModel)
	}
	score(&verr, FieldFullContext, r.FullContext)
	score(&verr, FieldGoldEvidence, r.GoldEvidence)

	return verr.Err()
}

func score(verr *ValidationError, field string, v *float64) {
	switch {
	case v == nil:
		verr.Missing(field)
	case !Finite(*v):
		verr.Invalid(field, "must be a finite number")
	}
}

// Finite reports whether v is neither NaN nor infinite.
func Finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
