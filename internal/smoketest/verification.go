package smoketest

import (
	"errors"
	"fmt"
	"math"

	"github.com/okian/factboard/internal/domain/ranking"
	"github.com/okian/factboard/internal/domain/types"
)

const deltaTolerance = 1e-9

// verifyLeaderboard checks ordering, delta consistency and that every
// accepted submission came back unchanged.
func verifyLeaderboard(entries []types.Entry, key ranking.SortKey, accepted map[string]Submission) error {
	var errs []error

	if !ranking.IsSorted(entries, key) {
		errs = append(errs, fmt.Errorf("leaderboard %s: not sorted highest first", key))
	}

	seen := make(map[string]bool, len(accepted))
	for i, e := range entries {
		want := types.ComputeDelta(e.FullContext, e.GoldEvidence)
		if math.Abs(e.Delta-want) > deltaTolerance {
			errs = append(errs, fmt.Errorf("leaderboard %s: entry %d (%s) delta %g, want %g", key, i, e.Team, e.Delta, want))
		}

		s, ok := accepted[e.Team]
		if !ok {
			continue
		}
		seen[e.Team] = true
		if e.Model != s.Model || e.FullContext != s.FullContext || e.GoldEvidence != s.GoldEvidence {
			errs = append(errs, fmt.Errorf("leaderboard %s: team %s came back as %+v, uploaded %+v", key, e.Team, e, s))
		}
	}

	for team := range accepted {
		if !seen[team] {
			errs = append(errs, fmt.Errorf("leaderboard %s: team %s missing", key, team))
		}
	}
	return errors.Join(errs...)
}
