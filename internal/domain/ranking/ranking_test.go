package ranking_test

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/okian/factboard/internal/domain/ranking"
	"github.com/okian/factboard/internal/domain/types"
	. "github.com/smartystreets/goconvey/convey"
)

func entry(team string, fc, ge float64) types.Entry {
	return types.Entry{Team: team, Model: "m", FullContext: fc, GoldEvidence: ge, Delta: types.ComputeDelta(fc, ge), Date: "2026-10-19"}
}

func TestParseSortKey(t *testing.T) {
	Convey("Given sort key strings", t, func() {
		Convey("When the key is empty", func() {
			k, err := ranking.ParseSortKey("")

			Convey("Then it should default to fullContext", func() {
				So(err, ShouldBeNil)
				So(k, ShouldEqual, ranking.ByFullContext)
			})
		})

		Convey("When the key is known", func() {
			for _, want := range ranking.Keys() {
				k, err := ranking.ParseSortKey(string(want))
				So(err, ShouldBeNil)
				So(k, ShouldEqual, want)
			}
		})

		Convey("When the key is bogus", func() {
			_, err := ranking.ParseSortKey("bogus")

			Convey("Then it should fail with ErrInvalidSortKey", func() {
				So(errors.Is(err, ranking.ErrInvalidSortKey), ShouldBeTrue)
			})
		})

		Convey("When the key differs only in case", func() {
			_, err := ranking.ParseSortKey("FULLCONTEXT")

			Convey("Then it should be rejected", func() {
				So(errors.Is(err, ranking.ErrInvalidSortKey), ShouldBeTrue)
			})
		})
	})
}

func TestSort(t *testing.T) {
	Convey("Given leaderboard entries", t, func() {
		entries := []types.Entry{
			entry("a", 0.5, 0.9),
			entry("b", 0.8, 0.7),
			entry("c", 0.2, 0.2),
			entry("d", 0.8, 0.1),
		}

		Convey("When sorting by fullContext", func() {
			ranking.Sort(entries, ranking.ByFullContext)

			Convey("Then ties should keep their input order", func() {
				So(entries[0].Team, ShouldEqual, "b")
				So(entries[1].Team, ShouldEqual, "d")
				So(entries[2].Team, ShouldEqual, "a")
				So(entries[3].Team, ShouldEqual, "c")
			})
		})

		Convey("When sorting by goldEvidence", func() {
			ranking.Sort(entries, ranking.ByGoldEvidence)

			Convey("Then the highest goldEvidence should come first", func() {
				So(entries[0].Team, ShouldEqual, "a")
				So(ranking.IsSorted(entries, ranking.ByGoldEvidence), ShouldBeTrue)
			})
		})

		Convey("When sorting by delta", func() {
			ranking.Sort(entries, ranking.ByDelta)

			Convey("Then the largest improvement should come first", func() {
				So(entries[0].Team, ShouldEqual, "a")
				So(entries[3].Team, ShouldEqual, "d")
			})
		})

		Convey("When sorting random entries by every key", func() {
			rng := rand.New(rand.NewSource(7))
			random := make([]types.Entry, 200)
			for i := range random {
				random[i] = entry("t", rng.Float64(), rng.Float64())
			}

			Convey("Then the output should be non-increasing", func() {
				for _, k := range ranking.Keys() {
					ranking.Sort(random, k)
					So(ranking.IsSorted(random, k), ShouldBeTrue)
				}
			})
		})

		Convey("When sorting nothing", func() {
			var none []types.Entry

			Convey("Then it should not panic", func() {
				So(func() { ranking.Sort(none, ranking.ByDelta) }, ShouldNotPanic)
			})
		})
	})
}
