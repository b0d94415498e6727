package types_test

import (
	"encoding/json"
	"testing"

	types "github.com/okian/factboard/internal/domain/types"
	. "github.com/smartystreets/goconvey/convey"
)

func TestEntry(t *testing.T) {
	Convey("Given an Entry struct", t, func() {
		entry := types.Entry{
			Team:         "alpha",
			Model:        "gpt-x",
			FullContext:  0.61,
			GoldEvidence: 0.74,
			Delta:        types.ComputeDelta(0.61, 0.74),
			Date:         "2026-10-19",
		}

		Convey("When encoding it as JSON", func() {
			raw, err := json.Marshal(entry)
			So(err, ShouldBeNil)

			var fields map[string]any
			So(json.Unmarshal(raw, &fields), ShouldBeNil)

			Convey("Then it should use the camelCase field names", func() {
				So(fields, ShouldContainKey, "team")
				So(fields, ShouldContainKey, "model")
				So(fields, ShouldContainKey, "fullContext")
				So(fields, ShouldContainKey, "goldEvidence")
				So(fields, ShouldContainKey, "delta")
				So(fields, ShouldContainKey, "date")
				So(len(fields), ShouldEqual, 6)
			})
		})

		Convey("When computing the delta", func() {
			Convey("Then it should be goldEvidence minus fullContext", func() {
				So(entry.Delta, ShouldAlmostEqual, 0.13, 1e-9)
				So(types.ComputeDelta(0.9, 0.4), ShouldAlmostEqual, -0.5, 1e-9)
				So(types.ComputeDelta(0, 0), ShouldEqual, 0)
			})
		})
	})
}
