package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/okian/factboard/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func rec(team string, fc, ge *float64) model.Record {
	return model.Record{Team: team, Model: "m", FullContext: fc, GoldEvidence: ge, Date: "2026-10-19"}
}

func TestMemStore(t *testing.T) {
	Convey("Given an in-memory store", t, func() {
		ctx := context.Background()
		s := NewMemStore()

		Convey("When it is empty", func() {
			rows, err := s.List(ctx)

			Convey("Then List should return an empty non-nil slice", func() {
				So(err, ShouldBeNil)
				So(rows, ShouldNotBeNil)
				So(rows, ShouldBeEmpty)
				So(s.Driver(), ShouldEqual, DriverMemory)
			})
		})

		Convey("When rows are inserted out of order", func() {
			So(s.Insert(ctx, rec("low", model.Float(0.1), model.Float(0.2))), ShouldBeNil)
			So(s.Insert(ctx, rec("null", nil, model.Float(0.9))), ShouldBeNil)
			So(s.Insert(ctx, rec("high", model.Float(0.9), model.Float(0.1))), ShouldBeNil)
			So(s.Insert(ctx, rec("tie", model.Float(0.9), model.Float(0.5))), ShouldBeNil)

			rows, err := s.List(ctx)
			So(err, ShouldBeNil)

			Convey("Then List should order by fullContext desc with nulls last", func() {
				So(rows, ShouldHaveLength, 4)
				So(rows[0].Team, ShouldEqual, "high")
				So(rows[1].Team, ShouldEqual, "tie")
				So(rows[2].Team, ShouldEqual, "low")
				So(rows[3].Team, ShouldEqual, "null")
			})

			Convey("And Count should match", func() {
				n, err := s.Count(ctx)
				So(err, ShouldBeNil)
				So(n, ShouldEqual, 4)
			})

			Convey("And returned rows should not alias stored ones", func() {
				*rows[0].FullContext = -1
				again, err := s.List(ctx)
				So(err, ShouldBeNil)
				So(*again[0].FullContext, ShouldEqual, 0.9)
			})
		})

		Convey("When the store is closed", func() {
			So(s.Close(), ShouldBeNil)

			Convey("Then operations should fail permanently", func() {
				err := s.Insert(ctx, rec("x", model.Float(1), model.Float(1)))
				So(errors.Is(err, ErrClosed), ShouldBeTrue)
				So(IsTransient(err), ShouldBeFalse)
				So(s.Ping(ctx), ShouldNotBeNil)
			})
		})
	})
}
