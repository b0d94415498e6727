//go:build integration

package repository

import (
	"context"
	"testing"
	"time"

	"github.com/okian/factboard/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

func newPGContainer(ctx context.Context, tb testing.TB) string {
	tb.Helper()

	container, err := postgres.Run(ctx,
		"postgres:17.5",
		postgres.WithDatabase("factboard_test"),
		postgres.WithUsername("test"),
		postgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	if err != nil {
		tb.Fatalf("failed to start postgres container: %v", err)
	}
	tb.Cleanup(func() {
		if err := testcontainers.TerminateContainer(container); err != nil {
			tb.Logf("failed to terminate postgres container: %v", err)
		}
	})

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		tb.Fatalf("failed to get connection string: %v", err)
	}
	return connStr
}

func TestPGStoreIntegration(t *testing.T) {
	ctx := context.Background()
	connStr := newPGContainer(ctx, t)

	Convey("Given a Postgres store", t, func() {
		s, err := Open(ctx, DriverPostgres, WithURL(connStr), WithKey("test"), WithMigrate(true))
		So(err, ShouldBeNil)
		Reset(func() { _ = s.Close() })

		Convey("When rows are inserted", func() {
			So(s.Insert(ctx, rec("pg-low", model.Float(0.2), model.Float(0.3))), ShouldBeNil)
			So(s.Insert(ctx, rec("pg-high", model.Float(0.8), model.Float(0))), ShouldBeNil)

			rows, err := s.List(ctx)
			So(err, ShouldBeNil)

			Convey("Then they should come back ordered with the date intact", func() {
				So(len(rows), ShouldBeGreaterThanOrEqualTo, 2)
				So(rows[0].Team, ShouldEqual, "pg-high")
				So(rows[0].Date, ShouldEqual, "2026-10-19")
				So(*rows[0].GoldEvidence, ShouldEqual, 0)
				So(s.Ping(ctx), ShouldBeNil)
			})
		})

		Convey("When the schema is applied twice", func() {
			again, err := Open(ctx, DriverPostgres, WithURL(connStr), WithKey("test"), WithMigrate(true))

			Convey("Then it should be idempotent", func() {
				So(err, ShouldBeNil)
				_ = again.Close()
			})
		})
	})

	Convey("Given a wrong access key", t, func() {
		_, err := Open(ctx, DriverPostgres, WithURL(connStr), WithKey("wrong"))

		Convey("Then opening should fail", func() {
			So(err, ShouldNotBeNil)
		})
	})
}
