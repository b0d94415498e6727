package service_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/okian/factboard/internal/adapters/repository"
	service "github.com/okian/factboard/internal/app"
	"github.com/okian/factboard/internal/domain/model"
	"github.com/okian/factboard/internal/domain/ranking"
	"github.com/okian/factboard/internal/domain/scoring"
	"github.com/okian/factboard/internal/domain/submission"
	"github.com/okian/factboard/internal/domain/types"
	"github.com/okian/factboard/internal/domain/validate"
	"github.com/okian/factboard/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

var fixedNow = time.Date(2026, 10, 19, 23, 30, 0, 0, time.FixedZone("UTC-2", -2*3600))

// instantTimer fires immediately and records every requested wait.
type instantTimer struct {
	waits []time.Duration
	c     chan time.Time
}

func newInstantTimer() *instantTimer { return &instantTimer{c: make(chan time.Time, 1)} }

func (t *instantTimer) Start(d time.Duration) {
	t.waits = append(t.waits, d)
	t.c <- time.Time{}
}
func (t *instantTimer) Stop()               {}
func (t *instantTimer) C() <-chan time.Time { return t.c }

// brokenStore fails every List and Insert transiently.
type brokenStore struct {
	*repository.MemStore
	calls int
}

func (b *brokenStore) List(context.Context) ([]model.Record, error) {
	b.calls++
	return nil, &repository.StoreError{Op: "list", Err: errors.New("connection refused"), Transient: true}
}

func (b *brokenStore) Insert(context.Context, model.Record) error {
	b.calls++
	return &repository.StoreError{Op: "insert", Err: errors.New("connection refused"), Transient: true}
}

func newService(opts ...service.Option) *service.Service {
	base := []service.Option{
		service.WithLogger(logger.Nop()),
		service.WithClock(func() time.Time { return fixedNow }),
		service.WithRetryTimer(newInstantTimer()),
	}
	return service.New(append(base, opts...)...)
}

func TestService_StartStop(t *testing.T) {
	Convey("Given a new service with default options", t, func() {
		ctx := context.Background()
		svc := newService()

		Convey("When it is used before starting", func() {
			err := svc.Ingest(ctx, []byte(`{"model":"m"}`), "alpha")
			_, rankErr := svc.Rank(ctx, "")

			Convey("Then it should report that it is not started", func() {
				So(errors.Is(err, service.ErrNotStarted), ShouldBeTrue)
				So(errors.Is(rankErr, service.ErrNotStarted), ShouldBeTrue)
				So(svc.Health(ctx).Status, ShouldEqual, service.StatusDegraded)
			})
		})

		Convey("When starting and stopping", func() {
			So(svc.Start(ctx), ShouldBeNil)
			So(svc.Start(ctx), ShouldBeNil)
			stats := svc.GetStats(ctx)
			svc.Stop()
			svc.Stop()

			Convey("Then it should use the in-memory store and report stats", func() {
				So(stats["started"], ShouldEqual, true)
				So(stats["storeDriver"], ShouldEqual, repository.DriverMemory)
				So(stats["totalEntries"], ShouldEqual, 0)
				So(stats["numericPolicy"], ShouldEqual, "coerce")
				So(svc.GetStats(ctx)["started"], ShouldEqual, false)
			})
		})

		Convey("When the store driver is unknown", func() {
			svc := newService(service.WithStoreDriver("mongo"))
			err := svc.Start(ctx)

			Convey("Then Start should fail", func() {
				So(errors.Is(err, repository.ErrUnknownDriver), ShouldBeTrue)
			})
		})
	})
}

func TestService_Ingest(t *testing.T) {
	Convey("Given a started service", t, func() {
		ctx := context.Background()
		store := repository.NewMemStore()
		svc := newService(service.WithStore(store))
		So(svc.Start(ctx), ShouldBeNil)
		Reset(svc.Stop)

		Convey("When a valid results file is ingested", func() {
			err := svc.Ingest(ctx, []byte(`{"model":"gpt-x","fullContext":0.61,"goldEvidence":0.74}`), "  alpha ")

			Convey("Then one row should be stored with team and UTC date", func() {
				So(err, ShouldBeNil)
				rows, _ := store.List(ctx)
				So(rows, ShouldHaveLength, 1)
				So(rows[0].Team, ShouldEqual, "alpha")
				So(rows[0].Model, ShouldEqual, "gpt-x")
				So(rows[0].Date, ShouldEqual, "2026-10-20")
				So(*rows[0].FullContext, ShouldEqual, 0.61)
				So(*rows[0].GoldEvidence, ShouldEqual, 0.74)
			})
		})

		Convey("When the model is missing", func() {
			err := svc.Ingest(ctx, []byte(`{"fullContext":0.5,"goldEvidence":0.6}`), "alpha")

			Convey("Then it should fail with a missing field and persist nothing", func() {
				So(errors.Is(err, validate.ErrMissingField), ShouldBeTrue)
				n, _ := store.Count(ctx)
				So(n, ShouldEqual, 0)
			})
		})

		Convey("When the team is blank", func() {
			err := svc.Ingest(ctx, []byte(`{"model":"m","fullContext":0.5,"goldEvidence":0.6}`), "   ")

			Convey("Then it should fail with a missing field", func() {
				So(errors.Is(err, service.ErrMissingTeam), ShouldBeTrue)
				So(errors.Is(err, validate.ErrMissingField), ShouldBeTrue)
				So(service.RejectReason(err), ShouldEqual, "missing_field")
			})
		})

		Convey("When the payload is not JSON", func() {
			err := svc.Ingest(ctx, []byte(`not json`), "alpha")

			Convey("Then it should be malformed", func() {
				So(errors.Is(err, submission.ErrMalformedPayload), ShouldBeTrue)
				So(service.RejectReason(err), ShouldEqual, "malformed_payload")
			})
		})

		Convey("When scores are junk under the coerce policy", func() {
			err := svc.Ingest(ctx, []byte(`{"model":"m","fullContext":"abc","goldEvidence":"0.3"}`), "alpha")

			Convey("Then they should be stored as coerced numbers", func() {
				So(err, ShouldBeNil)
				rows, _ := store.List(ctx)
				So(*rows[0].FullContext, ShouldEqual, 0)
				So(*rows[0].GoldEvidence, ShouldEqual, 0.3)
			})
		})
	})

	Convey("Given a service with the strict policy", t, func() {
		ctx := context.Background()
		svc := newService(service.WithNumericPolicy(submission.PolicyStrict))
		So(svc.Start(ctx), ShouldBeNil)
		Reset(svc.Stop)

		Convey("When a score is a string", func() {
			err := svc.Ingest(ctx, []byte(`{"model":"m","fullContext":"0.5","goldEvidence":0.6}`), "alpha")

			Convey("Then it should be rejected", func() {
				So(errors.Is(err, validate.ErrValidation), ShouldBeTrue)
				So(service.RejectReason(err), ShouldEqual, "validation")
			})
		})
	})

	Convey("Given a service whose store is down", t, func() {
		ctx := context.Background()
		timer := newInstantTimer()
		broken := &brokenStore{MemStore: repository.NewMemStore()}
		svc := newService(service.WithStore(broken), service.WithRetryTimer(timer))
		So(svc.Start(ctx), ShouldBeNil)
		Reset(svc.Stop)

		Convey("When ingesting", func() {
			err := svc.Ingest(ctx, []byte(`{"model":"m","fullContext":0.5,"goldEvidence":0.6}`), "alpha")

			Convey("Then it should fail as unavailable after three attempts", func() {
				So(errors.Is(err, repository.ErrStoreUnavailable), ShouldBeTrue)
				So(broken.calls, ShouldEqual, 3)
				So(timer.waits, ShouldResemble, []time.Duration{time.Second, 2 * time.Second})
				So(service.RejectReason(err), ShouldEqual, "store_unavailable")
			})
		})

		Convey("When ranking", func() {
			entries, err := svc.Rank(ctx, "")

			Convey("Then the failure should not look like an empty board", func() {
				So(errors.Is(err, repository.ErrStoreUnavailable), ShouldBeTrue)
				So(entries, ShouldBeNil)
			})
		})
	})
}

func TestService_Rank(t *testing.T) {
	Convey("Given a store with valid and invalid rows", t, func() {
		ctx := context.Background()
		store := repository.NewMemStore()
		rows := []model.Record{
			{Team: "a", Model: "m1", FullContext: model.Float(0.5), GoldEvidence: model.Float(0.9), Date: "2026-10-01"},
			{Team: "b", Model: "m2", FullContext: model.Float(0.8), GoldEvidence: model.Float(0.7), Date: "2026-10-02"},
			{Team: "c", Model: "m3", FullContext: model.Float(0.2), GoldEvidence: model.Float(0.2), Date: "2026-10-03"},
			{Team: "", Model: "m4", FullContext: model.Float(0.99), GoldEvidence: model.Float(0.99), Date: "2026-10-04"},
			{Team: "d", Model: "m5", FullContext: nil, GoldEvidence: model.Float(0.5), Date: "2026-10-05"},
		}
		for _, r := range rows {
			So(store.Insert(ctx, r), ShouldBeNil)
		}
		svc := newService(service.WithStore(store))
		So(svc.Start(ctx), ShouldBeNil)
		Reset(svc.Stop)

		Convey("When ranking with each key", func() {
			for _, key := range ranking.Keys() {
				entries, err := svc.Rank(ctx, string(key))
				So(err, ShouldBeNil)

				Convey(fmt.Sprintf("Then entries should be sorted by %s with consistent delta", key), func() {
					So(entries, ShouldHaveLength, 3)
					So(ranking.IsSorted(entries, key), ShouldBeTrue)
					for _, e := range entries {
						So(e.Delta, ShouldEqual, types.ComputeDelta(e.FullContext, e.GoldEvidence))
						So(e.Team, ShouldNotBeBlank)
					}
				})
			}
		})

		Convey("When ranking with no key", func() {
			entries, err := svc.Rank(ctx, "")

			Convey("Then fullContext should be used", func() {
				So(err, ShouldBeNil)
				So(entries[0].Team, ShouldEqual, "b")
			})
		})

		Convey("When ranking with a bogus key", func() {
			_, err := svc.Rank(ctx, "bogus")

			Convey("Then ErrInvalidSortKey should be returned", func() {
				So(errors.Is(err, ranking.ErrInvalidSortKey), ShouldBeTrue)
			})
		})
	})

	Convey("Given an empty store", t, func() {
		ctx := context.Background()
		svc := newService()
		So(svc.Start(ctx), ShouldBeNil)
		Reset(svc.Stop)

		Convey("When ranking", func() {
			entries, err := svc.Rank(ctx, "delta")

			Convey("Then an empty non-nil list should be returned", func() {
				So(err, ShouldBeNil)
				So(entries, ShouldNotBeNil)
				So(entries, ShouldBeEmpty)
			})
		})
	})
}

func TestService_RoundTrip(t *testing.T) {
	Convey("Given a started service", t, func() {
		ctx := context.Background()
		svc := newService()
		So(svc.Start(ctx), ShouldBeNil)
		Reset(svc.Stop)

		Convey("When an entry is ingested and ranked", func() {
			So(svc.Ingest(ctx, []byte(`{"model":"round-trip","fullContext":0.125,"goldEvidence":0.5}`), "gamma"), ShouldBeNil)
			entries, err := svc.Rank(ctx, "goldEvidence")
			So(err, ShouldBeNil)

			Convey("Then every field should survive with a consistent delta", func() {
				So(entries, ShouldHaveLength, 1)
				So(entries[0], ShouldResemble, types.Entry{
					Team:         "gamma",
					Model:        "round-trip",
					FullContext:  0.125,
					GoldEvidence: 0.5,
					Delta:        0.375,
					Date:         "2026-10-20",
				})
			})
		})
	})
}

func TestService_Score(t *testing.T) {
	Convey("Given a service with ground truth", t, func() {
		ctx := context.Background()
		svc := newService(service.WithGroundTruth(scoring.GroundTruth{"1": "A", "2": "B"}))
		So(svc.Start(ctx), ShouldBeNil)
		Reset(svc.Stop)

		Convey("When all predictions are right", func() {
			res, err := svc.Score(ctx, []model.Prediction{
				{ID: "1", Prediction: "A"},
				{ID: "2", Prediction: "B"},
			})

			Convey("Then macro F1 should be 1", func() {
				So(err, ShouldBeNil)
				So(res.MacroF1, ShouldEqual, 1.0)
				So(res.PerClassF1, ShouldResemble, map[string]float64{"A": 1, "B": 1})
			})
		})

		Convey("When no prediction matches a known id", func() {
			_, err := svc.Score(ctx, []model.Prediction{{ID: "9", Prediction: "A"}})

			Convey("Then ErrNoScorablePredictions should be returned", func() {
				So(errors.Is(err, scoring.ErrNoScorablePredictions), ShouldBeTrue)
				So(errors.Is(err, service.ErrNoGroundTruth), ShouldBeFalse)
			})
		})
	})

	Convey("Given a ground truth path", t, func() {
		ctx := context.Background()

		Convey("When the file is missing", func() {
			svc := newService(service.WithGroundTruthPath(filepath.Join(t.TempDir(), "absent.json")))
			err := svc.Start(ctx)
			defer svc.Stop()

			Convey("Then the service should start with nothing to score against", func() {
				So(err, ShouldBeNil)
				_, err := svc.Score(ctx, []model.Prediction{{ID: "1", Prediction: "A"}})
				So(errors.Is(err, service.ErrNoGroundTruth), ShouldBeTrue)
			})
		})

		Convey("When the file is malformed", func() {
			path := filepath.Join(t.TempDir(), "gt.json")
			So(os.WriteFile(path, []byte(`{oops`), 0o600), ShouldBeNil)
			svc := newService(service.WithGroundTruthPath(path))
			err := svc.Start(ctx)

			Convey("Then Start should fail", func() {
				So(errors.Is(err, scoring.ErrMalformedGroundTruth), ShouldBeTrue)
			})
		})
	})
}

func TestService_Health(t *testing.T) {
	Convey("Given a started service", t, func() {
		ctx := context.Background()
		svc := newService()
		So(svc.Start(ctx), ShouldBeNil)

		Convey("When probing health", func() {
			report := svc.Health(ctx)

			Convey("Then it should be ok", func() {
				So(report.Status, ShouldEqual, service.StatusOK)
				So(report.Store, ShouldEqual, repository.DriverMemory)
				So(report.Timestamp.Equal(fixedNow), ShouldBeTrue)
			})
		})

		Convey("When the service has been stopped", func() {
			svc.Stop()
			report := svc.Health(ctx)

			Convey("Then it should be degraded", func() {
				So(report.Status, ShouldEqual, service.StatusDegraded)
				So(report.Error, ShouldNotBeEmpty)
			})
		})

		Reset(svc.Stop)
	})
}
