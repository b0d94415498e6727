package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/okian/factboard/internal/domain/model"
	"github.com/okian/factboard/pkg/retry"
	. "github.com/smartystreets/goconvey/convey"
)

// flakyStore fails the first failures calls of every operation.
type flakyStore struct {
	*MemStore
	failures  int
	transient bool
	calls     int
	block     bool
}

func (f *flakyStore) fail(op string) error {
	f.calls++
	if f.calls <= f.failures {
		return storeErr(op, errors.New("connection reset"), f.transient)
	}
	return nil
}

func (f *flakyStore) List(ctx context.Context) ([]model.Record, error) {
	if err := f.fail(opList); err != nil {
		return nil, err
	}
	return f.MemStore.List(ctx)
}

func (f *flakyStore) Insert(ctx context.Context, r model.Record) error {
	if f.block {
		f.calls++
		<-ctx.Done()
		return ctx.Err()
	}
	if err := f.fail(opInsert); err != nil {
		return err
	}
	return f.MemStore.Insert(ctx, r)
}

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

func TestRetrying(t *testing.T) {
	Convey("Given a retrying store over a flaky backend", t, func() {
		ctx := context.Background()
		timer := newInstantTimer()
		inner := &flakyStore{MemStore: NewMemStore(), transient: true}
		s := Retrying(inner, retry.DefaultPolicy(), WithRetryTimer(timer))

		Convey("When the backend fails twice then recovers", func() {
			inner.failures = 2
			err := s.Insert(ctx, rec("a", model.Float(0.5), model.Float(0.6)))

			Convey("Then the insert should succeed on the third attempt", func() {
				So(err, ShouldBeNil)
				So(inner.calls, ShouldEqual, 3)
				So(timer.waits, ShouldResemble, []time.Duration{time.Second, 2 * time.Second})
				n, _ := inner.MemStore.Count(ctx)
				So(n, ShouldEqual, 1)
			})
		})

		Convey("When the backend keeps failing", func() {
			inner.failures = 10
			_, err := s.List(ctx)

			Convey("Then the store should be reported unavailable", func() {
				So(errors.Is(err, ErrStoreUnavailable), ShouldBeTrue)
				So(errors.Is(err, retry.ErrExhausted), ShouldBeTrue)
				So(inner.calls, ShouldEqual, 3)
			})
		})

		Convey("When the backend rejects the operation", func() {
			inner.failures = 10
			inner.transient = false
			err := s.Insert(ctx, rec("a", model.Float(0.5), model.Float(0.6)))

			Convey("Then it should not be retried", func() {
				So(errors.Is(err, ErrStoreRejected), ShouldBeTrue)
				So(errors.Is(err, ErrStoreUnavailable), ShouldBeFalse)
				So(inner.calls, ShouldEqual, 1)
				So(timer.waits, ShouldBeEmpty)
			})
		})

		Convey("When an attempt outlives its timeout", func() {
			inner.block = true
			s := Retrying(inner, retry.Policy{MaxAttempts: 2, BaseDelay: 0},
				WithRetryTimer(timer), WithAttemptTimeout(5*time.Millisecond))
			err := s.Insert(ctx, rec("a", model.Float(0.5), model.Float(0.6)))

			Convey("Then the timeout should count as transient", func() {
				So(errors.Is(err, ErrStoreUnavailable), ShouldBeTrue)
				So(errors.Is(err, context.DeadlineExceeded), ShouldBeTrue)
				So(inner.calls, ShouldEqual, 2)
			})
		})

		Convey("When Ping, Driver and Count are used", func() {
			Convey("Then they should pass through", func() {
				So(s.Ping(ctx), ShouldBeNil)
				So(s.Driver(), ShouldEqual, DriverMemory)
				n, err := s.Count(ctx)
				So(err, ShouldBeNil)
				So(n, ShouldEqual, 0)
				So(s.Policy(), ShouldResemble, retry.DefaultPolicy())
			})
		})
	})
}
