package prom

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.uber.org/goleak"

	"github.com/NetPo4ki/go-taskslot/coro"
	"github.com/NetPo4ki/go-taskslot/runner"
	"github.com/NetPo4ki/go-taskslot/scheduler"
	"github.com/NetPo4ki/go-taskslot/task"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestMetricsFollowScheduler(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := New("test", reg, Options{})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	s := scheduler.New(scheduler.KeepLatest,
		scheduler.WithName("search"),
		scheduler.WithObserver(m),
		scheduler.WithRunnerObserver(m))

	gate := coro.NewFuture()
	first := s.Execute(coro.Factory(func(y *coro.Yielder) (any, error) { return y.Await(gate) }))
	s.Execute(nil)
	last := s.Execute(nil)

	if got := testutil.ToFloat64(m.active.WithLabelValues("search")); got != 1 {
		t.Fatalf("active = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.queueDepth.WithLabelValues("keep-latest")); got != 1 {
		t.Fatalf("queue depth = %v, want 1", got)
	}

	gate.Resolve(nil)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if _, err := first.Wait(ctx); err != nil {
		t.Fatalf("first: %v", err)
	}
	if _, err := last.Wait(ctx); err != nil {
		t.Fatalf("last: %v", err)
	}
	if err := s.Wait(); err != nil {
		t.Fatalf("scheduler: %v", err)
	}

	for _, tc := range []struct {
		name string
		c    prometheus.Collector
		want float64
	}{
		{"admitted", m.admitted.WithLabelValues("keep-latest"), 2},
		{"queued", m.queued.WithLabelValues("keep-latest"), 2},
		{"superseded", m.evicted.WithLabelValues("keep-latest", "superseded"), 1},
		{"started", m.started.WithLabelValues("search"), 2},
		{"resolved", m.finished.WithLabelValues("search", "resolved"), 2},
		{"cancelled", m.finished.WithLabelValues("search", "cancelled"), 1},
		{"active", m.active.WithLabelValues("search"), 0},
		{"depth", m.queueDepth.WithLabelValues("keep-latest"), 0},
	} {
		if got := testutil.ToFloat64(tc.c); got != tc.want {
			t.Errorf("%s = %v, want %v", tc.name, got, tc.want)
		}
	}
	if n := testutil.CollectAndCount(m.duration); n != 1 {
		t.Errorf("duration series = %d, want 1", n)
	}
}

func TestAlreadyRegisteredReuse(t *testing.T) {
	reg := prometheus.NewRegistry()
	first, err := New("test", reg, Options{})
	if err != nil {
		t.Fatalf("first New failed: %v", err)
	}
	second, err := New("test", reg, Options{})
	if err != nil {
		t.Fatalf("second New failed: %v", err)
	}
	first.RunnerEvicted(scheduler.Drop, 1, scheduler.ErrDropped)
	second.RunnerEvicted(scheduler.Drop, 2, scheduler.ErrDropped)
	if got := testutil.ToFloat64(first.evicted.WithLabelValues("drop", "dropped")); got != 2 {
		t.Fatalf("shared evicted counter = %v, want 2", got)
	}
}

func TestReasonLabel(t *testing.T) {
	for err, want := range map[error]string{
		scheduler.ErrRestarted:  "restarted",
		scheduler.ErrSuperseded: "superseded",
		errors.New("custom"):    "other",
	} {
		if got := reasonLabel(err); got != want {
			t.Errorf("reasonLabel(%v) = %q, want %q", err, got, want)
		}
	}
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	m.RunnerAdmitted(scheduler.Default, 1)
	m.QueueChanged(scheduler.Enqueue, 3)
	m.TaskFinished(context.Background(), runner.Info{}, task.StateResolved, 0, nil)
}
