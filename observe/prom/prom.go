// Package prom exports runner and scheduler activity as Prometheus metrics.
// A Metrics value implements both runner.Observer and scheduler.Observer.
package prom

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/NetPo4ki/go-taskslot/effect"
	"github.com/NetPo4ki/go-taskslot/runner"
	"github.com/NetPo4ki/go-taskslot/scheduler"
	"github.com/NetPo4ki/go-taskslot/task"
)

// Options controls collector configuration.
type Options struct {
	DurationBuckets []float64
}

// Metrics holds the collectors. A nil *Metrics records nothing.
type Metrics struct {
	started    *prometheus.CounterVec
	finished   *prometheus.CounterVec
	active     *prometheus.GaugeVec
	duration   *prometheus.HistogramVec
	admitted   *prometheus.CounterVec
	queued     *prometheus.CounterVec
	evicted    *prometheus.CounterVec
	queueDepth *prometheus.GaugeVec
}

var (
	_ runner.Observer    = (*Metrics)(nil)
	_ scheduler.Observer = (*Metrics)(nil)
)

// New creates the collectors and registers them with reg. Collectors that
// are already registered under the same names are reused.
func New(namespace string, reg prometheus.Registerer, opts Options) (*Metrics, error) {
	if namespace == "" {
		namespace = "taskslot"
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	buckets := opts.DurationBuckets
	if len(buckets) == 0 {
		buckets = prometheus.DefBuckets
	}

	m := &Metrics{
		started: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runners_started_total",
			Help:      "Runners that reached the running state.",
		}, []string{"name"}),
		finished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runners_finished_total",
			Help:      "Runners that settled, by terminal status.",
		}, []string{"name", "status"}),
		active: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "runners_active",
			Help:      "Runners currently running.",
		}, []string{"name"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "runner_duration_seconds",
			Help:      "Time from running to settled.",
			Buckets:   buckets,
		}, []string{"name", "status"}),
		admitted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "scheduler_admitted_total",
			Help:      "Runners started by a scheduler.",
		}, []string{"strategy"}),
		queued: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "scheduler_queued_total",
			Help:      "Submissions that had to wait for the slot.",
		}, []string{"strategy"}),
		evicted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "scheduler_evicted_total",
			Help:      "Runners cancelled by a scheduler decision.",
		}, []string{"strategy", "reason"}),
		queueDepth: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "scheduler_queue_depth",
			Help:      "Runners waiting for the slot.",
		}, []string{"strategy"}),
	}

	var err error
	if m.started, err = registerCollector(reg, m.started); err != nil {
		return nil, err
	}
	if m.finished, err = registerCollector(reg, m.finished); err != nil {
		return nil, err
	}
	if m.active, err = registerCollector(reg, m.active); err != nil {
		return nil, err
	}
	if m.duration, err = registerCollector(reg, m.duration); err != nil {
		return nil, err
	}
	if m.admitted, err = registerCollector(reg, m.admitted); err != nil {
		return nil, err
	}
	if m.queued, err = registerCollector(reg, m.queued); err != nil {
		return nil, err
	}
	if m.evicted, err = registerCollector(reg, m.evicted); err != nil {
		return nil, err
	}
	if m.queueDepth, err = registerCollector(reg, m.queueDepth); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *Metrics) TaskStarted(_ context.Context, info runner.Info) {
	if m == nil {
		return
	}
	name := normalizeLabel(info.Name, "unnamed")
	m.started.WithLabelValues(name).Inc()
	m.active.WithLabelValues(name).Inc()
}

// TaskFinished records the outcome. Runners that settled without running
// only count as finished.
func (m *Metrics) TaskFinished(_ context.Context, info runner.Info, status task.State, dur time.Duration, _ any) {
	if m == nil {
		return
	}
	name := normalizeLabel(info.Name, "unnamed")
	m.finished.WithLabelValues(name, status.String()).Inc()
	if info.Started.IsZero() {
		return
	}
	m.active.WithLabelValues(name).Dec()
	m.duration.WithLabelValues(name, status.String()).Observe(dur.Seconds())
}

func (m *Metrics) RunnerAdmitted(strategy scheduler.Strategy, _ uint64) {
	if m == nil {
		return
	}
	m.admitted.WithLabelValues(strategy.String()).Inc()
}

func (m *Metrics) RunnerQueued(strategy scheduler.Strategy, _ uint64) {
	if m == nil {
		return
	}
	m.queued.WithLabelValues(strategy.String()).Inc()
}

func (m *Metrics) RunnerEvicted(strategy scheduler.Strategy, _ uint64, reason error) {
	if m == nil {
		return
	}
	m.evicted.WithLabelValues(strategy.String(), reasonLabel(reason)).Inc()
}

func (m *Metrics) QueueChanged(strategy scheduler.Strategy, depth int) {
	if m == nil {
		return
	}
	m.queueDepth.WithLabelValues(strategy.String()).Set(float64(depth))
}

func reasonLabel(err error) string {
	switch {
	case errors.Is(err, scheduler.ErrRestarted):
		return "restarted"
	case errors.Is(err, scheduler.ErrDropped):
		return "dropped"
	case errors.Is(err, scheduler.ErrSuperseded):
		return "superseded"
	case errors.Is(err, effect.ErrCancelled):
		return "cancelled"
	default:
		return "other"
	}
}

func normalizeLabel(v string, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}

func registerCollector[T prometheus.Collector](reg prometheus.Registerer, collector T) (T, error) {
	err := reg.Register(collector)
	if err == nil {
		return collector, nil
	}

	var alreadyRegisteredErr prometheus.AlreadyRegisteredError
	if errors.As(err, &alreadyRegisteredErr) {
		existing, ok := alreadyRegisteredErr.ExistingCollector.(T)
		if !ok {
			return collector, fmt.Errorf("collector type mismatch for %T", collector)
		}
		return existing, nil
	}

	return collector, err
}
