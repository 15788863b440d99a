package otel

import (
	"context"
	"fmt"
	"sync"
	"time"

	gotel "go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/NetPo4ki/go-taskslot/runner"
	"github.com/NetPo4ki/go-taskslot/scheduler"
	"github.com/NetPo4ki/go-taskslot/task"
)

const instrumentationName = "github.com/NetPo4ki/go-taskslot/observe/otel"

const (
	keyID        = attribute.Key("taskslot.runner.id")
	keyName      = attribute.Key("taskslot.runner.name")
	keyStatus    = attribute.Key("taskslot.runner.status")
	keyStarted   = attribute.Key("taskslot.runner.started")
	keyQueueWait = attribute.Key("taskslot.runner.queue_wait_ms")
	keyStrategy  = attribute.Key("taskslot.scheduler.strategy")
	keyReason    = attribute.Key("taskslot.reason")
)

// Tracer implements runner.Observer and scheduler.Observer.
type Tracer struct {
	tracer trace.Tracer
	spans  sync.Map // runner ID -> trace.Span
	queued sync.Map // runner ID -> time.Time
}

var (
	_ runner.Observer    = (*Tracer)(nil)
	_ scheduler.Observer = (*Tracer)(nil)
)

// New returns a Tracer using tracer, or the global provider's tracer when
// tracer is nil.
func New(tracer trace.Tracer) *Tracer {
	if tracer == nil {
		tracer = gotel.Tracer(instrumentationName)
	}
	return &Tracer{tracer: tracer}
}

func spanName(info runner.Info) string {
	if info.Name == "" {
		return "runner"
	}
	return "runner " + info.Name
}

func (t *Tracer) TaskStarted(ctx context.Context, info runner.Info) {
	attrs := []attribute.KeyValue{
		keyID.Int64(int64(info.ID)),
		keyName.String(info.Name),
		keyStarted.Bool(true),
	}
	if v, ok := t.queued.LoadAndDelete(info.ID); ok {
		attrs = append(attrs, keyQueueWait.Int64(info.Started.Sub(v.(time.Time)).Milliseconds()))
	}
	_, span := t.tracer.Start(ctx, spanName(info),
		trace.WithAttributes(attrs...),
		trace.WithTimestamp(info.Started))
	t.spans.Store(info.ID, span)
}

// TaskFinished ends the runner's span. A runner that never ran gets a
// zero-length span.
func (t *Tracer) TaskFinished(ctx context.Context, info runner.Info, status task.State, _ time.Duration, payload any) {
	t.queued.Delete(info.ID)
	var span trace.Span
	if v, ok := t.spans.LoadAndDelete(info.ID); ok {
		span = v.(trace.Span)
	} else {
		_, span = t.tracer.Start(ctx, spanName(info), trace.WithAttributes(
			keyID.Int64(int64(info.ID)),
			keyName.String(info.Name),
			keyStarted.Bool(false),
		))
	}
	span.SetAttributes(keyStatus.String(status.String()))
	err, _ := payload.(error)
	switch status {
	case task.StateRejected:
		if err == nil {
			err = fmt.Errorf("rejected: %v", payload)
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	case task.StateCancelled:
		if err != nil {
			span.AddEvent("cancel", trace.WithAttributes(keyReason.String(err.Error())))
		}
	default:
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}

func (t *Tracer) RunnerAdmitted(scheduler.Strategy, uint64) {}

func (t *Tracer) RunnerQueued(_ scheduler.Strategy, id uint64) {
	t.queued.Store(id, time.Now())
}

// RunnerEvicted marks the span of a running runner. Runners evicted before
// they ran have no span yet; their cancel event carries the reason.
func (t *Tracer) RunnerEvicted(strategy scheduler.Strategy, id uint64, reason error) {
	v, ok := t.spans.Load(id)
	if !ok {
		return
	}
	attrs := []attribute.KeyValue{keyStrategy.String(strategy.String())}
	if reason != nil {
		attrs = append(attrs, keyReason.String(reason.Error()))
	}
	v.(trace.Span).AddEvent("evicted", trace.WithAttributes(attrs...))
}

func (t *Tracer) QueueChanged(scheduler.Strategy, int) {}
