// Package task implements the lifecycle of one resumable computation as a
// tagged state: Pending, Running, and the terminal Resolved, Rejected and
// Cancelled states.
//
// Only Pending may become Running, only Running may become anything else,
// and terminal states never change. Each transition returns a new state
// value; callers replace their reference with the result.
package task

import (
	"context"
	"fmt"

	"github.com/NetPo4ki/go-taskslot/coro"
	"github.com/NetPo4ki/go-taskslot/effect"
	"github.com/NetPo4ki/go-taskslot/internal/invariant"
)

// State names a lifecycle state.
type State uint8

const (
	StatePending State = iota
	StateRunning
	StateResolved
	StateRejected
	StateCancelled
)

func (s State) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateRunning:
		return "running"
	case StateResolved:
		return "resolved"
	case StateRejected:
		return "rejected"
	case StateCancelled:
		return "cancelled"
	default:
		return fmt.Sprintf("State(%d)", uint8(s))
	}
}

// Terminal reports whether s is Resolved, Rejected or Cancelled.
func (s State) Terminal() bool { return s >= StateResolved && s <= StateCancelled }

// Task is one of *Pending, *Running, *Resolved, *Rejected or *Cancelled.
type Task interface {
	State() State
	isTask()
}

// Factory produces a fresh coroutine.
type Factory func() coro.Coroutine

// Pending holds a factory that has not been started.
type Pending struct {
	factory Factory
	started bool
}

// New returns a Pending task. A nil factory yields a single nil value and
// then completes with nil.
func New(factory Factory) *Pending {
	if factory == nil {
		factory = defaultFactory
	}
	return &Pending{factory: factory}
}

func defaultFactory() coro.Coroutine {
	return coro.New(func(y *coro.Yielder) (any, error) {
		_, err := y.Yield(nil)
		return nil, err
	})
}

func (*Pending) State() State { return StatePending }
func (*Pending) isTask()      {}

// Execute creates the coroutine and returns the Running state. It may be
// called at most once.
func (p *Pending) Execute() *Running {
	invariant.Check(!p.started, "pending task executed twice")
	p.started = true
	co := p.factory()
	invariant.Check(co != nil, "task factory returned a nil coroutine")
	return &Running{co: co}
}

// Running holds a live coroutine and the value injected on its next resume.
type Running struct {
	co   coro.Coroutine
	last any
}

func (*Running) State() State { return StateRunning }
func (*Running) isTask()      {}

// LastValue returns the value that the next step injects.
func (r *Running) LastValue() any { return r.last }

// NextTick resumes the coroutine once and interprets what it yields.
//
// If ctx is done while the step waits on an awaitable or effect, NextTick
// returns r itself: the caller is expected to finalize it with Cancel or
// Abort instead of stepping again.
func (r *Running) NextTick(ctx context.Context) Task {
	step, err := r.co.Resume(r.last)
	if err != nil {
		return &Rejected{Err: err}
	}
	switch step.Kind() {
	case coro.KindDone:
		return &Resolved{Value: step.Value()}
	case coro.KindAwait:
		a := step.Awaitable()
		if a == nil {
			return r.throw(fmt.Errorf("task: nil awaitable"))
		}
		v, err := a.Await(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return r
			}
			return r.throw(err)
		}
		return &Running{co: r.co, last: v}
	case coro.KindEffect:
		v, err := effect.Process(ctx, step.Effect())
		if err != nil {
			if sig, ok := effect.AsCancelSignal(err); ok {
				return r.Cancel(sig.Reason)
			}
			if ctx.Err() != nil {
				return r
			}
			return r.throw(err)
		}
		return &Running{co: r.co, last: v}
	default:
		return &Running{co: r.co, last: step.Value()}
	}
}

// Cancel finalizes the coroutine with early-return semantics.
func (r *Running) Cancel(reason error) *Cancelled {
	if reason == nil {
		reason = effect.ErrCancelled
	}
	_ = r.co.Return(reason)
	return &Cancelled{Reason: reason}
}

// Abort finalizes the coroutine by throwing reason into it.
func (r *Running) Abort(reason error) *Rejected {
	if reason == nil {
		reason = effect.ErrAborted
	}
	return r.throw(reason)
}

func (r *Running) throw(err error) *Rejected {
	_ = r.co.Throw(err)
	return &Rejected{Err: err}
}

// Resolved is the terminal state of a completed coroutine.
type Resolved struct {
	Value any
}

func (*Resolved) State() State { return StateResolved }
func (*Resolved) isTask()      {}

// Rejected is the terminal state of a failed or aborted coroutine.
type Rejected struct {
	Err error
}

func (*Rejected) State() State { return StateRejected }
func (*Rejected) isTask()      {}

// Cancelled is the terminal state of a cancelled coroutine.
type Cancelled struct {
	Reason error
}

func (*Cancelled) State() State { return StateCancelled }
func (*Cancelled) isTask()      {}

// Payload returns the settled payload of a terminal task: the value, the
// error or the cancellation reason. It returns nil for other states.
func Payload(t Task) any {
	switch t := t.(type) {
	case *Resolved:
		return t.Value
	case *Rejected:
		return t.Err
	case *Cancelled:
		return t.Reason
	default:
		return nil
	}
}
