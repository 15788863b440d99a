package coro

import (
	"context"
	"errors"
	"fmt"

	"github.com/NetPo4ki/go-taskslot/effect"
)

// Coroutine is the minimal resumable protocol a task depends on.
type Coroutine interface {
	// Resume runs the body until its next suspension point, injecting in as
	// the result of the previous one.
	Resume(in any) (Step, error)
	// Return finalizes the body with early-return semantics.
	Return(reason error) error
	// Throw finalizes the body by delivering err at its suspension point.
	Throw(err error) error
}

// Kind tags a Step.
type Kind uint8

const (
	KindValue Kind = iota
	KindAwait
	KindEffect
	KindDone
)

func (k Kind) String() string {
	switch k {
	case KindValue:
		return "value"
	case KindAwait:
		return "await"
	case KindEffect:
		return "effect"
	case KindDone:
		return "done"
	default:
		return fmt.Sprintf("Kind(%d)", uint8(k))
	}
}

// Step is what a coroutine yields from one Resume.
type Step struct {
	kind  Kind
	value any
	await Awaitable
	eff   effect.Effect
}

// Value yields a plain value, echoed back verbatim on the next resume.
func Value(v any) Step { return Step{kind: KindValue, value: v} }

// Await yields an awaitable whose result is injected on the next resume.
func Await(a Awaitable) Step { return Step{kind: KindAwait, await: a} }

// Effect yields a suspension request.
func Effect(e effect.Effect) Step { return Step{kind: KindEffect, eff: e} }

// Done reports completion with the body's return value.
func Done(v any) Step { return Step{kind: KindDone, value: v} }

// Kind returns the step tag.
func (s Step) Kind() Kind { return s.kind }

// Value returns the plain value or the return value of a Done step.
func (s Step) Value() any { return s.value }

// Awaitable returns the dependency of an Await step.
func (s Step) Awaitable() Awaitable { return s.await }

// Effect returns the request of an Effect step.
func (s Step) Effect() effect.Effect { return s.eff }

// Awaitable is a dependency a coroutine may suspend on.
type Awaitable interface {
	Await(ctx context.Context) (any, error)
}

// AwaitFunc adapts a function to Awaitable.
type AwaitFunc func(ctx context.Context) (any, error)

func (f AwaitFunc) Await(ctx context.Context) (any, error) { return f(ctx) }

// Func is a hand-compiled coroutine: each call computes the next step from
// the injected input. Return and Throw are no-ops.
type Func func(in any) (Step, error)

func (f Func) Resume(in any) (Step, error) { return f(in) }

func (Func) Return(error) error { return nil }

func (Func) Throw(error) error { return nil }

var (
	// ErrReturned is reported by Yielder calls once the coroutine was
	// finalized with Return.
	ErrReturned = errors.New("coro: returned")
	// ErrFinished is returned by Resume after the body completed.
	ErrFinished = errors.New("coro: finished")
)

// PanicError carries a value recovered from a panicking body.
type PanicError struct {
	Value any
}

func (e *PanicError) Error() string { return fmt.Sprintf("panic: %v", e.Value) }

func (e *PanicError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}
