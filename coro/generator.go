package coro

import (
	"fmt"
	"iter"

	"github.com/NetPo4ki/go-taskslot/effect"
)

// Body is the code of a generator-backed coroutine.
type Body func(y *Yielder) (any, error)

// Generator runs a Body as a Coroutine. It is not safe for concurrent use:
// exactly one caller drives it at a time.
type Generator struct {
	body  Body
	next  func() (Step, bool)
	stop  func()
	in    any
	halt  error
	ret   any
	err   error
	ended bool
}

var _ Coroutine = (*Generator)(nil)

// New returns a Generator that has not started running body yet.
func New(body Body) *Generator {
	return &Generator{body: body}
}

// Factory returns a function producing a fresh Generator for body on every
// call, which is the shape task factories expect.
func Factory(body Body) func() Coroutine {
	return func() Coroutine { return New(body) }
}

func (g *Generator) seq(yield func(Step) bool) {
	g.ret, g.err = g.body(&Yielder{g: g, yield: yield})
}

// Resume runs the body up to its next suspension point. Once the body has
// returned, Resume reports its result as a Done step, or its error.
func (g *Generator) Resume(in any) (step Step, err error) {
	if g.ended {
		return Step{}, ErrFinished
	}
	if g.next == nil {
		g.next, g.stop = iter.Pull(g.seq)
	}
	g.in = in
	defer func() {
		if r := recover(); r != nil {
			g.ended = true
			step, err = Step{}, &PanicError{Value: r}
		}
	}()
	s, ok := g.next()
	if ok {
		return s, nil
	}
	g.ended = true
	if g.err != nil {
		return Step{}, g.err
	}
	return Done(g.ret), nil
}

// Return finalizes a suspended body. The pending Yielder call reports an
// error wrapping ErrReturned and reason. A non-nil result means the body
// panicked while unwinding.
func (g *Generator) Return(reason error) error {
	halt := ErrReturned
	if reason != nil {
		halt = fmt.Errorf("%w: %w", ErrReturned, reason)
	}
	return g.finalize(halt)
}

// Throw finalizes a suspended body, reporting err from the pending Yielder
// call.
func (g *Generator) Throw(err error) error {
	if err == nil {
		err = effect.ErrAborted
	}
	return g.finalize(err)
}

func (g *Generator) finalize(halt error) (err error) {
	if g.ended {
		return nil
	}
	g.ended = true
	g.halt = halt
	if g.stop == nil {
		return nil
	}
	defer func() {
		if r := recover(); r != nil {
			err = &PanicError{Value: r}
		}
	}()
	g.stop()
	return nil
}

// Yielder is handed to a Body to suspend it.
type Yielder struct {
	g     *Generator
	yield func(Step) bool
}

// Yield suspends with a plain value and returns the value the driver
// injects on resume.
func (y *Yielder) Yield(v any) (any, error) { return y.suspend(Value(v)) }

// Await suspends until a settles and returns its result.
func (y *Yielder) Await(a Awaitable) (any, error) { return y.suspend(Await(a)) }

// Do suspends on an effect.
func (y *Yielder) Do(e effect.Effect) (any, error) { return y.suspend(Effect(e)) }

func (y *Yielder) suspend(s Step) (any, error) {
	if y.g.halt != nil {
		return nil, y.g.halt
	}
	if !y.yield(s) {
		if y.g.halt != nil {
			return nil, y.g.halt
		}
		return nil, ErrReturned
	}
	return y.g.in, nil
}
