package coro

import (
	"context"
	"fmt"
	"sync"
)

// Future is a promise-like Awaitable settled exactly once.
type Future struct {
	once sync.Once
	done chan struct{}
	v    any
	err  error
}

// NewFuture returns an unsettled Future.
func NewFuture() *Future {
	return &Future{done: make(chan struct{})}
}

// Spawn runs fn on a new goroutine and returns a Future settled with its
// result. A panic in fn rejects the Future.
func Spawn(fn func() (any, error)) *Future {
	f := NewFuture()
	go func() {
		defer func() {
			if r := recover(); r != nil {
				f.Reject(fmt.Errorf("panic: %v", r))
			}
		}()
		v, err := fn()
		if err != nil {
			f.Reject(err)
			return
		}
		f.Resolve(v)
	}()
	return f
}

// Resolve settles f with v. It reports false if f was already settled.
func (f *Future) Resolve(v any) bool { return f.settle(v, nil) }

// Reject settles f with err. It reports false if f was already settled.
func (f *Future) Reject(err error) bool { return f.settle(nil, err) }

func (f *Future) settle(v any, err error) (ok bool) {
	f.once.Do(func() {
		f.v, f.err = v, err
		close(f.done)
		ok = true
	})
	return ok
}

// Done is closed once f settles.
func (f *Future) Done() <-chan struct{} { return f.done }

// Await blocks until f settles or ctx is done.
func (f *Future) Await(ctx context.Context) (any, error) {
	select {
	case <-f.done:
		return f.v, f.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
