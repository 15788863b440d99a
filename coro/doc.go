// Package coro defines the resumable-coroutine protocol tasks are built on.
//
// A Coroutine is resumed one step at a time. Each step yields a Step, a
// tagged union telling the driver what the body is waiting for: a plain
// value echoed back on the next resume, an Awaitable, an effect.Effect, or
// Done with the body's return value.
//
// Generator implements the protocol on top of iter.Pull, so a body is
// ordinary sequential Go:
//
//	gen := coro.New(func(y *coro.Yielder) (any, error) {
//		if _, err := y.Do(effect.Delay(50 * time.Millisecond)); err != nil {
//			return nil, err
//		}
//		v, err := y.Await(fetch)
//		if err != nil {
//			return nil, err
//		}
//		return v, nil
//	})
//
// Return and Throw finalize a suspended body: the pending Yielder call
// reports an error and every later call reports it again without
// suspending, so the body is expected to unwind and return.
package coro
