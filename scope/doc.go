// Package scope owns the goroutines that drive runners. A Scope provides a
// join point (Wait) and propagates cancellation to every goroutine it
// spawned, with the cause available through context.Cause.
//
// Under FailFast the first error returned by a spawned function cancels the
// scope; under Supervisor errors are recorded but siblings keep running.
package scope
