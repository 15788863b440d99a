// Package runner drives one task from Pending to a terminal state.
//
// A Runner owns exactly one task. Execute starts it: the task moves to
// Running and the running event fires on the caller's goroutine, then a
// drive goroutine steps the task until it settles. Cancel and Abort are
// cooperative requests sampled between steps; they also wake a step that is
// suspended on a delay or an awaitable. Exactly one of the resolve, reject
// or cancel events fires per Runner, after which Done is closed.
//
//	r := runner.New(coro.Factory(body))
//	r.On(runner.EventResolve, func(v any) { fmt.Println("got", v) })
//	r.Execute()
//	v, err := r.Wait(ctx)
package runner
