// Package errgroup bridges runners and golang.org/x/sync/errgroup, so a
// runner can take part in a group and a coroutine can await a whole group.
package errgroup

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/NetPo4ki/go-taskslot/coro"
	"github.com/NetPo4ki/go-taskslot/runner"
)

// Go executes r if it has not been started and adds a function to g that
// waits for it. The function returns the error r.Wait reports, so a
// rejected or cancelled runner fails the group. If ctx is done before r
// settles, r is cancelled with context.Cause(ctx).
func Go(ctx context.Context, g *errgroup.Group, r *runner.Runner) {
	r.Execute()
	g.Go(func() error {
		select {
		case <-r.Done():
		case <-ctx.Done():
			r.Cancel(context.Cause(ctx))
			<-r.Done()
		}
		_, err := r.Wait(context.Background())
		return err
	})
}

// Await returns an awaitable that settles with g.Wait's error once every
// function of g returned. Abandoning the await does not stop the group; the
// goroutine calling g.Wait exits when the group does.
func Await(g *errgroup.Group) coro.Awaitable {
	return coro.Spawn(func() (any, error) { return nil, g.Wait() })
}
