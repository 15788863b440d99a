package runner

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/NetPo4ki/go-taskslot/effect"
	"github.com/NetPo4ki/go-taskslot/task"
)

var lastID atomic.Uint64

var errSettled = errors.New("runner: settled")

// CancelledError is returned by Wait for a cancelled runner.
type CancelledError struct {
	Reason error
}

func (e *CancelledError) Error() string { return "runner: cancelled: " + e.Reason.Error() }

func (e *CancelledError) Unwrap() error { return e.Reason }

// Is makes every CancelledError match effect.ErrCancelled.
func (e *CancelledError) Is(target error) bool { return target == effect.ErrCancelled }

type request struct {
	requested bool
	reason    error
}

// Runner owns one task across its lifetime. It is never reused once it
// settled.
type Runner struct {
	id   uint64
	opts Options
	ctx  context.Context
	stop context.CancelCauseFunc
	done chan struct{}

	mu        sync.Mutex
	pending   *task.Pending
	status    task.State
	value     any
	started   bool
	startedAt time.Time
	cancelReq request
	abortReq  request
	subs      []subscriber
	nextSub   uint64
}

// New wraps factory in a Pending task. Nothing runs until Execute.
func New(factory task.Factory, optFns ...Option) *Runner {
	r := &Runner{
		id:      lastID.Add(1),
		pending: task.New(factory),
		status:  task.StatePending,
		done:    make(chan struct{}),
	}
	for _, fn := range optFns {
		fn(&r.opts)
	}
	parent := r.opts.Context
	if r.opts.Scope != nil {
		parent = r.opts.Scope.Context()
	}
	if parent == nil {
		parent = context.Background()
	}
	r.ctx, r.stop = context.WithCancelCause(parent)
	return r
}

func (r *Runner) ID() uint64 { return r.id }

func (r *Runner) Name() string { return r.opts.Name }

// Status mirrors the state of the owned task.
func (r *Runner) Status() task.State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.status
}

// Value returns the last settled payload, nil until the runner settles.
func (r *Runner) Value() any {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.value
}

// Result returns Status and Value atomically.
func (r *Runner) Result() (task.State, any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.status, r.value
}

// Done is closed after the terminal event handlers returned.
func (r *Runner) Done() <-chan struct{} { return r.done }

// Wait blocks until the runner settles or ctx is done. A rejected runner
// reports its error, a cancelled one a *CancelledError.
func (r *Runner) Wait(ctx context.Context) (any, error) {
	select {
	case <-r.done:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	status, v := r.Result()
	switch status {
	case task.StateResolved:
		return v, nil
	case task.StateCancelled:
		return nil, &CancelledError{Reason: v.(error)}
	default:
		return nil, v.(error)
	}
}

// Cancel requests cooperative cancellation. Repeated calls only update the
// reason. A nil reason becomes effect.ErrCancelled.
func (r *Runner) Cancel(reason error) {
	if reason == nil {
		reason = effect.ErrCancelled
	}
	r.mu.Lock()
	r.cancelReq = request{requested: true, reason: reason}
	r.mu.Unlock()
	r.stop(reason)
}

// Abort requests a forced rejection with reason. Cancel takes priority when
// both were requested. A nil reason becomes effect.ErrAborted.
func (r *Runner) Abort(reason error) {
	if reason == nil {
		reason = effect.ErrAborted
	}
	r.mu.Lock()
	r.abortReq = request{requested: true, reason: reason}
	r.mu.Unlock()
	r.stop(reason)
}

func (r *Runner) requests() (cancelReq, abortReq request) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.cancelReq, r.abortReq
}

// Execute starts the runner; later calls are no-ops. If Cancel or Abort
// was requested beforehand the terminal event fires immediately and the
// running event never does.
func (r *Runner) Execute() {
	r.mu.Lock()
	if r.started {
		r.mu.Unlock()
		return
	}
	r.started = true
	r.mu.Unlock()

	cancelReq, abortReq := r.requests()
	switch {
	case cancelReq.requested:
		r.finish(&task.Cancelled{Reason: cancelReq.reason})
		return
	case abortReq.requested:
		r.finish(&task.Rejected{Err: abortReq.reason})
		return
	}

	running, err := r.begin()
	if err != nil {
		r.finish(&task.Rejected{Err: err})
		return
	}

	r.mu.Lock()
	r.status = task.StateRunning
	r.startedAt = time.Now()
	info := r.infoLocked()
	r.mu.Unlock()

	r.opts.Logger.Debug().
		Uint64(`id`, r.id).
		Str(`name`, r.opts.Name).
		Log(`runner: running`)
	if r.opts.Observer != nil {
		r.opts.Observer.TaskStarted(r.ctx, info)
	}
	r.emit(EventRunning, nil)

	if r.opts.Scope != nil {
		r.opts.Scope.Go(func(context.Context) error {
			t := r.drive(running)
			r.finish(t)
			if rej, ok := t.(*task.Rejected); ok {
				return rej.Err
			}
			return nil
		})
		return
	}
	go func() { r.finish(r.drive(running)) }()
}

func (r *Runner) begin() (running *task.Running, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("panic: %v", p)
		}
	}()
	return r.pending.Execute(), nil
}

func (r *Runner) drive(running *task.Running) (result task.Task) {
	cur := running
	defer func() {
		if p := recover(); p != nil {
			err := fmt.Errorf("panic: %v", p)
			result = &task.Rejected{Err: err}
			abortQuietly(cur, err)
		}
	}()
	var t task.Task = running
	for {
		next, ok := t.(*task.Running)
		if !ok {
			return t
		}
		cur = next
		cancelReq, abortReq := r.requests()
		switch {
		case cancelReq.requested:
			t = next.Cancel(cancelReq.reason)
		case abortReq.requested:
			t = next.Abort(abortReq.reason)
		case r.ctx.Err() != nil:
			t = next.Cancel(context.Cause(r.ctx))
		default:
			t = next.NextTick(r.ctx)
		}
	}
}

// abortQuietly finalizes a coroutine left suspended by a panicking step.
func abortQuietly(t *task.Running, err error) {
	defer func() { _ = recover() }()
	t.Abort(err)
}

func (r *Runner) finish(t task.Task) {
	status, payload := t.State(), task.Payload(t)

	r.mu.Lock()
	r.status, r.value = status, payload
	info := r.infoLocked()
	r.mu.Unlock()
	r.stop(errSettled)

	var dur time.Duration
	if !info.Started.IsZero() {
		dur = time.Since(info.Started)
	}
	if status == task.StateRejected {
		r.opts.Logger.Warning().
			Uint64(`id`, r.id).
			Str(`name`, r.opts.Name).
			Dur(`duration`, dur).
			Err(payload.(error)).
			Log(`runner: rejected`)
	} else {
		r.opts.Logger.Debug().
			Uint64(`id`, r.id).
			Str(`name`, r.opts.Name).
			Str(`status`, status.String()).
			Dur(`duration`, dur).
			Log(`runner: settled`)
	}
	if r.opts.Observer != nil {
		r.opts.Observer.TaskFinished(r.ctx, info, status, dur, payload)
	}

	r.emit(terminalEvent(status), payload)
	close(r.done)
}

func (r *Runner) infoLocked() Info {
	return Info{ID: r.id, Name: r.opts.Name, Started: r.startedAt}
}
