package task

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/NetPo4ki/go-taskslot/coro"
	"github.com/NetPo4ki/go-taskslot/effect"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func run(t *testing.T, ctx context.Context, tk Task) Task {
	t.Helper()
	for i := 0; i < 100; i++ {
		r, ok := tk.(*Running)
		if !ok {
			return tk
		}
		tk = r.NextTick(ctx)
	}
	t.Fatal("task did not settle")
	return nil
}

func factory(body coro.Body) Factory {
	return func() coro.Coroutine { return coro.New(body) }
}

func TestExecuteOnce(t *testing.T) {
	t.Parallel()
	p := New(factory(func(*coro.Yielder) (any, error) { return nil, nil }))
	require.Equal(t, StatePending, p.State())
	r := p.Execute()
	require.Equal(t, StateRunning, r.State())
	require.Panics(t, func() { p.Execute() })
	assert.IsType(t, &Resolved{}, run(t, context.Background(), r))
}

func TestDefaultFactory(t *testing.T) {
	t.Parallel()
	r := New(nil).Execute()
	next := r.NextTick(context.Background())
	require.Equal(t, StateRunning, next.State())
	assert.Nil(t, next.(*Running).LastValue())
	done := next.(*Running).NextTick(context.Background())
	require.Equal(t, StateResolved, done.State())
	assert.Nil(t, Payload(done))
}

func TestPlainValuesAreEchoed(t *testing.T) {
	t.Parallel()
	r := New(factory(func(y *coro.Yielder) (any, error) {
		v, err := y.Yield("ping")
		if err != nil {
			return nil, err
		}
		return v, nil
	})).Execute()
	next := r.NextTick(context.Background()).(*Running)
	assert.Equal(t, "ping", next.LastValue())
	done := next.NextTick(context.Background())
	assert.Equal(t, &Resolved{Value: "ping"}, done)
}

func TestAwaitableSuccessAndFailure(t *testing.T) {
	t.Parallel()
	ok := New(factory(func(y *coro.Yielder) (any, error) {
		return y.Await(coro.AwaitFunc(func(context.Context) (any, error) { return 42, nil }))
	})).Execute()
	assert.Equal(t, &Resolved{Value: 42}, run(t, context.Background(), ok))

	boom := errors.New("boom")
	var seen error
	bad := New(factory(func(y *coro.Yielder) (any, error) {
		_, seen = y.Await(coro.AwaitFunc(func(context.Context) (any, error) { return nil, boom }))
		return "recovered", nil
	})).Execute()
	got := run(t, context.Background(), bad)
	require.Equal(t, StateRejected, got.State())
	assert.Same(t, boom, got.(*Rejected).Err)
	assert.Same(t, boom, seen)
}

func TestCancelEffect(t *testing.T) {
	t.Parallel()
	reason := errors.New("give up")
	var seen error
	r := New(factory(func(y *coro.Yielder) (any, error) {
		_, seen = y.Do(effect.Cancel(reason))
		return nil, seen
	})).Execute()
	got := run(t, context.Background(), r)
	require.Equal(t, StateCancelled, got.State())
	assert.Same(t, reason, got.(*Cancelled).Reason)
	assert.ErrorIs(t, seen, coro.ErrReturned)
}

func TestAbortEffect(t *testing.T) {
	t.Parallel()
	boom := errors.New("boom")
	var seen error
	r := New(factory(func(y *coro.Yielder) (any, error) {
		_, seen = y.Do(effect.Abort(boom))
		return nil, seen
	})).Execute()
	got := run(t, context.Background(), r)
	require.Equal(t, StateRejected, got.State())
	assert.Same(t, boom, got.(*Rejected).Err)
	assert.Same(t, boom, seen)
}

func TestDelayEffect(t *testing.T) {
	t.Parallel()
	r := New(factory(func(y *coro.Yielder) (any, error) {
		if _, err := y.Do(effect.Delay(30 * time.Millisecond)); err != nil {
			return nil, err
		}
		return "late", nil
	})).Execute()
	start := time.Now()
	got := run(t, context.Background(), r)
	assert.Equal(t, &Resolved{Value: "late"}, got)
	assert.GreaterOrEqual(t, time.Since(start), 30*time.Millisecond)
}

func TestInterruptedStepReturnsSameTask(t *testing.T) {
	t.Parallel()
	r := New(factory(func(y *coro.Yielder) (any, error) {
		_, err := y.Do(effect.Delay(time.Second))
		return nil, err
	})).Execute()
	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(10*time.Millisecond, cancel)
	start := time.Now()
	got := r.NextTick(ctx)
	assert.Same(t, r, got)
	assert.Less(t, time.Since(start), 500*time.Millisecond)

	reason := errors.New("interrupted")
	c := r.Cancel(reason)
	assert.Same(t, reason, c.Reason)
}

func TestForcedCancelAndAbort(t *testing.T) {
	t.Parallel()
	body := func(seen *error) coro.Body {
		return func(y *coro.Yielder) (any, error) {
			_, *seen = y.Yield(nil)
			return nil, *seen
		}
	}

	var cancelSeen error
	r := New(factory(body(&cancelSeen))).Execute()
	r = r.NextTick(context.Background()).(*Running)
	c := r.Cancel(nil)
	assert.ErrorIs(t, c.Reason, effect.ErrCancelled)
	assert.ErrorIs(t, cancelSeen, coro.ErrReturned)

	var abortSeen error
	boom := errors.New("boom")
	r = New(factory(body(&abortSeen))).Execute()
	r = r.NextTick(context.Background()).(*Running)
	rej := r.Abort(boom)
	assert.Equal(t, StateRejected, rej.State())
	assert.Same(t, boom, rej.Err)
	assert.Same(t, boom, abortSeen)
}

func TestBodyErrorAndPanic(t *testing.T) {
	t.Parallel()
	boom := errors.New("boom")
	got := run(t, context.Background(), New(factory(func(*coro.Yielder) (any, error) { return nil, boom })).Execute())
	assert.Equal(t, &Rejected{Err: boom}, got)

	got = run(t, context.Background(), New(factory(func(*coro.Yielder) (any, error) { panic("bad") })).Execute())
	require.Equal(t, StateRejected, got.State())
	assert.Contains(t, got.(*Rejected).Err.Error(), "bad")
}

func TestStateString(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "cancelled", StateCancelled.String())
	assert.True(t, StateRejected.Terminal())
	assert.False(t, StateRunning.Terminal())
	assert.Equal(t, "State(9)", State(9).String())
}
