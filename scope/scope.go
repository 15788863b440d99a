package scope

import (
	"context"
	"fmt"
	"sync"

	"github.com/joeycumines/logiface"
)

type Policy int

const (
	FailFast Policy = iota
	Supervisor
)

func (p Policy) String() string {
	switch p {
	case FailFast:
		return "fail-fast"
	case Supervisor:
		return "supervisor"
	default:
		return fmt.Sprintf("Policy(%d)", int(p))
	}
}

type Option func(*Options)

type Options struct {
	PanicAsError bool
	Logger       *logiface.Logger[logiface.Event]
}

func defaultOptions() Options { return Options{PanicAsError: true} }

func WithPanicAsError(v bool) Option { return func(o *Options) { o.PanicAsError = v } }

func WithLogger(l *logiface.Logger[logiface.Event]) Option { return func(o *Options) { o.Logger = l } }

type Scope struct {
	ctx      context.Context
	cancel   context.CancelCauseFunc
	policy   Policy
	wg       sync.WaitGroup
	mu       sync.Mutex
	firstErr error
	canceled bool

	opts Options
}

func New(parent context.Context, policy Policy, optFns ...Option) *Scope {
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := context.WithCancelCause(parent)
	s := &Scope{ctx: ctx, cancel: cancel, policy: policy, opts: defaultOptions()}
	for _, fn := range optFns {
		fn(&s.opts)
	}
	return s
}

func (s *Scope) Context() context.Context { return s.ctx }

func (s *Scope) Policy() Policy { return s.policy }

// Go runs fn on a new goroutine owned by s.
func (s *Scope) Go(fn func(ctx context.Context) error) {
	if fn == nil {
		return
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				if !s.opts.PanicAsError {
					panic(r)
				}
				err := fmt.Errorf("panic: %v", r)
				s.opts.Logger.Err().Err(err).Log(`scope: recovered panic`)
				s.fail(err)
			}
		}()
		if err := fn(s.ctx); err != nil {
			s.fail(err)
		}
	}()
}

// Cancel cancels the scope context with cause. The first non-nil cause
// recorded wins; later calls are no-ops.
func (s *Scope) Cancel(cause error) {
	s.mu.Lock()
	wasCanceled := s.canceled
	s.canceled = true
	if s.firstErr == nil && cause != nil {
		s.firstErr = cause
	}
	cause = s.firstErr
	s.mu.Unlock()

	if !wasCanceled {
		s.opts.Logger.Debug().
			Str(`policy`, s.policy.String()).
			Err(cause).
			Log(`scope: cancelled`)
	}
	s.cancel(cause)
}

// Wait blocks until every goroutine spawned by s returned and reports the
// first recorded error.
func (s *Scope) Wait() error {
	s.wg.Wait()
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.firstErr
}

// Err reports the first recorded error without waiting.
func (s *Scope) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.firstErr
}

func (s *Scope) fail(err error) {
	if err == nil {
		return
	}
	s.mu.Lock()
	if s.firstErr == nil {
		s.firstErr = err
	}
	shouldCancel := s.policy == FailFast
	cause := s.firstErr
	s.mu.Unlock()
	if shouldCancel {
		s.Cancel(cause)
	}
}
