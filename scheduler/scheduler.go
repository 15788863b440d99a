package scheduler

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/joeycumines/logiface"

	"github.com/NetPo4ki/go-taskslot/effect"
	"github.com/NetPo4ki/go-taskslot/internal/invariant"
	"github.com/NetPo4ki/go-taskslot/runner"
	"github.com/NetPo4ki/go-taskslot/scope"
	"github.com/NetPo4ki/go-taskslot/task"
)

// Strategy selects how a Scheduler admits submissions.
type Strategy int

const (
	Default Strategy = iota
	Restartable
	Enqueue
	Drop
	KeepLatest
)

func (s Strategy) String() string {
	switch s {
	case Default:
		return "default"
	case Restartable:
		return "restartable"
	case Enqueue:
		return "enqueue"
	case Drop:
		return "drop"
	case KeepLatest:
		return "keep-latest"
	default:
		return fmt.Sprintf("Strategy(%d)", int(s))
	}
}

// ParseStrategy maps a strategy name to its constant. Unknown names fall
// back to Default.
func ParseStrategy(name string) Strategy {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "restartable":
		return Restartable
	case "enqueue":
		return Enqueue
	case "drop":
		return Drop
	case "keep-latest", "keeplatest", "keep_latest":
		return KeepLatest
	default:
		return Default
	}
}

var (
	// ErrRestarted cancels the active runner of a Restartable scheduler.
	ErrRestarted = errors.New("scheduler: restarted")
	// ErrDropped cancels a submission refused by a Drop scheduler.
	ErrDropped = errors.New("scheduler: dropped")
	// ErrSuperseded cancels the queued successor of a KeepLatest scheduler.
	ErrSuperseded = errors.New("scheduler: superseded")
)

type Option func(*Options)

type Options struct {
	Name           string
	Context        context.Context
	FailFast       bool
	Logger         *logiface.Logger[logiface.Event]
	Observer       Observer
	RunnerObserver runner.Observer
}

// WithName labels the scheduler and the runners it builds.
func WithName(name string) Option { return func(o *Options) { o.Name = name } }

// WithContext sets the parent of the scheduler scope.
func WithContext(ctx context.Context) Option { return func(o *Options) { o.Context = ctx } }

// WithFailFast makes the first rejected runner cancel every other runner of
// the scheduler, with the rejection as the cause.
func WithFailFast() Option { return func(o *Options) { o.FailFast = true } }

func WithLogger(l *logiface.Logger[logiface.Event]) Option { return func(o *Options) { o.Logger = l } }

func WithObserver(obs Observer) Option { return func(o *Options) { o.Observer = obs } }

// WithRunnerObserver is installed on every runner built by Prepare.
func WithRunnerObserver(obs runner.Observer) Option {
	return func(o *Options) { o.RunnerObserver = obs }
}

// Stats is a point-in-time view of a scheduler's runners.
type Stats struct {
	Active int
	Queued int
}

// admission is what a slot decided for one submission.
type admission struct {
	start  *runner.Runner
	cancel *runner.Runner
	evict  *runner.Runner
	reason error
	queued bool
}

// slot holds the runners of one strategy. Every method is called with the
// scheduler lock held and must not call into a runner.
type slot interface {
	admit(r *runner.Runner) admission
	settled(r *runner.Runner) (next *runner.Runner)
	drain() (active, queued []*runner.Runner)
	stats() Stats
}

// Scheduler admits runners into one operation slot according to its
// Strategy. It is safe for concurrent use.
type Scheduler struct {
	strategy Strategy
	opts     Options
	scope    *scope.Scope

	mu   sync.Mutex
	slot slot
}

// New returns a Scheduler for strategy. An unknown strategy behaves as
// Default.
func New(strategy Strategy, optFns ...Option) *Scheduler {
	var opts Options
	for _, fn := range optFns {
		fn(&opts)
	}
	s := &Scheduler{opts: opts}
	switch strategy {
	case Restartable:
		s.slot = &restartable{}
	case Enqueue:
		s.slot = &enqueue{}
	case Drop:
		s.slot = &drop{}
	case KeepLatest:
		s.slot = &keepLatest{}
	default:
		strategy = Default
		s.slot = &unbounded{}
	}
	s.strategy = strategy
	policy := scope.Supervisor
	if opts.FailFast {
		policy = scope.FailFast
	}
	s.scope = scope.New(opts.Context, policy, scope.WithLogger(opts.Logger))
	return s
}

func (s *Scheduler) Strategy() Strategy { return s.strategy }

// Prepare builds a runner bound to the scheduler without submitting it, so
// callers can subscribe to its events first. optFns are applied after the
// scheduler's own runner options.
func (s *Scheduler) Prepare(factory task.Factory, optFns ...runner.Option) *runner.Runner {
	all := []runner.Option{
		runner.WithScope(s.scope),
		runner.WithLogger(s.opts.Logger),
		runner.WithName(s.opts.Name),
	}
	if s.opts.RunnerObserver != nil {
		all = append(all, runner.WithObserver(s.opts.RunnerObserver))
	}
	return runner.New(factory, append(all, optFns...)...)
}

// Execute builds a runner for factory and submits it.
func (s *Scheduler) Execute(factory task.Factory, optFns ...runner.Option) *runner.Runner {
	return s.Submit(s.Prepare(factory, optFns...))
}

// Submit admits r, which must not have been executed yet. Runners not built
// by Prepare are driven outside the scheduler scope and Wait does not join
// them.
func (s *Scheduler) Submit(r *runner.Runner) *runner.Runner {
	invariant.Check(r != nil, "scheduler: nil runner")
	invariant.Check(r.Status() == task.StatePending, "scheduler: runner %d already executed", r.ID())
	s.watch(r)

	s.mu.Lock()
	a := s.slot.admit(r)
	depth := s.slot.stats().Queued
	s.mu.Unlock()

	if a.cancel != nil {
		s.evicted(a.cancel, a.reason)
		a.cancel.Cancel(a.reason)
	}
	if a.evict != nil {
		s.evict(a.evict, a.reason)
	}
	if a.queued {
		s.opts.Logger.Debug().
			Str(`strategy`, s.strategy.String()).
			Uint64(`id`, r.ID()).
			Int(`depth`, depth).
			Log(`scheduler: queued`)
		if s.opts.Observer != nil {
			s.opts.Observer.RunnerQueued(s.strategy, r.ID())
		}
	}
	s.queueChanged(depth)
	if a.start != nil {
		s.start(a.start)
	}
	return r
}

// CancelAll cancels every active and queued runner with reason and leaves
// the scheduler idle. A nil reason becomes effect.ErrCancelled.
func (s *Scheduler) CancelAll(reason error) {
	if reason == nil {
		reason = effect.ErrCancelled
	}
	s.mu.Lock()
	active, queued := s.slot.drain()
	s.mu.Unlock()

	s.opts.Logger.Debug().
		Str(`strategy`, s.strategy.String()).
		Int(`active`, len(active)).
		Int(`queued`, len(queued)).
		Err(reason).
		Log(`scheduler: cancel all`)
	s.queueChanged(0)
	for _, r := range active {
		s.evicted(r, reason)
		r.Cancel(reason)
	}
	for _, r := range queued {
		s.evict(r, reason)
	}
}

func (s *Scheduler) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.slot.stats()
}

// Wait blocks until every runner driven by the scheduler has settled and
// returns the first rejection, if any.
func (s *Scheduler) Wait() error { return s.scope.Wait() }

func (s *Scheduler) watch(r *runner.Runner) {
	h := func(any) { s.settled(r) }
	r.On(runner.EventResolve, h)
	r.On(runner.EventReject, h)
	r.On(runner.EventCancel, h)
}

func (s *Scheduler) settled(r *runner.Runner) {
	s.mu.Lock()
	next := s.slot.settled(r)
	depth := s.slot.stats().Queued
	s.mu.Unlock()
	if next == nil {
		return
	}
	s.queueChanged(depth)
	s.start(next)
}

func (s *Scheduler) start(r *runner.Runner) {
	s.opts.Logger.Debug().
		Str(`strategy`, s.strategy.String()).
		Uint64(`id`, r.ID()).
		Log(`scheduler: admitted`)
	if s.opts.Observer != nil {
		s.opts.Observer.RunnerAdmitted(s.strategy, r.ID())
	}
	r.Execute()
}

// evict settles a runner that never started as cancelled.
func (s *Scheduler) evict(r *runner.Runner, reason error) {
	s.evicted(r, reason)
	r.Cancel(reason)
	r.Execute()
}

func (s *Scheduler) evicted(r *runner.Runner, reason error) {
	s.opts.Logger.Debug().
		Str(`strategy`, s.strategy.String()).
		Uint64(`id`, r.ID()).
		Err(reason).
		Log(`scheduler: evicted`)
	if s.opts.Observer != nil {
		s.opts.Observer.RunnerEvicted(s.strategy, r.ID(), reason)
	}
}

func (s *Scheduler) queueChanged(depth int) {
	if s.opts.Observer != nil {
		s.opts.Observer.QueueChanged(s.strategy, depth)
	}
}
