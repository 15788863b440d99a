package runner

import (
	"context"
	"time"

	"github.com/joeycumines/logiface"

	"github.com/NetPo4ki/go-taskslot/scope"
	"github.com/NetPo4ki/go-taskslot/task"
)

type Option func(*Options)

type Options struct {
	Name     string
	Context  context.Context
	Scope    *scope.Scope
	Logger   *logiface.Logger[logiface.Event]
	Observer Observer
}

// WithName labels the runner in logs and observers.
func WithName(name string) Option { return func(o *Options) { o.Name = name } }

// WithContext sets the parent context. Its cancellation ends the runner as
// cancelled with context.Cause as the reason.
func WithContext(ctx context.Context) Option { return func(o *Options) { o.Context = ctx } }

// WithScope spawns the drive goroutine in s and derives the runner context
// from s. It takes precedence over WithContext.
func WithScope(s *scope.Scope) Option { return func(o *Options) { o.Scope = s } }

func WithLogger(l *logiface.Logger[logiface.Event]) Option { return func(o *Options) { o.Logger = l } }

func WithObserver(obs Observer) Option { return func(o *Options) { o.Observer = obs } }

// Info identifies a runner to observers. Started is zero for a runner that
// settled without ever running.
type Info struct {
	ID      uint64
	Name    string
	Started time.Time
}

type Observer interface {
	TaskStarted(ctx context.Context, info Info)
	TaskFinished(ctx context.Context, info Info, status task.State, dur time.Duration, payload any)
}

// MultiObserver fans every call out to obs in order. Nil entries are
// skipped.
func MultiObserver(obs ...Observer) Observer {
	var list multiObserver
	for _, o := range obs {
		if o != nil {
			list = append(list, o)
		}
	}
	return list
}

type multiObserver []Observer

func (m multiObserver) TaskStarted(ctx context.Context, info Info) {
	for _, o := range m {
		o.TaskStarted(ctx, info)
	}
}

func (m multiObserver) TaskFinished(ctx context.Context, info Info, status task.State, dur time.Duration, payload any) {
	for _, o := range m {
		o.TaskFinished(ctx, info, status, dur, payload)
	}
}
