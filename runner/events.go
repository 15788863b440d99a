package runner

import (
	"fmt"

	"github.com/NetPo4ki/go-taskslot/task"
)

// Event names a lifecycle notification.
type Event uint8

const (
	EventRunning Event = iota
	EventResolve
	EventReject
	EventCancel
)

func (e Event) String() string {
	switch e {
	case EventRunning:
		return "running"
	case EventResolve:
		return "resolve"
	case EventReject:
		return "reject"
	case EventCancel:
		return "cancel"
	default:
		return fmt.Sprintf("Event(%d)", uint8(e))
	}
}

// Handler receives an event payload: nil for running, the value for
// resolve, the error for reject and the reason for cancel.
type Handler func(payload any)

// Subscription identifies one On registration.
type Subscription struct {
	event Event
	id    uint64
}

// Event returns the event the subscription listens to.
func (s Subscription) Event() Event { return s.event }

type subscriber struct {
	Subscription
	handler Handler
}

func terminalEvent(s task.State) Event {
	switch s {
	case task.StateResolved:
		return EventResolve
	case task.StateCancelled:
		return EventCancel
	default:
		return EventReject
	}
}

// On registers h for ev. Handlers run synchronously in registration order.
// A nil handler is ignored and yields the zero Subscription.
func (r *Runner) On(ev Event, h Handler) Subscription {
	if h == nil {
		return Subscription{}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextSub++
	sub := Subscription{event: ev, id: r.nextSub}
	r.subs = append(r.subs, subscriber{Subscription: sub, handler: h})
	return sub
}

// Off removes the registration identified by sub. It reports whether one
// was removed.
func (r *Runner) Off(sub Subscription) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, s := range r.subs {
		if s.Subscription == sub {
			r.subs = append(r.subs[:i:i], r.subs[i+1:]...)
			return true
		}
	}
	return false
}

func (r *Runner) emit(ev Event, payload any) {
	r.mu.Lock()
	var handlers []Handler
	for _, s := range r.subs {
		if s.event == ev {
			handlers = append(handlers, s.handler)
		}
	}
	r.mu.Unlock()
	for _, h := range handlers {
		h(payload)
	}
}
