package scheduler

import "github.com/NetPo4ki/go-taskslot/runner"

// enqueue runs one runner at a time; later submissions wait in FIFO order.
type enqueue struct {
	active *runner.Runner
	queue  []*runner.Runner
}

func (s *enqueue) admit(r *runner.Runner) admission {
	if s.active == nil {
		s.active = r
		return admission{start: r}
	}
	s.queue = append(s.queue, r)
	return admission{queued: true}
}

func (s *enqueue) settled(r *runner.Runner) *runner.Runner {
	if s.active != r {
		return nil
	}
	if len(s.queue) == 0 {
		s.active = nil
		return nil
	}
	next := s.queue[0]
	s.queue[0] = nil
	s.queue = s.queue[1:]
	s.active = next
	return next
}

func (s *enqueue) drain() (active, queued []*runner.Runner) {
	if s.active != nil {
		active = []*runner.Runner{s.active}
	}
	queued = s.queue
	s.active, s.queue = nil, nil
	return active, queued
}

func (s *enqueue) stats() Stats { return Stats{Active: count(s.active), Queued: len(s.queue)} }
