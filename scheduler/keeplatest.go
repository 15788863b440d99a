package scheduler

import "github.com/NetPo4ki/go-taskslot/runner"

// keepLatest leaves the active runner alone and keeps only the newest
// submission as its successor.
type keepLatest struct {
	active *runner.Runner
	next   *runner.Runner
}

func (s *keepLatest) admit(r *runner.Runner) admission {
	if s.active == nil {
		s.active = r
		return admission{start: r}
	}
	prev := s.next
	s.next = r
	return admission{evict: prev, reason: ErrSuperseded, queued: true}
}

func (s *keepLatest) settled(r *runner.Runner) *runner.Runner {
	if s.active != r {
		return nil
	}
	s.active, s.next = s.next, nil
	return s.active
}

func (s *keepLatest) drain() (active, queued []*runner.Runner) {
	if s.active != nil {
		active = []*runner.Runner{s.active}
	}
	if s.next != nil {
		queued = []*runner.Runner{s.next}
	}
	s.active, s.next = nil, nil
	return active, queued
}

func (s *keepLatest) stats() Stats { return Stats{Active: count(s.active), Queued: count(s.next)} }
