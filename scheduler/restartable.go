package scheduler

import "github.com/NetPo4ki/go-taskslot/runner"

// restartable keeps at most one active runner; a new submission cancels it.
type restartable struct {
	active *runner.Runner
}

func (s *restartable) admit(r *runner.Runner) admission {
	prev := s.active
	s.active = r
	return admission{start: r, cancel: prev, reason: ErrRestarted}
}

func (s *restartable) settled(r *runner.Runner) *runner.Runner {
	if s.active == r {
		s.active = nil
	}
	return nil
}

func (s *restartable) drain() (active, queued []*runner.Runner) {
	if s.active != nil {
		active = []*runner.Runner{s.active}
		s.active = nil
	}
	return active, nil
}

func (s *restartable) stats() Stats { return Stats{Active: count(s.active)} }

func count(r *runner.Runner) int {
	if r == nil {
		return 0
	}
	return 1
}
