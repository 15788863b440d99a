package scheduler

import "github.com/NetPo4ki/go-taskslot/runner"

// drop refuses submissions while a runner is active.
type drop struct {
	active *runner.Runner
}

func (s *drop) admit(r *runner.Runner) admission {
	if s.active != nil {
		return admission{evict: r, reason: ErrDropped}
	}
	s.active = r
	return admission{start: r}
}

func (s *drop) settled(r *runner.Runner) *runner.Runner {
	if s.active == r {
		s.active = nil
	}
	return nil
}

func (s *drop) drain() (active, queued []*runner.Runner) {
	if s.active != nil {
		active = []*runner.Runner{s.active}
		s.active = nil
	}
	return active, nil
}

func (s *drop) stats() Stats { return Stats{Active: count(s.active)} }
