package scheduler

import (
	"slices"

	"github.com/NetPo4ki/go-taskslot/runner"
)

// unbounded implements Default: every submission starts at once and is
// tracked until it settles.
type unbounded struct {
	active []*runner.Runner
}

func (u *unbounded) admit(r *runner.Runner) admission {
	u.active = append(u.active, r)
	return admission{start: r}
}

func (u *unbounded) settled(r *runner.Runner) *runner.Runner {
	if i := slices.Index(u.active, r); i >= 0 {
		u.active = slices.Delete(u.active, i, i+1)
	}
	return nil
}

func (u *unbounded) drain() (active, queued []*runner.Runner) {
	active, u.active = u.active, nil
	return active, nil
}

func (u *unbounded) stats() Stats { return Stats{Active: len(u.active)} }
