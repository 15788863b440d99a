package scheduler

// Observer receives admission decisions. Calls are made without any
// scheduler lock held.
type Observer interface {
	RunnerAdmitted(strategy Strategy, id uint64)
	RunnerQueued(strategy Strategy, id uint64)
	RunnerEvicted(strategy Strategy, id uint64, reason error)
	QueueChanged(strategy Strategy, depth int)
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

func (m multiObserver) RunnerAdmitted(strategy Strategy, id uint64) {
	for _, o := range m {
		o.RunnerAdmitted(strategy, id)
	}
}

func (m multiObserver) RunnerQueued(strategy Strategy, id uint64) {
	for _, o := range m {
		o.RunnerQueued(strategy, id)
	}
}

func (m multiObserver) RunnerEvicted(strategy Strategy, id uint64, reason error) {
	for _, o := range m {
		o.RunnerEvicted(strategy, id, reason)
	}
}

func (m multiObserver) QueueChanged(strategy Strategy, depth int) {
	for _, o := range m {
		o.QueueChanged(strategy, depth)
	}
}
