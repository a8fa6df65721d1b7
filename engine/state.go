package engine

// State is the run bookkeeping the engine keeps next to the tree.
type State struct {
	RootPath string

	// RunID identifies the run the queue belongs to.
	RunID string
	// Queue holds the ids of scheduled tests, in execution order.
	Queue []string
	// Running is the id of the test being executed, JobID the runner job
	// executing it.
	Running string
	JobID   string
	// Suite is the suite an explicit run was started on, if any.
	Suite string
	// LastRun is the node the last explicit run was started on.
	LastRun string

	// CurrentOutput is the live output of the running test.
	CurrentOutput string
	// LoadErr is the error of the last tree load, nil on success.
	LoadErr error
}

// NewState creates an idle State.
func NewState(rootPath string) State {
	return State{
		RootPath: rootPath,
		Queue:    make([]string, 0),
	}
}

// Idle reports whether no test is running.
func (s *State) Idle() bool {
	return s.Running == ""
}

// queued reports whether id is waiting in the queue.
func (s *State) queued(id string) bool {
	for _, q := range s.Queue {
		if q == id {
			return true
		}
	}
	return false
}

func (s *State) pop() (string, bool) {
	if len(s.Queue) == 0 {
		return "", false
	}
	id := s.Queue[0]
	s.Queue = s.Queue[1:]
	return id, true
}
