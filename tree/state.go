package tree

// CurrentState is the state of a node in the run that is in progress or was
// completed last.
type CurrentState string

const (
	StatePending       CurrentState = "pending"
	StateScheduled     CurrentState = "scheduled"
	StateRunning       CurrentState = "running"
	StateRunningFailed CurrentState = "running-failed"
	StatePassed        CurrentState = "passed"
	StateFailed        CurrentState = "failed"
	StateSkipped       CurrentState = "skipped"
	StateErrored       CurrentState = "errored"
)

// PreviousState is the last terminal result of a node, shown faintly while
// the node is pending again.
type PreviousState string

const (
	PreviousPending PreviousState = "pending"
	PreviousPassed  PreviousState = "passed"
	PreviousFailed  PreviousState = "failed"
	PreviousSkipped PreviousState = "skipped"
	PreviousErrored PreviousState = "errored"
)

// NodeState is the state record every tree node carries.
type NodeState struct {
	Current  CurrentState
	Previous PreviousState
	Autorun  bool
}

func (s CurrentState) isRunning() bool {
	return s == StateRunning || s == StateRunningFailed
}

func (s CurrentState) isFailure() bool {
	return s == StateFailed || s == StateErrored
}

// terminal maps a finished current state onto its previous-state counterpart.
func (s CurrentState) terminal() (PreviousState, bool) {
	switch s {
	case StatePassed:
		return PreviousPassed, true
	case StateFailed:
		return PreviousFailed, true
	case StateSkipped:
		return PreviousSkipped, true
	case StateErrored:
		return PreviousErrored, true
	}
	return "", false
}

// ParentNodeState aggregates the states of a suite's children.
func ParentNodeState(children []TreeNode) NodeState {
	return NodeState{
		Current:  ParentCurrentState(children),
		Previous: ParentPreviousState(children),
		Autorun:  ParentAutorunFlag(children),
	}
}

// ParentCurrentState derives a suite's current state. Running beats
// scheduled, which beats any finished result; among finished results errored
// beats failed beats passed, and a suite is skipped only when every child is.
func ParentCurrentState(children []TreeNode) CurrentState {
	if len(children) == 0 {
		return StatePending
	}

	has := func(match func(CurrentState) bool) bool {
		for _, child := range children {
			if match(child.State().Current) {
				return true
			}
		}
		return false
	}
	is := func(want CurrentState) func(CurrentState) bool {
		return func(s CurrentState) bool { return s == want }
	}

	switch {
	case has(CurrentState.isRunning):
		if has(func(s CurrentState) bool { return s == StateRunningFailed || s.isFailure() }) {
			return StateRunningFailed
		}
		return StateRunning

	case has(is(StateScheduled)):
		if has(CurrentState.isFailure) {
			return StateRunningFailed
		}
		if has(is(StatePassed)) {
			return StateRunning
		}
		return StateScheduled

	case has(is(StateErrored)):
		return StateErrored
	case has(is(StateFailed)):
		return StateFailed
	case has(is(StatePassed)):
		return StatePassed
	}

	for _, child := range children {
		if child.State().Current != StateSkipped {
			return StatePending
		}
	}
	return StateSkipped
}

// ParentPreviousState derives a suite's previous state with the same
// precedence as the finished current states.
func ParentPreviousState(children []TreeNode) PreviousState {
	if len(children) == 0 {
		return PreviousPending
	}

	seen := make(map[PreviousState]bool, 5)
	for _, child := range children {
		seen[child.State().Previous] = true
	}

	switch {
	case seen[PreviousErrored]:
		return PreviousErrored
	case seen[PreviousFailed]:
		return PreviousFailed
	case seen[PreviousPassed]:
		return PreviousPassed
	case len(seen) == 1 && seen[PreviousSkipped]:
		return PreviousSkipped
	}
	return PreviousPending
}

// ParentAutorunFlag is set when any child is in autorun mode.
func ParentAutorunFlag(children []TreeNode) bool {
	for _, child := range children {
		if child.State().Autorun {
			return true
		}
	}
	return false
}
