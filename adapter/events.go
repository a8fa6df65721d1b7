package adapter

// TestState is the state a runner reports for a single test.
type TestState string

const (
	TestScheduled TestState = "scheduled"
	TestRunning   TestState = "running"
	TestPassed    TestState = "passed"
	TestFailed    TestState = "failed"
	TestSkipped   TestState = "skipped"
	TestErrored   TestState = "errored"
)

// TestEvent reports a state change of one test. A nil Description or Tooltip
// leaves the displayed value untouched.
type TestEvent struct {
	Test        string
	State       TestState
	Message     string
	Description *string
	Tooltip     *string
}

// SuiteState is the state a runner reports for a suite.
type SuiteState string

const (
	SuiteRunning   SuiteState = "running"
	SuiteCompleted SuiteState = "completed"
)

// SuiteEvent reports that a suite started or finished. Suites derive their
// state from their children, so only the description and tooltip are applied.
type SuiteEvent struct {
	Suite       string
	State       SuiteState
	Description *string
	Tooltip     *string
}

// Event is either a TestEvent or a SuiteEvent.
type Event interface {
	NodeID() string
}

func (e TestEvent) NodeID() string  { return e.Test }
func (e SuiteEvent) NodeID() string { return e.Suite }
