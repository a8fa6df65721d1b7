package adapter

// Kind distinguishes suites from tests in a description tree.
type Kind string

const (
	KindSuite Kind = "suite"
	KindTest  Kind = "test"
)

// Info is a node of the description tree an adapter reports: either a
// *SuiteInfo or a *TestInfo.
type Info interface {
	Kind() Kind
	InfoID() string
}

// SuiteInfo describes a group of tests or nested suites.
type SuiteInfo struct {
	ID          string
	Label       string
	File        string
	Description string
	Tooltip     string
	Context     Context
	Children    []Info
}

// TestInfo describes a single runnable test.
type TestInfo struct {
	ID          string
	Label       string
	File        string
	Description string
	Tooltip     string
	Context     Context
	Skipped     bool
}

func (s *SuiteInfo) Kind() Kind     { return KindSuite }
func (s *SuiteInfo) InfoID() string { return s.ID }
func (t *TestInfo) Kind() Kind      { return KindTest }
func (t *TestInfo) InfoID() string  { return t.ID }

// Tests returns every test below s in depth-first order.
func (s *SuiteInfo) Tests() []*TestInfo {
	var tests []*TestInfo
	for _, child := range s.Children {
		switch c := child.(type) {
		case *TestInfo:
			tests = append(tests, c)
		case *SuiteInfo:
			tests = append(tests, c.Tests()...)
		}
	}
	return tests
}
