package tree

import (
	"strings"

	"github.com/jesspatton/testexplorer/adapter"
)

// TestNode is a leaf of the tree. Its state is set by run events; the
// resend flag doubles as its dirty flag.
type TestNode struct {
	collection *Collection
	info       *adapter.TestInfo
	parent     *SuiteNode

	fileURI     string
	description string
	tooltip     string
	state       NodeState
	log         string

	// the result belongs to a run that has been superseded
	retired bool

	sendStateNeeded bool
}

func newTestNode(c *Collection, info *adapter.TestInfo, parent *SuiteNode, oldNodes map[string]TreeNode) *TestNode {
	t := &TestNode{
		collection:  c,
		info:        info,
		parent:      parent,
		fileURI:     c.fileURI(info.File),
		description: info.Description,
		tooltip:     info.Tooltip,
		state:       initialTestState(info),
	}

	if old, ok := oldNodes[info.ID].(*TestNode); ok {
		t.state = old.state
		t.log = old.log
		t.retired = old.retired
	}

	c.register(t)
	return t
}

func initialTestState(info *adapter.TestInfo) NodeState {
	if info.Skipped {
		return NodeState{Current: StateSkipped, Previous: PreviousSkipped}
	}
	return NodeState{Current: StatePending, Previous: PreviousPending}
}

func (t *TestNode) ID() string              { return t.info.ID }
func (t *TestNode) Label() string           { return t.info.Label }
func (t *TestNode) Info() adapter.Info      { return t.info }
func (t *TestNode) FileURI() string         { return t.fileURI }
func (t *TestNode) State() NodeState        { return t.state }
func (t *TestNode) SendStateNeeded() bool   { return t.sendStateNeeded }
func (t *TestNode) Dirty() bool             { return t.sendStateNeeded }
func (t *TestNode) Log() string             { return t.log }
func (t *TestNode) Collection() *Collection { return t.collection }
func (t *TestNode) Parent() *SuiteNode      { return t.parent }
func (t *TestNode) Children() []TreeNode    { return nil }
func (t *TestNode) Description() string     { return t.description }
func (t *TestNode) Tooltip() string         { return t.tooltip }

// SetCurrentState applies a run event. A finished state also becomes the
// previous state; the first event of a new run on a retired test clears the
// log. Message is appended to the log.
func (t *TestNode) SetCurrentState(current CurrentState, message string, description, tooltip *string) {
	if t.retired && current != StatePending {
		t.log = ""
		t.retired = false
	}
	if message != "" {
		t.log += message
		if !strings.HasSuffix(message, "\n") {
			t.log += "\n"
		}
	}

	changed := false
	if t.state.Current != current {
		t.state.Current = current
		changed = true
	}
	if prev, ok := current.terminal(); ok && t.state.Previous != prev {
		t.state.Previous = prev
		changed = true
	}
	if description != nil && *description != t.description {
		t.description = *description
		changed = true
	}
	if tooltip != nil && *tooltip != t.tooltip {
		t.tooltip = *tooltip
		changed = true
	}

	if changed {
		t.markChanged()
	}
}

// RetireState marks the current result as belonging to an older run. The
// visible state is kept until the next run reports on this test.
func (t *TestNode) RetireState() {
	t.retired = true
}

// ResetState forgets every result and restores the adapter's description
// and tooltip.
func (t *TestNode) ResetState() {
	initial := initialTestState(t.info)
	initial.Autorun = t.state.Autorun

	changed := false
	if t.state != initial {
		t.state = initial
		changed = true
	}
	if t.description != t.info.Description || t.tooltip != t.info.Tooltip {
		t.description = t.info.Description
		t.tooltip = t.info.Tooltip
		changed = true
	}
	t.log = ""
	t.retired = false

	if changed {
		t.markChanged()
	}
}

// SetAutorun sets the autorun flag and marks the test for resend.
func (t *TestNode) SetAutorun(autorun bool) {
	t.state.Autorun = autorun
	t.sendStateNeeded = true
	if t.parent != nil {
		t.parent.recalcStateNeeded = true
	}
}

// TreeItem renders the test and clears the resend flag.
func (t *TestNode) TreeItem() TreeItem {
	t.sendStateNeeded = false

	fallback := "test"
	if t.fileURI != "" {
		fallback = "testWithSource"
	}

	icon := StateIcon(t.state)
	return TreeItem{
		ID:          t.info.ID,
		Label:       t.info.Label,
		Collapsible: CollapsibleNone,
		IconKey:     icon,
		Icon:        t.collection.icons().Lookup(icon),
		Description: t.description,
		Tooltip:     t.tooltip,
		FileURI:     t.fileURI,
		ContextValue: itemContext(t.info.Context, adapter.Context{
			{Key: "test", Value: true},
			{Key: "hasSource", Value: t.fileURI != ""},
		}, fallback),
	}
}

func (t *TestNode) markChanged() {
	t.sendStateNeeded = true
	if t.parent != nil {
		t.parent.recalcStateNeeded = true
	}
	if t.fileURI != "" {
		t.collection.decorate(t.fileURI)
	}
}
