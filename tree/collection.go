package tree

import (
	"path/filepath"

	"github.com/jesspatton/testexplorer/adapter"
	"github.com/jesspatton/testexplorer/logging"
	"github.com/rs/zerolog"
)

// Decorator refreshes whatever per-file markers the front end shows, e.g.
// gutter icons in an editor.
type Decorator interface {
	UpdateDecorationsFor(fileURI string)
}

// Options configure a Collection.
type Options struct {
	// Workspace names the folder the tests belong to.
	Workspace string
	// MultiWorkspace is set when more than one workspace is open; the root
	// label is then prefixed with the workspace name.
	MultiWorkspace bool
	// BaseDir resolves relative file references from the adapter.
	BaseDir   string
	Icons     IconTable
	Decorator Decorator
}

// Collection owns the tree built from one adapter's description and routes
// lifecycle calls and run events into it. It is not safe for concurrent use;
// all calls are expected from the front end's event loop.
type Collection struct {
	opts      Options
	root      *SuiteNode
	nodesByID map[string]TreeNode
	log       zerolog.Logger
}

// NewCollection creates an empty collection.
func NewCollection(opts Options) *Collection {
	return &Collection{
		opts:      opts,
		nodesByID: make(map[string]TreeNode),
		log:       logging.For("collection"),
	}
}

// Load rebuilds the tree wholesale. Tests that keep their id keep their state
// and log.
func (c *Collection) Load(info *adapter.SuiteInfo) {
	old := c.nodesByID
	c.nodesByID = make(map[string]TreeNode, len(old))

	if info == nil {
		c.root = nil
		return
	}
	c.root = newSuiteNode(c, info, nil, old)

	c.log.Info().
		Str("root", info.ID).
		Int("nodes", len(c.nodesByID)).
		Int("previous", len(old)).
		Msg("tree loaded")
}

// Root returns the root suite, nil before the first Load.
func (c *Collection) Root() *SuiteNode {
	return c.root
}

// Node looks a node up by id.
func (c *Collection) Node(id string) (TreeNode, bool) {
	n, ok := c.nodesByID[id]
	return n, ok
}

// Len returns the number of nodes in the tree.
func (c *Collection) Len() int {
	return len(c.nodesByID)
}

// Walk visits nodes depth-first, parents before children. Returning false
// from fn skips the node's children.
func (c *Collection) Walk(fn func(TreeNode) bool) {
	if c.root == nil {
		return
	}
	walk(c.root, fn)
}

func walk(n TreeNode, fn func(TreeNode) bool) {
	if !fn(n) {
		return
	}
	for _, child := range n.Children() {
		walk(child, fn)
	}
}

// Tests returns the tests at or below the node with the given id.
func (c *Collection) Tests(id string) []*TestNode {
	n, ok := c.nodesByID[id]
	if !ok {
		return nil
	}
	var tests []*TestNode
	walk(n, func(n TreeNode) bool {
		if t, ok := n.(*TestNode); ok {
			tests = append(tests, t)
		}
		return true
	})
	return tests
}

// Apply routes a run event to its node. Events for unknown nodes or with
// unknown states are dropped and reported as false.
func (c *Collection) Apply(event adapter.Event) bool {
	n, ok := c.nodesByID[event.NodeID()]
	if !ok {
		c.log.Debug().Str("node", event.NodeID()).Msg("event for unknown node")
		return false
	}

	switch ev := event.(type) {
	case adapter.TestEvent:
		test, ok := n.(*TestNode)
		if !ok {
			return false
		}
		state, ok := currentStateFor(ev.State)
		if !ok {
			c.log.Warn().Str("test", ev.Test).Str("state", string(ev.State)).Msg("unknown test state")
			return false
		}
		test.SetCurrentState(state, ev.Message, ev.Description, ev.Tooltip)
		return true

	case adapter.SuiteEvent:
		suite, ok := n.(*SuiteNode)
		if !ok {
			return false
		}
		suite.Update(ev.Description, ev.Tooltip)
		return true
	}
	return false
}

func currentStateFor(s adapter.TestState) (CurrentState, bool) {
	switch s {
	case adapter.TestScheduled:
		return StateScheduled, true
	case adapter.TestRunning:
		return StateRunning, true
	case adapter.TestPassed:
		return StatePassed, true
	case adapter.TestFailed:
		return StateFailed, true
	case adapter.TestSkipped:
		return StateSkipped, true
	case adapter.TestErrored:
		return StateErrored, true
	}
	return "", false
}

// RetireState retires the given subtrees, or the whole tree without ids.
func (c *Collection) RetireState(ids ...string) {
	c.forEach(ids, TreeNode.RetireState)
}

// ResetState forgets every result in the tree.
func (c *Collection) ResetState() {
	if c.root != nil {
		c.root.ResetState()
	}
}

// SetAutorun sets the autorun flag on the given subtrees, or the whole tree
// without ids.
func (c *Collection) SetAutorun(autorun bool, ids ...string) {
	c.forEach(ids, func(n TreeNode) { n.SetAutorun(autorun) })
}

// CancelRun puts tests that were scheduled or running back to pending. Their
// previous result stays visible.
func (c *Collection) CancelRun() {
	c.Walk(func(n TreeNode) bool {
		if t, ok := n.(*TestNode); ok {
			if s := t.state.Current; s == StateScheduled || s.isRunning() {
				t.SetCurrentState(StatePending, "", nil, nil)
			}
		}
		return true
	})
}

// Changed recalculates the tree and returns the nodes whose items must be
// fetched again, in Walk order.
func (c *Collection) Changed() []TreeNode {
	if c.root == nil {
		return nil
	}
	c.root.RecalcState()

	var changed []TreeNode
	c.Walk(func(n TreeNode) bool {
		if n.SendStateNeeded() {
			changed = append(changed, n)
		}
		return true
	})
	return changed
}

func (c *Collection) forEach(ids []string, fn func(TreeNode)) {
	if len(ids) == 0 {
		if c.root != nil {
			fn(c.root)
		}
		return
	}
	for _, id := range ids {
		n, ok := c.nodesByID[id]
		if !ok {
			continue
		}
		fn(n)
		for p := n.Parent(); p != nil; p = p.parent {
			p.recalcStateNeeded = true
		}
	}
}

func (c *Collection) register(n TreeNode) {
	if _, dup := c.nodesByID[n.ID()]; dup {
		c.log.Warn().Str("node", n.ID()).Msg("duplicate node id, keeping the last one")
	}
	c.nodesByID[n.ID()] = n
}

func (c *Collection) fileURI(file string) string {
	if file != "" && !filepath.IsAbs(file) && c.opts.BaseDir != "" {
		file = filepath.Join(c.opts.BaseDir, file)
	}
	return NormalizeFilename(file)
}

func (c *Collection) icons() IconTable {
	if c.opts.Icons == nil {
		return DefaultIcons
	}
	return c.opts.Icons
}

// SetDecorator replaces the decorator, for front ends created after the
// collection.
func (c *Collection) SetDecorator(d Decorator) {
	c.opts.Decorator = d
}

func (c *Collection) decorate(fileURI string) {
	if c.opts.Decorator != nil {
		c.opts.Decorator.UpdateDecorationsFor(fileURI)
	}
}
