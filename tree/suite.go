package tree

import "github.com/jesspatton/testexplorer/adapter"

// SuiteNode groups tests and nested suites. Its state is always derived from
// its children; it may be stale while recalcStateNeeded is set.
type SuiteNode struct {
	collection *Collection
	info       *adapter.SuiteInfo
	parent     *SuiteNode
	children   []TreeNode

	fileURI     string
	context     adapter.Context
	description string
	tooltip     string
	state       NodeState

	// one of the children's state may have changed, so this node's state
	// needs to be recalculated
	recalcStateNeeded bool

	// the state, description or tooltip changed and the front end has not
	// fetched the item since
	sendStateNeeded bool
}

func newSuiteNode(c *Collection, info *adapter.SuiteInfo, parent *SuiteNode, oldNodes map[string]TreeNode) *SuiteNode {
	s := &SuiteNode{
		collection:  c,
		info:        info,
		parent:      parent,
		fileURI:     c.fileURI(info.File),
		context:     info.Context,
		description: info.Description,
		tooltip:     info.Tooltip,
	}
	c.register(s)

	s.children = make([]TreeNode, 0, len(info.Children))
	for _, childInfo := range info.Children {
		switch child := childInfo.(type) {
		case *adapter.TestInfo:
			s.children = append(s.children, newTestNode(c, child, s, oldNodes))
		case *adapter.SuiteInfo:
			s.children = append(s.children, newSuiteNode(c, child, s, oldNodes))
		}
	}

	s.state = ParentNodeState(s.children)
	return s
}

func (s *SuiteNode) ID() string              { return s.info.ID }
func (s *SuiteNode) Label() string           { return s.info.Label }
func (s *SuiteNode) Info() adapter.Info      { return s.info }
func (s *SuiteNode) FileURI() string         { return s.fileURI }
func (s *SuiteNode) State() NodeState        { return s.state }
func (s *SuiteNode) SendStateNeeded() bool   { return s.sendStateNeeded }
func (s *SuiteNode) Dirty() bool             { return s.recalcStateNeeded }
func (s *SuiteNode) Log() string             { return "" }
func (s *SuiteNode) Collection() *Collection { return s.collection }
func (s *SuiteNode) Parent() *SuiteNode      { return s.parent }
func (s *SuiteNode) Children() []TreeNode    { return s.children }
func (s *SuiteNode) Description() string     { return s.description }
func (s *SuiteNode) Tooltip() string         { return s.tooltip }

// Update replaces the description and tooltip. Nil leaves a field unchanged.
func (s *SuiteNode) Update(description, tooltip *string) {
	if description != nil && *description != s.description {
		s.description = *description
		s.sendStateNeeded = true
	}
	if tooltip != nil && *tooltip != s.tooltip {
		s.tooltip = *tooltip
		s.sendStateNeeded = true
	}
}

// RecalcState brings the aggregate state of s and every nested suite up to
// date, bottom-up. A suite whose aggregate actually changed is marked for
// resend and marks its parent for recalculation.
func (s *SuiteNode) RecalcState() {
	for _, child := range s.children {
		if suite, ok := child.(*SuiteNode); ok {
			suite.RecalcState()
		}
	}

	if !s.recalcStateNeeded {
		return
	}

	next := ParentNodeState(s.children)
	if next != s.state {
		s.collection.log.Debug().
			Str("suite", s.info.ID).
			Str("from", string(s.state.Current)).
			Str("to", string(next.Current)).
			Msg("suite state changed")

		s.state = next
		s.sendStateNeeded = true
		if s.parent != nil {
			s.parent.recalcStateNeeded = true
		}
		if s.fileURI != "" {
			s.collection.decorate(s.fileURI)
		}
	}

	s.recalcStateNeeded = false
}

// RetireState is called when a new run may change the state of this subtree.
func (s *SuiteNode) RetireState() {
	for _, child := range s.children {
		child.RetireState()
	}
	s.recalcStateNeeded = true
}

// ResetState restores the adapter's description and tooltip and resets
// every descendant.
func (s *SuiteNode) ResetState() {
	if s.description != s.info.Description || s.tooltip != s.info.Tooltip {
		s.description = s.info.Description
		s.tooltip = s.info.Tooltip
		s.sendStateNeeded = true
	}

	for _, child := range s.children {
		child.ResetState()
	}
	s.recalcStateNeeded = true
}

// SetAutorun propagates the flag to every descendant.
func (s *SuiteNode) SetAutorun(autorun bool) {
	for _, child := range s.children {
		child.SetAutorun(autorun)
	}
	s.recalcStateNeeded = true
}

// TreeItem renders the suite, recalculating first if needed.
func (s *SuiteNode) TreeItem() TreeItem {
	if s.recalcStateNeeded {
		s.RecalcState()
	}
	s.sendStateNeeded = false

	label := s.info.Label
	if s.parent == nil && s.collection.opts.Workspace != "" && s.collection.opts.MultiWorkspace {
		label = s.collection.opts.Workspace + " - " + label
	}

	icon := StateIcon(s.state)
	item := TreeItem{
		ID:          s.info.ID,
		Label:       label,
		Collapsible: CollapsibleCollapsed,
		IconKey:     icon,
		Icon:        s.collection.icons().Lookup(icon),
		Description: s.description,
		Tooltip:     s.tooltip,
		FileURI:     s.fileURI,
	}

	if s.parent != nil {
		fallback := "suite"
		if s.fileURI != "" {
			fallback = "suiteWithSource"
		}
		item.ContextValue = itemContext(s.context, adapter.Context{
			{Key: "suite", Value: true},
			{Key: "hasSource", Value: s.fileURI != ""},
		}, fallback)
	} else {
		item.ContextValue = itemContext(s.context, adapter.Context{
			{Key: "collection", Value: true},
		}, "collection")
	}

	return item
}
