package tree

import "github.com/jesspatton/testexplorer/adapter"

// TreeNode is a suite or a test in the explorer tree.
type TreeNode interface {
	ID() string
	Label() string
	Info() adapter.Info
	FileURI() string
	State() NodeState
	// SendStateNeeded reports that the node's item changed since the front
	// end last fetched it.
	SendStateNeeded() bool
	// Dirty reports whether the node must be recomputed or resent before it is
	// next displayed.
	Dirty() bool
	Log() string
	Collection() *Collection
	Parent() *SuiteNode
	Children() []TreeNode

	RetireState()
	ResetState()
	SetAutorun(autorun bool)
	TreeItem() TreeItem
}

// Collapsible is the expansion state an item starts with.
type Collapsible int

const (
	CollapsibleNone Collapsible = iota
	CollapsibleCollapsed
	CollapsibleExpanded
)

// TreeItem is everything a front end needs to draw one row.
type TreeItem struct {
	ID           string
	Label        string
	Collapsible  Collapsible
	IconKey      Icon
	Icon         string
	ContextValue string
	Description  string
	Tooltip      string
	FileURI      string
}

// itemContext builds the context value for an item: structured tags when the
// adapter attached a context, otherwise the fallback tag.
func itemContext(ext adapter.Context, structured adapter.Context, fallback string) string {
	if ext == nil {
		return fallback
	}
	structured = append(structured, adapter.Property{Key: "ext", Value: ext})
	tags, _ := CreateContextTags(structured)
	return tags
}
