package ui

import "github.com/jesspatton/testexplorer/tree"

// fileMarks caches one status icon per test file for the output pane. The
// collection invalidates a file through UpdateDecorationsFor whenever a node
// declared in it changes state.
type fileMarks struct {
	collection *tree.Collection
	icons      map[string]tree.Icon
}

func newFileMarks(c *tree.Collection) *fileMarks {
	return &fileMarks{collection: c, icons: make(map[string]tree.Icon)}
}

func (f *fileMarks) UpdateDecorationsFor(fileURI string) {
	delete(f.icons, fileURI)
}

// Icon returns the aggregate state icon of every outermost node declared in
// fileURI, or "" when no node lives there.
func (f *fileMarks) Icon(fileURI string) tree.Icon {
	if fileURI == "" {
		return ""
	}
	if icon, ok := f.icons[fileURI]; ok {
		return icon
	}

	var nodes []tree.TreeNode
	f.collection.Walk(func(n tree.TreeNode) bool {
		if n.FileURI() == fileURI {
			nodes = append(nodes, n)
			return false
		}
		return true
	})
	if len(nodes) == 0 {
		return ""
	}

	icon := tree.StateIcon(tree.ParentNodeState(nodes))
	f.icons[fileURI] = icon
	return icon
}
