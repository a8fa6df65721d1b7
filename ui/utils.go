package ui

import "github.com/jesspatton/testexplorer/tree"

// DisplayNode is one visible row of the explorer.
type DisplayNode struct {
	Node        tree.TreeNode
	Item        tree.TreeItem
	DisplayName string
	Depth       int
}

// IsSuite reports whether the row can be expanded.
func (d DisplayNode) IsSuite() bool {
	return d.Item.Collapsible != tree.CollapsibleNone
}

// flattenNodes performs a depth-first traversal over the expanded part of the
// tree. Suites whose only child is another suite are merged into one row.
func flattenNodes(root tree.TreeNode, items map[string]tree.TreeItem, expanded map[string]bool) []DisplayNode {
	nodes := []DisplayNode{}
	if root == nil {
		return nodes
	}

	item := func(n tree.TreeNode) tree.TreeItem {
		if it, ok := items[n.ID()]; ok {
			return it
		}
		return tree.TreeItem{ID: n.ID(), Label: n.Label()}
	}

	var getCompacted func(tree.TreeNode, string) (tree.TreeNode, string)
	getCompacted = func(n tree.TreeNode, currentName string) (tree.TreeNode, string) {
		children := n.Children()
		if len(children) == 1 && isSuite(children[0]) {
			child := children[0]
			return getCompacted(child, currentName+"/"+item(child).Label)
		}
		return n, currentName
	}

	var traverse func(tree.TreeNode, int)
	traverse = func(n tree.TreeNode, depth int) {
		final, name := n, item(n).Label
		if isSuite(n) && n != root {
			final, name = getCompacted(n, name)
		}

		nodes = append(nodes, DisplayNode{
			Node:        final,
			Item:        item(final),
			DisplayName: name,
			Depth:       depth,
		})

		if !expanded[final.ID()] {
			return
		}
		for _, child := range final.Children() {
			traverse(child, depth+1)
		}
	}
	traverse(root, 0)
	return nodes
}

func isSuite(n tree.TreeNode) bool {
	_, ok := n.(*tree.SuiteNode)
	return ok
}

// autorunTests lists the tests with autorun set, in tree order.
func autorunTests(c *tree.Collection) []tree.TreeNode {
	var nodes []tree.TreeNode
	c.Walk(func(n tree.TreeNode) bool {
		if _, ok := n.(*tree.TestNode); ok && n.State().Autorun {
			nodes = append(nodes, n)
		}
		return true
	})
	return nodes
}
