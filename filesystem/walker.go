package filesystem

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Node represents a file or directory in the test tree
type Node struct {
	Name     string
	Path     string
	IsDir    bool
	Children []*Node
	Parent   *Node
}

// Walk traverses the root directory and builds a tree of the files matching
// patterns (DefaultTestPatterns when empty). Only directories that contain a
// matching file appear. Children are sorted, directories first.
func Walk(root string, patterns []string) (*Node, error) {
	if len(patterns) == 0 {
		patterns = DefaultTestPatterns
	}
	if _, err := os.Stat(root); err != nil {
		return nil, err
	}

	rootNode := &Node{
		Name:  filepath.Base(root),
		Path:  root,
		IsDir: true,
	}

	ignorer := NewIgnorer(root)
	for f := range StreamFiles(root) {
		if ignorer.ShouldIgnore(f.Location, root) {
			continue
		}
		relPath, err := filepath.Rel(root, f.Location)
		if err != nil {
			continue
		}
		if MatchAny(patterns, relPath) {
			addPathToTree(rootNode, f.Location, root)
		}
	}

	sortTree(rootNode)
	return rootNode, nil
}

// addPathToTree adds a file path to the tree, creating intermediate directory nodes as needed
func addPathToTree(root *Node, path string, rootPath string) {
	relPath, err := filepath.Rel(rootPath, path)
	if err != nil {
		return
	}

	parts := strings.Split(relPath, string(os.PathSeparator))
	currentNode := root

	for i, part := range parts {
		if i == len(parts)-1 {
			currentNode.Children = append(currentNode.Children, &Node{
				Name:   part,
				Path:   path,
				IsDir:  false,
				Parent: currentNode,
			})
			return
		}

		var next *Node
		for _, child := range currentNode.Children {
			if child.Name == part && child.IsDir {
				next = child
				break
			}
		}

		if next == nil {
			next = &Node{
				Name:   part,
				Path:   filepath.Join(currentNode.Path, part),
				IsDir:  true,
				Parent: currentNode,
			}
			currentNode.Children = append(currentNode.Children, next)
		}
		currentNode = next
	}
}

// The walker streams files concurrently, so order has to be restored here.
func sortTree(n *Node) {
	sort.Slice(n.Children, func(i, j int) bool {
		a, b := n.Children[i], n.Children[j]
		if a.IsDir != b.IsDir {
			return a.IsDir
		}
		return a.Name < b.Name
	})
	for _, child := range n.Children {
		sortTree(child)
	}
}
