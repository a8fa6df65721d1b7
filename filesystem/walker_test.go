package filesystem

import (
	"os"
	"path/filepath"
	"testing"
)

func writeFiles(t *testing.T, root string, files []string) {
	t.Helper()
	for _, f := range files {
		path := filepath.Join(root, f)
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte("test"), 0644); err != nil {
			t.Fatal(err)
		}
	}
}

func countFiles(n *Node) int {
	count := 0
	if !n.IsDir {
		count++
	}
	for _, child := range n.Children {
		count += countFiles(child)
	}
	return count
}

func TestWalk(t *testing.T) {
	tmpDir := t.TempDir()
	writeFiles(t, tmpDir, []string{
		"src/component.test.tsx",
		"src/utils/helper.spec.ts",
		"readme.md",
		"node_modules/lib/index.test.js",
	})

	rootNode, err := Walk(tmpDir, nil)
	if err != nil {
		t.Fatalf("Walk failed: %v", err)
	}

	if rootNode.Name != filepath.Base(tmpDir) {
		t.Errorf("expected root name %s, got %s", filepath.Base(tmpDir), rootNode.Name)
	}

	if got := countFiles(rootNode); got != 2 {
		t.Errorf("expected 2 test files in tree, got %d", got)
	}

	if len(rootNode.Children) != 1 || rootNode.Children[0].Name != "src" {
		t.Fatalf("expected single src directory, got %+v", rootNode.Children)
	}
	src := rootNode.Children[0]
	if len(src.Children) != 2 {
		t.Fatalf("expected 2 children under src, got %d", len(src.Children))
	}
	if !src.Children[0].IsDir || src.Children[0].Name != "utils" {
		t.Errorf("expected directories before files, got %s first", src.Children[0].Name)
	}
	if src.Children[1].Parent != src {
		t.Error("expected parent back-reference to be set")
	}
}

func TestWalk_CustomPatterns(t *testing.T) {
	tmpDir := t.TempDir()
	writeFiles(t, tmpDir, []string{
		"pkg/tree/suite_test.go",
		"pkg/tree/suite.go",
		"web/app.test.ts",
	})

	rootNode, err := Walk(tmpDir, []string{"pkg/**/*_test.go"})
	if err != nil {
		t.Fatalf("Walk failed: %v", err)
	}

	if got := countFiles(rootNode); got != 1 {
		t.Errorf("expected 1 matching file, got %d", got)
	}
}

func TestWalk_MissingRoot(t *testing.T) {
	if _, err := Walk(filepath.Join(t.TempDir(), "missing"), nil); err == nil {
		t.Error("expected error for missing root")
	}
}
