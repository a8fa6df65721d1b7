package filesystem

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

var defaultIgnorePatterns = []string{
	"node_modules",
	".git",
	"vendor",
	"dist",
	"build",
	"coverage",
	"__pycache__",
	".DS_Store",
	"*.log",
}

// Ignorer decides which paths the walker and watcher skip: built-in patterns
// plus anything listed in .gitignore or .testexplorerignore at the root.
type Ignorer struct {
	patterns []string
}

// NewIgnorer creates a new Ignorer and loads the ignore files found in root.
func NewIgnorer(root string) *Ignorer {
	ign := &Ignorer{patterns: append([]string(nil), defaultIgnorePatterns...)}
	for _, name := range []string{".gitignore", ".testexplorerignore"} {
		ign.patterns = append(ign.patterns, readIgnoreFile(filepath.Join(root, name))...)
	}
	return ign
}

func readIgnoreFile(path string) []string {
	f, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer f.Close()

	var patterns []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		patterns = append(patterns, line)
	}
	return patterns
}

// ShouldIgnore reports whether path, relative to root, matches an ignore
// pattern. Patterns follow .gitignore rules: one containing a slash before
// its end is anchored at root, others match at any depth, and a match on a
// directory covers everything below it.
func (i *Ignorer) ShouldIgnore(path string, root string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		rel = filepath.Base(path)
	}
	rel = filepath.ToSlash(rel)

	for _, p := range i.patterns {
		p = strings.TrimSuffix(p, "/")
		if p == "" {
			continue
		}
		if strings.Contains(p, "/") {
			p = strings.TrimPrefix(p, "/")
		} else {
			p = "**/" + p
		}
		if matchIgnore(p, rel) || matchIgnore(p+"/**", rel) {
			return true
		}
	}
	return false
}

func matchIgnore(pattern, rel string) bool {
	ok, err := doublestar.Match(pattern, rel)
	return err == nil && ok
}
