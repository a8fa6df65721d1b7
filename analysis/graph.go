package analysis

import (
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/jesspatton/testexplorer/filesystem"
	"github.com/jesspatton/testexplorer/logging"
	"github.com/rs/zerolog"
)

// Graph is the import graph of a workspace. It answers which files are
// affected when a file changes. Safe for concurrent use.
type Graph struct {
	// forward: file -> its resolved imports
	forward map[string][]Dependency
	// reverse: file -> files importing it
	reverse map[string]map[string]struct{}
	// pending: absolute import path without extension -> importing files
	pending map[string]map[string]struct{}

	parser *Parser
	log    zerolog.Logger
	mu     sync.RWMutex
}

// NewGraph creates an empty graph.
func NewGraph() *Graph {
	return &Graph{
		forward: make(map[string][]Dependency),
		reverse: make(map[string]map[string]struct{}),
		pending: make(map[string]map[string]struct{}),
		parser:  NewParser(),
		log:     logging.For("analysis"),
	}
}

// Build parses every source file below root. gitignored files are skipped.
func (g *Graph) Build(root string) error {
	if _, err := os.Stat(root); err != nil {
		return err
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	files := 0
	for f := range filesystem.StreamFiles(root, Extensions()...) {
		g.processFile(f.Location)
		files++
	}
	g.log.Debug().Str("root", root).Int("files", files).Msg("import graph built")
	return nil
}

// Update re-parses path after a change. A deleted file is dropped and its
// importers wait for it to reappear.
func (g *Graph) Update(path string) {
	if !IsSourceFile(path) {
		return
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	g.dropForward(path)

	if _, err := os.Stat(path); err != nil {
		base := strings.TrimSuffix(path, filepath.Ext(path))
		for dependent := range g.reverse[path] {
			addEdge(g.pending, base, dependent)
		}
		delete(g.reverse, path)
		return
	}

	g.processFile(path)
	g.resolvePending(path)
}

// GetDependents returns every file that imports path, directly or
// transitively, in breadth-first order.
func (g *Graph) GetDependents(path string) []string {
	g.mu.RLock()
	defer g.mu.RUnlock()

	visited := map[string]bool{path: true}
	var dependents []string

	queue := []string{path}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		for dep := range g.reverse[current] {
			if !visited[dep] {
				visited[dep] = true
				dependents = append(dependents, dep)
				queue = append(queue, dep)
			}
		}
	}
	return dependents
}

// GetDependencyType reports how file imports dependency. It is DepRegular
// for files that do not import it at all.
func (g *Graph) GetDependencyType(file, dependency string) DepKind {
	g.mu.RLock()
	defer g.mu.RUnlock()

	for _, d := range g.forward[file] {
		if d.Path == dependency {
			return d.Kind
		}
	}
	return DepRegular
}

// Pending reports whether some file imports importPath (absolute, without
// extension) that does not exist yet.
func (g *Graph) Pending(importPath string) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.pending[importPath]) > 0
}

func (g *Graph) processFile(path string) {
	result, err := g.parser.ParseImports(path)
	if err != nil {
		g.log.Debug().Err(err).Str("file", path).Msg("skipping file")
		return
	}

	g.forward[path] = result.Resolved
	for _, dep := range result.Resolved {
		addEdge(g.reverse, dep.Path, path)
	}
	for _, unresolved := range result.Unresolved {
		addEdge(g.pending, unresolved, path)
	}
}

func (g *Graph) dropForward(path string) {
	for _, dep := range g.forward[path] {
		removeEdge(g.reverse, dep.Path, path)
	}
	delete(g.forward, path)
	for importPath := range g.pending {
		removeEdge(g.pending, importPath, path)
	}
}

// resolvePending links files waiting for an import that path now satisfies.
func (g *Graph) resolvePending(path string) {
	lang, ok := languageOf(path)
	if !ok {
		return
	}
	for importPath, dependents := range g.pending {
		rest, ok := strings.CutPrefix(path, importPath)
		if !ok || !hasSuffix(lang.suffix, filepath.ToSlash(rest)) {
			continue
		}
		for dependent := range dependents {
			addEdge(g.reverse, path, dependent)
			g.forward[dependent] = append(g.forward[dependent], Dependency{Path: path, Kind: DepRegular})
		}
		delete(g.pending, importPath)
	}
}

func hasSuffix(suffixes []string, rest string) bool {
	for _, s := range suffixes {
		if s != "" && s == rest {
			return true
		}
	}
	return false
}

func addEdge(m map[string]map[string]struct{}, from, to string) {
	set, ok := m[from]
	if !ok {
		set = make(map[string]struct{})
		m[from] = set
	}
	set[to] = struct{}{}
}

func removeEdge(m map[string]map[string]struct{}, from, to string) {
	set, ok := m[from]
	if !ok {
		return
	}
	delete(set, to)
	if len(set) == 0 {
		delete(m, from)
	}
}
