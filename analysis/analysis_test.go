package analysis

import (
	"os"
	"path/filepath"
	"sort"
	"testing"
)

func writeFiles(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		path := filepath.Join(root, name)
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}
}

func buildGraph(t *testing.T, root string) *Graph {
	t.Helper()
	g := NewGraph()
	if err := g.Build(root); err != nil {
		t.Fatalf("Failed to build graph: %v", err)
	}
	return g
}

func assertPaths(t *testing.T, got []string, want ...string) {
	t.Helper()
	sort.Strings(got)
	sort.Strings(want)
	if len(got) != len(want) {
		t.Fatalf("Expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Expected %s, got %s", want[i], got[i])
		}
	}
}

func TestGraph(t *testing.T) {
	tmpDir := t.TempDir()
	writeFiles(t, tmpDir, map[string]string{
		"utils.ts":          "export const foo = 'bar';",
		"component.ts":      "import { foo } from './utils';",
		"utils.test.ts":     "import { foo } from './utils';",
		"component.test.ts": "import { Component } from './component';",
	})

	g := buildGraph(t, tmpDir)

	// component.test.ts depends on utils.ts through component.ts
	assertPaths(t, g.GetDependents(filepath.Join(tmpDir, "utils.ts")),
		filepath.Join(tmpDir, "component.ts"),
		filepath.Join(tmpDir, "utils.test.ts"),
		filepath.Join(tmpDir, "component.test.ts"),
	)
}

func TestGraph_RelativeImports(t *testing.T) {
	// src/app.tsx
	// test/app.test.tsx imports ../src/app
	tmpDir := t.TempDir()
	writeFiles(t, tmpDir, map[string]string{
		"src/app.tsx":       "export const App = () => {};",
		"src/lib/index.ts":  "export const lib = 1;",
		"test/app.test.tsx": "import App from '../src/app';\nimport { lib } from '../src/lib';",
	})

	g := buildGraph(t, tmpDir)

	test := filepath.Join(tmpDir, "test", "app.test.tsx")
	assertPaths(t, g.GetDependents(filepath.Join(tmpDir, "src", "app.tsx")), test)
	assertPaths(t, g.GetDependents(filepath.Join(tmpDir, "src", "lib", "index.ts")), test)
}

func TestGraph_CaseSensitivity(t *testing.T) {
	// src/App.tsx imported as ../src/app
	tmpDir := t.TempDir()
	writeFiles(t, tmpDir, map[string]string{
		"src/App.tsx":       "export const App = () => {};",
		"test/app.test.tsx": "import App from '../src/app';",
	})

	g := buildGraph(t, tmpDir)

	assertPaths(t, g.GetDependents(filepath.Join(tmpDir, "src", "App.tsx")),
		filepath.Join(tmpDir, "test", "app.test.tsx"))
}

func TestGraph_Update(t *testing.T) {
	tmpDir := t.TempDir()
	writeFiles(t, tmpDir, map[string]string{
		"a.ts": "export const a = 1;",
		"b.ts": "import { a } from './a';",
	})

	g := buildGraph(t, tmpDir)

	aPath := filepath.Join(tmpDir, "a.ts")
	bPath := filepath.Join(tmpDir, "b.ts")
	assertPaths(t, g.GetDependents(aPath), bPath)

	// 1. b.ts drops the import
	writeFiles(t, tmpDir, map[string]string{"b.ts": "export const b = 2;"})
	g.Update(bPath)
	assertPaths(t, g.GetDependents(aPath))

	// 2. and adds it back
	writeFiles(t, tmpDir, map[string]string{"b.ts": "import { a } from './a';"})
	g.Update(bPath)
	assertPaths(t, g.GetDependents(aPath), bPath)

	// 3. c.ts imports d.ts, which does not exist yet
	cPath := filepath.Join(tmpDir, "c.ts")
	writeFiles(t, tmpDir, map[string]string{"c.ts": "import { d } from './d';"})
	g.Update(cPath)
	if !g.Pending(filepath.Join(tmpDir, "d")) {
		t.Error("Expected ./d to be pending")
	}

	// 4. d.ts appears
	dPath := filepath.Join(tmpDir, "d.ts")
	writeFiles(t, tmpDir, map[string]string{"d.ts": "export const d = 3;"})
	g.Update(dPath)
	assertPaths(t, g.GetDependents(dPath), cPath)
	if g.Pending(filepath.Join(tmpDir, "d")) {
		t.Error("Expected ./d to be resolved")
	}

	// 5. a.ts is deleted: b.ts waits for it again
	if err := os.Remove(aPath); err != nil {
		t.Fatal(err)
	}
	g.Update(aPath)
	assertPaths(t, g.GetDependents(aPath))
	if !g.Pending(filepath.Join(tmpDir, "a")) {
		t.Error("Expected ./a to be pending after deletion")
	}
}

func TestGraph_MockedDependency(t *testing.T) {
	tmpDir := t.TempDir()
	writeFiles(t, tmpDir, map[string]string{
		"utils.ts":        "export const foo = 'bar';",
		"real.test.ts":    "import { foo } from './utils';",
		"mocked.test.ts":  "import { foo } from './utils';\njest.mock('./utils');",
		"domock.test.ts":  "import { foo } from './utils';\njest.doMock('./utils', () => {});",
		"setmock.test.ts": "import { foo } from './utils';\njest.setMock('./utils', {});",
	})

	g := buildGraph(t, tmpDir)

	utilsPath := filepath.Join(tmpDir, "utils.ts")
	assertPaths(t, g.GetDependents(utilsPath),
		filepath.Join(tmpDir, "real.test.ts"),
		filepath.Join(tmpDir, "mocked.test.ts"),
		filepath.Join(tmpDir, "domock.test.ts"),
		filepath.Join(tmpDir, "setmock.test.ts"),
	)

	if g.GetDependencyType(filepath.Join(tmpDir, "real.test.ts"), utilsPath) != DepRegular {
		t.Error("Expected real.test.ts to have regular dependency on utils.ts")
	}
	for _, name := range []string{"mocked.test.ts", "domock.test.ts", "setmock.test.ts"} {
		if g.GetDependencyType(filepath.Join(tmpDir, name), utilsPath) != DepMocked {
			t.Errorf("Expected %s to have mocked dependency on utils.ts", name)
		}
	}
}

func TestGraph_Python(t *testing.T) {
	tmpDir := t.TempDir()
	writeFiles(t, tmpDir, map[string]string{
		"pkg/__init__.py":        "",
		"pkg/calc.py":            "def add(a, b): return a + b",
		"pkg/tests/test_calc.py": "from ..calc import add\n",
		"pkg/tests/test_pkg.py":  "from .. import calc\n",
	})

	g := buildGraph(t, tmpDir)

	assertPaths(t, g.GetDependents(filepath.Join(tmpDir, "pkg", "calc.py")),
		filepath.Join(tmpDir, "pkg", "tests", "test_calc.py"),
		filepath.Join(tmpDir, "pkg", "tests", "test_pkg.py"),
	)
}

func TestParser_Formats(t *testing.T) {
	tmpDir := t.TempDir()
	writeFiles(t, tmpDir, map[string]string{
		"test.ts": `
	import { a } from './a';
	import b from "./b";
	import './c';
	const d = require('./d');
	const e = await import('./e');
	import React from 'react';
	`,
		"a.ts": "", "b.ts": "", "c.ts": "", "d.js": "", "e.jsx": "",
	})

	result, err := NewParser().ParseImports(filepath.Join(tmpDir, "test.ts"))
	if err != nil {
		t.Fatalf("ParseImports failed: %v", err)
	}

	var got []string
	for _, res := range result.Resolved {
		got = append(got, res.Path)
	}
	assertPaths(t, got,
		filepath.Join(tmpDir, "a.ts"),
		filepath.Join(tmpDir, "b.ts"),
		filepath.Join(tmpDir, "c.ts"),
		filepath.Join(tmpDir, "d.js"),
		filepath.Join(tmpDir, "e.jsx"),
	)
	if len(result.Unresolved) != 0 {
		t.Errorf("Expected package imports to be ignored, got %v", result.Unresolved)
	}
}

func TestParser_MultiLineImport(t *testing.T) {
	tmpDir := t.TempDir()
	writeFiles(t, tmpDir, map[string]string{
		"test.ts":  "\nimport {\n  foo\n} from './utils';\n",
		"utils.ts": "",
	})

	result, err := NewParser().ParseImports(filepath.Join(tmpDir, "test.ts"))
	if err != nil {
		t.Fatal(err)
	}
	if len(result.Resolved) != 1 {
		t.Errorf("Failed to parse multi-line import, got %v", result.Resolved)
	}
}

func TestParser_UnknownLanguage(t *testing.T) {
	tmpDir := t.TempDir()
	writeFiles(t, tmpDir, map[string]string{"main.go": "package main"})

	result, err := NewParser().ParseImports(filepath.Join(tmpDir, "main.go"))
	if err != nil {
		t.Fatal(err)
	}
	if len(result.Resolved) != 0 || len(result.Unresolved) != 0 {
		t.Errorf("Expected nothing for an unknown language, got %+v", result)
	}
	if IsSourceFile("main.go") {
		t.Error("Go files are not analysed")
	}
}
