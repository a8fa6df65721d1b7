package engine

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/jesspatton/testexplorer/runner"
	"github.com/jesspatton/testexplorer/tree"
)

// setupWorkspace creates a project with two test files and a source file:
//
//	tmp
//	├── package.json
//	├── .testexplorer.json
//	├── a.test.js
//	└── src
//	    ├── b.test.js   requires ./util
//	    ├── util.js
//	    └── fixture.json
func setupWorkspace(t *testing.T, command string) string {
	t.Helper()
	tmpDir := t.TempDir()
	files := map[string]string{
		"package.json":       "{}",
		".testexplorer.json": `{"command": "` + command + `"}`,
		"a.test.js":          "test",
		"src/b.test.js":      "const util = require('./util');",
		"src/util.js":        "module.exports = {}",
		"src/fixture.json":   "{}",
	}
	for name, content := range files {
		path := filepath.Join(tmpDir, name)
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}
	return tmpDir
}

func loadedEngine(t *testing.T, command string) (*Engine, string) {
	t.Helper()
	root := setupWorkspace(t, command)
	e := New(Options{Root: root})
	if err := e.Load(); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if err := e.Graph.Build(root); err != nil {
		t.Fatalf("Graph build failed: %v", err)
	}
	return e, root
}

// pump feeds runner updates back into the engine until it is idle.
func pump(t *testing.T, e *Engine) {
	t.Helper()
	timeout := time.After(5 * time.Second)
	for !e.State.Idle() {
		select {
		case update := <-e.runner.Updates:
			e.Update(update)
		case <-timeout:
			t.Fatal("Timed out waiting for run to finish")
		}
	}
}

func testNode(t *testing.T, e *Engine, path string) *tree.TestNode {
	t.Helper()
	n, ok := e.Collection.Node(path)
	if !ok {
		t.Fatalf("node %s not found", path)
	}
	tn, ok := n.(*tree.TestNode)
	if !ok {
		t.Fatalf("node %s is not a test", path)
	}
	return tn
}

func TestNewEngine(t *testing.T) {
	tmpDir := t.TempDir()
	e := New(Options{Root: tmpDir})

	if e.State.RootPath != tmpDir {
		t.Errorf("Expected RootPath %s, got %s", tmpDir, e.State.RootPath)
	}
	if e.runner == nil {
		t.Error("Expected runner to be initialized")
	}
	if e.Collection == nil {
		t.Error("Expected collection to be initialized")
	}
	if e.opts.Workspace != filepath.Base(tmpDir) {
		t.Errorf("Expected workspace to default to the root name, got %s", e.opts.Workspace)
	}
	if !e.State.Idle() {
		t.Error("Expected a new engine to be idle")
	}
}

func TestLoadWalksWorkspace(t *testing.T) {
	e, root := loadedEngine(t, "echo test run")

	// root, src, src/b.test.js, a.test.js
	if e.Collection.Len() != 4 {
		t.Errorf("Expected 4 nodes, got %d", e.Collection.Len())
	}
	if e.Collection.Root().ID() != root {
		t.Errorf("Expected root id %s, got %s", root, e.Collection.Root().ID())
	}
	if _, ok := e.Collection.Node(filepath.Join(root, "src", "util.js")); ok {
		t.Error("Source files should not become tests")
	}
}

func TestLoadTestsFile(t *testing.T) {
	root := setupWorkspace(t, "echo test run")
	testsFile := filepath.Join(root, "tests.yaml")
	desc := `id: all
label: All
children:
  - id: a
    label: a works
    file: a.test.js
  - id: skipped
    label: later
    skipped: true
`
	if err := os.WriteFile(testsFile, []byte(desc), 0644); err != nil {
		t.Fatal(err)
	}

	e := New(Options{Root: root, TestsFile: testsFile})
	if err := e.Load(); err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	a := testNode(t, e, "a")
	if a.FileURI() != tree.NormalizeFilename(filepath.Join(root, "a.test.js")) {
		t.Errorf("Expected file resolved against the tests file, got %s", a.FileURI())
	}
	if !e.needsReload(testsFile) {
		t.Error("Expected a change to the tests file to trigger a reload")
	}
	if e.needsReload(filepath.Join(root, "src", "util.js")) {
		t.Error("Did not expect a source change to trigger a reload")
	}

	e.Run("all")
	pump(t, e)

	if got := testNode(t, e, "skipped").State().Current; got != tree.StateSkipped {
		t.Errorf("Expected skipped test to stay skipped, got %s", got)
	}
	if got := a.State().Current; got != tree.StatePassed {
		t.Errorf("Expected a to pass, got %s", got)
	}
}

func TestLoadError(t *testing.T) {
	root := t.TempDir()
	e := New(Options{Root: root, TestsFile: filepath.Join(root, "missing.json")})

	if err := e.Load(); err == nil {
		t.Fatal("Expected error for a missing tests file")
	}
	if e.State.LoadErr == nil {
		t.Error("Expected LoadErr to be recorded")
	}

	msg := e.RefreshTree()
	loaded, ok := msg.(TreeLoadedMsg)
	if !ok || loaded.Err == nil {
		t.Fatalf("Expected TreeLoadedMsg with error, got %#v", msg)
	}
}

func TestRunPasses(t *testing.T) {
	e, root := loadedEngine(t, "echo test run <path>")

	e.Run(root)

	if e.State.Idle() {
		t.Fatal("Expected a test to be running")
	}
	if e.State.RunID == "" {
		t.Error("Expected a run id")
	}
	if len(e.State.Queue) != 1 {
		t.Errorf("Expected one test queued, got %v", e.State.Queue)
	}

	pump(t, e)

	for _, rel := range []string{"a.test.js", filepath.Join("src", "b.test.js")} {
		n := testNode(t, e, filepath.Join(root, rel))
		if n.State().Current != tree.StatePassed || n.State().Previous != tree.PreviousPassed {
			t.Errorf("%s: expected passed, got %+v", rel, n.State())
		}
		if !strings.Contains(n.Log(), "test run") || !strings.Contains(n.Log(), "PASS") {
			t.Errorf("%s: unexpected log %q", rel, n.Log())
		}
		if !strings.HasSuffix(n.Description(), "s") {
			t.Errorf("%s: expected elapsed time description, got %q", rel, n.Description())
		}
	}

	e.Changed()
	if got := e.Collection.Root().State().Current; got != tree.StatePassed {
		t.Errorf("Expected root passed, got %s", got)
	}
	if got := e.Collection.Root().Description(); got != "2/2 passed" {
		t.Errorf("Expected suite summary, got %q", got)
	}
}

func TestRunFails(t *testing.T) {
	e, root := loadedEngine(t, "false <path>")
	a := filepath.Join(root, "a.test.js")

	e.Run(a)
	pump(t, e)

	n := testNode(t, e, a)
	if n.State().Current != tree.StateFailed {
		t.Errorf("Expected failed, got %s", n.State().Current)
	}
	if !strings.Contains(n.Log(), "FAIL") {
		t.Errorf("Expected FAIL in log, got %q", n.Log())
	}

	other := testNode(t, e, filepath.Join(root, "src", "b.test.js"))
	if other.State().Current != tree.StatePending {
		t.Errorf("Expected untouched test to stay pending, got %s", other.State().Current)
	}
}

func TestRunErrored(t *testing.T) {
	e, root := loadedEngine(t, "testexplorer-missing-binary <path>")
	a := filepath.Join(root, "a.test.js")

	e.Run(a)
	pump(t, e)

	if got := testNode(t, e, a).State().Current; got != tree.StateErrored {
		t.Errorf("Expected errored, got %s", got)
	}
}

func TestRerunClearsLog(t *testing.T) {
	e, root := loadedEngine(t, "echo once")
	a := filepath.Join(root, "a.test.js")

	e.Run(a)
	pump(t, e)
	e.ReRunLast()
	pump(t, e)

	if got := strings.Count(testNode(t, e, a).Log(), "PASS"); got != 1 {
		t.Errorf("Expected the log of a single run, found %d results", got)
	}
}

func TestCancel(t *testing.T) {
	e, root := loadedEngine(t, "sleep 5")

	e.Run(root)
	running := e.State.Running
	if running == "" {
		t.Fatal("Expected a running test")
	}

	e.Cancel()

	if !e.State.Idle() || len(e.State.Queue) != 0 {
		t.Fatalf("Expected idle engine, got running=%q queue=%v", e.State.Running, e.State.Queue)
	}
	for _, rel := range []string{"a.test.js", filepath.Join("src", "b.test.js")} {
		if got := testNode(t, e, filepath.Join(root, rel)).State().Current; got != tree.StatePending {
			t.Errorf("%s: expected pending after cancel, got %s", rel, got)
		}
	}

	// The killed job still reports; it must not touch the tree.
	timeout := time.After(3 * time.Second)
	for {
		select {
		case update := <-e.runner.Updates:
			e.Update(update)
			if _, ok := update.(runner.StatusUpdate); ok {
				if got := testNode(t, e, running).State().Current; got != tree.StatePending {
					t.Errorf("Expected stale status to be ignored, got %s", got)
				}
				return
			}
		case <-timeout:
			t.Fatal("Timed out waiting for killed job")
		}
	}
}

func TestToggleAutorunAndReset(t *testing.T) {
	e, root := loadedEngine(t, "echo ok")
	src := filepath.Join(root, "src")
	b := filepath.Join(src, "b.test.js")

	e.ToggleAutorun(src)
	if !testNode(t, e, b).State().Autorun {
		t.Fatal("Expected autorun to reach the test")
	}
	e.Changed()
	if !e.Collection.Root().State().Autorun {
		t.Error("Expected root to report autorun")
	}

	e.ToggleAutorun(src)
	if testNode(t, e, b).State().Autorun {
		t.Error("Expected autorun to be toggled off")
	}

	e.Run(b)
	pump(t, e)
	e.Reset()

	n := testNode(t, e, b)
	if n.State().Current != tree.StatePending || n.State().Previous != tree.PreviousPending {
		t.Errorf("Expected reset state, got %+v", n.State())
	}
	if n.Log() != "" {
		t.Errorf("Expected empty log after reset, got %q", n.Log())
	}
}

func TestWatcherRunsAutorunTests(t *testing.T) {
	e, root := loadedEngine(t, "echo watched <path>")
	a := filepath.Join(root, "a.test.js")
	b := filepath.Join(root, "src", "b.test.js")

	e.ToggleAutorun(b)

	// A change to a file without autorun tests runs nothing.
	e.Update(WatcherMsg(a))
	if !e.State.Idle() {
		t.Fatal("Did not expect a run for a test without autorun")
	}

	// A module imported by an autorun test runs it.
	e.Update(WatcherMsg(filepath.Join(root, "src", "util.js")))
	if e.State.Running != b {
		t.Fatalf("Expected %s to run, got %q", b, e.State.Running)
	}
	pump(t, e)

	if got := testNode(t, e, b).State().Current; got != tree.StatePassed {
		t.Errorf("Expected autorun test to pass, got %s", got)
	}
	if got := testNode(t, e, a).State().Current; got != tree.StatePending {
		t.Errorf("Expected other test to stay pending, got %s", got)
	}
}

func TestChangedFilesMsg(t *testing.T) {
	e, root := loadedEngine(t, "echo changed")
	a := filepath.Join(root, "a.test.js")

	e.Update(ChangedFilesMsg{Paths: []string{a, filepath.Join(root, "README.md")}})
	if e.State.Running != a {
		t.Fatalf("Expected %s to run, got %q", a, e.State.Running)
	}
	pump(t, e)

	if got := testNode(t, e, a).State().Current; got != tree.StatePassed {
		t.Errorf("Expected passed, got %s", got)
	}
}

func TestRelatedTests(t *testing.T) {
	e, root := loadedEngine(t, "echo")

	b := filepath.Join(root, "src", "b.test.js")

	got := e.relatedTests(filepath.Join(root, "src", "util.js"), false)
	if len(got) != 1 || got[0].ID() != b {
		t.Errorf("Expected the importing test, got %v", testIDs(got))
	}

	got = e.relatedTests(filepath.Join(root, "src", "fixture.json"), false)
	if len(got) != 1 || got[0].ID() != b {
		t.Errorf("Expected the sibling test, got %v", testIDs(got))
	}

	// A module nothing imports affects no tests, even next to one.
	writeSource := filepath.Join(root, "src", "other.js")
	if err := os.WriteFile(writeSource, []byte(""), 0644); err != nil {
		t.Fatal(err)
	}
	e.Graph.Update(writeSource)
	if got := e.relatedTests(writeSource, false); len(got) != 0 {
		t.Errorf("Expected no tests for an unused module, got %v", testIDs(got))
	}

	got = e.relatedTests(filepath.Join(root, "a.test.js"), false)
	if len(got) != 1 || got[0].ID() != filepath.Join(root, "a.test.js") {
		t.Errorf("Expected the test itself, got %v", testIDs(got))
	}

	if got := e.relatedTests(filepath.Join(root, "a.test.js"), true); len(got) != 0 {
		t.Errorf("Expected no autorun tests, got %v", testIDs(got))
	}
}

func TestNeedsReloadWalkMode(t *testing.T) {
	e, root := loadedEngine(t, "echo")

	if !e.needsReload(filepath.Join(root, "src", "c.test.js")) {
		t.Error("Expected a new test file to trigger a reload")
	}
	if e.needsReload(filepath.Join(root, "src", "util.js")) {
		t.Error("Did not expect a source file to trigger a reload")
	}

	if err := os.WriteFile(filepath.Join(root, ".testexplorer.json"), []byte(`{"command": "echo new"}`), 0644); err != nil {
		t.Fatal(err)
	}
	if !e.needsReload(filepath.Join(root, ".testexplorer.json")) {
		t.Error("Expected a config change to trigger a reload")
	}
	if e.config.Command != "echo new" {
		t.Errorf("Expected config to be reloaded, got %q", e.config.Command)
	}
}
