package engine

import (
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"
	"github.com/jesspatton/testexplorer/adapter"
	"github.com/jesspatton/testexplorer/analysis"
	"github.com/jesspatton/testexplorer/filesystem"
	"github.com/jesspatton/testexplorer/logging"
	"github.com/jesspatton/testexplorer/runner"
	"github.com/jesspatton/testexplorer/tree"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// Messages

// WatcherMsg indicates a file system event occurred.
type WatcherMsg string

// TreeLoadedMsg carries a freshly loaded description.
type TreeLoadedMsg struct {
	Info *adapter.SuiteInfo
	Err  error
}

// WatcherReadyMsg carries the initialized watcher.
type WatcherReadyMsg struct {
	watcher *filesystem.Watcher
}

// ChangedFilesMsg carries the files git reports as modified.
type ChangedFilesMsg struct {
	Paths []string
	Err   error
}

// Options configure an Engine.
type Options struct {
	// Root is the workspace directory.
	Root string
	// TestsFile is an adapter description (JSON or YAML). When empty the
	// tree is built by walking Root for test files.
	TestsFile      string
	Workspace      string
	MultiWorkspace bool
	Icons          tree.IconTable
	Decorator      tree.Decorator
}

// Engine manages the tree, the runner and the watcher. Like the tree it is
// driven from the Bubble Tea event loop only.
type Engine struct {
	State      State
	Collection *tree.Collection
	Graph      *analysis.Graph

	opts    Options
	config  runner.Config
	runner  *runner.Runner
	watcher *filesystem.Watcher
	started time.Time
	log     zerolog.Logger
}

// New creates a new Engine instance.
func New(opts Options) *Engine {
	if opts.Workspace == "" {
		opts.Workspace = filepath.Base(opts.Root)
	}

	baseDir := opts.Root
	if opts.TestsFile != "" {
		baseDir = filepath.Dir(opts.TestsFile)
	}

	return &Engine{
		State: NewState(opts.Root),
		Collection: tree.NewCollection(tree.Options{
			Workspace:      opts.Workspace,
			MultiWorkspace: opts.MultiWorkspace,
			BaseDir:        baseDir,
			Icons:          opts.Icons,
			Decorator:      opts.Decorator,
		}),
		Graph:  analysis.NewGraph(),
		opts:   opts,
		config: runner.LoadConfig(opts.Root),
		runner: runner.NewRunner(),
		log:    logging.For("engine"),
	}
}

// Init initializes the engine's side effects.
func (e *Engine) Init() tea.Cmd {
	return tea.Batch(
		e.RefreshTree,
		e.startWatcher,
		e.buildGraph,
		e.waitForUpdates,
	)
}

// Update handles incoming messages and updates the engine state.
func (e *Engine) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case WatcherReadyMsg:
		e.watcher = msg.watcher
		return e.waitForWatcherEvents

	case WatcherMsg:
		path := string(msg)
		e.log.Debug().Str("path", path).Msg("file changed")

		var reload tea.Cmd
		if e.needsReload(path) {
			reload = e.RefreshTree
		}
		e.Graph.Update(path)
		e.enqueue(e.relatedTests(path, true))

		return tea.Batch(reload, e.waitForWatcherEvents)

	case TreeLoadedMsg:
		e.State.LoadErr = msg.Err
		if msg.Err != nil {
			e.log.Error().Err(msg.Err).Msg("cannot load tests")
			return nil
		}
		e.Collection.Load(msg.Info)
		return nil

	case ChangedFilesMsg:
		if msg.Err != nil {
			e.log.Warn().Err(msg.Err).Msg("cannot list changed files")
			return nil
		}
		seen := make(map[string]struct{})
		var tests []*tree.TestNode
		for _, p := range msg.Paths {
			for _, t := range e.relatedTests(p, false) {
				if _, dup := seen[t.ID()]; !dup {
					seen[t.ID()] = struct{}{}
					tests = append(tests, t)
				}
			}
		}
		e.start(tests, testIDs(tests)...)
		return nil

	case runner.OutputUpdate:
		if msg.JobID == e.State.JobID {
			e.State.CurrentOutput += msg.Line + "\n"
		}
		return e.waitForUpdates

	case runner.StatusUpdate:
		if msg.JobID == e.State.JobID {
			e.finish(msg.Err)
			e.next()
		}
		return e.waitForUpdates
	}

	return nil
}

// Actions

// Run runs every test at or below the node with the given id. A run in
// progress is cancelled first.
func (e *Engine) Run(id string) {
	n, ok := e.Collection.Node(id)
	if !ok {
		return
	}
	e.State.LastRun = id
	e.start(e.Collection.Tests(id), id)

	if _, ok := n.(*tree.SuiteNode); ok && !e.State.Idle() {
		e.State.Suite = id
		e.Collection.Apply(adapter.SuiteEvent{Suite: id, State: adapter.SuiteRunning})
	}
}

// ReRunLast repeats the last explicit run.
func (e *Engine) ReRunLast() {
	if e.State.LastRun != "" {
		e.Run(e.State.LastRun)
	}
}

// RunChanged runs the tests related to the files git reports as changed.
func (e *Engine) RunChanged() tea.Cmd {
	root := e.State.RootPath
	return func() tea.Msg {
		paths, err := filesystem.GetChangedFiles(root)
		return ChangedFilesMsg{Paths: paths, Err: err}
	}
}

// Cancel stops the running test and drops the queue. Tests that were
// scheduled or running go back to pending.
func (e *Engine) Cancel() {
	if e.State.Idle() && len(e.State.Queue) == 0 {
		return
	}
	e.log.Info().Str("run", e.State.RunID).Msg("run cancelled")
	e.runner.Kill()
	e.State.Suite = ""
	e.State.Queue = e.State.Queue[:0]
	e.State.Running = ""
	e.State.JobID = ""
	e.Collection.CancelRun()
}

// Reset cancels any run and forgets every result.
func (e *Engine) Reset() {
	e.Cancel()
	e.Collection.ResetState()
}

// ToggleAutorun flips autorun on the node with the given id and everything
// below it.
func (e *Engine) ToggleAutorun(id string) {
	n, ok := e.Collection.Node(id)
	if !ok {
		return
	}
	// suite aggregates are stale until recalculated
	e.Collection.Root().RecalcState()
	e.Collection.SetAutorun(!n.State().Autorun, id)
}

// Changed returns the nodes whose rows must be redrawn.
func (e *Engine) Changed() []tree.TreeNode {
	return e.Collection.Changed()
}

// RunnerUpdates exposes the runner's update stream for callers that drive
// the engine without a Bubble Tea program.
func (e *Engine) RunnerUpdates() <-chan runner.Update {
	return e.runner.Updates
}

// Load reads the description synchronously.
func (e *Engine) Load() error {
	info, err := e.loadInfo()
	e.State.LoadErr = err
	if err != nil {
		return err
	}
	e.Collection.Load(info)
	return nil
}

// Close stops the watcher and any running command.
func (e *Engine) Close() {
	e.runner.Close()
	if e.watcher != nil {
		e.watcher.Close()
	}
}

// Internal Commands

func (e *Engine) RefreshTree() tea.Msg {
	info, err := e.loadInfo()
	return TreeLoadedMsg{Info: info, Err: err}
}

func (e *Engine) loadInfo() (*adapter.SuiteInfo, error) {
	if e.opts.TestsFile != "" {
		return adapter.Load(e.opts.TestsFile)
	}
	root, err := filesystem.Walk(e.State.RootPath, e.config.Patterns)
	if err != nil {
		return nil, errors.Wrap(err, "walk workspace")
	}
	info := adapter.FromFileTree(root)
	return info, nil
}

func (e *Engine) buildGraph() tea.Msg {
	if err := e.Graph.Build(e.State.RootPath); err != nil {
		e.log.Warn().Err(err).Msg("import graph unavailable")
	}
	return nil
}

func (e *Engine) startWatcher() tea.Msg {
	w, err := filesystem.NewWatcher(e.State.RootPath)
	if err != nil {
		e.log.Warn().Err(err).Msg("file watching disabled")
		return nil
	}
	return WatcherReadyMsg{watcher: w}
}

func (e *Engine) waitForWatcherEvents() tea.Msg {
	if e.watcher == nil {
		return nil
	}
	eventPath, ok := <-e.watcher.Events
	if !ok {
		return nil
	}
	return WatcherMsg(eventPath)
}

func (e *Engine) waitForUpdates() tea.Msg {
	update, ok := <-e.runner.Updates
	if !ok {
		return nil
	}
	return update
}

// Run bookkeeping

// start begins a new run of tests after retiring the given subtrees.
func (e *Engine) start(tests []*tree.TestNode, retire ...string) {
	tests = runnable(tests)
	if len(tests) == 0 {
		return
	}
	e.Cancel()

	e.State.RunID = uuid.NewString()
	e.Collection.RetireState(retire...)
	for _, t := range tests {
		e.schedule(t)
	}
	e.log.Info().Str("run", e.State.RunID).Int("tests", len(tests)).Msg("run started")
	e.next()
}

// enqueue adds tests to the current run, or starts one when idle.
func (e *Engine) enqueue(tests []*tree.TestNode) {
	tests = runnable(tests)
	if len(tests) == 0 {
		return
	}
	if e.State.Idle() {
		e.start(tests, testIDs(tests)...)
		return
	}
	for _, t := range tests {
		if t.ID() == e.State.Running || e.State.queued(t.ID()) {
			continue
		}
		e.Collection.RetireState(t.ID())
		e.schedule(t)
	}
}

func (e *Engine) schedule(t *tree.TestNode) {
	e.Collection.Apply(adapter.TestEvent{Test: t.ID(), State: adapter.TestScheduled})
	e.State.Queue = append(e.State.Queue, t.ID())
}

// next starts the first queued test that can be prepared.
func (e *Engine) next() {
	for {
		id, ok := e.State.pop()
		if !ok {
			if e.State.RunID != "" {
				e.log.Info().Str("run", e.State.RunID).Msg("run finished")
			}
			e.State.Running = ""
			e.State.JobID = ""
			e.completeSuite()
			return
		}
		n, ok := e.Collection.Node(id)
		if !ok {
			continue
		}
		t, ok := n.(*tree.TestNode)
		if !ok {
			continue
		}

		job, err := runner.PrepareJob(t.ID(), e.testPath(t), t.Label())
		if err != nil {
			e.log.Warn().Err(err).Str("test", id).Msg("cannot prepare test")
			e.Collection.Apply(adapter.TestEvent{Test: id, State: adapter.TestErrored, Message: err.Error()})
			continue
		}

		e.State.Running = id
		e.State.JobID = job.ID
		e.State.CurrentOutput = ""
		e.started = time.Now()
		e.Collection.Apply(adapter.TestEvent{
			Test:    id,
			State:   adapter.TestRunning,
			Message: "$ " + strings.Join(append([]string{job.Command}, job.Args...), " "),
		})
		e.runner.Run(job)
		return
	}
}

// completeSuite summarizes a finished suite run in the suite's description.
func (e *Engine) completeSuite() {
	id := e.State.Suite
	if id == "" {
		return
	}
	e.State.Suite = ""

	tests := runnable(e.Collection.Tests(id))
	passed := 0
	for _, t := range tests {
		if t.State().Current == tree.StatePassed {
			passed++
		}
	}
	summary := fmt.Sprintf("%d/%d passed", passed, len(tests))
	e.Collection.Apply(adapter.SuiteEvent{Suite: id, State: adapter.SuiteCompleted, Description: &summary})
}

// finish reports the result of the running test.
func (e *Engine) finish(err error) {
	state := adapter.TestPassed
	verdict := "PASS"

	var exitErr *exec.ExitError
	switch {
	case err == nil:
	case errors.As(err, &exitErr):
		state = adapter.TestFailed
		verdict = fmt.Sprintf("FAIL: %v", err)
	default:
		state = adapter.TestErrored
		verdict = fmt.Sprintf("ERROR: %v", err)
	}

	elapsed := fmt.Sprintf("%.1fs", time.Since(e.started).Seconds())
	e.Collection.Apply(adapter.TestEvent{
		Test:        e.State.Running,
		State:       state,
		Message:     e.State.CurrentOutput + "\n" + verdict,
		Description: &elapsed,
	})
	e.log.Debug().Str("test", e.State.Running).Str("state", string(state)).Str("elapsed", elapsed).Msg("test finished")

	e.State.Running = ""
	e.State.JobID = ""
	e.State.CurrentOutput = ""
}

// testPath is the file handed to the command template: the test's own file,
// the nearest suite file, or the id resolved against the workspace.
func (e *Engine) testPath(t *tree.TestNode) string {
	if t.FileURI() != "" {
		return filepath.FromSlash(t.FileURI())
	}
	for p := t.Parent(); p != nil; p = p.Parent() {
		if p.FileURI() != "" {
			return filepath.FromSlash(p.FileURI())
		}
	}
	return filepath.Join(e.State.RootPath, t.ID())
}

// relatedTests returns the tests a change to path affects: tests in that
// file, every test below a suite declared in it, and tests in files that
// import it. For files whose imports cannot be analysed the tests next to it
// are used instead.
func (e *Engine) relatedTests(path string, autorunOnly bool) []*tree.TestNode {
	file := tree.NormalizeFilename(path)

	affected := map[string]bool{file: true}
	for _, dep := range e.Graph.GetDependents(path) {
		affected[tree.NormalizeFilename(dep)] = true
	}

	sibling := !filesystem.IsTestFile(path) && !analysis.IsSourceFile(path)
	dir := filepath.ToSlash(filepath.Dir(file))

	seen := make(map[string]struct{})
	var tests []*tree.TestNode
	add := func(t *tree.TestNode) {
		if autorunOnly && !t.State().Autorun {
			return
		}
		if _, dup := seen[t.ID()]; dup {
			return
		}
		seen[t.ID()] = struct{}{}
		tests = append(tests, t)
	}

	e.Collection.Walk(func(n tree.TreeNode) bool {
		switch n := n.(type) {
		case *tree.SuiteNode:
			if n.FileURI() != "" && affected[n.FileURI()] {
				for _, t := range e.Collection.Tests(n.ID()) {
					add(t)
				}
				return false
			}
		case *tree.TestNode:
			uri := n.FileURI()
			if affected[uri] || (sibling && uri != "" && filepath.ToSlash(filepath.Dir(uri)) == dir) {
				add(n)
			}
		}
		return true
	})
	return tests
}

func (e *Engine) needsReload(path string) bool {
	base := filepath.Base(path)
	if base == ".testexplorer.toml" || base == ".testexplorer.json" {
		e.config = runner.LoadConfig(e.State.RootPath)
		return true
	}
	if e.opts.TestsFile != "" {
		return tree.NormalizeFilename(path) == tree.NormalizeFilename(e.opts.TestsFile)
	}
	rel, err := filepath.Rel(e.State.RootPath, path)
	if err != nil {
		return false
	}
	patterns := e.config.Patterns
	if len(patterns) == 0 {
		patterns = filesystem.DefaultTestPatterns
	}
	return filesystem.MatchAny(patterns, rel)
}

func runnable(tests []*tree.TestNode) []*tree.TestNode {
	out := tests[:0:0]
	for _, t := range tests {
		if info, ok := t.Info().(*adapter.TestInfo); ok && info.Skipped {
			continue
		}
		out = append(out, t)
	}
	return out
}

func testIDs(tests []*tree.TestNode) []string {
	ids := make([]string, len(tests))
	for i, t := range tests {
		ids[i] = t.ID()
	}
	return ids
}
