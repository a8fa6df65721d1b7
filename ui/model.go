package ui

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/jesspatton/testexplorer/engine"
	"github.com/jesspatton/testexplorer/tree"
)

// Pane represents a distinct section of the UI.
type Pane int

const (
	// PaneExplorer is the test explorer pane.
	PaneExplorer Pane = iota
	// PaneOutput is the test output pane.
	PaneOutput
)

// LeftTab represents the active tab in the left pane.
type LeftTab int

const (
	// TabExplorer is the test tree tab.
	TabExplorer LeftTab = iota
	// TabAutorun lists the tests that run on file changes.
	TabAutorun
)

// Model represents the application state for the Bubbletea program.
type Model struct {
	// UI State
	activePane Pane
	width      int
	height     int
	ready      bool
	showHelp   bool
	cursor     int
	viewport   viewport.Model

	// Tab State
	activeTab     LeftTab
	autorunNodes  []tree.TreeNode
	autorunCursor int

	// Search State
	searchMode        bool
	searchFocus       bool
	searchInput       textinput.Model
	searchMatches     []int
	currentMatchIndex int

	// Components
	keys KeyMap
	help help.Model

	// Tree rendering state. items caches the last TreeItem of every node and
	// is only refreshed for the nodes the collection reports as changed.
	engine    *engine.Engine
	root      *tree.SuiteNode
	items     map[string]tree.TreeItem
	expanded  map[string]bool
	flatNodes []DisplayNode
	marks     *fileMarks
	output    string
}

// NewModel creates and initializes a new Model around e.
func NewModel(e *engine.Engine) Model {
	h := help.New()
	h.Styles.ShortKey = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#909090", Dark: "#A0A0A0"})
	h.Styles.ShortDesc = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#B0B0B0", Dark: "#808080"})
	h.Styles.ShortSeparator = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#D0D0D0", Dark: "#606060"})
	h.Styles.FullKey = h.Styles.ShortKey
	h.Styles.FullDesc = h.Styles.ShortDesc
	h.Styles.FullSeparator = h.Styles.ShortSeparator
	ti := textinput.New()
	ti.Placeholder = "Search..."
	ti.Prompt = "/"
	ti.CharLimit = 156
	ti.Width = 20

	m := Model{
		activePane:  PaneExplorer,
		engine:      e,
		items:       make(map[string]tree.TreeItem),
		expanded:    make(map[string]bool),
		keys:        NewKeyMap(),
		help:        h,
		searchInput: ti,
		marks:       newFileMarks(e.Collection),
	}
	e.Collection.SetDecorator(m.marks)
	m.sync()
	return m
}

// Init initializes the Bubbletea program.
func (m Model) Init() tea.Cmd {
	return m.engine.Init()
}

// Update handles incoming messages and updates the model state.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var (
		cmd  tea.Cmd
		cmds []tea.Cmd
	)

	switch msg := msg.(type) {
	case tea.KeyMsg:
		if !m.searchMode {
			switch {
			case key.Matches(msg, m.keys.Quit):
				m.engine.Close()
				return m, tea.Quit
			case key.Matches(msg, m.keys.Help):
				m.showHelp = !m.showHelp
				return m, nil
			case key.Matches(msg, m.keys.Tab):
				if m.activePane == PaneExplorer {
					m.activePane = PaneOutput
				} else {
					m.activePane = PaneExplorer
				}
				return m, nil
			case key.Matches(msg, m.keys.Refresh):
				return m, m.engine.RefreshTree
			case key.Matches(msg, m.keys.ReRunLast):
				m.engine.ReRunLast()
				m.sync()
				return m, nil
			case key.Matches(msg, m.keys.RunChanged):
				return m, m.engine.RunChanged()
			case key.Matches(msg, m.keys.Cancel):
				m.engine.Cancel()
				m.sync()
				return m, nil
			case key.Matches(msg, m.keys.Reset):
				m.engine.Reset()
				m.sync()
				return m, nil
			case key.Matches(msg, m.keys.NextTab), key.Matches(msg, m.keys.PrevTab):
				if m.activePane == PaneExplorer {
					if m.activeTab == TabExplorer {
						m.activeTab = TabAutorun
					} else {
						m.activeTab = TabExplorer
					}
					m.updateOutput()
				}
				return m, nil
			}
		}

		if m.activePane == PaneExplorer {
			if m.activeTab == TabAutorun {
				m.updateAutorunTab(msg)
				return m, nil
			}
			if m.searchMode {
				return m.updateSearch(msg)
			}
			return m.updateExplorer(msg)
		}

		m.viewport, cmd = m.viewport.Update(msg)
		cmds = append(cmds, cmd)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width

		// Width: (Total / 2) - Border(2) - Padding(2)
		paneWidth := (m.width / 2) - 4
		// Height: Total - Footer(1) - Border(2), plus 2 lines of margin
		paneHeight := m.height - 5
		// "OUTPUT" title and the blank line under it
		viewportHeight := paneHeight - 2

		if !m.ready {
			m.viewport = viewport.New(paneWidth, viewportHeight)
			m.ready = true
		} else {
			m.viewport.Width = paneWidth
			m.viewport.Height = viewportHeight
		}
		m.viewport.SetContent(m.wrapOutput(paneWidth, m.output))

	default:
		cmds = append(cmds, m.engine.Update(msg))
		if m.searchMode && m.searchFocus {
			m.searchInput, cmd = m.searchInput.Update(msg)
			cmds = append(cmds, cmd)
		}
		m.sync()
	}

	return m, tea.Batch(cmds...)
}

func (m Model) updateExplorer(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Search):
		m.searchMode = true
		m.searchFocus = true
		m.searchInput.Focus()
		return m, textinput.Blink
	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(msg, m.keys.Down):
		if m.cursor < len(m.flatNodes)-1 {
			m.cursor++
		}
	case key.Matches(msg, m.keys.Expand):
		if node, ok := m.selected(); ok && node.IsSuite() {
			m.expanded[node.Node.ID()] = true
			m.flatten()
		}
	case key.Matches(msg, m.keys.Collapse):
		m.collapseSelected()
	case key.Matches(msg, m.keys.Enter):
		if node, ok := m.selected(); ok {
			m.engine.Run(node.Node.ID())
			m.sync()
		}
	case key.Matches(msg, m.keys.Autorun):
		if node, ok := m.selected(); ok {
			m.engine.ToggleAutorun(node.Node.ID())
			m.sync()
		}
	}
	m.updateOutput()
	return m, nil
}

func (m Model) updateSearch(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.searchFocus {
		switch {
		case key.Matches(msg, m.keys.ExitSearch):
			m.exitSearch()
			return m, nil
		case key.Matches(msg, m.keys.Enter):
			m.searchFocus = false
			m.searchInput.Blur()
			if len(m.searchMatches) > 0 {
				m.currentMatchIndex = 0
				m.cursor = m.searchMatches[0]
				m.updateOutput()
			}
			return m, nil
		default:
			var cmd tea.Cmd
			m.searchInput, cmd = m.searchInput.Update(msg)
			m.expandAll()
			m.findMatches()
			return m, cmd
		}
	}

	switch {
	case key.Matches(msg, m.keys.ExitSearch):
		m.exitSearch()
		return m, nil
	case key.Matches(msg, m.keys.Search):
		m.searchFocus = true
		m.searchInput.Focus()
		return m, textinput.Blink
	case key.Matches(msg, m.keys.NextMatch):
		if len(m.searchMatches) > 0 {
			m.currentMatchIndex = (m.currentMatchIndex + 1) % len(m.searchMatches)
			m.cursor = m.searchMatches[m.currentMatchIndex]
		}
	case key.Matches(msg, m.keys.PrevMatch):
		if len(m.searchMatches) > 0 {
			m.currentMatchIndex = (m.currentMatchIndex - 1 + len(m.searchMatches)) % len(m.searchMatches)
			m.cursor = m.searchMatches[m.currentMatchIndex]
		}
	case key.Matches(msg, m.keys.Enter):
		m.exitSearch()
		if node, ok := m.selected(); ok {
			m.engine.Run(node.Node.ID())
			m.sync()
		}
	}
	m.updateOutput()
	return m, nil
}

func (m *Model) updateAutorunTab(msg tea.KeyMsg) {
	switch {
	case key.Matches(msg, m.keys.Up):
		if m.autorunCursor > 0 {
			m.autorunCursor--
		}
	case key.Matches(msg, m.keys.Down):
		if m.autorunCursor < len(m.autorunNodes)-1 {
			m.autorunCursor++
		}
	case key.Matches(msg, m.keys.Enter):
		if m.autorunCursor < len(m.autorunNodes) {
			m.engine.Run(m.autorunNodes[m.autorunCursor].ID())
			m.sync()
		}
	case key.Matches(msg, m.keys.Autorun):
		if m.autorunCursor < len(m.autorunNodes) {
			m.engine.ToggleAutorun(m.autorunNodes[m.autorunCursor].ID())
			m.sync()
		}
	}
	m.updateOutput()
}

func (m *Model) exitSearch() {
	m.searchMode = false
	m.searchFocus = false
	m.searchInput.Blur()
	m.searchInput.Reset()
	m.searchMatches = nil
}

func (m *Model) findMatches() {
	m.searchMatches = []int{}
	query := strings.ToLower(m.searchInput.Value())
	if query == "" {
		return
	}
	for i, node := range m.flatNodes {
		if strings.Contains(strings.ToLower(node.DisplayName), query) {
			m.searchMatches = append(m.searchMatches, i)
		}
	}
}

func (m *Model) expandAll() {
	m.engine.Collection.Walk(func(n tree.TreeNode) bool {
		if isSuite(n) {
			m.expanded[n.ID()] = true
		}
		return true
	})
	m.flatten()
}

// collapseSelected collapses the selected suite, or moves to the parent row
// when it is already collapsed or a test.
func (m *Model) collapseSelected() {
	node, ok := m.selected()
	if !ok {
		return
	}
	if node.IsSuite() && m.expanded[node.Node.ID()] {
		m.expanded[node.Node.ID()] = false
		m.flatten()
		return
	}
	for i := m.cursor - 1; i >= 0; i-- {
		if m.flatNodes[i].Depth < node.Depth {
			m.cursor = i
			return
		}
	}
}

func (m Model) selected() (DisplayNode, bool) {
	if m.cursor < 0 || m.cursor >= len(m.flatNodes) {
		return DisplayNode{}, false
	}
	return m.flatNodes[m.cursor], true
}

// sync pulls changes out of the collection. A new root means the tree was
// reloaded and every item is fetched again; otherwise only changed nodes are.
func (m *Model) sync() {
	root := m.engine.Collection.Root()
	if root != m.root {
		m.root = root
		m.items = make(map[string]tree.TreeItem, m.engine.Collection.Len())
		m.engine.Collection.Walk(func(n tree.TreeNode) bool {
			m.items[n.ID()] = n.TreeItem()
			return true
		})
		if root != nil {
			if _, seen := m.expanded[root.ID()]; !seen {
				m.expanded[root.ID()] = true
			}
		}
	} else {
		for _, n := range m.engine.Changed() {
			m.items[n.ID()] = n.TreeItem()
		}
	}

	m.flatten()
	m.autorunNodes = autorunTests(m.engine.Collection)
	if m.autorunCursor >= len(m.autorunNodes) && m.autorunCursor > 0 {
		m.autorunCursor = len(m.autorunNodes) - 1
	}
	m.updateOutput()
}

func (m *Model) flatten() {
	var root tree.TreeNode
	if m.root != nil {
		root = m.root
	}
	m.flatNodes = flattenNodes(root, m.items, m.expanded)
	if m.cursor >= len(m.flatNodes) {
		m.cursor = len(m.flatNodes) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
	if m.searchMode {
		m.findMatches()
	}
}

// updateOutput shows the selected node: its tooltip, then its log. The
// running test also shows the output received so far.
func (m *Model) updateOutput() {
	var n tree.TreeNode
	if m.activeTab == TabAutorun {
		if m.autorunCursor < len(m.autorunNodes) {
			n = m.autorunNodes[m.autorunCursor]
		}
	} else if node, ok := m.selected(); ok {
		n = node.Node
	}

	m.output = ""
	if n != nil {
		item := m.items[n.ID()]
		var b strings.Builder
		fmt.Fprintf(&b, "%s %s\n", item.Icon, item.Label)
		if file := n.FileURI(); file != "" {
			mark := tree.DefaultIcons.Lookup(m.marks.Icon(file))
			fmt.Fprintf(&b, "%s %s\n", mark, descriptionStyle.Render(m.relPath(file)))
		}
		if item.Tooltip != "" {
			b.WriteString(item.Tooltip + "\n")
		}
		b.WriteString("\n")
		b.WriteString(n.Log())
		if n.ID() == m.engine.State.Running {
			b.WriteString(m.engine.State.CurrentOutput)
		}
		m.output = b.String()
	}

	if m.ready {
		m.viewport.SetContent(m.wrapOutput(m.viewport.Width, m.output))
		if n != nil && n.ID() == m.engine.State.Running {
			m.viewport.GotoBottom()
		}
	}
}

func (m Model) wrapOutput(width int, content string) string {
	if width <= 0 {
		return content
	}
	return lipgloss.NewStyle().Width(width).Render(content)
}

// View renders the UI based on the current state.
func (m Model) View() string {
	if m.showHelp {
		return m.renderHelp()
	}

	if m.width == 0 {
		return "Loading..."
	}

	paneWidth := (m.width / 2) - 2
	paneHeight := m.height - 4

	explorerRender := m.renderExplorer(paneWidth, paneHeight)

	var outputView strings.Builder
	outputView.WriteString(titleStyle.Render("OUTPUT") + "\n\n")

	if !m.ready {
		outputView.WriteString("Initializing...")
	} else {
		outputView.WriteString(m.viewport.View())
	}

	outputStyle := paneStyle
	if m.activePane == PaneOutput {
		outputStyle = activePaneStyle
	}
	outputRender := outputStyle.
		Width(paneWidth).
		Height(paneHeight).
		Render(outputView.String())

	panes := lipgloss.JoinHorizontal(lipgloss.Top, explorerRender, outputRender)
	footer := m.renderFooter()

	return lipgloss.JoinVertical(lipgloss.Left, panes, footer)
}

func (m Model) renderFooter() string {
	var status string
	switch {
	case m.engine.State.LoadErr != nil:
		status = errorStyle.Render(fmt.Sprintf("cannot load tests: %v", m.engine.State.LoadErr))
	case !m.engine.State.Idle():
		label := m.engine.State.Running
		if item, ok := m.items[label]; ok {
			label = item.Label
		}
		status = statusStyle.Render(fmt.Sprintf("running %s (%d queued)", label, len(m.engine.State.Queue)))
	default:
		status = m.renderSummary()
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, status, m.help.View(m.keys))
}

// renderSummary counts tests by their last result.
func (m Model) renderSummary() string {
	if m.root == nil {
		return statusStyle.Render("0 tests")
	}
	tests := m.engine.Collection.Tests(m.root.ID())

	var passed, failed int
	for _, t := range tests {
		switch t.State().Current {
		case tree.StatePassed:
			passed++
		case tree.StateFailed, tree.StateErrored:
			failed++
		}
	}

	summary := fmt.Sprintf("%d tests", len(tests))
	if passed > 0 {
		summary += " " + passStyle.Render(fmt.Sprintf("%d passed", passed))
	}
	if failed > 0 {
		summary += " " + failStyle.Render(fmt.Sprintf("%d failed", failed))
	}
	return statusStyle.Render(summary)
}

func (m Model) relPath(file string) string {
	if rel, err := filepath.Rel(m.engine.State.RootPath, filepath.FromSlash(file)); err == nil {
		return rel
	}
	return file
}
