package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

func (m Model) renderExplorer(paneWidth, paneHeight int) string {
	var b strings.Builder

	explorerTab, autorunTab := activeTabStyle, inactiveTabStyle
	if m.activeTab == TabAutorun {
		explorerTab, autorunTab = inactiveTabStyle, activeTabStyle
	}
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Bottom,
		explorerTab.Render("Explorer"),
		autorunTab.Render("Autorun"),
	) + "\n\n")

	searching := m.searchMode && m.activeTab == TabExplorer
	rows := paneHeight
	if searching {
		rows -= 3 // input line plus its border
	}

	switch {
	case m.activeTab == TabAutorun && len(m.autorunNodes) == 0:
		b.WriteString("No autorun tests.\nPress 'a' on a test or suite to add it.")
	case m.activeTab == TabAutorun:
		start, end := visibleRange(m.autorunCursor, len(m.autorunNodes), rows)
		for i := start; i < end; i++ {
			n := m.autorunNodes[i]
			item := m.items[n.ID()]
			b.WriteString(renderLine(i == m.autorunCursor, "", item.Icon, item.Label, item.Description))
		}
	case m.root == nil && m.engine.State.LoadErr != nil:
		b.WriteString("No tests loaded.\nPress 'R' to retry.")
	case m.root == nil:
		b.WriteString("Scanning...")
	default:
		start, end := visibleRange(m.cursor, len(m.flatNodes), rows)
		for i := start; i < end; i++ {
			b.WriteString(m.renderNode(m.flatNodes[i], i))
		}
	}

	view := b.String()
	if h := lipgloss.Height(view); h < rows {
		view += strings.Repeat("\n", rows-h)
	}
	if searching {
		view += m.renderSearch(paneWidth)
	}

	style := paneStyle
	if m.activePane == PaneExplorer {
		style = activePaneStyle
	}
	return style.Width(paneWidth).Height(paneHeight).Render(view)
}

func (m Model) renderSearch(paneWidth int) string {
	content := m.searchInput.View()
	if !m.searchFocus {
		hints := "n: next • N: prev • Esc: exit"
		free := paneWidth - 6 - lipgloss.Width(content) - lipgloss.Width(hints)
		if free > 1 {
			content += strings.Repeat(" ", free) + hintStyle.Render(hints)
		}
	}
	return searchBoxStyle.Width(paneWidth - 4).Render(content)
}

// visibleRange keeps the cursor roughly centred in a window of height rows.
func visibleRange(cursor, total, height int) (int, int) {
	start := 0
	end := total

	if height > 0 && total > height {
		if cursor < height/2 {
			start = 0
			end = height
		} else if cursor > total-height/2 {
			start = total - height
			end = total
		} else {
			start = cursor - height/2
			end = start + height
		}
	}
	return start, end
}

func (m Model) renderNode(node DisplayNode, index int) string {
	marker := "  "
	if node.IsSuite() {
		marker = "▸ "
		if m.expanded[node.Node.ID()] {
			marker = "▾ "
		}
	}

	name := node.DisplayName
	if m.searchMode && m.searchInput.Value() != "" {
		name = highlightMatches(name, m.searchInput.Value())
	}

	prefix := strings.Repeat("  ", node.Depth) + marker
	return renderLine(index == m.cursor, prefix, node.Item.Icon, name, node.Item.Description)
}

// renderLine draws one explorer row: cursor, prefix, icon, label and the
// faint description.
func renderLine(selected bool, prefix, icon, label, description string) string {
	cursor := " "
	if selected {
		cursor = ">"
	}
	line := fmt.Sprintf("%s %s%s %s", cursor, prefix, icon, label)
	if description != "" {
		line += " " + descriptionStyle.Render(description)
	}
	if selected {
		line = selectedStyle.Render(line)
	}
	return line + "\n"
}

// highlightMatches marks every case-insensitive occurrence of query in name.
func highlightMatches(name, query string) string {
	lowerName := strings.ToLower(name)
	lowerQuery := strings.ToLower(query)
	if lowerQuery == "" || !strings.Contains(lowerName, lowerQuery) {
		return name
	}

	var sb strings.Builder
	lastIdx := 0
	for {
		idx := strings.Index(lowerName[lastIdx:], lowerQuery)
		if idx == -1 {
			sb.WriteString(name[lastIdx:])
			break
		}
		idx += lastIdx
		sb.WriteString(name[lastIdx:idx])
		sb.WriteString(matchStyle.Render(name[idx : idx+len(lowerQuery)]))
		lastIdx = idx + len(lowerQuery)
	}
	return sb.String()
}
