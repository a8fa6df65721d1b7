package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/jesspatton/testexplorer/tree"
)

var legend = []struct {
	icon tree.Icon
	desc string
}{
	{tree.IconPending, "pending"},
	{tree.IconScheduled, "scheduled"},
	{tree.IconRunning, "running"},
	{tree.IconPassed, "passed"},
	{tree.IconPassedFaint, "passed last run"},
	{tree.IconFailed, "failed"},
	{tree.IconFailedFaint, "failed last run"},
	{tree.IconSkipped, "skipped"},
	{tree.IconPendingAutorun, "autorun"},
}

func (m Model) renderHelp() string {
	title := titleStyle.Render("HELP")

	entries := make([]string, len(legend))
	for i, l := range legend {
		entries[i] = tree.DefaultIcons.Lookup(l.icon) + " " + l.desc
	}
	icons := statusStyle.Render(strings.Join(entries, "  "))

	return lipgloss.Place(
		m.width,
		m.height,
		lipgloss.Center,
		lipgloss.Center,
		paneStyle.Render(fmt.Sprintf("%s\n\n%s\n\n%s", title, m.help.View(m.keys), icons)),
	)
}
