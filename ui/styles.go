package ui

import "github.com/charmbracelet/lipgloss"

var (
	subtle    = lipgloss.AdaptiveColor{Light: "#D9DCCF", Dark: "#626262"}
	highlight = lipgloss.AdaptiveColor{Light: "#874BFD", Dark: "#7D56F4"}
	warning   = lipgloss.AdaptiveColor{Light: "#F25D94", Dark: "#F55081"}
	success   = lipgloss.AdaptiveColor{Light: "#2E9E5B", Dark: "#43BF6D"}

	paneStyle       = lipgloss.NewStyle().Border(lipgloss.NormalBorder()).BorderForeground(subtle).Padding(0, 1)
	activePaneStyle = paneStyle.BorderForeground(highlight)

	activeTabStyle   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(highlight).Foreground(highlight).Padding(0, 1)
	inactiveTabStyle = lipgloss.NewStyle().Border(lipgloss.HiddenBorder()).Foreground(subtle).Padding(0, 1)

	titleStyle       = lipgloss.NewStyle().Foreground(highlight).Bold(true).Padding(0, 1)
	selectedStyle    = lipgloss.NewStyle().Foreground(highlight)
	descriptionStyle = lipgloss.NewStyle().Foreground(subtle).Faint(true)
	matchStyle       = lipgloss.NewStyle().Background(lipgloss.Color("212")).Foreground(lipgloss.Color("0"))
	hintStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	searchBoxStyle   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(highlight)

	statusStyle = lipgloss.NewStyle().Foreground(subtle).Padding(0, 1)
	errorStyle  = statusStyle.Foreground(warning)
	passStyle   = lipgloss.NewStyle().Foreground(success)
	failStyle   = lipgloss.NewStyle().Foreground(warning)
)
