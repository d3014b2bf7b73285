package prompt

import "github.com/charmbracelet/lipgloss"

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#f9fafb"))

	descriptionStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#6b7280"))

	alertStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#ef4444")).
			Bold(true)

	logStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#6b7280"))

	focusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#eab308"))

	summaryStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#22c55e"))
)
