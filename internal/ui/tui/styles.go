package tui

import "github.com/charmbracelet/lipgloss"

// Palette of the installer views. Brand is the accent of the title line.
var (
	colorBrand   = lipgloss.Color("#23a8e0")
	colorOK      = lipgloss.Color("#22c55e")
	colorFailure = lipgloss.Color("#ef4444")
	colorCaution = lipgloss.Color("#eab308")
	colorMuted   = lipgloss.Color("#6b7280")
	colorText    = lipgloss.Color("#f9fafb")
)

var (
	brandStyle   = lipgloss.NewStyle().Bold(true).Foreground(colorBrand)
	headingStyle = lipgloss.NewStyle().Bold(true).Foreground(colorText).MarginTop(1)
	runningStyle = lipgloss.NewStyle().Bold(true).Foreground(colorText)
	okStyle      = lipgloss.NewStyle().Foreground(colorOK)
	errorStyle   = lipgloss.NewStyle().Foreground(colorFailure)
	warnStyle    = lipgloss.NewStyle().Foreground(colorCaution)
	mutedStyle   = lipgloss.NewStyle().Foreground(colorMuted)
	footerStyle  = mutedStyle.MarginTop(1)

	alertStyle = lipgloss.NewStyle().
			Foreground(colorFailure).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorFailure).
			Padding(0, 1)
)

// Step markers, one per StepState.
const (
	markDone     = "[OK]"
	markFailed   = "[!!]"
	markPending  = "[  ]"
	markDegraded = "[??]"
	markSkipped  = "[--]"
)

var runningFrames = []string{"[| ]", "[/ ]", "[- ]", `[\ ]`}
