package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
)

const (
	maxBarWidth = 40
	minBarWidth = 10
)

func render(m Model) string {
	var b strings.Builder

	writeTitle(&b, m)
	writeBar(&b, m)

	b.WriteString(headingStyle.Render("  Steps") + "\n")
	for _, row := range m.Steps {
		mark, style := stepMark(row.State, m.SpinnerFrame)
		b.WriteString("  " + style.Render(mark) + " " + row.Name)
		if row.Message != "" {
			b.WriteString(mutedStyle.Render("  " + row.Message))
		}
		b.WriteString("\n")
	}

	if len(m.Logs) > 0 {
		b.WriteString(headingStyle.Render("  Log") + "\n")
		for _, line := range m.Logs {
			b.WriteString(mutedStyle.Render("  "+line) + "\n")
		}
	}
	if m.Alert != "" {
		b.WriteString("\n" + alertStyle.Render(m.Alert) + "\n")
	}

	hint := "q: quit"
	if m.ConfirmQuit {
		hint = warnStyle.Render(m.LeaveWarning + " (q: leave)")
	}
	b.WriteString(footerStyle.Render(fmt.Sprintf("  %s elapsed  |  %s", elapsed(time.Since(m.StartTime)), hint)))
	b.WriteString("\n")
	return b.String()
}

func writeTitle(b *strings.Builder, m Model) {
	b.WriteString(brandStyle.Render(m.Title) + " ")
	switch {
	case m.Done:
		b.WriteString(okStyle.Render("Completed"))
	case m.Err != nil:
		b.WriteString(errorStyle.Render("Error: " + m.Err.Error()))
	case m.Installing:
		b.WriteString(runningStyle.Render(runningFrame(m.SpinnerFrame)))
		if row, ok := m.active(); ok {
			b.WriteString(" " + warnStyle.Render(row.Name))
		}
	default:
		b.WriteString(mutedStyle.Render("Waiting..."))
	}
	b.WriteString("\n")
}

func writeBar(b *strings.Builder, m Model) {
	width := barWidth(m.Width)
	done := fraction(m)
	filled := min(int(float64(width)*done), width)
	fmt.Fprintf(b, "  %s%s %3.0f%%\n",
		okStyle.Render(strings.Repeat("█", filled)),
		mutedStyle.Render(strings.Repeat("░", width-filled)),
		done*100)
}

// barWidth shrinks the bar on narrow terminals. Zero means the size is not
// known yet.
func barWidth(termWidth int) int {
	if termWidth <= 0 || termWidth >= 80 {
		return maxBarWidth
	}
	return max(termWidth-30, minBarWidth)
}

func stepMark(state StepState, frame int) (string, lipgloss.Style) {
	switch state {
	case StepActive:
		return runningFrame(frame), runningStyle
	case StepDone:
		return markDone, okStyle
	case StepSkipped:
		return markSkipped, mutedStyle
	case StepDegraded:
		return markDegraded, warnStyle
	case StepFailed:
		return markFailed, errorStyle
	default:
		return markPending, mutedStyle
	}
}

func runningFrame(frame int) string {
	if frame < 0 {
		frame = -frame
	}
	return runningFrames[frame%len(runningFrames)]
}

// fraction is the share of finished steps, 1 once the chain is done.
func fraction(m Model) float64 {
	if m.Done {
		return 1
	}
	if len(m.Steps) == 0 {
		return 0
	}
	return float64(m.completed()) / float64(len(m.Steps))
}

func elapsed(d time.Duration) string {
	return d.Round(time.Second).String()
}
