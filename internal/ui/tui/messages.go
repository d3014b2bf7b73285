// Package tui provides a Bubble Tea progress view for the install and
// upgrade chains, plus lipgloss renderings of requirement reports.
package tui

import "github.com/imamik/appinstaller/internal/pipeline"

// StepMsg carries a pipeline event.
type StepMsg struct {
	Event pipeline.Event
}

// LogMsg carries one progress log line.
type LogMsg struct {
	Line string
}

// AlertMsg carries the alert of the visible screen. An empty message clears it.
type AlertMsg struct {
	Message string
}

// InstallingMsg toggles installing mode.
type InstallingMsg struct {
	On bool
}

// TickMsg is sent periodically to refresh the display.
type TickMsg struct{}

// ErrMsg carries the error that ended the chain.
type ErrMsg struct{ Err error }

// DoneMsg signals that the chain completed.
type DoneMsg struct{}
