package tui

import (
	"context"
	"errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/imamik/appinstaller/internal/pipeline"
)

// ErrInterrupted is returned when the user left the progress view before
// the chain ended.
var ErrInterrupted = errors.New("interrupted by user")

// RunProgress shows the progress of steps while fn runs. Bridge updates are
// routed to the view for the duration of fn. Leaving early cancels the
// context passed to fn and waits for it to return.
func RunProgress(
	ctx context.Context,
	bridge *Bridge,
	title string,
	steps []pipeline.Step,
	leaveWarning string,
	fn func(ctx context.Context) error,
	opts ...tea.ProgramOption,
) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	m := NewProgressModel(title, steps, leaveWarning)
	p := tea.NewProgram(m, opts...)

	bridge.Attach(p.Send)
	defer bridge.Detach()

	result := make(chan error, 1)
	go func() {
		err := fn(ctx)
		result <- err
		if err != nil {
			p.Send(ErrMsg{Err: err})
			return
		}
		p.Send(DoneMsg{})
	}()

	finalModel, err := p.Run()
	bridge.Detach()
	if err != nil {
		cancel()
		<-result
		return fmt.Errorf("TUI error: %w", err)
	}

	fm := finalModel.(Model)
	if fm.Quit {
		cancel()
		<-result
		return ErrInterrupted
	}
	return <-result
}
