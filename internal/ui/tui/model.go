package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/imamik/appinstaller/internal/pipeline"
)

// maxLogLines bounds the log tail kept on screen.
const maxLogLines = 10

// StepState is the display state of a step.
type StepState int

// Step states.
const (
	StepPending StepState = iota
	StepActive
	StepDone
	StepSkipped
	StepDegraded
	StepFailed
)

// StepRow is one step of the chain for display.
type StepRow struct {
	Name    string
	State   StepState
	Message string
}

// Model is the Bubble Tea model of the progress view.
type Model struct {
	Title string
	Steps []StepRow
	Logs  []string
	Alert string

	// LeaveWarning is shown on the first quit key while installing.
	LeaveWarning string
	Installing   bool
	ConfirmQuit  bool
	Quit         bool

	StartTime    time.Time
	SpinnerFrame int

	// UI state
	Width  int
	Height int
	Err    error
	Done   bool
}

// NewProgressModel creates a model for a chain.
func NewProgressModel(title string, steps []pipeline.Step, leaveWarning string) Model {
	rows := make([]StepRow, 0, len(steps))
	for _, s := range steps {
		rows = append(rows, StepRow{Name: s.Name})
	}
	return Model{
		Title:        title,
		Steps:        rows,
		LeaveWarning: leaveWarning,
		StartTime:    time.Now(),
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tickCmd()
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			if m.Installing && !m.ConfirmQuit && m.LeaveWarning != "" {
				m.ConfirmQuit = true
				return m, nil
			}
			m.Quit = true
			return m, tea.Quit
		default:
			m.ConfirmQuit = false
		}

	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height

	case StepMsg:
		m.updateStep(msg.Event)

	case LogMsg:
		m.Logs = append(m.Logs, msg.Line)
		if len(m.Logs) > maxLogLines {
			m.Logs = m.Logs[len(m.Logs)-maxLogLines:]
		}

	case AlertMsg:
		m.Alert = msg.Message

	case InstallingMsg:
		m.Installing = msg.On

	case TickMsg:
		m.SpinnerFrame++
		return m, tickCmd()

	case ErrMsg:
		m.Err = msg.Err
		m.Installing = false
		return m, tea.Quit

	case DoneMsg:
		m.Done = true
		m.Installing = false
		return m, tea.Quit
	}

	return m, nil
}

func (m *Model) updateStep(e pipeline.Event) {
	idx := -1
	for i, row := range m.Steps {
		if row.Name == e.Step {
			idx = i
			break
		}
	}
	if idx < 0 {
		return
	}

	row := &m.Steps[idx]
	switch e.Type {
	case pipeline.EventStepStarted:
		for i := 0; i < idx; i++ {
			if m.Steps[i].State == StepPending || m.Steps[i].State == StepActive {
				m.Steps[i].State = StepDone
			}
		}
		row.State = StepActive
	case pipeline.EventStepCompleted:
		row.State = StepDone
	case pipeline.EventStepAbsorbed:
		row.State = StepSkipped
		row.Message = e.Message
	case pipeline.EventStepDegraded:
		row.State = StepDegraded
		row.Message = e.Message
	case pipeline.EventStepFailed:
		row.State = StepFailed
		row.Message = e.Message
	}
}

// completed returns how many steps are finished, whatever their outcome.
func (m Model) completed() int {
	n := 0
	for _, row := range m.Steps {
		switch row.State {
		case StepDone, StepSkipped, StepDegraded:
			n++
		}
	}
	return n
}

// active returns the running step, if any.
func (m Model) active() (StepRow, bool) {
	for _, row := range m.Steps {
		if row.State == StepActive {
			return row, true
		}
	}
	return StepRow{}, false
}

func tickCmd() tea.Cmd {
	return tea.Tick(200*time.Millisecond, func(_ time.Time) tea.Msg {
		return TickMsg{}
	})
}

// View implements tea.Model.
func (m Model) View() string {
	return render(m)
}
