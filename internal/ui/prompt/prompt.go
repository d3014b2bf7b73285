package prompt

import (
	"context"
	"errors"
	"io"

	"github.com/charmbracelet/huh"

	"github.com/imamik/appinstaller/internal/wizard"
)

// ChoiceKind is what the user picked on a screen.
type ChoiceKind int

// Choice kinds.
const (
	ChoiceAction ChoiceKind = iota
	ChoiceSubmit
	ChoiceBack
	ChoiceForward
	ChoiceQuit
)

// Nav tells which history moves are possible from a screen.
type Nav struct {
	Back    bool
	Forward bool
}

// Choice is one selectable entry of a screen.
type Choice struct {
	Kind   ChoiceKind
	Label  string
	Action wizard.Action
}

// Answer is the outcome of one screen prompt.
type Answer struct {
	// Values maps control ids to the entered values.
	Values map[string]string
	Choice Choice
}

// Apply copies the entered values into m. Locked controls are skipped by
// the machine.
func (a Answer) Apply(m *wizard.Machine) {
	for id, v := range a.Values {
		m.SetValue(id, v)
	}
}

// Prompter asks the user for one screen at a time.
type Prompter struct {
	accessible bool
	in         io.Reader
	out        io.Writer
}

// Option configures a Prompter.
type Option func(*Prompter)

// WithAccessible switches huh to its line-based mode, for streams that are
// not terminals.
func WithAccessible(on bool) Option {
	return func(p *Prompter) { p.accessible = on }
}

// WithIO replaces stdin and stdout.
func WithIO(in io.Reader, out io.Writer) Option {
	return func(p *Prompter) {
		p.in = in
		p.out = out
	}
}

// New returns a prompter.
func New(opts ...Option) *Prompter {
	p := &Prompter{}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Choices returns the entries offered on s.
func Choices(s *wizard.Screen, nav Nav) []Choice {
	var out []Choice
	if s.Form != nil {
		out = append(out, Choice{Kind: ChoiceSubmit, Label: "Continue"})
	}
	for _, a := range s.Actions {
		out = append(out, Choice{Kind: ChoiceAction, Label: a.Label, Action: a})
	}
	if nav.Back {
		out = append(out, Choice{Kind: ChoiceBack, Label: "Back"})
	}
	if nav.Forward {
		out = append(out, Choice{Kind: ChoiceForward, Label: "Forward"})
	}
	return append(out, Choice{Kind: ChoiceQuit, Label: "Quit"})
}

// Controls returns the controls shown on s.
func Controls(s *wizard.Screen) []*wizard.Control {
	if s.Form != nil {
		return s.Form.Controls
	}
	return s.Controls
}

// Ask renders s and waits for the user. Aborting the form answers Quit.
func (p *Prompter) Ask(ctx context.Context, s *wizard.Screen, nav Nav) (Answer, error) {
	controls := Controls(s)
	values := make([]string, len(controls))
	var fields []huh.Field

	if s.Alert.Message != "" {
		fields = append(fields, huh.NewNote().Title(s.Alert.Message))
	}
	for i, c := range controls {
		values[i] = c.Value
		if c.Locked {
			fields = append(fields, huh.NewNote().Title(c.Label).Description("Locked"))
			continue
		}
		input := huh.NewInput().
			Title(c.Label).
			Placeholder(c.Placeholder).
			Value(&values[i])
		if c.Type == wizard.TypePassword {
			input = input.EchoMode(huh.EchoModePassword)
		}
		fields = append(fields, input)
	}

	choices := Choices(s, nav)
	options := make([]huh.Option[int], 0, len(choices))
	for i, ch := range choices {
		options = append(options, huh.NewOption(ch.Label, i))
	}
	selected := 0
	fields = append(fields, huh.NewSelect[int]().
		Title("Next").
		Options(options...).
		Value(&selected))

	form := huh.NewForm(
		huh.NewGroup(fields...).
			Title(s.Title).
			Description(s.Description),
	).WithAccessible(p.accessible)
	if p.in != nil {
		form = form.WithInput(p.in)
	}
	if p.out != nil {
		form = form.WithOutput(p.out)
	}

	if err := form.RunWithContext(ctx); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return Answer{Choice: Choice{Kind: ChoiceQuit, Label: "Quit"}}, nil
		}
		return Answer{}, err
	}

	answer := Answer{Values: map[string]string{}, Choice: choices[selected]}
	for i, c := range controls {
		if !c.Locked {
			answer.Values[c.ID] = values[i]
		}
	}
	return answer, nil
}

// ConfirmLeave asks whether to quit despite warning.
func (p *Prompter) ConfirmLeave(ctx context.Context, warning string) (bool, error) {
	leave := false
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(warning).
				Affirmative("Leave").
				Negative("Stay").
				Value(&leave),
		),
	).WithAccessible(p.accessible)
	if p.in != nil {
		form = form.WithInput(p.in)
	}
	if p.out != nil {
		form = form.WithOutput(p.out)
	}
	if err := form.RunWithContext(ctx); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return true, nil
		}
		return false, err
	}
	return leave, nil
}
