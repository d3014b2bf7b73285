package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/imamik/appinstaller/internal/envelope"
	"github.com/imamik/appinstaller/internal/transport"
)

// UI is the part of the wizard the driver reports to.
type UI interface {
	Log(msg string)
	PushAlert(msg string)
	AbortInstall(msg string)
}

// Failure is a degraded step.
type Failure struct {
	Step     string
	Response *envelope.Response
	Todo     string
}

// Outcome summarizes a chain that reached its end.
type Outcome struct {
	Degraded []Failure
}

// Todo returns the manual instructions of every degraded step.
func (o *Outcome) Todo() []string {
	var out []string
	for _, f := range o.Degraded {
		if f.Todo != "" {
			out = append(out, f.Todo)
		}
	}
	return out
}

// StepError is returned when a Fatal step fails.
type StepError struct {
	Step string
	Err  error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("%s failed: %v", e.Step, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}

// Driver evaluates chains step by step.
type Driver struct {
	fetcher  Fetcher
	ui       UI
	observer Observer
	now      func() time.Time
}

// NewDriver returns a Driver issuing actions through f.
func NewDriver(f Fetcher, ui UI, observer Observer) *Driver {
	if observer == nil {
		observer = ObserverFunc(func(Event) {})
	}
	return &Driver{fetcher: f, ui: ui, observer: observer, now: time.Now}
}

// Run executes steps in order against run. It stops at the first Fatal
// failure and returns a *StepError.
func (d *Driver) Run(ctx context.Context, chain string, steps []Step, run *Run) (*Outcome, error) {
	start := d.now()
	d.emit(Event{Type: EventChainStarted, Chain: chain})
	outcome := &Outcome{}

	for _, step := range steps {
		if err := d.step(ctx, chain, step, run, outcome); err != nil {
			d.emit(Event{Type: EventChainFailed, Chain: chain, Step: step.Name, Message: err.Error()})
			return outcome, &StepError{Step: step.Name, Err: err}
		}
	}

	d.emit(Event{Type: EventChainCompleted, Chain: chain, Duration: d.now().Sub(start)})
	return outcome, nil
}

func (d *Driver) step(ctx context.Context, chain string, step Step, run *Run, outcome *Outcome) error {
	if step.Log != nil {
		d.ui.Log(step.Log(run))
	}

	params := map[string]string{}
	if step.Params != nil {
		p, err := step.Params(run)
		if err != nil {
			d.ui.PushAlert(err.Error())
			d.ui.AbortInstall("")
			return err
		}
		params = p
	}

	started := d.now()
	d.emit(Event{Type: EventStepStarted, Chain: chain, Step: step.Name})

	var cb transport.Callbacks
	var failed *envelope.Response
	switch step.Policy {
	case Absorbed, Degraded:
		cb.Error = func(resp *envelope.Response) bool {
			failed = resp
			return true
		}
	}

	resp, err := d.fetcher.Fetch(ctx, step.Action, params, cb)
	if err != nil {
		d.emit(Event{Type: EventStepFailed, Chain: chain, Step: step.Name, Message: err.Error(), Code: codeOf(resp)})
		return err
	}

	switch {
	case failed != nil && step.Policy == Absorbed:
		d.emit(Event{Type: EventStepAbsorbed, Chain: chain, Step: step.Name, Message: failed.Message, Code: failed.Code})
		if step.OnSuccess != nil {
			step.OnSuccess(run, envelope.OK("", nil))
		}
	case failed != nil && step.Policy == Degraded:
		f := Failure{Step: step.Name, Response: failed}
		if step.Todo != nil {
			f.Todo = step.Todo(run)
		}
		outcome.Degraded = append(outcome.Degraded, f)
		d.emit(Event{Type: EventStepDegraded, Chain: chain, Step: step.Name, Message: failed.Message, Code: failed.Code})
	default:
		if step.OnSuccess != nil {
			step.OnSuccess(run, resp)
		}
		d.emit(Event{Type: EventStepCompleted, Chain: chain, Step: step.Name, Code: resp.Code, Duration: d.now().Sub(started)})
	}
	return nil
}

func (d *Driver) emit(e Event) {
	e.Timestamp = d.now()
	d.observer.Event(e)
}

func codeOf(resp *envelope.Response) int {
	if resp == nil {
		return 0
	}
	return resp.Code
}
