package pipeline

import (
	"context"
	"fmt"

	"github.com/imamik/appinstaller/internal/deployment"
	"github.com/imamik/appinstaller/internal/envelope"
	"github.com/imamik/appinstaller/internal/transport"
	"github.com/imamik/appinstaller/internal/wizard"
)

// Policy decides what a step failure does to the chain.
type Policy int

// Failure policies.
const (
	// Fatal stops the chain and leaves installing mode.
	Fatal Policy = iota
	// Absorbed treats the failure as a success with an empty result.
	Absorbed
	// Degraded lets the chain continue and records manual instructions.
	Degraded
)

func (p Policy) String() string {
	switch p {
	case Fatal:
		return "fatal"
	case Absorbed:
		return "absorbed"
	case Degraded:
		return "degraded"
	default:
		return fmt.Sprintf("Policy(%d)", int(p))
	}
}

// Fetcher issues one action.
type Fetcher interface {
	Fetch(ctx context.Context, action envelope.Action, params map[string]string, cb transport.Callbacks) (*envelope.Response, error)
}

// Run carries the inputs and intermediate results of one chain.
type Run struct {
	Session *wizard.Session
	Runtime deployment.Runtime
	// SettingsFile is the settings path relative to the working directory.
	// Empty means config.DefaultSettingsFile.
	SettingsFile string
	// Package is the data returned by download.
	Package envelope.Data
}

// Step is one action of a chain.
type Step struct {
	Name   string
	Action envelope.Action
	Policy Policy
	// Log returns the progress line written before the step, if any.
	Log func(r *Run) string
	// Params builds the action parameters from the run.
	Params func(r *Run) (map[string]string, error)
	// OnSuccess stores the result. Absorbed failures call it with an empty
	// response.
	OnSuccess func(r *Run, resp *envelope.Response)
	// Todo returns the manual instructions shown when a Degraded step fails.
	Todo func(r *Run) string
}

// MissingSectionError is returned when a step needs a section that was not
// committed yet.
type MissingSectionError struct {
	Step    string
	Section wizard.Section
}

func (e *MissingSectionError) Error() string {
	return fmt.Sprintf("Unable to %s: missing %s details", e.Step, e.Section)
}

// require returns the record of section or a MissingSectionError.
func require(r *Run, step string, section wizard.Section) (wizard.Record, error) {
	rec, ok := r.Session.Record(section)
	if !ok {
		return nil, &MissingSectionError{Step: step, Section: section}
	}
	return rec, nil
}
