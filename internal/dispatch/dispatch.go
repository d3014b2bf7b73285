package dispatch

import (
	"context"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/go-logr/logr"
	"github.com/google/uuid"

	"github.com/imamik/appinstaller/internal/deployment"
	"github.com/imamik/appinstaller/internal/envelope"
)

// MissingRequirements is the message of the envelope returned when the
// requirement gate rejects a request.
const MissingRequirements = "Missing server requirements"

// Call carries everything a handler may read for one request.
type Call struct {
	ID      string
	Action  envelope.Action
	Params  envelope.Params
	Runtime deployment.Runtime
	Log     logr.Logger
}

// Handler runs one action. A nil response with a nil error is a bare success.
type Handler func(ctx context.Context, call *Call) (*envelope.Response, error)

// ActionSet is implemented by the server controller, one method per action.
type ActionSet interface {
	CheckLicense(ctx context.Context, call *Call) (*envelope.Response, error)
	CPanelHtaccessHandlers(ctx context.Context, call *Call) (*envelope.Response, error)
	Download(ctx context.Context, call *Call) (*envelope.Response, error)
	Extract(ctx context.Context, call *Call) (*envelope.Response, error)
	CPanelProcess(ctx context.Context, call *Call) (*envelope.Response, error)
	CheckDatabase(ctx context.Context, call *Call) (*envelope.Response, error)
	CreateSettings(ctx context.Context, call *Call) (*envelope.Response, error)
	SubmitInstallForm(ctx context.Context, call *Call) (*envelope.Response, error)
	SelfDestruct(ctx context.Context, call *Call) (*envelope.Response, error)
}

// Table returns the handler table for set, keyed by action.
func Table(set ActionSet) map[envelope.Action]Handler {
	return map[envelope.Action]Handler{
		envelope.ActionCheckLicense:           set.CheckLicense,
		envelope.ActionCPanelHtaccessHandlers: set.CPanelHtaccessHandlers,
		envelope.ActionDownload:               set.Download,
		envelope.ActionExtract:                set.Extract,
		envelope.ActionCPanelProcess:          set.CPanelProcess,
		envelope.ActionCheckDatabase:          set.CheckDatabase,
		envelope.ActionCreateSettings:         set.CreateSettings,
		envelope.ActionSubmitInstallForm:      set.SubmitInstallForm,
		envelope.ActionSelfDestruct:           set.SelfDestruct,
	}
}

// RequirementsChecker reports unmet server requirements as plain text.
type RequirementsChecker interface {
	Errors(ctx context.Context) []string
}

// Dispatcher routes requests to handlers. It keeps no per-request state.
type Dispatcher struct {
	handlers     map[envelope.Action]Handler
	requirements RequirementsChecker
	errorLog     *ErrorLog
	metrics      *Metrics
	log          logr.Logger
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithRequirements installs the pre-dispatch requirement gate.
func WithRequirements(c RequirementsChecker) Option {
	return func(d *Dispatcher) { d.requirements = c }
}

// WithErrorLog records recovered handler panics to l.
func WithErrorLog(l *ErrorLog) Option {
	return func(d *Dispatcher) { d.errorLog = l }
}

// WithMetrics records per-action counters and durations.
func WithMetrics(m *Metrics) Option {
	return func(d *Dispatcher) { d.metrics = m }
}

// WithLogger sets the logger.
func WithLogger(log logr.Logger) Option {
	return func(d *Dispatcher) { d.log = log }
}

// New builds a Dispatcher for set.
func New(set ActionSet, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		handlers: Table(set),
		log:      logr.Discard(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// RequirementErrors returns the unmet requirements, or nil without a gate.
func (d *Dispatcher) RequirementErrors(ctx context.Context) []string {
	if d.requirements == nil {
		return nil
	}
	return d.requirements.Errors(ctx)
}

// Dispatch runs the named action and always returns an envelope.
func (d *Dispatcher) Dispatch(ctx context.Context, name string, params envelope.Params, rt deployment.Runtime) *envelope.Response {
	if errs := d.RequirementErrors(ctx); len(errs) > 0 {
		d.metrics.recordRejection()
		d.log.Info("request rejected", "action", name, "requirements", errs)
		return &envelope.Response{
			Code:    envelope.CodeInternalServerError,
			Message: MissingRequirements,
			Data:    envelope.Data{"errors": errs},
		}
	}

	action, err := envelope.ParseAction(name)
	if err != nil {
		d.metrics.recordAction("unknown", resultFailure, 0)
		return envelope.FromError(err)
	}

	id := uuid.NewString()
	call := &Call{
		ID:      id,
		Action:  action,
		Params:  params,
		Runtime: rt,
		Log:     d.log.WithValues("action", action.String(), "request", id),
	}

	start := time.Now()
	resp, panicked := d.run(ctx, call)
	elapsed := time.Since(start)

	result := resultSuccess
	switch {
	case panicked:
		result = resultPanic
	case !resp.Success():
		result = resultFailure
		call.Log.Info("action failed", "code", resp.Code, "message", resp.Message, "duration", elapsed)
	default:
		call.Log.V(1).Info("action completed", "code", resp.Code, "duration", elapsed)
	}
	d.metrics.recordAction(action.String(), result, elapsed.Seconds())
	return resp
}

func (d *Dispatcher) run(ctx context.Context, call *Call) (resp *envelope.Response, panicked bool) {
	defer func() {
		if r := recover(); r != nil {
			panicked = true
			stack := debug.Stack()
			call.Log.Error(fmt.Errorf("%v", r), "handler panicked")
			if d.errorLog != nil {
				thrown := fmt.Sprint(r)
				if err := d.errorLog.Record("Panic", thrown, "in action "+call.Action.String(), Frames(stack)); err != nil {
					call.Log.Error(err, "failed to write error log")
				}
			}
			resp = envelope.Fail(envelope.CodeInternalServerError, fmt.Sprintf("Unexpected error in %s: %v", call.Action, r))
		}
	}()

	resp, err := d.handlers[call.Action](ctx, call)
	if err != nil {
		return envelope.FromError(err), false
	}
	if resp == nil {
		return envelope.OK("", nil), false
	}
	return resp, false
}
