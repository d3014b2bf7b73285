package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"

	"github.com/go-logr/logr"
	"github.com/mattn/go-isatty"

	"github.com/imamik/appinstaller/internal/bootstrap"
	"github.com/imamik/appinstaller/internal/client"
	"github.com/imamik/appinstaller/internal/pipeline"
	"github.com/imamik/appinstaller/internal/ui/prompt"
	"github.com/imamik/appinstaller/internal/ui/tui"
	"github.com/imamik/appinstaller/internal/wizard"
)

// ErrAborted is returned when the user quits before a terminal screen.
var ErrAborted = errors.New("installation aborted by user")

// RunOptions configure the run command.
type RunOptions struct {
	ConfigPath string
	// Endpoint is the URL of a running installer server.
	Endpoint string
	Upgrade  bool
	// Plain disables the full screen progress view and line-based prompts are
	// used even on a terminal.
	Plain bool
	Log   LogOptions
}

// Asker collects one screen at a time from the user.
type Asker interface {
	Ask(ctx context.Context, s *wizard.Screen, nav prompt.Nav) (prompt.Answer, error)
	ConfirmLeave(ctx context.Context, warning string) (bool, error)
}

// Run drives the guided installation against the server at opts.Endpoint.
func Run(ctx context.Context, opts RunOptions) error {
	cfg, timeouts, err := loadConfig(opts.ConfigPath)
	if err != nil {
		return err
	}
	log, err := newLogger(os.Stderr, opts.Log)
	if err != nil {
		return err
	}

	interactive := !opts.Plain && isInteractiveTTY()
	printer := prompt.NewPrinter(os.Stdout)
	bridge := tui.NewBridge(printer)

	c := client.New(client.Options{
		Endpoint:     opts.Endpoint,
		Upgrade:      opts.Upgrade || upgradeRequested(opts.Endpoint),
		SettingsFile: cfg.Paths.SettingsFile,
		View:         bridge,
		HTTPClient:   &http.Client{Timeout: timeouts.Request},
		Upgrader:     bootstrap.NewClient(timeouts.Bootstrap, log.WithName("bootstrap")),
		Observer: pipeline.Observers{
			pipeline.NewLogObserver(log.WithName("pipeline")),
			bridge,
		},
		Log: log.WithName("client"),
	})

	r := &runner{
		client:   c,
		asker:    prompt.New(prompt.WithAccessible(!interactive)),
		bridge:   bridge,
		printer:  printer,
		progress: interactive,
		log:      log,
	}
	return r.run(ctx)
}

// runner walks the wizard screens until a terminal one is left.
type runner struct {
	client   *client.Client
	asker    Asker
	bridge   *tui.Bridge
	printer  *prompt.Printer
	progress bool
	log      logr.Logger
}

func (r *runner) run(ctx context.Context) error {
	if err := r.client.Init(ctx); err != nil {
		if errors.Is(err, client.ErrRequirements) {
			return err
		}
		return fmt.Errorf("failed to reach installer: %w", err)
	}

	finished := false
	for {
		screen := r.client.Machine().Current()
		terminal := screen.ID.Terminal()
		if terminal && (finished || len(screen.Actions) == 0) {
			break
		}

		nav := prompt.Nav{
			Back:    r.client.CanBack() && !terminal,
			Forward: r.client.CanForward() && !terminal,
		}
		answer, err := r.asker.Ask(ctx, screen, nav)
		if err != nil {
			return err
		}
		answer.Apply(r.client.Machine())

		switch answer.Choice.Kind {
		case prompt.ChoiceQuit:
			if terminal {
				finished = true
				continue
			}
			leave, err := r.confirmLeave(ctx)
			if err != nil {
				return err
			}
			if leave {
				return ErrAborted
			}
		case prompt.ChoiceBack:
			err = r.client.Back()
		case prompt.ChoiceForward:
			err = r.client.Forward()
		case prompt.ChoiceSubmit:
			err = r.client.Do(ctx, screen.Form.Trigger, "")
		case prompt.ChoiceAction:
			err = r.act(ctx, answer.Choice.Action)
			if err == nil && answer.Choice.Action.Name == wizard.ActContinueUpgrade {
				finished = true
			}
		}
		if err != nil {
			if !reported(err) {
				return err
			}
			r.log.V(1).Info("action failed", "screen", string(screen.ID), "error", err.Error())
		}
	}

	if rec := r.client.Record(); rec != nil {
		r.printer.Summary(rec.String())
	}
	return nil
}

func (r *runner) confirmLeave(ctx context.Context) (bool, error) {
	warning := r.client.CanLeave()
	if warning == "" {
		return true, nil
	}
	return r.asker.ConfirmLeave(ctx, warning)
}

// act runs a screen action. Chains run under the progress view when it is
// enabled.
func (r *runner) act(ctx context.Context, a wizard.Action) error {
	if !r.progress || (a.Name != wizard.ActInstall && a.Name != wizard.ActUpgrade) {
		return r.client.Do(ctx, a.Name, a.Arg)
	}

	_, steps := pipeline.Chain(r.client.Session())
	err := tui.RunProgress(ctx, r.bridge, a.Label, steps, client.LeaveWarning, func(ctx context.Context) error {
		return r.client.Do(ctx, a.Name, a.Arg)
	})
	if errors.Is(err, tui.ErrInterrupted) {
		return ErrAborted
	}

	current := r.client.Machine().Current()
	r.printer.ShowScreen(current)
	r.printer.ShowAlert(current)
	return err
}

// reported tells errors the wizard already surfaced on screen from those
// that end the run.
func reported(err error) bool {
	switch {
	case errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, ErrAborted),
		errors.Is(err, client.ErrUnknownAction),
		errors.Is(err, client.ErrNotStarted):
		return false
	}
	return true
}

// upgradeRequested reports whether endpoint carries the upgrade parameter.
func upgradeRequested(endpoint string) bool {
	u, err := url.Parse(endpoint)
	if err != nil {
		return false
	}
	return wizard.HasParameter(u.RawQuery, wizard.UpgradeParameter)
}

// isInteractiveTTY reports whether both stdin and stdout are terminals.
func isInteractiveTTY() bool {
	return isTerminal(os.Stdin) && isTerminal(os.Stdout)
}

func isTerminal(f interface{ Fd() uintptr }) bool {
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
