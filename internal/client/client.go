package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-logr/logr"

	"github.com/imamik/appinstaller/internal/config"
	"github.com/imamik/appinstaller/internal/deployment"
	"github.com/imamik/appinstaller/internal/pipeline"
	"github.com/imamik/appinstaller/internal/transport"
	"github.com/imamik/appinstaller/internal/wizard"
)

// LeaveWarning is shown when the user quits while a chain is running.
const LeaveWarning = "The installation is not yet completed. Are you sure that you want to leave?"

var (
	// ErrRequirements is returned by Init when the server misses requirements.
	ErrRequirements = errors.New("server requirements not met")
	// ErrNotStarted is returned by Do before Init.
	ErrNotStarted = errors.New("client not initialized")
	// ErrUnknownAction is returned for names no screen binds.
	ErrUnknownAction = errors.New("unknown client action")
)

// Upgrader applies the database changes of an upgraded codebase.
type Upgrader interface {
	Upgrade(ctx context.Context, rootURL string) error
}

// Transport issues actions and reads the runtime descriptor.
type Transport interface {
	pipeline.Fetcher
	Runtime(ctx context.Context) (deployment.Runtime, error)
}

// Options configure a Client.
type Options struct {
	// Endpoint is the installer server URL.
	Endpoint string
	// Upgrade selects the upgrade process.
	Upgrade bool
	// SettingsFile is the settings path relative to the working directory.
	SettingsFile string
	View         wizard.View
	HTTPClient   *http.Client
	Upgrader     Upgrader
	Observer     pipeline.Observer
	// Busy is called when a request starts and ends.
	Busy func(bool)
	Log  logr.Logger
	// Transport replaces the HTTP transport built from Endpoint.
	Transport Transport
}

// Client is the installer client. It is not safe for concurrent use.
type Client struct {
	opts      Options
	transport Transport
	nav       *wizard.MemoryNavigator
	machine   *wizard.Machine
	session   *wizard.Session
	driver    *pipeline.Driver
	runtime   deployment.Runtime
	record    *pipeline.InstallationRecord
	log       logr.Logger
}

// New returns a client. Init must be called before anything else.
func New(opts Options) *Client {
	if opts.View == nil {
		opts.View = wizard.NopView{}
	}
	c := &Client{
		opts:    opts,
		nav:     wizard.NewMemoryNavigator(),
		session: wizard.NewSession(opts.Upgrade),
		log:     opts.Log,
	}
	c.transport = opts.Transport
	if c.transport == nil {
		topts := []transport.Option{
			transport.WithAppURL(config.DefaultAppURL),
			transport.WithLogger(opts.Log),
		}
		if opts.HTTPClient != nil {
			topts = append(topts, transport.WithHTTPClient(opts.HTTPClient))
		}
		if opts.Busy != nil {
			topts = append(topts, transport.WithBusy(opts.Busy))
		}
		c.transport = transport.New(opts.Endpoint, machineUI{c}, topts...)
	}
	observer := opts.Observer
	if observer == nil {
		observer = pipeline.NewLogObserver(opts.Log)
	}
	c.driver = pipeline.NewDriver(c.transport, machineUI{c}, observer)
	return c
}

// Init reads the runtime descriptor, builds the screens and shows the
// initial one. Missing server requirements show the error screen and return
// ErrRequirements.
func (c *Client) Init(ctx context.Context) error {
	rt, err := c.transport.Runtime(ctx)
	if err != nil {
		return err
	}
	c.runtime = rt

	screens := wizard.DefaultScreens(rt.Patterns)
	c.machine = wizard.NewMachine(screens, c.nav, wizard.WithView(c.opts.View))
	c.machine.SetSubmitter(func(trigger, arg string) error {
		return c.Do(ctx, trigger, arg)
	})

	if rt.ServerString != "" {
		c.machine.Log(rt.ServerString)
	}

	if len(rt.Errors) > 0 {
		if err := c.machine.Start(wizard.ScreenError); err != nil {
			return err
		}
		c.machine.PushAlert(strings.Join(rt.Errors, "\n"))
		return fmt.Errorf("%w: %s", ErrRequirements, strings.Join(rt.Errors, "; "))
	}
	return c.machine.Start(wizard.InitialScreen(c.session.Upgrade()))
}

// Machine returns the wizard state machine.
func (c *Client) Machine() *wizard.Machine { return c.machine }

// Session returns the collected configuration.
func (c *Client) Session() *wizard.Session { return c.session }

// Runtime returns the runtime descriptor read by Init.
func (c *Client) Runtime() deployment.Runtime { return c.runtime }

// Record returns the summary of a completed installation, or nil.
func (c *Client) Record() *pipeline.InstallationRecord { return c.record }

// Done reports whether a terminal screen was reached.
func (c *Client) Done() bool {
	return c.machine != nil && c.machine.Current() != nil && c.machine.Current().ID.Terminal()
}

// CanLeave returns the warning to show before quitting, or "" when leaving
// is safe.
func (c *Client) CanLeave() string {
	if c.machine != nil && c.machine.Installing() {
		return LeaveWarning
	}
	return ""
}

// CanBack reports whether there is a previous history entry.
func (c *Client) CanBack() bool { return c.nav.CanBack() }

// CanForward reports whether there is a next history entry.
func (c *Client) CanForward() bool { return c.nav.CanForward() }

// Back moves to the previous history entry.
func (c *Client) Back() error {
	e, ok := c.nav.Back()
	if !ok {
		return nil
	}
	return c.machine.Navigated(e)
}

// Forward moves to the next history entry. Leaving a form screen this way
// validates and submits it.
func (c *Client) Forward() error {
	e, ok := c.nav.Forward()
	if !ok {
		return nil
	}
	return c.machine.Navigated(e)
}

// Do runs the client action name with arg.
func (c *Client) Do(ctx context.Context, name, arg string) error {
	if c.machine == nil {
		return ErrNotStarted
	}
	c.log.V(1).Info("client action", "name", name, "arg", arg)
	switch name {
	case wizard.ActShow:
		return c.machine.Show(wizard.ScreenID(arg))
	case wizard.ActSetLicense:
		return c.setLicense(ctx, arg)
	case wizard.ActSetSoftware:
		return c.setSoftware(arg)
	case wizard.ActSetUpgrade:
		return c.setUpgrade(ctx)
	case wizard.ActCPanelProcess:
		return c.cPanelProcess(ctx)
	case wizard.ActSetDb:
		return c.setDb(ctx)
	case wizard.ActSetAdmin:
		return c.commitForm(wizard.SectionAdmin, wizard.ScreenEmails)
	case wizard.ActSetEmails:
		return c.commitForm(wizard.SectionEmail, wizard.ScreenReady)
	case wizard.ActInstall:
		return c.runChain(ctx, wizard.ScreenInstalling, wizard.ScreenComplete, pipeline.InstallCompleted)
	case wizard.ActUpgrade:
		return c.runChain(ctx, wizard.ScreenUpgrading, wizard.ScreenCompleteUpgrade, pipeline.UpgradeCompleted)
	case wizard.ActContinueUpgrade:
		return c.continueUpgrade(ctx)
	default:
		return fmt.Errorf("%w: %s", ErrUnknownAction, name)
	}
}

// machineUI reports transport and pipeline progress to the machine built by
// Init.
type machineUI struct {
	c *Client
}

func (u machineUI) Log(msg string)          { u.c.machine.Log(msg) }
func (u machineUI) PushAlert(msg string)    { u.c.machine.PushAlert(msg) }
func (u machineUI) PopAlert()               { u.c.machine.PopAlert() }
func (u machineUI) Installing() bool        { return u.c.machine.Installing() }
func (u machineUI) AbortInstall(msg string) { u.c.machine.AbortInstall(msg) }
