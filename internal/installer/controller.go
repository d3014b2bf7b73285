package installer

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"path/filepath"

	"github.com/imamik/appinstaller/internal/archive"
	"github.com/imamik/appinstaller/internal/bootstrap"
	"github.com/imamik/appinstaller/internal/config"
	"github.com/imamik/appinstaller/internal/database"
	"github.com/imamik/appinstaller/internal/dispatch"
	"github.com/imamik/appinstaller/internal/envelope"
	"github.com/imamik/appinstaller/internal/fetch"
	"github.com/imamik/appinstaller/internal/platform/cpanel"
	"github.com/imamik/appinstaller/internal/settings"
)

// LicenseVerifier checks license keys against the vendor.
type LicenseVerifier interface {
	Verify(ctx context.Context, key string) error
}

// PanelProvisioner creates a database through a hosting panel.
type PanelProvisioner interface {
	ProvisionDatabase(ctx context.Context, app string) (cpanel.Database, error)
}

// PanelFactory returns a provisioner authenticated as user.
type PanelFactory func(endpoint, user, password string) PanelProvisioner

// DatabaseChecker verifies a database is usable for a fresh install.
type DatabaseChecker interface {
	Check(ctx context.Context, creds database.Credentials) error
}

// PackageFetcher downloads release archives.
type PackageFetcher interface {
	Fetch(ctx context.Context, software, license string) (fetch.Package, error)
}

// SettingsWriter writes the application settings file.
type SettingsWriter interface {
	Write(path string, creds database.Credentials) error
}

// Bootstrapper runs the application's first-run setup.
type Bootstrapper interface {
	Install(ctx context.Context, rootURL string, form bootstrap.Form) error
}

// Destroyer removes the installer from the host.
type Destroyer interface {
	Destroy() error
	InstallerFile() string
}

// Deps are the collaborators used by the Controller.
type Deps struct {
	License   LicenseVerifier
	Panel     PanelFactory
	Database  DatabaseChecker
	Fetcher   PackageFetcher
	Settings  SettingsWriter
	Bootstrap Bootstrapper
	Destroyer Destroyer
}

// Controller implements dispatch.ActionSet.
type Controller struct {
	cfg      *config.Config
	timeouts *config.Timeouts
	deps     Deps
}

var _ dispatch.ActionSet = (*Controller)(nil)

// New returns a Controller for cfg.
func New(cfg *config.Config, timeouts *config.Timeouts, deps Deps) *Controller {
	return &Controller{cfg: cfg, timeouts: timeouts, deps: deps}
}

// CheckLicense verifies the license parameter.
func (c *Controller) CheckLicense(ctx context.Context, call *dispatch.Call) (*envelope.Response, error) {
	if err := call.Params.Require("license"); err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(ctx, c.timeouts.License)
	defer cancel()

	if err := c.deps.License.Verify(ctx, call.Params.Get("license")); err != nil {
		return nil, err
	}
	return envelope.OK("Valid license key", nil), nil
}

// CPanelHtaccessHandlers reports the cPanel handler block of the working
// directory .htaccess file.
func (c *Controller) CPanelHtaccessHandlers(_ context.Context, call *dispatch.Call) (*envelope.Response, error) {
	handlers, err := cpanel.HtaccessHandlers(c.cfg.Paths.WorkingDir)
	if errors.Is(err, cpanel.ErrNoHandlers) {
		call.Log.V(1).Info("no cPanel handlers", "reason", err.Error())
		return nil, envelope.NewError(envelope.CodeNotFound, "No cPanel .htaccess handlers found")
	}
	if err != nil {
		return nil, err
	}
	return envelope.OK("cPanel .htaccess handlers found", envelope.Data{"handlers": handlers}), nil
}

// Download fetches the latest release of the software parameter.
func (c *Controller) Download(ctx context.Context, call *dispatch.Call) (*envelope.Response, error) {
	if err := call.Params.Require("software"); err != nil {
		return nil, err
	}
	software := call.Params.Get("software")
	app, ok := c.cfg.Application(software)
	if !ok {
		return nil, envelope.Errorf(envelope.CodeBadRequest, "Invalid software %q", software)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeouts.Download)
	defer cancel()

	pkg, err := c.deps.Fetcher.Fetch(ctx, software, call.Params.Get("license"))
	if err != nil {
		return nil, err
	}
	call.Log.Info("downloaded", "file", pkg.FilePath, "bytes", pkg.Size)
	data := pkg.Data()
	return envelope.OK(fmt.Sprintf("Downloaded %s (%s)", app.Name, data.String("size")), data), nil
}

// Extract unpacks a downloaded archive into the working path.
func (c *Controller) Extract(ctx context.Context, call *dispatch.Call) (*envelope.Response, error) {
	if err := call.Params.Require("software", "filePath", "workingPath"); err != nil {
		return nil, err
	}
	software := call.Params.Get("software")
	app, ok := c.cfg.Application(software)
	if !ok {
		return nil, envelope.Errorf(envelope.CodeBadRequest, "Invalid software %q", software)
	}

	workingPath := call.Params.Get("workingPath")
	if !settings.Within(c.cfg.Paths.WorkingDir, workingPath) {
		return nil, envelope.Errorf(envelope.CodeForbidden, "Working path %s is outside %s", workingPath, c.cfg.Paths.WorkingDir)
	}
	filePath := call.Params.Get("filePath")
	if !settings.Within(c.cfg.DownloadDir(), filePath) {
		return nil, envelope.Errorf(envelope.CodeForbidden, "File %s is outside %s", filePath, c.cfg.DownloadDir())
	}
	if _, err := os.Stat(filePath); err != nil {
		return nil, envelope.Errorf(envelope.CodeNotFound, "File %s doesn't exist", filePath)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeouts.Extract)
	defer cancel()

	stats, err := archive.Extract(ctx, filePath, workingPath, archive.Options{
		Folder:         app.Folder,
		AppendHtaccess: call.Params.Get("appendHtaccess"),
		RemoveArchive:  true,
	})
	if errors.Is(err, archive.ErrEmpty) {
		return nil, envelope.WithCode(err, envelope.CodeUnprocessable)
	}
	if err != nil {
		return nil, fmt.Errorf("unable to extract %s: %w", filepath.Base(filePath), err)
	}
	call.Log.Info("extracted", "stats", stats.String())
	return envelope.OK(fmt.Sprintf("Extraction completed (%s)", stats), envelope.Data{
		"files":     stats.Files,
		"htaccess":  stats.Htaccess,
		"destroyed": stats.Destroyed,
	}), nil
}

// CPanelProcess provisions a database through the cPanel account given by the
// user and password parameters.
func (c *Controller) CPanelProcess(ctx context.Context, call *dispatch.Call) (*envelope.Response, error) {
	if err := call.Params.Require("user", "password"); err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(ctx, c.timeouts.Panel)
	defer cancel()

	panel := c.deps.Panel(c.panelEndpoint(call.Runtime.RootURL), call.Params.Get("user"), call.Params.Get("password"))
	db, err := panel.ProvisionDatabase(ctx, config.SoftwarePaid)
	if errors.Is(err, cpanel.ErrUnauthorized) {
		return nil, envelope.NewError(envelope.CodeForbidden, "Invalid cPanel credentials")
	}
	if err != nil {
		return nil, envelope.WithCode(err, envelope.CodeBadGateway)
	}

	creds := database.Credentials{
		Host:         c.cfg.Panel.DatabaseHost,
		Port:         c.cfg.Panel.DatabasePort,
		Name:         db.Name,
		User:         db.User,
		UserPassword: db.UserPassword,
	}
	call.Log.Info("database provisioned", "database", db.Name, "user", db.User)
	return envelope.OK(fmt.Sprintf("Database %s created", db.Name), envelope.Data{"db": credsData(creds)}), nil
}

// CheckDatabase verifies the database given by the connection parameters.
func (c *Controller) CheckDatabase(ctx context.Context, call *dispatch.Call) (*envelope.Response, error) {
	creds, err := database.CredentialsFromParams(call.Params)
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(ctx, c.timeouts.Database)
	defer cancel()

	if err := c.deps.Database.Check(ctx, creds); err != nil {
		return nil, err
	}
	return envelope.OK(fmt.Sprintf("Database %s OK", creds.Name), nil), nil
}

// CreateSettings writes the settings file at filePath.
func (c *Controller) CreateSettings(_ context.Context, call *dispatch.Call) (*envelope.Response, error) {
	creds, err := database.CredentialsFromParams(call.Params)
	if err != nil {
		return nil, err
	}
	if err := call.Params.Require("filePath"); err != nil {
		return nil, err
	}
	path := call.Params.Get("filePath")
	if !settings.Within(c.cfg.Paths.WorkingDir, path) {
		return nil, envelope.Errorf(envelope.CodeForbidden, "Settings file %s is outside %s", path, c.cfg.Paths.WorkingDir)
	}
	if err := c.deps.Settings.Write(path, creds); err != nil {
		return nil, err
	}
	return envelope.OK(fmt.Sprintf("Settings file created at %s", path), nil), nil
}

// SubmitInstallForm runs the application setup with the administrator and
// email parameters.
func (c *Controller) SubmitInstallForm(ctx context.Context, call *dispatch.Call) (*envelope.Response, error) {
	if err := call.Params.Require("username", "email", "password", "email_from_email", "email_incoming_email"); err != nil {
		return nil, err
	}
	form := bootstrap.Form{
		Username:           call.Params.Get("username"),
		Email:              call.Params.Get("email"),
		Password:           call.Params.Get("password"),
		EmailFromEmail:     call.Params.Get("email_from_email"),
		EmailIncomingEmail: call.Params.Get("email_incoming_email"),
		WebsiteMode:        call.Params.Get("website_mode"),
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeouts.Bootstrap)
	defer cancel()

	if err := c.deps.Bootstrap.Install(ctx, call.Runtime.RootURL, form); err != nil {
		return nil, envelope.WithCode(err, envelope.CodeBadGateway)
	}
	return envelope.OK("Setup completed", nil), nil
}

// SelfDestruct removes the installer file and its error log.
func (c *Controller) SelfDestruct(_ context.Context, call *dispatch.Call) (*envelope.Response, error) {
	if err := c.deps.Destroyer.Destroy(); err != nil {
		call.Log.Error(err, "self-destruct failed")
		return nil, envelope.WithCode(err, envelope.CodeServiceUnavailable)
	}
	return envelope.OK("Installer removed", nil), nil
}

// panelEndpoint returns the configured UAPI endpoint or the default cPanel
// port on the request host.
func (c *Controller) panelEndpoint(rootURL string) string {
	if c.cfg.Panel.Endpoint != "" {
		return c.cfg.Panel.Endpoint
	}
	host := "localhost"
	if u, err := url.Parse(rootURL); err == nil && u.Hostname() != "" {
		host = u.Hostname()
	}
	return "https://" + net.JoinHostPort(host, config.DefaultPanelPort)
}

func credsData(creds database.Credentials) envelope.Data {
	data := envelope.Data{}
	for k, v := range creds.Params() {
		data[k] = v
	}
	return data
}
