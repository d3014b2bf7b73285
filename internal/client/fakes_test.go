package client

import (
	"context"
	"net/http/httptest"
	"sync"

	"github.com/imamik/appinstaller/internal/config"
	"github.com/imamik/appinstaller/internal/dispatch"
	"github.com/imamik/appinstaller/internal/envelope"
)

// fakeActions answers server actions from per-action overrides, or with a
// plausible success.
type fakeActions struct {
	mu        sync.Mutex
	overrides map[envelope.Action]dispatch.Handler
	calls     []envelope.Action
	params    map[envelope.Action][]envelope.Params
}

func newFakeActions() *fakeActions {
	return &fakeActions{
		overrides: map[envelope.Action]dispatch.Handler{},
		params:    map[envelope.Action][]envelope.Params{},
	}
}

func (f *fakeActions) fail(action envelope.Action, code int, message string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.overrides[action] = func(context.Context, *dispatch.Call) (*envelope.Response, error) {
		return nil, envelope.NewError(code, message)
	}
}

func (f *fakeActions) called() []envelope.Action {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]envelope.Action(nil), f.calls...)
}

func (f *fakeActions) count(action envelope.Action) int {
	n := 0
	for _, a := range f.called() {
		if a == action {
			n++
		}
	}
	return n
}

func (f *fakeActions) lastParams(action envelope.Action) envelope.Params {
	f.mu.Lock()
	defer f.mu.Unlock()
	p := f.params[action]
	if len(p) == 0 {
		return nil
	}
	return p[len(p)-1]
}

func (f *fakeActions) handle(ctx context.Context, call *dispatch.Call, def func() *envelope.Response) (*envelope.Response, error) {
	f.mu.Lock()
	f.calls = append(f.calls, call.Action)
	f.params[call.Action] = append(f.params[call.Action], call.Params)
	fn, ok := f.overrides[call.Action]
	f.mu.Unlock()
	if ok {
		return fn(ctx, call)
	}
	return def(), nil
}

func (f *fakeActions) CheckLicense(ctx context.Context, c *dispatch.Call) (*envelope.Response, error) {
	return f.handle(ctx, c, func() *envelope.Response { return envelope.OK("Valid license key", nil) })
}

func (f *fakeActions) CPanelHtaccessHandlers(ctx context.Context, c *dispatch.Call) (*envelope.Response, error) {
	return f.handle(ctx, c, func() *envelope.Response {
		return envelope.OK("cPanel .htaccess handlers found", envelope.Data{"handlers": "AddHandler application/x-httpd-ea-php74 .php"})
	})
}

func (f *fakeActions) Download(ctx context.Context, c *dispatch.Call) (*envelope.Response, error) {
	return f.handle(ctx, c, func() *envelope.Response {
		return envelope.OK("Downloaded chevereto.zip (12 MB)", envelope.Data{
			"filePath":     "/tmp/downloads/chevereto.zip",
			"fileBasename": "chevereto.zip",
		})
	})
}

func (f *fakeActions) Extract(ctx context.Context, c *dispatch.Call) (*envelope.Response, error) {
	return f.handle(ctx, c, func() *envelope.Response { return envelope.OK("Extraction completed (42 files)", nil) })
}

func (f *fakeActions) CPanelProcess(ctx context.Context, c *dispatch.Call) (*envelope.Response, error) {
	return f.handle(ctx, c, func() *envelope.Response {
		return envelope.OK("Database cp_chevereto created", envelope.Data{"db": map[string]string{
			"host":         "localhost",
			"port":         "3306",
			"name":         "cp_chevereto",
			"user":         "cp_chevereto",
			"userPassword": "generated",
		}})
	})
}

func (f *fakeActions) CheckDatabase(ctx context.Context, c *dispatch.Call) (*envelope.Response, error) {
	return f.handle(ctx, c, func() *envelope.Response { return envelope.OK("Database OK", nil) })
}

func (f *fakeActions) CreateSettings(ctx context.Context, c *dispatch.Call) (*envelope.Response, error) {
	return f.handle(ctx, c, func() *envelope.Response { return envelope.OK("Settings file created", nil) })
}

func (f *fakeActions) SubmitInstallForm(ctx context.Context, c *dispatch.Call) (*envelope.Response, error) {
	return f.handle(ctx, c, func() *envelope.Response { return envelope.OK("Setup completed", nil) })
}

func (f *fakeActions) SelfDestruct(ctx context.Context, c *dispatch.Call) (*envelope.Response, error) {
	return f.handle(ctx, c, func() *envelope.Response { return envelope.OK("Installer removed", nil) })
}

type staticRequirements []string

func (s staticRequirements) Errors(context.Context) []string { return s }

type fakeUpgrader struct {
	rootURLs []string
	err      error
}

func (u *fakeUpgrader) Upgrade(_ context.Context, rootURL string) error {
	u.rootURLs = append(u.rootURLs, rootURL)
	return u.err
}

// newInstallerServer serves actions through the real dispatcher.
func newInstallerServer(actions *fakeActions, opts ...dispatch.Option) *httptest.Server {
	cfg := config.Default()
	cfg.Paths.WorkingDir = "/var/www/html"
	cfg.Paths.InstallerFile = "/var/www/html/installer.php"
	d := dispatch.New(actions, opts...)
	return httptest.NewServer(dispatch.NewServer(cfg, d).Handler())
}
