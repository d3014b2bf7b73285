package dispatch

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imamik/appinstaller/internal/config"
	"github.com/imamik/appinstaller/internal/deployment"
	"github.com/imamik/appinstaller/internal/envelope"
)

func newTestServer(t *testing.T, set ActionSet, opts ...Option) *httptest.Server {
	t.Helper()
	cfg := config.Default()
	cfg.Paths.WorkingDir = t.TempDir()
	srv := httptest.NewServer(NewServer(cfg, New(set, opts...)).Handler())
	t.Cleanup(srv.Close)
	return srv
}

func postAction(t *testing.T, srv *httptest.Server, form url.Values) (*http.Response, *envelope.Response) {
	t.Helper()
	resp, err := http.PostForm(srv.URL+"/", form)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	var env envelope.Response
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	return resp, &env
}

func TestServerAction(t *testing.T) {
	t.Parallel()

	var params envelope.Params
	var rt deployment.Runtime
	set := &stubSet{fns: map[envelope.Action]Handler{
		envelope.ActionCheckDatabase: func(_ context.Context, c *Call) (*envelope.Response, error) {
			params = c.Params
			rt = c.Runtime
			return envelope.OK("Database ok", envelope.Data{"db": envelope.Data{"name": c.Params.Get("name")}}), nil
		},
	}}
	srv := newTestServer(t, set)

	httpResp, env := postAction(t, srv, url.Values{"action": {"checkDatabase"}, "name": {"app"}, "host": {"localhost"}})

	assert.Equal(t, http.StatusOK, httpResp.StatusCode)
	assert.Equal(t, "application/json; charset=utf-8", httpResp.Header.Get("Content-Type"))
	assert.Equal(t, 200, env.Code)
	assert.Equal(t, "app", env.Data.String("db", "name"))
	assert.Equal(t, envelope.Params{"name": "app", "host": "localhost"}, params, "action is not a parameter")
	assert.True(t, strings.HasPrefix(rt.RootURL, "http://127.0.0.1"))
}

func TestServerStatusMirrorsEnvelopeCode(t *testing.T) {
	t.Parallel()

	set := &stubSet{fns: map[envelope.Action]Handler{
		envelope.ActionCheckLicense: func(context.Context, *Call) (*envelope.Response, error) {
			return nil, envelope.NewError(envelope.CodeBadRequest, "Invalid license key")
		},
		envelope.ActionDownload: func(context.Context, *Call) (*envelope.Response, error) {
			return &envelope.Response{Code: 599, Message: "odd"}, nil
		},
	}}
	srv := newTestServer(t, set)

	httpResp, env := postAction(t, srv, url.Values{"action": {"checkLicense"}})
	assert.Equal(t, http.StatusBadRequest, httpResp.StatusCode)
	assert.Equal(t, "Invalid license key", env.Message)

	httpResp, env = postAction(t, srv, url.Values{"action": {"download"}})
	assert.Equal(t, http.StatusInternalServerError, httpResp.StatusCode)
	assert.Equal(t, 599, env.Code)

	httpResp, env = postAction(t, srv, url.Values{"action": {"unknown"}})
	assert.Equal(t, http.StatusBadRequest, httpResp.StatusCode)
	assert.Equal(t, `Invalid action "unknown"`, env.Message)
}

func TestServerRequirementGate(t *testing.T) {
	t.Parallel()

	set := &stubSet{}
	srv := newTestServer(t, set, WithRequirements(staticRequirements{"Missing zip support"}))

	httpResp, env := postAction(t, srv, url.Values{"action": {"download"}})
	assert.Equal(t, http.StatusInternalServerError, httpResp.StatusCode)
	assert.Equal(t, MissingRequirements, env.Message)
	assert.Equal(t, []string{"Missing zip support"}, env.Data.Strings("errors"))
	assert.Empty(t, set.calls)

	page, err := http.Get(srv.URL + "/")
	require.NoError(t, err)
	defer func() { _ = page.Body.Close() }()
	assert.Equal(t, http.StatusInternalServerError, page.StatusCode)
	body := readBody(t, page)
	assert.Contains(t, body, "Aw, Snap!")
	assert.Contains(t, body, "<li>Missing zip support</li>")
}

func TestServerNginxRules(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, &stubSet{})
	resp, err := http.Get(srv.URL + "/?getNginxRules")
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/plain; charset=utf-8", resp.Header.Get("Content-Type"))
	assert.Contains(t, readBody(t, resp), "client_max_body_size")
}

func TestServerRuntime(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, &stubSet{}, WithRequirements(staticRequirements{"no"}))
	resp, err := http.Get(srv.URL + "/?runtime")
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	var rt deployment.Runtime
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&rt))
	assert.Equal(t, "/", rt.RelPath)
	assert.Equal(t, "http", rt.HTTPProtocol)
	assert.Equal(t, []string{"no"}, rt.Errors)
	assert.NotEmpty(t, rt.Patterns.Username)
}

func TestServerStatusPage(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, &stubSet{})
	resp, err := http.Get(srv.URL + "/")
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	body := readBody(t, resp)
	assert.Contains(t, body, "The installer is ready")
	assert.NotContains(t, body, "Aw, Snap!")
}

func TestServerMethodNotAllowed(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, &stubSet{})
	req, err := http.NewRequest(http.MethodDelete, srv.URL+"/", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestServerMetrics(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	cfg := config.Default()
	cfg.Paths.WorkingDir = t.TempDir()
	d := New(&stubSet{}, WithMetrics(NewMetrics(reg)))
	srv := httptest.NewServer(NewServer(cfg, d, WithGatherer(reg)).Handler())
	t.Cleanup(srv.Close)

	postAction(t, srv, url.Values{"action": {"checkLicense"}})

	resp, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	assert.Contains(t, readBody(t, resp), `appinstaller_dispatch_actions_total{action="checkLicense",result="success"} 1`)
}

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	var b strings.Builder
	_, err := io.Copy(&b, resp.Body)
	require.NoError(t, err)
	return b.String()
}
