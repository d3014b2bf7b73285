package deployment

import (
	"crypto/tls"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/imamik/appinstaller/internal/config"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Paths.WorkingDir = t.TempDir()
	cfg.Paths.InstallerFile = filepath.Join(cfg.Paths.WorkingDir, "installer")
	cfg.Server.Software = "nginx/1.25"
	return cfg
}

func TestDetect_FromRequest(t *testing.T) {
	t.Parallel()
	cfg := testConfig(t)
	req := httptest.NewRequest("POST", "http://example.com/gallery/installer", nil)

	rt := Detect(req, cfg)

	assert.Equal(t, "http", rt.HTTPProtocol)
	assert.Equal(t, "/gallery/", rt.RelPath)
	assert.Equal(t, "http://example.com/gallery/", rt.RootURL)
	assert.Equal(t, cfg.Paths.WorkingDir+string(filepath.Separator), rt.AbsPath)
	assert.Equal(t, "installer", rt.InstallerFilename)
	assert.Contains(t, rt.ServerString, "Server nginx/1.25")
	assert.True(t, rt.IsNginx())
	assert.Equal(t, cfg.Patterns, rt.Patterns)
}

func TestDetect_ConfiguredRootURL(t *testing.T) {
	t.Parallel()
	cfg := testConfig(t)
	cfg.Server.RootURL = "https://images.example.org/site"
	req := httptest.NewRequest("GET", "http://127.0.0.1:8080/", nil)

	rt := Detect(req, cfg)

	assert.Equal(t, "https", rt.HTTPProtocol)
	assert.Equal(t, "/site/", rt.RelPath)
	assert.Equal(t, "https://images.example.org/site/", rt.RootURL)
}

func TestRequestScheme(t *testing.T) {
	t.Parallel()
	req := httptest.NewRequest("GET", "http://example.com/", nil)
	assert.Equal(t, "http", RequestScheme(req))

	req.TLS = &tls.ConnectionState{}
	assert.Equal(t, "https", RequestScheme(req))

	req.TLS = nil
	req.Header.Set("X-Forwarded-Proto", "HTTPS, http")
	assert.Equal(t, "https", RequestScheme(req))
}

func TestRelPath(t *testing.T) {
	t.Parallel()
	tests := map[string]string{
		"":                 "/",
		"/":                "/",
		"/installer":       "/",
		"/a/b/":            "/a/b/",
		"/a/b/installer":   "/a/b/",
		"/a/installer.php": "/a/",
	}
	for in, want := range tests {
		assert.Equal(t, want, RelPath(in), in)
	}
}

func TestNginxRules(t *testing.T) {
	t.Parallel()
	rules := NginxRules(Runtime{RootURL: "https://example.com/gallery/", RelPath: "/gallery/"})

	assert.Contains(t, rules, "# Chevereto NGINX generated rules for https://example.com/gallery/")
	assert.Contains(t, rules, "client_max_body_size 20M;")
	assert.Contains(t, rules, `location ~* /gallery/(app|content|lib)/.*\.(po|php|lock|sql)$ {`)
	assert.Contains(t, rules, "error_page 404 /gallery/content/images/system/default/404.gif;")
	assert.Contains(t, rules, "location /gallery/ {")
	assert.Contains(t, rules, "# END Chevereto NGINX rules")
}
