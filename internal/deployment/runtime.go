// Package deployment describes where the installer runs and where the
// application will be reachable once installed.
package deployment

import (
	"fmt"
	"net/http"
	"net/url"
	"path"
	"path/filepath"
	goruntime "runtime"
	"strings"

	"github.com/imamik/appinstaller/internal/config"
)

// Runtime is the deployment descriptor shared with the client.
type Runtime struct {
	AbsPath           string          `json:"absPath"`
	RelPath           string          `json:"relPath"`
	RootURL           string          `json:"rootUrl"`
	HTTPProtocol      string          `json:"httpProtocol"`
	InstallerFilename string          `json:"installerFilename"`
	InstallerFilepath string          `json:"installerFilepath"`
	ServerSoftware    string          `json:"serverSoftware"`
	ServerString      string          `json:"serverString"`
	AppURL            string          `json:"appUrl"`
	Patterns          config.Patterns `json:"patterns"`
	Errors            []string        `json:"errors,omitempty"`
}

// Detect builds the descriptor for a request. A configured root URL wins over
// whatever the request says.
func Detect(r *http.Request, cfg *config.Config) Runtime {
	rt := Runtime{
		AbsPath:           withTrailingSeparator(cfg.Paths.WorkingDir),
		InstallerFilepath: cfg.Paths.InstallerFile,
		ServerSoftware:    cfg.Server.Software,
		AppURL:            cfg.App.URL,
		Patterns:          cfg.Patterns,
	}
	if cfg.Paths.InstallerFile != "" {
		rt.InstallerFilename = filepath.Base(cfg.Paths.InstallerFile)
	}

	if cfg.Server.RootURL != "" {
		if u, err := url.Parse(cfg.Server.RootURL); err == nil {
			rt.HTTPProtocol = u.Scheme
			rt.RelPath = withTrailingSlash(u.Path)
			u.Path = rt.RelPath
			rt.RootURL = u.String()
		}
	} else if r != nil {
		rt.HTTPProtocol = RequestScheme(r)
		rt.RelPath = RelPath(r.URL.Path)
		rt.RootURL = fmt.Sprintf("%s://%s%s", rt.HTTPProtocol, r.Host, rt.RelPath)
	}

	rt.ServerString = fmt.Sprintf("Server %s (%s %s/%s)", rt.ServerSoftware, goruntime.Version(), goruntime.GOOS, goruntime.GOARCH)
	return rt
}

// RequestScheme returns the scheme the client used, honoring reverse proxies.
func RequestScheme(r *http.Request) string {
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		return strings.ToLower(strings.TrimSpace(strings.Split(proto, ",")[0]))
	}
	if r.TLS != nil {
		return "https"
	}
	return "http"
}

// RelPath returns the directory part of a request path with a trailing slash.
func RelPath(requestPath string) string {
	if requestPath == "" || requestPath == "/" {
		return "/"
	}
	if strings.HasSuffix(requestPath, "/") {
		return requestPath
	}
	return withTrailingSlash(path.Dir(requestPath))
}

// IsNginx reports whether the server software string names nginx.
func (rt Runtime) IsNginx() bool {
	return strings.Contains(strings.ToLower(rt.ServerSoftware), "nginx")
}

// SettingsFilepath returns the absolute path of the settings file.
func (rt Runtime) SettingsFilepath(rel string) string {
	return rt.AbsPath + filepath.FromSlash(rel)
}

func withTrailingSlash(p string) string {
	if !strings.HasSuffix(p, "/") {
		return p + "/"
	}
	return p
}

func withTrailingSeparator(p string) string {
	if p == "" {
		return p
	}
	if !strings.HasSuffix(p, string(filepath.Separator)) {
		return p + string(filepath.Separator)
	}
	return p
}
