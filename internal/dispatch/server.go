package dispatch

import (
	"encoding/json"
	"html/template"
	"net/http"

	"github.com/go-logr/logr"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/imamik/appinstaller/internal/config"
	"github.com/imamik/appinstaller/internal/deployment"
	"github.com/imamik/appinstaller/internal/envelope"
)

// maxFormBytes bounds the size of an action request body.
const maxFormBytes = 1 << 20

// Server exposes a Dispatcher over HTTP.
type Server struct {
	cfg        *config.Config
	dispatcher *Dispatcher
	gatherer   prometheus.Gatherer
	log        logr.Logger
}

// ServerOption configures a Server.
type ServerOption func(*Server)

// WithGatherer serves the collectors of g on /metrics.
func WithGatherer(g prometheus.Gatherer) ServerOption {
	return func(s *Server) { s.gatherer = g }
}

// WithServerLogger sets the logger.
func WithServerLogger(log logr.Logger) ServerOption {
	return func(s *Server) { s.log = log }
}

// NewServer returns a Server for d.
func NewServer(cfg *config.Config, d *Dispatcher, opts ...ServerOption) *Server {
	s := &Server{cfg: cfg, dispatcher: d, log: logr.Discard()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler returns the HTTP handler with every route mounted.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	if s.gatherer != nil {
		mux.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}
	mux.HandleFunc("/", s.serveRoot)
	return mux
}

func (s *Server) serveRoot(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		s.serveAction(w, r)
	case http.MethodGet, http.MethodHead:
		query := r.URL.Query()
		switch {
		case query.Has("getNginxRules"):
			s.serveNginxRules(w, r)
		case query.Has("runtime"):
			s.serveRuntime(w, r)
		default:
			s.serveStatus(w, r)
		}
	default:
		w.Header().Set("Allow", "GET, HEAD, POST")
		writeEnvelope(w, envelope.Fail(http.StatusMethodNotAllowed, "Method not allowed"))
	}
}

func (s *Server) serveAction(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxFormBytes)
	if err := r.ParseForm(); err != nil {
		writeEnvelope(w, envelope.Fail(envelope.CodeBadRequest, "Unable to parse request"))
		return
	}
	params := envelope.Params{}
	for key, values := range r.PostForm {
		if key == "action" || len(values) == 0 {
			continue
		}
		params[key] = values[0]
	}
	rt := deployment.Detect(r, s.cfg)
	writeEnvelope(w, s.dispatcher.Dispatch(r.Context(), r.PostForm.Get("action"), params, rt))
}

func (s *Server) serveNginxRules(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte(deployment.NginxRules(deployment.Detect(r, s.cfg))))
}

func (s *Server) serveRuntime(w http.ResponseWriter, r *http.Request) {
	rt := deployment.Detect(r, s.cfg)
	rt.Errors = s.dispatcher.RequirementErrors(r.Context())
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	if err := json.NewEncoder(w).Encode(rt); err != nil {
		s.log.Error(err, "failed to encode runtime")
	}
}

func (s *Server) serveStatus(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" && r.URL.Path != s.relPath(r) {
		http.NotFound(w, r)
		return
	}
	rt := deployment.Detect(r, s.cfg)
	page := statusPage{
		AppName:    s.cfg.App.Name,
		AppVersion: s.cfg.App.Version,
		AppURL:     s.cfg.App.URL,
		Runtime:    rt,
		Errors:     s.dispatcher.RequirementErrors(r.Context()),
	}
	page.Title = page.AppName
	status := http.StatusOK
	if len(page.Errors) > 0 {
		page.Title = "Aw, Snap!"
		status = http.StatusInternalServerError
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := statusTemplate.Execute(w, page); err != nil {
		s.log.Error(err, "failed to render status page")
	}
}

func (s *Server) relPath(r *http.Request) string {
	return deployment.Detect(r, s.cfg).RelPath
}

// writeEnvelope writes resp as JSON. The HTTP status mirrors the envelope
// code when it is a known HTTP status.
func writeEnvelope(w http.ResponseWriter, resp *envelope.Response) {
	status := resp.Code
	if http.StatusText(status) == "" {
		status = http.StatusOK
		if !resp.Success() {
			status = http.StatusInternalServerError
		}
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(resp)
}

type statusPage struct {
	Title      string
	AppName    string
	AppVersion string
	AppURL     string
	Runtime    deployment.Runtime
	Errors     []string
}

var statusTemplate = template.Must(template.New("status").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>{{.Title}}</title>
</head>
<body>
{{- if .Errors}}
<main class="error">
<h1>Aw, Snap!</h1>
<p>Your web server lacks some requirements that must be fixed to install {{.AppName}}.</p>
<p>Please check:</p>
<ul>
{{- range .Errors}}
<li>{{.}}</li>
{{- end}}
</ul>
<p>If you already fixed your web server then make sure to restart it to apply changes. If the problem persists, contact your server administrator.</p>
<p>Check our <a href="{{.AppURL}}" target="_blank" rel="noopener">documentation</a> for more information.</p>
</main>
{{- else}}
<main>
<h1>{{.AppName}} {{.AppVersion}}</h1>
<p>The installer is ready. Run <code>appinstaller run --server {{.Runtime.RootURL}}</code> to start the guided setup.</p>
<dl>
<dt>Root URL</dt><dd>{{.Runtime.RootURL}}</dd>
<dt>Path</dt><dd>{{.Runtime.AbsPath}}</dd>
<dt>Installer</dt><dd>{{.Runtime.InstallerFilepath}}</dd>
<dt>Server</dt><dd>{{.Runtime.ServerString}}</dd>
</dl>
{{- if .Runtime.IsNginx}}
<p>Nginx users must add the server rules available at <a href="?getNginxRules">?getNginxRules</a>.</p>
{{- end}}
</main>
{{- end}}
</body>
</html>
`))
