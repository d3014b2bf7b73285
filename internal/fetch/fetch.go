// Package fetch downloads release archives of the installable editions.
//
// Paid editions are served by the vendor in exchange for a license key, free
// editions resolve their latest GitHub release first. When a mirror is set,
// every edition is read from it instead.
package fetch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/go-logr/logr"
	"github.com/google/uuid"

	"github.com/imamik/appinstaller/internal/config"
	"github.com/imamik/appinstaller/internal/envelope"
	"github.com/imamik/appinstaller/internal/util/retry"
)

// Mirror is the object-storage source of release archives.
type Mirror interface {
	LatestKey(ctx context.Context, software string) (string, error)
	Download(ctx context.Context, key string, w io.Writer) (int64, error)
}

// Package is a downloaded archive.
type Package struct {
	FilePath     string
	FileBasename string
	Size         int64
}

// Data returns the envelope payload describing the package.
func (p Package) Data() envelope.Data {
	return envelope.Data{
		"filePath":     p.FilePath,
		"fileBasename": p.FileBasename,
		"size":         humanize.Bytes(uint64(p.Size)),
	}
}

// Fetcher downloads packages into a directory.
type Fetcher struct {
	apps    map[string]config.Application
	dir     string
	client  *http.Client
	mirror  Mirror
	log     logr.Logger
	retries []retry.Option
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(f *Fetcher) { f.client = c }
}

// WithMirror reads every package from m.
func WithMirror(m Mirror) Option {
	return func(f *Fetcher) { f.mirror = m }
}

// WithLogger sets the logger.
func WithLogger(log logr.Logger) Option {
	return func(f *Fetcher) { f.log = log }
}

// WithRetry sets the retry policy for transient download failures.
func WithRetry(opts ...retry.Option) Option {
	return func(f *Fetcher) { f.retries = opts }
}

// New returns a fetcher for the application catalog apps writing into dir.
func New(apps map[string]config.Application, dir string, opts ...Option) *Fetcher {
	f := &Fetcher{
		apps:   apps,
		dir:    dir,
		client: &http.Client{Timeout: 10 * time.Minute},
		log:    logr.Discard(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch downloads the latest release of software.
func (f *Fetcher) Fetch(ctx context.Context, software, license string) (Package, error) {
	app, ok := f.apps[software]
	if !ok {
		return Package{}, envelope.Errorf(envelope.CodeBadRequest, "Invalid software %q", software)
	}
	if app.RequiresLicense && strings.TrimSpace(license) == "" && f.mirror == nil {
		return Package{}, envelope.NewError(envelope.CodeBadRequest, "Missing license parameter")
	}

	basename := fmt.Sprintf("%s-pkg-%s.zip", software, uuid.NewString()[:8])
	path := filepath.Join(f.dir, basename)
	log := f.log.WithValues("software", software, "file", basename)

	opts := append([]retry.Option{retry.WithLogger(log)}, f.retries...)
	var size int64
	err := retry.Do(ctx, func(ctx context.Context) error {
		n, err := f.download(ctx, software, app, license, path)
		size = n
		return err
	}, opts...)
	if err != nil {
		_ = os.Remove(path)
		if envelope.CodeOf(err) != envelope.CodeInternalServerError {
			return Package{}, err
		}
		return Package{}, envelope.Errorf(envelope.CodeBadGateway, "Unable to download %s: %v", app.Name, err)
	}

	log.Info("package downloaded", "size", humanize.Bytes(uint64(size)))
	return Package{FilePath: path, FileBasename: basename, Size: size}, nil
}

func (f *Fetcher) download(ctx context.Context, software string, app config.Application, license, path string) (int64, error) {
	out, err := os.Create(path)
	if err != nil {
		return 0, retry.Permanent(fmt.Errorf("failed to create %s: %w", path, err))
	}
	defer func() { _ = out.Close() }()

	if f.mirror != nil {
		key, err := f.mirror.LatestKey(ctx, software)
		if err != nil {
			return 0, err
		}
		return f.mirror.Download(ctx, key, out)
	}

	req, err := f.request(ctx, app, license)
	if err != nil {
		return 0, err
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("download request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if err := statusError(resp); err != nil {
		return 0, err
	}
	return io.Copy(out, resp.Body)
}

// request builds the archive request. Licensed editions POST the key to the
// zipball URL; GitHub latest-release URLs are resolved to their zipball.
func (f *Fetcher) request(ctx context.Context, app config.Application, license string) (*http.Request, error) {
	if app.RequiresLicense {
		form := url.Values{"license": {license}}
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, app.Zipball, strings.NewReader(form.Encode()))
		if err != nil {
			return nil, retry.Permanent(err)
		}
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		return req, nil
	}

	zipball := app.Zipball
	if isLatestRelease(zipball) {
		resolved, err := f.resolveLatest(ctx, zipball)
		if err != nil {
			return nil, err
		}
		zipball = resolved
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, zipball, nil)
	if err != nil {
		return nil, retry.Permanent(err)
	}
	return req, nil
}

func (f *Fetcher) resolveLatest(ctx context.Context, api string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, api, nil)
	if err != nil {
		return "", retry.Permanent(err)
	}
	req.Header.Set("Accept", "application/vnd.github+json")

	resp, err := f.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("release lookup failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if err := statusError(resp); err != nil {
		return "", err
	}

	var release struct {
		TagName    string `json:"tag_name"`
		ZipballURL string `json:"zipball_url"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&release); err != nil {
		return "", retry.Permanent(fmt.Errorf("failed to parse release: %w", err))
	}
	if release.ZipballURL == "" {
		return "", retry.Permanent(errors.New("release has no zipball"))
	}
	f.log.V(1).Info("resolved latest release", "tag", release.TagName)
	return release.ZipballURL, nil
}

func statusError(resp *http.Response) error {
	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return nil
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return retry.Permanent(envelope.NewError(envelope.CodeForbidden, "Invalid license key"))
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		return retry.Permanent(fmt.Errorf("server returned %s", resp.Status))
	default:
		return fmt.Errorf("server returned %s", resp.Status)
	}
}

func isLatestRelease(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return strings.HasSuffix(u.Path, "/releases/latest")
}
