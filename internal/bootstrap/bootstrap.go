// Package bootstrap drives the first-run setup of the installed application
// through its own install endpoint.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-logr/logr"
)

// InstallPath is the application's setup endpoint, relative to its root URL.
const InstallPath = "install"

// Form is the administrator and email setup submitted to the application.
type Form struct {
	Username           string
	Email              string
	Password           string
	EmailFromEmail     string
	EmailIncomingEmail string
	WebsiteMode        string
}

// Values encodes the form with the application's field names.
func (f Form) Values() url.Values {
	mode := f.WebsiteMode
	if mode == "" {
		mode = "community"
	}
	return url.Values{
		"username":             {f.Username},
		"email":                {f.Email},
		"password":             {f.Password},
		"email_from_email":     {f.EmailFromEmail},
		"email_incoming_email": {f.EmailIncomingEmail},
		"website_mode":         {mode},
	}
}

// ErrSetupFailed is returned when the application rejects the setup.
var ErrSetupFailed = errors.New("application setup failed")

// Client submits setup requests.
type Client struct {
	http *http.Client
	log  logr.Logger
}

// NewClient returns a Client. Redirects are not followed: the application
// answers a successful setup with a redirect to its dashboard.
func NewClient(timeout time.Duration, log logr.Logger) *Client {
	return &Client{
		http: &http.Client{
			Timeout: timeout,
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		log: log,
	}
}

// Install posts form to the setup endpoint under rootURL.
func (c *Client) Install(ctx context.Context, rootURL string, form Form) error {
	body := strings.NewReader(form.Values().Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, Endpoint(rootURL), body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return c.do(req)
}

// Upgrade runs the setup endpoint against an upgraded codebase, which applies
// pending database changes.
func (c *Client) Upgrade(ctx context.Context, rootURL string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, Endpoint(rootURL), nil)
	if err != nil {
		return err
	}
	return c.do(req)
}

func (c *Client) do(req *http.Request) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSetupFailed, err)
	}
	defer func() { _ = resp.Body.Close() }()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 1<<20))

	c.log.V(1).Info("setup endpoint answered", "url", req.URL.String(), "status", resp.StatusCode)
	if resp.StatusCode >= 400 {
		return fmt.Errorf("%w: %s answered %s", ErrSetupFailed, req.URL.String(), resp.Status)
	}
	return nil
}

// Endpoint returns the setup URL for rootURL.
func Endpoint(rootURL string) string {
	if !strings.HasSuffix(rootURL, "/") {
		rootURL += "/"
	}
	return rootURL + InstallPath
}
