package transport

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/go-logr/logr"

	"github.com/imamik/appinstaller/internal/deployment"
	"github.com/imamik/appinstaller/internal/envelope"
)

// ErrBusy is returned when a request is already in flight.
var ErrBusy = errors.New("another request is in progress")

// maxBodyBytes bounds how much of a response is read.
const maxBodyBytes = 4 << 20

// maxEchoBytes bounds how much of an unparseable body is echoed to the user.
const maxEchoBytes = 2048

// UI is the part of the wizard a request reports to.
type UI interface {
	Log(msg string)
	PushAlert(msg string)
	PopAlert()
	Installing() bool
	AbortInstall(msg string)
}

// Callbacks customize how one response is handled. Nil fields use the
// defaults: Always logs the message, Error aborts installing mode.
type Callbacks struct {
	Always  func(resp *envelope.Response)
	Success func(resp *envelope.Response)
	// Error returns true when it handled the failure, which suppresses the
	// alert and lets the caller continue.
	Error func(resp *envelope.Response) bool
}

// FailureError is returned for failure envelopes that were not handled.
type FailureError struct {
	Response *envelope.Response
	// Protocol is set when the server answer was not an envelope.
	Protocol bool
}

func (e *FailureError) Error() string {
	return e.Response.Message
}

// Code returns the envelope code.
func (e *FailureError) Code() int {
	return e.Response.Code
}

// Client posts actions to the installer server.
type Client struct {
	endpoint string
	http     *http.Client
	ui       UI
	busy     func(bool)
	appURL   string
	log      logr.Logger

	mu       sync.Mutex
	inFlight bool
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets the HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) { cl.http = c }
}

// WithBusy is called with true before a request and false after it.
func WithBusy(fn func(bool)) Option {
	return func(c *Client) { c.busy = fn }
}

// WithAppURL sets where protocol violations should be reported.
func WithAppURL(u string) Option {
	return func(c *Client) { c.appURL = u }
}

// WithLogger sets the logger.
func WithLogger(log logr.Logger) Option {
	return func(c *Client) { c.log = log }
}

// New returns a Client posting to endpoint and reporting to ui.
func New(endpoint string, ui UI, opts ...Option) *Client {
	if u, err := url.Parse(endpoint); err == nil && u.Path == "" {
		u.Path = "/"
		endpoint = u.String()
	}
	c := &Client{
		endpoint: endpoint,
		http:     &http.Client{},
		ui:       ui,
		busy:     func(bool) {},
		log:      logr.Discard(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Fetch issues action with params and handles the response. It returns the
// response together with a *FailureError when the failure was not handled.
func (c *Client) Fetch(ctx context.Context, action envelope.Action, params map[string]string, cb Callbacks) (*envelope.Response, error) {
	if !c.acquire() {
		return nil, ErrBusy
	}
	defer c.release()

	req := envelope.NewRequest(action, params)
	c.busy(true)
	resp, perr := c.roundTrip(ctx, req)
	c.busy(false)

	if perr != nil {
		c.log.Info("protocol failure", "action", action.String(), "error", perr.Error())
		resp = &envelope.Response{Code: envelope.CodeInternalServerError, Message: perr.Error()}
		c.ui.PushAlert(resp.Message)
		return resp, &FailureError{Response: resp, Protocol: true}
	}

	always := cb.Always
	if always == nil {
		always = func(r *envelope.Response) { c.ui.Log(r.Message) }
	}
	always(resp)

	if resp.Success() {
		c.ui.PopAlert()
		if cb.Success != nil {
			cb.Success(resp)
		}
		return resp, nil
	}

	onError := cb.Error
	if onError == nil {
		onError = c.defaultError
	}
	if onError(resp) {
		return resp, nil
	}
	c.ui.PushAlert(resp.Message)
	return resp, &FailureError{Response: resp}
}

func (c *Client) defaultError(*envelope.Response) bool {
	if c.ui.Installing() {
		c.ui.AbortInstall("")
	}
	return false
}

func (c *Client) acquire() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.inFlight {
		return false
	}
	c.inFlight = true
	return true
}

func (c *Client) release() {
	c.mu.Lock()
	c.inFlight = false
	c.mu.Unlock()
}

// roundTrip posts req and decodes the envelope. Any failure to obtain one is
// returned as a user-facing protocol error.
func (c *Client) roundTrip(ctx context.Context, req envelope.Request) (*envelope.Response, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, strings.NewReader(req.Form().Encode()))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	httpReq.Header.Set("Accept", "application/json")

	httpResp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, c.unreachable(err)
	}
	defer func() { _ = httpResp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(httpResp.Body, maxBodyBytes))
	if err != nil {
		return nil, c.unreachable(err)
	}
	resp, err := envelope.Decode(body)
	if err != nil {
		return nil, errors.New(ProtocolMessage(body, c.appURL))
	}
	return resp, nil
}

func (c *Client) unreachable(err error) error {
	msg := fmt.Sprintf("Unable to reach the installer server: %v.", err)
	if c.appURL != "" {
		msg += " If the problem persists, report it at " + c.appURL + "."
	}
	return errors.New(msg)
}

// ProtocolMessage describes a response that is not an envelope.
func ProtocolMessage(body []byte, appURL string) string {
	text := strings.TrimSpace(string(body))
	if len(text) > maxEchoBytes {
		text = text[:maxEchoBytes] + "..."
	}
	var b strings.Builder
	b.WriteString("Unable to parse server response. The installer is expecting a JSON response, but your server thrown this:\n\n")
	b.WriteString(text)
	b.WriteString("\n\nThis is not normal and you should report it")
	if appURL != "" {
		b.WriteString(" at " + appURL)
	}
	b.WriteString(".")
	return b.String()
}

// Runtime fetches the deployment descriptor of the server.
func (c *Client) Runtime(ctx context.Context) (deployment.Runtime, error) {
	var rt deployment.Runtime
	u, err := url.Parse(c.endpoint)
	if err != nil {
		return rt, fmt.Errorf("invalid endpoint: %w", err)
	}
	q := u.Query()
	q.Set("runtime", "")
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return rt, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return rt, fmt.Errorf("failed to fetch runtime: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return rt, fmt.Errorf("failed to fetch runtime: server answered %s", resp.Status)
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBodyBytes)).Decode(&rt); err != nil {
		return rt, fmt.Errorf("failed to decode runtime: %w", err)
	}
	return rt, nil
}
