package cpanel

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

// ErrUnauthorized is returned when cPanel rejects the credentials.
var ErrUnauthorized = errors.New("cPanel rejected the credentials")

// Client is a minimal cPanel UAPI client.
type Client struct {
	baseURL    string
	user       string
	password   string
	httpClient *http.Client
}

type apiResponse struct {
	Status   int             `json:"status"`
	Errors   []string        `json:"errors"`
	Messages []string        `json:"messages"`
	Data     json.RawMessage `json:"data"`
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) { cl.httpClient = c }
}

// WithInsecureSkipVerify accepts self-signed panel certificates.
func WithInsecureSkipVerify() Option {
	return func(cl *Client) {
		cl.httpClient = &http.Client{
			Transport: &http.Transport{
				// #nosec G402 - operator opt-in for self-signed panel certificates
				TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
			},
		}
	}
}

// NewClient creates a UAPI client for the account user at baseURL, such as
// https://example.com:2083.
func NewClient(baseURL, user, password string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		user:       user,
		password:   password,
		httpClient: &http.Client{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Call invokes module/function with args and decodes data into out when out
// is not nil.
func (c *Client) Call(ctx context.Context, module, function string, args url.Values, out any) error {
	endpoint := fmt.Sprintf("%s/execute/%s/%s", c.baseURL, module, function)
	if len(args) > 0 {
		endpoint += "?" + args.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	req.SetBasicAuth(c.user, c.password)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s/%s: %w", module, function, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return ErrUnauthorized
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	var api apiResponse
	if err := json.Unmarshal(body, &api); err != nil {
		return fmt.Errorf("%s/%s: parse response: %w (status %d)", module, function, err, resp.StatusCode)
	}
	if api.Status != 1 {
		msg := strings.Join(api.Errors, "; ")
		if msg == "" {
			msg = fmt.Sprintf("status %d", resp.StatusCode)
		}
		return fmt.Errorf("%s/%s: %s", module, function, msg)
	}

	if out != nil && len(api.Data) > 0 && string(api.Data) != "null" {
		if err := json.Unmarshal(api.Data, out); err != nil {
			return fmt.Errorf("%s/%s: parse data: %w", module, function, err)
		}
	}
	return nil
}
