// Package license verifies license keys against the vendor API.
package license

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

	"github.com/imamik/appinstaller/internal/envelope"
	"github.com/imamik/appinstaller/internal/util/retry"
)

// ErrInvalid is returned when the vendor rejects a key.
var ErrInvalid = errors.New("invalid license key")

// Verifier checks license keys.
type Verifier struct {
	endpoint string
	client   *http.Client
	log      logr.Logger
	retries  []retry.Option
}

// Option configures a Verifier.
type Option func(*Verifier)

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(v *Verifier) { v.client = c }
}

// WithLogger sets the logger.
func WithLogger(log logr.Logger) Option {
	return func(v *Verifier) { v.log = log }
}

// WithRetry sets the retry policy for transient vendor failures.
func WithRetry(opts ...retry.Option) Option {
	return func(v *Verifier) { v.retries = opts }
}

// NewVerifier returns a verifier posting to endpoint.
func NewVerifier(endpoint string, opts ...Option) *Verifier {
	v := &Verifier{
		endpoint: endpoint,
		client:   &http.Client{Timeout: 30 * time.Second},
		log:      logr.Discard(),
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Verify checks key with the vendor. A rejected key yields a 400 CodedError
// wrapping ErrInvalid; an unreachable vendor yields a 503.
func (v *Verifier) Verify(ctx context.Context, key string) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return envelope.WithCode(ErrInvalid, envelope.CodeBadRequest)
	}

	opts := append([]retry.Option{retry.WithLogger(v.log)}, v.retries...)
	err := retry.Do(ctx, func(ctx context.Context) error {
		return v.check(ctx, key)
	}, opts...)

	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrInvalid):
		return envelope.NewError(envelope.CodeBadRequest, "Invalid license key")
	default:
		return envelope.Errorf(envelope.CodeServiceUnavailable, "Unable to verify license key: %v", err)
	}
}

func (v *Verifier) check(ctx context.Context, key string) error {
	form := url.Values{"license": {key}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, v.endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return retry.Permanent(fmt.Errorf("failed to build license request: %w", err))
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := v.client.Do(req)
	if err != nil {
		return fmt.Errorf("license request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return nil
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		return retry.Permanent(ErrInvalid)
	default:
		return fmt.Errorf("license server returned %s", resp.Status)
	}
}
