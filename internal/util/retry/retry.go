package retry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-logr/logr"
)

// Policy holds retry configuration.
type Policy struct {
	Attempts int
	Delay    time.Duration
	MaxDelay time.Duration
	Factor   float64
	Log      logr.Logger
}

// Option is a functional option for a retry policy.
type Option func(*Policy)

// Do runs op until it succeeds. Errors wrapped with Permanent stop the loop
// immediately and are returned unwrapped.
func Do(ctx context.Context, op func(ctx context.Context) error, opts ...Option) error {
	p := &Policy{
		Attempts: 3,
		Delay:    time.Second,
		MaxDelay: 30 * time.Second,
		Factor:   2.0,
		Log:      logr.Discard(),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.Attempts < 1 {
		p.Attempts = 1
	}

	delay := p.Delay
	var lastErr error

	for attempt := 1; attempt <= p.Attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			if lastErr != nil {
				return fmt.Errorf("cancelled after %d attempts: %w", attempt-1, lastErr)
			}
			return err
		}

		err := op(ctx)
		if err == nil {
			return nil
		}

		var perm *permanentError
		if errors.As(err, &perm) {
			return perm.err
		}
		lastErr = err

		if attempt == p.Attempts {
			break
		}

		p.Log.V(1).Info("retrying", "attempt", attempt, "delay", delay.String(), "error", err.Error())

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return fmt.Errorf("cancelled after %d attempts: %w", attempt, lastErr)
		case <-timer.C:
		}

		delay = time.Duration(float64(delay) * p.Factor)
		if delay > p.MaxDelay {
			delay = p.MaxDelay
		}
	}

	if p.Attempts == 1 {
		return lastErr
	}
	return fmt.Errorf("giving up after %d attempts: %w", p.Attempts, lastErr)
}

// WithAttempts sets the total number of attempts.
func WithAttempts(n int) Option {
	return func(p *Policy) { p.Attempts = n }
}

// WithDelay sets the delay before the second attempt.
func WithDelay(d time.Duration) Option {
	return func(p *Policy) { p.Delay = d }
}

// WithMaxDelay caps the delay between attempts.
func WithMaxDelay(d time.Duration) Option {
	return func(p *Policy) { p.MaxDelay = d }
}

// WithFactor sets the backoff multiplier.
func WithFactor(f float64) Option {
	return func(p *Policy) { p.Factor = f }
}

// WithLogger logs each retry at V(1).
func WithLogger(log logr.Logger) Option {
	return func(p *Policy) { p.Log = log }
}

type permanentError struct {
	err error
}

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

// Permanent marks err as not worth retrying.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// IsPermanent reports whether err was marked with Permanent.
func IsPermanent(err error) bool {
	var perm *permanentError
	return errors.As(err, &perm)
}
