package license

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imamik/appinstaller/internal/envelope"
	"github.com/imamik/appinstaller/internal/util/retry"
)

func newVendor(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv
}

func TestVerify_Valid(t *testing.T) {
	t.Parallel()
	srv := newVendor(t, func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, r.ParseForm())
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "KEY-123", r.PostForm.Get("license"))
		w.WriteHeader(http.StatusOK)
	})

	err := NewVerifier(srv.URL).Verify(context.Background(), " KEY-123 ")
	require.NoError(t, err)
}

func TestVerify_Rejected(t *testing.T) {
	t.Parallel()
	var calls atomic.Int32
	srv := newVendor(t, func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusForbidden)
	})

	err := NewVerifier(srv.URL).Verify(context.Background(), "bad")
	require.Error(t, err)
	assert.Equal(t, envelope.CodeBadRequest, envelope.CodeOf(err))
	assert.Equal(t, "Invalid license key", err.Error())
	assert.Equal(t, int32(1), calls.Load(), "rejections are not retried")
}

func TestVerify_EmptyKey(t *testing.T) {
	t.Parallel()
	err := NewVerifier("http://unused.invalid").Verify(context.Background(), "  ")
	require.Error(t, err)
	assert.Equal(t, envelope.CodeBadRequest, envelope.CodeOf(err))
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestVerify_VendorDown(t *testing.T) {
	t.Parallel()
	var calls atomic.Int32
	srv := newVendor(t, func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	})

	v := NewVerifier(srv.URL, WithRetry(retry.WithAttempts(2), retry.WithDelay(time.Millisecond)))
	err := v.Verify(context.Background(), "KEY")
	require.Error(t, err)
	assert.Equal(t, envelope.CodeServiceUnavailable, envelope.CodeOf(err))
	assert.Contains(t, err.Error(), "Unable to verify license key")
	assert.Equal(t, int32(2), calls.Load())
}
