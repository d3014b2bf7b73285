package config

import (
	"os"
	"strconv"
	"time"
)

// Timeouts holds all configurable timeout values.
// These values can be customized via environment variables.
type Timeouts struct {
	Request           time.Duration // Client side timeout for a single action round-trip
	License           time.Duration // Timeout for the vendor license check
	Download          time.Duration // Timeout for downloading a release archive
	Extract           time.Duration // Timeout for extracting a release archive
	Database          time.Duration // Timeout for database connect and introspection
	Panel             time.Duration // Timeout for hosting-panel API calls
	Bootstrap         time.Duration // Timeout for the application first-run setup
	Shutdown          time.Duration // Grace period for the HTTP server on exit
	RetryMaxAttempts  int           // Maximum number of retry attempts
	RetryInitialDelay time.Duration // Initial delay between retries
}

// LoadTimeouts loads timeout configuration from environment variables.
// If an environment variable is not set or invalid, a default value is used.
//
// Environment Variables:
//   - APPINSTALLER_TIMEOUT_REQUEST (default: 30m)
//   - APPINSTALLER_TIMEOUT_LICENSE (default: 30s)
//   - APPINSTALLER_TIMEOUT_DOWNLOAD (default: 10m)
//   - APPINSTALLER_TIMEOUT_EXTRACT (default: 10m)
//   - APPINSTALLER_TIMEOUT_DATABASE (default: 15s)
//   - APPINSTALLER_TIMEOUT_PANEL (default: 1m)
//   - APPINSTALLER_TIMEOUT_BOOTSTRAP (default: 5m)
//   - APPINSTALLER_TIMEOUT_SHUTDOWN (default: 10s)
//   - APPINSTALLER_RETRY_MAX_ATTEMPTS (default: 3)
//   - APPINSTALLER_RETRY_INITIAL_DELAY (default: 1s)
func LoadTimeouts() *Timeouts {
	return &Timeouts{
		Request:           parseDuration("APPINSTALLER_TIMEOUT_REQUEST", 30*time.Minute),
		License:           parseDuration("APPINSTALLER_TIMEOUT_LICENSE", 30*time.Second),
		Download:          parseDuration("APPINSTALLER_TIMEOUT_DOWNLOAD", 10*time.Minute),
		Extract:           parseDuration("APPINSTALLER_TIMEOUT_EXTRACT", 10*time.Minute),
		Database:          parseDuration("APPINSTALLER_TIMEOUT_DATABASE", 15*time.Second),
		Panel:             parseDuration("APPINSTALLER_TIMEOUT_PANEL", 1*time.Minute),
		Bootstrap:         parseDuration("APPINSTALLER_TIMEOUT_BOOTSTRAP", 5*time.Minute),
		Shutdown:          parseDuration("APPINSTALLER_TIMEOUT_SHUTDOWN", 10*time.Second),
		RetryMaxAttempts:  parseInt("APPINSTALLER_RETRY_MAX_ATTEMPTS", 3),
		RetryInitialDelay: parseDuration("APPINSTALLER_RETRY_INITIAL_DELAY", 1*time.Second),
	}
}

// parseDuration parses a duration from an environment variable.
// If the variable is not set or parsing fails, the default value is returned.
func parseDuration(envVar string, defaultVal time.Duration) time.Duration {
	val := os.Getenv(envVar)
	if val == "" {
		return defaultVal
	}

	d, err := time.ParseDuration(val)
	if err != nil || d <= 0 {
		return defaultVal
	}

	return d
}

// parseInt parses an integer from an environment variable.
// If the variable is not set or parsing fails, the default value is returned.
func parseInt(envVar string, defaultVal int) int {
	val := os.Getenv(envVar)
	if val == "" {
		return defaultVal
	}

	i, err := strconv.Atoi(val)
	if err != nil || i < 0 {
		return defaultVal
	}

	return i
}
