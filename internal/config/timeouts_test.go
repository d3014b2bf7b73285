package config

import (
	"testing"
	"time"
)

var timeoutEnvVars = []string{
	"APPINSTALLER_TIMEOUT_REQUEST",
	"APPINSTALLER_TIMEOUT_LICENSE",
	"APPINSTALLER_TIMEOUT_DOWNLOAD",
	"APPINSTALLER_TIMEOUT_EXTRACT",
	"APPINSTALLER_TIMEOUT_DATABASE",
	"APPINSTALLER_TIMEOUT_PANEL",
	"APPINSTALLER_TIMEOUT_BOOTSTRAP",
	"APPINSTALLER_TIMEOUT_SHUTDOWN",
	"APPINSTALLER_RETRY_MAX_ATTEMPTS",
	"APPINSTALLER_RETRY_INITIAL_DELAY",
}

func clearTimeoutEnvVars(t *testing.T) {
	t.Helper()
	for _, name := range timeoutEnvVars {
		t.Setenv(name, "")
	}
}

func TestLoadTimeouts_Defaults(t *testing.T) {
	clearTimeoutEnvVars(t)

	timeouts := LoadTimeouts()

	if timeouts.Request != 30*time.Minute {
		t.Errorf("Expected Request default 30m, got %v", timeouts.Request)
	}
	if timeouts.License != 30*time.Second {
		t.Errorf("Expected License default 30s, got %v", timeouts.License)
	}
	if timeouts.Download != 10*time.Minute {
		t.Errorf("Expected Download default 10m, got %v", timeouts.Download)
	}
	if timeouts.Extract != 10*time.Minute {
		t.Errorf("Expected Extract default 10m, got %v", timeouts.Extract)
	}
	if timeouts.Database != 15*time.Second {
		t.Errorf("Expected Database default 15s, got %v", timeouts.Database)
	}
	if timeouts.Panel != time.Minute {
		t.Errorf("Expected Panel default 1m, got %v", timeouts.Panel)
	}
	if timeouts.RetryMaxAttempts != 3 {
		t.Errorf("Expected RetryMaxAttempts default 3, got %d", timeouts.RetryMaxAttempts)
	}
	if timeouts.RetryInitialDelay != time.Second {
		t.Errorf("Expected RetryInitialDelay default 1s, got %v", timeouts.RetryInitialDelay)
	}
}

func TestLoadTimeouts_CustomValues(t *testing.T) {
	clearTimeoutEnvVars(t)
	t.Setenv("APPINSTALLER_TIMEOUT_DOWNLOAD", "2m")
	t.Setenv("APPINSTALLER_RETRY_MAX_ATTEMPTS", "7")

	timeouts := LoadTimeouts()

	if timeouts.Download != 2*time.Minute {
		t.Errorf("Expected Download 2m, got %v", timeouts.Download)
	}
	if timeouts.RetryMaxAttempts != 7 {
		t.Errorf("Expected RetryMaxAttempts 7, got %d", timeouts.RetryMaxAttempts)
	}
}

func TestLoadTimeouts_InvalidValues(t *testing.T) {
	clearTimeoutEnvVars(t)
	t.Setenv("APPINSTALLER_TIMEOUT_EXTRACT", "soon")
	t.Setenv("APPINSTALLER_TIMEOUT_PANEL", "-5s")
	t.Setenv("APPINSTALLER_RETRY_MAX_ATTEMPTS", "many")

	timeouts := LoadTimeouts()

	if timeouts.Extract != 10*time.Minute {
		t.Errorf("Expected Extract to fall back to 10m, got %v", timeouts.Extract)
	}
	if timeouts.Panel != time.Minute {
		t.Errorf("Expected Panel to fall back to 1m, got %v", timeouts.Panel)
	}
	if timeouts.RetryMaxAttempts != 3 {
		t.Errorf("Expected RetryMaxAttempts to fall back to 3, got %d", timeouts.RetryMaxAttempts)
	}
}
