package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Load builds the configuration from defaults, the optional YAML file at path
// and the environment, then validates it. An empty path skips the file.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		if err := cfg.mergeFile(path); err != nil {
			return nil, err
		}
	}

	cfg.applyEnv(os.LookupEnv)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// mergeFile overlays the YAML file at path onto c. Keys absent from the file
// keep their current value.
func (c *Config) mergeFile(path string) error {
	// #nosec G304 - path is an operator-supplied flag
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("config file %s does not exist", path)
		}
		return fmt.Errorf("failed to read config file: %w", err)
	}

	defaults := c.Applications
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to unmarshal yaml: %w", err)
	}

	// yaml.v3 replaces maps wholesale; keep built-in editions the file did not mention.
	for name, app := range defaults {
		if _, ok := c.Applications[name]; !ok {
			c.Applications[name] = app
		}
	}
	return nil
}

// applyEnv overrides c with APPINSTALLER_* variables.
func (c *Config) applyEnv(lookup func(string) (string, bool)) {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}

	str("APPINSTALLER_WORKING_DIR", &c.Paths.WorkingDir)
	str("APPINSTALLER_INSTALLER_FILE", &c.Paths.InstallerFile)
	str("APPINSTALLER_ERROR_LOG", &c.Paths.ErrorLog)
	str("APPINSTALLER_DOWNLOAD_DIR", &c.Paths.DownloadDir)
	str("APPINSTALLER_ADDR", &c.Server.Addr)
	str("APPINSTALLER_ROOT_URL", &c.Server.RootURL)
	str("APPINSTALLER_SERVER_SOFTWARE", &c.Server.Software)
	str("APPINSTALLER_LICENSE_URL", &c.Vendor.LicenseURL)
	str("APPINSTALLER_PANEL_ENDPOINT", &c.Panel.Endpoint)
	str("APPINSTALLER_MIRROR_ENDPOINT", &c.Mirror.Endpoint)
	str("APPINSTALLER_MIRROR_REGION", &c.Mirror.Region)
	str("APPINSTALLER_MIRROR_BUCKET", &c.Mirror.Bucket)
	str("APPINSTALLER_MIRROR_ACCESS_KEY", &c.Mirror.AccessKey)
	str("APPINSTALLER_MIRROR_SECRET_KEY", &c.Mirror.SecretKey)

	if v, ok := lookup("APPINSTALLER_PANEL_INSECURE"); ok {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Panel.InsecureSkipVerify = b
		}
	}
}
