package config

import (
	"errors"
	"fmt"
	"net/url"
	"path/filepath"
	"regexp"
)

// Validate checks the configuration and returns every problem found, joined.
func (c *Config) Validate() error {
	var errs []error

	if c.Paths.WorkingDir == "" {
		errs = append(errs, errors.New("paths.working_dir is required"))
	} else if !filepath.IsAbs(c.Paths.WorkingDir) {
		errs = append(errs, fmt.Errorf("paths.working_dir must be absolute, got %q", c.Paths.WorkingDir))
	}
	if c.Paths.SettingsFile == "" {
		errs = append(errs, errors.New("paths.settings_file is required"))
	} else if filepath.IsAbs(c.Paths.SettingsFile) {
		errs = append(errs, fmt.Errorf("paths.settings_file must be relative to the working dir, got %q", c.Paths.SettingsFile))
	}

	if c.Server.RootURL != "" {
		if err := validateURL("server.root_url", c.Server.RootURL); err != nil {
			errs = append(errs, err)
		}
	}
	if c.Vendor.LicenseURL != "" {
		if err := validateURL("vendor.license_url", c.Vendor.LicenseURL); err != nil {
			errs = append(errs, err)
		}
	}

	if len(c.Applications) == 0 {
		errs = append(errs, errors.New("applications must list at least one edition"))
	}
	for name, app := range c.Applications {
		if err := validateURL(fmt.Sprintf("applications.%s.zipball", name), app.Zipball); err != nil {
			errs = append(errs, err)
		}
	}

	for field, pattern := range map[string]string{
		"patterns.username_pattern":      c.Patterns.Username,
		"patterns.user_password_pattern": c.Patterns.Password,
		"patterns.email_pattern":         c.Patterns.Email,
	} {
		if _, err := regexp.Compile(pattern); err != nil {
			errs = append(errs, fmt.Errorf("%s is not a valid pattern: %w", field, err))
		}
	}

	if c.Mirror.Enabled() && c.Mirror.Region == "" {
		errs = append(errs, errors.New("mirror.region is required when mirror.bucket is set"))
	}

	return errors.Join(errs...)
}

func validateURL(field, raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%s is not a valid URL: %w", field, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%s must be an http(s) URL, got %q", field, raw)
	}
	if u.Host == "" {
		return fmt.Errorf("%s must include a host, got %q", field, raw)
	}
	return nil
}
