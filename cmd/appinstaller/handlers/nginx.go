package handlers

import (
	"errors"
	"fmt"
	"io"

	"github.com/imamik/appinstaller/internal/deployment"
)

// NginxRules writes the nginx rules for the application served at rootURL.
// An empty rootURL falls back to the configured server root URL.
func NginxRules(w io.Writer, configPath, rootURL string) error {
	cfg, _, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	if rootURL != "" {
		cfg.Server.RootURL = rootURL
	}
	if cfg.Server.RootURL == "" {
		return errors.New("a root URL is required: pass --root-url or set server.root_url")
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid root URL: %w", err)
	}

	_, err = io.WriteString(w, deployment.NginxRules(deployment.Detect(nil, cfg)))
	return err
}
