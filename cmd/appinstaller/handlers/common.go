// Package handlers implements the command behavior behind the CLI.
package handlers

import (
	"fmt"
	"io"

	"github.com/go-logr/logr"

	"github.com/imamik/appinstaller/internal/config"
	"github.com/imamik/appinstaller/internal/logging"
	"github.com/imamik/appinstaller/internal/requirements"
)

// LogOptions select the process logger.
type LogOptions struct {
	Level  string
	Format string
}

func newLogger(w io.Writer, opts LogOptions) (logr.Logger, error) {
	log, err := logging.Configure(w, opts.Level, opts.Format)
	if err != nil {
		return logr.Discard(), fmt.Errorf("failed to configure logging: %w", err)
	}
	return log, nil
}

func loadConfig(path string) (*config.Config, *config.Timeouts, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, config.LoadTimeouts(), nil
}

func newChecker(cfg *config.Config) *requirements.Checker {
	return requirements.NewChecker(requirements.Default(requirements.Paths{
		WorkingDir:  cfg.Paths.WorkingDir,
		DownloadDir: cfg.DownloadDir(),
		ErrorLog:    cfg.Paths.ErrorLog,
	})...)
}
