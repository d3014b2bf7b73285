package installer

import (
	"context"
	"fmt"

	"github.com/go-logr/logr"

	"github.com/imamik/appinstaller/internal/bootstrap"
	"github.com/imamik/appinstaller/internal/config"
	"github.com/imamik/appinstaller/internal/database"
	"github.com/imamik/appinstaller/internal/fetch"
	"github.com/imamik/appinstaller/internal/license"
	"github.com/imamik/appinstaller/internal/platform/cpanel"
	"github.com/imamik/appinstaller/internal/platform/s3"
	"github.com/imamik/appinstaller/internal/selfdestruct"
	"github.com/imamik/appinstaller/internal/settings"
	"github.com/imamik/appinstaller/internal/util/retry"
)

// DefaultDeps wires the production collaborators for cfg.
func DefaultDeps(ctx context.Context, cfg *config.Config, timeouts *config.Timeouts, log logr.Logger) (Deps, error) {
	retries := []retry.Option{
		retry.WithAttempts(timeouts.RetryMaxAttempts),
		retry.WithDelay(timeouts.RetryInitialDelay),
	}

	fetchOpts := []fetch.Option{
		fetch.WithLogger(log.WithName("fetch")),
		fetch.WithRetry(retries...),
	}
	if cfg.Mirror.Enabled() {
		mirror, err := s3.NewClient(ctx, s3.Options{
			Endpoint:  cfg.Mirror.Endpoint,
			Region:    cfg.Mirror.Region,
			Bucket:    cfg.Mirror.Bucket,
			Prefix:    cfg.Mirror.Prefix,
			AccessKey: cfg.Mirror.AccessKey,
			SecretKey: cfg.Mirror.SecretKey,
		})
		if err != nil {
			return Deps{}, fmt.Errorf("failed to create release mirror client: %w", err)
		}
		fetchOpts = append(fetchOpts, fetch.WithMirror(mirror))
	}

	var panelOpts []cpanel.Option
	if cfg.Panel.InsecureSkipVerify {
		panelOpts = append(panelOpts, cpanel.WithInsecureSkipVerify())
	}

	return Deps{
		License: license.NewVerifier(cfg.Vendor.LicenseURL,
			license.WithLogger(log.WithName("license")),
			license.WithRetry(retries...),
		),
		Panel: func(endpoint, user, password string) PanelProvisioner {
			return cpanel.NewClient(endpoint, user, password, panelOpts...)
		},
		Database:  database.NewChecker(database.MySQLDialer(timeouts.Database), log.WithName("database")),
		Fetcher:   fetch.New(cfg.Applications, cfg.DownloadDir(), fetchOpts...),
		Settings:  settings.NewWriter(cfg.Paths.WorkingDir),
		Bootstrap: bootstrap.NewClient(timeouts.Bootstrap, log.WithName("bootstrap")),
		Destroyer: selfdestruct.New(cfg.Paths.InstallerFile, cfg.Paths.ErrorLog),
	}, nil
}
