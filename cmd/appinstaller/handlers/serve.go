package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-logr/logr"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"

	"github.com/imamik/appinstaller/internal/config"
	"github.com/imamik/appinstaller/internal/dispatch"
	"github.com/imamik/appinstaller/internal/installer"
)

// ServeOptions configure the serve command.
type ServeOptions struct {
	ConfigPath string
	// Addr overrides the configured listen address.
	Addr string
	Log  LogOptions
}

// Serve runs the action endpoint until ctx is cancelled or the process is
// interrupted, then drains in-flight requests.
func Serve(ctx context.Context, opts ServeOptions) error {
	cfg, timeouts, err := loadConfig(opts.ConfigPath)
	if err != nil {
		return err
	}
	if opts.Addr != "" {
		cfg.Server.Addr = opts.Addr
	}

	log, err := newLogger(os.Stderr, opts.Log)
	if err != nil {
		return err
	}

	handler, err := buildHandler(ctx, cfg, timeouts, log)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("Serving installer", "addr", cfg.Server.Addr, "workingDir", cfg.Paths.WorkingDir)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("failed to serve: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeouts.Shutdown)
		defer cancel()
		log.Info("Shutting down", "grace", timeouts.Shutdown)
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

// buildHandler wires the production action set behind the HTTP surface.
func buildHandler(ctx context.Context, cfg *config.Config, timeouts *config.Timeouts, log logr.Logger) (http.Handler, error) {
	deps, err := installer.DefaultDeps(ctx, cfg, timeouts, log)
	if err != nil {
		return nil, err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	d := dispatch.New(installer.New(cfg, timeouts, deps),
		dispatch.WithRequirements(newChecker(cfg)),
		dispatch.WithErrorLog(dispatch.NewErrorLog(cfg.Paths.ErrorLog)),
		dispatch.WithMetrics(dispatch.NewMetrics(reg)),
		dispatch.WithLogger(log.WithName("dispatch")),
	)

	return dispatch.NewServer(cfg, d,
		dispatch.WithGatherer(reg),
		dispatch.WithServerLogger(log.WithName("server")),
	).Handler(), nil
}
