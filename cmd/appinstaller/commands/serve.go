package commands

import (
	"github.com/spf13/cobra"

	"github.com/imamik/appinstaller/cmd/appinstaller/handlers"
)

// Serve returns the command running the installer action endpoint.
//
// Optional flags:
//
//	--config, -c: Path to configuration YAML file
//	--addr: Listen address (default from config, :8080)
//	--log-level, --log-format: Process logging
func Serve() *cobra.Command {
	var opts handlers.ServeOptions

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the installer endpoint",
		Long: `Serve the installer action endpoint on this server.

The endpoint accepts POSTed actions and answers with JSON envelopes. It also
serves a status page, the runtime descriptor (?runtime), the nginx rules
(?getNginxRules) and Prometheus metrics on /metrics.

Every action is refused while a server requirement is missing; run
"appinstaller doctor" to see them.

Examples:
  # Serve from the current directory
  appinstaller serve

  # Serve a specific document root
  APPINSTALLER_WORKING_DIR=/var/www/html appinstaller serve --addr :9000`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return handlers.Serve(cmd.Context(), opts)
		},
	}

	addConfigFlag(cmd, &opts.ConfigPath)
	cmd.Flags().StringVar(&opts.Addr, "addr", "", "Listen address (overrides server.addr)")
	addLogFlags(cmd, &opts.Log)

	return cmd
}
