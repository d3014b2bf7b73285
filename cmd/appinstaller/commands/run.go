package commands

import (
	"github.com/spf13/cobra"

	"github.com/imamik/appinstaller/cmd/appinstaller/handlers"
)

// DefaultEndpoint is the endpoint of a local serve command.
const DefaultEndpoint = "http://localhost:8080/"

// Run returns the command driving the guided installation.
//
// Optional flags:
//
//	--endpoint, -e: Installer endpoint URL
//	--upgrade: Upgrade an existing installation
//	--plain: Line-based prompts without the progress view
func Run() *cobra.Command {
	var opts handlers.RunOptions

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the guided installation",
		Long: `Run the guided installation against an installer endpoint.

The wizard asks for the edition, the database, the administrator account and
the system email addresses, then downloads, extracts and configures the
application. With --upgrade it asks for the license key and upgrades the
files of an existing installation instead.

Examples:
  # Install against a local "appinstaller serve"
  appinstaller run

  # Upgrade a remote installation
  appinstaller run --upgrade --endpoint https://example.com/installer`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return handlers.Run(cmd.Context(), opts)
		},
	}

	addConfigFlag(cmd, &opts.ConfigPath)
	cmd.Flags().StringVarP(&opts.Endpoint, "endpoint", "e", DefaultEndpoint, "Installer endpoint URL")
	cmd.Flags().BoolVar(&opts.Upgrade, "upgrade", false, "Upgrade an existing installation")
	cmd.Flags().BoolVar(&opts.Plain, "plain", false, "Use line-based prompts without the progress view")
	addLogFlags(cmd, &opts.Log)

	return cmd
}
