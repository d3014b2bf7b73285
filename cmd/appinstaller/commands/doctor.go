package commands

import (
	"github.com/spf13/cobra"

	"github.com/imamik/appinstaller/cmd/appinstaller/handlers"
)

// Doctor returns the command checking the server requirements.
func Doctor() *cobra.Command {
	var configPath string
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check the server requirements",
		Long: `Check that this server can run the installer.

The working directory, the download directory and the error log location are
probed for write access. The command fails when a required probe fails.

Examples:
  appinstaller doctor
  appinstaller doctor --json`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return handlers.Doctor(cmd.Context(), cmd.OutOrStdout(), configPath, jsonOutput)
		},
	}

	addConfigFlag(cmd, &configPath)
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")

	return cmd
}
