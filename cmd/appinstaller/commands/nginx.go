package commands

import (
	"github.com/spf13/cobra"

	"github.com/imamik/appinstaller/cmd/appinstaller/handlers"
)

// NginxRules returns the command printing the nginx server rules.
func NginxRules() *cobra.Command {
	var configPath string
	var rootURL string

	cmd := &cobra.Command{
		Use:   "nginx-rules",
		Short: "Print the nginx rules for the application",
		Long: `Print the nginx location rules the application needs.

Add the output to the server block serving the application.

Examples:
  appinstaller nginx-rules --root-url https://example.com/
  appinstaller nginx-rules --root-url https://example.com/gallery/ > chevereto.conf`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return handlers.NginxRules(cmd.OutOrStdout(), configPath, rootURL)
		},
	}

	addConfigFlag(cmd, &configPath)
	cmd.Flags().StringVar(&rootURL, "root-url", "", "Public URL of the application (overrides server.root_url)")

	return cmd
}
