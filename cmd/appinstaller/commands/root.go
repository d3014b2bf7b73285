// Package commands defines the CLI command structure and flag bindings.
//
// This package contains cobra command definitions that handle argument parsing,
// flag binding, and validation. Command execution is delegated to handler
// functions in the handlers package.
package commands

import (
	"github.com/spf13/cobra"

	"github.com/imamik/appinstaller/cmd/appinstaller/handlers"
	"github.com/imamik/appinstaller/internal/logging"
)

// Root returns the root command for the appinstaller CLI.
func Root() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "appinstaller",
		Short:        "Install and upgrade Chevereto on this server",
		SilenceUsage: true,
	}

	// Installer
	cmd.AddCommand(Serve())
	cmd.AddCommand(Run())

	// Utility commands
	cmd.AddCommand(Doctor())
	cmd.AddCommand(NginxRules())
	cmd.AddCommand(Version())
	cmd.AddCommand(Completion())

	return cmd
}

func addConfigFlag(cmd *cobra.Command, path *string) {
	cmd.Flags().StringVarP(path, "config", "c", "", "Path to configuration file (default: built-in defaults and APPINSTALLER_* env)")
}

func addLogFlags(cmd *cobra.Command, opts *handlers.LogOptions) {
	cmd.Flags().StringVar(&opts.Level, "log-level", logging.LevelInfo, "Log level: debug, info, warn, error")
	cmd.Flags().StringVar(&opts.Format, "log-format", logging.FormatText, "Log format: text, json")
}
