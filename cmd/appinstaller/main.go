// Package main is the entry point for the appinstaller CLI.
//
// appinstaller installs or upgrades a web application on the machine it runs
// on. The serve command exposes the stateless action endpoint; the run
// command drives the guided installation against that endpoint from a
// terminal.
//
// Commands: serve, run, doctor, nginx-rules, version, completion.
//
// For detailed usage information, run:
//
//	appinstaller --help
package main

import (
	"fmt"
	"os"

	"github.com/imamik/appinstaller/cmd/appinstaller/commands"
)

// Version information set by goreleaser at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	commands.SetVersionInfo(version, commit, date)
	if err := commands.Root().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
