package main

import (
	"os"

	"github.com/wilhg/persephone/cmd/persephone/commands"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	commands.SetVersionInfo(version, commit, date)
	// Errors are already rendered by the printer.
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
