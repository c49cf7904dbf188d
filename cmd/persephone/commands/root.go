// Package commands implements the persephone CLI.
package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var versionString = "dev"

// SetVersionInfo sets the string printed by --version.
func SetVersionInfo(v, c, d string) {
	versionString = fmt.Sprintf("%s (commit: %s, built: %s)", v, c, d)
}

// globals are the persistent flags shared by every command.
type globals struct {
	configPath string
	verbose    bool
}

// NewRootCommand builds the command tree.
func NewRootCommand() *cobra.Command {
	g := &globals{}
	root := &cobra.Command{
		Use:   "persephone",
		Short: "Read, rate and discuss articles from the terminal",
		Long: `persephone is a terminal client for the Persephone article platform.

Every command dispatches actions into a journaled store, so state such as the
open article and the signed-in user carries over between invocations.`,
		Version: versionString,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	root.PersistentFlags().StringVar(&g.configPath, "config", "", "YAML config file (default $PERSEPHONE_CONFIG)")
	root.PersistentFlags().BoolVarP(&g.verbose, "verbose", "v", false, "log every action with the state it changed")

	root.AddCommand(
		newReadCmd(g),
		newCommentCmd(g),
		newRateCmd(g),
		newLikeCmd(g),
		newBookmarkCmd(g),
		newReportCmd(g),
		newLoginCmd(g),
		newSignupCmd(g),
		newLogoutCmd(g),
		newThemeCmd(g),
		newStateCmd(g),
		newJournalCmd(g),
		newServeCmd(g),
		newMCPCmd(g),
	)
	return root
}

// Execute runs the CLI until it finishes or receives SIGINT/SIGTERM.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return NewRootCommand().ExecuteContext(ctx)
}
