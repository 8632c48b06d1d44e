// Package cli implements the typerace command-line interface using Cobra.
// Besides serve, each subcommand works directly against the configured store.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/t-race/typerace/internal/daemon"
)

var rootCmd = &cobra.Command{
	Use:   "typerace",
	Short: "typerace: achievements for a typing-speed game",
	Long: `typerace records typing races, awards badges and tracks streaks,
skill levels and XP for every player.

Run 'typerace serve' for the HTTP API, or use the other commands to
inspect and edit player progress from the terminal.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command. Called from main.go.
func Execute(version string) {
	rootCmd.Version = version
	daemon.Version = version

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
