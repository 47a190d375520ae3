// Package cmd contains all the CLI commands for the application,
// built using the Cobra library.
package cmd

import (
	"context"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "pkg-rating",
	Short: "A CLI tool to rate the quality of npm packages.",
	Long: `pkg-rating scores packages hosted on GitHub (or published on npm) on
bus factor, maintainer responsiveness, ramp-up, correctness and license
compatibility, and combines them into a weighted net score.

Set GITHUB_TOKEN for the GitHub-backed metrics. LOG_LEVEL (0-2) and
LOG_FILE control logging.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	// Add a persistent flag for verbose output, available to all commands.
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose/debug logging")
	rootCmd.PersistentFlags().StringP("config", "c", "", "Path to a YAML configuration file")
}
