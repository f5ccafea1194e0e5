// Package cmd contains the CLI commands.
package cmd

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "scribe",
	Short: "Scribe - conversational assistant service",
	Long: `Scribe streams model answers over SSE, optionally augmented with
retrieved documents, and dispatches drafting tools whose output interleaves
with the answer stream.`,
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
