// Package stages provides CLI commands that drive the agent pipeline.
// Includes: run, check, prompt
package stages

import (
	"github.com/spf13/cobra"
)

// Register adds all stage commands to the root command.
// This function is called from the root CLI package during initialization.
func Register(rootCmd *cobra.Command) {
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(promptCmd)
}
