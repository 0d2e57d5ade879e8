// Package util provides inspection and utility CLI commands for agentpipe.
// Includes: agents, constraints, validate, version
package util

import (
	"github.com/spf13/cobra"
)

// Register adds all utility commands to the root command.
// This function is called from the root CLI package during initialization.
func Register(rootCmd *cobra.Command) {
	rootCmd.AddCommand(agentsCmd)
	rootCmd.AddCommand(constraintsCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(versionCmd)
}
