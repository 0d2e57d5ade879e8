// agentpipe - Guardrailed Agent Pipeline Runner
// Author: Ariel Frischer
// Source: https://github.com/ariel-frischer/agentpipe

// Package cli provides Cobra-based CLI commands for agentpipe.
// It defines the pipeline commands (run, check, prompt), inspection commands
// (agents, constraints), repository validation and configuration commands.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/ariel-frischer/agentpipe/internal/cli/config"
	"github.com/ariel-frischer/agentpipe/internal/cli/shared"
	"github.com/ariel-frischer/agentpipe/internal/cli/stages"
	"github.com/ariel-frischer/agentpipe/internal/cli/util"
	cfgpkg "github.com/ariel-frischer/agentpipe/internal/config"
	apperrors "github.com/ariel-frischer/agentpipe/internal/errors"
	"github.com/spf13/cobra"
)

// Command group IDs for organizing help output (re-exported from shared)
const (
	GroupGettingStarted = shared.GroupGettingStarted
	GroupPipeline       = shared.GroupPipeline
	GroupInspection     = shared.GroupInspection
	GroupConfiguration  = shared.GroupConfiguration
)

var rootCmd = &cobra.Command{
	Use:   "agentpipe",
	Short: "Guardrailed agent pipeline runner",
	Long: `agentpipe - Guardrailed Agent Pipeline Runner

Parses a repository of markdown agent commands and a forbidden-patterns
rules file, then sequences the agents through the development phases with
guardrail checks before and after every agent. Execution is simulated.

Source: https://github.com/ariel-frischer/agentpipe`,
	Example: `  # Check the repository layout
  agentpipe validate

  # List agents in pipeline order
  agentpipe agents

  # Run the full pipeline for an epic
  agentpipe run "User authentication"

  # Check text against the rules
  agentpipe check input "How long will this take?"`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		return shared.Setup(cmd)
	},
	PersistentPostRun: func(cmd *cobra.Command, _ []string) {
		shared.Teardown(cmd)
	},
}

// Execute runs the root command and returns the process exit code.
// SIGINT and SIGTERM cancel the command context.
func Execute() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return execute(ctx, rootCmd, os.Args[1:], os.Stderr)
}

func execute(ctx context.Context, cmd *cobra.Command, args []string, errOut io.Writer) int {
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(ctx)
	if err == nil {
		return shared.ExitSuccess
	}
	reportError(errOut, err)
	return shared.ExitCode(err)
}

// reportError prints err unless it only carries an exit code.
func reportError(w io.Writer, err error) {
	if shared.IsExitError(err) {
		return
	}
	if cliErr := apperrors.AsCLIError(err); cliErr != nil {
		apperrors.FprintError(w, cliErr)
		return
	}
	fmt.Fprintf(w, "Error: %v\n", err)
}

func init() {
	// Define command groups in display order
	rootCmd.AddGroup(&cobra.Group{ID: GroupGettingStarted, Title: "Getting Started:"})
	rootCmd.AddGroup(&cobra.Group{ID: GroupPipeline, Title: "Pipeline:"})
	rootCmd.AddGroup(&cobra.Group{ID: GroupInspection, Title: "Inspection:"})
	rootCmd.AddGroup(&cobra.Group{ID: GroupConfiguration, Title: "Configuration:"})

	// Assign built-in help and completion to configuration group
	rootCmd.SetHelpCommandGroupID(GroupConfiguration)
	rootCmd.SetCompletionCommandGroupID(GroupConfiguration)

	rootCmd.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return apperrors.NewArgumentErrorWithUsage(err.Error(), cmd.UseLine())
	})

	// Global flags
	rootCmd.PersistentFlags().StringP("config", "c", cfgpkg.LocalConfigPath, "Path to config file")
	rootCmd.PersistentFlags().StringP("repo", "r", "", "Repository root (overrides repo_path)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "Enable debug logging")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose output")

	// Register commands from subpackages
	stages.Register(rootCmd)
	util.Register(rootCmd)
	config.Register(rootCmd)
}
