package util

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"

	"github.com/ariel-frischer/agentpipe/internal/cli/shared"
	"github.com/ariel-frischer/agentpipe/internal/config"
	"github.com/ariel-frischer/agentpipe/internal/guardrail"
	"github.com/ariel-frischer/agentpipe/internal/pipeline"
	"github.com/ariel-frischer/agentpipe/internal/prompt"
	"github.com/ariel-frischer/agentpipe/internal/toolcatalog"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate repository structure and configuration",
	Long: `Check that the agent repository has everything a run needs:

  - the commands and support directories
  - the four support documents
  - a rules document that yields at least one constraint
  - a parseable mcp.json (optional, a warning when missing)
  - parseable command documents including the 00-start agent

Exits with code 1 when any error is found.`,
	Example: `  # Validate the current directory
  agentpipe validate

  # Validate another checkout
  agentpipe validate --repo ../agentic-programming`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		rt := shared.RuntimeFrom(cmd)
		cfg, err := rt.RequireConfig()
		if err != nil {
			return err
		}

		report := validateRepo(cfg, rt.Logger)
		writeRepoReport(cmd.OutOrStdout(), report)
		if len(report.Errors) > 0 {
			return shared.NewExitError(shared.ExitValidationFailed)
		}
		return nil
	},
}

func init() {
	validateCmd.GroupID = shared.GroupGettingStarted
}

// repoReport collects the outcome of repository checks.
type repoReport struct {
	Found    []string
	Errors   []string
	Warnings []string
}

func (r *repoReport) found(format string, args ...any) {
	r.Found = append(r.Found, fmt.Sprintf(format, args...))
}

func (r *repoReport) fail(format string, args ...any) {
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

func (r *repoReport) warn(format string, args ...any) {
	r.Warnings = append(r.Warnings, fmt.Sprintf(format, args...))
}

func validateRepo(cfg *config.Configuration, logger *zap.Logger) repoReport {
	var report repoReport

	dirs := []struct {
		name string
		path string
	}{
		{cfg.CommandsDir, cfg.CommandsPath()},
		{cfg.SupportDir, cfg.SupportPath()},
	}
	for _, d := range dirs {
		if isDir(d.path) {
			report.found("Found %s/", d.name)
		} else {
			report.fail("Missing required directory: %s", d.name)
		}
	}

	for _, f := range prompt.SupportFiles {
		path := filepath.Join(cfg.SupportPath(), filepath.Base(f))
		if _, err := os.Stat(path); err != nil {
			report.fail("Missing required file: %s", relPath(cfg.RepoPath, path))
		} else {
			report.found("Found %s", relPath(cfg.RepoPath, path))
		}
	}

	checkRules(cfg, &report)
	checkMCP(cfg, &report)
	checkCommands(cfg, logger, &report)

	logger.Debug("Repository validated",
		zap.Int("errors", len(report.Errors)),
		zap.Int("warnings", len(report.Warnings)))
	return report
}

func checkRules(cfg *config.Configuration, report *repoReport) {
	rules, err := guardrail.LoadRules(cfg.RulesPath())
	switch {
	case errors.Is(err, guardrail.ErrRulesNotFound):
		// The support file check already reports the default location.
		if filepath.Clean(cfg.RulesPath()) != filepath.Join(cfg.SupportPath(), filepath.Base(guardrail.DefaultRulesSource)) {
			report.fail("Missing rules file: %s", relPath(cfg.RepoPath, cfg.RulesPath()))
		}
	case errors.Is(err, guardrail.ErrEmptyRuleSet):
		report.fail("Rules file contains no constraints: %s", relPath(cfg.RepoPath, cfg.RulesPath()))
	case err != nil:
		report.fail("Cannot read rules file: %v", err)
	default:
		report.found("Parsed %d constraints (%d forbidden, %d pattern tags)",
			rules.Len(), len(rules.Forbidden()), rules.Tags().Len())
	}
}

func checkMCP(cfg *config.Configuration, report *repoReport) {
	path := cfg.MCPPath()
	if path == "" {
		report.warn("mcp_config is not set - MCP integration will be limited")
		return
	}
	if _, err := os.Stat(path); err != nil {
		report.warn("%s not found - MCP integration will be limited", relPath(cfg.RepoPath, path))
		return
	}

	tools, err := toolcatalog.Load(path)
	if err != nil {
		report.fail("%s is not valid JSON", relPath(cfg.RepoPath, path))
		return
	}
	report.found("Found %s", relPath(cfg.RepoPath, path))
	report.found("  - %d MCP servers configured, %d enabled", len(tools.Servers()), len(tools.EnabledServers()))

	known := toolcatalog.KnownServers()
	for _, name := range tools.EnabledServers() {
		if !slices.Contains(known, name) {
			report.warn("MCP server %q has no known functions and offers no tools", name)
		}
	}
}

func checkCommands(cfg *config.Configuration, logger *zap.Logger, report *repoReport) {
	if !isDir(cfg.CommandsPath()) {
		return
	}
	catalog, err := shared.LoadCatalog(cfg, logger)
	if err != nil {
		report.fail("%v", err)
		return
	}

	report.found("Parsed %d agent specifications", catalog.Len())
	if _, ok := catalog.Get(pipeline.StartAgentID); !ok {
		report.warn("Start agent %s not found - 'agentpipe run' needs it", pipeline.StartAgentID)
	}
	for _, col := range catalog.Collisions() {
		report.warn("Duplicate agent id %s: %s shadows %s",
			col.ID, relPath(cfg.RepoPath, col.Kept), relPath(cfg.RepoPath, col.Dropped))
	}
	for _, path := range catalog.Skipped() {
		report.warn("Unreadable command document: %s", relPath(cfg.RepoPath, path))
	}
}

func writeRepoReport(w io.Writer, report repoReport) {
	green := color.New(color.FgGreen).SprintFunc()
	red := color.New(color.FgRed).SprintFunc()
	yellow := color.New(color.FgYellow).SprintFunc()
	bold := color.New(color.Bold).SprintFunc()

	fmt.Fprintln(w, bold("Validating repository..."))
	for _, line := range report.Found {
		fmt.Fprintf(w, "%s %s\n", green("✓"), line)
	}
	fmt.Fprintln(w)

	if len(report.Errors) > 0 {
		fmt.Fprintln(w, red("Errors:"))
		for _, e := range report.Errors {
			fmt.Fprintf(w, "  %s %s\n", red("✗"), e)
		}
	}
	if len(report.Warnings) > 0 {
		fmt.Fprintln(w, yellow("Warnings:"))
		for _, warning := range report.Warnings {
			fmt.Fprintf(w, "  %s %s\n", yellow("⚠"), warning)
		}
	}

	switch {
	case len(report.Errors) > 0:
		fmt.Fprintln(w, red("Repository validation failed"))
	case len(report.Warnings) > 0:
		fmt.Fprintln(w, yellow("Repository validation passed with warnings"))
	default:
		fmt.Fprintln(w, green("Repository validation passed"))
	}
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
