package util

import (
	"fmt"
	"io"
	"path/filepath"
	"strconv"

	"github.com/ariel-frischer/agentpipe/internal/agentspec"
	"github.com/ariel-frischer/agentpipe/internal/cli/shared"
	apperrors "github.com/ariel-frischer/agentpipe/internal/errors"
	"github.com/spf13/cobra"
)

var (
	agentsFormat string
	agentsPhase  string
)

var agentsCmd = &cobra.Command{
	Use:     "agents",
	Aliases: []string{"ls"},
	Short:   "List agents parsed from the command documents (ls)",
	Long: `List every agent parsed from the commands directory in pipeline order.

Agents are ordered by phase number and then id. Documents that could not be
read and duplicate ids are reported after the table.`,
	Example: `  # Table of all agents
  agentpipe agents

  # Only planning agents as JSON
  agentpipe agents --phase planning --format json`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := shared.ValidateFormat(agentsFormat); err != nil {
			return err
		}
		phase, err := parsePhaseFlag(agentsPhase)
		if err != nil {
			return err
		}

		rt := shared.RuntimeFrom(cmd)
		cfg, err := rt.RequireConfig()
		if err != nil {
			return err
		}
		catalog, err := shared.LoadCatalog(cfg, rt.Logger)
		if err != nil {
			return err
		}
		return writeAgents(cmd.OutOrStdout(), catalog, agentsFormat, phase, cfg.RepoPath)
	},
}

func init() {
	agentsCmd.GroupID = shared.GroupInspection
	agentsCmd.Flags().StringVarP(&agentsFormat, "format", "f", shared.FormatTable, "Output format: table, json, yaml")
	agentsCmd.Flags().StringVarP(&agentsPhase, "phase", "p", "", "Only list agents of this phase")
}

// parsePhaseFlag converts a --phase value; empty means all phases.
func parsePhaseFlag(value string) (agentspec.Phase, error) {
	if value == "" {
		return "", nil
	}
	phase, err := agentspec.ParsePhase(value)
	if err != nil {
		names := make([]string, 0, len(agentspec.Phases()))
		for _, p := range agentspec.Phases() {
			names = append(names, p.String())
		}
		return "", apperrors.InvalidPhase(value, names)
	}
	return phase, nil
}

func writeAgents(w io.Writer, catalog *agentspec.Catalog, format string, phase agentspec.Phase, repoPath string) error {
	var specs []agentspec.AgentSpec
	for _, s := range catalog.Specs() {
		if phase == "" || s.Phase == phase {
			specs = append(specs, s)
		}
	}

	if format != shared.FormatTable {
		views := make([]agentspec.View, len(specs))
		for i, s := range specs {
			views[i] = s.View()
		}
		return shared.WriteStructured(w, format, views)
	}

	if len(specs) == 0 {
		fmt.Fprintln(w, "No agents found.")
		return nil
	}

	rows := make([][]string, len(specs))
	for i, s := range specs {
		rows[i] = []string{
			s.Phase.String(), s.ID, s.Name,
			strconv.Itoa(len(s.Preparation())), strconv.Itoa(len(s.Steps())),
			relPath(repoPath, s.SourcePath),
		}
	}
	if err := shared.WriteTable(w, []string{"PHASE", "ID", "NAME", "PREP", "STEPS", "SOURCE"}, rows); err != nil {
		return err
	}

	for _, col := range catalog.Collisions() {
		fmt.Fprintf(w, "\nduplicate id %s: using %s, ignoring %s", col.ID, relPath(repoPath, col.Kept), relPath(repoPath, col.Dropped))
	}
	for _, path := range catalog.Skipped() {
		fmt.Fprintf(w, "\nskipped unreadable document %s", relPath(repoPath, path))
	}
	if len(catalog.Collisions())+len(catalog.Skipped()) > 0 {
		fmt.Fprintln(w)
	}
	return nil
}

// relPath shows path relative to the repository when possible.
func relPath(base, path string) string {
	if rel, err := filepath.Rel(base, path); err == nil {
		return filepath.ToSlash(rel)
	}
	return path
}
