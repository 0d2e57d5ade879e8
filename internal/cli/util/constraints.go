package util

import (
	"fmt"
	"io"
	"strings"

	"github.com/ariel-frischer/agentpipe/internal/cli/shared"
	"github.com/ariel-frischer/agentpipe/internal/guardrail"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	constraintsFormat string
	constraintsBlock  bool
)

var constraintsCmd = &cobra.Command{
	Use:   "constraints",
	Short: "List constraints parsed from the rules document",
	Long: `List the forbidden and required constraints parsed from the rules document
together with the pattern tags that gate input validation.

With --block the constraint section embedded into every agent prompt is
printed instead.`,
	Example: `  # Table of constraints
  agentpipe constraints

  # Constraint block as agents see it
  agentpipe constraints --block`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := shared.ValidateFormat(constraintsFormat); err != nil {
			return err
		}

		rt := shared.RuntimeFrom(cmd)
		cfg, err := rt.RequireConfig()
		if err != nil {
			return err
		}
		rules, err := shared.LoadRules(cfg)
		if err != nil {
			return err
		}

		if constraintsBlock {
			engine, err := shared.NewEngine(cfg, rules, rt.Logger)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), engine.FormatPromptBlock("", ""))
			return nil
		}
		return writeConstraints(cmd.OutOrStdout(), rules, constraintsFormat, rt.Logger)
	},
}

func init() {
	constraintsCmd.GroupID = shared.GroupInspection
	constraintsCmd.Flags().StringVarP(&constraintsFormat, "format", "f", shared.FormatTable, "Output format: table, json, yaml")
	constraintsCmd.Flags().BoolVar(&constraintsBlock, "block", false, "Print the prompt constraint block")
}

// constraintsView is the structured output of the constraints command.
type constraintsView struct {
	Source      string                 `json:"source" yaml:"source"`
	Constraints []guardrail.Constraint `json:"constraints" yaml:"constraints"`
	Tags        []guardrail.PatternTag `json:"tags" yaml:"tags"`
}

func writeConstraints(w io.Writer, rules guardrail.RuleSet, format string, logger *zap.Logger) error {
	view := constraintsView{
		Source:      rules.Source(),
		Constraints: rules.Constraints(),
		Tags:        rules.Tags().Sorted(),
	}
	logger.Debug("Listing constraints", zap.String("source", view.Source), zap.Int("count", len(view.Constraints)))

	if format != shared.FormatTable {
		return shared.WriteStructured(w, format, view)
	}

	fmt.Fprintf(w, "Source: %s\n\n", view.Source)
	rows := make([][]string, len(view.Constraints))
	for i, c := range view.Constraints {
		rows[i] = []string{string(c.Type), string(c.Severity), c.Category, c.Description}
	}
	if err := shared.WriteTable(w, []string{"TYPE", "SEVERITY", "CATEGORY", "DESCRIPTION"}, rows); err != nil {
		return err
	}

	tags := make([]string, len(view.Tags))
	for i, t := range view.Tags {
		tags[i] = string(t)
	}
	if len(tags) == 0 {
		tags = []string{"none"}
	}
	fmt.Fprintf(w, "\nPattern tags: %s\n", strings.Join(tags, ", "))
	return nil
}
