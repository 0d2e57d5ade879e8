package stages

import (
	"fmt"
	"io"

	"github.com/ariel-frischer/agentpipe/internal/agentspec"
	"github.com/ariel-frischer/agentpipe/internal/cli/shared"
	apperrors "github.com/ariel-frischer/agentpipe/internal/errors"
	"github.com/ariel-frischer/agentpipe/internal/guardrail"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	checkFormat string
	checkPhase  string
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Validate text against the guardrail rules",
	Long: `Run one of the two guardrail checkpoints on arbitrary text.

  input   checks a request before it reaches an agent
  output  checks what an agent produced in a given phase

Exits with code 1 when a violation is found. Warnings alone do not fail.`,
	Example: `  # Check a request
  agentpipe check input "How long will the login feature take?"

  # Check planning output read from stdin
  cat draft.md | agentpipe check output --phase planning -`,
}

var checkInputCmd = &cobra.Command{
	Use:   "input <text|->",
	Short: "Validate agent input text",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runCheck(cmd, args, "input", "")
	},
}

var checkOutputCmd = &cobra.Command{
	Use:   "output <text|->",
	Short: "Validate agent output text for a phase",
	RunE: func(cmd *cobra.Command, args []string) error {
		phase, err := parsePhase(checkPhase)
		if err != nil {
			return err
		}
		return runCheck(cmd, args, "output", phase)
	},
}

func init() {
	checkCmd.GroupID = shared.GroupPipeline
	checkCmd.PersistentFlags().StringVarP(&checkFormat, "format", "f", shared.FormatTable, "Output format: table, json, yaml")
	checkOutputCmd.Flags().StringVarP(&checkPhase, "phase", "p", string(agentspec.PhasePlanning), "Phase that produced the output")
	checkCmd.AddCommand(checkInputCmd, checkOutputCmd)
}

func runCheck(cmd *cobra.Command, args []string, checkpoint string, phase agentspec.Phase) error {
	if err := shared.ValidateFormat(checkFormat); err != nil {
		return err
	}
	text, err := shared.ReadInput(args, cmd.InOrStdin(), cmd.UseLine())
	if err != nil {
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
	engine, err := shared.NewEngine(cfg, rules, rt.Logger)
	if err != nil {
		return err
	}

	result := validate(engine, checkpoint, text, phase)
	if err := writeValidationResult(cmd.OutOrStdout(), result, checkFormat); err != nil {
		return err
	}
	if !result.Passed {
		return shared.NewExitError(shared.ExitValidationFailed)
	}
	return nil
}

// validate runs the named checkpoint.
func validate(engine *guardrail.Engine, checkpoint, text string, phase agentspec.Phase) guardrail.ValidationResult {
	if checkpoint == "output" {
		return engine.ValidateOutput(text, phase)
	}
	return engine.ValidateInput(text)
}

// parsePhase converts a --phase value into a Phase, rejecting unknown names.
func parsePhase(value string) (agentspec.Phase, error) {
	phase, err := agentspec.ParsePhase(value)
	if err != nil {
		return "", apperrors.InvalidPhase(value, phaseNames())
	}
	return phase, nil
}

func phaseNames() []string {
	phases := agentspec.Phases()
	names := make([]string, len(phases))
	for i, p := range phases {
		names[i] = p.String()
	}
	return names
}

func writeValidationResult(w io.Writer, result guardrail.ValidationResult, format string) error {
	if format != shared.FormatTable {
		return shared.WriteStructured(w, format, result)
	}

	green := color.New(color.FgGreen, color.Bold).SprintFunc()
	red := color.New(color.FgRed, color.Bold).SprintFunc()
	yellow := color.New(color.FgYellow).SprintFunc()

	if result.Passed {
		fmt.Fprintln(w, green("✓ Passed"))
	} else {
		fmt.Fprintln(w, red("✗ Failed"))
	}
	if len(result.Violations) > 0 {
		fmt.Fprintln(w, "\nViolations:")
		for _, v := range result.Violations {
			fmt.Fprintf(w, "  %s %s\n", red("✗"), v)
		}
	}
	if len(result.Warnings) > 0 {
		fmt.Fprintln(w, "\nWarnings:")
		for _, warning := range result.Warnings {
			fmt.Fprintf(w, "  %s %s\n", yellow("⚠"), warning)
		}
	}
	return nil
}
