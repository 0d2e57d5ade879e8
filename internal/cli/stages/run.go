package stages

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/ariel-frischer/agentpipe/internal/agentspec"
	"github.com/ariel-frischer/agentpipe/internal/cli/shared"
	apperrors "github.com/ariel-frischer/agentpipe/internal/errors"
	"github.com/ariel-frischer/agentpipe/internal/pipeline"
	"github.com/ariel-frischer/agentpipe/internal/progress"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// errRunAborted is returned when the user quits at an interactive pause.
var errRunAborted = errors.New("run aborted by user")

var (
	runInteractive   bool
	runPhase         string
	runAgent         string
	runStopOnFailure bool
	runFormat        string
)

var runCmd = &cobra.Command{
	Use:   "run [epic title]",
	Short: "Run the agent pipeline (simulated)",
	Long: `Run the agent pipeline for an epic. Execution is simulated: every agent
gets its instructions and run context, and the guardrail engine checks the
input before and the output after each agent.

Without --phase or --agent the 00-start agent runs first with the epic title
as input, followed by planning, roles, process, development and finalization.
The operations phase only runs on demand with --phase operations.

Exits with code 1 when any agent was halted by a guardrail.`,
	Example: `  # Full pipeline
  agentpipe run "User authentication"

  # Pause before every phase
  agentpipe run "User authentication" --interactive

  # A single phase or agent
  agentpipe run --phase planning
  agentpipe run --agent 11-discuss "Focus on SSO"`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := shared.ValidateFormat(runFormat); err != nil {
			return err
		}
		if runPhase != "" && runAgent != "" {
			return apperrors.NewArgumentErrorWithUsage("--phase and --agent are mutually exclusive",
				"agentpipe run [--phase <name> | --agent <id>] [epic title]")
		}
		input := strings.TrimSpace(strings.Join(args, " "))
		if runPhase == "" && runAgent == "" && input == "" {
			return apperrors.MissingInput("agentpipe run <epic title>")
		}

		rt := shared.RuntimeFrom(cmd)
		cfg, err := rt.RequireConfig()
		if err != nil {
			return err
		}
		ws, err := shared.OpenWorkspace(cfg, rt.Logger)
		if err != nil {
			return err
		}

		var opts []pipeline.Option
		if cfg.ShowProgress && runFormat == shared.FormatTable {
			display := progress.NewDisplay(progress.DetectTerminalCapabilities(), cmd.OutOrStdout())
			defer display.StopSpinner()
			opts = append(opts, pipeline.WithReporter(display))
		}
		seq := ws.Sequencer(opts...)

		req := runRequest{
			epic:          input,
			phase:         runPhase,
			agent:         runAgent,
			interactive:   runInteractive,
			stopOnFailure: runStopOnFailure,
			format:        runFormat,
		}
		return executeRun(cmd.Context(), seq, req, cmd.InOrStdin(), cmd.OutOrStdout(), rt.Logger)
	},
}

func init() {
	runCmd.GroupID = shared.GroupPipeline
	runCmd.Flags().BoolVarP(&runInteractive, "interactive", "i", false, "Pause before each phase")
	runCmd.Flags().StringVarP(&runPhase, "phase", "p", "", "Run a single phase")
	runCmd.Flags().StringVarP(&runAgent, "agent", "a", "", "Run a single agent")
	runCmd.Flags().BoolVar(&runStopOnFailure, "stop-on-failure", false, "Stop after the first phase with a halted agent")
	runCmd.Flags().StringVarP(&runFormat, "format", "f", shared.FormatTable, "Summary format: table, json, yaml")
}

// runRequest selects what executeRun does.
type runRequest struct {
	epic          string
	phase         string
	agent         string
	interactive   bool
	stopOnFailure bool
	format        string
}

// executeRun runs a single agent, a single phase or the full pipeline and
// writes the summary to out.
func executeRun(ctx context.Context, seq *pipeline.Sequencer, req runRequest, in io.Reader, out io.Writer, logger *zap.Logger) error {
	if ctx == nil {
		ctx = context.Background()
	}

	var (
		report pipeline.Report
		err    error
	)
	switch {
	case req.agent != "":
		report, err = runSingleAgent(ctx, seq, req)
	case req.phase != "":
		report, err = runSinglePhase(ctx, seq, req)
	default:
		opts := pipeline.RunOptions{StopOnFailure: req.stopOnFailure}
		if req.interactive {
			opts.BeforePhase = pauseBeforePhase(in, out)
		}
		report, err = seq.Run(ctx, req.epic, opts)
	}

	if err != nil {
		switch {
		case apperrors.IsCLIError(err):
			return err
		case errors.Is(err, pipeline.ErrStartAgentMissing):
			return apperrors.NewPrerequisiteError(err.Error(),
				fmt.Sprintf("Add commands/%s.md to the repository", pipeline.StartAgentID),
				"Or run a single phase with --phase",
			)
		case errors.Is(err, pipeline.ErrAgentNotFound):
			return apperrors.AgentNotFound(req.agent, seq.Catalog().Order())
		case errors.Is(err, errRunAborted):
			logger.Info("Run aborted", zap.String("run_id", report.RunID))
			if werr := writeReport(out, report, req.format); werr != nil {
				return werr
			}
			return shared.NewExitError(shared.ExitValidationFailed)
		default:
			return apperrors.Wrap(err, apperrors.Runtime)
		}
	}

	if err := writeReport(out, report, req.format); err != nil {
		return err
	}
	if !report.Succeeded() {
		return shared.NewExitError(shared.ExitValidationFailed)
	}
	return nil
}

func runSingleAgent(ctx context.Context, seq *pipeline.Sequencer, req runRequest) (pipeline.Report, error) {
	spec, ok := seq.Catalog().Get(req.agent)
	if !ok {
		return pipeline.Report{}, pipeline.ErrAgentNotFound
	}
	res, err := seq.ExecuteAgent(ctx, req.agent, req.epic)
	state := seq.State()
	report := pipeline.Report{
		RunID:     state.RunID,
		Phases:    []pipeline.PhaseResults{{Phase: spec.Phase, Results: []pipeline.Result{res}}},
		Artifacts: state.Artifacts,
	}
	return report, err
}

func runSinglePhase(ctx context.Context, seq *pipeline.Sequencer, req runRequest) (pipeline.Report, error) {
	phase, err := parsePhase(req.phase)
	if err != nil {
		return pipeline.Report{}, err
	}
	var inputs map[string]string
	if req.epic != "" {
		inputs = make(map[string]string)
		for _, id := range seq.Catalog().ByPhase()[phase] {
			inputs[id] = req.epic
		}
	}
	results, err := seq.ExecutePhase(ctx, phase, inputs)
	state := seq.State()
	return pipeline.Report{
		RunID:     state.RunID,
		Phases:    []pipeline.PhaseResults{{Phase: phase, Results: results}},
		Artifacts: state.Artifacts,
	}, err
}

// pauseBeforePhase waits for Enter before each phase; "q" aborts the run.
func pauseBeforePhase(in io.Reader, out io.Writer) pipeline.PhaseHook {
	reader := bufio.NewReader(in)
	return func(ctx context.Context, phase agentspec.Phase) error {
		fmt.Fprintf(out, "\nNext: %s phase. Press Enter to continue or q to quit: ", phase)
		line, err := reader.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return fmt.Errorf("reading confirmation: %w", err)
		}
		if answer := strings.ToLower(strings.TrimSpace(line)); answer == "q" || answer == "quit" {
			return errRunAborted
		}
		if errors.Is(err, io.EOF) && line == "" {
			return errRunAborted
		}
		return ctx.Err()
	}
}

func writeReport(w io.Writer, report pipeline.Report, format string) error {
	if format != shared.FormatTable {
		return shared.WriteStructured(w, format, report)
	}

	green := color.New(color.FgGreen).SprintFunc()
	red := color.New(color.FgRed).SprintFunc()
	yellow := color.New(color.FgYellow).SprintFunc()
	bold := color.New(color.Bold).SprintFunc()

	total, succeeded := 0, 0
	fmt.Fprintf(w, "\n%s\n", bold("Run summary"))
	if report.EpicTitle != "" {
		fmt.Fprintf(w, "Epic: %s\n", report.EpicTitle)
	}
	fmt.Fprintf(w, "Run ID: %s\n", report.RunID)
	for _, phase := range report.Phases {
		fmt.Fprintf(w, "\n%s\n", bold(phase.Phase.String()))
		if len(phase.Results) == 0 {
			fmt.Fprintln(w, "  (no agents)")
		}
		for _, res := range phase.Results {
			total++
			if res.Success {
				succeeded++
				fmt.Fprintf(w, "  %s %s\n", green("✓"), res.AgentID)
			} else {
				fmt.Fprintf(w, "  %s %s: %s\n", red("✗"), res.AgentID, res.Error)
				for _, v := range res.Violations {
					fmt.Fprintf(w, "      - %s\n", v)
				}
			}
			for _, warning := range res.Warnings {
				fmt.Fprintf(w, "      %s %s\n", yellow("⚠"), warning)
			}
		}
	}
	fmt.Fprintf(w, "\n%d/%d agents succeeded, %d artifacts\n", succeeded, total, len(report.Artifacts))
	return nil
}
