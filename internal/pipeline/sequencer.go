// agentpipe - guardrailed agent pipeline runner

package pipeline

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/ariel-frischer/agentpipe/internal/agentspec"
	"github.com/ariel-frischer/agentpipe/internal/progress"
	"github.com/ariel-frischer/agentpipe/internal/prompt"
)

// StartAgentID is the agent that initializes a run with the epic title.
const StartAgentID = "00-start"

var (
	// ErrStartAgentMissing is returned by Run when the catalog has no start agent.
	ErrStartAgentMissing = errors.New("start agent " + StartAgentID + " not found")
	// ErrAgentNotFound is returned when an agent id is not in the catalog.
	ErrAgentNotFound = errors.New("agent not found")
	// ErrPhaseSkipped is returned when a run would jump forward past a phase.
	ErrPhaseSkipped = errors.New("phase transition skips a phase")
)

// Failure reasons recorded on halted results.
const (
	ReasonInputValidation  = "input validation failed"
	ReasonOutputValidation = "output validation failed"
)

// phaseOrder is the order of a full run. Operations agents only run on demand.
var phaseOrder = []agentspec.Phase{
	agentspec.PhaseFoundation,
	agentspec.PhasePlanning,
	agentspec.PhaseRoles,
	agentspec.PhaseProcess,
	agentspec.PhaseDevelopment,
	agentspec.PhaseFinalization,
}

// PhaseOrder returns the phases of a full run in order.
func PhaseOrder() []agentspec.Phase {
	return append([]agentspec.Phase{}, phaseOrder...)
}

// ValidateTransition reports whether a run may move from one phase to
// another. Staying, advancing by one and going back are allowed; skipping
// forward is not.
func ValidateTransition(from, to agentspec.Phase) error {
	fromIdx, toIdx := from.Order(), to.Order()
	if fromIdx < 0 || toIdx < 0 {
		return fmt.Errorf("invalid phase transition %s -> %s", from, to)
	}
	if toIdx > fromIdx+1 {
		return fmt.Errorf("%w: %s -> %s", ErrPhaseSkipped, from, to)
	}
	return nil
}

// Result is the outcome of one agent step.
type Result struct {
	AgentID    string   `json:"agent_id" yaml:"agent_id"`
	Success    bool     `json:"success" yaml:"success"`
	Output     string   `json:"output,omitempty" yaml:"output,omitempty"`
	Error      string   `json:"error,omitempty" yaml:"error,omitempty"`
	Violations []string `json:"violations,omitempty" yaml:"violations,omitempty"`
	Warnings   []string `json:"warnings,omitempty" yaml:"warnings,omitempty"`
}

// PhaseResults groups the results of one phase.
type PhaseResults struct {
	Phase   agentspec.Phase `json:"phase" yaml:"phase"`
	Results []Result        `json:"results" yaml:"results"`
}

// Report is the outcome of a full run.
type Report struct {
	RunID     string            `json:"run_id" yaml:"run_id"`
	EpicTitle string            `json:"epic_title" yaml:"epic_title"`
	Phases    []PhaseResults    `json:"phases" yaml:"phases"`
	Artifacts map[string]string `json:"artifacts" yaml:"artifacts"`
}

// Succeeded reports whether every agent in the report succeeded.
func (r Report) Succeeded() bool {
	for _, p := range r.Phases {
		if !allSucceeded(p.Results) {
			return false
		}
	}
	return true
}

// RunOptions configures Run.
type RunOptions struct {
	// BeforePhase is called before every phase after foundation.
	BeforePhase PhaseHook
	// StopOnFailure ends the run after the first phase with a failed agent.
	StopOnFailure bool
}

// Option configures a Sequencer.
type Option func(*Sequencer)

// WithExecutor replaces the SimulatedExecutor.
func WithExecutor(e Executor) Option {
	return func(s *Sequencer) { s.executor = e }
}

// WithReporter sets the progress reporter.
func WithReporter(r Reporter) Option {
	return func(s *Sequencer) { s.reporter = r }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Sequencer) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithInputValidation toggles the input checkpoint. It is enabled by default.
func WithInputValidation(enabled bool) Option {
	return func(s *Sequencer) { s.validateInputs = enabled }
}

// WithOutputValidation toggles the output checkpoint. It is enabled by default.
func WithOutputValidation(enabled bool) Option {
	return func(s *Sequencer) { s.validateOutputs = enabled }
}

// Sequencer runs agents one at a time in phase order. It is not safe for
// concurrent use.
type Sequencer struct {
	catalog   *agentspec.Catalog
	agents    map[string]prompt.Agent
	byPhase   map[agentspec.Phase][]string
	validator Validator
	executor  Executor
	reporter  Reporter
	logger    *zap.Logger

	validateInputs  bool
	validateOutputs bool

	state   *State
	started bool
}

// NewSequencer creates agents for every spec in catalog and returns a
// sequencer with fresh state.
func NewSequencer(catalog *agentspec.Catalog, factory AgentFactory, validator Validator, opts ...Option) *Sequencer {
	s := &Sequencer{
		catalog:         catalog,
		byPhase:         catalog.ByPhase(),
		validator:       validator,
		executor:        SimulatedExecutor{},
		reporter:        nopReporter{},
		logger:          zap.NewNop(),
		validateInputs:  true,
		validateOutputs: true,
		state:           newState(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.agents = factory.CreateAll(catalog)
	return s
}

// State returns a snapshot of the run state.
func (s *Sequencer) State() State {
	return s.state.clone()
}

// Status summarizes the run.
func (s *Sequencer) Status() Status {
	return Status{
		RunID:           s.state.RunID,
		EpicTitle:       s.state.EpicTitle,
		CurrentPhase:    s.state.CurrentPhase,
		CompletedAgents: len(s.state.CompletedAgents),
		TotalAgents:     len(s.agents),
		Artifacts:       len(s.state.Artifacts),
	}
}

// Catalog returns the catalog the sequencer was built from.
func (s *Sequencer) Catalog() *agentspec.Catalog {
	return s.catalog
}

// Agent returns the assembled agent for id.
func (s *Sequencer) Agent(id string) (prompt.Agent, bool) {
	a, ok := s.agents[id]
	return a, ok
}

// ExecuteAgent runs one agent. Guardrail findings are reported in the
// Result; the error is only set for an unknown agent or a cancelled ctx.
func (s *Sequencer) ExecuteAgent(ctx context.Context, id, input string) (Result, error) {
	return s.executeStep(ctx, id, input, progress.StepInfo{AgentID: id, Number: 1, Total: 1})
}

func (s *Sequencer) executeStep(ctx context.Context, id, input string, step progress.StepInfo) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	agent, ok := s.agents[id]
	if !ok {
		return Result{}, fmt.Errorf("%w: %s", ErrAgentNotFound, id)
	}

	step.Name = agent.Name
	step.Phase = agent.Phase.String()
	step.Status = progress.StepInProgress
	if err := s.reporter.StartStep(step); err != nil {
		s.logger.Debug("Progress display rejected step", zap.Error(err))
	}
	s.state.CurrentAgentID = id
	log := s.logger.With(zap.String("agent", id), zap.String("phase", agent.Phase.String()))
	log.Info("Executing agent")

	var warnings []string
	if input != "" && s.validateInputs {
		v := s.validator.ValidateInput(input)
		if !v.Passed {
			return s.fail(log, step, ReasonInputValidation, v.Violations), nil
		}
		warnings = append(warnings, v.Warnings...)
	}

	exec, err := s.executor.Execute(ctx, agent, RunPrompt(s.state.clone(), input))
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			s.fail(log, step, err.Error(), nil)
			return Result{}, ctxErr
		}
		return s.fail(log, step, err.Error(), nil), nil
	}

	if s.validateOutputs {
		v := s.validator.ValidateOutput(exec.Output, agent.Phase)
		if !v.Passed {
			return s.fail(log, step, ReasonOutputValidation, v.Violations), nil
		}
		warnings = append(warnings, v.Warnings...)
	}

	s.state.CompletedAgents = append(s.state.CompletedAgents, id)
	if exec.ArtifactPath != "" {
		s.state.Artifacts[id] = exec.ArtifactPath
	}
	for k, v := range exec.Context {
		s.state.Context[k] = v
	}

	step.Status = progress.StepCompleted
	if err := s.reporter.CompleteStep(step, warnings); err != nil {
		log.Debug("Progress display rejected step", zap.Error(err))
	}
	if len(warnings) > 0 {
		log.Warn("Agent completed with warnings", zap.Strings("warnings", warnings))
	} else {
		log.Info("Agent completed")
	}

	return Result{
		AgentID:  id,
		Success:  true,
		Output:   exec.Output,
		Warnings: warnings,
	}, nil
}

func (s *Sequencer) fail(log *zap.Logger, step progress.StepInfo, reason string, violations []string) Result {
	step.Status = progress.StepFailed
	if err := s.reporter.FailStep(step, reason, violations); err != nil {
		log.Debug("Progress display rejected step", zap.Error(err))
	}
	log.Warn("Agent halted", zap.String("reason", reason), zap.Strings("violations", violations))
	return Result{
		AgentID:    step.AgentID,
		Success:    false,
		Error:      reason,
		Violations: violations,
	}
}

// ExecutePhase runs every agent of phase in id order. inputs supplies
// optional per-agent input text. Once a run has been started, phases may
// not be skipped.
func (s *Sequencer) ExecutePhase(ctx context.Context, phase agentspec.Phase, inputs map[string]string) ([]Result, error) {
	if s.started {
		if err := ValidateTransition(s.state.CurrentPhase, phase); err != nil {
			return nil, err
		}
	}

	ids := s.byPhase[phase]
	s.reporter.StartPhase(phase.String(), len(ids))
	s.logger.Info("Executing phase", zap.String("phase", phase.String()), zap.Int("agents", len(ids)))
	s.state.CurrentPhase = phase

	results := make([]Result, 0, len(ids))
	for i, id := range ids {
		res, err := s.executeStep(ctx, id, inputs[id], progress.StepInfo{AgentID: id, Number: i + 1, Total: len(ids)})
		if err != nil {
			return results, err
		}
		results = append(results, res)
	}
	return results, nil
}

// Run executes the start agent with epicTitle as input and then every
// remaining phase in order. Guardrail failures do not stop the run unless
// opts.StopOnFailure is set.
func (s *Sequencer) Run(ctx context.Context, epicTitle string, opts RunOptions) (Report, error) {
	if _, ok := s.agents[StartAgentID]; !ok {
		return Report{}, ErrStartAgentMissing
	}

	s.state.EpicTitle = epicTitle
	s.started = true
	report := Report{RunID: s.state.RunID, EpicTitle: epicTitle}
	s.logger.Info("Starting run", zap.String("run_id", s.state.RunID), zap.String("epic", epicTitle))

	s.reporter.StartPhase(agentspec.PhaseFoundation.String(), 1)
	s.state.CurrentPhase = agentspec.PhaseFoundation
	start, err := s.executeStep(ctx, StartAgentID, epicTitle, progress.StepInfo{AgentID: StartAgentID, Number: 1, Total: 1})
	if err != nil {
		return s.finish(report), err
	}
	report.Phases = append(report.Phases, PhaseResults{Phase: agentspec.PhaseFoundation, Results: []Result{start}})
	if opts.StopOnFailure && !start.Success {
		return s.finish(report), nil
	}

	for _, phase := range phaseOrder[1:] {
		if opts.BeforePhase != nil {
			if err := opts.BeforePhase(ctx, phase); err != nil {
				return s.finish(report), err
			}
		}

		results, err := s.ExecutePhase(ctx, phase, nil)
		report.Phases = append(report.Phases, PhaseResults{Phase: phase, Results: results})
		if err != nil {
			return s.finish(report), err
		}
		if opts.StopOnFailure && !allSucceeded(results) {
			break
		}
	}

	return s.finish(report), nil
}

func (s *Sequencer) finish(report Report) Report {
	report.Artifacts = cloneMap(s.state.Artifacts)
	s.state.CurrentAgentID = ""
	return report
}

func allSucceeded(results []Result) bool {
	for _, r := range results {
		if !r.Success {
			return false
		}
	}
	return true
}
