// Package pipeline tests agent sequencing, guardrail checkpoints and run bookkeeping.
// Related: internal/pipeline/sequencer.go, internal/pipeline/state.go, internal/pipeline/executor.go
// Tags: pipeline, sequencer, guardrails, phases, state, goleak
package pipeline

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/ariel-frischer/agentpipe/internal/agentspec"
	"github.com/ariel-frischer/agentpipe/internal/guardrail"
	"github.com/ariel-frischer/agentpipe/internal/progress"
	"github.com/ariel-frischer/agentpipe/internal/prompt"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

const rulesDoc = `## Forbidden Actions

### 1. Scope and Time
- ❌ Do not make or imply time estimates.
- ❌ Do not invent scope.

### 2. Output
- ❌ Never include next steps or recommendations.
`

func testCatalog() *agentspec.Catalog {
	return agentspec.NewCatalog(
		agentspec.Parse("commands/00-start.md", "## Role & Mindset\nYou are a **Starter**."),
		agentspec.Parse("commands/10-planning/11-discuss.md", "## Role & Mindset\nYou are a **Product Manager**."),
		agentspec.Parse("commands/10-planning/12-idea.md", "## Role & Mindset\nYou are an innovator."),
		agentspec.Parse("commands/20-roles/22-architect.md", "## Role & Mindset\nYou are a **Architect**."),
		agentspec.Parse("commands/40-development/42-code.md", "## Role & Mindset\nYou are a **Developer**."),
		agentspec.Parse("commands/99-operations/99-rollback.md", "# Rollback"),
	)
}

func newTestSequencer(t *testing.T, catalog *agentspec.Catalog, opts ...Option) *Sequencer {
	t.Helper()
	engine := guardrail.NewEngine(guardrail.ParseRules("support/01-forbidden.md", rulesDoc))
	factory := prompt.NewFactory(engine, nil, "")
	return NewSequencer(catalog, factory, engine, opts...)
}

type fakeExecutor struct {
	executions map[string]Execution
	errs       map[string]error
	prompts    map[string]string
	order      []string
}

func newFakeExecutor() *fakeExecutor {
	return &fakeExecutor{
		executions: map[string]Execution{},
		errs:       map[string]error{},
		prompts:    map[string]string{},
	}
}

func (f *fakeExecutor) Execute(ctx context.Context, agent prompt.Agent, runPrompt string) (Execution, error) {
	f.order = append(f.order, agent.ID)
	f.prompts[agent.ID] = runPrompt
	if err := f.errs[agent.ID]; err != nil {
		return Execution{}, err
	}
	if exec, ok := f.executions[agent.ID]; ok {
		return exec, nil
	}
	return Execution{Output: "done: " + agent.ID}, nil
}

type recordingReporter struct {
	events []string
}

func (r *recordingReporter) StartPhase(phase string, agents int) {
	r.events = append(r.events, "phase:"+phase)
}

func (r *recordingReporter) StartStep(step progress.StepInfo) error {
	r.events = append(r.events, "start:"+step.AgentID)
	return nil
}

func (r *recordingReporter) CompleteStep(step progress.StepInfo, warnings []string) error {
	r.events = append(r.events, "ok:"+step.AgentID)
	return nil
}

func (r *recordingReporter) FailStep(step progress.StepInfo, reason string, details []string) error {
	r.events = append(r.events, "fail:"+step.AgentID)
	return nil
}

func TestSequencer_RunSimulated(t *testing.T) {
	t.Parallel()

	seq := newTestSequencer(t, testCatalog())
	report, err := seq.Run(context.Background(), "User login", RunOptions{})
	require.NoError(t, err)

	assert.True(t, report.Succeeded())
	assert.Equal(t, "User login", report.EpicTitle)
	assert.NotEmpty(t, report.RunID)

	var phases []agentspec.Phase
	for _, p := range report.Phases {
		phases = append(phases, p.Phase)
	}
	assert.Equal(t, PhaseOrder(), phases)

	state := seq.State()
	assert.Equal(t, []string{"00-start", "11-discuss", "12-idea", "22-architect", "42-code"}, state.CompletedAgents)
	assert.Equal(t, agentspec.PhaseFinalization, state.CurrentPhase)
	assert.Empty(t, state.CurrentAgentID)

	status := seq.Status()
	assert.Equal(t, Status{
		RunID:           report.RunID,
		EpicTitle:       "User login",
		CurrentPhase:    agentspec.PhaseFinalization,
		CompletedAgents: 5,
		TotalAgents:     6,
		Artifacts:       0,
	}, status)
}

func TestNewSequencer_BuildsAgentsThroughFactory(t *testing.T) {
	t.Parallel()

	catalog := testCatalog()
	seq := newTestSequencer(t, catalog)

	assert.Equal(t, catalog.Len(), seq.Status().TotalAgents)
	for _, id := range catalog.Order() {
		agent, ok := seq.Agent(id)
		require.True(t, ok, id)
		assert.Equal(t, id, agent.ID)
		assert.Contains(t, agent.Instructions, "CRITICAL CONSTRAINTS")
	}
}

func TestSequencer_RunRequiresStartAgent(t *testing.T) {
	t.Parallel()

	catalog := agentspec.NewCatalog(agentspec.Parse("11-discuss.md", "# Discuss"))
	_, err := newTestSequencer(t, catalog).Run(context.Background(), "Epic", RunOptions{})
	assert.ErrorIs(t, err, ErrStartAgentMissing)
}

func TestSequencer_ExecuteAgent(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		input          string
		execution      *Execution
		wantSuccess    bool
		wantError      string
		wantViolations int
		wantWarnings   int
	}{
		"clean input and output": {
			input:       "Let's build the login feature",
			wantSuccess: true,
		},
		"empty input skips input checkpoint": {
			input:       "",
			wantSuccess: true,
		},
		"time estimate in input": {
			input:          "This will take 2 weeks",
			wantError:      ReasonInputValidation,
			wantViolations: 1,
		},
		"scope invention warns": {
			input:        "We might want dark mode",
			wantSuccess:  true,
			wantWarnings: 1,
		},
		"recommendations in output": {
			execution:      &Execution{Output: "Summary.\n\nNext steps:\n1. Ship"},
			wantError:      ReasonOutputValidation,
			wantViolations: 1,
		},
		"code in planning output": {
			execution:      &Execution{Output: "```python\nclass User:\n    pass\n```"},
			wantError:      ReasonOutputValidation,
			wantViolations: 1,
		},
	}

	for name, tt := range tests {
		tt := tt
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			exec := newFakeExecutor()
			if tt.execution != nil {
				exec.executions["11-discuss"] = *tt.execution
			}
			seq := newTestSequencer(t, testCatalog(), WithExecutor(exec))

			result, err := seq.ExecuteAgent(context.Background(), "11-discuss", tt.input)
			require.NoError(t, err)

			assert.Equal(t, tt.wantSuccess, result.Success)
			assert.Equal(t, tt.wantError, result.Error)
			assert.Len(t, result.Violations, tt.wantViolations)
			assert.Len(t, result.Warnings, tt.wantWarnings)

			completed := seq.State().CompletedAgents
			if tt.wantSuccess {
				assert.Equal(t, []string{"11-discuss"}, completed)
			} else {
				assert.Empty(t, completed)
			}
		})
	}
}

func TestSequencer_InputHaltSkipsExecution(t *testing.T) {
	t.Parallel()

	exec := newFakeExecutor()
	seq := newTestSequencer(t, testCatalog(), WithExecutor(exec))

	result, err := seq.ExecuteAgent(context.Background(), "11-discuss", "How long will this take?")
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Empty(t, exec.order)
}

func TestSequencer_ValidationToggles(t *testing.T) {
	t.Parallel()

	exec := newFakeExecutor()
	exec.executions["11-discuss"] = Execution{Output: "Next steps: ship"}
	seq := newTestSequencer(t, testCatalog(),
		WithExecutor(exec),
		WithInputValidation(false),
		WithOutputValidation(false),
	)

	result, err := seq.ExecuteAgent(context.Background(), "11-discuss", "This will take 2 weeks")
	require.NoError(t, err)
	assert.True(t, result.Success)
}

func TestSequencer_ExecutorError(t *testing.T) {
	t.Parallel()

	exec := newFakeExecutor()
	exec.errs["42-code"] = errors.New("model unavailable")
	seq := newTestSequencer(t, testCatalog(), WithExecutor(exec))

	result, err := seq.ExecuteAgent(context.Background(), "42-code", "")
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Equal(t, "model unavailable", result.Error)
}

func TestSequencer_UnknownAgent(t *testing.T) {
	t.Parallel()

	_, err := newTestSequencer(t, testCatalog()).ExecuteAgent(context.Background(), "77-missing", "")
	assert.ErrorIs(t, err, ErrAgentNotFound)
}

func TestSequencer_Cancelled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	exec := newFakeExecutor()
	_, err := newTestSequencer(t, testCatalog(), WithExecutor(exec)).Run(ctx, "Epic", RunOptions{})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, exec.order)
}

func TestSequencer_BeforePhaseHook(t *testing.T) {
	t.Parallel()

	var seen []agentspec.Phase
	errStop := errors.New("stop")
	hook := func(_ context.Context, phase agentspec.Phase) error {
		seen = append(seen, phase)
		if phase == agentspec.PhaseRoles {
			return errStop
		}
		return nil
	}

	exec := newFakeExecutor()
	seq := newTestSequencer(t, testCatalog(), WithExecutor(exec))
	report, err := seq.Run(context.Background(), "Epic", RunOptions{BeforePhase: hook})

	assert.ErrorIs(t, err, errStop)
	assert.Equal(t, []agentspec.Phase{agentspec.PhasePlanning, agentspec.PhaseRoles}, seen)
	assert.Equal(t, []string{"00-start", "11-discuss", "12-idea"}, exec.order)
	assert.Len(t, report.Phases, 2)
}

func TestSequencer_StopOnFailure(t *testing.T) {
	t.Parallel()

	exec := newFakeExecutor()
	exec.executions["11-discuss"] = Execution{Output: "Recommendations: none"}
	seq := newTestSequencer(t, testCatalog(), WithExecutor(exec))

	report, err := seq.Run(context.Background(), "Epic", RunOptions{StopOnFailure: true})
	require.NoError(t, err)

	assert.False(t, report.Succeeded())
	assert.Len(t, report.Phases, 2)
	assert.Equal(t, []string{"00-start", "11-discuss", "12-idea"}, exec.order)
}

func TestSequencer_ArtifactsAndContextFlow(t *testing.T) {
	t.Parallel()

	exec := newFakeExecutor()
	exec.executions["11-discuss"] = Execution{
		Output:       "discussed",
		ArtifactPath: ".taskmaster/epics/001/11-discuss.md",
		Context:      map[string]string{"prd": "approved"},
	}
	seq := newTestSequencer(t, testCatalog(), WithExecutor(exec))

	report, err := seq.Run(context.Background(), "Epic", RunOptions{})
	require.NoError(t, err)

	assert.Equal(t, map[string]string{"11-discuss": ".taskmaster/epics/001/11-discuss.md"}, report.Artifacts)
	assert.Equal(t, "approved", seq.State().Context["prd"])
	assert.NotContains(t, exec.prompts["11-discuss"], "## Available Artifacts")
	assert.Contains(t, exec.prompts["22-architect"], "- 11-discuss: .taskmaster/epics/001/11-discuss.md")
	assert.Contains(t, exec.prompts["00-start"], "## User Input\nEpic\n")
	assert.Equal(t, 1, seq.Status().Artifacts)
}

func TestSequencer_ExecutePhaseTransitions(t *testing.T) {
	t.Parallel()

	hook := func(_ context.Context, phase agentspec.Phase) error {
		return errors.New("paused")
	}
	seq := newTestSequencer(t, testCatalog(), WithExecutor(newFakeExecutor()))
	_, err := seq.Run(context.Background(), "Epic", RunOptions{BeforePhase: hook})
	require.Error(t, err)

	_, err = seq.ExecutePhase(context.Background(), agentspec.PhaseRoles, nil)
	assert.ErrorIs(t, err, ErrPhaseSkipped)

	results, err := seq.ExecutePhase(context.Background(), agentspec.PhasePlanning, map[string]string{"12-idea": "Brainstorm"})
	require.NoError(t, err)
	assert.Len(t, results, 2)
}

func TestSequencer_StandalonePhase(t *testing.T) {
	t.Parallel()

	exec := newFakeExecutor()
	seq := newTestSequencer(t, testCatalog(), WithExecutor(exec))

	results, err := seq.ExecutePhase(context.Background(), agentspec.PhaseOperations, nil)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "99-rollback", results[0].AgentID)
}

func TestSequencer_ReportsProgress(t *testing.T) {
	t.Parallel()

	exec := newFakeExecutor()
	exec.executions["12-idea"] = Execution{Output: "you might want a chatbot"}
	reporter := &recordingReporter{}
	seq := newTestSequencer(t, testCatalog(), WithExecutor(exec), WithReporter(reporter))

	_, err := seq.ExecutePhase(context.Background(), agentspec.PhasePlanning, nil)
	require.NoError(t, err)

	assert.Equal(t, []string{
		"phase:planning",
		"start:11-discuss", "ok:11-discuss",
		"start:12-idea", "fail:12-idea",
	}, reporter.events)
}

func TestSequencer_LogsHalts(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zap.InfoLevel)
	seq := newTestSequencer(t, testCatalog(), WithLogger(zap.New(core)))

	_, err := seq.ExecuteAgent(context.Background(), "11-discuss", "timeline please")
	require.NoError(t, err)

	halts := logs.FilterMessage("Agent halted").All()
	require.Len(t, halts, 1)
	assert.Equal(t, "11-discuss", halts[0].ContextMap()["agent"])
	assert.Equal(t, ReasonInputValidation, halts[0].ContextMap()["reason"])
}

func TestValidateTransition(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		from, to agentspec.Phase
		wantErr  error
	}{
		"same phase":       {from: agentspec.PhasePlanning, to: agentspec.PhasePlanning},
		"next phase":       {from: agentspec.PhasePlanning, to: agentspec.PhaseRoles},
		"backwards":        {from: agentspec.PhaseDevelopment, to: agentspec.PhasePlanning},
		"skip forward":     {from: agentspec.PhaseFoundation, to: agentspec.PhaseRoles, wantErr: ErrPhaseSkipped},
		"finalization ops": {from: agentspec.PhaseFinalization, to: agentspec.PhaseOperations},
	}

	for name, tt := range tests {
		tt := tt
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			err := ValidateTransition(tt.from, tt.to)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			assert.NoError(t, err)
		})
	}

	assert.Error(t, ValidateTransition(agentspec.PhaseUnknown, agentspec.PhasePlanning))
}

func TestSimulatedExecutor(t *testing.T) {
	t.Parallel()

	agent := prompt.Agent{ID: "11-discuss", Instructions: strings.Repeat("é", 300)}
	exec, err := SimulatedExecutor{}.Execute(context.Background(), agent, "")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(exec.Output, "Simulated output from agent 11-discuss\n\nAgent would execute based on:\n"))
	assert.True(t, strings.HasSuffix(exec.Output, strings.Repeat("é", 200)+"..."))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = SimulatedExecutor{}.Execute(ctx, agent, "")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRunPrompt(t *testing.T) {
	t.Parallel()

	out := RunPrompt(State{}, "")
	assert.Equal(t, "## Epic Context\nEpic: N/A\nRun ID: N/A\n\n", out)

	out = RunPrompt(State{
		RunID:     "r1",
		EpicTitle: "Login",
		Artifacts: map[string]string{"12-idea": "b.md", "11-discuss": "a.md"},
	}, "go")
	assert.Contains(t, out, "- 11-discuss: a.md\n- 12-idea: b.md\n")
	assert.True(t, strings.HasSuffix(out, "## User Input\ngo\n"))
}
