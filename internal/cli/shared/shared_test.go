// Package shared tests exit code mapping, structured output, input reading
// and workspace loading.
// Related: internal/cli/shared/constants.go, internal/cli/shared/output.go, internal/cli/shared/workspace.go
// Tags: cli, shared, exit-codes, output, workspace
package shared

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ariel-frischer/agentpipe/internal/agentspec"
	"github.com/ariel-frischer/agentpipe/internal/config"
	apperrors "github.com/ariel-frischer/agentpipe/internal/errors"
	"github.com/ariel-frischer/agentpipe/internal/testutil"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestExitCode(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		err  error
		want int
	}{
		"nil":          {err: nil, want: ExitSuccess},
		"exit error":   {err: NewExitError(ExitValidationFailed), want: ExitValidationFailed},
		"wrapped exit": {err: fmt.Errorf("ctx: %w", NewExitError(ExitMissingDependency)), want: ExitMissingDependency},
		"argument":     {err: apperrors.NewArgumentError("bad"), want: ExitInvalidArguments},
		"config":       {err: apperrors.NewConfigError("bad"), want: ExitInvalidArguments},
		"prerequisite": {err: apperrors.NewPrerequisiteError("missing"), want: ExitMissingDependency},
		"runtime":      {err: apperrors.NewRuntimeError("boom"), want: ExitValidationFailed},
		"plain error":  {err: errors.New("boom"), want: ExitValidationFailed},
	}

	for name, tt := range tests {
		tt := tt
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, ExitCode(tt.err))
		})
	}
}

func TestValidateFormat(t *testing.T) {
	t.Parallel()

	for _, f := range Formats {
		assert.NoError(t, ValidateFormat(f))
	}
	err := ValidateFormat("xml")
	require.Error(t, err)
	assert.True(t, apperrors.IsCLIError(err))
}

func TestWriteStructured(t *testing.T) {
	t.Parallel()

	v := map[string]any{"id": "11-discuss", "steps": 3}

	var jsonBuf bytes.Buffer
	require.NoError(t, WriteStructured(&jsonBuf, FormatJSON, v))
	var fromJSON map[string]any
	require.NoError(t, json.Unmarshal(jsonBuf.Bytes(), &fromJSON))
	assert.Equal(t, "11-discuss", fromJSON["id"])

	var yamlBuf bytes.Buffer
	require.NoError(t, WriteStructured(&yamlBuf, FormatYAML, v))
	assert.Contains(t, yamlBuf.String(), "id: 11-discuss")
	var fromYAML map[string]any
	require.NoError(t, yaml.Unmarshal(yamlBuf.Bytes(), &fromYAML))
	assert.Equal(t, 3, fromYAML["steps"])

	assert.Error(t, WriteStructured(&yamlBuf, FormatTable, v))
}

func TestWriteTable(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, WriteTable(&buf, []string{"ID", "NAME"}, [][]string{
		{"00-start", "Start"},
		{"11-discuss", "Product Manager"},
	}))

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], "ID"))
	assert.True(t, strings.HasPrefix(lines[1], "00-start"))
	assert.True(t, strings.HasPrefix(lines[2], "11-discuss"))
	// Columns line up.
	assert.Equal(t, strings.Index(lines[0], "NAME"), strings.Index(lines[2], "Product Manager"))
	assert.NotContains(t, buf.String(), "\033[")
}

func TestReadInput(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		args    []string
		stdin   string
		want    string
		wantErr bool
	}{
		"joined args":    {args: []string{"estimate", "the", "work"}, want: "estimate the work"},
		"stdin":          {args: []string{"-"}, stdin: "  from stdin\n", want: "from stdin"},
		"no args":        {args: nil, wantErr: true},
		"blank stdin":    {args: []string{"-"}, stdin: "\n", wantErr: true},
		"whitespace arg": {args: []string{"  "}, wantErr: true},
	}

	for name, tt := range tests {
		tt := tt
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			got, err := ReadInput(tt.args, strings.NewReader(tt.stdin), "agentpipe check input <text|->")
			if tt.wantErr {
				require.Error(t, err)
				assert.Equal(t, ExitInvalidArguments, ExitCode(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSetup_RepoFlag(t *testing.T) {
	home := testutil.IsolateEnv(t)

	tests := map[string]struct {
		repo string
		want string
	}{
		"home relative": {repo: "~/proj", want: filepath.Join(home, "proj")},
		"absolute":      {repo: "/srv/agents", want: "/srv/agents"},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			cmd := &cobra.Command{Use: "test"}
			cmd.Flags().String("config", filepath.Join(t.TempDir(), "config.json"), "")
			cmd.Flags().String("repo", "", "")
			cmd.Flags().Bool("debug", false, "")
			cmd.Flags().Bool("verbose", false, "")
			require.NoError(t, cmd.Flags().Set("repo", tt.repo))

			require.NoError(t, Setup(cmd))
			t.Cleanup(func() { Teardown(cmd) })

			cfg, err := RuntimeFrom(cmd).RequireConfig()
			require.NoError(t, err)
			assert.Equal(t, tt.want, cfg.RepoPath)
		})
	}
}

func TestOpenWorkspace(t *testing.T) {
	t.Parallel()

	repo := testutil.NewRepo(t)
	ws, err := OpenWorkspace(testutil.NewConfig(repo), nil)
	require.NoError(t, err)

	assert.Equal(t, len(testutil.FixtureAgents), ws.Catalog.Len())
	assert.Equal(t, 8, ws.Rules.Len())
	assert.Equal(t, []string{"github", "task-master-ai"}, ws.Tools.EnabledServers())

	agent := ws.Factory().Create(mustGet(t, ws, "11-discuss"))
	assert.Contains(t, agent.Instructions, "## CRITICAL CONSTRAINTS")
	assert.Equal(t, "gpt-4o", agent.Model)
}

func TestOpenWorkspace_Errors(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		setup    func(t *testing.T) *config.Configuration
		wantCode int
		wantMsg  string
	}{
		"missing rules": {
			setup: func(t *testing.T) *config.Configuration {
				cfg := testutil.NewConfig(testutil.NewRepo(t))
				cfg.RulesFile = "support/missing.md"
				return cfg
			},
			wantCode: ExitMissingDependency,
			wantMsg:  "rules file not found",
		},
		"empty rules": {
			setup: func(t *testing.T) *config.Configuration {
				return testutil.NewConfig(testutil.NewRepo(t, testutil.WithRules("# Nothing here\n")))
			},
			wantCode: ExitMissingDependency,
			wantMsg:  "no constraints",
		},
		"missing commands": {
			setup: func(t *testing.T) *config.Configuration {
				cfg := testutil.NewConfig(testutil.NewRepo(t))
				cfg.CommandsDir = "nope"
				return cfg
			},
			wantCode: ExitMissingDependency,
			wantMsg:  "commands directory not found",
		},
		"malformed mcp": {
			setup: func(t *testing.T) *config.Configuration {
				return testutil.NewConfig(testutil.NewRepo(t, testutil.WithFile("mcp.json", "{not json")))
			},
			wantCode: ExitInvalidArguments,
			wantMsg:  "invalid MCP configuration",
		},
		"strict duplicate ids": {
			setup: func(t *testing.T) *config.Configuration {
				repo := testutil.NewRepo(t, testutil.WithFile("commands/extra/11-discuss.md", "# Again\n"))
				cfg := testutil.NewConfig(repo)
				cfg.StrictIDs = true
				return cfg
			},
			wantCode: ExitInvalidArguments,
			wantMsg:  "duplicate agent id",
		},
	}

	for name, tt := range tests {
		tt := tt
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			_, err := OpenWorkspace(tt.setup(t), nil)
			require.Error(t, err)
			assert.Equal(t, tt.wantCode, ExitCode(err))
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}
}

func TestLoadTools_NoPathConfigured(t *testing.T) {
	t.Parallel()

	cfg := testutil.NewConfig(t.TempDir())
	cfg.MCPConfig = ""
	tools, err := LoadTools(cfg)
	require.NoError(t, err)
	assert.Empty(t, tools.Servers())
}

func TestWorkspace_SequencerRunsFixture(t *testing.T) {
	t.Parallel()

	ws, err := OpenWorkspace(testutil.NewConfig(testutil.NewRepo(t)), nil)
	require.NoError(t, err)

	seq := ws.Sequencer()
	status := seq.Status()
	assert.Equal(t, len(testutil.FixtureAgents), status.TotalAgents)
	assert.NotEmpty(t, status.RunID)

	agent, ok := seq.Agent("41-backend")
	require.True(t, ok)
	assert.Equal(t, ws.Tools.FunctionsFor("41-backend", agentspec.PhaseDevelopment), agent.Tools)
}

func mustGet(t *testing.T, ws *Workspace, id string) agentspec.AgentSpec {
	t.Helper()
	s, ok := ws.Catalog.Get(id)
	require.True(t, ok, id)
	return s
}
