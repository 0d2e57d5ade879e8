// Package config tests the configuration inspection commands.
// Related: internal/cli/config/config.go
// Tags: config, cli, show, keys
package config

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/ariel-frischer/agentpipe/internal/cli/shared"
	cfgpkg "github.com/ariel-frischer/agentpipe/internal/config"
	"github.com/ariel-frischer/agentpipe/internal/testutil"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newShowCmd(t *testing.T, format string) (*cobra.Command, *bytes.Buffer) {
	t.Helper()
	configFormat = format
	t.Cleanup(func() { configFormat = shared.FormatYAML })

	cmd := &cobra.Command{
		Use:  "show",
		RunE: runConfigShow,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return shared.Setup(cmd)
		},
	}
	cmd.Flags().String("config", filepath.Join(t.TempDir(), "config.json"), "")
	cmd.Flags().String("repo", "", "")
	cmd.Flags().Bool("debug", false, "")
	cmd.Flags().Bool("verbose", false, "")

	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetErr(&buf)
	return cmd, &buf
}

func TestRunConfigShow_YAMLOutput(t *testing.T) {
	testutil.IsolateEnv(t)
	t.Setenv("AGENTPIPE_MODEL", "gpt-4o-mini")

	cmd, buf := newShowCmd(t, shared.FormatYAML)
	require.NoError(t, cmd.Execute())

	output := buf.String()
	assert.Contains(t, output, "# Configuration Sources")
	assert.Contains(t, output, "AGENTPIPE_MODEL (loaded)")
	assert.Contains(t, output, "model: gpt-4o-mini")
	assert.Contains(t, output, "scope_invention_severity: warning")
}

func TestRunConfigShow_JSONOutput(t *testing.T) {
	testutil.IsolateEnv(t)

	cmd, buf := newShowCmd(t, shared.FormatJSON)
	require.NoError(t, cmd.Execute())

	var got cfgpkg.Configuration
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, "commands", got.CommandsDir)
	assert.True(t, got.ValidateInputs)
}

func TestRunConfigShow_InvalidConfig(t *testing.T) {
	testutil.IsolateEnv(t)
	t.Setenv("AGENTPIPE_LOG_LEVEL", "loud")

	cmd, _ := newShowCmd(t, shared.FormatYAML)
	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, shared.ExitInvalidArguments, shared.ExitCode(err))
}

func TestConfigSources(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	local := filepath.Join(dir, "config.json")
	testutil.WriteFile(t, local, "{}")

	sources := configSources(filepath.Join(dir, "missing.json"), local,
		[]string{"HOME=/tmp", "AGENTPIPE_STRICT_IDS=true", "AGENTPIPE_MODEL=x"})

	require.Len(t, sources, 3)
	assert.False(t, sources[0].Active)
	assert.True(t, sources[1].Active)
	assert.Equal(t, "AGENTPIPE_MODEL, AGENTPIPE_STRICT_IDS", sources[2].Detail)
	assert.True(t, sources[2].Active)
}

func TestWriteKeys(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, writeKeys(&buf, cfgpkg.GetDefaults()))

	output := buf.String()
	assert.Contains(t, output, "KEY")
	assert.Contains(t, output, "AGENTPIPE_RULES_FILE")
	assert.Contains(t, output, "support/01-forbidden.md")
	assert.Less(t, bytes.Index(buf.Bytes(), []byte("commands_dir")), bytes.Index(buf.Bytes(), []byte("validate_inputs")))
}

func TestConfigCmd_Structure(t *testing.T) {
	t.Parallel()

	assert.Equal(t, shared.GroupConfiguration, configCmd.GroupID)
	names := make(map[string]bool)
	for _, sub := range configCmd.Commands() {
		names[sub.Name()] = true
	}
	assert.True(t, names["show"])
	assert.True(t, names["keys"])
}
