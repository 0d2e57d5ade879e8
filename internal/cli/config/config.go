package config

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/ariel-frischer/agentpipe/internal/cli/shared"
	cfgpkg "github.com/ariel-frischer/agentpipe/internal/config"
	"github.com/spf13/cobra"
)

var configFormat string

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect agentpipe configuration",
	Long: `Inspect agentpipe configuration settings.

Configuration is loaded with the following priority (highest to lowest):
  1. Environment variables (AGENTPIPE_*)
  2. Project config (.agentpipe/config.json)
  3. User config (~/.agentpipe/config.json)
  4. Built-in defaults`,
	Example: `  # Show current configuration
  agentpipe config show

  # Show configuration as JSON
  agentpipe config show --format json

  # List keys and defaults
  agentpipe config keys`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current effective configuration",
	Long: `Display the current effective configuration values.

Shows the merged result of defaults, user config, project config, and
environment variables.`,
	RunE: runConfigShow,
}

var configKeysCmd = &cobra.Command{
	Use:   "keys",
	Short: "List all configuration keys with their defaults",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return writeKeys(cmd.OutOrStdout(), cfgpkg.GetDefaults())
	},
}

func init() {
	configCmd.GroupID = shared.GroupConfiguration
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configKeysCmd)

	configShowCmd.Flags().StringVarP(&configFormat, "format", "f", shared.FormatYAML, "Output format: yaml, json")
}

func runConfigShow(cmd *cobra.Command, _ []string) error {
	if err := shared.ValidateFormat(configFormat); err != nil {
		return err
	}
	rt := shared.RuntimeFrom(cmd)
	cfg, err := rt.RequireConfig()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if configFormat == shared.FormatJSON {
		return shared.WriteStructured(out, shared.FormatJSON, cfg)
	}

	globalPath, _ := cfgpkg.GlobalConfigPath()
	writeSources(out, configSources(globalPath, rt.ConfigPath, os.Environ()))
	return shared.WriteStructured(out, shared.FormatYAML, cfg)
}

// configSource is one layer that may have contributed values.
type configSource struct {
	Name   string
	Detail string
	Active bool
}

func configSources(globalPath, localPath string, environ []string) []configSource {
	var envKeys []string
	for _, kv := range environ {
		if key, _, ok := strings.Cut(kv, "="); ok && strings.HasPrefix(key, cfgpkg.EnvPrefix) {
			envKeys = append(envKeys, key)
		}
	}
	sort.Strings(envKeys)

	return []configSource{
		{Name: "user", Detail: globalPath, Active: fileExists(globalPath)},
		{Name: "project", Detail: localPath, Active: fileExists(localPath)},
		{Name: "environment", Detail: strings.Join(envKeys, ", "), Active: len(envKeys) > 0},
	}
}

func writeSources(w io.Writer, sources []configSource) {
	fmt.Fprintln(w, "# Configuration Sources")
	for _, src := range sources {
		state := "not found"
		if src.Active {
			state = "loaded"
		}
		detail := src.Detail
		if detail == "" {
			detail = "-"
		}
		fmt.Fprintf(w, "#   %-12s %s (%s)\n", src.Name+":", detail, state)
	}
	fmt.Fprintln(w)
}

func writeKeys(w io.Writer, defaults map[string]interface{}) error {
	keys := make([]string, 0, len(defaults))
	for k := range defaults {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	rows := make([][]string, len(keys))
	for i, k := range keys {
		rows[i] = []string{k, fmt.Sprint(defaults[k]), cfgpkg.EnvPrefix + strings.ToUpper(k)}
	}
	return shared.WriteTable(w, []string{"KEY", "DEFAULT", "ENV"}, rows)
}

func fileExists(path string) bool {
	if path == "" {
		return false
	}
	_, err := os.Stat(path)
	return err == nil
}
