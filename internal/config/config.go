// Package config loads agentpipe settings from defaults, JSON config files
// and AGENTPIPE_* environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const (
	// EnvPrefix is the prefix of environment variables that override config keys.
	EnvPrefix = "AGENTPIPE_"
	// LocalConfigPath is the project-level config file, relative to the working directory.
	LocalConfigPath = ".agentpipe/config.json"
)

// Configuration represents the agentpipe CLI configuration
type Configuration struct {
	RepoPath               string `koanf:"repo_path" json:"repo_path" yaml:"repo_path" validate:"required"`
	CommandsDir            string `koanf:"commands_dir" json:"commands_dir" yaml:"commands_dir" validate:"required"`
	SupportDir             string `koanf:"support_dir" json:"support_dir" yaml:"support_dir" validate:"required"`
	RulesFile              string `koanf:"rules_file" json:"rules_file" yaml:"rules_file" validate:"required"`
	MCPConfig              string `koanf:"mcp_config" json:"mcp_config" yaml:"mcp_config"`
	Model                  string `koanf:"model" json:"model" yaml:"model" validate:"required"`
	ScopeInventionSeverity string `koanf:"scope_invention_severity" json:"scope_invention_severity" yaml:"scope_invention_severity" validate:"oneof=warning violation"`
	ValidateInputs         bool   `koanf:"validate_inputs" json:"validate_inputs" yaml:"validate_inputs"`
	ValidateOutputs        bool   `koanf:"validate_outputs" json:"validate_outputs" yaml:"validate_outputs"`
	// Fail on duplicate agent ids instead of last-wins
	StrictIDs              bool   `koanf:"strict_ids" json:"strict_ids" yaml:"strict_ids"`
	// Show spinners during runs
	ShowProgress           bool   `koanf:"show_progress" json:"show_progress" yaml:"show_progress"`
	LogLevel               string `koanf:"log_level" json:"log_level" yaml:"log_level" validate:"oneof=debug info warn error"`
	LogFile                string `koanf:"log_file" json:"log_file" yaml:"log_file"`
}

// GlobalConfigPath returns the user-level config file path.
func GlobalConfigPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve home directory: %w", err)
	}
	return filepath.Join(homeDir, ".agentpipe", "config.json"), nil
}

// Load loads configuration from global, local, and environment sources
// Priority: Environment variables > Local config > Global config > Defaults
func Load(localConfigPath string) (*Configuration, error) {
	k := koanf.New(".")

	for key, value := range GetDefaults() {
		if err := k.Set(key, value); err != nil {
			return nil, fmt.Errorf("failed to apply default %s: %w", key, err)
		}
	}

	if globalPath, err := GlobalConfigPath(); err == nil {
		if err := loadFile(k, globalPath); err != nil {
			return nil, fmt.Errorf("failed to load global config: %w", err)
		}
	}

	if localConfigPath != "" {
		if err := loadFile(k, localConfigPath); err != nil {
			return nil, fmt.Errorf("failed to load local config: %w", err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envTransform), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment overrides: %w", err)
	}

	var cfg Configuration
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	cfg.RepoPath = ExpandHomePath(cfg.RepoPath)
	cfg.CommandsDir = ExpandHomePath(cfg.CommandsDir)
	cfg.SupportDir = ExpandHomePath(cfg.SupportDir)
	cfg.RulesFile = ExpandHomePath(cfg.RulesFile)
	cfg.MCPConfig = ExpandHomePath(cfg.MCPConfig)
	cfg.LogFile = ExpandHomePath(cfg.LogFile)

	return &cfg, nil
}

// loadFile merges path into k. A missing file is not an error.
func loadFile(k *koanf.Koanf, path string) error {
	if _, err := os.Stat(path); err != nil {
		return nil
	}
	if err := k.Load(file.Provider(path), json.Parser()); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return nil
}

// CommandsPath returns the command documents directory.
func (c *Configuration) CommandsPath() string {
	return c.resolve(c.CommandsDir)
}

// SupportPath returns the support documents directory.
func (c *Configuration) SupportPath() string {
	return c.resolve(c.SupportDir)
}

// RulesPath returns the guardrail rules document path.
func (c *Configuration) RulesPath() string {
	return c.resolve(c.RulesFile)
}

// MCPPath returns the MCP server config path, or "" when unset.
func (c *Configuration) MCPPath() string {
	if c.MCPConfig == "" {
		return ""
	}
	return c.resolve(c.MCPConfig)
}

func (c *Configuration) resolve(path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(c.RepoPath, path)
}

// envTransform converts environment variable names to config keys
// Example: AGENTPIPE_LOG_LEVEL -> log_level
func envTransform(s string) string {
	return strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
}

// ExpandHomePath expands a leading "~/" to the user's home directory.
func ExpandHomePath(path string) string {
	if strings.HasPrefix(path, "~/") {
		homeDir, err := os.UserHomeDir()
		if err == nil {
			return filepath.Join(homeDir, path[2:])
		}
	}
	return path
}
