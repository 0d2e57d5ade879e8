package shared

import (
	"errors"
	"fmt"
	"os"

	"github.com/ariel-frischer/agentpipe/internal/agentspec"
	"github.com/ariel-frischer/agentpipe/internal/config"
	apperrors "github.com/ariel-frischer/agentpipe/internal/errors"
	"github.com/ariel-frischer/agentpipe/internal/guardrail"
	"github.com/ariel-frischer/agentpipe/internal/pipeline"
	"github.com/ariel-frischer/agentpipe/internal/prompt"
	"github.com/ariel-frischer/agentpipe/internal/toolcatalog"
	"go.uber.org/zap"
)

// Workspace is an agent repository loaded according to the configuration.
type Workspace struct {
	Config  *config.Configuration
	Logger  *zap.Logger
	Rules   guardrail.RuleSet
	Engine  *guardrail.Engine
	Catalog *agentspec.Catalog
	Tools   *toolcatalog.Catalog
}

// OpenWorkspace loads rules, command documents and the MCP catalog.
func OpenWorkspace(cfg *config.Configuration, logger *zap.Logger) (*Workspace, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	rules, err := LoadRules(cfg)
	if err != nil {
		return nil, err
	}
	engine, err := NewEngine(cfg, rules, logger)
	if err != nil {
		return nil, err
	}
	catalog, err := LoadCatalog(cfg, logger)
	if err != nil {
		return nil, err
	}
	tools, err := LoadTools(cfg)
	if err != nil {
		return nil, err
	}

	logger.Info("Workspace loaded",
		zap.String("repo", cfg.RepoPath),
		zap.Int("agents", catalog.Len()),
		zap.Int("constraints", rules.Len()),
		zap.Strings("mcp_servers", tools.EnabledServers()))

	return &Workspace{
		Config:  cfg,
		Logger:  logger,
		Rules:   rules,
		Engine:  engine,
		Catalog: catalog,
		Tools:   tools,
	}, nil
}

// LoadRules parses the configured rules document.
func LoadRules(cfg *config.Configuration) (guardrail.RuleSet, error) {
	path := cfg.RulesPath()
	rules, err := guardrail.LoadRules(path)
	switch {
	case errors.Is(err, guardrail.ErrRulesNotFound):
		return rules, apperrors.RulesFileNotFound(path)
	case errors.Is(err, guardrail.ErrEmptyRuleSet):
		return rules, apperrors.EmptyRuleSet(path)
	case err != nil:
		return rules, apperrors.Wrap(err, apperrors.Runtime)
	}
	return rules, nil
}

// NewEngine builds the guardrail engine with the configured scope severity.
func NewEngine(cfg *config.Configuration, rules guardrail.RuleSet, logger *zap.Logger) (*guardrail.Engine, error) {
	severity, ok := guardrail.ParseFinding(cfg.ScopeInventionSeverity)
	if !ok {
		return nil, apperrors.NewConfigError(
			fmt.Sprintf("invalid scope_invention_severity: %q", cfg.ScopeInventionSeverity),
			"Use 'warning' or 'violation'",
		)
	}
	return guardrail.NewEngine(rules,
		guardrail.WithScopeSeverity(severity),
		guardrail.WithLogger(logger),
	), nil
}

// LoadCatalog parses every command document below the commands directory.
func LoadCatalog(cfg *config.Configuration, logger *zap.Logger) (*agentspec.Catalog, error) {
	dir := cfg.CommandsPath()
	loader := agentspec.NewLoader(
		agentspec.WithLogger(logger),
		agentspec.WithStrictIDs(cfg.StrictIDs),
	)
	catalog, err := loader.LoadDir(dir)
	switch {
	case errors.Is(err, os.ErrNotExist):
		return nil, apperrors.CommandsDirNotFound(dir)
	case errors.Is(err, agentspec.ErrDuplicateID):
		return nil, apperrors.WrapWithMessage(err, apperrors.Configuration,
			"strict_ids is enabled",
			"Rename one of the documents so every agent id is unique",
			"Or set strict_ids to false to keep the lexicographically last document",
		)
	case err != nil:
		return nil, apperrors.Wrap(err, apperrors.Prerequisite)
	}
	return catalog, nil
}

// LoadTools reads the configured MCP server file. A missing file yields an
// empty catalog.
func LoadTools(cfg *config.Configuration) (*toolcatalog.Catalog, error) {
	path := cfg.MCPPath()
	if path == "" {
		return toolcatalog.New(nil), nil
	}
	tools, err := toolcatalog.Load(path)
	if err != nil {
		return nil, apperrors.WrapWithMessage(err, apperrors.Configuration,
			"invalid MCP configuration",
			"Check that "+path+" is valid JSON with a top-level \"mcpServers\" object",
		)
	}
	return tools, nil
}

// Factory returns an agent factory using the workspace rules and tools.
func (w *Workspace) Factory() *prompt.Factory {
	return prompt.NewFactory(w.Engine, w.Tools, w.Config.Model)
}

// Sequencer returns a pipeline sequencer over the workspace catalog with
// validation toggles taken from the configuration.
func (w *Workspace) Sequencer(opts ...pipeline.Option) *pipeline.Sequencer {
	base := []pipeline.Option{
		pipeline.WithLogger(w.Logger),
		pipeline.WithInputValidation(w.Config.ValidateInputs),
		pipeline.WithOutputValidation(w.Config.ValidateOutputs),
	}
	return pipeline.NewSequencer(w.Catalog, w.Factory(), w.Engine, append(base, opts...)...)
}
