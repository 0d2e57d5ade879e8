package shared

import (
	"context"

	"github.com/ariel-frischer/agentpipe/internal/config"
	apperrors "github.com/ariel-frischer/agentpipe/internal/errors"
	"github.com/ariel-frischer/agentpipe/internal/logging"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// Runtime holds what the root command prepares for every subcommand.
type Runtime struct {
	Config     *config.Configuration
	ConfigPath string
	ConfigErr  error
	Logger     *zap.Logger
}

type runtimeKey struct{}

// Setup loads configuration and builds the logger from the persistent flags,
// then stores both in the command context. A config error is kept on the
// Runtime so commands that do not need config still run.
func Setup(cmd *cobra.Command) error {
	configPath, _ := cmd.Flags().GetString("config")
	repoPath, _ := cmd.Flags().GetString("repo")
	debug, _ := cmd.Flags().GetBool("debug")
	verbose, _ := cmd.Flags().GetBool("verbose")

	rt := &Runtime{ConfigPath: configPath}
	cfg, err := config.Load(configPath)
	if err != nil {
		rt.ConfigErr = err
	} else {
		if repoPath != "" {
			cfg.RepoPath = config.ExpandHomePath(repoPath)
		}
		rt.Config = cfg
	}

	opts := logging.Options{Debug: debug}
	if rt.Config != nil {
		opts.Level = rt.Config.LogLevel
		opts.File = rt.Config.LogFile
	}
	if verbose && !debug {
		opts.Level = "info"
	}
	logger, err := logging.New(opts)
	if err != nil {
		return apperrors.Wrap(err, apperrors.Configuration, "Set log_level to one of debug, info, warn, error")
	}
	rt.Logger = logger

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	cmd.SetContext(context.WithValue(ctx, runtimeKey{}, rt))

	logger.Debug("Runtime ready",
		zap.String("command", cmd.CommandPath()),
		zap.String("config", configPath),
		zap.Bool("config_loaded", rt.Config != nil))
	return nil
}

// Teardown flushes the logger created by Setup.
func Teardown(cmd *cobra.Command) {
	if rt := lookup(cmd); rt != nil {
		logging.Sync(rt.Logger)
	}
}

// RuntimeFrom returns the Runtime stored by Setup, or one with a no-op logger
// and no config when Setup did not run.
func RuntimeFrom(cmd *cobra.Command) *Runtime {
	if rt := lookup(cmd); rt != nil {
		return rt
	}
	return &Runtime{Logger: zap.NewNop()}
}

func lookup(cmd *cobra.Command) *Runtime {
	ctx := cmd.Context()
	if ctx == nil {
		return nil
	}
	rt, _ := ctx.Value(runtimeKey{}).(*Runtime)
	return rt
}

// RequireConfig returns the loaded config or a Configuration error.
func (r *Runtime) RequireConfig() (*config.Configuration, error) {
	if r.Config != nil {
		return r.Config, nil
	}
	if r.ConfigErr != nil {
		return nil, apperrors.ConfigParseError(r.ConfigPath, r.ConfigErr)
	}
	return nil, apperrors.NewConfigError("configuration was not loaded")
}
