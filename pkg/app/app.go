// Package app resolves the shared command-line flags into the credential
// manager, configuration and logger every linkpost command starts from.
package app

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/papercomputeco/linkpost/pkg/config"
	"github.com/papercomputeco/linkpost/pkg/credentials"
	"github.com/papercomputeco/linkpost/pkg/logger"
)

const (
	FlagEnvFile = "env-file"
	FlagConfig  = "config"
	FlagDebug   = "debug"
)

// AddPersistentFlags registers the shared flags on the root command.
func AddPersistentFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().String(FlagEnvFile, credentials.DefaultFile, "Path to the KEY=VALUE credential file")
	cmd.PersistentFlags().String(FlagConfig, "", "Optional TOML settings file")
	cmd.PersistentFlags().Bool(FlagDebug, false, "Enable debug logging")
}

// Runtime is what a command needs to build its components.
type Runtime struct {
	Credentials *credentials.Manager
	Config      *config.Config
	Logger      *zap.Logger
}

// Load builds a Runtime from the flags visible to cmd.
func Load(cmd *cobra.Command) (*Runtime, error) {
	envFile, _ := cmd.Flags().GetString(FlagEnvFile)
	settingsPath, _ := cmd.Flags().GetString(FlagConfig)
	debug, _ := cmd.Flags().GetBool(FlagDebug)

	mgr, err := credentials.NewManager(envFile)
	if err != nil {
		return nil, fmt.Errorf("loading credentials: %w", err)
	}

	values, err := mgr.Values()
	if err != nil {
		return nil, err
	}

	cfg, err := config.Load(settingsPath, values)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	log, err := logger.New(debug)
	if err != nil {
		return nil, fmt.Errorf("creating logger: %w", err)
	}

	return &Runtime{
		Credentials: mgr,
		Config:      cfg,
		Logger:      log,
	}, nil
}

// Close flushes the logger.
func (r *Runtime) Close() {
	if r == nil || r.Logger == nil {
		return
	}
	_ = r.Logger.Sync()
}
