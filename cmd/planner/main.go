// Package main implements the planner CLI tool.
package main

import (
	"context"
	"errors"
	"os"

	"github.com/amonks/taskplanner/internal/config"
	"github.com/amonks/taskplanner/internal/logging"
	"github.com/amonks/taskplanner/internal/paths"
	"github.com/amonks/taskplanner/planner"
	"github.com/spf13/cobra"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		var exitErr interface{ ExitCode() int }
		if errors.As(err, &exitErr) {
			os.Exit(exitErr.ExitCode())
		}
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "planner",
	Short: "Task planner - a shared task list with email reminders",
	Long: `Task planner keeps a shared task list and mails the pending tasks to
verified subscribers.

Configuration is read from ~/.config/taskplanner/config.toml merged with
./taskplanner.toml, or from the file named by $TASKPLANNER_CONFIG.`,
	SilenceUsage: true,
}

var (
	globalConfigPath string
	globalDataDir    string
	globalMemory     bool
	globalLogLevel   string
)

func init() {
	rootCmd.PersistentFlags().StringVar(&globalConfigPath, "config", "", "Config file (overrides the global and project files)")
	rootCmd.PersistentFlags().StringVar(&globalDataDir, "data-dir", "", "Directory holding the JSON documents")
	rootCmd.PersistentFlags().BoolVar(&globalMemory, "memory", false, "Keep documents in memory only")
	rootCmd.PersistentFlags().StringVar(&globalLogLevel, "log-level", "", "Log level (debug, info, warn, error)")
	setFlagAliases(rootCmd.PersistentFlags(), globalFlagAliases)
}

// loadConfig reads the config and applies the global flag overrides.
func loadConfig() (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if globalConfigPath != "" {
		cfg, err = config.LoadFile(globalConfigPath)
	} else {
		var cwd string
		cwd, err = paths.WorkingDir()
		if err != nil {
			return nil, err
		}
		cfg, err = config.Load(cwd)
	}
	if err != nil {
		return nil, err
	}

	if globalDataDir != "" {
		cfg.Store.Backend = planner.BackendFile
		cfg.Store.Dir = globalDataDir
	}
	if globalMemory {
		cfg.Store.Backend = planner.BackendMemory
	}
	if globalLogLevel != "" {
		cfg.Log.Level = globalLogLevel
	}
	return cfg, nil
}

// openPlanner loads the config and wires up a planner. Callers must Close it.
func openPlanner(ctx context.Context) (*planner.Planner, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return openPlannerWithConfig(ctx, cfg)
}

func openPlannerWithConfig(ctx context.Context, cfg *config.Config) (*planner.Planner, error) {
	logger, err := logging.New(logging.Options{Level: cfg.Log.Level, Format: cfg.Log.Format})
	if err != nil {
		return nil, err
	}
	return planner.Open(ctx, planner.Options{Config: cfg, Logger: logger})
}
