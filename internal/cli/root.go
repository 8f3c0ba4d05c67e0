// Copyright (c) 2025 Fabsolve Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/fabsolve/fabsolve/internal/config"
)

var (
	flagConfig string
	flagJSON   bool

	appConfig *config.Config
	appLog    *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "fabsolve",
	Short: "8D problem-solving workflows for semiconductor fab yield issues",
	Long: `fabsolve guides fab engineers through structured 8D investigations.

A session walks four phases: free-form narrative intake, adaptive
clarification, structured 8D analysis, and prevention planning. Model
access is gated by security tier so confidential fab data never leaves
the boundary it belongs in.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(flagConfig)
		if err != nil {
			return err
		}
		appConfig = cfg

		// Rebuild the bootstrap logger with the configured level and
		// optional log file.
		logger, err := cfg.Logger()
		if err != nil {
			appLog.Warn("could not build configured logger", zap.Error(err))
			return nil
		}
		appLog = logger
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "config file (default ~/.fabsolve/config.toml)")
	rootCmd.PersistentFlags().BoolVar(&flagJSON, "json", false, "machine-readable JSON output")

	rootCmd.AddCommand(solveCmd)
	rootCmd.AddCommand(toolsCmd)
	rootCmd.AddCommand(routesCmd)
	rootCmd.AddCommand(versionCmd)
}

// Execute runs the CLI and terminates the process on error.
func Execute(log *zap.Logger) {
	appLog = log
	err := rootCmd.Execute()
	_ = appLog.Sync()
	if err != nil {
		exitWithError(err)
	}
}
