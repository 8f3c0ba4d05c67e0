// Copyright (c) 2025 Fabsolve Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later

// fabsolve is a CLI for structured 8D problem solving in semiconductor
// manufacturing, with security-tier gated model routing.
package main

import (
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/fabsolve/fabsolve/internal/cli"
)

func main() {
	// Local .env files are a convenience for API keys in development.
	// A missing file is not an error.
	_ = godotenv.Load()

	log := buildLogger()
	defer func() { _ = log.Sync() }()

	cli.Execute(log)
}

// buildLogger creates the bootstrap logger used until the config is
// loaded, at which point the CLI rebuilds it with the configured level
// and optional log file. Logs go to stderr so they never interleave
// with workflow output on stdout.
func buildLogger() *zap.Logger {
	cfg := zap.NewProductionConfig()
	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}

	log, err := cfg.Build()
	if err != nil {
		return zap.NewNop()
	}
	return log
}
