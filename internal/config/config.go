// Copyright (c) 2025 Fabsolve Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading for fabsolve.
//
// Configuration sources, in order of precedence:
//   - Environment variables
//   - ~/.fabsolve/config.toml
//   - Built-in defaults
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/fabsolve/fabsolve/internal/router"
)

// Config is the complete fabsolve configuration.
type Config struct {
	// RuntimeMode is "dev" or "runtime". Dev routes to cheap models.
	RuntimeMode string `toml:"runtime_mode"`

	// DefaultProblemMode preselects the investigation style:
	// "excursion", "improvement", or "operations".
	DefaultProblemMode string `toml:"default_problem_mode"`

	// DefaultTier preselects the security tier: "general",
	// "confidential", or "top_secret".
	DefaultTier string `toml:"default_tier"`

	Keys KeysConfig `toml:"keys"`
	Log  LogConfig  `toml:"log"`
}

// KeysConfig holds provider API keys. Environment variables take
// precedence so keys need not live in the config file at all.
type KeysConfig struct {
	Anthropic string `toml:"anthropic"`
	OpenAI    string `toml:"openai"`
	Factory   string `toml:"factory"`
	OnPrem    string `toml:"onprem"`
}

// LogConfig controls structured logging.
type LogConfig struct {
	// Level is "debug", "info", "warn", or "error".
	Level string `toml:"level"`
	// File is an optional log file path that receives a copy of the
	// stderr log stream.
	File string `toml:"file"`
}

// Logger builds the process logger described by the [log] section.
// Logs always go to stderr so they never interleave with workflow
// output on stdout; a configured file receives a copy. An unknown
// level falls back to info.
func (c *Config) Logger() (*zap.Logger, error) {
	level := zapcore.InfoLevel
	if parsed, err := zapcore.ParseLevel(c.Log.Level); err == nil {
		level = parsed
	}

	zc := zap.NewProductionConfig()
	zc.Level = zap.NewAtomicLevelAt(level)
	zc.OutputPaths = []string{"stderr"}
	zc.ErrorOutputPaths = []string{"stderr"}
	if c.Log.File != "" {
		zc.OutputPaths = append(zc.OutputPaths, c.Log.File)
	}
	return zc.Build()
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		RuntimeMode:        "dev",
		DefaultProblemMode: "excursion",
		DefaultTier:        "general",
		Log:                LogConfig{Level: "info"},
	}
}

// Path returns the default config file location.
func Path() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".fabsolve", "config.toml")
}

// Load reads the config file at path (or the default location when
// path is empty) and applies environment overrides. A missing file is
// not an error; defaults apply.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = Path()
	}
	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if _, err := toml.DecodeFile(path, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
			}
		}
	}

	cfg.applyEnv()
	return cfg, nil
}

// applyEnv overrides file values with environment variables.
func (c *Config) applyEnv() {
	if v := os.Getenv("FABSOLVE_RUNTIME_MODE"); v != "" {
		c.RuntimeMode = v
	}
	if v := os.Getenv("FABSOLVE_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv("ANTHROPIC_API_KEY"); v != "" {
		c.Keys.Anthropic = v
	}
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		c.Keys.OpenAI = v
	}
	if v := os.Getenv("FACTORY_API_KEY"); v != "" {
		c.Keys.Factory = v
	}
	if v := os.Getenv("ONPREM_API_KEY"); v != "" {
		c.Keys.OnPrem = v
	}
}

// Mode resolves the configured runtime mode.
func (c *Config) Mode() (router.RuntimeMode, error) {
	return router.ParseMode(c.RuntimeMode)
}

// APIKeys returns the keys as the provider map the router consumes.
func (c *Config) APIKeys() map[string]string {
	return map[string]string{
		router.ProviderAnthropic: c.Keys.Anthropic,
		router.ProviderOpenAI:    c.Keys.OpenAI,
		router.ProviderFactory:   c.Keys.Factory,
		router.ProviderOnPrem:    c.Keys.OnPrem,
	}
}
