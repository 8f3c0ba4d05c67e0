// Copyright (c) 2025 Fabsolve Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/zap/zapcore"

	"github.com/fabsolve/fabsolve/internal/router"
)

func TestDefaults(t *testing.T) {
	cfg := Default()
	if cfg.RuntimeMode != "dev" {
		t.Errorf("RuntimeMode = %q, want dev", cfg.RuntimeMode)
	}
	if cfg.DefaultProblemMode != "excursion" {
		t.Errorf("DefaultProblemMode = %q, want excursion", cfg.DefaultProblemMode)
	}
	mode, err := cfg.Mode()
	if err != nil || mode != router.ModeDev {
		t.Errorf("Mode() = %v, %v", mode, err)
	}
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := `
runtime_mode = "runtime"
default_tier = "confidential"

[keys]
anthropic = "file-key"

[log]
level = "debug"
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.RuntimeMode != "runtime" {
		t.Errorf("RuntimeMode = %q", cfg.RuntimeMode)
	}
	if cfg.DefaultTier != "confidential" {
		t.Errorf("DefaultTier = %q", cfg.DefaultTier)
	}
	if cfg.Keys.Anthropic != "file-key" {
		t.Errorf("Keys.Anthropic = %q", cfg.Keys.Anthropic)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("Log.Level = %q", cfg.Log.Level)
	}
}

func TestEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	if err := os.WriteFile(path, []byte(`runtime_mode = "dev"`+"\n[keys]\nanthropic = \"file-key\"\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	t.Setenv("FABSOLVE_RUNTIME_MODE", "runtime")
	t.Setenv("ANTHROPIC_API_KEY", "env-key")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.RuntimeMode != "runtime" {
		t.Errorf("RuntimeMode = %q, want env override", cfg.RuntimeMode)
	}
	if cfg.Keys.Anthropic != "env-key" {
		t.Errorf("Keys.Anthropic = %q, want env override", cfg.Keys.Anthropic)
	}

	keys := cfg.APIKeys()
	if keys[router.ProviderAnthropic] != "env-key" {
		t.Errorf("APIKeys anthropic = %q", keys[router.ProviderAnthropic])
	}
}

func TestLoggerHonorsConfig(t *testing.T) {
	dir := t.TempDir()
	logFile := filepath.Join(dir, "fabsolve.log")

	cfg := Default()
	cfg.Log.Level = "debug"
	cfg.Log.File = logFile

	logger, err := cfg.Logger()
	if err != nil {
		t.Fatalf("Logger: %v", err)
	}
	if !logger.Core().Enabled(zapcore.DebugLevel) {
		t.Error("configured debug level not applied")
	}

	logger.Debug("debug line for the file sink")
	_ = logger.Sync()

	data, err := os.ReadFile(logFile)
	if err != nil {
		t.Fatalf("log file not created: %v", err)
	}
	if len(data) == 0 {
		t.Error("log file is empty, file sink not wired")
	}
}

func TestLoggerUnknownLevelFallsBack(t *testing.T) {
	cfg := Default()
	cfg.Log.Level = "chatty"

	logger, err := cfg.Logger()
	if err != nil {
		t.Fatalf("Logger: %v", err)
	}
	if logger.Core().Enabled(zapcore.DebugLevel) {
		t.Error("unknown level should fall back to info, debug is enabled")
	}
	if !logger.Core().Enabled(zapcore.InfoLevel) {
		t.Error("info level should be enabled")
	}
}

func TestLoadMissingFile(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "does-not-exist.toml"))
	if err != nil {
		t.Fatalf("Load missing file: %v", err)
	}
	if cfg.RuntimeMode != "dev" {
		t.Errorf("missing file should fall back to defaults, got %q", cfg.RuntimeMode)
	}
}

func TestLoadBadToml(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	if err := os.WriteFile(path, []byte("runtime_mode = [broken"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("Load(bad toml) = nil error, want parse error")
	}
}
