// Copyright (c) 2025 Fabsolve Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later

package router

import (
	"fmt"
	"os"
	"sync"

	"go.uber.org/zap"

	"github.com/fabsolve/fabsolve/internal/provider"
	"github.com/fabsolve/fabsolve/internal/security"
	"github.com/fabsolve/fabsolve/internal/telemetry"
)

// ConfigError indicates a (mode, tier, task) combination with no route
// table entry. It is a hard error; routing never falls back to a
// default model.
type ConfigError struct {
	Mode RuntimeMode
	Tier security.Tier
	Task TaskType
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("no model configured for mode=%s, tier=%s, task_type=%s",
		e.Mode, e.Tier, e.Task)
}

// Router resolves task requests to model backends and owns the
// session's usage ledger.
type Router struct {
	mode   RuntimeMode
	keys   map[string]string
	ledger *telemetry.UsageLedger
	log    *zap.Logger

	mu      sync.Mutex
	handles map[string]provider.Handle
}

// New creates a router for one session. If keys is nil they are read
// from the environment.
func New(mode RuntimeMode, keys map[string]string, log *zap.Logger) *Router {
	if keys == nil {
		keys = KeysFromEnv()
	}
	if log == nil {
		log = zap.NewNop()
	}
	log.Info("model router initialized", zap.String("mode", mode.String()))
	return &Router{
		mode:    mode,
		keys:    keys,
		ledger:  telemetry.NewUsageLedger(),
		log:     log,
		handles: make(map[string]provider.Handle),
	}
}

// KeysFromEnv loads provider API keys from the environment. Missing
// keys load as empty strings; the corresponding clients report
// ErrNotConfigured when used.
func KeysFromEnv() map[string]string {
	return map[string]string{
		ProviderAnthropic: os.Getenv("ANTHROPIC_API_KEY"),
		ProviderOpenAI:    os.Getenv("OPENAI_API_KEY"),
		ProviderFactory:   os.Getenv("FACTORY_API_KEY"),
		ProviderOnPrem:    os.Getenv("ONPREM_API_KEY"),
	}
}

// Mode returns the router's runtime mode.
func (r *Router) Mode() RuntimeMode { return r.mode }

// Ledger returns the session usage ledger.
func (r *Router) Ledger() *telemetry.UsageLedger { return r.ledger }

// WithHandle installs a backend for a provider id, replacing the
// default client construction. Used to stub backends in tests.
func (r *Router) WithHandle(providerID string, h provider.Handle) *Router {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handles[providerID] = h
	return r
}

// Config resolves the model configuration for a task at a tier. A
// missing route is a *ConfigError.
func (r *Router) Config(task TaskType, tier security.Tier) (ModelConfig, error) {
	cfg, ok := modelMatrix[routeKey{r.mode, tier, task}]
	if !ok {
		return ModelConfig{}, &ConfigError{Mode: r.mode, Tier: tier, Task: task}
	}
	r.log.Debug("selected model",
		zap.String("model", cfg.ModelID),
		zap.String("provider", cfg.Provider),
		zap.String("task", task.String()),
		zap.String("tier", tier.String()),
		zap.String("mode", r.mode.String()))
	return cfg, nil
}

// Client resolves the route and returns a backend handle for it along
// with the resolved configuration.
func (r *Router) Client(task TaskType, tier security.Tier) (provider.Handle, ModelConfig, error) {
	cfg, err := r.Config(task, tier)
	if err != nil {
		return nil, ModelConfig{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if h, ok := r.handles[cfg.Provider]; ok {
		return h, cfg, nil
	}

	h, err := r.newHandle(cfg)
	if err != nil {
		return nil, ModelConfig{}, err
	}
	return h, cfg, nil
}

func (r *Router) newHandle(cfg ModelConfig) (provider.Handle, error) {
	key := r.keys[cfg.Provider]
	switch cfg.Provider {
	case ProviderAnthropic:
		return provider.NewAnthropicClient(key, cfg.ModelID, cfg.MaxTokens, cfg.Temperature), nil
	case ProviderOpenAI:
		return provider.NewOpenAIClient(key, cfg.ModelID, cfg.MaxTokens, cfg.Temperature), nil
	case ProviderFactory:
		return provider.NewFactoryClient(key, cfg.ModelID, r.log), nil
	case ProviderOnPrem:
		return provider.NewOnPremClient(key, cfg.ModelID, r.log), nil
	}
	return nil, fmt.Errorf("unknown provider %q", cfg.Provider)
}

// RecordUsage adds one model call to the session ledger.
func (r *Router) RecordUsage(task TaskType, inputTokens, outputTokens int, costUSD float64) {
	r.ledger.Record(task.String(), inputTokens, outputTokens, costUSD)
}

// UsageSummary renders the session ledger as markdown.
func (r *Router) UsageSummary() string {
	return r.ledger.Summary()
}
