// Copyright (c) 2025 Fabsolve Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later

package router

import (
	"fmt"
	"strings"
)

// RuntimeMode selects between cheap dev models and production models.
type RuntimeMode int

const (
	// ModeDev routes to fast, cheap models for development and testing.
	ModeDev RuntimeMode = iota
	// ModeRuntime routes to the best available models for real work.
	ModeRuntime
)

// String returns the wire name of the mode.
func (m RuntimeMode) String() string {
	if m == ModeRuntime {
		return "runtime"
	}
	return "dev"
}

// ParseMode converts a user-supplied mode name. The
// FABSOLVE_RUNTIME_MODE env override flows through here via the config
// layer.
func ParseMode(s string) (RuntimeMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "dev", "development", "":
		return ModeDev, nil
	case "runtime", "prod", "production":
		return ModeRuntime, nil
	}
	return ModeDev, fmt.Errorf("unknown runtime mode %q", s)
}

// TaskType classifies a model call by the kind of work it does. Each
// workflow phase maps to exactly one task type.
type TaskType int

const (
	// TaskReasoning is general structured reasoning.
	TaskReasoning TaskType = iota
	// TaskDeepAnalysis is long-form root cause analysis.
	TaskDeepAnalysis
	// TaskSynthesis condenses findings into plans and reports.
	TaskSynthesis
	// TaskFast is for short, low-stakes completions.
	TaskFast
)

// String returns the wire name of the task type.
func (t TaskType) String() string {
	switch t {
	case TaskDeepAnalysis:
		return "deep_analysis"
	case TaskSynthesis:
		return "synthesis"
	case TaskFast:
		return "fast"
	default:
		return "reasoning"
	}
}

// AllTaskTypes returns the task types in declaration order.
func AllTaskTypes() []TaskType {
	return []TaskType{TaskReasoning, TaskDeepAnalysis, TaskSynthesis, TaskFast}
}

// Provider identifiers used across the route table and key loading.
const (
	ProviderAnthropic = "anthropic"
	ProviderOpenAI    = "openai"
	ProviderFactory   = "factory"
	ProviderOnPrem    = "onprem"
)

// ModelConfig describes one routed model. Cost rates are USD per 1000
// tokens; internal backends carry zero rates.
type ModelConfig struct {
	Provider        string
	ModelID         string
	MaxTokens       int
	Temperature     float64
	CostPer1KInput  float64
	CostPer1KOutput float64
}

// ComputeCost returns the USD cost of one call under this config.
func (c ModelConfig) ComputeCost(inputTokens, outputTokens int) float64 {
	return float64(inputTokens)/1000.0*c.CostPer1KInput +
		float64(outputTokens)/1000.0*c.CostPer1KOutput
}
