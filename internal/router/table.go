// Copyright (c) 2025 Fabsolve Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later

package router

import "github.com/fabsolve/fabsolve/internal/security"

// routeKey addresses one cell of the model matrix.
type routeKey struct {
	mode RuntimeMode
	tier security.Tier
	task TaskType
}

// Cloud model presets. Rates are USD per 1K tokens.
var (
	haiku = ModelConfig{
		Provider:        ProviderAnthropic,
		ModelID:         "claude-haiku-4",
		Temperature:     0.7,
		CostPer1KInput:  0.25,
		CostPer1KOutput: 1.25,
	}
	sonnet = ModelConfig{
		Provider:        ProviderAnthropic,
		ModelID:         "claude-sonnet-4-5",
		Temperature:     0.7,
		CostPer1KInput:  3.0,
		CostPer1KOutput: 15.0,
	}
	opus = ModelConfig{
		Provider:        ProviderAnthropic,
		ModelID:         "claude-opus-4-5",
		Temperature:     0.7,
		CostPer1KInput:  15.0,
		CostPer1KOutput: 75.0,
	}
)

func preset(base ModelConfig, maxTokens int) ModelConfig {
	base.MaxTokens = maxTokens
	return base
}

func internal(providerID, modelID string, maxTokens int) ModelConfig {
	return ModelConfig{
		Provider:    providerID,
		ModelID:     modelID,
		MaxTokens:   maxTokens,
		Temperature: 0.7,
	}
}

// modelMatrix is the authoritative route table. Every (mode, tier,
// task) combination the workflow can produce has an entry; tier 2 and
// tier 3 routes are identical in both modes because the factory and
// on-prem gateways control their own model selection.
var modelMatrix = map[routeKey]ModelConfig{
	// GENERAL_LLM, dev mode: everything on haiku.
	{ModeDev, security.TierGeneralLLM, TaskReasoning}:    preset(haiku, 4000),
	{ModeDev, security.TierGeneralLLM, TaskDeepAnalysis}: preset(haiku, 8000),
	{ModeDev, security.TierGeneralLLM, TaskSynthesis}:    preset(haiku, 6000),
	{ModeDev, security.TierGeneralLLM, TaskFast}:         preset(haiku, 2000),

	// GENERAL_LLM, runtime mode: best public models per task.
	{ModeRuntime, security.TierGeneralLLM, TaskReasoning}:    preset(sonnet, 8000),
	{ModeRuntime, security.TierGeneralLLM, TaskDeepAnalysis}: preset(opus, 16000),
	{ModeRuntime, security.TierGeneralLLM, TaskSynthesis}:    preset(sonnet, 8000),
	{ModeRuntime, security.TierGeneralLLM, TaskFast}:         preset(haiku, 4000),

	// CONFIDENTIAL_FAB: factory gateway.
	{ModeDev, security.TierConfidentialFab, TaskReasoning}:    internal(ProviderFactory, "factory-reasoning", 8000),
	{ModeDev, security.TierConfidentialFab, TaskDeepAnalysis}: internal(ProviderFactory, "factory-analysis", 16000),
	{ModeDev, security.TierConfidentialFab, TaskSynthesis}:    internal(ProviderFactory, "factory-synthesis", 8000),
	{ModeDev, security.TierConfidentialFab, TaskFast}:         internal(ProviderFactory, "factory-fast", 4000),

	{ModeRuntime, security.TierConfidentialFab, TaskReasoning}:    internal(ProviderFactory, "factory-reasoning", 8000),
	{ModeRuntime, security.TierConfidentialFab, TaskDeepAnalysis}: internal(ProviderFactory, "factory-analysis", 16000),
	{ModeRuntime, security.TierConfidentialFab, TaskSynthesis}:    internal(ProviderFactory, "factory-synthesis", 8000),
	{ModeRuntime, security.TierConfidentialFab, TaskFast}:         internal(ProviderFactory, "factory-fast", 4000),

	// TOP_SECRET: air-gapped on-prem cluster only.
	{ModeDev, security.TierTopSecret, TaskReasoning}:    internal(ProviderOnPrem, "onprem-reasoning", 8000),
	{ModeDev, security.TierTopSecret, TaskDeepAnalysis}: internal(ProviderOnPrem, "onprem-analysis", 16000),
	{ModeDev, security.TierTopSecret, TaskSynthesis}:    internal(ProviderOnPrem, "onprem-synthesis", 8000),
	{ModeDev, security.TierTopSecret, TaskFast}:         internal(ProviderOnPrem, "onprem-fast", 4000),

	{ModeRuntime, security.TierTopSecret, TaskReasoning}:    internal(ProviderOnPrem, "onprem-reasoning", 8000),
	{ModeRuntime, security.TierTopSecret, TaskDeepAnalysis}: internal(ProviderOnPrem, "onprem-analysis", 16000),
	{ModeRuntime, security.TierTopSecret, TaskSynthesis}:    internal(ProviderOnPrem, "onprem-synthesis", 8000),
	{ModeRuntime, security.TierTopSecret, TaskFast}:         internal(ProviderOnPrem, "onprem-fast", 4000),
}
