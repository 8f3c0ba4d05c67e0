// Copyright (c) 2025 Fabsolve Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later

// enforcer.go - Hard enforcement of security tier boundaries.
//
// SECURITY CRITICAL: Violations are BLOCKED with a typed error, never
// silently degraded. Unknown tools fail closed. The permission table is
// authoritative; tier ordinals are never compared.

package security

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"
)

// toolCategories maps every known tool/backend identifier to exactly one
// category. Anything not in this table is denied at every tier.
var toolCategories = map[string]ToolCategory{
	// External model APIs (GENERAL_LLM only)
	"openai":        CategoryExternalAPI,
	"anthropic":     CategoryExternalAPI,
	"google_gemini": CategoryExternalAPI,
	"perplexity":    CategoryExternalAPI,

	// Factory APIs (CONFIDENTIAL_FAB only)
	"factory_spc":       CategoryFactoryAPI,
	"factory_fdc":       CategoryFactoryAPI,
	"factory_metrology": CategoryFactoryAPI,
	"factory_genai":     CategoryFactoryAPI,

	// On-prem backends (TOP_SECRET only)
	"onprem_llm":      CategoryOnPremAPI,
	"recipe_database": CategoryOnPremAPI,

	// Local tools (every tier)
	"git":         CategoryLocalTool,
	"ast-grep":    CategoryLocalTool,
	"local_files": CategoryLocalTool,

	// Knowledge graph (CONFIDENTIAL_FAB only)
	"knowledge_graph": CategoryKnowledgeGraph,
}

// tierPermissions is the authoritative permission table. The sets are
// deliberately NOT nested: TOP_SECRET excludes the factory APIs that
// CONFIDENTIAL_FAB allows. Decisions must use this table, never a
// "higher tier allows more" comparison.
var tierPermissions = map[Tier]map[ToolCategory]bool{
	TierGeneralLLM: {
		CategoryExternalAPI: true,
		CategoryLocalTool:   true,
	},
	TierConfidentialFab: {
		CategoryFactoryAPI:     true,
		CategoryLocalTool:      true,
		CategoryKnowledgeGraph: true,
		// No external APIs.
	},
	TierTopSecret: {
		CategoryOnPremAPI: true,
		CategoryLocalTool: true,
		// No external or factory APIs.
	},
}

// minimumTierFor returns the lowest tier whose permission set contains
// the category, derived from the table itself.
func minimumTierFor(category ToolCategory) Tier {
	for _, tier := range AllTiers() {
		if tierPermissions[tier][category] {
			return tier
		}
	}
	return TierTopSecret
}

// suggestionKey indexes the substitute-tool suggestions.
type suggestionKey struct {
	tier     Tier
	category ToolCategory
}

// suggestions maps a blocked (tier, category) pair to an actionable
// substitute, where one exists.
var suggestions = map[suggestionKey]string{
	{TierConfidentialFab, CategoryExternalAPI}: "use the factory_genai API instead",
	{TierTopSecret, CategoryExternalAPI}:       "use onprem_llm instead",
	{TierTopSecret, CategoryFactoryAPI}:        "factory APIs are not available in the TOP_SECRET tier; use onprem_llm",
	{TierGeneralLLM, CategoryFactoryAPI}:       "factory APIs require the CONFIDENTIAL_FAB tier",
	{TierGeneralLLM, CategoryOnPremAPI}:        "on-prem backends require the TOP_SECRET tier",
	{TierGeneralLLM, CategoryKnowledgeGraph}:   "the knowledge graph requires the CONFIDENTIAL_FAB tier",
}

// TierViolation records one blocked tool invocation.
type TierViolation struct {
	Tool         string `json:"tool"`
	CurrentTier  Tier   `json:"current_tier"`
	RequiredTier Tier   `json:"required_tier"`
	Reason       string `json:"reason"`
	Suggestion   string `json:"suggestion"`
}

// ViolationError is returned when a tool invocation would cross a tier
// boundary. It carries the full violation payload so callers cannot
// accidentally discard the context a plain bool or string would lose.
type ViolationError struct {
	Violation TierViolation
}

// Error implements the error interface.
func (e *ViolationError) Error() string {
	v := e.Violation
	return fmt.Sprintf("security violation: %s not allowed in %s tier (%s)",
		v.Tool, v.CurrentTier, v.Suggestion)
}

// Enforcer validates tool invocations against the session's fixed tier
// and accumulates a violation log for end-of-session review.
type Enforcer struct {
	tier Tier
	log  *zap.Logger

	mu         sync.Mutex
	violations []TierViolation
}

// NewEnforcer creates an enforcer for the given session tier.
func NewEnforcer(tier Tier, log *zap.Logger) *Enforcer {
	if log == nil {
		log = zap.NewNop()
	}
	return &Enforcer{tier: tier, log: log}
}

// Tier returns the session tier this enforcer was created with.
func (e *Enforcer) Tier() Tier {
	return e.tier
}

// Validate decides whether the named tool may be invoked under the
// session tier. A nil return means allowed. Any other outcome records a
// TierViolation and returns a *ViolationError carrying it.
//
// Unknown tools fail closed: they are denied at every tier.
func (e *Enforcer) Validate(tool string) error {
	category, known := toolCategories[tool]
	if !known {
		e.log.Warn("unknown tool blocked",
			zap.String("tool", tool),
			zap.String("tier", e.tier.String()))
		return e.block(TierViolation{
			Tool:        tool,
			CurrentTier: e.tier,
			Reason:      fmt.Sprintf("tool %q is not in the category table; unknown tools are never trusted", tool),
			Suggestion:  "register the tool with a category, or use one of the allowed tools",
		})
	}

	if tierPermissions[e.tier][category] {
		return nil
	}

	suggestion, ok := suggestions[suggestionKey{e.tier, category}]
	if !ok {
		suggestion = fmt.Sprintf("tool %q is not available in the %s tier", tool, e.tier)
	}

	e.log.Error("security violation blocked",
		zap.String("tool", tool),
		zap.String("category", category.String()),
		zap.String("tier", e.tier.String()))

	return e.block(TierViolation{
		Tool:         tool,
		CurrentTier:  e.tier,
		RequiredTier: minimumTierFor(category),
		Reason:       fmt.Sprintf("tool category %q is not permitted in %s", category, e.tier),
		Suggestion:   suggestion,
	})
}

// block appends the violation to the session log and wraps it.
func (e *Enforcer) block(v TierViolation) error {
	e.mu.Lock()
	e.violations = append(e.violations, v)
	e.mu.Unlock()
	return &ViolationError{Violation: v}
}

// AllowedTools returns the sorted identifiers of every tool whose
// category is permitted at the session tier.
func (e *Enforcer) AllowedTools() []string {
	allowed := tierPermissions[e.tier]
	var tools []string
	for tool, category := range toolCategories {
		if allowed[category] {
			tools = append(tools, tool)
		}
	}
	sort.Strings(tools)
	return tools
}

// Violations returns a copy of the violation log.
func (e *Enforcer) Violations() []TierViolation {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]TierViolation, len(e.violations))
	copy(out, e.violations)
	return out
}

// ViolationsSummary renders the accumulated violation log as markdown
// for session review.
func (e *Enforcer) ViolationsSummary() string {
	violations := e.Violations()
	if len(violations) == 0 {
		return "No security violations in this session."
	}

	var b []string
	b = append(b,
		fmt.Sprintf("# Security Violations (%d)", len(violations)),
		"",
		fmt.Sprintf("Current Tier: %s", e.tier),
		"")

	for i, v := range violations {
		required := "n/a"
		if v.RequiredTier.Valid() {
			required = v.RequiredTier.String()
		}
		b = append(b,
			fmt.Sprintf("## Violation %d", i+1),
			fmt.Sprintf("- **Tool:** %s", v.Tool),
			fmt.Sprintf("- **Current Tier:** %s", v.CurrentTier),
			fmt.Sprintf("- **Required Tier:** %s", required),
			fmt.Sprintf("- **Reason:** %s", v.Reason),
			fmt.Sprintf("- **Suggestion:** %s", v.Suggestion),
			"")
	}

	return strings.Join(b, "\n")
}
