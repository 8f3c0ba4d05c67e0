// Copyright (c) 2025 Fabsolve Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later

package security

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Tier represents the security tier of a session.
//
// Tiers are ordered by restrictiveness but their permission sets are not
// nested; use the permission table for any access decision.
type Tier int

const (
	// TierGeneralLLM permits public cloud model APIs and local tools.
	TierGeneralLLM Tier = iota + 1
	// TierConfidentialFab permits factory APIs, the knowledge graph, and
	// local tools. No external cloud APIs.
	TierConfidentialFab
	// TierTopSecret permits on-prem backends and local tools only.
	// No external APIs and, unlike CONFIDENTIAL_FAB, no factory APIs.
	TierTopSecret
)

// String returns the canonical name of the tier.
func (t Tier) String() string {
	switch t {
	case TierGeneralLLM:
		return "GENERAL_LLM"
	case TierConfidentialFab:
		return "CONFIDENTIAL_FAB"
	case TierTopSecret:
		return "TOP_SECRET"
	default:
		return fmt.Sprintf("Tier(%d)", int(t))
	}
}

// Valid reports whether t is one of the three defined tiers.
func (t Tier) Valid() bool {
	return t >= TierGeneralLLM && t <= TierTopSecret
}

// AllTiers lists the defined tiers in ascending order of restrictiveness.
func AllTiers() []Tier {
	return []Tier{TierGeneralLLM, TierConfidentialFab, TierTopSecret}
}

// ParseTier parses a tier from user input. Accepts the canonical names,
// short aliases, and the numeric forms 1-3.
func ParseTier(s string) (Tier, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "general", "general_llm", "general-llm":
		return TierGeneralLLM, nil
	case "2", "confidential", "confidential_fab", "confidential-fab":
		return TierConfidentialFab, nil
	case "3", "top_secret", "top-secret", "topsecret", "secret":
		return TierTopSecret, nil
	default:
		return 0, fmt.Errorf("unknown security tier %q (want general, confidential, or top_secret)", s)
	}
}

// Color constants for tier banners.
const (
	colorGeneral      = lipgloss.Color("42")  // Green
	colorConfidential = lipgloss.Color("214") // Orange
	colorTopSecret    = lipgloss.Color("196") // Red
)

// Color returns the banner color for the tier.
func (t Tier) Color() lipgloss.Color {
	switch t {
	case TierConfidentialFab:
		return colorConfidential
	case TierTopSecret:
		return colorTopSecret
	default:
		return colorGeneral
	}
}

// Banner renders a full-width tier marking for terminal display.
func (t Tier) Banner(width int) string {
	if width < len(t.String()) {
		width = len(t.String())
	}
	style := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("0")).
		Background(t.Color()).
		Width(width).
		Align(lipgloss.Center)
	return style.Render(t.String())
}

// ToolCategory classifies a tool or model backend for tier routing.
type ToolCategory int

const (
	// CategoryExternalAPI covers public cloud model providers.
	CategoryExternalAPI ToolCategory = iota
	// CategoryFactoryAPI covers internal factory systems (SPC, FDC,
	// metrology, factory GenAI).
	CategoryFactoryAPI
	// CategoryOnPremAPI covers air-gapped on-prem backends.
	CategoryOnPremAPI
	// CategoryLocalTool covers local filesystem, git, and similar tools.
	CategoryLocalTool
	// CategoryKnowledgeGraph covers the internal knowledge base.
	CategoryKnowledgeGraph
)

// String returns the wire name of the category.
func (c ToolCategory) String() string {
	switch c {
	case CategoryExternalAPI:
		return "external_api"
	case CategoryFactoryAPI:
		return "factory_api"
	case CategoryOnPremAPI:
		return "onprem_api"
	case CategoryLocalTool:
		return "local_tool"
	case CategoryKnowledgeGraph:
		return "knowledge_graph"
	default:
		return fmt.Sprintf("ToolCategory(%d)", int(c))
	}
}
