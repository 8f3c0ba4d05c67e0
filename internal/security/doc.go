// Copyright (c) 2025 Fabsolve Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package security provides security tier enforcement for fabsolve.
//
// Every session runs under a fixed SecurityTier that controls which
// categories of tools and model backends may be invoked. Enforcement is
// HARD: violations are blocked with a typed error, not just logged.
//
// # Tiers
//
// Supported tiers (increasing restrictiveness):
//   - GENERAL_LLM: public cloud models and local tools only
//   - CONFIDENTIAL_FAB: factory APIs, knowledge graph, local tools
//   - TOP_SECRET: on-prem backends and local tools only
//
// Tier permission sets are NOT nested. TOP_SECRET deliberately excludes
// the factory APIs that CONFIDENTIAL_FAB allows, so permission checks go
// through the explicit table and never through ordinal comparison:
//
//	enforcer := security.NewEnforcer(security.TierConfidentialFab, logger)
//	if err := enforcer.Validate("anthropic"); err != nil {
//	    var verr *security.ViolationError
//	    if errors.As(err, &verr) {
//	        // Blocked. verr.Violation carries tool, tier, and a
//	        // suggested substitute.
//	    }
//	}
//
// Unknown tool names fail closed: anything not in the category table is
// denied at every tier.
package security
