// Copyright (c) 2025 Fabsolve Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package workflow chains the four phase agents into one investigation:
// narrative intake, clarification, 8D analysis, and prevention. Phases
// run in strict order and each later phase consumes the typed output
// of the earlier ones.
package workflow
