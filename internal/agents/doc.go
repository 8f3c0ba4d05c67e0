// Copyright (c) 2025 Fabsolve Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package agents implements the four phase agents of the workflow:
// narrative intake, clarification, structured 8D analysis, and
// prevention planning. Each agent builds a prompt, routes it through
// the model router, and parses the response into a typed output.
//
// Parsing never fails the workflow. A malformed model response
// degrades to a deterministic fallback output so a flaky completion
// cannot abort an investigation.
package agents
