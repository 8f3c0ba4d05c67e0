// Copyright (c) 2025 Fabsolve Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later

package workflow

import (
	"fmt"
	"strings"
	"time"

	"github.com/fabsolve/fabsolve/internal/agents"
)

// Result is the complete record of one workflow run.
type Result struct {
	SessionID string `json:"session_id" yaml:"session_id"`
	Mode      string `json:"mode" yaml:"mode"`
	Tier      string `json:"tier" yaml:"tier"`

	Narrative  agents.Output     `json:"narrative" yaml:"narrative"`
	Questions  []agents.Question `json:"clarification_questions" yaml:"clarification_questions"`
	Answers    map[string]string `json:"clarification_answers" yaml:"clarification_answers"`
	Analysis   agents.Output     `json:"analysis" yaml:"analysis"`
	Prevention agents.Output     `json:"prevention" yaml:"prevention"`

	// TotalCostUSD sums the narrative, analysis, and prevention phase
	// costs. The clarification phase is interactive overhead and is
	// reported in the usage ledger but not counted here.
	TotalCostUSD    float64  `json:"total_cost_usd" yaml:"total_cost_usd"`
	PhasesCompleted []string `json:"phases_completed" yaml:"phases_completed"`

	// Errors records non-fatal problems encountered during the run.
	// A fatal phase failure aborts the run instead, so a returned
	// Result always has an Errors slice, usually empty.
	Errors []string `json:"errors" yaml:"errors"`

	FactsIdentified      int      `json:"facts_identified" yaml:"facts_identified"`
	HypothesesIdentified int      `json:"hypotheses_identified" yaml:"hypotheses_identified"`
	EightDPhases         []string `json:"eight_d_phases_addressed" yaml:"eight_d_phases_addressed"`

	CompletedAt time.Time `json:"completed_at" yaml:"completed_at"`
}

// Markdown renders the full result as one report document.
func (r *Result) Markdown() string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Investigation Report\n\n")
	fmt.Fprintf(&b, "**Session:** %s  \n", r.SessionID)
	fmt.Fprintf(&b, "**Mode:** %s  \n", r.Mode)
	fmt.Fprintf(&b, "**Security Tier:** %s  \n", r.Tier)
	fmt.Fprintf(&b, "**Completed:** %s\n\n", r.CompletedAt.Format(time.RFC3339))

	b.WriteString(r.Narrative.Content)
	b.WriteString("\n\n")

	if len(r.Questions) > 0 {
		b.WriteString("# Clarifications (Phase 1)\n\n")
		for _, q := range r.Questions {
			answer, ok := r.Answers[q.Question]
			if !ok {
				answer = "(skipped)"
			}
			fmt.Fprintf(&b, "**Q:** %s  \n**A:** %s\n\n", q.Question, answer)
		}
	}

	b.WriteString(r.Analysis.Content)
	b.WriteString("\n\n# Prevention Plan (Phase 3)\n\n")
	b.WriteString(r.Prevention.Content)

	fmt.Fprintf(&b, "\n\n# Summary\n\n")
	fmt.Fprintf(&b, "- Phases completed: %s\n", strings.Join(r.PhasesCompleted, ", "))
	fmt.Fprintf(&b, "- 8D phases addressed: %s\n", strings.Join(r.EightDPhases, ", "))
	fmt.Fprintf(&b, "- Facts identified: %d\n", r.FactsIdentified)
	fmt.Fprintf(&b, "- Hypotheses identified: %d\n", r.HypothesesIdentified)
	fmt.Fprintf(&b, "- Total cost: $%.4f\n", r.TotalCostUSD)
	if len(r.Errors) > 0 {
		fmt.Fprintf(&b, "- Errors: %s\n", strings.Join(r.Errors, "; "))
	}

	return b.String()
}
