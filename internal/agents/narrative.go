// Copyright (c) 2025 Fabsolve Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later

package agents

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/fabsolve/fabsolve/internal/router"
)

// NarrativeAnalysis is the structured extraction of an engineer's
// free-form problem description.
type NarrativeAnalysis struct {
	Observations    []string `json:"observations" yaml:"observations"`
	Interpretations []string `json:"interpretations" yaml:"interpretations"`
	Constraints     []string `json:"constraints" yaml:"constraints"`
	UrgencySignals  []string `json:"urgency_signals" yaml:"urgency_signals"`
	DataSources     []string `json:"data_sources_mentioned" yaml:"data_sources_mentioned"`
	SuspectedCauses []string `json:"suspected_causes" yaml:"suspected_causes"`
	Reflection      string   `json:"reflection" yaml:"reflection"`
}

// NarrativeAgent handles phase 0: narrative-first intake. It listens
// without demanding precision and separates what the engineer saw from
// what they think it means.
type NarrativeAgent struct{}

// NewNarrativeAgent creates the phase 0 agent.
func NewNarrativeAgent() *NarrativeAgent { return &NarrativeAgent{} }

// Name implements PhaseAgent.
func (a *NarrativeAgent) Name() string { return "narrative" }

// Task implements PhaseAgent.
func (a *NarrativeAgent) Task() router.TaskType { return router.TaskReasoning }

// MaxTokens implements PhaseAgent.
func (a *NarrativeAgent) MaxTokens() int { return 2000 }

// IntakePrompt is the opening prompt shown to the engineer before any
// structure is imposed.
func (a *NarrativeAgent) IntakePrompt() string {
	return `Before we get structured, please describe the situation in your own words.

Just tell me what's going on: what you're seeing, what's worrying you,
any constraints you're under, and what prompted you to look into this now.

Bullet points or stream-of-consciousness are both fine.`
}

// BuildPrompt implements PhaseAgent.
func (a *NarrativeAgent) BuildPrompt(in Input) string {
	return fmt.Sprintf(`You are analyzing a semiconductor fab engineer's problem description.

Your job is to extract structured information WITHOUT demanding precision or interrupting their flow.

**User's Narrative:**
%s

**Extract the following:**

1. **Observations** (facts they saw): SPC alerts, defects, tool behavior. Separate what they SAW from what they THINK.
2. **Interpretations** (their theories): what do they think is happening?
3. **Constraints**: time pressure, production impact, tool availability, data access limits.
4. **Urgency Signals**: what prompted them to escalate, what is at risk.
5. **Data Sources Mentioned**: SPC charts, FDC data, metrology, defect inspection.
6. **Suspected Causes**: their current hypotheses, even if they might be wrong.

Then write a brief **reflection** summarizing what you heard, neutral and confirming,
like "Here's what I heard. Tell me if this is accurate."

Format your response as JSON:
{
  "observations": [...],
  "interpretations": [...],
  "constraints": [...],
  "urgency_signals": [...],
  "data_sources_mentioned": [...],
  "suspected_causes": [...],
  "reflection": "..."
}

Remember: accept ambiguity. Don't demand precision. Capture their mental model as-is.`, in.Narrative)
}

// Parse implements PhaseAgent. A response that is not valid JSON falls
// back to a minimal analysis carrying the raw text as the reflection.
func (a *NarrativeAgent) Parse(response string, in Input) Output {
	var analysis NarrativeAnalysis
	if err := json.Unmarshal([]byte(stripJSON(response)), &analysis); err != nil {
		analysis = NarrativeAnalysis{
			Observations: []string{"Unable to parse narrative"},
			Reflection:   response,
		}
	}

	return Output{
		Agent:        a.Name(),
		Content:      a.formatAnalysis(&analysis),
		EightDPhases: []string{PhaseD0},
		Facts:        analysis.Observations,
		Hypotheses:   analysis.SuspectedCauses,
		Analysis:     &analysis,
	}
}

func (a *NarrativeAgent) formatAnalysis(analysis *NarrativeAnalysis) string {
	var b strings.Builder
	b.WriteString("# Narrative Analysis (Phase 0)\n\n")

	section := func(title string, items []string) {
		if len(items) == 0 {
			return
		}
		b.WriteString("## " + title + "\n")
		for _, item := range items {
			b.WriteString("- " + item + "\n")
		}
		b.WriteString("\n")
	}

	section("Observations (Facts)", analysis.Observations)
	section("Interpretations (Their Theory)", analysis.Interpretations)
	section("Constraints", analysis.Constraints)
	section("Urgency Signals", analysis.UrgencySignals)
	section("Data Sources Mentioned", analysis.DataSources)
	section("Suspected Causes (To Validate)", analysis.SuspectedCauses)

	b.WriteString("## Reflection\n\n")
	b.WriteString(analysis.Reflection)
	return b.String()
}
