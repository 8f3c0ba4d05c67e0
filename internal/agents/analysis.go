// Copyright (c) 2025 Fabsolve Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later

package agents

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/fabsolve/fabsolve/internal/router"
)

// AnalysisAgent handles phase 2: structured 8D analysis. It maps the
// accumulated context onto the D0-D8 disciplines and separates
// confirmed facts from hypotheses.
type AnalysisAgent struct{}

// NewAnalysisAgent creates the phase 2 agent.
func NewAnalysisAgent() *AnalysisAgent { return &AnalysisAgent{} }

// Name implements PhaseAgent.
func (a *AnalysisAgent) Name() string { return "analysis" }

// Task implements PhaseAgent. Analysis is the heavyweight phase and
// routes to the deep analysis models.
func (a *AnalysisAgent) Task() router.TaskType { return router.TaskDeepAnalysis }

// MaxTokens implements PhaseAgent.
func (a *AnalysisAgent) MaxTokens() int { return 8000 }

// BuildPrompt implements PhaseAgent.
func (a *AnalysisAgent) BuildPrompt(in Input) string {
	var observations, causes, constraints []string
	if in.Analysis != nil {
		observations = in.Analysis.Observations
		causes = in.Analysis.SuspectedCauses
		constraints = in.Analysis.Constraints
	}

	return fmt.Sprintf(`You are a semiconductor fab problem-solving expert conducting an 8D analysis.

**Problem Mode:** %s

**User Narrative:**
%s

**Observations (Facts):**
%s

**Suspected Causes (Hypotheses to validate):**
%s

**Constraints:**
%s

**Clarifications:**
%s

**Your Task:**

Conduct a structured 8D (Eight Disciplines) analysis of this problem.
For each applicable phase provide findings, recommendations, a confidence
level (high/medium/low), and the data sources needed to validate.

**8D Phases to Address:**

- **D0 Preparation:** how was this detected, what triggered the investigation, urgency.
- **D1 Team:** who should be involved, what expertise is needed, ownership.
- **D2 Problem Definition:** WHAT, WHERE, WHEN, HOW BIG; IS vs IS NOT analysis.
- **D3 Interim Containment:** what stops the bleeding now; lot holds, tool holds, rework.
- **D4 Root Cause Analysis:** why did this happen (5 Whys, fishbone); ranked root cause candidates; data to validate each.
- **D5 Permanent Corrective Actions:** how to fix the root cause permanently, if it is clear.
- **D6 Validation:** how to prove the fix works; test plan, acceptance criteria, monitoring.
- **D7 Prevention:** how to prevent this systemically; SOP updates, PM, automated checks.
- **D8 Lessons Learned:** what to document and share.

**Important Guidelines:**
- Separate FACTS (what we know for sure) from HYPOTHESES (what we suspect).
- Be explicit about confidence levels.
- Identify gaps (what data is missing).
- Be practical: not all phases may apply yet.

**Output Format:**

Return JSON:
{
  "phases": [
    {
      "phase": "D0",
      "title": "Preparation",
      "findings": [...],
      "recommendations": [...],
      "confidence": "high|medium|low",
      "data_sources": [...]
    },
    ...
  ],
  "facts": [...],
  "hypotheses": [...],
  "gaps": [...],
  "next_steps": [...]
}`,
		in.Mode, in.Narrative,
		formatList(observations), formatList(causes), formatList(constraints),
		a.formatClarifications(in.Clarifications))
}

func (a *AnalysisAgent) formatClarifications(clarifications map[string]string) string {
	if len(clarifications) == 0 {
		return "(None provided)"
	}
	questions := make([]string, 0, len(clarifications))
	for q := range clarifications {
		questions = append(questions, q)
	}
	sort.Strings(questions)

	var b strings.Builder
	for _, q := range questions {
		fmt.Fprintf(&b, "**Q:** %s\n**A:** %s\n\n", q, clarifications[q])
	}
	return strings.TrimRight(b.String(), "\n")
}

// Parse implements PhaseAgent. A malformed response degrades to an
// empty report flagging the parse failure as a gap.
func (a *AnalysisAgent) Parse(response string, in Input) Output {
	var report EightDReport
	if err := json.Unmarshal([]byte(stripJSON(response)), &report); err != nil {
		report = EightDReport{
			Facts:     []string{"Unable to parse 8D analysis"},
			Gaps:      []string{"Model response was not valid JSON"},
			NextSteps: []string{"Re-run analysis"},
		}
	}

	phases := make([]string, 0, len(report.Phases))
	for _, p := range report.Phases {
		phases = append(phases, p.Phase)
	}

	return Output{
		Agent:         a.Name(),
		Content:       a.formatReport(&report),
		EightDPhases:  phases,
		Facts:         report.Facts,
		Hypotheses:    report.Hypotheses,
		OpenQuestions: report.Gaps,
		Report:        &report,
	}
}

func (a *AnalysisAgent) formatReport(report *EightDReport) string {
	var b strings.Builder
	b.WriteString("# 8D Analysis Report (Phase 2)\n\n---\n\n")

	for _, phase := range report.Phases {
		fmt.Fprintf(&b, "## %s: %s\n\n**Confidence:** %s\n\n", phase.Phase, phase.Title, phase.Confidence)
		writeBullets(&b, "**Findings:**", phase.Findings)
		writeBullets(&b, "**Recommendations:**", phase.Recommendations)
		writeBullets(&b, "**Data Sources:**", phase.DataSources)
		b.WriteString("---\n\n")
	}

	writeBullets(&b, "## Confirmed Facts", report.Facts)
	writeBullets(&b, "## Hypotheses to Validate", report.Hypotheses)
	writeBullets(&b, "## Information Gaps", report.Gaps)

	if len(report.NextSteps) > 0 {
		b.WriteString("## Recommended Next Steps\n\n")
		for i, step := range report.NextSteps {
			fmt.Fprintf(&b, "%d. %s\n", i+1, step)
		}
	}
	return b.String()
}

func writeBullets(b *strings.Builder, heading string, items []string) {
	if len(items) == 0 {
		return
	}
	b.WriteString(heading + "\n")
	for _, item := range items {
		b.WriteString("- " + item + "\n")
	}
	b.WriteString("\n")
}
