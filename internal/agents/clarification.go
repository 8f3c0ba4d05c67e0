// Copyright (c) 2025 Fabsolve Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later

package agents

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/fabsolve/fabsolve/internal/router"
)

// Question is one clarification question with the reason it matters.
type Question struct {
	Question  string `json:"question" yaml:"question"`
	Rationale string `json:"rationale" yaml:"rationale"`
}

// ClarificationAgent handles phase 1: adaptive clarification. The
// questions it asks depend on the problem mode; an excursion needs a
// timeline, a chronic issue needs a variability picture.
type ClarificationAgent struct{}

// NewClarificationAgent creates the phase 1 agent.
func NewClarificationAgent() *ClarificationAgent { return &ClarificationAgent{} }

// Name implements PhaseAgent.
func (a *ClarificationAgent) Name() string { return "clarification" }

// Task implements PhaseAgent.
func (a *ClarificationAgent) Task() router.TaskType { return router.TaskReasoning }

// MaxTokens implements PhaseAgent.
func (a *ClarificationAgent) MaxTokens() int { return 2000 }

// BuildPrompt implements PhaseAgent.
func (a *ClarificationAgent) BuildPrompt(in Input) string {
	var observations, causes, sources []string
	if in.Analysis != nil {
		observations = in.Analysis.Observations
		causes = in.Analysis.SuspectedCauses
		sources = in.Analysis.DataSources
	}

	return fmt.Sprintf(`You are helping clarify a semiconductor fab problem.

**Problem Mode:** %s

**What we know so far:**

Observations:
%s

Suspected Causes:
%s

Data Sources Mentioned:
%s

**Your Task:**

Generate 5-10 clarification questions tailored to the **%s** problem mode.

%s

**Key Questions to Ask:**

1. **Scope:** when did this surface, where is it happening, how widespread?
2. **Baseline:** what does "normal" look like, what looks different, has this happened before?
3. **Data:** what data is trusted vs uncertain, what measurements are available?
4. **Context:** recent changes (recipe, tool PM, material lot), production impact, constraints?

**Output Format:**

Return JSON:
{
  "questions": [
    {"question": "...", "rationale": "why this matters"},
    ...
  ]
}

Make questions specific and actionable. Avoid generic questions.`,
		in.Mode, formatList(observations), formatList(causes), formatList(sources),
		in.Mode, a.modeTemplate(in.Mode))
}

func (a *ClarificationAgent) modeTemplate(mode ProblemMode) string {
	switch mode {
	case ModeExcursion:
		return `**Excursion Mode Focus:**
- WHEN did the excursion trigger? (exact timeline)
- WHERE is it localized? (tool, chamber, product, lot)
- WHAT was normal baseline? (SPC limits, Cpk)
- WHAT changed? (recipe, material, tool state)
- CONTAINMENT: what lots are at risk?
- URGENCY: production impact?`
	case ModeImprovement:
		return `**Improvement Mode Focus:**
- HOW LONG has this been an issue? (chronic pattern)
- HOW WIDESPREAD? (across tools, products, time)
- WHAT'S THE VARIABILITY? (tool-to-tool, lot-to-lot)
- ROOT CAUSES: what's been tried, what didn't work?
- BASELINE: current capability? (Cp, Cpk)
- GOAL: target improvement?`
	case ModeOperations:
		return `**Operations Mode Focus:**
- WHAT'S BLOCKING? (tool down, queue time, dispatch issue)
- WHAT'S URGENT? (customer commit, capacity constraint)
- IMPACT: how many lots affected, revenue risk?
- WORKAROUNDS: what temporary solutions exist?
- ROOT CAUSE: recurring issue or one-time?
- PREVENTION: how to avoid next time?`
	}
	return ""
}

// clarificationResponse accepts questions either as objects or as bare
// strings; models produce both despite the requested shape.
type clarificationResponse struct {
	Questions []json.RawMessage `json:"questions"`
	Rationale string            `json:"rationale"`
}

// defaultQuestions is the fallback when the response cannot be parsed.
var defaultQuestions = []Question{
	{Question: "When did you first notice this issue?", Rationale: "Establishes the timeline"},
	{Question: "Which tools or processes are affected?", Rationale: "Establishes the scope"},
	{Question: "What does normal operation look like for comparison?", Rationale: "Establishes the baseline"},
	{Question: "What data sources are available to investigate?", Rationale: "Establishes data availability"},
}

// Parse implements PhaseAgent.
func (a *ClarificationAgent) Parse(response string, in Input) Output {
	questions := parseQuestions(response)
	if len(questions) == 0 {
		questions = defaultQuestions
	}

	open := make([]string, len(questions))
	for i, q := range questions {
		open[i] = q.Question
	}

	return Output{
		Agent:         a.Name(),
		Content:       a.formatQuestions(questions),
		EightDPhases:  []string{PhaseD1, PhaseD2},
		OpenQuestions: open,
		Questions:     questions,
	}
}

func parseQuestions(response string) []Question {
	var parsed clarificationResponse
	if err := json.Unmarshal([]byte(stripJSON(response)), &parsed); err != nil {
		return nil
	}

	var questions []Question
	for _, raw := range parsed.Questions {
		var q Question
		if err := json.Unmarshal(raw, &q); err == nil && q.Question != "" {
			questions = append(questions, q)
			continue
		}
		var s string
		if err := json.Unmarshal(raw, &s); err == nil && s != "" {
			questions = append(questions, Question{Question: s, Rationale: parsed.Rationale})
		}
	}
	return questions
}

func (a *ClarificationAgent) formatQuestions(questions []Question) string {
	var b strings.Builder
	b.WriteString("# Clarification Questions (Phase 1)\n\n")
	for i, q := range questions {
		fmt.Fprintf(&b, "%d. %s\n", i+1, q.Question)
		if q.Rationale != "" {
			fmt.Fprintf(&b, "   Why this matters: %s\n", q.Rationale)
		}
	}
	b.WriteString("\nPlease answer these questions to help refine the problem scope.")
	return b.String()
}
