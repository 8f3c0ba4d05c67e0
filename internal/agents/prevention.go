// Copyright (c) 2025 Fabsolve Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later

package agents

import (
	"encoding/json"
	"fmt"

	"github.com/fabsolve/fabsolve/internal/router"
)

// PermanentAction is one D5 corrective action.
type PermanentAction struct {
	Action              string   `json:"action" yaml:"action"`
	Rationale           string   `json:"rationale" yaml:"rationale"`
	Owner               string   `json:"owner" yaml:"owner"`
	Timeline            string   `json:"timeline" yaml:"timeline"`
	SuccessMetrics      string   `json:"success_metrics" yaml:"success_metrics"`
	ImplementationSteps []string `json:"implementation_steps" yaml:"implementation_steps"`
}

// SystemicPrevention is one D7 systemic change.
type SystemicPrevention struct {
	Change         string `json:"change" yaml:"change"`
	Scope          string `json:"scope" yaml:"scope"`
	Implementation string `json:"implementation" yaml:"implementation"`
	Benefits       string `json:"benefits" yaml:"benefits"`
	Risks          string `json:"risks" yaml:"risks"`
}

// KnowledgeBaseUpdate is one D8 documentation update.
type KnowledgeBaseUpdate struct {
	Document     string `json:"document" yaml:"document"`
	UpdateNeeded string `json:"update_needed" yaml:"update_needed"`
	Priority     string `json:"priority" yaml:"priority"`
}

// FollowUpItem is a tracked action item coming out of the workflow.
type FollowUpItem struct {
	Item     string `json:"item" yaml:"item"`
	Owner    string `json:"owner" yaml:"owner"`
	Deadline string `json:"deadline" yaml:"deadline"`
}

// PreventionPlan is the structured output of the prevention phase.
type PreventionPlan struct {
	PermanentActions     []PermanentAction     `json:"permanent_actions" yaml:"permanent_actions"`
	SystemicPrevention   []SystemicPrevention  `json:"systemic_prevention" yaml:"systemic_prevention"`
	LessonsLearned       []string              `json:"lessons_learned" yaml:"lessons_learned"`
	KnowledgeBaseUpdates []KnowledgeBaseUpdate `json:"knowledge_base_updates" yaml:"knowledge_base_updates"`
	FollowUpItems        []FollowUpItem        `json:"follow_up_items" yaml:"follow_up_items"`
}

// PreventionAgent handles phase 3: permanent corrective actions (D5),
// systemic prevention (D7), and lessons learned (D8).
type PreventionAgent struct{}

// NewPreventionAgent creates the phase 3 agent.
func NewPreventionAgent() *PreventionAgent { return &PreventionAgent{} }

// Name implements PhaseAgent.
func (a *PreventionAgent) Name() string { return "prevention" }

// Task implements PhaseAgent.
func (a *PreventionAgent) Task() router.TaskType { return router.TaskSynthesis }

// MaxTokens implements PhaseAgent.
func (a *PreventionAgent) MaxTokens() int { return 4000 }

// BuildPrompt implements PhaseAgent. The prompt is grounded in the
// analysis report: root causes from D4, containment from D3, and the
// problem definition from D2.
func (a *PreventionAgent) BuildPrompt(in Input) string {
	var rootCauses, containment []string
	var definition, reportJSON string
	if in.Report != nil {
		rootCauses = in.Report.RootCauses()
		containment = in.Report.ContainmentActions()
		definition = in.Report.ProblemDefinition()
		if raw, err := json.MarshalIndent(in.Report, "", "  "); err == nil {
			reportJSON = string(raw)
		}
	}
	if definition == "" {
		definition = "(Not established)"
	}

	return fmt.Sprintf(`You are a prevention and documentation specialist for semiconductor manufacturing 8D analysis.

%s

## Context from Previous Analysis

**Problem Definition:**
%s

**Root Causes Identified:**
%s

**Containment Actions in Place:**
%s

**8D Analysis:**
%s

## Your Task

Generate a comprehensive prevention plan with three components:

### 1. Permanent Corrective Actions (D5)
For each action: the specific action, rationale for why it prevents recurrence,
owner, implementation timeline, and success metrics.

### 2. Systemic Prevention (D7)
SOP updates, preventive maintenance changes, automated checks, SPC limit
adjustments, training, process control improvements. State the scope
(single tool vs all tools vs entire fab).

### 3. Lessons Learned (D8)
Key lessons, what worked in the investigation, what could improve, knowledge
base and documentation updates, case studies for training.

## Output Format

Return ONLY valid JSON with this structure:

{
  "permanent_actions": [
    {"action": "...", "rationale": "...", "owner": "...", "timeline": "...", "success_metrics": "...", "implementation_steps": [...]}
  ],
  "systemic_prevention": [
    {"change": "...", "scope": "...", "implementation": "...", "benefits": "...", "risks": "..."}
  ],
  "lessons_learned": [...],
  "knowledge_base_updates": [
    {"document": "...", "update_needed": "...", "priority": "high|medium|low"}
  ],
  "follow_up_items": [
    {"item": "...", "owner": "...", "deadline": "..."}
  ]
}

Be specific and actionable. Focus on prevention, not just detection.`,
		a.modeGuidance(in.Mode), definition,
		formatList(rootCauses), formatList(containment), reportJSON)
}

func (a *PreventionAgent) modeGuidance(mode ProblemMode) string {
	switch mode {
	case ModeExcursion:
		return `**Mode: Excursion Response**
Focus on: immediate containment actions made permanent, preventing similar
excursions on similar tools, early warning systems, maintenance and recipe
control improvements.`
	case ModeImprovement:
		return `**Mode: Yield Improvement**
Focus on: sustainable process improvements, variability reduction, long-term
capability improvements, best practice documentation.`
	case ModeOperations:
		return `**Mode: Operations Troubleshooting**
Focus on: workflow improvements to prevent delays, communication and
escalation improvements, tools and automation to speed resolution.`
	}
	return ""
}

// Parse implements PhaseAgent. A malformed response keeps the raw text
// as the content and notes the failure as a fact.
func (a *PreventionAgent) Parse(response string, in Input) Output {
	var plan PreventionPlan
	if err := json.Unmarshal([]byte(stripJSON(response)), &plan); err != nil {
		return Output{
			Agent:        a.Name(),
			Content:      response,
			EightDPhases: []string{PhaseD5, PhaseD7, PhaseD8},
			Facts:        []string{"Prevention plan generated but could not be parsed as JSON"},
			Prevention:   &PreventionPlan{},
		}
	}

	var facts []string
	for _, action := range plan.PermanentActions {
		facts = append(facts, fmt.Sprintf("D5: %s (%s)", action.Action, action.Rationale))
	}
	for _, prev := range plan.SystemicPrevention {
		facts = append(facts, fmt.Sprintf("D7: %s (scope: %s)", prev.Change, prev.Scope))
	}

	var hypotheses []string
	for _, prev := range plan.SystemicPrevention {
		if prev.Benefits != "" {
			hypotheses = append(hypotheses, "Expected benefit: "+prev.Benefits)
		}
		if prev.Risks != "" {
			hypotheses = append(hypotheses, "Potential risk: "+prev.Risks)
		}
	}

	content, err := json.MarshalIndent(plan, "", "  ")
	if err != nil {
		content = []byte(response)
	}

	return Output{
		Agent:        a.Name(),
		Content:      string(content),
		EightDPhases: []string{PhaseD5, PhaseD7, PhaseD8},
		Facts:        facts,
		Hypotheses:   hypotheses,
		Prevention:   &plan,
	}
}
