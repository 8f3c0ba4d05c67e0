// Copyright (c) 2025 Fabsolve Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later

package agents

import "strings"

// The nine disciplines of the 8D methodology.
const (
	PhaseD0 = "D0" // Preparation
	PhaseD1 = "D1" // Team
	PhaseD2 = "D2" // Problem Definition
	PhaseD3 = "D3" // Interim Containment
	PhaseD4 = "D4" // Root Cause Analysis
	PhaseD5 = "D5" // Permanent Corrective Actions
	PhaseD6 = "D6" // Validation
	PhaseD7 = "D7" // Prevention
	PhaseD8 = "D8" // Lessons Learned
)

// PhaseTitles maps each discipline to its display title.
var PhaseTitles = map[string]string{
	PhaseD0: "Preparation",
	PhaseD1: "Team",
	PhaseD2: "Problem Definition",
	PhaseD3: "Interim Containment",
	PhaseD4: "Root Cause Analysis",
	PhaseD5: "Permanent Corrective Actions",
	PhaseD6: "Validation",
	PhaseD7: "Prevention",
	PhaseD8: "Lessons Learned",
}

// phaseKeywords drives keyword-based tagging of free text with the
// disciplines it touches.
var phaseKeywords = map[string][]string{
	PhaseD0: {"preparation", "trigger", "alert", "initiated"},
	PhaseD1: {"team", "owner", "responsible", "lead"},
	PhaseD2: {"problem definition", "symptom", "scope", "timeline"},
	PhaseD3: {"containment", "hold", "interim", "temporary"},
	PhaseD4: {"root cause", "why", "analysis", "hypothesis"},
	PhaseD5: {"permanent", "corrective action", "solution", "fix"},
	PhaseD6: {"validation", "verification", "confirm", "test"},
	PhaseD7: {"prevention", "systemic", "process change", "sop"},
	PhaseD8: {"lessons learned", "documentation", "share"},
}

// allPhases in discipline order, for deterministic iteration.
var allPhases = []string{
	PhaseD0, PhaseD1, PhaseD2, PhaseD3, PhaseD4, PhaseD5, PhaseD6, PhaseD7, PhaseD8,
}

// ExtractPhases tags content with the 8D phases it mentions, in
// discipline order.
func ExtractPhases(content string) []string {
	lower := strings.ToLower(content)
	var phases []string
	for _, phase := range allPhases {
		for _, term := range phaseKeywords[phase] {
			if strings.Contains(lower, term) {
				phases = append(phases, phase)
				break
			}
		}
	}
	return phases
}

// PhaseAnalysis is the analysis of a single 8D discipline.
type PhaseAnalysis struct {
	Phase           string   `json:"phase" yaml:"phase"`
	Title           string   `json:"title" yaml:"title"`
	Findings        []string `json:"findings" yaml:"findings"`
	Recommendations []string `json:"recommendations" yaml:"recommendations"`
	Confidence      string   `json:"confidence" yaml:"confidence"`
	DataSources     []string `json:"data_sources" yaml:"data_sources"`
}

// EightDReport is the structured output of the analysis phase.
type EightDReport struct {
	Phases     []PhaseAnalysis `json:"phases" yaml:"phases"`
	Facts      []string        `json:"facts" yaml:"facts"`
	Hypotheses []string        `json:"hypotheses" yaml:"hypotheses"`
	Gaps       []string        `json:"gaps" yaml:"gaps"`
	NextSteps  []string        `json:"next_steps" yaml:"next_steps"`
}

// phase returns the analysis for one discipline, or nil.
func (r *EightDReport) phase(id string) *PhaseAnalysis {
	for i := range r.Phases {
		if r.Phases[i].Phase == id {
			return &r.Phases[i]
		}
	}
	return nil
}

// RootCauses returns the D4 findings, the root cause candidates the
// prevention phase builds on.
func (r *EightDReport) RootCauses() []string {
	if p := r.phase(PhaseD4); p != nil {
		return p.Findings
	}
	return nil
}

// ContainmentActions returns the D3 recommendations.
func (r *EightDReport) ContainmentActions() []string {
	if p := r.phase(PhaseD3); p != nil {
		return p.Recommendations
	}
	return nil
}

// ProblemDefinition returns the D2 findings joined as one statement.
func (r *EightDReport) ProblemDefinition() string {
	if p := r.phase(PhaseD2); p != nil {
		return strings.Join(p.Findings, "; ")
	}
	return ""
}
