// Copyright (c) 2025 Fabsolve Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later

package agents

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/fabsolve/fabsolve/internal/provider"
	"github.com/fabsolve/fabsolve/internal/router"
	"github.com/fabsolve/fabsolve/internal/security"
)

const malformed = "{ this is not valid JSON }"

func TestStripJSON(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"bare", `{"a": 1}`, `{"a": 1}`},
		{"fenced", "Here you go:\n```json\n{\"a\": 1}\n```\nDone.", `{"a": 1}`},
		{"fenced no lang", "```\n{\"a\": 1}\n```", `{"a": 1}`},
		{"prose wrapped", `Sure! {"a": 1} Hope that helps.`, `{"a": 1}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := stripJSON(tc.in); got != tc.want {
				t.Errorf("stripJSON(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestExtractPhases(t *testing.T) {
	content := "The SPC alert triggered the hold. Root cause analysis points to a recipe fix. Update the SOP."
	phases := ExtractPhases(content)

	want := map[string]bool{PhaseD0: true, PhaseD3: true, PhaseD4: true, PhaseD5: true, PhaseD7: true}
	for _, p := range phases {
		if !want[p] {
			t.Errorf("unexpected phase %s in %v", p, phases)
		}
	}
	for p := range want {
		found := false
		for _, got := range phases {
			if got == p {
				found = true
			}
		}
		if !found {
			t.Errorf("missing phase %s in %v", p, phases)
		}
	}

	if got := ExtractPhases("nothing relevant here"); len(got) != 0 {
		t.Errorf("ExtractPhases(irrelevant) = %v, want empty", got)
	}
}

func TestNarrativeParse(t *testing.T) {
	agent := NewNarrativeAgent()
	in := Input{Mode: ModeExcursion, Tier: security.TierGeneralLLM, Narrative: "yield drop on chamber B"}

	out := agent.Parse(`{
		"observations": ["Yield dropped 4% on lot 123", "SPC alert on etch depth"],
		"interpretations": ["Chamber drift"],
		"constraints": ["WIP hold in 24h"],
		"urgency_signals": ["Customer commit at risk"],
		"data_sources_mentioned": ["SPC", "FDC"],
		"suspected_causes": ["MFC drift on chamber B"],
		"reflection": "Here's what I heard."
	}`, in)

	require.NotNil(t, out.Analysis)
	require.Equal(t, []string{"Yield dropped 4% on lot 123", "SPC alert on etch depth"}, out.Facts)
	require.Equal(t, []string{"MFC drift on chamber B"}, out.Hypotheses)
	require.Equal(t, []string{PhaseD0}, out.EightDPhases)
	require.Contains(t, out.Content, "Narrative Analysis (Phase 0)")
}

func TestNarrativeParseMalformed(t *testing.T) {
	out := NewNarrativeAgent().Parse(malformed, Input{})

	require.NotNil(t, out.Analysis)
	require.Equal(t, []string{"Unable to parse narrative"}, out.Facts)
	require.Equal(t, malformed, out.Analysis.Reflection)
	require.Equal(t, []string{PhaseD0}, out.EightDPhases)
}

func TestClarificationParse(t *testing.T) {
	out := NewClarificationAgent().Parse(`{
		"questions": [
			{"question": "When did the excursion start?", "rationale": "timeline"},
			{"question": "Which chamber?", "rationale": "localization"}
		]
	}`, Input{Mode: ModeExcursion})

	require.Len(t, out.Questions, 2)
	require.Equal(t, "When did the excursion start?", out.Questions[0].Question)
	require.Equal(t, []string{PhaseD1, PhaseD2}, out.EightDPhases)
	require.Equal(t, []string{"When did the excursion start?", "Which chamber?"}, out.OpenQuestions)
}

func TestClarificationParseStringQuestions(t *testing.T) {
	out := NewClarificationAgent().Parse(`{
		"questions": ["When?", "Where?"],
		"rationale": "scope and timeline"
	}`, Input{})

	require.Len(t, out.Questions, 2)
	require.Equal(t, "When?", out.Questions[0].Question)
	require.Equal(t, "scope and timeline", out.Questions[0].Rationale)
}

func TestClarificationParseMalformed(t *testing.T) {
	out := NewClarificationAgent().Parse(malformed, Input{})

	require.Equal(t, defaultQuestions, out.Questions)
	require.Len(t, out.OpenQuestions, len(defaultQuestions))
}

func TestAnalysisParse(t *testing.T) {
	out := NewAnalysisAgent().Parse(`{
		"phases": [
			{"phase": "D2", "title": "Problem Definition", "findings": ["Etch depth high on chamber B"], "recommendations": [], "confidence": "high", "data_sources": ["SPC"]},
			{"phase": "D3", "title": "Interim Containment", "findings": [], "recommendations": ["Hold lots from chamber B"], "confidence": "medium", "data_sources": []},
			{"phase": "D4", "title": "Root Cause Analysis", "findings": ["MFC calibration drift"], "recommendations": ["Verify MFC against reference"], "confidence": "medium", "data_sources": ["FDC"]}
		],
		"facts": ["Excursion started 2026-08-12"],
		"hypotheses": ["MFC drift"],
		"gaps": ["No metrology on lot 124"],
		"next_steps": ["Pull FDC traces"]
	}`, Input{Mode: ModeExcursion})

	require.NotNil(t, out.Report)
	require.Equal(t, []string{"D2", "D3", "D4"}, out.EightDPhases)
	require.Equal(t, []string{"MFC calibration drift"}, out.Report.RootCauses())
	require.Equal(t, []string{"Hold lots from chamber B"}, out.Report.ContainmentActions())
	require.Equal(t, "Etch depth high on chamber B", out.Report.ProblemDefinition())
	require.Equal(t, []string{"No metrology on lot 124"}, out.OpenQuestions)
	require.Contains(t, out.Content, "D4: Root Cause Analysis")
}

func TestAnalysisParseMalformed(t *testing.T) {
	out := NewAnalysisAgent().Parse(malformed, Input{})

	require.NotNil(t, out.Report)
	require.Empty(t, out.EightDPhases)
	require.Equal(t, []string{"Unable to parse 8D analysis"}, out.Facts)
	require.Contains(t, out.OpenQuestions[0], "not valid JSON")
}

func TestAnalysisPromptDeterministic(t *testing.T) {
	in := Input{
		Mode:      ModeExcursion,
		Narrative: "yield drop on Metal 2",
		Clarifications: map[string]string{
			"When did the drop start?": "Tuesday night shift",
			"Any recent PM events?":    "Chamber B PM on Monday",
			"Which tools are suspect?": "Etcher 4 and 7",
		},
	}
	agent := NewAnalysisAgent()

	first := agent.BuildPrompt(in)
	for i := 0; i < 10; i++ {
		require.Equal(t, first, agent.BuildPrompt(in))
	}

	// Questions appear in sorted order regardless of map iteration.
	require.Less(t,
		strings.Index(first, "Any recent PM events?"),
		strings.Index(first, "When did the drop start?"))
	require.Less(t,
		strings.Index(first, "When did the drop start?"),
		strings.Index(first, "Which tools are suspect?"))
}

func TestPreventionParse(t *testing.T) {
	out := NewPreventionAgent().Parse(`{
		"permanent_actions": [
			{"action": "Add MFC calibration to weekly PM", "rationale": "Catches drift before excursion", "owner": "Equipment Engineering", "timeline": "2 weeks", "success_metrics": "Zero drift alarms", "implementation_steps": ["Update PM checklist"]}
		],
		"systemic_prevention": [
			{"change": "SPC limit review on all etchers", "scope": "Tool type", "implementation": "Quarterly review", "benefits": "Earlier detection", "risks": "More false alarms"}
		],
		"lessons_learned": ["FDC traces caught what SPC missed"],
		"knowledge_base_updates": [
			{"document": "Etch Tool Handbook", "update_needed": "Add MFC drift signature", "priority": "high"}
		],
		"follow_up_items": [
			{"item": "Audit sister chambers", "owner": "Process Engineering", "deadline": "next week"}
		]
	}`, Input{Mode: ModeExcursion})

	require.NotNil(t, out.Prevention)
	require.Equal(t, []string{PhaseD5, PhaseD7, PhaseD8}, out.EightDPhases)
	require.Len(t, out.Facts, 2)
	require.True(t, strings.HasPrefix(out.Facts[0], "D5:"))
	require.True(t, strings.HasPrefix(out.Facts[1], "D7:"))
	require.Contains(t, out.Hypotheses, "Expected benefit: Earlier detection")
	require.Contains(t, out.Hypotheses, "Potential risk: More false alarms")
}

func TestPreventionParseMalformed(t *testing.T) {
	out := NewPreventionAgent().Parse(malformed, Input{})

	require.NotNil(t, out.Prevention)
	require.Equal(t, malformed, out.Content)
	require.Equal(t, []string{PhaseD5, PhaseD7, PhaseD8}, out.EightDPhases)
}

type stubHandle struct {
	text string
	in   int
	out  int
}

func (s stubHandle) Generate(ctx context.Context, prompt, system string, maxTokens int) (provider.Result, error) {
	return provider.Result{Text: s.text, InputTokens: s.in, OutputTokens: s.out}, nil
}

func TestRunRecordsUsage(t *testing.T) {
	r := router.New(router.ModeDev, map[string]string{}, nil)
	r.WithHandle(router.ProviderAnthropic, stubHandle{text: `{"reflection": "heard you"}`, in: 1000, out: 500})

	out, err := Run(context.Background(), r, NewNarrativeAgent(), Input{
		Mode:      ModeExcursion,
		Tier:      security.TierGeneralLLM,
		Narrative: "yield drop",
	})
	require.NoError(t, err)
	require.Equal(t, "narrative", out.Agent)
	require.Equal(t, 1000, out.InputTokens)
	require.Equal(t, 500, out.OutputTokens)

	// dev tier 1 reasoning is haiku: 0.25/1.25 per 1K
	require.InDelta(t, 1.0*0.25+0.5*1.25, out.CostUSD, 1e-9)

	totals := r.Ledger().Totals()
	require.Equal(t, 1, totals.Requests)
	require.InDelta(t, out.CostUSD, totals.CostUSD, 1e-9)
}

func TestModePrompts(t *testing.T) {
	agent := NewClarificationAgent()
	for _, tc := range []struct {
		mode ProblemMode
		want string
	}{
		{ModeExcursion, "Excursion Mode Focus"},
		{ModeImprovement, "Improvement Mode Focus"},
		{ModeOperations, "Operations Mode Focus"},
	} {
		prompt := agent.BuildPrompt(Input{Mode: tc.mode})
		if !strings.Contains(prompt, tc.want) {
			t.Errorf("BuildPrompt(%s) missing %q", tc.mode, tc.want)
		}
	}
}

func TestPreventionPromptThreadsAnalysis(t *testing.T) {
	report := &EightDReport{
		Phases: []PhaseAnalysis{
			{Phase: PhaseD2, Findings: []string{"Etch depth high"}},
			{Phase: PhaseD3, Recommendations: []string{"Hold chamber B lots"}},
			{Phase: PhaseD4, Findings: []string{"MFC drift"}},
		},
	}
	prompt := NewPreventionAgent().BuildPrompt(Input{Mode: ModeExcursion, Report: report})

	require.Contains(t, prompt, "MFC drift")
	require.Contains(t, prompt, "Hold chamber B lots")
	require.Contains(t, prompt, "Etch depth high")
}

func TestParseProblemMode(t *testing.T) {
	for _, tc := range []struct {
		in   string
		want ProblemMode
	}{
		{"excursion", ModeExcursion},
		{"A", ModeExcursion},
		{"improvement", ModeImprovement},
		{"ops", ModeOperations},
		{"3", ModeOperations},
	} {
		got, err := ParseProblemMode(tc.in)
		require.NoError(t, err)
		require.Equal(t, tc.want, got)
	}
	_, err := ParseProblemMode("bogus")
	require.Error(t, err)
}
