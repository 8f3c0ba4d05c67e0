// Copyright (c) 2025 Fabsolve Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later

package workflow

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/fabsolve/fabsolve/internal/agents"
	"github.com/fabsolve/fabsolve/internal/provider"
	"github.com/fabsolve/fabsolve/internal/router"
	"github.com/fabsolve/fabsolve/internal/security"
)

// scriptedHandle returns canned responses in call order and records
// the prompts it saw.
type scriptedHandle struct {
	responses []string
	calls     int
	prompts   []string
}

func (h *scriptedHandle) Generate(ctx context.Context, prompt, system string, maxTokens int) (provider.Result, error) {
	h.prompts = append(h.prompts, prompt)
	text := "{}"
	if h.calls < len(h.responses) {
		text = h.responses[h.calls]
	}
	h.calls++
	return provider.Result{Text: text, InputTokens: 100, OutputTokens: 50}, nil
}

var phaseResponses = []string{
	// Phase 0: narrative.
	`{"observations": ["Yield dropped 4%"], "suspected_causes": ["MFC drift"], "reflection": "Heard you."}`,
	// Phase 1: clarification.
	`{"questions": [{"question": "When did it start?", "rationale": "timeline"}, {"question": "Which chamber?", "rationale": "scope"}]}`,
	// Phase 2: analysis.
	`{"phases": [{"phase": "D3", "title": "Interim Containment", "recommendations": ["Hold lots"], "confidence": "medium"}, {"phase": "D4", "title": "Root Cause Analysis", "findings": ["MFC drift confirmed"], "confidence": "medium"}], "facts": ["Drift started Aug 12"], "hypotheses": ["Calibration gap"], "gaps": [], "next_steps": ["Verify MFC"]}`,
	// Phase 3: prevention.
	`{"permanent_actions": [{"action": "Weekly MFC cal", "rationale": "catch drift"}], "systemic_prevention": [{"change": "SPC review", "scope": "fab", "benefits": "early detection"}], "lessons_learned": ["Check FDC first"]}`,
}

func newTestSequencer(t *testing.T, h provider.Handle, opts ...Option) (*Sequencer, *router.Router) {
	t.Helper()
	r := router.New(router.ModeDev, map[string]string{}, nil)
	for _, p := range []string{router.ProviderAnthropic, router.ProviderFactory, router.ProviderOnPrem} {
		r.WithHandle(p, h)
	}
	opts = append(opts, WithOutput(&bytes.Buffer{}))
	return New(r, opts...), r
}

func answerFirst(n int) AnswerCollector {
	return func(questions []agents.Question) (map[string]string, error) {
		answers := make(map[string]string)
		for i, q := range questions {
			if i >= n {
				break
			}
			answers[q.Question] = "answer " + q.Question
		}
		return answers, nil
	}
}

func TestRunEndToEnd(t *testing.T) {
	h := &scriptedHandle{responses: phaseResponses}
	s, r := newTestSequencer(t, h, WithAnswerCollector(answerFirst(3)))

	result, err := s.Run(context.Background(), "Test yield excursion on Chamber B", agents.ModeExcursion, security.TierGeneralLLM)
	require.NoError(t, err)

	require.Equal(t, []string{
		"Phase 0: Narrative",
		"Phase 1: Clarification",
		"Phase 2: Analysis",
		"Phase 3: Prevention",
	}, result.PhasesCompleted)

	require.NotEmpty(t, result.SessionID)
	require.Equal(t, "excursion", result.Mode)
	require.Equal(t, "GENERAL_LLM", result.Tier)

	require.Len(t, result.Questions, 2)
	require.Len(t, result.Answers, 2)

	require.GreaterOrEqual(t, result.TotalCostUSD, 0.0)
	require.Equal(t, 4, h.calls)

	// A clean run still carries an (empty) error list.
	require.NotNil(t, result.Errors)
	require.Empty(t, result.Errors)

	// Prevention, analysis, and narrative phase tags all land in the
	// union: D0 from intake, D3/D4 from analysis, D5/D7/D8 from
	// prevention.
	for _, phase := range []string{"D0", "D3", "D4", "D5", "D7", "D8"} {
		require.Contains(t, result.EightDPhases, phase)
	}

	// Four calls hit the ledger; only three count toward the total.
	totals := r.Ledger().Totals()
	require.Equal(t, 4, totals.Requests)
	require.Greater(t, totals.CostUSD, result.TotalCostUSD)
}

func TestRunAllModesAndTiers(t *testing.T) {
	for _, mode := range []agents.ProblemMode{agents.ModeExcursion, agents.ModeImprovement, agents.ModeOperations} {
		for _, tier := range security.AllTiers() {
			h := &scriptedHandle{responses: phaseResponses}
			s, _ := newTestSequencer(t, h, WithAnswerCollector(answerFirst(0)))

			result, err := s.Run(context.Background(), "narrative", mode, tier)
			require.NoError(t, err, "mode=%s tier=%s", mode, tier)
			require.Len(t, result.PhasesCompleted, 4, "mode=%s tier=%s", mode, tier)
			require.Equal(t, mode.String(), result.Mode)
			require.Equal(t, tier.String(), result.Tier)
		}
	}
}

func TestPreventionContextThreading(t *testing.T) {
	h := &scriptedHandle{responses: phaseResponses}
	s, _ := newTestSequencer(t, h, WithAnswerCollector(answerFirst(0)))

	_, err := s.Run(context.Background(), "narrative", agents.ModeExcursion, security.TierGeneralLLM)
	require.NoError(t, err)
	require.Len(t, h.prompts, 4)

	// The phase 3 prompt carries the D4 findings and D3 recommendations
	// from phase 2.
	preventionPrompt := h.prompts[3]
	require.Contains(t, preventionPrompt, "MFC drift confirmed")
	require.Contains(t, preventionPrompt, "Hold lots")
}

func TestClarificationAnswersReachAnalysis(t *testing.T) {
	h := &scriptedHandle{responses: phaseResponses}
	s, _ := newTestSequencer(t, h, WithAnswerCollector(answerFirst(2)))

	_, err := s.Run(context.Background(), "narrative", agents.ModeExcursion, security.TierGeneralLLM)
	require.NoError(t, err)

	analysisPrompt := h.prompts[2]
	require.Contains(t, analysisPrompt, "When did it start?")
	require.Contains(t, analysisPrompt, "answer When did it start?")
}

type failingHandle struct{ err error }

func (h failingHandle) Generate(ctx context.Context, prompt, system string, maxTokens int) (provider.Result, error) {
	return provider.Result{}, h.err
}

func TestBackendFailurePropagates(t *testing.T) {
	s, _ := newTestSequencer(t, failingHandle{err: errors.New("backend down")}, WithAnswerCollector(answerFirst(0)))

	_, err := s.Run(context.Background(), "narrative", agents.ModeExcursion, security.TierGeneralLLM)
	require.Error(t, err)
	require.Contains(t, err.Error(), "phase 0 failed")
	require.Contains(t, err.Error(), "backend down")
}

func TestStdinCollector(t *testing.T) {
	questions := []agents.Question{
		{Question: "Q1?", Rationale: "r1"},
		{Question: "Q2?", Rationale: "r2"},
		{Question: "Q3?", Rationale: "r3"},
	}

	input := strings.NewReader("first answer\nskip\n\n")
	var out bytes.Buffer
	collect := StdinCollector(input, &out)

	answers, err := collect(questions)
	require.NoError(t, err)
	require.Equal(t, map[string]string{"Q1?": "first answer"}, answers)
	require.Contains(t, out.String(), "Question 1/3")
	require.Contains(t, out.String(), "(Skipped)")
}

func TestResultMarkdown(t *testing.T) {
	h := &scriptedHandle{responses: phaseResponses}
	s, _ := newTestSequencer(t, h, WithAnswerCollector(answerFirst(1)))

	result, err := s.Run(context.Background(), "narrative", agents.ModeExcursion, security.TierGeneralLLM)
	require.NoError(t, err)

	md := result.Markdown()
	require.Contains(t, md, "# Investigation Report")
	require.Contains(t, md, result.SessionID)
	require.Contains(t, md, "(skipped)")
	require.Contains(t, md, "Phases completed: Phase 0: Narrative")
}
