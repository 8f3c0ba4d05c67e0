// Copyright (c) 2025 Fabsolve Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later

package workflow

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fabsolve/fabsolve/internal/agents"
	"github.com/fabsolve/fabsolve/internal/router"
	"github.com/fabsolve/fabsolve/internal/security"
)

// AnswerCollector gathers the engineer's answers to clarification
// questions. It returns a map keyed by question text; skipped
// questions are simply absent.
type AnswerCollector func(questions []agents.Question) (map[string]string, error)

// Sequencer runs the four phases in strict order against one router
// session.
type Sequencer struct {
	router  *router.Router
	out     io.Writer
	log     *zap.Logger
	collect AnswerCollector

	narrative     *agents.NarrativeAgent
	clarification *agents.ClarificationAgent
	analysis      *agents.AnalysisAgent
	prevention    *agents.PreventionAgent
}

// Option configures the sequencer.
type Option func(*Sequencer)

// WithAnswerCollector replaces the default stdin answer collector.
func WithAnswerCollector(c AnswerCollector) Option {
	return func(s *Sequencer) { s.collect = c }
}

// WithOutput redirects phase progress output.
func WithOutput(w io.Writer) Option {
	return func(s *Sequencer) { s.out = w }
}

// WithLogger sets the structured logger.
func WithLogger(log *zap.Logger) Option {
	return func(s *Sequencer) { s.log = log }
}

// New creates a sequencer bound to a router session.
func New(r *router.Router, opts ...Option) *Sequencer {
	s := &Sequencer{
		router:        r,
		out:           os.Stdout,
		log:           zap.NewNop(),
		narrative:     agents.NewNarrativeAgent(),
		clarification: agents.NewClarificationAgent(),
		analysis:      agents.NewAnalysisAgent(),
		prevention:    agents.NewPreventionAgent(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.collect == nil {
		s.collect = StdinCollector(os.Stdin, s.out)
	}
	return s
}

// Run executes the full workflow. Any backend or collection failure
// aborts the run and propagates; parse problems inside the agents do
// not.
func (s *Sequencer) Run(ctx context.Context, narrative string, mode agents.ProblemMode, tier security.Tier) (*Result, error) {
	result := &Result{
		SessionID: uuid.NewString(),
		Mode:      mode.String(),
		Tier:      tier.String(),
		Errors:    []string{},
	}
	s.log.Info("workflow started",
		zap.String("session", result.SessionID),
		zap.String("mode", result.Mode),
		zap.String("tier", result.Tier))

	in := agents.Input{Mode: mode, Tier: tier, Narrative: narrative}

	// Phase 0: narrative intake.
	s.banner("PHASE 0: NARRATIVE ANALYSIS")
	narrativeOut, err := agents.Run(ctx, s.router, s.narrative, in)
	if err != nil {
		return nil, fmt.Errorf("phase 0 failed: %w", err)
	}
	result.Narrative = narrativeOut
	result.PhasesCompleted = append(result.PhasesCompleted, "Phase 0: Narrative")
	in.Analysis = narrativeOut.Analysis

	// Phase 1: clarification.
	s.banner("PHASE 1: CLARIFICATION")
	clarOut, err := agents.Run(ctx, s.router, s.clarification, in)
	if err != nil {
		return nil, fmt.Errorf("phase 1 failed: %w", err)
	}
	result.Questions = clarOut.Questions

	fmt.Fprintf(s.out, "\n%d clarification questions generated.\n\n", len(clarOut.Questions))
	answers, err := s.collect(clarOut.Questions)
	if err != nil {
		return nil, fmt.Errorf("answer collection failed: %w", err)
	}
	if answers == nil {
		answers = map[string]string{}
	}
	result.Answers = answers
	result.PhasesCompleted = append(result.PhasesCompleted, "Phase 1: Clarification")
	in.Clarifications = answers

	// Phase 2: 8D analysis.
	s.banner("PHASE 2: 8D ANALYSIS")
	analysisOut, err := agents.Run(ctx, s.router, s.analysis, in)
	if err != nil {
		return nil, fmt.Errorf("phase 2 failed: %w", err)
	}
	result.Analysis = analysisOut
	result.PhasesCompleted = append(result.PhasesCompleted, "Phase 2: Analysis")
	in.Report = analysisOut.Report

	// Phase 3: prevention planning.
	s.banner("PHASE 3: PREVENTION AND LESSONS LEARNED")
	preventionOut, err := agents.Run(ctx, s.router, s.prevention, in)
	if err != nil {
		return nil, fmt.Errorf("phase 3 failed: %w", err)
	}
	result.Prevention = preventionOut
	result.PhasesCompleted = append(result.PhasesCompleted, "Phase 3: Prevention")

	s.aggregate(result)
	result.CompletedAt = time.Now()

	s.log.Info("workflow completed",
		zap.String("session", result.SessionID),
		zap.Float64("cost_usd", result.TotalCostUSD),
		zap.Strings("eight_d_phases", result.EightDPhases))
	return result, nil
}

func (s *Sequencer) aggregate(result *Result) {
	result.TotalCostUSD = result.Narrative.CostUSD +
		result.Analysis.CostUSD +
		result.Prevention.CostUSD

	result.FactsIdentified = len(result.Narrative.Facts) +
		len(result.Analysis.Facts) +
		len(result.Prevention.Facts)
	result.HypothesesIdentified = len(result.Narrative.Hypotheses) +
		len(result.Analysis.Hypotheses) +
		len(result.Prevention.Hypotheses)

	seen := map[string]bool{}
	for _, out := range []agents.Output{result.Narrative, result.Analysis, result.Prevention} {
		for _, phase := range out.EightDPhases {
			seen[phase] = true
		}
	}
	phases := make([]string, 0, len(seen))
	for phase := range seen {
		phases = append(phases, phase)
	}
	sort.Strings(phases)
	result.EightDPhases = phases
}

func (s *Sequencer) banner(title string) {
	line := strings.Repeat("=", 80)
	fmt.Fprintf(s.out, "\n%s\n%s\n%s\n", line, title, line)
}

// StdinCollector returns the default interactive answer collector.
// Typing "skip" or an empty line skips a question.
func StdinCollector(r io.Reader, w io.Writer) AnswerCollector {
	return func(questions []agents.Question) (map[string]string, error) {
		if len(questions) == 0 {
			return map[string]string{}, nil
		}
		fmt.Fprintln(w, "Please answer the following questions.")
		fmt.Fprintln(w, "(Type your answer and press Enter. Type 'skip' to skip a question.)")

		scanner := bufio.NewScanner(r)
		answers := make(map[string]string)
		for i, q := range questions {
			fmt.Fprintf(w, "\nQuestion %d/%d: %s\n", i+1, len(questions), q.Question)
			if q.Rationale != "" {
				fmt.Fprintf(w, "(Rationale: %s)\n", q.Rationale)
			}
			fmt.Fprint(w, "Your answer: ")

			if !scanner.Scan() {
				if err := scanner.Err(); err != nil {
					return nil, err
				}
				break
			}
			answer := strings.TrimSpace(scanner.Text())
			if answer == "" || strings.EqualFold(answer, "skip") {
				fmt.Fprintln(w, "(Skipped)")
				continue
			}
			answers[q.Question] = answer
		}
		fmt.Fprintf(w, "\n%d/%d questions answered.\n", len(answers), len(questions))
		return answers, nil
	}
}
