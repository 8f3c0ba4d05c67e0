// Copyright (c) 2025 Fabsolve Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later

package agents

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/fabsolve/fabsolve/internal/router"
	"github.com/fabsolve/fabsolve/internal/security"
)

// ProblemMode selects the investigation style.
type ProblemMode int

const (
	// ModeExcursion is yield excursion response: something broke, find
	// it and contain it.
	ModeExcursion ProblemMode = iota
	// ModeImprovement is continuous improvement of a chronic issue.
	ModeImprovement
	// ModeOperations is day-to-day factory operations troubleshooting.
	ModeOperations
)

// String returns the wire name of the mode.
func (m ProblemMode) String() string {
	switch m {
	case ModeImprovement:
		return "improvement"
	case ModeOperations:
		return "operations"
	default:
		return "excursion"
	}
}

// ParseProblemMode converts a user-supplied mode name.
func ParseProblemMode(s string) (ProblemMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "excursion", "a", "1":
		return ModeExcursion, nil
	case "improvement", "b", "2":
		return ModeImprovement, nil
	case "operations", "ops", "c", "3":
		return ModeOperations, nil
	}
	return ModeExcursion, fmt.Errorf("unknown problem mode %q", s)
}

// Input carries the accumulated context into a phase agent. Fields
// fill in as the workflow advances; an agent reads only what its
// phase needs.
type Input struct {
	Mode      ProblemMode
	Tier      security.Tier
	Narrative string

	// Phase 0 output, available to phases 1 and 2.
	Analysis *NarrativeAnalysis

	// Phase 1 answers keyed by question, available to phase 2.
	Clarifications map[string]string

	// Phase 2 report, available to phase 3.
	Report *EightDReport
}

// Output is the result of one agent execution.
type Output struct {
	Agent        string   `json:"agent" yaml:"agent"`
	Content      string   `json:"content" yaml:"content"`
	EightDPhases []string `json:"eight_d_phases" yaml:"eight_d_phases"`

	Facts         []string `json:"facts" yaml:"facts"`
	Hypotheses    []string `json:"hypotheses" yaml:"hypotheses"`
	OpenQuestions []string `json:"open_questions" yaml:"open_questions"`

	CostUSD      float64 `json:"cost_usd" yaml:"cost_usd"`
	InputTokens  int     `json:"input_tokens" yaml:"input_tokens"`
	OutputTokens int     `json:"output_tokens" yaml:"output_tokens"`

	// Typed payloads, set by the producing agent only.
	Analysis   *NarrativeAnalysis `json:"analysis,omitempty" yaml:"analysis,omitempty"`
	Questions  []Question         `json:"questions,omitempty" yaml:"questions,omitempty"`
	Report     *EightDReport      `json:"report,omitempty" yaml:"report,omitempty"`
	Prevention *PreventionPlan    `json:"prevention,omitempty" yaml:"prevention,omitempty"`
}

// PhaseAgent is the contract every phase agent satisfies.
type PhaseAgent interface {
	// Name identifies the agent in outputs and logs.
	Name() string
	// Task maps the agent to a model routing task type.
	Task() router.TaskType
	// MaxTokens is the completion budget for this agent.
	MaxTokens() int
	// BuildPrompt renders the phase prompt from accumulated context.
	BuildPrompt(in Input) string
	// Parse converts a raw model response into a typed output. It must
	// not fail; malformed responses degrade to a fallback output.
	Parse(response string, in Input) Output
}

// Run executes one agent: build the prompt, route and call the model,
// record usage, and parse the response. Backend errors propagate;
// parse problems do not.
func Run(ctx context.Context, r *router.Router, agent PhaseAgent, in Input) (Output, error) {
	prompt := agent.BuildPrompt(in)

	handle, cfg, err := r.Client(agent.Task(), in.Tier)
	if err != nil {
		return Output{}, err
	}

	res, err := handle.Generate(ctx, prompt, systemPrompt, agent.MaxTokens())
	if err != nil {
		return Output{}, fmt.Errorf("%s agent call failed: %w", agent.Name(), err)
	}

	cost := cfg.ComputeCost(res.InputTokens, res.OutputTokens)
	r.RecordUsage(agent.Task(), res.InputTokens, res.OutputTokens, cost)

	out := agent.Parse(res.Text, in)
	out.CostUSD = cost
	out.InputTokens = res.InputTokens
	out.OutputTokens = res.OutputTokens
	return out, nil
}

// systemPrompt frames every phase call.
const systemPrompt = "You are an expert semiconductor manufacturing problem-solving assistant. " +
	"You follow the 8D (Eight Disciplines) methodology and always separate confirmed facts from hypotheses."

var fencedJSON = regexp.MustCompile("(?s)```(?:json)?\\s*(\\{.*?\\})\\s*```")

// stripJSON extracts the JSON object from a model response. Models
// routinely wrap JSON in markdown fences or surround it with prose.
func stripJSON(response string) string {
	if m := fencedJSON.FindStringSubmatch(response); m != nil {
		return m[1]
	}
	start := strings.Index(response, "{")
	end := strings.LastIndex(response, "}")
	if start >= 0 && end > start {
		return response[start : end+1]
	}
	return strings.TrimSpace(response)
}

// formatList renders items as markdown bullets for prompt context.
func formatList(items []string) string {
	if len(items) == 0 {
		return "- (None provided)"
	}
	var b strings.Builder
	for i, item := range items {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString("- ")
		b.WriteString(item)
	}
	return b.String()
}
