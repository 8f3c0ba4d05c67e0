// Copyright (c) 2025 Fabsolve Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/peterh/liner"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/fabsolve/fabsolve/internal/agents"
	"github.com/fabsolve/fabsolve/internal/router"
	"github.com/fabsolve/fabsolve/internal/security"
	"github.com/fabsolve/fabsolve/internal/workflow"
)

var (
	flagMode          string
	flagTier          string
	flagNarrative     string
	flagNarrativeFile string
	flagRuntime       string
	flagExport        string
	flagFormat        string
)

var solveCmd = &cobra.Command{
	Use:   "solve",
	Short: "Run a full four-phase 8D investigation",
	Long: `Run the complete workflow: narrative intake, clarification,
structured 8D analysis, and prevention planning.

The security tier decides which model backends the session may touch:

  general       (1)  public cloud models, no fab data
  confidential  (2)  factory GenAI gateway, factory APIs
  top_secret    (3)  air-gapped on-prem models only`,
	RunE: runSolve,
}

func init() {
	solveCmd.Flags().StringVarP(&flagMode, "mode", "m", "", "problem mode: excursion, improvement, operations")
	solveCmd.Flags().StringVarP(&flagTier, "tier", "t", "", "security tier: general, confidential, top_secret")
	solveCmd.Flags().StringVarP(&flagNarrative, "narrative", "n", "", "problem narrative (interactive prompt if omitted)")
	solveCmd.Flags().StringVar(&flagNarrativeFile, "narrative-file", "", "read the problem narrative from a file")
	solveCmd.Flags().StringVar(&flagRuntime, "runtime-mode", "", "model selection mode: dev or runtime")
	solveCmd.Flags().StringVarP(&flagExport, "export", "o", "", "write the result to a file")
	solveCmd.Flags().StringVarP(&flagFormat, "format", "f", "markdown", "export format: markdown, json, yaml")
}

func runSolve(cmd *cobra.Command, args []string) error {
	mode, tier, err := resolveModeAndTier()
	if err != nil {
		return err
	}

	runtimeMode, err := resolveRuntimeMode()
	if err != nil {
		return err
	}

	// Tier gate: the session's model backend must be permitted before
	// any prompt leaves the process.
	enforcer := security.NewEnforcer(tier, appLog)
	if err := enforcer.Validate(backendToolFor(tier)); err != nil {
		return err
	}

	fmt.Println(tier.Banner(TerminalWidth()))
	fmt.Println(LabelStyle.Render("Allowed tools:") + ValueStyle.Render(strings.Join(enforcer.AllowedTools(), ", ")))
	fmt.Println(LabelStyle.Render("Problem mode:") + ValueStyle.Render(mode.String()))
	fmt.Println(LabelStyle.Render("Runtime mode:") + ValueStyle.Render(runtimeMode.String()))

	narrative := strings.TrimSpace(flagNarrative)
	if narrative == "" && flagNarrativeFile != "" {
		data, err := os.ReadFile(flagNarrativeFile)
		if err != nil {
			return &UsageError{Flag: "narrative-file", Value: flagNarrativeFile, Reason: err.Error()}
		}
		narrative = strings.TrimSpace(string(data))
	}
	if narrative == "" {
		narrative, err = promptNarrative()
		if err != nil {
			return err
		}
	}
	if narrative == "" {
		return &UsageError{Flag: "narrative", Reason: "a problem description is required"}
	}

	r := router.New(runtimeMode, appConfig.APIKeys(), appLog)
	seq := workflow.New(r,
		workflow.WithLogger(appLog),
		workflow.WithAnswerCollector(linerCollector()),
	)

	result, err := seq.Run(cmd.Context(), narrative, mode, tier)
	if err != nil {
		return err
	}

	if flagJSON {
		encoded, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(encoded))
	} else {
		printMarkdown(result.Markdown())
		fmt.Println()
		printMarkdown(r.Ledger().Summary())
		fmt.Println()
		printMarkdown(enforcer.ViolationsSummary())
	}

	if flagExport != "" {
		if err := exportResult(result, flagExport, flagFormat); err != nil {
			return err
		}
		fmt.Println(SuccessStyle.Render("Result written to " + flagExport))
	}
	return nil
}

func resolveModeAndTier() (agents.ProblemMode, security.Tier, error) {
	modeName := flagMode
	if modeName == "" {
		modeName = appConfig.DefaultProblemMode
	}
	mode, err := agents.ParseProblemMode(modeName)
	if err != nil {
		return 0, 0, &UsageError{Flag: "mode", Value: modeName, Reason: "expected excursion, improvement, or operations"}
	}

	tierName := flagTier
	if tierName == "" {
		tierName = appConfig.DefaultTier
	}
	tier, err := security.ParseTier(tierName)
	if err != nil {
		return 0, 0, &UsageError{Flag: "tier", Value: tierName, Reason: "expected general, confidential, or top_secret"}
	}
	return mode, tier, nil
}

func resolveRuntimeMode() (router.RuntimeMode, error) {
	name := flagRuntime
	if name == "" {
		name = appConfig.RuntimeMode
	}
	runtimeMode, err := router.ParseMode(name)
	if err != nil {
		return 0, &UsageError{Flag: "runtime-mode", Value: name, Reason: "expected dev or runtime"}
	}
	return runtimeMode, nil
}

// backendToolFor names the model backend a tier routes to, for the
// enforcer gate.
func backendToolFor(tier security.Tier) string {
	switch tier {
	case security.TierConfidentialFab:
		return "factory_genai"
	case security.TierTopSecret:
		return "onprem_llm"
	default:
		return "anthropic"
	}
}

// promptNarrative collects the free-form problem description. Multiple
// lines are accepted; a blank line finishes.
func promptNarrative() (string, error) {
	if !IsTTY() {
		return "", &UsageError{Flag: "narrative", Reason: "stdin is not a terminal; pass --narrative"}
	}

	fmt.Println()
	fmt.Println(SectionStyle.Render("Describe the problem"))
	fmt.Println(ValueStyle.Render(agents.NewNarrativeAgent().IntakePrompt()))
	fmt.Println(ValueStyle.Render("(Finish with an empty line.)"))
	fmt.Println()

	line := liner.NewLiner()
	defer line.Close()
	line.SetCtrlCAborts(true)

	var lines []string
	for {
		text, err := line.Prompt("> ")
		if err != nil {
			if err == liner.ErrPromptAborted {
				return "", fmt.Errorf("narrative entry aborted")
			}
			return "", err
		}
		if strings.TrimSpace(text) == "" {
			break
		}
		lines = append(lines, text)
	}
	return strings.TrimSpace(strings.Join(lines, "\n")), nil
}

// printMarkdown renders markdown through glamour on a terminal and
// falls back to plain text otherwise.
func printMarkdown(md string) {
	if !IsStdoutTTY() {
		fmt.Println(md)
		return
	}
	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(TerminalWidth()),
	)
	if err != nil {
		fmt.Println(md)
		return
	}
	rendered, err := renderer.Render(md)
	if err != nil {
		fmt.Println(md)
		return
	}
	fmt.Print(rendered)
}

func exportResult(result *workflow.Result, path, format string) error {
	var data []byte
	var err error

	switch strings.ToLower(format) {
	case "json":
		data, err = json.MarshalIndent(result, "", "  ")
	case "yaml", "yml":
		data, err = yaml.Marshal(result)
	case "markdown", "md":
		data = []byte(result.Markdown())
	default:
		return &UsageError{Flag: "format", Value: format, Reason: "expected markdown, json, or yaml"}
	}
	if err != nil {
		return fmt.Errorf("failed to encode result: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}
