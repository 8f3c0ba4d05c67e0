// Copyright (c) 2025 Fabsolve Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/peterh/liner"

	"github.com/fabsolve/fabsolve/internal/agents"
	"github.com/fabsolve/fabsolve/internal/workflow"
)

// linerCollector returns an answer collector backed by a line editor
// with history, for the interactive clarification round.
func linerCollector() workflow.AnswerCollector {
	return func(questions []agents.Question) (map[string]string, error) {
		if len(questions) == 0 {
			return map[string]string{}, nil
		}

		line := liner.NewLiner()
		defer line.Close()
		line.SetCtrlCAborts(true)

		fmt.Println(SectionStyle.Render("Please answer the following questions."))
		fmt.Println(ValueStyle.Render("(Press Enter or type 'skip' to skip a question. Ctrl-C aborts.)"))

		answers := make(map[string]string)
		for i, q := range questions {
			fmt.Printf("\n%s %s\n", PromptStyle.Render(fmt.Sprintf("Question %d/%d:", i+1, len(questions))), q.Question)
			if q.Rationale != "" {
				fmt.Println(ValueStyle.Render("Why this matters: " + q.Rationale))
			}

			answer, err := line.Prompt("> ")
			if err != nil {
				if errors.Is(err, liner.ErrPromptAborted) {
					return nil, errors.New("clarification aborted")
				}
				return nil, err
			}

			answer = strings.TrimSpace(answer)
			if answer == "" || strings.EqualFold(answer, "skip") {
				fmt.Println(ValueStyle.Render("(Skipped)"))
				continue
			}
			line.AppendHistory(answer)
			answers[q.Question] = answer
		}

		fmt.Printf("\n%d/%d questions answered.\n", len(answers), len(questions))
		return answers, nil
	}
}
