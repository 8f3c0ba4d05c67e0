// Copyright (c) 2025 Fabsolve Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later

package telemetry

import (
	"fmt"
	"strings"
	"sync"
)

// TaskUsage accumulates usage for a single task type within a session.
type TaskUsage struct {
	Requests     int     `json:"requests"`
	InputTokens  int     `json:"input_tokens"`
	OutputTokens int     `json:"output_tokens"`
	CostUSD      float64 `json:"cost_usd"`
}

// Totals is a session-wide rollup across all task types.
type Totals struct {
	Requests     int     `json:"requests"`
	InputTokens  int     `json:"input_tokens"`
	OutputTokens int     `json:"output_tokens"`
	CostUSD      float64 `json:"cost_usd"`
}

// UsageLedger records model usage for one session. It is safe for
// concurrent use. The zero value is not usable; call NewUsageLedger.
type UsageLedger struct {
	mu     sync.Mutex
	totals Totals
	byTask map[string]*TaskUsage
	order  []string
}

// NewUsageLedger returns an empty ledger.
func NewUsageLedger() *UsageLedger {
	return &UsageLedger{byTask: make(map[string]*TaskUsage)}
}

// Record adds one model call to the ledger under the given task type.
// Recording is strictly additive; nothing is ever reset or overwritten.
func (l *UsageLedger) Record(taskType string, inputTokens, outputTokens int, costUSD float64) {
	l.mu.Lock()
	defer l.mu.Unlock()

	tu, ok := l.byTask[taskType]
	if !ok {
		tu = &TaskUsage{}
		l.byTask[taskType] = tu
		l.order = append(l.order, taskType)
	}
	tu.Requests++
	tu.InputTokens += inputTokens
	tu.OutputTokens += outputTokens
	tu.CostUSD += costUSD

	l.totals.Requests++
	l.totals.InputTokens += inputTokens
	l.totals.OutputTokens += outputTokens
	l.totals.CostUSD += costUSD
}

// Totals returns the session-wide rollup.
func (l *UsageLedger) Totals() Totals {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.totals
}

// TaskTotals returns the usage recorded for one task type. The second
// return reports whether the task type has been seen.
func (l *UsageLedger) TaskTotals(taskType string) (TaskUsage, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	tu, ok := l.byTask[taskType]
	if !ok {
		return TaskUsage{}, false
	}
	return *tu, true
}

// TaskTypes returns the task types in first-seen order.
func (l *UsageLedger) TaskTypes() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]string, len(l.order))
	copy(out, l.order)
	return out
}

// Summary renders the ledger as markdown, with a per-task breakdown in
// first-seen order followed by the session totals.
func (l *UsageLedger) Summary() string {
	l.mu.Lock()
	defer l.mu.Unlock()

	var b strings.Builder
	b.WriteString("# Usage Summary\n\n")
	for _, task := range l.order {
		tu := l.byTask[task]
		fmt.Fprintf(&b, "## %s\n", task)
		fmt.Fprintf(&b, "- Requests: %d\n", tu.Requests)
		fmt.Fprintf(&b, "- Input tokens: %d\n", tu.InputTokens)
		fmt.Fprintf(&b, "- Output tokens: %d\n", tu.OutputTokens)
		fmt.Fprintf(&b, "- Cost: $%.4f\n\n", tu.CostUSD)
	}
	b.WriteString("## Session Total\n")
	fmt.Fprintf(&b, "- Requests: %d\n", l.totals.Requests)
	fmt.Fprintf(&b, "- Input tokens: %d\n", l.totals.InputTokens)
	fmt.Fprintf(&b, "- Output tokens: %d\n", l.totals.OutputTokens)
	fmt.Fprintf(&b, "- Cost: $%.4f", l.totals.CostUSD)
	return b.String()
}
