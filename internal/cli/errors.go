// Copyright (c) 2025 Fabsolve Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later

// errors.go - Unified error handling for all CLI commands.
//
// Commands ALWAYS return errors instead of printing and returning nil;
// the top-level Execute maps them to exit codes in one place.

package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/fabsolve/fabsolve/internal/provider"
	"github.com/fabsolve/fabsolve/internal/router"
	"github.com/fabsolve/fabsolve/internal/security"
)

// Exit codes by error category.
const (
	// ExitSuccess indicates successful execution.
	ExitSuccess = 0
	// ExitGeneralError indicates a general or unknown error.
	ExitGeneralError = 1
	// ExitUsageError indicates invalid command usage or arguments.
	ExitUsageError = 2
	// ExitConfigError indicates a configuration error, including a
	// missing model route.
	ExitConfigError = 3
	// ExitAuthError indicates an authentication failure.
	ExitAuthError = 4
	// ExitNetworkError indicates a provider or connectivity error.
	ExitNetworkError = 5
	// ExitSecurityError indicates a security tier violation.
	ExitSecurityError = 6
)

// UsageError marks invalid user input.
type UsageError struct {
	Flag   string
	Value  string
	Reason string
}

func (e *UsageError) Error() string {
	if e.Value != "" {
		return fmt.Sprintf("invalid %s: %s (got: %s)", e.Flag, e.Reason, e.Value)
	}
	return fmt.Sprintf("invalid %s: %s", e.Flag, e.Reason)
}

// exitCodeFor maps an error to its exit code.
func exitCodeFor(err error) int {
	var violation *security.ViolationError
	if errors.As(err, &violation) {
		return ExitSecurityError
	}
	var configErr *router.ConfigError
	if errors.As(err, &configErr) {
		return ExitConfigError
	}
	var usageErr *UsageError
	if errors.As(err, &usageErr) {
		return ExitUsageError
	}
	var callErr *provider.CallError
	if errors.As(err, &callErr) {
		if callErr.Status == 401 || callErr.Status == 403 {
			return ExitAuthError
		}
		return ExitNetworkError
	}
	if errors.Is(err, provider.ErrNotConfigured) {
		return ExitAuthError
	}
	return ExitGeneralError
}

// exitWithError prints an error and terminates with its mapped code.
func exitWithError(err error) {
	var violation *security.ViolationError
	if errors.As(err, &violation) {
		fmt.Fprintln(os.Stderr, ErrorStyle.Render("[SECURITY VIOLATION]"))
		fmt.Fprintln(os.Stderr, err.Error())
		if violation.Violation.Suggestion != "" {
			fmt.Fprintln(os.Stderr, WarningStyle.Render("Suggestion: ")+violation.Violation.Suggestion)
		}
		os.Exit(ExitSecurityError)
	}

	fmt.Fprintf(os.Stderr, "%s %v\n", ErrorStyle.Render("[ERROR]"), err)
	os.Exit(exitCodeFor(err))
}
