// Copyright (c) 2025 Fabsolve Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later

package provider

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Configuration constants shared by the HTTP-backed clients.
const (
	// DefaultTimeout is the default timeout for API requests.
	DefaultTimeout = 120 * time.Second

	// DefaultMaxRetries is the number of attempts for transient errors.
	DefaultMaxRetries = 3

	// MaxResponseSize bounds response bodies to prevent memory
	// exhaustion from a misbehaving endpoint.
	MaxResponseSize = 10 * 1024 * 1024 // 10MB
)

// sharedHTTPClient is used by all cloud clients. Connection pooling
// reduces TCP handshake overhead across the four workflow phases.
var sharedHTTPClient = &http.Client{
	Transport: &http.Transport{
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
		TLSClientConfig: &tls.Config{
			MinVersion: tls.VersionTLS12,
		},
	},
	Timeout: DefaultTimeout,
}

// Result is one completion from a model backend.
type Result struct {
	Text         string
	InputTokens  int
	OutputTokens int
}

// Handle is the minimal surface the workflow needs from a backend.
// Implementations must be safe for concurrent use.
type Handle interface {
	// Generate produces a completion for the prompt. A maxTokens of
	// zero means use the client's configured default.
	Generate(ctx context.Context, prompt, system string, maxTokens int) (Result, error)
}

// ErrNotConfigured indicates the client has no API key.
var ErrNotConfigured = errors.New("provider API key not configured")

// CallError represents a non-2xx response from a provider endpoint.
type CallError struct {
	Provider string
	Status   int
	Message  string
}

func (e *CallError) Error() string {
	return fmt.Sprintf("%s error (HTTP %d): %s", e.Provider, e.Status, e.Message)
}

// readResponse reads a response body with the size cap applied.
func readResponse(resp *http.Response) ([]byte, error) {
	body, err := io.ReadAll(io.LimitReader(resp.Body, MaxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if int64(len(body)) == MaxResponseSize {
		return nil, fmt.Errorf("response exceeded maximum size of %d bytes", MaxResponseSize)
	}
	return body, nil
}

// backoff returns the delay before retry attempt n (1-based).
// Exponential: 1s, 2s, 4s.
func backoff(attempt int) time.Duration {
	return time.Duration(1<<(attempt-1)) * time.Second
}

// retryable reports whether a status code is worth another attempt.
func retryable(status int) bool {
	return status == http.StatusTooManyRequests || status >= 500
}
