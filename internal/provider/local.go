// Copyright (c) 2025 Fabsolve Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later

package provider

import (
	"context"

	"go.uber.org/zap"
)

// FactoryClient is the client for the factory GenAI gateway used at
// the CONFIDENTIAL_FAB tier. The gateway endpoint is not wired up yet,
// so Generate returns a clearly marked placeholder response rather
// than failing the workflow.
type FactoryClient struct {
	apiKey string
	model  string
	log    *zap.Logger
}

// NewFactoryClient creates a factory gateway client.
func NewFactoryClient(apiKey, model string, log *zap.Logger) *FactoryClient {
	if log == nil {
		log = zap.NewNop()
	}
	return &FactoryClient{apiKey: apiKey, model: model, log: log}
}

// Generate implements Handle with a placeholder response.
func (c *FactoryClient) Generate(ctx context.Context, prompt, system string, maxTokens int) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	c.log.Warn("factory gateway not yet implemented, returning placeholder response",
		zap.String("model", c.model))
	return Result{
		Text:         "[Factory API response would appear here]",
		InputTokens:  100,
		OutputTokens: 200,
	}, nil
}

// OnPremClient is the client for the air-gapped on-prem inference
// cluster used at the TOP_SECRET tier. Placeholder until the cluster
// endpoint is available.
type OnPremClient struct {
	apiKey string
	model  string
	log    *zap.Logger
}

// NewOnPremClient creates an on-prem cluster client.
func NewOnPremClient(apiKey, model string, log *zap.Logger) *OnPremClient {
	if log == nil {
		log = zap.NewNop()
	}
	return &OnPremClient{apiKey: apiKey, model: model, log: log}
}

// Generate implements Handle with a placeholder response.
func (c *OnPremClient) Generate(ctx context.Context, prompt, system string, maxTokens int) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	c.log.Warn("on-prem cluster not yet implemented, returning placeholder response",
		zap.String("model", c.model))
	return Result{
		Text:         "[On-prem API response would appear here]",
		InputTokens:  100,
		OutputTokens: 200,
	}, nil
}
