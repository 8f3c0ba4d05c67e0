// Copyright (c) 2025 Fabsolve Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package provider implements the model backend clients. Cloud
// providers (Anthropic, OpenAI) talk HTTPS; the factory and on-prem
// backends are placeholder clients until the internal endpoints exist.
package provider
