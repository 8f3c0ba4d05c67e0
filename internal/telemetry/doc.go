// Copyright (c) 2025 Fabsolve Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package telemetry tracks per-session token usage and spend. Every
// workflow run owns its own ledger; nothing here is global state.
package telemetry
