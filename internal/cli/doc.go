// Copyright (c) 2025 Fabsolve Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli implements the fabsolve command line interface.
package cli
