// Copyright (c) 2025 Fabsolve Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package router selects the model backend for each workflow task.
//
// Selection is a total-table lookup over (runtime mode, security tier,
// task type). A combination missing from the table is a configuration
// error, never a silent fallback; the caller must hold a key for every
// route it exercises.
package router
