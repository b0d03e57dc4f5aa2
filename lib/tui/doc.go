// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package tui provides terminal user interface building blocks for the
// sensor monitor: the color theme with per-type and threshold colors,
// the scrollbar, decaying highlights for readings that just changed,
// and ANSI-aware splicing of overlay boxes onto a rendered view.
//
// The components are plain functions and small types with no
// bubbletea state of their own, so models in other packages compose
// them freely and tests render them without a terminal.
package tui
