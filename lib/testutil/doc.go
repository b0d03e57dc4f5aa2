// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package testutil provides shared test helpers for sensorcore
// packages.
//
// Device probes read kernel interfaces through an injectable root
// (sysfs, procfs, /dev). Tests build synthetic trees under
// t.TempDir() with [WriteFile] and [Symlink] instead of touching the
// host. [Logger] returns a slog.Logger that writes through t.Log so
// probe diagnostics appear next to the failing test.
//
// All helpers call t.Fatalf on failure rather than returning errors,
// since test setup failures are not recoverable.
package testutil
