// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package process provides binary entrypoint helpers for sensorcore
// commands: fatal error reporting to stderr for errors that escape
// run() before or after the structured logger exists.
package process
