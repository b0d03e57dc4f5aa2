// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package cli holds what the sensorcore binaries share around their
// flag sets: the command logger, categorized errors whose category
// selects the exit code, and flag parsing that suggests the closest
// known flag when given an unknown one.
package cli
