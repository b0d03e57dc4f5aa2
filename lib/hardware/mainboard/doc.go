// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package mainboard builds the mainboard hardware node: a container
// named from SMBIOS with one sub-hardware node per Super-I/O chip.
//
// Chips are found by LPC detection over an I/O port space. When no
// port space is available, or detection finds nothing, chips exposed
// by kernel hwmon drivers are used instead with the same channel
// naming and parameters. Channel names come from per-chip tables;
// board-specific wiring is not modeled, so unlabeled inputs fall back
// to "Voltage #n", "Temperature #n" and "Fan #n".
package mainboard
