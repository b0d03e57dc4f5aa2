// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package smbios decodes the SMBIOS firmware table: the structure walk,
// the BIOS, system, baseboard, processor and memory device records,
// and the diagnostic report.
//
// On Linux the raw table comes from /sys/firmware/dmi/tables/DMI. When
// that file is unreadable (it is root-only on most distributions) the
// package falls back to the world-readable /sys/class/dmi/id
// attributes, which carry the identity strings but no raw table.
//
// Every decoder degrades field by field: a truncated structure or an
// out-of-range string index yields an empty string or zero, never an
// error.
package smbios
