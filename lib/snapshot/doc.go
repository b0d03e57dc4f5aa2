// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package snapshot records the sensor tree for offline analysis.
//
// A [Snapshot] is one capture of every active sensor: identifier,
// current value, min, max, limit and parameters. An archive is a
// header followed by a compressed CBOR sequence of snapshots, one per
// polling cycle. The header carries the compression algorithm, the
// uncompressed length and a BLAKE3 keyed hash of the uncompressed
// sequence, checked on read.
//
//	offset  size  field
//	0       4     magic "SNSC"
//	4       1     format version (1)
//	5       1     compression (0 none, 1 lz4, 2 zstd)
//	6       4     uncompressed length, little endian
//	10      32    BLAKE3 keyed hash of the uncompressed sequence
//	42      ...   payload
package snapshot
