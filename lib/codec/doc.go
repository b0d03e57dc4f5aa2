// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package codec provides the CBOR configuration used for sensor
// snapshots.
//
// Snapshots are written by the polling loop and read back by tooling
// that compares readings across machines or across time. The encoder
// uses Core Deterministic Encoding: sorted map keys, smallest integer
// encoding, no indefinite-length items. Equal readings encode to equal
// bytes, so a snapshot's BLAKE3 hash identifies its content.
//
// Types carry `cbor` struct tags with short keys; snapshot files are
// never JSON.
package codec
