// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package tbalancer talks to T-Balancer bigNG fan controllers attached
// through an FTDI USB-serial bridge.
//
// The controller answers the query byte 0x38 with a 285-byte frame
// that starts with the flag 100. The second byte selects the layout:
// 255 or 88 is the bigNG's own status (temperatures, flow meters and
// four fan channels), 253 carries up to two attached miniNG modules
// and is requested separately with 0x37. Byte 274 of a bigNG frame is
// the protocol version; every version seen in the field is 0x2X.
//
// Each Update drains complete frames buffered since the previous
// call, then issues the next query. The miniNG request follows 500ms
// later on the environment clock.
package tbalancer
