// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package clock provides an injectable time abstraction for device
// probes and the sensor polling loop.
//
// Hardware probing is full of fixed waits: a serial bridge is polled
// for pending bytes with 100 ms sleeps, a Super-I/O base address is
// read twice with a 1 ms gap, the fan controller's alternative request
// goes out 500 ms after the primary one. Code that waits takes a Clock
// instead of calling the time package directly.
//
// Fake() differs from a conventional fake clock in one respect: Sleep
// does not block. It advances the fake time by the requested duration
// and fires every AfterFunc callback and ticker that falls due. Probe
// loops are synchronous, so a blocking Sleep would need a second
// goroutine to advance time; advancing on Sleep lets a test drive a
// whole retry loop on one goroutine and then assert how long the probe
// would have taken with Slept.
package clock
