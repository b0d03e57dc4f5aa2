// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package tbalancer

import (
	"fmt"
	"time"

	"github.com/bureau-foundation/sensorcore/lib/clock"
)

const (
	// FrameSize is the length of every answer including the start
	// flag.
	FrameSize = 285

	startFlag = 100
	endFlag   = 254

	queryPrimary     = 0x38
	queryAlternative = 0x37

	bigNGMarker       = 255
	bigNGMarkerOld    = 88
	miniNGMarker      = 253
	versionOffset     = 274
	miniNGBlockSize   = 65
	miniNGEndOffset   = 61
	versionFamily     = 0x20
	versionFamilyMask = 0xF0

	probePollInterval = 100 * time.Millisecond
	probeFirstPolls   = 2
	probeTotalPolls   = 5

	alternativeDelay = 500 * time.Millisecond
)

// probeResult is the outcome of querying one candidate.
type probeResult struct {
	valid   bool
	version byte
	status  string
}

// probe purges the bridge, sends the primary query and waits up to
// probeTotalPolls poll intervals for a complete bigNG frame. Every
// failure is a result, never an error: the caller moves on to the
// next candidate.
func probe(bridge Bridge, clk clock.Clock) probeResult {
	if err := bridge.Purge(); err != nil {
		return probeResult{status: "Purge failed: " + err.Error()}
	}
	if _, err := bridge.Write([]byte{queryPrimary}); err != nil {
		return probeResult{status: "Write failed: " + err.Error()}
	}

	polls := 0
	available, _ := bridge.BytesToRead()
	for available == 0 && polls < probeFirstPolls {
		clk.Sleep(probePollInterval)
		polls++
		available, _ = bridge.BytesToRead()
	}
	if available == 0 {
		return probeResult{status: "No Response"}
	}

	flag, err := bridge.ReadByte()
	if err != nil {
		return probeResult{status: "Read failed: " + err.Error()}
	}
	if flag != startFlag {
		return probeResult{status: "Wrong Startflag"}
	}

	available, _ = bridge.BytesToRead()
	for available < FrameSize-1 && polls < probeTotalPolls {
		clk.Sleep(probePollInterval)
		polls++
		available, _ = bridge.BytesToRead()
	}
	if available < FrameSize-1 {
		return probeResult{status: fmt.Sprintf("Wrong Message Length: %d", available)}
	}

	frame := make([]byte, FrameSize)
	frame[0] = startFlag
	if err := readFull(bridge, frame[1:]); err != nil {
		return probeResult{status: "Read failed: " + err.Error()}
	}
	version := frame[versionOffset]
	if version&versionFamilyMask != versionFamily {
		return probeResult{version: version, status: fmt.Sprintf("Wrong Protocol Version: 0x%X", version)}
	}
	return probeResult{valid: true, version: version, status: "OK"}
}
