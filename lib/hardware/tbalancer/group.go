// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package tbalancer

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/bureau-foundation/sensorcore/lib/hardware"
	"github.com/bureau-foundation/sensorcore/lib/hwinfo"
)

// NewGroup probes every FT232BM USB-serial port and adopts the first
// one that answers like a bigNG.
func NewGroup(roots hwinfo.Roots, environment hardware.Environment) hardware.Group {
	return newGroup(Enumerate(roots), environment.WithDefaults(), openSerial)
}

func newGroup(candidates []Candidate, environment hardware.Environment, open opener) hardware.Group {
	logger := environment.Logger
	group := &hardware.StaticGroup{}
	if len(candidates) == 0 {
		return group
	}

	var report strings.Builder
	report.WriteString("FTDI\n\n")
	defer func() { group.ReportText = report.String() }()

	for position, candidate := range candidates {
		if position > 0 {
			report.WriteString("\n")
		}
		fmt.Fprintf(&report, "Device Index: %d\n", candidate.Index)
		fmt.Fprintf(&report, "Device Name: %s\n", candidate.Name)
		fmt.Fprintf(&report, "Device Type: %s\n", candidate.DeviceType())
		if !candidate.isFT232BM() {
			report.WriteString("Status: Wrong device type\n")
			continue
		}

		bridge, err := open(candidate.Path)
		if err != nil {
			logger.Warn("opening USB-serial port failed", "device", candidate.Path, "error", err)
			fmt.Fprintf(&report, "Open Status: %v\n", err)
			continue
		}
		result := probe(bridge, environment.Clock)
		report.WriteString("Status: " + result.status + "\n")
		if !result.valid {
			logger.Debug("no T-Balancer on port", "device", candidate.Path, "status", result.status)
			bridge.Close()
			continue
		}
		bridge.Purge()

		node := hardware.New(hardware.Descriptor{
			Identifier: hardware.MustIdentifier("bigng", strconv.Itoa(candidate.Index)),
			Name:       "T-Balancer bigNG",
			Type:       hardware.TBalancer,
		}, environment, newController(candidate.Index, result.version, bridge, environment))
		// The first update only sends the query whose answer the next
		// update reads.
		node.Update()
		group.Nodes = append(group.Nodes, node)
		logger.Info("T-Balancer found", "device", candidate.Path, "version", fmt.Sprintf("0x%X", result.version))
		break
	}
	return group
}
