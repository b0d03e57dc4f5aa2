// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package mainboard

import (
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/bureau-foundation/sensorcore/lib/hardware"
	"github.com/bureau-foundation/sensorcore/lib/hardware/smbios"
	"github.com/bureau-foundation/sensorcore/lib/hardware/superio"
	"github.com/bureau-foundation/sensorcore/lib/hwinfo"
)

// Options configures NewGroup.
type Options struct {
	Roots hwinfo.Roots

	// Port is the I/O port space probed for Super-I/O chips. The group
	// takes ownership and closes it. Nil skips LPC detection.
	Port superio.Port
}

// boardDriver is the driver of the /mainboard container node. It holds
// no sensors; its report is the SMBIOS table.
type boardDriver struct {
	table *smbios.Table
}

func (d *boardDriver) Attach(*hardware.Hardware) {}
func (d *boardDriver) Update()                   {}
func (d *boardDriver) Report() string            { return d.table.Report() }

// NewGroup reads SMBIOS, detects Super-I/O chips and returns a group
// holding the /mainboard node with one /lpc/<chip> sub-hardware per
// chip. It always returns a mainboard node, even when no chip is
// found.
func NewGroup(options Options, environment hardware.Environment) hardware.Group {
	environment = environment.WithDefaults()
	logger := environment.Logger

	table := smbios.Read(options.Roots, logger)
	board := hardware.New(hardware.Descriptor{
		Identifier: hardware.MustIdentifier("mainboard"),
		Name:       table.BoardName(),
		Type:       hardware.Mainboard,
	}, environment, &boardDriver{table: table})

	var report strings.Builder
	fmt.Fprintf(&report, "Mainboard: %s\n", table.BoardName())
	if fingerprint := table.Fingerprint(); fingerprint != "" {
		fmt.Fprintf(&report, "SMBIOS fingerprint: %s\n", fingerprint)
	}

	var sources []Source
	if options.Port != nil {
		lock := &sync.Mutex{}
		for _, detection := range superio.Detect(options.Port, environment.Clock, logger) {
			chip := superio.New(options.Port, lock, detection, logger)
			fmt.Fprintf(&report, "LPC chip %s at 0x%04X (config port 0x%02X): available=%t\n",
				detection.Chip.Name(), detection.Address, detection.ConfigPort, chip.Available())
			sources = append(sources, chip)
		}
	}
	if len(sources) == 0 {
		for _, chip := range discoverHwmonChips(options.Roots) {
			fmt.Fprintf(&report, "hwmon chip %s at %s\n", chip.Chip().Name(), chip.directory)
			sources = append(sources, chip)
		}
	}
	if len(sources) == 0 {
		report.WriteString("No Super-I/O chip found\n")
	}

	seen := make(map[string]int)
	for _, source := range sources {
		slug := source.Chip().String()
		identifier := hardware.MustIdentifier("lpc", slug)
		if count := seen[slug]; count > 0 {
			identifier = identifier.Extend(strconv.Itoa(count))
		}
		seen[slug]++

		board.AddSubHardware(hardware.New(hardware.Descriptor{
			Identifier: identifier,
			Name:       source.Chip().Name(),
			Type:       hardware.SuperIO,
		}, environment, &lpcDriver{source: source}))
	}
	logger.Info("mainboard opened", "name", table.BoardName(), "chips", len(sources))

	return &hardware.StaticGroup{
		Nodes:      []*hardware.Hardware{board},
		ReportText: report.String(),
		Release: func() {
			if options.Port == nil {
				return
			}
			if err := options.Port.Close(); err != nil {
				logger.Debug("closing port space failed", "error", err)
			}
		},
	}
}
