// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package smart

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/bureau-foundation/sensorcore/lib/hardware"
	"github.com/bureau-foundation/sensorcore/lib/hwinfo"
)

// Options configures NewGroup.
type Options struct {
	Roots hwinfo.Roots

	// UpdateDivider is how many updates share one SMART read. Zero
	// means DefaultUpdateDivider.
	UpdateDivider int
}

// NewGroup opens every fixed ATA disk and returns one /hdd/<n> node
// per disk that answers SMART commands.
func NewGroup(options Options, environment hardware.Environment) hardware.Group {
	return newGroup(options, environment.WithDefaults(), openATADevice, mountedPartitions)
}

func newGroup(options Options, environment hardware.Environment, open opener, partitions partitionLister) hardware.Group {
	logger := environment.Logger
	divider := options.UpdateDivider
	if divider <= 0 {
		divider = DefaultUpdateDivider
	}

	group := &hardware.StaticGroup{}
	var report strings.Builder
	for _, name := range blockDevices(options.Roots) {
		path := options.Roots.DevPath(name)
		device, identity, err := open(path)
		if err != nil {
			logger.Debug("drive does not answer SMART", "drive", name, "error", err)
			fmt.Fprintf(&report, "%s: no SMART (%v)\n", name, err)
			continue
		}
		values, err := device.ReadValues()
		if err != nil {
			logger.Debug("reading SMART values failed", "drive", name, "error", err)
			fmt.Fprintf(&report, "%s: no SMART values (%v)\n", name, err)
			device.Close()
			continue
		}

		deviceDirectory := options.Roots.SysPath("block", name, "device")
		if identity.Model == "" {
			identity.Model = hwinfo.ReadSysfsString(filepath.Join(deviceDirectory, "model"))
		}
		if identity.Firmware == "" {
			identity.Firmware = hwinfo.ReadSysfsString(filepath.Join(deviceDirectory, "rev"))
		}
		displayName := identity.Model
		if displayName == "" {
			displayName = "Generic Hard Disk"
		}
		if identity.Firmware == "" {
			identity.Firmware = "Unknown"
		}

		table := SelectTable(identity.Model, values)
		node := hardware.New(hardware.Descriptor{
			Identifier: hardware.MustIdentifier("hdd", strconv.Itoa(len(group.Nodes))),
			Name:       displayName,
			Type:       hardware.HDD,
		}, environment, &drive{
			device:     device,
			identity:   identity,
			blockName:  name,
			table:      table,
			divider:    divider,
			partitions: partitions,
			logger:     logger,
			values:     values,
		})
		group.Nodes = append(group.Nodes, node)
		fmt.Fprintf(&report, "%s: %s (%s, %d attributes)\n", name, displayName, table.Name, len(values))
	}

	if len(group.Nodes) > 0 {
		logger.Info("drives opened", "count", len(group.Nodes))
	}
	group.ReportText = report.String()
	return group
}

// blockDevices lists the fixed sd* disks under sys/block in name
// order. Removable media are skipped.
func blockDevices(roots hwinfo.Roots) []string {
	entries, err := os.ReadDir(roots.SysPath("block"))
	if err != nil {
		return nil
	}
	var names []string
	for _, entry := range entries {
		name := entry.Name()
		if !strings.HasPrefix(name, "sd") {
			continue
		}
		if hwinfo.ReadSysfsInt(roots.SysPath("block", name, "removable")) == 1 {
			continue
		}
		names = append(names, name)
	}
	return names
}
