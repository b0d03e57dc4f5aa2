// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package smart

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/bureau-foundation/sensorcore/lib/hardware"
)

// DefaultUpdateDivider is how many updates share one table read.
const DefaultUpdateDivider = 30

type boundAttribute struct {
	attribute Attribute
	sensor    *hardware.Sensor
	value     float64
	hasValue  bool
}

// drive is the driver of one /hdd/<n> node.
type drive struct {
	device     Device
	identity   Identity
	blockName  string
	table      *Table
	divider    int
	partitions partitionLister
	logger     *slog.Logger

	node          *hardware.Hardware
	values        []Value
	bound         []*boundAttribute
	amplification *hardware.Sensor
	usedSpace     *hardware.Sensor
	count         int

	lastAmplification float64
	hasAmplification  bool
	lastUsedSpace     float64
	hasUsedSpace      bool
	mounted           []Partition
}

func (d *drive) Attach(node *hardware.Hardware) {
	d.node = node

	type sensorKey struct {
		sensorType hardware.SensorType
		channel    int
	}
	seen := make(map[sensorKey]bool)
	for _, attribute := range d.table.Attributes {
		if !attribute.HasSensor || !hasAttribute(d.values, attribute.ID) {
			continue
		}
		key := sensorKey{attribute.SensorType, attribute.Channel}
		if seen[key] {
			continue
		}
		seen[key] = true

		sensor := node.NewSensor(attribute.sensorName(), attribute.Channel, attribute.SensorType,
			hardware.HiddenIf(attribute.DefaultHidden), hardware.WithParameters(attribute.Parameters...))
		node.ActivateSensor(sensor)
		d.bound = append(d.bound, &boundAttribute{attribute: attribute, sensor: sensor})
	}

	if d.table.amplification != nil {
		d.amplification = node.NewSensor("Write Amplification", 0, hardware.Factor)
	}
	if len(d.partitions(context.Background(), d.blockName)) > 0 {
		d.usedSpace = node.NewSensor("Used Space", 0, hardware.Load)
		node.ActivateSensor(d.usedSpace)
	}
}

// Update reads the table on the first call and every divider-th call
// after it. The calls in between republish the last values.
func (d *drive) Update() {
	if d.count == 0 {
		d.refresh()
	} else {
		d.reassert()
	}
	d.count = (d.count + 1) % d.divider
}

func (d *drive) refresh() {
	values, err := d.device.ReadValues()
	if err != nil {
		d.logger.Debug("reading SMART values failed", "drive", d.blockName, "error", err)
	} else {
		d.values = values
	}

	for _, bound := range d.bound {
		value, ok := findValue(d.values, bound.attribute.ID)
		if !ok {
			continue
		}
		bound.value = bound.attribute.Physical(value, parameterValues(bound.sensor))
		bound.hasValue = true
	}

	if d.amplification != nil {
		if ratio, ok := d.table.amplification.ratio(d.values); ok {
			d.lastAmplification, d.hasAmplification = ratio, true
			d.node.ActivateSensor(d.amplification)
		}
	}

	if d.usedSpace != nil {
		d.mounted = d.partitions(context.Background(), d.blockName)
		d.lastUsedSpace, d.hasUsedSpace = usedPercent(d.mounted)
	}
	d.reassert()
}

func (d *drive) reassert() {
	for _, bound := range d.bound {
		if bound.hasValue {
			bound.sensor.SetValue(bound.value)
		}
	}
	if d.amplification != nil && d.hasAmplification {
		d.amplification.SetValue(d.lastAmplification)
	}
	if d.usedSpace != nil {
		if d.hasUsedSpace {
			d.usedSpace.SetValue(d.lastUsedSpace)
		} else {
			d.usedSpace.ClearValue()
		}
	}
}

func (a *amplification) ratio(values []Value) (float64, bool) {
	denominator, ok := findValue(values, a.denominator)
	if !ok {
		return 0, false
	}
	var numerator float64
	for _, id := range a.numerators {
		value, ok := findValue(values, id)
		if !ok {
			return 0, false
		}
		numerator += RawToValue(value.Raw, value.Current, nil)
	}
	host := RawToValue(denominator.Raw, denominator.Current, nil)
	if host <= 0 {
		return 0, true
	}
	return numerator / host, true
}

func findValue(values []Value, id byte) (Value, bool) {
	for _, value := range values {
		if value.ID == id {
			return value, true
		}
	}
	return Value{}, false
}

func parameterValues(sensor *hardware.Sensor) []float64 {
	parameters := sensor.Parameters()
	if len(parameters) == 0 {
		return nil
	}
	values := make([]float64, len(parameters))
	for index, parameter := range parameters {
		values[index] = parameter.Value()
	}
	return values
}

// Report lists the attribute table with thresholds and the physical
// value of every attribute the drive family knows how to convert.
func (d *drive) Report() string {
	var builder strings.Builder
	fmt.Fprintf(&builder, "%s\n\n", d.table.Name)
	fmt.Fprintf(&builder, "Drive name: %s\n", d.node.Name())
	fmt.Fprintf(&builder, "Firmware version: %s\n", d.identity.Firmware)
	if d.identity.Serial != "" {
		fmt.Fprintf(&builder, "Serial number: %s\n", d.identity.Serial)
	}
	fmt.Fprintf(&builder, "Block device: %s\n\n", d.blockName)

	values := d.values
	var thresholds []Threshold
	if d.device != nil {
		if fresh, err := d.device.ReadValues(); err == nil {
			values = fresh
		}
		var err error
		if thresholds, err = d.device.ReadThresholds(); err != nil {
			d.logger.Debug("reading SMART thresholds failed", "drive", d.blockName, "error", err)
		}
	}

	if len(values) > 0 {
		fmt.Fprintf(&builder, " %-3s%-35s%-13s%-6s%-6s%-6s%-8s\n",
			"ID", "Description", "Raw Value", "Worst", "Value", "Thres", "Physical")
		for _, value := range values {
			threshold := "-"
			for _, candidate := range thresholds {
				if candidate.ID == value.ID {
					threshold = strconv.Itoa(int(candidate.Threshold))
				}
			}
			description, physical := "Unknown", "-"
			if attribute, ok := d.table.Attribute(value.ID); ok {
				description = attribute.Name
				if attribute.Convert != nil || attribute.HasSensor {
					physical = strconv.FormatFloat(attribute.Physical(value, nil), 'g', -1, 64)
				}
			}
			fmt.Fprintf(&builder, " %-3s%-35s%-13s%-6d%-6d%-6s%-8s\n",
				fmt.Sprintf("%02X", value.ID), description, fmt.Sprintf("%X", value.Raw[:]),
				value.Worst, value.Current, threshold, physical)
		}
		builder.WriteString("\n")
	}

	for _, partition := range d.mounted {
		fmt.Fprintf(&builder, "Logical drive name: %s\n", partition.Mountpoint)
		fmt.Fprintf(&builder, "Format: %s\n", partition.Fstype)
		fmt.Fprintf(&builder, "Total size: %d\n", partition.Total)
		fmt.Fprintf(&builder, "Total free space: %d\n\n", partition.Free)
	}
	return builder.String()
}

func (d *drive) Close() {
	if d.device == nil {
		return
	}
	if err := d.device.Close(); err != nil {
		d.logger.Debug("closing drive failed", "drive", d.blockName, "error", err)
	}
	d.device = nil
}

var (
	_ hardware.Driver   = (*drive)(nil)
	_ hardware.Reporter = (*drive)(nil)
	_ hardware.Closer   = (*drive)(nil)
)
