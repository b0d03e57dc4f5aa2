// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package sensorui

import (
	"fmt"

	"github.com/bureau-foundation/sensorcore/lib/hardware"
)

type rowKind int

const (
	hardwareRow rowKind = iota
	typeRow
	sensorRow
)

// row is one line of the sensor list.
type row struct {
	kind       rowKind
	depth      int
	hardware   *hardware.Hardware // owning hardware for every kind
	sensorType hardware.SensorType
	sensor     *hardware.Sensor
}

// key identifies the row across rebuilds so the cursor and collapse
// state survive hardware appearing or disappearing.
func (r row) key() string {
	switch r.kind {
	case typeRow:
		return r.hardware.Identifier().String() + "#" + r.sensorType.String()
	case sensorRow:
		return r.sensor.Identifier().String()
	default:
		return r.hardware.Identifier().String()
	}
}

// typeHeadings are the group headings of the sensor list.
var typeHeadings = map[hardware.SensorType]string{
	hardware.Voltage:     "Voltages",
	hardware.Clock:       "Clocks",
	hardware.Temperature: "Temperatures",
	hardware.Load:        "Load",
	hardware.Fan:         "Fans",
	hardware.Flow:        "Flows",
	hardware.Control:     "Controls",
	hardware.Level:       "Levels",
	hardware.Factor:      "Factors",
	hardware.Power:       "Powers",
	hardware.Data:        "Data",
	hardware.SmallData:   "Data",
	hardware.Throughput:  "Throughput",
	hardware.RawValue:    "Raw Values",
}

// buildRows flattens the tree: each hardware, its sub-hardware, then
// one heading per sensor type followed by the sensors of that type.
// Collapsed hardware contributes only its own row.
func buildRows(nodes []*hardware.Hardware, collapsed map[string]bool, showHidden bool) []row {
	var rows []row
	var appendHardware func(node *hardware.Hardware, depth int)
	appendHardware = func(node *hardware.Hardware, depth int) {
		rows = append(rows, row{kind: hardwareRow, depth: depth, hardware: node})
		if collapsed[node.Identifier().String()] {
			return
		}
		for _, child := range node.SubHardware() {
			appendHardware(child, depth+1)
		}
		heading := hardware.SensorType(-1)
		for _, sensor := range hardware.SortedSensors(node) {
			if sensor.IsDefaultHidden() && !showHidden {
				continue
			}
			if sensor.Type() != heading {
				heading = sensor.Type()
				rows = append(rows, row{kind: typeRow, depth: depth + 1, hardware: node, sensorType: heading})
			}
			rows = append(rows, row{kind: sensorRow, depth: depth + 2, hardware: node, sensorType: heading, sensor: sensor})
		}
	}
	for _, node := range nodes {
		appendHardware(node, 0)
	}
	return rows
}

// formatValue renders a reading with the precision and unit usual for
// its type, or "-" when there is no reading.
func formatValue(sensorType hardware.SensorType, value float64, ok bool) string {
	if !ok {
		return "-"
	}
	switch sensorType {
	case hardware.Voltage:
		return fmt.Sprintf("%.3f V", value)
	case hardware.Clock:
		return fmt.Sprintf("%.1f MHz", value)
	case hardware.Temperature:
		return fmt.Sprintf("%.1f °C", value)
	case hardware.Fan:
		return fmt.Sprintf("%.0f RPM", value)
	case hardware.Flow:
		return fmt.Sprintf("%.0f L/h", value)
	case hardware.Factor:
		return fmt.Sprintf("%.3f", value)
	case hardware.Throughput:
		if value < 1<<20 {
			return fmt.Sprintf("%.1f KB/s", value/(1<<10))
		}
		return fmt.Sprintf("%.1f MB/s", value/(1<<20))
	case hardware.RawValue:
		return fmt.Sprintf("%g", value)
	default:
		return fmt.Sprintf("%.1f %s", value, sensorType.Unit())
	}
}
