// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package hardware

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/shirou/gopsutil/v3/host"

	"github.com/bureau-foundation/sensorcore/lib/version"
)

var reportSeparator = strings.Repeat("-", 80)

// Report renders the diagnostic report: build and host information,
// the sensor tree, the parameter tree, then every group's and every
// hardware node's own report.
func (c *Computer) Report() string {
	var builder strings.Builder

	builder.WriteString("sensorcore Report\n\n")
	writeSeparator(&builder)
	fmt.Fprintf(&builder, "Version: %s\n\n", version.Full())
	if info, err := host.InfoWithContext(context.Background()); err == nil {
		fmt.Fprintf(&builder, "Host: %s\n", info.Hostname)
		fmt.Fprintf(&builder, "Platform: %s %s (%s)\n", info.Platform, info.PlatformVersion, info.PlatformFamily)
		fmt.Fprintf(&builder, "Kernel: %s %s\n", info.KernelVersion, info.KernelArch)
		fmt.Fprintf(&builder, "Uptime: %ds\n\n", info.Uptime)
	} else {
		c.environment.Logger.Debug("host information unavailable", "error", err)
	}

	writeSeparator(&builder)
	builder.WriteString("Sensors\n\n")
	for _, hardware := range c.Hardware() {
		writeSensorTree(&builder, hardware, "")
	}
	builder.WriteString("\n")

	writeSeparator(&builder)
	builder.WriteString("Parameters\n\n")
	for _, hardware := range c.Hardware() {
		writeParameterTree(&builder, hardware, "")
	}
	builder.WriteString("\n")

	for _, group := range c.Groups() {
		if report := group.Report(); report != "" {
			writeSeparator(&builder)
			builder.WriteString(report)
			builder.WriteString("\n")
		}
		for _, hardware := range group.Hardware() {
			writeHardwareReports(&builder, hardware)
		}
	}
	return builder.String()
}

func writeSeparator(builder *strings.Builder) {
	builder.WriteString(reportSeparator)
	builder.WriteString("\n\n")
}

func writeHardwareReports(builder *strings.Builder, hardware *Hardware) {
	if report := hardware.Report(); report != "" {
		writeSeparator(builder)
		builder.WriteString(report)
		builder.WriteString("\n")
	}
	for _, child := range hardware.SubHardware() {
		writeHardwareReports(builder, child)
	}
}

// SortedSensors returns the active sensors of hardware ordered by
// type, then index.
func SortedSensors(hardware *Hardware) []*Sensor {
	sensors := hardware.Sensors()
	slices.SortStableFunc(sensors, func(a, b *Sensor) int {
		return cmp.Or(cmp.Compare(a.Type(), b.Type()), cmp.Compare(a.Index(), b.Index()))
	})
	return sensors
}

func writeSensorTree(builder *strings.Builder, hardware *Hardware, indent string) {
	fmt.Fprintf(builder, "%s|\n%s+- %s (%s)\n", indent, indent, hardware.Name(), hardware.Identifier())
	for _, sensor := range SortedSensors(hardware) {
		fmt.Fprintf(builder, "%s|  +- %-20s : %8s : %8s : %8s (%s)\n", indent,
			sensor.Name(),
			FormatReading(sensor.Value()),
			FormatReading(sensor.Min()),
			FormatReading(sensor.Max()),
			sensor.Identifier())
	}
	for _, child := range hardware.SubHardware() {
		writeSensorTree(builder, child, indent+"|  ")
	}
}

func writeParameterTree(builder *strings.Builder, hardware *Hardware, indent string) {
	fmt.Fprintf(builder, "%s|\n%s+- %s (%s)\n", indent, indent, hardware.Name(), hardware.Identifier())
	for _, sensor := range SortedSensors(hardware) {
		parameters := sensor.Parameters()
		if len(parameters) == 0 {
			continue
		}
		fmt.Fprintf(builder, "%s|  +- %s (%s)\n", indent, sensor.Name(), sensor.Identifier())
		for _, parameter := range parameters {
			fmt.Fprintf(builder, "%s|  |  +- %-15s : %s\n", indent, parameter.Name(),
				FormatReading(parameter.Value(), true))
		}
	}
	for _, child := range hardware.SubHardware() {
		writeParameterTree(builder, child, indent+"|  ")
	}
}

// FormatReading renders an optional value with up to six significant
// digits, or "-" when absent.
func FormatReading(value float64, ok bool) string {
	if !ok {
		return "-"
	}
	return fmt.Sprintf("%g", float64(float32(value)))
}
