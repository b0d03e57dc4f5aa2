// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package ram exposes physical and virtual memory usage as the
// /ram hardware node.
package ram

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/shirou/gopsutil/v3/mem"

	"github.com/bureau-foundation/sensorcore/lib/hardware"
)

const gigabyte = 1 << 30

// usage is one memory sample in bytes. Virtual memory is physical
// memory plus swap.
type usage struct {
	total, available    uint64
	swapTotal, swapFree uint64
}

// reader takes one memory sample.
type reader func(ctx context.Context) (usage, error)

func gopsutilUsage(ctx context.Context) (usage, error) {
	virtual, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return usage{}, fmt.Errorf("reading memory usage: %w", err)
	}
	sample := usage{total: virtual.Total, available: virtual.Available}
	swap, err := mem.SwapMemoryWithContext(ctx)
	if err == nil {
		sample.swapTotal, sample.swapFree = swap.Total, swap.Free
	}
	return sample, nil
}

// NewGroup returns a group with the single /ram node, or an empty
// group when memory usage cannot be read.
func NewGroup(environment hardware.Environment) hardware.Group {
	return newGroup(environment.WithDefaults(), gopsutilUsage)
}

func newGroup(environment hardware.Environment, read reader) hardware.Group {
	if _, err := read(context.Background()); err != nil {
		environment.Logger.Warn("memory usage unavailable", "error", err)
		return &hardware.StaticGroup{ReportText: "Memory: " + err.Error() + "\n"}
	}
	node := hardware.New(hardware.Descriptor{
		Identifier: hardware.MustIdentifier("ram"),
		Name:       "Generic Memory",
		Type:       hardware.RAM,
	}, environment, &driver{read: read, logger: environment.Logger})
	return &hardware.StaticGroup{Nodes: []*hardware.Hardware{node}}
}

type driver struct {
	read   reader
	logger *slog.Logger
	last   usage

	load             *hardware.Sensor
	used             *hardware.Sensor
	available        *hardware.Sensor
	virtualLoad      *hardware.Sensor
	virtualUsed      *hardware.Sensor
	virtualAvailable *hardware.Sensor
}

func (d *driver) Attach(node *hardware.Hardware) {
	d.load = node.NewSensor("Memory", 0, hardware.Load)
	d.used = node.NewSensor("Used Memory", 0, hardware.Data)
	d.available = node.NewSensor("Available Memory", 1, hardware.Data)
	d.virtualLoad = node.NewSensor("Virtual Memory", 1, hardware.Load)
	d.virtualUsed = node.NewSensor("Used Virtual Memory", 2, hardware.Data)
	d.virtualAvailable = node.NewSensor("Available Virtual Memory", 3, hardware.Data)
	for _, sensor := range []*hardware.Sensor{d.load, d.used, d.available, d.virtualLoad, d.virtualUsed, d.virtualAvailable} {
		node.ActivateSensor(sensor)
	}
}

func (d *driver) Update() {
	sample, err := d.read(context.Background())
	if err != nil {
		d.logger.Debug("reading memory usage failed", "error", err)
		return
	}
	d.last = sample

	used := sample.total - min(sample.available, sample.total)
	d.used.SetValue(float64(used) / gigabyte)
	d.available.SetValue(float64(sample.available) / gigabyte)
	if sample.total > 0 {
		d.load.SetValue(100 * float64(used) / float64(sample.total))
	}

	virtualTotal := sample.total + sample.swapTotal
	virtualAvailable := sample.available + min(sample.swapFree, sample.swapTotal)
	virtualUsed := virtualTotal - min(virtualAvailable, virtualTotal)
	d.virtualUsed.SetValue(float64(virtualUsed) / gigabyte)
	d.virtualAvailable.SetValue(float64(virtualAvailable) / gigabyte)
	if virtualTotal > 0 {
		d.virtualLoad.SetValue(100 * float64(virtualUsed) / float64(virtualTotal))
	}
}

func (d *driver) Report() string {
	var builder strings.Builder
	builder.WriteString("Generic Memory\n\n")
	fmt.Fprintf(&builder, "Physical Total: %d bytes\n", d.last.total)
	fmt.Fprintf(&builder, "Physical Available: %d bytes\n", d.last.available)
	fmt.Fprintf(&builder, "Swap Total: %d bytes\n", d.last.swapTotal)
	fmt.Fprintf(&builder, "Swap Free: %d bytes\n", d.last.swapFree)
	return builder.String()
}
