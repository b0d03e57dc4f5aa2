// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package amdgpu

import (
	"log/slog"
	"path/filepath"
	"strconv"

	"github.com/bureau-foundation/sensorcore/lib/hardware"
	"github.com/bureau-foundation/sensorcore/lib/hwinfo"
)

const bytesPerMebibyte = 1 << 20

// driver publishes one card's sensors. querier is nil when the render
// node could not be opened.
type driver struct {
	card    card
	querier sensorQuerier
	logger  *slog.Logger

	temperature *hardware.Sensor
	coreLoad    *hardware.Sensor
	memoryLoad  *hardware.Sensor
	power       *hardware.Sensor
	coreClock   *hardware.Sensor
	memoryClock *hardware.Sensor
	memoryUsed  *hardware.Sensor
	memoryTotal *hardware.Sensor
}

func (d *driver) Attach(node *hardware.Hardware) {
	d.temperature = node.NewSensor("GPU Core", 0, hardware.Temperature)
	d.coreLoad = node.NewSensor("GPU Core", 0, hardware.Load)
	d.memoryLoad = node.NewSensor("GPU Memory", 1, hardware.Load)
	d.power = node.NewSensor("GPU Package", 0, hardware.Power)
	d.coreClock = node.NewSensor("GPU Core", 0, hardware.Clock)
	d.memoryClock = node.NewSensor("GPU Memory", 1, hardware.Clock)
	d.memoryUsed = node.NewSensor("GPU Memory Used", 0, hardware.SmallData)
	d.memoryTotal = node.NewSensor("GPU Memory Total", 1, hardware.SmallData)

	if limit, ok := hwinfo.ReadThermalLimit(d.card.devicePath); ok {
		if _, set := d.temperature.Limit(); !set {
			d.temperature.SetLimit(limit)
		}
	}
	if d.card.vramTotalBytes > 0 {
		d.memoryTotal.SetValue(float64(d.card.vramTotalBytes) / bytesPerMebibyte)
		node.ActivateSensor(d.memoryTotal)
	}

	// Activate up front only what this card can report, so the sensor
	// list does not flicker on the first update.
	if d.querier != nil {
		for _, sensor := range []*hardware.Sensor{d.temperature, d.coreLoad, d.power, d.coreClock, d.memoryClock} {
			node.ActivateSensor(sensor)
		}
	} else if _, ok := d.hwmonTemperature(); ok {
		node.ActivateSensor(d.temperature)
	}
	if _, ok := hwinfo.ReadSysfsInt64Checked(filepath.Join(d.card.devicePath, "mem_info_vram_used")); ok {
		node.ActivateSensor(d.memoryUsed)
		if d.card.vramTotalBytes > 0 {
			node.ActivateSensor(d.memoryLoad)
		}
	}
}

func (d *driver) Update() {
	d.updateIoctlSensors()

	if used, ok := hwinfo.ReadSysfsInt64Checked(filepath.Join(d.card.devicePath, "mem_info_vram_used")); ok {
		d.memoryUsed.SetValue(float64(used) / bytesPerMebibyte)
		if d.card.vramTotalBytes > 0 {
			d.memoryLoad.SetValue(100 * float64(used) / float64(d.card.vramTotalBytes))
		}
	} else {
		d.memoryUsed.ClearValue()
		d.memoryLoad.ClearValue()
	}
}

func (d *driver) updateIoctlSensors() {
	if d.querier == nil {
		if celsius, ok := d.hwmonTemperature(); ok {
			d.temperature.SetValue(celsius)
		} else {
			d.temperature.ClearValue()
		}
		return
	}

	queries := []struct {
		sensor     *hardware.Sensor
		sensorType uint32
		scale      float64
		label      string
	}{
		{d.temperature, SensorGPUTemp, 0.001, "GPU_TEMP"},
		{d.coreLoad, SensorGPULoad, 1, "GPU_LOAD"},
		{d.power, SensorGPUAvgPower, 1, "GPU_AVG_POWER"},
		{d.coreClock, SensorGFXSCLK, 1, "GFX_SCLK"},
		{d.memoryClock, SensorGFXMCLK, 1, "GFX_MCLK"},
	}
	for _, query := range queries {
		value, err := d.querier.QuerySensor(query.sensorType)
		if err != nil {
			d.logger.Debug("amdgpu sensor query failed",
				"query", query.label, "pci_slot", d.card.pciSlot, "error", err)
			query.sensor.ClearValue()
			continue
		}
		query.sensor.SetValue(float64(value) * query.scale)
	}
}

// hwmonTemperature reads temp1_input from the card's hwmon directory,
// the fallback when ioctls are unavailable.
func (d *driver) hwmonTemperature() (float64, bool) {
	for _, directory := range hwinfo.DeviceHwmonDirectories(d.card.devicePath) {
		if millidegrees, ok := hwinfo.ReadHwmonInput(directory, "temp", 1); ok {
			return float64(millidegrees) / 1000, true
		}
	}
	return 0, false
}

func (d *driver) Report() string {
	return d.card.report(d.querier != nil)
}

func (d *driver) Close() {
	if d.querier != nil {
		d.querier.Close()
		d.querier = nil
	}
}

// NewGroup discovers amdgpu cards and returns a group with one node
// per card, identified as /atigpu/<n> in discovery order.
func NewGroup(roots hwinfo.Roots, environment hardware.Environment) hardware.Group {
	return newGroup(roots, environment.WithDefaults(), openRenderNode)
}

func newGroup(roots hwinfo.Roots, environment hardware.Environment,
	open func(path string) (sensorQuerier, error)) hardware.Group {
	logger := environment.Logger
	group := &hardware.StaticGroup{}

	withIoctl := 0
	for index, discovered := range discoverCards(roots) {
		cardDriver := &driver{card: discovered, logger: logger}
		if discovered.renderNode == "" {
			logger.Warn("no render node found for amdgpu device", "pci_slot", discovered.pciSlot)
		} else if querier, err := open(discovered.renderNode); err != nil {
			logger.Warn("cannot open amdgpu render node, ioctl sensors unavailable for this device",
				"render_node", discovered.renderNode,
				"pci_slot", discovered.pciSlot,
				"error", err)
		} else {
			cardDriver.querier = querier
			withIoctl++
		}

		node := hardware.New(hardware.Descriptor{
			Identifier: hardware.MustIdentifier("atigpu", strconv.Itoa(index)),
			Name:       discovered.displayName(),
			Type:       hardware.GPUAti,
		}, environment, cardDriver)
		group.Nodes = append(group.Nodes, node)
	}

	if len(group.Nodes) > 0 {
		logger.Info("amdgpu group initialized",
			"gpu_count", len(group.Nodes),
			"ioctl_capable", withIoctl)
	}
	return group
}
