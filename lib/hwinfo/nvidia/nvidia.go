// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package nvidia exposes NVIDIA GPUs driven by the nvidia
// (proprietary) or nouveau (open-source) kernel drivers. Identity is
// read from sysfs (/sys/class/drm/card*) and, when the proprietary
// driver is loaded, from /proc/driver/nvidia/gpus/.
//
// Readings come from the card's hwmon directory: nouveau exports
// temperature, fan speed and power there. The proprietary driver does
// not, so its cards usually carry identity only. NVML would need cgo
// or dlopen, and NVIDIA's NV_ESC_* ioctls change between driver
// versions, so neither is used.
package nvidia

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/bureau-foundation/sensorcore/lib/hardware"
	"github.com/bureau-foundation/sensorcore/lib/hwinfo"
)

// card is the static identity of one NVIDIA card.
type card struct {
	name       string
	devicePath string
	driverName string
	vendor     string
	deviceID   string
	pciSlot    string
	linkWidth  int
	modelName  string
	uniqueID   string
	vbios      string
}

func discoverCards(roots hwinfo.Roots) []card {
	drmBase := roots.SysPath("class/drm")
	entries, err := os.ReadDir(drmBase)
	if err != nil {
		return nil
	}

	var cards []card
	for _, entry := range entries {
		name := entry.Name()
		if !hwinfo.IsCardDevice(name) {
			continue
		}

		devicePath := filepath.Join(drmBase, name, "device")
		driverName := hwinfo.ReadDriverName(devicePath)
		if driverName != "nvidia" && driverName != "nouveau" {
			continue
		}

		discovered := card{
			name:       name,
			devicePath: devicePath,
			driverName: driverName,
			linkWidth:  hwinfo.ReadSysfsInt(filepath.Join(devicePath, "current_link_width")),
		}
		discovered.vendor, discovered.deviceID, discovered.pciSlot = hwinfo.ParsePCIUevent(devicePath)
		if driverName == "nvidia" && discovered.pciSlot != "" {
			discovered.enrichFromProc(roots)
		}
		cards = append(cards, discovered)
	}
	return cards
}

// enrichFromProc reads /proc/driver/nvidia/gpus/<pci-slot>/information,
// which the proprietary driver provides. The file contains key-value
// lines like:
//
//	Model:           NVIDIA GeForce RTX 4090
//	GPU UUID:        GPU-xxxxxxxx-xxxx-xxxx-xxxx-xxxxxxxxxxxx
//	Video BIOS:      95.02.3c.80.b8
func (c *card) enrichFromProc(roots hwinfo.Roots) {
	data, err := os.ReadFile(roots.ProcPath("driver/nvidia/gpus", c.pciSlot, "information"))
	if err != nil {
		return
	}

	for _, line := range strings.Split(string(data), "\n") {
		key, value, found := strings.Cut(line, ":")
		if !found {
			continue
		}
		value = strings.TrimSpace(value)
		switch strings.TrimSpace(key) {
		case "Model":
			c.modelName = value
		case "GPU UUID":
			c.uniqueID = value
		case "Video BIOS":
			c.vbios = value
		}
	}
}

func (c card) displayName() string {
	switch {
	case c.modelName != "":
		return c.modelName
	case c.deviceID != "":
		return "NVIDIA GPU " + c.deviceID
	default:
		return "NVIDIA GPU"
	}
}

func (c card) report() string {
	var builder strings.Builder
	fmt.Fprintf(&builder, "NVIDIA GPU %s\n\n", c.name)
	fmt.Fprintf(&builder, "Driver: %s\n", c.driverName)
	fmt.Fprintf(&builder, "Device ID: %s\n", c.deviceID)
	fmt.Fprintf(&builder, "PCI Slot: %s\n", c.pciSlot)
	fmt.Fprintf(&builder, "PCIe Link Width: x%d\n", c.linkWidth)
	if c.uniqueID != "" {
		fmt.Fprintf(&builder, "GPU UUID: %s\n", c.uniqueID)
	}
	if c.vbios != "" {
		fmt.Fprintf(&builder, "Video BIOS: %s\n", c.vbios)
	}
	return builder.String()
}

// driver reads hwmon attributes of one card. Sensors whose attribute
// is missing at attach time stay inactive.
type driver struct {
	card        card
	temperature *hardware.Sensor
	fan         *hardware.Sensor
	power       *hardware.Sensor
}

func (d *driver) Attach(node *hardware.Hardware) {
	d.temperature = node.NewSensor("GPU Core", 0, hardware.Temperature)
	d.fan = node.NewSensor("GPU", 0, hardware.Fan)
	d.power = node.NewSensor("GPU Package", 0, hardware.Power)

	if limit, ok := hwinfo.ReadThermalLimit(d.card.devicePath); ok {
		if _, set := d.temperature.Limit(); !set {
			d.temperature.SetLimit(limit)
		}
	}
	for _, reading := range d.readings() {
		if _, ok := reading.read(); ok {
			node.ActivateSensor(reading.sensor)
		}
	}
}

type reading struct {
	sensor *hardware.Sensor
	read   func() (float64, bool)
}

func (d *driver) readings() []reading {
	return []reading{
		{d.temperature, func() (float64, bool) { return d.hwmon("temp", 1, 0.001) }},
		{d.fan, func() (float64, bool) { return d.hwmon("fan", 1, 1) }},
		// power1_average is in microwatts.
		{d.power, func() (float64, bool) { return d.hwmonAttribute("power1_average", 1e-6) }},
	}
}

func (d *driver) hwmon(kind string, index int, scale float64) (float64, bool) {
	for _, directory := range hwinfo.DeviceHwmonDirectories(d.card.devicePath) {
		if raw, ok := hwinfo.ReadHwmonInput(directory, kind, index); ok {
			return float64(raw) * scale, true
		}
	}
	return 0, false
}

func (d *driver) hwmonAttribute(attribute string, scale float64) (float64, bool) {
	for _, directory := range hwinfo.DeviceHwmonDirectories(d.card.devicePath) {
		if raw, ok := hwinfo.ReadSysfsInt64Checked(filepath.Join(directory, attribute)); ok {
			return float64(raw) * scale, true
		}
	}
	return 0, false
}

func (d *driver) Update() {
	for _, reading := range d.readings() {
		if value, ok := reading.read(); ok {
			reading.sensor.SetValue(value)
		} else {
			reading.sensor.ClearValue()
		}
	}
}

func (d *driver) Report() string { return d.card.report() }

// NewGroup discovers NVIDIA cards and returns a group with one node
// per card, identified as /nvidiagpu/<n> in discovery order.
func NewGroup(roots hwinfo.Roots, environment hardware.Environment) hardware.Group {
	environment = environment.WithDefaults()
	group := &hardware.StaticGroup{}
	for index, discovered := range discoverCards(roots) {
		node := hardware.New(hardware.Descriptor{
			Identifier: hardware.MustIdentifier("nvidiagpu", strconv.Itoa(index)),
			Name:       discovered.displayName(),
			Type:       hardware.GPUNvidia,
		}, environment, &driver{card: discovered})
		group.Nodes = append(group.Nodes, node)
	}
	if len(group.Nodes) > 0 {
		environment.Logger.Info("nvidia group initialized", "gpu_count", len(group.Nodes))
	}
	return group
}
