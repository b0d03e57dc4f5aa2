// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package amdgpu exposes AMD GPUs driven by the amdgpu kernel driver
// as hardware nodes. Cards are discovered from sysfs
// (/sys/class/drm/card*). Temperature, load, power and clocks come
// from the AMDGPU_INFO_SENSOR ioctl on the card's render node
// (/dev/dri/renderD*), the interface rocm-smi uses internally; VRAM
// usage comes from sysfs because the ioctl does not report it.
//
// Render node access needs video or render group membership. A card
// whose render node cannot be opened is still listed, with only its
// sysfs-backed sensors.
//
// No cgo is required: the ioctl uses golang.org/x/sys/unix with a
// struct layout matching the kernel UAPI header.
package amdgpu

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/bureau-foundation/sensorcore/lib/hardware"
	"github.com/bureau-foundation/sensorcore/lib/hwinfo"
)

// AMDGPU_INFO_SENSOR sub-query constants.
const (
	// SensorGFXSCLK queries the current graphics clock in MHz.
	SensorGFXSCLK = 0x1

	// SensorGFXMCLK queries the current memory clock in MHz.
	SensorGFXMCLK = 0x2

	// SensorGPUTemp queries the GPU temperature in millidegrees Celsius.
	SensorGPUTemp = 0x3

	// SensorGPULoad queries the GPU utilization percentage (0-100).
	SensorGPULoad = 0x4

	// SensorGPUAvgPower queries the average GPU power draw in watts.
	SensorGPUAvgPower = 0x5
)

// sensorQuerier answers AMDGPU_INFO_SENSOR queries for one card.
type sensorQuerier interface {
	QuerySensor(sensorType uint32) (uint32, error)
	Close() error
}

// card is the static identity of one amdgpu card read from sysfs.
type card struct {
	name           string
	devicePath     string
	vendor         string
	deviceID       string
	pciSlot        string
	productName    string
	vbiosVersion   string
	vramVendor     string
	uniqueID       string
	linkWidth      int
	vramTotalBytes int64
	renderNode     string
}

// discoverCards walks sysRoot/class/drm for cards bound to amdgpu.
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
		if hwinfo.ReadDriverName(devicePath) != "amdgpu" {
			continue
		}

		discovered := card{
			name:           name,
			devicePath:     devicePath,
			productName:    hwinfo.ReadSysfsString(filepath.Join(devicePath, "product_name")),
			vbiosVersion:   hwinfo.ReadSysfsString(filepath.Join(devicePath, "vbios_version")),
			vramVendor:     hwinfo.ReadSysfsString(filepath.Join(devicePath, "mem_info_vram_vendor")),
			uniqueID:       hwinfo.ReadSysfsString(filepath.Join(devicePath, "unique_id")),
			linkWidth:      hwinfo.ReadSysfsInt(filepath.Join(devicePath, "current_link_width")),
			vramTotalBytes: hwinfo.ReadSysfsInt64(filepath.Join(devicePath, "mem_info_vram_total")),
			renderNode:     renderNodeForDevice(devicePath, roots),
		}
		discovered.vendor, discovered.deviceID, discovered.pciSlot = hwinfo.ParsePCIUevent(devicePath)
		cards = append(cards, discovered)
	}
	return cards
}

// displayName is "AMD Radeon RX 7900 XTX" when the kernel exports a
// product name, "AMD GPU 0x744a" otherwise.
func (c card) displayName() string {
	if c.productName != "" {
		if strings.HasPrefix(c.productName, "AMD") {
			return c.productName
		}
		return "AMD " + c.productName
	}
	if c.deviceID != "" {
		return "AMD GPU " + c.deviceID
	}
	return "AMD GPU"
}

// renderNodeForDevice finds the /dev/dri/renderD* path that
// corresponds to the same PCI device as a card. The card index and
// render node index don't necessarily match (card0 may be renderD129).
func renderNodeForDevice(devicePath string, roots hwinfo.Roots) string {
	cardPCIPath, err := filepath.EvalSymlinks(devicePath)
	if err != nil {
		return ""
	}

	drmBase := roots.SysPath("class/drm")
	entries, err := os.ReadDir(drmBase)
	if err != nil {
		return ""
	}
	for _, entry := range entries {
		name := entry.Name()
		if !strings.HasPrefix(name, "renderD") {
			continue
		}
		renderPCIPath, err := filepath.EvalSymlinks(filepath.Join(drmBase, name, "device"))
		if err != nil {
			continue
		}
		if renderPCIPath == cardPCIPath {
			return roots.DevPath("dri", name)
		}
	}
	return ""
}

func (c card) report(ioctlCapable bool) string {
	var builder strings.Builder
	fmt.Fprintf(&builder, "AMD GPU %s\n\n", c.name)
	fmt.Fprintf(&builder, "Vendor: %s\n", c.vendor)
	fmt.Fprintf(&builder, "Device ID: %s\n", c.deviceID)
	fmt.Fprintf(&builder, "PCI Slot: %s\n", c.pciSlot)
	fmt.Fprintf(&builder, "VBIOS: %s\n", c.vbiosVersion)
	fmt.Fprintf(&builder, "VRAM: %d bytes (%s)\n", c.vramTotalBytes, c.vramVendor)
	fmt.Fprintf(&builder, "Unique ID: %s\n", c.uniqueID)
	fmt.Fprintf(&builder, "PCIe Link Width: x%s\n", strconv.Itoa(c.linkWidth))
	fmt.Fprintf(&builder, "Render Node: %s (ioctl capable: %t)\n", c.renderNode, ioctlCapable)
	return builder.String()
}

// Ensure the driver satisfies the optional interfaces.
var (
	_ hardware.Driver   = (*driver)(nil)
	_ hardware.Reporter = (*driver)(nil)
	_ hardware.Closer   = (*driver)(nil)
)
