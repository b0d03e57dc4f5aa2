// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package smbios

import (
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/zeebo/blake3"

	"github.com/bureau-foundation/sensorcore/lib/hwinfo"
)

// Table is a decoded SMBIOS table. Raw and Structures are empty when
// the identity came from /sys/class/dmi/id instead of the raw table.
type Table struct {
	// Version is "major.minor" from the entry point, or "" when
	// unknown.
	Version    string
	Raw        []byte
	Structures []Structure

	BIOS          *BIOS
	System        *System
	Baseboard     *Baseboard
	Processor     *Processor
	MemoryDevices []MemoryDevice
}

// Parse walks raw and decodes the known structure types. The last
// BIOS, system, baseboard and processor structure wins; every memory
// device is kept.
func Parse(raw []byte, version string) *Table {
	table := &Table{Version: version, Raw: raw, Structures: Walk(raw)}
	for _, structure := range table.Structures {
		switch structure.Type {
		case TypeBIOS:
			bios := DecodeBIOS(structure)
			table.BIOS = &bios
		case TypeSystem:
			system := DecodeSystem(structure)
			table.System = &system
		case TypeBaseboard:
			board := DecodeBaseboard(structure)
			table.Baseboard = &board
		case TypeProcessor:
			processor := DecodeProcessor(structure)
			table.Processor = &processor
		case TypeMemoryDevice:
			table.MemoryDevices = append(table.MemoryDevices, DecodeMemoryDevice(structure))
		}
	}
	return table
}

// Read loads the table from the firmware interface under roots. It
// never fails: an unreadable raw table falls back to the dmi/id
// attributes, and a missing dmi/id directory yields an empty Table.
func Read(roots hwinfo.Roots, logger *slog.Logger) *Table {
	raw, err := os.ReadFile(roots.SysPath("firmware/dmi/tables/DMI"))
	if err == nil && len(raw) > 0 {
		version := entryPointVersion(roots)
		table := Parse(raw, version)
		logger.Debug("smbios table decoded",
			"version", version, "bytes", len(raw), "structures", len(table.Structures))
		return table
	}
	logger.Debug("raw smbios table unavailable, using dmi attributes", "error", err)
	return readDMIAttributes(roots)
}

// entryPointVersion extracts the version from a 32-bit ("_SM_") or
// 64-bit ("_SM3_") entry point structure.
func entryPointVersion(roots hwinfo.Roots) string {
	entry, err := os.ReadFile(roots.SysPath("firmware/dmi/tables/smbios_entry_point"))
	if err != nil {
		return ""
	}
	switch {
	case len(entry) >= 9 && string(entry[:5]) == "_SM3_":
		return fmt.Sprintf("%d.%d", entry[7], entry[8])
	case len(entry) >= 8 && string(entry[:4]) == "_SM_":
		return fmt.Sprintf("%d.%d", entry[6], entry[7])
	}
	return ""
}

func readDMIAttributes(roots hwinfo.Roots) *Table {
	attribute := func(name string) string {
		return hwinfo.ReadSysfsString(roots.SysPath("class/dmi/id", name))
	}
	table := &Table{}
	if vendor, version := attribute("bios_vendor"), attribute("bios_version"); vendor != "" || version != "" {
		table.BIOS = &BIOS{Vendor: vendor, Version: version, Date: attribute("bios_date")}
	}
	if manufacturer, product := attribute("sys_vendor"), attribute("product_name"); manufacturer != "" || product != "" {
		table.System = &System{
			Manufacturer: manufacturer,
			Product:      product,
			Version:      attribute("product_version"),
			Serial:       attribute("product_serial"),
			Family:       attribute("product_family"),
		}
		if id, err := uuid.Parse(attribute("product_uuid")); err == nil {
			table.System.UUID = id
		}
	}
	if manufacturer, product := attribute("board_vendor"), attribute("board_name"); manufacturer != "" || product != "" {
		table.Baseboard = &Baseboard{
			Manufacturer: manufacturer,
			Product:      product,
			Version:      attribute("board_version"),
			Serial:       attribute("board_serial"),
		}
	}
	return table
}

// BoardName is "Manufacturer Product" of the baseboard, falling back
// to the system structure, or "Unknown".
func (t *Table) BoardName() string {
	var manufacturer, product string
	switch {
	case t.Baseboard != nil && (t.Baseboard.Manufacturer != "" || t.Baseboard.Product != ""):
		manufacturer, product = t.Baseboard.Manufacturer, t.Baseboard.Product
	case t.System != nil:
		manufacturer, product = t.System.Manufacturer, t.System.Product
	}
	name := strings.TrimSpace(manufacturer + " " + product)
	if name == "" {
		return "Unknown"
	}
	return name
}

// Fingerprint is the hex BLAKE3 digest of the raw table, or "" when
// no raw table was read. Two machines with the same firmware
// configuration share a fingerprint.
func (t *Table) Fingerprint() string {
	if len(t.Raw) == 0 {
		return ""
	}
	digest := blake3.Sum256(t.Raw)
	return hex.EncodeToString(digest[:])
}

// Report renders the decoded identity followed by the raw table in
// base64, 64 characters per row.
func (t *Table) Report() string {
	var builder strings.Builder
	if t.Version != "" {
		fmt.Fprintf(&builder, "SMBIOS Version: %s\n\n", t.Version)
	}
	if t.BIOS != nil {
		fmt.Fprintf(&builder, "BIOS Vendor: %s\n", t.BIOS.Vendor)
		fmt.Fprintf(&builder, "BIOS Version: %s\n", t.BIOS.Version)
		fmt.Fprintf(&builder, "BIOS Date: %s\n\n", t.BIOS.Date)
	}
	if t.System != nil {
		fmt.Fprintf(&builder, "System Manufacturer: %s\n", t.System.Manufacturer)
		fmt.Fprintf(&builder, "System Name: %s\n", t.System.Product)
		fmt.Fprintf(&builder, "System Version: %s\n", t.System.Version)
		if t.System.UUID != uuid.Nil {
			fmt.Fprintf(&builder, "System UUID: %s\n", t.System.UUID)
		}
		builder.WriteString("\n")
	}
	if t.Baseboard != nil {
		fmt.Fprintf(&builder, "Mainboard Manufacturer: %s\n", t.Baseboard.Manufacturer)
		fmt.Fprintf(&builder, "Mainboard Name: %s\n", t.Baseboard.Product)
		fmt.Fprintf(&builder, "Mainboard Version: %s\n\n", t.Baseboard.Version)
	}
	if t.Processor != nil {
		fmt.Fprintf(&builder, "Processor Manufacturer: %s\n", t.Processor.Manufacturer)
		fmt.Fprintf(&builder, "Processor Version: %s\n", t.Processor.Version)
		fmt.Fprintf(&builder, "Processor Core Count: %d\n", t.Processor.CoreCount)
		fmt.Fprintf(&builder, "Processor Core Enabled: %d\n", t.Processor.CoreEnabled)
		fmt.Fprintf(&builder, "Processor Thread Count: %d\n", t.Processor.ThreadCount)
		fmt.Fprintf(&builder, "Processor External Clock: %d Mhz\n\n", t.Processor.ExternalClock)
	}
	for index, device := range t.MemoryDevices {
		fmt.Fprintf(&builder, "Memory Device [%d] Manufacturer: %s\n", index, device.Manufacturer)
		fmt.Fprintf(&builder, "Memory Device [%d] Part Number: %s\n", index, device.PartNumber)
		fmt.Fprintf(&builder, "Memory Device [%d] Device Locator: %s\n", index, device.DeviceLocator)
		fmt.Fprintf(&builder, "Memory Device [%d] Bank Locator: %s\n", index, device.BankLocator)
		fmt.Fprintf(&builder, "Memory Device [%d] Size: %d MB\n", index, device.SizeMB)
		fmt.Fprintf(&builder, "Memory Device [%d] Speed: %d MHz\n\n", index, device.Speed)
	}
	if len(t.Raw) > 0 {
		fmt.Fprintf(&builder, "SMBIOS Fingerprint: %s\n\n", t.Fingerprint())
		builder.WriteString("SMBIOS Table\n\n")
		encoded := base64.StdEncoding.EncodeToString(t.Raw)
		for start := 0; start < len(encoded); start += 64 {
			end := min(start+64, len(encoded))
			fmt.Fprintf(&builder, " %s\n", encoded[start:end])
		}
		builder.WriteString("\n")
	}
	return builder.String()
}
