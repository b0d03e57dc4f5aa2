// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package smbios

import (
	"github.com/google/uuid"
)

// BIOS is the type 0 structure.
type BIOS struct {
	Vendor  string
	Version string
	Date    string
}

// DecodeBIOS decodes a type 0 structure.
func DecodeBIOS(s Structure) BIOS {
	return BIOS{
		Vendor:  s.stringField(0x04, 1),
		Version: s.stringField(0x05, 2),
		Date:    s.stringField(0x08, 3),
	}
}

// System is the type 1 structure.
type System struct {
	Manufacturer string
	Product      string
	Version      string
	Serial       string
	Family       string

	// UUID is uuid.Nil when the firmware reports none (all zeros) or
	// an unset value (all ones).
	UUID uuid.UUID
}

// DecodeSystem decodes a type 1 structure.
func DecodeSystem(s Structure) System {
	return System{
		Manufacturer: s.stringField(0x04, 1),
		Product:      s.stringField(0x05, 2),
		Version:      s.stringField(0x06, 3),
		Serial:       s.stringField(0x07, 4),
		Family:       s.String(0x1A),
		UUID:         systemUUID(s),
	}
}

// systemUUID decodes the 16 bytes at 0x08. SMBIOS 2.6 and later store
// the first three fields little-endian; uuid expects network order.
func systemUUID(s Structure) uuid.UUID {
	if len(s.Data) < 0x08+16 {
		return uuid.Nil
	}
	raw := make([]byte, 16)
	copy(raw, s.Data[0x08:0x08+16])

	allZero, allOnes := true, true
	for _, b := range raw {
		allZero = allZero && b == 0x00
		allOnes = allOnes && b == 0xFF
	}
	if allZero || allOnes {
		return uuid.Nil
	}

	raw[0], raw[1], raw[2], raw[3] = raw[3], raw[2], raw[1], raw[0]
	raw[4], raw[5] = raw[5], raw[4]
	raw[6], raw[7] = raw[7], raw[6]
	id, err := uuid.FromBytes(raw)
	if err != nil {
		return uuid.Nil
	}
	return id
}

// Baseboard is the type 2 structure.
type Baseboard struct {
	Manufacturer string
	Product      string
	Version      string
	Serial       string
}

// DecodeBaseboard decodes a type 2 structure.
func DecodeBaseboard(s Structure) Baseboard {
	return Baseboard{
		Manufacturer: s.stringField(0x04, 1),
		Product:      s.stringField(0x05, 2),
		Version:      s.stringField(0x06, 3),
		Serial:       s.stringField(0x07, 4),
	}
}

// Processor is the type 4 structure. Clocks are in MHz.
type Processor struct {
	Manufacturer  string
	Version       string
	ExternalClock int
	MaxSpeed      int
	CurrentSpeed  int
	CoreCount     int
	CoreEnabled   int
	ThreadCount   int
}

// DecodeProcessor decodes a type 4 structure.
func DecodeProcessor(s Structure) Processor {
	return Processor{
		Manufacturer:  s.String(0x07),
		Version:       s.String(0x10),
		ExternalClock: int(s.Word(0x12)),
		MaxSpeed:      int(s.Word(0x14)),
		CurrentSpeed:  int(s.Word(0x16)),
		CoreCount:     int(s.Byte(0x23)),
		CoreEnabled:   int(s.Byte(0x24)),
		ThreadCount:   int(s.Byte(0x25)),
	}
}

// MemoryDevice is the type 17 structure.
type MemoryDevice struct {
	// SizeMB is the module size in MiB, 0 for an empty slot or an
	// unknown size.
	SizeMB        int
	DeviceLocator string
	BankLocator   string
	// Speed is the maximum speed in MT/s.
	Speed        int
	Manufacturer string
	Serial       string
	PartNumber   string
}

// DecodeMemoryDevice decodes a type 17 structure.
func DecodeMemoryDevice(s Structure) MemoryDevice {
	return MemoryDevice{
		SizeMB:        memorySize(s),
		DeviceLocator: s.String(0x10),
		BankLocator:   s.String(0x11),
		Speed:         int(s.Word(0x15)),
		Manufacturer:  s.String(0x17),
		Serial:        s.String(0x18),
		PartNumber:    s.String(0x1A),
	}
}

// memorySize decodes the size word at 0x0C: 0xFFFF is unknown, 0x7FFF
// defers to the extended size dword at 0x1C, and bit 15 selects KiB
// granularity.
func memorySize(s Structure) int {
	size := s.Word(0x0C)
	switch {
	case size == 0xFFFF:
		return 0
	case size == 0x7FFF:
		return int(s.DWord(0x1C) & 0x7FFFFFFF)
	case size&0x8000 != 0:
		return int(size&0x7FFF) / 1024
	default:
		return int(size)
	}
}
