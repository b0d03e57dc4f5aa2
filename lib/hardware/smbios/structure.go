// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package smbios

import (
	"encoding/binary"
	"errors"
	"strings"
)

// ErrShortTable is returned by Next when the table ends inside a
// structure header or formatted area.
var ErrShortTable = errors.New("smbios: table truncated")

// Structure types with a decoder.
const (
	TypeBIOS         = 0
	TypeSystem       = 1
	TypeBaseboard    = 2
	TypeProcessor    = 4
	TypeMemoryDevice = 17
	TypeEndOfTable   = 127
)

const headerLength = 4

// Structure is one SMBIOS structure: the formatted area, which starts
// with the four header bytes, and the string pool that follows it.
type Structure struct {
	Type    byte
	Handle  uint16
	Data    []byte
	Strings []string
}

// Next decodes the structure at the start of table and returns it with
// the number of bytes it occupies, string pool included.
func Next(table []byte) (Structure, int, error) {
	if len(table) < headerLength {
		return Structure{}, 0, ErrShortTable
	}
	length := int(table[1])
	if length < headerLength || length > len(table) {
		return Structure{}, 0, ErrShortTable
	}
	structure := Structure{
		Type:   table[0],
		Handle: binary.LittleEndian.Uint16(table[2:4]),
		Data:   table[:length:length],
	}

	// The pool is a run of NUL-terminated strings closed by one more
	// NUL. An empty pool is two NULs.
	offset := length
	if offset < len(table) && table[offset] == 0 {
		offset++
	}
	for offset < len(table) && table[offset] != 0 {
		end := offset
		for end < len(table) && table[end] != 0 {
			end++
		}
		structure.Strings = append(structure.Strings, string(table[offset:end]))
		offset = end + 1
	}
	offset++
	if offset > len(table) {
		offset = len(table)
	}
	return structure, offset, nil
}

// Walk decodes structures until the end-of-table marker, the end of
// the data, or a truncated structure. Structures decoded before a
// truncation are kept.
func Walk(table []byte) []Structure {
	var structures []Structure
	for offset := 0; offset < len(table); {
		structure, size, err := Next(table[offset:])
		if err != nil {
			break
		}
		structures = append(structures, structure)
		offset += size
		if structure.Type == TypeEndOfTable {
			break
		}
	}
	return structures
}

// Byte returns the byte at offset in the formatted area, or 0 when the
// area is too short.
func (s Structure) Byte(offset int) byte {
	if offset < 0 || offset >= len(s.Data) {
		return 0
	}
	return s.Data[offset]
}

// Word returns the little-endian 16-bit value at offset, or 0.
func (s Structure) Word(offset int) uint16 {
	if offset < 0 || offset+2 > len(s.Data) {
		return 0
	}
	return binary.LittleEndian.Uint16(s.Data[offset:])
}

// DWord returns the little-endian 32-bit value at offset, or 0.
func (s Structure) DWord(offset int) uint32 {
	if offset < 0 || offset+4 > len(s.Data) {
		return 0
	}
	return binary.LittleEndian.Uint32(s.Data[offset:])
}

// String resolves the 1-based string index stored at offset. Index 0,
// an index past the pool, or an offset past the formatted area yield
// "".
func (s Structure) String(offset int) string {
	if offset < 0 || offset >= len(s.Data) {
		return ""
	}
	return s.poolEntry(int(s.Data[offset]))
}

// stringField is String with a positional fallback: when the formatted
// area ends before offset, the position-th pool entry is used. Minimal
// tables that carry only a header still name their first strings in
// field order.
func (s Structure) stringField(offset, position int) string {
	if offset < len(s.Data) {
		return s.String(offset)
	}
	return s.poolEntry(position)
}

func (s Structure) poolEntry(number int) string {
	if number <= 0 || number > len(s.Strings) {
		return ""
	}
	return strings.TrimSpace(s.Strings[number-1])
}

// Signature packs a four-character firmware table provider name into
// the big-endian form used by firmware table APIs, for example
// Signature("RSMB") for the raw SMBIOS provider.
func Signature(name string) uint32 {
	var signature uint32
	for index := 0; index < 4; index++ {
		signature <<= 8
		if index < len(name) {
			signature |= uint32(name[index])
		}
	}
	return signature
}
