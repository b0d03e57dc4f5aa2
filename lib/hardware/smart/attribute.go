// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package smart

import (
	"encoding/binary"

	"github.com/bureau-foundation/sensorcore/lib/hardware"
)

// TableSize is the size of a SMART values or thresholds sector.
const TableSize = 512

const (
	revisionSize = 2
	recordSize   = 12
	maxRecords   = 30
)

// Value is one record of the attribute values table.
type Value struct {
	ID      byte
	Flags   uint16
	Current byte
	Worst   byte
	Raw     [6]byte
}

// Threshold is one record of the attribute thresholds table.
type Threshold struct {
	ID        byte
	Threshold byte
}

// ParseValues decodes the records of a values table up to the first
// record with ID 0. A short table yields the complete records it
// holds.
func ParseValues(table []byte) []Value {
	var values []Value
	for index := 0; index < maxRecords; index++ {
		offset := revisionSize + index*recordSize
		if offset+recordSize > len(table) {
			break
		}
		record := table[offset : offset+recordSize]
		if record[0] == 0 {
			break
		}
		value := Value{
			ID:      record[0],
			Flags:   binary.LittleEndian.Uint16(record[1:3]),
			Current: record[3],
			Worst:   record[4],
		}
		copy(value.Raw[:], record[5:11])
		values = append(values, value)
	}
	return values
}

// ParseThresholds decodes the records of a thresholds table up to the
// first record with ID 0.
func ParseThresholds(table []byte) []Threshold {
	var thresholds []Threshold
	for index := 0; index < maxRecords; index++ {
		offset := revisionSize + index*recordSize
		if offset+recordSize > len(table) {
			break
		}
		if table[offset] == 0 {
			break
		}
		thresholds = append(thresholds, Threshold{ID: table[offset], Threshold: table[offset+1]})
	}
	return thresholds
}

// Convert turns an attribute's raw bytes and current normalized value
// into a physical value. parameters holds the values of the sensor's
// parameters in declaration order and is nil when the conversion runs
// for a report.
type Convert func(raw [6]byte, current byte, parameters []float64) float64

// Attribute describes one SMART attribute of a drive family.
type Attribute struct {
	ID   byte
	Name string

	// Convert is nil when the normalized current value is the
	// physical value.
	Convert Convert

	// HasSensor is false for attributes that only appear in the
	// report. When several attributes share a SensorType and Channel
	// only the first present on the drive gets a sensor.
	HasSensor     bool
	SensorType    hardware.SensorType
	Channel       int
	SensorName    string
	DefaultHidden bool
	Parameters    []hardware.ParameterDescription
}

// Physical converts value with the attribute's conversion.
func (a Attribute) Physical(value Value, parameters []float64) float64 {
	if a.Convert == nil {
		return float64(value.Current)
	}
	return a.Convert(value.Raw, value.Current, parameters)
}

func (a Attribute) sensorName() string {
	if a.SensorName != "" {
		return a.SensorName
	}
	return a.Name
}

// RawToInt reads the low four raw bytes as a little-endian integer.
func RawToInt(raw [6]byte, _ byte, _ []float64) float64 {
	return float64(binary.LittleEndian.Uint32(raw[:4]))
}

// RawToValue reads all six raw bytes as a little-endian integer.
func RawToValue(raw [6]byte, _ byte, _ []float64) float64 {
	return float64(rawUint48(raw))
}

// RawFirstByte returns raw[0].
func RawFirstByte(raw [6]byte, _ byte, _ []float64) float64 {
	return float64(raw[0])
}

// SignedRawFirstByte reads raw[0] as a two's complement byte. Drives
// that report temperature this way use the upper bytes for minimum
// and maximum.
func SignedRawFirstByte(raw [6]byte, _ byte, _ []float64) float64 {
	return float64(int8(raw[0]))
}

// LBAsToGigabytes converts a six-byte count of 512-byte sectors to
// GB.
func LBAsToGigabytes(raw [6]byte, _ byte, _ []float64) float64 {
	return float64(rawUint48(raw)) * 512 / (1 << 30)
}

// HundredMinusRaw is 100 minus the six-byte raw value.
func HundredMinusRaw(raw [6]byte, current byte, parameters []float64) float64 {
	return 100 - RawToValue(raw, current, parameters)
}

// SignExtendedCurrent reads the normalized current value as a signed
// byte.
func SignExtendedCurrent(_ [6]byte, current byte, _ []float64) float64 {
	return float64(int8(current))
}

// withOffset adds the sensor's first parameter to the result of
// convert. A nil parameter slice adds nothing.
func withOffset(convert Convert) Convert {
	return func(raw [6]byte, current byte, parameters []float64) float64 {
		value := convert(raw, current, parameters)
		if len(parameters) > 0 {
			value += parameters[0]
		}
		return value
	}
}

func scaled(convert Convert, factor float64) Convert {
	return func(raw [6]byte, current byte, parameters []float64) float64 {
		return convert(raw, current, parameters) * factor
	}
}

func rawUint48(raw [6]byte) uint64 {
	var wide [8]byte
	copy(wide[:], raw[:])
	return binary.LittleEndian.Uint64(wide[:])
}

var temperatureOffset = hardware.ParameterDescription{
	Name:         "Offset [°C]",
	Description:  "Temperature offset of the thermal sensor.\nTemperature = Value + Offset.",
	DefaultValue: 0,
}
