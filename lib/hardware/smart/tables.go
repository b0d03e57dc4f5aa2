// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package smart

import (
	"strings"

	"github.com/bureau-foundation/sensorcore/lib/hardware"
)

// Table is the attribute layout of one drive family.
type Table struct {
	Name string

	// Prefix must prefix the drive model. Empty matches every model.
	Prefix string

	// Required lists attribute IDs the drive must report.
	Required []byte

	Attributes []Attribute

	// amplification derives a write amplification sensor when set.
	amplification *amplification
}

// amplification is sum(numerators) / denominator over the six-byte
// raw values of the named attributes.
type amplification struct {
	numerators  []byte
	denominator byte
}

// Matches reports whether the table applies to a drive with the given
// model and attribute values.
func (t *Table) Matches(model string, values []Value) bool {
	if !strings.HasPrefix(model, t.Prefix) {
		return false
	}
	for _, required := range t.Required {
		if !hasAttribute(values, required) {
			return false
		}
	}
	return true
}

// Attribute returns the table's description of id.
func (t *Table) Attribute(id byte) (Attribute, bool) {
	for _, attribute := range t.Attributes {
		if attribute.ID == id {
			return attribute, true
		}
	}
	return Attribute{}, false
}

func hasAttribute(values []Value, id byte) bool {
	for _, value := range values {
		if value.ID == id {
			return true
		}
	}
	return false
}

// SelectTable returns the first table in Tables that matches. The
// generic table matches every drive.
func SelectTable(model string, values []Value) *Table {
	for _, table := range Tables {
		if table.Matches(model, values) {
			return table
		}
	}
	return GenericTable
}

func info(id byte, name string) Attribute {
	return Attribute{ID: id, Name: name}
}

func converted(id byte, name string, convert Convert) Attribute {
	return Attribute{ID: id, Name: name, Convert: convert}
}

func measured(id byte, name string, convert Convert, sensorType hardware.SensorType, channel int, sensorName string) Attribute {
	return Attribute{
		ID:         id,
		Name:       name,
		Convert:    convert,
		HasSensor:  true,
		SensorType: sensorType,
		Channel:    channel,
		SensorName: sensorName,
	}
}

func temperature(id byte, name string, convert Convert) Attribute {
	attribute := measured(id, name, withOffset(convert), hardware.Temperature, 0, "Temperature")
	attribute.Parameters = []hardware.ParameterDescription{temperatureOffset}
	return attribute
}

func hidden(attribute Attribute) Attribute {
	attribute.DefaultHidden = true
	return attribute
}

// Tables lists the drive families in matching order.
var Tables = []*Table{IntelTable, SandforceTable, IndilinxTable, SamsungTable, MicronTable, GenericTable}

var IntelTable = &Table{
	Name:     "Intel SSD",
	Prefix:   "INTEL SSD",
	Required: []byte{0xE1, 0xE8, 0xE9},
	Attributes: []Attribute{
		info(0x01, "Read Error Rate"),
		info(0x03, "Spin-Up Time"),
		converted(0x04, "Start/Stop Count", RawToValue),
		info(0x05, "Reallocated Sectors Count"),
		converted(0x09, "Power-On Hours (POH)", RawToValue),
		converted(0x0C, "Power Cycle Count", RawToValue),
		info(0xAA, "Available Reserved Space"),
		info(0xAB, "Program Fail Count"),
		info(0xAC, "Erase Fail Count"),
		converted(0xAE, "Unexpected Power Loss Count", RawToValue),
		converted(0xB7, "SATA Downshift Error Count", RawToValue),
		info(0xB8, "End-to-End error"),
		converted(0xBB, "Uncorrectable Error Count", RawToValue),
		temperature(0xBE, "Temperature", SignedRawFirstByte),
		info(0xC0, "Unsafe Shutdown Count"),
		converted(0xC7, "CRC Error Count", RawToValue),
		measured(0xE1, "Host Writes", scaled(RawToValue, 1.0/0x20), hardware.Data, 0, "Host Writes"),
		measured(0xE8, "Remaining Life", nil, hardware.Level, 0, "Remaining Life"),
		info(0xE9, "Media Wear-out Indicator"),
		measured(0xF1, "Host Writes", scaled(RawToValue, 1.0/0x20), hardware.Data, 0, "Host Writes"),
		measured(0xF2, "Host Reads", scaled(RawToValue, 1.0/0x20), hardware.Data, 1, "Host Reads"),
	},
}

var SandforceTable = &Table{
	Name:     "Sandforce SSD",
	Required: []byte{0xAB, 0xB1},
	Attributes: []Attribute{
		info(0x01, "Raw Read Error Rate"),
		converted(0x05, "Retired Block Count", RawToValue),
		converted(0x09, "Power-On Hours (POH)", RawToValue),
		converted(0x0C, "Power Cycle Count", RawToValue),
		converted(0xAB, "Program Fail Count", RawToValue),
		converted(0xAC, "Erase Fail Count", RawToValue),
		converted(0xAE, "Unexpected Power Loss Count", RawToValue),
		converted(0xB1, "Wear Range Delta", RawToValue),
		converted(0xB5, "Alternative Program Fail Count", RawToValue),
		converted(0xB6, "Alternative Erase Fail Count", RawToValue),
		converted(0xBB, "Uncorrectable Error Count", RawToValue),
		hidden(temperature(0xC2, "Temperature", SignExtendedCurrent)),
		info(0xC3, "Unrecoverable ECC"),
		converted(0xC4, "Reallocation Event Count", RawToValue),
		measured(0xE7, "Remaining Life", nil, hardware.Level, 0, "Remaining Life"),
		measured(0xE9, "Controller Writes to NAND", RawToValue, hardware.Data, 0, "Controller Writes to NAND"),
		measured(0xEA, "Host Writes to Controller", RawToValue, hardware.Data, 1, "Host Writes to Controller"),
		measured(0xF1, "Host Writes", RawToValue, hardware.Data, 1, "Host Writes"),
		measured(0xF2, "Host Reads", RawToValue, hardware.Data, 2, "Host Reads"),
	},
	amplification: &amplification{numerators: []byte{0xE9}, denominator: 0xEA},
}

var IndilinxTable = &Table{
	Name:     "Indilinx SSD",
	Required: []byte{0xD1},
	Attributes: []Attribute{
		info(0xB8, "Initial Bad Block Count"),
		info(0xC3, "Program Failure"),
		info(0xC4, "Erase Failure"),
		info(0xC5, "Read Failure"),
		info(0xC6, "Sectors Read"),
		info(0xC7, "Sectors Written"),
		info(0xC8, "Read Commands"),
		info(0xC9, "Write Commands"),
		info(0xCA, "Bit Errors"),
		info(0xCB, "Corrected Errors"),
		info(0xCC, "Bad Block Full Flag"),
		info(0xCD, "Max Cell Cycles"),
		info(0xCE, "Min Erase"),
		info(0xCF, "Max Erase"),
		info(0xD0, "Average Erase Count"),
		measured(0xD1, "Remaining Life", nil, hardware.Level, 0, "Remaining Life"),
		info(0xD2, "Unknown Unique"),
		info(0xD3, "SATA Error Count CRC"),
		info(0xD4, "SATA Error Count Handshake"),
	},
}

var SamsungTable = &Table{
	Name:     "Samsung SSD",
	Required: []byte{0xB1, 0xB3, 0xB5, 0xB6, 0xB7, 0xBB, 0xC3, 0xC7},
	Attributes: []Attribute{
		info(0x05, "Reallocated Sectors Count"),
		measured(0x09, "Power-On Hours (POH)", RawToInt, hardware.RawValue, 0, "Power-On Hours (POH)"),
		converted(0x0C, "Power Cycle Count", RawToValue),
		converted(0xAF, "Program Fail Count (Chip)", RawToValue),
		converted(0xB0, "Erase Fail Count (Chip)", RawToValue),
		measured(0xB1, "Wear Leveling Count", nil, hardware.Level, 0, "Remaining Life"),
		converted(0xB2, "Used Reserved Block Count (Chip)", RawToValue),
		converted(0xB3, "Used Reserved Block Count (Total)", RawToValue),
		info(0xB4, "Remaining Life"),
		converted(0xB5, "Program Fail Count (Total)", RawToValue),
		converted(0xB6, "Erase Fail Count (Total)", RawToValue),
		converted(0xB7, "Runtime Bad Block (Total)", RawToValue),
		hidden(measured(0xBB, "Uncorrectable Error Count", RawToValue, hardware.RawValue, 2, "Uncorrectable Error Count")),
		temperature(0xBE, "Temperature", SignedRawFirstByte),
		info(0xC2, "Airflow Temperature"),
		hidden(measured(0xC3, "ECC Rate", RawToValue, hardware.RawValue, 3, "ECC Rate")),
		converted(0xC6, "Off-Line Uncorrectable Error Count", RawToValue),
		hidden(measured(0xC7, "CRC Error Count", RawToValue, hardware.RawValue, 4, "CRC Error Count")),
		info(0xC9, "Supercap Status"),
		info(0xCA, "Exception Mode Status"),
		info(0xEB, "Power Recovery Count"),
		measured(0xF1, "Total LBAs Written", LBAsToGigabytes, hardware.Data, 0, "Host Writes to Controller"),
		measured(0xF2, "Total LBAs Read", LBAsToGigabytes, hardware.Data, 1, "Host Reads"),
		measured(0xFB, "Controller Writes to NAND", LBAsToGigabytes, hardware.Data, 2, "Controller Writes to NAND"),
	},
	amplification: &amplification{numerators: []byte{0xFB}, denominator: 0xF1},
}

var MicronTable = &Table{
	Name:     "Micron SSD",
	Required: []byte{0xAB, 0xAC, 0xAD, 0xAE, 0xC4, 0xCA, 0xCE},
	Attributes: []Attribute{
		converted(0x01, "Read Error Rate", RawToValue),
		converted(0x05, "Reallocated NAND Block Count", RawToValue),
		converted(0x09, "Power-On Hours (POH)", RawToValue),
		converted(0x0C, "Power Cycle Count", RawToValue),
		converted(0xAA, "New Failing Block Count", RawToValue),
		converted(0xAB, "Program Fail Count", RawToValue),
		converted(0xAC, "Erase Fail Count", RawToValue),
		converted(0xAD, "Wear Leveling Count", RawToValue),
		converted(0xAE, "Unexpected Power Loss Count", RawToValue),
		converted(0xB4, "Unused Reserve NAND Blocks", RawToValue),
		converted(0xB5, "Non-4k Aligned Access", func(raw [6]byte, _ byte, _ []float64) float64 {
			return 6e4 * float64(uint16(raw[5])<<8|uint16(raw[4]))
		}),
		converted(0xB7, "SATA Downshift Error Count", RawToValue),
		converted(0xB8, "Error Correction Count", RawToValue),
		converted(0xBB, "Reported Uncorrectable Errors", RawToValue),
		converted(0xBC, "Command Timeout", RawToValue),
		converted(0xBD, "Factory Bad Block Count", RawToValue),
		temperature(0xC2, "Temperature", SignedRawFirstByte),
		converted(0xC4, "Reallocation Event Count", RawToValue),
		info(0xC5, "Current Pending Sector Count"),
		converted(0xC6, "Off-Line Uncorrectable Error Count", RawToValue),
		converted(0xC7, "Ultra DMA CRC Error Count", RawToValue),
		measured(0xCA, "Remaining Life", HundredMinusRaw, hardware.Level, 0, "Remaining Life"),
		converted(0xCE, "Write Error Rate", func(raw [6]byte, _ byte, _ []float64) float64 {
			return 6e4 * float64(uint16(raw[1])<<8|uint16(raw[0]))
		}),
		converted(0xD2, "Successful RAIN Recovery Count", RawToValue),
		measured(0xF6, "Total LBAs Written", LBAsToGigabytes, hardware.Data, 0, "Total Bytes Written"),
		converted(0xF7, "Host Program NAND Pages Count", RawToValue),
		converted(0xF8, "FTL Program NAND Pages Count", RawToValue),
	},
	amplification: &amplification{numerators: []byte{0xF7, 0xF8}, denominator: 0xF7},
}

var GenericTable = &Table{
	Name: "Generic Hard Disk",
	Attributes: []Attribute{
		info(0x01, "Read Error Rate"),
		info(0x02, "Throughput Performance"),
		info(0x03, "Spin-Up Time"),
		converted(0x04, "Start/Stop Count", RawToInt),
		info(0x05, "Reallocated Sectors Count"),
		info(0x06, "Read Channel Margin"),
		info(0x07, "Seek Error Rate"),
		info(0x08, "Seek Time Performance"),
		converted(0x09, "Power-On Hours (POH)", RawToInt),
		info(0x0A, "Spin Retry Count"),
		info(0x0B, "Recalibration Retries"),
		converted(0x0C, "Power Cycle Count", RawToInt),
		info(0x0D, "Soft Read Error Rate"),
		info(0xAA, "Unknown"),
		info(0xAB, "Unknown"),
		info(0xAC, "Unknown"),
		info(0xB7, "SATA Downshift Error Count"),
		info(0xB8, "End-to-End error"),
		info(0xB9, "Head Stability"),
		info(0xBA, "Induced Op-Vibration Detection"),
		info(0xBB, "Reported Uncorrectable Errors"),
		info(0xBC, "Command Timeout"),
		info(0xBD, "High Fly Writes (WDC)"),
		info(0xBF, "G-sense error rate"),
		info(0xC0, "Emergency Retract Cycle Count"),
		info(0xC1, "Load Cycle Count"),
		info(0xC3, "Hardware ECC Recovered"),
		info(0xC4, "Reallocation Event Count"),
		info(0xC5, "Current Pending Sector Count"),
		info(0xC6, "Uncorrectable Sector Count"),
		info(0xC7, "UltraDMA CRC Error Count"),
		info(0xC8, "Write Error Rate"),
		info(0xCA, "Data Address Mark errors"),
		info(0xCB, "Run Out Cancel"),
		info(0xCC, "Soft ECC Correction"),
		info(0xCD, "Thermal Asperity Rate (TAR)"),
		info(0xCE, "Flying Height"),
		info(0xCF, "Spin High Current"),
		info(0xD0, "Spin Buzz"),
		info(0xD1, "Offline Seek Performance"),
		info(0xD3, "Vibration During Write"),
		info(0xD4, "Shock During Write"),
		info(0xDC, "Disk Shift"),
		info(0xDD, "G-Sense Error Rate (Alternative)"),
		info(0xDE, "Loaded Hours"),
		info(0xDF, "Load/Unload Retry Count"),
		info(0xE0, "Load Friction"),
		info(0xE1, "Load/Unload Cycle Count"),
		info(0xE2, "Load-in Time"),
		info(0xE3, "Torque Amplification Count"),
		info(0xE4, "Power-Off Retract Cycle"),
		info(0xE6, "GMR Head Amplitude"),
		info(0xE8, "Endurance Remaining"),
		info(0xE9, "Power-On Hours"),
		info(0xF0, "Head Flying Hours"),
		info(0xF1, "Total LBAs Written"),
		info(0xF2, "Total LBAs Read"),
		info(0xFA, "Read Error Retry Rate"),
		info(0xFE, "Free Fall Protection"),
		temperature(0xC2, "Temperature", RawFirstByte),
		temperature(0xE7, "Temperature", RawFirstByte),
		temperature(0xBE, "Temperature Difference from 100", func(_ [6]byte, current byte, _ []float64) float64 {
			return float64(current)
		}),
	},
}
