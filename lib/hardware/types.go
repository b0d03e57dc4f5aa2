// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package hardware

import (
	"fmt"
	"strings"
)

// SensorType is the physical quantity a sensor measures.
type SensorType int

const (
	Voltage     SensorType = iota // V
	Clock                         // MHz
	Temperature                   // °C
	Load                          // %
	Fan                           // RPM
	Flow                          // L/h
	Control                       // %
	Level                         // %
	Factor                        // 1
	Power                         // W
	Data                          // GB = 2^30 bytes
	SmallData                     // MB = 2^20 bytes
	Throughput                    // B/s
	RawValue                      // undefined unit
)

var sensorTypeNames = [...]string{
	Voltage:     "Voltage",
	Clock:       "Clock",
	Temperature: "Temperature",
	Load:        "Load",
	Fan:         "Fan",
	Flow:        "Flow",
	Control:     "Control",
	Level:       "Level",
	Factor:      "Factor",
	Power:       "Power",
	Data:        "Data",
	SmallData:   "SmallData",
	Throughput:  "Throughput",
	RawValue:    "RawValue",
}

var sensorTypeUnits = [...]string{
	Voltage:     "V",
	Clock:       "MHz",
	Temperature: "°C",
	Load:        "%",
	Fan:         "RPM",
	Flow:        "L/h",
	Control:     "%",
	Level:       "%",
	Factor:      "",
	Power:       "W",
	Data:        "GB",
	SmallData:   "MB",
	Throughput:  "B/s",
	RawValue:    "",
}

// SensorTypes lists every sensor type in declaration order.
func SensorTypes() []SensorType {
	types := make([]SensorType, len(sensorTypeNames))
	for index := range sensorTypeNames {
		types[index] = SensorType(index)
	}
	return types
}

func (t SensorType) valid() bool {
	return t >= 0 && int(t) < len(sensorTypeNames)
}

func (t SensorType) String() string {
	if !t.valid() {
		return fmt.Sprintf("SensorType(%d)", int(t))
	}
	return sensorTypeNames[t]
}

// Unit returns the display unit, empty for dimensionless types.
func (t SensorType) Unit() string {
	if !t.valid() {
		return ""
	}
	return sensorTypeUnits[t]
}

// identifierSegment is the lowercase name used in sensor identifiers.
func (t SensorType) identifierSegment() string {
	return strings.ToLower(t.String())
}

// MarshalText implements encoding.TextMarshaler.
func (t SensorType) MarshalText() ([]byte, error) {
	if !t.valid() {
		return nil, fmt.Errorf("unknown sensor type %d", int(t))
	}
	return []byte(t.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *SensorType) UnmarshalText(text []byte) error {
	for index, name := range sensorTypeNames {
		if strings.EqualFold(name, string(text)) {
			*t = SensorType(index)
			return nil
		}
	}
	return fmt.Errorf("unknown sensor type %q", text)
}

// HardwareType classifies a hardware node.
type HardwareType int

const (
	Mainboard HardwareType = iota
	SuperIO
	CPU
	RAM
	GPUNvidia
	GPUAti
	FanController
	TBalancer
	HDD
)

var hardwareTypeNames = [...]string{
	Mainboard:     "Mainboard",
	SuperIO:       "SuperIO",
	CPU:           "CPU",
	RAM:           "RAM",
	GPUNvidia:     "GpuNvidia",
	GPUAti:        "GpuAti",
	FanController: "FanController",
	TBalancer:     "TBalancer",
	HDD:           "HDD",
}

func (t HardwareType) String() string {
	if t < 0 || int(t) >= len(hardwareTypeNames) {
		return fmt.Sprintf("HardwareType(%d)", int(t))
	}
	return hardwareTypeNames[t]
}

// MarshalText implements encoding.TextMarshaler.
func (t HardwareType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *HardwareType) UnmarshalText(text []byte) error {
	for index, name := range hardwareTypeNames {
		if strings.EqualFold(name, string(text)) {
			*t = HardwareType(index)
			return nil
		}
	}
	return fmt.Errorf("unknown hardware type %q", text)
}
