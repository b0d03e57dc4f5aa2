// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package snapshot

import (
	"time"

	"github.com/bureau-foundation/sensorcore/lib/hardware"
)

// Snapshot is the state of the sensor tree at one instant.
type Snapshot struct {
	Taken    time.Time        `cbor:"taken"`
	Host     string           `cbor:"host,omitempty"`
	Hardware []HardwareRecord `cbor:"hardware"`
}

// HardwareRecord is one hardware node and its subtree.
type HardwareRecord struct {
	Identifier  hardware.Identifier   `cbor:"identifier"`
	Name        string                `cbor:"name"`
	Type        hardware.HardwareType `cbor:"type"`
	Sensors     []SensorRecord        `cbor:"sensors,omitempty"`
	SubHardware []HardwareRecord      `cbor:"sub_hardware,omitempty"`
}

// SensorRecord is one active sensor. Absent readings are nil.
type SensorRecord struct {
	Identifier hardware.Identifier `cbor:"identifier"`
	Name       string              `cbor:"name"`
	Type       hardware.SensorType `cbor:"type"`
	Index      int                 `cbor:"index"`
	Value      *float64            `cbor:"value,omitempty"`
	Min        *float64            `cbor:"min,omitempty"`
	Max        *float64            `cbor:"max,omitempty"`
	Limit      *float64            `cbor:"limit,omitempty"`
	Parameters []ParameterRecord   `cbor:"parameters,omitempty"`
}

// ParameterRecord is one sensor parameter.
type ParameterRecord struct {
	Name    string  `cbor:"name"`
	Value   float64 `cbor:"value"`
	Default bool    `cbor:"default"`
}

// Capture records every open hardware node of computer.
func Capture(computer *hardware.Computer, host string, taken time.Time) Snapshot {
	recorder := &recorder{}
	computer.Accept(recorder)
	return Snapshot{Taken: taken, Host: host, Hardware: recorder.roots}
}

// Find returns the sensor record with the given identifier.
func (s *Snapshot) Find(identifier hardware.Identifier) (SensorRecord, bool) {
	var search func([]HardwareRecord) (SensorRecord, bool)
	search = func(records []HardwareRecord) (SensorRecord, bool) {
		for _, record := range records {
			for _, sensor := range record.Sensors {
				if sensor.Identifier.Equal(identifier) {
					return sensor, true
				}
			}
			if found, ok := search(record.SubHardware); ok {
				return found, true
			}
		}
		return SensorRecord{}, false
	}
	return search(s.Hardware)
}

// recorder builds the record tree while the hardware tree accepts it.
// current is the record sensors and children attach to.
type recorder struct {
	roots   []HardwareRecord
	current *HardwareRecord
	sensor  *SensorRecord
}

func (r *recorder) VisitComputer(computer *hardware.Computer) { computer.Traverse(r) }

func (r *recorder) VisitHardware(node *hardware.Hardware) {
	record := HardwareRecord{
		Identifier: node.Identifier(),
		Name:       node.Name(),
		Type:       node.Type(),
	}
	parent := r.current
	r.current = &record
	node.Traverse(r)
	r.current = parent

	if parent == nil {
		r.roots = append(r.roots, record)
	} else {
		parent.SubHardware = append(parent.SubHardware, record)
	}
}

func (r *recorder) VisitSensor(sensor *hardware.Sensor) {
	record := SensorRecord{
		Identifier: sensor.Identifier(),
		Name:       sensor.Name(),
		Type:       sensor.Type(),
		Index:      sensor.Index(),
		Value:      optional(sensor.Value()),
		Min:        optional(sensor.Min()),
		Max:        optional(sensor.Max()),
		Limit:      optional(sensor.Limit()),
	}
	r.sensor = &record
	sensor.Traverse(r)
	r.sensor = nil
	r.current.Sensors = append(r.current.Sensors, record)
}

func (r *recorder) VisitParameter(parameter *hardware.Parameter) {
	r.sensor.Parameters = append(r.sensor.Parameters, ParameterRecord{
		Name:    parameter.Name(),
		Value:   parameter.Value(),
		Default: parameter.IsDefault(),
	})
}

func optional(value float64, ok bool) *float64 {
	if !ok {
		return nil
	}
	return &value
}
