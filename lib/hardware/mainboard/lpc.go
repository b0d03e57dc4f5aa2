// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package mainboard

import (
	"github.com/bureau-foundation/sensorcore/lib/hardware"
	"github.com/bureau-foundation/sensorcore/lib/hardware/superio"
)

// Source is a chip whose channels an LPC node publishes. The channel
// counts must not change after construction. *superio.SuperIO is the
// port-backed implementation; hwmonChip reads kernel drivers.
type Source interface {
	Chip() superio.Chip
	Update()
	Voltages() []superio.Reading
	Temperatures() []superio.Reading
	Fans() []superio.Reading
	Controls() []superio.Reading
	Report() string
}

const dividerFormula = " Voltage = value + (value - Vf) * Ri / Rf."

func voltageParameters(channel voltageChannel) hardware.SensorOption {
	return hardware.WithParameters(
		hardware.ParameterDescription{Name: "Ri [kΩ]", Description: "Input resistance." + dividerFormula, DefaultValue: channel.ri},
		hardware.ParameterDescription{Name: "Rf [kΩ]", Description: "Reference resistance." + dividerFormula, DefaultValue: channel.rf},
		hardware.ParameterDescription{Name: "Vf [V]", Description: "Reference voltage." + dividerFormula, DefaultValue: channel.vf},
	)
}

var temperatureParameters = hardware.WithParameters(hardware.ParameterDescription{
	Name:        "Offset [°C]",
	Description: "Temperature offset.",
})

type boundSensor struct {
	sensor *hardware.Sensor
	index  int
}

// lpcDriver publishes the channels of one Source.
type lpcDriver struct {
	source Source
	node   *hardware.Hardware

	voltages     []boundSensor
	temperatures []boundSensor
	fans         []boundSensor
	controls     []boundSensor
}

func (d *lpcDriver) Attach(node *hardware.Hardware) {
	d.node = node
	table := channelsFor(d.source.Chip(),
		len(d.source.Voltages()), len(d.source.Temperatures()),
		len(d.source.Fans()), len(d.source.Controls()))

	for _, channel := range table.voltages {
		sensor := node.NewSensor(channel.name, channel.index, hardware.Voltage,
			hardware.HiddenIf(channel.hidden), voltageParameters(channel))
		d.voltages = append(d.voltages, boundSensor{sensor, channel.index})
	}
	for _, channel := range table.temperatures {
		sensor := node.NewSensor(channel.name, channel.index, hardware.Temperature, temperatureParameters)
		d.temperatures = append(d.temperatures, boundSensor{sensor, channel.index})
	}
	for _, channel := range table.fans {
		d.fans = append(d.fans, boundSensor{node.NewSensor(channel.name, channel.index, hardware.Fan), channel.index})
	}
	for _, channel := range table.controls {
		d.controls = append(d.controls, boundSensor{node.NewSensor(channel.name, channel.index, hardware.Control), channel.index})
	}
}

// Update re-reads the chip. Voltages, temperatures and controls
// activate on their first reading; fans activate only once they spin,
// so unpopulated headers stay hidden.
func (d *lpcDriver) Update() {
	d.source.Update()

	voltages := d.source.Voltages()
	for _, bound := range d.voltages {
		reading := voltages[bound.index]
		if !reading.Valid {
			bound.sensor.ClearValue()
			continue
		}
		ri := bound.sensor.Parameter(0).Value()
		rf := bound.sensor.Parameter(1).Value()
		vf := bound.sensor.Parameter(2).Value()
		value := reading.Value
		if rf != 0 {
			value += (reading.Value - vf) * ri / rf
		}
		bound.sensor.SetValue(value)
		d.node.ActivateSensor(bound.sensor)
	}

	temperatures := d.source.Temperatures()
	for _, bound := range d.temperatures {
		reading := temperatures[bound.index]
		if !reading.Valid {
			bound.sensor.ClearValue()
			continue
		}
		bound.sensor.SetValue(reading.Value + bound.sensor.Parameter(0).Value())
		d.node.ActivateSensor(bound.sensor)
	}

	fans := d.source.Fans()
	for _, bound := range d.fans {
		reading := fans[bound.index]
		if !reading.Valid {
			bound.sensor.ClearValue()
			continue
		}
		bound.sensor.SetValue(reading.Value)
		if reading.Value > 0 {
			d.node.ActivateSensor(bound.sensor)
		}
	}

	controls := d.source.Controls()
	for _, bound := range d.controls {
		reading := controls[bound.index]
		if !reading.Valid {
			bound.sensor.ClearValue()
			continue
		}
		bound.sensor.SetValue(reading.Value)
		d.node.ActivateSensor(bound.sensor)
	}
}

func (d *lpcDriver) Report() string { return d.source.Report() }
