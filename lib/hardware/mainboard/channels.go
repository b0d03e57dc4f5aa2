// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package mainboard

import (
	"strconv"

	"github.com/bureau-foundation/sensorcore/lib/hardware/superio"
)

// voltageChannel names one voltage input and the divider that scales
// the pin voltage back to the rail: rail = pin + (pin - vf) * ri / rf.
type voltageChannel struct {
	name   string
	index  int
	ri     float64
	rf     float64
	vf     float64
	hidden bool
}

type namedChannel struct {
	name  string
	index int
}

type channelTable struct {
	voltages     []voltageChannel
	temperatures []namedChannel
	fans         []namedChannel
	controls     []namedChannel
}

func direct(name string, index int) voltageChannel {
	return voltageChannel{name: name, index: index, rf: 1}
}

func unlabeled(name string, index int) voltageChannel {
	return voltageChannel{name: name, index: index, rf: 1, hidden: true}
}

func divided(name string, index int, ri, rf float64) voltageChannel {
	return voltageChannel{name: name, index: index, ri: ri, rf: rf}
}

func numbered(prefix string, count int) []namedChannel {
	channels := make([]namedChannel, count)
	for index := range channels {
		channels[index] = namedChannel{name: prefix + " #" + strconv.Itoa(index+1), index: index}
	}
	return channels
}

func numberedVoltages(from, to int) []voltageChannel {
	var channels []voltageChannel
	for index := from; index <= to; index++ {
		channels = append(channels, unlabeled("Voltage #"+strconv.Itoa(index+1), index))
	}
	return channels
}

func join(groups ...[]voltageChannel) []voltageChannel {
	var channels []voltageChannel
	for _, group := range groups {
		channels = append(channels, group...)
	}
	return channels
}

var (
	winbondTemperatures = []namedChannel{{"CPU", 0}, {"Auxiliary", 1}, {"System", 2}}
	nuvotonTemperatures = []namedChannel{{"CPU Core", 0}, {"CPU", 1}, {"Auxiliary", 2}, {"System", 3}}

	winbondEHFVoltages = join(
		[]voltageChannel{direct("CPU VCore", 0), unlabeled("Voltage #2", 1)},
		[]voltageChannel{divided("AVCC", 2, 34, 34), divided("3VCC", 3, 34, 34)},
		numberedVoltages(4, 6),
		[]voltageChannel{divided("3VSB", 7, 34, 34), divided("VBAT", 8, 34, 34)},
	)
	winbondFiveFans = []namedChannel{
		{"System Fan", 0}, {"CPU Fan", 1}, {"Auxiliary Fan", 2}, {"CPU Fan #2", 3}, {"Auxiliary Fan #2", 4},
	}

	winbondHFVoltages = join(
		[]voltageChannel{direct("CPU VCore", 0)},
		numberedVoltages(1, 2),
		[]voltageChannel{divided("AVCC", 3, 34, 51), unlabeled("Voltage #5", 4)},
		[]voltageChannel{divided("5VSB", 5, 34, 51), direct("VBAT", 6)},
	)
	winbondThreeFans = []namedChannel{{"System Fan", 0}, {"CPU Fan", 1}, {"Auxiliary Fan", 2}}

	iteVoltages = join(
		[]voltageChannel{direct("CPU VCore", 0)},
		numberedVoltages(1, 7),
		[]voltageChannel{direct("VBat", 8)},
	)
	iteLowVoltages = join(
		numberedVoltages(0, 6),
		[]voltageChannel{
			{name: "Standby +3.3V", index: 7, ri: 10, rf: 10, hidden: true},
			divided("VBat", 8, 10, 10),
		},
	)

	f71858Voltages = []voltageChannel{
		divided("VCC3V", 0, 150, 150), divided("VSB3V", 1, 150, 150), divided("Battery", 2, 150, 150),
	}
	fintekVoltages = join(
		[]voltageChannel{divided("VCC3V", 0, 150, 150), direct("CPU VCore", 1)},
		numberedVoltages(2, 6),
		[]voltageChannel{divided("VSB3V", 7, 150, 150), divided("VBat", 8, 150, 150)},
	)
)

// channelsFor returns the channel table for chip, restricted to the
// channel counts the decoder reports.
func channelsFor(chip superio.Chip, voltages, temperatures, fans, controls int) channelTable {
	table := channelTable{
		voltages:     numberedVoltages(0, voltages-1),
		temperatures: numbered("Temperature", temperatures),
		fans:         numbered("Fan", fans),
		controls:     numbered("Fan Control", controls),
	}

	switch chip {
	case superio.IT8712F, superio.IT8716F, superio.IT8718F, superio.IT8720F, superio.IT8726F:
		table.voltages = iteVoltages
	case superio.IT8721F, superio.IT8728F, superio.IT8771E, superio.IT8772E:
		table.voltages = iteLowVoltages
	case superio.F71858:
		table.voltages = f71858Voltages
	case superio.F71862, superio.F71869, superio.F71882, superio.F71889AD, superio.F71889ED, superio.F71889F:
		table.voltages = fintekVoltages
	case superio.W83627EHF:
		table.voltages = join(winbondEHFVoltages, []voltageChannel{unlabeled("Voltage #10", 9)})
		table.temperatures = winbondTemperatures
		table.fans = winbondFiveFans
	case superio.W83627DHG, superio.W83627DHGP, superio.W83667HG, superio.W83667HGB:
		table.voltages = winbondEHFVoltages
		table.temperatures = winbondTemperatures
		table.fans = winbondFiveFans
	case superio.W83627HF, superio.W83627THF, superio.W83687THF:
		table.voltages = winbondHFVoltages
		table.temperatures = winbondTemperatures
		table.fans = winbondThreeFans
	case superio.NCT6771F, superio.NCT6776F:
		table.voltages = winbondEHFVoltages
		table.temperatures = nuvotonTemperatures
	}

	table.voltages = restrictVoltages(table.voltages, voltages)
	table.temperatures = restrict(table.temperatures, temperatures)
	table.fans = restrict(table.fans, fans)
	table.controls = restrict(table.controls, controls)
	return table
}

func restrictVoltages(channels []voltageChannel, count int) []voltageChannel {
	var kept []voltageChannel
	for _, channel := range channels {
		if channel.index < count {
			kept = append(kept, channel)
		}
	}
	return kept
}

func restrict(channels []namedChannel, count int) []namedChannel {
	var kept []namedChannel
	for _, channel := range channels {
		if channel.index < count {
			kept = append(kept, channel)
		}
	}
	return kept
}
