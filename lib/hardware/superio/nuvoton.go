// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package superio

import (
	"fmt"
	"strings"
)

// Nuvoton parts are banked like Winbond but address registers with a
// 16-bit bank<<8 | register value.
const (
	nuvotonVendorIDHigh   = 0x804F
	nuvotonVendorIDLow    = 0x004F
	nuvotonVBatRegister   = 0x0551
	nuvotonVBatMonitorReg = 0x005D
)

var (
	nuvotonVoltages = []uint16{0x20, 0x21, 0x22, 0x23, 0x24, 0x25, 0x26, 0x550, 0x551}

	// Nine physical temperature inputs, each with a source-select
	// register naming what it measures. A half bit of -1 means the
	// input has whole-degree resolution only.
	nuvotonTemperatures       = []uint16{0x027, 0x073, 0x075, 0x077, 0x150, 0x250, 0x62B, 0x62C, 0x62D}
	nuvotonTemperatureHalf    = []uint16{0, 0x074, 0x076, 0x078, 0x151, 0x251, 0x62E, 0x62E, 0x62E}
	nuvotonTemperatureHalfBit = []int{-1, 7, 7, 7, 7, 7, 0, 1, 2}
	nuvotonTemperatureSource  = []uint16{0x621, 0x100, 0x200, 0x300, 0x622, 0x623, 0x624, 0x625, 0x626}

	nuvotonFanRPM = []uint16{0x656, 0x658, 0x65A, 0x65C, 0x65E}
	nuvotonPWMOut = []uint16{0x001, 0x003, 0x011}

	// Rows of the register dump, by 16-bit row address.
	nuvotonDumpRows = []uint16{
		0x000, 0x010, 0x020, 0x030, 0x040, 0x050, 0x060, 0x070,
		0x100, 0x110, 0x120, 0x130, 0x140, 0x150,
		0x200, 0x220, 0x230, 0x240, 0x250,
		0x300, 0x320, 0x330, 0x340,
		0x400, 0x410, 0x420, 0x440, 0x450, 0x460,
		0x500, 0x550,
		0x600, 0x610, 0x620, 0x630, 0x640, 0x650, 0x660, 0x670,
		0xA00, 0xA10, 0xA20, 0xA30, 0xA50, 0xA60, 0xA70,
		0xB00, 0xB10, 0xB20, 0xB30, 0xB50, 0xB60, 0xB70,
		0xC00, 0xC10, 0xC20, 0xC30, 0xC50, 0xC60, 0xC70,
		0xD00, 0xD10, 0xD20, 0xD30, 0xD50, 0xD60,
		0xE00, 0xE10, 0xE20, 0xE30,
		0xF00, 0xF10, 0xF20, 0xF30,
	}
)

// Logical temperature slots, in channel order.
const (
	nuvotonSlotPECI = iota
	nuvotonSlotCPUTIN
	nuvotonSlotAUXTIN
	nuvotonSlotSYSTIN
	nuvotonSlots
)

// nuvotonModel holds what differs between the NCT677x parts: the
// source-select value behind each logical temperature, the fan count,
// and the lowest RPM the fan counter can represent.
type nuvotonModel struct {
	sources   [nuvotonSlots]byte
	fans      int
	minFanRPM int
}

var nuvotonModels = map[Chip]nuvotonModel{
	// 16-bit fan counter: 1.35e6 / 0xFFFF.
	NCT6771F: {sources: [nuvotonSlots]byte{5, 2, 3, 1}, fans: 4, minFanRPM: 20},
	// 13-bit fan counter: 1.35e6 / 0x1FFF.
	NCT6776F: {sources: [nuvotonSlots]byte{12, 2, 3, 1}, fans: 5, minFanRPM: 164},
}

type nuvoton struct {
	chip  Chip
	model nuvotonModel
}

func newNuvoton(chip Chip) *nuvoton { return &nuvoton{chip: chip, model: nuvotonModels[chip]} }

func (n *nuvoton) channels() (int, int, int, int) {
	return len(nuvotonVoltages), nuvotonSlots, n.model.fans, len(nuvotonPWMOut)
}

// slot returns the logical temperature an input routed to source
// feeds, or -1. Source 0 is an unrouted input.
func (n *nuvoton) slot(source byte) int {
	if source == 0 {
		return -1
	}
	for slot, want := range n.model.sources {
		if source == want {
			return slot
		}
	}
	return -1
}

func (n *nuvoton) read16(s *SuperIO, address uint16) (byte, error) {
	return s.readBanked(byte(address>>8), byte(address))
}

func (n *nuvoton) read(s *SuperIO, bank, register byte) (byte, error) {
	return s.readBanked(bank, register)
}

func (n *nuvoton) write(s *SuperIO, bank, register, value byte) error {
	return s.writeBanked(bank, register, value)
}

func (n *nuvoton) identify(s *SuperIO) bool {
	high, err := n.read16(s, nuvotonVendorIDHigh)
	if err != nil {
		return false
	}
	low, err := n.read16(s, nuvotonVendorIDLow)
	if err != nil {
		return false
	}
	return uint16(high)<<8|uint16(low) == winbondVendorID
}

func (n *nuvoton) update(s *SuperIO) {
	for index, address := range nuvotonVoltages {
		raw, err := n.read16(s, address)
		if err != nil {
			s.voltages[index] = Reading{}
			continue
		}
		value := 0.008 * float64(raw)
		ok := value > 0
		if ok && address == nuvotonVBatRegister {
			monitor, err := n.read16(s, nuvotonVBatMonitorReg)
			ok = err == nil && monitor&0x01 != 0
		}
		if ok {
			s.voltages[index] = valid(value)
		} else {
			s.voltages[index] = Reading{}
		}
	}

	// Inputs are walked from last to first so that when two inputs
	// carry the same source the lower-numbered one wins.
	for index := range s.temperatures {
		s.temperatures[index] = Reading{}
	}
	for index := len(nuvotonTemperatures) - 1; index >= 0; index-- {
		source, err := n.read16(s, nuvotonTemperatureSource[index])
		if err != nil {
			continue
		}
		slot := n.slot(source)
		if slot < 0 {
			continue
		}
		s.temperatures[slot] = n.readTemperature(s, index)
	}

	for index := range s.fans {
		s.fans[index] = n.readFan(s, nuvotonFanRPM[index])
	}

	for index, address := range nuvotonPWMOut {
		raw, err := n.read16(s, address)
		if err != nil {
			s.controls[index] = Reading{}
			continue
		}
		s.controls[index] = valid(float64(raw) * 100 / 0xFF)
	}
}

func (n *nuvoton) readTemperature(s *SuperIO, index int) Reading {
	raw, err := n.read16(s, nuvotonTemperatures[index])
	if err != nil {
		return Reading{}
	}
	value := int(int8(raw)) << 1
	if bit := nuvotonTemperatureHalfBit[index]; bit >= 0 {
		half, err := n.read16(s, nuvotonTemperatureHalf[index])
		if err != nil {
			return Reading{}
		}
		value |= int(half>>bit) & 1
	}
	temperature := 0.5 * float64(value)
	if temperature > 125 || temperature < -55 {
		return Reading{}
	}
	return valid(temperature)
}

// readFan returns the fan count as RPM. Counts at or below the
// counter's floor mean the fan is stopped.
func (n *nuvoton) readFan(s *SuperIO, address uint16) Reading {
	high, err := n.read16(s, address)
	if err != nil {
		return Reading{}
	}
	low, err := n.read16(s, address+1)
	if err != nil {
		return Reading{}
	}
	rpm := int(high)<<8 | int(low)
	if rpm <= n.model.minFanRPM {
		return valid(0)
	}
	return valid(float64(rpm))
}

func (n *nuvoton) dump(s *SuperIO, builder *strings.Builder) {
	for _, row := range nuvotonDumpRows {
		bank, base := byte(row>>8), byte(row)
		dumpRow(builder, fmt.Sprintf("%03X", row), func(column byte) (byte, error) {
			return s.readBanked(bank, base|column)
		}, 0)
	}
}
