// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package superio

import (
	"fmt"
	"math"
	"strings"
)

const (
	winbondVendorID               = 0x5CA3
	winbondVendorIDRegister       = 0x4F
	winbondHighByteBank           = 0x80
	winbondTemperatureSourceReg   = 0x49
	winbondVBatRegister           = 0x51
	winbondVBatBank               = 5
	winbondVBatMonitorRegister    = 0x5D
	winbondVRMConfigRegister      = 0x18
	winbondFanDivisorIncreaseFrom = 192
	winbondFanDivisorDecreaseFrom = 96
)

type bankRegister struct {
	bank     byte
	register byte
}

// Fan tachometer and divisor layout, shared by every Winbond model.
// The five divisor-bit registers are concatenated into one 40-bit word
// (first register most significant); each fan's 3-bit divisor exponent
// is spread over the bit positions below.
var (
	winbondFanTacho       = []bankRegister{{0, 0x28}, {0, 0x29}, {0, 0x2A}, {0, 0x3F}, {5, 0x53}}
	winbondFanBitRegister = []byte{0x47, 0x4B, 0x4C, 0x59, 0x5D}
	winbondFanDivBit0     = []int{36, 38, 30, 8, 10}
	winbondFanDivBit1     = []int{37, 39, 31, 9, 11}
	winbondFanDivBit2     = []int{5, 6, 7, 23, 15}
	winbondTemperatures   = []bankRegister{{1, 0x50}, {2, 0x50}, {0, 0x27}}

	// PWM duty registers, all in bank 0.
	winbondPWMOut   = []byte{0x01, 0x03, 0x11}
	winbondHFPWMOut = []byte{0x5A, 0x5B}
)

type winbond struct {
	chip              Chip
	voltageRegisters  []bankRegister
	voltageGain       float64
	fanCount          int
	pwmRegisters      []byte
	vrmSelectableCore bool
	peci              [3]bool
}

func newWinbond(chip Chip) *winbond {
	w := &winbond{chip: chip, voltageGain: 0.008, fanCount: 5, pwmRegisters: winbondPWMOut}
	switch chip {
	case W83627EHF:
		w.voltageRegisters = []bankRegister{
			{0, 0x20}, {0, 0x21}, {0, 0x22}, {0, 0x23}, {0, 0x24}, {0, 0x25}, {0, 0x26},
			{5, 0x50}, {5, 0x51}, {5, 0x52},
		}
	case W83627DHG, W83627DHGP, W83667HG, W83667HGB:
		w.voltageRegisters = []bankRegister{
			{0, 0x20}, {0, 0x21}, {0, 0x22}, {0, 0x23}, {0, 0x24}, {0, 0x25}, {0, 0x26},
			{5, 0x50}, {5, 0x51},
		}
	case W83627HF, W83627THF, W83687THF:
		w.voltageRegisters = []bankRegister{
			{0, 0x20}, {0, 0x21}, {0, 0x22}, {0, 0x23}, {0, 0x24}, {5, 0x50}, {5, 0x51},
		}
		w.voltageGain = 0.016
		w.fanCount = 3
		w.vrmSelectableCore = true
		switch chip {
		case W83627HF:
			w.pwmRegisters = winbondHFPWMOut
		case W83687THF:
			w.pwmRegisters = nil
		}
	}
	return w
}

func (w *winbond) channels() (int, int, int, int) {
	return len(w.voltageRegisters), len(winbondTemperatures), w.fanCount, len(w.pwmRegisters)
}

func (w *winbond) read(s *SuperIO, bank, register byte) (byte, error) {
	return s.readBanked(bank, register)
}

func (w *winbond) write(s *SuperIO, bank, register, value byte) error {
	return s.writeBanked(bank, register, value)
}

func (w *winbond) identify(s *SuperIO) bool {
	high, err := s.readBanked(winbondHighByteBank, winbondVendorIDRegister)
	if err != nil {
		return false
	}
	low, err := s.readBanked(0, winbondVendorIDRegister)
	if err != nil {
		return false
	}
	if uint16(high)<<8|uint16(low) != winbondVendorID {
		return false
	}

	// Temperature inputs wired to PECI report relative values; exclude
	// them.
	switch w.chip {
	case W83667HG, W83667HGB:
		if flag, err := s.readBanked(0, winbondTemperatureSourceReg); err == nil {
			w.peci[0] = flag&0x04 != 0
			w.peci[1] = flag&0x40 != 0
		}
	case W83627DHG, W83627DHGP:
		if flag, err := s.readBanked(0, winbondTemperatureSourceReg); err == nil {
			w.peci[0] = flag&0x07 != 0
			w.peci[1] = flag&0x70 != 0
		}
	}
	return true
}

func (w *winbond) update(s *SuperIO) {
	for index, location := range w.voltageRegisters {
		s.voltages[index] = w.readVoltage(s, index, location)
	}
	for index, location := range winbondTemperatures {
		s.temperatures[index] = w.readTemperature(s, index, location)
	}
	w.updateFans(s)
	for index, register := range w.pwmRegisters {
		raw, err := s.readBanked(0, register)
		if err != nil {
			s.controls[index] = Reading{}
			continue
		}
		s.controls[index] = valid(math.Round(float64(raw) * 100 / 0xFF))
	}
}

func (w *winbond) readVoltage(s *SuperIO, index int, location bankRegister) Reading {
	if location.bank == winbondVBatBank && location.register == winbondVBatRegister {
		monitor, err := s.readBanked(0, winbondVBatMonitorRegister)
		if err != nil || monitor&0x01 == 0 {
			return Reading{}
		}
		raw, err := s.readBanked(location.bank, location.register)
		if err != nil {
			return Reading{}
		}
		return valid(w.voltageGain * float64(raw))
	}

	raw, err := s.readBanked(location.bank, location.register)
	if err != nil {
		return Reading{}
	}
	value := w.voltageGain * float64(raw)
	if w.vrmSelectableCore && index == 0 {
		vrm, err := s.readBanked(0, winbondVRMConfigRegister)
		if err != nil {
			return Reading{}
		}
		if vrm&0x01 == 0 {
			value = 0.016 * float64(raw) // VRM8
		} else {
			value = 0.00488*float64(raw) + 0.69 // VRM9
		}
	}
	if value <= 0 {
		return Reading{}
	}
	return valid(value)
}

func (w *winbond) readTemperature(s *SuperIO, index int, location bankRegister) Reading {
	raw, err := s.readBanked(location.bank, location.register)
	if err != nil {
		return Reading{}
	}
	value := int(int8(raw)) << 1
	if location.bank > 0 {
		half, err := s.readBanked(location.bank, location.register+1)
		if err != nil {
			return Reading{}
		}
		value |= int(half >> 7)
	}
	temperature := float64(value) / 2
	if temperature > 125 || temperature < -55 || w.peci[index] {
		return Reading{}
	}
	return valid(temperature)
}

// updateFans decodes each tachometer and adjusts the fan divisor so
// the count stays within 96..192, writing back divisor registers that
// changed.
func (w *winbond) updateFans(s *SuperIO) {
	var bits uint64
	for _, register := range winbondFanBitRegister {
		value, err := s.readBanked(0, register)
		if err != nil {
			for index := range s.fans {
				s.fans[index] = Reading{}
			}
			return
		}
		bits = bits<<8 | uint64(value)
	}

	newBits := bits
	for index := 0; index < w.fanCount; index++ {
		location := winbondFanTacho[index]
		count, err := s.readBanked(location.bank, location.register)
		if err != nil {
			s.fans[index] = Reading{}
			continue
		}

		divisorBits := int((bits>>winbondFanDivBit2[index])&1<<2 |
			(bits>>winbondFanDivBit1[index])&1<<1 |
			(bits>>winbondFanDivBit0[index])&1)
		divisor := 1 << divisorBits
		if count < 0xFF {
			s.fans[index] = valid(1.35e6 / float64(int(count)*divisor))
		} else {
			s.fans[index] = valid(0)
		}

		if int(count) > winbondFanDivisorIncreaseFrom && divisorBits < 7 {
			divisorBits++
		}
		if int(count) < winbondFanDivisorDecreaseFrom && divisorBits > 0 {
			divisorBits--
		}
		newBits = setBit(newBits, winbondFanDivBit2[index], divisorBits>>2&1)
		newBits = setBit(newBits, winbondFanDivBit1[index], divisorBits>>1&1)
		newBits = setBit(newBits, winbondFanDivBit0[index], divisorBits&1)
	}

	for index := len(winbondFanBitRegister) - 1; index >= 0; index-- {
		oldByte := byte(bits)
		newByte := byte(newBits)
		bits >>= 8
		newBits >>= 8
		if oldByte == newByte {
			continue
		}
		if err := s.writeBanked(0, winbondFanBitRegister[index], newByte); err != nil {
			s.logger.Debug("writing fan divisor failed",
				"chip", w.chip.Name(), "register", fmt.Sprintf("0x%02X", winbondFanBitRegister[index]), "error", err)
		}
	}
}

func setBit(target uint64, bit int, value int) uint64 {
	mask := uint64(1) << bit
	if value != 0 {
		return target | mask
	}
	return target &^ mask
}

func (w *winbond) dump(s *SuperIO, builder *strings.Builder) {
	readBank := func(bank byte) func(byte) (byte, error) {
		return func(register byte) (byte, error) { return s.readBanked(bank, register) }
	}
	for row := byte(0); row <= 0x7; row++ {
		dumpRow(builder, fmt.Sprintf("%02X", row<<4), readBank(0), row)
	}
	for bank := byte(1); bank <= 5; bank++ {
		fmt.Fprintf(builder, "Bank %d\n", bank)
		dumpRow(builder, "50", readBank(bank), 0x5)
	}
}
