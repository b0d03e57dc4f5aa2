// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package superio

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

const (
	iteVendorID                = 0x90
	iteVendorIDRegister        = 0x58
	iteConfigurationRegister   = 0x00
	iteFanTachometer16BitReg   = 0x0C
	iteFanTachometerDivisorReg = 0x0B
	iteTemperatureBase         = 0x29
	iteVoltageBase             = 0x20
)

var (
	iteFanTachometer    = []byte{0x0D, 0x0E, 0x0F, 0x80, 0x82}
	iteFanTachometerExt = []byte{0x18, 0x19, 0x1A, 0x81, 0x83}
	iteFanPWMControl    = []byte{0x15, 0x16, 0x17}
)

// errAddressEcho reports that the address port did not read back the
// register just selected, so the data port value cannot be trusted.
var errAddressEcho = errors.New("superio: address port did not echo register")

type ite struct {
	chip          Chip
	voltageGain   float64
	fanCount      int
	has16BitFans  bool
	fansDisabled  []bool
	voltageCount  int
	temperatures  int
	controlCount  int
	versionNibble byte
}

func newITE(chip Chip, version byte) *ite {
	i := &ite{
		chip:          chip,
		voltageGain:   0.016,
		fanCount:      5,
		has16BitFans:  true,
		voltageCount:  9,
		temperatures:  3,
		controlCount:  len(iteFanPWMControl),
		versionNibble: version,
	}
	switch chip {
	case IT8721F, IT8728F, IT8771E, IT8772E:
		// 12 mV ADC resolution.
		i.voltageGain = 0.012
	}
	if chip == IT8705F {
		i.fanCount = 3
	}
	// Older revisions lack 16-bit fan counters.
	if (chip == IT8705F && version < 3) || (chip == IT8712F && version < 8) {
		i.has16BitFans = false
	}
	i.fansDisabled = make([]bool, i.fanCount)
	return i
}

func (i *ite) channels() (int, int, int, int) {
	return i.voltageCount, i.temperatures, i.fanCount, i.controlCount
}

// readChecked reads a register and verifies the address port echo.
func (i *ite) readChecked(s *SuperIO, register byte) (byte, error) {
	base := s.detection.Address
	value, err := s.readDirect(register)
	if err != nil {
		return 0, err
	}
	echo, err := s.port.ReadByte(base + addressOffset)
	if err != nil {
		return 0, err
	}
	if echo != register {
		return 0, fmt.Errorf("register 0x%02X: %w", register, errAddressEcho)
	}
	return value, nil
}

func (i *ite) read(s *SuperIO, bank, register byte) (byte, error) {
	return i.readChecked(s, register)
}

func (i *ite) write(s *SuperIO, bank, register, value byte) error {
	if err := s.writeDirect(register, value); err != nil {
		return err
	}
	_, err := s.port.ReadByte(s.detection.Address + addressOffset)
	return err
}

func (i *ite) identify(s *SuperIO) bool {
	vendor, err := i.readChecked(s, iteVendorIDRegister)
	if err != nil || vendor != iteVendorID {
		return false
	}
	// Bit 0x10 of the configuration register is always set.
	config, err := i.readChecked(s, iteConfigurationRegister)
	if err != nil || config&0x10 == 0 {
		return false
	}

	if i.has16BitFans && i.fanCount >= 5 {
		modes, err := i.readChecked(s, iteFanTachometer16BitReg)
		if err != nil {
			return false
		}
		i.fansDisabled[3] = modes&(1<<4) == 0
		i.fansDisabled[4] = modes&(1<<5) == 0
	}
	return true
}

func (i *ite) update(s *SuperIO) {
	for index := range s.voltages {
		raw, err := i.readChecked(s, iteVoltageBase+byte(index))
		if err != nil {
			s.voltages[index] = Reading{}
			continue
		}
		if value := i.voltageGain * float64(raw); value > 0 {
			s.voltages[index] = valid(value)
		} else {
			s.voltages[index] = Reading{}
		}
	}

	for index := range s.temperatures {
		raw, err := i.readChecked(s, iteTemperatureBase+byte(index))
		if err != nil {
			s.temperatures[index] = Reading{}
			continue
		}
		if value := int8(raw); value > 0 && value < math.MaxInt8 {
			s.temperatures[index] = valid(float64(value))
		} else {
			s.temperatures[index] = Reading{}
		}
	}

	if i.has16BitFans {
		i.updateFans16(s)
	} else {
		i.updateFans8(s)
	}

	for index, register := range iteFanPWMControl {
		raw, err := i.readChecked(s, register)
		if err != nil || raw&0x80 != 0 {
			// Bit 7 set means automatic operation; the duty cannot be read.
			s.controls[index] = Reading{}
			continue
		}
		s.controls[index] = valid(math.Round(float64(raw&0x7F) * 100 / 0x7F))
	}
}

func (i *ite) updateFans16(s *SuperIO) {
	for index := range s.fans {
		if i.fansDisabled[index] {
			s.fans[index] = Reading{}
			continue
		}
		low, err := i.readChecked(s, iteFanTachometer[index])
		if err != nil {
			s.fans[index] = Reading{}
			continue
		}
		high, err := i.readChecked(s, iteFanTachometerExt[index])
		if err != nil {
			s.fans[index] = Reading{}
			continue
		}
		count := int(high)<<8 | int(low)
		switch {
		case count <= 0x3F:
			s.fans[index] = Reading{}
		case count < 0xFFFF:
			s.fans[index] = valid(1.35e6 / float64(count*2))
		default:
			s.fans[index] = valid(0)
		}
	}
}

func (i *ite) updateFans8(s *SuperIO) {
	divisors, divisorErr := i.readChecked(s, iteFanTachometerDivisorReg)
	for index := range s.fans {
		count, err := i.readChecked(s, iteFanTachometer[index])
		if err != nil {
			s.fans[index] = Reading{}
			continue
		}
		divisor := 2
		if index < 2 {
			if divisorErr != nil {
				s.fans[index] = Reading{}
				continue
			}
			divisor = 1 << ((divisors >> (3 * index)) & 0x7)
		}
		switch {
		case count == 0:
			s.fans[index] = Reading{}
		case count < 0xFF:
			s.fans[index] = valid(1.35e6 / float64(int(count)*divisor))
		default:
			s.fans[index] = valid(0)
		}
	}
}

func (i *ite) dump(s *SuperIO, builder *strings.Builder) {
	read := func(register byte) (byte, error) { return i.readChecked(s, register) }
	for row := byte(0); row <= 0xA; row++ {
		dumpRow(builder, fmt.Sprintf("%02X", row<<4), read, row)
	}
	fmt.Fprintf(builder, "\nVersion: 0x%X\n", i.versionNibble)
}
