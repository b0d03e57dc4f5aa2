// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package superio

import (
	"fmt"
	"strings"
)

const (
	fintekVoltageBase       = 0x20
	fintekTemperatureBase   = 0x70
	fintekTemperatureConfig = 0x69
)

var fintekFanTachometer = []byte{0xA0, 0xB0, 0xC0, 0xD0}

// fintek chips carry no vendor ID in the hardware-monitor space; the
// vendor is confirmed in configuration space during detection.
type fintek struct {
	chip Chip
}

func newFintek(chip Chip) *fintek { return &fintek{chip: chip} }

func (f *fintek) channels() (int, int, int, int) {
	voltages, fans := 9, 3
	if f.chip == F71858 {
		voltages = 3
	}
	if f.chip == F71882 || f.chip == F71858 {
		fans = 4
	}
	return voltages, 3, fans, 0
}

func (f *fintek) identify(s *SuperIO) bool { return true }

func (f *fintek) read(s *SuperIO, bank, register byte) (byte, error) {
	return s.readDirect(register)
}

func (f *fintek) write(s *SuperIO, bank, register, value byte) error {
	return s.writeDirect(register, value)
}

func (f *fintek) update(s *SuperIO) {
	for index := range s.voltages {
		raw, err := s.readDirect(fintekVoltageBase + byte(index))
		if err != nil {
			s.voltages[index] = Reading{}
			continue
		}
		s.voltages[index] = valid(0.008 * float64(raw))
	}

	for index := range s.temperatures {
		if f.chip == F71858 {
			s.temperatures[index] = f.readF71858Temperature(s, index)
			continue
		}
		raw, err := s.readDirect(fintekTemperatureBase + byte(2*(index+1)))
		if err != nil {
			s.temperatures[index] = Reading{}
			continue
		}
		if value := int8(raw); value > 0 && value < 127 {
			s.temperatures[index] = valid(float64(value))
		} else {
			s.temperatures[index] = Reading{}
		}
	}

	for index := range s.fans {
		high, err := s.readDirect(fintekFanTachometer[index])
		if err != nil {
			s.fans[index] = Reading{}
			continue
		}
		low, err := s.readDirect(fintekFanTachometer[index] + 1)
		if err != nil {
			s.fans[index] = Reading{}
			continue
		}
		count := int(high)<<8 | int(low)
		switch {
		case count == 0:
			s.fans[index] = Reading{}
		case count < 0x0FFF:
			s.fans[index] = valid(1.5e6 / float64(count))
		default:
			s.fans[index] = valid(0)
		}
	}
}

// readF71858Temperature decodes the 11-bit F71858 format; the table
// mode selects where the sign bit lives.
func (f *fintek) readF71858Temperature(s *SuperIO, index int) Reading {
	config, err := s.readDirect(fintekTemperatureConfig)
	if err != nil {
		return Reading{}
	}
	high, err := s.readDirect(fintekTemperatureBase + byte(2*index))
	if err != nil {
		return Reading{}
	}
	low, err := s.readDirect(fintekTemperatureBase + byte(2*index+1))
	if err != nil {
		return Reading{}
	}
	if high == 0xBB || high == 0xCC {
		return Reading{}
	}

	bits := 0
	switch config & 0x3 {
	case 2:
		bits = int(high&0x80) << 8
	case 3:
		bits = int(low&0x01) << 15
	}
	bits |= int(high) << 7
	bits |= int(low&0xE0) >> 1
	value := int16(uint16(bits) & 0xFFF0)
	return valid(float64(value) / 128)
}

func (f *fintek) dump(s *SuperIO, builder *strings.Builder) {
	for row := byte(0); row <= 0xF; row++ {
		dumpRow(builder, fmt.Sprintf("%02X", row<<4), s.readDirect, row)
	}
}
