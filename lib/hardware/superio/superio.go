// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package superio

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
)

// Hardware-monitor port offsets relative to the base address, and the
// bank select register of banked chips.
const (
	addressOffset      = 0x05
	dataOffset         = 0x06
	bankSelectRegister = 0x4E
)

// ErrUnavailable is returned by register access on a decoder whose
// chip failed identification.
var ErrUnavailable = errors.New("superio: chip unavailable")

// Reading is one decoded channel. Valid is false when the channel has
// no reading this cycle.
type Reading struct {
	Value float64
	Valid bool
}

func valid(value float64) Reading { return Reading{Value: value, Valid: true} }

// Detection describes one chip found by Detect.
type Detection struct {
	Chip       Chip
	Revision   byte
	Address    uint16
	ConfigPort uint16
}

// decoder is the per-family part of a SuperIO: register access,
// identification, channel decode and register dump. Implementations
// hold the immutable decode table of one chip model.
type decoder interface {
	identify(s *SuperIO) bool
	channels() (voltages, temperatures, fans, controls int)
	update(s *SuperIO)
	read(s *SuperIO, bank, register byte) (byte, error)
	write(s *SuperIO, bank, register, value byte) error
	dump(s *SuperIO, builder *strings.Builder)
}

// SuperIO decodes the hardware monitor of one chip.
type SuperIO struct {
	detection Detection
	port      Port
	lock      sync.Locker
	logger    *slog.Logger
	decoder   decoder
	available bool

	voltages     []Reading
	temperatures []Reading
	fans         []Reading
	controls     []Reading
}

// New binds a decoder to a detected chip and runs its identification.
// lock serializes port transactions with other users of the same port
// and may be shared between chips. A chip that fails identification is
// returned with Available false and no channels.
func New(port Port, lock sync.Locker, detection Detection, logger *slog.Logger) *SuperIO {
	s := &SuperIO{
		detection: detection,
		port:      port,
		lock:      lock,
		logger:    logger,
	}
	switch detection.Chip.Family() {
	case FamilyWinbond:
		s.decoder = newWinbond(detection.Chip)
	case FamilyNuvoton:
		s.decoder = newNuvoton(detection.Chip)
	case FamilyITE:
		s.decoder = newITE(detection.Chip, detection.Revision)
	case FamilyFintek:
		s.decoder = newFintek(detection.Chip)
	default:
		logger.Debug("no decoder for super-i/o chip", "chip", fmt.Sprintf("0x%04X", uint16(detection.Chip)))
		return s
	}

	s.lock.Lock()
	s.available = s.decoder.identify(s)
	s.lock.Unlock()
	if !s.available {
		logger.Debug("super-i/o chip failed identification",
			"chip", detection.Chip.Name(),
			"address", fmt.Sprintf("0x%04X", detection.Address))
		return s
	}

	voltages, temperatures, fans, controls := s.decoder.channels()
	s.voltages = make([]Reading, voltages)
	s.temperatures = make([]Reading, temperatures)
	s.fans = make([]Reading, fans)
	s.controls = make([]Reading, controls)
	return s
}

func (s *SuperIO) Chip() Chip           { return s.detection.Chip }
func (s *SuperIO) Revision() byte       { return s.detection.Revision }
func (s *SuperIO) Address() uint16      { return s.detection.Address }
func (s *SuperIO) Detection() Detection { return s.detection }

// Available reports whether the chip passed identification.
func (s *SuperIO) Available() bool { return s.available }

// Voltages returns the decoded voltages of the last Update, in volts
// at the chip pin (before any external divider).
func (s *SuperIO) Voltages() []Reading { return clone(s.voltages) }

// Temperatures returns the decoded temperatures in °C.
func (s *SuperIO) Temperatures() []Reading { return clone(s.temperatures) }

// Fans returns the decoded fan speeds in RPM.
func (s *SuperIO) Fans() []Reading { return clone(s.fans) }

// Controls returns PWM duty cycles in percent. Channels under
// automatic chip control have no reading.
func (s *SuperIO) Controls() []Reading { return clone(s.controls) }

func clone(readings []Reading) []Reading {
	return append([]Reading(nil), readings...)
}

// Update re-reads every channel. Port errors leave the affected
// channel without a reading for this cycle.
func (s *SuperIO) Update() {
	if !s.available {
		return
	}
	s.lock.Lock()
	defer s.lock.Unlock()
	s.decoder.update(s)
}

// ReadRegister reads one hardware-monitor register. bank is ignored by
// unbanked chips (ITE, Fintek).
func (s *SuperIO) ReadRegister(bank, register byte) (byte, error) {
	if s.decoder == nil || !s.available {
		return 0, ErrUnavailable
	}
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.decoder.read(s, bank, register)
}

// WriteRegister writes one hardware-monitor register.
func (s *SuperIO) WriteRegister(bank, register, value byte) error {
	if s.decoder == nil || !s.available {
		return ErrUnavailable
	}
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.decoder.write(s, bank, register, value)
}

// Report returns the chip identity followed by a register dump.
func (s *SuperIO) Report() string {
	var builder strings.Builder
	fmt.Fprintf(&builder, "LPC %s\n\n", s.detection.Chip.Name())
	fmt.Fprintf(&builder, "Chip ID: 0x%X\n", uint16(s.detection.Chip))
	fmt.Fprintf(&builder, "Chip Revision: 0x%X\n", s.detection.Revision)
	fmt.Fprintf(&builder, "Base Address: 0x%04X\n", s.detection.Address)
	fmt.Fprintf(&builder, "Available: %t\n\n", s.available)
	if !s.available {
		return builder.String()
	}

	s.lock.Lock()
	defer s.lock.Unlock()
	builder.WriteString("Hardware Monitor Registers\n\n")
	builder.WriteString("      00 01 02 03 04 05 06 07 08 09 0A 0B 0C 0D 0E 0F\n\n")
	s.decoder.dump(s, &builder)
	builder.WriteString("\n")
	return builder.String()
}

// dumpRow writes one 16-register row. Unreadable registers print as ??.
func dumpRow(builder *strings.Builder, label string, read func(register byte) (byte, error), row byte) {
	fmt.Fprintf(builder, " %s  ", label)
	for column := byte(0); column <= 0x0F; column++ {
		value, err := read(row<<4 | column)
		if err != nil {
			builder.WriteString(" ??")
			continue
		}
		fmt.Fprintf(builder, " %02X", value)
	}
	builder.WriteString("\n")
}

// Banked access (Winbond, Nuvoton): select the bank through register
// 0x4E, then address the register. Four port accesses per read.
func (s *SuperIO) readBanked(bank, register byte) (byte, error) {
	base := s.detection.Address
	if err := s.port.WriteByte(base+addressOffset, bankSelectRegister); err != nil {
		return 0, err
	}
	if err := s.port.WriteByte(base+dataOffset, bank); err != nil {
		return 0, err
	}
	if err := s.port.WriteByte(base+addressOffset, register); err != nil {
		return 0, err
	}
	return s.port.ReadByte(base + dataOffset)
}

func (s *SuperIO) writeBanked(bank, register, value byte) error {
	base := s.detection.Address
	if err := s.port.WriteByte(base+addressOffset, bankSelectRegister); err != nil {
		return err
	}
	if err := s.port.WriteByte(base+dataOffset, bank); err != nil {
		return err
	}
	if err := s.port.WriteByte(base+addressOffset, register); err != nil {
		return err
	}
	return s.port.WriteByte(base+dataOffset, value)
}

// Unbanked access (ITE, Fintek).
func (s *SuperIO) readDirect(register byte) (byte, error) {
	base := s.detection.Address
	if err := s.port.WriteByte(base+addressOffset, register); err != nil {
		return 0, err
	}
	return s.port.ReadByte(base + dataOffset)
}

func (s *SuperIO) writeDirect(register, value byte) error {
	base := s.detection.Address
	if err := s.port.WriteByte(base+addressOffset, register); err != nil {
		return err
	}
	return s.port.WriteByte(base+dataOffset, value)
}
