// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package superio

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/bureau-foundation/sensorcore/lib/clock"
)

// Configuration-space registers common to all supported vendors.
const (
	configControlRegister = 0x02
	deviceSelectRegister  = 0x07
	chipIDRegister        = 0x20
	chipRevisionRegister  = 0x21
	iteVersionRegister    = 0x22
	fintekVendorIDReg     = 0x23
	baseAddressRegister   = 0x60

	fintekVendorID = 0x1934

	winbondHardwareMonitorLDN = 0x0B
	fintekHardwareMonitorLDN  = 0x04
	f71858HardwareMonitorLDN  = 0x02
	iteEnvironmentLDN         = 0x04

	winbondExitKey = 0xAA

	// baseAddressSettle separates the two base-address reads used to
	// reject an address that is still being programmed.
	baseAddressSettle = time.Millisecond
)

// ConfigPorts are the index ports probed by Detect. The data port is
// the index port plus one.
var ConfigPorts = []uint16{0x2E, 0x4E}

// configSpace addresses the configuration registers behind one index
// port.
type configSpace struct {
	port  Port
	index uint16
}

func (c configSpace) key(sequence ...byte) error {
	for _, value := range sequence {
		if err := c.port.WriteByte(c.index, value); err != nil {
			return err
		}
	}
	return nil
}

// leave runs an exit sequence. A chip that misses it stays in
// configuration mode until the next entry key.
func (c configSpace) leave(logger *slog.Logger, exit func() error) {
	if err := exit(); err != nil {
		logger.Debug("leaving super-i/o configuration mode failed",
			"port", fmt.Sprintf("0x%02X", c.index), "error", err)
	}
}

func (c configSpace) read(register byte) (byte, error) {
	if err := c.port.WriteByte(c.index, register); err != nil {
		return 0, err
	}
	return c.port.ReadByte(c.index + 1)
}

func (c configSpace) write(register, value byte) error {
	if err := c.port.WriteByte(c.index, register); err != nil {
		return err
	}
	return c.port.WriteByte(c.index+1, value)
}

// readWord reads register (high byte) and register+1 (low byte).
func (c configSpace) readWord(register byte) (uint16, error) {
	high, err := c.read(register)
	if err != nil {
		return 0, err
	}
	low, err := c.read(register + 1)
	if err != nil {
		return 0, err
	}
	return uint16(high)<<8 | uint16(low), nil
}

func (c configSpace) selectDevice(ldn byte) error {
	return c.write(deviceSelectRegister, ldn)
}

// Detect probes the standard configuration ports and returns every
// chip whose identity and hardware-monitor base address check out.
// Failures are logged at debug and skipped.
func Detect(port Port, clk clock.Clock, logger *slog.Logger) []Detection {
	var detections []Detection
	for _, index := range ConfigPorts {
		space := configSpace{port: port, index: index}

		detection, found, err := detectWinbondFintek(space, clk, logger)
		if err != nil {
			logger.Debug("winbond/fintek probe failed", "port", fmt.Sprintf("0x%02X", index), "error", err)
		}
		if found {
			detections = append(detections, detection)
			continue
		}

		detection, found, err = detectITE(space, clk, logger)
		if err != nil {
			logger.Debug("ite probe failed", "port", fmt.Sprintf("0x%02X", index), "error", err)
		}
		if found {
			detections = append(detections, detection)
		}
	}
	return detections
}

// identifyWinbondFintek maps a chip ID and revision to a model and its
// hardware-monitor logical device number.
func identifyWinbondFintek(id, revision byte) (Chip, byte) {
	switch id {
	case 0x05:
		switch revision {
		case 0x07:
			return F71858, f71858HardwareMonitorLDN
		case 0x41:
			return F71882, fintekHardwareMonitorLDN
		}
	case 0x06:
		if revision == 0x01 {
			return F71862, fintekHardwareMonitorLDN
		}
	case 0x07:
		if revision == 0x23 {
			return F71889F, fintekHardwareMonitorLDN
		}
	case 0x08:
		if revision == 0x14 {
			return F71869, fintekHardwareMonitorLDN
		}
	case 0x09:
		if revision == 0x09 {
			return F71889ED, fintekHardwareMonitorLDN
		}
	case 0x10:
		if revision == 0x05 {
			return F71889AD, fintekHardwareMonitorLDN
		}
	case 0x52:
		switch revision {
		case 0x17, 0x3A, 0x41:
			return W83627HF, winbondHardwareMonitorLDN
		}
	case 0x82:
		if revision&0xF0 == 0x80 {
			return W83627THF, winbondHardwareMonitorLDN
		}
	case 0x85:
		if revision == 0x41 {
			return W83687THF, winbondHardwareMonitorLDN
		}
	case 0x88:
		switch revision & 0xF0 {
		case 0x50, 0x60:
			return W83627EHF, winbondHardwareMonitorLDN
		}
	case 0xA0:
		if revision&0xF0 == 0x20 {
			return W83627DHG, winbondHardwareMonitorLDN
		}
	case 0xA5:
		if revision&0xF0 == 0x10 {
			return W83667HG, winbondHardwareMonitorLDN
		}
	case 0xB0:
		if revision&0xF0 == 0x70 {
			return W83627DHGP, winbondHardwareMonitorLDN
		}
	case 0xB3:
		if revision&0xF0 == 0x50 {
			return W83667HGB, winbondHardwareMonitorLDN
		}
	case 0xB4:
		if revision&0xF0 == 0x70 {
			return NCT6771F, winbondHardwareMonitorLDN
		}
	case 0xC3:
		if revision&0xF0 == 0x30 {
			return NCT6776F, winbondHardwareMonitorLDN
		}
	}
	return Unknown, 0
}

func detectWinbondFintek(space configSpace, clk clock.Clock, logger *slog.Logger) (Detection, bool, error) {
	if err := space.key(0x87, 0x87); err != nil {
		return Detection{}, false, err
	}
	defer space.leave(logger, func() error { return space.key(winbondExitKey) })

	id, err := space.read(chipIDRegister)
	if err != nil {
		return Detection{}, false, err
	}
	revision, err := space.read(chipRevisionRegister)
	if err != nil {
		return Detection{}, false, err
	}
	chip, ldn := identifyWinbondFintek(id, revision)
	if chip == Unknown {
		if id != 0 && id != 0xFF {
			logger.Debug("unknown super-i/o chip",
				"port", fmt.Sprintf("0x%02X", space.index),
				"id", fmt.Sprintf("0x%02X", id),
				"revision", fmt.Sprintf("0x%02X", revision))
		}
		return Detection{}, false, nil
	}

	if err := space.selectDevice(ldn); err != nil {
		return Detection{}, false, err
	}
	address, err := space.readWord(baseAddressRegister)
	if err != nil {
		return Detection{}, false, err
	}
	clk.Sleep(baseAddressSettle)
	verify, err := space.readWord(baseAddressRegister)
	if err != nil {
		return Detection{}, false, err
	}

	var vendor uint16
	if chip.Family() == FamilyFintek {
		if vendor, err = space.readWord(fintekVendorIDReg); err != nil {
			return Detection{}, false, err
		}
	}

	if address != verify {
		logger.Debug("super-i/o base address unstable", "chip", chip.Name(),
			"address", fmt.Sprintf("0x%04X", address), "verify", fmt.Sprintf("0x%04X", verify))
		return Detection{}, false, nil
	}
	// Some Fintek parts report the address with the 0x05 register
	// offset already added.
	if address&0x07 == 0x05 {
		address &= 0xFFF8
	}
	if address < 0x100 || address&0xF007 != 0 {
		logger.Debug("super-i/o base address invalid", "chip", chip.Name(),
			"address", fmt.Sprintf("0x%04X", address))
		return Detection{}, false, nil
	}
	if chip.Family() == FamilyFintek && vendor != fintekVendorID {
		logger.Debug("fintek vendor id mismatch", "chip", chip.Name(),
			"vendor", fmt.Sprintf("0x%04X", vendor))
		return Detection{}, false, nil
	}

	return Detection{Chip: chip, Revision: revision, Address: address, ConfigPort: space.index}, true, nil
}

func detectITE(space configSpace, clk clock.Clock, logger *slog.Logger) (Detection, bool, error) {
	last := byte(0x55)
	if space.index == 0x4E {
		last = 0xAA
	}
	if err := space.key(0x87, 0x01, 0x55, last); err != nil {
		return Detection{}, false, err
	}
	defer space.leave(logger, func() error { return space.write(configControlRegister, 0x02) })

	id, err := space.readWord(chipIDRegister)
	if err != nil {
		return Detection{}, false, err
	}
	chip := Chip(id)
	if chip.Family() != FamilyITE {
		return Detection{}, false, nil
	}

	if err := space.selectDevice(iteEnvironmentLDN); err != nil {
		return Detection{}, false, err
	}
	address, err := space.readWord(baseAddressRegister)
	if err != nil {
		return Detection{}, false, err
	}
	clk.Sleep(baseAddressSettle)
	verify, err := space.readWord(baseAddressRegister)
	if err != nil {
		return Detection{}, false, err
	}
	version, err := space.read(iteVersionRegister)
	if err != nil {
		return Detection{}, false, err
	}

	if address != verify || address == 0 || address&0xF007 != 0 {
		logger.Debug("ite base address invalid", "chip", chip.Name(),
			"address", fmt.Sprintf("0x%04X", address), "verify", fmt.Sprintf("0x%04X", verify))
		return Detection{}, false, nil
	}
	return Detection{Chip: chip, Revision: version & 0x0F, Address: address, ConfigPort: space.index}, true, nil
}
