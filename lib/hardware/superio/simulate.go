// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package superio

// SimulatedBoardAddress is the hardware-monitor base address of the
// chip in NewSimulatedBoard.
const SimulatedBoardAddress = 0x290

// NewSimulatedBoard returns a port space holding a Winbond W83627DHG
// behind config port 0x2E, monitoring an idle desktop: two spinning
// fans, three PWM outputs, three temperature inputs and nine voltage
// inputs. It backs the
// --simulate mode of the command-line tools and the decoder tests.
func NewSimulatedBoard() *MemoryPort {
	port := NewMemoryPort()
	port.AttachConfig(0x2E, &SimulatedConfig{
		Key:    []byte{0x87, 0x87},
		Global: map[byte]byte{chipIDRegister: 0xA0, chipRevisionRegister: 0x23},
		Logical: map[byte]map[byte]byte{
			winbondHardwareMonitorLDN: {
				baseAddressRegister:     SimulatedBoardAddress >> 8,
				baseAddressRegister + 1: SimulatedBoardAddress & 0xFF,
			},
		},
	})
	port.AttachMonitor(SimulatedBoardAddress, &SimulatedMonitor{
		Banked: true,
		Registers: map[uint16]byte{
			// Vendor ID, and no PECI temperature inputs.
			0x804F: 0x5C, 0x004F: 0xA3, 0x0049: 0x00,

			0x0020: 0x8C, 0x0021: 0x7E, 0x0022: 0xCE, 0x0023: 0xCF,
			0x0024: 0x6A, 0x0025: 0x8B, 0x0026: 0x77,
			0x0550: 0xCD, 0x0551: 0xBE, 0x005D: 0x01,

			0x0150: 0x2A, 0x0151: 0x80, 0x0250: 0x21, 0x0027: 0x26,

			// Divisor 8 on every fan; fans 3 to 5 are not connected.
			0x0047: 0xF0, 0x004B: 0xC0, 0x004C: 0x00, 0x0059: 0x0F,
			0x0028: 0x9C, 0x0029: 0x78, 0x002A: 0xFF, 0x003F: 0xFF, 0x0553: 0xFF,

			// PWM duty 50%, 100% and 30%.
			0x0001: 0x80, 0x0003: 0xFF, 0x0011: 0x4D,
		},
	})
	return port
}
