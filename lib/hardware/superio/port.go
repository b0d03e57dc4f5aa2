// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package superio

import (
	"errors"
	"fmt"
	"sync"
)

// Port is byte-wide access to the I/O port space. Implementations are
// not required to be safe for concurrent use; callers serialize port
// transactions that span several accesses.
type Port interface {
	ReadByte(port uint16) (byte, error)
	WriteByte(port uint16, value byte) error
	Close() error
}

// ErrPortFault is returned by MemoryPort for ports marked faulty.
var ErrPortFault = errors.New("superio: port fault")

// floatingBus is what an unclaimed ISA port reads as.
const floatingBus = 0xFF

// MemoryPort simulates the I/O port space. Plain ports keep the last
// byte written and read 0xFF until written. Ports claimed by a
// simulated configuration space or hardware monitor route through that
// device. MemoryPort is safe for concurrent use.
type MemoryPort struct {
	mu       sync.Mutex
	ports    map[uint16]byte
	faulty   map[uint16]bool
	configs  map[uint16]*SimulatedConfig
	monitors map[uint16]*SimulatedMonitor
	writes   int
	closed   bool
}

// NewMemoryPort returns an empty simulated port space.
func NewMemoryPort() *MemoryPort {
	return &MemoryPort{
		ports:    make(map[uint16]byte),
		faulty:   make(map[uint16]bool),
		configs:  make(map[uint16]*SimulatedConfig),
		monitors: make(map[uint16]*SimulatedMonitor),
	}
}

// AttachConfig claims the index port and index+1 for a simulated
// Super-I/O configuration space.
func (m *MemoryPort) AttachConfig(indexPort uint16, config *SimulatedConfig) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.configs[indexPort] = config
}

// AttachMonitor claims base+5 (address) and base+6 (data) for a
// simulated hardware monitor.
func (m *MemoryPort) AttachMonitor(base uint16, monitor *SimulatedMonitor) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.monitors[base+addressOffset] = monitor
}

// SetFaulty makes every access to port fail with ErrPortFault.
func (m *MemoryPort) SetFaulty(port uint16, faulty bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.faulty[port] = faulty
}

// Writes returns the number of successful WriteByte calls so far.
func (m *MemoryPort) Writes() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.writes
}

func (m *MemoryPort) ReadByte(port uint16) (byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.checkLocked(port); err != nil {
		return 0, err
	}
	if config, ok := m.configs[port]; ok {
		return config.index, nil
	}
	if config, ok := m.configs[port-1]; ok {
		return config.read(), nil
	}
	if monitor, ok := m.monitors[port]; ok {
		if monitor.StuckAddress {
			return floatingBus, nil
		}
		return monitor.selected, nil
	}
	if monitor, ok := m.monitors[port-1]; ok {
		return monitor.read(), nil
	}
	if value, ok := m.ports[port]; ok {
		return value, nil
	}
	return floatingBus, nil
}

func (m *MemoryPort) WriteByte(port uint16, value byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.checkLocked(port); err != nil {
		return err
	}
	m.writes++
	switch {
	case m.configs[port] != nil:
		m.configs[port].writeIndex(value)
	case m.configs[port-1] != nil:
		m.configs[port-1].writeData(value)
	case m.monitors[port] != nil:
		m.monitors[port].selected = value
	case m.monitors[port-1] != nil:
		m.monitors[port-1].write(value)
	default:
		m.ports[port] = value
	}
	return nil
}

func (m *MemoryPort) checkLocked(port uint16) error {
	if m.closed {
		return fmt.Errorf("superio: port 0x%04X: %w", port, errors.ErrUnsupported)
	}
	if m.faulty[port] {
		return fmt.Errorf("port 0x%04X: %w", port, ErrPortFault)
	}
	return nil
}

// Close marks the port space closed; later accesses fail.
func (m *MemoryPort) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// SimulatedConfig is the configuration space of a simulated chip. It
// only answers once the entry key has been written to its index port.
type SimulatedConfig struct {
	// Key is the entry sequence, for example 0x87 0x87 for Winbond.
	Key []byte
	// Global holds registers below 0x30, including the chip ID at 0x20.
	Global map[byte]byte
	// Logical holds per-logical-device registers, keyed by LDN.
	Logical map[byte]map[byte]byte

	index   byte
	entered bool
	history []byte
	device  byte
}

func (c *SimulatedConfig) writeIndex(value byte) {
	c.history = append(c.history, value)
	if len(c.history) > len(c.Key) {
		c.history = c.history[len(c.history)-len(c.Key):]
	}
	if len(c.history) == len(c.Key) && string(c.history) == string(c.Key) {
		c.entered = true
		c.history = nil
		return
	}
	if c.entered && value == 0xAA {
		c.entered = false
		return
	}
	c.index = value
}

func (c *SimulatedConfig) writeData(value byte) {
	if !c.entered {
		return
	}
	switch {
	case c.index == deviceSelectRegister:
		c.device = value
	case c.index == configControlRegister && value == 0x02:
		c.entered = false
	case c.index < 0x30:
		if c.Global == nil {
			c.Global = make(map[byte]byte)
		}
		c.Global[c.index] = value
	default:
		if c.Logical == nil {
			c.Logical = make(map[byte]map[byte]byte)
		}
		if c.Logical[c.device] == nil {
			c.Logical[c.device] = make(map[byte]byte)
		}
		c.Logical[c.device][c.index] = value
	}
}

func (c *SimulatedConfig) read() byte {
	if !c.entered {
		return floatingBus
	}
	if c.index == deviceSelectRegister {
		return c.device
	}
	if c.index < 0x30 {
		if value, ok := c.Global[c.index]; ok {
			return value
		}
		return floatingBus
	}
	if value, ok := c.Logical[c.device][c.index]; ok {
		return value
	}
	return floatingBus
}

// SimulatedMonitor is the register file of a simulated hardware
// monitor. Banked monitors interpret writes to register 0x4E as a bank
// selection and key Registers by bank<<8 | register; unbanked monitors
// key by register alone.
type SimulatedMonitor struct {
	Banked    bool
	Registers map[uint16]byte

	// StuckAddress makes the address port read 0xFF instead of the
	// selected register. ITE decoders treat that as an invalid read.
	StuckAddress bool

	selected byte
	bank     byte
}

func (s *SimulatedMonitor) key(register byte) uint16 {
	if s.Banked {
		return uint16(s.bank)<<8 | uint16(register)
	}
	return uint16(register)
}

func (s *SimulatedMonitor) read() byte {
	if s.Banked && s.selected == bankSelectRegister {
		return s.bank
	}
	return s.Registers[s.key(s.selected)]
}

func (s *SimulatedMonitor) write(value byte) {
	if s.Banked && s.selected == bankSelectRegister {
		s.bank = value
		return
	}
	if s.Registers == nil {
		s.Registers = make(map[uint16]byte)
	}
	s.Registers[s.key(s.selected)] = value
}
