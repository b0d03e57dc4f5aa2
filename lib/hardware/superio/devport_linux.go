// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

//go:build linux

package superio

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// DevPort accesses the I/O port space through /dev/port, where the
// file offset is the port number. It needs CAP_SYS_RAWIO.
type DevPort struct {
	fd   int
	path string
}

// OpenDevPort opens the port device at path (normally /dev/port).
func OpenDevPort(path string) (*DevPort, error) {
	fd, err := unix.Open(path, unix.O_RDWR|unix.O_CLOEXEC, 0)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	return &DevPort{fd: fd, path: path}, nil
}

func (d *DevPort) ReadByte(port uint16) (byte, error) {
	var buffer [1]byte
	count, err := unix.Pread(d.fd, buffer[:], int64(port))
	if err != nil {
		return 0, fmt.Errorf("reading port 0x%04X: %w", port, err)
	}
	if count != 1 {
		return 0, fmt.Errorf("reading port 0x%04X: short read", port)
	}
	return buffer[0], nil
}

func (d *DevPort) WriteByte(port uint16, value byte) error {
	count, err := unix.Pwrite(d.fd, []byte{value}, int64(port))
	if err != nil {
		return fmt.Errorf("writing port 0x%04X: %w", port, err)
	}
	if count != 1 {
		return fmt.Errorf("writing port 0x%04X: short write", port)
	}
	return nil
}

func (d *DevPort) Close() error {
	if d.fd < 0 {
		return nil
	}
	err := unix.Close(d.fd)
	d.fd = -1
	return err
}
