// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package tbalancer

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// serialBridge is a tty configured for 19200 baud 8N1 with RTS/CTS
// flow control. The descriptor is non-blocking; the protocol only
// reads what TIOCINQ reports as buffered.
type serialBridge struct {
	file *os.File
	fd   int
}

func openSerial(path string) (Bridge, error) {
	fd, err := unix.Open(path, unix.O_RDWR|unix.O_NOCTTY|unix.O_NONBLOCK|unix.O_CLOEXEC, 0)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	termios, err := unix.IoctlGetTermios(fd, unix.TCGETS)
	if err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("reading line settings of %s: %w", path, err)
	}
	termios.Iflag = 0
	termios.Oflag = 0
	termios.Lflag = 0
	termios.Cflag = unix.B19200 | unix.CS8 | unix.CREAD | unix.CLOCAL | unix.CRTSCTS
	termios.Ispeed = unix.B19200
	termios.Ospeed = unix.B19200
	termios.Cc[unix.VMIN] = 0
	termios.Cc[unix.VTIME] = 0
	if err := unix.IoctlSetTermios(fd, unix.TCSETS, termios); err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("configuring %s: %w", path, err)
	}
	bridge := &serialBridge{file: os.NewFile(uintptr(fd), path), fd: fd}
	if err := bridge.Purge(); err != nil {
		bridge.Close()
		return nil, err
	}
	return bridge, nil
}

func (b *serialBridge) BytesToRead() (int, error) {
	count, err := unix.IoctlGetInt(b.fd, unix.TIOCINQ)
	if err != nil {
		return 0, fmt.Errorf("TIOCINQ: %w", err)
	}
	return count, nil
}

func (b *serialBridge) Write(data []byte) (int, error)  { return b.file.Write(data) }
func (b *serialBridge) Read(buffer []byte) (int, error) { return b.file.Read(buffer) }

func (b *serialBridge) ReadByte() (byte, error) {
	var buffer [1]byte
	if _, err := b.file.Read(buffer[:]); err != nil {
		return 0, err
	}
	return buffer[0], nil
}

func (b *serialBridge) Purge() error {
	if err := unix.IoctlSetInt(b.fd, unix.TCFLSH, unix.TCIOFLUSH); err != nil {
		return fmt.Errorf("TCFLSH: %w", err)
	}
	return nil
}

func (b *serialBridge) Close() error { return b.file.Close() }
