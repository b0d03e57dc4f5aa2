// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package tbalancer

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/bureau-foundation/sensorcore/lib/hwinfo"
)

// ErrNotSupported is returned by the serial opener on platforms
// without termios support.
var ErrNotSupported = errors.New("tbalancer: serial bridges not supported on this platform")

// Bridge is an open USB-serial port.
type Bridge interface {
	// BytesToRead returns the number of received bytes waiting in the
	// input buffer.
	BytesToRead() (int, error)

	Write(data []byte) (int, error)
	ReadByte() (byte, error)

	// Read reads up to len(buffer) buffered bytes.
	Read(buffer []byte) (int, error)

	// Purge discards both the input and output buffers.
	Purge() error

	Close() error
}

// readFull fills buffer from bridge. Callers check BytesToRead first,
// so a short read means the device misbehaved.
func readFull(bridge Bridge, buffer []byte) error {
	for filled := 0; filled < len(buffer); {
		count, err := bridge.Read(buffer[filled:])
		if err != nil {
			return err
		}
		if count == 0 {
			return fmt.Errorf("short read: %d of %d bytes", filled, len(buffer))
		}
		filled += count
	}
	return nil
}

// opener opens the serial device at path with the controller's line
// settings.
type opener func(path string) (Bridge, error)

// The T-Balancer always ships with an FT232BM.
const (
	ftdiDriver    = "ftdi_sio"
	ftdiVendor    = "0403"
	ft232Product  = "6001"
	ft232BMDevice = "0400"
)

// Candidate is a USB-serial port found under
// /sys/bus/usb-serial/devices.
type Candidate struct {
	// Index is the position in enumeration order and becomes the
	// hardware identifier of an adopted controller.
	Index int

	// Name is the tty name, for example ttyUSB0.
	Name string

	// Path is the device node.
	Path string

	Driver    string
	Vendor    string
	Product   string
	BCDDevice string
}

// DeviceType names the bridge chip the way FTDI's device list does.
func (c Candidate) DeviceType() string {
	if c.Driver != ftdiDriver {
		return "unknown (" + c.Driver + ")"
	}
	if c.Product == ft232Product {
		switch c.BCDDevice {
		case ft232BMDevice:
			return "FT232BM"
		case "0200":
			return "FT232AM"
		case "0600":
			return "FT232R"
		}
	}
	return c.Vendor + ":" + c.Product + " rev " + c.BCDDevice
}

func (c Candidate) isFT232BM() bool {
	return c.Driver == ftdiDriver && c.Product == ft232Product && c.BCDDevice == ft232BMDevice
}

// Enumerate lists the USB-serial ports known to the kernel, ordered by
// tty number.
func Enumerate(roots hwinfo.Roots) []Candidate {
	base := roots.SysPath("bus/usb-serial/devices")
	entries, err := os.ReadDir(base)
	if err != nil {
		return nil
	}
	var names []string
	for _, entry := range entries {
		names = append(names, entry.Name())
	}
	sort.Slice(names, func(i, j int) bool { return ttyNumber(names[i]) < ttyNumber(names[j]) })

	candidates := make([]Candidate, 0, len(names))
	for index, name := range names {
		portPath := filepath.Join(base, name)
		candidate := Candidate{
			Index:  index,
			Name:   name,
			Path:   roots.DevPath(name),
			Driver: hwinfo.ReadDriverName(portPath),
		}
		// The port sits below the USB interface, which sits below the
		// USB device carrying the descriptor attributes.
		if resolved, err := filepath.EvalSymlinks(portPath); err == nil {
			usbDevice := filepath.Dir(filepath.Dir(resolved))
			candidate.Vendor = hwinfo.ReadSysfsString(filepath.Join(usbDevice, "idVendor"))
			candidate.Product = hwinfo.ReadSysfsString(filepath.Join(usbDevice, "idProduct"))
			candidate.BCDDevice = hwinfo.ReadSysfsString(filepath.Join(usbDevice, "bcdDevice"))
		}
		candidates = append(candidates, candidate)
	}
	return candidates
}

func ttyNumber(name string) int {
	trimmed := strings.TrimLeftFunc(name, func(r rune) bool { return r < '0' || r > '9' })
	number, err := strconv.Atoi(trimmed)
	if err != nil {
		return -1
	}
	return number
}
