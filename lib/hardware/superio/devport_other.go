// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

//go:build !linux

package superio

import (
	"errors"
	"fmt"
)

// DevPort is only implemented on Linux.
type DevPort struct{}

// OpenDevPort always fails on this platform.
func OpenDevPort(path string) (*DevPort, error) {
	return nil, fmt.Errorf("opening %s: %w", path, errors.ErrUnsupported)
}

func (d *DevPort) ReadByte(port uint16) (byte, error)      { return 0, errors.ErrUnsupported }
func (d *DevPort) WriteByte(port uint16, value byte) error { return errors.ErrUnsupported }
func (d *DevPort) Close() error                            { return nil }
