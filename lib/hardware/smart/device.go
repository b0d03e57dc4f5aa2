// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package smart

import "errors"

// ErrNotSupported is returned by the device opener on platforms
// without ATA pass-through.
var ErrNotSupported = errors.New("smart: ATA pass-through is only available on linux")

// Device reads the SMART tables of one drive.
type Device interface {
	ReadValues() ([]Value, error)
	ReadThresholds() ([]Threshold, error)
	Close() error
}

// Identity is the part of the ATA IDENTIFY DEVICE data shown to the
// user. Empty fields were not reported.
type Identity struct {
	Model    string
	Firmware string
	Serial   string
}

// opener opens the block device at path, enables SMART and returns
// the device together with its identity.
type opener func(path string) (Device, Identity, error)
