// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

//go:build linux

package smart

import (
	"fmt"
	"os"
	"strings"
	"unsafe"

	"golang.org/x/sys/unix"
)

// Legacy IDE ioctls from include/uapi/linux/hdreg.h. libata still
// translates them for SATA disks behind the SCSI layer.
const (
	ioctlHDIOGetIdentity = 0x030D
	ioctlHDIODriveCmd    = 0x031F

	commandSMART = 0xB0

	featureReadValues     = 0xD0
	featureReadThresholds = 0xD1
	featureEnable         = 0xD8
)

// IDENTIFY DEVICE string fields as byte offsets. The kernel returns
// them already swapped into reading order.
const (
	identitySerialOffset   = 20
	identitySerialLength   = 20
	identityFirmwareOffset = 46
	identityFirmwareLength = 8
	identityModelOffset    = 54
	identityModelLength    = 40
)

// ataDevice is an open /dev/sdX.
type ataDevice struct {
	file *os.File
}

func openATADevice(path string) (Device, Identity, error) {
	file, err := os.OpenFile(path, os.O_RDONLY|unix.O_NONBLOCK, 0)
	if err != nil {
		return nil, Identity{}, err
	}
	device := &ataDevice{file: file}

	var identity Identity
	var raw [512]byte
	if err := device.ioctl(ioctlHDIOGetIdentity, unsafe.Pointer(&raw[0])); err == nil {
		identity = Identity{
			Model:    identityString(raw[:], identityModelOffset, identityModelLength),
			Firmware: identityString(raw[:], identityFirmwareOffset, identityFirmwareLength),
			Serial:   identityString(raw[:], identitySerialOffset, identitySerialLength),
		}
	}

	if _, err := device.smartCommand(featureEnable, 1, 0); err != nil {
		file.Close()
		return nil, Identity{}, fmt.Errorf("enabling SMART on %s: %w", path, err)
	}
	return device, identity, nil
}

func identityString(raw []byte, offset, length int) string {
	return strings.TrimSpace(strings.TrimRight(string(raw[offset:offset+length]), "\x00"))
}

func (d *ataDevice) ioctl(request uintptr, argument unsafe.Pointer) error {
	_, _, errno := unix.Syscall(unix.SYS_IOCTL, d.file.Fd(), request, uintptr(argument))
	if errno != 0 {
		return errno
	}
	return nil
}

// smartCommand issues WIN_SMART with the given feature through
// HDIO_DRIVE_CMD. The four-byte header is command, sector number,
// feature and sector count; sectors of data follow it.
func (d *ataDevice) smartCommand(feature, sectorNumber, sectors byte) ([]byte, error) {
	buffer := make([]byte, 4+TableSize*int(sectors))
	buffer[0] = commandSMART
	buffer[1] = sectorNumber
	buffer[2] = feature
	buffer[3] = sectors
	if err := d.ioctl(ioctlHDIODriveCmd, unsafe.Pointer(&buffer[0])); err != nil {
		return nil, fmt.Errorf("SMART feature 0x%02X: %w", feature, err)
	}
	return buffer[4:], nil
}

func (d *ataDevice) ReadValues() ([]Value, error) {
	table, err := d.smartCommand(featureReadValues, 0, 1)
	if err != nil {
		return nil, err
	}
	return ParseValues(table), nil
}

func (d *ataDevice) ReadThresholds() ([]Threshold, error) {
	table, err := d.smartCommand(featureReadThresholds, 1, 1)
	if err != nil {
		return nil, err
	}
	return ParseThresholds(table), nil
}

func (d *ataDevice) Close() error {
	return d.file.Close()
}
