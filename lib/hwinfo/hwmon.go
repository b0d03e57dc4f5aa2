// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package hwinfo

import (
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

// HwmonDevice is one /sys/class/hwmon/hwmonN directory.
type HwmonDevice struct {
	// Path is the hwmon directory.
	Path string

	// Name is the driver-provided chip name ("nct6775", "coretemp").
	Name string
}

// HwmonInput is one <kind>N_input attribute of a hwmon device.
type HwmonInput struct {
	// Index is N, 1-based as the kernel numbers them (fan1, temp1)
	// except voltages, which start at in0.
	Index int

	// Label is the content of <kind>N_label, or "" when absent.
	Label string

	// Raw is the integer read from <kind>N_input: millivolts for in,
	// millidegrees Celsius for temp, RPM for fan, microwatts for power.
	Raw int64
}

// ListHwmon returns every hwmon device under sysRoot ordered by
// directory name. Devices without a name file get an empty Name.
func ListHwmon(sysRoot string) []HwmonDevice {
	base := filepath.Join(sysRoot, "class/hwmon")
	entries, err := os.ReadDir(base)
	if err != nil {
		return nil
	}
	var devices []HwmonDevice
	for _, entry := range entries {
		if !strings.HasPrefix(entry.Name(), "hwmon") {
			continue
		}
		path := filepath.Join(base, entry.Name())
		devices = append(devices, HwmonDevice{
			Path: path,
			Name: ReadSysfsString(filepath.Join(path, "name")),
		})
	}
	sort.Slice(devices, func(i, j int) bool {
		return hwmonNumber(devices[i].Path) < hwmonNumber(devices[j].Path)
	})
	return devices
}

func hwmonNumber(path string) int {
	number, err := strconv.Atoi(strings.TrimPrefix(filepath.Base(path), "hwmon"))
	if err != nil {
		return -1
	}
	return number
}

// DeviceHwmonDirectories returns the hwmon directories below a device
// directory (for example a DRM card's device/hwmon/hwmonN).
func DeviceHwmonDirectories(devicePath string) []string {
	base := filepath.Join(devicePath, "hwmon")
	entries, err := os.ReadDir(base)
	if err != nil {
		return nil
	}
	var directories []string
	for _, entry := range entries {
		if strings.HasPrefix(entry.Name(), "hwmon") {
			directories = append(directories, filepath.Join(base, entry.Name()))
		}
	}
	sort.Strings(directories)
	return directories
}

// ReadHwmonInputs reads every <kind>N_input file of a hwmon directory,
// ordered by N. Unreadable inputs are skipped; sensors that vanish
// between probe and update surface as absent readings in the caller.
func ReadHwmonInputs(directory, kind string) []HwmonInput {
	entries, err := os.ReadDir(directory)
	if err != nil {
		return nil
	}
	var inputs []HwmonInput
	for _, entry := range entries {
		name := entry.Name()
		if !strings.HasPrefix(name, kind) || !strings.HasSuffix(name, "_input") {
			continue
		}
		index, err := strconv.Atoi(strings.TrimSuffix(strings.TrimPrefix(name, kind), "_input"))
		if err != nil {
			continue
		}
		raw, ok := ReadSysfsInt64Checked(filepath.Join(directory, name))
		if !ok {
			continue
		}
		inputs = append(inputs, HwmonInput{
			Index: index,
			Label: ReadSysfsString(filepath.Join(directory, kind+strconv.Itoa(index)+"_label")),
			Raw:   raw,
		})
	}
	sort.Slice(inputs, func(i, j int) bool { return inputs[i].Index < inputs[j].Index })
	return inputs
}

// ReadHwmonInput reads one <kind>N_input file.
func ReadHwmonInput(directory, kind string, index int) (int64, bool) {
	return ReadSysfsInt64Checked(filepath.Join(directory, kind+strconv.Itoa(index)+"_input"))
}
