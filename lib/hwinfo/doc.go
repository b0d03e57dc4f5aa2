// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package hwinfo reads the Linux kernel interfaces shared by the
// sensor drivers: sysfs attribute files, hwmon devices, CPU topology,
// cpufreq, and per-processor times from /proc/stat.
//
// Every reader takes its root ([Roots]) as a parameter so tests can
// point at synthetic trees. Missing or unreadable files produce zero
// values or a false ok result rather than errors: a headless VM with
// no hwmon devices is a valid machine whose drivers simply find
// nothing.
//
// # Subpackages
//
//   - hwinfo/amdgpu: AMDGPU_INFO_SENSOR ioctls on render nodes (pure
//     Go, no cgo) for GPU temperature, load, power and clocks.
//   - hwinfo/nvidia: NVIDIA card discovery from sysfs and
//     /proc/driver/nvidia, with temperatures from the card's hwmon
//     directory when the driver exports one.
package hwinfo
