// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package cpu exposes each CPU package as a hardware node with load,
// clock and temperature sensors.
//
// Load is the change in per-processor idle time between two samples
// divided by the change in total time, averaged over a core's logical
// processors. Samples come from a [Sampler]: gopsutil by default, or
// a direct /proc/stat reader. Clocks come from cpufreq and the package
// temperature from the coretemp or k10temp hwmon driver.
package cpu
