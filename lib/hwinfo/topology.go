// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package hwinfo

import (
	"bufio"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

// LogicalProcessor places one kernel CPU (cpuN) in the physical
// hierarchy.
type LogicalProcessor struct {
	ID        int
	PackageID int
	CoreID    int
}

// ReadTopology returns every logical processor under
// sysRoot/devices/system/cpu ordered by ID. A processor without
// topology files is treated as its own core on package 0, which is
// what single-core VMs without topology export look like.
func ReadTopology(sysRoot string) []LogicalProcessor {
	cpuBase := filepath.Join(sysRoot, "devices/system/cpu")
	entries, err := os.ReadDir(cpuBase)
	if err != nil {
		return nil
	}

	var processors []LogicalProcessor
	for _, entry := range entries {
		id, ok := processorNumber(entry.Name())
		if !ok {
			continue
		}
		topologyDir := filepath.Join(cpuBase, entry.Name(), "topology")
		processor := LogicalProcessor{ID: id, CoreID: id}
		if value, ok := ReadSysfsInt64Checked(filepath.Join(topologyDir, "physical_package_id")); ok {
			processor.PackageID = int(value)
		}
		if value, ok := ReadSysfsInt64Checked(filepath.Join(topologyDir, "core_id")); ok {
			processor.CoreID = int(value)
		}
		processors = append(processors, processor)
	}
	sort.Slice(processors, func(i, j int) bool { return processors[i].ID < processors[j].ID })
	return processors
}

// processorNumber parses "cpuN" and rejects cpufreq, cpuidle and
// similar siblings.
func processorNumber(name string) (int, bool) {
	suffix, found := strings.CutPrefix(name, "cpu")
	if !found || suffix == "" || suffix[0] < '0' || suffix[0] > '9' {
		return 0, false
	}
	number, err := strconv.Atoi(suffix)
	if err != nil {
		return 0, false
	}
	return number, true
}

// Core is one physical core and the logical processors sharing it.
type Core struct {
	PackageID  int
	CoreID     int
	Processors []int
}

// Package is one CPU socket.
type Package struct {
	ID    int
	Cores []Core
}

// GroupTopology groups logical processors into packages and cores.
// Packages are ordered by ID; cores within a package by the lowest
// logical processor they contain, which matches how the kernel
// enumerates them.
func GroupTopology(processors []LogicalProcessor) []Package {
	type coreKey struct{ packageID, coreID int }
	coreIndex := make(map[coreKey]int)
	var cores []Core

	sorted := append([]LogicalProcessor(nil), processors...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })
	for _, processor := range sorted {
		key := coreKey{processor.PackageID, processor.CoreID}
		index, ok := coreIndex[key]
		if !ok {
			index = len(cores)
			coreIndex[key] = index
			cores = append(cores, Core{PackageID: processor.PackageID, CoreID: processor.CoreID})
		}
		cores[index].Processors = append(cores[index].Processors, processor.ID)
	}

	packageIndex := make(map[int]int)
	var packages []Package
	for _, core := range cores {
		index, ok := packageIndex[core.PackageID]
		if !ok {
			index = len(packages)
			packageIndex[core.PackageID] = index
			packages = append(packages, Package{ID: core.PackageID})
		}
		packages[index].Cores = append(packages[index].Cores, core)
	}
	sort.Slice(packages, func(i, j int) bool { return packages[i].ID < packages[j].ID })
	return packages
}

// ReadCPUModel extracts the first "model name" line from
// procRoot/cpuinfo.
func ReadCPUModel(procRoot string) string {
	file, err := os.Open(filepath.Join(procRoot, "cpuinfo"))
	if err != nil {
		return ""
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.HasPrefix(line, "model name") {
			parts := strings.SplitN(line, ":", 2)
			if len(parts) == 2 {
				return strings.TrimSpace(parts[1])
			}
		}
	}
	return ""
}

// ReadScalingFrequency returns the current frequency of a logical
// processor in MHz from cpufreq/scaling_cur_freq (kHz).
func ReadScalingFrequency(sysRoot string, processor int) (float64, bool) {
	path := filepath.Join(sysRoot, "devices/system/cpu", "cpu"+strconv.Itoa(processor), "cpufreq/scaling_cur_freq")
	kilohertz, ok := ReadSysfsInt64Checked(path)
	if !ok {
		return 0, false
	}
	return float64(kilohertz) / 1000, true
}
