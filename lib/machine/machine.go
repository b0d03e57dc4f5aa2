// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package machine assembles a hardware.Computer from configuration:
// one opener per device family, the enabled family set and the
// persisted user settings.
package machine

import (
	"fmt"

	"github.com/bureau-foundation/sensorcore/lib/config"
	"github.com/bureau-foundation/sensorcore/lib/hardware"
	"github.com/bureau-foundation/sensorcore/lib/hardware/cpu"
	"github.com/bureau-foundation/sensorcore/lib/hardware/mainboard"
	"github.com/bureau-foundation/sensorcore/lib/hardware/ram"
	"github.com/bureau-foundation/sensorcore/lib/hardware/smart"
	"github.com/bureau-foundation/sensorcore/lib/hardware/superio"
	"github.com/bureau-foundation/sensorcore/lib/hardware/tbalancer"
	"github.com/bureau-foundation/sensorcore/lib/hwinfo"
	"github.com/bureau-foundation/sensorcore/lib/hwinfo/amdgpu"
	"github.com/bureau-foundation/sensorcore/lib/hwinfo/nvidia"
)

// Options selects how the computer reaches the hardware.
type Options struct {
	Config *config.Config

	// Simulate replaces /dev/port with an in-memory Winbond W83627DHG.
	Simulate bool
}

// Roots returns the kernel interface roots named by cfg.
func Roots(cfg *config.Config) hwinfo.Roots {
	return hwinfo.Roots{Sys: cfg.Paths.SysRoot, Proc: cfg.Paths.ProcRoot, Dev: cfg.Paths.DevRoot}
}

// Openers returns the probe of every device family.
func Openers(options Options) (map[hardware.Family]hardware.Opener, error) {
	cfg := options.Config
	roots := Roots(cfg)
	sampler, err := cpu.NewSampler(cfg.Polling.CPUSampler, roots.Proc)
	if err != nil {
		return nil, err
	}

	return map[hardware.Family]hardware.Opener{
		hardware.FamilyMainboard: func(environment hardware.Environment) []hardware.Group {
			return []hardware.Group{mainboard.NewGroup(mainboard.Options{
				Roots: roots,
				Port:  openPort(options, environment),
			}, environment)}
		},
		hardware.FamilyCPU: func(environment hardware.Environment) []hardware.Group {
			return []hardware.Group{cpu.NewGroup(cpu.Options{Roots: roots, Sampler: sampler}, environment)}
		},
		hardware.FamilyRAM: func(environment hardware.Environment) []hardware.Group {
			return []hardware.Group{ram.NewGroup(environment)}
		},
		hardware.FamilyGPU: func(environment hardware.Environment) []hardware.Group {
			return []hardware.Group{
				nvidia.NewGroup(roots, environment),
				amdgpu.NewGroup(roots, environment),
			}
		},
		hardware.FamilyFanController: func(environment hardware.Environment) []hardware.Group {
			return []hardware.Group{tbalancer.NewGroup(roots, environment)}
		},
		hardware.FamilyHDD: func(environment hardware.Environment) []hardware.Group {
			return []hardware.Group{smart.NewGroup(smart.Options{
				Roots:         roots,
				UpdateDivider: cfg.Polling.HDDUpdateDivider,
			}, environment)}
		},
	}, nil
}

// openPort returns the port space for Super-I/O detection, or nil
// when /dev/port cannot be opened. The mainboard group then relies
// on hwmon alone.
func openPort(options Options, environment hardware.Environment) superio.Port {
	if options.Simulate {
		return superio.NewSimulatedBoard()
	}
	port, err := superio.OpenDevPort(options.Config.Paths.DevPort)
	if err != nil {
		environment.Logger.Warn("Super-I/O port access unavailable",
			"device", options.Config.Paths.DevPort, "error", err)
		return nil
	}
	return port
}

// EnabledFamilies lists the families cfg enables, in opening order.
func EnabledFamilies(cfg *config.Config) []hardware.Family {
	enabled := map[hardware.Family]bool{
		hardware.FamilyMainboard:     cfg.Hardware.Mainboard,
		hardware.FamilyCPU:           cfg.Hardware.CPU,
		hardware.FamilyRAM:           cfg.Hardware.RAM,
		hardware.FamilyGPU:           cfg.Hardware.GPU,
		hardware.FamilyFanController: cfg.Hardware.FanController,
		hardware.FamilyHDD:           cfg.Hardware.HDD,
	}
	var families []hardware.Family
	for _, family := range hardware.Families() {
		if enabled[family] {
			families = append(families, family)
		}
	}
	return families
}

// NewComputer returns an unopened computer with cfg's families
// enabled.
func NewComputer(options Options, environment hardware.Environment) (*hardware.Computer, error) {
	if options.Config == nil {
		options.Config = config.Default()
	}
	if err := options.Config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	openers, err := Openers(options)
	if err != nil {
		return nil, err
	}
	computer := hardware.NewComputer(environment, openers)
	for _, family := range EnabledFamilies(options.Config) {
		computer.SetEnabled(family, true)
	}
	return computer, nil
}
