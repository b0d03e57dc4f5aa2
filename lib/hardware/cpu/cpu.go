// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package cpu

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	gopsutilcpu "github.com/shirou/gopsutil/v3/cpu"

	"github.com/bureau-foundation/sensorcore/lib/hardware"
	"github.com/bureau-foundation/sensorcore/lib/hwinfo"
)

// Options configures NewGroup.
type Options struct {
	Roots hwinfo.Roots

	// Sampler provides processor times. Nil means GopsutilSampler.
	Sampler Sampler
}

// processorInfo is the static description of one package.
type processorInfo struct {
	model     string
	vendor    string
	family    string
	modelID   string
	stepping  int32
	cacheSize int32
	microcode string
}

// infoSource returns one processorInfo per package ID.
type infoSource func(ctx context.Context) map[int]processorInfo

// gopsutilInfo reads /proc/cpuinfo through gopsutil. gopsutil reports
// one entry per logical processor; the first entry of each physical
// ID describes the package.
func gopsutilInfo(ctx context.Context) map[int]processorInfo {
	stats, err := gopsutilcpu.InfoWithContext(ctx)
	if err != nil {
		return nil
	}
	infos := make(map[int]processorInfo)
	for _, stat := range stats {
		packageID, err := strconv.Atoi(stat.PhysicalID)
		if err != nil {
			packageID = 0
		}
		if _, ok := infos[packageID]; ok {
			continue
		}
		infos[packageID] = processorInfo{
			model:     stat.ModelName,
			vendor:    stat.VendorID,
			family:    stat.Family,
			modelID:   stat.Model,
			stepping:  stat.Stepping,
			cacheSize: stat.CacheSize,
			microcode: stat.Microcode,
		}
	}
	return infos
}

// NewGroup returns one /cpu/<n> node per CPU package.
func NewGroup(options Options, environment hardware.Environment) hardware.Group {
	if options.Sampler == nil {
		options.Sampler = GopsutilSampler{}
	}
	return newGroup(options, environment.WithDefaults(), gopsutilInfo)
}

func newGroup(options Options, environment hardware.Environment, infos infoSource) hardware.Group {
	logger := environment.Logger
	ctx := context.Background()

	packages := hwinfo.GroupTopology(hwinfo.ReadTopology(options.Roots.Sys))
	group := &hardware.StaticGroup{}
	if len(packages) == 0 {
		logger.Debug("no CPU topology found", "sys_root", options.Roots.Sys)
		return group
	}

	packageInfo := infos(ctx)
	fallbackModel := hwinfo.ReadCPUModel(options.Roots.Proc)
	for index, cpuPackage := range packages {
		info := packageInfo[cpuPackage.ID]
		if info.model == "" {
			info.model = fallbackModel
		}
		name := strings.Join(strings.Fields(info.model), " ")
		if name == "" {
			name = "Unknown Processor"
		}

		cores := make([][]int, len(cpuPackage.Cores))
		for coreIndex, core := range cpuPackage.Cores {
			cores[coreIndex] = core.Processors
		}
		load := NewLoad(ctx, options.Sampler, cores)
		if !load.Available() {
			logger.Warn("CPU load unavailable", "package", cpuPackage.ID)
		}

		group.Nodes = append(group.Nodes, hardware.New(hardware.Descriptor{
			Identifier: hardware.MustIdentifier("cpu", strconv.Itoa(index)),
			Name:       name,
			Type:       hardware.CPU,
		}, environment, &packageDriver{
			roots:       options.Roots,
			cpuPackage:  cpuPackage,
			info:        info,
			load:        load,
			temperature: findPackageTemperature(options.Roots, cpuPackage.ID, index),
			logger:      logger,
		}))
	}
	logger.Info("CPU packages opened", "count", len(group.Nodes))
	return group
}

// packageTemperature locates the hwmon input holding a package's
// temperature.
type packageTemperature struct {
	driver    string
	directory string
	input     int
}

// findPackageTemperature looks for the package's coretemp input
// labelled "Package id N", or the index-th k10temp device's Tdie,
// Tctl or first input.
func findPackageTemperature(roots hwinfo.Roots, packageID, index int) *packageTemperature {
	k10temp := 0
	for _, device := range hwinfo.ListHwmon(roots.Sys) {
		inputs := hwinfo.ReadHwmonInputs(device.Path, "temp")
		switch device.Name {
		case "coretemp":
			want := "Package id " + strconv.Itoa(packageID)
			for _, input := range inputs {
				if input.Label == want {
					return &packageTemperature{driver: device.Name, directory: device.Path, input: input.Index}
				}
			}
		case "k10temp", "zenpower":
			if k10temp != index {
				k10temp++
				continue
			}
			if len(inputs) == 0 {
				return nil
			}
			chosen := inputs[0].Index
			for _, label := range []string{"Tctl", "Tdie"} {
				for _, input := range inputs {
					if input.Label == label {
						chosen = input.Index
					}
				}
			}
			return &packageTemperature{driver: device.Name, directory: device.Path, input: chosen}
		}
	}
	return nil
}

type packageDriver struct {
	roots       hwinfo.Roots
	cpuPackage  hwinfo.Package
	info        processorInfo
	load        *Load
	temperature *packageTemperature
	logger      *slog.Logger

	totalLoad   *hardware.Sensor
	coreLoads   []*hardware.Sensor
	coreClocks  []*hardware.Sensor
	packageTemp *hardware.Sensor
}

func (d *packageDriver) Attach(node *hardware.Hardware) {
	cores := d.cpuPackage.Cores
	if d.load.Available() {
		d.totalLoad = node.NewSensor("CPU Total", 0, hardware.Load)
		node.ActivateSensor(d.totalLoad)
		d.coreLoads = make([]*hardware.Sensor, len(cores))
		for index := range cores {
			d.coreLoads[index] = node.NewSensor(coreName(index), index+1, hardware.Load)
			node.ActivateSensor(d.coreLoads[index])
		}
	}

	d.coreClocks = make([]*hardware.Sensor, len(cores))
	for index, core := range cores {
		d.coreClocks[index] = node.NewSensor(coreName(index), index+1, hardware.Clock)
		if _, ok := hwinfo.ReadScalingFrequency(d.roots.Sys, core.Processors[0]); ok {
			node.ActivateSensor(d.coreClocks[index])
		}
	}

	if d.temperature != nil {
		d.packageTemp = node.NewSensor("CPU Package", len(cores), hardware.Temperature,
			hardware.WithParameters(hardware.ParameterDescription{
				Name:         "Offset [°C]",
				Description:  "Temperature offset of the thermal sensor.\nTemperature = Value + Offset.",
				DefaultValue: 0,
			}))
		node.ActivateSensor(d.packageTemp)
	}
}

func coreName(index int) string {
	return "CPU Core #" + strconv.Itoa(index+1)
}

func (d *packageDriver) Update() {
	if d.load.Available() {
		d.load.Update(context.Background())
		d.totalLoad.SetValue(d.load.Total())
		for index, sensor := range d.coreLoads {
			sensor.SetValue(d.load.Core(index))
		}
	}

	for index, core := range d.cpuPackage.Cores {
		if megahertz, ok := hwinfo.ReadScalingFrequency(d.roots.Sys, core.Processors[0]); ok {
			d.coreClocks[index].SetValue(megahertz)
		} else {
			d.coreClocks[index].ClearValue()
		}
	}

	if d.temperature != nil {
		millidegrees, ok := hwinfo.ReadHwmonInput(d.temperature.directory, "temp", d.temperature.input)
		if !ok {
			d.logger.Debug("reading package temperature failed",
				"driver", d.temperature.driver, "input", d.temperature.input)
			d.packageTemp.ClearValue()
			return
		}
		d.packageTemp.SetValue(float64(millidegrees)/1000 + d.packageTemp.Parameter(0).Value())
	}
}

func (d *packageDriver) Report() string {
	var builder strings.Builder
	builder.WriteString("CPU Package\n\n")
	fmt.Fprintf(&builder, "Package ID: %d\n", d.cpuPackage.ID)
	fmt.Fprintf(&builder, "Name: %s\n", d.info.model)
	if d.info.vendor != "" {
		fmt.Fprintf(&builder, "Vendor: %s\n", d.info.vendor)
		fmt.Fprintf(&builder, "Family: %s Model: %s Stepping: %d\n", d.info.family, d.info.modelID, d.info.stepping)
		fmt.Fprintf(&builder, "Cache Size: %d KB\n", d.info.cacheSize)
		fmt.Fprintf(&builder, "Microcode: %s\n", d.info.microcode)
	}
	fmt.Fprintf(&builder, "Load Available: %t\n", d.load.Available())
	if d.temperature != nil {
		fmt.Fprintf(&builder, "Temperature: %s temp%d\n", d.temperature.driver, d.temperature.input)
	}
	builder.WriteString("\nCore  Logical Processors\n")
	for _, core := range d.cpuPackage.Cores {
		ids := make([]string, len(core.Processors))
		for index, id := range core.Processors {
			ids[index] = strconv.Itoa(id)
		}
		fmt.Fprintf(&builder, "%4d  %s\n", core.CoreID, strings.Join(ids, " "))
	}
	return builder.String()
}

var (
	_ hardware.Driver   = (*packageDriver)(nil)
	_ hardware.Reporter = (*packageDriver)(nil)
)
