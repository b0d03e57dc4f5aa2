// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package mainboard

import (
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	"github.com/bureau-foundation/sensorcore/lib/hardware/superio"
	"github.com/bureau-foundation/sensorcore/lib/hwinfo"
)

// hwmonChips maps hwmon driver names to the chips they drive.
var hwmonChips = map[string]superio.Chip{
	"f71858fg":  superio.F71858,
	"f71862fg":  superio.F71862,
	"f71869":    superio.F71869,
	"f71882fg":  superio.F71882,
	"f71889a":   superio.F71889AD,
	"f71889ed":  superio.F71889ED,
	"f71889fg":  superio.F71889F,
	"it8705":    superio.IT8705F,
	"it8712":    superio.IT8712F,
	"it8716":    superio.IT8716F,
	"it8718":    superio.IT8718F,
	"it8720":    superio.IT8720F,
	"it8721":    superio.IT8721F,
	"it8726":    superio.IT8726F,
	"it8728":    superio.IT8728F,
	"it8771":    superio.IT8771E,
	"it8772":    superio.IT8772E,
	"nct6775":   superio.NCT6771F,
	"nct6776":   superio.NCT6776F,
	"w83627dhg": superio.W83627DHG,
	"w83627ehf": superio.W83627EHF,
	"w83627hf":  superio.W83627HF,
	"w83627thf": superio.W83627THF,
	"w83667hg":  superio.W83667HG,
	"w83687thf": superio.W83687THF,
}

// hwmonChip is a Source over one hwmon directory. The inputs present at
// construction fix the channel layout: the nth in*_input file by index
// is voltage channel n, and likewise for temperatures and fans.
type hwmonChip struct {
	chip      superio.Chip
	directory string

	voltageInputs     []int
	temperatureInputs []int
	fanInputs         []int

	mu           sync.Mutex
	voltages     []superio.Reading
	temperatures []superio.Reading
	fans         []superio.Reading
}

func newHwmonChip(chip superio.Chip, directory string) *hwmonChip {
	indices := func(kind string) []int {
		var result []int
		for _, input := range hwinfo.ReadHwmonInputs(directory, kind) {
			result = append(result, input.Index)
		}
		return result
	}
	h := &hwmonChip{
		chip:              chip,
		directory:         directory,
		voltageInputs:     indices("in"),
		temperatureInputs: indices("temp"),
		fanInputs:         indices("fan"),
	}
	h.voltages = make([]superio.Reading, len(h.voltageInputs))
	h.temperatures = make([]superio.Reading, len(h.temperatureInputs))
	h.fans = make([]superio.Reading, len(h.fanInputs))
	return h
}

// discoverHwmonChips returns a Source for every hwmon device whose
// driver name maps to a known chip. Older kernels keep the name file
// under device/.
func discoverHwmonChips(roots hwinfo.Roots) []*hwmonChip {
	var chips []*hwmonChip
	for _, device := range hwinfo.ListHwmon(roots.Sys) {
		for _, directory := range []string{device.Path, filepath.Join(device.Path, "device")} {
			name := hwinfo.ReadSysfsString(filepath.Join(directory, "name"))
			chip, ok := hwmonChips[strings.ToLower(name)]
			if !ok {
				continue
			}
			chips = append(chips, newHwmonChip(chip, directory))
			break
		}
	}
	return chips
}

func (h *hwmonChip) Chip() superio.Chip { return h.chip }

// Update re-reads every input: millivolts for voltages, millidegrees
// for temperatures, RPM for fans.
func (h *hwmonChip) Update() {
	h.mu.Lock()
	defer h.mu.Unlock()
	read := func(kind string, inputs []int, scale float64, readings []superio.Reading) {
		for position, index := range inputs {
			raw, ok := hwinfo.ReadHwmonInput(h.directory, kind, index)
			if !ok {
				readings[position] = superio.Reading{}
				continue
			}
			readings[position] = superio.Reading{Value: scale * float64(raw), Valid: true}
		}
	}
	read("in", h.voltageInputs, 0.001, h.voltages)
	read("temp", h.temperatureInputs, 0.001, h.temperatures)
	read("fan", h.fanInputs, 1, h.fans)
}

func (h *hwmonChip) Voltages() []superio.Reading     { return h.snapshot(h.voltages) }
func (h *hwmonChip) Temperatures() []superio.Reading { return h.snapshot(h.temperatures) }
func (h *hwmonChip) Fans() []superio.Reading         { return h.snapshot(h.fans) }

// Controls is empty: hwmon PWM attributes are not read.
func (h *hwmonChip) Controls() []superio.Reading { return nil }

func (h *hwmonChip) snapshot(readings []superio.Reading) []superio.Reading {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]superio.Reading(nil), readings...)
}

func (h *hwmonChip) Report() string {
	return fmt.Sprintf("LPC %s (hwmon)\n\nPath: %s\nVoltage inputs: %v\nTemperature inputs: %v\nFan inputs: %v\n",
		h.chip.Name(), h.directory, h.voltageInputs, h.temperatureInputs, h.fanInputs)
}
