// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package cpu

import (
	"context"
	"errors"
	"fmt"
	"math"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/bureau-foundation/sensorcore/lib/clock"
	"github.com/bureau-foundation/sensorcore/lib/hardware"
	"github.com/bureau-foundation/sensorcore/lib/hwinfo"
	"github.com/bureau-foundation/sensorcore/lib/testutil"
)

// scriptedSampler returns one prepared sample per call and repeats
// the last one once the script runs out.
type scriptedSampler struct {
	samples [][]hwinfo.ProcessorTimes
	calls   int
	err     error
}

func (s *scriptedSampler) Sample(context.Context) ([]hwinfo.ProcessorTimes, error) {
	if s.err != nil {
		return nil, s.err
	}
	index := min(s.calls, len(s.samples)-1)
	s.calls++
	return s.samples[index], nil
}

func ms(n int) time.Duration { return time.Duration(n) * time.Millisecond }

// times builds a sample from (idle, total) millisecond pairs indexed
// by processor ID.
func times(pairs ...[2]int) []hwinfo.ProcessorTimes {
	sample := make([]hwinfo.ProcessorTimes, len(pairs))
	for id, pair := range pairs {
		sample[id] = hwinfo.ProcessorTimes{ID: id, Idle: ms(pair[0]), Total: ms(pair[1])}
	}
	return sample
}

func near(got, want float64) bool { return math.Abs(got-want) < 1e-9 }

// writeTopology creates one package with two hyperthreaded cores,
// siblings numbered (0,2) and (1,3).
func writeTopology(t *testing.T, root string) {
	t.Helper()
	for id, coreID := range []int{0, 1, 0, 1} {
		topology := fmt.Sprintf("sys/devices/system/cpu/cpu%d/topology/", id)
		testutil.WriteFile(t, root, topology+"physical_package_id", "0\n")
		testutil.WriteFile(t, root, topology+"core_id", fmt.Sprintf("%d\n", coreID))
	}
}

func testRoots(root string) hwinfo.Roots {
	return hwinfo.Roots{Sys: filepath.Join(root, "sys"), Proc: filepath.Join(root, "proc"), Dev: filepath.Join(root, "dev")}
}

func testEnvironment(t *testing.T) hardware.Environment {
	return hardware.Environment{
		Clock:  clock.Fake(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)),
		Logger: testutil.Logger(t),
	}.WithDefaults()
}

func staticInfo(model string) infoSource {
	return func(context.Context) map[int]processorInfo {
		return map[int]processorInfo{0: {model: model, vendor: "GenuineIntel", family: "6", modelID: "42", stepping: 7, cacheSize: 8192}}
	}
}

func sensorNamed(t *testing.T, node *hardware.Hardware, name string, sensorType hardware.SensorType) *hardware.Sensor {
	t.Helper()
	for _, sensor := range node.Sensors() {
		if sensor.Name() == name && sensor.Type() == sensorType {
			return sensor
		}
	}
	t.Fatalf("no active %s sensor %q on %s", sensorType, name, node.Identifier())
	return nil
}

func TestLoadPerCoreAndTotal(t *testing.T) {
	sampler := &scriptedSampler{samples: [][]hwinfo.ProcessorTimes{
		times([2]int{0, 0}, [2]int{0, 0}, [2]int{0, 0}, [2]int{0, 0}),
		times([2]int{50, 100}, [2]int{0, 100}, [2]int{100, 100}, [2]int{0, 100}),
	}}
	load := NewLoad(context.Background(), sampler, [][]int{{0, 2}, {1, 3}})
	if !load.Available() {
		t.Fatal("load unavailable after a successful baseline")
	}
	load.Update(context.Background())

	if got := load.Core(0); !near(got, 25) {
		t.Errorf("core 0 load = %v, want 25", got)
	}
	if got := load.Core(1); !near(got, 100) {
		t.Errorf("core 1 load = %v, want 100", got)
	}
	if got := load.Total(); !near(got, 62.5) {
		t.Errorf("total load = %v, want 62.5", got)
	}
}

func TestLoadDebounce(t *testing.T) {
	sampler := &scriptedSampler{samples: [][]hwinfo.ProcessorTimes{
		times([2]int{0, 0}, [2]int{0, 0}),
		times([2]int{50, 100}, [2]int{50, 100}),
		// Processor 1 advanced by only 5ms: skipped.
		times([2]int{50, 200}, [2]int{55, 105}),
		times([2]int{150, 200}, [2]int{150, 200}),
	}}
	load := NewLoad(context.Background(), sampler, [][]int{{0}, {1}})

	load.Update(context.Background())
	if got := load.Total(); !near(got, 50) {
		t.Fatalf("total load = %v, want 50", got)
	}

	load.Update(context.Background())
	if got := load.Total(); !near(got, 50) {
		t.Errorf("total load after a short interval = %v, want 50 kept", got)
	}

	// The skipped sample did not replace the baseline, so processor 0
	// is measured from 100ms: 100ms idle of 100ms elapsed.
	load.Update(context.Background())
	if got := load.Core(0); !near(got, 0) {
		t.Errorf("core 0 load = %v, want 0", got)
	}
	if got := load.Core(1); !near(got, 0) {
		t.Errorf("core 1 load = %v, want 0", got)
	}
}

func TestLoadIsClamped(t *testing.T) {
	sampler := &scriptedSampler{samples: [][]hwinfo.ProcessorTimes{
		times([2]int{0, 0}, [2]int{100, 0}),
		// Idle advanced faster than total on processor 0 and went
		// backwards on processor 1.
		times([2]int{150, 100}, [2]int{0, 100}),
	}}
	load := NewLoad(context.Background(), sampler, [][]int{{0}, {1}})
	load.Update(context.Background())

	for index := range 2 {
		if got := load.Core(index); got < 0 || got > 100 {
			t.Errorf("core %d load = %v, outside [0, 100]", index, got)
		}
	}
	if got := load.Core(0); got != 0 {
		t.Errorf("core 0 load = %v, want 0", got)
	}
	if got := load.Core(1); got != 100 {
		t.Errorf("core 1 load = %v, want 100", got)
	}
}

func TestLoadUnavailable(t *testing.T) {
	load := NewLoad(context.Background(), &scriptedSampler{err: errors.New("no /proc")}, [][]int{{0}})
	if load.Available() {
		t.Fatal("load available after a failed baseline")
	}
	load.Update(context.Background())
	if load.Total() != 0 {
		t.Errorf("total = %v, want 0", load.Total())
	}
}

func TestGroup(t *testing.T) {
	root := t.TempDir()
	writeTopology(t, root)
	testutil.WriteFile(t, root, "sys/devices/system/cpu/cpu0/cpufreq/scaling_cur_freq", "3400000\n")
	testutil.WriteFile(t, root, "sys/class/hwmon/hwmon0/name", "acpitz\n")
	testutil.WriteFile(t, root, "sys/class/hwmon/hwmon0/temp1_input", "27800\n")
	testutil.WriteFile(t, root, "sys/class/hwmon/hwmon1/name", "coretemp\n")
	testutil.WriteFile(t, root, "sys/class/hwmon/hwmon1/temp1_input", "51000\n")
	testutil.WriteFile(t, root, "sys/class/hwmon/hwmon1/temp1_label", "Package id 0\n")
	testutil.WriteFile(t, root, "sys/class/hwmon/hwmon1/temp2_input", "49000\n")
	testutil.WriteFile(t, root, "sys/class/hwmon/hwmon1/temp2_label", "Core 0\n")

	sampler := &scriptedSampler{samples: [][]hwinfo.ProcessorTimes{
		times([2]int{0, 0}, [2]int{0, 0}, [2]int{0, 0}, [2]int{0, 0}),
		times([2]int{100, 100}, [2]int{50, 100}, [2]int{100, 100}, [2]int{50, 100}),
	}}
	group := newGroup(Options{Roots: testRoots(root), Sampler: sampler}, testEnvironment(t),
		staticInfo("Intel(R)  Core(TM) i7-2600K   CPU @ 3.40GHz"))
	defer group.Close()

	nodes := group.Hardware()
	if len(nodes) != 1 {
		t.Fatalf("group has %d nodes, want 1", len(nodes))
	}
	node := nodes[0]
	if node.Identifier().String() != "/cpu/0" {
		t.Errorf("identifier = %s, want /cpu/0", node.Identifier())
	}
	if node.Type() != hardware.CPU {
		t.Errorf("type = %v, want CPU", node.Type())
	}
	if node.Name() != "Intel(R) Core(TM) i7-2600K CPU @ 3.40GHz" {
		t.Errorf("name = %q", node.Name())
	}

	node.Update()

	checks := []struct {
		name       string
		sensorType hardware.SensorType
		want       float64
	}{
		{"CPU Total", hardware.Load, 25},
		{"CPU Core #1", hardware.Load, 0},
		{"CPU Core #2", hardware.Load, 50},
		{"CPU Core #1", hardware.Clock, 3400},
		{"CPU Package", hardware.Temperature, 51},
	}
	for _, check := range checks {
		value, ok := sensorNamed(t, node, check.name, check.sensorType).Value()
		if !ok || !near(value, check.want) {
			t.Errorf("%s %s = %v (%v), want %v", check.name, check.sensorType, value, ok, check.want)
		}
	}

	if coreClock := sensorNamed(t, node, "CPU Core #1", hardware.Clock); coreClock.Index() != 1 {
		t.Errorf("CPU Core #1 clock index = %d, want 1 to match its load sensor", coreClock.Index())
	}

	for _, sensor := range node.Sensors() {
		if sensor.Type() == hardware.Clock && sensor.Name() == "CPU Core #2" {
			t.Error("clock of a core without cpufreq is active")
		}
	}

	report := node.Report()
	for _, want := range []string{"Vendor: GenuineIntel", "Cache Size: 8192 KB", "Temperature: coretemp temp1", "   0  0 2", "   1  1 3"} {
		if !strings.Contains(report, want) {
			t.Errorf("report missing %q:\n%s", want, report)
		}
	}
}

func TestTemperatureOffset(t *testing.T) {
	root := t.TempDir()
	writeTopology(t, root)
	testutil.WriteFile(t, root, "sys/class/hwmon/hwmon0/name", "k10temp\n")
	testutil.WriteFile(t, root, "sys/class/hwmon/hwmon0/temp1_input", "60000\n")
	testutil.WriteFile(t, root, "sys/class/hwmon/hwmon0/temp1_label", "Tctl\n")
	testutil.WriteFile(t, root, "sys/class/hwmon/hwmon0/temp3_input", "45000\n")
	testutil.WriteFile(t, root, "sys/class/hwmon/hwmon0/temp3_label", "Tccd1\n")

	group := newGroup(Options{Roots: testRoots(root), Sampler: &scriptedSampler{err: errors.New("unavailable")}},
		testEnvironment(t), staticInfo("AMD Ryzen 9 7950X"))
	defer group.Close()
	node := group.Hardware()[0]

	temperature := sensorNamed(t, node, "CPU Package", hardware.Temperature)
	temperature.Parameter(0).SetValue(-10)
	node.Update()
	if value, ok := temperature.Value(); !ok || !near(value, 50) {
		t.Errorf("offset temperature = %v (%v), want 50", value, ok)
	}

	for _, sensor := range node.Sensors() {
		if sensor.Type() == hardware.Load {
			t.Errorf("load sensor %s active without processor times", sensor.Identifier())
		}
	}
}

func TestNameFallsBackToCPUInfo(t *testing.T) {
	root := t.TempDir()
	writeTopology(t, root)
	testutil.WriteFile(t, root, "proc/cpuinfo", "processor\t: 0\nmodel name\t: Virtual CPU\n")

	group := newGroup(Options{Roots: testRoots(root), Sampler: &scriptedSampler{err: errors.New("unavailable")}},
		testEnvironment(t), func(context.Context) map[int]processorInfo { return nil })
	defer group.Close()
	if name := group.Hardware()[0].Name(); name != "Virtual CPU" {
		t.Errorf("name = %q, want Virtual CPU", name)
	}
}

func TestGroupWithoutTopology(t *testing.T) {
	group := NewGroup(Options{Roots: testRoots(t.TempDir())}, hardware.Environment{})
	defer group.Close()
	if count := len(group.Hardware()); count != 0 {
		t.Errorf("group has %d nodes, want 0", count)
	}
}

func TestProcStatSampler(t *testing.T) {
	root := t.TempDir()
	testutil.WriteFile(t, root, "stat",
		"cpu  10 0 10 80 0 0 0 0 0 0\ncpu0 5 0 5 40 0 0 0 0 0 0\ncpu1 5 0 5 40 0 0 0 0 0 0\nintr 0\n")
	sampler, err := NewSampler(SamplerProcStat, root)
	if err != nil {
		t.Fatal(err)
	}
	sample, err := sampler.Sample(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(sample) != 2 {
		t.Fatalf("sample has %d processors, want 2", len(sample))
	}
	if sample[0].Total <= sample[0].Idle {
		t.Errorf("processor 0 total %v not above idle %v", sample[0].Total, sample[0].Idle)
	}

	if _, err := NewSampler("bogus", root); err == nil {
		t.Error("NewSampler accepted an unknown sampler name")
	}
}
