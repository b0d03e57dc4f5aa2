// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package amdgpu

import (
	"errors"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/bureau-foundation/sensorcore/lib/hardware"
	"github.com/bureau-foundation/sensorcore/lib/hwinfo"
	"github.com/bureau-foundation/sensorcore/lib/testutil"
)

// createSyntheticAMDGPU sets up a synthetic sysfs tree for one amdgpu
// device plus a matching render node.
func createSyntheticAMDGPU(t *testing.T, root string, cardIndex int, pciSlot string) {
	t.Helper()

	cardPath := filepath.Join("sys/class/drm", "card"+strconv.Itoa(cardIndex))
	devicePath := filepath.Join(cardPath, "device")

	testutil.Mkdir(t, root, "sys/bus/pci/drivers/amdgpu")
	testutil.Mkdir(t, root, devicePath)
	testutil.Symlink(t, root, filepath.Join(devicePath, "driver"), filepath.Join(root, "sys/bus/pci/drivers/amdgpu"))

	testutil.WriteFile(t, root, filepath.Join(devicePath, "uevent"),
		"DRIVER=amdgpu\nPCI_CLASS=30000\nPCI_ID=1002:744A\nPCI_SUBSYS_ID=1458:241A\nPCI_SLOT_NAME="+pciSlot+"\n")
	testutil.WriteFile(t, root, filepath.Join(devicePath, "mem_info_vram_total"), "48301604864\n")
	testutil.WriteFile(t, root, filepath.Join(devicePath, "mem_info_vram_used"), "4830160486\n")
	testutil.WriteFile(t, root, filepath.Join(devicePath, "mem_info_vram_vendor"), "samsung\n")
	testutil.WriteFile(t, root, filepath.Join(devicePath, "unique_id"), "30437a849c458574\n")
	testutil.WriteFile(t, root, filepath.Join(devicePath, "vbios_version"), "113-APM7489-DS2-100\n")
	testutil.WriteFile(t, root, filepath.Join(devicePath, "current_link_width"), "16\n")

	hwmonDir := filepath.Join(devicePath, "hwmon", "hwmon"+strconv.Itoa(cardIndex))
	testutil.WriteFile(t, root, filepath.Join(hwmonDir, "name"), "amdgpu\n")
	testutil.WriteFile(t, root, filepath.Join(hwmonDir, "temp1_input"), "48000\n")
	testutil.WriteFile(t, root, filepath.Join(hwmonDir, "temp1_crit"), "100000\n")

	renderName := "renderD" + strconv.Itoa(128+cardIndex)
	testutil.Symlink(t, root, filepath.Join("sys/class/drm", renderName, "device"), filepath.Join(root, devicePath))
}

func syntheticRoots(root string) hwinfo.Roots {
	return hwinfo.Roots{Sys: filepath.Join(root, "sys"), Proc: filepath.Join(root, "proc"), Dev: filepath.Join(root, "dev")}
}

type fakeQuerier struct {
	values  map[uint32]uint32
	failing map[uint32]bool
	closed  bool
}

func (q *fakeQuerier) QuerySensor(sensorType uint32) (uint32, error) {
	if q.failing[sensorType] {
		return 0, errors.New("ioctl failed")
	}
	return q.values[sensorType], nil
}

func (q *fakeQuerier) Close() error {
	q.closed = true
	return nil
}

func sensorByName(t *testing.T, node *hardware.Hardware, name string, sensorType hardware.SensorType) *hardware.Sensor {
	t.Helper()
	for _, sensor := range node.Sensors() {
		if sensor.Name() == name && sensor.Type() == sensorType {
			return sensor
		}
	}
	t.Fatalf("no active %s sensor %q on %s", sensorType, name, node.Identifier())
	return nil
}

func TestGroupWithIoctl(t *testing.T) {
	root := t.TempDir()
	createSyntheticAMDGPU(t, root, 0, "0000:c3:00.0")

	querier := &fakeQuerier{values: map[uint32]uint32{
		SensorGPUTemp:     61500,
		SensorGPULoad:     37,
		SensorGPUAvgPower: 212,
		SensorGFXSCLK:     2400,
		SensorGFXMCLK:     1250,
	}}
	var openedPath string
	group := newGroup(syntheticRoots(root), hardware.Environment{Logger: testutil.Logger(t)}.WithDefaults(),
		func(path string) (sensorQuerier, error) {
			openedPath = path
			return querier, nil
		})

	nodes := group.Hardware()
	if len(nodes) != 1 {
		t.Fatalf("group has %d nodes, want 1", len(nodes))
	}
	if want := filepath.Join(root, "dev", "dri", "renderD128"); openedPath != want {
		t.Errorf("opened render node %q, want %q", openedPath, want)
	}

	node := nodes[0]
	if node.Identifier().String() != "/atigpu/0" {
		t.Errorf("identifier = %s, want /atigpu/0", node.Identifier())
	}
	if node.Type() != hardware.GPUAti {
		t.Errorf("type = %v, want GPUAti", node.Type())
	}
	if node.Name() != "AMD GPU 0x744a" {
		t.Errorf("name = %q", node.Name())
	}

	node.Update()

	checks := []struct {
		name       string
		sensorType hardware.SensorType
		want       float64
	}{
		{"GPU Core", hardware.Temperature, 61.5},
		{"GPU Core", hardware.Load, 37},
		{"GPU Package", hardware.Power, 212},
		{"GPU Core", hardware.Clock, 2400},
		{"GPU Memory", hardware.Clock, 1250},
		{"GPU Memory Total", hardware.SmallData, 48301604864.0 / (1 << 20)},
		{"GPU Memory Used", hardware.SmallData, 4830160486.0 / (1 << 20)},
	}
	for _, check := range checks {
		value, ok := sensorByName(t, node, check.name, check.sensorType).Value()
		if !ok || value != check.want {
			t.Errorf("%s %s = %v (%v), want %v", check.name, check.sensorType, value, ok, check.want)
		}
	}

	memoryLoad, ok := sensorByName(t, node, "GPU Memory", hardware.Load).Value()
	if !ok || memoryLoad < 9.99 || memoryLoad > 10.01 {
		t.Errorf("memory load = %v (%v), want about 10", memoryLoad, ok)
	}

	limit, ok := sensorByName(t, node, "GPU Core", hardware.Temperature).Limit()
	if !ok || limit != 100 {
		t.Errorf("temperature limit = %v (%v), want 100", limit, ok)
	}

	report := node.Report()
	for _, want := range []string{"0000:c3:00.0", "113-APM7489-DS2-100", "x16", "ioctl capable: true"} {
		if !strings.Contains(report, want) {
			t.Errorf("report missing %q:\n%s", want, report)
		}
	}

	group.Close()
	if !querier.closed {
		t.Error("closing the group did not close the render node")
	}
}

func TestFailedQueryClearsValue(t *testing.T) {
	root := t.TempDir()
	createSyntheticAMDGPU(t, root, 0, "0000:c3:00.0")

	querier := &fakeQuerier{values: map[uint32]uint32{SensorGPUAvgPower: 150}}
	group := newGroup(syntheticRoots(root), hardware.Environment{}.WithDefaults(),
		func(string) (sensorQuerier, error) { return querier, nil })
	defer group.Close()
	node := group.Hardware()[0]

	node.Update()
	power := sensorByName(t, node, "GPU Package", hardware.Power)
	if value, ok := power.Value(); !ok || value != 150 {
		t.Fatalf("power = %v (%v), want 150", value, ok)
	}

	querier.failing = map[uint32]bool{SensorGPUAvgPower: true}
	node.Update()
	if _, ok := power.Value(); ok {
		t.Error("power still has a value after the query failed")
	}
	if maximum, ok := power.Max(); !ok || maximum != 150 {
		t.Errorf("power max = %v (%v), want 150 retained", maximum, ok)
	}
}

func TestGroupWithoutRenderNodeAccess(t *testing.T) {
	root := t.TempDir()
	createSyntheticAMDGPU(t, root, 0, "0000:c3:00.0")

	group := newGroup(syntheticRoots(root), hardware.Environment{Logger: testutil.Logger(t)}.WithDefaults(),
		func(string) (sensorQuerier, error) { return nil, errors.New("permission denied") })
	defer group.Close()

	nodes := group.Hardware()
	if len(nodes) != 1 {
		t.Fatalf("group has %d nodes, want the card to remain listed", len(nodes))
	}
	node := nodes[0]
	node.Update()

	temperature, ok := sensorByName(t, node, "GPU Core", hardware.Temperature).Value()
	if !ok || temperature != 48 {
		t.Errorf("hwmon fallback temperature = %v (%v), want 48", temperature, ok)
	}
	for _, sensor := range node.Sensors() {
		if sensor.Type() == hardware.Clock || sensor.Type() == hardware.Power {
			t.Errorf("ioctl-only sensor %s is active without a render node", sensor.Identifier())
		}
	}
	if !strings.Contains(node.Report(), "ioctl capable: false") {
		t.Errorf("report does not mention missing ioctl access:\n%s", node.Report())
	}
}

func TestGroupIdentifiersFollowDiscoveryOrder(t *testing.T) {
	root := t.TempDir()
	createSyntheticAMDGPU(t, root, 0, "0000:c3:00.0")
	createSyntheticAMDGPU(t, root, 1, "0000:e3:00.0")

	group := newGroup(syntheticRoots(root), hardware.Environment{}.WithDefaults(),
		func(string) (sensorQuerier, error) { return &fakeQuerier{}, nil })
	defer group.Close()

	nodes := group.Hardware()
	if len(nodes) != 2 {
		t.Fatalf("group has %d nodes, want 2", len(nodes))
	}
	for index, node := range nodes {
		if want := "/atigpu/" + strconv.Itoa(index); node.Identifier().String() != want {
			t.Errorf("node %d identifier = %s, want %s", index, node.Identifier(), want)
		}
	}
}

func TestGroupSkipsOtherDrivers(t *testing.T) {
	root := t.TempDir()
	createSyntheticAMDGPU(t, root, 0, "0000:c3:00.0")

	testutil.Mkdir(t, root, "sys/bus/pci/drivers/ast")
	testutil.Mkdir(t, root, "sys/class/drm/card1/device")
	testutil.Symlink(t, root, "sys/class/drm/card1/device/driver", filepath.Join(root, "sys/bus/pci/drivers/ast"))
	testutil.Mkdir(t, root, "sys/class/drm/card0-DP-1")

	group := newGroup(syntheticRoots(root), hardware.Environment{}.WithDefaults(),
		func(string) (sensorQuerier, error) { return &fakeQuerier{}, nil })
	defer group.Close()

	if count := len(group.Hardware()); count != 1 {
		t.Errorf("group has %d nodes, want 1 (ast and connectors skipped)", count)
	}
}

func TestGroupWithoutCards(t *testing.T) {
	group := NewGroup(syntheticRoots(t.TempDir()), hardware.Environment{})
	if count := len(group.Hardware()); count != 0 {
		t.Errorf("group has %d nodes, want 0", count)
	}
	group.Close()
}
