// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package smart

import (
	"context"
	"encoding/binary"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/bureau-foundation/sensorcore/lib/hardware"
	"github.com/bureau-foundation/sensorcore/lib/hwinfo"
	"github.com/bureau-foundation/sensorcore/lib/testutil"
)

// valuesTable encodes values as a 512-byte SMART values sector.
func valuesTable(values ...Value) []byte {
	table := make([]byte, TableSize)
	binary.LittleEndian.PutUint16(table, 0x10)
	for index, value := range values {
		record := table[revisionSize+index*recordSize:]
		record[0] = value.ID
		binary.LittleEndian.PutUint16(record[1:3], value.Flags)
		record[3] = value.Current
		record[4] = value.Worst
		copy(record[5:11], value.Raw[:])
	}
	return table
}

func raw(bytes ...byte) [6]byte {
	var result [6]byte
	copy(result[:], bytes)
	return result
}

type fakeDevice struct {
	values     []Value
	thresholds []Threshold
	reads      int
	failing    bool
	closed     bool
}

func (d *fakeDevice) ReadValues() ([]Value, error) {
	d.reads++
	if d.failing {
		return nil, errors.New("i/o error")
	}
	return append([]Value(nil), d.values...), nil
}

func (d *fakeDevice) ReadThresholds() ([]Threshold, error) { return d.thresholds, nil }

func (d *fakeDevice) Close() error {
	d.closed = true
	return nil
}

func noPartitions(context.Context, string) []Partition { return nil }

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

func expectValue(t *testing.T, sensor *hardware.Sensor, want float64) {
	t.Helper()
	if value, ok := sensor.Value(); !ok || value != want {
		t.Errorf("%s = %v (%v), want %v", sensor.Identifier(), value, ok, want)
	}
}

// openDrive builds a group over a single sda backed by device.
func openDrive(t *testing.T, model string, device *fakeDevice, divider int, partitions partitionLister) *hardware.Hardware {
	t.Helper()
	root := t.TempDir()
	testutil.WriteFile(t, root, "sys/block/sda/removable", "0\n")
	group := newGroup(Options{Roots: hwinfo.Roots{Sys: filepath.Join(root, "sys"), Dev: filepath.Join(root, "dev")}, UpdateDivider: divider},
		hardware.Environment{Logger: testutil.Logger(t)}.WithDefaults(),
		func(string) (Device, Identity, error) {
			return device, Identity{Model: model, Firmware: "01.01A01", Serial: "WD-0001"}, nil
		}, partitions)
	t.Cleanup(group.Close)

	nodes := group.Hardware()
	if len(nodes) != 1 {
		t.Fatalf("group has %d nodes, want 1", len(nodes))
	}
	return nodes[0]
}

func TestParseValues(t *testing.T) {
	table := valuesTable(
		Value{ID: 0x09, Flags: 0x0032, Current: 99, Worst: 98, Raw: raw(42)},
		Value{ID: 0xC2, Flags: 0x0022, Current: 110, Worst: 95, Raw: raw(37, 0, 18, 0, 45, 0)},
	)
	values := ParseValues(table)
	if len(values) != 2 {
		t.Fatalf("parsed %d values, want 2", len(values))
	}
	first := values[0]
	if first.ID != 0x09 || first.Flags != 0x0032 || first.Current != 99 || first.Worst != 98 {
		t.Errorf("first record = %+v", first)
	}
	if got := RawToInt(first.Raw, first.Current, nil); got != 42 {
		t.Errorf("raw integer = %v, want 42", got)
	}
	if values[1].Raw != raw(37, 0, 18, 0, 45, 0) {
		t.Errorf("second raw = %v", values[1].Raw)
	}
}

func TestParseValuesStopsAtEmptyRecord(t *testing.T) {
	table := valuesTable(Value{ID: 0x01}, Value{ID: 0}, Value{ID: 0x05})
	if values := ParseValues(table); len(values) != 1 {
		t.Errorf("parsed %d values, want parsing to stop at the empty record", len(values))
	}
	if values := ParseValues(valuesTable(Value{ID: 0x01}, Value{ID: 0x05})[:20]); len(values) != 1 {
		t.Errorf("short table yielded %d values, want 1 complete record", len(values))
	}
	if values := ParseValues(nil); values != nil {
		t.Errorf("nil table yielded %v", values)
	}
}

func TestParseThresholds(t *testing.T) {
	table := make([]byte, TableSize)
	copy(table[2:], []byte{0x05, 36})
	copy(table[14:], []byte{0xC2, 0})
	thresholds := ParseThresholds(table)
	want := []Threshold{{0x05, 36}, {0xC2, 0}}
	if len(thresholds) != len(want) {
		t.Fatalf("thresholds = %v, want %v", thresholds, want)
	}
	for index := range want {
		if thresholds[index] != want[index] {
			t.Errorf("threshold %d = %v, want %v", index, thresholds[index], want[index])
		}
	}
}

func TestConversions(t *testing.T) {
	tests := []struct {
		name    string
		convert Convert
		raw     [6]byte
		current byte
		want    float64
	}{
		{"RawToInt", RawToInt, raw(0x10, 0x27, 0, 0, 0xFF, 0xFF), 0, 10000},
		{"RawToValue", RawToValue, raw(0, 0, 0, 0, 1, 0), 0, 1 << 32},
		{"RawFirstByte", RawFirstByte, raw(0xF6, 0x12), 0, 246},
		{"SignedRawFirstByte", SignedRawFirstByte, raw(0xF6, 0x12), 0, -10},
		{"LBAsToGigabytes", LBAsToGigabytes, raw(0, 0, 0x20), 0, 1},
		{"HundredMinusRaw", HundredMinusRaw, raw(3), 0, 97},
		{"SignExtendedCurrent", SignExtendedCurrent, raw(), 0x81, -127},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if got := test.convert(test.raw, test.current, nil); got != test.want {
				t.Errorf("%s = %v, want %v", test.name, got, test.want)
			}
		})
	}

	offset := withOffset(RawFirstByte)
	if got := offset(raw(40), 0, []float64{-2.5}); got != 37.5 {
		t.Errorf("offset conversion = %v, want 37.5", got)
	}
	if got := offset(raw(40), 0, nil); got != 40 {
		t.Errorf("offset conversion without parameters = %v, want 40", got)
	}
}

func withIDs(ids ...byte) []Value {
	values := make([]Value, len(ids))
	for index, id := range ids {
		values[index] = Value{ID: id}
	}
	return values
}

func TestSelectTable(t *testing.T) {
	tests := []struct {
		model  string
		values []Value
		want   *Table
	}{
		{"INTEL SSDSC2BW240A4", withIDs(0x09, 0xE1, 0xE8, 0xE9), IntelTable},
		{"INTEL SSDSC2BW240A4", withIDs(0xE1, 0xE8), GenericTable},
		{"Corsair Force GT", withIDs(0xAB, 0xB1, 0xE7), SandforceTable},
		{"OCZ-VERTEX", withIDs(0xD1), IndilinxTable},
		{"Samsung SSD 850 EVO", withIDs(0xB1, 0xB3, 0xB5, 0xB6, 0xB7, 0xBB, 0xC3, 0xC7), SamsungTable},
		{"Crucial_CT500MX200SSD1", withIDs(0xAB, 0xAC, 0xAD, 0xAE, 0xC4, 0xCA, 0xCE), MicronTable},
		{"WDC WD10EZEX-00BN5A0", withIDs(0x01, 0x09, 0xC2), GenericTable},
		{"", nil, GenericTable},
	}
	for _, test := range tests {
		if got := SelectTable(test.model, test.values); got != test.want {
			t.Errorf("SelectTable(%q) = %s, want %s", test.model, got.Name, test.want.Name)
		}
	}
}

func TestTablesHaveUniqueAttributes(t *testing.T) {
	for _, table := range Tables {
		seen := make(map[byte]bool)
		for _, attribute := range table.Attributes {
			if seen[attribute.ID] {
				t.Errorf("%s lists attribute 0x%02X twice", table.Name, attribute.ID)
			}
			seen[attribute.ID] = true
		}
	}
}

func samsungValues() []Value {
	return []Value{
		{ID: 0x09, Current: 99, Raw: raw(42)},
		{ID: 0xB1, Current: 97},
		{ID: 0xB3, Current: 100},
		{ID: 0xB5, Current: 100},
		{ID: 0xB6, Current: 100},
		{ID: 0xB7, Current: 100},
		{ID: 0xBB, Current: 100},
		{ID: 0xBE, Current: 67, Raw: raw(33, 0, 22, 45)},
		{ID: 0xC3, Current: 200},
		{ID: 0xC7, Current: 100, Raw: raw(2)},
		{ID: 0xF1, Current: 99, Raw: raw(0, 0, 0x40)},
		{ID: 0xFB, Current: 100, Raw: raw(0, 0, 0x60)},
	}
}

func TestSamsungDrive(t *testing.T) {
	device := &fakeDevice{values: samsungValues()}
	node := openDrive(t, "Samsung SSD 850 EVO 250GB", device, 0, noPartitions)
	if node.Identifier().String() != "/hdd/0" || node.Type() != hardware.HDD {
		t.Errorf("node = %s %v", node.Identifier(), node.Type())
	}
	node.Update()

	expectValue(t, sensorNamed(t, node, "Power-On Hours (POH)", hardware.RawValue), 42)
	expectValue(t, sensorNamed(t, node, "Remaining Life", hardware.Level), 97)
	expectValue(t, sensorNamed(t, node, "Temperature", hardware.Temperature), 33)
	expectValue(t, sensorNamed(t, node, "Host Writes to Controller", hardware.Data), 2)
	expectValue(t, sensorNamed(t, node, "Controller Writes to NAND", hardware.Data), 3)
	expectValue(t, sensorNamed(t, node, "Write Amplification", hardware.Factor), 1.5)

	crc := sensorNamed(t, node, "CRC Error Count", hardware.RawValue)
	if !crc.IsDefaultHidden() {
		t.Error("CRC error count is not hidden by default")
	}
	for _, sensor := range node.Sensors() {
		if sensor.Name() == "Host Reads" {
			t.Error("sensor created for an attribute the drive does not report")
		}
	}
}

func TestTemperatureOffsetParameter(t *testing.T) {
	device := &fakeDevice{values: []Value{{ID: 0xC2, Current: 110, Raw: raw(38)}}}
	node := openDrive(t, "WDC WD10EZEX-00BN5A0", device, 1, noPartitions)

	temperature := sensorNamed(t, node, "Temperature", hardware.Temperature)
	parameter := temperature.Parameter(0)
	if parameter.Name() != "Offset [°C]" || parameter.DefaultValue() != 0 {
		t.Errorf("parameter = %s default %v", parameter.Name(), parameter.DefaultValue())
	}

	node.Update()
	expectValue(t, temperature, 38)
	parameter.SetValue(-3)
	node.Update()
	expectValue(t, temperature, 35)
}

func TestGenericDriveUsesFirstTemperatureAttribute(t *testing.T) {
	device := &fakeDevice{values: []Value{
		{ID: 0x09, Raw: raw(0xD2, 0x04)},
		{ID: 0xBE, Current: 62},
		{ID: 0xC2, Current: 110, Raw: raw(38)},
	}}
	node := openDrive(t, "ST2000DM001", device, 1, noPartitions)
	node.Update()

	var temperatures int
	for _, sensor := range node.Sensors() {
		if sensor.Type() == hardware.Temperature {
			temperatures++
		}
	}
	if temperatures != 1 {
		t.Fatalf("%d temperature sensors, want 1 per channel", temperatures)
	}
	expectValue(t, sensorNamed(t, node, "Temperature", hardware.Temperature), 38)
}

func TestUpdateDivider(t *testing.T) {
	device := &fakeDevice{values: []Value{{ID: 0xC2, Raw: raw(30)}}}
	node := openDrive(t, "ST2000DM001", device, 3, noPartitions)
	readsAtOpen := device.reads
	temperature := sensorNamed(t, node, "Temperature", hardware.Temperature)

	node.Update()
	expectValue(t, temperature, 30)

	device.values = []Value{{ID: 0xC2, Raw: raw(45)}}
	temperature.ClearValue()
	node.Update()
	expectValue(t, temperature, 30)
	node.Update()
	expectValue(t, temperature, 30)

	node.Update()
	expectValue(t, temperature, 45)
	if reads := device.reads - readsAtOpen; reads != 2 {
		t.Errorf("%d table reads in four updates, want 2", reads)
	}
}

func TestFailedReadKeepsPreviousValues(t *testing.T) {
	device := &fakeDevice{values: []Value{{ID: 0xC2, Raw: raw(30)}}}
	node := openDrive(t, "ST2000DM001", device, 1, noPartitions)
	node.Update()

	device.failing = true
	node.Update()
	expectValue(t, sensorNamed(t, node, "Temperature", hardware.Temperature), 30)
}

func TestSandforceWriteAmplification(t *testing.T) {
	device := &fakeDevice{values: []Value{
		{ID: 0xAB},
		{ID: 0xB1},
		{ID: 0xE9, Raw: raw(0x2C, 0x01)},
		{ID: 0xEA, Raw: raw(100)},
	}}
	node := openDrive(t, "SandForce 200026BB", device, 1, noPartitions)
	node.Update()
	expectValue(t, sensorNamed(t, node, "Write Amplification", hardware.Factor), 3)
	expectValue(t, sensorNamed(t, node, "Controller Writes to NAND", hardware.Data), 300)
}

func TestUsedSpace(t *testing.T) {
	var asked string
	partitions := func(_ context.Context, name string) []Partition {
		asked = name
		return []Partition{
			{Device: "/dev/sda1", Mountpoint: "/boot", Fstype: "vfat", Total: 100, Free: 50},
			{Device: "/dev/sda2", Mountpoint: "/", Fstype: "ext4", Total: 300, Free: 50},
		}
	}
	device := &fakeDevice{values: []Value{{ID: 0xC2, Raw: raw(30)}}}
	node := openDrive(t, "ST2000DM001", device, 1, partitions)
	node.Update()

	if asked != "sda" {
		t.Errorf("partitions requested for %q, want sda", asked)
	}
	expectValue(t, sensorNamed(t, node, "Used Space", hardware.Load), 75)
	if report := node.Report(); !strings.Contains(report, "Logical drive name: /boot") {
		t.Errorf("report does not list partitions:\n%s", report)
	}
}

func TestReport(t *testing.T) {
	device := &fakeDevice{
		values:     []Value{{ID: 0x05, Current: 100, Worst: 100}, {ID: 0xC2, Current: 110, Worst: 90, Raw: raw(0x26)}, {ID: 0x99, Current: 1}},
		thresholds: []Threshold{{0x05, 36}},
	}
	node := openDrive(t, "ST2000DM001", device, 1, noPartitions)
	report := node.Report()
	for _, want := range []string{
		"Generic Hard Disk",
		"Drive name: ST2000DM001",
		"Firmware version: 01.01A01",
		" ID Description",
		" 05 Reallocated Sectors Count",
		"36    -",
		" C2 Temperature",
		"260000000000",
		" 99 Unknown",
	} {
		if !strings.Contains(report, want) {
			t.Errorf("report missing %q:\n%s", want, report)
		}
	}
}

func TestGroupEnumeration(t *testing.T) {
	root := t.TempDir()
	testutil.WriteFile(t, root, "sys/block/loop0/removable", "0\n")
	testutil.WriteFile(t, root, "sys/block/sda/removable", "0\n")
	testutil.WriteFile(t, root, "sys/block/sda/device/model", "ST2000DM001-1CH1\n")
	testutil.WriteFile(t, root, "sys/block/sda/device/rev", "CC27\n")
	testutil.WriteFile(t, root, "sys/block/sdb/removable", "1\n")
	testutil.WriteFile(t, root, "sys/block/sdc/removable", "0\n")
	testutil.WriteFile(t, root, "sys/block/sdd/removable", "0\n")
	roots := hwinfo.Roots{Sys: filepath.Join(root, "sys"), Dev: filepath.Join(root, "dev")}

	devices := map[string]*fakeDevice{
		"sda": {values: []Value{{ID: 0xC2, Raw: raw(30)}}},
		"sdd": {values: []Value{{ID: 0xC2, Raw: raw(31)}}},
	}
	var opened []string
	open := func(path string) (Device, Identity, error) {
		name := filepath.Base(path)
		opened = append(opened, name)
		if name == "sdc" {
			return nil, Identity{}, errors.New("permission denied")
		}
		return devices[name], Identity{}, nil
	}
	group := newGroup(Options{Roots: roots}, hardware.Environment{Logger: testutil.Logger(t)}.WithDefaults(), open, noPartitions)

	if strings.Join(opened, ",") != "sda,sdc,sdd" {
		t.Errorf("opened %v, want sda,sdc,sdd", opened)
	}
	nodes := group.Hardware()
	if len(nodes) != 2 {
		t.Fatalf("group has %d nodes, want 2", len(nodes))
	}
	if nodes[0].Name() != "ST2000DM001-1CH1" || nodes[1].Name() != "Generic Hard Disk" {
		t.Errorf("names = %q, %q", nodes[0].Name(), nodes[1].Name())
	}
	if nodes[1].Identifier().String() != "/hdd/1" {
		t.Errorf("second identifier = %s", nodes[1].Identifier())
	}
	if !strings.Contains(nodes[0].Report(), "Firmware version: CC27") {
		t.Errorf("sysfs firmware revision not used:\n%s", nodes[0].Report())
	}
	if !strings.Contains(group.Report(), "sdc: no SMART") {
		t.Errorf("group report:\n%s", group.Report())
	}

	group.Close()
	for name, device := range devices {
		if !device.closed {
			t.Errorf("%s not closed", name)
		}
	}
}

func TestOnDrive(t *testing.T) {
	tests := []struct {
		device string
		want   bool
	}{
		{"/dev/sda1", true},
		{"/dev/sda12", true},
		{"/dev/sda", false},
		{"/dev/sdaa1", false},
		{"/dev/sdb1", false},
		{"tmpfs", false},
	}
	for _, test := range tests {
		if got := onDrive(test.device, "sda"); got != test.want {
			t.Errorf("onDrive(%q) = %v, want %v", test.device, got, test.want)
		}
	}
}
