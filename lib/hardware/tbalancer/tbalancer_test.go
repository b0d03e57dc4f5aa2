// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package tbalancer

import (
	"errors"
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

// fakeBridge queues the answer to each query byte as it is written.
type fakeBridge struct {
	answers map[byte][]byte
	input   []byte
	written []byte
	purges  int
	closed  bool
}

func (b *fakeBridge) BytesToRead() (int, error) {
	if b.closed {
		return 0, errors.New("closed")
	}
	return len(b.input), nil
}

func (b *fakeBridge) Write(data []byte) (int, error) {
	if b.closed {
		return 0, errors.New("closed")
	}
	for _, query := range data {
		b.written = append(b.written, query)
		b.input = append(b.input, b.answers[query]...)
	}
	return len(data), nil
}

func (b *fakeBridge) ReadByte() (byte, error) {
	if len(b.input) == 0 {
		return 0, errors.New("empty")
	}
	value := b.input[0]
	b.input = b.input[1:]
	return value, nil
}

func (b *fakeBridge) Read(buffer []byte) (int, error) {
	count := copy(buffer, b.input)
	b.input = b.input[count:]
	return count, nil
}

func (b *fakeBridge) Purge() error {
	b.purges++
	b.input = nil
	return nil
}

func (b *fakeBridge) Close() error {
	b.closed = true
	return nil
}

// bigNGFrame returns a primary answer with one digital, one analog and
// one sensorhub probe, flow meter 1 and four fan channels.
func bigNGFrame() []byte {
	frame := make([]byte, FrameSize)
	frame[0] = startFlag
	frame[1] = bigNGMarker
	frame[versionOffset] = 0x2C

	frame[238] = 80 // digital 1: 40°C
	frame[260] = 61 // analog 1: 30.5°C
	frame[246] = 70 // sensorhub 1: 35°C

	frame[231] = 50
	frame[234] = 10

	frame[136] = 0b0010 // channel 2 analog, others PWM
	frame[148], frame[149] = 200, 0
	frame[137] = 25 // channel 1 PWM: 50%
	frame[142] = 80 // channel 2 analog: 80%
	return frame
}

// miniNGFrame returns an alternative answer with one attached miniNG.
func miniNGFrame() []byte {
	frame := make([]byte, FrameSize)
	frame[0] = startFlag
	frame[1] = miniNGMarker
	frame[1+miniNGEndOffset] = endFlag
	frame[8] = 50 // sensor 1: 25°C
	frame[44] = 60
	frame[16] = 70
	frame[17] = 30
	return frame
}

func ft232bm(index int) Candidate {
	return Candidate{
		Index:     index,
		Name:      "ttyUSB" + string(rune('0'+index)),
		Path:      "/dev/ttyUSB" + string(rune('0'+index)),
		Driver:    ftdiDriver,
		Vendor:    ftdiVendor,
		Product:   ft232Product,
		BCDDevice: ft232BMDevice,
	}
}

func testEnvironment(t *testing.T) (hardware.Environment, *clock.FakeClock) {
	fake := clock.Fake(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	return hardware.Environment{Clock: fake, Logger: testutil.Logger(t)}.WithDefaults(), fake
}

func bridgeOpener(bridges map[string]*fakeBridge) opener {
	return func(path string) (Bridge, error) {
		bridge, ok := bridges[path]
		if !ok {
			return nil, errors.New("no such device")
		}
		return bridge, nil
	}
}

func sensorNamed(t *testing.T, node *hardware.Hardware, name string, sensorType hardware.SensorType) *hardware.Sensor {
	t.Helper()
	for _, sensor := range node.Sensors() {
		if sensor.Name() == name && sensor.Type() == sensorType {
			return sensor
		}
	}
	t.Fatalf("no active %s sensor %q", sensorType, name)
	return nil
}

func hasSensor(node *hardware.Hardware, name string) bool {
	for _, sensor := range node.Sensors() {
		if sensor.Name() == name {
			return true
		}
	}
	return false
}

func TestProbe(t *testing.T) {
	wrongVersion := bigNGFrame()
	wrongVersion[versionOffset] = 0x3C
	wrongFlag := bigNGFrame()
	wrongFlag[0] = 0x55

	tests := []struct {
		name      string
		answer    []byte
		valid     bool
		status    string
		wantSleep time.Duration
	}{
		{"valid", bigNGFrame(), true, "OK", 0},
		{"bad version", wrongVersion, false, "Wrong Protocol Version: 0x3C", 0},
		{"wrong start flag", wrongFlag, false, "Wrong Startflag", 0},
		{"short frame", bigNGFrame()[:100], false, "Wrong Message Length: 99", 5 * probePollInterval},
		{"silent", nil, false, "No Response", 2 * probePollInterval},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			fake := clock.Fake(time.Unix(0, 0))
			bridge := &fakeBridge{
				answers: map[byte][]byte{queryPrimary: test.answer},
				input:   []byte{1, 2, 3},
			}
			result := probe(bridge, fake)
			if result.valid != test.valid || result.status != test.status {
				t.Errorf("probe = %v %q, want %v %q", result.valid, result.status, test.valid, test.status)
			}
			if bridge.purges != 1 {
				t.Errorf("purges = %d, want 1 before the query", bridge.purges)
			}
			if fake.Slept() != test.wantSleep {
				t.Errorf("slept %v, want %v", fake.Slept(), test.wantSleep)
			}
		})
	}
}

func TestGroupSkipsRejectedCandidates(t *testing.T) {
	environment, _ := testEnvironment(t)
	badVersion := bigNGFrame()
	badVersion[versionOffset] = 0x10

	wrongChip := ft232bm(0)
	wrongChip.BCDDevice = "0600"
	rejected := &fakeBridge{answers: map[byte][]byte{queryPrimary: badVersion}}
	adopted := &fakeBridge{answers: map[byte][]byte{queryPrimary: bigNGFrame()}}
	spare := &fakeBridge{answers: map[byte][]byte{queryPrimary: bigNGFrame()}}

	group := newGroup(
		[]Candidate{wrongChip, ft232bm(1), ft232bm(2), ft232bm(3)},
		environment,
		bridgeOpener(map[string]*fakeBridge{
			"/dev/ttyUSB1": rejected,
			"/dev/ttyUSB2": adopted,
			"/dev/ttyUSB3": spare,
		}))
	defer group.Close()

	nodes := group.Hardware()
	if len(nodes) != 1 {
		t.Fatalf("group has %d nodes, want 1", len(nodes))
	}
	if nodes[0].Identifier().String() != "/bigng/2" || nodes[0].Type() != hardware.TBalancer {
		t.Errorf("node = %s (%v), want /bigng/2 TBalancer", nodes[0].Identifier(), nodes[0].Type())
	}
	if !rejected.closed {
		t.Error("rejected candidate's port left open")
	}
	if adopted.closed {
		t.Error("adopted port closed")
	}
	if len(spare.written) != 0 {
		t.Error("candidate after the adopted controller was probed")
	}

	report := group.Report()
	for _, want := range []string{
		"Device Type: FT232R\nStatus: Wrong device type",
		"Status: Wrong Protocol Version: 0x10",
		"Device Index: 2\nDevice Name: ttyUSB2\nDevice Type: FT232BM\nStatus: OK",
	} {
		if !strings.Contains(report, want) {
			t.Errorf("report missing %q:\n%s", want, report)
		}
	}
}

func TestGroupWithoutCandidates(t *testing.T) {
	environment, _ := testEnvironment(t)
	group := newGroup(nil, environment, bridgeOpener(nil))
	if len(group.Hardware()) != 0 || group.Report() != "" {
		t.Errorf("empty enumeration produced %d nodes, report %q", len(group.Hardware()), group.Report())
	}
	group.Close()
}

func TestUpdateDecodesFrames(t *testing.T) {
	environment, fake := testEnvironment(t)
	bridge := &fakeBridge{answers: map[byte][]byte{queryPrimary: bigNGFrame(), queryAlternative: miniNGFrame()}}
	group := newGroup([]Candidate{ft232bm(0)}, environment, bridgeOpener(map[string]*fakeBridge{"/dev/ttyUSB0": bridge}))
	defer group.Close()
	node := group.Hardware()[0]

	if len(node.Sensors()) != 0 {
		t.Fatalf("sensors active before the first answer: %d", len(node.Sensors()))
	}
	if got := string(bridge.written); got != "\x38\x38" {
		t.Fatalf("written = %x, want probe and first query", bridge.written)
	}

	fake.Advance(alternativeDelay)
	if got := bridge.written[len(bridge.written)-1]; got != queryAlternative {
		t.Fatalf("last query = %#x, want the alternative request", got)
	}
	node.Update()

	checks := []struct {
		name       string
		sensorType hardware.SensorType
		want       float64
	}{
		{"Digital Sensor #1", hardware.Temperature, 40},
		{"Analog Sensor #1", hardware.Temperature, 30.5},
		{"Sensorhub Sensor #1", hardware.Temperature, 35},
		{"Flowmeter #1", hardware.Flow, 50.0 * 4 / 10 * 3600 / 509},
		{"Fan #1", hardware.Fan, 2300 * 0.5},
		{"Fan Channel #1", hardware.Control, 50},
		{"Fan #2", hardware.Fan, 0},
		{"Fan Channel #2", hardware.Control, 80},
		{"miniNG #1 Sensor #1", hardware.Temperature, 25},
		{"miniNG #1 Fan #1", hardware.Fan, 1200},
		{"miniNG #1 Fan Channel #1", hardware.Control, 70},
		{"miniNG #1 Fan Channel #2", hardware.Control, 30},
	}
	for _, check := range checks {
		value, ok := sensorNamed(t, node, check.name, check.sensorType).Value()
		if !ok || math.Abs(value-check.want) > 1e-9 {
			t.Errorf("%s = %v (%v), want %v", check.name, value, ok, check.want)
		}
	}
	for _, absent := range []string{"Digital Sensor #2", "Flowmeter #2", "miniNG #1 Sensor #2", "miniNG #2 Fan #1"} {
		if hasSensor(node, absent) {
			t.Errorf("%s active without a reading", absent)
		}
	}

	maxRPM := sensorNamed(t, node, "Fan #1", hardware.Fan).Parameter(0)
	if maxRPM.Name() != "MaxRPM" || maxRPM.DefaultValue() != 2300 {
		t.Errorf("MaxRPM parameter = %s %v, want default 2300", maxRPM.Name(), maxRPM.DefaultValue())
	}

	report := node.Report()
	for _, want := range []string{
		"Port Index: 0",
		"Primary System Information Answer",
		" 000   64 FF 00",
		"Alternative System Information Answer",
		" 000   64 FD 00",
		" 110   00 00 00 00 00 00 00 00 00 00 00 00 00\n",
	} {
		if !strings.Contains(report, want) {
			t.Errorf("report missing %q:\n%s", want, report)
		}
	}
}

func TestTemperatureDeactivatesAfterTwoMisses(t *testing.T) {
	environment, _ := testEnvironment(t)
	bridge := &fakeBridge{answers: map[byte][]byte{queryPrimary: bigNGFrame()}}
	group := newGroup([]Candidate{ft232bm(0)}, environment, bridgeOpener(map[string]*fakeBridge{"/dev/ttyUSB0": bridge}))
	defer group.Close()
	node := group.Hardware()[0]

	node.Update()
	if !hasSensor(node, "Digital Sensor #1") {
		t.Fatal("digital sensor not active after a reading")
	}

	empty := bigNGFrame()
	empty[238] = 0
	bridge.answers[queryPrimary] = empty

	node.Update() // reads the last good frame
	node.Update()
	if !hasSensor(node, "Digital Sensor #1") {
		t.Fatal("digital sensor deactivated after one miss")
	}
	node.Update()
	if hasSensor(node, "Digital Sensor #1") {
		t.Error("digital sensor still active after two misses")
	}

	bridge.answers[queryPrimary] = bigNGFrame()
	node.Update()
	node.Update()
	if !hasSensor(node, "Digital Sensor #1") {
		t.Error("digital sensor not reactivated by a new reading")
	}
}

func TestFramesOfAnotherVersionAreIgnored(t *testing.T) {
	environment, _ := testEnvironment(t)
	bridge := &fakeBridge{answers: map[byte][]byte{queryPrimary: bigNGFrame()}}
	group := newGroup([]Candidate{ft232bm(0)}, environment, bridgeOpener(map[string]*fakeBridge{"/dev/ttyUSB0": bridge}))
	defer group.Close()
	node := group.Hardware()[0]

	other := bigNGFrame()
	other[versionOffset] = 0x2A
	bridge.input = append(bridge.input[:0], other...)
	bridge.answers[queryPrimary] = nil
	node.Update()
	if len(node.Sensors()) != 0 {
		t.Errorf("frame with version 0x2A activated %d sensors", len(node.Sensors()))
	}
}

func TestStrayByteIsDropped(t *testing.T) {
	environment, _ := testEnvironment(t)
	bridge := &fakeBridge{answers: map[byte][]byte{queryPrimary: bigNGFrame()}}
	group := newGroup([]Candidate{ft232bm(0)}, environment, bridgeOpener(map[string]*fakeBridge{"/dev/ttyUSB0": bridge}))
	defer group.Close()
	node := group.Hardware()[0]

	bridge.input = []byte{0x99}
	node.Update()
	node.Update()
	if !hasSensor(node, "Fan #1") {
		t.Error("frame after a stray byte was not decoded")
	}
}

func TestCloseCancelsAlternativeRequest(t *testing.T) {
	environment, fake := testEnvironment(t)
	bridge := &fakeBridge{answers: map[byte][]byte{queryPrimary: bigNGFrame()}}
	group := newGroup([]Candidate{ft232bm(0)}, environment, bridgeOpener(map[string]*fakeBridge{"/dev/ttyUSB0": bridge}))
	written := len(bridge.written)

	group.Close()
	if !bridge.closed {
		t.Fatal("port not closed")
	}
	fake.Advance(time.Second)
	if len(bridge.written) != written {
		t.Error("alternative request written after close")
	}
}

func TestEnumerate(t *testing.T) {
	root := t.TempDir()
	writePort := func(tty, usbPath, driver, product, bcd string) {
		portDir := filepath.Join("sys/devices/pci0000:00/usb1", usbPath, usbPath+":1.0", tty)
		testutil.Mkdir(t, root, portDir)
		testutil.Mkdir(t, root, "sys/bus/usb-serial/drivers/"+driver)
		testutil.Symlink(t, root, filepath.Join(portDir, "driver"), filepath.Join(root, "sys/bus/usb-serial/drivers", driver))
		usbDevice := filepath.Join("sys/devices/pci0000:00/usb1", usbPath)
		testutil.WriteFile(t, root, filepath.Join(usbDevice, "idVendor"), "0403\n")
		testutil.WriteFile(t, root, filepath.Join(usbDevice, "idProduct"), product+"\n")
		testutil.WriteFile(t, root, filepath.Join(usbDevice, "bcdDevice"), bcd+"\n")
		testutil.Symlink(t, root, filepath.Join("sys/bus/usb-serial/devices", tty), filepath.Join(root, portDir))
	}
	writePort("ttyUSB10", "1-3", "ftdi_sio", "6001", "0600")
	writePort("ttyUSB2", "1-2", "ftdi_sio", "6001", "0400")

	roots := hwinfo.Roots{Sys: filepath.Join(root, "sys"), Dev: filepath.Join(root, "dev")}
	candidates := Enumerate(roots)
	if len(candidates) != 2 {
		t.Fatalf("Enumerate = %d candidates, want 2", len(candidates))
	}
	first := candidates[0]
	if first.Name != "ttyUSB2" || first.Index != 0 || first.Path != filepath.Join(root, "dev", "ttyUSB2") {
		t.Errorf("first candidate = %+v", first)
	}
	if !first.isFT232BM() || first.DeviceType() != "FT232BM" {
		t.Errorf("first candidate type = %s, want FT232BM", first.DeviceType())
	}
	if candidates[1].DeviceType() != "FT232R" || candidates[1].isFT232BM() {
		t.Errorf("second candidate type = %s, want FT232R", candidates[1].DeviceType())
	}
}
