// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package hardware

import (
	"testing"

	"github.com/bureau-foundation/sensorcore/lib/clock"
)

// countingDriver declares one load sensor and publishes its update
// count. reenter makes Update call back into the node.
type countingDriver struct {
	hardware *Hardware
	sensor   *Sensor
	updates  int
	closes   int
	reenter  bool
	closeLog *[]string
	name     string
}

func (d *countingDriver) Attach(hardware *Hardware) {
	d.hardware = hardware
	d.sensor = hardware.NewSensor("Updates", 0, Load)
	hardware.ActivateSensor(d.sensor)
}

func (d *countingDriver) Update() {
	d.updates++
	if d.reenter {
		d.hardware.Update()
	}
	d.sensor.SetValue(float64(d.updates))
}

func (d *countingDriver) Report() string { return "counting driver " + d.name }

func (d *countingDriver) Close() {
	d.closes++
	if d.closeLog != nil {
		*d.closeLog = append(*d.closeLog, d.name)
	}
}

func newCountingHardware(name string, driver *countingDriver) *Hardware {
	driver.name = name
	return New(Descriptor{Identifier: MustIdentifier("test", name), Name: name, Type: FanController},
		Environment{Clock: clock.Fake(epoch)}, driver)
}

func TestHardwareLifecycle(t *testing.T) {
	driver := &countingDriver{}
	hardware := newCountingHardware("a", driver)

	if hardware.State() != StateConstructed {
		t.Fatalf("State = %v, want constructed", hardware.State())
	}
	hardware.Update()
	if hardware.State() != StateUpdated || driver.updates != 1 {
		t.Fatalf("after Update: state %v, updates %d", hardware.State(), driver.updates)
	}

	hardware.Close()
	hardware.Close()
	if driver.closes != 1 {
		t.Errorf("driver closed %d times, want 1", driver.closes)
	}
	hardware.Update()
	if driver.updates != 1 {
		t.Error("Update ran on a closed node")
	}
}

func TestHardwareRejectsReentrantUpdate(t *testing.T) {
	driver := &countingDriver{reenter: true}
	hardware := newCountingHardware("reentrant", driver)
	hardware.Update()
	if driver.updates != 1 {
		t.Errorf("updates = %d, want 1", driver.updates)
	}
	if hardware.State() != StateUpdated {
		t.Errorf("State = %v, want updated", hardware.State())
	}
}

func TestHardwareSensorActivationEvents(t *testing.T) {
	hardware := New(Descriptor{Identifier: MustIdentifier("ram"), Name: "Generic Memory", Type: RAM},
		Environment{}, nil)
	var added, removed []string
	hardware.OnSensorAdded(func(sensor *Sensor) { added = append(added, sensor.Name()) })
	hardware.OnSensorRemoved(func(sensor *Sensor) { removed = append(removed, sensor.Name()) })

	sensor := hardware.NewSensor("Memory", 0, Load)
	if len(hardware.Sensors()) != 0 {
		t.Fatal("declared sensor published before activation")
	}
	hardware.ActivateSensor(sensor)
	hardware.ActivateSensor(sensor)
	hardware.DeactivateSensor(sensor)
	hardware.DeactivateSensor(sensor)

	if len(added) != 1 || len(removed) != 1 {
		t.Errorf("added %v removed %v, want one each", added, removed)
	}
}

func TestHardwareNameDoesNotChangeIdentifier(t *testing.T) {
	hardware := New(Descriptor{Identifier: MustIdentifier("mainboard"), Name: "Unknown", Type: Mainboard},
		Environment{}, nil)
	hardware.SetName("Workstation Board")
	if hardware.Name() != "Workstation Board" {
		t.Errorf("Name = %q", hardware.Name())
	}
	if hardware.Identifier().String() != "/mainboard" {
		t.Errorf("Identifier changed to %s", hardware.Identifier())
	}
	hardware.SetName("")
	if hardware.Name() != "Unknown" {
		t.Errorf("Name after reset = %q, want Unknown", hardware.Name())
	}
}

func TestHardwareCloseOrder(t *testing.T) {
	var closeLog []string
	parent := newCountingHardware("parent", &countingDriver{closeLog: &closeLog})
	parent.AddSubHardware(newCountingHardware("first", &countingDriver{closeLog: &closeLog}))
	parent.AddSubHardware(newCountingHardware("second", &countingDriver{closeLog: &closeLog}))

	parent.Close()
	want := []string{"second", "first", "parent"}
	if len(closeLog) != len(want) {
		t.Fatalf("close order = %v, want %v", closeLog, want)
	}
	for index := range want {
		if closeLog[index] != want[index] {
			t.Fatalf("close order = %v, want %v", closeLog, want)
		}
	}
}

func TestAcceptNilVisitorPanics(t *testing.T) {
	hardware := newCountingHardware("nil", &countingDriver{})
	defer func() {
		if recover() == nil {
			t.Fatal("Accept(nil) did not panic")
		}
	}()
	hardware.Accept(nil)
}
