// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package hardware

import (
	"slices"
	"sync"
)

// Driver is the device-specific half of a hardware node. Attach runs
// once from New and declares the driver's sensors on the node; Update
// re-reads the device and republishes values.
//
// A driver may also implement Reporter to contribute diagnostics and
// Closer to release handles when the node closes.
type Driver interface {
	Attach(hardware *Hardware)
	Update()
}

// Reporter is implemented by drivers and groups with free-form
// diagnostics.
type Reporter interface {
	Report() string
}

// Closer is implemented by drivers holding device handles.
type Closer interface {
	Close()
}

// State is the lifecycle state of a hardware node.
type State int

const (
	StateConstructed State = iota
	StateUpdating
	StateUpdated
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateConstructed:
		return "constructed"
	case StateUpdating:
		return "updating"
	case StateUpdated:
		return "updated"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Descriptor is the identity of a hardware node.
type Descriptor struct {
	Identifier Identifier
	Name       string
	Type       HardwareType
}

// Hardware is one device: a mainboard, a Super-I/O chip, a CPU
// package, a drive. It owns its sensors and sub-hardware.
type Hardware struct {
	descriptor  Descriptor
	environment Environment
	driver      Driver

	mu            sync.Mutex
	name          string
	state         State
	subHardware   []*Hardware
	sensors       []*Sensor
	sensorAdded   []func(*Sensor)
	sensorRemoved []func(*Sensor)
}

// New constructs a hardware node and attaches driver to it. A nil
// driver makes Update a no-op, which suits container nodes such as a
// mainboard whose readings live on sub-hardware.
func New(descriptor Descriptor, environment Environment, driver Driver) *Hardware {
	hardware := &Hardware{
		descriptor:  descriptor,
		environment: environment.WithDefaults(),
		driver:      driver,
		name:        descriptor.Name,
	}
	if stored, ok := hardware.environment.Settings.Get(hardware.nameKey()); ok && stored != "" {
		hardware.name = stored
	}
	if driver != nil {
		driver.Attach(hardware)
	}
	return hardware
}

func (h *Hardware) nameKey() string { return h.descriptor.Identifier.String() + "/name" }

func (h *Hardware) Kind() NodeKind           { return KindHardware }
func (h *Hardware) Identifier() Identifier   { return h.descriptor.Identifier }
func (h *Hardware) Type() HardwareType       { return h.descriptor.Type }
func (h *Hardware) Environment() Environment { return h.environment }

// Name returns the user's name for the node or its default name.
func (h *Hardware) Name() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.name
}

// SetName sets the display name. An empty name restores the default.
// The identifier never changes.
func (h *Hardware) SetName(name string) {
	h.mu.Lock()
	if name == "" {
		h.name = h.descriptor.Name
	} else {
		h.name = name
	}
	h.mu.Unlock()
	if name == "" {
		h.environment.Settings.Remove(h.nameKey())
	} else {
		h.environment.Settings.Set(h.nameKey(), name)
	}
}

// State returns the lifecycle state.
func (h *Hardware) State() State {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.state
}

// NewSensor declares a sensor owned by this node. The sensor is not
// published until ActivateSensor.
func (h *Hardware) NewSensor(name string, index int, sensorType SensorType, options ...SensorOption) *Sensor {
	return newSensor(h, name, index, sensorType, options)
}

// ActivateSensor publishes sensor in Sensors. Activating an active
// sensor is a no-op.
func (h *Hardware) ActivateSensor(sensor *Sensor) {
	h.mu.Lock()
	if slices.Contains(h.sensors, sensor) {
		h.mu.Unlock()
		return
	}
	h.sensors = append(h.sensors, sensor)
	callbacks := slices.Clone(h.sensorAdded)
	h.mu.Unlock()

	for _, callback := range callbacks {
		callback(sensor)
	}
}

// DeactivateSensor removes sensor from Sensors. Its min, max and
// history survive for a later reactivation.
func (h *Hardware) DeactivateSensor(sensor *Sensor) {
	h.mu.Lock()
	index := slices.Index(h.sensors, sensor)
	if index < 0 {
		h.mu.Unlock()
		return
	}
	h.sensors = slices.Delete(h.sensors, index, index+1)
	callbacks := slices.Clone(h.sensorRemoved)
	h.mu.Unlock()

	for _, callback := range callbacks {
		callback(sensor)
	}
}

// SetSensorActive activates or deactivates sensor.
func (h *Hardware) SetSensorActive(sensor *Sensor, active bool) {
	if active {
		h.ActivateSensor(sensor)
	} else {
		h.DeactivateSensor(sensor)
	}
}

// OnSensorAdded registers a callback run after each activation.
func (h *Hardware) OnSensorAdded(callback func(*Sensor)) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.sensorAdded = append(h.sensorAdded, callback)
}

// OnSensorRemoved registers a callback run after each deactivation.
func (h *Hardware) OnSensorRemoved(callback func(*Sensor)) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.sensorRemoved = append(h.sensorRemoved, callback)
}

// Sensors returns the active sensors in activation order.
func (h *Hardware) Sensors() []*Sensor {
	h.mu.Lock()
	defer h.mu.Unlock()
	return slices.Clone(h.sensors)
}

// AddSubHardware appends child to this node.
func (h *Hardware) AddSubHardware(child *Hardware) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.subHardware = append(h.subHardware, child)
}

// SubHardware returns the child nodes in insertion order.
func (h *Hardware) SubHardware() []*Hardware {
	h.mu.Lock()
	defer h.mu.Unlock()
	return slices.Clone(h.subHardware)
}

// Update runs the driver once. A call made while another Update on the
// same node is in progress returns immediately, as does a call on a
// closed node. Update never recurses into sub-hardware; traversal with
// UpdateVisitor reaches every node.
func (h *Hardware) Update() {
	h.mu.Lock()
	switch h.state {
	case StateClosed:
		h.mu.Unlock()
		return
	case StateUpdating:
		h.mu.Unlock()
		h.environment.Logger.Debug("skipping re-entrant update",
			"hardware", h.descriptor.Identifier.String())
		return
	}
	h.state = StateUpdating
	h.mu.Unlock()

	if h.driver != nil {
		h.driver.Update()
	}

	h.mu.Lock()
	if h.state == StateUpdating {
		h.state = StateUpdated
	}
	h.mu.Unlock()
}

// Report returns the driver's diagnostics, or "" when it has none.
func (h *Hardware) Report() string {
	if reporter, ok := h.driver.(Reporter); ok {
		return reporter.Report()
	}
	return ""
}

// Close closes sub-hardware in reverse order, then the driver. Closing
// twice is a no-op.
func (h *Hardware) Close() {
	h.mu.Lock()
	if h.state == StateClosed {
		h.mu.Unlock()
		return
	}
	h.state = StateClosed
	children := slices.Clone(h.subHardware)
	h.mu.Unlock()

	for index := len(children) - 1; index >= 0; index-- {
		children[index].Close()
	}
	if closer, ok := h.driver.(Closer); ok {
		closer.Close()
	}
}

// Accept calls visitor.VisitHardware unless the node is closed.
// Panics on a nil visitor.
func (h *Hardware) Accept(visitor Visitor) {
	mustVisitor(visitor)
	if h.State() == StateClosed {
		return
	}
	visitor.VisitHardware(h)
}

// Traverse accepts visitor on each sub-hardware node, then on each
// active sensor.
func (h *Hardware) Traverse(visitor Visitor) {
	if h.State() == StateClosed {
		return
	}
	for _, child := range h.SubHardware() {
		child.Accept(visitor)
	}
	for _, sensor := range h.Sensors() {
		sensor.Accept(visitor)
	}
}
