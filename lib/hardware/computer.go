// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package hardware

import (
	"slices"
	"sync"
)

// Computer is the root of the sensor tree. It owns the groups of every
// enabled device family.
//
// Structural operations (Open, Close, SetEnabled) are serialized with
// each other. Hardware event callbacks run while that serialization is
// held and must not call back into those operations.
type Computer struct {
	environment Environment
	openers     map[Family]Opener

	lifecycle sync.Mutex

	mu              sync.Mutex
	enabled         map[Family]bool
	open            bool
	groups          []familyGroup
	hardwareAdded   []func(*Hardware)
	hardwareRemoved []func(*Hardware)
}

type familyGroup struct {
	family Family
	group  Group
}

// NewComputer returns a closed computer. openers supplies the probe
// for each family; families without an opener can be enabled but
// contribute nothing. No family is enabled initially.
func NewComputer(environment Environment, openers map[Family]Opener) *Computer {
	return &Computer{
		environment: environment.WithDefaults(),
		openers:     openers,
		enabled:     make(map[Family]bool),
	}
}

func (c *Computer) Kind() NodeKind           { return KindComputer }
func (c *Computer) Identifier() Identifier   { return Identifier{} }
func (c *Computer) Environment() Environment { return c.environment }

// Enabled reports whether family is enabled.
func (c *Computer) Enabled(family Family) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.enabled[family]
}

// IsOpen reports whether Open has run without a later Close.
func (c *Computer) IsOpen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.open
}

// SetEnabled enables or disables family. On an open computer the
// family's groups are opened or closed immediately, firing
// HardwareAdded or HardwareRemoved for each of their nodes.
func (c *Computer) SetEnabled(family Family, enabled bool) {
	c.lifecycle.Lock()
	defer c.lifecycle.Unlock()

	c.mu.Lock()
	changed := c.enabled[family] != enabled
	c.enabled[family] = enabled
	open := c.open
	c.mu.Unlock()

	if !changed || !open {
		return
	}
	if enabled {
		for _, group := range c.openFamily(family) {
			c.addGroup(family, group)
		}
		return
	}

	c.mu.Lock()
	var removed []Group
	for _, entry := range c.groups {
		if entry.family == family {
			removed = append(removed, entry.group)
		}
	}
	c.mu.Unlock()
	for index := len(removed) - 1; index >= 0; index-- {
		c.removeGroup(removed[index])
	}
}

// Open probes every enabled family in the fixed order mainboard, CPU,
// RAM, GPU, fan controller, HDD. It fires no events. Opening an open
// computer is a no-op.
func (c *Computer) Open() {
	c.lifecycle.Lock()
	defer c.lifecycle.Unlock()

	c.mu.Lock()
	if c.open {
		c.mu.Unlock()
		return
	}
	enabled := make(map[Family]bool, len(c.enabled))
	for family, on := range c.enabled {
		enabled[family] = on
	}
	c.mu.Unlock()

	var opened []familyGroup
	for _, family := range Families() {
		if !enabled[family] {
			continue
		}
		for _, group := range c.openFamily(family) {
			opened = append(opened, familyGroup{family: family, group: group})
		}
	}

	c.mu.Lock()
	c.groups = opened
	c.open = true
	c.mu.Unlock()
}

func (c *Computer) openFamily(family Family) []Group {
	opener := c.openers[family]
	if opener == nil {
		return nil
	}
	groups := opener(c.environment)
	c.environment.Logger.Debug("opened hardware family",
		"family", family.String(), "groups", len(groups))
	return groups
}

func (c *Computer) addGroup(family Family, group Group) {
	c.mu.Lock()
	c.groups = append(c.groups, familyGroup{family: family, group: group})
	callbacks := slices.Clone(c.hardwareAdded)
	c.mu.Unlock()

	for _, hardware := range group.Hardware() {
		for _, callback := range callbacks {
			callback(hardware)
		}
	}
}

func (c *Computer) removeGroup(group Group) {
	c.mu.Lock()
	index := slices.IndexFunc(c.groups, func(entry familyGroup) bool { return entry.group == group })
	if index < 0 {
		c.mu.Unlock()
		return
	}
	c.groups = slices.Delete(c.groups, index, index+1)
	callbacks := slices.Clone(c.hardwareRemoved)
	c.mu.Unlock()

	for _, hardware := range group.Hardware() {
		for _, callback := range callbacks {
			callback(hardware)
		}
	}
	group.Close()
}

// Close removes every group, last opened first, firing HardwareRemoved
// for each node and closing each group exactly once.
func (c *Computer) Close() {
	c.lifecycle.Lock()
	defer c.lifecycle.Unlock()

	c.mu.Lock()
	if !c.open {
		c.mu.Unlock()
		return
	}
	groups := slices.Clone(c.groups)
	c.mu.Unlock()

	for index := len(groups) - 1; index >= 0; index-- {
		c.removeGroup(groups[index].group)
	}

	c.mu.Lock()
	c.open = false
	c.mu.Unlock()
}

// OnHardwareAdded registers a callback for nodes added by SetEnabled.
func (c *Computer) OnHardwareAdded(callback func(*Hardware)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.hardwareAdded = append(c.hardwareAdded, callback)
}

// OnHardwareRemoved registers a callback for nodes removed by
// SetEnabled or Close.
func (c *Computer) OnHardwareRemoved(callback func(*Hardware)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.hardwareRemoved = append(c.hardwareRemoved, callback)
}

// Groups returns the active groups in opening order.
func (c *Computer) Groups() []Group {
	c.mu.Lock()
	defer c.mu.Unlock()
	groups := make([]Group, len(c.groups))
	for index, entry := range c.groups {
		groups[index] = entry.group
	}
	return groups
}

// Hardware returns the root nodes of every group in group order.
func (c *Computer) Hardware() []*Hardware {
	var nodes []*Hardware
	for _, group := range c.Groups() {
		nodes = append(nodes, group.Hardware()...)
	}
	return nodes
}

// Update updates every hardware node in the tree.
func (c *Computer) Update() {
	c.Accept(UpdateVisitor{})
}

// Accept calls visitor.VisitComputer. Panics on a nil visitor.
func (c *Computer) Accept(visitor Visitor) {
	mustVisitor(visitor)
	visitor.VisitComputer(c)
}

// Traverse accepts visitor on each root hardware node.
func (c *Computer) Traverse(visitor Visitor) {
	for _, hardware := range c.Hardware() {
		hardware.Accept(visitor)
	}
}
