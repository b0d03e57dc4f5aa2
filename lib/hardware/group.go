// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package hardware

// Group probes one device family at construction and owns the
// resulting hardware nodes. A group whose probe found nothing holds no
// handles and returns an empty list.
type Group interface {
	// Hardware returns the root nodes created by the probe.
	Hardware() []*Hardware

	// Report returns probe diagnostics, including failed candidates.
	Report() string

	// Close closes the group's hardware and releases its handles.
	Close()
}

// Family is a device family the Computer can enable.
type Family int

const (
	FamilyMainboard Family = iota
	FamilyCPU
	FamilyRAM
	FamilyGPU
	FamilyFanController
	FamilyHDD
)

// Families lists every family in opening order.
func Families() []Family {
	return []Family{FamilyMainboard, FamilyCPU, FamilyRAM, FamilyGPU, FamilyFanController, FamilyHDD}
}

func (f Family) String() string {
	switch f {
	case FamilyMainboard:
		return "mainboard"
	case FamilyCPU:
		return "cpu"
	case FamilyRAM:
		return "ram"
	case FamilyGPU:
		return "gpu"
	case FamilyFanController:
		return "fan_controller"
	case FamilyHDD:
		return "hdd"
	default:
		return "unknown"
	}
}

// Opener constructs the groups of one family. It runs the family's
// probes synchronously.
type Opener func(environment Environment) []Group

// StaticGroup is a Group over an already constructed node list with
// an optional report and release function.
type StaticGroup struct {
	Nodes      []*Hardware
	ReportText string
	Release    func()
}

func (g *StaticGroup) Hardware() []*Hardware { return g.Nodes }
func (g *StaticGroup) Report() string        { return g.ReportText }

// Close closes the nodes in reverse order, then runs Release once.
func (g *StaticGroup) Close() {
	for index := len(g.Nodes) - 1; index >= 0; index-- {
		g.Nodes[index].Close()
	}
	if g.Release != nil {
		g.Release()
		g.Release = nil
	}
}
