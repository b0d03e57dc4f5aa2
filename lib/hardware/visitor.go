// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package hardware

import "errors"

// NodeKind distinguishes the four node types of the tree.
type NodeKind int

const (
	KindComputer NodeKind = iota
	KindHardware
	KindSensor
	KindParameter
)

func (k NodeKind) String() string {
	switch k {
	case KindComputer:
		return "computer"
	case KindHardware:
		return "hardware"
	case KindSensor:
		return "sensor"
	case KindParameter:
		return "parameter"
	default:
		return "unknown"
	}
}

// Node is implemented by *Computer, *Hardware, *Sensor and *Parameter.
type Node interface {
	Kind() NodeKind
	Identifier() Identifier
	Accept(visitor Visitor)
	Traverse(visitor Visitor)
}

// Visitor receives exactly one call per Accept. Visits do not recurse
// on their own; an implementation that wants children calls Traverse
// on the node it was given.
type Visitor interface {
	VisitComputer(computer *Computer)
	VisitHardware(hardware *Hardware)
	VisitSensor(sensor *Sensor)
	VisitParameter(parameter *Parameter)
}

func mustVisitor(visitor Visitor) {
	if visitor == nil {
		panic("hardware: nil visitor")
	}
}

// SkipChildren returned by a Walk handler skips the node's children.
var SkipChildren = errors.New("skip children")

// Walk visits node and every descendant in pre-order, calling handler
// once per node. Closed hardware and its subtree are skipped. The
// first error other than SkipChildren stops the walk and is returned.
func Walk(node Node, handler func(Node) error) error {
	walker := &walker{handler: handler}
	node.Accept(walker)
	return walker.err
}

type walker struct {
	handler func(Node) error
	err     error
}

func (w *walker) visit(node Node) {
	if w.err != nil {
		return
	}
	err := w.handler(node)
	if errors.Is(err, SkipChildren) {
		return
	}
	if err != nil {
		w.err = err
		return
	}
	node.Traverse(w)
}

func (w *walker) VisitComputer(computer *Computer)    { w.visit(computer) }
func (w *walker) VisitHardware(hardware *Hardware)    { w.visit(hardware) }
func (w *walker) VisitSensor(sensor *Sensor)          { w.visit(sensor) }
func (w *walker) VisitParameter(parameter *Parameter) { w.visit(parameter) }

// UpdateVisitor updates every hardware node it reaches, parents before
// children.
type UpdateVisitor struct{}

func (UpdateVisitor) VisitComputer(computer *Computer) { computer.Traverse(UpdateVisitor{}) }

func (UpdateVisitor) VisitHardware(hardware *Hardware) {
	hardware.Update()
	for _, child := range hardware.SubHardware() {
		child.Accept(UpdateVisitor{})
	}
}

func (UpdateVisitor) VisitSensor(*Sensor)       {}
func (UpdateVisitor) VisitParameter(*Parameter) {}

// SensorVisitor calls its function for every active sensor in the
// subtree it is accepted on.
type SensorVisitor func(*Sensor)

func (v SensorVisitor) VisitComputer(computer *Computer) { computer.Traverse(v) }
func (v SensorVisitor) VisitHardware(hardware *Hardware) { hardware.Traverse(v) }
func (v SensorVisitor) VisitSensor(sensor *Sensor)       { v(sensor) }
func (SensorVisitor) VisitParameter(*Parameter)          {}
