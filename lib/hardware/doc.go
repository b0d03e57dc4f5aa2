// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package hardware is the object model of the sensor engine: a
// [Computer] owns [Group]s, a group owns [Hardware] nodes, and a node
// owns its sub-hardware and [Sensor]s. Sensors carry [Parameter]s.
//
// # Identity
//
// Every node has an [Identifier], a slash-separated path that is
// unique in the live tree and stable for the lifetime of the device
// instance: "/lpc/w83627dhg" for a Super-I/O chip,
// "/lpc/w83627dhg/voltage/0" for its first voltage input,
// "/lpc/w83627dhg/voltage/0/parameter/ri[kω]" for a divider parameter.
// User overrides (names, limits, parameter values) are stored in
// [Settings] under these strings.
//
// # Drivers
//
// Device access lives in subpackages. Each constructs nodes with [New]
// and a [Driver]: Attach declares sensors once, Update re-reads the
// device. Per-chip behaviour is expressed as immutable tables selected
// when the driver is built, not as node subtypes.
//
// Drivers never fail an Update. A register that cannot be read leaves
// its sensor absent for the cycle (ClearValue) and the error is logged
// at debug level.
//
// # Traversal
//
// [Visitor] has one method per [NodeKind]; Accept calls exactly one of
// them and does not recurse. [Walk] is the closure form for code that
// wants every node. [UpdateVisitor] updates every node, parents before
// children; [Computer.Update] is shorthand for accepting it.
//
// # Lifecycle
//
// A node moves from constructed to updating to updated and finally to
// closed. A re-entrant Update is skipped. A closed node ignores Update
// and is invisible to traversal. [Computer.Close] closes groups in
// reverse opening order and each group releases its handles exactly
// once.
package hardware
