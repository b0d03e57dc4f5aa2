// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package sensorui is the bubbletea model of the live sensor monitor.
// It polls a hardware.Computer on a fixed interval and renders the
// hardware tree as a scrollable list: hardware rows, one heading per
// sensor type, then each sensor's value, minimum and maximum.
//
// Readings are colored by how close they are to their limit, and
// readings that just moved are tinted for a few seconds. Enter on a
// hardware row opens its diagnostic report in an overlay; on a sensor
// row it opens the sensor's details and parameters.
package sensorui
