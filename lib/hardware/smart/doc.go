// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package smart decodes ATA SMART attribute tables and exposes each
// fixed disk as a hardware node.
//
// A drive returns two 512-byte sectors: the attribute values and the
// attribute thresholds. Both hold up to 30 twelve-byte records after a
// two-byte revision. What an attribute's raw bytes mean depends on the
// vendor, so each supported drive family declares a [Table] mapping
// attribute IDs to names, conversions and sensors. The first table
// whose model prefix matches and whose required attributes are all
// present is used; the generic table matches everything.
//
// On Linux the tables are read with the HDIO_DRIVE_CMD ioctl on
// /dev/sdX and the model comes from HDIO_GET_IDENTITY. Reading SMART
// wakes the drive's controller, so a drive re-reads its table only
// every Nth update and reasserts the previous values in between.
package smart
