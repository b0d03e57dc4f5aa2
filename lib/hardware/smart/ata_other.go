// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

//go:build !linux

package smart

func openATADevice(string) (Device, Identity, error) {
	return nil, Identity{}, ErrNotSupported
}
