// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

//go:build !linux

package tbalancer

func openSerial(path string) (Bridge, error) { return nil, ErrNotSupported }
