// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

//go:build !linux

package amdgpu

import "errors"

func openRenderNode(path string) (sensorQuerier, error) {
	return nil, errors.New("amdgpu render nodes are only available on linux")
}
