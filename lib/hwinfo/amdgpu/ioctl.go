// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

//go:build linux

package amdgpu

import (
	"encoding/binary"
	"fmt"
	"os"
	"unsafe"

	"golang.org/x/sys/unix"
)

// DRM ioctl constants derived from the upstream Linux kernel UAPI headers
// (include/uapi/drm/amdgpu_drm.h). These are stable ABI.
const (
	// ioctlAMDGPUInfo is the fully encoded ioctl number for
	// DRM_IOCTL_AMDGPU_INFO. Encodes _IOW('d', 0x45, 64) where 64
	// is sizeof(struct drm_amdgpu_info).
	//
	// Bit layout: direction(1=write) << 30 | size(64) << 16 | type('d') << 8 | nr(0x45)
	ioctlAMDGPUInfo = 0x40406445

	amdgpuInfoSensor = 0x1D
)

// drmAMDGPUInfoRequest mirrors struct drm_amdgpu_info from the kernel
// UAPI header. The struct is 64 bytes total: 8 (return_pointer) + 4
// (return_size) + 4 (query) + 48 (union data). For sensor queries,
// only the first 4 bytes of the union are used (sensor type).
type drmAMDGPUInfoRequest struct {
	returnPointer uint64
	returnSize    uint32
	query         uint32
	unionData     [48]byte
}

// renderNode is an open /dev/dri/renderD* file.
type renderNode struct {
	file *os.File
}

func openRenderNode(path string) (sensorQuerier, error) {
	file, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return nil, err
	}
	return &renderNode{file: file}, nil
}

// QuerySensor issues a single AMDGPU_INFO_SENSOR ioctl and returns the
// uint32 result.
func (n *renderNode) QuerySensor(sensorType uint32) (uint32, error) {
	var result uint32

	var request drmAMDGPUInfoRequest
	request.returnPointer = uint64(uintptr(unsafe.Pointer(&result)))
	request.returnSize = 4
	request.query = amdgpuInfoSensor
	binary.LittleEndian.PutUint32(request.unionData[:4], sensorType)

	_, _, errno := unix.Syscall(
		unix.SYS_IOCTL,
		n.file.Fd(),
		uintptr(ioctlAMDGPUInfo),
		uintptr(unsafe.Pointer(&request)),
	)
	if errno != 0 {
		return 0, fmt.Errorf("amdgpu ioctl sensor query 0x%x: %w", sensorType, errno)
	}
	return result, nil
}

func (n *renderNode) Close() error {
	return n.file.Close()
}
