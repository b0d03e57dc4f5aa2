// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package smart

import (
	"context"
	"strings"

	"github.com/shirou/gopsutil/v3/disk"
)

// Partition is one mounted filesystem on a drive.
type Partition struct {
	Device     string
	Mountpoint string
	Fstype     string
	Total      uint64
	Free       uint64
}

// partitionLister returns the mounted partitions of block device name
// ("sda").
type partitionLister func(ctx context.Context, name string) []Partition

// mountedPartitions lists the partitions of name from the mount table
// and measures each with statfs.
func mountedPartitions(ctx context.Context, name string) []Partition {
	stats, err := disk.PartitionsWithContext(ctx, false)
	if err != nil {
		return nil
	}
	var partitions []Partition
	for _, stat := range stats {
		if !onDrive(stat.Device, name) {
			continue
		}
		usage, err := disk.UsageWithContext(ctx, stat.Mountpoint)
		if err != nil {
			continue
		}
		partitions = append(partitions, Partition{
			Device:     stat.Device,
			Mountpoint: stat.Mountpoint,
			Fstype:     stat.Fstype,
			Total:      usage.Total,
			Free:       usage.Free,
		})
	}
	return partitions
}

// onDrive reports whether device ("/dev/sda2") is a partition of the
// drive name ("sda").
func onDrive(device, name string) bool {
	suffix, ok := strings.CutPrefix(device, "/dev/"+name)
	if !ok || suffix == "" {
		return false
	}
	for _, r := range suffix {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// usedPercent is the share of the partitions' combined size in use,
// or false when they report no size.
func usedPercent(partitions []Partition) (float64, bool) {
	var total, free uint64
	for _, partition := range partitions {
		total += partition.Total
		free += partition.Free
	}
	if total == 0 {
		return 0, false
	}
	return 100 - 100*float64(free)/float64(total), true
}
