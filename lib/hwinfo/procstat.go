// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package hwinfo

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// userHZ is the tick rate of /proc/stat counters. The kernel exports
// USER_HZ, which is 100 on every Linux ABI regardless of CONFIG_HZ.
const userHZ = 100

// ProcessorTimes is the cumulative idle and total time of one logical
// processor.
type ProcessorTimes struct {
	ID    int
	Idle  time.Duration
	Total time.Duration
}

// ReadProcessorTimes parses the per-processor lines of
// procRoot/stat:
//
//	cpuN user nice system idle iowait irq softirq steal [guest guest_nice]
//
// idle = idle + iowait and total = the first eight fields. guest and
// guest_nice are already counted in user and nice, so adding them
// would count guest time twice. The aggregate "cpu" line is skipped.
func ReadProcessorTimes(procRoot string) ([]ProcessorTimes, error) {
	path := filepath.Join(procRoot, "stat")
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var times []ProcessorTimes
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		id, ok := processorNumber(fields[0])
		if !ok {
			continue
		}
		if len(fields) < 9 {
			return nil, fmt.Errorf("%s: %s has %d fields, want at least 8 counters", path, fields[0], len(fields)-1)
		}
		var counters [8]uint64
		for index := range counters {
			counters[index], err = strconv.ParseUint(fields[index+1], 10, 64)
			if err != nil {
				return nil, fmt.Errorf("%s: %s field %d: %w", path, fields[0], index+1, err)
			}
		}
		var total uint64
		for _, counter := range counters {
			total += counter
		}
		times = append(times, ProcessorTimes{
			ID:    id,
			Idle:  ticksToDuration(counters[3] + counters[4]),
			Total: ticksToDuration(total),
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return times, nil
}

func ticksToDuration(ticks uint64) time.Duration {
	return time.Duration(ticks) * (time.Second / userHZ)
}
