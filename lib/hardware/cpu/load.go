// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package cpu

import (
	"context"
	"time"

	"github.com/bureau-foundation/sensorcore/lib/hwinfo"
)

// DebounceThreshold is the least CPU time every processor must have
// accumulated since the last sample before loads are recomputed.
// Shorter intervals give noisy ratios.
const DebounceThreshold = 10 * time.Millisecond

// Load computes per-core and total CPU load from the change in idle
// and total time between two samples.
type Load struct {
	sampler Sampler
	cores   [][]int

	idle      map[int]time.Duration
	total     map[int]time.Duration
	available bool

	coreLoads []float64
	totalLoad float64
}

// NewLoad takes the baseline sample. cores lists the logical
// processor IDs of each core. A failed baseline makes the load
// unavailable for the lifetime of the value.
func NewLoad(ctx context.Context, sampler Sampler, cores [][]int) *Load {
	load := &Load{sampler: sampler, cores: cores, coreLoads: make([]float64, len(cores))}
	times, err := sampler.Sample(ctx)
	if err != nil || len(times) == 0 {
		return load
	}
	load.idle, load.total = index(times)
	load.available = true
	return load
}

func index(times []hwinfo.ProcessorTimes) (idle, total map[int]time.Duration) {
	idle = make(map[int]time.Duration, len(times))
	total = make(map[int]time.Duration, len(times))
	for _, sample := range times {
		idle[sample.ID] = sample.Idle
		total[sample.ID] = sample.Total
	}
	return idle, total
}

// Available reports whether the baseline sample succeeded.
func (l *Load) Available() bool { return l.available }

// Total is the load of all processors in percent.
func (l *Load) Total() float64 { return l.totalLoad }

// Core is the load of core index in percent.
func (l *Load) Core(index int) float64 { return l.coreLoads[index] }

// Update takes a new sample. When any processor has advanced by less
// than DebounceThreshold since the previous sample, the update is
// skipped and the previous loads and baseline are kept.
func (l *Load) Update(ctx context.Context) {
	if !l.available {
		return
	}
	times, err := l.sampler.Sample(ctx)
	if err != nil {
		return
	}
	idle, total := index(times)
	for id, now := range total {
		if previous, ok := l.total[id]; ok && now-previous < DebounceThreshold {
			return
		}
	}

	var sum float64
	var count int
	for coreIndex, processors := range l.cores {
		var coreIdle float64
		var present int
		for _, id := range processors {
			ratio, ok := l.idleRatio(id, idle, total)
			if !ok {
				continue
			}
			coreIdle += ratio
			present++
			sum += ratio
			count++
		}
		if present == 0 {
			l.coreLoads[coreIndex] = 0
			continue
		}
		l.coreLoads[coreIndex] = percent(1 - coreIdle/float64(present))
	}
	if count > 0 {
		l.totalLoad = percent(1 - sum/float64(count))
	} else {
		l.totalLoad = 0
	}
	l.idle, l.total = idle, total
}

// idleRatio is the share of processor id's elapsed time spent idle.
func (l *Load) idleRatio(id int, idle, total map[int]time.Duration) (float64, bool) {
	previousTotal, ok := l.total[id]
	currentTotal, present := total[id]
	if !ok || !present {
		return 0, false
	}
	elapsed := currentTotal - previousTotal
	if elapsed <= 0 {
		return 0, false
	}
	return float64(idle[id]-l.idle[id]) / float64(elapsed), true
}

// percent clamps a busy fraction to [0, 1] and scales it to percent.
func percent(busy float64) float64 {
	return 100 * min(max(busy, 0), 1)
}
