// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package cpu

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	gopsutilcpu "github.com/shirou/gopsutil/v3/cpu"

	"github.com/bureau-foundation/sensorcore/lib/hwinfo"
)

// Sampler returns the cumulative idle and total time of every logical
// processor.
type Sampler interface {
	Sample(ctx context.Context) ([]hwinfo.ProcessorTimes, error)
}

// Sampler names accepted by NewSampler.
const (
	SamplerGopsutil = "gopsutil"
	SamplerProcStat = "procstat"
)

// NewSampler returns the sampler called name. procstat reads
// procRoot/stat directly; gopsutil reads the host's /proc.
func NewSampler(name, procRoot string) (Sampler, error) {
	switch name {
	case "", SamplerGopsutil:
		return GopsutilSampler{}, nil
	case SamplerProcStat:
		return ProcStatSampler{ProcRoot: procRoot}, nil
	default:
		return nil, fmt.Errorf("unknown CPU sampler %q (want %s or %s)", name, SamplerGopsutil, SamplerProcStat)
	}
}

// GopsutilSampler samples with gopsutil's per-CPU times.
type GopsutilSampler struct{}

func (GopsutilSampler) Sample(ctx context.Context) ([]hwinfo.ProcessorTimes, error) {
	stats, err := gopsutilcpu.TimesWithContext(ctx, true)
	if err != nil {
		return nil, fmt.Errorf("reading per-CPU times: %w", err)
	}
	times := make([]hwinfo.ProcessorTimes, 0, len(stats))
	for _, stat := range stats {
		id, err := strconv.Atoi(strings.TrimPrefix(stat.CPU, "cpu"))
		if err != nil {
			continue
		}
		idle := stat.Idle + stat.Iowait
		total := stat.User + stat.Nice + stat.System + stat.Idle + stat.Iowait + stat.Irq + stat.Softirq + stat.Steal
		times = append(times, hwinfo.ProcessorTimes{
			ID:    id,
			Idle:  seconds(idle),
			Total: seconds(total),
		})
	}
	return times, nil
}

func seconds(value float64) time.Duration {
	return time.Duration(value * float64(time.Second))
}

// ProcStatSampler parses ProcRoot/stat.
type ProcStatSampler struct {
	ProcRoot string
}

func (s ProcStatSampler) Sample(context.Context) ([]hwinfo.ProcessorTimes, error) {
	return hwinfo.ReadProcessorTimes(s.ProcRoot)
}
