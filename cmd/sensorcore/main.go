// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// sensorcore reads the machine's hardware sensors: Super-I/O chips,
// processors, memory, GPUs, fan controllers and drives.
//
// By default it opens every enabled device family, updates once and
// prints one table of readings. --count and --interval turn that into
// a polling loop (--count 0 polls until interrupted); --report prints
// the full diagnostic report instead; --snapshot records every poll
// into a compressed CBOR archive readable by lib/snapshot.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/shirou/gopsutil/v3/host"
	"github.com/spf13/pflag"

	"github.com/bureau-foundation/sensorcore/lib/cli"
	"github.com/bureau-foundation/sensorcore/lib/clock"
	"github.com/bureau-foundation/sensorcore/lib/config"
	"github.com/bureau-foundation/sensorcore/lib/hardware"
	"github.com/bureau-foundation/sensorcore/lib/machine"
	"github.com/bureau-foundation/sensorcore/lib/process"
	"github.com/bureau-foundation/sensorcore/lib/snapshot"
	"github.com/bureau-foundation/sensorcore/lib/version"
)

const usage = `sensorcore reads hardware sensors and prints their values.

Usage:
  sensorcore [flags]

Examples:
  # One reading of every enabled device family
  sensorcore

  # Poll every 2 seconds until interrupted, recording a snapshot archive
  sensorcore --count 0 --interval 2s --snapshot readings.snsc

  # Full diagnostic report against the simulated Winbond board
  sensorcore --simulate --report`

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := run(ctx, os.Args[1:], os.Stdout)
	stop()
	if err != nil {
		process.Fatal(err)
	}
}

type options struct {
	report       bool
	simulate     bool
	interval     time.Duration
	count        int
	snapshotPath string
	compression  string
	configPath   string
}

func run(ctx context.Context, args []string, stdout io.Writer) error {
	// Handle --version before flag parsing so it works alongside
	// otherwise invalid flags.
	if len(args) > 0 && args[0] == "--version" {
		version.Print(stdout, "sensorcore")
		return nil
	}

	var opts options
	flagSet := pflag.NewFlagSet("sensorcore", pflag.ContinueOnError)
	flagSet.BoolVar(&opts.report, "report", false, "print the full diagnostic report and exit")
	flagSet.DurationVar(&opts.interval, "interval", 0, "time between polls (default: polling.interval from the config)")
	flagSet.IntVar(&opts.count, "count", 1, "number of polls; 0 polls until interrupted")
	flagSet.StringVar(&opts.snapshotPath, "snapshot", "", "write every poll to this snapshot archive")
	flagSet.StringVar(&opts.compression, "compression", "", "snapshot compression: zstd, lz4 or none")
	flagSet.StringVar(&opts.configPath, "config", "", "configuration file (default: $"+config.EnvironmentVariable+")")
	flagSet.BoolVar(&opts.simulate, "simulate", false, "replace /dev/port with a simulated Winbond W83627DHG")
	flagSet.Bool("version", false, "print version information and exit")

	if err := cli.Parse(flagSet, args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			cli.PrintUsage(stdout, usage, flagSet)
			return nil
		}
		return err
	}
	if showVersion, _ := flagSet.GetBool("version"); showVersion {
		version.Print(stdout, "sensorcore")
		return nil
	}
	if extra := flagSet.Args(); len(extra) > 0 {
		return cli.Validation("unexpected argument: %s", extra[0])
	}
	if opts.count < 0 {
		return cli.Validation("--count must not be negative, got %d", opts.count)
	}

	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}
	level, err := cli.ParseLevel(cfg.Logging.Level)
	if err != nil {
		return err
	}
	logger := cli.NewCommandLogger(level)

	settings, err := machine.LoadSettings(cfg.Paths.Settings)
	if err != nil {
		return cli.Validation("%w", err)
	}

	computer, err := machine.NewComputer(machine.Options{Config: cfg, Simulate: opts.simulate},
		hardware.Environment{Settings: settings, Clock: clock.Real(), Logger: logger})
	if err != nil {
		return cli.Validation("%w", err)
	}
	computer.Open()
	defer computer.Close()
	logger.Debug("computer opened", "hardware", len(computer.Hardware()), "groups", len(computer.Groups()))

	if opts.report {
		computer.Update()
		fmt.Fprint(stdout, computer.Report())
	} else if err := poll(ctx, computer, cfg, opts.count, stdout, logger); err != nil {
		return err
	}

	if cfg.Paths.Settings != "" {
		if err := machine.SaveSettings(cfg.Paths.Settings, settings); err != nil {
			return cli.Internal("%w", err)
		}
	}
	return nil
}

// loadConfig reads --config, then $SENSORCORE_CONFIG, then the
// defaults, and applies the flag overrides on top.
func loadConfig(opts options) (*config.Config, error) {
	var cfg *config.Config
	var err error
	switch {
	case opts.configPath != "":
		cfg, err = config.LoadFile(opts.configPath)
	case os.Getenv(config.EnvironmentVariable) != "":
		cfg, err = config.Load()
	default:
		cfg = config.Default()
	}
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, cli.NotFound("%w", err)
		}
		return nil, cli.Validation("%w", err)
	}

	if opts.interval != 0 {
		cfg.Polling.Interval = opts.interval.String()
	}
	if opts.compression != "" {
		cfg.Snapshot.Compression = opts.compression
	}
	if opts.snapshotPath != "" {
		cfg.Snapshot.Path = opts.snapshotPath
	}
	if err := cfg.Validate(); err != nil {
		return nil, cli.Validation("invalid configuration: %w", err)
	}
	return cfg, nil
}

// poll updates the computer count times (forever when count is 0),
// printing a table after each update. Snapshots are captured per poll
// and written once the loop ends, including on interrupt.
func poll(ctx context.Context, computer *hardware.Computer, cfg *config.Config, count int, stdout io.Writer, logger *slog.Logger) error {
	interval, err := cfg.PollInterval()
	if err != nil {
		return cli.Validation("%w", err)
	}
	compression, err := snapshot.ParseCompression(cfg.Snapshot.Compression)
	if err != nil {
		return cli.Validation("%w", err)
	}

	hostName := hostName(ctx)
	var snapshots []snapshot.Snapshot
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

polling:
	for iteration := 0; count == 0 || iteration < count; iteration++ {
		if iteration > 0 {
			select {
			case <-ctx.Done():
				logger.Info("polling interrupted", "polls", iteration)
				break polling
			case <-ticker.C:
			}
		}
		computer.Update()
		taken := time.Now()
		if count != 1 {
			fmt.Fprintf(stdout, "%s\n", taken.Format(time.RFC3339))
		}
		writeReadings(stdout, computer)
		if cfg.Snapshot.Path != "" {
			snapshots = append(snapshots, snapshot.Capture(computer, hostName, taken))
		}
	}

	if cfg.Snapshot.Path == "" {
		return nil
	}
	if err := snapshot.WriteFile(cfg.Snapshot.Path, snapshots, compression); err != nil {
		return cli.Internal("%w", err)
	}
	logger.Info("snapshot written", "path", cfg.Snapshot.Path,
		"snapshots", len(snapshots), "compression", compression.String())
	return nil
}

// writeReadings prints one row per active sensor, grouped by hardware
// in tree order.
func writeReadings(output io.Writer, computer *hardware.Computer) {
	writer := tabwriter.NewWriter(output, 0, 4, 2, ' ', 0)
	fmt.Fprintln(writer, "HARDWARE\tSENSOR\tTYPE\tVALUE\tMIN\tMAX\tUNIT")
	hardware.Walk(computer, func(node hardware.Node) error {
		owner, ok := node.(*hardware.Hardware)
		if !ok {
			return nil
		}
		for _, sensor := range hardware.SortedSensors(owner) {
			fmt.Fprintf(writer, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
				owner.Name(),
				sensor.Name(),
				sensor.Type(),
				hardware.FormatReading(sensor.Value()),
				hardware.FormatReading(sensor.Min()),
				hardware.FormatReading(sensor.Max()),
				sensor.Type().Unit())
		}
		return nil
	})
	writer.Flush()
}

func hostName(ctx context.Context) string {
	if info, err := host.InfoWithContext(ctx); err == nil && info.Hostname != "" {
		return info.Hostname
	}
	name, _ := os.Hostname()
	return name
}
