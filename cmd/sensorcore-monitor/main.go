// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// sensorcore-monitor is a live terminal view of the hardware sensor
// tree. It opens the same device families as sensorcore, polls them
// on the configured interval and shows every reading with its minimum
// and maximum, colored against the sensor's limit.
//
// Log records would corrupt the alternate screen, so they are dropped
// unless --log-file names a file to receive them as JSON.
package main

import (
	"errors"
	"io"
	"log/slog"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/spf13/pflag"
	"golang.org/x/term"

	"github.com/bureau-foundation/sensorcore/lib/cli"
	"github.com/bureau-foundation/sensorcore/lib/clock"
	"github.com/bureau-foundation/sensorcore/lib/config"
	"github.com/bureau-foundation/sensorcore/lib/hardware"
	"github.com/bureau-foundation/sensorcore/lib/machine"
	"github.com/bureau-foundation/sensorcore/lib/process"
	"github.com/bureau-foundation/sensorcore/lib/sensorui"
	"github.com/bureau-foundation/sensorcore/lib/version"
)

const usage = `sensorcore-monitor shows live hardware sensor readings.

Usage:
  sensorcore-monitor [flags]

Keys:
  j/k, arrows   move            h/l     collapse/expand hardware
  Enter         report/details  m       reset min/max
  .             hidden sensors  ?       all keys
  q             quit`

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		process.Fatal(err)
	}
}

type options struct {
	configPath string
	interval   time.Duration
	simulate   bool
	noColor    bool
	logFile    string
}

func run(args []string, stdout io.Writer) error {
	if len(args) > 0 && args[0] == "--version" {
		version.Print(stdout, "sensorcore-monitor")
		return nil
	}

	var opts options
	flagSet := pflag.NewFlagSet("sensorcore-monitor", pflag.ContinueOnError)
	flagSet.StringVar(&opts.configPath, "config", "", "configuration file (default: $"+config.EnvironmentVariable+")")
	flagSet.DurationVar(&opts.interval, "interval", 0, "time between polls (default: polling.interval from the config)")
	flagSet.BoolVar(&opts.simulate, "simulate", false, "replace /dev/port with a simulated Winbond W83627DHG")
	flagSet.BoolVar(&opts.noColor, "no-color", false, "render without colors (also honored: $NO_COLOR)")
	flagSet.StringVar(&opts.logFile, "log-file", "", "append JSON log records to this file")
	flagSet.Bool("version", false, "print version information and exit")

	if err := cli.Parse(flagSet, args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			cli.PrintUsage(stdout, usage, flagSet)
			return nil
		}
		return err
	}
	if showVersion, _ := flagSet.GetBool("version"); showVersion {
		version.Print(stdout, "sensorcore-monitor")
		return nil
	}
	if extra := flagSet.Args(); len(extra) > 0 {
		return cli.Validation("unexpected argument: %s", extra[0])
	}

	if !term.IsTerminal(int(os.Stdout.Fd())) {
		return cli.Unavailable("standard output is not a terminal").
			WithHint("Use sensorcore for piped or scripted output.")
	}
	lipgloss.SetColorProfile(colorProfile(opts.noColor, os.Getenv("NO_COLOR") != ""))

	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}
	interval, err := cfg.PollInterval()
	if err != nil {
		return cli.Validation("%w", err)
	}

	logger, closeLog, err := openLogger(opts.logFile, cfg.Logging.Level)
	if err != nil {
		return err
	}
	defer closeLog()

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

	model := sensorui.NewModel(computer, sensorui.Options{Interval: interval})
	program := tea.NewProgram(model, tea.WithAltScreen(), tea.WithMouseCellMotion())
	if _, err := program.Run(); err != nil {
		return cli.Internal("running monitor: %w", err)
	}

	if err := machine.SaveSettings(cfg.Paths.Settings, settings); err != nil {
		return cli.Internal("%w", err)
	}
	return nil
}

// colorProfile picks the lipgloss profile: plain ASCII when colors are
// turned off, otherwise whatever the terminal advertises.
func colorProfile(noColorFlag, noColorEnvironment bool) termenv.Profile {
	if noColorFlag || noColorEnvironment {
		return termenv.Ascii
	}
	return termenv.EnvColorProfile()
}

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
	if err := cfg.Validate(); err != nil {
		return nil, cli.Validation("invalid configuration: %w", err)
	}
	return cfg, nil
}

// openLogger returns a JSON logger appending to path, or a discarding
// logger when path is empty.
func openLogger(path, levelName string) (*slog.Logger, func(), error) {
	if path == "" {
		return slog.New(slog.DiscardHandler), func() {}, nil
	}
	level, err := cli.ParseLevel(levelName)
	if err != nil {
		return nil, nil, err
	}
	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, cli.Validation("cannot open log file %s: %w", path, err)
	}
	logger := slog.New(slog.NewJSONHandler(file, &slog.HandlerOptions{Level: level}))
	return logger, func() { file.Close() }, nil
}
