// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/bureau-foundation/sensorcore/lib/cli"
	"github.com/bureau-foundation/sensorcore/lib/config"
	"github.com/bureau-foundation/sensorcore/lib/hardware"
	"github.com/bureau-foundation/sensorcore/lib/snapshot"
	"github.com/bureau-foundation/sensorcore/lib/testutil"
)

// offlineConfigFile writes a configuration whose kernel roots are empty
// temporary directories, so only the simulated board produces sensors.
func offlineConfigFile(t *testing.T, extra string) string {
	t.Helper()
	root := t.TempDir()
	content := `hardware:
  mainboard: true
  cpu: false
  ram: false
  gpu: false
  hdd: false
paths:
  sys_root: ` + filepath.Join(root, "sys") + `
  proc_root: ` + filepath.Join(root, "proc") + `
  dev_root: ` + filepath.Join(root, "dev") + `
  dev_port: ` + filepath.Join(root, "dev", "port") + `
polling:
  interval: 1ms
logging:
  level: error
` + extra
	testutil.WriteFile(t, root, "sensorcore.yaml", content)
	return filepath.Join(root, "sensorcore.yaml")
}

func TestVersion(t *testing.T) {
	var output bytes.Buffer
	if err := run(context.Background(), []string{"--version"}, &output); err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(output.String(), "sensorcore ") {
		t.Errorf("version output = %q", output.String())
	}
}

func TestHelp(t *testing.T) {
	var output bytes.Buffer
	if err := run(context.Background(), []string{"--help"}, &output); err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"Usage:", "--snapshot", "--simulate"} {
		if !strings.Contains(output.String(), want) {
			t.Errorf("help lacks %q", want)
		}
	}
}

func TestSingleReading(t *testing.T) {
	var output bytes.Buffer
	err := run(context.Background(), []string{"--config", offlineConfigFile(t, ""), "--simulate"}, &output)
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(output.String()), "\n")
	if !strings.HasPrefix(lines[0], "HARDWARE") {
		t.Fatalf("first line = %q, want the table header", lines[0])
	}
	if len(lines) < 2 {
		t.Fatal("no sensor rows")
	}
	if !strings.Contains(output.String(), "Winbond W83627DHG") {
		t.Errorf("simulated chip missing from readings:\n%s", output.String())
	}
}

func TestReport(t *testing.T) {
	var output bytes.Buffer
	err := run(context.Background(), []string{"--config", offlineConfigFile(t, ""), "--simulate", "--report"}, &output)
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"sensorcore Report", "Sensors", "Parameters", "/lpc/w83627dhg"} {
		if !strings.Contains(output.String(), want) {
			t.Errorf("report lacks %q", want)
		}
	}
}

func TestPollingWritesSnapshots(t *testing.T) {
	archive := filepath.Join(t.TempDir(), "readings.snsc")
	var output bytes.Buffer
	err := run(context.Background(), []string{
		"--config", offlineConfigFile(t, ""),
		"--simulate",
		"--count", "3",
		"--snapshot", archive,
		"--compression", "lz4",
	}, &output)
	if err != nil {
		t.Fatal(err)
	}
	if headers := strings.Count(output.String(), "HARDWARE"); headers != 3 {
		t.Errorf("printed %d tables, want 3", headers)
	}

	snapshots, err := snapshot.ReadFile(archive)
	if err != nil {
		t.Fatal(err)
	}
	if len(snapshots) != 3 {
		t.Fatalf("archive holds %d snapshots, want 3", len(snapshots))
	}
	if len(snapshots[0].Hardware) == 0 {
		t.Error("snapshot captured no hardware")
	}
	if !snapshots[0].Taken.Before(snapshots[2].Taken) && !snapshots[0].Taken.Equal(snapshots[2].Taken) {
		t.Errorf("snapshots out of order: %v after %v", snapshots[0].Taken, snapshots[2].Taken)
	}
}

func TestInterruptedPollingStillWritesSnapshot(t *testing.T) {
	archive := filepath.Join(t.TempDir(), "readings.snsc")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var output bytes.Buffer
	err := run(ctx, []string{
		"--config", offlineConfigFile(t, ""),
		"--simulate",
		"--count", "0",
		"--interval", "1h",
		"--snapshot", archive,
	}, &output)
	if err != nil {
		t.Fatal(err)
	}
	snapshots, err := snapshot.ReadFile(archive)
	if err != nil {
		t.Fatal(err)
	}
	if len(snapshots) != 1 {
		t.Errorf("archive holds %d snapshots, want the one taken before the interrupt", len(snapshots))
	}
}

func TestSettingsArePersisted(t *testing.T) {
	settingsPath := filepath.Join(t.TempDir(), "state", "settings.yaml")
	configPath := offlineConfigFile(t, "")
	data, err := os.ReadFile(configPath)
	if err != nil {
		t.Fatal(err)
	}
	data = bytes.Replace(data, []byte("paths:\n"), []byte("paths:\n  settings: "+settingsPath+"\n"), 1)
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		t.Fatal(err)
	}

	var output bytes.Buffer
	if err := run(context.Background(), []string{"--config", configPath, "--simulate"}, &output); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(settingsPath); err != nil {
		t.Errorf("settings file not written: %v", err)
	}
}

func TestErrorsAreCategorized(t *testing.T) {
	t.Setenv(config.EnvironmentVariable, "")
	tests := []struct {
		name     string
		args     []string
		category cli.ErrorCategory
	}{
		{"UnknownFlag", []string{"--reprot"}, cli.CategoryValidation},
		{"ExtraArgument", []string{"now"}, cli.CategoryValidation},
		{"NegativeCount", []string{"--count", "-1"}, cli.CategoryValidation},
		{"MissingConfig", []string{"--config", filepath.Join(t.TempDir(), "absent.yaml")}, cli.CategoryNotFound},
		{"BadCompression", []string{"--compression", "gzip"}, cli.CategoryValidation},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			err := run(context.Background(), test.args, &bytes.Buffer{})
			var toolErr *cli.ToolError
			if !errors.As(err, &toolErr) {
				t.Fatalf("run error = %v, want a ToolError", err)
			}
			if toolErr.Category != test.category {
				t.Errorf("category = %s, want %s (%v)", toolErr.Category, test.category, err)
			}
		})
	}
}

func TestLoadConfigFromEnvironment(t *testing.T) {
	t.Setenv(config.EnvironmentVariable, offlineConfigFile(t, "snapshot:\n  compression: none\n"))
	cfg, err := loadConfig(options{})
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Snapshot.Compression != "none" || cfg.Hardware.CPU {
		t.Errorf("environment config not applied: %+v", cfg)
	}

	cfg, err = loadConfig(options{compression: "zstd", interval: 5e9})
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Snapshot.Compression != "zstd" || cfg.Polling.Interval != "5s" {
		t.Errorf("flag overrides not applied: %+v", cfg.Polling)
	}
}

func TestWriteReadingsOrder(t *testing.T) {
	computer := hardware.NewComputer(hardware.Environment{}, nil)
	var output bytes.Buffer
	writeReadings(&output, computer)
	if strings.TrimSpace(output.String()) != "HARDWARE  SENSOR  TYPE  VALUE  MIN  MAX  UNIT" {
		t.Errorf("empty computer table = %q", output.String())
	}
}
