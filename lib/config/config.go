// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"
)

// EnvironmentVariable names the variable Load reads the config path from.
const EnvironmentVariable = "SENSORCORE_CONFIG"

// Config is the configuration for the sensor engine and its commands.
type Config struct {
	// Hardware selects which device families Computer.Open probes.
	Hardware HardwareConfig `yaml:"hardware" toml:"hardware"`

	// Paths relocates the kernel interfaces the probes read. Tests and
	// offline analysis point these at captured trees.
	Paths PathsConfig `yaml:"paths" toml:"paths"`

	// Polling configures the update loop.
	Polling PollingConfig `yaml:"polling" toml:"polling"`

	// Snapshot configures CBOR snapshot export.
	Snapshot SnapshotConfig `yaml:"snapshot" toml:"snapshot"`

	// Logging configures the command logger.
	Logging LoggingConfig `yaml:"logging" toml:"logging"`
}

// HardwareConfig enables device families. All default to true except
// the fan controller, which opens serial devices.
type HardwareConfig struct {
	Mainboard     bool `yaml:"mainboard" toml:"mainboard"`
	CPU           bool `yaml:"cpu" toml:"cpu"`
	RAM           bool `yaml:"ram" toml:"ram"`
	GPU           bool `yaml:"gpu" toml:"gpu"`
	HDD           bool `yaml:"hdd" toml:"hdd"`
	FanController bool `yaml:"fan_controller" toml:"fan_controller"`
}

// PathsConfig configures kernel interface locations.
type PathsConfig struct {
	// SysRoot is the sysfs mount point. Default: /sys
	SysRoot string `yaml:"sys_root" toml:"sys_root"`

	// ProcRoot is the procfs mount point. Default: /proc
	ProcRoot string `yaml:"proc_root" toml:"proc_root"`

	// DevRoot holds device nodes (ttyUSB*, sd*, dri/renderD*).
	// Default: /dev
	DevRoot string `yaml:"dev_root" toml:"dev_root"`

	// DevPort is the I/O port device used for Super-I/O access.
	// Default: /dev/port
	DevPort string `yaml:"dev_port" toml:"dev_port"`

	// Settings is a YAML file of user overrides (sensor names, limits,
	// parameter values) loaded at start and saved on exit. Empty keeps
	// overrides in memory only.
	Settings string `yaml:"settings" toml:"settings"`
}

// PollingConfig configures the update loop.
type PollingConfig struct {
	// Interval between Computer.Update calls, as a Go duration string.
	// Default: 1s
	Interval string `yaml:"interval" toml:"interval"`

	// HDDUpdateDivider makes each drive re-read its SMART table only
	// every Nth update. Default: 30
	HDDUpdateDivider int `yaml:"hdd_update_divider" toml:"hdd_update_divider"`

	// CPUSampler selects the source of per-processor times:
	// "gopsutil" or "procstat". Default: gopsutil
	CPUSampler string `yaml:"cpu_sampler" toml:"cpu_sampler"`
}

// SnapshotConfig configures snapshot export.
type SnapshotConfig struct {
	// Path is the snapshot output file. Empty disables export.
	Path string `yaml:"path" toml:"path"`

	// Compression is "zstd", "lz4" or "none". Default: zstd
	Compression string `yaml:"compression" toml:"compression"`
}

// LoggingConfig configures the command logger.
type LoggingConfig struct {
	// Level is "debug", "info", "warn" or "error". Default: info
	Level string `yaml:"level" toml:"level"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Hardware: HardwareConfig{
			Mainboard: true,
			CPU:       true,
			RAM:       true,
			GPU:       true,
			HDD:       true,
		},
		Paths: PathsConfig{
			SysRoot:  "/sys",
			ProcRoot: "/proc",
			DevRoot:  "/dev",
			DevPort:  "/dev/port",
		},
		Polling: PollingConfig{
			Interval:         "1s",
			HDDUpdateDivider: 30,
			CPUSampler:       "gopsutil",
		},
		Snapshot: SnapshotConfig{
			Compression: "zstd",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load loads configuration from the file named by SENSORCORE_CONFIG.
// It fails when the variable is unset; commands that tolerate a
// missing configuration use Default directly.
func Load() (*Config, error) {
	configPath := os.Getenv(EnvironmentVariable)
	if configPath == "" {
		return nil, fmt.Errorf("%s environment variable not set; "+
			"set it to the path of your sensorcore config file, or use --config flag", EnvironmentVariable)
	}
	return LoadFile(configPath)
}

// LoadFile loads configuration from path over the defaults. The format
// follows the extension: .toml is TOML, .json and .jsonc are JSON with
// comments, anything else is YAML.
func LoadFile(path string) (*Config, error) {
	cfg := Default()
	if err := cfg.loadFile(path); err != nil {
		return nil, err
	}
	cfg.expandVariables()
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		if err := toml.Unmarshal(data, c); err != nil {
			return fmt.Errorf("parsing %s as TOML: %w", path, err)
		}
	case ".json", ".jsonc":
		// JSON is a YAML subset; yaml.v3 decodes it through the same
		// struct tags once comments and trailing commas are stripped.
		if err := yaml.Unmarshal(jsonc.ToJSON(data), c); err != nil {
			return fmt.Errorf("parsing %s as JSON: %w", path, err)
		}
	default:
		if err := yaml.Unmarshal(data, c); err != nil {
			return fmt.Errorf("parsing %s as YAML: %w", path, err)
		}
	}
	return nil
}

// expandVariables expands ${VAR} and ${VAR:-default} in path fields.
func (c *Config) expandVariables() {
	vars := map[string]string{
		"HOME": os.Getenv("HOME"),
	}
	c.Paths.SysRoot = expandVars(c.Paths.SysRoot, vars)
	c.Paths.ProcRoot = expandVars(c.Paths.ProcRoot, vars)
	c.Paths.DevRoot = expandVars(c.Paths.DevRoot, vars)
	c.Paths.DevPort = expandVars(c.Paths.DevPort, vars)
	c.Paths.Settings = expandVars(c.Paths.Settings, vars)
	c.Snapshot.Path = expandVars(c.Snapshot.Path, vars)
}

var varPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

func expandVars(s string, vars map[string]string) string {
	return varPattern.ReplaceAllStringFunc(s, func(match string) string {
		parts := varPattern.FindStringSubmatch(match)
		if len(parts) < 2 {
			return match
		}
		name := parts[1]
		defaultValue := ""
		if len(parts) >= 3 {
			defaultValue = parts[2]
		}
		if value, ok := vars[name]; ok && value != "" {
			return value
		}
		if value := os.Getenv(name); value != "" {
			return value
		}
		return defaultValue
	})
}

// PollInterval returns Polling.Interval parsed as a duration.
func (c *Config) PollInterval() (time.Duration, error) {
	interval, err := time.ParseDuration(c.Polling.Interval)
	if err != nil {
		return 0, fmt.Errorf("polling.interval: %w", err)
	}
	return interval, nil
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []error

	if interval, err := c.PollInterval(); err != nil {
		errs = append(errs, err)
	} else if interval <= 0 {
		errs = append(errs, fmt.Errorf("polling.interval must be positive, got %s", c.Polling.Interval))
	}

	if c.Polling.HDDUpdateDivider < 1 {
		errs = append(errs, fmt.Errorf("polling.hdd_update_divider must be at least 1, got %d", c.Polling.HDDUpdateDivider))
	}

	samplers := []string{"gopsutil", "procstat"}
	if !contains(samplers, c.Polling.CPUSampler) {
		errs = append(errs, fmt.Errorf("polling.cpu_sampler must be one of: %v", samplers))
	}

	compressions := []string{"zstd", "lz4", "none"}
	if !contains(compressions, c.Snapshot.Compression) {
		errs = append(errs, fmt.Errorf("snapshot.compression must be one of: %v", compressions))
	}

	levels := []string{"debug", "info", "warn", "error"}
	if !contains(levels, c.Logging.Level) {
		errs = append(errs, fmt.Errorf("logging.level must be one of: %v", levels))
	}

	if c.Paths.SysRoot == "" {
		errs = append(errs, errors.New("paths.sys_root is required"))
	}
	if c.Paths.ProcRoot == "" {
		errs = append(errs, errors.New("paths.proc_root is required"))
	}

	return errors.Join(errs...)
}

func contains(slice []string, s string) bool {
	for _, v := range slice {
		if v == s {
			return true
		}
	}
	return false
}
