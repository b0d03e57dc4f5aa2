// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package machine

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/bureau-foundation/sensorcore/lib/atomicfile"
	"github.com/bureau-foundation/sensorcore/lib/hardware"
)

// LoadSettings reads the override file at path into a settings store.
// A missing file yields an empty store.
func LoadSettings(path string) (*hardware.MemorySettings, error) {
	settings := hardware.NewMemorySettings()
	if path == "" {
		return settings, nil
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return settings, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading settings: %w", err)
	}
	var values map[string]string
	if err := yaml.Unmarshal(data, &values); err != nil {
		return nil, fmt.Errorf("parsing settings %s: %w", path, err)
	}
	for key, value := range values {
		settings.Set(key, value)
	}
	return settings, nil
}

// SaveSettings writes every stored override to path, keys sorted.
func SaveSettings(path string, settings *hardware.MemorySettings) error {
	if path == "" {
		return nil
	}
	data, err := yaml.Marshal(settings.Snapshot())
	if err != nil {
		return fmt.Errorf("encoding settings: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating settings directory: %w", err)
	}
	if err := atomicfile.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing settings: %w", err)
	}
	return nil
}
