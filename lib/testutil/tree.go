// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package testutil

import (
	"os"
	"path/filepath"
)

// Fataler is the subset of testing.TB used by the helpers.
type Fataler interface {
	Helper()
	Fatalf(format string, args ...any)
}

// WriteFile writes content to root/path, creating parent directories.
//
//	testutil.WriteFile(t, sysRoot, "class/hwmon/hwmon0/name", "nct6775\n")
func WriteFile(t Fataler, root, path, content string) {
	t.Helper()
	WriteBytes(t, root, path, []byte(content))
}

// WriteBytes writes binary content to root/path, creating parent
// directories. Used for firmware tables and device register images.
func WriteBytes(t Fataler, root, path string, content []byte) {
	t.Helper()
	fullPath := filepath.Join(root, path)
	if err := os.MkdirAll(filepath.Dir(fullPath), 0o755); err != nil {
		t.Fatalf("creating directory for %s: %v", path, err)
	}
	if err := os.WriteFile(fullPath, content, 0o644); err != nil {
		t.Fatalf("writing %s: %v", path, err)
	}
}

// Symlink creates root/path pointing at target, creating parent
// directories. Targets are written verbatim, so relative targets
// resolve the way the kernel's sysfs links do.
//
//	testutil.Symlink(t, sysRoot, "class/drm/card0/device/driver", "../../../bus/pci/drivers/amdgpu")
func Symlink(t Fataler, root, path, target string) {
	t.Helper()
	fullPath := filepath.Join(root, path)
	if err := os.MkdirAll(filepath.Dir(fullPath), 0o755); err != nil {
		t.Fatalf("creating directory for %s: %v", path, err)
	}
	if err := os.Symlink(target, fullPath); err != nil {
		t.Fatalf("creating symlink %s -> %s: %v", path, target, err)
	}
}

// Mkdir creates root/path and its parents.
func Mkdir(t Fataler, root, path string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Join(root, path), 0o755); err != nil {
		t.Fatalf("creating %s: %v", path, err)
	}
}
