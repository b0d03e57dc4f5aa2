// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package hwinfo

import "path/filepath"

// Roots locates the kernel interfaces probes read. Production uses
// DefaultRoots; tests point every field at a synthetic tree.
type Roots struct {
	Sys  string
	Proc string
	Dev  string
}

// DefaultRoots returns the live system roots.
func DefaultRoots() Roots {
	return Roots{Sys: "/sys", Proc: "/proc", Dev: "/dev"}
}

// SysPath joins elements below the sysfs root.
func (r Roots) SysPath(elements ...string) string {
	return filepath.Join(append([]string{r.Sys}, elements...)...)
}

// ProcPath joins elements below the procfs root.
func (r Roots) ProcPath(elements ...string) string {
	return filepath.Join(append([]string{r.Proc}, elements...)...)
}

// DevPath joins elements below the device root.
func (r Roots) DevPath(elements ...string) string {
	return filepath.Join(append([]string{r.Dev}, elements...)...)
}
