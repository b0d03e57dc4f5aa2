// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package config loads sensorcore configuration.
//
// Configuration comes from one file, named either by the
// SENSORCORE_CONFIG environment variable (via [Load]) or by a --config
// flag (via [LoadFile]). Values in the file are merged over [Default];
// there is no discovery of other files.
//
// The file format follows the extension: YAML (the default), TOML
// (.toml), or JSON with comments (.json, .jsonc). Path fields support
// ${VAR} and ${VAR:-default} expansion so one file can relocate the
// sysfs root for a captured tree.
package config
