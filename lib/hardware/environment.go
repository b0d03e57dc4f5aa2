// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package hardware

import (
	"log/slog"

	"github.com/bureau-foundation/sensorcore/lib/clock"
)

// Environment carries the collaborators shared by every node of one
// Computer: the settings store, the clock used for value history and
// probe waits, and the logger.
type Environment struct {
	Settings Settings
	Clock    clock.Clock
	Logger   *slog.Logger
}

// WithDefaults fills unset fields: in-memory settings, the real clock
// and a logger that discards everything.
func (e Environment) WithDefaults() Environment {
	if e.Settings == nil {
		e.Settings = NewMemorySettings()
	}
	if e.Clock == nil {
		e.Clock = clock.Real()
	}
	if e.Logger == nil {
		e.Logger = slog.New(slog.DiscardHandler)
	}
	return e
}
