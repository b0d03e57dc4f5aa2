// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/bureau-foundation/sensorcore/lib/hardware"
)

// Theme defines the color palette of the sensor monitor. All colors
// use lipgloss ANSI 256-color codes for broad terminal compatibility.
type Theme struct {
	// Text colors.
	NormalText lipgloss.Color
	FaintText  lipgloss.Color

	// Selected row.
	SelectedBackground lipgloss.Color
	SelectedForeground lipgloss.Color

	// Hardware rows, and sensor names colored by sensor type.
	HardwareForeground lipgloss.Color
	TypeColors         map[hardware.SensorType]lipgloss.Color

	// Threshold colors for a reading against its limit: comfortably
	// below, approaching, and at or past it.
	LevelNormal   lipgloss.Color
	LevelWarm     lipgloss.Color
	LevelCritical lipgloss.Color

	// UI chrome.
	HeaderForeground lipgloss.Color
	BorderColor      lipgloss.Color
	ScrollThumb      lipgloss.Color
	HelpText         lipgloss.Color

	// Background tints for readings that just rose or fell.
	RiseAccent lipgloss.Color
	FallAccent lipgloss.Color

	// Report overlay box.
	OverlayForeground lipgloss.Color
	OverlayBackground lipgloss.Color
}

// Fractions of the limit where a reading turns warm and critical.
const (
	warmFraction     = 0.85
	criticalFraction = 1.0
)

// TypeColor returns the name color for a sensor type, NormalText for
// types without one.
func (theme Theme) TypeColor(sensorType hardware.SensorType) lipgloss.Color {
	if color, ok := theme.TypeColors[sensorType]; ok {
		return color
	}
	return theme.NormalText
}

// LevelColor colors a reading by how close it is to limit. Sensors
// without a limit, or with a non-positive one, read as normal.
func (theme Theme) LevelColor(value, limit float64, hasLimit bool) lipgloss.Color {
	if !hasLimit || limit <= 0 {
		return theme.LevelNormal
	}
	switch fraction := value / limit; {
	case fraction >= criticalFraction:
		return theme.LevelCritical
	case fraction >= warmFraction:
		return theme.LevelWarm
	default:
		return theme.LevelNormal
	}
}

// DefaultTheme is the built-in dark-terminal color scheme.
var DefaultTheme = Theme{
	NormalText: lipgloss.Color("252"),
	FaintText:  lipgloss.Color("245"),

	SelectedBackground: lipgloss.Color("236"),
	SelectedForeground: lipgloss.Color("255"),

	HardwareForeground: lipgloss.Color("75"),
	TypeColors: map[hardware.SensorType]lipgloss.Color{
		hardware.Voltage:     lipgloss.Color("186"), // pale yellow
		hardware.Clock:       lipgloss.Color("147"), // lavender
		hardware.Temperature: lipgloss.Color("209"), // salmon
		hardware.Load:        lipgloss.Color("114"), // green
		hardware.Fan:         lipgloss.Color("117"), // sky blue
		hardware.Flow:        lipgloss.Color("80"),  // teal
		hardware.Control:     lipgloss.Color("152"),
		hardware.Power:       lipgloss.Color("220"), // amber
	},

	LevelNormal:   lipgloss.Color("252"),
	LevelWarm:     lipgloss.Color("214"), // orange
	LevelCritical: lipgloss.Color("196"), // bright red

	HeaderForeground: lipgloss.Color("255"),
	BorderColor:      lipgloss.Color("240"),
	ScrollThumb:      lipgloss.Color("220"),
	HelpText:         lipgloss.Color("241"),

	RiseAccent: lipgloss.Color("52"), // dark red tint
	FallAccent: lipgloss.Color("23"), // dark teal tint

	OverlayForeground: lipgloss.Color("252"),
	OverlayBackground: lipgloss.Color("237"),
}
