// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
)

// Splice draws the rendered box over view with its top-left corner at
// column x, row y. Escape sequences on both sides of the box survive:
// each view line is cut with ANSI-aware truncation and the box line is
// fenced by SGR resets.
func Splice(view, box string, x, y int) string {
	if box == "" {
		return view
	}
	viewLines := strings.Split(view, "\n")
	boxLines := strings.Split(box, "\n")
	boxWidth := lipgloss.Width(box)

	for index, boxLine := range boxLines {
		row := y + index
		if row < 0 || row >= len(viewLines) {
			continue
		}
		line := viewLines[row]

		var builder strings.Builder
		prefix := ansi.Truncate(line, x, "")
		builder.WriteString(prefix)
		if pad := x - ansi.StringWidth(prefix); pad > 0 {
			builder.WriteString(strings.Repeat(" ", pad))
		}
		builder.WriteString("\x1b[0m")
		builder.WriteString(boxLine)
		builder.WriteString("\x1b[0m")
		if end := x + boxWidth; end < ansi.StringWidth(line) {
			builder.WriteString(ansi.TruncateLeft(line, end, ""))
		}
		viewLines[row] = builder.String()
	}
	return strings.Join(viewLines, "\n")
}

// Center returns the top-left corner that centers a box of the given
// size in an area, clamped to the area's origin.
func Center(areaWidth, areaHeight, boxWidth, boxHeight int) (x, y int) {
	return max(0, (areaWidth-boxWidth)/2), max(0, (areaHeight-boxHeight)/2)
}

// OverlayBox renders content in a rounded border with the theme's
// overlay colors, width and height counting the border.
func OverlayBox(theme Theme, title, content string, width, height int) string {
	innerWidth := max(1, width-2)
	innerHeight := max(1, height-2)

	lines := strings.Split(content, "\n")
	if len(lines) > innerHeight-1 {
		lines = lines[:innerHeight-1]
	}
	body := lipgloss.NewStyle().
		Foreground(theme.OverlayForeground).
		Background(theme.OverlayBackground)
	heading := body.Bold(true).Foreground(theme.HeaderForeground)

	rows := make([]string, 0, innerHeight)
	rows = append(rows, padLine(heading.Render(ansi.Truncate(title, innerWidth, "…")), innerWidth, body))
	for _, line := range lines {
		rows = append(rows, padLine(body.Render(ansi.Truncate(line, innerWidth, "…")), innerWidth, body))
	}
	for len(rows) < innerHeight {
		rows = append(rows, padLine("", innerWidth, body))
	}

	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(theme.BorderColor).
		BorderBackground(theme.OverlayBackground).
		Render(strings.Join(rows, "\n"))
}

// padLine extends styled content to width with background-colored
// spaces.
func padLine(styled string, width int, background lipgloss.Style) string {
	if pad := width - ansi.StringWidth(styled); pad > 0 {
		return styled + background.Render(strings.Repeat(" ", pad))
	}
	return styled
}
