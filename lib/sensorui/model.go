// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package sensorui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/bureau-foundation/sensorcore/lib/clock"
	"github.com/bureau-foundation/sensorcore/lib/hardware"
	"github.com/bureau-foundation/sensorcore/lib/tui"
)

// valueColumnWidth is the width of the value, min and max columns.
const valueColumnWidth = 12

// changeThreshold is the smallest move that highlights a reading.
const changeThreshold = 0.5

// pollMsg triggers one Computer.Update.
type pollMsg struct{}

// Options configures the monitor.
type Options struct {
	// Interval between polls. Zero means one second.
	Interval time.Duration

	// Theme overrides tui.DefaultTheme.
	Theme *tui.Theme
}

// Model is the bubbletea model of the monitor. The computer must be
// open; the model updates it but never closes it.
type Model struct {
	computer *hardware.Computer
	clock    clock.Clock
	interval time.Duration
	theme    tui.Theme
	keys     KeyMap
	help     help.Model

	rows        []row
	collapsed   map[string]bool
	showHidden  bool
	cursor      int
	selectedKey string
	offset      int
	changes     *tui.ChangeTracker

	polls    int
	lastPoll time.Time

	width  int
	height int

	detailsOpen  bool
	detailsTitle string
	details      viewport.Model
}

// NewModel returns a monitor over computer.
func NewModel(computer *hardware.Computer, options Options) Model {
	interval := options.Interval
	if interval <= 0 {
		interval = time.Second
	}
	theme := tui.DefaultTheme
	if options.Theme != nil {
		theme = *options.Theme
	}
	model := Model{
		computer:  computer,
		clock:     computer.Environment().Clock,
		interval:  interval,
		theme:     theme,
		keys:      DefaultKeyMap,
		help:      help.New(),
		collapsed: make(map[string]bool),
		changes:   tui.NewChangeTracker(changeThreshold),
		details:   viewport.New(0, 0),
	}
	model.rebuildRows()
	return model
}

// Init implements tea.Model: the first poll runs immediately.
func (model Model) Init() tea.Cmd {
	return func() tea.Msg { return pollMsg{} }
}

func (model Model) scheduleNextPoll() tea.Cmd {
	return tea.Tick(model.interval, func(time.Time) tea.Msg { return pollMsg{} })
}

// Update implements tea.Model.
func (model Model) Update(message tea.Msg) (tea.Model, tea.Cmd) {
	switch message := message.(type) {
	case pollMsg:
		model.poll()
		return model, model.scheduleNextPoll()

	case tea.WindowSizeMsg:
		model.width = message.Width
		model.height = message.Height
		model.help.Width = message.Width
		model.resizeDetails()
		model.clampScroll()

	case tea.MouseMsg:
		if model.detailsOpen {
			var cmd tea.Cmd
			model.details, cmd = model.details.Update(message)
			return model, cmd
		}
		switch message.Button {
		case tea.MouseButtonWheelUp:
			model.moveCursor(-3)
		case tea.MouseButtonWheelDown:
			model.moveCursor(3)
		}

	case tea.KeyMsg:
		if key.Matches(message, model.keys.Quit) {
			return model, tea.Quit
		}
		if model.detailsOpen {
			return model.handleDetailsKeys(message)
		}
		model.handleListKeys(message)
	}
	return model, nil
}

func (model Model) handleDetailsKeys(message tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(message, model.keys.Close, model.keys.Details) {
		model.detailsOpen = false
		return model, nil
	}
	var cmd tea.Cmd
	model.details, cmd = model.details.Update(message)
	return model, cmd
}

func (model *Model) handleListKeys(message tea.KeyMsg) {
	switch {
	case key.Matches(message, model.keys.Up):
		model.moveCursor(-1)
	case key.Matches(message, model.keys.Down):
		model.moveCursor(1)
	case key.Matches(message, model.keys.PageUp):
		model.moveCursor(-max(1, model.bodyHeight()-1))
	case key.Matches(message, model.keys.PageDown):
		model.moveCursor(max(1, model.bodyHeight()-1))
	case key.Matches(message, model.keys.Home):
		model.moveCursor(-len(model.rows))
	case key.Matches(message, model.keys.End):
		model.moveCursor(len(model.rows))
	case key.Matches(message, model.keys.Collapse):
		model.collapse()
	case key.Matches(message, model.keys.Expand):
		if selected, ok := model.selected(); ok && selected.kind == hardwareRow {
			delete(model.collapsed, selected.key())
			model.rebuildRows()
		}
	case key.Matches(message, model.keys.Details):
		model.openDetails()
	case key.Matches(message, model.keys.ResetMinMax):
		model.resetMinMax()
	case key.Matches(message, model.keys.ShowHidden):
		model.showHidden = !model.showHidden
		model.rebuildRows()
	case key.Matches(message, model.keys.Help):
		model.help.ShowAll = !model.help.ShowAll
		model.clampScroll()
	}
}

// poll updates the computer and records which readings moved.
func (model *Model) poll() {
	model.computer.Update()
	now := model.clock.Now()
	model.polls++
	model.lastPoll = now

	live := make(map[string]bool)
	model.computer.Accept(hardware.SensorVisitor(func(sensor *hardware.Sensor) {
		identifier := sensor.Identifier().String()
		live[identifier] = true
		if value, ok := sensor.Value(); ok {
			model.changes.Observe(identifier, value, now)
		}
	}))
	model.changes.Prune(live, now)
	model.rebuildRows()
}

// rebuildRows re-flattens the tree and keeps the cursor on the same
// row when it still exists.
func (model *Model) rebuildRows() {
	model.rows = buildRows(model.computer.Hardware(), model.collapsed, model.showHidden)
	model.cursor = min(model.cursor, max(0, len(model.rows)-1))
	if model.selectedKey != "" {
		for index, candidate := range model.rows {
			if candidate.key() == model.selectedKey {
				model.cursor = index
				break
			}
		}
	}
	model.rememberSelection()
	model.clampScroll()
}

func (model *Model) selected() (row, bool) {
	if model.cursor < 0 || model.cursor >= len(model.rows) {
		return row{}, false
	}
	return model.rows[model.cursor], true
}

func (model *Model) rememberSelection() {
	if selected, ok := model.selected(); ok {
		model.selectedKey = selected.key()
	} else {
		model.selectedKey = ""
	}
}

func (model *Model) moveCursor(delta int) {
	if len(model.rows) == 0 {
		return
	}
	model.cursor = max(0, min(len(model.rows)-1, model.cursor+delta))
	model.rememberSelection()
	model.clampScroll()
}

// collapse folds the selected hardware, or moves to the hardware that
// owns the selected heading or sensor.
func (model *Model) collapse() {
	selected, ok := model.selected()
	if !ok {
		return
	}
	if selected.kind == hardwareRow {
		model.collapsed[selected.key()] = true
		model.rebuildRows()
		return
	}
	for index := model.cursor - 1; index >= 0; index-- {
		if model.rows[index].kind == hardwareRow && model.rows[index].hardware == selected.hardware {
			model.moveCursor(index - model.cursor)
			return
		}
	}
}

func (model *Model) resetMinMax() {
	selected, ok := model.selected()
	if !ok {
		return
	}
	reset := func(sensor *hardware.Sensor) {
		sensor.ResetMin()
		sensor.ResetMax()
	}
	if selected.kind == sensorRow {
		reset(selected.sensor)
		return
	}
	selected.hardware.Accept(hardware.SensorVisitor(func(sensor *hardware.Sensor) {
		if selected.kind == hardwareRow || sensor.Type() == selected.sensorType {
			reset(sensor)
		}
	}))
}

// openDetails shows the hardware report, or the sensor's details, in
// the overlay.
func (model *Model) openDetails() {
	selected, ok := model.selected()
	if !ok {
		return
	}
	var content string
	switch selected.kind {
	case sensorRow:
		model.detailsTitle = selected.sensor.Name()
		content = sensorDetails(selected.sensor)
	default:
		model.detailsTitle = selected.hardware.Name()
		content = strings.TrimRight(selected.hardware.Report(), "\n")
		if content == "" {
			content = "No report for " + selected.hardware.Identifier().String() + "."
		}
	}
	model.detailsOpen = true
	model.resizeDetails()
	model.details.SetContent(content)
	model.details.GotoTop()
}

func sensorDetails(sensor *hardware.Sensor) string {
	var builder strings.Builder
	sensorType := sensor.Type()
	fmt.Fprintf(&builder, "Identifier: %s\n", sensor.Identifier())
	fmt.Fprintf(&builder, "Type: %s\n", sensorType)
	fmt.Fprintf(&builder, "Value: %s\n", formatReading(sensorType, sensor.Value))
	fmt.Fprintf(&builder, "Min: %s\n", formatReading(sensorType, sensor.Min))
	fmt.Fprintf(&builder, "Max: %s\n", formatReading(sensorType, sensor.Max))
	fmt.Fprintf(&builder, "Limit: %s\n", formatReading(sensorType, sensor.Limit))
	fmt.Fprintf(&builder, "Samples: %d\n", len(sensor.Values()))
	if parameters := sensor.Parameters(); len(parameters) > 0 {
		builder.WriteString("\nParameters:\n")
		for _, parameter := range parameters {
			marker := ""
			if !parameter.IsDefault() {
				marker = " (modified)"
			}
			fmt.Fprintf(&builder, "  %s = %g%s\n", parameter.Name(), parameter.Value(), marker)
			if description := parameter.Description(); description != "" {
				fmt.Fprintf(&builder, "    %s\n", description)
			}
		}
	}
	return strings.TrimRight(builder.String(), "\n")
}

func formatReading(sensorType hardware.SensorType, read func() (float64, bool)) string {
	value, ok := read()
	return formatValue(sensorType, value, ok)
}

// Layout: title and column header above the list, help below it.
func (model *Model) bodyHeight() int {
	footer := lipgloss.Height(model.help.View(model.keys))
	return max(1, model.height-2-footer)
}

func (model *Model) clampScroll() {
	height := model.bodyHeight()
	if model.cursor < model.offset {
		model.offset = model.cursor
	}
	if model.cursor >= model.offset+height {
		model.offset = model.cursor - height + 1
	}
	model.offset = max(0, min(model.offset, len(model.rows)-height))
}

func (model *Model) resizeDetails() {
	model.details.Width = max(10, model.width*4/5-2)
	model.details.Height = max(3, model.height*4/5-3)
}

// View implements tea.Model.
func (model Model) View() string {
	if model.width == 0 {
		return "Loading sensors..."
	}
	height := model.bodyHeight()
	listWidth := max(1, model.width-1)

	lines := make([]string, 0, height)
	for index := model.offset; index < len(model.rows) && len(lines) < height; index++ {
		lines = append(lines, model.renderRow(model.rows[index], index == model.cursor, listWidth))
	}
	if len(model.rows) == 0 {
		lines = append(lines, lipgloss.NewStyle().Foreground(model.theme.FaintText).Render("No hardware found."))
	}
	for len(lines) < height {
		lines = append(lines, "")
	}
	body := lipgloss.NewStyle().Width(listWidth).Render(strings.Join(lines, "\n"))
	scrollbar := tui.RenderScrollbar(model.theme, height, len(model.rows), height, model.offset)

	view := strings.Join([]string{
		model.renderTitle(),
		model.renderColumnHeader(listWidth),
		lipgloss.JoinHorizontal(lipgloss.Top, body, scrollbar),
		model.help.View(model.keys),
	}, "\n")

	if model.detailsOpen {
		boxWidth := model.details.Width + 2
		boxHeight := model.details.Height + 3
		box := tui.OverlayBox(model.theme, model.detailsTitle, model.details.View(), boxWidth, boxHeight)
		x, y := tui.Center(model.width, model.height, boxWidth, boxHeight)
		view = tui.Splice(view, box, x, y)
	}
	return view
}

func (model Model) renderTitle() string {
	title := fmt.Sprintf("sensorcore monitor  %d hardware  poll %d", len(model.computer.Hardware()), model.polls)
	if !model.lastPoll.IsZero() {
		title += "  " + model.lastPoll.Format("15:04:05")
	}
	return lipgloss.NewStyle().Bold(true).Foreground(model.theme.HeaderForeground).
		Render(ansi.Truncate(title, model.width, "…"))
}

func (model Model) renderColumnHeader(width int) string {
	nameWidth := max(1, width-3*valueColumnWidth)
	header := padRight("Sensor", nameWidth) +
		padLeft("Value", valueColumnWidth) +
		padLeft("Min", valueColumnWidth) +
		padLeft("Max", valueColumnWidth)
	return lipgloss.NewStyle().Foreground(model.theme.FaintText).Underline(true).
		Render(ansi.Truncate(header, width, ""))
}

func (model Model) renderRow(current row, selected bool, width int) string {
	nameWidth := max(1, width-3*valueColumnWidth)
	indent := strings.Repeat("  ", current.depth)

	var name string
	switch current.kind {
	case hardwareRow:
		marker := "▾ "
		if model.collapsed[current.key()] {
			marker = "▸ "
		}
		name = indent + marker + current.hardware.Name()
	case typeRow:
		name = indent + typeHeadings[current.sensorType]
	default:
		name = indent + current.sensor.Name()
	}
	name = padRight(ansi.Truncate(name, nameWidth, "…"), nameWidth)

	if current.kind != sensorRow {
		style := lipgloss.NewStyle().Foreground(model.theme.FaintText)
		if current.kind == hardwareRow {
			style = style.Foreground(model.theme.HardwareForeground).Bold(true)
		}
		if selected {
			style = style.Background(model.theme.SelectedBackground).Foreground(model.theme.SelectedForeground)
		}
		return style.Render(padRight(name, width))
	}

	sensor := current.sensor
	sensorType := sensor.Type()
	value, hasValue := sensor.Value()
	minimum, hasMin := sensor.Min()
	maximum, hasMax := sensor.Max()
	cells := padLeft(formatValue(sensorType, value, hasValue), valueColumnWidth)
	minCell := padLeft(formatValue(sensorType, minimum, hasMin), valueColumnWidth)
	maxCell := padLeft(formatValue(sensorType, maximum, hasMax), valueColumnWidth)

	if selected {
		return lipgloss.NewStyle().
			Background(model.theme.SelectedBackground).
			Foreground(model.theme.SelectedForeground).
			Render(name + cells + minCell + maxCell)
	}

	limit, hasLimit := sensor.Limit()
	valueStyle := lipgloss.NewStyle().Foreground(model.theme.LevelColor(value, limit, hasLimit))
	if intensity, direction := model.changes.Intensity(sensor.Identifier().String(), model.lastPoll); intensity > 0 {
		accent := model.theme.RiseAccent
		if direction == tui.Fall {
			accent = model.theme.FallAccent
		}
		valueStyle = valueStyle.Background(accent)
	}
	faint := lipgloss.NewStyle().Foreground(model.theme.FaintText)
	return lipgloss.NewStyle().Foreground(model.theme.TypeColor(sensorType)).Render(name) +
		valueStyle.Render(cells) +
		faint.Render(minCell) +
		faint.Render(maxCell)
}

func padRight(text string, width int) string {
	if pad := width - ansi.StringWidth(text); pad > 0 {
		return text + strings.Repeat(" ", pad)
	}
	return text
}

func padLeft(text string, width int) string {
	if pad := width - ansi.StringWidth(text); pad > 0 {
		return strings.Repeat(" ", pad) + text
	}
	return text
}
