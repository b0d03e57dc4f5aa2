// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package sensorui

import (
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/ansi"

	"github.com/bureau-foundation/sensorcore/lib/clock"
	"github.com/bureau-foundation/sensorcore/lib/hardware"
)

// rampDriver publishes a temperature that climbs 10 °C per update
// towards an 80 °C limit, a fan, and one hidden raw value.
type rampDriver struct {
	temperature *hardware.Sensor
	fan         *hardware.Sensor
	raw         *hardware.Sensor
	next        float64
}

func (d *rampDriver) Attach(node *hardware.Hardware) {
	d.temperature = node.NewSensor("CPU", 0, hardware.Temperature,
		hardware.WithParameters(hardware.ParameterDescription{Name: "Offset [°C]", Description: "Temperature offset.", DefaultValue: 0}))
	d.temperature.SetLimit(80)
	d.fan = node.NewSensor("CPU Fan", 0, hardware.Fan)
	d.raw = node.NewSensor("Status", 0, hardware.RawValue, hardware.DefaultHidden())
	node.ActivateSensor(d.temperature)
	node.ActivateSensor(d.fan)
	node.ActivateSensor(d.raw)
	d.next = 40
}

func (d *rampDriver) Update() {
	d.temperature.SetValue(d.next)
	d.fan.SetValue(1200)
	d.raw.SetValue(7)
	d.next += 10
}

type chipDriver struct{ voltage *hardware.Sensor }

func (d *chipDriver) Attach(node *hardware.Hardware) {
	d.voltage = node.NewSensor("VCore", 0, hardware.Voltage)
	node.ActivateSensor(d.voltage)
}

func (d *chipDriver) Update() { d.voltage.SetValue(1.184) }

func (d *chipDriver) Report() string { return "LPC W83627DHG\n\nChip ID: 0xA020\n" }

func testComputer(t *testing.T) (*hardware.Computer, *clock.FakeClock) {
	t.Helper()
	fakeClock := clock.Fake(time.Date(2026, 5, 1, 9, 30, 0, 0, time.UTC))
	computer := hardware.NewComputer(hardware.Environment{Clock: fakeClock}, map[hardware.Family]hardware.Opener{
		hardware.FamilyMainboard: func(environment hardware.Environment) []hardware.Group {
			board := hardware.New(hardware.Descriptor{
				Identifier: hardware.MustIdentifier("mainboard"),
				Name:       "Test Board",
				Type:       hardware.Mainboard,
			}, environment, &rampDriver{})
			chip := hardware.New(hardware.Descriptor{
				Identifier: hardware.MustIdentifier("lpc", "w83627dhg"),
				Name:       "Winbond W83627DHG",
				Type:       hardware.SuperIO,
			}, environment, &chipDriver{})
			board.AddSubHardware(chip)
			return []hardware.Group{&hardware.StaticGroup{Nodes: []*hardware.Hardware{board}}}
		},
	})
	computer.SetEnabled(hardware.FamilyMainboard, true)
	computer.Open()
	t.Cleanup(computer.Close)
	return computer, fakeClock
}

func send(t *testing.T, model Model, message tea.Msg) Model {
	t.Helper()
	updated, _ := model.Update(message)
	return updated.(Model)
}

func press(t *testing.T, model Model, keys string) Model {
	t.Helper()
	var message tea.KeyMsg
	switch keys {
	case "enter":
		message = tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		message = tea.KeyMsg{Type: tea.KeyEscape}
	default:
		message = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(keys)}
	}
	return send(t, model, message)
}

func sized(t *testing.T, computer *hardware.Computer) Model {
	t.Helper()
	model := NewModel(computer, Options{Interval: time.Second})
	return send(t, model, tea.WindowSizeMsg{Width: 100, Height: 30})
}

func rowLabels(model Model) []string {
	labels := make([]string, len(model.rows))
	for index, current := range model.rows {
		switch current.kind {
		case hardwareRow:
			labels[index] = current.hardware.Name()
		case typeRow:
			labels[index] = "[" + typeHeadings[current.sensorType] + "]"
		default:
			labels[index] = current.sensor.Name()
		}
	}
	return labels
}

func TestRowsFollowTreeOrder(t *testing.T) {
	computer, _ := testComputer(t)
	model := sized(t, computer)

	want := "Test Board,Winbond W83627DHG,[Voltages],VCore,[Temperatures],CPU,[Fans],CPU Fan"
	if got := strings.Join(rowLabels(model), ","); got != want {
		t.Errorf("rows = %s\nwant   %s", got, want)
	}

	model = press(t, model, ".")
	if got := strings.Join(rowLabels(model), ","); !strings.HasSuffix(got, "[Raw Values],Status") {
		t.Errorf("hidden sensor not shown after toggle: %s", got)
	}
}

func TestPollUpdatesAndSchedules(t *testing.T) {
	computer, _ := testComputer(t)
	model := sized(t, computer)

	if model.Init() == nil {
		t.Fatal("Init returned no command")
	}
	updated, cmd := model.Update(pollMsg{})
	model = updated.(Model)
	if cmd == nil {
		t.Error("poll did not schedule the next one")
	}
	if model.polls != 1 {
		t.Errorf("polls = %d, want 1", model.polls)
	}

	view := ansi.Strip(model.View())
	for _, want := range []string{"poll 1", "09:30:00", "40.0 °C", "1200 RPM", "1.184 V"} {
		if !strings.Contains(view, want) {
			t.Errorf("view lacks %q:\n%s", want, view)
		}
	}
}

func TestChangedReadingsAreHighlighted(t *testing.T) {
	computer, fakeClock := testComputer(t)
	model := sized(t, computer)
	model = send(t, model, pollMsg{})
	fakeClock.Advance(time.Second)
	model = send(t, model, pollMsg{})

	temperature := "/mainboard/temperature/0"
	if intensity, _ := model.changes.Intensity(temperature, model.lastPoll); intensity != 1 {
		t.Errorf("rising temperature intensity = %v, want 1", intensity)
	}
	fan := "/mainboard/fan/0"
	if intensity, _ := model.changes.Intensity(fan, model.lastPoll); intensity != 0 {
		t.Errorf("steady fan intensity = %v, want 0", intensity)
	}
}

func TestCursorNavigation(t *testing.T) {
	computer, _ := testComputer(t)
	model := sized(t, computer)

	model = press(t, model, "G")
	if model.cursor != len(model.rows)-1 {
		t.Errorf("cursor after End = %d, want %d", model.cursor, len(model.rows)-1)
	}
	model = press(t, model, "k")
	if model.selectedKey != "/mainboard#Fan" {
		t.Errorf("cursor after Up selects %q, want the Fans heading", model.selectedKey)
	}
	model = press(t, model, "g")
	if model.cursor != 0 {
		t.Errorf("cursor after Home = %d, want 0", model.cursor)
	}
	model = press(t, model, "k")
	if model.cursor != 0 {
		t.Errorf("cursor moved above the first row: %d", model.cursor)
	}
}

func TestCollapseAndExpand(t *testing.T) {
	computer, _ := testComputer(t)
	model := sized(t, computer)
	total := len(model.rows)

	model = press(t, model, "h")
	if len(model.rows) != 1 {
		t.Errorf("collapsed board shows %d rows, want 1", len(model.rows))
	}
	model = press(t, model, "l")
	if len(model.rows) != total {
		t.Errorf("expanded board shows %d rows, want %d", len(model.rows), total)
	}

	// From a sensor row, collapse jumps to the owning hardware.
	model = press(t, model, "G")
	model = press(t, model, "h")
	if selected, _ := model.selected(); selected.kind != hardwareRow || selected.hardware.Name() != "Test Board" {
		t.Errorf("collapse from a sensor selected %q", model.selectedKey)
	}
}

func TestSelectionSurvivesRebuild(t *testing.T) {
	computer, _ := testComputer(t)
	model := sized(t, computer)
	model = press(t, model, "G")
	want := model.selectedKey

	model = press(t, model, ".")
	if model.selectedKey != want {
		t.Errorf("selection moved from %q to %q after showing hidden sensors", want, model.selectedKey)
	}
	if model.rows[model.cursor].key() != want {
		t.Error("cursor does not point at the remembered row")
	}
}

func TestResetMinMax(t *testing.T) {
	computer, fakeClock := testComputer(t)
	model := sized(t, computer)
	model = send(t, model, pollMsg{})
	fakeClock.Advance(time.Second)
	model = send(t, model, pollMsg{})

	var temperature *hardware.Sensor
	for index, current := range model.rows {
		if current.kind == sensorRow && current.sensor.Type() == hardware.Temperature {
			temperature = current.sensor
			model.cursor = index
		}
	}
	if minimum, _ := temperature.Min(); minimum != 40 {
		t.Fatalf("min before reset = %v, want 40", minimum)
	}
	model = press(t, model, "m")
	if _, ok := temperature.Min(); ok {
		t.Error("min survived reset")
	}
	if _, ok := temperature.Max(); ok {
		t.Error("max survived reset")
	}
}

func TestDetailsOverlay(t *testing.T) {
	computer, _ := testComputer(t)
	model := sized(t, computer)
	model = send(t, model, pollMsg{})

	model = press(t, model, "j") // Winbond W83627DHG
	model = press(t, model, "enter")
	if !model.detailsOpen {
		t.Fatal("Enter did not open the report")
	}
	if view := ansi.Strip(model.View()); !strings.Contains(view, "Chip ID: 0xA020") {
		t.Errorf("report overlay missing chip report:\n%s", view)
	}

	model = press(t, model, "esc")
	if model.detailsOpen {
		t.Error("Esc did not close the overlay")
	}

	model = press(t, model, "G")
	model = press(t, model, "k")
	model = press(t, model, "k") // CPU temperature
	model = press(t, model, "enter")
	view := ansi.Strip(model.View())
	for _, want := range []string{"/mainboard/temperature/0", "Limit: 80.0 °C", "Offset [°C] = 0"} {
		if !strings.Contains(view, want) {
			t.Errorf("sensor details lack %q:\n%s", want, view)
		}
	}
}

func TestQuit(t *testing.T) {
	computer, _ := testComputer(t)
	_, cmd := sized(t, computer).Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	if cmd == nil {
		t.Fatal("q returned no command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("q did not quit")
	}
}

func TestEmptyComputer(t *testing.T) {
	computer := hardware.NewComputer(hardware.Environment{}, nil)
	model := sized(t, computer)
	if view := ansi.Strip(model.View()); !strings.Contains(view, "No hardware found.") {
		t.Errorf("empty view:\n%s", view)
	}
	model = press(t, model, "j")
	model = press(t, model, "enter")
	if model.detailsOpen {
		t.Error("details opened with nothing selected")
	}
}

func TestFormatValue(t *testing.T) {
	tests := []struct {
		sensorType hardware.SensorType
		value      float64
		want       string
	}{
		{hardware.Voltage, 1.2, "1.200 V"},
		{hardware.Temperature, 41.25, "41.2 °C"},
		{hardware.Fan, 1187.6, "1188 RPM"},
		{hardware.Load, 12.34, "12.3 %"},
		{hardware.Data, 7.5, "7.5 GB"},
		{hardware.Throughput, 2048, "2.0 KB/s"},
		{hardware.Throughput, 3 << 20, "3.0 MB/s"},
		{hardware.Factor, 1, "1.000"},
	}
	for _, test := range tests {
		if got := formatValue(test.sensorType, test.value, true); got != test.want {
			t.Errorf("formatValue(%s, %v) = %q, want %q", test.sensorType, test.value, got, test.want)
		}
	}
	if formatValue(hardware.Voltage, 0, false) != "-" {
		t.Error("missing reading not rendered as -")
	}
}
