// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package tbalancer

import (
	"encoding/binary"
	"fmt"
	"log/slog"
	"slices"
	"strconv"
	"strings"
	"sync"

	"github.com/bureau-foundation/sensorcore/lib/clock"
	"github.com/bureau-foundation/sensorcore/lib/hardware"
)

const (
	digitalCount   = 8
	analogCount    = 4
	sensorhubCount = 6
	flowCount      = 2
	fanCount       = 4
	miniNGCount    = 2
)

var temperatureOffset = hardware.ParameterDescription{
	Name:         "Offset [°C]",
	Description:  "Temperature offset.",
	DefaultValue: 0,
}

// controller drives one bigNG. The mutex serializes port access
// between Update and the delayed alternative request.
type controller struct {
	portIndex int
	version   byte
	clock     clock.Clock
	logger    *slog.Logger

	mu        sync.Mutex
	bridge    Bridge
	closed    bool
	pending   *clock.Timer
	frame     []byte
	primary   []byte
	alternate []byte

	node         *hardware.Hardware
	digital      []*hardware.Sensor
	analog       []*hardware.Sensor
	sensorhub    []*hardware.Sensor
	miniNGTemps  []*hardware.Sensor
	flows        []*hardware.Sensor
	fans         []*hardware.Sensor
	controls     []*hardware.Sensor
	miniNGFans   []*hardware.Sensor
	miniNGOutput []*hardware.Sensor

	// deactivating holds sensors that missed one reading. A second
	// consecutive miss deactivates them.
	deactivating map[*hardware.Sensor]bool
}

func newController(portIndex int, version byte, bridge Bridge, environment hardware.Environment) *controller {
	return &controller{
		portIndex:    portIndex,
		version:      version,
		bridge:       bridge,
		clock:        environment.Clock,
		logger:       environment.Logger,
		frame:        make([]byte, FrameSize),
		deactivating: make(map[*hardware.Sensor]bool),
	}
}

func (c *controller) Attach(node *hardware.Hardware) {
	c.node = node
	index := 0
	temperatures := func(count int, name func(int) string) []*hardware.Sensor {
		sensors := make([]*hardware.Sensor, count)
		for i := range sensors {
			sensors[i] = node.NewSensor(name(i), index, hardware.Temperature,
				hardware.WithParameters(temperatureOffset))
			index++
		}
		return sensors
	}
	c.digital = temperatures(digitalCount, func(i int) string { return "Digital Sensor #" + strconv.Itoa(i+1) })
	c.analog = temperatures(analogCount, func(i int) string { return "Analog Sensor #" + strconv.Itoa(i+1) })
	c.sensorhub = temperatures(sensorhubCount, func(i int) string { return "Sensorhub Sensor #" + strconv.Itoa(i+1) })
	c.miniNGTemps = temperatures(2*miniNGCount, func(i int) string {
		return "miniNG #" + strconv.Itoa(i/2+1) + " Sensor #" + strconv.Itoa(i%2+1)
	})

	c.flows = make([]*hardware.Sensor, flowCount)
	for i := range c.flows {
		c.flows[i] = node.NewSensor("Flowmeter #"+strconv.Itoa(i+1), i, hardware.Flow,
			hardware.WithParameters(hardware.ParameterDescription{
				Name:         "Impulse Rate",
				Description:  "The impulse rate of the flowmeter in pulses/L",
				DefaultValue: 509,
			}))
	}
	c.controls = make([]*hardware.Sensor, fanCount)
	for i := range c.controls {
		c.controls[i] = node.NewSensor("Fan Channel #"+strconv.Itoa(i+1), i, hardware.Control)
	}
	// Fan sensors are created from the first frame, which carries the
	// default MaxRPM.
	c.fans = make([]*hardware.Sensor, fanCount)
	c.miniNGFans = make([]*hardware.Sensor, 2*miniNGCount)
	c.miniNGOutput = make([]*hardware.Sensor, 2*miniNGCount)
	for i := range c.miniNGFans {
		name := "miniNG #" + strconv.Itoa(i/2+1) + " Fan #" + strconv.Itoa(i%2+1)
		c.miniNGFans[i] = node.NewSensor(name, fanCount+i, hardware.Fan)
		c.miniNGOutput[i] = node.NewSensor("miniNG #"+strconv.Itoa(i/2+1)+" Fan Channel #"+strconv.Itoa(i%2+1),
			fanCount+i, hardware.Control)
	}
}

func (c *controller) activate(sensor *hardware.Sensor) {
	delete(c.deactivating, sensor)
	c.node.ActivateSensor(sensor)
}

func (c *controller) miss(sensor *hardware.Sensor) {
	if c.deactivating[sensor] {
		delete(c.deactivating, sensor)
		c.node.DeactivateSensor(sensor)
		return
	}
	if c.isActive(sensor) {
		c.deactivating[sensor] = true
	}
}

func (c *controller) isActive(sensor *hardware.Sensor) bool {
	return slices.Contains(c.node.Sensors(), sensor)
}

// halfDegrees sets a temperature reported in 0.5°C steps, where zero
// means no probe is attached.
func (c *controller) halfDegrees(sensor *hardware.Sensor, raw byte) {
	if raw == 0 {
		c.miss(sensor)
		return
	}
	sensor.SetValue(0.5*float64(raw) + sensor.Parameter(0).Value())
	c.activate(sensor)
}

// Update drains complete frames, drops a stray single byte and sends
// the next primary query. The alternative query follows after
// alternativeDelay.
func (c *controller) Update() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}

	for {
		available, err := c.bridge.BytesToRead()
		if err != nil {
			c.logger.Debug("polling T-Balancer failed", "port", c.portIndex, "error", err)
			return
		}
		if available < FrameSize {
			if available == 1 {
				c.bridge.ReadByte()
			}
			break
		}
		if err := readFull(c.bridge, c.frame); err != nil {
			c.logger.Debug("reading T-Balancer frame failed", "port", c.portIndex, "error", err)
			return
		}
		c.decode(c.frame)
	}

	if _, err := c.bridge.Write([]byte{queryPrimary}); err != nil {
		c.logger.Debug("querying T-Balancer failed", "port", c.portIndex, "error", err)
		return
	}
	if c.pending != nil {
		c.pending.Stop()
	}
	c.pending = c.clock.AfterFunc(alternativeDelay, c.requestAlternative)
}

func (c *controller) requestAlternative() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	if _, err := c.bridge.Write([]byte{queryAlternative}); err != nil {
		c.logger.Debug("alternative T-Balancer query failed", "port", c.portIndex, "error", err)
	}
}

func (c *controller) decode(frame []byte) {
	if frame[0] != startFlag {
		c.bridge.Purge()
		return
	}
	switch frame[1] {
	case bigNGMarker, bigNGMarkerOld:
		if frame[versionOffset] != c.version {
			return
		}
		c.primary = append(c.primary[:0], frame...)
		c.decodeBigNG(frame)
	case miniNGMarker:
		c.alternate = append(c.alternate[:0], frame...)
		c.decodeMiniNG(frame, 0)
		if frame[1+miniNGBlockSize] == miniNGMarker {
			c.decodeMiniNG(frame, 1)
		}
	}
}

func (c *controller) decodeBigNG(frame []byte) {
	for i, sensor := range c.digital {
		c.halfDegrees(sensor, frame[238+i])
	}
	for i, sensor := range c.analog {
		c.halfDegrees(sensor, frame[260+i])
	}
	for i, sensor := range c.sensorhub {
		c.halfDegrees(sensor, frame[246+i])
	}

	for i, sensor := range c.flows {
		pulses, interval := frame[231+i], frame[234]
		if pulses == 0 || interval == 0 {
			c.miss(sensor)
			continue
		}
		pulsesPerSecond := float64(pulses) * 4 / float64(interval)
		sensor.SetValue(pulsesPerSecond * 3600 / sensor.Parameter(0).Value())
		c.activate(sensor)
	}

	for i := range c.fans {
		if c.fans[i] == nil {
			maxRPM := 11.5 * float64(binary.LittleEndian.Uint16(frame[148+2*i:]))
			c.fans[i] = c.node.NewSensor("Fan #"+strconv.Itoa(i+1), i, hardware.Fan,
				hardware.WithParameters(hardware.ParameterDescription{
					Name:         "MaxRPM",
					Description:  "Maximum revolutions per minute (RPM) of the fan.",
					DefaultValue: maxRPM,
				}))
		}
		var output float64
		if frame[136]&(1<<i) == 0 {
			output = 0.02 * float64(frame[137+i])
		} else {
			output = 0.01 * float64(frame[141+i])
		}
		c.fans[i].SetValue(c.fans[i].Parameter(0).Value() * output)
		c.activate(c.fans[i])
		c.controls[i].SetValue(100 * output)
		c.activate(c.controls[i])
	}
}

func (c *controller) decodeMiniNG(frame []byte, number int) {
	offset := 1 + number*miniNGBlockSize
	if frame[offset+miniNGEndOffset] != endFlag {
		return
	}
	for i := range 2 {
		c.halfDegrees(c.miniNGTemps[2*number+i], frame[offset+7+i])
	}
	for i := range 2 {
		fan := c.miniNGFans[2*number+i]
		fan.SetValue(20 * float64(frame[offset+43+2*i]))
		c.activate(fan)
		control := c.miniNGOutput[2*number+i]
		control.SetValue(float64(frame[offset+15+i]))
		c.activate(control)
	}
}

func (c *controller) Report() string {
	c.mu.Lock()
	defer c.mu.Unlock()

	var builder strings.Builder
	builder.WriteString("T-Balancer bigNG\n\n")
	fmt.Fprintf(&builder, "Port Index: %d\n", c.portIndex)
	fmt.Fprintf(&builder, "Protocol Version: 0x%X\n\n", c.version)
	writeDump(&builder, "Primary System Information Answer", c.primary)
	if len(c.alternate) > 0 {
		writeDump(&builder, "Alternative System Information Answer", c.alternate)
	}
	return builder.String()
}

func writeDump(builder *strings.Builder, title string, data []byte) {
	builder.WriteString(title + "\n\n")
	builder.WriteString("       00 01 02 03 04 05 06 07 08 09 0A 0B 0C 0D 0E 0F\n\n")
	for row := 0; row <= 0x11; row++ {
		fmt.Fprintf(builder, " %03X  ", row<<4)
		for column := 0; column <= 0xF; column++ {
			if index := row<<4 | column; index < len(data) {
				fmt.Fprintf(builder, " %02X", data[index])
			}
		}
		builder.WriteString("\n")
	}
	builder.WriteString("\n")
}

// Close cancels a pending alternative query and closes the port.
func (c *controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	if c.pending != nil {
		c.pending.Stop()
	}
	if err := c.bridge.Close(); err != nil {
		c.logger.Debug("closing T-Balancer port failed", "port", c.portIndex, "error", err)
	}
}

var (
	_ hardware.Driver   = (*controller)(nil)
	_ hardware.Reporter = (*controller)(nil)
	_ hardware.Closer   = (*controller)(nil)
)
