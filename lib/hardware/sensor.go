// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package hardware

import (
	"math"
	"strconv"
	"sync"
	"time"

	"github.com/bureau-foundation/sensorcore/lib/clock"
)

// HistoryRetention is how long a sensor keeps past values.
const HistoryRetention = 24 * time.Hour

// SensorValue is one recorded sample.
type SensorValue struct {
	Value float64
	Time  time.Time
}

// Sensor is one measured quantity of a hardware node. It tracks the
// running minimum and maximum and a 24 hour value history.
type Sensor struct {
	hardware      *Hardware
	sensorType    SensorType
	index         int
	defaultName   string
	defaultHidden bool
	identifier    Identifier
	parameters    []*Parameter
	settings      Settings
	clock         clock.Clock

	mu       sync.RWMutex
	name     string
	value    float64
	hasValue bool
	min      float64
	hasMin   bool
	max      float64
	hasMax   bool
	limit    float64
	hasLimit bool
	history  []SensorValue
}

// SensorOption adjusts a sensor at construction.
type SensorOption func(*sensorOptions)

type sensorOptions struct {
	defaultHidden bool
	parameters    []ParameterDescription
}

// DefaultHidden marks a sensor that consumers hide unless asked to
// show it, such as unlabeled voltage inputs.
func DefaultHidden() SensorOption {
	return func(options *sensorOptions) { options.defaultHidden = true }
}

// HiddenIf applies DefaultHidden when hidden is true.
func HiddenIf(hidden bool) SensorOption {
	return func(options *sensorOptions) { options.defaultHidden = options.defaultHidden || hidden }
}

// WithParameters attaches user-adjustable parameters to a sensor.
func WithParameters(descriptions ...ParameterDescription) SensorOption {
	return func(options *sensorOptions) {
		options.parameters = append(options.parameters, descriptions...)
	}
}

func newSensor(hardware *Hardware, name string, index int, sensorType SensorType, options []SensorOption) *Sensor {
	var resolved sensorOptions
	for _, option := range options {
		option(&resolved)
	}

	sensor := &Sensor{
		hardware:      hardware,
		sensorType:    sensorType,
		index:         index,
		defaultName:   name,
		defaultHidden: resolved.defaultHidden,
		identifier:    hardware.Identifier().Extend(sensorType.identifierSegment(), strconv.Itoa(index)),
		settings:      hardware.environment.Settings,
		clock:         hardware.environment.Clock,
		name:          name,
	}
	if stored, ok := sensor.settings.Get(sensor.nameKey()); ok && stored != "" {
		sensor.name = stored
	}
	if stored, ok := sensor.settings.Get(sensor.limitKey()); ok {
		if limit, err := strconv.ParseFloat(stored, 64); err == nil {
			sensor.limit, sensor.hasLimit = limit, true
		}
	}
	for _, description := range resolved.parameters {
		sensor.parameters = append(sensor.parameters, newParameter(description, sensor, sensor.settings))
	}
	return sensor
}

func (s *Sensor) nameKey() string  { return s.identifier.String() + "/name" }
func (s *Sensor) limitKey() string { return s.identifier.String() + "/limit" }

func (s *Sensor) Kind() NodeKind           { return KindSensor }
func (s *Sensor) Identifier() Identifier   { return s.identifier }
func (s *Sensor) Hardware() *Hardware      { return s.hardware }
func (s *Sensor) Type() SensorType         { return s.sensorType }
func (s *Sensor) Index() int               { return s.index }
func (s *Sensor) IsDefaultHidden() bool    { return s.defaultHidden }
func (s *Sensor) Parameters() []*Parameter { return append([]*Parameter(nil), s.parameters...) }

// Parameter returns the parameter at position index, as declared.
func (s *Sensor) Parameter(index int) *Parameter { return s.parameters[index] }

// Name returns the user's name for the sensor or its default name.
func (s *Sensor) Name() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.name
}

// SetName sets the display name. An empty name restores the default.
func (s *Sensor) SetName(name string) {
	s.mu.Lock()
	if name == "" {
		s.name = s.defaultName
	} else {
		s.name = name
	}
	s.mu.Unlock()
	if name == "" {
		s.settings.Remove(s.nameKey())
	} else {
		s.settings.Set(s.nameKey(), name)
	}
}

// Value returns the latest reading; ok is false when absent.
func (s *Sensor) Value() (value float64, ok bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.value, s.hasValue
}

// Min returns the smallest value seen since construction or ResetMin.
func (s *Sensor) Min() (value float64, ok bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.min, s.hasMin
}

// Max returns the largest value seen since construction or ResetMax.
func (s *Sensor) Max() (value float64, ok bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.max, s.hasMax
}

// SetValue publishes a reading, widens Min and Max, and records the
// sample in the history. NaN is treated as an absent reading.
func (s *Sensor) SetValue(value float64) {
	if math.IsNaN(value) {
		s.ClearValue()
		return
	}
	now := s.clock.Now()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.value, s.hasValue = value, true
	if !s.hasMin || value < s.min {
		s.min, s.hasMin = value, true
	}
	if !s.hasMax || value > s.max {
		s.max, s.hasMax = value, true
	}
	s.appendHistoryLocked(value, now)
}

// ClearValue marks the reading absent. Min, Max and history are kept.
func (s *Sensor) ClearValue() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hasValue = false
}

// ResetMin clears the running minimum; the next value reseeds it.
func (s *Sensor) ResetMin() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hasMin = false
}

// ResetMax clears the running maximum; the next value reseeds it.
func (s *Sensor) ResetMax() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hasMax = false
}

// Limit returns the consumer-set alarm limit. The engine never acts
// on it.
func (s *Sensor) Limit() (value float64, ok bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.limit, s.hasLimit
}

// SetLimit sets and persists the alarm limit.
func (s *Sensor) SetLimit(limit float64) {
	s.mu.Lock()
	s.limit, s.hasLimit = limit, true
	s.mu.Unlock()
	s.settings.Set(s.limitKey(), strconv.FormatFloat(limit, 'g', -1, 64))
}

// ClearLimit removes the alarm limit.
func (s *Sensor) ClearLimit() {
	s.mu.Lock()
	s.hasLimit = false
	s.mu.Unlock()
	s.settings.Remove(s.limitKey())
}

// Values returns a copy of the recorded history, oldest first.
func (s *Sensor) Values() []SensorValue {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]SensorValue(nil), s.history...)
}

// appendHistoryLocked records a sample. When the last two samples
// already equal value, the newest is moved forward in time instead of
// appending, so a flat run keeps only its first and latest samples.
func (s *Sensor) appendHistoryLocked(value float64, now time.Time) {
	count := len(s.history)
	if count >= 2 && s.history[count-1].Value == value && s.history[count-2].Value == value {
		s.history[count-1].Time = now
	} else {
		s.history = append(s.history, SensorValue{Value: value, Time: now})
	}

	cutoff := now.Add(-HistoryRetention)
	expired := 0
	for expired < len(s.history) && s.history[expired].Time.Before(cutoff) {
		expired++
	}
	if expired > 0 {
		s.history = append(s.history[:0], s.history[expired:]...)
	}
}

// Accept calls visitor.VisitSensor. Panics on a nil visitor.
func (s *Sensor) Accept(visitor Visitor) {
	mustVisitor(visitor)
	visitor.VisitSensor(s)
}

// Traverse accepts visitor on each parameter.
func (s *Sensor) Traverse(visitor Visitor) {
	for _, parameter := range s.parameters {
		parameter.Accept(visitor)
	}
}
