// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package hardware

import (
	"strconv"
	"strings"
	"sync"
)

// ParameterDescription declares a user-adjustable constant used when
// converting a raw reading, such as a voltage divider resistor.
type ParameterDescription struct {
	Name         string
	Description  string
	DefaultValue float64
}

// Parameter is one ParameterDescription bound to a sensor. A value set
// by the user is persisted in Settings under the parameter identifier.
type Parameter struct {
	description ParameterDescription
	sensor      *Sensor
	identifier  Identifier
	settings    Settings

	mu        sync.RWMutex
	value     float64
	isDefault bool
}

func newParameter(description ParameterDescription, sensor *Sensor, settings Settings) *Parameter {
	parameter := &Parameter{
		description: description,
		sensor:      sensor,
		identifier: sensor.Identifier().Extend("parameter",
			strings.ReplaceAll(strings.ToLower(description.Name), " ", "")),
		settings:  settings,
		value:     description.DefaultValue,
		isDefault: true,
	}
	if stored, ok := settings.Get(parameter.identifier.String()); ok {
		if value, err := strconv.ParseFloat(stored, 64); err == nil {
			parameter.value = value
			parameter.isDefault = false
		}
	}
	return parameter
}

func (p *Parameter) Kind() NodeKind           { return KindParameter }
func (p *Parameter) Identifier() Identifier   { return p.identifier }
func (p *Parameter) Name() string             { return p.description.Name }
func (p *Parameter) Description() string      { return p.description.Description }
func (p *Parameter) DefaultValue() float64    { return p.description.DefaultValue }
func (p *Parameter) Sensor() *Sensor          { return p.sensor }
func (p *Parameter) Traverse(visitor Visitor) {}

// Accept calls visitor.VisitParameter. Panics on a nil visitor.
func (p *Parameter) Accept(visitor Visitor) {
	mustVisitor(visitor)
	visitor.VisitParameter(p)
}

// Value returns the current value: the user's value or the default.
func (p *Parameter) Value() float64 {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.value
}

// SetValue sets and persists a user value.
func (p *Parameter) SetValue(value float64) {
	p.mu.Lock()
	p.value = value
	p.isDefault = false
	p.mu.Unlock()
	p.settings.Set(p.identifier.String(), strconv.FormatFloat(value, 'g', -1, 64))
}

// IsDefault reports whether the parameter holds its default value.
func (p *Parameter) IsDefault() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.isDefault
}

// SetDefault with true restores the default value and drops the
// persisted override. With false it pins the current value.
func (p *Parameter) SetDefault(isDefault bool) {
	if !isDefault {
		p.SetValue(p.Value())
		return
	}
	p.mu.Lock()
	p.value = p.description.DefaultValue
	p.isDefault = true
	p.mu.Unlock()
	p.settings.Remove(p.identifier.String())
}
