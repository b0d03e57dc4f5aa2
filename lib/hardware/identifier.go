// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package hardware

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidSegment is returned when an identifier segment is empty or
// contains a slash or a space.
var ErrInvalidSegment = errors.New("invalid identifier segment")

// Identifier is the hierarchical path naming a hardware node, sensor
// or parameter: "/lpc/it8720f/temperature/0". The zero value is the
// root "/".
type Identifier struct {
	segments []string
}

// NewIdentifier returns the identifier for segments.
func NewIdentifier(segments ...string) (Identifier, error) {
	for _, segment := range segments {
		if err := validateSegment(segment); err != nil {
			return Identifier{}, err
		}
	}
	return Identifier{segments: append([]string(nil), segments...)}, nil
}

// MustIdentifier is NewIdentifier for segments fixed at compile time
// or derived from device indices. It panics on an invalid segment.
func MustIdentifier(segments ...string) Identifier {
	identifier, err := NewIdentifier(segments...)
	if err != nil {
		panic(err)
	}
	return identifier
}

// ParseIdentifier parses the rendered form produced by String.
func ParseIdentifier(text string) (Identifier, error) {
	if !strings.HasPrefix(text, "/") {
		return Identifier{}, fmt.Errorf("identifier %q: missing leading slash", text)
	}
	trimmed := strings.TrimPrefix(text, "/")
	if trimmed == "" {
		return Identifier{}, nil
	}
	return NewIdentifier(strings.Split(trimmed, "/")...)
}

func validateSegment(segment string) error {
	if segment == "" || strings.ContainsAny(segment, "/ ") {
		return fmt.Errorf("%w: %q", ErrInvalidSegment, segment)
	}
	return nil
}

// Extend returns a new identifier with segments appended. The receiver
// is unchanged. It panics on an invalid segment.
func (i Identifier) Extend(segments ...string) Identifier {
	combined := make([]string, 0, len(i.segments)+len(segments))
	combined = append(combined, i.segments...)
	combined = append(combined, segments...)
	return MustIdentifier(combined...)
}

// Segments returns a copy of the path segments.
func (i Identifier) Segments() []string {
	return append([]string(nil), i.segments...)
}

// String renders the identifier as "/" + segments joined by "/".
func (i Identifier) String() string {
	return "/" + strings.Join(i.segments, "/")
}

// Equal reports whether both identifiers render identically.
func (i Identifier) Equal(other Identifier) bool {
	return i.String() == other.String()
}

// Compare orders identifiers by their rendered form.
func (i Identifier) Compare(other Identifier) int {
	return strings.Compare(i.String(), other.String())
}

// MarshalText implements encoding.TextMarshaler.
func (i Identifier) MarshalText() ([]byte, error) {
	return []byte(i.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (i *Identifier) UnmarshalText(text []byte) error {
	parsed, err := ParseIdentifier(string(text))
	if err != nil {
		return err
	}
	*i = parsed
	return nil
}
