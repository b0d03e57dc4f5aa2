// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package tui

import "time"

// HighlightDuration is how long a changed reading stays tinted. The
// intensity decays linearly from 1 to 0 over this duration.
const HighlightDuration = 4 * time.Second

// Direction says whether a reading rose or fell.
type Direction int

const (
	Rise Direction = iota
	Fall
)

type highlight struct {
	since     time.Time
	direction Direction
}

// ChangeTracker remembers the last reading of each sensor and when it
// last moved by more than the tracker's threshold.
type ChangeTracker struct {
	threshold  float64
	last       map[string]float64
	highlights map[string]highlight
}

// NewChangeTracker returns a tracker that ignores moves of threshold
// or less, which keeps ADC jitter from lighting up every voltage.
func NewChangeTracker(threshold float64) *ChangeTracker {
	return &ChangeTracker{
		threshold:  threshold,
		last:       make(map[string]float64),
		highlights: make(map[string]highlight),
	}
}

// Observe records a reading. The first reading of a key never
// highlights.
func (tracker *ChangeTracker) Observe(key string, value float64, now time.Time) {
	previous, seen := tracker.last[key]
	tracker.last[key] = value
	if !seen {
		return
	}
	switch delta := value - previous; {
	case delta > tracker.threshold:
		tracker.highlights[key] = highlight{since: now, direction: Rise}
	case -delta > tracker.threshold:
		tracker.highlights[key] = highlight{since: now, direction: Fall}
	}
}

// Intensity returns the highlight strength of key at now, 0 when the
// key is not highlighted, and the direction of the last change.
func (tracker *ChangeTracker) Intensity(key string, now time.Time) (float64, Direction) {
	entry, ok := tracker.highlights[key]
	if !ok {
		return 0, Rise
	}
	elapsed := now.Sub(entry.since)
	if elapsed >= HighlightDuration || elapsed < 0 {
		return 0, entry.direction
	}
	return 1 - float64(elapsed)/float64(HighlightDuration), entry.direction
}

// Prune forgets expired highlights and the readings of keys not in
// live, so sensors that disappeared do not accumulate.
func (tracker *ChangeTracker) Prune(live map[string]bool, now time.Time) {
	for key, entry := range tracker.highlights {
		if !live[key] || now.Sub(entry.since) >= HighlightDuration {
			delete(tracker.highlights, key)
		}
	}
	for key := range tracker.last {
		if !live[key] {
			delete(tracker.last, key)
		}
	}
}
