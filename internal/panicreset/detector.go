// Package panicreset detects a burst of panic-key taps.
//
// The detector keeps the timestamps of the last N taps. Once N taps have been
// seen, every further tap checks whether the oldest of the last N is within
// the window. The buffer is never cleared on a miss, so taps slide through it.
package panicreset

import (
	"sync"
	"time"
)

// Detector is safe for concurrent use.
type Detector struct {
	mu     sync.Mutex
	taps   int
	window time.Duration
	ring   []time.Time
	next   int
	count  int
}

// New returns a detector that fires after taps presses within window.
// A non-positive taps disables the detector.
func New(taps int, window time.Duration) *Detector {
	if taps < 0 {
		taps = 0
	}
	return &Detector{
		taps:   taps,
		window: window,
		ring:   make([]time.Time, taps),
	}
}

// Enabled reports whether the detector can ever fire.
func (d *Detector) Enabled() bool {
	return d.taps > 0
}

// RecordTap registers a panic-key press at now and reports whether the
// last N presses fall within the window (inclusive).
func (d *Detector) RecordTap(now time.Time) bool {
	if d.taps == 0 {
		return false
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	d.ring[d.next] = now
	d.next = (d.next + 1) % d.taps
	if d.count < d.taps {
		d.count++
	}
	if d.count < d.taps {
		return false
	}

	// next now points at the oldest retained tap.
	oldest := d.ring[d.next]
	return now.Sub(oldest) <= d.window
}

// Len returns the number of taps currently retained.
func (d *Detector) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.count
}

// Reset forgets all recorded taps.
func (d *Detector) Reset() {
	d.mu.Lock()
	defer d.mu.Unlock()
	for i := range d.ring {
		d.ring[i] = time.Time{}
	}
	d.next = 0
	d.count = 0
}
