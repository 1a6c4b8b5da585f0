// Package clock abstracts wall-clock access so that lock-window and drift
// computations can be tested against an injected fake time source.
package clock

import "time"

// Clock supplies the current time. Production code uses System; tests inject
// a fake advancing it manually across the 24-hour lock boundary.
type Clock interface {
	Now() time.Time
}

// System is the real wall clock.
type System struct{}

// Now returns the current UTC time.
func (System) Now() time.Time { return time.Now().UTC() }

// Fixed is a Clock pinned to a settable instant. Zero value starts at the
// zero time; use Set or Advance to move it.
type Fixed struct {
	T time.Time
}

// Now returns the pinned instant.
func (f *Fixed) Now() time.Time { return f.T }

// Set pins the clock to t.
func (f *Fixed) Set(t time.Time) { f.T = t }

// Advance moves the clock forward by d.
func (f *Fixed) Advance(d time.Duration) { f.T = f.T.Add(d) }
