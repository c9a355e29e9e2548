// Package clock abstracts the current time behind a small interface so
// time-stamped output can be pinned in tests.
package clock

import "time"

// Clock yields the current time.
type Clock interface {
	Now() time.Time
}

// System reads the real system time.
type System struct{}

// NewSystem returns a Clock backed by time.Now.
func NewSystem() *System {
	return &System{}
}

// Now returns the current system time.
func (*System) Now() time.Time {
	return time.Now()
}

// Fixed always reports the same instant.
type Fixed struct {
	at time.Time
}

// NewFixed returns a Clock pinned to the given instant.
func NewFixed(at time.Time) *Fixed {
	return &Fixed{at: at}
}

// Now returns the pinned instant.
func (f *Fixed) Now() time.Time {
	return f.at
}
