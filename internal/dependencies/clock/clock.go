// Package clock supplies the time every league record is stamped with.
package clock

import "time"

// Clock is the source of timestamps; tests swap in mocks.MockClock
type Clock interface {
	Now() time.Time
}

// RealClock reads the system clock
type RealClock struct{}

// New creates a new RealClock
func New() *RealClock {
	return &RealClock{}
}

// Now returns the current time in UTC at microsecond precision, the
// precision Postgres keeps, so a stored record reads back unchanged
func (c *RealClock) Now() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}
