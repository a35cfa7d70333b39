// Package system provides the wall clock used to stamp guestbook visits.
package system

import "time"

// Clock implements guestbook.Clock using time.Now.
type Clock struct{}

// New creates a new Clock.
func New() *Clock {
	return &Clock{}
}

// Now returns the current time in UTC with microsecond precision, the finest
// resolution the SQL backends keep, so a value read back compares equal to the
// value written.
func (Clock) Now() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}
