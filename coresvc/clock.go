package coresvc

import "time"

// Clock tells the time.
type Clock interface {
	Now() time.Time
	UTCNow() time.Time
}

// SystemClock is the [Clock] of the local machine.
type SystemClock struct{}

// Now returns the current local time.
func (SystemClock) Now() time.Time {
	return time.Now()
}

// UTCNow returns the current time in UTC.
func (SystemClock) UTCNow() time.Time {
	return time.Now().UTC()
}

var _ Clock = SystemClock{}
