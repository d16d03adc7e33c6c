// Package clock provides the monotonic seconds-since-start time source and
// the fixed-interval deadline scheduler the acquisition and publisher
// threads run on (§4.2).
package clock

import "time"

// Clock is a monotonic seconds-since-start time source.
type Clock struct {
	start time.Time
}

// New returns a Clock whose epoch is the current instant.
func New() *Clock {
	return &Clock{start: time.Now()}
}

// Now returns seconds elapsed since the Clock was created.
func (c *Clock) Now() float64 {
	return time.Since(c.start).Seconds()
}
