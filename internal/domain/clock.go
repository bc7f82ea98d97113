package domain

import (
	"time"

	"github.com/jonboulle/clockwork"
)

// clock stamps each pipeline run. Tests freeze it via SetClock.
var clock = clockwork.NewRealClock()

// SetClock swaps the run time source. Pass nil to reset to real time.
func SetClock(c clockwork.Clock) {
	if c == nil {
		clock = clockwork.NewRealClock()
		return
	}
	clock = c
}

// Now returns the current time from the package clock, in UTC.
func Now() time.Time {
	return clock.Now().UTC()
}
