package domain

import (
	"time"

	"github.com/jonboulle/clockwork"
)

// clock is a package-level time source so tests can freeze time via SetClock.
// Production code uses the real clock; tests inject a fake so artifact
// timestamps and manifests come out deterministic.
var clock = clockwork.NewRealClock()

// SetClock swaps the time source for artifact timestamps. Pass nil to reset to real time.
func SetClock(c clockwork.Clock) {
	if c == nil {
		clock = clockwork.NewRealClock()
		return
	}
	clock = c
}

// Now returns the current time from the package clock. Generation timestamps
// on artifacts and manifests all flow through here.
func Now() time.Time {
	return clock.Now()
}
