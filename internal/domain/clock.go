package domain

import "github.com/jonboulle/clockwork"

// clock stamps ComputedAt on reports. Tests freeze it with SetClock.
var clock = clockwork.NewRealClock()

// SetClock replaces the report clock. Pass nil to restore the real clock.
func SetClock(c clockwork.Clock) {
	if c == nil {
		clock = clockwork.NewRealClock()
		return
	}
	clock = c
}
