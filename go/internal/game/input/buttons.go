package input

import (
	"time"

	"github.com/jonboulle/clockwork"
)

// ButtonState is the raw level of the two physical buttons.
type ButtonState struct {
	Plant  bool `json:"plant"`
	Defuse bool `json:"defuse"`
}

// debouncer reports a level change only after the raw level has been
// stable for the debounce window.
type debouncer struct {
	clock    clockwork.Clock
	window   time.Duration
	stable   bool
	raw      bool
	rawSince time.Time
}

func newDebouncer(clock clockwork.Clock, window time.Duration) *debouncer {
	return &debouncer{clock: clock, window: window, rawSince: clock.Now()}
}

func (d *debouncer) sample(level bool) (state bool, changed bool) {
	now := d.clock.Now()
	if level != d.raw {
		d.raw = level
		d.rawSince = now
	}
	if d.raw != d.stable && now.Sub(d.rawSince) >= d.window {
		d.stable = d.raw
		return d.stable, true
	}
	return d.stable, false
}
