package engine

import "time"

// Beep cadence bands by time left until explosion.
const (
	beepIntervalCalm     = 3000 * time.Millisecond
	beepIntervalNear     = 1000 * time.Millisecond
	beepIntervalClose    = 500 * time.Millisecond
	beepIntervalCritical = 250 * time.Millisecond
)

// BeepInterval returns the beep cadence for the remaining explosion time:
// >30s 3000ms, >15s 1000ms, >5s 500ms, otherwise 250ms.
func BeepInterval(remaining time.Duration) time.Duration {
	switch {
	case remaining > 30*time.Second:
		return beepIntervalCalm
	case remaining > 15*time.Second:
		return beepIntervalNear
	case remaining > 5*time.Second:
		return beepIntervalClose
	default:
		return beepIntervalCritical
	}
}

// escalate tightens the beep cadence to the band for remaining. The cadence
// never loosens within a round, and the beep timer's phase is kept.
func (e *Engine) escalate(remaining time.Duration) {
	next := BeepInterval(remaining)
	if e.s.beepInterval != 0 && next >= e.s.beepInterval {
		return
	}
	e.s.beepInterval = next
	e.sched.SetInterval(TimerBeep, next)
}

// secondsCeil rounds a remaining duration up to whole seconds for display.
func secondsCeil(d time.Duration) int {
	if d <= 0 {
		return 0
	}
	return int((d + time.Second - 1) / time.Second)
}
