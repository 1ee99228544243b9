package scheduler

import (
	"time"

	"github.com/rs/zerolog/log"
)

// Clock is the interface we use for time operations.
// In production, use clockwork.NewRealClock(). In tests, a FakeClock.
type Clock interface {
	Now() time.Time
}

// ID names a timer by its purpose.
type ID string

// Mode selects whether a timer re-arms after firing.
type Mode int

const (
	Repeat Mode = iota
	Once
)

// Callback runs on the polling goroutine when a timer is due.
// It receives the poll instant, not the scheduled instant.
type Callback func(now time.Time)

// Timer is one registry entry. Timers are only driven through the Scheduler.
type Timer struct {
	id       ID
	callback Callback
	interval time.Duration
	mode     Mode
	running  bool
	anchor   time.Time // instant the current period started
	fires    int
}

func (t *Timer) ID() string              { return string(t.id) }
func (t *Timer) Interval() time.Duration { return t.interval }
func (t *Timer) Running() bool           { return t.running }

// NextFireAt is only meaningful while the timer is running.
func (t *Timer) NextFireAt() time.Time { return t.anchor.Add(t.interval) }

// Fires counts callback invocations since the last Start.
func (t *Timer) Fires() int { return t.fires }

// Scheduler is a cooperative timer registry driven by Update calls from a
// single poll loop. It does no locking; callers must not share it between
// goroutines.
type Scheduler struct {
	clock  Clock
	timers []*Timer
	byID   map[ID]*Timer
}

// New creates an empty scheduler reading time from clock.
func New(clock Clock) *Scheduler {
	return &Scheduler{
		clock: clock,
		byID:  make(map[ID]*Timer),
	}
}

// Register adds a stopped timer. Timers fire in registration order when due
// in the same Update. Registering an existing id replaces its callback and
// cadence and stops it.
func (s *Scheduler) Register(id ID, interval time.Duration, mode Mode, cb Callback) *Timer {
	if t, ok := s.byID[id]; ok {
		t.callback = cb
		t.interval = interval
		t.mode = mode
		t.running = false
		return t
	}
	t := &Timer{id: id, callback: cb, interval: interval, mode: mode}
	s.timers = append(s.timers, t)
	s.byID[id] = t
	return t
}

// Get returns the timer registered under id, or nil.
func (s *Scheduler) Get(id ID) *Timer { return s.byID[id] }

// Start arms the timer. Starting a running timer restarts its period but
// keeps its interval.
func (s *Scheduler) Start(id ID) {
	t, ok := s.byID[id]
	if !ok {
		log.Warn().Str("timer", string(id)).Msg("start on unregistered timer")
		return
	}
	t.running = true
	t.anchor = s.clock.Now()
	t.fires = 0
}

// Stop disarms the timer. Stopping a stopped timer is a no-op.
func (s *Scheduler) Stop(id ID) {
	if t, ok := s.byID[id]; ok {
		t.running = false
	}
}

// StopAll disarms every registered timer.
func (s *Scheduler) StopAll() {
	for _, t := range s.timers {
		t.running = false
	}
}

// SetInterval changes the cadence without restarting the current period:
// the next fire is re-derived from when the period began.
func (s *Scheduler) SetInterval(id ID, interval time.Duration) {
	if t, ok := s.byID[id]; ok {
		t.interval = interval
	}
}

// Running reports whether id is armed.
func (s *Scheduler) Running(id ID) bool {
	t, ok := s.byID[id]
	return ok && t.running
}

// Update fires every due timer once, in registration order. A repeating
// timer's next period starts at its previous due instant. If the poll loop
// fell more than a full interval behind, the missed periods are skipped
// rather than fired, and the timer stays on its original grid. A callback may start or stop any timer, including the
// ones later in this pass; a timer stopped by an earlier callback does not
// fire.
func (s *Scheduler) Update() {
	now := s.clock.Now()
	for _, t := range s.timers {
		if !t.running {
			continue
		}
		due := t.anchor.Add(t.interval)
		if now.Before(due) {
			continue
		}
		if t.mode == Once {
			t.running = false
		} else {
			t.anchor = due
			if t.interval <= 0 {
				t.anchor = now
			} else if missed := now.Sub(due) / t.interval; missed > 0 {
				t.anchor = due.Add(missed * t.interval)
			}
		}
		t.fires++
		if t.callback != nil {
			t.callback(now)
		}
	}
}
