package feedback

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"
)

// Dispatcher receives every feedback event the game core emits.
// Implementations must not block the poll loop.
type Dispatcher interface {
	Dispatch(ev Event)
}

// Sink is one feedback backend (display log, audio, NATS, websocket gateway).
type Sink interface {
	Name() string
	Publish(ctx context.Context, ev Event) error
}

// Fanout forwards events to every sink. A failing sink degrades to a log line
// and never stops delivery to the others.
type Fanout struct {
	ctx   context.Context
	sinks []Sink

	mu       sync.Mutex
	failures map[string]int
}

// NewFanout creates a dispatcher over sinks. ctx bounds sink publishes.
func NewFanout(ctx context.Context, sinks ...Sink) *Fanout {
	return &Fanout{
		ctx:      ctx,
		sinks:    sinks,
		failures: make(map[string]int),
	}
}

// Add registers another sink.
func (f *Fanout) Add(s Sink) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sinks = append(f.sinks, s)
}

// Dispatch implements Dispatcher.
func (f *Fanout) Dispatch(ev Event) {
	f.mu.Lock()
	sinks := append([]Sink(nil), f.sinks...)
	f.mu.Unlock()

	for _, s := range sinks {
		if err := s.Publish(f.ctx, ev); err != nil {
			f.recordFailure(s.Name(), ev, err)
		}
	}
}

// Failures returns how many publishes a sink has failed.
func (f *Fanout) Failures(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.failures[name]
}

func (f *Fanout) recordFailure(name string, ev Event, err error) {
	f.mu.Lock()
	f.failures[name]++
	n := f.failures[name]
	f.mu.Unlock()

	// first failure, then every 100th
	if n == 1 || n%100 == 0 {
		log.Warn().
			Err(err).
			Str("sink", name).
			Str("event_type", string(ev.Type)).
			Int("failures", n).
			Msg("feedback sink failed, continuing without it")
	}
}

// Discard drops every event.
type Discard struct{}

func (Discard) Dispatch(Event) {}
