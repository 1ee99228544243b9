package feedback

import (
	"context"
	"sync"
)

// Recorder keeps every event in memory. It is both a Dispatcher and a Sink.
type Recorder struct {
	mu     sync.Mutex
	events []Event
	notify chan struct{}
}

func NewRecorder() *Recorder {
	return &Recorder{notify: make(chan struct{}, 1)}
}

func (r *Recorder) Name() string { return "recorder" }

func (r *Recorder) Publish(_ context.Context, ev Event) error {
	r.Dispatch(ev)
	return nil
}

func (r *Recorder) Dispatch(ev Event) {
	r.mu.Lock()
	r.events = append(r.events, ev)
	r.mu.Unlock()
	select {
	case r.notify <- struct{}{}:
	default:
	}
}

// Events returns a copy of everything recorded.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}

// Types returns the recorded event types in order.
func (r *Recorder) Types() []EventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]EventType, len(r.events))
	for i, ev := range r.events {
		out[i] = ev.Type
	}
	return out
}

// Sounds returns the cues of recorded PlaySound events in order.
func (r *Recorder) Sounds() []Cue {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Cue
	for _, ev := range r.events {
		if p, ok := ev.Payload.(SoundPayload); ok {
			out = append(out, p.Cue)
		}
	}
	return out
}

// Reset drops everything recorded so far.
func (r *Recorder) Reset() {
	r.mu.Lock()
	r.events = nil
	r.mu.Unlock()
}

// Wait blocks until an event is recorded or ctx ends.
func (r *Recorder) Wait(ctx context.Context) bool {
	select {
	case <-r.notify:
		return true
	case <-ctx.Done():
		return false
	}
}
