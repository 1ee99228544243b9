package device

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/bombprop/go/internal/game/engine"
	"github.com/mcdev12/bombprop/go/internal/game/input"
)

// Runner owns the cooperative poll loop. Input from other goroutines reaches
// the engine only through the normalizer queue and the reset flag.
type Runner struct {
	clock    clockwork.Clock
	engine   *engine.Engine
	input    *input.Normalizer
	interval time.Duration

	state   atomic.Pointer[engine.Snapshot]
	resetCh chan struct{}
	notices []string
}

// NewRunner wires an engine to its input source.
func NewRunner(clock clockwork.Clock, eng *engine.Engine, in *input.Normalizer, interval time.Duration) *Runner {
	r := &Runner{
		clock:    clock,
		engine:   eng,
		input:    in,
		interval: interval,
		resetCh:  make(chan struct{}, 1),
	}
	r.publish()
	return r
}

// Run boots the engine and polls until ctx ends.
func (r *Runner) Run(ctx context.Context) error {
	log.Info().Dur("poll_interval", r.interval).Msg("poll loop started")

	r.engine.Boot()
	for _, msg := range r.notices {
		r.engine.Notice(msg)
	}
	r.publish()

	ticker := r.clock.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("poll loop shutting down")
			return nil
		case <-ticker.Chan():
			r.poll()
		}
	}
}

func (r *Runner) poll() {
	select {
	case <-r.resetCh:
		r.engine.Reset()
	default:
	}
	r.engine.Step(r.input.Poll()...)
	r.publish()
}

func (r *Runner) publish() {
	snap := r.engine.Snapshot()
	r.state.Store(&snap)
}

// Announce queues a notice shown right after the boot menu. Call before Run.
func (r *Runner) Announce(msg string) {
	r.notices = append(r.notices, msg)
}

// Snapshot returns the state as of the last completed poll.
func (r *Runner) Snapshot() engine.Snapshot {
	return *r.state.Load()
}

// SendKeys queues keypad keys; it returns how many were accepted.
func (r *Runner) SendKeys(keys string) int {
	return r.input.FeedString(keys)
}

// SetButtons sets the raw button levels sampled on the next poll.
func (r *Runner) SetButtons(s input.ButtonState) {
	r.input.SetButtons(s)
}

// RequestReset resets the session at the start of the next poll.
func (r *Runner) RequestReset() {
	select {
	case r.resetCh <- struct{}{}:
	default:
	}
}
