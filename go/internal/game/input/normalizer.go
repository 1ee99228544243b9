package input

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/bombprop/go/internal/models"
)

// ErrUnknownKey is returned for bytes outside the action alphabet.
var ErrUnknownKey = errors.New("unknown key")

// ParseKey maps a raw key byte to an action. Letters are case-insensitive.
func ParseKey(b byte) (models.Action, error) {
	if b >= 'A' && b <= 'Z' {
		b += 'a' - 'A'
	}
	a := models.Action(b)
	switch {
	case a.IsDigit():
		return a, nil
	case a == models.ActionConfirm, a == models.ActionCancel,
		a == models.ActionPlant, a == models.ActionDefuse,
		a == models.ActionCancelDefuse, a == models.ActionCancelPlant:
		return a, nil
	}
	return models.ActionNone, fmt.Errorf("%w: %q", ErrUnknownKey, b)
}

// Normalizer turns keypad, serial and button input into at most one keypad
// action plus ordered button edges per poll.
type Normalizer struct {
	keys chan models.Action

	mu      sync.Mutex
	buttons ButtonState
	plant   *debouncer
	defuse  *debouncer
}

// NewNormalizer creates a normalizer buffering up to queueLen keys.
func NewNormalizer(clock clockwork.Clock, queueLen int, debounce time.Duration) *Normalizer {
	if queueLen <= 0 {
		queueLen = 16
	}
	return &Normalizer{
		keys:   make(chan models.Action, queueLen),
		plant:  newDebouncer(clock, debounce),
		defuse: newDebouncer(clock, debounce),
	}
}

// Feed enqueues a key from any goroutine. It reports false when the queue is
// full and the key was dropped.
func (n *Normalizer) Feed(a models.Action) bool {
	select {
	case n.keys <- a:
		return true
	default:
		log.Warn().Str("key", a.String()).Msg("input queue full, dropping key")
		return false
	}
}

// FeedString parses and enqueues every recognised key in s, returning how
// many were accepted.
func (n *Normalizer) FeedString(s string) int {
	accepted := 0
	for i := 0; i < len(s); i++ {
		a, err := ParseKey(s[i])
		if err != nil {
			continue
		}
		if n.Feed(a) {
			accepted++
		}
	}
	return accepted
}

// ReadFrom reads serial keys from r until EOF or ctx ends. Whitespace and
// unknown bytes are skipped.
func (n *Normalizer) ReadFrom(ctx context.Context, r io.Reader) error {
	br := bufio.NewReader(r)
	for {
		if ctx.Err() != nil {
			return nil
		}
		b, err := br.ReadByte()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return fmt.Errorf("read serial input: %w", err)
		}
		a, err := ParseKey(b)
		if err != nil {
			if b != '\n' && b != '\r' && b != ' ' {
				log.Debug().Err(err).Msg("ignoring serial byte")
			}
			continue
		}
		n.Feed(a)
	}
}

// Next returns the next queued key, or ActionNone.
func (n *Normalizer) Next() models.Action {
	select {
	case a := <-n.keys:
		return a
	default:
		return models.ActionNone
	}
}

// SetButtons records the raw level of the plant and defuse buttons.
func (n *Normalizer) SetButtons(s ButtonState) {
	n.mu.Lock()
	n.buttons = s
	n.mu.Unlock()
}

// ButtonEdges samples the buttons and returns debounced edges as actions:
// plant press/release then defuse press/release.
func (n *Normalizer) ButtonEdges() []models.Action {
	n.mu.Lock()
	raw := n.buttons
	n.mu.Unlock()

	var out []models.Action
	if pressed, changed := n.plant.sample(raw.Plant); changed {
		if pressed {
			out = append(out, models.ActionPlant)
		} else {
			out = append(out, models.ActionCancelPlant)
		}
	}
	if pressed, changed := n.defuse.sample(raw.Defuse); changed {
		if pressed {
			out = append(out, models.ActionDefuse)
		} else {
			out = append(out, models.ActionCancelDefuse)
		}
	}
	return out
}

// Poll returns this tick's actions in processing order: one keypad action
// first, then button edges.
func (n *Normalizer) Poll() []models.Action {
	var out []models.Action
	if a := n.Next(); a != models.ActionNone {
		out = append(out, a)
	}
	return append(out, n.ButtonEdges()...)
}
