package engine

import (
	"time"

	"github.com/google/uuid"

	"github.com/mcdev12/bombprop/go/internal/game/feedback"
	"github.com/mcdev12/bombprop/go/internal/models"
)

// Session is the single owned aggregate of round state. Only the engine's
// transition functions mutate it, and only from the poll loop.
type Session struct {
	RoundID   uuid.UUID
	Mode      models.GameMode
	Phase     models.RoundPhase
	Config    models.RoundConfig
	Deadlines models.Deadlines
	Outcome   models.Outcome
	StartedAt time.Time
	EndedAt   time.Time

	Buffer InputBuffer

	setup        setupState
	beepInterval time.Duration
	leds         map[feedback.Indicator]bool
}

func newSession(maxDigits int) *Session {
	return &Session{
		Mode:   models.GameModeMainMenu,
		Phase:  models.PhaseIdle,
		Buffer: InputBuffer{max: maxDigits},
		leds:   make(map[feedback.Indicator]bool),
	}
}

// record summarises a finished round.
func (s *Session) record() *models.Round {
	started, ended := s.StartedAt, s.EndedAt
	return &models.Round{
		ID:        s.RoundID,
		Mode:      s.Mode,
		Config:    s.Config,
		StartedAt: &started,
		EndedAt:   &ended,
		Outcome:   s.Outcome,
	}
}

// InputBuffer accumulates keys typed during a prompt or code entry.
type InputBuffer struct {
	chars []byte
	max   int
}

// Append adds a key; it reports false when the buffer is full.
func (b *InputBuffer) Append(a models.Action) bool {
	if b.max > 0 && len(b.chars) >= b.max {
		return false
	}
	b.chars = append(b.chars, byte(a))
	return true
}

func (b *InputBuffer) String() string { return string(b.chars) }
func (b *InputBuffer) Len() int       { return len(b.chars) }
func (b *InputBuffer) Clear()         { b.chars = b.chars[:0] }
