package engine

import (
	"time"

	"github.com/rs/zerolog/log"

	"github.com/mcdev12/bombprop/go/internal/game/feedback"
	"github.com/mcdev12/bombprop/go/internal/models"
)

// resolveOutcome finishes a terminal phase: stop timers, clear indicators,
// play the outcome sequence, then move to Ended.
func (e *Engine) resolveOutcome() {
	if !e.s.Phase.Terminal() {
		return
	}
	now := e.clock.Now()

	e.sched.StopAll()
	e.clearIndicators()

	switch e.s.Phase {
	case models.PhaseDefused:
		e.emit(feedback.EventTypeShowOutcome, feedback.OutcomePayload{Outcome: string(models.OutcomeDefused), Headline: "Counter WIN"})
		e.sound(feedback.CueBombDefused, 0)
		e.sound(feedback.CueCounterWin, defusedWinDelay)
	case models.PhaseExploded:
		e.emit(feedback.EventTypeShowOutcome, feedback.OutcomePayload{Outcome: string(models.OutcomeExploded), Headline: "Terrorist WIN"})
		e.sound(feedback.CueTerroristWin, 0)
	case models.PhaseTimeOver:
		e.emit(feedback.EventTypeShowOutcome, feedback.OutcomePayload{Outcome: string(models.OutcomeTimeOver), Headline: "GAME OVER"})
	}

	e.s.Deadlines = models.Deadlines{}
	e.s.EndedAt = now
	e.last = e.s.record()
	log.Info().
		Str("round_id", e.roundID()).
		Str("outcome", string(e.s.Outcome)).
		Dur("duration", now.Sub(e.s.StartedAt)).
		Msg("round finished")
	e.transition(models.PhaseEnded)
}

const defusedWinDelay = 2500 * time.Millisecond
