package engine

import (
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/bombprop/go/internal/game/feedback"
	"github.com/mcdev12/bombprop/go/internal/game/scheduler"
	"github.com/mcdev12/bombprop/go/internal/models"
)

// Options tune the engine's fixed durations.
type Options struct {
	CountdownDuration time.Duration // pre-game countdown; zero arms immediately
	MaxInputDigits    int
	RequireDefuseCode bool
	BeepToneLength    time.Duration
	BlinkInterval     time.Duration
}

// DefaultOptions returns the stock prop behaviour.
func DefaultOptions() Options {
	return Options{
		CountdownDuration: 10 * time.Second,
		MaxInputDigits:    4,
		BeepToneLength:    128 * time.Millisecond,
		BlinkInterval:     500 * time.Millisecond,
	}
}

// Engine is the game state machine. It is driven by Step from a single poll
// loop and is not safe for concurrent use.
type Engine struct {
	clock clockwork.Clock
	sched *scheduler.Scheduler
	out   feedback.Dispatcher
	opts  Options
	s     *Session
	last  *models.Round

	notices []string
}

// New creates an engine in Idle on the main menu. Call Boot to announce it.
func New(clock clockwork.Clock, out feedback.Dispatcher, opts Options) *Engine {
	if out == nil {
		out = feedback.Discard{}
	}
	e := &Engine{
		clock: clock,
		sched: scheduler.New(clock),
		out:   out,
		opts:  opts,
		s:     newSession(opts.MaxInputDigits),
	}
	e.registerTimers()
	return e
}

// Boot plays the start-up cue and shows the main menu.
func (e *Engine) Boot() {
	e.sound(feedback.CueBoot, 0)
	e.showMenu()
}

// Step runs one poll tick: actions in order, then timers, then terminal
// handling. An action in the same tick as an expiry is applied first.
func (e *Engine) Step(actions ...models.Action) {
	for _, a := range actions {
		e.Apply(a)
	}
	e.sched.Update()
	e.resolveOutcome()
}

// Apply routes one action through the table for the current phase and mode.
// Actions the phase does not accept are ignored.
func (e *Engine) Apply(a models.Action) {
	if a == models.ActionNone {
		return
	}
	switch e.s.Phase {
	case models.PhaseIdle:
		e.applyMenu(a)
	case models.PhaseConfiguringSettings:
		e.applySetup(a)
	case models.PhasePlaying, models.PhasePlanting, models.PhasePlanted, models.PhaseDefusing:
		e.applyGameplay(a)
	default:
		e.ignore(a)
	}
}

// Reset reinitialises the session to Idle on the main menu.
func (e *Engine) Reset() {
	e.resetToIdle("reset requested")
}

// Notice shows an informational message that never affects play.
func (e *Engine) Notice(msg string) {
	e.notices = append(e.notices, msg)
	e.emit(feedback.EventTypeShowNotice, feedback.NoticePayload{Message: msg})
}

// LastRound returns the most recently finished round, if any.
func (e *Engine) LastRound() (models.Round, bool) {
	if e.last == nil {
		return models.Round{}, false
	}
	return *e.last, true
}

// Phase returns the current round phase.
func (e *Engine) Phase() models.RoundPhase { return e.s.Phase }

type transitionFunc func(e *Engine, now time.Time)

var gameplayActions = map[models.GameMode]map[models.RoundPhase]map[models.Action]transitionFunc{
	models.GameModeSabotage: {
		models.PhasePlaying:  {models.ActionPlant: (*Engine).startPlanting},
		models.PhasePlanting: {models.ActionCancelPlant: (*Engine).cancelPlanting},
		models.PhasePlanted:  {models.ActionDefuse: (*Engine).startDefusing},
		models.PhaseDefusing: {models.ActionCancelDefuse: (*Engine).cancelDefusing},
	},
	models.GameModeSearchAndDestroy: {
		models.PhasePlanted:  {models.ActionDefuse: (*Engine).startDefusing},
		models.PhaseDefusing: {models.ActionCancelDefuse: (*Engine).cancelDefusing},
	},
}

func (e *Engine) applyMenu(a models.Action) {
	switch a {
	case models.ActionSelectSearchAndDestroy:
		e.beginSetup(models.GameModeSearchAndDestroy)
	case models.ActionSelectSabotage:
		e.beginSetup(models.GameModeSabotage)
	default:
		e.ignore(a)
	}
}

func (e *Engine) applyGameplay(a models.Action) {
	if e.s.Phase == models.PhaseDefusing && a.IsDigit() && e.s.Config.DefuseCode != "" {
		if e.s.Buffer.Append(a) {
			e.sound(feedback.CueKeyPress, 0)
		}
		return
	}
	fn, ok := gameplayActions[e.s.Mode][e.s.Phase][a]
	if !ok {
		e.ignore(a)
		return
	}
	fn(e, e.clock.Now())
}

func (e *Engine) ignore(a models.Action) {
	log.Debug().
		Str("action", a.String()).
		Str("phase", e.s.Phase.String()).
		Str("mode", string(e.s.Mode)).
		Msg("action not accepted in phase, ignoring")
}

func (e *Engine) transition(to models.RoundPhase) {
	from := e.s.Phase
	e.s.Phase = to
	log.Info().
		Str("round_id", e.roundID()).
		Str("mode", string(e.s.Mode)).
		Str("from", from.String()).
		Str("to", to.String()).
		Msg("phase transition")
}

func (e *Engine) resetToIdle(reason string) {
	e.sched.StopAll()
	e.clearIndicators()
	log.Info().
		Str("round_id", e.roundID()).
		Str("phase", e.s.Phase.String()).
		Str("reason", reason).
		Msg("resetting to idle")
	e.s = newSession(e.opts.MaxInputDigits)
	e.showMenu()
}

func (e *Engine) showMenu() {
	e.emit(feedback.EventTypeShowMenu, feedback.MenuPayload{
		Entries: []string{"1.Sear&Des", "2.Sabotage"},
	})
}

func (e *Engine) roundID() string {
	if e.s.RoundID == uuid.Nil {
		return ""
	}
	return e.s.RoundID.String()
}

func (e *Engine) emit(t feedback.EventType, payload any) {
	e.out.Dispatch(feedback.Event{
		ID:        uuid.NewString(),
		RoundID:   e.roundID(),
		Type:      t,
		Timestamp: e.clock.Now(),
		Payload:   payload,
	})
}

func (e *Engine) sound(cue feedback.Cue, after time.Duration) {
	e.emit(feedback.EventTypePlaySound, feedback.SoundPayload{Cue: cue, After: after})
}

func (e *Engine) setLed(name feedback.Indicator, on bool) {
	if e.s.leds[name] == on {
		return
	}
	e.s.leds[name] = on
	e.emit(feedback.EventTypeSetIndicatorLed, feedback.LedPayload{Name: name, On: on})
}

func (e *Engine) clearIndicators() {
	for _, name := range feedback.Indicators {
		e.setLed(name, false)
	}
}

func (e *Engine) showTimer(t feedback.EventType, remaining time.Duration) {
	secs := secondsCeil(remaining)
	e.emit(t, feedback.TimerPayload{SecondsRemaining: secs, Display: feedback.FormatClock(secs)})
}
