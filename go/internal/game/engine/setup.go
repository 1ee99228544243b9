package engine

import (
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/bombprop/go/internal/game/feedback"
	"github.com/mcdev12/bombprop/go/internal/models"
)

type setupStep int

const (
	stepPrompt setupStep = iota
	stepConfirm
	stepCountdown
)

func (s setupStep) String() string {
	switch s {
	case stepPrompt:
		return "prompt"
	case stepConfirm:
		return "confirm"
	case stepCountdown:
		return "countdown"
	}
	return "unknown"
}

type setupState struct {
	step         setupStep
	fields       []promptField
	field        int
	countdownEnd time.Time
}

// promptField is one value collected during setup.
type promptField struct {
	Label  string
	Hint   string
	assign func(c *models.RoundConfig, value string) bool
}

const confirmHint = "#->OK, *-> Cancel"

var (
	fieldGameLength = promptField{
		Label:  "Time Length",
		Hint:   "Game length minutes",
		assign: positiveInt(func(c *models.RoundConfig, v int) { c.GameLengthMinutes = v }),
	}
	fieldPlantTime = promptField{
		Label:  "Plant?",
		Hint:   "Plant time in seconds",
		assign: positiveInt(func(c *models.RoundConfig, v int) { c.PlantTimeSeconds = v }),
	}
	fieldExplosionTime = promptField{
		Label:  "Bomb time?",
		Hint:   "Time to explode",
		assign: positiveInt(func(c *models.RoundConfig, v int) { c.ExplosionTimeMinutes = v }),
	}
	fieldDefuseTime = promptField{
		Label:  "Defuse?",
		Hint:   "Defuse time in seconds",
		assign: positiveInt(func(c *models.RoundConfig, v int) { c.DefuseTimeSeconds = v }),
	}
	fieldDefuseCode = promptField{
		Label: "Code?",
		Hint:  "Defusing code",
		assign: func(c *models.RoundConfig, v string) bool {
			c.DefuseCode = v
			return true
		},
	}
)

func positiveInt(set func(c *models.RoundConfig, v int)) func(*models.RoundConfig, string) bool {
	return func(c *models.RoundConfig, value string) bool {
		n, err := strconv.Atoi(value)
		if err != nil || n <= 0 {
			return false
		}
		set(c, n)
		return true
	}
}

// setupFields lists the prompts for a mode in the order they are asked.
func setupFields(mode models.GameMode, requireCode bool) []promptField {
	var fields []promptField
	switch mode {
	case models.GameModeSabotage:
		fields = []promptField{fieldGameLength, fieldPlantTime, fieldExplosionTime, fieldDefuseTime}
	case models.GameModeSearchAndDestroy:
		fields = []promptField{fieldExplosionTime, fieldDefuseTime}
	}
	if requireCode {
		fields = append(fields, fieldDefuseCode)
	}
	return fields
}

// beginSetup starts a fresh round in ConfiguringSettings. Config from any
// earlier attempt is discarded.
func (e *Engine) beginSetup(mode models.GameMode) {
	e.s.RoundID = uuid.New()
	e.s.Mode = mode
	e.s.Config = models.RoundConfig{}
	e.s.Buffer.Clear()
	e.s.setup = setupState{step: stepPrompt, fields: setupFields(mode, e.opts.RequireDefuseCode)}
	e.sound(feedback.CueKeyPress, 0)
	e.transition(models.PhaseConfiguringSettings)
	e.showPrompt()
}

func (e *Engine) applySetup(a models.Action) {
	switch e.s.setup.step {
	case stepPrompt:
		e.applyPrompt(a)
	case stepConfirm:
		e.applyConfirm(a)
	default:
		// countdown accepts nothing
		e.ignore(a)
	}
}

func (e *Engine) applyPrompt(a models.Action) {
	switch {
	case a == models.ActionCancel:
		e.sound(feedback.CueKeyPress, 0)
		e.resetToIdle("setup cancelled")
	case a == models.ActionConfirm:
		e.sound(feedback.CueKeyPress, 0)
		e.commitField()
	case a.IsDigit():
		if !e.s.Buffer.Append(a) {
			e.sound(feedback.CueRejected, 0)
			return
		}
		e.sound(feedback.CueKeyPress, 0)
		e.showPrompt()
	default:
		e.ignore(a)
	}
}

func (e *Engine) commitField() {
	f := e.s.setup.fields[e.s.setup.field]
	value := e.s.Buffer.String()
	if value == "" || !f.assign(&e.s.Config, value) {
		log.Debug().Str("field", f.Label).Str("value", value).Msg("rejected setup value")
		e.s.Buffer.Clear()
		e.sound(feedback.CueRejected, 0)
		e.showPrompt()
		return
	}
	log.Debug().Str("field", f.Label).Str("value", value).Msg("setup value committed")
	e.s.Buffer.Clear()
	e.s.setup.field++
	if e.s.setup.field < len(e.s.setup.fields) {
		e.showPrompt()
		return
	}
	e.s.setup.step = stepConfirm
	e.emit(feedback.EventTypeShowPrompt, feedback.PromptPayload{Label: "Start?", Hint: confirmHint})
}

func (e *Engine) applyConfirm(a models.Action) {
	switch a {
	case models.ActionCancel:
		e.sound(feedback.CueKeyPress, 0)
		e.resetToIdle("start cancelled")
	case models.ActionConfirm:
		e.sound(feedback.CueKeyPress, 0)
		e.startCountdown(e.clock.Now())
	default:
		e.ignore(a)
	}
}

func (e *Engine) showPrompt() {
	f := e.s.setup.fields[e.s.setup.field]
	e.emit(feedback.EventTypeShowPrompt, feedback.PromptPayload{
		Label:  f.Label,
		Hint:   f.Hint,
		Buffer: e.s.Buffer.String(),
	})
}

func (e *Engine) startCountdown(now time.Time) {
	if e.opts.CountdownDuration <= 0 {
		e.armRound(now)
		return
	}
	e.s.setup.step = stepCountdown
	e.s.setup.countdownEnd = now.Add(e.opts.CountdownDuration)
	e.emit(feedback.EventTypeShowCountdown, feedback.CountdownPayload{
		SecondsRemaining: secondsCeil(e.opts.CountdownDuration),
	})
	e.sched.Start(TimerCountdown)
}

func (e *Engine) onCountdownTick(now time.Time) {
	if e.s.Phase != models.PhaseConfiguringSettings || e.s.setup.step != stepCountdown {
		return
	}
	remaining := e.s.setup.countdownEnd.Sub(now)
	e.emit(feedback.EventTypeShowCountdown, feedback.CountdownPayload{SecondsRemaining: secondsCeil(remaining)})
	if remaining > 0 {
		return
	}
	e.sched.Stop(TimerCountdown)
	e.armRound(now)
}

// armRound starts the round timers once setup has been accepted.
func (e *Engine) armRound(now time.Time) {
	if !e.s.Config.Ready(e.s.Mode, e.opts.RequireDefuseCode) {
		log.Error().Str("round_id", e.roundID()).Msg("round config incomplete, refusing to arm")
		e.resetToIdle("incomplete config")
		return
	}
	e.s.StartedAt = now
	switch e.s.Mode {
	case models.GameModeSabotage:
		e.enterPlaying(now)
	case models.GameModeSearchAndDestroy:
		e.sound(feedback.CuePlantStart, 0)
		e.enterPlanted(now)
	}
}
