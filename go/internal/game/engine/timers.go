package engine

import (
	"time"

	"github.com/mcdev12/bombprop/go/internal/game/feedback"
	"github.com/mcdev12/bombprop/go/internal/game/scheduler"
	"github.com/mcdev12/bombprop/go/internal/models"
)

// Timer ids. Registration order below is the firing order within one tick,
// so an explosion due in the same tick as a defuse wins.
const (
	TimerCountdown scheduler.ID = "countdown"
	TimerGameClock scheduler.ID = "game-clock"
	TimerPlant     scheduler.ID = "plant"
	TimerExplosion scheduler.ID = "explosion"
	TimerDefuse    scheduler.ID = "defuse"
	TimerBeep      scheduler.ID = "beep"
	TimerToneOff   scheduler.ID = "tone-off"
	TimerBlink     scheduler.ID = "blink"
)

const countdownTick = time.Second

var timerOrder = []scheduler.ID{
	TimerCountdown, TimerGameClock, TimerPlant, TimerExplosion,
	TimerDefuse, TimerBeep, TimerToneOff, TimerBlink,
}

func (e *Engine) registerTimers() {
	e.sched.Register(TimerCountdown, countdownTick, scheduler.Repeat, e.onCountdownTick)
	e.sched.Register(TimerGameClock, countdownTick, scheduler.Repeat, e.onGameClockTick)
	e.sched.Register(TimerPlant, countdownTick, scheduler.Repeat, e.onPlantTick)
	e.sched.Register(TimerExplosion, countdownTick, scheduler.Repeat, e.onExplosionTick)
	e.sched.Register(TimerDefuse, countdownTick, scheduler.Repeat, e.onDefuseTick)
	e.sched.Register(TimerBeep, beepIntervalCalm, scheduler.Repeat, e.onBeep)
	e.sched.Register(TimerToneOff, e.opts.BeepToneLength, scheduler.Once, e.onToneOff)
	e.sched.Register(TimerBlink, e.opts.BlinkInterval, scheduler.Repeat, e.onBlink)
}

// live reports whether the round clock is running in the current phase.
func (e *Engine) live() bool {
	switch e.s.Phase {
	case models.PhasePlaying, models.PhasePlanting, models.PhasePlanted, models.PhaseDefusing:
		return true
	}
	return false
}

func (e *Engine) enterPlaying(now time.Time) {
	e.s.Deadlines.GameFinishAt = now.Add(e.s.Config.GameLength())
	e.s.beepInterval = beepIntervalCalm
	e.sched.SetInterval(TimerBeep, beepIntervalCalm)
	e.transition(models.PhasePlaying)
	e.sched.Start(TimerGameClock)
	e.sched.Start(TimerBeep)
	e.showTimer(feedback.EventTypeShowGameRunning, e.s.Config.GameLength())
}

func (e *Engine) onGameClockTick(now time.Time) {
	if e.s.Phase != models.PhasePlaying {
		return
	}
	remaining := e.s.Deadlines.GameFinishAt.Sub(now)
	if remaining > 0 {
		e.showTimer(feedback.EventTypeShowGameRunning, remaining)
		return
	}
	e.s.Outcome = models.OutcomeTimeOver
	e.transition(models.PhaseTimeOver)
	e.sched.StopAll()
}

func (e *Engine) startPlanting(now time.Time) {
	e.s.Deadlines.PlantFinishAt = now.Add(e.s.Config.PlantTime())
	e.transition(models.PhasePlanting)
	e.sched.Start(TimerPlant)
	e.setLed(feedback.IndicatorPlanting, true)
	e.sound(feedback.CuePlantStart, 0)
	e.showTimer(feedback.EventTypeShowPlanting, e.s.Config.PlantTime())
}

func (e *Engine) cancelPlanting(now time.Time) {
	e.sched.Stop(TimerPlant)
	e.s.Deadlines.PlantFinishAt = time.Time{}
	e.setLed(feedback.IndicatorPlanting, false)
	e.transition(models.PhasePlaying)
	e.showTimer(feedback.EventTypeShowGameRunning, e.s.Deadlines.GameFinishAt.Sub(now))
}

func (e *Engine) onPlantTick(now time.Time) {
	if e.s.Phase != models.PhasePlanting {
		return
	}
	remaining := e.s.Deadlines.PlantFinishAt.Sub(now)
	if remaining > 0 {
		e.showTimer(feedback.EventTypeShowPlanting, remaining)
		return
	}
	e.sched.Stop(TimerPlant)
	e.sched.Stop(TimerGameClock)
	e.s.Deadlines.PlantFinishAt = time.Time{}
	e.s.Deadlines.GameFinishAt = time.Time{}
	e.setLed(feedback.IndicatorPlanting, false)
	e.enterPlanted(now)
}

// enterPlanted arms the explosion countdown from now, whatever led here.
func (e *Engine) enterPlanted(now time.Time) {
	e.s.Deadlines.ExplosionFinishAt = now.Add(e.s.Config.ExplosionTime())
	e.transition(models.PhasePlanted)
	e.sched.Start(TimerExplosion)
	e.sched.Start(TimerBlink)
	if !e.sched.Running(TimerBeep) {
		e.s.beepInterval = 0
		e.escalate(e.s.Config.ExplosionTime())
		e.sched.Start(TimerBeep)
	} else {
		e.escalate(e.s.Config.ExplosionTime())
	}
	e.setLed(feedback.IndicatorArmed, true)
	e.sound(feedback.CueBombPlanted, 150*time.Millisecond)
	e.showTimer(feedback.EventTypeShowPlanted, e.s.Config.ExplosionTime())
}

func (e *Engine) onExplosionTick(now time.Time) {
	if !e.s.Phase.Armed() {
		return
	}
	remaining := e.s.Deadlines.ExplosionFinishAt.Sub(now)
	if remaining > 0 {
		e.escalate(remaining)
		if e.s.Phase == models.PhasePlanted {
			e.showTimer(feedback.EventTypeShowPlanted, remaining)
		}
		return
	}
	e.s.Outcome = models.OutcomeExploded
	e.transition(models.PhaseExploded)
	e.sched.StopAll()
	e.sound(feedback.CueExplosion, 0)
}

func (e *Engine) startDefusing(now time.Time) {
	e.s.Deadlines.DefuseFinishAt = now.Add(e.s.Config.DefuseTime())
	e.s.Buffer.Clear()
	e.transition(models.PhaseDefusing)
	e.sched.Start(TimerDefuse)
	e.setLed(feedback.IndicatorDefusing, true)
	e.sound(feedback.CueDefuseStart, 0)
	e.showTimer(feedback.EventTypeShowDefusing, e.s.Config.DefuseTime())
}

// cancelDefusing returns to Planted. Only the defuse timer stops; the
// explosion countdown keeps its deadline and phase.
func (e *Engine) cancelDefusing(now time.Time) {
	e.sched.Stop(TimerDefuse)
	e.s.Deadlines.DefuseFinishAt = time.Time{}
	e.s.Buffer.Clear()
	e.setLed(feedback.IndicatorDefusing, false)
	e.transition(models.PhasePlanted)
	e.showTimer(feedback.EventTypeShowPlanted, e.s.Deadlines.ExplosionFinishAt.Sub(now))
}

func (e *Engine) onDefuseTick(now time.Time) {
	if e.s.Phase != models.PhaseDefusing {
		return
	}
	remaining := e.s.Deadlines.DefuseFinishAt.Sub(now)
	if remaining > 0 {
		e.showTimer(feedback.EventTypeShowDefusing, remaining)
		return
	}
	if code := e.s.Config.DefuseCode; code != "" && e.s.Buffer.String() != code {
		e.sound(feedback.CueWrongCode, 0)
		e.cancelDefusing(now)
		return
	}
	e.s.Outcome = models.OutcomeDefused
	e.transition(models.PhaseDefused)
	e.sched.StopAll()
	e.sound(feedback.CueDefuseSuccess, 0)
}

func (e *Engine) onBeep(time.Time) {
	if !e.live() {
		return
	}
	e.sound(feedback.CueBeep, 0)
	e.sched.Start(TimerToneOff)
}

func (e *Engine) onToneOff(time.Time) {
	if !e.live() {
		return
	}
	e.sound(feedback.CueToneOff, 0)
}

func (e *Engine) onBlink(time.Time) {
	if !e.s.Phase.Armed() {
		return
	}
	e.setLed(feedback.IndicatorArmed, !e.s.leds[feedback.IndicatorArmed])
}
