package engine

import (
	"time"

	"github.com/mcdev12/bombprop/go/internal/models"
)

// Snapshot is a read-only copy of the session for observers outside the
// poll loop. The defuse code is never included.
type Snapshot struct {
	RoundID            string             `json:"round_id,omitempty"`
	Mode               models.GameMode    `json:"mode"`
	Phase              models.RoundPhase  `json:"phase"`
	Outcome            models.Outcome     `json:"outcome,omitempty"`
	Config             models.RoundConfig `json:"config"`
	HasDefuseCode      bool               `json:"has_defuse_code"`
	Deadlines          models.Deadlines   `json:"deadlines"`
	SetupStep          string             `json:"setup_step,omitempty"`
	Buffer             string             `json:"buffer,omitempty"`
	GameRemaining      time.Duration      `json:"game_remaining"`
	PlantRemaining     time.Duration      `json:"plant_remaining"`
	ExplosionRemaining time.Duration      `json:"explosion_remaining"`
	DefuseRemaining    time.Duration      `json:"defuse_remaining"`
	BeepInterval       time.Duration      `json:"beep_interval"`
	RunningTimers      []string           `json:"running_timers"`
	StartedAt          time.Time          `json:"started_at"`
	EndedAt            time.Time          `json:"ended_at"`
	TakenAt            time.Time          `json:"taken_at"`
	LastRound          *models.Round      `json:"last_round,omitempty"`
	Notices            []string           `json:"notices,omitempty"`
}

// Snapshot copies the current state. Call it from the poll loop.
func (e *Engine) Snapshot() Snapshot {
	now := e.clock.Now()
	s := e.s
	snap := Snapshot{
		RoundID:            e.roundID(),
		Mode:               s.Mode,
		Phase:              s.Phase,
		Outcome:            s.Outcome,
		Config:             s.Config,
		HasDefuseCode:      s.Config.DefuseCode != "",
		Deadlines:          s.Deadlines,
		GameRemaining:      remainingUntil(s.Deadlines.GameFinishAt, now),
		PlantRemaining:     remainingUntil(s.Deadlines.PlantFinishAt, now),
		ExplosionRemaining: remainingUntil(s.Deadlines.ExplosionFinishAt, now),
		DefuseRemaining:    remainingUntil(s.Deadlines.DefuseFinishAt, now),
		BeepInterval:       s.beepInterval,
		StartedAt:          s.StartedAt,
		EndedAt:            s.EndedAt,
		TakenAt:            now,
	}
	snap.Config.DefuseCode = ""
	snap.Notices = append([]string(nil), e.notices...)
	if last, ok := e.LastRound(); ok {
		last.Config.DefuseCode = ""
		snap.LastRound = &last
	}
	if s.Phase == models.PhaseConfiguringSettings {
		snap.SetupStep = s.setup.step.String()
		snap.Buffer = s.Buffer.String()
	}
	for _, id := range timerOrder {
		if e.sched.Running(id) {
			snap.RunningTimers = append(snap.RunningTimers, string(id))
		}
	}
	return snap
}

func remainingUntil(deadline, now time.Time) time.Duration {
	if deadline.IsZero() {
		return 0
	}
	if d := deadline.Sub(now); d > 0 {
		return d
	}
	return 0
}
