package models

import (
	"time"

	"github.com/google/uuid"
)

// GameMode selects the action table and setup prompts for a round.
type GameMode string

const (
	GameModeMainMenu         GameMode = "MAIN_MENU"
	GameModeSearchAndDestroy GameMode = "SEARCH_AND_DESTROY"
	GameModeSabotage         GameMode = "SABOTAGE"
)

// RoundPhase is the current node of the game state machine.
type RoundPhase string

const (
	PhaseIdle                RoundPhase = "IDLE"
	PhaseConfiguringSettings RoundPhase = "CONFIGURING_SETTINGS"
	PhasePlaying             RoundPhase = "PLAYING"
	PhasePlanting            RoundPhase = "PLANTING"
	PhasePlanted             RoundPhase = "PLANTED"
	PhaseDefusing            RoundPhase = "DEFUSING"
	PhaseDefused             RoundPhase = "DEFUSED"
	PhaseExploded            RoundPhase = "EXPLODED"
	PhaseTimeOver            RoundPhase = "TIME_OVER"
	PhaseEnded               RoundPhase = "ENDED"
)

// Terminal reports whether p routes through the outcome resolver.
func (p RoundPhase) Terminal() bool {
	switch p {
	case PhaseDefused, PhaseExploded, PhaseTimeOver:
		return true
	}
	return false
}

// Armed reports whether the explosion countdown is live in p.
func (p RoundPhase) Armed() bool {
	return p == PhasePlanted || p == PhaseDefusing
}

func (p RoundPhase) String() string { return string(p) }

// Outcome is the result recorded when a round reaches a terminal phase.
type Outcome string

const (
	OutcomeNone     Outcome = ""
	OutcomeDefused  Outcome = "DEFUSED"
	OutcomeExploded Outcome = "EXPLODED"
	OutcomeTimeOver Outcome = "TIME_OVER"
)

// RoundConfig holds the parameters collected by the setup prompts.
// A zero duration field means the field has not been populated yet.
type RoundConfig struct {
	GameLengthMinutes    int    `json:"game_length_minutes"`
	PlantTimeSeconds     int    `json:"plant_time_seconds"`
	ExplosionTimeMinutes int    `json:"explosion_time_minutes"`
	DefuseTimeSeconds    int    `json:"defuse_time_seconds"`
	DefuseCode           string `json:"defuse_code,omitempty"`
}

func (c RoundConfig) GameLength() time.Duration {
	return time.Duration(c.GameLengthMinutes) * time.Minute
}

func (c RoundConfig) PlantTime() time.Duration {
	return time.Duration(c.PlantTimeSeconds) * time.Second
}

func (c RoundConfig) ExplosionTime() time.Duration {
	return time.Duration(c.ExplosionTimeMinutes) * time.Minute
}

func (c RoundConfig) DefuseTime() time.Duration {
	return time.Duration(c.DefuseTimeSeconds) * time.Second
}

// Ready reports whether every field the mode requires is populated.
func (c RoundConfig) Ready(mode GameMode, requireCode bool) bool {
	if requireCode && c.DefuseCode == "" {
		return false
	}
	switch mode {
	case GameModeSabotage:
		return c.GameLengthMinutes > 0 && c.PlantTimeSeconds > 0 &&
			c.ExplosionTimeMinutes > 0 && c.DefuseTimeSeconds > 0
	case GameModeSearchAndDestroy:
		return c.ExplosionTimeMinutes > 0 && c.DefuseTimeSeconds > 0
	default:
		return false
	}
}

// Deadlines are absolute clock instants computed when the owning phase is entered.
// A zero value means the deadline is not live.
type Deadlines struct {
	GameFinishAt      time.Time `json:"game_finish_at"`
	PlantFinishAt     time.Time `json:"plant_finish_at"`
	ExplosionFinishAt time.Time `json:"explosion_finish_at"`
	DefuseFinishAt    time.Time `json:"defuse_finish_at"`
}

// Round identifies one play session from mode selection to outcome.
type Round struct {
	ID        uuid.UUID   `json:"id"`
	Mode      GameMode    `json:"mode"`
	Config    RoundConfig `json:"config"`
	StartedAt *time.Time  `json:"started_at,omitempty"`
	EndedAt   *time.Time  `json:"ended_at,omitempty"`
	Outcome   Outcome     `json:"outcome,omitempty"`
}
