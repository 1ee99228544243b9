package feedback

import (
	"encoding/json"
	"fmt"
	"time"
)

// EventType names a symbolic feedback event emitted by the game core.
type EventType string

const (
	EventTypeShowMenu        EventType = "ShowMenu"
	EventTypeShowPrompt      EventType = "ShowPrompt"
	EventTypeShowCountdown   EventType = "ShowCountdown"
	EventTypeShowGameRunning EventType = "ShowGameRunning"
	EventTypeShowPlanting    EventType = "ShowPlanting"
	EventTypeShowPlanted     EventType = "ShowPlanted"
	EventTypeShowDefusing    EventType = "ShowDefusing"
	EventTypeShowOutcome     EventType = "ShowOutcome"
	EventTypeShowNotice      EventType = "ShowNotice"
	EventTypePlaySound       EventType = "PlaySound"
	EventTypeSetIndicatorLed EventType = "SetIndicatorLed"
)

// Cue is a symbolic sound id. The audio collaborator maps it to a file.
type Cue string

const (
	CueBoot          Cue = "boot"
	CueKeyPress      Cue = "key-press"
	CueRejected      Cue = "rejected"
	CueBeep          Cue = "beep"
	CueToneOff       Cue = "tone-off"
	CuePlantStart    Cue = "plant-start"
	CueBombPlanted   Cue = "bomb-planted"
	CueDefuseStart   Cue = "defuse-start"
	CueDefuseSuccess Cue = "defuse-success"
	CueWrongCode     Cue = "wrong-code"
	CueExplosion     Cue = "explosion"
	CueBombDefused   Cue = "bomb-defused"
	CueCounterWin    Cue = "counter-win"
	CueTerroristWin  Cue = "terrorist-win"
)

var allCues = map[Cue]bool{
	CueBoot: true, CueKeyPress: true, CueRejected: true, CueBeep: true, CueToneOff: true,
	CuePlantStart: true, CueBombPlanted: true, CueDefuseStart: true, CueDefuseSuccess: true,
	CueWrongCode: true, CueExplosion: true, CueBombDefused: true, CueCounterWin: true,
	CueTerroristWin: true,
}

// KnownCue reports whether c is a cue the game core can emit.
func KnownCue(c Cue) bool { return allCues[c] }

// Indicator names a status LED on the prop.
type Indicator string

const (
	IndicatorArmed    Indicator = "armed"
	IndicatorPlanting Indicator = "planting"
	IndicatorDefusing Indicator = "defusing"
)

// Indicators lists every LED the outcome resolver clears.
var Indicators = []Indicator{IndicatorArmed, IndicatorPlanting, IndicatorDefusing}

// Event is one feedback emission. Payload holds one of the payload types below.
type Event struct {
	ID        string    `json:"id"`
	RoundID   string    `json:"round_id,omitempty"`
	Type      EventType `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Payload   any       `json:"data,omitempty"`
}

// MenuPayload lists the selectable modes.
type MenuPayload struct {
	Entries []string `json:"entries"`
}

// PromptPayload is shown while collecting a setup field.
type PromptPayload struct {
	Label  string `json:"label"`
	Hint   string `json:"hint"`
	Buffer string `json:"buffer"`
}

// CountdownPayload is the pre-game countdown; zero means "GO!".
type CountdownPayload struct {
	SecondsRemaining int `json:"seconds_remaining"`
}

// TimerPayload carries a running clock display.
type TimerPayload struct {
	SecondsRemaining int    `json:"seconds_remaining"`
	Display          string `json:"display"`
}

// OutcomePayload is the terminal headline.
type OutcomePayload struct {
	Outcome  string `json:"outcome"`
	Headline string `json:"headline"`
}

// NoticePayload is informational only and never blocks play.
type NoticePayload struct {
	Message string `json:"message"`
}

// SoundPayload asks the audio collaborator to play a cue, optionally delayed.
type SoundPayload struct {
	Cue   Cue           `json:"cue"`
	After time.Duration `json:"after_ms"`
}

// MarshalJSON writes After in milliseconds.
func (p SoundPayload) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Cue   Cue   `json:"cue"`
		After int64 `json:"after_ms"`
	}{p.Cue, p.After.Milliseconds()})
}

// UnmarshalJSON reads After in milliseconds.
func (p *SoundPayload) UnmarshalJSON(data []byte) error {
	var raw struct {
		Cue   Cue   `json:"cue"`
		After int64 `json:"after_ms"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	p.Cue = raw.Cue
	p.After = time.Duration(raw.After) * time.Millisecond
	return nil
}

// LedPayload switches an indicator LED.
type LedPayload struct {
	Name Indicator `json:"name"`
	On   bool      `json:"on"`
}

// FormatClock renders seconds as mm:ss.
func FormatClock(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%02d:%02d", seconds/60, seconds%60)
}

// Encode marshals an event into its wire envelope.
func Encode(ev Event) ([]byte, error) {
	data, err := json.Marshal(ev)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s event: %w", ev.Type, err)
	}
	return data, nil
}

// Decode parses a wire envelope back into an Event with a typed payload.
func Decode(data []byte) (Event, error) {
	var raw struct {
		ID        string          `json:"id"`
		RoundID   string          `json:"round_id"`
		Type      EventType       `json:"type"`
		Timestamp time.Time       `json:"timestamp"`
		Data      json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return Event{}, fmt.Errorf("failed to unmarshal event envelope: %w", err)
	}
	ev := Event{ID: raw.ID, RoundID: raw.RoundID, Type: raw.Type, Timestamp: raw.Timestamp}
	payload, err := parsePayload(raw.Type, raw.Data)
	if err != nil {
		return Event{}, fmt.Errorf("failed to unmarshal %s payload: %w", raw.Type, err)
	}
	ev.Payload = payload
	return ev, nil
}

func parsePayload(t EventType, data json.RawMessage) (any, error) {
	if len(data) == 0 || string(data) == "null" {
		return nil, nil
	}
	switch t {
	case EventTypeShowMenu:
		var p MenuPayload
		err := json.Unmarshal(data, &p)
		return p, err
	case EventTypeShowPrompt:
		var p PromptPayload
		err := json.Unmarshal(data, &p)
		return p, err
	case EventTypeShowCountdown:
		var p CountdownPayload
		err := json.Unmarshal(data, &p)
		return p, err
	case EventTypeShowGameRunning, EventTypeShowPlanting, EventTypeShowPlanted, EventTypeShowDefusing:
		var p TimerPayload
		err := json.Unmarshal(data, &p)
		return p, err
	case EventTypeShowOutcome:
		var p OutcomePayload
		err := json.Unmarshal(data, &p)
		return p, err
	case EventTypeShowNotice:
		var p NoticePayload
		err := json.Unmarshal(data, &p)
		return p, err
	case EventTypePlaySound:
		var p SoundPayload
		err := json.Unmarshal(data, &p)
		return p, err
	case EventTypeSetIndicatorLed:
		var p LedPayload
		err := json.Unmarshal(data, &p)
		return p, err
	default:
		return nil, nil // Unknown event type
	}
}
