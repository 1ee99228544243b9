package feedback

import (
	"context"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// LogSink renders feedback events as structured log lines. It stands in for
// the OLED display on development hosts.
type LogSink struct {
	level zerolog.Level
}

func NewLogSink(level zerolog.Level) *LogSink {
	return &LogSink{level: level}
}

func (s *LogSink) Name() string { return "log" }

func (s *LogSink) Publish(_ context.Context, ev Event) error {
	e := log.WithLevel(s.level).
		Str("event_type", string(ev.Type)).
		Str("round_id", ev.RoundID)

	switch p := ev.Payload.(type) {
	case PromptPayload:
		e = e.Str("label", p.Label).Str("buffer", p.Buffer)
	case CountdownPayload:
		e = e.Int("seconds", p.SecondsRemaining)
	case TimerPayload:
		e = e.Str("display", p.Display)
	case OutcomePayload:
		e = e.Str("outcome", p.Outcome).Str("headline", p.Headline)
	case NoticePayload:
		e = e.Str("notice", p.Message)
	case SoundPayload:
		e = e.Str("cue", string(p.Cue)).Dur("after", p.After)
	case LedPayload:
		e = e.Str("led", string(p.Name)).Bool("on", p.On)
	case MenuPayload:
		e = e.Strs("entries", p.Entries)
	}
	e.Msg("feedback")
	return nil
}
