package feedback

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/jonboulle/clockwork"
)

type failingSink struct{ calls int }

func (s *failingSink) Name() string { return "broken" }
func (s *failingSink) Publish(context.Context, Event) error {
	s.calls++
	return errors.New("backend offline")
}

func TestFanoutContinuesPastFailingSink(t *testing.T) {
	broken := &failingSink{}
	rec := NewRecorder()
	f := NewFanout(context.Background(), broken, rec)

	f.Dispatch(Event{Type: EventTypeShowMenu})
	f.Dispatch(Event{Type: EventTypePlaySound, Payload: SoundPayload{Cue: CueBoot}})

	if diff := cmp.Diff([]EventType{EventTypeShowMenu, EventTypePlaySound}, rec.Types()); diff != "" {
		t.Fatalf("recorder missed events (-want +got):\n%s", diff)
	}
	if got := f.Failures("broken"); got != 2 {
		t.Fatalf("expected 2 recorded failures, got %d", got)
	}
}

func TestEncodeDecodeKeepsTypedPayload(t *testing.T) {
	ts := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	ev := Event{
		ID:        "ev-1",
		RoundID:   "round-1",
		Type:      EventTypePlaySound,
		Timestamp: ts,
		Payload:   SoundPayload{Cue: CueCounterWin, After: 2500 * time.Millisecond},
	}
	data, err := Encode(ev)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	got, err := Decode(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if diff := cmp.Diff(ev, got); diff != "" {
		t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestFormatClock(t *testing.T) {
	cases := map[int]string{0: "00:00", 59: "00:59", 65: "01:05", 600: "10:00", -3: "00:00"}
	for in, want := range cases {
		if got := FormatClock(in); got != want {
			t.Errorf("FormatClock(%d) = %q, want %q", in, got, want)
		}
	}
}

type fakePublisher struct {
	subjects []string
	err      error
}

func (p *fakePublisher) Publish(subject string, _ []byte) error {
	p.subjects = append(p.subjects, subject)
	return p.err
}

func TestNATSSinkSubjects(t *testing.T) {
	pub := &fakePublisher{}
	sink := NewNATSSink(pub, "bombprop.events")

	if err := sink.Publish(context.Background(), Event{RoundID: "r1", Type: EventTypeShowPlanted}); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if err := sink.Publish(context.Background(), Event{Type: EventTypeShowMenu}); err != nil {
		t.Fatalf("publish: %v", err)
	}
	want := []string{"bombprop.events.r1.ShowPlanted", "bombprop.events.device.ShowMenu"}
	if diff := cmp.Diff(want, pub.subjects); diff != "" {
		t.Fatalf("subjects mismatch (-want +got):\n%s", diff)
	}

	pub.err = errors.New("nats: connection closed")
	if err := sink.Publish(context.Background(), Event{Type: EventTypeShowMenu}); err == nil {
		t.Fatal("expected publish error to surface to the fanout")
	}
}

func TestAudioSinkUnavailableDirectory(t *testing.T) {
	_, err := NewAudioSink(AudioConfig{Dir: filepath.Join(t.TempDir(), "missing"), Player: "sh"}, clockwork.NewFakeClock())
	if !errors.Is(err, ErrAudioUnavailable) {
		t.Fatalf("expected ErrAudioUnavailable, got %v", err)
	}
	_, err = NewAudioSink(AudioConfig{Dir: t.TempDir(), Player: "  "}, clockwork.NewFakeClock())
	if !errors.Is(err, ErrAudioUnavailable) {
		t.Fatalf("expected ErrAudioUnavailable for empty player, got %v", err)
	}
}

func TestAudioSinkPlaysAndDelaysCues(t *testing.T) {
	clock := clockwork.NewFakeClock()
	played := make(chan []string, 4)
	sink := newAudioSink("/sounds", []string{"aplay", "-q"}, DefaultCueFiles(), clock, func(argv []string) error {
		played <- argv
		return nil
	})
	ctx := context.Background()

	if err := sink.Publish(ctx, Event{Type: EventTypePlaySound, Payload: SoundPayload{Cue: CueBombDefused}}); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if err := sink.Publish(ctx, Event{Type: EventTypePlaySound, Payload: SoundPayload{Cue: CueCounterWin, After: 2500 * time.Millisecond}}); err != nil {
		t.Fatalf("publish delayed: %v", err)
	}
	if err := sink.Publish(ctx, Event{Type: EventTypePlaySound, Payload: SoundPayload{Cue: CueToneOff}}); err != nil {
		t.Fatalf("unmapped cue should be silent, got %v", err)
	}
	if err := sink.Publish(ctx, Event{Type: EventTypeShowNotice, Payload: NoticePayload{Message: "SD error"}}); err != nil {
		t.Fatalf("non-sound events are ignored, got %v", err)
	}

	first := <-played
	if diff := cmp.Diff([]string{"aplay", "-q", "/sounds/bombdef-15db.wav"}, first); diff != "" {
		t.Fatalf("argv mismatch (-want +got):\n%s", diff)
	}
	select {
	case argv := <-played:
		t.Fatalf("delayed cue played early: %v", argv)
	default:
	}

	clock.Advance(2500 * time.Millisecond)
	select {
	case argv := <-played:
		if argv[len(argv)-1] != "/sounds/ctwin-15.wav" {
			t.Fatalf("unexpected delayed file %v", argv)
		}
	case <-time.After(time.Second):
		t.Fatal("delayed cue never played")
	}
}

func TestAudioSinkMenuCancelsDelayedCues(t *testing.T) {
	clock := clockwork.NewFakeClock()
	played := make(chan []string, 4)
	sink := newAudioSink("/sounds", []string{"aplay"}, DefaultCueFiles(), clock, func(argv []string) error {
		played <- argv
		return nil
	})
	ctx := context.Background()

	if err := sink.Publish(ctx, Event{Type: EventTypePlaySound, Payload: SoundPayload{Cue: CueCounterWin, After: 2500 * time.Millisecond}}); err != nil {
		t.Fatalf("publish delayed: %v", err)
	}
	if sink.Pending() != 1 {
		t.Fatalf("pending = %d, want 1", sink.Pending())
	}

	// a reset lands on the main menu before the win cue is due
	clock.Advance(time.Second)
	if err := sink.Publish(ctx, Event{Type: EventTypeShowMenu, Payload: MenuPayload{Entries: []string{"1.Sear&Des", "2.Sabotage"}}}); err != nil {
		t.Fatalf("publish menu: %v", err)
	}
	if sink.Pending() != 0 {
		t.Fatalf("pending = %d after menu, want 0", sink.Pending())
	}

	clock.Advance(5 * time.Second)
	select {
	case argv := <-played:
		t.Fatalf("cancelled cue played: %v", argv)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestDefaultCueFilesCoverAudibleCues(t *testing.T) {
	files := DefaultCueFiles()
	for cue := range allCues {
		if cue == CueToneOff {
			continue
		}
		if files[cue] == "" {
			t.Errorf("cue %s has no stock sound file", cue)
		}
	}
	if _, ok := files[CueToneOff]; ok {
		t.Error("tone-off stops the beep and must stay silent")
	}
}
