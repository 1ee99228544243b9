package engine

import (
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/mcdev12/bombprop/go/internal/game/feedback"
	"github.com/mcdev12/bombprop/go/internal/models"
)

func lastPrompt(t *testing.T, rec *feedback.Recorder) feedback.PromptPayload {
	t.Helper()
	events := rec.Events()
	for i := len(events) - 1; i >= 0; i-- {
		if p, ok := events[i].Payload.(feedback.PromptPayload); ok {
			return p
		}
	}
	t.Fatal("no prompt shown")
	return feedback.PromptPayload{}
}

func TestSabotagePromptOrder(t *testing.T) {
	h := newHarness(t, instantOptions())
	var labels []string
	h.keys("2")
	labels = append(labels, lastPrompt(t, h.rec).Label)
	for _, v := range []string{"1#", "5#", "1#", "10#"} {
		h.keys(v)
		labels = append(labels, lastPrompt(t, h.rec).Label)
	}
	want := []string{"Time Length", "Plant?", "Bomb time?", "Defuse?", "Start?"}
	if diff := cmp.Diff(want, labels); diff != "" {
		t.Fatalf("prompt order mismatch (-want +got):\n%s", diff)
	}
	want2 := models.RoundConfig{GameLengthMinutes: 1, PlantTimeSeconds: 5, ExplosionTimeMinutes: 1, DefuseTimeSeconds: 10}
	if diff := cmp.Diff(want2, h.e.s.Config); diff != "" {
		t.Fatalf("collected config mismatch (-want +got):\n%s", diff)
	}
}

func TestPromptEchoesBuffer(t *testing.T) {
	h := newHarness(t, instantOptions())
	h.keys("2" + "12")
	if got := lastPrompt(t, h.rec).Buffer; got != "12" {
		t.Fatalf("prompt buffer = %q, want 12", got)
	}
}

func TestEmptyAndZeroCommitsAreRejected(t *testing.T) {
	h := newHarness(t, instantOptions())
	h.keys("2")
	h.rec.Reset()

	h.keys("#")
	if got := lastPrompt(t, h.rec).Label; got != "Time Length" {
		t.Fatalf("empty commit advanced to %q", got)
	}
	if !containsCue(h.rec.Sounds(), feedback.CueRejected) {
		t.Fatal("empty commit should play the rejected cue")
	}

	h.keys("0#")
	if got := lastPrompt(t, h.rec); got.Label != "Time Length" || got.Buffer != "" {
		t.Fatalf("zero commit not re-prompted: %+v", got)
	}
	if h.e.s.Config.GameLengthMinutes != 0 {
		t.Fatal("zero value leaked into config")
	}

	h.keys("3#")
	if got := lastPrompt(t, h.rec).Label; got != "Plant?" {
		t.Fatalf("valid commit should advance, prompt is %q", got)
	}
}

func containsCue(cues []feedback.Cue, c feedback.Cue) bool {
	for _, got := range cues {
		if got == c {
			return true
		}
	}
	return false
}

func TestInputBufferCapsDigits(t *testing.T) {
	h := newHarness(t, instantOptions())
	h.keys("2" + "123456")
	if got := lastPrompt(t, h.rec).Buffer; got != "1234" {
		t.Fatalf("buffer = %q, want it capped at 4 digits", got)
	}
}

func TestCancelAtAnyFieldDiscardsConfig(t *testing.T) {
	steps := []string{"1#", "5#", "1#", "10#"}
	for field := 0; field <= len(steps); field++ {
		h := newHarness(t, instantOptions())
		h.keys("2" + strings.Join(steps[:field], "") + "*")
		h.requirePhase(models.PhaseIdle)
		snap := h.e.Snapshot()
		if diff := cmp.Diff(models.RoundConfig{}, snap.Config); diff != "" {
			t.Fatalf("cancel at field %d kept config (-want +got):\n%s", field, diff)
		}
		if snap.Mode != models.GameModeMainMenu {
			t.Fatalf("cancel at field %d left mode %s", field, snap.Mode)
		}
		types := h.rec.Types()
		if types[len(types)-1] != feedback.EventTypeShowMenu {
			t.Fatalf("cancel at field %d did not return to the menu", field)
		}

		// a new round starts from scratch
		h.keys("2" + "3#" + "7#" + "2#" + "20#" + "#")
		h.requirePhase(models.PhasePlaying)
		want := models.RoundConfig{GameLengthMinutes: 3, PlantTimeSeconds: 7, ExplosionTimeMinutes: 2, DefuseTimeSeconds: 20}
		if diff := cmp.Diff(want, h.e.Snapshot().Config); diff != "" {
			t.Fatalf("config after restart mismatch (-want +got):\n%s", diff)
		}
	}
}

func TestCancelAtStartGate(t *testing.T) {
	h := newHarness(t, instantOptions())
	h.keys("1" + "1#" + "10#" + "*")
	h.requirePhase(models.PhaseIdle)
	if len(h.e.Snapshot().RunningTimers) != 0 {
		t.Fatal("timers armed after cancelling the start gate")
	}
}

func TestPreGameCountdownBlocksGameplay(t *testing.T) {
	h := newHarness(t, DefaultOptions())
	h.keys("2" + "1#" + "5#" + "1#" + "10#" + "#")
	t0 := h.clock.Now()
	h.requirePhase(models.PhaseConfiguringSettings)
	if got := h.e.Snapshot().SetupStep; got != "countdown" {
		t.Fatalf("setup step = %q, want countdown", got)
	}

	h.keys("p*")
	h.requirePhase(models.PhaseConfiguringSettings)

	h.runUntil(t0.Add(10*time.Second - pollStep))
	h.requirePhase(models.PhaseConfiguringSettings)
	h.runUntil(t0.Add(10 * time.Second))
	h.requirePhase(models.PhasePlaying)

	var shown []int
	for _, ev := range h.rec.Events() {
		if p, ok := ev.Payload.(feedback.CountdownPayload); ok {
			shown = append(shown, p.SecondsRemaining)
		}
	}
	want := []int{10, 9, 8, 7, 6, 5, 4, 3, 2, 1, 0}
	if diff := cmp.Diff(want, shown); diff != "" {
		t.Fatalf("countdown display mismatch (-want +got):\n%s", diff)
	}
	if got, want := h.e.Snapshot().Deadlines.GameFinishAt, t0.Add(70*time.Second); !got.Equal(want) {
		t.Fatalf("gameFinishAt = %v, want countdown end + game length", got.Sub(t0))
	}
}

func TestDefuseCodeMustMatch(t *testing.T) {
	opts := instantOptions()
	opts.RequireDefuseCode = true
	h := newHarness(t, opts)

	h.keys("1" + "1#" + "10#")
	if got := lastPrompt(t, h.rec).Label; got != "Code?" {
		t.Fatalf("expected code prompt, got %q", got)
	}
	h.keys("42#" + "#")
	t0 := h.clock.Now()
	h.requirePhase(models.PhasePlanted)
	if !h.e.Snapshot().HasDefuseCode || h.e.Snapshot().Config.DefuseCode != "" {
		t.Fatal("snapshot must flag the code without exposing it")
	}

	h.keys("d" + "41")
	h.runUntil(t0.Add(10 * time.Second))
	h.requirePhase(models.PhasePlanted)
	if !containsCue(h.rec.Sounds(), feedback.CueWrongCode) {
		t.Fatal("wrong code should play its cue")
	}

	h.keys("d" + "42")
	h.runUntil(t0.Add(20 * time.Second))
	h.requirePhase(models.PhaseEnded)
	if got := h.e.Snapshot().Outcome; got != models.OutcomeDefused {
		t.Fatalf("outcome = %s, want DEFUSED", got)
	}
}
