package device

import (
	"context"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/jonboulle/clockwork"

	"github.com/mcdev12/bombprop/go/internal/game/engine"
	"github.com/mcdev12/bombprop/go/internal/game/feedback"
	"github.com/mcdev12/bombprop/go/internal/game/input"
	"github.com/mcdev12/bombprop/go/internal/models"
)

const interval = 50 * time.Millisecond

func startRunner(t *testing.T, notices ...string) (*Runner, *clockwork.FakeClock, *feedback.Recorder) {
	t.Helper()
	clock := clockwork.NewFakeClock()
	rec := feedback.NewRecorder()
	opts := engine.DefaultOptions()
	opts.CountdownDuration = 0
	eng := engine.New(clock, rec, opts)
	r := NewRunner(clock, eng, input.NewNormalizer(clock, 16, 0), interval)
	for _, msg := range notices {
		r.Announce(msg)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- r.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Error("runner did not stop")
		}
	})

	waitCtx, waitCancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer waitCancel()
	if err := clock.BlockUntilContext(waitCtx, 1); err != nil {
		t.Fatalf("runner never created its ticker: %v", err)
	}
	return r, clock, rec
}

// tickUntil advances one poll at a time until cond holds.
func tickUntil(t *testing.T, clock *clockwork.FakeClock, r *Runner, cond func(engine.Snapshot) bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond(r.Snapshot()) {
			return
		}
		clock.Advance(interval)
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("condition never met, last snapshot %+v", r.Snapshot())
}

func TestRunnerBootsAndPollsKeys(t *testing.T) {
	r, clock, rec := startRunner(t)

	if accepted := r.SendKeys("1"); accepted != 1 {
		t.Fatalf("accepted = %d", accepted)
	}
	tickUntil(t, clock, r, func(s engine.Snapshot) bool { return s.Phase == models.PhaseConfiguringSettings })

	types := rec.Types()
	if len(types) < 2 || types[0] != feedback.EventTypePlaySound || types[1] != feedback.EventTypeShowMenu {
		t.Fatalf("expected boot cue then menu first, got %v", types)
	}
}

func TestRunnerButtonsDriveDefuse(t *testing.T) {
	r, clock, _ := startRunner(t)

	r.SendKeys("1" + "1#" + "10#" + "#")
	tickUntil(t, clock, r, func(s engine.Snapshot) bool { return s.Phase == models.PhasePlanted })

	r.SetButtons(input.ButtonState{Defuse: true})
	tickUntil(t, clock, r, func(s engine.Snapshot) bool { return s.Phase == models.PhaseDefusing })

	r.SetButtons(input.ButtonState{})
	tickUntil(t, clock, r, func(s engine.Snapshot) bool { return s.Phase == models.PhasePlanted })
}

func TestRunnerReset(t *testing.T) {
	r, clock, _ := startRunner(t)

	r.SendKeys("2")
	tickUntil(t, clock, r, func(s engine.Snapshot) bool { return s.Phase == models.PhaseConfiguringSettings })

	r.RequestReset()
	tickUntil(t, clock, r, func(s engine.Snapshot) bool {
		return s.Phase == models.PhaseIdle && s.Mode == models.GameModeMainMenu
	})
}

func TestRunnerShowsStartupNoticesAfterMenu(t *testing.T) {
	r, clock, rec := startRunner(t, "SD error")
	tickUntil(t, clock, r, func(s engine.Snapshot) bool { return len(s.Notices) > 0 })

	want := []feedback.EventType{feedback.EventTypePlaySound, feedback.EventTypeShowMenu, feedback.EventTypeShowNotice}
	if diff := cmp.Diff(want, rec.Types()[:3]); diff != "" {
		t.Fatalf("startup events mismatch (-want +got):\n%s", diff)
	}
	if got := r.Snapshot().Notices; len(got) != 1 || got[0] != "SD error" {
		t.Fatalf("snapshot notices = %v", got)
	}
}
