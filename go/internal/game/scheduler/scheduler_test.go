package scheduler

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/jonboulle/clockwork"
)

func TestRepeatingTimerFiresEveryInterval(t *testing.T) {
	clock := clockwork.NewFakeClock()
	s := New(clock)
	count := 0
	s.Register("tick", time.Second, Repeat, func(time.Time) { count++ })
	s.Start("tick")

	for i := 0; i < 5; i++ {
		clock.Advance(500 * time.Millisecond)
		s.Update()
	}
	if count != 2 {
		t.Fatalf("expected 2 fires after 2.5s, got %d", count)
	}
	if !s.Running("tick") {
		t.Fatal("repeating timer should still be running")
	}
}

func TestOnceTimerDisarmsAfterFiring(t *testing.T) {
	clock := clockwork.NewFakeClock()
	s := New(clock)
	count := 0
	s.Register("once", 100*time.Millisecond, Once, func(time.Time) { count++ })
	s.Start("once")

	clock.Advance(150 * time.Millisecond)
	s.Update()
	clock.Advance(150 * time.Millisecond)
	s.Update()

	if count != 1 {
		t.Fatalf("expected 1 fire, got %d", count)
	}
	if s.Running("once") {
		t.Fatal("one-shot timer should be stopped after firing")
	}
}

func TestStartRestartsPhaseButKeepsInterval(t *testing.T) {
	clock := clockwork.NewFakeClock()
	s := New(clock)
	count := 0
	s.Register("tick", time.Second, Repeat, func(time.Time) { count++ })
	s.Start("tick")

	clock.Advance(900 * time.Millisecond)
	s.Start("tick")
	clock.Advance(900 * time.Millisecond)
	s.Update()
	if count != 0 {
		t.Fatalf("restart should push the next fire out, got %d fires", count)
	}
	clock.Advance(100 * time.Millisecond)
	s.Update()
	if count != 1 {
		t.Fatalf("expected fire one interval after restart, got %d", count)
	}
	if got := s.Get("tick").Interval(); got != time.Second {
		t.Fatalf("interval changed by restart: %v", got)
	}
}

func TestStopIsNoopWhenStopped(t *testing.T) {
	clock := clockwork.NewFakeClock()
	s := New(clock)
	s.Register("tick", time.Second, Repeat, func(time.Time) { t.Fatal("stopped timer fired") })
	s.Stop("tick")
	s.Stop("tick")
	s.Stop("missing")
	clock.Advance(5 * time.Second)
	s.Update()
}

func TestSetIntervalKeepsPhase(t *testing.T) {
	clock := clockwork.NewFakeClock()
	s := New(clock)
	var fired []time.Duration
	start := clock.Now()
	s.Register("beep", 3*time.Second, Repeat, func(now time.Time) { fired = append(fired, now.Sub(start)) })
	s.Start("beep")

	clock.Advance(3 * time.Second)
	s.Update() // fires at 3s, period restarts at 3s
	clock.Advance(200 * time.Millisecond)
	s.SetInterval("beep", time.Second)
	clock.Advance(800 * time.Millisecond)
	s.Update() // 4s: one second after the period began

	want := []time.Duration{3 * time.Second, 4 * time.Second}
	if diff := cmp.Diff(want, fired); diff != "" {
		t.Fatalf("fire times mismatch (-want +got):\n%s", diff)
	}
}

func TestSameTickFiresInRegistrationOrder(t *testing.T) {
	clock := clockwork.NewFakeClock()
	s := New(clock)
	var order []string
	for _, id := range []ID{"c", "a", "b"} {
		name := string(id)
		s.Register(id, time.Second, Repeat, func(time.Time) { order = append(order, name) })
	}
	s.Start("b")
	s.Start("a")
	s.Start("c")

	clock.Advance(time.Second)
	s.Update()

	if diff := cmp.Diff([]string{"c", "a", "b"}, order); diff != "" {
		t.Fatalf("order mismatch (-want +got):\n%s", diff)
	}
}

func TestCallbackStoppingLaterTimerPreventsItsFire(t *testing.T) {
	clock := clockwork.NewFakeClock()
	s := New(clock)
	secondFired := false
	s.Register("first", time.Second, Once, func(time.Time) { s.StopAll() })
	s.Register("second", time.Second, Once, func(time.Time) { secondFired = true })
	s.Start("first")
	s.Start("second")

	clock.Advance(time.Second)
	s.Update()

	if secondFired {
		t.Fatal("timer stopped by an earlier callback must not fire")
	}
}

func TestLateUpdateDoesNotBurst(t *testing.T) {
	clock := clockwork.NewFakeClock()
	s := New(clock)
	count := 0
	s.Register("tick", time.Second, Repeat, func(time.Time) { count++ })
	t0 := clock.Now()
	s.Start("tick")

	clock.Advance(10*time.Second + 500*time.Millisecond)
	s.Update()
	s.Update()
	if count != 1 {
		t.Fatalf("expected a single catch-up fire, got %d", count)
	}
	if got, want := s.Get("tick").NextFireAt(), t0.Add(11*time.Second); !got.Equal(want) {
		t.Fatalf("next fire = %v, want %v on the original grid", got.Sub(t0), want.Sub(t0))
	}

	clock.Advance(400 * time.Millisecond)
	s.Update()
	if count != 1 {
		t.Fatalf("fired before the grid point, got %d", count)
	}
	clock.Advance(100 * time.Millisecond)
	s.Update()
	if count != 2 {
		t.Fatalf("expected next fire at the grid point, got %d", count)
	}
}
