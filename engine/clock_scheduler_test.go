package engine

import (
	"errors"
	"slices"
	"testing"
	"time"

	"github.com/lixenwraith/particles/core"
	"github.com/lixenwraith/particles/parameter"
)

func newTestScheduler(t *testing.T, ps []core.Particle, gravityY float64) *Scheduler {
	t.Helper()
	sim, reg, err := NewFixtureSimulation(ps, gravityY, 4)
	if err != nil {
		t.Fatalf("NewFixtureSimulation: %v", err)
	}
	s, err := NewScheduler(sim, reg)
	if err != nil {
		t.Fatalf("NewScheduler: %v", err)
	}
	t.Cleanup(s.Stop)
	return s
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(time.Millisecond)
	}
}

func TestSchedulerReplayEquivalence(t *testing.T) {
	const k = 64
	g := NewFixtureGlobals(-10)
	ps, err := Place(PlaceRandom, 800, g, 2024)
	if err != nil {
		t.Fatalf("Place: %v", err)
	}

	stepped := newTestScheduler(t, clone(ps), -10)
	for i := 0; i < k; i++ {
		if err := stepped.SingleStep(); err != nil {
			t.Fatalf("SingleStep %d: %v", i, err)
		}
	}

	periodic := newTestScheduler(t, clone(ps), -10)
	if err := periodic.SetSpeed(parameter.MaxSpeed); err != nil {
		t.Fatalf("SetSpeed: %v", err)
	}
	if err := periodic.RunUntil(k); err != nil {
		t.Fatalf("RunUntil: %v", err)
	}
	periodic.Wait()

	if periodic.Running() {
		t.Error("scheduler still running after reaching its target")
	}
	if err := periodic.Err(); err != nil {
		t.Fatalf("run error: %v", err)
	}
	if got := periodic.Simulation().Step(); got != k {
		t.Fatalf("periodic step = %d, want %d", got, k)
	}

	a := stepped.Simulation().Snapshot(nil)
	b := periodic.Simulation().Snapshot(nil)
	if !slices.Equal(a, b) {
		for i := range a {
			if a[i] != b[i] {
				t.Fatalf("particle %d differs: stepped %+v, periodic %+v", i, a[i], b[i])
			}
		}
	}
}

func TestSchedulerStartStop(t *testing.T) {
	ps, _ := Place(PlaceRandom, 200, NewFixtureGlobals(-10), 1)
	s := newTestScheduler(t, ps, -10)

	if s.State() != "Stopped" {
		t.Fatalf("initial state = %q", s.State())
	}
	if err := s.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if !s.Running() || s.State() != "Running" {
		t.Fatalf("state after Start = %q", s.State())
	}
	if err := s.Start(); !errors.Is(err, ErrRunning) {
		t.Errorf("second Start err = %v, want ErrRunning", err)
	}
	if err := s.SingleStep(); !errors.Is(err, ErrRunning) {
		t.Errorf("SingleStep while running err = %v, want ErrRunning", err)
	}
	if err := s.StepTo(1000); !errors.Is(err, ErrRunning) {
		t.Errorf("StepTo while running err = %v, want ErrRunning", err)
	}

	sim := s.Simulation()
	waitFor(t, "ticks", func() bool { return sim.Step() >= 3 })

	s.Stop()
	stopped := sim.Step()
	time.Sleep(20 * time.Millisecond)
	if sim.Step() != stopped {
		t.Errorf("ticks continued after Stop: %d -> %d", stopped, sim.Step())
	}
	s.Stop()

	// Restart continues from the same step
	if err := s.Start(); err != nil {
		t.Fatalf("restart: %v", err)
	}
	waitFor(t, "ticks after restart", func() bool { return sim.Step() > stopped })
	s.Stop()
}

func TestSchedulerStepTo(t *testing.T) {
	ps, _ := Place(PlacePair, 2, NewFixtureGlobals(0), 0)
	s := newTestScheduler(t, ps, 0)
	sim := s.Simulation()
	sim.SetTrace(true)

	if err := s.StepTo(10); err != nil {
		t.Fatalf("StepTo: %v", err)
	}
	if sim.Step() != 10 {
		t.Errorf("Step = %d, want 10", sim.Step())
	}
	if !sim.Tracing() {
		t.Error("tracing not restored after StepTo")
	}
	if err := s.StepTo(10); err != nil {
		t.Errorf("StepTo current step: %v", err)
	}
	if err := s.StepTo(5); !errors.Is(err, ErrStepBehind) {
		t.Errorf("StepTo behind err = %v, want ErrStepBehind", err)
	}
	if err := s.RunUntil(5); !errors.Is(err, ErrStepBehind) {
		t.Errorf("RunUntil behind err = %v, want ErrStepBehind", err)
	}
}

func TestSchedulerSpeed(t *testing.T) {
	s := newTestScheduler(t, nil, 0)

	if got, want := s.Period(), time.Second/FixtureSPS; got != want {
		t.Errorf("Period at 100%% = %v, want %v", got, want)
	}
	for _, bad := range []int{0, -5, parameter.MaxSpeed + 1} {
		if err := s.SetSpeed(bad); !errors.Is(err, ErrInvalidSpeed) {
			t.Errorf("SetSpeed(%d) err = %v, want ErrInvalidSpeed", bad, err)
		}
	}
	if err := s.SetSpeed(50); err != nil {
		t.Fatalf("SetSpeed(50): %v", err)
	}
	if got, want := s.Period(), 2*time.Second/FixtureSPS; got != want {
		t.Errorf("Period at 50%% = %v, want %v", got, want)
	}

	// Re-arming a running loop keeps it ticking
	if err := s.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := s.SetSpeed(parameter.MaxSpeed); err != nil {
		t.Fatalf("SetSpeed while running: %v", err)
	}
	waitFor(t, "ticks at max speed", func() bool { return s.Simulation().Step() >= 10 })
	s.Stop()
	if s.Speed() != parameter.MaxSpeed {
		t.Errorf("Speed = %d", s.Speed())
	}
}

func TestSchedulerFaultStopsRun(t *testing.T) {
	pos := core.Vec2{}
	s := newTestScheduler(t, []core.Particle{{Position: pos, PrevPosition: pos}}, 0)

	// A grid that no longer matches the globals makes every tick panic
	s.Simulation().grid = NewSpatialGrid(4, FixtureScale)

	if err := s.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	s.Wait()

	if s.Running() {
		t.Fatal("scheduler still running after a failed tick")
	}
	var pe *PanicError
	if !errors.As(s.Err(), &pe) {
		t.Fatalf("Err = %v, want *PanicError", s.Err())
	}
	if s.Simulation().Step() != 0 {
		t.Errorf("failed tick advanced the step counter to %d", s.Simulation().Step())
	}

	if err := s.SingleStep(); !errors.As(err, &pe) {
		t.Errorf("SingleStep err = %v, want *PanicError", err)
	}
}
