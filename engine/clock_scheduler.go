package engine

import (
	"errors"
	"fmt"
	"log"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"github.com/lixenwraith/particles/core"
	"github.com/lixenwraith/particles/engine/fsm"
	"github.com/lixenwraith/particles/parameter"
	"github.com/lixenwraith/particles/status"
)

var (
	// ErrRunning is returned by operations that require a stopped scheduler
	ErrRunning = errors.New("scheduler is running")
	// ErrStepBehind is returned when asked to step to a tick already passed
	ErrStepBehind = errors.New("target step is behind the current step")
	// ErrInvalidSpeed is returned for speeds outside [MinSpeed, MaxSpeed]
	ErrInvalidSpeed = errors.New("speed out of range")
)

const (
	eventStart fsm.EventType = iota + 1
	eventStop
	eventFault
	eventFinish
)

// schedulerGraph is the run-state machine; every way out of Running lands in Stopped
const schedulerGraph = `
initial = "Stopped"

[states.Stopped]
on_enter = ["log", "publish"]
transitions = [{ trigger = "Start", target = "Running" }]

[states.Running]
on_enter = ["log", "publish"]
transitions = [
  { trigger = "Stop", target = "Stopped" },
  { trigger = "Fault", target = "Stopped" },
  { trigger = "Finish", target = "Stopped" },
]
`

// Scheduler drives a Simulation either periodically or one tick at a time
// Ticks never overlap: the periodic loop and the synchronous operations are mutually exclusive
type Scheduler struct {
	sim *Simulation
	sps int64

	mu      sync.Mutex // guards the machine, the run handles and err
	fsm     *fsm.Machine[*Scheduler]
	running fsm.StateID
	err     error

	// Per-run handles, nil while stopped
	stopChan chan struct{}
	rearm    chan struct{}
	done     chan struct{}

	speed atomic.Int32 // percent of real time

	statTPS     *status.AtomicFloat
	statRunning *atomic.Bool
	statSpeed   *atomic.Int64
}

// NewScheduler creates a stopped scheduler at DefaultSpeed
// reg may be nil
func NewScheduler(sim *Simulation, reg *status.Registry) (*Scheduler, error) {
	if reg == nil {
		reg = status.NewRegistry()
	}
	s := &Scheduler{
		sim:         sim,
		sps:         int64(sim.Globals().StepsPerSecond),
		fsm:         fsm.NewMachine[*Scheduler](),
		statTPS:     reg.Floats.Get("scheduler.tps"),
		statRunning: reg.Bools.Get("scheduler.running"),
		statSpeed:   reg.Ints.Get("scheduler.speed"),
	}
	s.speed.Store(parameter.DefaultSpeed)
	s.statSpeed.Store(parameter.DefaultSpeed)

	s.fsm.RegisterEvent("Start", eventStart)
	s.fsm.RegisterEvent("Stop", eventStop)
	s.fsm.RegisterEvent("Fault", eventFault)
	s.fsm.RegisterEvent("Finish", eventFinish)
	s.fsm.RegisterAction("log", func(s *Scheduler, from, to fsm.StateID) {
		if from != fsm.StateNone {
			log.Printf("scheduler: %s -> %s at step %d", s.fsm.Name(from), s.fsm.Name(to), s.sim.Step())
		}
	})
	s.fsm.RegisterAction("publish", func(s *Scheduler, _, to fsm.StateID) {
		s.statRunning.Store(to == s.running)
	})

	if err := s.fsm.LoadConfig(schedulerGraph); err != nil {
		return nil, fmt.Errorf("failed to load scheduler FSM: %w", err)
	}
	s.running, _ = s.fsm.StateID("Running")
	if err := s.fsm.Init(s); err != nil {
		return nil, fmt.Errorf("failed to init scheduler FSM: %w", err)
	}
	return s, nil
}

// Simulation returns the driven simulation
func (s *Scheduler) Simulation() *Simulation {
	return s.sim
}

// Start begins periodic ticking
func (s *Scheduler) Start() error {
	return s.start(0)
}

// RunUntil begins periodic ticking and stops by itself once the step counter reaches target
func (s *Scheduler) RunUntil(target uint64) error {
	if step := s.sim.Step(); target < step {
		return fmt.Errorf("%w: target %d, at %d", ErrStepBehind, target, step)
	} else if target == step {
		return nil
	}
	return s.start(target)
}

func (s *Scheduler) start(stopAt uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.fsm.Is(s.running) {
		return ErrRunning
	}
	s.err = nil
	stop := make(chan struct{})
	rearm := make(chan struct{}, 1)
	done := make(chan struct{})
	s.stopChan, s.rearm, s.done = stop, rearm, done

	s.fsm.Fire(s, eventStart)
	core.Go(func() { s.loop(stop, rearm, done, stopAt) })
	return nil
}

// Stop halts periodic ticking and waits for an in-flight tick to finish
// No tick starts after Stop returns; calling it while stopped is a no-op
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.fsm.Is(s.running) {
		s.mu.Unlock()
		return
	}
	close(s.stopChan)
	done := s.done
	s.stopChan, s.rearm = nil, nil
	s.fsm.Fire(s, eventStop)
	s.mu.Unlock()

	<-done
}

// Wait blocks until the current run, if any, has ended
func (s *Scheduler) Wait() {
	s.mu.Lock()
	done := s.done
	s.mu.Unlock()
	if done != nil {
		<-done
	}
}

// SingleStep executes exactly one tick synchronously
func (s *Scheduler) SingleStep() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.fsm.Is(s.running) {
		return ErrRunning
	}
	if err := s.runTick(); err != nil {
		s.err = err
		log.Printf("scheduler: step %d failed: %v", s.sim.Step()+1, err)
		return err
	}
	return nil
}

// StepTo runs ticks synchronously until the step counter equals target
// Tracing is suppressed for the duration
func (s *Scheduler) StepTo(target uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.fsm.Is(s.running) {
		return ErrRunning
	}
	if step := s.sim.Step(); target < step {
		return fmt.Errorf("%w: target %d, at %d", ErrStepBehind, target, step)
	}

	prev := s.sim.SetTrace(false)
	defer s.sim.SetTrace(prev)

	for s.sim.Step() < target {
		if err := s.runTick(); err != nil {
			s.err = err
			log.Printf("scheduler: step %d failed: %v", s.sim.Step()+1, err)
			return err
		}
	}
	return nil
}

// SetSpeed sets the tick rate as a percentage of StepsPerSecond
// A running loop re-arms its timer with the new period
func (s *Scheduler) SetSpeed(pct int) error {
	if pct < parameter.MinSpeed || pct > parameter.MaxSpeed {
		return fmt.Errorf("%w: %d not in [%d, %d]", ErrInvalidSpeed, pct, parameter.MinSpeed, parameter.MaxSpeed)
	}
	s.speed.Store(int32(pct))
	s.statSpeed.Store(int64(pct))

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.rearm != nil {
		select {
		case s.rearm <- struct{}{}:
		default:
		}
	}
	return nil
}

// Speed returns the current speed percentage
func (s *Scheduler) Speed() int {
	return int(s.speed.Load())
}

// Period returns the wall-clock interval between ticks at the current speed
func (s *Scheduler) Period() time.Duration {
	return time.Second * 100 / time.Duration(s.sps*int64(s.speed.Load()))
}

// Running reports whether the periodic loop is active
func (s *Scheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fsm.Is(s.running)
}

// State returns the name of the current run state
func (s *Scheduler) State() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fsm.Name(s.fsm.Current())
}

// Err returns the error that ended the last run or step, nil if none
func (s *Scheduler) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// loop ticks on drift-corrected deadlines until stopped, finished or failed
func (s *Scheduler) loop(stop, rearm, done chan struct{}, stopAt uint64) {
	defer close(done)

	period := s.Period()
	next := time.Now().Add(period)
	timer := time.NewTimer(period)
	defer timer.Stop()

	sampleStart := time.Now()
	sampleTicks := 0

	for {
		select {
		case <-stop:
			return
		case <-rearm:
			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
			period = s.Period()
			next = time.Now().Add(period)
			timer.Reset(period)
			continue
		case <-timer.C:
		}

		// A stop racing with the timer wins
		select {
		case <-stop:
			return
		default:
		}

		if err := s.runTick(); err != nil {
			s.halt(stop, eventFault, err)
			return
		}

		if sampleTicks++; sampleTicks == parameter.MetricsSampleTicks {
			now := time.Now()
			s.statTPS.Set(float64(sampleTicks) / now.Sub(sampleStart).Seconds())
			sampleStart, sampleTicks = now, 0
		}

		if stopAt != 0 && s.sim.Step() >= stopAt {
			s.halt(stop, eventFinish, nil)
			return
		}

		// Drift correction: keep the cadence, but resync when too far behind
		now := time.Now()
		next = next.Add(period)
		if now.Sub(next) > period*2 {
			next = now.Add(period)
		}
		timer.Reset(max(next.Sub(now), 0))
	}
}

// halt ends a run from inside the loop, unless Stop already ended it
func (s *Scheduler) halt(stop chan struct{}, ev fsm.EventType, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopChan != stop {
		return
	}
	s.err = err
	s.stopChan, s.rearm = nil, nil
	if err != nil {
		log.Printf("scheduler: run aborted at step %d: %v", s.sim.Step(), err)
	}
	s.fsm.Fire(s, ev)
}

// runTick executes one tick, converting a panic into *PanicError
func (s *Scheduler) runTick() (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &PanicError{Value: r, Stack: debug.Stack()}
		}
	}()
	return s.sim.Tick()
}
