package engine

import (
	"errors"
	"fmt"
	"log"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/lixenwraith/particles/core"
	"github.com/lixenwraith/particles/status"
)

// View is the render-side summary of the simulation at a tick boundary
type View struct {
	Step         uint64
	Count        int
	RenderScale  int32
	PhysicsScale int32
	Bounds       core.Bounds
	Gravity      core.Vec2
	GravityStep  core.Vec2
}

// TickStats describes the last completed tick
type TickStats struct {
	Collisions int64
	Overflow   int64
	Duration   time.Duration
}

// Simulation owns the particle store, the grid and the displacement buffer
// A tick holds the write lock end to end; readers copy under the read lock
type Simulation struct {
	mu      sync.RWMutex
	globals Globals
	store   *ParticleStore
	grid    *SpatialGrid
	disp    *Displacement
	pool    *Dispatcher
	step    atomic.Uint64
	last    TickStats

	rollback []core.Particle // positions at the start of the running tick

	pendingMu      sync.Mutex
	pendingGravity *core.Vec2

	trace atomic.Bool

	// Cached metric pointers
	statTicks          *atomic.Int64
	statTickNs         *atomic.Int64
	statCollisions     *atomic.Int64
	statCollisionsTick *atomic.Int64
	statOverflow       *atomic.Int64
	statOverflowTick   *atomic.Int64
	statTrace          *atomic.Bool
}

// NewSimulation validates globals and takes ownership of particles
// reg may be nil, in which case a private registry is used
func NewSimulation(g Globals, particles []core.Particle, pool *Dispatcher, reg *status.Registry) (*Simulation, error) {
	if err := g.Validate(); err != nil {
		return nil, err
	}
	if pool == nil {
		return nil, ErrDispatchUnavailable
	}
	if int64(len(particles)) > math.MaxUint32 {
		return nil, fmt.Errorf("particle count %d exceeds grid index range", len(particles))
	}
	if reg == nil {
		reg = status.NewRegistry()
	}

	s := &Simulation{
		globals: g,
		store:   NewParticleStore(particles),
		grid:    NewSpatialGrid(int(g.DomainSize), g.PhysicsScale),
		disp:    NewDisplacement(len(particles)),
		pool:    pool,

		statTicks:          reg.Ints.Get("engine.ticks"),
		statTickNs:         reg.Ints.Get("engine.tick_ns"),
		statCollisions:     reg.Ints.Get("physics.collisions"),
		statCollisionsTick: reg.Ints.Get("physics.collisions.tick"),
		statOverflow:       reg.Ints.Get("grid.overflow"),
		statOverflowTick:   reg.Ints.Get("grid.overflow.tick"),
		statTrace:          reg.Bools.Get("engine.trace"),
	}
	log.Printf("simulation: %d particles, %d workers, %s", len(particles), pool.Workers(), g)
	return s, nil
}

// Tick runs one full step: Integrate, BuildGrid, ResolveCollisions, ApplyDisplacement
// The step counter advances only when every pass succeeds
func (s *Simulation) Tick() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.applyPending()
	start := time.Now()
	tracing := s.trace.Load()

	// A tick that fails or panics part way leaves the particles as they were before it
	s.rollback = s.store.CopyTo(s.rollback)
	committed := false
	defer func() {
		if !committed {
			s.store.Restore(s.rollback)
		}
	}()

	if err := Integrate(s.pool, s.store, s.globals); err != nil {
		return fmt.Errorf("integrate: %w", err)
	}
	if tracing {
		s.traceParticles("integrate")
	}

	if err := BuildGrid(s.pool, s.store, s.globals, s.grid); err != nil {
		return fmt.Errorf("build grid: %w", err)
	}
	if tracing {
		s.traceGrid()
	}

	if err := ResolveCollisions(s.pool, s.store, s.grid, s.globals, s.disp); err != nil {
		return fmt.Errorf("resolve collisions: %w", err)
	}
	if tracing {
		s.traceDisplacement()
	}

	if err := ApplyDisplacement(s.pool, s.store, s.disp, s.globals); err != nil {
		return fmt.Errorf("apply displacement: %w", err)
	}
	if tracing {
		s.traceParticles("apply")
	}

	committed = true
	elapsed := time.Since(start)
	collisions := s.disp.Collisions()
	overflow := s.grid.Overflow()
	s.last = TickStats{Collisions: collisions, Overflow: overflow, Duration: elapsed}

	step := s.step.Add(1)
	s.statTicks.Store(int64(step))
	s.statTickNs.Store(elapsed.Nanoseconds())
	s.statCollisions.Add(collisions)
	s.statCollisionsTick.Store(collisions)
	s.statOverflow.Add(overflow)
	s.statOverflowTick.Store(overflow)
	return nil
}

// Step returns the number of completed ticks
func (s *Simulation) Step() uint64 {
	return s.step.Load()
}

// Len returns the particle count
func (s *Simulation) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.store.Len()
}

// Globals returns the globals the next tick will use, before any pending change
func (s *Simulation) Globals() Globals {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.globals
}

// SetGravity queues a gravity change for the next tick boundary
func (s *Simulation) SetGravity(gravity core.Vec2) error {
	g := s.Globals()
	g.Gravity = gravity
	if err := g.Validate(); err != nil {
		return err
	}
	s.pendingMu.Lock()
	s.pendingGravity = &gravity
	s.pendingMu.Unlock()
	return nil
}

// SetTrace toggles per-pass logging and returns the previous setting
func (s *Simulation) SetTrace(on bool) bool {
	s.statTrace.Store(on)
	return s.trace.Swap(on)
}

// Tracing reports whether per-pass logging is on
func (s *Simulation) Tracing() bool {
	return s.trace.Load()
}

// Snapshot copies the particles as of the last completed tick into dst
func (s *Simulation) Snapshot(dst []core.Particle) []core.Particle {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.store.CopyTo(dst)
}

// View returns scales, bounds and gravity consistent with the last completed tick
func (s *Simulation) View() View {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.view()
}

// Frame copies the particles and returns the view describing that same tick
func (s *Simulation) Frame(dst []core.Particle) ([]core.Particle, View) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.store.CopyTo(dst), s.view()
}

func (s *Simulation) view() View {
	return View{
		Step:         s.step.Load(),
		Count:        s.store.Len(),
		RenderScale:  s.globals.RenderScale,
		PhysicsScale: s.globals.PhysicsScale,
		Bounds:       s.globals.Bounds(),
		Gravity:      s.globals.Gravity,
		GravityStep:  s.globals.GravityStep(),
	}
}

// LastTick returns statistics of the last completed tick
func (s *Simulation) LastTick() TickStats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.last
}

// Reset replaces the particles and rewinds the step counter to 0
// The count may change; the displacement buffer is resized on the next tick
func (s *Simulation) Reset(particles []core.Particle) error {
	if int64(len(particles)) > math.MaxUint32 {
		return errors.New("particle count exceeds grid index range")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.store.Reset(particles)
	s.step.Store(0)
	s.last = TickStats{}
	s.statTicks.Store(0)
	return nil
}

func (s *Simulation) applyPending() {
	s.pendingMu.Lock()
	pending := s.pendingGravity
	s.pendingGravity = nil
	s.pendingMu.Unlock()

	if pending != nil {
		s.globals.Gravity = *pending
		log.Printf("simulation: gravity set to (%d, %d) at step %d", pending.X, pending.Y, s.step.Load())
	}
}
