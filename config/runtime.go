package config

import (
	"fmt"

	"github.com/lixenwraith/particles/engine"
	"github.com/lixenwraith/particles/status"
)

// Runtime is a simulation and its scheduler assembled from a Config
type Runtime struct {
	Config    Config
	Globals   engine.Globals
	Registry  *status.Registry
	Sim       *engine.Simulation
	Scheduler *engine.Scheduler
}

// Build places the particles and wires dispatcher, simulation and scheduler
// The scheduler is left stopped; callers honour Config.Scheduler.Autostart
func Build(cfg Config) (*Runtime, error) {
	g, err := cfg.Globals()
	if err != nil {
		return nil, err
	}
	particles, err := cfg.Generate(g)
	if err != nil {
		return nil, fmt.Errorf("place particles: %w", err)
	}
	pool, err := engine.NewDispatcher(cfg.Scheduler.Workers)
	if err != nil {
		return nil, err
	}

	reg := status.NewRegistry()
	sim, err := engine.NewSimulation(g, particles, pool, reg)
	if err != nil {
		return nil, err
	}
	sim.SetTrace(cfg.Scheduler.Trace)

	sched, err := engine.NewScheduler(sim, reg)
	if err != nil {
		return nil, err
	}
	if err := sched.SetSpeed(cfg.Scheduler.Speed); err != nil {
		return nil, err
	}

	return &Runtime{Config: cfg, Globals: g, Registry: reg, Sim: sim, Scheduler: sched}, nil
}

// Reseed regenerates the configured layout with seed and resets the simulation to step 0
// The scheduler must be stopped
func (r *Runtime) Reseed(seed uint64) error {
	if r.Scheduler.Running() {
		return engine.ErrRunning
	}
	r.Config.Particles.Seed = seed
	particles, err := r.Config.Generate(r.Globals)
	if err != nil {
		return err
	}
	return r.Sim.Reset(particles)
}
