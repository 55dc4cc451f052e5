package engine

import (
	"github.com/lixenwraith/particles/core"
	"github.com/lixenwraith/particles/status"
)

// Fixture geometry: 64x64 cells, one cell (and one diameter) is 1<<20 units
const (
	FixtureScale      = 1 << 20
	FixtureDomainSize = 64
	FixtureSPS        = 256
)

// NewFixtureGlobals returns globals for the fixture domain with gravity in cells/s²
func NewFixtureGlobals(gravityY float64) Globals {
	g, err := NewGlobals(FixtureScale*FixtureDomainSize, FixtureDomainSize, FixtureSPS, 0, gravityY)
	if err != nil {
		panic(err)
	}
	return g
}

// NewFixtureSimulation creates a simulation over the fixture domain
// workers == 0 uses every logical CPU; chunks are a single particle wide so small sets still fan out
func NewFixtureSimulation(particles []core.Particle, gravityY float64, workers int) (*Simulation, *status.Registry, error) {
	pool, err := NewDispatcher(workers)
	if err != nil {
		return nil, nil, err
	}
	reg := status.NewRegistry()
	sim, err := NewSimulation(NewFixtureGlobals(gravityY), particles, pool.WithGrain(1), reg)
	if err != nil {
		return nil, nil, err
	}
	return sim, reg, nil
}
