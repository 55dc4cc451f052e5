package engine

import (
	"fmt"

	"github.com/lixenwraith/particles/physics"
)

// Each pass is a free function over the state it reads and writes
// Ordering is Integrate -> BuildGrid -> ResolveCollisions -> ApplyDisplacement
// Grid and displacement record the store version they were derived from;
// running a pass against stale input panics

// Integrate advances every particle one Verlet step under gravity and clamps to bounds
func Integrate(d *Dispatcher, store *ParticleStore, g Globals) error {
	step := g.GravityStep()
	bounds := g.Bounds()
	ps := store.particles

	err := d.ForEach(len(ps), func(lo, hi int) {
		for i := lo; i < hi; i++ {
			physics.Verlet(&ps[i], step, bounds)
		}
	})
	store.bump()
	return err
}

// BuildGrid clears the grid and re-inserts every particle by its current position
// Arrivals past a cell's capacity are dropped and counted in grid.Overflow
func BuildGrid(d *Dispatcher, store *ParticleStore, g Globals, grid *SpatialGrid) error {
	if grid.Size != int(g.DomainSize) || grid.scale != int64(g.PhysicsScale) {
		panic(fmt.Sprintf("engine: grid %dx%d@%d does not match globals %dx%d@%d",
			grid.Size, grid.Size, grid.scale, g.DomainSize, g.DomainSize, g.PhysicsScale))
	}

	grid.builtFrom = 0
	if err := d.ForEach(grid.CellCount(), grid.clearRange); err != nil {
		return err
	}
	grid.overflow.Store(0)

	ps := store.particles
	err := d.ForEach(len(ps), func(lo, hi int) {
		for i := lo; i < hi; i++ {
			grid.Insert(uint32(i), ps[i].Position)
		}
	})
	if err != nil {
		return err
	}
	grid.builtFrom = store.Version()
	return nil
}

// ResolveCollisions tests each particle against higher-indexed particles in its 3x3 neighbourhood
// Each overlapping pair is handled once; +d goes to the lower index and -d to the higher
func ResolveCollisions(d *Dispatcher, store *ParticleStore, grid *SpatialGrid, g Globals, disp *Displacement) error {
	if !grid.BuiltFrom(store.Version()) {
		panic(fmt.Sprintf("engine: resolve on grid built from version %d, store is at %d", grid.builtFrom, store.Version()))
	}

	ps := store.particles
	disp.resolvedFrom = 0
	disp.resize(len(ps))
	if err := d.ForEach(len(ps), disp.clearRange); err != nil {
		return err
	}
	disp.collisions.Store(0)

	scale := int64(g.PhysicsScale)
	size := grid.Size
	err := d.ForEach(len(ps), func(lo, hi int) {
		var hits int64
		for i := lo; i < hi; i++ {
			p := &ps[i]
			cx, cy := grid.CellOf(p.Position)
			for y := max(cy-1, 0); y <= min(cy+1, size-1); y++ {
				for x := max(cx-1, 0); x <= min(cx+1, size-1); x++ {
					for _, j := range grid.Slots(y*size + x) {
						if int(j) <= i {
							continue
						}
						dx, dy, hit := physics.PairDisplacement(p, &ps[j], scale)
						if !hit {
							continue
						}
						disp.Add(i, dx, dy)
						disp.Add(int(j), -dx, -dy)
						hits++
					}
				}
			}
		}
		disp.collisions.Add(hits)
	})
	if err != nil {
		return err
	}
	disp.resolvedFrom = store.Version()
	return nil
}

// ApplyDisplacement adds each accumulated displacement to its particle, clamps, and nudges off the border
// PrevPosition is left alone, so the correction feeds into the next step's velocity
func ApplyDisplacement(d *Dispatcher, store *ParticleStore, disp *Displacement, g Globals) error {
	if !disp.ResolvedFrom(store.Version()) {
		panic(fmt.Sprintf("engine: apply on displacement resolved from version %d, store is at %d", disp.resolvedFrom, store.Version()))
	}

	bounds := g.Bounds()
	nudge := g.Nudge()
	ps := store.particles

	err := d.ForEach(len(ps), func(lo, hi int) {
		for i := lo; i < hi; i++ {
			dx, dy := disp.Load(i)
			physics.ApplyDisplacement(&ps[i], dx, dy, bounds, nudge)
		}
	})
	store.bump()
	disp.resolvedFrom = 0
	return err
}
