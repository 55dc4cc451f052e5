package engine

import (
	"errors"
	"sync/atomic"
	"testing"

	"github.com/lixenwraith/particles/core"
	"github.com/lixenwraith/particles/physics"
	"github.com/lixenwraith/particles/vmath"
)

// resolve runs the first three passes and returns the displacement
func resolve(t *testing.T, d *Dispatcher, g Globals, ps []core.Particle) (*ParticleStore, *Displacement) {
	t.Helper()
	store := NewParticleStore(ps)
	grid := NewSpatialGrid(int(g.DomainSize), g.PhysicsScale)
	disp := NewDisplacement(len(ps))
	if err := Integrate(d, store, g); err != nil {
		t.Fatalf("Integrate: %v", err)
	}
	if err := BuildGrid(d, store, g, grid); err != nil {
		t.Fatalf("BuildGrid: %v", err)
	}
	if err := ResolveCollisions(d, store, grid, g, disp); err != nil {
		t.Fatalf("ResolveCollisions: %v", err)
	}
	return store, disp
}

func TestIntegrateKeepsBounds(t *testing.T) {
	g := NewFixtureGlobals(-10)
	b := g.Bounds()
	rng := vmath.NewFastRand(5)

	ps := make([]core.Particle, 2000)
	for i := range ps {
		pos := core.Vec2{
			X: int32(rng.Int64Range(int64(b.Lo), int64(b.Hi))),
			Y: int32(rng.Int64Range(int64(b.Lo), int64(b.Hi))),
		}
		// Velocities up to ten cells per step in any direction
		v := int64(10 * FixtureScale)
		prev := core.Vec2{
			X: int32(int64(pos.X) + rng.Int64Range(-v, v)),
			Y: int32(int64(pos.Y) + rng.Int64Range(-v, v)),
		}
		ps[i] = core.Particle{Position: pos, PrevPosition: prev}
	}
	store := NewParticleStore(ps)
	if err := Integrate(testDispatcher(8), store, g); err != nil {
		t.Fatalf("Integrate: %v", err)
	}
	for i, p := range ps {
		if !b.Contains(p.Position) {
			t.Fatalf("particle %d at %+v outside %+v", i, p.Position, b)
		}
	}
}

func TestApplyKeepsBounds(t *testing.T) {
	g := NewFixtureGlobals(0)
	b := g.Bounds()
	rng := vmath.NewFastRand(11)

	// A crowd jammed into the bottom-left corner produces large outward corrections
	ps := make([]core.Particle, 400)
	for i := range ps {
		pos := core.Vec2{
			X: int32(rng.Int64Range(int64(b.Lo), int64(b.Lo)+4*FixtureScale)),
			Y: int32(rng.Int64Range(int64(b.Lo), int64(b.Lo)+4*FixtureScale)),
		}
		ps[i] = core.Particle{Position: pos, PrevPosition: pos}
	}
	d := testDispatcher(8)
	store, disp := resolve(t, d, g, ps)
	if disp.Collisions() == 0 {
		t.Fatal("expected collisions in a jammed crowd")
	}
	if err := ApplyDisplacement(d, store, disp, g); err != nil {
		t.Fatalf("ApplyDisplacement: %v", err)
	}
	for i, p := range ps {
		if !b.Contains(p.Position) {
			t.Fatalf("particle %d at %+v outside %+v", i, p.Position, b)
		}
	}
}

func TestTouchingPairAntisymmetric(t *testing.T) {
	g := NewFixtureGlobals(0)
	a := core.Vec2{X: 0, Y: 0}
	c := core.Vec2{X: FixtureScale / 2, Y: FixtureScale / 4}
	ps := []core.Particle{{Position: a, PrevPosition: a}, {Position: c, PrevPosition: c}}

	_, disp := resolve(t, testDispatcher(2), g, ps)
	dx0, dy0 := disp.Load(0)
	dx1, dy1 := disp.Load(1)
	if dx0 == 0 && dy0 == 0 {
		t.Fatal("overlapping pair produced no displacement")
	}
	if dx0 != -dx1 || dy0 != -dy1 {
		t.Errorf("displacements (%d, %d) and (%d, %d) are not opposite", dx0, dy0, dx1, dy1)
	}
	if dx0 >= 0 || dy0 >= 0 {
		t.Errorf("particle 0 displaced by (%d, %d), want away from particle 1", dx0, dy0)
	}
	if disp.Collisions() != 1 {
		t.Errorf("Collisions = %d, want 1", disp.Collisions())
	}
}

func TestSeparatedParticlesUntouched(t *testing.T) {
	g := NewFixtureGlobals(0)
	// Lattice spacing is exactly one diameter: touching, never overlapping
	ps, err := Place(PlaceGrid, 1000, g, 0)
	if err != nil {
		t.Fatalf("Place: %v", err)
	}
	_, disp := resolve(t, testDispatcher(8), g, ps)
	for i := range ps {
		if dx, dy := disp.Load(i); dx != 0 || dy != 0 {
			t.Fatalf("particle %d displaced by (%d, %d)", i, dx, dy)
		}
	}
	if disp.Collisions() != 0 {
		t.Errorf("Collisions = %d, want 0", disp.Collisions())
	}
}

func TestAccumulationOrderIndependent(t *testing.T) {
	g := NewFixtureGlobals(0)
	rng := vmath.NewFastRand(3)
	ps := make([]core.Particle, 300)
	for i := range ps {
		pos := core.Vec2{
			X: int32(rng.Int64Range(-3*FixtureScale, 3*FixtureScale)),
			Y: int32(rng.Int64Range(-3*FixtureScale, 3*FixtureScale)),
		}
		prev := core.Vec2{X: pos.X - int32(rng.Int64Range(-1000, 1000)), Y: pos.Y}
		ps[i] = core.Particle{Position: pos, PrevPosition: prev}
	}

	serial := &Dispatcher{workers: 1, grain: len(ps)}
	_, want := resolve(t, serial, g, clone(ps))
	_, got := resolve(t, testDispatcher(16), g, clone(ps))

	// Brute-force reference over every pair
	moved := clone(ps)
	for i := range moved {
		physics.Verlet(&moved[i], g.GravityStep(), g.Bounds())
	}
	ref := make([][2]int64, len(ps))
	for i := range moved {
		for j := i + 1; j < len(moved); j++ {
			dx, dy, hit := physics.PairDisplacement(&moved[i], &moved[j], int64(g.PhysicsScale))
			if hit {
				ref[i][0] += dx
				ref[i][1] += dy
				ref[j][0] -= dx
				ref[j][1] -= dy
			}
		}
	}

	for i := range ps {
		wx, wy := want.Load(i)
		gx, gy := got.Load(i)
		if wx != gx || wy != gy {
			t.Fatalf("particle %d: serial (%d, %d) vs parallel (%d, %d)", i, wx, wy, gx, gy)
		}
		if wx != ref[i][0] || wy != ref[i][1] {
			t.Fatalf("particle %d: grid (%d, %d) vs brute force (%d, %d)", i, wx, wy, ref[i][0], ref[i][1])
		}
	}
	if want.Collisions() != got.Collisions() || want.Collisions() == 0 {
		t.Errorf("collisions serial %d, parallel %d", want.Collisions(), got.Collisions())
	}
}

func TestPassOrderingPanics(t *testing.T) {
	g := NewFixtureGlobals(0)
	d := testDispatcher(2)
	pos := core.Vec2{}

	newState := func() (*ParticleStore, *SpatialGrid, *Displacement) {
		store := NewParticleStore([]core.Particle{{Position: pos, PrevPosition: pos}})
		return store, NewSpatialGrid(int(g.DomainSize), g.PhysicsScale), NewDisplacement(1)
	}

	tests := []struct {
		name string
		run  func()
	}{
		{"resolve before build", func() {
			store, grid, disp := newState()
			_ = ResolveCollisions(d, store, grid, g, disp)
		}},
		{"resolve on stale grid", func() {
			store, grid, disp := newState()
			_ = BuildGrid(d, store, g, grid)
			_ = Integrate(d, store, g)
			_ = ResolveCollisions(d, store, grid, g, disp)
		}},
		{"apply before resolve", func() {
			store, grid, disp := newState()
			_ = BuildGrid(d, store, g, grid)
			_ = ApplyDisplacement(d, store, disp, g)
		}},
		{"apply twice", func() {
			store, grid, disp := newState()
			_ = BuildGrid(d, store, g, grid)
			_ = ResolveCollisions(d, store, grid, g, disp)
			_ = ApplyDisplacement(d, store, disp, g)
			_ = ApplyDisplacement(d, store, disp, g)
		}},
		{"grid of wrong size", func() {
			store, _, _ := newState()
			_ = BuildGrid(d, store, g, NewSpatialGrid(8, g.PhysicsScale))
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			defer func() {
				if recover() == nil {
					t.Error("expected panic")
				}
			}()
			tt.run()
		})
	}
}

func TestDispatcherCoversEveryIndexOnce(t *testing.T) {
	for _, n := range []int{0, 1, 7, 1000, 4097} {
		d := testDispatcher(5)
		hits := make([]int32, n)
		err := d.ForEach(n, func(lo, hi int) {
			for i := lo; i < hi; i++ {
				hits[i]++
			}
		})
		if err != nil {
			t.Fatalf("ForEach(%d): %v", n, err)
		}
		for i, h := range hits {
			if h != 1 {
				t.Fatalf("n=%d: index %d visited %d times", n, i, h)
			}
		}
	}
}

func TestDispatcherPanicBecomesError(t *testing.T) {
	d := testDispatcher(4)
	err := d.ForEach(100, func(lo, hi int) {
		if lo <= 42 && 42 < hi {
			panic("boom")
		}
	})
	var pe *PanicError
	if !errors.As(err, &pe) {
		t.Fatalf("err = %v, want *PanicError", err)
	}
	if pe.Value != "boom" || len(pe.Stack) == 0 {
		t.Errorf("PanicError = %+v", pe)
	}
}

func TestNewDispatcher(t *testing.T) {
	if _, err := NewDispatcher(-1); !errors.Is(err, ErrDispatchUnavailable) {
		t.Errorf("NewDispatcher(-1) err = %v", err)
	}
	d, err := NewDispatcher(0)
	if err != nil {
		t.Fatalf("NewDispatcher(0): %v", err)
	}
	if d.Workers() < 1 {
		t.Errorf("Workers = %d", d.Workers())
	}
	d, _ = NewDispatcher(3)
	if d.Workers() != 3 {
		t.Errorf("Workers = %d, want 3", d.Workers())
	}
}

func TestDispatcherGrain(t *testing.T) {
	chunks := func(d *Dispatcher, n int) int32 {
		var calls atomic.Int32
		if err := d.ForEach(n, func(lo, hi int) { calls.Add(1) }); err != nil {
			t.Fatalf("ForEach: %v", err)
		}
		return calls.Load()
	}

	d, _ := NewDispatcher(1)
	if got := chunks(d.WithGrain(0), 8); got != 4 {
		t.Errorf("grain 0 (clamped to 1): %d chunks, want 4", got)
	}
	if got := chunks(d.WithGrain(8), 8); got != 1 {
		t.Errorf("grain 8: %d chunks, want 1", got)
	}
}

func clone(ps []core.Particle) []core.Particle {
	return append([]core.Particle(nil), ps...)
}
