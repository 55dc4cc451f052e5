package engine

import (
	"fmt"
	"strings"

	"github.com/lixenwraith/particles/core"
	"github.com/lixenwraith/particles/vmath"
)

// Placement names an initial particle layout
type Placement string

const (
	PlaceRandom   Placement = "random"   // uniform scatter inside bounds, seeded
	PlaceGrid     Placement = "grid"     // touching lattice filled from the bottom-left corner
	PlaceColumns  Placement = "columns"  // touching vertical stacks one diameter apart
	PlacePair     Placement = "pair"     // two particles approaching head-on along X
	PlaceGlancing Placement = "glancing" // two particles approaching with a quarter-diameter Y offset
)

// Placements lists every supported layout
var Placements = []Placement{PlaceRandom, PlaceGrid, PlaceColumns, PlacePair, PlaceGlancing}

// ParsePlacement resolves a layout name, case-insensitive
func ParsePlacement(name string) (Placement, error) {
	p := Placement(strings.ToLower(strings.TrimSpace(name)))
	for _, known := range Placements {
		if p == known {
			return p, nil
		}
	}
	return "", fmt.Errorf("unknown placement %q", name)
}

// Place generates count particles in layout kind, all at rest and inside g.Bounds()
// The two-body fixtures ignore count and always return 2 moving particles
func Place(kind Placement, count int, g Globals, seed uint64) ([]core.Particle, error) {
	if count < 0 {
		return nil, fmt.Errorf("negative particle count %d", count)
	}
	b := g.Bounds()
	scale := int64(g.PhysicsScale)

	switch kind {
	case PlaceRandom:
		rng := vmath.NewFastRand(seed)
		ps := make([]core.Particle, count)
		for i := range ps {
			pos := core.Vec2{
				X: int32(rng.Int64Range(int64(b.Lo), int64(b.Hi))),
				Y: int32(rng.Int64Range(int64(b.Lo), int64(b.Hi))),
			}
			ps[i] = core.Particle{Position: pos, PrevPosition: pos}
		}
		return ps, nil

	case PlaceGrid:
		return lattice(count, b, scale, scale)

	case PlaceColumns:
		return lattice(count, b, 2*scale, scale)

	case PlacePair:
		return approaching(b, scale, 0)

	case PlaceGlancing:
		return approaching(b, scale, scale/4)
	}
	return nil, fmt.Errorf("unknown placement %q", kind)
}

// lattice fills columns spaced dx apart with particles stacked dy apart, bottom-up, left to right
func lattice(count int, b core.Bounds, dx, dy int64) ([]core.Particle, error) {
	span := int64(b.Hi) - int64(b.Lo)
	cols := span/dx + 1
	rows := span/dy + 1
	if int64(count) > cols*rows {
		return nil, fmt.Errorf("%d particles do not fit a %dx%d layout", count, cols, rows)
	}

	ps := make([]core.Particle, count)
	for i := range ps {
		col, row := int64(i)/rows, int64(i)%rows
		pos := core.Vec2{X: int32(int64(b.Lo) + col*dx), Y: int32(int64(b.Lo) + row*dy)}
		ps[i] = core.Particle{Position: pos, PrevPosition: pos}
	}
	return ps, nil
}

// approaching returns two particles two diameters apart closing at 3/4 diameter per step each
func approaching(b core.Bounds, scale, offsetY int64) ([]core.Particle, error) {
	speed := 3 * scale / 4
	ps := []core.Particle{
		{
			Position:     core.Vec2{X: int32(-scale), Y: int32(-offsetY)},
			PrevPosition: core.Vec2{X: int32(-scale - speed), Y: int32(-offsetY)},
		},
		{
			Position:     core.Vec2{X: int32(scale), Y: int32(offsetY)},
			PrevPosition: core.Vec2{X: int32(scale + speed), Y: int32(offsetY)},
		},
	}
	for _, p := range ps {
		if !b.Contains(p.Position) || !b.Contains(p.PrevPosition) {
			return nil, fmt.Errorf("two-body fixture does not fit bounds [%d, %d]", b.Lo, b.Hi)
		}
	}
	return ps, nil
}
