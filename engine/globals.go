package engine

import (
	"errors"
	"fmt"
	"math"

	"github.com/lixenwraith/particles/core"
	"github.com/lixenwraith/particles/parameter"
	"github.com/lixenwraith/particles/physics"
	"github.com/lixenwraith/particles/vmath"
)

// ErrInvalidGlobals is returned when a configuration could overflow fixed-point arithmetic
var ErrInvalidGlobals = errors.New("invalid globals")

// Globals is the per-tick immutable configuration shared by every pass
// Gravity is in simulation units per second squared; positions use the same units
type Globals struct {
	Gravity        core.Vec2
	Min            int32
	Max            int32
	PhysicsScale   int32 // units per grid cell, equal to one particle diameter
	RenderScale    int32 // units mapping to 1.0 in normalized display space
	StepsPerSecond int32
	DomainSize     int32 // grid width and height in cells

	// NoBorderNudge disables pushing particles off the exact border after displacement
	NoBorderNudge bool
}

// NewGlobals lays out a square domain of rangeUnits centred on 0, split into domainSize cells
// Gravity is given in cells per second squared and converted to units
func NewGlobals(rangeUnits int64, domainSize, stepsPerSecond int32, gravityX, gravityY float64) (Globals, error) {
	if domainSize <= 0 {
		return Globals{}, fmt.Errorf("%w: domain size %d", ErrInvalidGlobals, domainSize)
	}
	if rangeUnits <= 0 || rangeUnits/2 > math.MaxInt32 {
		return Globals{}, fmt.Errorf("%w: range %d does not fit int32 bounds", ErrInvalidGlobals, rangeUnits)
	}

	scale := rangeUnits / int64(domainSize)
	gx := gravityX * float64(scale)
	gy := gravityY * float64(scale)
	if math.Abs(gx) > math.MaxInt32 || math.Abs(gy) > math.MaxInt32 {
		return Globals{}, fmt.Errorf("%w: gravity (%g, %g) cells/s² overflows int32 at scale %d",
			ErrInvalidGlobals, gravityX, gravityY, scale)
	}
	if scale > math.MaxInt32 {
		return Globals{}, fmt.Errorf("%w: physics scale %d", ErrInvalidGlobals, scale)
	}

	g := Globals{
		Gravity:        core.Vec2{X: int32(gx), Y: int32(gy)},
		Min:            int32(-rangeUnits / 2),
		Max:            int32(rangeUnits / 2),
		PhysicsScale:   int32(scale),
		RenderScale:    int32(rangeUnits / 2),
		StepsPerSecond: stepsPerSecond,
		DomainSize:     domainSize,
	}
	if err := g.Validate(); err != nil {
		return Globals{}, err
	}
	return g, nil
}

// Validate rejects configurations where cumulative values could exceed the integer widths
func (g Globals) Validate() error {
	switch {
	case g.StepsPerSecond <= 0:
		return fmt.Errorf("%w: steps per second %d", ErrInvalidGlobals, g.StepsPerSecond)
	case g.DomainSize <= 0 || g.DomainSize > parameter.MaxDomainSize:
		return fmt.Errorf("%w: domain size %d outside [1, %d]", ErrInvalidGlobals, g.DomainSize, parameter.MaxDomainSize)
	case g.PhysicsScale <= 0 || g.PhysicsScale > parameter.MaxPhysicsScale:
		return fmt.Errorf("%w: physics scale %d outside [1, %d]", ErrInvalidGlobals, g.PhysicsScale, parameter.MaxPhysicsScale)
	case g.RenderScale <= 0:
		return fmt.Errorf("%w: render scale %d", ErrInvalidGlobals, g.RenderScale)
	case int64(g.Max)-int64(g.Min) <= int64(g.PhysicsScale):
		return fmt.Errorf("%w: bounds [%d, %d] narrower than one diameter", ErrInvalidGlobals, g.Min, g.Max)
	}

	// Every clampable position must land on a real cell
	b := g.Bounds()
	align := int64(g.DomainSize / 2)
	lo := vmath.FloorDiv(int64(b.Lo), int64(g.PhysicsScale)) + align
	hi := vmath.FloorDiv(int64(b.Hi), int64(g.PhysicsScale)) + align
	if lo < 0 || hi >= int64(g.DomainSize) {
		return fmt.Errorf("%w: grid of %d cells does not cover bounds [%d, %d] (cells %d..%d)",
			ErrInvalidGlobals, g.DomainSize, b.Lo, b.Hi, lo, hi)
	}

	// Gravity may not move a resting particle more than one cell per step
	step := g.GravityStep()
	if vmath.Abs(int64(step.X)) > int64(g.PhysicsScale) || vmath.Abs(int64(step.Y)) > int64(g.PhysicsScale) {
		return fmt.Errorf("%w: gravity step %+v exceeds one cell", ErrInvalidGlobals, step)
	}
	return nil
}

// Bounds returns the clamp range reserving half a diameter at the border
func (g Globals) Bounds() core.Bounds {
	half := g.PhysicsScale / 2
	return core.Bounds{Lo: g.Min + half, Hi: g.Max - half}
}

// GravityStep returns gravity / sps², truncated toward zero
func (g Globals) GravityStep() core.Vec2 {
	return physics.GravityStep(g.Gravity, g.StepsPerSecond)
}

// Nudge returns the inward border push applied after displacement, 0 when disabled
func (g Globals) Nudge() int32 {
	if g.NoBorderNudge {
		return 0
	}
	return g.PhysicsScale / parameter.BorderNudgeDivisor
}

// Align maps signed cell coordinates to non-negative grid coordinates
func (g Globals) Align() int32 {
	return g.DomainSize / 2
}

// String describes the globals in units and in cells, for logs
func (g Globals) String() string {
	ps := float64(g.PhysicsScale)
	return fmt.Sprintf("gravity=(%d,%d) [%.2f,%.2f cells/s²] size=%d scale=%d render=%d bounds=[%d,%d] [%.1f,%.1f cells] sps=%d",
		g.Gravity.X, g.Gravity.Y, float64(g.Gravity.X)/ps, float64(g.Gravity.Y)/ps,
		g.DomainSize, g.PhysicsScale, g.RenderScale,
		g.Min, g.Max, float64(g.Min)/ps, float64(g.Max)/ps,
		g.StepsPerSecond)
}
