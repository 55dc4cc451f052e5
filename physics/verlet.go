package physics

import (
	"github.com/lixenwraith/particles/core"
	"github.com/lixenwraith/particles/vmath"
)

// GravityStep returns the per-step gravity offset: gravity / sps²
// Division truncates toward zero; the exact rounding is part of the replay contract
func GravityStep(gravity core.Vec2, stepsPerSecond int32) core.Vec2 {
	sps2 := int64(stepsPerSecond) * int64(stepsPerSecond)
	return core.Vec2{
		X: int32(int64(gravity.X) / sps2),
		Y: int32(int64(gravity.Y) / sps2),
	}
}

// Verlet advances one particle: pos += (pos - prev) + step, prev = old pos
// The new position is clamped into b, reserving half a diameter at the border
func Verlet(p *core.Particle, step core.Vec2, b core.Bounds) {
	old := p.Position
	x := 2*int64(old.X) - int64(p.PrevPosition.X) + int64(step.X)
	y := 2*int64(old.Y) - int64(p.PrevPosition.Y) + int64(step.Y)

	p.PrevPosition = old
	p.Position = ClampVec(x, y, b)
}

// ClampVec clamps an int64 position into bounds and narrows it to int32
func ClampVec(x, y int64, b core.Bounds) core.Vec2 {
	lo, hi := int64(b.Lo), int64(b.Hi)
	return core.Vec2{
		X: int32(vmath.Clamp(x, lo, hi)),
		Y: int32(vmath.Clamp(y, lo, hi)),
	}
}
