package physics

import "github.com/lixenwraith/particles/core"

// ApplyDisplacement shifts the position by the accumulated correction and re-clamps
// PrevPosition is untouched: the shift is felt as velocity from the next Verlet step on
// nudge > 0 pushes a particle resting exactly on a border back inside by nudge units
func ApplyDisplacement(p *core.Particle, dx, dy int64, b core.Bounds, nudge int32) {
	pos := ClampVec(int64(p.Position.X)+dx, int64(p.Position.Y)+dy, b)
	if nudge > 0 {
		pos = NudgeBorder(pos, b, nudge)
	}
	p.Position = pos
}

// NudgeBorder moves coordinates lying exactly on a bound inward, keeps columns off the wall
func NudgeBorder(pos core.Vec2, b core.Bounds, nudge int32) core.Vec2 {
	// Degenerate bounds narrower than the nudge leave the position alone
	if b.Hi-b.Lo < 2*nudge {
		return pos
	}
	switch pos.X {
	case b.Hi:
		pos.X -= nudge
	case b.Lo:
		pos.X += nudge
	}
	switch pos.Y {
	case b.Hi:
		pos.Y -= nudge
	case b.Lo:
		pos.Y += nudge
	}
	return pos
}
