package core

// Vec2 is a position or offset in fixed-point simulation units
type Vec2 struct {
	X, Y int32
}

// Particle is the only long-lived simulation state
// Velocity is implicit: Position - PrevPosition per step
type Particle struct {
	Position     Vec2
	PrevPosition Vec2
}

// Velocity returns the implicit per-step velocity
func (p Particle) Velocity() (vx, vy int64) {
	return int64(p.Position.X) - int64(p.PrevPosition.X), int64(p.Position.Y) - int64(p.PrevPosition.Y)
}

// Bounds is the inclusive range a particle centre may occupy on both axes
// Lo = Min + PhysicsScale/2, Hi = Max - PhysicsScale/2
type Bounds struct {
	Lo, Hi int32
}

// Contains reports whether both coordinates of v are inside the bounds
func (b Bounds) Contains(v Vec2) bool {
	return v.X >= b.Lo && v.X <= b.Hi && v.Y >= b.Lo && v.Y <= b.Hi
}
