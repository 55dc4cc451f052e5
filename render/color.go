package render

import (
	"github.com/gdamore/tcell/v2"
	colorful "github.com/lucasb-eyer/go-colorful"

	"github.com/lixenwraith/particles/core"
	"github.com/lixenwraith/particles/engine"
	"github.com/lixenwraith/particles/parameter"
)

// Ramp endpoints: blue at rest, white at or above the reference speed
var (
	RestColor = colorful.Color{R: 0, G: 0, B: 1}
	FastColor = colorful.Color{R: 1, G: 1, B: 1}
)

// SpeedRamp maps a particle's implicit velocity to [0, 1]
// The reference speed is |gravity| / 128 in units per step; zero gravity falls back to PhysicsScale / 128
type SpeedRamp struct {
	refSq float64
}

// NewSpeedRamp builds the ramp for a view
func NewSpeedRamp(v engine.View) SpeedRamp {
	gx := float64(v.Gravity.X) / parameter.SpeedColorGravityDivisor
	gy := float64(v.Gravity.Y) / parameter.SpeedColorGravityDivisor
	refSq := gx*gx + gy*gy
	if refSq == 0 {
		s := float64(v.PhysicsScale) / parameter.SpeedColorGravityDivisor
		refSq = max(s*s, 1)
	}
	return SpeedRamp{refSq: refSq}
}

// Scale returns min(|v|² / ref², 1)
func (r SpeedRamp) Scale(p core.Particle) float64 {
	vx, vy := p.Velocity()
	fx, fy := float64(vx), float64(vy)
	return min((fx*fx+fy*fy)/r.refSq, 1)
}

// Color blends RestColor toward FastColor by Scale
func (r SpeedRamp) Color(p core.Particle) colorful.Color {
	return SpeedColor(r.Scale(p))
}

// SpeedColor blends the ramp at t in [0, 1]
func SpeedColor(t float64) colorful.Color {
	return RestColor.BlendRgb(FastColor, min(max(t, 0), 1))
}

// TcellColor converts to a 24-bit terminal colour
func TcellColor(c colorful.Color) tcell.Color {
	r, g, b := c.Clamped().RGB255()
	return tcell.NewRGBColor(int32(r), int32(g), int32(b))
}
