package render

import (
	"github.com/lixenwraith/particles/core"
	"github.com/lixenwraith/particles/engine"
)

// Raster bins particles into a W×H display grid
// Row 0 is the top; simulation +Y is up
type Raster struct {
	W, H  int
	Count []int
	Speed []float64 // mean ramp scale per bin
}

// Resize reallocates bins when the display size changes
func (r *Raster) Resize(w, h int) {
	w, h = max(w, 0), max(h, 0)
	if r.W == w && r.H == h {
		return
	}
	r.W, r.H = w, h
	r.Count = make([]int, w*h)
	r.Speed = make([]float64, w*h)
}

// Fill clears the raster and bins every particle by its normalized position
func (r *Raster) Fill(ps []core.Particle, v engine.View, ramp SpeedRamp) {
	clear(r.Count)
	clear(r.Speed)
	if r.W == 0 || r.H == 0 {
		return
	}

	for _, p := range ps {
		col, row := r.Bin(p.Position, v.RenderScale)
		i := row*r.W + col
		r.Count[i]++
		r.Speed[i] += ramp.Scale(p)
	}
	for i, n := range r.Count {
		if n > 1 {
			r.Speed[i] /= float64(n)
		}
	}
}

// Bin maps a position to display coordinates, clamped to the raster
func (r *Raster) Bin(pos core.Vec2, renderScale int32) (col, row int) {
	nx, ny := Normalize(pos, renderScale)
	col = int((nx + 1) / 2 * float64(r.W))
	row = int((1 - ny) / 2 * float64(r.H))
	return min(max(col, 0), r.W-1), min(max(row, 0), r.H-1)
}

// Normalize maps a position into [-1, 1] display space
func Normalize(pos core.Vec2, renderScale int32) (x, y float64) {
	s := float64(renderScale)
	return float64(pos.X) / s, float64(pos.Y) / s
}

// MaxCount returns the densest bin's count
func (r *Raster) MaxCount() int {
	m := 0
	for _, n := range r.Count {
		m = max(m, n)
	}
	return m
}

// ScreenPoint maps a position to pixel coordinates in a w×h viewport, y down
func ScreenPoint(pos core.Vec2, renderScale int32, w, h int) (x, y float32) {
	nx, ny := Normalize(pos, renderScale)
	return float32((nx + 1) / 2 * float64(w)), float32((1 - ny) / 2 * float64(h))
}

// DiameterPixels is one particle diameter in pixels across a viewport w wide, at least 1
func DiameterPixels(v engine.View, w int) float32 {
	d := float32(float64(v.PhysicsScale) / float64(v.RenderScale) / 2 * float64(w))
	return max(d, 1)
}
