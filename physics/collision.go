package physics

import (
	"github.com/lixenwraith/particles/core"
	"github.com/lixenwraith/particles/parameter"
	"github.com/lixenwraith/particles/vmath"
)

// Collides reports whether two centres are closer than one diameter (scale)
// Returns the centre offset p - n and its squared length
func Collides(p, n *core.Particle, scale int64) (dx, dy, distSq int64, hit bool) {
	dx = int64(p.Position.X) - int64(n.Position.X)
	dy = int64(p.Position.Y) - int64(n.Position.Y)
	distSq = vmath.MagnitudeSq(dx, dy)
	return dx, dy, distSq, distSq < scale*scale
}

// PairDisplacement returns the correction for p; n receives the exact negation
//
// The correction acts only along the contact normal and never exceeds the overlap:
//   - b = p - n now, a = p - n at the previous step
//   - the normal is b, or a when the pair crossed centres this step (a and b opposed)
//   - s is b projected on the normal, negative after a crossing; overlap = scale - s
//   - 3/4 of the overlap is removed, plus half of the normal closing speed
//   - the sum is capped at the overlap so the pair ends no further apart than touching
//
// Tangential motion is left alone. Coincident pairs with no history separate along +X for p
func PairDisplacement(p, n *core.Particle, scale int64) (dx, dy int64, hit bool) {
	bx, by, _, hit := Collides(p, n, scale)
	if !hit {
		return 0, 0, false
	}

	ax := int64(p.PrevPosition.X) - int64(n.PrevPosition.X)
	ay := int64(p.PrevPosition.Y) - int64(n.PrevPosition.Y)

	// History may span the whole domain; reduce before squaring
	rax, ray := vmath.Reduce(ax, ay)

	nx, ny := bx, by
	if (bx == 0 && by == 0) || vmath.Dot(rax, ray, bx, by) < 0 {
		nx, ny = rax, ray
	}
	if nx == 0 && ny == 0 {
		nx = 1
	}

	s := vmath.Project(bx, by, nx, ny)
	overlap := scale - s

	corr := overlap * parameter.OverlapCorrectNum / parameter.OverlapCorrectDen
	if closing := vmath.Project(ax, ay, nx, ny) - s; closing > 0 {
		corr += closing * parameter.ClosingDampNum / parameter.ClosingDampDen
	}
	corr = min(corr, overlap)

	dx, dy = vmath.ScaleTo(nx, ny, corr/2)
	return dx, dy, true
}
