package engine

import "sync/atomic"

// Displacement holds one signed 64-bit accumulator pair per particle
// Integer addition is commutative, so the sum is independent of accumulation order
type Displacement struct {
	xy []atomic.Int64 // 2*i is x, 2*i+1 is y

	collisions atomic.Int64 // pair hits in the last resolve pass

	resolvedFrom uint64 // store version the accumulators were computed from
}

// NewDisplacement creates accumulators for n particles
func NewDisplacement(n int) *Displacement {
	return &Displacement{xy: make([]atomic.Int64, 2*n)}
}

// Len returns the number of particles covered
func (d *Displacement) Len() int {
	return len(d.xy) / 2
}

// Add accumulates (dx, dy) onto particle i
func (d *Displacement) Add(i int, dx, dy int64) {
	if dx != 0 {
		d.xy[2*i].Add(dx)
	}
	if dy != 0 {
		d.xy[2*i+1].Add(dy)
	}
}

// Load returns the accumulated displacement of particle i
func (d *Displacement) Load(i int) (dx, dy int64) {
	return d.xy[2*i].Load(), d.xy[2*i+1].Load()
}

// Collisions returns the pair hits counted in the last resolve pass
func (d *Displacement) Collisions() int64 {
	return d.collisions.Load()
}

// ResolvedFrom reports whether the accumulators were computed from the given store version
func (d *Displacement) ResolvedFrom(version uint64) bool {
	return d.resolvedFrom != 0 && d.resolvedFrom == version
}

func (d *Displacement) resize(n int) {
	if len(d.xy) != 2*n {
		d.xy = make([]atomic.Int64, 2*n)
	}
}

func (d *Displacement) clearRange(lo, hi int) {
	for i := 2 * lo; i < 2*hi; i++ {
		d.xy[i].Store(0)
	}
}
