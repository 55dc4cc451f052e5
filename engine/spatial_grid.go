package engine

import (
	"sync/atomic"

	"github.com/lixenwraith/particles/core"
	"github.com/lixenwraith/particles/parameter"
	"github.com/lixenwraith/particles/vmath"
)

// CellCapacity is the maximum number of particle indices a cell holds per tick
const CellCapacity = parameter.CellCapacity

// SpatialGrid is a dense uniform grid rebuilt every tick
// Slots form one flat arena: slots[cell*CellCapacity+k]
// Counts are arrivals, not occupancy; arrivals beyond CellCapacity are dropped and counted
type SpatialGrid struct {
	Size  int
	scale int64
	align int64

	counts []atomic.Uint32
	slots  []uint32

	overflow atomic.Int64 // dropped arrivals in the current build

	builtFrom uint64 // store version the grid reflects, 0 when never built
}

// NewSpatialGrid creates a size×size grid whose cells are scale units wide
func NewSpatialGrid(size int, scale int32) *SpatialGrid {
	return &SpatialGrid{
		Size:   size,
		scale:  int64(scale),
		align:  int64(size / 2),
		counts: make([]atomic.Uint32, size*size),
		slots:  make([]uint32, size*size*CellCapacity),
	}
}

// CellOf returns grid coordinates for a position using floor division
// Coordinates are clamped into the grid so out-of-range positions fold into edge cells
func (g *SpatialGrid) CellOf(pos core.Vec2) (cx, cy int) {
	last := int64(g.Size - 1)
	x := vmath.Clamp(vmath.FloorDiv(int64(pos.X), g.scale)+g.align, 0, last)
	y := vmath.Clamp(vmath.FloorDiv(int64(pos.Y), g.scale)+g.align, 0, last)
	return int(x), int(y)
}

// CellIndex returns the flat cell index for a position
func (g *SpatialGrid) CellIndex(pos core.Vec2) int {
	cx, cy := g.CellOf(pos)
	return cy*g.Size + cx
}

// Insert claims a slot in the particle's cell with one atomic increment
// Safe for concurrent use; returns false when the cell is already full
func (g *SpatialGrid) Insert(particle uint32, pos core.Vec2) bool {
	cell := g.CellIndex(pos)
	slot := g.counts[cell].Add(1) - 1
	if slot >= CellCapacity {
		g.overflow.Add(1)
		return false
	}
	g.slots[cell*CellCapacity+int(slot)] = particle
	return true
}

// Count returns the number of visible particles in a cell
func (g *SpatialGrid) Count(cell int) int {
	n := g.counts[cell].Load()
	if n > CellCapacity {
		return CellCapacity
	}
	return int(n)
}

// Arrivals returns how many particles mapped to a cell, including dropped ones
func (g *SpatialGrid) Arrivals(cell int) int {
	return int(g.counts[cell].Load())
}

// Slots returns a view of the visible particle indices in a cell
// INTERNAL USE ONLY - valid until the next build
func (g *SpatialGrid) Slots(cell int) []uint32 {
	base := cell * CellCapacity
	return g.slots[base : base+g.Count(cell)]
}

// Overflow returns the number of arrivals dropped in the last build
func (g *SpatialGrid) Overflow() int64 {
	return g.overflow.Load()
}

// CellCount returns the total number of cells
func (g *SpatialGrid) CellCount() int {
	return len(g.counts)
}

// BuiltFrom reports whether the grid reflects the given store version
func (g *SpatialGrid) BuiltFrom(version uint64) bool {
	return g.builtFrom != 0 && g.builtFrom == version
}

// clearRange empties cells [lo, hi), zeroing only slots that were written
func (g *SpatialGrid) clearRange(lo, hi int) {
	for cell := lo; cell < hi; cell++ {
		if n := g.Count(cell); n > 0 {
			base := cell * CellCapacity
			clear(g.slots[base : base+n])
			g.counts[cell].Store(0)
		}
	}
}
