package engine

import (
	"fmt"
	"log"
	"strings"

	"github.com/lixenwraith/particles/parameter"
)

// Trace output goes to the standard logger; callers hold the simulation lock

func (s *Simulation) traceParticles(pass string) {
	ps := s.store.particles
	n := min(len(ps), parameter.TraceParticleLimit)
	scale := float64(s.globals.PhysicsScale)

	var b strings.Builder
	for i := 0; i < n; i++ {
		p := ps[i]
		vx, vy := p.Velocity()
		b.WriteString("\n  ")
		b.WriteString(formatParticle(i, float64(p.Position.X)/scale, float64(p.Position.Y)/scale,
			float64(vx)/scale, float64(vy)/scale))
	}
	log.Printf("trace[%d] %s: %d particles (first %d, cells)%s", s.step.Load()+1, pass, len(ps), n, b.String())
}

func (s *Simulation) traceGrid() {
	var occupied, full, maxArrivals int
	var b strings.Builder
	listed := 0
	for cell := 0; cell < s.grid.CellCount(); cell++ {
		arrivals := s.grid.Arrivals(cell)
		if arrivals == 0 {
			continue
		}
		occupied++
		if arrivals >= CellCapacity {
			full++
		}
		maxArrivals = max(maxArrivals, arrivals)
		if listed < parameter.TraceParticleLimit {
			listed++
			b.WriteString("\n  ")
			b.WriteString(formatCell(cell%s.grid.Size, cell/s.grid.Size, arrivals, s.grid.Slots(cell)))
		}
	}
	log.Printf("trace[%d] grid: %d occupied, %d full, max %d arrivals, %d dropped%s",
		s.step.Load()+1, occupied, full, maxArrivals, s.grid.Overflow(), b.String())
}

func (s *Simulation) traceDisplacement() {
	var moved int
	var b strings.Builder
	for i := 0; i < s.disp.Len(); i++ {
		dx, dy := s.disp.Load(i)
		if dx == 0 && dy == 0 {
			continue
		}
		moved++
		if moved <= parameter.TraceParticleLimit {
			b.WriteString("\n  ")
			b.WriteString(formatDisplacement(i, dx, dy))
		}
	}
	log.Printf("trace[%d] resolve: %d collisions, %d particles displaced%s",
		s.step.Load()+1, s.disp.Collisions(), moved, b.String())
}

func formatParticle(i int, x, y, vx, vy float64) string {
	return fmt.Sprintf("#%d pos=(%.3f, %.3f) vel=(%.4f, %.4f)", i, x, y, vx, vy)
}

func formatCell(cx, cy, arrivals int, slots []uint32) string {
	ids := make([]string, len(slots))
	for i, id := range slots {
		ids[i] = fmt.Sprint(id)
	}
	return fmt.Sprintf("cell(%d,%d) n=%d [%s]", cx, cy, arrivals, strings.Join(ids, " "))
}

func formatDisplacement(i int, dx, dy int64) string {
	return fmt.Sprintf("#%d d=(%d, %d)", i, dx, dy)
}
