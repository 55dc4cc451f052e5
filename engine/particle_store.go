package engine

import "github.com/lixenwraith/particles/core"

// ParticleStore owns the particle array for the lifetime of a simulation
// Passes get direct slice access; the version advances whenever a pass writes positions
// Not safe for concurrent mutation, callers serialize through Simulation
type ParticleStore struct {
	particles []core.Particle
	version   uint64
}

// NewParticleStore takes ownership of particles
func NewParticleStore(particles []core.Particle) *ParticleStore {
	return &ParticleStore{particles: particles, version: 1}
}

// Len returns the fixed particle count
func (s *ParticleStore) Len() int {
	return len(s.particles)
}

// At returns a copy of particle i
func (s *ParticleStore) At(i int) core.Particle {
	return s.particles[i]
}

// Version identifies the current position state
func (s *ParticleStore) Version() uint64 {
	return s.version
}

// Reset replaces all particles, invalidating any grid or displacement built from the old ones
func (s *ParticleStore) Reset(particles []core.Particle) {
	s.particles = particles
	s.version++
}

// Restore overwrites the particles with src, which must have the same length
// The version advances so grid and displacement built since are rejected
func (s *ParticleStore) Restore(src []core.Particle) {
	copy(s.particles, src)
	s.version++
}

// CopyTo copies particles into dst, growing it if needed
func (s *ParticleStore) CopyTo(dst []core.Particle) []core.Particle {
	if cap(dst) < len(s.particles) {
		dst = make([]core.Particle, len(s.particles))
	}
	dst = dst[:len(s.particles)]
	copy(dst, s.particles)
	return dst
}

func (s *ParticleStore) bump() {
	s.version++
}
