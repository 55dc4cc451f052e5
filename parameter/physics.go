package parameter

// Spatial Grid
const (
	// CellCapacity is the fixed slot count per grid cell; arrivals beyond it are dropped for the tick
	CellCapacity = 30

	// MaxDomainSize keeps size*size*CellCapacity slots within a reasonable arena (~120MB of uint32)
	MaxDomainSize = 1000
)

// Fixed-point Domain
const (
	// DefaultRange is the width of the domain in simulation units, close to the uint32 span
	// Positions live in [-Range/2, Range/2], which fits int32
	DefaultRange = 4_000_000_000

	// DefaultDomainSize is the grid width (and height) in cells; one cell is one particle diameter
	DefaultDomainSize = 256

	// MaxPhysicsScale keeps squared neighbour distances (< 2 cells per axis) inside int64
	MaxPhysicsScale = 1 << 29

	// DefaultGravityCellsY is vertical gravity in cells per second squared
	DefaultGravityCellsY = -10

	// BorderNudgeDivisor pushes a particle resting exactly on the border inward by PhysicsScale/128
	BorderNudgeDivisor = 128

	// SpeedColorGravityDivisor scales the per-step gravity reference for the speed colour ramp
	SpeedColorGravityDivisor = 128
)

// Collision Response
const (
	// OverlapCorrectNum / OverlapCorrectDen is the share of the overlap corrected per pair per tick (3/4)
	OverlapCorrectNum = 3
	OverlapCorrectDen = 4

	// ClosingDampNum / ClosingDampDen is the share of the normal closing speed removed on contact (1/2)
	// Overlap correction plus damping is capped at the overlap
	ClosingDampNum = 1
	ClosingDampDen = 2
)

// Particle Population
const (
	// DefaultParticleCount is the particle count when no configuration overrides it
	DefaultParticleCount = 20_000

	// DefaultSeed seeds deterministic placement
	DefaultSeed = 1
)
