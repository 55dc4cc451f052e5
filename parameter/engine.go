package parameter

import "time"

// Scheduler & Rendering Timing
const (
	// FrameUpdateInterval is the viewer refresh interval (~60 FPS)
	FrameUpdateInterval = 16 * time.Millisecond

	// DefaultStepsPerSecond is the fixed physics rate; the Verlet step divides gravity by its square
	DefaultStepsPerSecond = 256

	// DefaultSpeed is the scheduler speed percentage (100 = real time)
	DefaultSpeed = 100

	// MinSpeed and MaxSpeed bound SetSpeed; values above 100 fast-forward
	MinSpeed = 1
	MaxSpeed = 1000

	// MetricsSampleTicks is how often the scheduler refreshes the ticks-per-second gauge
	MetricsSampleTicks = 64
)

// Parallel Dispatch
const (
	// DispatchGrain is the minimum number of work items handed to one worker
	DispatchGrain = 1024

	// DefaultWorkers selects logical core count when 0
	DefaultWorkers = 0
)

// Logging
const (
	// LogDir is the default directory for debug logs
	LogDir = "logs"

	// LogFileName is the debug log file inside LogDir
	LogFileName = "particles.log"

	// MaxLogSize triggers timestamped rotation of the previous log (10MB)
	MaxLogSize = 10 * 1024 * 1024

	// TraceParticleLimit caps per-pass particle dumps when tracing
	TraceParticleLimit = 16
)
