package parameter

import "time"

// Audio
const (
	// AudioSampleRate is the speaker sample rate in Hz
	AudioSampleRate = 48000

	// AudioBufferDuration is the speaker buffer length
	AudioBufferDuration = 100 * time.Millisecond

	// ClickDuration is the length of one collision click
	ClickDuration = 4 * time.Millisecond

	// MaxClickRate caps clicks per second regardless of collision count
	MaxClickRate = 60.0

	// ClickRatePerOctave is clicks per second added for each doubling of collisions per tick
	ClickRatePerOctave = 4.0

	// ClickVolume is the linear gain of the click track
	ClickVolume = 0.4

	// FaultSoundDuration is the length of the buzz played when a run aborts
	FaultSoundDuration = 150 * time.Millisecond
	FaultSoundAttack   = 5 * time.Millisecond
	FaultSoundRelease  = 80 * time.Millisecond

	// StepSoundDuration is the blip played on a single step
	StepSoundDuration = 30 * time.Millisecond
	StepSoundRelease  = 20 * time.Millisecond
)
