package audio

import (
	"math"
	"time"

	"github.com/gopxl/beep"

	"github.com/lixenwraith/particles/parameter"
	"github.com/lixenwraith/particles/status"
	"github.com/lixenwraith/particles/vmath"
)

// Clicker is an endless streamer emitting short noise bursts at a settable rate
// SetRate may be called from any goroutine; Stream runs on the speaker goroutine
type Clicker struct {
	rate      beep.SampleRate
	perSecond status.AtomicFloat
	clickLen  int
	accum     float64 // fraction of the way to the next click
	remaining int     // samples left in the current click
	rng       *vmath.FastRand
}

// NewClicker creates a silent clicker
func NewClicker(rate beep.SampleRate) *Clicker {
	return &Clicker{
		rate:     rate,
		clickLen: max(rate.N(parameter.ClickDuration), 1),
		rng:      vmath.NewFastRand(uint64(time.Now().UnixNano())),
	}
}

// SetRate sets clicks per second, clamped to [0, MaxClickRate]
func (c *Clicker) SetRate(perSecond float64) {
	c.perSecond.Set(math.Max(0, math.Min(perSecond, parameter.MaxClickRate)))
}

// Rate returns the current clicks per second
func (c *Clicker) Rate() float64 {
	return c.perSecond.Get()
}

func (c *Clicker) Stream(samples [][2]float64) (n int, ok bool) {
	step := c.perSecond.Get() / float64(c.rate)
	for i := range samples {
		c.accum += step
		if c.accum >= 1 {
			c.accum -= math.Floor(c.accum)
			c.remaining = c.clickLen
		}

		var val float64
		if c.remaining > 0 {
			// Linear decay over the click
			val = noiseSample(c.rng) * float64(c.remaining) / float64(c.clickLen)
			c.remaining--
		}
		samples[i][0] = val
		samples[i][1] = val
	}
	return len(samples), true
}

func (c *Clicker) Err() error { return nil }

// ClickRate maps collisions per tick to clicks per second on a log scale
func ClickRate(collisionsPerTick int64) float64 {
	if collisionsPerTick <= 0 {
		return 0
	}
	return math.Min(math.Log2(float64(collisionsPerTick)+1)*parameter.ClickRatePerOctave, parameter.MaxClickRate)
}
