// Package config loads simulation settings from TOML
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/lixenwraith/particles/core"
	"github.com/lixenwraith/particles/engine"
	"github.com/lixenwraith/particles/parameter"
)

// ErrInvalidConfig wraps every validation failure
var ErrInvalidConfig = errors.New("invalid config")

// Config is the full file layout; zero sections fall back to Default
type Config struct {
	Particles ParticlesConfig `toml:"particles"`
	Domain    DomainConfig    `toml:"domain"`
	Scheduler SchedulerConfig `toml:"scheduler"`
	Log       LogConfig       `toml:"log"`
}

type ParticlesConfig struct {
	Count     int    `toml:"count"`
	Placement string `toml:"placement"`
	Seed      uint64 `toml:"seed"`
}

type DomainConfig struct {
	Range         int64   `toml:"range"`     // width in simulation units
	Size          int32   `toml:"size"`      // cells per side
	GravityX      float64 `toml:"gravity_x"` // cells/s²
	GravityY      float64 `toml:"gravity_y"` // cells/s²
	NoBorderNudge bool    `toml:"no_border_nudge"`
}

type SchedulerConfig struct {
	StepsPerSecond int32 `toml:"steps_per_second"`
	Speed          int   `toml:"speed"` // percent of real time
	Workers        int   `toml:"workers"`
	Trace          bool  `toml:"trace"`
	Autostart      bool  `toml:"autostart"`
}

type LogConfig struct {
	Debug bool   `toml:"debug"`
	Dir   string `toml:"dir"`
}

// Default returns the built-in configuration
func Default() Config {
	return Config{
		Particles: ParticlesConfig{
			Count:     parameter.DefaultParticleCount,
			Placement: string(engine.PlaceRandom),
			Seed:      parameter.DefaultSeed,
		},
		Domain: DomainConfig{
			Range:    parameter.DefaultRange,
			Size:     parameter.DefaultDomainSize,
			GravityY: parameter.DefaultGravityCellsY,
		},
		Scheduler: SchedulerConfig{
			StepsPerSecond: parameter.DefaultStepsPerSecond,
			Speed:          parameter.DefaultSpeed,
			Workers:        parameter.DefaultWorkers,
		},
		Log: LogConfig{
			Dir: parameter.LogDir,
		},
	}
}

// Load reads path over the defaults; an empty path returns Default
// Unknown keys are rejected
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	return Parse(string(data), cfg)
}

// Parse decodes data over base and validates the result
func Parse(data string, base Config) (Config, error) {
	cfg := base
	md, err := toml.Decode(data, &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return Config{}, fmt.Errorf("%w: unknown keys %s", ErrInvalidConfig, strings.Join(keys, ", "))
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks ranges and that the domain produces valid globals
func (c Config) Validate() error {
	if c.Particles.Count < 0 {
		return fmt.Errorf("%w: particle count %d", ErrInvalidConfig, c.Particles.Count)
	}
	if _, err := engine.ParsePlacement(c.Particles.Placement); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if c.Scheduler.Speed < parameter.MinSpeed || c.Scheduler.Speed > parameter.MaxSpeed {
		return fmt.Errorf("%w: speed %d not in [%d, %d]", ErrInvalidConfig, c.Scheduler.Speed, parameter.MinSpeed, parameter.MaxSpeed)
	}
	if c.Scheduler.Workers < 0 {
		return fmt.Errorf("%w: workers %d", ErrInvalidConfig, c.Scheduler.Workers)
	}
	if _, err := c.Globals(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}

// Globals derives the simulation globals from the domain and scheduler sections
func (c Config) Globals() (engine.Globals, error) {
	g, err := engine.NewGlobals(c.Domain.Range, c.Domain.Size, c.Scheduler.StepsPerSecond, c.Domain.GravityX, c.Domain.GravityY)
	if err != nil {
		return engine.Globals{}, err
	}
	g.NoBorderNudge = c.Domain.NoBorderNudge
	return g, nil
}

// Placement returns the parsed layout
func (c Config) Placement() engine.Placement {
	p, _ := engine.ParsePlacement(c.Particles.Placement)
	return p
}

// Generate places the configured particles inside g
func (c Config) Generate(g engine.Globals) ([]core.Particle, error) {
	return engine.Place(c.Placement(), c.Particles.Count, g, c.Particles.Seed)
}

// Encode writes the configuration as TOML
func (c Config) Encode(w io.Writer) error {
	return toml.NewEncoder(w).Encode(c)
}
