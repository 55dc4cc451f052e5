package config

import (
	"flag"
	"fmt"
	"strings"

	"github.com/lixenwraith/particles/engine"
)

// Overrides binds command-line flags that take precedence over the config file
// Only flags actually given on the command line are applied
type Overrides struct {
	fs *flag.FlagSet

	path      string
	count     int
	placement string
	seed      uint64
	workers   int
	speed     int
	sps       int
	gravityY  float64
	trace     bool
	autostart bool
	debug     bool
}

// BindFlags registers the shared simulation flags on fs
func BindFlags(fs *flag.FlagSet) *Overrides {
	o := &Overrides{fs: fs}
	def := Default()
	placements := make([]string, len(engine.Placements))
	for i, p := range engine.Placements {
		placements[i] = string(p)
	}

	fs.StringVar(&o.path, "config", "", "TOML config file")
	fs.IntVar(&o.count, "particles", def.Particles.Count, "particle count")
	fs.StringVar(&o.placement, "placement", def.Particles.Placement, "initial layout: "+strings.Join(placements, "|"))
	fs.Uint64Var(&o.seed, "seed", def.Particles.Seed, "placement seed")
	fs.IntVar(&o.workers, "workers", def.Scheduler.Workers, "parallel workers, 0 for all logical cores")
	fs.IntVar(&o.speed, "speed", def.Scheduler.Speed, "speed in percent of real time")
	fs.IntVar(&o.sps, "sps", int(def.Scheduler.StepsPerSecond), "physics steps per second")
	fs.Float64Var(&o.gravityY, "gravity", def.Domain.GravityY, "vertical gravity in cells/s²")
	fs.BoolVar(&o.trace, "trace", false, "log per-pass summaries (requires -debug)")
	fs.BoolVar(&o.autostart, "run", def.Scheduler.Autostart, "start ticking immediately")
	fs.BoolVar(&o.debug, "debug", false, "write logs to the log directory")
	return o
}

// Load reads the -config file, if any, and applies set flags over it
func (o *Overrides) Load() (Config, error) {
	cfg, err := Load(o.path)
	if err != nil {
		return Config{}, err
	}
	o.Apply(&cfg)
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("after flags: %w", err)
	}
	return cfg, nil
}

// Apply copies every flag that was set on the command line into cfg
func (o *Overrides) Apply(cfg *Config) {
	o.fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "particles":
			cfg.Particles.Count = o.count
		case "placement":
			cfg.Particles.Placement = o.placement
		case "seed":
			cfg.Particles.Seed = o.seed
		case "workers":
			cfg.Scheduler.Workers = o.workers
		case "speed":
			cfg.Scheduler.Speed = o.speed
		case "sps":
			cfg.Scheduler.StepsPerSecond = int32(o.sps)
		case "gravity":
			cfg.Domain.GravityY = o.gravityY
		case "trace":
			cfg.Scheduler.Trace = o.trace
		case "run":
			cfg.Scheduler.Autostart = o.autostart
		case "debug":
			cfg.Log.Debug = o.debug
		}
	})
}
