package main

import (
	"flag"
	"fmt"
	"image/color"
	"log"
	"os"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"

	"github.com/lixenwraith/particles/config"
	"github.com/lixenwraith/particles/core"
	"github.com/lixenwraith/particles/engine"
	"github.com/lixenwraith/particles/parameter"
	"github.com/lixenwraith/particles/render"
)

const (
	screenSize = 800
	// Particles per DrawTriangles batch; 4 vertices each must index with uint16
	maxBatchParticles = 16384
)

var screenFlag = flag.Int("size", screenSize, "window size in pixels")

// viewer implements ebiten.Game over a scheduler-driven simulation
type viewer struct {
	rt   *config.Runtime
	seed uint64
	size int

	buf      []core.Particle
	pixels   *ebiten.Image
	vertices []ebiten.Vertex
	indices  []uint16
	message  string
}

func newViewer(rt *config.Runtime, size int) *viewer {
	v := &viewer{
		rt:       rt,
		seed:     rt.Config.Particles.Seed,
		size:     size,
		pixels:   ebiten.NewImage(1, 1),
		vertices: make([]ebiten.Vertex, maxBatchParticles*4),
		indices:  make([]uint16, maxBatchParticles*6),
	}
	v.pixels.Fill(color.White)
	for i := 0; i < maxBatchParticles; i++ {
		base := uint16(i * 4)
		idx := i * 6
		v.indices[idx+0] = base + 0
		v.indices[idx+1] = base + 1
		v.indices[idx+2] = base + 2
		v.indices[idx+3] = base + 1
		v.indices[idx+4] = base + 2
		v.indices[idx+5] = base + 3
	}
	return v
}

// Update handles input; ticking runs on the scheduler, not the ebiten loop
func (v *viewer) Update() error {
	sched := v.rt.Scheduler
	switch {
	case inpututil.IsKeyJustPressed(ebiten.KeyQ), inpututil.IsKeyJustPressed(ebiten.KeyEscape):
		return ebiten.Termination
	case inpututil.IsKeyJustPressed(ebiten.KeySpace):
		if sched.Running() {
			sched.Stop()
		} else if err := sched.Start(); err != nil {
			v.message = err.Error()
		}
	case inpututil.IsKeyJustPressed(ebiten.KeyS), inpututil.IsKeyJustPressed(ebiten.KeyRight):
		if err := sched.SingleStep(); err != nil {
			v.message = err.Error()
		}
	case inpututil.IsKeyJustPressed(ebiten.KeyEqual), inpututil.IsKeyJustPressed(ebiten.KeyUp):
		sched.SetSpeed(min(sched.Speed()+10, parameter.MaxSpeed))
	case inpututil.IsKeyJustPressed(ebiten.KeyMinus), inpututil.IsKeyJustPressed(ebiten.KeyDown):
		sched.SetSpeed(max(sched.Speed()-10, parameter.MinSpeed))
	case inpututil.IsKeyJustPressed(ebiten.KeyR):
		sched.Stop()
		v.seed++
		if err := v.rt.Reseed(v.seed); err != nil {
			v.message = err.Error()
		}
	}
	if err := sched.Err(); err != nil {
		v.message = "fault: " + err.Error()
	}
	return nil
}

// Draw renders one quad per particle, coloured by speed
func (v *viewer) Draw(screen *ebiten.Image) {
	var view engine.View
	v.buf, view = v.rt.Sim.Frame(v.buf)
	ramp := render.NewSpeedRamp(view)
	half := render.DiameterPixels(view, v.size) / 2

	for start := 0; start < len(v.buf); start += maxBatchParticles {
		end := min(start+maxBatchParticles, len(v.buf))
		n := 0
		for _, p := range v.buf[start:end] {
			x, y := render.ScreenPoint(p.Position, view.RenderScale, v.size, v.size)
			c := ramp.Color(p)
			r, g, b := float32(c.R), float32(c.G), float32(c.B)
			for k, corner := range [4][2]float32{{-1, -1}, {1, -1}, {-1, 1}, {1, 1}} {
				v.vertices[n+k] = ebiten.Vertex{
					DstX:   x + corner[0]*half,
					DstY:   y + corner[1]*half,
					SrcX:   (corner[0] + 1) / 2,
					SrcY:   (corner[1] + 1) / 2,
					ColorR: r,
					ColorG: g,
					ColorB: b,
					ColorA: 1,
				}
			}
			n += 4
		}
		if n > 0 {
			screen.DrawTriangles(v.vertices[:n], v.indices[:n/2*3], v.pixels, &ebiten.DrawTrianglesOptions{})
		}
	}

	sched := v.rt.Scheduler
	last := v.rt.Sim.LastTick()
	ebitenutil.DebugPrint(screen, fmt.Sprintf(
		"%s  step %d  speed %d%%\nparticles %d  hits %d  dropped %d\nFPS %.0f\n[space] run  [s] step  [+/-] speed  [r] reset  [q] quit\n%s",
		sched.State(), view.Step, sched.Speed(), view.Count, last.Collisions, last.Overflow, ebiten.ActualFPS(), v.message))
}

// Layout keeps a square logical screen
func (v *viewer) Layout(_, _ int) (int, int) {
	return v.size, v.size
}

func main() {
	overrides := config.BindFlags(flag.CommandLine)
	flag.Parse()

	cfg, err := overrides.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(2)
	}
	logFile, err := core.SetupLogging(cfg.Log.Dir, cfg.Log.Debug)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logging: %v\n", err)
	}
	if logFile != nil {
		defer logFile.Close()
	}

	rt, err := config.Build(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "setup: %v\n", err)
		os.Exit(1)
	}
	defer rt.Scheduler.Stop()
	if cfg.Scheduler.Autostart {
		if err := rt.Scheduler.Start(); err != nil {
			log.Printf("autostart: %v", err)
		}
	}

	ebiten.SetWindowSize(*screenFlag, *screenFlag)
	ebiten.SetWindowTitle("particles")
	if err := ebiten.RunGame(newViewer(rt, *screenFlag)); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
}
