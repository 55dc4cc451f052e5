package main

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/lixenwraith/particles/audio"
	"github.com/lixenwraith/particles/config"
	"github.com/lixenwraith/particles/core"
	"github.com/lixenwraith/particles/engine"
	"github.com/lixenwraith/particles/parameter"
	"github.com/lixenwraith/particles/render"
	"github.com/lixenwraith/particles/status"
)

var audioFlag = flag.Bool("audio", false, "play the collision click track")

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

	screen, err := tcell.NewScreen()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create screen: %v\n", err)
		os.Exit(1)
	}
	if err := screen.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize terminal: %v\n", err)
		os.Exit(1)
	}
	// Crash inside any core.Go goroutine restores the terminal first
	core.SetCrashCleanup(screen.Fini)
	defer func() {
		if r := recover(); r != nil {
			core.HandleCrash(r)
		}
	}()
	defer screen.Fini()

	var sound *audio.SoundManager
	if *audioFlag {
		sound = audio.NewSoundManager()
		if err := sound.Initialize(); err != nil {
			log.Printf("audio initialization failed: %v (continuing without audio)", err)
			sound = nil
		} else {
			defer sound.Cleanup()
		}
	}

	v := &viewer{rt: rt, term: render.NewTerminal(screen), sound: sound, seed: cfg.Particles.Seed}
	if cfg.Scheduler.Autostart {
		v.toggle()
	}
	v.run(screen)
	rt.Scheduler.Stop()
}

type viewer struct {
	rt    *config.Runtime
	term  *render.Terminal
	sound *audio.SoundManager
	seed  uint64

	message  string
	muted    bool
	lastErr  error
	tpsGauge *status.AtomicFloat
}

func (v *viewer) run(screen tcell.Screen) {
	v.tpsGauge = v.rt.Registry.Floats.Get("scheduler.tps")

	events := make(chan tcell.Event, 64)
	core.Go(func() {
		for {
			ev := screen.PollEvent()
			if ev == nil {
				close(events)
				return
			}
			events <- ev
		}
	})

	frameTicker := time.NewTicker(parameter.FrameUpdateInterval)
	defer frameTicker.Stop()

	v.draw()
	for {
		select {
		case ev, ok := <-events:
			if !ok {
				return
			}
			switch ev := ev.(type) {
			case *tcell.EventResize:
				screen.Sync()
			case *tcell.EventKey:
				if !v.handleKey(ev) {
					return
				}
			}
			v.draw()

		case <-frameTicker.C:
			v.checkFault()
			if v.sound != nil {
				if v.rt.Scheduler.Running() {
					v.sound.SetCollisions(v.rt.Sim.LastTick().Collisions)
				} else {
					v.sound.SetCollisions(0)
				}
			}
			v.draw()
		}
	}
}

// handleKey returns false on quit
func (v *viewer) handleKey(ev *tcell.EventKey) bool {
	sched := v.rt.Scheduler
	switch ev.Key() {
	case tcell.KeyEscape, tcell.KeyCtrlC:
		return false
	case tcell.KeyRight:
		v.step()
		return true
	case tcell.KeyUp:
		v.adjustSpeed(+10)
		return true
	case tcell.KeyDown:
		v.adjustSpeed(-10)
		return true
	}

	switch ev.Rune() {
	case 'q':
		return false
	case ' ':
		v.toggle()
	case 's', '.':
		v.step()
	case '+', '=':
		v.adjustSpeed(+10)
	case '-':
		v.adjustSpeed(-10)
	case 'r':
		sched.Stop()
		v.seed++
		if err := v.rt.Reseed(v.seed); err != nil {
			v.message = err.Error()
		} else {
			v.message = fmt.Sprintf("reset with seed %d", v.seed)
		}
	case 't':
		on := !v.rt.Sim.Tracing()
		v.rt.Sim.SetTrace(on)
		v.message = fmt.Sprintf("trace %t", on)
	case 'm':
		if v.sound != nil {
			v.muted = !v.muted
			v.sound.SetMuted(v.muted)
			v.message = fmt.Sprintf("muted %t", v.muted)
		}
	}
	return true
}

func (v *viewer) toggle() {
	sched := v.rt.Scheduler
	if sched.Running() {
		sched.Stop()
		v.message = "stopped"
		return
	}
	if err := sched.Start(); err != nil {
		v.message = err.Error()
		return
	}
	v.message = ""
}

func (v *viewer) step() {
	if err := v.rt.Scheduler.SingleStep(); err != nil {
		if errors.Is(err, engine.ErrRunning) {
			v.message = "stop before stepping"
		} else {
			v.message = err.Error()
		}
		return
	}
	if v.sound != nil {
		v.sound.PlayStep()
	}
}

func (v *viewer) adjustSpeed(delta int) {
	sched := v.rt.Scheduler
	pct := min(max(sched.Speed()+delta, parameter.MinSpeed), parameter.MaxSpeed)
	if err := sched.SetSpeed(pct); err != nil {
		v.message = err.Error()
	}
}

// checkFault surfaces a run that ended with an error
func (v *viewer) checkFault() {
	err := v.rt.Scheduler.Err()
	if err == nil || err == v.lastErr {
		return
	}
	v.lastErr = err
	v.message = "fault: " + err.Error()
	log.Printf("viewer: %v", err)
	if v.sound != nil {
		v.sound.PlayFault()
	}
}

func (v *viewer) draw() {
	sched := v.rt.Scheduler
	status := render.StatusLine(sched.State(), v.rt.Sim.View(), sched.Speed(), v.rt.Sim.LastTick(), v.tpsGauge.Get())
	if v.message != "" {
		status += " | " + v.message
	}
	v.term.Draw(v.rt.Sim, status+" | space run  s step  +/- speed  r reset  q quit")
}
