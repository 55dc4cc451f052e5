package main

import (
	"flag"
	"fmt"
	"os"
	"runtime"
	"time"

	"github.com/guptarohit/asciigraph"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/lixenwraith/particles/config"
	"github.com/lixenwraith/particles/core"
)

var (
	ticks     = flag.Int("ticks", 1000, "ticks to run")
	plotWidth = flag.Int("width", 72, "plot width in columns")
)

func main() {
	overrides := config.BindFlags(flag.CommandLine)
	flag.Parse()

	cfg, err := overrides.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(2)
	}
	if _, err := core.SetupLogging(cfg.Log.Dir, cfg.Log.Debug); err != nil {
		fmt.Fprintf(os.Stderr, "logging: %v\n", err)
	}

	rt, err := config.Build(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "setup: %v\n", err)
		os.Exit(1)
	}

	printHost()

	collisions := make([]float64, 0, *ticks)
	var overflow int64
	var tickTotal, tickMax time.Duration
	start := time.Now()

	for i := 0; i < *ticks; i++ {
		if err := rt.Scheduler.SingleStep(); err != nil {
			fmt.Fprintf(os.Stderr, "tick %d: %v\n", i+1, err)
			os.Exit(1)
		}
		last := rt.Sim.LastTick()
		collisions = append(collisions, float64(last.Collisions))
		overflow += last.Overflow
		tickTotal += last.Duration
		tickMax = max(tickMax, last.Duration)
	}

	elapsed := time.Since(start)
	n := max(*ticks, 1)

	fmt.Printf("Benchmark Results:\n")
	fmt.Printf("  Particles:    %d (%s)\n", rt.Sim.Len(), cfg.Placement())
	fmt.Printf("  Grid:         %dx%d cells\n", rt.Globals.DomainSize, rt.Globals.DomainSize)
	fmt.Printf("  Workers:      %d\n", cfg.Scheduler.Workers)
	fmt.Printf("  Total Ticks:  %d\n", *ticks)
	fmt.Printf("  Total Time:   %v\n", elapsed)
	fmt.Printf("  Ticks/sec:    %.2f\n", float64(*ticks)/elapsed.Seconds())
	fmt.Printf("  Avg Tick:     %v\n", tickTotal/time.Duration(n))
	fmt.Printf("  Max Tick:     %v\n", tickMax)
	fmt.Printf("  Overflow:     %d dropped insertions\n", overflow)

	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	fmt.Printf("  Total Alloc:  %d bytes\n", m.TotalAlloc)
	fmt.Printf("  Mallocs:      %d\n", m.Mallocs)

	if len(collisions) > 1 {
		fmt.Println()
		fmt.Println(asciigraph.Plot(collisions,
			asciigraph.Height(12),
			asciigraph.Width(*plotWidth),
			asciigraph.Caption("collisions per tick")))
	}
}

func printHost() {
	fmt.Printf("Host:\n")
	if info, err := host.Info(); err == nil {
		fmt.Printf("  OS:           %s %s (%s)\n", info.Platform, info.PlatformVersion, info.KernelArch)
	}
	if infos, err := cpu.Info(); err == nil && len(infos) > 0 {
		fmt.Printf("  CPU:          %s\n", infos[0].ModelName)
	}
	logical, _ := cpu.Counts(true)
	physical, _ := cpu.Counts(false)
	fmt.Printf("  Cores:        %d logical, %d physical\n", logical, physical)
	if vm, err := mem.VirtualMemory(); err == nil {
		fmt.Printf("  Memory:       %.1f GiB\n", float64(vm.Total)/(1<<30))
	}
	fmt.Println()
}
