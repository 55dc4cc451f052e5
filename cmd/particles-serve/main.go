package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lixenwraith/particles/config"
	"github.com/lixenwraith/particles/core"
	"github.com/lixenwraith/particles/parameter"
	"github.com/lixenwraith/particles/stream"
)

var (
	addr       = flag.String("addr", ":8080", "listen address")
	interval   = flag.Duration("interval", 2*parameter.FrameUpdateInterval, "frame broadcast interval")
	maxClients = flag.Int("clients", stream.DefaultMaxClients, "maximum concurrent viewers")
)

func main() {
	overrides := config.BindFlags(flag.CommandLine)
	flag.Parse()

	cfg, err := overrides.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(2)
	}
	// The server has no terminal UI, so logs go to stderr unless -debug selects the file
	if cfg.Log.Debug {
		logFile, err := core.SetupLogging(cfg.Log.Dir, true)
		if err != nil {
			fmt.Fprintf(os.Stderr, "logging: %v\n", err)
		} else {
			defer logFile.Close()
		}
	}

	rt, err := config.Build(cfg)
	if err != nil {
		log.Fatalf("setup: %v", err)
	}
	defer rt.Scheduler.Stop()
	if cfg.Scheduler.Autostart {
		if err := rt.Scheduler.Start(); err != nil {
			log.Fatalf("autostart: %v", err)
		}
	}

	srv := stream.NewServer(rt.Scheduler, *maxClients)
	mux := http.NewServeMux()
	mux.Handle("/ws", srv)
	mux.HandleFunc("/metrics", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		for _, line := range rt.Registry.Lines() {
			fmt.Fprintln(w, line)
		}
	})
	httpSrv := &http.Server{Addr: *addr, Handler: mux}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	core.Go(func() { srv.Run(ctx, *interval) })
	core.Go(func() {
		<-ctx.Done()
		shutdownCtx, done := context.WithTimeout(context.Background(), 5*time.Second)
		defer done()
		httpSrv.Shutdown(shutdownCtx)
	})

	log.Printf("serving %d particles on %s/ws", rt.Sim.Len(), *addr)
	if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("listen: %v", err)
	}
}
