package engine

import (
	"errors"
	"fmt"
	"runtime/debug"

	"github.com/shirou/gopsutil/v3/cpu"
	"golang.org/x/sync/errgroup"

	"github.com/lixenwraith/particles/parameter"
)

// ErrDispatchUnavailable is returned when no parallel worker pool can be set up
var ErrDispatchUnavailable = errors.New("parallel dispatch unavailable")

// PanicError carries a panic recovered from a pass worker
type PanicError struct {
	Value any
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("pass worker panicked: %v", e.Value)
}

// Dispatcher runs data-parallel passes over index ranges
// ForEach returns only after every invocation has finished, which is the inter-pass barrier
type Dispatcher struct {
	workers int
	grain   int
}

// NewDispatcher sizes the pool; workers == 0 uses the logical CPU count
func NewDispatcher(workers int) (*Dispatcher, error) {
	if workers < 0 {
		return nil, fmt.Errorf("%w: negative worker count %d", ErrDispatchUnavailable, workers)
	}
	if workers == 0 {
		n, err := cpu.Counts(true)
		if err != nil {
			return nil, fmt.Errorf("%w: cpu detection: %v", ErrDispatchUnavailable, err)
		}
		if n < 1 {
			return nil, fmt.Errorf("%w: %d logical cpus reported", ErrDispatchUnavailable, n)
		}
		workers = n
	}
	return &Dispatcher{workers: workers, grain: parameter.DispatchGrain}, nil
}

// WithGrain sets the minimum chunk width, clamped to at least one index
func (d *Dispatcher) WithGrain(grain int) *Dispatcher {
	d.grain = max(grain, 1)
	return d
}

// Workers returns the maximum number of concurrently running chunks
func (d *Dispatcher) Workers() int {
	return d.workers
}

// ForEach splits [0, n) into contiguous chunks and calls fn(lo, hi) for each in parallel
// A panicking chunk is reported as *PanicError after the remaining chunks finish
func (d *Dispatcher) ForEach(n int, fn func(lo, hi int)) error {
	if n <= 0 {
		return nil
	}

	// Four chunks per worker smooths out uneven cell density
	chunk := (n + d.workers*4 - 1) / (d.workers * 4)
	if chunk < d.grain {
		chunk = d.grain
	}

	var g errgroup.Group
	g.SetLimit(d.workers)
	for lo := 0; lo < n; lo += chunk {
		hi := min(lo+chunk, n)
		g.Go(func() (err error) {
			defer func() {
				if r := recover(); r != nil {
					err = &PanicError{Value: r, Stack: debug.Stack()}
				}
			}()
			fn(lo, hi)
			return nil
		})
	}
	return g.Wait()
}
