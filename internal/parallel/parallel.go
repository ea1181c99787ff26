// Package parallel provides the worker scheduling used by the CPU
// execution engine.
package parallel

import (
	"runtime"
	"sync"
)

// Config controls parallel execution behavior.
type Config struct {
	Enabled    bool // Whether parallel execution is enabled.
	NumWorkers int  // Number of worker goroutines to use.
	MinWork    int  // Minimum items before spawning workers at all.
}

// DefaultConfig returns sensible defaults based on CPU count.
func DefaultConfig() Config {
	n := runtime.NumCPU()
	return Config{
		Enabled:    n > 1,
		NumWorkers: n,
		MinWork:    64,
	}
}

// For executes f(i) for i in [0, n), chunked across workers. Falls back to
// sequential execution if parallelism is disabled or n is too small.
func For(n int, f func(i int), cfg Config) {
	if !cfg.Enabled || n < cfg.MinWork {
		for i := 0; i < n; i++ {
			f(i)
		}
		return
	}

	var wg sync.WaitGroup
	chunkSize := max((n+cfg.NumWorkers-1)/cfg.NumWorkers, cfg.MinWork)

	for start := 0; start < n; start += chunkSize {
		end := min(start+chunkSize, n)
		wg.Add(1)
		go func(s, e int) {
			defer wg.Done()
			for i := s; i < e; i++ {
				f(i)
			}
		}(start, end)
	}
	wg.Wait()
}

// GridStride runs f(worker, total) on total workers: worker g is expected
// to process items g, g+total, g+2*total, ..., mirroring a GPU grid-stride
// loop. Every item in [0, n) is covered exactly once across workers with
// no ordering between items. Falls back to a single worker (f(0, 1)) when
// parallelism is disabled or n is too small.
func GridStride(n int, f func(worker, total int), cfg Config) {
	if !cfg.Enabled || n < cfg.MinWork {
		f(0, 1)
		return
	}

	workers := min(cfg.NumWorkers, n)
	var wg sync.WaitGroup
	for g := 0; g < workers; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			f(g, workers)
		}(g)
	}
	wg.Wait()
}
