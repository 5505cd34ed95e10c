package workers

import (
	"os"
	"runtime"
	"strconv"
	"sync"
)

// EnvOverride names the environment variable that pins the worker count.
const EnvOverride = "SEARCH_WORKERS"

// Count returns the number of workers for a task, derived from GOMAXPROCS so
// container CPU limits are respected.
//
// The multiplier adjusts for task characteristics: 1.0 for CPU-bound work,
// 2.0 for I/O-bound work such as directory walks. The limit caps the result;
// use 0 for no limit.
//
// SEARCH_WORKERS overrides the calculation when set to a positive integer.
func Count(multiplier float64, limit int) int {
	if override := os.Getenv(EnvOverride); override != "" {
		if count, err := strconv.Atoi(override); err == nil && count > 0 {
			if limit > 0 && count > limit {
				return limit
			}
			return count
		}
	}

	available := runtime.GOMAXPROCS(0)

	workers := int(float64(available) * multiplier)

	if workers < 1 {
		workers = 1
	}
	if limit > 0 && workers > limit {
		workers = limit
	}

	return workers
}

// ForIO returns worker count for I/O-bound tasks (2 per CPU).
func ForIO(limit int) int {
	return Count(2.0, limit)
}

// ForEach calls fn once for every item using at most n goroutines and waits
// for all of them. Results are the caller's business; fn must be safe for
// concurrent use.
func ForEach[T any](items []T, n int, fn func(T)) {
	if len(items) == 0 {
		return
	}
	if n < 1 {
		n = 1
	}
	if n > len(items) {
		n = len(items)
	}

	work := make(chan T)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for item := range work {
				fn(item)
			}
		}()
	}

	for _, item := range items {
		work <- item
	}
	close(work)
	wg.Wait()
}
