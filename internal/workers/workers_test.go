package workers

import (
	"runtime"
	"sync"
	"sync/atomic"
	"testing"
)

func TestCount(t *testing.T) {
	t.Setenv(EnvOverride, "")

	availableCPU := runtime.GOMAXPROCS(0)

	tests := []struct {
		name       string
		multiplier float64
		limit      int
		want       int
	}{
		{"CPU-bound (1.0x)", 1.0, 0, availableCPU},
		{"I/O-bound (2.0x)", 2.0, 0, availableCPU * 2},
		{"limit lower than calculated", 2.0, 1, 1},
		{"tiny multiplier floors at one", 0.0001, 0, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Count(tt.multiplier, tt.limit); got != tt.want {
				t.Errorf("Count(%v, %d) = %d, want %d", tt.multiplier, tt.limit, got, tt.want)
			}
		})
	}
}

func TestCountOverride(t *testing.T) {
	tests := []struct {
		name     string
		override string
		limit    int
		want     int
	}{
		{"valid override", "5", 0, 5},
		{"override capped by limit", "20", 8, 8},
		{"zero ignored", "0", 0, runtime.GOMAXPROCS(0) * 2},
		{"negative ignored", "-3", 0, runtime.GOMAXPROCS(0) * 2},
		{"garbage ignored", "lots", 0, runtime.GOMAXPROCS(0) * 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(EnvOverride, tt.override)
			if got := ForIO(tt.limit); got != tt.want {
				t.Errorf("ForIO(%d) with %s=%q = %d, want %d", tt.limit, EnvOverride, tt.override, got, tt.want)
			}
		})
	}
}

func TestForEachVisitsEveryItem(t *testing.T) {
	items := []int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}

	var mu sync.Mutex
	seen := make(map[int]bool)
	ForEach(items, 3, func(i int) {
		mu.Lock()
		seen[i] = true
		mu.Unlock()
	})

	if len(seen) != len(items) {
		t.Errorf("visited %d items, want %d", len(seen), len(items))
	}
}

func TestForEachBoundsConcurrency(t *testing.T) {
	items := make([]int, 50)

	var active, peak atomic.Int32
	ForEach(items, 2, func(int) {
		n := active.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		runtime.Gosched()
		active.Add(-1)
	})

	if peak.Load() > 2 {
		t.Errorf("peak concurrency = %d, want <= 2", peak.Load())
	}
}

func TestForEachEmptyAndZeroWorkers(t *testing.T) {
	called := false
	ForEach(nil, 4, func(string) { called = true })
	if called {
		t.Error("fn called for empty input")
	}

	count := 0
	ForEach([]string{"a", "b"}, 0, func(string) { count++ })
	if count != 2 {
		t.Errorf("count = %d, want 2", count)
	}
}
