package parallel

import (
	"runtime"
	"sync/atomic"
	"testing"
)

func TestWorkers(t *testing.T) {
	cpus := runtime.NumCPU()
	tests := []struct {
		nJobs int
		want  int
	}{
		{4, 4},
		{1, 1},
		{0, 1},
		{-1, cpus},
	}
	for _, tt := range tests {
		if got := Workers(tt.nJobs); got != tt.want {
			t.Errorf("Workers(%d) = %d, want %d", tt.nJobs, got, tt.want)
		}
	}
	if got := Workers(-cpus - 10); got != 1 {
		t.Errorf("Workers should never drop below 1, got %d", got)
	}
}

func TestParallelizeCoversAllItems(t *testing.T) {
	for _, workers := range []int{1, 3, 8, 100} {
		var sum int64
		Parallelize(50, workers, func(start, end int) {
			for i := start; i < end; i++ {
				atomic.AddInt64(&sum, int64(i))
			}
		})
		if sum != 50*49/2 {
			t.Errorf("workers=%d: sum = %d, want %d", workers, sum, 50*49/2)
		}
	}
}

func TestParallelizeWithThresholdSequential(t *testing.T) {
	calls := 0
	ParallelizeWithThreshold(10, 100, func(start, end int) {
		calls++
		if start != 0 || end != 10 {
			t.Errorf("unexpected range [%d,%d)", start, end)
		}
	})
	if calls != 1 {
		t.Errorf("expected a single sequential call, got %d", calls)
	}
}
