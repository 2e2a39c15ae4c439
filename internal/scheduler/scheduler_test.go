package scheduler

import (
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"
)

type countingEvicter struct {
	runs atomic.Int32
}

func (e *countingEvicter) EvictIdle() int {
	e.runs.Add(1)
	return 0
}

func TestJanitorRunsEvictionImmediatelyAndStops(t *testing.T) {
	e := &countingEvicter{}
	j := New(time.Hour, e, zaptest.NewLogger(t))
	if err := j.Start(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// gocron runs a new job once right away, then on the interval.
	deadline := time.Now().Add(2 * time.Second)
	for e.runs.Load() == 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	j.Stop()

	if e.runs.Load() == 0 {
		t.Fatal("expected the eviction job to run")
	}
}
