package metrics

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLatencyTracker_Percentiles(t *testing.T) {
	lt := NewLatencyTracker(1000)
	for i := 1; i <= 100; i++ {
		lt.Record(time.Duration(i) * time.Millisecond)
	}

	s := lt.Stats()

	assert.Equal(t, int64(100), s.Count)
	assert.Equal(t, time.Millisecond, s.Min)
	assert.Equal(t, 100*time.Millisecond, s.Max)
	assert.Equal(t, 50*time.Millisecond, s.P50)
	assert.Equal(t, 95*time.Millisecond, s.P95)
	assert.Equal(t, 99*time.Millisecond, s.P99)
	assert.InDelta(t, 50.5, s.ToMap()["avg_ms"], 0.01)
}

func TestLatencyTracker_WindowIsBounded(t *testing.T) {
	lt := NewLatencyTracker(10)
	for i := 0; i < 25; i++ {
		lt.Record(time.Millisecond)
	}

	assert.LessOrEqual(t, lt.Stats().Count, int64(10))
}

func TestLatencyTracker_Empty(t *testing.T) {
	assert.Equal(t, LatencyStats{}, NewLatencyTracker(0).Stats())
}

func TestLatencyRegistry_ConcurrentStages(t *testing.T) {
	r := NewLatencyRegistry(100)

	var wg sync.WaitGroup
	for _, stage := range []string{"extract", "parse", "record"} {
		for i := 0; i < 20; i++ {
			wg.Add(1)
			go func(stage string) {
				defer wg.Done()
				r.Record(stage, time.Millisecond)
			}(stage)
		}
	}
	wg.Wait()

	all := r.AllStats()
	assert.Len(t, all, 3)
	assert.Equal(t, int64(20), r.Stats("extract").Count)
	assert.Equal(t, LatencyStats{}, r.Stats("unknown"))
}

func TestOutcomeCounters(t *testing.T) {
	var c OutcomeCounters

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.Inc(OutcomeSuccess)
		}()
	}
	wg.Wait()
	c.Inc(OutcomeSinkFailed)
	c.Inc(Outcome("unknown"))

	snap := c.Snapshot()
	assert.Equal(t, int64(100), snap[OutcomeSuccess])
	assert.Equal(t, int64(1), snap[OutcomeSinkFailed])
	assert.Zero(t, snap[OutcomeExtractionFailed])
	assert.Len(t, snap, 5)
}
