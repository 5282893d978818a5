package feedback

import (
	"testing"

	"github.com/rs/zerolog"

	"github.com/arcadia-ai/arcadia/internal/clock"
)

func approx(a, b, tol float64) bool {
	d := a - b
	if d < 0 {
		d = -d
	}
	return d <= tol
}

func TestManager_E7AggregationStats(t *testing.T) {
	clk := &clock.Fake{Millis: 1000}
	m := New(DefaultConfig(), clk, zerolog.Nop())

	for _, v := range []float32{60, 30, 60} {
		m.SubmitFeedback(Item{Type: TypePerformance, Data: map[string]float32{"fps": v}})
	}

	clk.Advance(500)
	results := m.ProcessFeedback()
	if len(results) != 1 {
		t.Fatalf("len(results) = %d, want 1", len(results))
	}
	agg := results[0]
	if agg.Type != TypePerformance || agg.Count != 3 {
		t.Fatalf("agg = %+v", agg)
	}
	fps := agg.Metrics["fps"]
	if !approx(fps.Mean, 50, 1e-9) {
		t.Fatalf("mean = %v, want 50", fps.Mean)
	}
	if fps.Min != 30 || fps.Max != 60 {
		t.Fatalf("min/max = %v/%v, want 30/60", fps.Min, fps.Max)
	}
	if !approx(fps.StdDev, 14.142135, 1e-4) {
		t.Fatalf("stddev = %v, want ~14.142", fps.StdDev)
	}
	if fps.Count != 3 {
		t.Fatalf("count = %d, want 3", fps.Count)
	}
}

func TestManager_FilteringDropsLowPriority(t *testing.T) {
	cfg := DefaultConfig()
	cfg.EnableFiltering = true
	cfg.PriorityThreshold = 5
	m := New(cfg, nil, zerolog.Nop())

	m.SubmitFeedback(Item{Type: TypeSystemHealth, Priority: 1, Data: map[string]float32{"x": 1}})
	m.SubmitFeedback(Item{Type: TypeSystemHealth, Priority: 9, Data: map[string]float32{"x": 1}})

	results := m.ProcessFeedback()
	if len(results) != 1 || results[0].Count != 1 {
		t.Fatalf("results = %+v, want one aggregated item with count 1", results)
	}
	if m.GetStats().FilteredCount != 1 {
		t.Fatalf("filtered count = %d, want 1", m.GetStats().FilteredCount)
	}
}

func TestManager_CapacityEvictsOldest(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxQueueSize = 2
	m := New(cfg, nil, zerolog.Nop())

	m.SubmitFeedback(Item{Type: TypeSystemHealth, Data: map[string]float32{"x": 1}})
	m.SubmitFeedback(Item{Type: TypeSystemHealth, Data: map[string]float32{"x": 2}})
	m.SubmitFeedback(Item{Type: TypeSystemHealth, Data: map[string]float32{"x": 3}})

	if m.GetStats().EvictedCount != 1 {
		t.Fatalf("evicted = %d, want 1", m.GetStats().EvictedCount)
	}
	results := m.ProcessFeedback()
	if results[0].Count != 2 {
		t.Fatalf("count after eviction = %d, want 2", results[0].Count)
	}
}

func TestManager_QueueClearedAfterProcess(t *testing.T) {
	m := New(DefaultConfig(), nil, zerolog.Nop())
	m.SubmitFeedback(Item{Type: TypePerformance, Data: map[string]float32{"fps": 1}})
	_ = m.ProcessFeedback()

	results := m.ProcessFeedback()
	if len(results) != 0 {
		t.Fatalf("results after second process = %+v, want empty", results)
	}
}
