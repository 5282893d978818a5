package learning

import (
	"testing"

	"github.com/rs/zerolog"

	"github.com/arcadia-ai/arcadia/feedback"
)

func TestManager_AnomalyAndTrendDetection(t *testing.T) {
	m := New(Config{AdaptationThreshold: 0.3, EnableOnlineLearning: false}, zerolog.Nop())

	aggregated := []feedback.Aggregated{
		{
			Type:  feedback.TypePerformance,
			Count: 3,
			Metrics: map[string]feedback.MetricAggregate{
				"jitter": {Mean: 0.1, StdDev: 0.5}, // anomaly: stddev > 0.3
				"hit_rate": {Mean: 0.8, StdDev: 0.1}, // trend: mean > 0.7
			},
		},
	}

	result := m.ProcessFeedback(aggregated)
	if len(result.PatternsDiscovered) != 2 {
		t.Fatalf("patterns = %+v, want 2", result.PatternsDiscovered)
	}

	var sawAnomaly, sawTrend bool
	for _, p := range result.PatternsDiscovered {
		switch p.Kind {
		case PatternAnomaly:
			sawAnomaly = true
			if p.Confidence != 0.8 {
				t.Fatalf("anomaly confidence = %v, want 0.8", p.Confidence)
			}
		case PatternTrend:
			sawTrend = true
			if p.Confidence != 0.9 || p.Direction != 1 {
				t.Fatalf("trend pattern = %+v, want confidence 0.9 direction 1", p)
			}
		}
	}
	if !sawAnomaly || !sawTrend {
		t.Fatalf("missing expected pattern kinds: %+v", result.PatternsDiscovered)
	}
}

func TestManager_ModelUpdatesAndPerformanceDelta(t *testing.T) {
	m := New(Config{EnableOnlineLearning: true, LearningRate: 0.05}, zerolog.Nop())
	m.RegisterModel("m1")

	first := m.ProcessFeedback(nil)
	if len(first.ModelUpdates) != 1 || first.ModelUpdates[0].Version != 2 {
		t.Fatalf("first updates = %+v, want one update at version 2", first.ModelUpdates)
	}
	if first.PerformanceDelta != 0 {
		t.Fatalf("first delta = %d, want 0 (no patterns either call)", first.PerformanceDelta)
	}

	aggregated := []feedback.Aggregated{
		{Metrics: map[string]feedback.MetricAggregate{"x": {Mean: 0.9}}},
	}
	second := m.ProcessFeedback(aggregated)
	if second.PerformanceDelta != 1 {
		t.Fatalf("second delta = %d, want 1 (0 patterns -> 1 pattern)", second.PerformanceDelta)
	}
}
