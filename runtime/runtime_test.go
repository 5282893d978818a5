package runtime

import (
	"testing"

	"github.com/rs/zerolog"

	"github.com/arcadia-ai/arcadia/feedback"
	"github.com/arcadia-ai/arcadia/internal/clock"
	"github.com/arcadia-ai/arcadia/layers"
	"github.com/arcadia-ai/arcadia/learning"
	"github.com/arcadia-ai/arcadia/optimizer"
)

func TestRuntime_RunTick_EmptyQueueIsANoop(t *testing.T) {
	clk := &clock.Fake{Millis: 1}
	fb := feedback.New(feedback.DefaultConfig(), clk, zerolog.Nop())
	lm := learning.New(learning.DefaultConfig(), zerolog.Nop())
	om := optimizer.New(optimizer.Config{}, zerolog.Nop())
	lay := layers.New(layers.Config{}, clk, zerolog.Nop())

	rt := New(fb, lm, om, lay, zerolog.Nop())
	result := rt.RunTick()

	if result.FeedbackCount != 0 || result.LearningUpdates != 0 || result.OptimizationsApplied != 0 || result.LayersUpdated != 0 {
		t.Fatalf("result = %+v, want all zero", result)
	}
}

func TestRuntime_RunTick_PropagatesCorrectiveLearningRate(t *testing.T) {
	clk := &clock.Fake{Millis: 1}
	fb := feedback.New(feedback.DefaultConfig(), clk, zerolog.Nop())
	lm := learning.New(learning.DefaultConfig(), zerolog.Nop())
	om := optimizer.New(optimizer.Config{EnableAutoTuning: false}, zerolog.Nop())
	lay := layers.New(layers.Config{}, clk, zerolog.Nop())

	lm.RegisterModel("npc-behavior")
	om.RegisterHyperparameter(optimizer.Hyperparameter{Name: "learning_rate", Value: 0.01, Min: 0.001, Max: 0.1})
	lay.CreateLayer(layers.Definition{ID: "learning"})
	lay.ActivateAll()

	// Submit a high-variance metric so ProcessFeedback's anomaly
	// detector fires and the pipeline has at least one pattern to
	// report on the first tick (PerformanceDelta starts at 0 and goes
	// positive, not negative, on the first call — so no correction is
	// expected yet; this exercises the full chain end to end without
	// asserting a specific correction).
	fb.SubmitFeedback(feedback.Item{Type: feedback.TypePerformance, Data: map[string]float32{"jitter": 0.1}})
	fb.SubmitFeedback(feedback.Item{Type: feedback.TypePerformance, Data: map[string]float32{"jitter": 0.9}})

	rt := New(fb, lm, om, lay, zerolog.Nop())
	first := rt.RunTick()

	if first.FeedbackCount != 1 {
		t.Fatalf("feedback count = %d, want 1 (one Aggregated, for TypePerformance)", first.FeedbackCount)
	}
	if first.LearningUpdates != 1 {
		t.Fatalf("learning updates = %d, want 1", first.LearningUpdates)
	}

	// Second tick with no new feedback: patterns drop to zero, so
	// PerformanceDelta goes negative and a corrective LR optimization
	// should fire, touching the "learning" layer.
	second := rt.RunTick()
	if second.OptimizationsApplied == 0 {
		t.Fatalf("expected at least one optimization on the second tick once patterns dropped to zero")
	}
	if second.LayersUpdated != 1 {
		t.Fatalf("layers updated = %d, want 1 (the learning layer)", second.LayersUpdated)
	}

	st, err := lay.GetLayerState("learning")
	if err != nil {
		t.Fatal(err)
	}
	if st.Version < 2 {
		t.Fatalf("learning layer version = %d, want >= 2 after one update", st.Version)
	}
}
