// Package runtime composes the feedback/learning/optimizer/layers
// pipeline into a single caller-driven tick, grounded on
// original_source's paris/mod.rs process_cycle. It takes and releases
// each component's lock in sequence and holds no lock of its own,
// per spec.md §5's "no cross-component lock is held while acquiring
// another."
package runtime

import (
	"github.com/rs/zerolog"

	"github.com/arcadia-ai/arcadia/feedback"
	"github.com/arcadia-ai/arcadia/layers"
	"github.com/arcadia-ai/arcadia/learning"
	"github.com/arcadia-ai/arcadia/optimizer"
)

// CycleResult summarizes one tick across the pipeline.
type CycleResult struct {
	FeedbackCount        int
	LearningUpdates      int
	OptimizationsApplied int
	LayersUpdated        int
}

// Runtime wires together one instance of each pipeline stage. GOAP
// planning and vector/replay operations are orthogonal to the tick
// and are called directly by the host against their own component
// handles; Runtime only drives the feedback pipeline.
type Runtime struct {
	Feedback  *feedback.Manager
	Learning  *learning.Manager
	Optimizer *optimizer.Manager
	Layers    *layers.Manager
	log       zerolog.Logger
}

// New wires a Runtime from already-constructed component managers.
func New(fb *feedback.Manager, lm *learning.Manager, om *optimizer.Manager, lay *layers.Manager, log zerolog.Logger) *Runtime {
	return &Runtime{Feedback: fb, Learning: lm, Optimizer: om, Layers: lay, log: log}
}

// RunTick executes one pipeline pass: process queued feedback, derive
// learning patterns and model updates, apply optimizations, propagate
// them to the layer DAG, and return the resulting cycle metrics.
func (r *Runtime) RunTick() CycleResult {
	aggregated := r.Feedback.ProcessFeedback()

	learningResult := r.Learning.ProcessFeedback(aggregated)

	optimizerResult := r.Optimizer.ApplyOptimizations(r.Learning, learningResult)

	layersUpdated := r.Layers.UpdateLayers(optimizerResult)

	r.log.Debug().
		Int("feedback_count", len(aggregated)).
		Int("learning_updates", learningResult.UpdateCount).
		Int("optimizations_applied", optimizerResult.Count).
		Int("layers_updated", layersUpdated).
		Msg("tick complete")

	return CycleResult{
		FeedbackCount:        len(aggregated),
		LearningUpdates:      learningResult.UpdateCount,
		OptimizationsApplied: optimizerResult.Count,
		LayersUpdated:        layersUpdated,
	}
}
