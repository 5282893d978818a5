// Package learning implements the pipeline's pattern-extraction stage:
// anomaly/trend detection over aggregated feedback and per-model
// update bookkeeping, grounded on original_source's paris/learning.rs.
package learning

import (
	"sync"

	"github.com/rs/zerolog"

	"github.com/arcadia-ai/arcadia/feedback"
)

// PatternKind classifies a pipeline-level learning pattern. This is a
// distinct type from learningdb.PatternKind: that package clusters
// raw experiences by action, this one detects shape in aggregated
// feedback metrics.
type PatternKind string

const (
	PatternAnomaly PatternKind = "anomaly"
	PatternTrend   PatternKind = "trend"
)

// Pattern is one detected shape in an aggregated feedback metric.
type Pattern struct {
	ID         string
	Kind       PatternKind
	Metric     string
	Confidence float64
	Direction  int // +1/-1/0, meaningful for PatternTrend
}

// ModelUpdate records a bumped model version and its new learning
// rate.
type ModelUpdate struct {
	ModelID      string
	LearningRate float64
	Version      uint64
}

// Result is process_feedback's return value.
type Result struct {
	UpdateCount        int
	PatternsDiscovered []Pattern
	ModelUpdates       []ModelUpdate
	PerformanceDelta   int
}

// Config controls pattern-detection thresholds and online learning.
type Config struct {
	LearningRate         float64
	AdaptationThreshold  float64
	EnableOnlineLearning bool
}

// DefaultConfig returns reasonable defaults.
func DefaultConfig() Config {
	return Config{LearningRate: 0.01, AdaptationThreshold: 0.3, EnableOnlineLearning: true}
}

type modelState struct {
	learningRate float64
	version      uint64
}

// Manager tracks registered models and the pattern count of the
// previous ProcessFeedback call, used to compute PerformanceDelta.
type Manager struct {
	mu           sync.RWMutex
	cfg          Config
	models       map[string]*modelState
	prevPatterns int
	log          zerolog.Logger
}

// New returns an empty Manager.
func New(cfg Config, log zerolog.Logger) *Manager {
	return &Manager{cfg: cfg, models: make(map[string]*modelState), log: log}
}

// RegisterModel adds a model that ProcessFeedback will emit updates
// for when online learning is enabled.
func (m *Manager) RegisterModel(modelID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.models[modelID]; !ok {
		m.models[modelID] = &modelState{learningRate: m.cfg.LearningRate, version: 1}
	}
}

// ModelLearningRate returns the current learning rate for modelID (0
// if unregistered).
func (m *Manager) ModelLearningRate(modelID string) float64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if ms, ok := m.models[modelID]; ok {
		return ms.learningRate
	}
	return 0
}

// SetModelLearningRate overwrites modelID's learning rate, used by the
// optimizer after it computes a corrective update.
func (m *Manager) SetModelLearningRate(modelID string, lr float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if ms, ok := m.models[modelID]; ok {
		ms.learningRate = lr
	}
}

// ProcessFeedback scans every metric of every aggregated item for
// anomaly (stddev > adaptation threshold) and trend (mean > 0.7)
// patterns, then — if online learning is enabled — bumps every
// registered model's version and records a ModelUpdate.
func (m *Manager) ProcessFeedback(aggregated []feedback.Aggregated) Result {
	m.mu.Lock()
	defer m.mu.Unlock()

	var patterns []Pattern
	for _, agg := range aggregated {
		for metric, stat := range agg.Metrics {
			if stat.StdDev > m.cfg.AdaptationThreshold {
				patterns = append(patterns, Pattern{
					ID:         metric + "-anomaly",
					Kind:       PatternAnomaly,
					Metric:     metric,
					Confidence: 0.8,
				})
			}
			if stat.Mean > 0.7 {
				patterns = append(patterns, Pattern{
					ID:         metric + "-trend",
					Kind:       PatternTrend,
					Metric:     metric,
					Confidence: 0.9,
					Direction:  1,
				})
			}
		}
	}

	var updates []ModelUpdate
	updateCount := 0
	if m.cfg.EnableOnlineLearning {
		for id, ms := range m.models {
			ms.version++
			updates = append(updates, ModelUpdate{ModelID: id, LearningRate: ms.learningRate, Version: ms.version})
			updateCount++
		}
	}

	delta := len(patterns) - m.prevPatterns
	m.prevPatterns = len(patterns)

	return Result{
		UpdateCount:        updateCount,
		PatternsDiscovered: patterns,
		ModelUpdates:       updates,
		PerformanceDelta:   delta,
	}
}
