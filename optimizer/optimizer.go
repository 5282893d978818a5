// Package optimizer implements the pipeline's optimization stage:
// corrective learning-rate adjustment and hyperparameter auto-tuning,
// grounded on original_source's paris/optimization.rs.
package optimizer

import (
	"sync"

	"github.com/rs/zerolog"

	"github.com/arcadia-ai/arcadia/learning"
)

// Strategy labels which nominal optimization approach produced an
// Optimization record. Only the hyperparameter/learning-rate rules in
// Config are actually implemented (spec.md §4.7 defines exactly one
// concrete update rule per record kind); the remaining labels exist so
// a host can tag/report which strategy a stub target names, matching
// original_source's OptimizationStrategy enum.
type Strategy string

const (
	StrategyGradientDescent    Strategy = "gradient_descent"
	StrategyGenetic            Strategy = "genetic"
	StrategySimulatedAnnealing Strategy = "simulated_annealing"
	StrategyBayesian           Strategy = "bayesian"
	StrategyGridSearch         Strategy = "grid_search"
)

// Hyperparameter is a named tunable value with bounds.
type Hyperparameter struct {
	Name string
	Value,
	Min,
	Max,
	Step float64
}

// Optimization is one emitted parameter change. Parameters holds the
// key/value updates layers.UpdateLayers merges into the target
// layer's state when AffectedLayers includes Target.
type Optimization struct {
	ID          string
	Target      string
	Strategy    Strategy
	Improvement float64
	Parameters  map[string]float32
}

// Result is apply_optimizations' return value.
type Result struct {
	Count                  int
	AffectedLayers         []string
	PerformanceImprovement float64
	Optimizations          []Optimization
}

// Config controls auto-tuning behavior.
type Config struct {
	EnableAutoTuning bool
}

// DefaultConfig returns reasonable defaults.
func DefaultConfig() Config {
	return Config{EnableAutoTuning: true}
}

// Manager owns the registered hyperparameters subject to auto-tuning.
type Manager struct {
	mu    sync.Mutex
	cfg   Config
	hyper map[string]*Hyperparameter
	log   zerolog.Logger
}

// New returns an empty Manager.
func New(cfg Config, log zerolog.Logger) *Manager {
	return &Manager{cfg: cfg, hyper: make(map[string]*Hyperparameter), log: log}
}

// RegisterHyperparameter adds a hyperparameter eligible for
// auto-tuning.
func (m *Manager) RegisterHyperparameter(h Hyperparameter) {
	m.mu.Lock()
	defer m.mu.Unlock()
	hp := h
	m.hyper[h.Name] = &hp
}

// Hyperparameter returns the current value of a registered
// hyperparameter and whether it exists.
func (m *Manager) Hyperparameter(name string) (Hyperparameter, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	hp, ok := m.hyper[name]
	if !ok {
		return Hyperparameter{}, false
	}
	return *hp, true
}

// ApplyOptimizations derives optimizations from a learning.Result:
//   - if PerformanceDelta < 0, emit a corrective learning-rate
//     optimization per model (new_lr = max(lr*0.95, lr.min), where
//     lr.min is the registered "learning_rate" hyperparameter's floor,
//     or 0 if none is registered), affecting the "learning" layer;
//   - if auto-tuning is enabled, nudge every registered hyperparameter
//     toward its max by 10% of its range, clamped to [min, max], and
//     commit the new value;
//   - emit one stub optimization per model update, targeting the
//     model id.
//
// Corrected learning rates are written to lr after this manager's lock
// is released, so the two components' locks are never held together.
func (m *Manager) ApplyOptimizations(lr *learning.Manager, result learning.Result) Result {
	m.mu.Lock()

	var opts []Optimization
	affected := make(map[string]bool)
	corrected := make(map[string]float64)

	if result.PerformanceDelta < 0 {
		var floor float64
		if hp, ok := m.hyper["learning_rate"]; ok {
			floor = hp.Min
		}
		for _, upd := range result.ModelUpdates {
			newLR := upd.LearningRate * 0.95
			if newLR < floor {
				newLR = floor
			}
			corrected[upd.ModelID] = newLR
			opts = append(opts, Optimization{
				ID:          upd.ModelID + "-lr-correction",
				Target:      "learning",
				Strategy:    StrategyGradientDescent,
				Improvement: upd.LearningRate - newLR,
				Parameters:  map[string]float32{"learning_rate": float32(newLR)},
			})
			affected["learning"] = true
		}
	}

	if m.cfg.EnableAutoTuning {
		for name, hp := range m.hyper {
			newVal := clamp(hp.Value+0.1*(hp.Max-hp.Min), hp.Min, hp.Max)
			improvement := newVal - hp.Value
			hp.Value = newVal
			opts = append(opts, Optimization{
				ID:          name + "-autotune",
				Target:      name,
				Strategy:    StrategyBayesian,
				Improvement: improvement,
				Parameters:  map[string]float32{name: float32(newVal)},
			})
			affected[name] = true
		}
	}

	for _, upd := range result.ModelUpdates {
		opts = append(opts, Optimization{
			ID:          upd.ModelID + "-model-update",
			Target:      upd.ModelID,
			Strategy:    StrategyGridSearch,
			Improvement: 0,
		})
		affected[upd.ModelID] = true
	}

	layers := make([]string, 0, len(affected))
	for l := range affected {
		layers = append(layers, l)
	}
	m.mu.Unlock()

	if lr != nil {
		for id, newLR := range corrected {
			lr.SetModelLearningRate(id, newLR)
		}
	}

	return Result{
		Count:                  len(opts),
		AffectedLayers:         layers,
		PerformanceImprovement: meanImprovement(opts),
		Optimizations:          opts,
	}
}

func clamp(v, min, max float64) float64 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

func meanImprovement(opts []Optimization) float64 {
	if len(opts) == 0 {
		return 0
	}
	var sum float64
	for _, o := range opts {
		sum += o.Improvement
	}
	return sum / float64(len(opts))
}
