// Package feedback implements the typed feedback submission queue and
// its per-type, per-metric aggregation, grounded on original_source's
// paris/feedback.rs.
package feedback

import (
	"math"
	"sync"

	"github.com/rs/zerolog"

	"github.com/arcadia-ai/arcadia/internal/clock"
	"github.com/arcadia-ai/arcadia/pkg/models"
)

// Type classifies a feedback item's origin.
type Type int

const (
	TypePlayerBehavior Type = iota
	TypePerformance
	TypeWorldState
	TypeAIDecision
	TypeUserExperience
	TypeSystemHealth
)

// Item is one submitted feedback record.
type Item struct {
	ID        string
	Type      Type
	Source    string
	Timestamp int64
	Priority  float32
	Data      map[string]float32
}

// MetricAggregate is the descriptive statistics computed for one
// metric key across a process_feedback window.
type MetricAggregate struct {
	Mean   float64
	Min    float64
	Max    float64
	StdDev float64
	Count  int
}

// Aggregated is one process_feedback output: per-metric statistics
// for every item of one Type submitted since the last call.
type Aggregated struct {
	Type     Type
	Count    int
	WindowMs int64
	Metrics  map[string]MetricAggregate
}

// Config controls submission filtering/capacity and is informational
// about aggregation cadence (the core never self-schedules; hosts
// call ProcessFeedback on their own interval).
type Config struct {
	MaxQueueSize          int
	AggregationIntervalMs int64
	EnableFiltering       bool
	PriorityThreshold     float32
}

// DefaultConfig returns reasonable defaults.
func DefaultConfig() Config {
	return Config{
		MaxQueueSize:          1000,
		AggregationIntervalMs: 1000,
		EnableFiltering:       false,
		PriorityThreshold:     0,
	}
}

// Stats tracks submission-time bookkeeping.
type Stats struct {
	TotalSubmitted int
	TotalProcessed int
	FilteredCount  int
	EvictedCount   int
}

// Manager owns the live queue and per-type aggregation history.
type Manager struct {
	mu      sync.RWMutex
	cfg     Config
	queue   []Item
	history map[Type][]Aggregated
	stats   Stats
	clock   clock.Clock
	log     zerolog.Logger
	lastTs  int64
}

// New returns an empty Manager.
func New(cfg Config, clk clock.Clock, log zerolog.Logger) *Manager {
	if clk == nil {
		clk = clock.New()
	}
	return &Manager{cfg: cfg, history: make(map[Type][]Aggregated), clock: clk, log: log}
}

// SubmitFeedback enqueues item, applying the filtering and
// capacity-eviction rules. It never returns an error: a submission
// below the priority threshold is dropped (FilteredCount++); a
// submission at capacity evicts the oldest entry (EvictedCount++)
// before appending.
func (m *Manager) SubmitFeedback(item Item) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if item.ID == "" {
		item.ID = models.NewID()
	}
	if item.Timestamp == 0 {
		item.Timestamp = m.clock.NowMillis()
	}

	m.stats.TotalSubmitted++

	if m.cfg.EnableFiltering && item.Priority < m.cfg.PriorityThreshold {
		m.stats.FilteredCount++
		return
	}

	if m.cfg.MaxQueueSize > 0 && len(m.queue) >= m.cfg.MaxQueueSize {
		m.queue = m.queue[1:]
		m.stats.EvictedCount++
	}
	m.queue = append(m.queue, item)
}

// ProcessFeedback partitions the live queue by type, computes
// per-metric mean/min/max/population-stddev/count for each type,
// appends the results to per-type history, clears the live queue, and
// returns the list of Aggregated results (one per type present).
func (m *Manager) ProcessFeedback() []Aggregated {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.clock.NowMillis()
	windowMs := now - m.lastTs
	m.lastTs = now

	byType := make(map[Type][]Item)
	for _, item := range m.queue {
		byType[item.Type] = append(byType[item.Type], item)
	}

	var out []Aggregated
	for t, items := range byType {
		agg := Aggregated{Type: t, Count: len(items), WindowMs: windowMs, Metrics: computeAggregate(items)}
		out = append(out, agg)
		m.history[t] = append(m.history[t], agg)
		m.stats.TotalProcessed += len(items)
	}

	m.queue = m.queue[:0]
	return out
}

func computeAggregate(items []Item) map[string]MetricAggregate {
	values := make(map[string][]float64)
	for _, item := range items {
		for k, v := range item.Data {
			values[k] = append(values[k], float64(v))
		}
	}

	out := make(map[string]MetricAggregate, len(values))
	for k, vs := range values {
		out[k] = aggregateOf(vs)
	}
	return out
}

func aggregateOf(vs []float64) MetricAggregate {
	n := len(vs)
	if n == 0 {
		return MetricAggregate{}
	}

	min, max := vs[0], vs[0]
	var sum float64
	for _, v := range vs {
		sum += v
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}
	mean := sum / float64(n)

	var sqDiff float64
	for _, v := range vs {
		d := v - mean
		sqDiff += d * d
	}
	stddev := math.Sqrt(sqDiff / float64(n)) // population variance, per spec

	return MetricAggregate{Mean: mean, Min: min, Max: max, StdDev: stddev, Count: n}
}

// History returns every Aggregated previously produced for t.
func (m *Manager) History(t Type) []Aggregated {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]Aggregated(nil), m.history[t]...)
}

// GetStats returns a copy of the manager's submission counters.
func (m *Manager) GetStats() Stats {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.stats
}
