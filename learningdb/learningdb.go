// Package learningdb implements the experience store and pattern
// detector: every 100 inserts it groups stored experiences by action
// and emits Success/Failure patterns from action-keyed reward
// aggregation, grounded on original_source's learning_database.rs.
package learningdb

import (
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/arcadia-ai/arcadia/pkg/models"
	"github.com/arcadia-ai/arcadia/similarity"
)

const (
	patternTrigger    = 100
	successThreshold  = 0.5
	failureThreshold  = -0.5
	successConfidence = 0.8
	failureConfidence = 0.7
)

// PatternKind classifies a LearningPattern as a cluster of
// consistently rewarding or consistently punishing experiences.
type PatternKind int

const (
	PatternSuccess PatternKind = iota
	PatternFailure
)

func (k PatternKind) String() string {
	if k == PatternSuccess {
		return "success"
	}
	return "failure"
}

// LearningPattern summarizes a cluster of experiences sharing an
// action, whose mean reward crossed the success or failure threshold.
type LearningPattern struct {
	ID         string
	Kind       PatternKind
	Action     string
	Members    []string
	Centroid   []float32
	Confidence float32
	AvgReward  float32
}

// DimensionMismatch reports that an experience's state vector did not
// match the database's configured dimension.
type DimensionMismatch struct {
	Expected int
	Got      int
}

func (e *DimensionMismatch) Error() string {
	return fmt.Sprintf("learningdb: dimension mismatch: expected %d, got %d", e.Expected, e.Got)
}

// DB stores experiences and the patterns detected from them.
type DB struct {
	mu          sync.RWMutex
	dim         int
	experiences map[string]models.Experience
	order       []string // insertion order, for deterministic pattern detection
	patterns    []LearningPattern
	log         zerolog.Logger
}

// New returns an empty DB fixed to vector dimension dim.
func New(dim int, log zerolog.Logger) *DB {
	return &DB{
		dim:         dim,
		experiences: make(map[string]models.Experience),
		log:         log,
	}
}

// Add stores exp, validating its state vector length, and triggers
// pattern detection every 100 inserts.
func (db *DB) Add(exp models.Experience) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	if len(exp.StateVector) != db.dim {
		return &DimensionMismatch{Expected: db.dim, Got: len(exp.StateVector)}
	}
	if exp.ID == "" {
		exp.ID = models.NewID()
	}
	db.experiences[exp.ID] = exp
	db.order = append(db.order, exp.ID)

	if len(db.order)%patternTrigger == 0 {
		db.detectPatternsLocked()
	}
	return nil
}

// QuerySimilar returns the top k experiences by cosine similarity of
// their state vector to q.
func (db *DB) QuerySimilar(q []float32, k int) []models.SearchResult {
	db.mu.RLock()
	defer db.mu.RUnlock()

	results := make([]models.SearchResult, 0, len(db.experiences))
	for _, exp := range db.experiences {
		score := similarity.Cosine(q, exp.StateVector)
		results = append(results, models.SearchResult{
			ID:    exp.ID,
			Score: score,
			Embedding: models.Embedding{
				ID:     exp.ID,
				Vector: exp.StateVector,
			},
		})
	}
	sortByScoreDesc(results)
	if k < len(results) {
		results = results[:k]
	}
	return results
}

func sortByScoreDesc(results []models.SearchResult) {
	for i := 1; i < len(results); i++ {
		j := i
		for j > 0 && (results[j-1].Score < results[j].Score ||
			(results[j-1].Score == results[j].Score && results[j-1].ID > results[j].ID)) {
			results[j-1], results[j] = results[j], results[j-1]
			j--
		}
	}
}

// detectPatternsLocked groups every stored experience by action and
// emits a Success or Failure pattern per action whose mean reward
// crosses the relevant threshold. Previously emitted patterns are
// never retracted (append-only, per spec).
func (db *DB) detectPatternsLocked() {
	byAction := make(map[string][]string)
	for _, id := range db.order {
		exp := db.experiences[id]
		byAction[exp.Action] = append(byAction[exp.Action], id)
	}

	for action, ids := range byAction {
		var sum float64
		for _, id := range ids {
			sum += float64(db.experiences[id].Reward)
		}
		mean := sum / float64(len(ids))

		switch {
		case mean > successThreshold:
			db.appendPatternLocked(action, ids, PatternSuccess, successConfidence, func(e models.Experience) bool { return e.Reward > 0 })
		case mean < failureThreshold:
			db.appendPatternLocked(action, ids, PatternFailure, failureConfidence, func(e models.Experience) bool { return e.Reward < 0 })
		}
	}
}

func (db *DB) appendPatternLocked(action string, ids []string, kind PatternKind, confidence float32, include func(models.Experience) bool) {
	var members []string
	var sum float64
	centroid := make([]float64, db.dim)

	for _, id := range ids {
		exp := db.experiences[id]
		if !include(exp) {
			continue
		}
		members = append(members, id)
		sum += float64(exp.Reward)
		for i := 0; i < db.dim && i < len(exp.StateVector); i++ {
			centroid[i] += float64(exp.StateVector[i])
		}
	}
	if len(members) == 0 {
		return
	}

	c := make([]float32, db.dim)
	for i := range centroid {
		c[i] = float32(centroid[i] / float64(len(members)))
	}

	db.patterns = append(db.patterns, LearningPattern{
		ID:         models.NewID(),
		Kind:       kind,
		Action:     action,
		Members:    members,
		Centroid:   c,
		Confidence: confidence,
		AvgReward:  float32(sum / float64(len(members))),
	})
}

// GetSuccessful returns every experience with a positive reward.
func (db *DB) GetSuccessful() []models.Experience {
	return db.filterByRewardSign(func(r float32) bool { return r > 0 })
}

// GetFailed returns every experience with a negative reward.
func (db *DB) GetFailed() []models.Experience {
	return db.filterByRewardSign(func(r float32) bool { return r < 0 })
}

func (db *DB) filterByRewardSign(keep func(float32) bool) []models.Experience {
	db.mu.RLock()
	defer db.mu.RUnlock()

	var out []models.Experience
	for _, id := range db.order {
		exp := db.experiences[id]
		if keep(exp.Reward) {
			out = append(out, exp)
		}
	}
	return out
}

// Patterns returns every emitted pattern of the given kind.
func (db *DB) Patterns(kind PatternKind) []LearningPattern {
	db.mu.RLock()
	defer db.mu.RUnlock()

	var out []LearningPattern
	for _, p := range db.patterns {
		if p.Kind == kind {
			out = append(out, p)
		}
	}
	return out
}
