// Package vectorindex implements named collections of fixed-dimension
// embeddings with brute-force top-k similarity search. No ANN
// structure is required; correctness of the linear scan is the
// baseline (an ANN index can slot in behind the same Search contract
// later without changing callers).
package vectorindex

import (
	"fmt"
	"sort"
	"sync"

	"github.com/rs/zerolog"

	"github.com/arcadia-ai/arcadia/pkg/models"
	"github.com/arcadia-ai/arcadia/similarity"
)

// DimensionMismatch reports that a vector's length did not match its
// collection's fixed dimension.
type DimensionMismatch struct {
	Expected int
	Got      int
}

func (e *DimensionMismatch) Error() string {
	return fmt.Sprintf("vectorindex: dimension mismatch: expected %d, got %d", e.Expected, e.Got)
}

var (
	// ErrIndexNotFound is returned when an operation names an index
	// that was never created.
	ErrIndexNotFound = fmt.Errorf("vectorindex: index not found")
	// ErrEmbeddingNotFound is returned by Remove when the id is absent.
	ErrEmbeddingNotFound = fmt.Errorf("vectorindex: embedding not found")
)

// Stats describes one collection's current shape.
type Stats struct {
	Size   int
	Dim    int
	Metric models.Metric
}

type shard struct {
	dim     int
	metric  models.Metric
	entries map[string]models.Embedding
}

func scoreFn(m models.Metric) func(a, b []float32) float32 {
	switch m {
	case models.MetricDot:
		return similarity.Dot
	case models.MetricEuclidean:
		return similarity.L2
	case models.MetricManhattan:
		return similarity.L1
	default:
		return similarity.Cosine
	}
}

// Index owns a set of named vector collections, each guarded by its
// own lock-free-of-each-other shard state behind one index-wide
// RWMutex — matching the teacher's single struct-level lock pattern
// for a bounded number of named sub-collections.
type Index struct {
	mu     sync.RWMutex
	shards map[string]*shard
	log    zerolog.Logger
}

// New returns an empty Index that writes its debug logs to log.
func New(log zerolog.Logger) *Index {
	return &Index{shards: make(map[string]*shard), log: log}
}

// CreateIndex creates a named collection with the given fixed
// dimension and metric. Idempotent when called again with the same
// (dim, metric); returns an error if an existing collection's shape
// differs.
func (idx *Index) CreateIndex(name string, dim int, metric models.Metric) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	if existing, ok := idx.shards[name]; ok {
		if existing.dim != dim || existing.metric != metric {
			return fmt.Errorf("vectorindex: index %q already exists with dim=%d metric=%s", name, existing.dim, existing.metric)
		}
		return nil
	}
	idx.shards[name] = &shard{dim: dim, metric: metric, entries: make(map[string]models.Embedding)}
	idx.log.Debug().Str("index", name).Int("dim", dim).Str("metric", metric.String()).Msg("index created")
	return nil
}

// Add inserts or overwrites (by id) an embedding in a named
// collection. Returns *DimensionMismatch if emb.Vector's length does
// not equal the collection's dimension.
func (idx *Index) Add(name string, emb models.Embedding) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	sh, ok := idx.shards[name]
	if !ok {
		return fmt.Errorf("vectorindex: %w: %q", ErrIndexNotFound, name)
	}
	if len(emb.Vector) != sh.dim {
		return &DimensionMismatch{Expected: sh.dim, Got: len(emb.Vector)}
	}
	sh.entries[emb.ID] = emb
	return nil
}

// Search scores query against every entry in name using the
// collection's configured metric, and returns the top k results
// ordered descending by score. k > size returns everything.
func (idx *Index) Search(name string, query []float32, k int) ([]models.SearchResult, error) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	sh, ok := idx.shards[name]
	if !ok {
		return nil, fmt.Errorf("vectorindex: %w: %q", ErrIndexNotFound, name)
	}
	score := scoreFn(sh.metric)

	results := make([]models.SearchResult, 0, len(sh.entries))
	for id, emb := range sh.entries {
		results = append(results, models.SearchResult{
			ID:        id,
			Score:     score(query, emb.Vector),
			Embedding: emb,
		})
	}
	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].ID < results[j].ID
	})
	if k < len(results) {
		results = results[:k]
	}
	return results, nil
}

// Remove deletes an embedding by id from a named collection.
func (idx *Index) Remove(name, id string) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	sh, ok := idx.shards[name]
	if !ok {
		return fmt.Errorf("vectorindex: %w: %q", ErrIndexNotFound, name)
	}
	if _, ok := sh.entries[id]; !ok {
		return fmt.Errorf("vectorindex: %w: %q", ErrEmbeddingNotFound, id)
	}
	delete(sh.entries, id)
	return nil
}

// Stats returns the current size, dimension, and metric of a named
// collection.
func (idx *Index) Stats(name string) (Stats, error) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	sh, ok := idx.shards[name]
	if !ok {
		return Stats{}, fmt.Errorf("vectorindex: %w: %q", ErrIndexNotFound, name)
	}
	return Stats{Size: len(sh.entries), Dim: sh.dim, Metric: sh.metric}, nil
}
