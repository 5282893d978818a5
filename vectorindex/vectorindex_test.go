package vectorindex

import (
	"errors"
	"testing"

	"github.com/rs/zerolog"

	"github.com/arcadia-ai/arcadia/pkg/models"
)

func TestVectorIndex_E1CosineSearch(t *testing.T) {
	idx := New(zerolog.Nop())
	if err := idx.CreateIndex("X", 3, models.MetricCosine); err != nil {
		t.Fatal(err)
	}

	entries := []models.Embedding{
		{ID: "a", Vector: []float32{1, 0, 0}},
		{ID: "b", Vector: []float32{0.9, 0.1, 0}},
		{ID: "c", Vector: []float32{0, 1, 0}},
	}
	for _, e := range entries {
		if err := idx.Add("X", e); err != nil {
			t.Fatal(err)
		}
	}

	results, err := idx.Search("X", []float32{1, 0, 0}, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 2 {
		t.Fatalf("len(results) = %d, want 2", len(results))
	}
	if results[0].ID != "a" || results[1].ID != "b" {
		t.Fatalf("order = [%s, %s], want [a, b]", results[0].ID, results[1].ID)
	}
	if results[0].Score != 1.0 {
		t.Fatalf("score(a) = %v, want 1.0", results[0].Score)
	}
	if d := results[1].Score - 0.9939; d > 1e-3 || d < -1e-3 {
		t.Fatalf("score(b) = %v, want ~0.9939", results[1].Score)
	}
}

func TestVectorIndex_DimensionMismatch(t *testing.T) {
	idx := New(zerolog.Nop())
	if err := idx.CreateIndex("X", 3, models.MetricCosine); err != nil {
		t.Fatal(err)
	}
	err := idx.Add("X", models.Embedding{ID: "bad", Vector: []float32{1, 2}})
	var dm *DimensionMismatch
	if !errors.As(err, &dm) {
		t.Fatalf("err = %v, want *DimensionMismatch", err)
	}
	if dm.Expected != 3 || dm.Got != 2 {
		t.Fatalf("dm = %+v", dm)
	}
}

func TestVectorIndex_DuplicateIDOverwrites(t *testing.T) {
	idx := New(zerolog.Nop())
	_ = idx.CreateIndex("X", 2, models.MetricCosine)
	_ = idx.Add("X", models.Embedding{ID: "a", Vector: []float32{1, 0}})
	_ = idx.Add("X", models.Embedding{ID: "a", Vector: []float32{0, 1}})

	stats, err := idx.Stats("X")
	if err != nil {
		t.Fatal(err)
	}
	if stats.Size != 1 {
		t.Fatalf("size = %d, want 1", stats.Size)
	}
}

func TestVectorIndex_RemoveNotFound(t *testing.T) {
	idx := New(zerolog.Nop())
	_ = idx.CreateIndex("X", 2, models.MetricCosine)
	err := idx.Remove("X", "missing")
	if !errors.Is(err, ErrEmbeddingNotFound) {
		t.Fatalf("err = %v, want ErrEmbeddingNotFound", err)
	}
}

func TestVectorIndex_KGreaterThanSizeReturnsAll(t *testing.T) {
	idx := New(zerolog.Nop())
	_ = idx.CreateIndex("X", 2, models.MetricCosine)
	_ = idx.Add("X", models.Embedding{ID: "a", Vector: []float32{1, 0}})
	_ = idx.Add("X", models.Embedding{ID: "b", Vector: []float32{0, 1}})

	results, err := idx.Search("X", []float32{1, 0}, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 2 {
		t.Fatalf("len = %d, want 2", len(results))
	}
}
