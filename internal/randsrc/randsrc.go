// Package randsrc wraps math/rand so each ARCADIA component owns its
// own seedable generator instead of sharing process-global state
// (spec §5: "the random-number generator is per-component").
package randsrc

import (
	"math/rand"
	"time"
)

// Source is a per-component PRNG. It is not safe for concurrent use;
// callers hold their component's lock while drawing from it, same as
// every other piece of mutable component state.
type Source struct {
	r *rand.Rand
}

// New returns a Source seeded from the current time. Use NewSeeded in
// tests that need reproducible draws.
func New() *Source {
	return NewSeeded(time.Now().UnixNano())
}

// NewSeeded returns a Source seeded deterministically, matching the
// teacher's own test fixtures (rand.New(rand.NewSource(seed))).
func NewSeeded(seed int64) *Source {
	return &Source{r: rand.New(rand.NewSource(seed))}
}

// Intn returns a pseudo-random int in [0, n).
func (s *Source) Intn(n int) int {
	return s.r.Intn(n)
}

// Float64 returns a pseudo-random float64 in [0.0, 1.0).
func (s *Source) Float64() float64 {
	return s.r.Float64()
}

// Perm returns a pseudo-random permutation of [0, n).
func (s *Source) Perm(n int) []int {
	return s.r.Perm(n)
}
