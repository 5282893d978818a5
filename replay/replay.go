// Package replay implements the experience replay buffer: a
// fixed-capacity circular store with priority-weighted sampling,
// grounded on the original_source experience_replay.rs module.
package replay

import (
	"errors"
	"math"
	"sort"
	"sync"

	"github.com/rs/zerolog"

	"github.com/arcadia-ai/arcadia/internal/randsrc"
	"github.com/arcadia-ai/arcadia/pkg/models"
)

// ErrEmpty is returned by Sample/SamplePrioritized when the buffer
// holds no entries.
var ErrEmpty = errors.New("replay: buffer is empty")

// Entry pairs a stored Experience with its priority class and how
// many times it has been drawn by a sampling call.
type Entry struct {
	Experience  models.Experience
	Priority    models.Priority
	SampleCount int
}

// Episode is a derived, read-only roll-up of consecutive same-agent
// entries split on Done==true (original_source's Episode struct;
// see SPEC_FULL.md's "Supplemented features").
type Episode struct {
	AgentID    string
	Members    []string
	AvgReward  float64
}

// Stats summarizes a buffer's current occupancy.
type Stats struct {
	Capacity  int
	Len       int
	TotalAdds int
}

// Buffer is a fixed-capacity circular experience store.
type Buffer struct {
	mu        sync.RWMutex
	capacity  int
	entries   []Entry
	pos       int
	totalAdds int
	rng       *randsrc.Source
	log       zerolog.Logger
}

// New returns an empty Buffer of the given capacity. A nil rng
// defaults to a time-seeded source; tests should pass a seeded one
// for determinism.
func New(capacity int, rng *randsrc.Source, log zerolog.Logger) *Buffer {
	if rng == nil {
		rng = randsrc.New()
	}
	return &Buffer{
		capacity: capacity,
		entries:  make([]Entry, 0, capacity),
		rng:      rng,
		log:      log,
	}
}

// Add inserts exp with PriorityNormal. Equivalent to
// AddWithPriority(exp, PriorityNormal).
func (b *Buffer) Add(exp models.Experience) {
	b.AddWithPriority(exp, models.PriorityNormal)
}

// AddWithPriority inserts exp tagged with the given priority class.
// When the buffer is below capacity, entries append; once full, each
// insert overwrites the oldest slot and advances the write cursor,
// preserving chronological order across wraparound for GetRecent.
func (b *Buffer) AddWithPriority(exp models.Experience, prio models.Priority) {
	b.mu.Lock()
	defer b.mu.Unlock()

	entry := Entry{Experience: exp, Priority: prio}
	if len(b.entries) < b.capacity {
		b.entries = append(b.entries, entry)
		b.pos = len(b.entries) % b.capacity
	} else {
		b.entries[b.pos] = entry
		b.pos = (b.pos + 1) % b.capacity
	}
	b.totalAdds++
}

// Sample draws a uniform random sample of min(k, len) distinct
// entries, incrementing each chosen entry's SampleCount.
func (b *Buffer) Sample(k int) ([]Entry, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if len(b.entries) == 0 {
		return nil, ErrEmpty
	}
	n := k
	if n > len(b.entries) {
		n = len(b.entries)
	}
	perm := b.rng.Perm(len(b.entries))
	out := make([]Entry, 0, n)
	for i := 0; i < n; i++ {
		idx := perm[i]
		b.entries[idx].SampleCount++
		out = append(out, b.entries[idx])
	}
	return out, nil
}

// SamplePrioritized draws k entries with replacement, weighted by
// each entry's priority class weight (1/3/10 for Normal/High/
// Critical).
func (b *Buffer) SamplePrioritized(k int) ([]Entry, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if len(b.entries) == 0 {
		return nil, ErrEmpty
	}

	weights := make([]float64, len(b.entries))
	var total float64
	for i, e := range b.entries {
		weights[i] = e.Priority.Weight()
		total += weights[i]
	}

	out := make([]Entry, 0, k)
	for i := 0; i < k; i++ {
		target := b.rng.Float64() * total
		var acc float64
		chosen := len(weights) - 1
		for idx, w := range weights {
			acc += w
			if target < acc {
				chosen = idx
				break
			}
		}
		b.entries[chosen].SampleCount++
		out = append(out, b.entries[chosen])
	}
	return out, nil
}

// GetRecent returns the last min(n, len) entries in chronological
// order. When the buffer is at capacity, the chronological "last n"
// window starts at (pos + capacity - n) mod capacity.
func (b *Buffer) GetRecent(n int) []Entry {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if n > len(b.entries) {
		n = len(b.entries)
	}
	if n == 0 {
		return nil
	}
	if len(b.entries) < b.capacity {
		return append([]Entry(nil), b.entries[len(b.entries)-n:]...)
	}

	start := (b.pos + b.capacity - n) % b.capacity
	out := make([]Entry, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, b.entries[(start+i)%b.capacity])
	}
	return out
}

// GetByAgent returns every stored entry for the given agent id.
func (b *Buffer) GetByAgent(agentID string) []Entry {
	b.mu.RLock()
	defer b.mu.RUnlock()

	var out []Entry
	for _, e := range b.entries {
		if e.Experience.AgentID == agentID {
			out = append(out, e)
		}
	}
	return out
}

// GetHighReward returns the top ceil(len*p) entries sorted by reward
// descending, for p in (0, 1].
func (b *Buffer) GetHighReward(p float64) []Entry {
	b.mu.RLock()
	defer b.mu.RUnlock()

	sorted := append([]Entry(nil), b.entries...)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Experience.Reward > sorted[j].Experience.Reward
	})

	count := int(math.Ceil(p * float64(len(sorted))))
	if count > len(sorted) {
		count = len(sorted)
	}
	return sorted[:count]
}

// Episodes groups agentID's entries (in stored order) into episodes
// split on Done==true, each with its mean reward. This is a read-only
// derived view; it does not change storage semantics.
func (b *Buffer) Episodes(agentID string) []Episode {
	b.mu.RLock()
	defer b.mu.RUnlock()

	var episodes []Episode
	var members []string
	var sum float64

	flush := func() {
		if len(members) == 0 {
			return
		}
		episodes = append(episodes, Episode{
			AgentID:   agentID,
			Members:   members,
			AvgReward: sum / float64(len(members)),
		})
		members = nil
		sum = 0
	}

	for _, e := range b.entries {
		if e.Experience.AgentID != agentID {
			continue
		}
		members = append(members, e.Experience.ID)
		sum += float64(e.Experience.Reward)
		if e.Experience.Done {
			flush()
		}
	}
	flush()
	return episodes
}

// Clear resets the buffer to empty.
func (b *Buffer) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.entries = b.entries[:0]
	b.pos = 0
}

// Stats returns the buffer's current occupancy.
func (b *Buffer) Stats() Stats {
	b.mu.RLock()
	defer b.mu.RUnlock()

	return Stats{Capacity: b.capacity, Len: len(b.entries), TotalAdds: b.totalAdds}
}
