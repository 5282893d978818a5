// Package models contains the value types shared across ARCADIA's
// component packages: embeddings, experiences, priority classes, and
// search results. Types that belong to a single component (world
// state, feedback items, layer definitions, DHT entries) live in that
// component's own package instead.
package models

import "github.com/google/uuid"

// NewID returns a fresh random identifier suitable for Embedding,
// Experience, or any other entity whose caller does not supply one.
func NewID() string {
	return uuid.NewString()
}
