// Package layers implements the layer DAG: named, versioned parameter
// bundles with a dependency set, updated in response to optimizer
// output, grounded on original_source's paris/layers.rs.
package layers

import (
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/arcadia-ai/arcadia/internal/clock"
	"github.com/arcadia-ai/arcadia/optimizer"
)

// Type classifies a layer's role in the stack.
type Type int

const (
	TypeCoreModel Type = iota
	TypeAPI
	TypeApplication
	TypeCustom
)

// Status is a layer's lifecycle state.
type Status int

const (
	StatusInactive Status = iota
	StatusInitializing
	StatusActive
	StatusUpdating
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusInactive:
		return "inactive"
	case StatusInitializing:
		return "initializing"
	case StatusActive:
		return "active"
	case StatusUpdating:
		return "updating"
	case StatusError:
		return "error"
	default:
		return "unknown"
	}
}

// Definition is a layer's static shape: id, type, priority, and the
// ids of layers it depends on.
type Definition struct {
	ID           string
	Type         Type
	Priority     int
	Dependencies []string
}

// State is a layer's mutable runtime state.
type State struct {
	LayerID     string
	Status      Status
	Version     uint64
	Params      map[string]float32
	LastUpdated int64
}

// MissingDependency reports that a layer depends on an id the DAG
// does not know about.
type MissingDependency struct {
	Layer     string
	DependsOn string
}

func (e *MissingDependency) Error() string {
	return fmt.Sprintf("layers: layer %q depends on unknown layer %q", e.Layer, e.DependsOn)
}

// ErrLayerFusionDisabled is returned by FuseLayers when fusion is
// disabled in Config.
var ErrLayerFusionDisabled = errors.New("layers: layer fusion is disabled")

// ErrLayerNotFound is returned when an operation names an unknown
// layer id.
var ErrLayerNotFound = errors.New("layers: layer not found")

// Config controls optional capabilities.
type Config struct {
	EnableFusion bool
}

// Manager owns the layer DAG: definitions plus per-layer runtime
// state.
type Manager struct {
	mu    sync.RWMutex
	cfg   Config
	defs  map[string]Definition
	order []string // insertion order, for deterministic iteration
	state map[string]*State
	clock clock.Clock
	log   zerolog.Logger
}

// New returns an empty Manager.
func New(cfg Config, clk clock.Clock, log zerolog.Logger) *Manager {
	if clk == nil {
		clk = clock.New()
	}
	return &Manager{
		cfg:   cfg,
		defs:  make(map[string]Definition),
		state: make(map[string]*State),
		clock: clk,
		log:   log,
	}
}

// CreateLayer registers def with status Initializing and version 1.
// It does not verify dependencies by itself — call VerifyDependencies
// once every layer in a DAG has been created.
func (m *Manager) CreateLayer(def Definition) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.defs[def.ID] = def
	m.order = append(m.order, def.ID)
	m.state[def.ID] = &State{
		LayerID:     def.ID,
		Status:      StatusInitializing,
		Version:     1,
		Params:      make(map[string]float32),
		LastUpdated: m.clock.NowMillis(),
	}
}

// VerifyDependencies checks that every layer's dependency ids resolve
// to a known layer. Returns the first *MissingDependency found, or
// nil if the DAG is consistent.
func (m *Manager) VerifyDependencies() error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, id := range m.order {
		def := m.defs[id]
		for _, dep := range def.Dependencies {
			if _, ok := m.defs[dep]; !ok {
				return &MissingDependency{Layer: id, DependsOn: dep}
			}
		}
	}
	return nil
}

// ActivateLayer transitions the layer with the given id to Active, or
// returns ErrLayerNotFound. Callers should call VerifyDependencies
// first; ActivateLayer does not re-check dependencies itself.
func (m *Manager) ActivateLayer(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	st, ok := m.state[id]
	if !ok {
		return fmt.Errorf("layers: %w: %q", ErrLayerNotFound, id)
	}
	st.Status = StatusActive
	st.LastUpdated = m.clock.NowMillis()
	return nil
}

// ActivateAll transitions every registered layer to Active, matching
// the DAG's initialization semantics (spec.md §4.8: "Set all layers
// to Active" once dependencies check out).
func (m *Manager) ActivateAll() {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.clock.NowMillis()
	for _, st := range m.state {
		st.Status = StatusActive
		st.LastUpdated = now
	}
}

// UpdateLayers applies an optimizer.Result to the DAG: for every
// affected layer present in the DAG, it merges the Parameters of
// every optimization whose Target equals that layer id, then bumps
// the layer's version.
func (m *Manager) UpdateLayers(result optimizer.Result) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	byTarget := make(map[string][]optimizer.Optimization)
	for _, opt := range result.Optimizations {
		byTarget[opt.Target] = append(byTarget[opt.Target], opt)
	}

	updated := 0
	now := m.clock.NowMillis()
	for _, id := range result.AffectedLayers {
		st, ok := m.state[id]
		if !ok {
			continue
		}
		st.Status = StatusUpdating
		for _, opt := range byTarget[id] {
			for k, v := range opt.Parameters {
				st.Params[k] = v
			}
		}
		st.Version++
		st.Status = StatusActive
		st.LastUpdated = now
		updated++
	}
	return updated
}

// GetLayerState returns a copy of id's current runtime state.
func (m *Manager) GetLayerState(id string) (State, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	st, ok := m.state[id]
	if !ok {
		return State{}, fmt.Errorf("layers: %w: %q", ErrLayerNotFound, id)
	}
	cp := *st
	cp.Params = make(map[string]float32, len(st.Params))
	for k, v := range st.Params {
		cp.Params[k] = v
	}
	return cp, nil
}

// FuseLayers creates a new layer whose dependencies are sourceIDs.
// Fails with ErrLayerFusionDisabled if Config.EnableFusion is false.
func (m *Manager) FuseLayers(newID string, sourceIDs []string, typ Type, priority int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.cfg.EnableFusion {
		return ErrLayerFusionDisabled
	}
	def := Definition{ID: newID, Type: typ, Priority: priority, Dependencies: append([]string(nil), sourceIDs...)}
	m.defs[newID] = def
	m.order = append(m.order, newID)
	m.state[newID] = &State{
		LayerID:     newID,
		Status:      StatusInitializing,
		Version:     1,
		Params:      make(map[string]float32),
		LastUpdated: m.clock.NowMillis(),
	}
	return nil
}
