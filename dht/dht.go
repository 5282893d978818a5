// Package dht implements the distributed key/value overlay: a
// hash-ring replica selection scheme with per-node heartbeats and
// failure detection, grounded on original_source's
// vivian/distributed.rs.
package dht

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/rs/zerolog"

	"github.com/arcadia-ai/arcadia/internal/clock"
)

// NodeStatus is a cluster member's liveness state.
type NodeStatus int

const (
	NodeActive NodeStatus = iota
	NodeInactive
	NodeSyncing
	NodeFailed
)

func (s NodeStatus) String() string {
	switch s {
	case NodeActive:
		return "active"
	case NodeInactive:
		return "inactive"
	case NodeSyncing:
		return "syncing"
	case NodeFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Node is one cluster member.
type Node struct {
	ID            string
	Address       string
	Status        NodeStatus
	LastHeartbeat int64
	DataVersion   uint64
}

// Entry is one stored DHT record.
type Entry struct {
	Key       string
	Value     []byte
	Version   uint64
	Timestamp int64
	Replicas  []string
}

// ClusterStats summarizes the node population and local store.
type ClusterStats struct {
	TotalNodes   int
	ActiveNodes  int
	FailedNodes  int
	DHTEntries   int
	LocalVersion uint64
}

// ErrNoActiveNodes is returned by Put when replica selection runs over
// an empty active-node set.
var ErrNoActiveNodes = errors.New("dht: no active nodes available")

// ErrNodeNotFound is returned by status updates on unknown node ids.
var ErrNodeNotFound = errors.New("dht: node not found")

// Config controls this node's identity and replication policy.
type Config struct {
	NodeID             string
	ReplicationFactor  int
	HeartbeatTimeoutMs int64
	ClusterSize        int
}

// Manager manages the local node's view of the cluster and its share
// of the distributed hash table.
type Manager struct {
	mu           sync.RWMutex
	cfg          Config
	nodes        map[string]*Node
	store        map[string]Entry
	localVersion uint64
	clock        clock.Clock
	log          zerolog.Logger
}

// New returns a Manager with its local node registered and Active.
func New(cfg Config, clk clock.Clock, log zerolog.Logger) *Manager {
	if clk == nil {
		clk = clock.New()
	}
	m := &Manager{
		cfg:   cfg,
		nodes: make(map[string]*Node),
		store: make(map[string]Entry),
		clock: clk,
		log:   log,
	}
	m.nodes[cfg.NodeID] = &Node{
		ID:            cfg.NodeID,
		Status:        NodeActive,
		LastHeartbeat: clk.NowMillis(),
	}
	return m
}

// AddNode registers a cluster member.
func (m *Manager) AddNode(n Node) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := n
	m.nodes[n.ID] = &cp
}

// RemoveNode removes a cluster member.
func (m *Manager) RemoveNode(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.nodes, id)
}

// UpdateNodeStatus sets id's status and refreshes its heartbeat.
func (m *Manager) UpdateNodeStatus(id string, status NodeStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	n, ok := m.nodes[id]
	if !ok {
		return fmt.Errorf("dht: %w: %q", ErrNodeNotFound, id)
	}
	n.Status = status
	n.LastHeartbeat = m.clock.NowMillis()
	return nil
}

// hashKey computes the simple rolling hash h = h*31 + byte.
func hashKey(key string) uint64 {
	var h uint64
	for i := 0; i < len(key); i++ {
		h = h*31 + uint64(key[i])
	}
	return h
}

// selectReplicasLocked picks min(replicationFactor, len(active)) consecutive
// nodes from the active-node list sorted by id, starting at
// hash(key) mod len(active).
func (m *Manager) selectReplicasLocked(key string) ([]string, error) {
	var active []*Node
	for _, n := range m.nodes {
		if n.Status == NodeActive {
			active = append(active, n)
		}
	}
	if len(active) == 0 {
		return nil, ErrNoActiveNodes
	}
	sort.Slice(active, func(i, j int) bool { return active[i].ID < active[j].ID })

	h := hashKey(key)
	start := int(h % uint64(len(active)))
	count := m.cfg.ReplicationFactor
	if count > len(active) {
		count = len(active)
	}

	replicas := make([]string, 0, count)
	for i := 0; i < count; i++ {
		replicas = append(replicas, active[(start+i)%len(active)].ID)
	}
	return replicas, nil
}

// Put selects replicas for key, bumps the manager's local version, and
// stores the entry locally with that new version. Actual network
// replication is out of scope; the
// replica list is recorded for callers/tests.
func (m *Manager) Put(key string, value []byte) (Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	replicas, err := m.selectReplicasLocked(key)
	if err != nil {
		return Entry{}, err
	}

	m.localVersion++
	entry := Entry{
		Key:       key,
		Value:     value,
		Version:   m.localVersion,
		Timestamp: m.clock.NowMillis(),
		Replicas:  replicas,
	}
	m.store[key] = entry
	return entry, nil
}

// Get returns the locally stored entry for key, if any.
func (m *Manager) Get(key string) (Entry, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.store[key]
	return e, ok
}

// Delete removes key from the local store.
func (m *Manager) Delete(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.store, key)
}

// Heartbeat refreshes the local node's last-heartbeat timestamp.
func (m *Manager) Heartbeat() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if n, ok := m.nodes[m.cfg.NodeID]; ok {
		n.LastHeartbeat = m.clock.NowMillis()
	}
}

// CheckNodeHealth marks every Active node whose last heartbeat
// exceeds HeartbeatTimeoutMs as Failed, and returns their ids.
func (m *Manager) CheckNodeHealth() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.clock.NowMillis()
	var failed []string
	for id, n := range m.nodes {
		if n.Status == NodeActive && now-n.LastHeartbeat > m.cfg.HeartbeatTimeoutMs {
			n.Status = NodeFailed
			failed = append(failed, id)
		}
	}
	return failed
}

// GetClusterStats summarizes node counts and local store size.
func (m *Manager) GetClusterStats() ClusterStats {
	m.mu.RLock()
	defer m.mu.RUnlock()

	stats := ClusterStats{TotalNodes: len(m.nodes), DHTEntries: len(m.store), LocalVersion: m.localVersion}
	for _, n := range m.nodes {
		switch n.Status {
		case NodeActive:
			stats.ActiveNodes++
		case NodeFailed:
			stats.FailedNodes++
		}
	}
	return stats
}
