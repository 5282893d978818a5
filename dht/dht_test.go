package dht

import (
	"errors"
	"testing"

	"github.com/rs/zerolog"

	"github.com/arcadia-ai/arcadia/internal/clock"
)

func TestManager_E8ReplicaCount(t *testing.T) {
	cfg := Config{NodeID: "A", ReplicationFactor: 5}
	clk := &clock.Fake{Millis: 1}
	m := New(cfg, clk, zerolog.Nop())
	m.AddNode(Node{ID: "B", Status: NodeActive, LastHeartbeat: 1})
	m.AddNode(Node{ID: "C", Status: NodeActive, LastHeartbeat: 1})

	entry, err := m.Put("k", []byte("v"))
	if err != nil {
		t.Fatal(err)
	}
	if len(entry.Replicas) != 3 {
		t.Fatalf("replicas = %v, want len 3 (min(5,3))", entry.Replicas)
	}
}

func TestManager_NoActiveNodes(t *testing.T) {
	cfg := Config{NodeID: "A", ReplicationFactor: 3}
	m := New(cfg, &clock.Fake{}, zerolog.Nop())
	_ = m.UpdateNodeStatus("A", NodeInactive)

	_, err := m.Put("k", []byte("v"))
	if !errors.Is(err, ErrNoActiveNodes) {
		t.Fatalf("err = %v, want ErrNoActiveNodes", err)
	}
}

func TestManager_GetAndDelete(t *testing.T) {
	m := New(Config{NodeID: "A", ReplicationFactor: 1}, &clock.Fake{}, zerolog.Nop())
	_, err := m.Put("k", []byte("v1"))
	if err != nil {
		t.Fatal(err)
	}
	e, ok := m.Get("k")
	if !ok || string(e.Value) != "v1" {
		t.Fatalf("get = %+v, %v", e, ok)
	}
	m.Delete("k")
	if _, ok := m.Get("k"); ok {
		t.Fatal("expected key to be gone after delete")
	}
}

func TestManager_CheckNodeHealthMarksFailed(t *testing.T) {
	clk := &clock.Fake{Millis: 1000}
	cfg := Config{NodeID: "A", HeartbeatTimeoutMs: 500}
	m := New(cfg, clk, zerolog.Nop())
	m.AddNode(Node{ID: "B", Status: NodeActive, LastHeartbeat: 100})

	// now = 3000: B's heartbeat is 100 (diff 2900 > 500) and the local
	// node A's is 1000 from New (diff 2000 > 500), so both time out.
	clk.Advance(2000)
	failed := m.CheckNodeHealth()

	var sawB bool
	for _, id := range failed {
		if id == "B" {
			sawB = true
		}
	}
	if !sawB {
		t.Fatalf("failed = %v, want to include B", failed)
	}

	stats := m.GetClusterStats()
	if stats.FailedNodes != 2 {
		t.Fatalf("failed nodes = %d, want 2 (A and B)", stats.FailedNodes)
	}
}

func TestManager_UpdateNodeStatusNotFound(t *testing.T) {
	m := New(Config{NodeID: "A"}, &clock.Fake{}, zerolog.Nop())
	err := m.UpdateNodeStatus("ghost", NodeFailed)
	if !errors.Is(err, ErrNodeNotFound) {
		t.Fatalf("err = %v, want ErrNodeNotFound", err)
	}
}

func TestManager_InactiveNodeNeverTimesOut(t *testing.T) {
	// Nodes added via AddNode with LastHeartbeat=0 and status != Active
	// should never be considered for failure.
	clk := &clock.Fake{Millis: 10000}
	m := New(Config{NodeID: "A", HeartbeatTimeoutMs: 100}, clk, zerolog.Nop())
	m.AddNode(Node{ID: "B", Status: NodeInactive, LastHeartbeat: 0})

	failed := m.CheckNodeHealth()
	for _, id := range failed {
		if id == "B" {
			t.Fatal("inactive node should not be marked failed")
		}
	}
}
