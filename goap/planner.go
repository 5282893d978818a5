package goap

import (
	"container/heap"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/arcadia-ai/arcadia/internal/clock"
)

// ErrNoPlan is returned by Plan when no sequence of actions reaches
// the goal within MaxIterations.
var ErrNoPlan = errors.New("goap: no plan found")

const defaultMaxIterations = 1000

// planNode is one arena slot of the A* search graph. Parent links are
// integer indices into the arena (§9's design note: replace
// Option<Box<Node>> recursion with an arena addressed by index, so the
// hot path never touches the allocator for graph linkage).
type planNode struct {
	state     WorldState
	actionIdx int // index into the planner's action list that produced this node, -1 at the root
	g         float64
	h         int
	parent    int // arena index, -1 at the root
}

func (n planNode) f() float64 {
	return n.g + float64(n.h)
}

// openItem is one entry in the A* open set, implementing
// heap.Interface the same way goal_stack.go's goalPriorityQueue does:
// a slice-backed min-heap with a tie-break on insertion order so
// expansion order is deterministic for equal f-scores.
type openItem struct {
	nodeIdx int
	f       float64
	seq     int
	index   int // heap bookkeeping
}

type openQueue []*openItem

func (q openQueue) Len() int { return len(q) }

func (q openQueue) Less(i, j int) bool {
	if q[i].f != q[j].f {
		return q[i].f < q[j].f
	}
	return q[i].seq < q[j].seq
}

func (q openQueue) Swap(i, j int) {
	q[i], q[j] = q[j], q[i]
	q[i].index = i
	q[j].index = j
}

func (q *openQueue) Push(x interface{}) {
	item := x.(*openItem)
	item.index = len(*q)
	*q = append(*q, item)
}

func (q *openQueue) Pop() interface{} {
	old := *q
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	item.index = -1
	*q = old[:n-1]
	return item
}

// Config controls planner limits.
type Config struct {
	MaxIterations int
}

// DefaultConfig returns the spec-mandated default configuration.
func DefaultConfig() Config {
	return Config{MaxIterations: defaultMaxIterations}
}

// Planner performs A* search over discrete world states using a
// registered set of actions and a priority-ranked set of goals.
type Planner struct {
	mu      sync.RWMutex
	cfg     Config
	actions []Action
	goals   []Goal
	world   WorldState
	clock   clock.Clock
	log     zerolog.Logger
	last    Stats
}

// New returns an empty Planner with the given configuration.
func New(cfg Config, clk clock.Clock, log zerolog.Logger) *Planner {
	if cfg.MaxIterations <= 0 {
		cfg.MaxIterations = defaultMaxIterations
	}
	if clk == nil {
		clk = clock.New()
	}
	return &Planner{cfg: cfg, world: make(WorldState), clock: clk, log: log}
}

// AddAction registers an action the planner may use during search.
func (p *Planner) AddAction(a Action) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.actions = append(p.actions, a)
}

// AddGoal registers a goal as a candidate for SelectGoal/PlanBest.
func (p *Planner) AddGoal(g Goal) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.goals = append(p.goals, g)
}

// SetWorldState replaces the planner's current world state wholesale.
func (p *Planner) SetWorldState(s WorldState) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.world = s.Clone()
}

// UpdateState sets a single key in the current world state.
func (p *Planner) UpdateState(key string, v StateValue) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.world[key] = v
}

// SelectGoal returns the highest-priority goal not already satisfied
// by the current world state. Returns false if every goal is already
// satisfied (or there are no goals).
func (p *Planner) SelectGoal() (Goal, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.selectGoalLocked()
}

func (p *Planner) selectGoalLocked() (Goal, bool) {
	var best Goal
	found := false
	for _, g := range p.goals {
		if g.IsSatisfied(p.world) {
			continue
		}
		if !found || g.Priority > best.Priority {
			best = g
			found = true
		}
	}
	return best, found
}

// Plan searches for a minimal-cost sequence of actions from the
// planner's current world state to goal's desired state. Returns
// ErrNoPlan if no plan is found within MaxIterations.
func (p *Planner) Plan(goal Goal) (Plan, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.planLocked(goal)
}

// PlanBest plans for the result of SelectGoal.
func (p *Planner) PlanBest() (Plan, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	goal, ok := p.selectGoalLocked()
	if !ok {
		return Plan{}, ErrNoPlan
	}
	return p.planLocked(goal)
}

func (p *Planner) planLocked(goal Goal) (Plan, error) {
	start := time.Now()

	arena := []planNode{{
		state:     p.world.Clone(),
		actionIdx: -1,
		g:         0,
		h:         goal.Heuristic(p.world),
		parent:    -1,
	}}

	if goal.IsSatisfied(arena[0].state) {
		p.last = Stats{NodesExplored: 1, PlanningTimeMs: elapsedMs(start), PlanLength: 0, TotalCost: 0}
		return Plan{GoalName: goal.Name, Actions: nil, TotalCost: 0}, nil
	}

	open := &openQueue{}
	heap.Init(open)
	seq := 0
	push := func(nodeIdx int) {
		heap.Push(open, &openItem{nodeIdx: nodeIdx, f: arena[nodeIdx].f(), seq: seq})
		seq++
	}
	push(0)

	closed := make(map[string]bool)
	nodesExplored := 0

	for iter := 0; iter < p.cfg.MaxIterations && open.Len() > 0; iter++ {
		item := heap.Pop(open).(*openItem)
		nodeIdx := item.nodeIdx
		node := arena[nodeIdx]
		nodesExplored++

		sig := canonicalSignature(node.state)
		if closed[sig] {
			continue
		}
		closed[sig] = true

		if goal.IsSatisfied(node.state) {
			plan := reconstructPlan(arena, p.actions, nodeIdx, goal.Name)
			p.last = Stats{
				NodesExplored:  nodesExplored,
				PlanningTimeMs: elapsedMs(start),
				PlanLength:     len(plan.Actions),
				TotalCost:      plan.TotalCost,
			}
			return plan, nil
		}

		for ai, action := range p.actions {
			if !action.IsApplicable(node.state) {
				continue
			}
			successor := action.Apply(node.state)
			successorSig := canonicalSignature(successor)
			if closed[successorSig] {
				continue
			}
			arena = append(arena, planNode{
				state:     successor,
				actionIdx: ai,
				g:         node.g + action.Cost,
				h:         goal.Heuristic(successor),
				parent:    nodeIdx,
			})
			push(len(arena) - 1)
		}
	}

	p.last = Stats{NodesExplored: nodesExplored, PlanningTimeMs: elapsedMs(start), PlanLength: 0, TotalCost: 0}
	return Plan{}, ErrNoPlan
}

// reconstructPlan walks the parent chain from goalNodeIdx back to the
// root and returns the actions in root-to-goal order.
func reconstructPlan(arena []planNode, actions []Action, goalNodeIdx int, goalName string) Plan {
	var chain []int
	for idx := goalNodeIdx; idx != -1; idx = arena[idx].parent {
		chain = append(chain, idx)
	}

	planActions := make([]Action, 0, len(chain)-1)
	for i := len(chain) - 1; i >= 0; i-- {
		n := arena[chain[i]]
		if n.actionIdx == -1 {
			continue
		}
		planActions = append(planActions, actions[n.actionIdx])
	}
	return Plan{GoalName: goalName, Actions: planActions, TotalCost: arena[goalNodeIdx].g}
}

func elapsedMs(start time.Time) float64 {
	return float64(time.Since(start).Microseconds()) / 1000.0
}

// LastStats returns the Stats of the most recent Plan/PlanBest call,
// or the zero value if none has run yet.
func (p *Planner) LastStats() Stats {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.last
}
