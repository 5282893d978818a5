package goap

// Action is a named operation with a nonnegative cost that is
// applicable only when its preconditions hold, and whose effects
// overwrite the corresponding world-state keys when applied.
type Action struct {
	Name          string
	Cost          float64
	Preconditions WorldState
	Effects       WorldState
	Metadata      map[string]string
}

// IsApplicable reports whether every precondition key is present in s
// with an equal value.
func (a Action) IsApplicable(s WorldState) bool {
	return s.Satisfies(a.Preconditions)
}

// Apply returns a new world state with a's effects overwritten onto
// (inserted into or replacing within) s. s is not mutated.
func (a Action) Apply(s WorldState) WorldState {
	out := s.Clone()
	for k, v := range a.Effects {
		out[k] = v
	}
	return out
}

// Goal is a partial world state to reach, ranked by priority among
// other unsatisfied goals.
type Goal struct {
	Name         string
	Priority     float64
	DesiredState WorldState
}

// IsSatisfied reports whether s already satisfies g's desired state.
func (g Goal) IsSatisfied(s WorldState) bool {
	return s.Satisfies(g.DesiredState)
}

// Heuristic returns the count of g's desired keys unsatisfied in s.
func (g Goal) Heuristic(s WorldState) int {
	return unsatisfiedCount(s, g.DesiredState)
}

// Plan is an ordered sequence of actions achieving a goal, with their
// summed cost.
type Plan struct {
	GoalName  string
	Actions   []Action
	TotalCost float64
}

// Stats records the bookkeeping of a single Plan call.
type Stats struct {
	NodesExplored   int
	PlanningTimeMs  float64
	PlanLength      int
	TotalCost       float64
}
