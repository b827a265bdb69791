// Package constraint implements the per-agent Constraint Table: the bundle
// of hard constraints, path-length bounds, and collision-avoidance data a
// single SIPP call is planned against.
//
// Grounded on original_source/inc/InitLNS.h's ConstraintTable usage
// (insert2CT/insert2CAT/getHoldingTime/getMaxTimestep) and on
// internal/algo/solver.go's Constraint struct, generalized from continuous
// float64 time to an integer timestep model.
package constraint

import "github.com/elektrokombinacija/mapf-sipp/internal/core"

// HLConstraint is the consumed external representation of a single
// high-level-search constraint: "agent is forbidden at cell at time", or
// the edge/range variants this system needs.
type HLConstraint struct {
	Agent    int
	Cell     core.Cell
	Time     int
	EndTime  int // for range constraints; EndTime <= Time means a point constraint
	IsEdge   bool
	EdgeFrom core.Cell
	EdgeTo   core.Cell
}

// HLConstraintSource is the consumed interface over a high-level search
// node's accumulated constraints for one agent.
type HLConstraintSource interface {
	Constraints(agent int) []HLConstraint
}

type catEntry struct {
	path core.Path
}

// Table bundles one agent's hard constraints plus a soft
// collision-avoidance table (CAT) built from other agents' current paths.
type Table struct {
	AgentID int

	// hard constraints, keyed by cell/edge
	vertexConstraints map[core.Cell][]timeRange
	edgeConstraints   map[edgeKey][]timeRange

	LengthMin int
	LengthMax int

	maxTimestep int

	cat []catEntry // other agents' paths, for soft-conflict accounting
}

type timeRange struct{ lo, hi int } // [lo, hi)

type edgeKey struct{ from, to core.Cell }

// New creates an empty constraint table for the given agent, with
// length_max defaulting to core.Infinity (no upper bound).
func New(agentID int) *Table {
	return &Table{
		AgentID:           agentID,
		vertexConstraints: make(map[core.Cell][]timeRange),
		edgeConstraints:   make(map[edgeKey][]timeRange),
		LengthMax:         core.Infinity,
	}
}

// InsertHLConstraints pulls every constraint the source has accumulated for
// this table's agent and records it as a hard constraint.
func (t *Table) InsertHLConstraints(src HLConstraintSource) {
	if src == nil {
		return
	}
	for _, c := range src.Constraints(t.AgentID) {
		end := c.EndTime
		if end <= c.Time {
			end = c.Time + 1
		}
		if c.IsEdge {
			t.addEdgeConstraint(c.EdgeFrom, c.EdgeTo, c.Time, end)
		} else {
			t.addVertexConstraint(c.Cell, c.Time, end)
		}
	}
}

func (t *Table) addVertexConstraint(c core.Cell, lo, hi int) {
	t.vertexConstraints[c] = append(t.vertexConstraints[c], timeRange{lo, hi})
	if hi-1 > t.maxTimestep {
		t.maxTimestep = hi - 1
	}
}

func (t *Table) addEdgeConstraint(from, to core.Cell, lo, hi int) {
	key := edgeKey{from, to}
	t.edgeConstraints[key] = append(t.edgeConstraints[key], timeRange{lo, hi})
	if hi-1 > t.maxTimestep {
		t.maxTimestep = hi - 1
	}
}

// InsertCAT registers every other agent's path in the collision-avoidance
// table, for soft-conflict counting. paths is a snapshot; the caller must
// rebuild a fresh Table whenever the underlying paths change (sharing a CAT
// snapshot across mutations of the path table is unsafe, per design).
func (t *Table) InsertCAT(excludeAgent int, paths map[int]core.Path) {
	t.cat = t.cat[:0]
	for agent, p := range paths {
		if agent == excludeAgent || len(p) == 0 {
			continue
		}
		t.cat = append(t.cat, catEntry{path: p})
	}
}

// Constrained reports whether agent is hard-forbidden from occupying c at
// timestep t.
func (t *Table) Constrained(c core.Cell, ts int) bool {
	for _, r := range t.vertexConstraints[c] {
		if ts >= r.lo && ts < r.hi {
			return true
		}
	}
	return false
}

// ConstrainedEdge reports whether agent is hard-forbidden from traversing
// from->to at timestep t (the step that arrives at `to` at time t).
func (t *Table) ConstrainedEdge(from, to core.Cell, ts int) bool {
	for _, r := range t.edgeConstraints[edgeKey{from, to}] {
		if ts >= r.lo && ts < r.hi {
			return true
		}
	}
	return false
}

// GetHoldingTime returns the smallest t >= lengthMin such that occupying
// goal at every timestep >= t is unconstrained forever. Found by repeatedly
// advancing past any constraint range that still overlaps the candidate
// holding time, until no constraint reaches it.
func (t *Table) GetHoldingTime(goal core.Cell, lengthMin int) int {
	holding := lengthMin
	for {
		advanced := false
		for _, r := range t.vertexConstraints[goal] {
			if r.hi > holding {
				holding = r.hi
				advanced = true
			}
		}
		if !advanced {
			return holding
		}
	}
}

// GetMaxTimestep returns the last timestep referenced by any hard
// constraint; beyond it the world is static (no more constraints apply).
func (t *Table) GetMaxTimestep() int { return t.maxTimestep }

// CATOccupiesAt counts how many CAT paths occupy c at timestep ts (for soft
// vertex-collision accounting). Edge swaps are counted separately by
// CATSwapAt.
func (t *Table) CATOccupiesAt(c core.Cell, ts int) int {
	count := 0
	for _, e := range t.cat {
		if v, ok := e.path.At(ts); ok && v == c {
			count++
		}
	}
	return count
}

// CATSwapAt counts CAT paths executing the reverse edge to->from arriving
// at timestep ts, i.e. at ts-1 they were at `to` and at ts they are at
// `from` — the classic swap-conflict signature.
func (t *Table) CATSwapAt(from, to core.Cell, ts int) int {
	count := 0
	for _, e := range t.cat {
		prev, ok1 := e.path.At(ts - 1)
		cur, ok2 := e.path.At(ts)
		if ok1 && ok2 && prev == to && cur == from {
			count++
		}
	}
	return count
}
