// Package pathtable implements the global Path Table (WC): the single
// time-space occupancy structure shared by every agent's SIPP call across
// one LNS iteration. Where a Constraint Table's CAT is a per-call snapshot
// built from whichever paths happen to be "other agents" for that call, the
// Path Table is the live, mutated-in-place record of the plan currently
// held by the driver — agents are inserted and removed from it as the LNS
// loop destroys and repairs them.
//
// Grounded on original_source/inc/InitLNS.h's PathTableWC, generalized from
// its C++ array-of-vectors occupancy index to a Go map-of-paths answering
// three queries: whether a cell is occupied at a given time, how many
// agents will ever revisit a cell after a given time (the goal-dominance
// check SIPP.cpp's findPath uses before accepting an arrival as final),
// and the earliest time beyond which a given cell is never revisited at
// all (a path-based counterpart to the Constraint Table's holding-time
// bound).
package pathtable

import (
	"github.com/elektrokombinacija/mapf-sipp/internal/core"
)

// HoldsForever is the sentinel collision count FutureCollisions reports
// when another agent's path ends (and therefore holds) at the queried
// cell: such an overlap can never be resolved by waiting, so it must
// dominate any ordinary finite count in FOCAL's tie-breaking.
const HoldsForever = 1 << 20

// Table is the current plan's per-agent path set, queryable by cell and
// timestep.
type Table struct {
	paths map[int]core.Path
}

// New creates an empty path table.
func New() *Table {
	return &Table{paths: make(map[int]core.Path)}
}

// Insert records (or replaces) agent's current path.
func (t *Table) Insert(agent int, path core.Path) {
	t.paths[agent] = path
}

// Remove drops agent's path from the table, e.g. before replanning it so
// its own stale path does not count against itself.
func (t *Table) Remove(agent int) {
	delete(t.paths, agent)
}

// Get returns agent's currently recorded path, or nil if absent.
func (t *Table) Get(agent int) core.Path {
	return t.paths[agent]
}

// Paths returns the live map backing the table, for callers (principally
// constraint.Table.InsertCAT) that need a snapshot of every agent's path.
// Callers must not mutate the returned map.
func (t *Table) Paths() map[int]core.Path {
	return t.paths
}

// OccupiedAt counts how many recorded agents occupy cell c at timestep ts,
// honoring the convention that a path holds its last cell forever once
// its length is exhausted.
func (t *Table) OccupiedAt(c core.Cell, ts int) int {
	count := 0
	for _, p := range t.paths {
		if v, ok := p.At(ts); ok && v == c {
			count++
		}
	}
	return count
}

// FutureCollisions reports how many recorded agents occupy cell goal at any
// timestep at or after afterTs. It is the dominance check a SIPP search
// runs before accepting an arrival at its own goal as final: if some other
// agent occupies that cell at the very moment of arrival or passes through
// (or permanently holds) it later, arriving there can't be the true end of
// this agent's path, and HoldsForever is returned if the overlap is itself
// permanent.
func (t *Table) FutureCollisions(goal core.Cell, afterTs int) int {
	count := 0
	for _, p := range t.paths {
		if len(p) == 0 {
			continue
		}
		lastTs := len(p) - 1
		if p[lastTs] == goal {
			return HoldsForever
		}
		for ts := afterTs; ts <= lastTs; ts++ {
			if p[ts] == goal {
				count++
				break
			}
		}
	}
	return count
}

// HoldingTime returns the earliest t >= lengthMin beyond which no recorded
// path ever visits goal again. It is the Path Table's counterpart to
// constraint.Table.GetHoldingTime: that one bounds the holding time against
// hard constraint ranges, this one bounds it against the other agents'
// actual current paths. A SIPP search uses the larger of the two finite
// bounds to seed its start node's heuristic, tightening the search's
// ordering without changing what FutureCollisions still decides at goal
// time. Returns HoldsForever if some recorded path ends at goal, since no
// finite t then satisfies the condition.
func (t *Table) HoldingTime(goal core.Cell, lengthMin int) int {
	holding := lengthMin
	for _, p := range t.paths {
		if len(p) == 0 {
			continue
		}
		lastTs := len(p) - 1
		if p[lastTs] == goal {
			return HoldsForever
		}
		for ts := lastTs; ts >= 0; ts-- {
			if p[ts] == goal {
				if ts+1 > holding {
					holding = ts + 1
				}
				break
			}
		}
	}
	return holding
}

