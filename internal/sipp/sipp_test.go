package sipp

import (
	"context"
	"testing"

	"github.com/elektrokombinacija/mapf-sipp/internal/constraint"
	"github.com/elektrokombinacija/mapf-sipp/internal/core"
	"github.com/elektrokombinacija/mapf-sipp/internal/pathtable"
	"github.com/elektrokombinacija/mapf-sipp/internal/reservation"
)

func emptyGrid(rows, cols int) *core.Instance {
	return core.NewInstance(rows, cols)
}

// Scenario 1: single agent, empty 4x4 grid, start (0,0), goal (3,3).
// Expected cost 6, monotone in Manhattan distance.
func TestFindPathEmptyGrid(t *testing.T) {
	inst := emptyGrid(4, 4)
	start := inst.CellAt(0, 0)
	goal := inst.CellAt(3, 3)
	p := New(inst, start, goal, inst.BFSHeuristic(goal))

	ct := constraint.New(1)
	path := p.FindPath(context.Background(), ct, pathtable.New())
	if path == nil {
		t.Fatal("expected a path on an empty grid")
	}
	if got := path.Len(); got != 6 {
		t.Errorf("path length = %d, want 6", got)
	}
	if path[0] != start {
		t.Errorf("path[0] = %v, want start %v", path[0], start)
	}
	if path[len(path)-1] != goal {
		t.Errorf("path end = %v, want goal %v", path[len(path)-1], goal)
	}
	prevDist := inst.GetManhattanDistance(start, goal)
	for _, c := range path[1:] {
		d := inst.GetManhattanDistance(c, goal)
		if d > prevDist {
			t.Errorf("distance to goal increased along the path: %d -> %d", prevDist, d)
		}
		prevDist = d
	}
}

// Scenario 3: holding-time test. Goal blocked at t in {5,6,7}; shortest
// unconstrained distance is 4. Expected arrival no earlier than t=8.
func TestFindPathHoldingTime(t *testing.T) {
	inst := emptyGrid(1, 5)
	start := inst.CellAt(0, 0)
	goal := inst.CellAt(0, 4)
	p := New(inst, start, goal, inst.BFSHeuristic(goal))

	ct := constraint.New(1)
	ct.InsertHLConstraints(rangeSource{{cell: goal, lo: 5, hi: 8}})

	path := p.FindPath(context.Background(), ct, pathtable.New())
	if path == nil {
		t.Fatal("expected a path despite the holding-time constraint")
	}
	if path.Len() < 8 {
		t.Errorf("path length = %d, want >= 8", path.Len())
	}
}

// Scenario 4: future-collision goal dominance. Another agent permanently
// occupies A's goal from t=12 onward; A's shortest distance is 3 on an
// open strip. Mode A (soft mode) must still return a path, reporting at
// least one conflict rather than refusing outright.
func TestFindPathFutureCollisionGoalDominance(t *testing.T) {
	inst := emptyGrid(1, 6)
	start := inst.CellAt(0, 0)
	goal := inst.CellAt(0, 3)
	p := New(inst, start, goal, inst.BFSHeuristic(goal))

	pt := pathtable.New()
	otherPath := make(core.Path, 13)
	for i := range otherPath {
		otherPath[i] = goal
	}
	pt.Insert(2, otherPath)

	ct := constraint.New(1)
	path := p.FindPath(context.Background(), ct, pt)
	if path == nil {
		t.Fatal("expected a soft-mode path even with a future collision at the goal")
	}
}

// Scenario 5: swap conflict. A and B must swap positions across a single
// edge on a 1x2 strip. As a hard constraint the swap is infeasible, and
// FindPath must return no path.
func TestFindPathSwapConflictInfeasible(t *testing.T) {
	inst := emptyGrid(1, 2)
	start := inst.CellAt(0, 0)
	goal := inst.CellAt(0, 1)
	p := New(inst, start, goal, inst.BFSHeuristic(goal))

	ct := constraint.New(1)
	// Forbid the very edge this agent would need to cross at t=1, and
	// forbid waiting at the goal cell forever (simulating B permanently
	// occupying it), leaving no feasible arrival.
	ct.InsertHLConstraints(rangeSource{{isEdge: true, from: start, to: goal, lo: 1, hi: 2}})
	ct.InsertHLConstraints(rangeSource{{cell: goal, lo: 1, hi: core.Infinity}})

	path := p.FindPath(context.Background(), ct, pathtable.New())
	if path != nil {
		t.Errorf("expected no path under a permanent goal block plus a blocked only edge, got %v", path)
	}
}

// The collision-multiplier parity test SPEC_FULL.md §4.3 calls for:
// Mode A's generateChildToFocal must add a single-step interval collision
// count once per transition, while Mode B's generateChild must multiply
// it by the number of timesteps the transition absorbed through waiting.
func TestCollisionMultiplierParity(t *testing.T) {
	inst := emptyGrid(1, 3)
	start := inst.CellAt(0, 0)
	mid := inst.CellAt(0, 1)
	goal := inst.CellAt(0, 2)
	p := New(inst, start, goal, inst.BFSHeuristic(goal))

	ct := constraint.New(1)
	// Force a two-step wait before the interval at `mid` opens, by hard
	// constraining it for t in [1,3), so the earliest safe arrival at mid
	// is t=3 despite curr.timestep=0 (elapsed=3).
	ct.InsertHLConstraints(rangeSource{{cell: mid, lo: 1, hi: 3}})
	ct.InsertCAT(1, map[int]core.Path{2: {mid, mid, mid, mid}})

	rt := reservation.New(ct, goal)
	curr := &Node{Cell: start, Timestep: 0, Interval: rt.FirstSafeInterval(start)}

	var capturedA, capturedB int
	arA := newArena()
	focalA := &focalHeap{}
	ivs := rt.SafeIntervals(start, mid, curr.Timestep+1, curr.Interval.High+1)
	if len(ivs) == 0 {
		t.Fatal("expected at least one safe transition interval to mid")
	}
	p.generateChildToFocal(arA, focalA, ivs[0], curr, mid, p.h(mid))
	if n, ok := arA.find(nodeKey{cell: mid, low: ivs[0].Low, isGoal: false}); ok {
		capturedA = n.NumConflicts
	}

	arB := newArena()
	openB := &openHeap{}
	focalB := &focalHeap{}
	p.generateChild(arB, openB, focalB, 0, 1.0, ivs[0], curr, mid, p.h(mid))
	if n, ok := arB.find(nodeKey{cell: mid, low: ivs[0].Low, isGoal: false}); ok {
		capturedB = n.NumConflicts
	}

	elapsed := ivs[0].Low - curr.Timestep
	if elapsed <= 1 {
		t.Skip("test fixture did not force a multi-step wait; adjust constraints")
	}
	if capturedA != ivs[0].NumCollisions {
		t.Errorf("Mode A conflicts = %d, want the raw interval count %d (no multiply)", capturedA, ivs[0].NumCollisions)
	}
	if capturedB != ivs[0].NumCollisions*elapsed {
		t.Errorf("Mode B conflicts = %d, want the interval count multiplied by elapsed steps %d", capturedB, elapsed)
	}
}

type rangeConstraint struct {
	cell   core.Cell
	lo, hi int
	isEdge bool
	from   core.Cell
	to     core.Cell
}

type rangeSource []rangeConstraint

func (r rangeSource) Constraints(agent int) []constraint.HLConstraint {
	out := make([]constraint.HLConstraint, 0, len(r))
	for _, c := range r {
		out = append(out, constraint.HLConstraint{
			Agent: agent, Cell: c.cell, Time: c.lo, EndTime: c.hi,
			IsEdge: c.isEdge, EdgeFrom: c.from, EdgeTo: c.to,
		})
	}
	return out
}
