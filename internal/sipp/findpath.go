package sipp

import (
	"context"

	"github.com/elektrokombinacija/mapf-sipp/internal/constraint"
	"github.com/elektrokombinacija/mapf-sipp/internal/core"
	"github.com/elektrokombinacija/mapf-sipp/internal/pathtable"
	"github.com/elektrokombinacija/mapf-sipp/internal/reservation"
)

// FindPath is Mode A: best-effort minimum-collision search, FOCAL-only (no
// w-bounded focal — every generated node is focal-eligible), tie-broken by
// (num_of_conflicts, f, h). Used by the LNS driver to repair an agent's
// path under hard constraints while minimizing soft collisions against
// other agents' current paths.
//
// pt, if non-nil, supplies the future-collision goal-dominance check: a
// node at goal is only accepted immediately if no agent ever revisits the
// goal cell afterward; otherwise a virtual goal node competes in FOCAL on
// its (now inflated) conflict count, so the planner may prefer a longer,
// collision-free arrival.
func (p *Planner) FindPath(ctx context.Context, ct *constraint.Table, pt *pathtable.Table) core.Path {
	rt := reservation.New(ct, p.Goal)
	ar := newArena()

	first := rt.FirstSafeInterval(p.Start)
	if first.Low > 0 {
		return nil // blocked at start at time 0: infeasible from start
	}

	holdingTime := ct.GetHoldingTime(p.Goal, ct.LengthMin)
	startH := p.h(p.Start)
	if holdingTime > startH {
		startH = holdingTime
	}
	if pt != nil {
		if pht := pt.HoldingTime(p.Goal, ct.LengthMin); pht > startH && pht != pathtable.HoldsForever {
			startH = pht
		}
	}
	start := ar.create(p.Start, 0, startH, nil, 0, first, 0)
	ar.insert(start)

	focal := &focalHeap{}
	pushFocal(focal, start)
	start.InOpenList = true

	var result core.Path
	for focal.Len() > 0 {
		if timedOut(ctx) {
			return nil
		}
		curr := popFocal(focal)
		curr.InOpenList = false

		if curr.IsGoal {
			result = reconstruct(curr.Parent)
			break
		}

		if curr.Cell == p.Goal && !curr.WaitAtGoal && curr.Timestep >= holdingTime {
			future := 0
			if pt != nil {
				future = pt.FutureCollisions(p.Goal, curr.Timestep)
			}
			if future == 0 {
				result = reconstruct(curr)
				break
			}
			p.generateGoalNode(ar, focal, curr, future)
		}

		p.expandMoves(curr, rt, ct.LengthMax, func(iv reservation.Interval, next core.Cell, nextH int) {
			p.generateChildToFocal(ar, focal, iv, curr, next, nextH)
		})
		p.expandWait(curr, rt, func(iv reservation.Interval) {
			p.generateChildToFocal(ar, focal, iv, curr, curr.Cell, curr.H)
		})
	}

	return result
}

// generateGoalNode creates (or updates) the virtual goal node copying curr
// but tagged IsGoal=true, with futureCollisions folded into its conflict
// count so it competes in FOCAL like any other node.
func (p *Planner) generateGoalNode(ar *arena, focal *focalHeap, curr *Node, futureCollisions int) {
	key := nodeKey{cell: curr.Cell, low: curr.Interval.Low, isGoal: true}
	newConflicts := curr.NumConflicts + futureCollisions
	if existing, ok := ar.find(key); ok {
		if existing.Timestep > curr.Timestep ||
			(existing.Timestep == curr.Timestep && existing.NumConflicts > newConflicts) {
			existing.G, existing.H = curr.G, curr.H
			existing.Timestep = curr.Timestep
			existing.Interval = curr.Interval
			existing.WaitAtGoal = curr.WaitAtGoal
			existing.Parent = curr
			existing.NumConflicts = newConflicts
			if !existing.InOpenList {
				existing.InOpenList = true
				pushFocal(focal, existing)
			} else {
				fixFocal(focal, existing)
			}
		}
		return
	}
	goal := ar.create(curr.Cell, curr.G, curr.H, curr, curr.Timestep, curr.Interval, curr.NumConflicts+futureCollisions)
	goal.IsGoal = true
	goal.WaitAtGoal = curr.WaitAtGoal
	goal.InOpenList = true
	pushFocal(focal, goal)
	ar.insert(goal)
}

// generateChildToFocal is Mode A's child generator, grounded on
// original_source/src/SIPP.cpp's generateChildToFocal: the raw per-step
// collision count from the interval is added once, NOT multiplied by the
// number of waiting steps the interval's delayed start absorbed (unlike
// Mode B's generateChild) — grounded on the original rather than
// following the original rather than guessing.
func (p *Planner) generateChildToFocal(ar *arena, focal *focalHeap, iv reservation.Interval, curr *Node, next core.Cell, nextH int) {
	nextTimestep := curr.Timestep + 1
	if iv.Low > nextTimestep {
		nextTimestep = iv.Low
	}
	if h := curr.F() - nextTimestep; h > nextH {
		nextH = h // path-max heuristic consistency repair
	}
	conflicts := curr.NumConflicts + iv.NumCollisions

	candidate := ar.create(next, nextTimestep, nextH, curr, nextTimestep, iv, conflicts)
	if next == p.Goal && curr.Cell == p.Goal {
		candidate.WaitAtGoal = true
	}

	key := keyOf(candidate)
	existing, ok := ar.find(key)
	if !ok {
		candidate.InOpenList = true
		ar.insert(candidate)
		pushFocal(focal, candidate)
		return
	}

	if existing.Timestep > candidate.Timestep ||
		(existing.Timestep == candidate.Timestep && existing.NumConflicts > candidate.NumConflicts) {
		existing.copyFrom(candidate)
		if !existing.InOpenList {
			existing.InOpenList = true
			pushFocal(focal, existing)
		} else {
			fixFocal(focal, existing)
		}
	}
}

// copyFrom overwrites n's mutable search fields from src, preserving n's
// own identity (Cell/Interval.Low/IsGoal) and heap bookkeeping.
func (n *Node) copyFrom(src *Node) {
	n.G = src.G
	n.H = src.H
	n.Parent = src.Parent
	n.Timestep = src.Timestep
	n.Interval = src.Interval
	n.NumConflicts = src.NumConflicts
	n.WaitAtGoal = src.WaitAtGoal
}
