package sipp

import (
	"context"

	"github.com/elektrokombinacija/mapf-sipp/internal/constraint"
	"github.com/elektrokombinacija/mapf-sipp/internal/core"
	"github.com/elektrokombinacija/mapf-sipp/internal/reservation"
)

// FindSuboptimalPath is Mode B: bounded-suboptimal search with a dual
// OPEN/FOCAL queue, grounded on original_source/src/SIPP.cpp's
// findSuboptimalPath/generateChild. OPEN orders every generated node by
// (f, h); FOCAL holds the subset with f <= w*min_f, ordered by
// (num_of_conflicts, f, h), so the search returns a path at most a factor
// w above optimal while preferring fewer collisions among equally-cheap
// candidates. lowerBound seeds min_f_val below which FOCAL never needs to
// widen, letting a caller-supplied underestimate (e.g. the Manhattan
// distance) skip one widening pass. The second return value is the final
// min_f_val, a lower bound on the optimal cost.
func (p *Planner) FindSuboptimalPath(ctx context.Context, ct *constraint.Table, w float64, lowerBound int) (core.Path, int) {
	rt := reservation.New(ct, p.Goal)
	ar := newArena()

	first := rt.FirstSafeInterval(p.Start)
	if first.Low > 0 {
		return nil, 0
	}

	holdingTime := ct.GetHoldingTime(p.Goal, ct.LengthMin)
	startH := p.h(p.Start)
	if holdingTime > startH {
		startH = holdingTime
	}
	start := ar.create(p.Start, 0, startH, nil, 0, first, 0)
	ar.insert(start)

	open := &openHeap{}
	focal := &focalHeap{}
	pushOpen(open, start)
	pushFocal(focal, start)
	start.InOpenList = true

	minF := start.F()
	if holdingTime > minF {
		minF = holdingTime
	}
	if lowerBound > minF {
		minF = lowerBound
	}

	var result core.Path
	for open.Len() > 0 {
		if timedOut(ctx) {
			return nil, minF
		}
		p.updateFocalList(open, focal, &minF, w)

		curr := popFocal(focal)
		removeOpen(open, curr)
		curr.InOpenList = false

		if curr.Cell == p.Goal && !curr.WaitAtGoal && curr.Timestep >= holdingTime {
			result = reconstruct(curr)
			break
		}

		p.expandMoves(curr, rt, ct.LengthMax, func(iv reservation.Interval, next core.Cell, nextH int) {
			p.generateChild(ar, open, focal, minF, w, iv, curr, next, nextH)
		})
		p.expandWait(curr, rt, func(iv reservation.Interval) {
			p.generateChild(ar, open, focal, minF, w, iv, curr, curr.Cell, curr.H)
		})
	}

	return result, minF
}

// updateFocalList widens FOCAL's admission bound whenever OPEN's minimum
// f-value has increased, pulling in every OPEN node whose f now falls
// within the new w*min_f bound but fell outside the old one.
func (p *Planner) updateFocalList(open *openHeap, focal *focalHeap, minF *int, w float64) {
	if open.Len() == 0 {
		return
	}
	top := (*open)[0]
	if top.F() <= *minF {
		return
	}
	oldBound := w * float64(*minF)
	newBound := w * float64(top.F())
	for _, n := range *open {
		f := float64(n.F())
		if f > oldBound && f <= newBound {
			pushFocal(focal, n)
		}
	}
	*minF = top.F()
}

// generateChild is Mode B's child generator, grounded on
// original_source/src/SIPP.cpp's generateChild: unlike Mode A's
// generateChildToFocal, the interval's collision count is multiplied by
// the number of timesteps this step advanced past curr (next_timestep -
// curr.timestep) — a wait-laden transition absorbs that many extra
// exposures to whatever is occupying the destination, which a single
// unmultiplied count would understate.
func (p *Planner) generateChild(ar *arena, open *openHeap, focal *focalHeap, minF int, w float64, iv reservation.Interval, curr *Node, next core.Cell, nextH int) {
	nextTimestep := curr.Timestep + 1
	if iv.Low > nextTimestep {
		nextTimestep = iv.Low
	}
	if h := curr.F() - nextTimestep; h > nextH {
		nextH = h // path-max heuristic consistency repair
	}
	elapsed := nextTimestep - curr.Timestep
	conflicts := curr.NumConflicts + iv.NumCollisions*elapsed

	candidate := ar.create(next, nextTimestep, nextH, curr, nextTimestep, iv, conflicts)
	if next == p.Goal && curr.Cell == p.Goal {
		candidate.WaitAtGoal = true
	}

	bound := w * float64(minF)
	key := keyOf(candidate)
	existing, ok := ar.find(key)
	if !ok {
		candidate.InOpenList = true
		ar.insert(candidate)
		pushOpen(open, candidate)
		if float64(candidate.F()) <= bound {
			pushFocal(focal, candidate)
		}
		return
	}

	if existing.Timestep > candidate.Timestep ||
		(existing.Timestep == candidate.Timestep && existing.NumConflicts > candidate.NumConflicts) {
		if !existing.InOpenList {
			existing.copyFrom(candidate)
			existing.InOpenList = true
			pushOpen(open, existing)
			if float64(existing.F()) <= bound {
				pushFocal(focal, existing)
			}
			return
		}

		addToFocal := false
		updateInFocal := false
		updateOpen := false
		if float64(candidate.F()) <= bound {
			if float64(existing.F()) > bound {
				addToFocal = true
			} else {
				updateInFocal = true
			}
		}
		if existing.F() > candidate.F() {
			updateOpen = true
		}

		existing.copyFrom(candidate)

		if updateOpen {
			fixOpen(open, existing)
		}
		if addToFocal {
			pushFocal(focal, existing)
		}
		if updateInFocal {
			fixFocal(focal, existing)
		}
	}
}
