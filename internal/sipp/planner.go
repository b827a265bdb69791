package sipp

import (
	"context"

	"github.com/elektrokombinacija/mapf-sipp/internal/core"
	"github.com/elektrokombinacija/mapf-sipp/internal/reservation"
)

// Planner runs a single-agent SIPP search for one agent against a borrowed
// Reservation Table and heuristic. A Planner instance may be reused across
// calls; each call owns its own node arena and heaps, freed on return.
type Planner struct {
	Inst      *core.Instance
	Start     core.Cell
	Goal      core.Cell
	Heuristic map[core.Cell]int
}

// New creates a Planner for one agent's start/goal pair over inst, using
// heuristic as the admissible distance-to-goal table.
func New(inst *core.Instance, start, goal core.Cell, heuristic map[core.Cell]int) *Planner {
	return &Planner{Inst: inst, Start: start, Goal: goal, Heuristic: heuristic}
}

func (p *Planner) h(c core.Cell) int {
	if p.Heuristic == nil {
		return p.Inst.GetManhattanDistance(c, p.Goal)
	}
	return p.Heuristic[c]
}

// timedOut reports whether ctx has been cancelled or its deadline has
// passed, checked once per node popped from FOCAL/OPEN.
func timedOut(ctx context.Context) bool {
	if ctx == nil {
		return false
	}
	select {
	case <-ctx.Done():
		return true
	default:
		return false
	}
}

// reconstruct walks the parent chain from the terminal node to the root,
// filling wait steps between a parent's t+1 and a child's t with the
// parent's cell.
func reconstruct(goalNode *Node) core.Path {
	path := make(core.Path, goalNode.Timestep+1)
	curr := goalNode
	for curr.Parent != nil {
		prev := curr.Parent
		for t := prev.Timestep + 1; t < curr.Timestep; t++ {
			path[t] = prev.Cell
		}
		path[curr.Timestep] = curr.Cell
		curr = prev
	}
	if curr.Timestep != 0 {
		panic("mapfsipp: sipp reconstruction reached non-root node with timestep != 0")
	}
	path[0] = curr.Cell
	return path
}

// expandMoves generates, for every neighbor of curr.Cell, one child per
// safe transition interval returned by the reservation table, via
// generate. It is shared by both search modes; generate differs per mode
// (Mode A: generateChildToFocal, Mode B: generateChild).
func (p *Planner) expandMoves(curr *Node, rt *reservation.Table, lengthMax int, generate func(iv reservation.Interval, next core.Cell, nextH int)) {
	for _, next := range p.Inst.GetNeighbors(curr.Cell) {
		nextH := p.h(next)
		ivs := rt.SafeIntervals(curr.Cell, next, curr.Timestep+1, curr.Interval.High+1)
		for _, iv := range ivs {
			nextTimestep := curr.Timestep + 1
			if iv.Low > nextTimestep {
				nextTimestep = iv.Low
			}
			if nextTimestep+nextH > lengthMax {
				continue
			}
			generate(iv, next, nextH)
		}
	}
}

// expandWait generates, at most, one wait child on curr's own cell: the
// next safe interval starting at curr.Interval.High.
func (p *Planner) expandWait(curr *Node, rt *reservation.Table, generate func(iv reservation.Interval)) {
	var iv reservation.Interval
	if rt.FindSafeInterval(&iv, curr.Cell, curr.Interval.High) {
		generate(iv)
	}
}
