// Package reservation implements the Reservation Table: a lazy index over
// one Constraint Table that answers safe-interval queries for SIPP.
//
// Grounded on original_source/src/SIPP.cpp's ReservationTable usage
// (get_first_safe_interval/get_safe_intervals/find_safe_interval).
package reservation

import (
	"sort"

	"github.com/elektrokombinacija/mapf-sipp/internal/constraint"
	"github.com/elektrokombinacija/mapf-sipp/internal/core"
)

// Interval is a half-open safe time range [Low, High) for a cell or edge
// transition, with a soft collision count for the step that lands in it.
type Interval struct {
	Low, High     int
	NumCollisions int
}

// Table is a Reservation Table built over one Constraint Table and an
// agent's goal cell.
type Table struct {
	ct   *constraint.Table
	goal core.Cell
}

// New builds a Reservation Table over ct for the agent whose goal is goal.
func New(ct *constraint.Table, goal core.Cell) *Table {
	return &Table{ct: ct, goal: goal}
}

// safeIntervalsAt returns the maximal half-open safe intervals at cell c,
// i.e. the complement of the hard vertex constraints on c, covering
// [0, core.Infinity). It does not itself special-case the goal cell: the
// planner's own goal-detection step (curr.Timestep >= holdingTime, paired
// with the Path Table's FutureCollisions dominance check) is what decides
// whether an arrival there may settle, rather than this table pre-filtering
// out any interval that doesn't reach core.Infinity.
func (rt *Table) safeIntervalsAt(c core.Cell) []Interval {
	maxT := rt.ct.GetMaxTimestep()
	blocked := make([]struct{ lo, hi int }, 0)
	for t := 0; t <= maxT+1; t++ {
		if rt.ct.Constrained(c, t) {
			if n := len(blocked); n > 0 && blocked[n-1].hi == t {
				blocked[n-1].hi = t + 1
			} else {
				blocked = append(blocked, struct{ lo, hi int }{t, t + 1})
			}
		}
	}

	var out []Interval
	cursor := 0
	for _, b := range blocked {
		if b.lo > cursor {
			out = append(out, Interval{Low: cursor, High: b.lo})
		}
		cursor = b.hi
	}
	out = append(out, Interval{Low: cursor, High: core.Infinity})
	return out
}

// FirstSafeInterval returns the earliest safe interval at cell c.
func (rt *Table) FirstSafeInterval(c core.Cell) Interval {
	ivs := rt.safeIntervalsAt(c)
	if len(ivs) == 0 {
		return Interval{Low: core.Infinity, High: core.Infinity}
	}
	return ivs[0]
}

// FindSafeInterval finds the next safe interval at cell c starting at or
// after t, overwriting *interval with it. Returns false if none exists
// before the table's static horizon plus one.
func (rt *Table) FindSafeInterval(interval *Interval, c core.Cell, t int) bool {
	for _, iv := range rt.safeIntervalsAt(c) {
		if iv.High > t && iv.Low <= t {
			*interval = Interval{Low: t, High: iv.High}
			return true
		}
		if iv.Low >= t {
			*interval = iv
			return true
		}
	}
	return false
}

// SafeIntervals returns, in increasing-time order, every safe transition
// interval for from->to whose earliest feasible arrival falls in
// [tLo, tHi). Each interval's NumCollisions is the count of CAT entries
// occupying `to` at the interval's earliest arrival step (Low), plus those
// executing the reverse edge to->from arriving at that same step. CAT
// occupancy of `to` later in the interval is not counted.
func (rt *Table) SafeIntervals(from, to core.Cell, tLo, tHi int) []Interval {
	fromIvs := rt.safeIntervalsAt(from)
	toIvs := rt.safeIntervalsAt(to)

	var out []Interval
	for _, f := range fromIvs {
		// Departure from `from` can happen at any t in [f.Low, f.High); the
		// earliest arrival at `to` for a departure at t is t+1.
		arrivalLo, arrivalHi := f.Low+1, f.High
		if f.High != core.Infinity {
			arrivalHi = f.High + 1
		} else {
			arrivalHi = core.Infinity
		}
		for _, d := range toIvs {
			lo := max(arrivalLo, d.Low)
			hi := min(arrivalHi, d.High)
			if lo >= hi {
				continue
			}
			lo = max(lo, tLo)
			hi = min(hi, tHi)
			if lo >= hi {
				continue
			}
			if rt.ct.ConstrainedEdge(from, to, lo) {
				// The specific step landing at `lo` uses the forbidden edge;
				// shrink by one and see if anything survives.
				lo++
				if lo >= hi {
					continue
				}
			}
			collisions := rt.ct.CATOccupiesAt(to, lo) + rt.ct.CATSwapAt(from, to, lo)
			out = append(out, Interval{Low: lo, High: hi, NumCollisions: collisions})
		}
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Low < out[j].Low })
	return out
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
