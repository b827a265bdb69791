package lns

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/elektrokombinacija/mapf-sipp/internal/collision"
	"github.com/elektrokombinacija/mapf-sipp/internal/core"
)

// ValidateSolution checks every invariant a returned plan must hold: each
// agent's path starts at its start, ends at its goal, and only steps to a
// neighbor or waits; and, if NumCollidingPairs claims zero, that no pair of
// paths actually still collides. Any violation is fatal and returned
// wrapped in core.ErrInvariantViolation, matching original_source/inc/
// InitLNS.h's validateSolution, which aborts the run on failure rather
// than trying to recover.
func (d *Driver) ValidateSolution() error {
	for _, a := range d.Agents {
		if len(a.Path) == 0 {
			return fmt.Errorf("agent %d has no path: %w", a.ID, core.ErrInvariantViolation)
		}
		if a.Path[0] != a.Start {
			return fmt.Errorf("agent %d starts at %d, want %d: %w", a.ID, a.Path[0], a.Start, core.ErrInvariantViolation)
		}
		if a.Path[len(a.Path)-1] != a.Goal {
			return fmt.Errorf("agent %d ends at %d, want goal %d: %w", a.ID, a.Path[len(a.Path)-1], a.Goal, core.ErrInvariantViolation)
		}
		for t := 0; t < len(a.Path)-1; t++ {
			cur, next := a.Path[t], a.Path[t+1]
			if cur == next {
				continue
			}
			if !isNeighbor(d.Inst, cur, next) {
				return fmt.Errorf("agent %d path discontinuous at t=%d (%d -> %d): %w", a.ID, t, cur, next, core.ErrInvariantViolation)
			}
		}
	}

	if d.NumCollidingPairs == 0 {
		if c := collision.DetectConflict(d.currentPaths()); c != nil {
			return fmt.Errorf("unreported collision between agents %d and %d at t=%d: %w", c.Agent1, c.Agent2, c.Time, core.ErrInvariantViolation)
		}
	}
	return nil
}

func isNeighbor(inst *core.Instance, a, b core.Cell) bool {
	for _, n := range inst.GetNeighbors(a) {
		if n == b {
			return true
		}
	}
	return false
}

// WriteIterationStats writes one CSV row per recorded iteration, with the
// header and column order:
// iteration, runtime, num_of_colliding_pairs, sum_of_costs, neighbor_size,
// destroy_heuristic, selected_neighbor_agents, accepted.
func (d *Driver) WriteIterationStats(w io.Writer) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	header := []string{"iteration", "runtime", "num_of_colliding_pairs", "sum_of_costs",
		"neighbor_size", "destroy_heuristic", "selected_neighbor_agents", "accepted"}
	if err := cw.Write(header); err != nil {
		return err
	}
	for _, s := range d.IterationStats {
		agentStrs := make([]string, len(s.SelectedNeighborAgents))
		for i, a := range s.SelectedNeighborAgents {
			agentStrs[i] = strconv.Itoa(a)
		}
		row := []string{
			strconv.Itoa(s.Iteration),
			strconv.FormatFloat(s.Runtime.Seconds(), 'f', 6, 64),
			strconv.Itoa(s.NumCollidingPairs),
			strconv.Itoa(s.SumOfCosts),
			strconv.Itoa(s.NeighborSize),
			s.DestroyHeuristic,
			strings.Join(agentStrs, " "),
			strconv.FormatBool(s.Accepted),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	return cw.Error()
}

// WriteResult writes the single-line summary:
// solver_name, instance, runtime, initial_sum_of_costs, sum_of_costs,
// sum_of_distances, num_LL_generated, num_of_failures, average_group_size.
func (d *Driver) WriteResult(w io.Writer, solverName, instanceName string, runtimeSeconds float64) error {
	_, err := fmt.Fprintf(w, "%s,%s,%f,%d,%d,%d,%d,%d,%f\n",
		solverName, instanceName, runtimeSeconds,
		d.InitialSumOfCosts, d.SumOfCosts, d.SumOfDistances,
		d.NumLLGenerated, d.NumOfFailures, d.AverageGroupSize)
	return err
}

// WritePaths writes one line per agent, in the driver's agent (input)
// order: "Agent <id>: (r0,c0)->(r1,c1)->...".
func (d *Driver) WritePaths(w io.Writer) error {
	for _, a := range d.Agents {
		var b strings.Builder
		fmt.Fprintf(&b, "Agent %d: ", a.ID)
		for i, c := range a.Path {
			if i > 0 {
				b.WriteString("->")
			}
			fmt.Fprintf(&b, "(%d,%d)", d.Inst.GetRow(c), d.Inst.GetCol(c))
		}
		b.WriteString("\n")
		if _, err := io.WriteString(w, b.String()); err != nil {
			return err
		}
	}
	return nil
}
