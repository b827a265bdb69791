package lns

import (
	"bytes"
	"context"
	"errors"
	"math/rand"
	"strings"
	"testing"
	"time"

	"github.com/elektrokombinacija/mapf-sipp/internal/core"
)

func corridorInstance() (*core.Instance, []*core.Agent) {
	// A 5-length corridor with a single alcove below its middle cell: two
	// agents enter from opposite ends and must cross paths, one stepping
	// into the alcove to let the other pass. Prioritized planning alone
	// leaves a collision; LNS must resolve it.
	inst := core.NewInstance(2, 5)
	for c := 0; c < 5; c++ {
		if c != 2 {
			inst.SetObstacle(1, c, true)
		}
	}
	left := inst.CellAt(0, 0)
	right := inst.CellAt(0, 4)

	a1 := &core.Agent{ID: 1, Start: left, Goal: right, Heuristic: inst.BFSHeuristic(right)}
	a2 := &core.Agent{ID: 2, Start: right, Goal: left, Heuristic: inst.BFSHeuristic(left)}
	return inst, []*core.Agent{a1, a2}
}

func defaultConfig() Config {
	return Config{
		NeighborSize:    4,
		TimeLimit:       2 * time.Second,
		ReplanTimeLimit: 500 * time.Millisecond,
		ALNS:            true,
		Fixed:           CollisionBased,
		DecayFactor:     0.01,
		ReactionFactor:  0.1,
	}
}

// Scenario 2: a two-agent head-on corridor crossing. The initial
// prioritized plan collides; LNS repair must drive colliding pairs to zero
// without inflating the cost beyond the documented bound.
func TestRunResolvesCorridorCollision(t *testing.T) {
	inst, agents := corridorInstance()
	d := New(inst, agents, defaultConfig(), rand.New(rand.NewSource(1)))

	if err := d.GetInitialSolution(context.Background()); err != nil {
		t.Fatalf("GetInitialSolution: %v", err)
	}

	d.Run(context.Background(), time.Now().Add(2*time.Second))

	if d.NumCollidingPairs != 0 {
		t.Fatalf("NumCollidingPairs = %d after Run, want 0", d.NumCollidingPairs)
	}
	if d.SumOfCosts > 14 {
		t.Errorf("SumOfCosts = %d, want <= 14", d.SumOfCosts)
	}
	if err := d.ValidateSolution(); err != nil {
		t.Errorf("ValidateSolution: %v", err)
	}
	if !d.Plan.Feasible {
		t.Error("Plan.Feasible = false, want true once NumCollidingPairs reaches 0")
	}
	if d.Plan.SumOfCosts != d.SumOfCosts {
		t.Errorf("Plan.SumOfCosts = %d, want it to match Driver.SumOfCosts (%d)", d.Plan.SumOfCosts, d.SumOfCosts)
	}
}

// Scenario 6: reproducibility. Two separately constructed drivers, seeded
// identically, over the same instance and config, must produce identical
// iteration-by-iteration traces and final costs.
func TestRunIsReproducibleForAFixedSeed(t *testing.T) {
	runOnce := func() *Driver {
		inst, agents := corridorInstance()
		d := New(inst, agents, defaultConfig(), rand.New(rand.NewSource(42)))
		if err := d.GetInitialSolution(context.Background()); err != nil {
			t.Fatalf("GetInitialSolution: %v", err)
		}
		d.Run(context.Background(), time.Now().Add(2*time.Second))
		return d
	}

	d1 := runOnce()
	d2 := runOnce()

	if d1.SumOfCosts != d2.SumOfCosts {
		t.Errorf("SumOfCosts differs across identically-seeded runs: %d vs %d", d1.SumOfCosts, d2.SumOfCosts)
	}
	if len(d1.IterationStats) != len(d2.IterationStats) {
		t.Fatalf("iteration counts differ: %d vs %d", len(d1.IterationStats), len(d2.IterationStats))
	}
	for i := range d1.IterationStats {
		s1, s2 := d1.IterationStats[i], d2.IterationStats[i]
		if s1.DestroyHeuristic != s2.DestroyHeuristic || s1.Accepted != s2.Accepted || s1.SumOfCosts != s2.SumOfCosts {
			t.Errorf("iteration %d diverged: %+v vs %+v", i, s1, s2)
		}
	}
}

func TestGetInitialSolutionInfeasibleFirstAgent(t *testing.T) {
	// An obstacle wall splits the grid in two, leaving the first agent's
	// goal unreachable: the start's only neighbor is the obstacle, so
	// FindPath exhausts its search without reaching the goal and returns nil.
	inst := core.NewInstance(1, 3)
	inst.SetObstacle(0, 1, true)
	start := inst.CellAt(0, 0)
	goal := inst.CellAt(0, 2)
	agents := []*core.Agent{{ID: 1, Start: start, Goal: goal, Heuristic: inst.BFSHeuristic(goal)}}
	d := New(inst, agents, defaultConfig(), rand.New(rand.NewSource(1)))

	err := d.GetInitialSolution(context.Background())
	if err == nil {
		t.Fatal("expected an error for an unreachable goal")
	}
	if !errors.Is(err, core.ErrInfeasibleFromStart) {
		t.Errorf("err = %v, want wrapping core.ErrInfeasibleFromStart", err)
	}
}

func TestWriteIterationStatsHeaderAndRows(t *testing.T) {
	inst, agents := corridorInstance()
	d := New(inst, agents, defaultConfig(), rand.New(rand.NewSource(7)))
	if err := d.GetInitialSolution(context.Background()); err != nil {
		t.Fatalf("GetInitialSolution: %v", err)
	}
	d.Run(context.Background(), time.Now().Add(2*time.Second))

	var buf bytes.Buffer
	if err := d.WriteIterationStats(&buf); err != nil {
		t.Fatalf("WriteIterationStats: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) == 0 {
		t.Fatal("expected at least a header row")
	}
	want := "iteration,runtime,num_of_colliding_pairs,sum_of_costs,neighbor_size,destroy_heuristic,selected_neighbor_agents,accepted"
	if lines[0] != want {
		t.Errorf("header = %q, want %q", lines[0], want)
	}
}

func TestWriteResultAndPathsFormat(t *testing.T) {
	inst, agents := corridorInstance()
	d := New(inst, agents, defaultConfig(), rand.New(rand.NewSource(7)))
	if err := d.GetInitialSolution(context.Background()); err != nil {
		t.Fatalf("GetInitialSolution: %v", err)
	}
	d.Run(context.Background(), time.Now().Add(2*time.Second))

	var result bytes.Buffer
	if err := d.WriteResult(&result, "LNS", "corridor", 0.5); err != nil {
		t.Fatalf("WriteResult: %v", err)
	}
	fields := strings.Split(strings.TrimSpace(result.String()), ",")
	if len(fields) != 9 {
		t.Errorf("result line has %d fields, want 9: %q", len(fields), result.String())
	}

	var paths bytes.Buffer
	if err := d.WritePaths(&paths); err != nil {
		t.Fatalf("WritePaths: %v", err)
	}
	for _, line := range strings.Split(strings.TrimSpace(paths.String()), "\n") {
		if !strings.Contains(line, ": (") {
			t.Errorf("path line missing the required \": (\" separator: %q", line)
		}
	}
}
