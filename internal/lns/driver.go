// Package lns implements the adaptive destroy/repair loop that turns an
// initial, possibly-colliding plan into a collision-free one (or the best
// plan found before the time budget runs out).
//
// Grounded on original_source/inc/InitLNS.h: InitLNS's fields map onto
// Driver's (path_table -> PathTable, collision_graph -> rebuilt per
// iteration from internal/collision, destroy_weights/decay_factor/
// reaction_factor -> Driver.weights/Config, tabu_list -> Driver.tabu),
// and its public methods (getInitialSolution/run/validateSolution/
// writeIterStatsToFile/writeResultToFile/writePathsToFile) map onto
// Driver.GetInitialSolution/Run/ValidateSolution and the report.go
// writers.
package lns

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/elektrokombinacija/mapf-sipp/internal/collision"
	"github.com/elektrokombinacija/mapf-sipp/internal/constraint"
	"github.com/elektrokombinacija/mapf-sipp/internal/core"
	"github.com/elektrokombinacija/mapf-sipp/internal/pathtable"
	"github.com/elektrokombinacija/mapf-sipp/internal/sipp"
)

// DestroyHeuristic selects which neighborhood-construction strategy an LNS
// iteration uses, mirroring original_source/inc/InitLNS.h's
// init_destroy_heuristic enum (TARGET_BASED, COLLISION_BASED).
type DestroyHeuristic int

const (
	CollisionBased DestroyHeuristic = iota
	TargetBased
	numDestroyHeuristics
)

func (d DestroyHeuristic) String() string {
	switch d {
	case CollisionBased:
		return "collision"
	case TargetBased:
		return "target"
	default:
		return "unknown"
	}
}

// Config bundles the driver's tunable parameters, sourced from
// internal/config at start-up.
type Config struct {
	NeighborSize    int
	TimeLimit       time.Duration
	ReplanTimeLimit time.Duration
	ALNS            bool // init_destroy == "adaptive"
	Fixed           DestroyHeuristic
	DecayFactor     float64
	ReactionFactor  float64
}

// IterationStat is one row of the iteration-stats report, matching
// the iteration-stats CSV column order exactly.
type IterationStat struct {
	Iteration              int
	Runtime                time.Duration
	NumCollidingPairs      int
	SumOfCosts             int
	NeighborSize           int
	DestroyHeuristic       string
	SelectedNeighborAgents []int
	Accepted               bool
}

// Driver runs GetInitialSolution then Run over a fixed agent set.
type Driver struct {
	Inst   *core.Instance
	Agents []*core.Agent
	Config Config
	RNG    *rand.Rand

	PathTable *pathtable.Table
	Plan      *core.Plan

	IterationStats []IterationStat

	InitialSumOfCosts int
	SumOfCosts        int
	SumOfDistances    int
	NumLLGenerated    int
	NumOfFailures     int
	AverageGroupSize  float64
	NumCollidingPairs int

	weights [numDestroyHeuristics]float64
	tabu    map[int]bool

	groupSizeSum   int
	groupSizeCount int
}

// New creates a Driver for inst's agents with the given configuration and
// random source. Callers own seeding rng for reproducibility.
func New(inst *core.Instance, agents []*core.Agent, cfg Config, rng *rand.Rand) *Driver {
	d := &Driver{
		Inst:      inst,
		Agents:    agents,
		Config:    cfg,
		RNG:       rng,
		PathTable: pathtable.New(),
		Plan:      core.NewPlan(),
		tabu:      make(map[int]bool),
	}
	for i := range d.weights {
		d.weights[i] = 1
	}
	return d
}

func (d *Driver) agentByID(id int) *core.Agent {
	for _, a := range d.Agents {
		if a.ID == id {
			return a
		}
	}
	return nil
}

func (d *Driver) currentPaths() map[int]core.Path {
	m := make(map[int]core.Path, len(d.Agents))
	for _, a := range d.Agents {
		if a.Path != nil {
			m[a.ID] = a.Path
		}
	}
	return m
}

// syncPlan refreshes d.Plan from the agents' current paths and returns the
// recomputed sum of costs. Agent.Path remains the planner's working copy
// (sipp and pathtable both read/write it directly); Plan is the reporting
// and feasibility-tracking view the driver keeps over that same state.
func (d *Driver) syncPlan() int {
	d.Plan.Paths = d.currentPaths()
	d.Plan.Feasible = d.NumCollidingPairs == 0
	return d.Plan.RecomputeSumOfCosts()
}

// GetInitialSolution plans every agent, in input order, with SIPP mode A
// against the Path Table of already-planned agents, inserting each result
// regardless of residual soft collisions. It returns
// core.ErrInfeasibleFromStart, wrapped with the offending agent's id, the
// moment the very first agent is unplannable.
func (d *Driver) GetInitialSolution(ctx context.Context) error {
	for i, a := range d.Agents {
		ct := constraint.New(a.ID)
		ct.InsertCAT(a.ID, d.PathTable.Paths())

		planner := sipp.New(d.Inst, a.Start, a.Goal, a.Heuristic)
		path := planner.FindPath(ctx, ct, d.PathTable)
		d.NumLLGenerated++
		if path == nil {
			if i == 0 {
				return fmt.Errorf("lns: agent %d: %w", a.ID, core.ErrInfeasibleFromStart)
			}
			return fmt.Errorf("lns: agent %d: no path found against %d already-planned agents", a.ID, i)
		}
		a.Path = path
		d.PathTable.Insert(a.ID, path)
		d.SumOfDistances += a.H(a.Start)
	}

	d.NumCollidingPairs = len(collision.DetectAllConflicts(d.currentPaths()))
	d.InitialSumOfCosts = d.syncPlan()
	d.SumOfCosts = d.InitialSumOfCosts
	return nil
}

// Run executes the destroy/repair loop until num_of_colliding_pairs
// reaches zero or deadline passes, recording one IterationStat per
// iteration attempted.
func (d *Driver) Run(ctx context.Context, deadline time.Time) {
	iteration := 0
	for d.NumCollidingPairs > 0 {
		if ctxDone(ctx) || !time.Now().Before(deadline) {
			break
		}
		iterStart := time.Now()

		heuristic, idx := d.chooseDestroyHeuristic()
		neighbor := d.generateNeighbor(heuristic)
		if len(neighbor) == 0 {
			break
		}

		snapshot := d.snapshotPaths(neighbor)
		for _, id := range neighbor {
			d.PathTable.Remove(id)
		}

		replanCtx := ctx
		if d.Config.ReplanTimeLimit > 0 {
			var cancel context.CancelFunc
			replanCtx, cancel = context.WithTimeout(ctx, d.Config.ReplanTimeLimit)
			defer cancel()
		}
		ok := d.repair(replanCtx, neighbor)

		newCount := len(collision.DetectAllConflicts(d.currentPaths()))
		accepted := ok && newCount <= d.NumCollidingPairs

		if accepted {
			improvement := d.NumCollidingPairs - newCount
			d.NumCollidingPairs = newCount
			d.SumOfCosts = d.syncPlan()
			if d.Config.ALNS && improvement > 0 {
				d.weights[idx] += d.Config.ReactionFactor * float64(improvement)
			}
		} else {
			d.restorePaths(neighbor, snapshot)
			if !ok {
				d.NumOfFailures++
			}
		}
		if d.Config.ALNS {
			for i := range d.weights {
				d.weights[i] *= 1 - d.Config.DecayFactor
				if d.weights[i] < 0.01 {
					d.weights[i] = 0.01
				}
			}
		}

		d.groupSizeSum += len(neighbor)
		d.groupSizeCount++

		d.IterationStats = append(d.IterationStats, IterationStat{
			Iteration:              iteration,
			Runtime:                time.Since(iterStart),
			NumCollidingPairs:      d.NumCollidingPairs,
			SumOfCosts:             d.SumOfCosts,
			NeighborSize:           len(neighbor),
			DestroyHeuristic:       heuristic.String(),
			SelectedNeighborAgents: neighbor,
			Accepted:               accepted,
		})
		iteration++
	}

	if d.groupSizeCount > 0 {
		d.AverageGroupSize = float64(d.groupSizeSum) / float64(d.groupSizeCount)
	}
}

func ctxDone(ctx context.Context) bool {
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

func (d *Driver) snapshotPaths(agents []int) map[int]core.Path {
	snap := make(map[int]core.Path, len(agents))
	for _, id := range agents {
		snap[id] = d.agentByID(id).Path
	}
	return snap
}

func (d *Driver) restorePaths(agents []int, snapshot map[int]core.Path) {
	for _, id := range agents {
		p := snapshot[id]
		d.agentByID(id).Path = p
		d.PathTable.Insert(id, p)
	}
}

// repair replans every agent in a randomized order using SIPP mode A; each
// sees the other neighborhood agents' pre-destroy paths only through the
// soft CAT, not as hard constraints (those agents are simply absent from
// the Path Table for the duration of this call). Returns false, leaving
// the Path Table only partially repaired, the moment any agent fails to
// find a path — the caller restores the whole neighborhood's snapshot in
// that case.
func (d *Driver) repair(ctx context.Context, agents []int) bool {
	order := append([]int(nil), agents...)
	d.RNG.Shuffle(len(order), func(i, j int) { order[i], order[j] = order[j], order[i] })

	for _, id := range order {
		a := d.agentByID(id)
		ct := constraint.New(id)
		ct.InsertCAT(id, d.currentPaths())

		planner := sipp.New(d.Inst, a.Start, a.Goal, a.Heuristic)
		path := planner.FindPath(ctx, ct, d.PathTable)
		d.NumLLGenerated++
		if path == nil {
			return false
		}
		a.Path = path
		d.PathTable.Insert(id, path)
	}
	return true
}
