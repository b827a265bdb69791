// Command gen_instances generates deterministic grid MAPF instances for
// benchmarking the SIPP/LNS solver.
package main

import (
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"path/filepath"

	"github.com/elektrokombinacija/mapf-sipp/internal/core"
	"github.com/elektrokombinacija/mapf-sipp/internal/instanceio"
)

func main() {
	var (
		outDir       = flag.String("out", "instances", "output directory")
		seed         = flag.Int64("seed", 1, "random seed")
		rows         = flag.Int("rows", 16, "grid rows")
		cols         = flag.Int("cols", 16, "grid cols")
		numAgents    = flag.Int("agents", 10, "number of agents")
		obstacleRate = flag.Float64("obstacle-rate", 0.1, "fraction of cells that are obstacles")
		count        = flag.Int("count", 1, "number of instances to generate")
	)
	flag.Parse()

	if err := os.MkdirAll(*outDir, 0o755); err != nil {
		log.Fatalf("gen_instances: %v", err)
	}

	for i := 0; i < *count; i++ {
		s := *seed + int64(i)
		inst, agents, err := generateInstance(s, *rows, *cols, *numAgents, *obstacleRate)
		if err != nil {
			log.Fatalf("gen_instances: seed %d: %v", s, err)
		}
		name := fmt.Sprintf("random_%dx%d_%da_seed%d", *rows, *cols, *numAgents, s)
		path := filepath.Join(*outDir, name+".json")
		if err := instanceio.Save(path, name, inst, agents); err != nil {
			log.Fatalf("gen_instances: %v", err)
		}
		fmt.Println(path)
	}
}

// generateInstance scatters obstacles at random, then places numAgents
// start/goal pairs on distinct free cells, retrying any agent whose goal
// is unreachable from its start (a BFS reachability check on the grid all
// agents share).
func generateInstance(seed int64, rows, cols, numAgents int, obstacleRate float64) (*core.Instance, []*core.Agent, error) {
	rng := rand.New(rand.NewSource(seed))

	inst := core.NewInstance(rows, cols)
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			if rng.Float64() < obstacleRate {
				inst.SetObstacle(r, c, true)
			}
		}
	}

	free := make([]core.Cell, 0, rows*cols)
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			cell := inst.CellAt(r, c)
			if !inst.IsObstacle(cell) {
				free = append(free, cell)
			}
		}
	}
	if len(free) < numAgents*2 {
		return nil, nil, fmt.Errorf("grid too dense: only %d free cells for %d agents", len(free), numAgents)
	}

	used := make(map[core.Cell]bool)
	pick := func() core.Cell {
		for {
			c := free[rng.Intn(len(free))]
			if !used[c] {
				used[c] = true
				return c
			}
		}
	}

	var agents []*core.Agent
	for id := 0; id < numAgents; id++ {
		start := pick()
		goal := pick()
		heuristic := inst.BFSHeuristic(goal)
		if _, reachable := heuristic[start]; !reachable {
			// start and goal landed in different connected components;
			// release both cells and retry this agent.
			delete(used, start)
			delete(used, goal)
			id--
			continue
		}
		agent := &core.Agent{ID: id, Start: start, Goal: goal, Heuristic: heuristic}
		agents = append(agents, agent)
		inst.Agents = append(inst.Agents, agent)
	}
	return inst, agents, nil
}
