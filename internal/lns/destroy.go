package lns

import (
	"github.com/elektrokombinacija/mapf-sipp/internal/collision"
)

// chooseDestroyHeuristic picks the neighborhood-construction strategy for
// the next iteration: the fixed one from Config when ALNS is off, or a
// roulette-wheel draw over the adaptive weights when it's on. The second
// return value is the chosen heuristic's index into d.weights, for the
// caller to reward on acceptance.
func (d *Driver) chooseDestroyHeuristic() (DestroyHeuristic, int) {
	if !d.Config.ALNS {
		return d.Config.Fixed, int(d.Config.Fixed)
	}
	total := 0.0
	for _, w := range d.weights {
		total += w
	}
	r := d.RNG.Float64() * total
	cum := 0.0
	for i, w := range d.weights {
		cum += w
		if r <= cum {
			return DestroyHeuristic(i), i
		}
	}
	return DestroyHeuristic(len(d.weights) - 1), len(d.weights) - 1
}

// generateNeighbor builds the set of agent ids to destroy and repair this
// iteration, per the chosen heuristic.
func (d *Driver) generateNeighbor(h DestroyHeuristic) []int {
	switch h {
	case CollisionBased:
		return d.generateNeighborByCollisionGraph()
	case TargetBased:
		return d.generateNeighborByTarget()
	default:
		return nil
	}
}

// generateNeighborByCollisionGraph picks a random connected component of
// the collision graph, then a random agent within it as the walk's seed,
// and expands outward along conflict edges to assemble up to
// neighbor_size mutually-conflicting agents. Drawing the component first
// and the seed second keeps the selection uniform over components rather
// than over agents, so one large component doesn't get picked as often as
// its size alone would suggest.
func (d *Driver) generateNeighborByCollisionGraph() []int {
	conflicts := collision.DetectAllConflicts(d.currentPaths())
	if len(conflicts) == 0 {
		return nil
	}
	graph := collision.BuildGraph(conflicts)
	comps := graph.Components()
	comp := comps[d.RNG.Intn(len(comps))]
	seed := comp[d.RNG.Intn(len(comp))]
	return graph.ExpandFrom(seed, d.Config.NeighborSize)
}

// generateNeighborByTarget targets the agent colliding with the most
// others, then grows the neighborhood outward along collision-graph edges
// from there — the same walk generateNeighborByCollisionGraph uses, but
// with a deliberately chosen seed instead of a random one, and a tabu list
// so the same hub agent isn't targeted every single iteration.
func (d *Driver) generateNeighborByTarget() []int {
	conflicts := collision.DetectAllConflicts(d.currentPaths())
	if len(conflicts) == 0 {
		return nil
	}
	graph := collision.BuildGraph(conflicts)
	seed := d.findTargetAgent(graph)
	if seed < 0 {
		return nil
	}
	return graph.ExpandFrom(seed, d.Config.NeighborSize)
}

// findTargetAgent returns the colliding agent with the most collision-graph
// neighbors among those not already in the tabu list, clearing the tabu
// list and retrying against the full agent set once every colliding agent
// has been used, so the heuristic keeps cycling through hubs over time
// rather than starving once everyone has been picked.
func (d *Driver) findTargetAgent(graph *collision.Graph) int {
	agents := graph.Agents()
	if len(agents) == 0 {
		return -1
	}
	candidates := agents[:0:0]
	for _, a := range agents {
		if !d.tabu[a] {
			candidates = append(candidates, a)
		}
	}
	if len(candidates) == 0 {
		d.tabu = make(map[int]bool)
		candidates = agents
	}

	best := candidates[0]
	bestDegree := len(graph.Neighbors(best))
	for _, a := range candidates[1:] {
		if deg := len(graph.Neighbors(a)); deg > bestDegree {
			best, bestDegree = a, deg
		}
	}
	d.tabu[best] = true
	return best
}
