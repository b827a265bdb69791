package collision

import (
	"testing"

	"github.com/elektrokombinacija/mapf-sipp/internal/core"
)

func TestDetectConflictVertex(t *testing.T) {
	paths := map[int]core.Path{
		1: {0, 1, 2},
		2: {5, 1, 6},
	}
	c := DetectConflict(paths)
	if c == nil {
		t.Fatal("expected a vertex conflict at cell 1, t=1")
	}
	if c.IsEdge || c.Cell != core.Cell(1) || c.Time != 1 {
		t.Errorf("got %+v, want a vertex conflict at cell 1, t=1", c)
	}
}

func TestDetectConflictSwap(t *testing.T) {
	paths := map[int]core.Path{
		1: {0, 1},
		2: {1, 0},
	}
	c := DetectConflict(paths)
	if c == nil {
		t.Fatal("expected a swap conflict")
	}
	if !c.IsEdge {
		t.Errorf("got %+v, want IsEdge=true", c)
	}
}

func TestDetectConflictNone(t *testing.T) {
	paths := map[int]core.Path{
		1: {0, 1, 2},
		2: {9, 8, 7},
	}
	if c := DetectConflict(paths); c != nil {
		t.Errorf("expected no conflict, got %+v", c)
	}
}

func TestDetectAllConflictsCountsEveryPair(t *testing.T) {
	paths := map[int]core.Path{
		1: {0, 1},
		2: {1, 0},
		3: {9, 9},
	}
	all := DetectAllConflicts(paths)
	if len(all) != 1 {
		t.Fatalf("got %d conflicts, want 1 (only agents 1,2 conflict)", len(all))
	}
}

func TestGraphExpandFromWalksConflictEdges(t *testing.T) {
	conflicts := []*Conflict{
		{Agent1: 1, Agent2: 2},
		{Agent1: 2, Agent2: 3},
		{Agent1: 4, Agent2: 5},
	}
	g := BuildGraph(conflicts)

	if !g.HasConflict(1) || g.HasConflict(6) {
		t.Error("HasConflict disagrees with the constructed graph")
	}

	walk := g.ExpandFrom(1, 3)
	if len(walk) != 3 {
		t.Fatalf("ExpandFrom(1,3) = %v, want 3 agents", walk)
	}
	seen := map[int]bool{}
	for _, a := range walk {
		seen[a] = true
	}
	if !seen[1] || !seen[2] || !seen[3] {
		t.Errorf("ExpandFrom(1,3) = %v, want {1,2,3} reached via conflict edges", walk)
	}

	isolated := g.ExpandFrom(4, 5)
	if len(isolated) != 2 {
		t.Errorf("ExpandFrom(4,5) = %v, want exactly {4,5} since the graph has no more edges from there", isolated)
	}
}

func TestGraphConnectedComponent(t *testing.T) {
	conflicts := []*Conflict{
		{Agent1: 1, Agent2: 2},
		{Agent1: 2, Agent2: 3},
		{Agent1: 4, Agent2: 5},
	}
	g := BuildGraph(conflicts)

	comp := g.ConnectedComponent(1)
	if len(comp) != 3 || comp[0] != 1 || comp[1] != 2 || comp[2] != 3 {
		t.Errorf("ConnectedComponent(1) = %v, want [1 2 3]", comp)
	}
	if got := g.ConnectedComponent(6); got != nil {
		t.Errorf("ConnectedComponent(6) = %v, want nil for an agent with no conflicts", got)
	}
}

func TestGraphComponentsPartitionsByConnectivity(t *testing.T) {
	conflicts := []*Conflict{
		{Agent1: 1, Agent2: 2},
		{Agent1: 2, Agent2: 3},
		{Agent1: 4, Agent2: 5},
	}
	g := BuildGraph(conflicts)

	comps := g.Components()
	if len(comps) != 2 {
		t.Fatalf("Components() returned %d components, want 2", len(comps))
	}
	if len(comps[0]) != 3 || comps[0][0] != 1 {
		t.Errorf("first component = %v, want [1 2 3]", comps[0])
	}
	if len(comps[1]) != 2 || comps[1][0] != 4 {
		t.Errorf("second component = %v, want [4 5]", comps[1])
	}
}

func TestGraphAgentsSorted(t *testing.T) {
	g := BuildGraph([]*Conflict{{Agent1: 3, Agent2: 1}})
	got := g.Agents()
	if len(got) != 2 || got[0] != 1 || got[1] != 3 {
		t.Errorf("Agents() = %v, want [1 3]", got)
	}
}
