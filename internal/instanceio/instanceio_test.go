package instanceio

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/elektrokombinacija/mapf-sipp/internal/core"
)

func TestSaveLoadRoundTrip(t *testing.T) {
	inst := core.NewInstance(2, 3)
	inst.SetObstacle(0, 1, true)
	start := inst.CellAt(0, 0)
	goal := inst.CellAt(1, 2)
	agents := []*core.Agent{{ID: 1, Start: start, Goal: goal, Heuristic: inst.BFSHeuristic(goal)}}

	path := filepath.Join(t.TempDir(), "instance.json")
	if err := Save(path, "round-trip", inst, agents); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, gotAgents, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.NumRows != 2 || got.NumCols != 3 {
		t.Errorf("dims = %dx%d, want 2x3", got.NumRows, got.NumCols)
	}
	if !got.IsObstacle(got.CellAt(0, 1)) {
		t.Error("obstacle at (0,1) lost across round trip")
	}
	if len(gotAgents) != 1 {
		t.Fatalf("got %d agents, want 1", len(gotAgents))
	}
	a := gotAgents[0]
	if a.Start != got.CellAt(0, 0) || a.Goal != got.CellAt(1, 2) {
		t.Errorf("agent start/goal = %v/%v, want (0,0)/(1,2)", a.Start, a.Goal)
	}
	if a.H(a.Start) != 3 {
		t.Errorf("heuristic at start = %d, want 3 (Manhattan distance on an obstacle-light grid)", a.H(a.Start))
	}
}

func TestLoadRejectsRowCountMismatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	body := `{"name":"bad","rows":2,"cols":2,"map":["..","..","XX"],"agents":[]}`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if _, _, err := Load(path); err == nil {
		t.Error("expected an error for a map with more rows than declared")
	}
}

func TestLoadRejectsRowLengthMismatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	body := `{"name":"bad","rows":1,"cols":3,"map":[".."],"agents":[]}`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if _, _, err := Load(path); err == nil {
		t.Error("expected an error for a row shorter than the declared column count")
	}
}
