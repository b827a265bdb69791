// Package instanceio reads and writes grid MAPF instances, JSON-encoded,
// generalized from tools/gen_instances' original JSON instance format
// (vertices/robots/tasks on an arbitrary graph) down to a plain
// rectangular obstacle grid plus start/goal pairs.
package instanceio

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/elektrokombinacija/mapf-sipp/internal/core"
)

// File is the on-disk JSON representation of a grid instance.
type File struct {
	Name    string    `json:"name"`
	Rows    int       `json:"rows"`
	Cols    int       `json:"cols"`
	Map     []string  `json:"map"` // Rows strings of length Cols; '@' or '#' is an obstacle, '.' is free.
	Agents  []AgentIO `json:"agents"`
}

// AgentIO is one agent's start/goal pair, row/col coordinates.
type AgentIO struct {
	ID         int `json:"id"`
	StartRow   int `json:"start_row"`
	StartCol   int `json:"start_col"`
	GoalRow    int `json:"goal_row"`
	GoalCol    int `json:"goal_col"`
}

// Load reads path, builds the Instance and its agents (with Manhattan-BFS
// heuristic tables precomputed (heuristics are assumed precomputed, not
// computed on demand by the planner), and returns them.
func Load(path string) (*core.Instance, []*core.Agent, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("instanceio: %w", err)
	}
	var f File
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, nil, fmt.Errorf("instanceio: parsing %s: %w", path, err)
	}
	if len(f.Map) != f.Rows {
		return nil, nil, fmt.Errorf("instanceio: %s declares %d rows but map has %d lines", path, f.Rows, len(f.Map))
	}

	inst := core.NewInstance(f.Rows, f.Cols)
	for r, line := range f.Map {
		if len(line) != f.Cols {
			return nil, nil, fmt.Errorf("instanceio: %s row %d has length %d, want %d", path, r, len(line), f.Cols)
		}
		for c, ch := range line {
			if ch == '@' || ch == '#' {
				inst.SetObstacle(r, c, true)
			}
		}
	}

	agents := make([]*core.Agent, 0, len(f.Agents))
	for _, a := range f.Agents {
		start := inst.CellAt(a.StartRow, a.StartCol)
		goal := inst.CellAt(a.GoalRow, a.GoalCol)
		agent := &core.Agent{
			ID:        a.ID,
			Start:     start,
			Goal:      goal,
			Heuristic: inst.BFSHeuristic(goal),
		}
		agents = append(agents, agent)
		inst.Agents = append(inst.Agents, agent)
	}
	return inst, agents, nil
}

// Save writes inst and agents to path as JSON, the inverse of Load, used
// by the instance generator tool.
func Save(path, name string, inst *core.Instance, agents []*core.Agent) error {
	f := File{Name: name, Rows: inst.NumRows, Cols: inst.NumCols}
	for r := 0; r < inst.NumRows; r++ {
		row := make([]byte, inst.NumCols)
		for c := 0; c < inst.NumCols; c++ {
			if inst.IsObstacle(inst.CellAt(r, c)) {
				row[c] = '@'
			} else {
				row[c] = '.'
			}
		}
		f.Map = append(f.Map, string(row))
	}
	for _, a := range agents {
		f.Agents = append(f.Agents, AgentIO{
			ID:       a.ID,
			StartRow: inst.GetRow(a.Start),
			StartCol: inst.GetCol(a.Start),
			GoalRow:  inst.GetRow(a.Goal),
			GoalCol:  inst.GetCol(a.Goal),
		})
	}

	data, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return fmt.Errorf("instanceio: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("instanceio: %w", err)
	}
	return nil
}
