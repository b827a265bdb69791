package core

import "fmt"

// Instance is a rectangular grid MAPF problem: an obstacle map plus the
// agents to route across it. It implements the external grid interface the
// rest of the system consumes (NumCols/NumRows/IsObstacle/GetNeighbors/
// GetManhattanDistance/GetRow/GetCol).
type Instance struct {
	NumRows, NumCols int
	obstacle         []bool // row-major, len == NumRows*NumCols
	Agents           []*Agent
}

// NewInstance creates an empty rows x cols grid with no obstacles.
func NewInstance(rows, cols int) *Instance {
	return &Instance{
		NumRows:  rows,
		NumCols:  cols,
		obstacle: make([]bool, rows*cols),
	}
}

// CellAt converts (row, col) to a Cell. Panics on out-of-range input, like
// slice indexing would; callers work in-bounds by construction.
func (inst *Instance) CellAt(row, col int) Cell {
	if row < 0 || row >= inst.NumRows || col < 0 || col >= inst.NumCols {
		panic(fmt.Sprintf("mapfsipp: cell (%d,%d) out of %dx%d grid", row, col, inst.NumRows, inst.NumCols))
	}
	return Cell(row*inst.NumCols + col)
}

// GetRow returns c's row coordinate.
func (inst *Instance) GetRow(c Cell) int { return int(c) / inst.NumCols }

// GetCol returns c's column coordinate.
func (inst *Instance) GetCol(c Cell) int { return int(c) % inst.NumCols }

// SetObstacle marks or clears an obstacle at (row, col).
func (inst *Instance) SetObstacle(row, col int, blocked bool) {
	inst.obstacle[row*inst.NumCols+col] = blocked
}

// IsObstacle reports whether c is blocked.
func (inst *Instance) IsObstacle(c Cell) bool {
	i := int(c)
	if i < 0 || i >= len(inst.obstacle) {
		return true
	}
	return inst.obstacle[i]
}

// GetNeighbors returns the 4-connected, in-bounds, non-obstacle neighbors
// of c, in a fixed order (north, south, west, east) so search order is
// deterministic across runs. An obstacle cell has no neighbors.
func (inst *Instance) GetNeighbors(c Cell) []Cell {
	if inst.IsObstacle(c) {
		return nil
	}
	row, col := inst.GetRow(c), inst.GetCol(c)
	var out []Cell
	candidates := [4][2]int{{row - 1, col}, {row + 1, col}, {row, col - 1}, {row, col + 1}}
	for _, rc := range candidates {
		r, cl := rc[0], rc[1]
		if r < 0 || r >= inst.NumRows || cl < 0 || cl >= inst.NumCols {
			continue
		}
		nc := inst.CellAt(r, cl)
		if inst.IsObstacle(nc) {
			continue
		}
		out = append(out, nc)
	}
	return out
}

// GetManhattanDistance returns |Δrow| + |Δcol| between a and b, the
// admissible heuristic used when no precomputed table is supplied.
func (inst *Instance) GetManhattanDistance(a, b Cell) int {
	dr := inst.GetRow(a) - inst.GetRow(b)
	dc := inst.GetCol(a) - inst.GetCol(b)
	if dr < 0 {
		dr = -dr
	}
	if dc < 0 {
		dc = -dc
	}
	return dr + dc
}

// AgentByID finds an agent by id, or nil.
func (inst *Instance) AgentByID(id int) *Agent {
	for _, a := range inst.Agents {
		if a.ID == id {
			return a
		}
	}
	return nil
}

// BFSHeuristic computes an admissible, consistent distance-to-goal table by
// breadth-first search from goal over the grid's 4-connected non-obstacle
// cells. It is a reference convenience for building Agent.Heuristic in
// tests and the CLI; any other admissible table works equally well with
// the SIPP planner, since heuristic precomputation itself is out of scope.
func (inst *Instance) BFSHeuristic(goal Cell) map[Cell]int {
	dist := map[Cell]int{goal: 0}
	queue := []Cell{goal}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, n := range inst.GetNeighbors(cur) {
			if _, seen := dist[n]; seen {
				continue
			}
			dist[n] = dist[cur] + 1
			queue = append(queue, n)
		}
	}
	return dist
}
