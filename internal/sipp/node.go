// Package sipp implements the Safe-Interval Path Planning single-agent
// planner: container/heap-based OPEN/FOCAL search over time-expanded grid
// space, algorithmically grounded on original_source/src/SIPP.cpp.
package sipp

import (
	"github.com/elektrokombinacija/mapf-sipp/internal/core"
	"github.com/elektrokombinacija/mapf-sipp/internal/reservation"
)

// Node is a SIPP search node: a (cell, safe interval) pair reached at a
// particular timestep, plus the bookkeeping the two priority queues need.
// Equality and hashing are by (Cell, Interval.Low, IsGoal) — timestep alone
// does not identify a node, and a virtual goal node shares its parent's
// (Cell, Interval.Low) but is a distinct identity because IsGoal differs.
type Node struct {
	Cell         core.Cell
	G            int
	H            int
	Parent       *Node
	Timestep     int
	Interval     reservation.Interval
	NumConflicts int
	IsGoal       bool
	WaitAtGoal   bool

	InOpenList bool
	seq        int // insertion sequence, ultimate tiebreaker

	openIndex  int // position in the OPEN heap, -1 if absent
	focalIndex int // position in the FOCAL heap, -1 if absent
}

// F returns the node's f = g + h value.
func (n *Node) F() int { return n.G + n.H }

type nodeKey struct {
	cell   core.Cell
	low    int
	isGoal bool
}

func keyOf(n *Node) nodeKey {
	return nodeKey{cell: n.Cell, low: n.Interval.Low, isGoal: n.IsGoal}
}

// arena owns every node created during one planner call and the hash table
// used for duplicate detection. It is local to a single FindPath/
// FindSuboptimalPath invocation and is discarded (left for the garbage
// collector) when the call returns, mirroring the design's "free all on
// return" lifecycle without manual memory management.
type arena struct {
	nodes   []*Node
	byKey   map[nodeKey]*Node
	nextSeq int
}

func newArena() *arena {
	return &arena{byKey: make(map[nodeKey]*Node)}
}

func (a *arena) create(cell core.Cell, g, h int, parent *Node, timestep int, iv reservation.Interval, conflicts int) *Node {
	n := &Node{
		Cell:         cell,
		G:            g,
		H:            h,
		Parent:       parent,
		Timestep:     timestep,
		Interval:     iv,
		NumConflicts: conflicts,
		openIndex:    -1,
		focalIndex:   -1,
		seq:          a.nextSeq,
	}
	a.nextSeq++
	a.nodes = append(a.nodes, n)
	return n
}

func (a *arena) find(key nodeKey) (*Node, bool) {
	n, ok := a.byKey[key]
	return n, ok
}

func (a *arena) insert(n *Node) { a.byKey[keyOf(n)] = n }
