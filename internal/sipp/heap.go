package sipp

import "container/heap"

// openHeap orders nodes by (f, h, insertion order) — Mode B's OPEN list.
type openHeap []*Node

func (h openHeap) Len() int { return len(h) }
func (h openHeap) Less(i, j int) bool {
	a, b := h[i], h[j]
	if a.F() != b.F() {
		return a.F() < b.F()
	}
	if a.H != b.H {
		return a.H < b.H
	}
	return a.seq < b.seq
}
func (h openHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].openIndex = i
	h[j].openIndex = j
}
func (h *openHeap) Push(x any) {
	n := x.(*Node)
	n.openIndex = len(*h)
	*h = append(*h, n)
}
func (h *openHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	old[n-1] = nil
	x.openIndex = -1
	*h = old[:n-1]
	return x
}

// focalHeap orders nodes by (num_of_conflicts, f, h, insertion order) —
// shared by Mode A (sole queue) and Mode B (the bounded-suboptimal
// secondary queue).
type focalHeap []*Node

func (h focalHeap) Len() int { return len(h) }
func (h focalHeap) Less(i, j int) bool {
	a, b := h[i], h[j]
	if a.NumConflicts != b.NumConflicts {
		return a.NumConflicts < b.NumConflicts
	}
	if a.F() != b.F() {
		return a.F() < b.F()
	}
	if a.H != b.H {
		return a.H < b.H
	}
	return a.seq < b.seq
}
func (h focalHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].focalIndex = i
	h[j].focalIndex = j
}
func (h *focalHeap) Push(x any) {
	n := x.(*Node)
	n.focalIndex = len(*h)
	*h = append(*h, n)
}
func (h *focalHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	old[n-1] = nil
	x.focalIndex = -1
	*h = old[:n-1]
	return x
}

func pushOpen(h *openHeap, n *Node)    { heap.Push(h, n) }
func popOpen(h *openHeap) *Node        { return heap.Pop(h).(*Node) }
func fixOpen(h *openHeap, n *Node)     { heap.Fix(h, n.openIndex) }
func removeOpen(h *openHeap, n *Node)  { heap.Remove(h, n.openIndex) }

func pushFocal(h *focalHeap, n *Node)   { heap.Push(h, n) }
func popFocal(h *focalHeap) *Node       { return heap.Pop(h).(*Node) }
func fixFocal(h *focalHeap, n *Node)    { heap.Fix(h, n.focalIndex) }
