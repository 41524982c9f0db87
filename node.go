package latticeplan

import (
	"container/heap"

	"go.viam.com/latticeplan/lattice"
)

const noParent = -1

// searchNode wraps a lattice state with mutable search bookkeeping. Parent links are
// arena indices rather than pointers so path reconstruction carries no lifetime
// hazards and reset is a generation-stamp bump.
type searchNode struct {
	state lattice.State
	g     float64
	h     float64

	// parent is the arena slot of the predecessor on the best known path, or noParent.
	parent int

	// incoming is the primitive that reached this node, nil for the start node.
	incoming *lattice.Primitive

	open       bool
	closed     bool
	generation uint32
}

// nodeArena owns every searchNode touched by a search, keyed by the state's dense
// index. Nodes persist across searches; a stale generation stamp marks a slot as
// untouched this search, making per-call reset O(1).
type nodeArena struct {
	width       int
	numHeadings int
	generation  uint32
	slots       map[int]int
	nodes       []searchNode
}

func newNodeArena(width, numHeadings int) *nodeArena {
	return &nodeArena{
		width:       width,
		numHeadings: numHeadings,
		slots:       make(map[int]int),
	}
}

// reset invalidates all bookkeeping from the previous search without touching storage.
func (a *nodeArena) reset() { a.generation++ }

// get returns the arena slot for a state, creating or re-stamping it as needed.
func (a *nodeArena) get(s lattice.State) int {
	key := s.Index(a.width, a.numHeadings)
	slot, ok := a.slots[key]
	if !ok {
		a.nodes = append(a.nodes, searchNode{})
		slot = len(a.nodes) - 1
		a.slots[key] = slot
	}
	n := &a.nodes[slot]
	if !ok || n.generation != a.generation {
		*n = searchNode{state: s, parent: noParent, generation: a.generation}
	}
	return slot
}

// node returns the searchNode in a slot. The pointer is invalidated by the next get.
func (a *nodeArena) node(slot int) *searchNode { return &a.nodes[slot] }

// openItem is one open-set entry. Entries are immutable once pushed; improving a node
// pushes a fresh entry and the stale one is skipped on pop.
type openItem struct {
	f     float64
	h     float64
	order int64
	slot  int
}

// openSet orders expansion by lowest f, breaking ties by lowest h and then by
// insertion order so repeated searches expand identically.
type openSet struct {
	items []openItem
	next  int64
}

func (o *openSet) Len() int { return len(o.items) }

func (o *openSet) Less(i, j int) bool {
	a, b := o.items[i], o.items[j]
	if a.f != b.f {
		return a.f < b.f
	}
	if a.h != b.h {
		return a.h < b.h
	}
	return a.order < b.order
}

func (o *openSet) Swap(i, j int) { o.items[i], o.items[j] = o.items[j], o.items[i] }

func (o *openSet) Push(x any) { o.items = append(o.items, x.(openItem)) }

func (o *openSet) Pop() any {
	old := o.items
	n := len(old)
	item := old[n-1]
	o.items = old[:n-1]
	return item
}

func (o *openSet) push(f, h float64, slot int) {
	heap.Push(o, openItem{f: f, h: h, order: o.next, slot: slot})
	o.next++
}

func (o *openSet) pop() (openItem, bool) {
	if len(o.items) == 0 {
		return openItem{}, false
	}
	return heap.Pop(o).(openItem), true
}

func (o *openSet) clear() {
	o.items = o.items[:0]
	o.next = 0
}
