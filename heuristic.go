package latticeplan

import (
	"container/heap"
	"math"

	"go.viam.com/latticeplan/costmap"
)

// Worst-case ratio of an 8-connected grid path to the straight-line distance it
// approximates, at a 22.5 degree travel direction. The obstacle heuristic divides by
// this so its estimate never exceeds the cost of a lattice path cutting the diagonal.
const octileInflation = 1.0823922002923940

// heuristicTable is the precomputed cost-to-go estimate over a square, odd-dimensioned
// neighborhood centered on the goal cell. The estimate combines a straight-line
// distance term with a windowed 2D shortest-path term over traversal costs; both are
// admissible, so their max is too.
type heuristicTable struct {
	dim     int
	goalX   int
	goalY   int
	costs   []float64
	hasGoal bool
}

// lookupTableDim converts a configured physical table extent to a cell dimension,
// forced odd so a center cell exists.
func lookupTableDim(sizeMeters, resolution float64) int {
	dim := int(sizeMeters / resolution)
	if dim%2 == 0 {
		dim++
	}
	return dim
}

func newHeuristicTable(dim int) *heuristicTable {
	return &heuristicTable{dim: dim, costs: make([]float64, dim*dim)}
}

// prepare recomputes the obstacle component for a goal cell. When cached is set and the
// goal cell is unchanged since the last computation, the previous table is retained.
func (h *heuristicTable) prepare(cm costmap.Costmap, goalX, goalY int, costPenalty float64, allowUnknown, cached bool) {
	if cached && h.hasGoal && h.goalX == goalX && h.goalY == goalY {
		return
	}
	h.goalX = goalX
	h.goalY = goalY
	h.hasGoal = true
	h.computeObstacleCosts(cm, costPenalty, allowUnknown)
}

// estimate returns the admissible cost-to-go from continuous cell coordinates to the
// goal cell, in the same units as search edge costs.
func (h *heuristicTable) estimate(x, y float64) float64 {
	distance := math.Hypot(float64(h.goalX)-x, float64(h.goalY)-y)
	half := h.dim / 2
	lx := int(math.Floor(x)) - h.goalX + half
	ly := int(math.Floor(y)) - h.goalY + half
	if lx < 0 || ly < 0 || lx >= h.dim || ly >= h.dim {
		return distance
	}
	obstacle := h.costs[ly*h.dim+lx]
	if math.IsInf(obstacle, 1) {
		// Unreachable within the window; a path may still exist around it, so fall
		// back to the distance term rather than pruning.
		return distance
	}
	return math.Max(distance, obstacle)
}

type cellQueueItem struct {
	idx  int
	cost float64
}

type cellQueue []cellQueueItem

func (q cellQueue) Len() int           { return len(q) }
func (q cellQueue) Less(i, j int) bool { return q[i].cost < q[j].cost }
func (q cellQueue) Swap(i, j int)      { q[i], q[j] = q[j], q[i] }
func (q *cellQueue) Push(x any)        { *q = append(*q, x.(cellQueueItem)) }
func (q *cellQueue) Pop() any {
	old := *q
	n := len(old)
	item := old[n-1]
	*q = old[:n-1]
	return item
}

// computeObstacleCosts runs Dijkstra outward from the goal over the window, using the
// same traversed-cell cost weighting as search edges so the result underestimates any
// lattice path through the same cells.
func (h *heuristicTable) computeObstacleCosts(cm costmap.Costmap, costPenalty float64, allowUnknown bool) {
	for i := range h.costs {
		h.costs[i] = math.Inf(1)
	}
	half := h.dim / 2
	center := half*h.dim + half
	h.costs[center] = 0

	q := &cellQueue{{idx: center, cost: 0}}
	heap.Init(q)

	steps := []struct {
		dx, dy int
		length float64
	}{
		{1, 0, 1}, {-1, 0, 1}, {0, 1, 1}, {0, -1, 1},
		{1, 1, math.Sqrt2}, {1, -1, math.Sqrt2}, {-1, 1, math.Sqrt2}, {-1, -1, math.Sqrt2},
	}

	for q.Len() > 0 {
		item := heap.Pop(q).(cellQueueItem)
		if item.cost > h.costs[item.idx] {
			continue
		}
		lx, ly := item.idx%h.dim, item.idx/h.dim
		for _, s := range steps {
			nx, ny := lx+s.dx, ly+s.dy
			if nx < 0 || ny < 0 || nx >= h.dim || ny >= h.dim {
				continue
			}
			mx := h.goalX + nx - half
			my := h.goalY + ny - half
			if mx < 0 || my < 0 || mx >= cm.SizeX() || my >= cm.SizeY() {
				continue
			}
			cellCost := cm.Cost(mx, my)
			if cellCost >= costmap.LethalObstacle && !(cellCost == costmap.NoInformation && allowUnknown) {
				continue
			}
			traversable := cellCost
			if traversable == costmap.NoInformation {
				traversable = costmap.FreeSpace
			}
			next := item.cost + travelCost(s.length, traversable, costPenalty)/octileInflation
			nidx := ny*h.dim + nx
			if next < h.costs[nidx] {
				h.costs[nidx] = next
				heap.Push(q, cellQueueItem{idx: nidx, cost: next})
			}
		}
	}
}

// travelCost is the cost of moving a given arc length (in cells) across a cell of the
// given traversal cost. The cost penalty is a linear weight on the normalized cell cost.
func travelCost(arcLength float64, cellCost uint8, costPenalty float64) float64 {
	return arcLength * (1 + costPenalty*float64(cellCost)/float64(costmap.MaxNonObstacle))
}
