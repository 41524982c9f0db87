package latticeplan

import (
	"math"
	"testing"

	"go.viam.com/test"

	"go.viam.com/latticeplan/costmap"
)

func TestLookupTableDim(t *testing.T) {
	// even dimensions are bumped so a center cell exists
	test.That(t, lookupTableDim(20.0, 1.0), test.ShouldEqual, 21)
	test.That(t, lookupTableDim(10.0, 0.5), test.ShouldEqual, 21)
	test.That(t, lookupTableDim(5.0, 0.1), test.ShouldEqual, 51)

	test.That(t, lookupTableDim(21.0, 1.0), test.ShouldEqual, 21)
	test.That(t, lookupTableDim(7.0, 1.0), test.ShouldEqual, 7)
}

func TestTravelCost(t *testing.T) {
	// free cells cost bare distance
	test.That(t, travelCost(2.0, costmap.FreeSpace, 2.0), test.ShouldEqual, 2.0)
	// the penalty weights the normalized cell cost linearly
	test.That(t, travelCost(1.0, costmap.MaxNonObstacle, 2.0), test.ShouldAlmostEqual, 3.0)
	test.That(t, travelCost(1.0, 126, 2.0), test.ShouldAlmostEqual, 2.0)
	// a zero penalty ignores cell costs entirely
	test.That(t, travelCost(1.5, 200, 0), test.ShouldEqual, 1.5)
}

func TestHeuristicOpenGrid(t *testing.T) {
	cm := emptyGrid(30)
	h := newHeuristicTable(21)
	h.prepare(cm, 15, 15, 2.0, true, false)

	// with no obstacles the straight-line term dominates everywhere
	test.That(t, h.estimate(15, 15), test.ShouldEqual, 0.0)
	test.That(t, h.estimate(10, 15), test.ShouldAlmostEqual, 5.0)
	test.That(t, h.estimate(15, 9), test.ShouldAlmostEqual, 6.0)
	test.That(t, h.estimate(12, 11), test.ShouldAlmostEqual, 5.0)

	// outside the window only the straight-line term is available
	test.That(t, h.estimate(0, 15), test.ShouldAlmostEqual, 15.0)
}

func TestHeuristicCostedGrid(t *testing.T) {
	cm := emptyGrid(30)
	for my := 0; my < 30; my++ {
		for mx := 0; mx < 30; mx++ {
			cm.SetCost(mx, my, 100)
		}
	}
	h := newHeuristicTable(21)
	h.prepare(cm, 15, 15, 2.0, true, false)

	// traversal cost lifts the estimate above the straight-line distance but never
	// above the cost of actually driving the straight line
	estimate := h.estimate(10, 15)
	straightLine := 5.0
	drivenCost := travelCost(5.0, 100, 2.0)
	test.That(t, estimate, test.ShouldBeGreaterThan, straightLine)
	test.That(t, estimate, test.ShouldBeLessThanOrEqualTo, drivenCost)
}

func TestHeuristicRoutesAroundObstacles(t *testing.T) {
	cm := emptyGrid(30)
	// wall across the window with no gap inside it
	for my := 10; my < 21; my++ {
		cm.SetCost(12, my, costmap.LethalObstacle)
	}
	h := newHeuristicTable(21)
	h.prepare(cm, 15, 15, 2.0, true, false)

	// the obstacle term reflects the detour, not the blocked straight line
	blockedSide := h.estimate(10, 15)
	test.That(t, blockedSide, test.ShouldBeGreaterThan, 5.0)

	openSide := h.estimate(20, 15)
	test.That(t, openSide, test.ShouldAlmostEqual, 5.0)
}

func TestHeuristicUnreachableWindowFallsBack(t *testing.T) {
	cm := emptyGrid(30)
	// seal the goal behind a closed ring
	for d := -2; d <= 2; d++ {
		cm.SetCost(15+d, 13, costmap.LethalObstacle)
		cm.SetCost(15+d, 17, costmap.LethalObstacle)
		cm.SetCost(13, 15+d, costmap.LethalObstacle)
		cm.SetCost(17, 15+d, costmap.LethalObstacle)
	}
	h := newHeuristicTable(21)
	h.prepare(cm, 15, 15, 2.0, true, false)

	// cells the window cannot reach still get a finite straight-line estimate
	est := h.estimate(8, 15)
	test.That(t, math.IsInf(est, 1), test.ShouldBeFalse)
	test.That(t, est, test.ShouldAlmostEqual, 7.0)
}

func TestHeuristicUnknownCells(t *testing.T) {
	cm := emptyGrid(30)
	for my := 10; my < 21; my++ {
		cm.SetCost(12, my, costmap.NoInformation)
	}

	allowed := newHeuristicTable(21)
	allowed.prepare(cm, 15, 15, 2.0, true, false)
	test.That(t, allowed.estimate(10, 15), test.ShouldAlmostEqual, 5.0)

	blocked := newHeuristicTable(21)
	blocked.prepare(cm, 15, 15, 2.0, false, false)
	test.That(t, blocked.estimate(10, 15), test.ShouldBeGreaterThan, 5.0)
}

func TestHeuristicCaching(t *testing.T) {
	cm := emptyGrid(30)
	h := newHeuristicTable(21)
	h.prepare(cm, 15, 15, 2.0, true, true)
	before := h.estimate(10, 15)

	for my := 10; my < 21; my++ {
		cm.SetCost(12, my, costmap.LethalObstacle)
	}

	// same goal with caching keeps the stale table
	h.prepare(cm, 15, 15, 2.0, true, true)
	test.That(t, h.estimate(10, 15), test.ShouldEqual, before)

	// a new goal recomputes even when caching
	h.prepare(cm, 16, 15, 2.0, true, true)
	test.That(t, h.estimate(10, 15), test.ShouldBeGreaterThan, before)

	// caching off always recomputes
	h.prepare(cm, 15, 15, 2.0, true, false)
	test.That(t, h.estimate(10, 15), test.ShouldBeGreaterThan, before)
}
