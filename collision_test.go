package latticeplan

import (
	"math"
	"testing"

	"github.com/golang/geo/r3"
	"go.viam.com/test"

	"go.viam.com/latticeplan/costmap"
)

func squareFootprint(halfExtent float64) []r3.Vector {
	return []r3.Vector{
		{X: halfExtent, Y: halfExtent},
		{X: -halfExtent, Y: halfExtent},
		{X: -halfExtent, Y: -halfExtent},
		{X: halfExtent, Y: -halfExtent},
	}
}

func TestCollisionCenterCell(t *testing.T) {
	cm := emptyGrid(10)
	cm.SetCost(5, 5, costmap.LethalObstacle)
	cm.SetCost(2, 2, costmap.InscribedInflated)
	cm.SetCost(7, 7, 100)
	c := NewGridCollisionChecker(cm, 0)
	test.That(t, c.NumBins(), test.ShouldEqual, 72)

	// without a footprint only the center cell is consulted
	test.That(t, c.InCollision(5.5, 5.5, 0, false), test.ShouldBeTrue)
	test.That(t, c.Cost(), test.ShouldEqual, costmap.LethalObstacle)
	test.That(t, c.InCollision(2.5, 2.5, 0, false), test.ShouldBeTrue)
	test.That(t, c.InCollision(7.5, 7.5, 0, false), test.ShouldBeFalse)
	test.That(t, c.Cost(), test.ShouldEqual, uint8(100))
	test.That(t, c.InCollision(0.5, 0.5, 0, false), test.ShouldBeFalse)
	test.That(t, c.Cost(), test.ShouldEqual, costmap.FreeSpace)

	// off-grid poses always collide
	test.That(t, c.InCollision(-0.5, 5, 0, false), test.ShouldBeTrue)
	test.That(t, c.InCollision(5, 10.5, 0, false), test.ShouldBeTrue)
}

func TestCollisionUnknownCells(t *testing.T) {
	cm := emptyGrid(10)
	cm.SetCost(4, 4, costmap.NoInformation)
	c := NewGridCollisionChecker(cm, 0)

	test.That(t, c.InCollision(4.5, 4.5, 0, false), test.ShouldBeTrue)
	test.That(t, c.InCollision(4.5, 4.5, 0, true), test.ShouldBeFalse)
	test.That(t, c.InCollisionFast(4.5, 4.5, false), test.ShouldBeTrue)
	test.That(t, c.InCollisionFast(4.5, 4.5, true), test.ShouldBeFalse)

	// footprint outlines sweeping an unknown cell follow the same flag
	c.SetFootprint(squareFootprint(1.5), false, 0)
	test.That(t, c.InCollision(5.5, 4.5, 0, false), test.ShouldBeTrue)
	test.That(t, c.InCollision(5.5, 4.5, 0, true), test.ShouldBeFalse)
}

func TestCollisionFootprintSweep(t *testing.T) {
	cm := costmap.NewGrid(20, 20, 1.0, 0, 0)
	cm.SetCost(10, 10, costmap.LethalObstacle)
	c := NewGridCollisionChecker(cm, 0)
	c.SetFootprint(squareFootprint(1.5), false, 0)

	// outline short of the obstacle cell
	test.That(t, c.InCollision(8.2, 10.5, 0, false), test.ShouldBeFalse)
	// outline crossing into the obstacle cell
	test.That(t, c.InCollision(9.2, 10.5, 0, false), test.ShouldBeTrue)
	// approaching from the other side
	test.That(t, c.InCollision(12.8, 10.5, 0, false), test.ShouldBeFalse)
	test.That(t, c.InCollision(11.8, 10.5, 0, false), test.ShouldBeTrue)

	// the outline alone may cross inflated cells even though the center may not
	cm.SetCost(10, 10, costmap.InscribedInflated)
	test.That(t, c.InCollision(9.2, 10.5, 0, false), test.ShouldBeFalse)
	test.That(t, c.InCollision(10.5, 10.5, 0, false), test.ShouldBeTrue)

	// footprints partially off the grid collide
	test.That(t, c.InCollision(0.5, 0.5, 0, false), test.ShouldBeTrue)
}

func TestCollisionFootprintRotation(t *testing.T) {
	cm := costmap.NewGrid(20, 20, 1.0, 0, 0)
	cm.SetCost(10, 10, costmap.LethalObstacle)
	c := NewGridCollisionChecker(cm, 4)
	test.That(t, c.NumBins(), test.ShouldEqual, 4)

	// a long thin footprint only reaches the obstacle when pointed at it
	footprint := []r3.Vector{
		{X: 3, Y: 0.2},
		{X: -0.2, Y: 0.2},
		{X: -0.2, Y: -0.2},
		{X: 3, Y: -0.2},
	}
	c.SetFootprint(footprint, false, 0)

	test.That(t, c.InCollision(8.2, 10.5, 0, false), test.ShouldBeTrue)
	test.That(t, c.InCollision(8.2, 10.5, 1, false), test.ShouldBeFalse)
	test.That(t, c.InCollision(8.2, 10.5, 2, false), test.ShouldBeFalse)
	test.That(t, c.InCollision(10.5, 12.8, 3, false), test.ShouldBeTrue)
	test.That(t, c.InCollision(10.5, 12.8, 1, false), test.ShouldBeFalse)
}

func TestCollisionCircumscribedPrecheck(t *testing.T) {
	cm := costmap.NewGrid(20, 20, 1.0, 0, 0)
	cm.SetCost(10, 10, costmap.LethalObstacle)
	c := NewGridCollisionChecker(cm, 0)

	// a center cost under the circumscribed cost proves the footprint clear, so the
	// outline is never swept
	c.SetFootprint(squareFootprint(1.5), false, 50)
	test.That(t, c.InCollision(9.2, 10.5, 0, false), test.ShouldBeFalse)

	cm.SetCost(9, 10, 60)
	test.That(t, c.InCollision(9.2, 10.5, 0, false), test.ShouldBeTrue)
}

func TestCollisionRadiusMode(t *testing.T) {
	cm := emptyGrid(10)
	cm.SetCost(5, 5, costmap.InscribedInflated)
	cm.SetCost(6, 5, 200)
	c := NewGridCollisionChecker(cm, 0)
	c.SetFootprint(squareFootprint(1.5), true, 0)

	// radius mode never sweeps the outline, inscribed inflation is proof enough
	test.That(t, c.InCollision(5.5, 5.5, 0, false), test.ShouldBeTrue)
	test.That(t, c.InCollision(6.5, 5.5, 0, false), test.ShouldBeFalse)
}

func TestBinOfAngle(t *testing.T) {
	c := NewGridCollisionChecker(emptyGrid(4), 72)
	binSize := 2 * math.Pi / 72

	test.That(t, c.BinOfAngle(0), test.ShouldEqual, 0)
	test.That(t, c.BinOfAngle(binSize), test.ShouldEqual, 1)
	test.That(t, c.BinOfAngle(35*binSize), test.ShouldEqual, 35)
	test.That(t, c.AngleOfBin(35), test.ShouldAlmostEqual, 35*binSize)

	// angles snap to the nearest bin, wrapping at two pi
	test.That(t, c.BinOfAngle(binSize*0.4), test.ShouldEqual, 0)
	test.That(t, c.BinOfAngle(binSize*0.6), test.ShouldEqual, 1)
	test.That(t, c.BinOfAngle(2*math.Pi-binSize*0.4), test.ShouldEqual, 0)
	test.That(t, c.BinOfAngle(-binSize*0.4), test.ShouldEqual, 0)

	for bin := 0; bin < 72; bin++ {
		test.That(t, c.BinOfAngle(c.AngleOfBin(bin)), test.ShouldEqual, bin)
	}
}

func TestInCollisionWithAngle(t *testing.T) {
	cm := costmap.NewGrid(20, 20, 1.0, 0, 0)
	cm.SetCost(10, 10, costmap.LethalObstacle)
	c := NewGridCollisionChecker(cm, 72)
	footprint := []r3.Vector{
		{X: 3, Y: 0.2},
		{X: -0.2, Y: 0.2},
		{X: -0.2, Y: -0.2},
		{X: 3, Y: -0.2},
	}
	c.SetFootprint(footprint, false, 0)

	for _, theta := range []float64{0, 0.03, math.Pi / 3, math.Pi, -math.Pi / 5} {
		test.That(t, c.InCollisionWithAngle(8.2, 10.5, theta, false),
			test.ShouldEqual, c.InCollision(8.2, 10.5, c.BinOfAngle(theta), false))
	}
}
