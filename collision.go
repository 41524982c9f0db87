package latticeplan

import (
	"math"

	"github.com/golang/geo/r3"

	"go.viam.com/latticeplan/costmap"
)

// GridCollisionChecker tests a robot footprint against an occupancy grid. Orientations
// are sampled at its own fixed set of evenly sized angle bins, decoupled from the
// lattice's heading count, so intermediate poses along a primitive are checked at
// near-continuous heading fidelity no matter how coarse the lattice is.
type GridCollisionChecker struct {
	cm      costmap.Costmap
	numBins int

	footprint         []r3.Vector // outline vertices in meters, robot frame
	useRadius         bool
	circumscribedCost uint8

	// footprint outline rotated into each angle bin, in cell units
	oriented [][]r3.Vector

	lastCost uint8
}

// NewGridCollisionChecker returns a checker sampling orientations at numBins evenly
// sized angle bins over the given grid. A zero numBins selects the default of 72.
func NewGridCollisionChecker(cm costmap.Costmap, numBins int) *GridCollisionChecker {
	if numBins <= 0 {
		numBins = collisionAngleBins
	}
	return &GridCollisionChecker{cm: cm, numBins: numBins}
}

// NumBins returns the checker's orientation bin count.
func (c *GridCollisionChecker) NumBins() int { return c.numBins }

// SetFootprint replaces the robot footprint wholesale. Vertices are the footprint
// outline in meters in the robot frame. When useRadius is set the footprint is treated
// as circular and only the center-cell cost is consulted. circumscribedCost is the
// occupancy cost at the circumscribed radius of the footprint, used as a conservative
// pre-check before any full outline sweep.
func (c *GridCollisionChecker) SetFootprint(footprint []r3.Vector, useRadius bool, circumscribedCost uint8) {
	c.footprint = footprint
	c.useRadius = useRadius
	c.circumscribedCost = circumscribedCost

	res := c.cm.Resolution()
	c.oriented = make([][]r3.Vector, c.numBins)
	for bin := 0; bin < c.numBins; bin++ {
		theta := c.AngleOfBin(bin)
		sin, cos := math.Sincos(theta)
		verts := make([]r3.Vector, len(footprint))
		for i, v := range footprint {
			verts[i] = r3.Vector{
				X: (v.X*cos - v.Y*sin) / res,
				Y: (v.X*sin + v.Y*cos) / res,
			}
		}
		c.oriented[bin] = verts
	}
}

// BinOfAngle maps a continuous orientation to the nearest checker bin, ties toward the
// lower bin index.
func (c *GridCollisionChecker) BinOfAngle(theta float64) int {
	theta = mod2Pi(theta)
	binSize := 2 * math.Pi / float64(c.numBins)
	bin := int(math.Floor(theta/binSize + 0.5))
	// exact halfway points round down
	if lower := bin - 1; lower >= 0 && math.Abs(theta-float64(lower)*binSize) == math.Abs(theta-float64(bin)*binSize) {
		bin = lower
	}
	return bin % c.numBins
}

// AngleOfBin returns the orientation of a checker bin in radians.
func (c *GridCollisionChecker) AngleOfBin(bin int) float64 {
	return 2 * math.Pi * float64(bin) / float64(c.numBins)
}

// Cost returns the center-cell cost observed by the most recent collision query.
func (c *GridCollisionChecker) Cost() uint8 { return c.lastCost }

// InCollisionFast is the circumscribed-cost pre-check alone: it reports collision
// only when the center cell already proves one, without sweeping the footprint.
// A false result is not a clearance guarantee for footprints larger than a cell.
func (c *GridCollisionChecker) InCollisionFast(x, y float64, traverseUnknown bool) bool {
	mx, my := int(math.Floor(x)), int(math.Floor(y))
	cost := c.cm.Cost(mx, my)
	c.lastCost = cost
	return c.costBlocks(cost, traverseUnknown)
}

// InCollision tests the footprint centered at continuous cell coordinates (x, y) with
// orientation given by a checker angle bin. Off-grid poses are collisions.
func (c *GridCollisionChecker) InCollision(x, y float64, bin int, traverseUnknown bool) bool {
	mx, my := int(math.Floor(x)), int(math.Floor(y))
	if mx < 0 || my < 0 || mx >= c.cm.SizeX() || my >= c.cm.SizeY() {
		c.lastCost = costmap.LethalObstacle
		return true
	}
	cost := c.cm.Cost(mx, my)
	c.lastCost = cost
	if c.costBlocks(cost, traverseUnknown) {
		return true
	}
	// A center within the inscribed radius of an obstacle is a collision for any
	// footprint; costBlocks already admitted an allowed unknown cell.
	if cost != costmap.NoInformation && cost >= costmap.InscribedInflated {
		return true
	}
	if c.useRadius || len(c.footprint) == 0 {
		return false
	}
	if cost < c.circumscribedCost {
		// Center cost below the circumscribed cost means no part of the footprint can
		// reach an obstacle from here.
		return false
	}
	return c.footprintInCollision(x, y, bin, traverseUnknown)
}

// InCollisionWithAngle is InCollision with a continuous orientation, resolved to the
// nearest checker bin first.
func (c *GridCollisionChecker) InCollisionWithAngle(x, y, theta float64, traverseUnknown bool) bool {
	return c.InCollision(x, y, c.BinOfAngle(theta), traverseUnknown)
}

func (c *GridCollisionChecker) costBlocks(cost uint8, traverseUnknown bool) bool {
	if cost == costmap.NoInformation {
		return !traverseUnknown
	}
	return cost >= costmap.LethalObstacle
}

// footprintInCollision traces the oriented footprint outline cell by cell.
func (c *GridCollisionChecker) footprintInCollision(x, y float64, bin int, traverseUnknown bool) bool {
	verts := c.oriented[bin%c.numBins]
	for i := range verts {
		x1 := x + verts[i].X
		y1 := y + verts[i].Y
		next := verts[(i+1)%len(verts)]
		x2 := x + next.X
		y2 := y + next.Y
		if c.segmentInCollision(x1, y1, x2, y2, traverseUnknown) {
			return true
		}
	}
	return false
}

// segmentInCollision samples a segment in cell coordinates at sub-cell spacing,
// checking every touched cell.
func (c *GridCollisionChecker) segmentInCollision(x1, y1, x2, y2 float64, traverseUnknown bool) bool {
	length := math.Hypot(x2-x1, y2-y1)
	steps := int(math.Ceil(length*2)) + 1
	for i := 0; i <= steps; i++ {
		t := float64(i) / float64(steps)
		px := x1 + (x2-x1)*t
		py := y1 + (y2-y1)*t
		mx, my := int(math.Floor(px)), int(math.Floor(py))
		if mx < 0 || my < 0 || mx >= c.cm.SizeX() || my >= c.cm.SizeY() {
			return true
		}
		cost := c.cm.Cost(mx, my)
		if cost == costmap.NoInformation {
			if !traverseUnknown {
				return true
			}
			continue
		}
		if cost >= costmap.LethalObstacle {
			return true
		}
	}
	return false
}
