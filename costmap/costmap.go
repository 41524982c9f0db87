// Package costmap provides the occupancy grid interface consumed by the lattice planner,
// along with an in-memory grid implementation suitable for tests and simple embedders.
package costmap

import "sync"

// Cell cost values, matching the conventions of inflated occupancy grids.
const (
	FreeSpace         uint8 = 0
	MaxNonObstacle    uint8 = 252
	InscribedInflated uint8 = 253
	LethalObstacle    uint8 = 254
	NoInformation     uint8 = 255
)

// Costmap is the read interface over an occupancy grid. Implementations must keep
// Resolution, sizes, and coordinate conversions stable while a read lock is held.
type Costmap interface {
	// Resolution returns the side length of one cell in meters.
	Resolution() float64

	// SizeX and SizeY return the grid dimensions in cells.
	SizeX() int
	SizeY() int

	// Cost returns the traversal cost of a cell. Out-of-bounds queries return LethalObstacle.
	Cost(mx, my int) uint8

	// WorldToMap converts world coordinates to cell coordinates. ok is false when the
	// point falls outside the grid.
	WorldToMap(wx, wy float64) (mx, my int, ok bool)

	// MapToWorld returns the world coordinates of a cell's center.
	MapToWorld(mx, my int) (wx, wy float64)

	// RLock and RUnlock scope a read-consistent view of the grid. A planner holds the
	// read lock for the duration of one search so concurrent map updates cannot
	// invalidate in-flight collision queries.
	RLock()
	RUnlock()
}

// Grid is an in-memory Costmap guarded by a RWMutex.
type Grid struct {
	mu         sync.RWMutex
	sizeX      int
	sizeY      int
	resolution float64
	originX    float64
	originY    float64
	cells      []uint8
}

// NewGrid returns a Grid of the given dimensions with every cell free.
// The origin is the world position of the lower-left corner of cell (0,0).
func NewGrid(sizeX, sizeY int, resolution, originX, originY float64) *Grid {
	return &Grid{
		sizeX:      sizeX,
		sizeY:      sizeY,
		resolution: resolution,
		originX:    originX,
		originY:    originY,
		cells:      make([]uint8, sizeX*sizeY),
	}
}

// Resolution returns the cell side length in meters.
func (g *Grid) Resolution() float64 { return g.resolution }

// SizeX returns the grid width in cells.
func (g *Grid) SizeX() int { return g.sizeX }

// SizeY returns the grid height in cells.
func (g *Grid) SizeY() int { return g.sizeY }

// Cost returns the cost of a cell, or LethalObstacle if out of bounds.
func (g *Grid) Cost(mx, my int) uint8 {
	if mx < 0 || my < 0 || mx >= g.sizeX || my >= g.sizeY {
		return LethalObstacle
	}
	return g.cells[my*g.sizeX+mx]
}

// SetCost writes the cost of a cell. Writers must not race a held read lock;
// callers mutating a live map should take Lock via a fresh Grid swap or
// coordinate with the planner's mutex.
func (g *Grid) SetCost(mx, my int, cost uint8) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if mx < 0 || my < 0 || mx >= g.sizeX || my >= g.sizeY {
		return
	}
	g.cells[my*g.sizeX+mx] = cost
}

// WorldToMap converts a world point to cell coordinates.
func (g *Grid) WorldToMap(wx, wy float64) (int, int, bool) {
	if wx < g.originX || wy < g.originY {
		return 0, 0, false
	}
	mx := int((wx - g.originX) / g.resolution)
	my := int((wy - g.originY) / g.resolution)
	if mx >= g.sizeX || my >= g.sizeY {
		return 0, 0, false
	}
	return mx, my, true
}

// MapToWorld returns the world coordinates of the center of a cell.
func (g *Grid) MapToWorld(mx, my int) (float64, float64) {
	wx := g.originX + (float64(mx)+0.5)*g.resolution
	wy := g.originY + (float64(my)+0.5)*g.resolution
	return wx, wy
}

// RLock acquires the read lock.
func (g *Grid) RLock() { g.mu.RLock() }

// RUnlock releases the read lock.
func (g *Grid) RUnlock() { g.mu.RUnlock() }
