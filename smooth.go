package latticeplan

import (
	"time"

	"go.viam.com/latticeplan/costmap"
)

// A Smoother post-processes a raw planned path within a remaining time budget. It is
// handed a read-locked costmap and must return a path, unchanged if the budget leaves
// no room to work.
type Smoother interface {
	Smooth(path Path, cm costmap.Costmap, timeLeft time.Duration) Path
}

// smoothing defaults.
const (
	// below this remaining budget the smoother returns its input unchanged.
	minSmoothingBudget = 2 * time.Millisecond

	// passes of midpoint averaging per smoothing call.
	defaultSmoothPasses = 10

	// paths at or below this many poses are left alone; endpoints plus a pose of
	// margin are needed for averaging to do anything useful.
	minSmoothablePath = 6
)

// SimpleSmoother rounds off lattice discretization artifacts with bounded-iteration
// midpoint averaging. A pose is only moved when its new cell stays traversable, and
// endpoints are never moved.
type SimpleSmoother struct {
	Passes int
}

// Smooth implements Smoother.
func (s *SimpleSmoother) Smooth(path Path, cm costmap.Costmap, timeLeft time.Duration) Path {
	if timeLeft < minSmoothingBudget || len(path) <= minSmoothablePath {
		return path
	}
	passes := s.Passes
	if passes <= 0 {
		passes = defaultSmoothPasses
	}
	deadline := time.Now().Add(timeLeft)

	smoothed := make(Path, len(path))
	copy(smoothed, path)
	for pass := 0; pass < passes; pass++ {
		if time.Now().After(deadline) {
			break
		}
		for i := 1; i < len(smoothed)-1; i++ {
			nx := smoothed[i].X*0.5 + smoothed[i-1].X*0.25 + smoothed[i+1].X*0.25
			ny := smoothed[i].Y*0.5 + smoothed[i-1].Y*0.25 + smoothed[i+1].Y*0.25
			mx, my, ok := cm.WorldToMap(nx, ny)
			if !ok {
				continue
			}
			if cost := cm.Cost(mx, my); cost >= costmap.InscribedInflated {
				continue
			}
			smoothed[i].X = nx
			smoothed[i].Y = ny
		}
	}
	return smoothed
}
