// Package latticeplan plans kinematically-constrained 2d paths over an occupancy grid
// by best-first search over a precomputed state lattice of motion primitives.
package latticeplan

import (
	"context"
	"sync"
	"time"

	"github.com/edaniels/golog"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"

	"go.viam.com/latticeplan/costmap"
	"go.viam.com/latticeplan/lattice"
)

// Pose is a world-frame planar pose.
type Pose struct {
	X     float64
	Y     float64
	Theta float64
}

// Path is an ordered sequence of world-frame poses from start to goal.
type Path []Pose

// Planner owns one live search configuration over a costmap. A single mutex serializes
// planning and reconfiguration: a planning call holds it for the full search plus the
// smoothing handoff, and a reconfiguration call holds it while replacement sub-objects
// are built and swapped, so no call can observe a half-updated configuration.
type Planner struct {
	mu     sync.Mutex
	cm     costmap.Costmap
	logger golog.Logger

	opts     Options
	table    *lattice.MotionTable
	checker  *GridCollisionChecker
	heur     *heuristicTable
	search   *latticeSearch
	smoother Smoother

	footprint         []r3.Vector
	useRadius         bool
	circumscribedCost uint8
	footprintSet      bool
}

// NewPlanner builds a planner over a costmap from an options snapshot, loading the
// configured lattice file. Construction failures return no planner.
func NewPlanner(cm costmap.Costmap, opts Options, logger golog.Logger) (*Planner, error) {
	p := &Planner{cm: cm, logger: logger}
	if err := p.Reconfigure(opts); err != nil {
		return nil, err
	}
	return p, nil
}

// SetFootprint replaces the robot footprint used for collision checking. Vertices are
// in meters in the robot frame; see GridCollisionChecker.SetFootprint.
func (p *Planner) SetFootprint(footprint []r3.Vector, useRadius bool, circumscribedCost uint8) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.footprint = footprint
	p.useRadius = useRadius
	p.circumscribedCost = circumscribedCost
	p.footprintSet = true
	if p.checker != nil {
		p.checker.SetFootprint(footprint, useRadius, circumscribedCost)
	}
}

// SetSmoother installs the downstream smoothing pass invoked with each plan's
// remaining time budget. A nil smoother disables smoothing.
func (p *Planner) SetSmoother(s Smoother) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.smoother = s
}

// Reconfigure atomically replaces the planner's configuration-dependent sub-objects
// from a new options snapshot. If the lattice file changed it is reloaded first; a bad
// file aborts the reconfiguration and the previous configuration remains active.
func (p *Planner) Reconfigure(opts Options) error {
	if err := opts.validate(); err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	table := p.table
	if table == nil || opts.LatticeFilePath != p.opts.LatticeFilePath ||
		opts.AllowReverseExpansion != p.opts.AllowReverseExpansion {
		loaded, err := lattice.LoadMotionTable(opts.LatticeFilePath, opts.AllowReverseExpansion)
		if err != nil {
			p.logger.Warnf("keeping previous configuration: %s", err)
			return err
		}
		table = loaded
	}

	resolution := p.cm.Resolution()
	rawDim := int(opts.LookupTableSize / resolution)
	dim := lookupTableDim(opts.LookupTableSize, resolution)
	if dim != rawDim {
		p.logger.Infof("even sized heuristic lookup table dimension %d, increasing by 1 to make odd", rawDim)
	}

	checker := NewGridCollisionChecker(p.cm, collisionAngleBins)
	if p.footprintSet {
		checker.SetFootprint(p.footprint, p.useRadius, p.circumscribedCost)
	}
	heur := newHeuristicTable(dim)

	p.table = table
	p.checker = checker
	p.heur = heur
	p.search = newLatticeSearch(p.cm, table, checker, heur, opts, p.logger)
	p.opts = opts

	if opts.MaxIterations <= 0 {
		p.logger.Info("maximum iterations selected as <= 0, disabling maximum iterations")
	}
	p.logger.Infof(
		"configured lattice planner with %d headings, turning radius %.3fm, %d iterations max, allow unknown %t, lattice file %s",
		table.Metadata().NumberOfHeadings, table.Metadata().MinTurningRadius,
		opts.iterationBudget(), opts.AllowUnknown, opts.LatticeFilePath)
	return nil
}

// Options returns the live options snapshot.
func (p *Planner) Options() Options {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.opts
}

// Plan computes a path between two world-frame poses, or returns an empty path and a
// reason from the error taxonomy. The search runs synchronously on the calling
// goroutine under the planner's lock; cancellation is budget based, so an earlier
// context deadline tightens the wall-clock budget but there is no mid-search cancel.
func (p *Planner) Plan(ctx context.Context, start, goal Pose) (Path, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	begin := time.Now()
	deadline := begin.Add(time.Duration(p.opts.MaxPlanningTime * float64(time.Second)))
	if ctxDeadline, ok := ctx.Deadline(); ok && ctxDeadline.Before(deadline) {
		deadline = ctxDeadline
	}

	p.cm.RLock()
	defer p.cm.RUnlock()

	sx, sy, ok := p.cm.WorldToMap(start.X, start.Y)
	if !ok {
		return nil, errors.Wrapf(ErrInvalidStart, "start (%.3f, %.3f) is off the grid", start.X, start.Y)
	}
	gx, gy, ok := p.cm.WorldToMap(goal.X, goal.Y)
	if !ok {
		return nil, errors.Wrapf(ErrInvalidGoal, "goal (%.3f, %.3f) is off the grid", goal.X, goal.Y)
	}
	startState := lattice.State{X: sx, Y: sy, Bin: p.table.ClosestAngularBin(start.Theta)}
	goalState := lattice.State{X: gx, Y: gy, Bin: p.table.ClosestAngularBin(goal.Theta)}

	cells, iterations, err := p.search.createPath(startState, goalState, deadline)
	if err != nil {
		switch {
		case errors.Is(err, ErrIterationsExceeded):
			p.logger.Warnf("failed to create plan, exceeded maximum iterations (%d)", iterations)
		case errors.Is(err, ErrTimeExceeded):
			p.logger.Warnf("failed to create plan, ran out of planning time after %d iterations", iterations)
		default:
			p.logger.Warnf("failed to create plan, %s", err)
		}
		return nil, err
	}

	// cells run goal to start; reverse while converting to world coordinates
	originX, originY := p.cm.MapToWorld(0, 0)
	resolution := p.cm.Resolution()
	path := make(Path, 0, len(cells))
	for i := len(cells) - 1; i >= 0; i-- {
		path = append(path, Pose{
			X:     originX + cells[i].x*resolution,
			Y:     originY + cells[i].y*resolution,
			Theta: cells[i].theta,
		})
	}

	if p.smoother != nil && iterations > 1 && len(path) > minSmoothablePath {
		path = p.smoother.Smooth(path, p.cm, time.Until(deadline))
	}

	p.logger.Debugf("planned %d poses in %d iterations over %s", len(path), iterations, time.Since(begin))
	return path, nil
}
