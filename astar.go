package latticeplan

import (
	"math"
	"time"

	"github.com/edaniels/golog"

	"go.viam.com/latticeplan/costmap"
	"go.viam.com/latticeplan/lattice"
)

// cellPose is a continuous pose in cell coordinates.
type cellPose struct {
	x, y, theta float64
}

// latticeSearch is one configured best-first search engine over the motion lattice.
// Instances are built whole by the planner and replaced, never mutated, when
// configuration changes. All methods assume the planner's lock is held.
type latticeSearch struct {
	cm      costmap.Costmap
	table   *lattice.MotionTable
	checker *GridCollisionChecker
	heur    *heuristicTable
	opts    Options
	arena   *nodeArena
	open    *openSet
	dubins  Dubins
	logger  golog.Logger

	// analytic expansion bookkeeping, reset per search
	analyticCounter int
}

func newLatticeSearch(
	cm costmap.Costmap,
	table *lattice.MotionTable,
	checker *GridCollisionChecker,
	heur *heuristicTable,
	opts Options,
	logger golog.Logger,
) *latticeSearch {
	turningRadiusCells := table.Metadata().MinTurningRadius / cm.Resolution()
	return &latticeSearch{
		cm:      cm,
		table:   table,
		checker: checker,
		heur:    heur,
		opts:    opts,
		arena:   newNodeArena(cm.SizeX(), table.Metadata().NumberOfHeadings),
		open:    &openSet{},
		dubins:  Dubins{Radius: turningRadiusCells, PointSeparation: 0.5},
		logger:  logger,
	}
}

func (s *latticeSearch) poseOf(st lattice.State) cellPose {
	return cellPose{x: float64(st.X), y: float64(st.Y), theta: s.table.AngleOfBin(st.Bin)}
}

func (s *latticeSearch) stateInCollision(st lattice.State) bool {
	theta := s.table.AngleOfBin(st.Bin)
	return s.checker.InCollisionWithAngle(float64(st.X), float64(st.Y), theta, s.opts.AllowUnknown)
}

// createPath runs one search from start to goal, bounded by the iteration budget and
// the wall-clock deadline. The returned poses run from goal back to start; the caller
// reverses them. iterations reports expansions consumed regardless of outcome.
func (s *latticeSearch) createPath(start, goal lattice.State, deadline time.Time) ([]cellPose, int, error) {
	if !start.InBounds(s.cm.SizeX(), s.cm.SizeY()) || s.stateInCollision(start) {
		return nil, 0, ErrInvalidStart
	}
	if !goal.InBounds(s.cm.SizeX(), s.cm.SizeY()) || s.stateInCollision(goal) {
		return nil, 0, ErrInvalidGoal
	}

	s.heur.prepare(s.cm, goal.X, goal.Y, s.opts.CostPenalty, s.opts.AllowUnknown, s.opts.CacheObstacleHeuristic)
	s.arena.reset()
	s.open.clear()
	s.analyticCounter = 0

	startSlot := s.arena.get(start)
	startNode := s.arena.node(startSlot)
	startNode.h = s.heur.estimate(float64(start.X), float64(start.Y))
	startNode.open = true
	s.open.push(startNode.h, startNode.h, startSlot)

	budget := s.opts.iterationBudget()
	iterations := 0
	for {
		if time.Now().After(deadline) {
			return nil, iterations, ErrTimeExceeded
		}
		if iterations >= budget {
			return nil, iterations, ErrIterationsExceeded
		}

		item, ok := s.open.pop()
		if !ok {
			return nil, iterations, ErrNoPathFound
		}
		slot := item.slot
		if s.arena.node(slot).closed {
			continue
		}
		iterations++
		s.arena.node(slot).closed = true

		cur := *s.arena.node(slot)
		if s.isGoal(cur.state, goal) {
			return s.reconstruct(slot), iterations, nil
		}

		if tail, ok := s.tryAnalyticExpansion(cur, goal); ok {
			path := append(tail, s.reconstruct(slot)...)
			return path, iterations, nil
		}

		s.expand(slot, cur, goal)
	}
}

func (s *latticeSearch) isGoal(st, goal lattice.State) bool {
	if st == goal {
		return true
	}
	if s.opts.GoalTolerance <= 0 {
		return false
	}
	dx := float64(st.X - goal.X)
	dy := float64(st.Y - goal.Y)
	return st.Bin == goal.Bin && math.Hypot(dx, dy) <= s.opts.GoalTolerance
}

// expand pushes every applicable primitive successor of a popped node.
func (s *latticeSearch) expand(slot int, cur searchNode, goal lattice.State) {
	prims := s.table.Primitives(cur.state.Bin)
	for i := range prims {
		prim := &prims[i]
		next := lattice.State{
			X:   cur.state.X + prim.DeltaX,
			Y:   cur.state.Y + prim.DeltaY,
			Bin: prim.EndBin,
		}
		if !next.InBounds(s.cm.SizeX(), s.cm.SizeY()) {
			continue
		}
		maxCost, blocked := s.sweepPrimitive(cur.state, prim)
		if blocked {
			continue
		}

		edge := travelCost(prim.ArcLength, maxCost, s.opts.CostPenalty)
		if prim.Turn != lattice.TurnStraight {
			edge *= s.opts.NonStraightPenalty
		}
		if prim.Reversed {
			edge *= s.opts.ReversePenalty
		}
		if cur.incoming != nil && cur.incoming.Reversed != prim.Reversed {
			edge += s.opts.ChangePenalty
		}

		g := cur.g + edge
		nextSlot := s.arena.get(next)
		n := s.arena.node(nextSlot)
		if n.closed {
			continue
		}
		if n.open && g >= n.g {
			continue
		}
		n.g = g
		n.h = s.heur.estimate(float64(next.X), float64(next.Y))
		n.parent = slot
		n.incoming = prim
		n.open = true
		s.open.push(g+n.h, n.h, nextSlot)
	}
}

// sweepPrimitive collision-checks every intermediate sample of a primitive applied at
// a state, returning the maximum traversal cost seen. Orientation at each sample is
// resolved through the checker's fine-grained angle bins rather than the lattice's own
// headings.
func (s *latticeSearch) sweepPrimitive(from lattice.State, prim *lattice.Primitive) (uint8, bool) {
	var maxCost uint8
	for _, sample := range prim.SamplePoses(s.table, 1.0) {
		px := float64(from.X) + sample[0]
		py := float64(from.Y) + sample[1]
		if s.checker.InCollisionWithAngle(px, py, sample[2], s.opts.AllowUnknown) {
			return 0, true
		}
		cost := s.checker.Cost()
		if cost == costmap.NoInformation {
			cost = costmap.FreeSpace
		}
		if cost > maxCost {
			maxCost = cost
		}
	}
	return maxCost, false
}

// reconstruct follows parent slots from a terminal node back to the start, expanding
// each primitive's intermediate poses. The result runs goal to start.
func (s *latticeSearch) reconstruct(slot int) []cellPose {
	path := make([]cellPose, 0)
	for slot != noParent {
		n := s.arena.node(slot)
		if n.incoming != nil && n.parent != noParent {
			parent := s.arena.node(n.parent)
			samples := n.incoming.SamplePoses(s.table, 1.0)
			for i := len(samples) - 1; i >= 0; i-- {
				path = append(path, cellPose{
					x:     float64(parent.state.X) + samples[i][0],
					y:     float64(parent.state.Y) + samples[i][1],
					theta: samples[i][2],
				})
			}
		} else {
			path = append(path, s.poseOf(n.state))
		}
		slot = n.parent
	}
	return path
}

// tryAnalyticExpansion periodically attempts a direct kinematically-feasible
// connection from the current node to the goal. The attempt frequency scales with the
// node's heuristic distance so the search tries harder as it nears the goal. On
// success the returned poses run goal back to the node, exclusive of the node itself.
func (s *latticeSearch) tryAnalyticExpansion(cur searchNode, goal lattice.State) ([]cellPose, bool) {
	interval := int(cur.h / s.opts.AnalyticExpansionRatio)
	if interval < 1 {
		interval = 1
	}
	s.analyticCounter++
	if s.analyticCounter < interval {
		return nil, false
	}
	s.analyticCounter = 0

	from := s.poseOf(cur.state)
	to := s.poseOf(goal)

	if tail, ok := s.analyticConnection(from, to, false); ok {
		return tail, true
	}
	if s.opts.AllowReverseExpansion {
		if tail, ok := s.analyticConnection(from, to, true); ok {
			return tail, true
		}
	}
	return nil, false
}

// analyticConnection samples an idealized minimum-radius connection between two poses
// and collision-checks every sample. Reversed connections flip both headings and drive
// the curve backwards.
func (s *latticeSearch) analyticConnection(from, to cellPose, reversed bool) ([]cellPose, bool) {
	a := []float64{from.x, from.y, from.theta}
	b := []float64{to.x, to.y, to.theta}
	if reversed {
		a = []float64{to.x, to.y, mod2Pi(to.theta + math.Pi)}
		b = []float64{from.x, from.y, mod2Pi(from.theta + math.Pi)}
	}

	for _, attr := range s.dubins.AllPaths(a, b, true) {
		if math.IsInf(attr.TotalLen, 1) {
			break
		}
		points := s.dubins.generatePoints(a, b, attr.DubinsPath, attr.Straight)
		if len(points) < 2 {
			continue
		}
		poses, ok := s.checkSampledConnection(points, reversed, from, to)
		if ok {
			return poses, true
		}
	}
	return nil, false
}

// checkSampledConnection validates a sampled connection and converts it to poses
// running goal back toward the node, exclusive of the node pose.
func (s *latticeSearch) checkSampledConnection(points [][]float64, reversed bool, from, to cellPose) ([]cellPose, bool) {
	n := len(points)
	poses := make([]cellPose, 0, n)
	for i, pt := range points {
		var theta float64
		switch {
		case i == n-1:
			theta = to.theta
			if reversed {
				theta = from.theta
			}
		default:
			theta = math.Atan2(points[i+1][1]-pt[1], points[i+1][0]-pt[0])
			if reversed {
				theta = mod2Pi(theta + math.Pi)
			}
		}
		if s.checker.InCollisionWithAngle(pt[0], pt[1], theta, s.opts.AllowUnknown) {
			return nil, false
		}
		poses = append(poses, cellPose{x: pt[0], y: pt[1], theta: theta})
	}

	if reversed {
		// samples already run goal to node; drop the node endpoint
		return poses[:n-1], true
	}
	// samples run node to goal; reverse and drop the node endpoint
	out := make([]cellPose, 0, n-1)
	for i := n - 1; i >= 1; i-- {
		out = append(out, poses[i])
	}
	return out, true
}
