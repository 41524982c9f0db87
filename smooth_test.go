package latticeplan

import (
	"math"
	"testing"
	"time"

	"go.viam.com/test"

	"go.viam.com/latticeplan/costmap"
)

func zigzagPath(n int) Path {
	path := make(Path, 0, n)
	for i := 0; i < n; i++ {
		y := 5.5
		if i%2 == 1 {
			y = 6.5
		}
		path = append(path, Pose{X: float64(i) + 0.5, Y: y})
	}
	return path
}

func TestSimpleSmoother(t *testing.T) {
	cm := costmap.NewGrid(20, 20, 1.0, 0, 0)
	s := &SimpleSmoother{}

	path := zigzagPath(12)
	smoothed := s.Smooth(path, cm, time.Second)
	test.That(t, len(smoothed), test.ShouldEqual, len(path))

	// endpoints are pinned
	test.That(t, smoothed[0], test.ShouldResemble, path[0])
	test.That(t, smoothed[len(smoothed)-1], test.ShouldResemble, path[len(path)-1])

	// interior zigzag amplitude shrinks
	var before, after float64
	for i := 1; i < len(path)-1; i++ {
		before += math.Abs(path[i+1].Y-path[i].Y) + math.Abs(path[i].Y-path[i-1].Y)
		after += math.Abs(smoothed[i+1].Y-smoothed[i].Y) + math.Abs(smoothed[i].Y-smoothed[i-1].Y)
	}
	test.That(t, after, test.ShouldBeLessThan, before)

	// the original path is never mutated
	test.That(t, path, test.ShouldResemble, zigzagPath(12))
}

func TestSimpleSmootherRespectsBudget(t *testing.T) {
	cm := costmap.NewGrid(20, 20, 1.0, 0, 0)
	s := &SimpleSmoother{}

	path := zigzagPath(12)
	test.That(t, s.Smooth(path, cm, 0), test.ShouldResemble, path)
	test.That(t, s.Smooth(path, cm, time.Millisecond), test.ShouldResemble, path)
}

func TestSimpleSmootherLeavesShortPaths(t *testing.T) {
	cm := costmap.NewGrid(20, 20, 1.0, 0, 0)
	s := &SimpleSmoother{}

	short := zigzagPath(6)
	test.That(t, s.Smooth(short, cm, time.Second), test.ShouldResemble, short)
}

func TestSimpleSmootherAvoidsObstacles(t *testing.T) {
	cm := costmap.NewGrid(20, 20, 1.0, 0, 0)
	// wall under the corridor so poses cannot be pulled down into it
	for mx := 0; mx < 20; mx++ {
		cm.SetCost(mx, 5, costmap.LethalObstacle)
	}
	s := &SimpleSmoother{Passes: 3}

	path := make(Path, 0, 12)
	for i := 0; i < 12; i++ {
		y := 6.1
		if i%2 == 1 {
			y = 7.5
		}
		path = append(path, Pose{X: float64(i) + 0.5, Y: y})
	}
	smoothed := s.Smooth(path, cm, time.Second)
	for _, p := range smoothed {
		mx, my, ok := cm.WorldToMap(p.X, p.Y)
		test.That(t, ok, test.ShouldBeTrue)
		test.That(t, cm.Cost(mx, my), test.ShouldBeLessThan, costmap.InscribedInflated)
	}
}
