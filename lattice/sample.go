package lattice

import "math"

// SamplePoses returns intermediate poses along a primitive relative to its origin cell,
// start exclusive and end inclusive, spaced at most maxSpacing cells apart. Poses
// recorded in the lattice file are used directly; primitives without recorded poses are
// interpolated linearly in position with the heading swept through its shortest arc.
func (p Primitive) SamplePoses(mt *MotionTable, maxSpacing float64) [][3]float64 {
	if len(p.Poses) > 0 {
		return p.Poses
	}
	if maxSpacing <= 0 {
		maxSpacing = 0.5
	}
	dx := float64(p.DeltaX)
	dy := float64(p.DeltaY)
	startAngle := mt.AngleOfBin(p.StartBin)
	sweep := angleDiff(mt.AngleOfBin(p.EndBin), startAngle)

	n := int(math.Ceil(math.Hypot(dx, dy) / maxSpacing))
	if n < 1 {
		n = 1
	}
	poses := make([][3]float64, 0, n)
	for i := 1; i <= n; i++ {
		t := float64(i) / float64(n)
		poses = append(poses, [3]float64{
			dx * t,
			dy * t,
			normalizeAngle(startAngle + sweep*t),
		})
	}
	return poses
}
