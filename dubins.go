package latticeplan

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
)

// Dubins calculates paths for a car-like robot with a minimum turning radius. Paths are
// made of a sequence of three segments, each either a minimum-radius arc or a straight
// line. Units of Radius and PointSeparation are those of the poses passed in.
type Dubins struct {
	Radius          float64 // minimum turning radius
	PointSeparation float64 // separation of points on the paths produced by generatePoints
}

// DubinPathAttr describes a single Dubins path option between two poses. DubinsPath
// holds the signed first and last arc angles in radians (positive is a left turn),
// and a middle segment which is a straight length when Straight is set, else a signed
// middle arc angle.
type DubinPathAttr struct {
	TotalLen   float64
	DubinsPath []float64
	Straight   bool
}

// AllPaths finds the six path options from start to end pose, each pose (x, y, theta).
// Options with no valid geometry have infinite length. If sorted, shortest comes first.
func (d *Dubins) AllPaths(start, end []float64, sorted bool) []DubinPathAttr {
	centerLS := d.findCenter(start, true)
	centerRS := d.findCenter(start, false)
	centerLE := d.findCenter(end, true)
	centerRE := d.findCenter(end, false)

	paths := []DubinPathAttr{
		d.lsl(start, end, centerLS, centerLE),
		d.rsr(start, end, centerRS, centerRE),
		d.rsl(start, end, centerRS, centerLE),
		d.lsr(start, end, centerLS, centerRE),
		d.ccc(start, end, false),
		d.ccc(start, end, true),
	}
	if sorted {
		sort.Slice(paths, func(i, j int) bool {
			return paths[i].TotalLen < paths[j].TotalLen
		})
	}
	return paths
}

// findCenter locates the center of the turning circle tangent to a pose, on its left or
// right side.
func (d *Dubins) findCenter(point []float64, isLeft bool) []float64 {
	angle := point[2]
	if isLeft {
		angle += math.Pi / 2
	} else {
		angle -= math.Pi / 2
	}
	return []float64{
		point[0] + math.Cos(angle)*d.Radius,
		point[1] + math.Sin(angle)*d.Radius,
	}
}

func (d *Dubins) lsl(start, end, centerS, centerE []float64) DubinPathAttr {
	straightDist := dist(centerS, centerE)
	alpha := math.Atan2(centerE[1]-centerS[1], centerE[0]-centerS[0])
	beta2 := mod2Pi(end[2] - alpha)
	beta0 := mod2Pi(alpha - start[2])
	totalLen := d.Radius*(beta2+beta0) + straightDist
	return DubinPathAttr{TotalLen: totalLen, DubinsPath: []float64{beta0, beta2, straightDist}, Straight: true}
}

func (d *Dubins) rsr(start, end, centerS, centerE []float64) DubinPathAttr {
	straightDist := dist(centerS, centerE)
	alpha := math.Atan2(centerE[1]-centerS[1], centerE[0]-centerS[0])
	beta2 := mod2Pi(alpha - end[2])
	beta0 := mod2Pi(start[2] - alpha)
	totalLen := d.Radius*(beta2+beta0) + straightDist
	return DubinPathAttr{TotalLen: totalLen, DubinsPath: []float64{-beta0, -beta2, straightDist}, Straight: true}
}

func (d *Dubins) rsl(start, end, centerS, centerE []float64) DubinPathAttr {
	medianPoint := []float64{(centerE[0] - centerS[0]) / 2, (centerE[1] - centerS[1]) / 2}
	psia := math.Atan2(medianPoint[1], medianPoint[0])
	halfIntercenter := floats.Norm(medianPoint, 2)
	if halfIntercenter < d.Radius {
		return DubinPathAttr{TotalLen: math.Inf(1)}
	}
	alpha := math.Acos(d.Radius / halfIntercenter)
	beta0 := mod2Pi(-(psia + alpha - start[2] - math.Pi/2))
	beta2 := mod2Pi(math.Pi + end[2] - math.Pi/2 - alpha - psia)
	straightDist := 2 * math.Sqrt(halfIntercenter*halfIntercenter-d.Radius*d.Radius)
	totalLen := d.Radius*(beta2+beta0) + straightDist
	return DubinPathAttr{TotalLen: totalLen, DubinsPath: []float64{-beta0, beta2, straightDist}, Straight: true}
}

func (d *Dubins) lsr(start, end, centerS, centerE []float64) DubinPathAttr {
	medianPoint := []float64{(centerE[0] - centerS[0]) / 2, (centerE[1] - centerS[1]) / 2}
	psia := math.Atan2(medianPoint[1], medianPoint[0])
	halfIntercenter := floats.Norm(medianPoint, 2)
	if halfIntercenter < d.Radius {
		return DubinPathAttr{TotalLen: math.Inf(1)}
	}
	alpha := math.Acos(d.Radius / halfIntercenter)
	beta0 := mod2Pi(psia - alpha - start[2] + math.Pi/2)
	beta2 := mod2Pi(0.5*math.Pi - end[2] - alpha + psia)
	straightDist := 2 * math.Sqrt(halfIntercenter*halfIntercenter-d.Radius*d.Radius)
	totalLen := d.Radius*(beta2+beta0) + straightDist
	return DubinPathAttr{TotalLen: totalLen, DubinsPath: []float64{beta0, -beta2, straightDist}, Straight: true}
}

// ccc builds the three-arc option (LRL when left, else RLR). The middle circle has two
// tangent placements; both are walked and the shorter total wins.
func (d *Dubins) ccc(start, end []float64, left bool) DubinPathAttr {
	center0 := d.findCenter(start, left)
	center2 := d.findCenter(end, left)
	intercenter := dist(center0, center2)
	if intercenter > 4*d.Radius || intercenter == 0 {
		return DubinPathAttr{TotalLen: math.Inf(1)}
	}
	psia := math.Atan2(center2[1]-center0[1], center2[0]-center0[0])
	theta := math.Acos(intercenter / (4 * d.Radius))

	best := DubinPathAttr{TotalLen: math.Inf(1)}
	for _, phi := range []float64{psia + theta, psia - theta} {
		center1 := []float64{
			center0[0] + 2*d.Radius*math.Cos(phi),
			center0[1] + 2*d.Radius*math.Sin(phi),
		}

		var beta0, betaMid, beta2 float64
		if left {
			startPos := start[2] - math.Pi/2
			endPos := end[2] - math.Pi/2
			tangent0 := math.Atan2(center1[1]-center0[1], center1[0]-center0[0])
			tangent2 := math.Atan2(center1[1]-center2[1], center1[0]-center2[0])
			midEnd := math.Atan2(center2[1]-center1[1], center2[0]-center1[0])
			beta0 = mod2Pi(tangent0 - startPos)
			betaMid = mod2Pi((tangent0 + math.Pi) - midEnd)
			beta2 = mod2Pi(endPos - tangent2)
		} else {
			startPos := start[2] + math.Pi/2
			endPos := end[2] + math.Pi/2
			tangent0 := math.Atan2(center1[1]-center0[1], center1[0]-center0[0])
			tangent2 := math.Atan2(center1[1]-center2[1], center1[0]-center2[0])
			midEnd := math.Atan2(center2[1]-center1[1], center2[0]-center1[0])
			beta0 = mod2Pi(startPos - tangent0)
			betaMid = mod2Pi(midEnd - (tangent0 + math.Pi))
			beta2 = mod2Pi(tangent2 - endPos)
		}

		totalLen := d.Radius * (beta0 + betaMid + beta2)
		if totalLen >= best.TotalLen {
			continue
		}
		if left {
			best = DubinPathAttr{TotalLen: totalLen, DubinsPath: []float64{beta0, beta2, -betaMid}}
		} else {
			best = DubinPathAttr{TotalLen: totalLen, DubinsPath: []float64{-beta0, -beta2, betaMid}}
		}
	}
	return best
}

// generatePoints samples a Dubins path at PointSeparation intervals, returning
// (x, y) points from start to end inclusive.
func (d *Dubins) generatePoints(start, end, dubinsPath []float64, straight bool) [][]float64 {
	if straight {
		return d.generatePointsStraight(start, end, dubinsPath)
	}
	return d.generatePointsCurve(start, end, dubinsPath)
}

func (d *Dubins) generatePointsStraight(start, end, path []float64) [][]float64 {
	total := d.Radius*(math.Abs(path[0])+math.Abs(path[1])) + path[2]

	center0 := d.findCenter(start, path[0] > 0)
	center2 := d.findCenter(end, path[1] > 0)

	// endpoints of the straight segment
	ini := []float64{start[0], start[1]}
	if path[0] != 0 {
		ini = d.circleArc(start, path[0], center0, math.Abs(path[0])*d.Radius)
	}
	fin := []float64{end[0], end[1]}
	if path[1] != 0 {
		fin = d.circleArc(end, path[1], center2, -math.Abs(path[1])*d.Radius)
	}
	distStraight := dist(ini, fin)

	points := make([][]float64, 0)
	for x := 0.0; x < total; x += d.PointSeparation {
		switch {
		case x < math.Abs(path[0])*d.Radius:
			points = append(points, d.circleArc(start, path[0], center0, x))
		case x > total-math.Abs(path[1])*d.Radius:
			points = append(points, d.circleArc(end, path[1], center2, x-total))
		default:
			if distStraight == 0 {
				points = append(points, []float64{ini[0], ini[1]})
				continue
			}
			coeff := (x - math.Abs(path[0])*d.Radius) / distStraight
			points = append(points, []float64{
				coeff*fin[0] + (1-coeff)*ini[0],
				coeff*fin[1] + (1-coeff)*ini[1],
			})
		}
	}
	points = append(points, []float64{end[0], end[1]})
	return points
}

func (d *Dubins) generatePointsCurve(start, end, path []float64) [][]float64 {
	total := d.Radius * (math.Abs(path[0]) + math.Abs(path[1]) + math.Abs(path[2]))

	// The first turn is always opposite the middle arc, which is never degenerate.
	// Inferring the direction from the middle sign keeps zero-length outer arcs exact.
	firstLeft := path[2] < 0
	center0 := d.findCenter(start, firstLeft)
	center2 := d.findCenter(end, firstLeft)

	sign0 := 1.0
	startPos := start[2] - math.Pi/2
	if !firstLeft {
		sign0 = -1.0
		startPos = start[2] + math.Pi/2
	}
	tangent0 := startPos + sign0*math.Abs(path[0])
	center1 := []float64{
		center0[0] + 2*d.Radius*math.Cos(tangent0),
		center0[1] + 2*d.Radius*math.Sin(tangent0),
	}
	signMid := math.Copysign(1, path[2])

	points := make([][]float64, 0)
	for x := 0.0; x < total; x += d.PointSeparation {
		switch {
		case x < math.Abs(path[0])*d.Radius:
			points = append(points, d.circleArc(start, sign0, center0, x))
		case x > total-math.Abs(path[1])*d.Radius:
			points = append(points, d.circleArc(end, sign0, center2, x-total))
		default:
			angle := (tangent0 + math.Pi) + signMid*(x-math.Abs(path[0])*d.Radius)/d.Radius
			points = append(points, []float64{
				center1[0] + d.Radius*math.Cos(angle),
				center1[1] + d.Radius*math.Sin(angle),
			})
		}
	}
	points = append(points, []float64{end[0], end[1]})
	return points
}

// circleArc returns the point a signed arc length along the turning circle from a
// reference pose. The sign of beta selects the turn direction.
func (d *Dubins) circleArc(reference []float64, beta float64, center []float64, x float64) []float64 {
	sign := math.Copysign(1, beta)
	angle := reference[2] + sign*(x/d.Radius-math.Pi/2)
	return []float64{
		center[0] + d.Radius*math.Cos(angle),
		center[1] + d.Radius*math.Sin(angle),
	}
}

func dist(p1, p2 []float64) float64 {
	return math.Hypot(p1[0]-p2[0], p1[1]-p2[1])
}

// mod2Pi returns a given angle in the [0, 2pi) range.
func mod2Pi(theta float64) float64 {
	return theta - 2*math.Pi*math.Floor(theta/(2*math.Pi))
}
