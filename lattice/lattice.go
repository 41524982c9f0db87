// Package lattice loads and indexes precomputed motion primitive libraries which can be
// used to plan nonholonomic 2d motion over an occupancy grid.
package lattice

import (
	"encoding/json"
	"math"
	"os"

	"github.com/pkg/errors"
)

// ErrLoad is the sentinel wrapped by all lattice file load failures.
var ErrLoad = errors.New("invalid lattice file")

// TurnClass categorizes the curvature of a primitive.
type TurnClass int

// The supported curvature classes.
const (
	TurnStraight TurnClass = iota
	TurnLeft
	TurnRight
)

func (t TurnClass) String() string {
	switch t {
	case TurnLeft:
		return "left"
	case TurnRight:
		return "right"
	default:
		return "straight"
	}
}

// Metadata is the global description of a primitive library. Immutable once loaded.
type Metadata struct {
	// NumberOfHeadings is the count of discrete heading bins. Always positive.
	NumberOfHeadings int
	// MinTurningRadius is the tightest turn any primitive takes, in meters.
	MinTurningRadius float64
	// GridResolution is the cell size the primitives were generated for, in meters.
	GridResolution float64
}

// Primitive is a single precomputed motion departing from a heading bin. Pose deltas
// and lengths are in cell units of the grid the library was generated for.
type Primitive struct {
	// StartBin and EndBin are the heading bins at the endpoints of the motion.
	StartBin int
	EndBin   int
	// DeltaX and DeltaY are the whole-cell displacement of the motion.
	DeltaX int
	DeltaY int
	// ArcLength is the distance traveled along the motion, in cells. Always positive.
	ArcLength float64
	// Reversed reports whether the motion is driven backwards.
	Reversed bool
	// Turn is the curvature class of the motion.
	Turn TurnClass

	// Poses holds sampled intermediate (x, y, theta) triples along the motion in cell
	// units, start exclusive and end inclusive. Used for fine-grained collision
	// sampling. May be empty, in which case callers interpolate.
	Poses [][3]float64
}

// MotionTable is a loaded primitive library keyed by originating heading bin.
type MotionTable struct {
	meta     Metadata
	angles   []float64 // heading angle of each bin, radians in [0, 2pi)
	prims    [][]Primitive
	filePath string
}

type latticeFileMetadata struct {
	NumberOfHeadings int       `json:"number_of_headings"`
	MinTurningRadius float64   `json:"min_turning_radius"`
	GridResolution   float64   `json:"grid_resolution"`
	HeadingAngles    []float64 `json:"heading_angles,omitempty"`
}

type latticeFilePrimitive struct {
	StartAngleBin int          `json:"start_angle_bin"`
	EndAngleBin   int          `json:"end_angle_bin"`
	DeltaX        int          `json:"delta_x"`
	DeltaY        int          `json:"delta_y"`
	ArcLength     float64      `json:"arc_length"`
	Reversed      bool         `json:"reversed,omitempty"`
	Turn          string       `json:"turn"`
	Poses         [][3]float64 `json:"poses,omitempty"`
}

type latticeFile struct {
	Metadata   latticeFileMetadata    `json:"lattice_metadata"`
	Primitives []latticeFilePrimitive `json:"primitives"`
}

// LoadMetadata reads only the global metadata section of a lattice file.
func LoadMetadata(path string) (Metadata, error) {
	table, err := LoadMotionTable(path, false)
	if err != nil {
		return Metadata{}, err
	}
	return table.Metadata(), nil
}

// LoadMotionTable reads a primitive library from a JSON lattice file. When allowReverse
// is set, a mirrored reverse motion is synthesized for every forward primitive so the
// search may expand backwards driving. Malformed documents, non-positive heading counts,
// and non-positive turning radii all fail with an error wrapping ErrLoad.
func LoadMotionTable(path string, allowReverse bool) (*MotionTable, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(ErrLoad, "reading %s: %s", path, err)
	}
	var file latticeFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, errors.Wrapf(ErrLoad, "parsing %s: %s", path, err)
	}

	meta := Metadata{
		NumberOfHeadings: file.Metadata.NumberOfHeadings,
		MinTurningRadius: file.Metadata.MinTurningRadius,
		GridResolution:   file.Metadata.GridResolution,
	}
	if meta.NumberOfHeadings <= 0 {
		return nil, errors.Wrapf(ErrLoad, "%s: number_of_headings must be positive, got %d", path, meta.NumberOfHeadings)
	}
	if meta.MinTurningRadius <= 0 {
		return nil, errors.Wrapf(ErrLoad, "%s: min_turning_radius must be positive, got %f", path, meta.MinTurningRadius)
	}

	angles := file.Metadata.HeadingAngles
	if len(angles) == 0 {
		angles = make([]float64, meta.NumberOfHeadings)
		for i := range angles {
			angles[i] = 2 * math.Pi * float64(i) / float64(meta.NumberOfHeadings)
		}
	} else if len(angles) != meta.NumberOfHeadings {
		return nil, errors.Wrapf(ErrLoad,
			"%s: heading_angles has %d entries for %d headings", path, len(angles), meta.NumberOfHeadings)
	}

	table := &MotionTable{
		meta:     meta,
		angles:   angles,
		prims:    make([][]Primitive, meta.NumberOfHeadings),
		filePath: path,
	}
	for i, fp := range file.Primitives {
		prim, err := fp.toPrimitive(meta.NumberOfHeadings)
		if err != nil {
			return nil, errors.Wrapf(ErrLoad, "%s: primitive %d: %s", path, i, err)
		}
		table.prims[prim.StartBin] = append(table.prims[prim.StartBin], prim)
	}
	if allowReverse {
		table.addReversePrimitives()
	}
	return table, nil
}

func (fp latticeFilePrimitive) toPrimitive(numHeadings int) (Primitive, error) {
	if fp.StartAngleBin < 0 || fp.StartAngleBin >= numHeadings {
		return Primitive{}, errors.Errorf("start_angle_bin %d out of range [0, %d)", fp.StartAngleBin, numHeadings)
	}
	if fp.EndAngleBin < 0 || fp.EndAngleBin >= numHeadings {
		return Primitive{}, errors.Errorf("end_angle_bin %d out of range [0, %d)", fp.EndAngleBin, numHeadings)
	}
	if fp.ArcLength <= 0 {
		return Primitive{}, errors.Errorf("arc_length must be positive, got %f", fp.ArcLength)
	}
	var turn TurnClass
	switch fp.Turn {
	case "straight", "":
		turn = TurnStraight
	case "left":
		turn = TurnLeft
	case "right":
		turn = TurnRight
	default:
		return Primitive{}, errors.Errorf("unknown turn class %q", fp.Turn)
	}
	return Primitive{
		StartBin:  fp.StartAngleBin,
		EndBin:    fp.EndAngleBin,
		DeltaX:    fp.DeltaX,
		DeltaY:    fp.DeltaY,
		ArcLength: fp.ArcLength,
		Reversed:  fp.Reversed,
		Turn:      turn,
		Poses:     fp.Poses,
	}, nil
}

// addReversePrimitives synthesizes, for each forward primitive, the motion of driving
// the same curve backwards. A robot facing some heading driving in reverse traces the
// same ground motion as one facing the opposite heading driving forwards, so each bin
// borrows the opposite bin's displacements as-is and relabels the headings by pi.
func (mt *MotionTable) addReversePrimitives() {
	n := mt.meta.NumberOfHeadings
	half := n / 2
	reversed := make([][]Primitive, n)
	for bin := 0; bin < n; bin++ {
		srcBin := (bin + half) % n
		for _, p := range mt.prims[srcBin] {
			if p.Reversed {
				continue
			}
			rp := Primitive{
				StartBin:  bin,
				EndBin:    (p.EndBin + half) % n,
				DeltaX:    p.DeltaX,
				DeltaY:    p.DeltaY,
				ArcLength: p.ArcLength,
				Reversed:  true,
				Turn:      p.Turn,
			}
			if len(p.Poses) > 0 {
				rp.Poses = make([][3]float64, len(p.Poses))
				for i, pose := range p.Poses {
					rp.Poses[i] = [3]float64{pose[0], pose[1], normalizeAngle(pose[2] + math.Pi)}
				}
			}
			reversed[bin] = append(reversed[bin], rp)
		}
	}
	for bin := 0; bin < n; bin++ {
		mt.prims[bin] = append(mt.prims[bin], reversed[bin]...)
	}
}

// Metadata returns the library's global metadata.
func (mt *MotionTable) Metadata() Metadata { return mt.meta }

// FilePath returns the path the library was loaded from.
func (mt *MotionTable) FilePath() string { return mt.filePath }

// Primitives returns the motions departing from a heading bin, in file order with any
// synthesized reverse motions appended. The returned slice must not be mutated.
func (mt *MotionTable) Primitives(bin int) []Primitive {
	if bin < 0 || bin >= len(mt.prims) {
		return nil
	}
	return mt.prims[bin]
}

// AngleOfBin returns the heading angle of a bin in radians.
func (mt *MotionTable) AngleOfBin(bin int) float64 {
	return mt.angles[bin]
}

// ClosestAngularBin maps a continuous orientation to the nearest heading bin. Rounding
// is deterministic: exact ties go to the lower bin index.
func (mt *MotionTable) ClosestAngularBin(theta float64) int {
	theta = normalizeAngle(theta)
	best := 0
	bestDist := math.Inf(1)
	for i, angle := range mt.angles {
		d := math.Abs(angleDiff(theta, angle))
		if d < bestDist {
			best = i
			bestDist = d
		}
	}
	return best
}

// normalizeAngle returns the given angle in the [0, 2pi) range.
func normalizeAngle(theta float64) float64 {
	theta = math.Mod(theta, 2*math.Pi)
	if theta < 0 {
		theta += 2 * math.Pi
	}
	return theta
}

// angleDiff returns the signed smallest difference between two angles, in (-pi, pi].
func angleDiff(a, b float64) float64 {
	d := normalizeAngle(a - b)
	if d > math.Pi {
		d -= 2 * math.Pi
	}
	return d
}
