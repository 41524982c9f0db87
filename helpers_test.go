package latticeplan

import (
	"os"
	"path/filepath"
	"testing"

	"go.viam.com/test"

	"go.viam.com/latticeplan/costmap"
)

// testLatticeJSON is a minimal four-heading library: a straight plus a left and a
// right quarter turn per heading bin, one cell turning radius.
const testLatticeJSON = `{
	"lattice_metadata": {
		"number_of_headings": 4,
		"min_turning_radius": 1.0,
		"grid_resolution": 1.0
	},
	"primitives": [
		{"start_angle_bin": 0, "end_angle_bin": 0, "delta_x": 1, "delta_y": 0, "arc_length": 1.0, "turn": "straight"},
		{"start_angle_bin": 0, "end_angle_bin": 1, "delta_x": 1, "delta_y": 1, "arc_length": 1.5707963, "turn": "left"},
		{"start_angle_bin": 0, "end_angle_bin": 3, "delta_x": 1, "delta_y": -1, "arc_length": 1.5707963, "turn": "right"},
		{"start_angle_bin": 1, "end_angle_bin": 1, "delta_x": 0, "delta_y": 1, "arc_length": 1.0, "turn": "straight"},
		{"start_angle_bin": 1, "end_angle_bin": 2, "delta_x": -1, "delta_y": 1, "arc_length": 1.5707963, "turn": "left"},
		{"start_angle_bin": 1, "end_angle_bin": 0, "delta_x": 1, "delta_y": 1, "arc_length": 1.5707963, "turn": "right"},
		{"start_angle_bin": 2, "end_angle_bin": 2, "delta_x": -1, "delta_y": 0, "arc_length": 1.0, "turn": "straight"},
		{"start_angle_bin": 2, "end_angle_bin": 3, "delta_x": -1, "delta_y": -1, "arc_length": 1.5707963, "turn": "left"},
		{"start_angle_bin": 2, "end_angle_bin": 1, "delta_x": -1, "delta_y": 1, "arc_length": 1.5707963, "turn": "right"},
		{"start_angle_bin": 3, "end_angle_bin": 3, "delta_x": 0, "delta_y": -1, "arc_length": 1.0, "turn": "straight"},
		{"start_angle_bin": 3, "end_angle_bin": 0, "delta_x": 1, "delta_y": -1, "arc_length": 1.5707963, "turn": "left"},
		{"start_angle_bin": 3, "end_angle_bin": 2, "delta_x": -1, "delta_y": -1, "arc_length": 1.5707963, "turn": "right"}
	]
}`

func writeTestLattice(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "lattice.json")
	test.That(t, os.WriteFile(path, []byte(testLatticeJSON), 0o600), test.ShouldBeNil)
	return path
}

func testOptions(t *testing.T) Options {
	t.Helper()
	opts := DefaultOptions()
	opts.LatticeFilePath = writeTestLattice(t)
	return opts
}

// emptyGrid returns a square free grid with one meter cells and the origin at (0, 0),
// so cell (i, j) is centered on world (i+0.5, j+0.5).
func emptyGrid(size int) *costmap.Grid {
	return costmap.NewGrid(size, size, 1.0, 0, 0)
}
