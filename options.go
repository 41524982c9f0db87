package latticeplan

import (
	"math"

	"github.com/pkg/errors"
	"go.uber.org/multierr"
)

// default values for planning options, following the stock lattice planner tuning.
const (
	// permit traversal through unmapped cells.
	defaultAllowUnknown = true

	// how many nodes may be expanded per plan before giving up.
	defaultMaxIterations = 1000000

	// multiplier on edge cost for primitives driven in reverse.
	defaultReversePenalty = 2.0

	// additive penalty applied when a primitive's direction differs from its parent's.
	defaultChangePenalty = 0.05

	// multiplier on edge cost for curving primitives.
	defaultNonStraightPenalty = 1.05

	// linear weight combining traversed-cell cost into edge cost.
	defaultCostPenalty = 2.0

	// how aggressively to attempt analytic connections to the goal; higher is less often.
	defaultAnalyticExpansionRatio = 3.5

	// number of seconds before terminating a planning call.
	defaultMaxPlanningTime = 5.0

	// physical extent of the heuristic lookup table, in meters.
	defaultLookupTableSize = 20.0

	// The collision checker samples orientations at this many evenly sized bins rather
	// than the lattice's own headings. Checking only at the sparse lattice headings
	// under-samples orientation along a primitive's sweep, producing wobbly collision
	// results for larger footprints. 72 bins gives a precomputed angle every 5 degrees.
	collisionAngleBins = 72

	// the only supported motion model.
	StateLatticeMotionModel = "state_lattice"
)

// unboundedIterations is substituted when a caller configures a non-positive budget.
const unboundedIterations = math.MaxInt32

// Options is the immutable tunable snapshot consumed by one planner configuration.
// A changed Options value replaces the planner's sub-objects wholesale via Reconfigure
// rather than mutating them.
type Options struct {
	// AllowUnknown permits traversal through cells with no mapped information.
	AllowUnknown bool `json:"allow_unknown"`

	// MaxIterations bounds node expansions per plan. Non-positive means unbounded.
	MaxIterations int `json:"max_iterations"`

	// LatticeFilePath locates the primitive library document.
	LatticeFilePath string `json:"lattice_filepath"`

	// CacheObstacleHeuristic retains the obstacle heuristic between plans sharing a goal
	// cell, trading memory for recomputation cost.
	CacheObstacleHeuristic bool `json:"cache_obstacle_heuristic"`

	// ReversePenalty multiplies the cost of reverse primitives.
	ReversePenalty float64 `json:"reverse_penalty"`

	// ChangePenalty is added when travel direction flips between parent and child.
	ChangePenalty float64 `json:"change_penalty"`

	// NonStraightPenalty multiplies the cost of curving primitives.
	NonStraightPenalty float64 `json:"non_straight_penalty"`

	// CostPenalty weights traversed-cell cost into edge cost.
	CostPenalty float64 `json:"cost_penalty"`

	// AnalyticExpansionRatio governs how often a direct connection to the goal is tried.
	AnalyticExpansionRatio float64 `json:"analytic_expansion_ratio"`

	// MaxPlanningTime is the wall-clock budget for one plan plus smoothing, in seconds.
	MaxPlanningTime float64 `json:"max_planning_time"`

	// LookupTableSize is the physical extent of the heuristic table, in meters.
	LookupTableSize float64 `json:"lookup_table_size"`

	// AllowReverseExpansion enables synthesized reverse motions during expansion.
	AllowReverseExpansion bool `json:"allow_reverse_expansion"`

	// MotionModel selects the search's motion model. Only StateLatticeMotionModel is
	// supported; anything else fails construction with ErrInvalidConfiguration.
	MotionModel string `json:"motion_model"`

	// GoalTolerance accepts nodes within this many cells of the goal cell as terminal.
	GoalTolerance float64 `json:"goal_tolerance"`
}

// DefaultOptions specifies a well rounded set of planner options.
func DefaultOptions() Options {
	return Options{
		AllowUnknown:           defaultAllowUnknown,
		MaxIterations:          defaultMaxIterations,
		CacheObstacleHeuristic: false,
		ReversePenalty:         defaultReversePenalty,
		ChangePenalty:          defaultChangePenalty,
		NonStraightPenalty:     defaultNonStraightPenalty,
		CostPenalty:            defaultCostPenalty,
		AnalyticExpansionRatio: defaultAnalyticExpansionRatio,
		MaxPlanningTime:        defaultMaxPlanningTime,
		LookupTableSize:        defaultLookupTableSize,
		AllowReverseExpansion:  false,
		MotionModel:            StateLatticeMotionModel,
	}
}

// validate checks every field independently and combines the failures.
func (o Options) validate() error {
	var err error
	if o.MotionModel != StateLatticeMotionModel {
		err = multierr.Append(err, errors.Wrapf(ErrInvalidConfiguration,
			"unsupported motion model %q", o.MotionModel))
	}
	if o.LatticeFilePath == "" {
		err = multierr.Append(err, errors.Wrap(ErrInvalidConfiguration, "lattice_filepath is required"))
	}
	if o.ReversePenalty < 1 {
		err = multierr.Append(err, errors.Wrapf(ErrInvalidConfiguration,
			"reverse_penalty must be at least 1, got %f", o.ReversePenalty))
	}
	if o.NonStraightPenalty < 1 {
		err = multierr.Append(err, errors.Wrapf(ErrInvalidConfiguration,
			"non_straight_penalty must be at least 1, got %f", o.NonStraightPenalty))
	}
	if o.ChangePenalty < 0 {
		err = multierr.Append(err, errors.Wrapf(ErrInvalidConfiguration,
			"change_penalty must be non-negative, got %f", o.ChangePenalty))
	}
	if o.CostPenalty < 0 {
		err = multierr.Append(err, errors.Wrapf(ErrInvalidConfiguration,
			"cost_penalty must be non-negative, got %f", o.CostPenalty))
	}
	if o.AnalyticExpansionRatio <= 0 {
		err = multierr.Append(err, errors.Wrapf(ErrInvalidConfiguration,
			"analytic_expansion_ratio must be positive, got %f", o.AnalyticExpansionRatio))
	}
	if o.MaxPlanningTime <= 0 {
		err = multierr.Append(err, errors.Wrapf(ErrInvalidConfiguration,
			"max_planning_time must be positive, got %f", o.MaxPlanningTime))
	}
	if o.LookupTableSize <= 0 {
		err = multierr.Append(err, errors.Wrapf(ErrInvalidConfiguration,
			"lookup_table_size must be positive, got %f", o.LookupTableSize))
	}
	if o.GoalTolerance < 0 {
		err = multierr.Append(err, errors.Wrapf(ErrInvalidConfiguration,
			"goal_tolerance must be non-negative, got %f", o.GoalTolerance))
	}
	return err
}

// iterationBudget returns the effective expansion bound, normalizing a non-positive
// configured value to an effectively unbounded sentinel.
func (o Options) iterationBudget() int {
	if o.MaxIterations <= 0 {
		return unboundedIterations
	}
	return o.MaxIterations
}
