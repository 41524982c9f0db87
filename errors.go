package latticeplan

import "errors"

// The planner error taxonomy. Search-time failures are returned alongside an empty
// path and leave the planner valid for the next call; configuration-time failures
// leave the previous configuration active.
var (
	// ErrInvalidStart is returned when the start pose is off the grid or in collision.
	ErrInvalidStart = errors.New("start pose is invalid")

	// ErrInvalidGoal is returned when the goal pose is off the grid or in collision.
	ErrInvalidGoal = errors.New("goal pose is invalid")

	// ErrNoPathFound is returned when the open set empties before reaching the goal.
	ErrNoPathFound = errors.New("no valid path found")

	// ErrIterationsExceeded is returned when the iteration budget runs out mid-search.
	ErrIterationsExceeded = errors.New("exceeded maximum iterations")

	// ErrTimeExceeded is returned when the wall-clock planning deadline expires.
	ErrTimeExceeded = errors.New("exceeded maximum planning time")

	// ErrInvalidConfiguration is returned when the planner is constructed with an
	// unsupported option combination, distinct from any search-time failure.
	ErrInvalidConfiguration = errors.New("invalid planner configuration")
)
