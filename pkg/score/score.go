package score

import (
	"errors"
	"math"

	"github.com/physlearn/physlearn/pkg/dag"
)

// Worst is the minimum representable score. Absent networks score as Worst,
// so any real candidate is preferred over "no network yet", and illegal
// structures can be ranked strictly below every legal one.
const Worst = -math.MaxFloat64

var (
	// ErrVariableOutOfRange is returned when a score request references a
	// variable index outside the dataset.
	ErrVariableOutOfRange = errors.New("variable index out of range")

	// ErrInvalidParentSet is returned when a parent set contains the child
	// itself, a duplicate, or an out-of-range index.
	ErrInvalidParentSet = errors.New("invalid parent set")

	// ErrSizeMismatch is returned by NetworkScore when the network spans a
	// different variable count than the dataset.
	ErrSizeMismatch = errors.New("network and dataset variable counts differ")

	// ErrNonFiniteScore is returned when a score computation degenerates to
	// NaN or Inf. Such values must never reach the search's max-improvement
	// comparison.
	ErrNonFiniteScore = errors.New("non-finite score")
)

// Oracle computes local and global fit scores for candidate structures
// against a fixed dataset. Higher is better. Implementations must be
// deterministic: identical (variable, parent set) requests return identical
// scores within a run.
type Oracle interface {
	// LocalScore scores one variable given a specific parent set.
	// It must be well-defined for the empty parent set.
	LocalScore(v int, parents []int) (float64, error)

	// NetworkScore sums LocalScore over all variables of the network.
	// A nil network scores Worst.
	NetworkScore(g *dag.DAG) (float64, error)
}
