// Package search implements the structure-search step that couples the maze
// dynamics to the scoring oracle.
//
// Evaluate reads high-conductance maze edges as structural hypotheses,
// grows the candidate network greedily while keeping it acyclic, and tracks
// the best-scoring network seen across calls. GiveFeedback closes the loop
// the other way, nudging maze conductances with score-derived bias so the
// flow dynamics concentrate on pairs the oracle favors.
package search
