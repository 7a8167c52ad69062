// Package maze provides the auxiliary transport network whose edge
// conductances evolve to signal promising structural connections.
//
// A Maze is a complete undirected weighted graph over a fixed set of
// variables. Every unordered pair of distinct variables owns exactly one
// edge for the lifetime of the maze; only the edge's conductance changes.
// Conductances start uniformly in [InitLow, InitHigh] and stay within
// [0, ConductanceCap] under every feedback update.
package maze

import (
	"errors"
	"math/rand"
)

var (
	// ErrNodeOutOfRange is returned when an edge lookup references a variable
	// index outside [0, N) or a degenerate pair (i == j).
	ErrNodeOutOfRange = errors.New("node index out of range")
)

const (
	// ConductanceCap is the hard ceiling on any edge conductance.
	// Feedback updates clamp against it to prevent unbounded growth.
	ConductanceCap = 2.5

	// InitLow and InitHigh bound the uniform distribution conductances are
	// (re)drawn from at the start of every ensemble.
	InitLow  = 0.78
	InitHigh = 0.79

	// DefaultLength is the fixed edge length. Lengths are a generalization
	// point; the current dynamics keep them at 1.
	DefaultLength = 1.0
)

// EdgeState is the per-edge conductance/length record. Pure data.
type EdgeState struct {
	Conductance float64
	Length      float64
}

// Edge pairs an unordered variable pair (I < J) with its mutable state.
// The State pointer refers into the maze; writes through it are writes to
// the maze.
type Edge struct {
	I, J  int
	State *EdgeState
}

// Maze is the complete undirected weighted graph over N variables.
// It is not safe for concurrent use without external synchronization.
type Maze struct {
	n      int
	states []EdgeState // triangular layout, pair (i<j) at pairIndex(i,j)
}

// New creates a complete maze over n variables with conductances drawn
// uniformly from [InitLow, InitHigh] using rng and all lengths at
// DefaultLength.
func New(n int, rng *rand.Rand) *Maze {
	m := &Maze{
		n:      n,
		states: make([]EdgeState, n*(n-1)/2),
	}
	m.Reset(rng)
	return m
}

// N returns the number of variables.
func (m *Maze) N() int { return m.n }

// EdgeCount returns the number of edges, always N*(N-1)/2.
func (m *Maze) EdgeCount() int { return len(m.states) }

// pairIndex maps an ordered pair i < j to its slot in the triangular layout.
func (m *Maze) pairIndex(i, j int) int {
	return i*m.n - i*(i+1)/2 + (j - i - 1)
}

// State returns the edge state for the unordered pair {i, j}.
// Writes through the returned pointer mutate the maze.
// Returns ErrNodeOutOfRange for invalid indices or i == j.
func (m *Maze) State(i, j int) (*EdgeState, error) {
	if i < 0 || i >= m.n || j < 0 || j >= m.n || i == j {
		return nil, ErrNodeOutOfRange
	}
	if i > j {
		i, j = j, i
	}
	return &m.states[m.pairIndex(i, j)], nil
}

// Conductance returns the conductance of the edge {i, j}.
// Returns ErrNodeOutOfRange for invalid indices or i == j.
func (m *Maze) Conductance(i, j int) (float64, error) {
	s, err := m.State(i, j)
	if err != nil {
		return 0, err
	}
	return s.Conductance, nil
}

// SetConductance sets the conductance of the edge {i, j}, clamped to
// [0, ConductanceCap].
// Returns ErrNodeOutOfRange for invalid indices or i == j.
func (m *Maze) SetConductance(i, j int, v float64) error {
	s, err := m.State(i, j)
	if err != nil {
		return err
	}
	s.Conductance = Clamp(v)
	return nil
}

// Edges returns every edge in deterministic order: pairs (i, j) with i < j,
// ascending by i then j. The State pointers refer into the maze, so callers
// may update conductances in place while iterating. The whitelist scan and
// the flow reinforcement both depend on this order being stable.
func (m *Maze) Edges() []Edge {
	edges := make([]Edge, 0, len(m.states))
	for i := 0; i < m.n; i++ {
		for j := i + 1; j < m.n; j++ {
			edges = append(edges, Edge{I: i, J: j, State: &m.states[m.pairIndex(i, j)]})
		}
	}
	return edges
}

// Reset redraws every conductance uniformly from [InitLow, InitHigh] and
// restores every length to DefaultLength. Called once per ensemble.
func (m *Maze) Reset(rng *rand.Rand) {
	for k := range m.states {
		m.states[k] = EdgeState{
			Conductance: InitLow + (InitHigh-InitLow)*rng.Float64(),
			Length:      DefaultLength,
		}
	}
}

// Clamp restricts a conductance value to [0, ConductanceCap].
func Clamp(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > ConductanceCap {
		return ConductanceCap
	}
	return v
}
