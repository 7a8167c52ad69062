package search

import (
	"errors"
	"fmt"
	"math"
	"slices"

	"github.com/physlearn/physlearn/pkg/dag"
	"github.com/physlearn/physlearn/pkg/maze"
	"github.com/physlearn/physlearn/pkg/score"
)

var (
	// ErrNonFiniteBias is returned by GiveFeedback when the bias ratio B
	// degenerates to NaN or Inf (a non-finite score, or a score gap wide
	// enough to overflow the exponential). The run aborts rather than
	// writing a corrupt conductance.
	ErrNonFiniteBias = errors.New("non-finite bias ratio")
)

// Default search constants.
const (
	// DefaultThreshold is the whitelist conductance threshold Dt.
	DefaultThreshold = 0.8

	// DefaultBias is the feedback bias strength k.
	DefaultBias = 3.0
)

// gainTie is the margin below which two score gains count as equal.
// Score-equivalent orientations of the same edge differ only by rounding,
// and the scan must resolve them deterministically rather than by
// floating-point noise.
const gainTie = 1e-9

// Pair is an unordered variable pair, stored with I < J.
type Pair struct {
	I, J int
}

// Search grows the candidate network from high-conductance maze edges and
// feeds structural score signals back into the maze.
//
// The maze, candidate network, and best-so-far snapshot are shared mutable
// state owned by the enclosing session; Search mutates the first two in
// place and replaces the snapshot wholesale when the candidate improves on
// it. Search is not safe for concurrent use.
type Search struct {
	Threshold float64 // conductance threshold Dt for whitelist membership
	Bias      float64 // bias strength k in D ← D + k·(1−B)

	oracle    score.Oracle
	m         *maze.Maze
	g         *dag.DAG
	best      *dag.DAG
	bestScore float64
}

// New creates a search over the given maze and candidate network with the
// default threshold and bias strength. No best network is recorded yet.
func New(m *maze.Maze, g *dag.DAG, oracle score.Oracle) *Search {
	return &Search{
		Threshold: DefaultThreshold,
		Bias:      DefaultBias,
		oracle:    oracle,
		m:         m,
		g:         g,
		best:      nil,
		bestScore: score.Worst,
	}
}

// Best returns the best-scoring network snapshot observed so far and its
// score, or nil and score.Worst when no candidate has been recorded. The
// snapshot is owned by the search; callers must not mutate it.
func (s *Search) Best() (*dag.DAG, float64) {
	return s.best, s.bestScore
}

// candidate is one legal oriented edge found during a whitelist scan,
// together with its position in the whitelist and its score gain. An
// explicit optional value: a nil *candidate means "no improving edge found".
type candidate struct {
	edge dag.Edge
	idx  int
	gain float64
}

// Evaluate partitions maze edges by conductance, greedily grows the
// candidate network from the resulting whitelist, and records a best-network
// snapshot when the candidate improves on it.
//
// Step 1 walks every maze edge: pairs above the threshold join the
// whitelist; pairs at or below it lose their candidate edge in either
// orientation. Step 2 repeatedly scans the whole whitelist for the single
// strictly-best score improvement, commits that oriented edge, removes the
// pair from the whitelist, and biases the pair's conductance. Orientations
// that would close a cycle rank below every legal one, so the candidate
// network is acyclic at every observable point. The loop ends when no pair
// improves the score (the remaining whitelist still receives conductance
// feedback) or when the whitelist is exhausted.
func (s *Search) Evaluate() error {
	var whitelist []Pair
	for _, e := range s.m.Edges() {
		if e.State.Conductance > s.Threshold {
			whitelist = append(whitelist, Pair{I: e.I, J: e.J})
		} else {
			s.g.RemoveBetween(e.I, e.J)
		}
	}

	for len(whitelist) > 0 {
		winner, err := s.scanWhitelist(whitelist)
		if err != nil {
			return err
		}

		if winner == nil {
			for _, p := range whitelist {
				if err := s.GiveFeedback(p.I, p.J); err != nil {
					return err
				}
			}
			return s.recordBest()
		}

		s.g.RemoveBetween(winner.edge.From, winner.edge.To)
		if err := s.g.AddEdge(winner.edge.From, winner.edge.To); err != nil {
			return fmt.Errorf("commit edge %d→%d: %w", winner.edge.From, winner.edge.To, err)
		}
		whitelist = slices.Delete(whitelist, winner.idx, winner.idx+1)
		if err := s.GiveFeedback(winner.edge.From, winner.edge.To); err != nil {
			return err
		}
	}

	return s.recordBest()
}

// scanWhitelist scores both orientations of every whitelisted pair against
// the current candidate network and returns the strictly-best improving
// edge, or nil when no orientation improves the score. Gains within gainTie
// of the running maximum count as ties and keep the earlier candidate, so a
// pair whose two orientations are score-equivalent resolves to the low→high
// direction. Each pair is scored with any existing edge between its
// endpoints temporarily removed; the network is restored after every pair,
// so the scan has no net effect on the candidate.
func (s *Search) scanWhitelist(whitelist []Pair) (*candidate, error) {
	var winner *candidate
	bestGain := 0.0

	for idx, p := range whitelist {
		removed, had := s.g.RemoveBetween(p.I, p.J)

		for _, e := range [2]dag.Edge{{From: p.I, To: p.J}, {From: p.J, To: p.I}} {
			gain, err := s.orientationGain(e.From, e.To)
			if err != nil {
				if had {
					s.g.AddEdge(removed.From, removed.To) //nolint:errcheck // restoring a previously legal edge
				}
				return nil, err
			}
			if gain > bestGain+gainTie {
				bestGain = gain
				winner = &candidate{edge: e, idx: idx, gain: gain}
			}
		}

		if had {
			if err := s.g.AddEdge(removed.From, removed.To); err != nil {
				return nil, fmt.Errorf("restore edge %d→%d: %w", removed.From, removed.To, err)
			}
		}
	}
	return winner, nil
}

// orientationGain returns the local score improvement of adding from→to,
// relative to not having it, against the current parent set of `to`.
// A cycle-closing orientation scores score.Worst so it can never win a scan.
func (s *Search) orientationGain(from, to int) (float64, error) {
	if s.g.WouldCreateCycle(from, to) {
		return score.Worst, nil
	}
	base := slices.Clone(s.g.Parents(to))
	with, err := s.oracle.LocalScore(to, append(slices.Clone(base), from))
	if err != nil {
		return 0, err
	}
	without, err := s.oracle.LocalScore(to, base)
	if err != nil {
		return 0, err
	}
	return with - without, nil
}

// GiveFeedback biases the maze conductance of the pair {i, j} by the
// strength of evidence for its locally preferred orientation.
//
// The preferred direction is the one whose presence improves its child's
// local score more, ties favoring i→j. For that direction the bias ratio
// B = exp(score_without − score_with) is computed from the candidate
// network's current parent sets, and the conductance is updated by
// D ← clamp(D + k·(1−B), 0, cap). B is the inverse Bayes factor of the
// orientation: parity (B = 1) leaves the edge untouched, supported
// orientations (B < 1) push the conductance toward the cap, and a deficit
// of one nat already drives it toward zero within a single update.
func (s *Search) GiveFeedback(i, j int) error {
	withIJ, withoutIJ, err := s.parentScores(i, j)
	if err != nil {
		return err
	}
	withJI, withoutJI, err := s.parentScores(j, i)
	if err != nil {
		return err
	}

	with, without := withIJ, withoutIJ
	if withJI-withoutJI > withIJ-withoutIJ {
		with, without = withJI, withoutJI
	}

	b := math.Exp(without - with)
	if math.IsNaN(b) || math.IsInf(b, 0) {
		return fmt.Errorf("pair (%d,%d): B = exp(%v - %v): %w", i, j, without, with, ErrNonFiniteBias)
	}

	st, err := s.m.State(i, j)
	if err != nil {
		return err
	}
	st.Conductance = maze.Clamp(st.Conductance + s.Bias*(1-b))
	return nil
}

// parentScores returns the local score of `to` with `from` included in its
// parent set and with `from` excluded, leaving the rest of the current
// parent set untouched. Works whether or not the edge from→to is present.
func (s *Search) parentScores(from, to int) (with, without float64, err error) {
	base := slices.Clone(s.g.Parents(to))
	withSet := base
	withoutSet := base
	if slices.Contains(base, from) {
		withoutSet = slices.DeleteFunc(slices.Clone(base), func(v int) bool { return v == from })
	} else {
		withSet = append(slices.Clone(base), from)
	}

	with, err = s.oracle.LocalScore(to, withSet)
	if err != nil {
		return 0, 0, err
	}
	without, err = s.oracle.LocalScore(to, withoutSet)
	if err != nil {
		return 0, 0, err
	}
	return with, without, nil
}

// RecordBest compares the candidate network's score against the best
// snapshot and replaces the snapshot with a deep copy when the candidate
// scores strictly higher. A comparison against an absent snapshot always
// succeeds.
func (s *Search) RecordBest() error {
	return s.recordBest()
}

func (s *Search) recordBest() error {
	cur, err := s.oracle.NetworkScore(s.g)
	if err != nil {
		return err
	}
	if math.IsNaN(cur) {
		return fmt.Errorf("network score: %w", score.ErrNonFiniteScore)
	}
	if s.best == nil || cur > s.bestScore {
		s.best = s.g.Clone()
		s.bestScore = cur
	}
	return nil
}
