package search

import (
	"errors"
	"math"
	"math/rand"
	"testing"

	"github.com/physlearn/physlearn/pkg/dag"
	"github.com/physlearn/physlearn/pkg/maze"
	"github.com/physlearn/physlearn/pkg/score"
)

// stubOracle scores locally via a fixed function, so tests can steer the
// search without a dataset.
type stubOracle struct {
	local func(v int, parents []int) float64
}

func (o stubOracle) LocalScore(v int, parents []int) (float64, error) {
	return o.local(v, parents), nil
}

func (o stubOracle) NetworkScore(g *dag.DAG) (float64, error) {
	if g == nil {
		return score.Worst, nil
	}
	var total float64
	for v := 0; v < g.N(); v++ {
		total += o.local(v, g.Parents(v))
	}
	return total, nil
}

// rewardAll makes every added parent worth the same positive gain on a
// log-score-like negative baseline, so every legal orientation improves the
// score.
func rewardAll(_ int, parents []int) float64 {
	return -10 + float64(len(parents))
}

// penalizeAll makes every added parent cost score, so no orientation ever
// improves.
func penalizeAll(_ int, parents []int) float64 {
	return -10 - float64(len(parents))
}

func testMaze(t *testing.T, n int) *maze.Maze {
	t.Helper()
	return maze.New(n, rand.New(rand.NewSource(1)))
}

func saturate(t *testing.T, m *maze.Maze, v float64) {
	t.Helper()
	for _, e := range m.Edges() {
		e.State.Conductance = v
	}
}

// With every pair above the threshold and an oracle that rewards every
// edge, the greedy loop must saturate the network without ever closing a
// cycle and must drain the whitelist.
func TestEvaluateStaysAcyclicUnderSaturatedMaze(t *testing.T) {
	const n = 5
	m := testMaze(t, n)
	saturate(t, m, 2.0)
	g := dag.New(n)
	s := New(m, g, stubOracle{local: rewardAll})

	if err := s.Evaluate(); err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if err := g.Validate(); err != nil {
		t.Fatalf("candidate network has a cycle: %v", err)
	}
	if got, want := len(g.Edges()), n*(n-1)/2; got != want {
		t.Errorf("edge count = %d, want %d (one per pair)", got, want)
	}
}

// Pairs at or below the threshold must lose their candidate edge in either
// orientation before the greedy loop runs.
func TestEvaluateRemovesBelowThresholdEdges(t *testing.T) {
	m := testMaze(t, 3)
	saturate(t, m, 0.1)
	g := dag.New(3)
	if err := g.AddEdge(0, 1); err != nil {
		t.Fatal(err)
	}
	if err := g.AddEdge(2, 1); err != nil {
		t.Fatal(err)
	}
	s := New(m, g, stubOracle{local: penalizeAll})

	if err := s.Evaluate(); err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if len(g.Edges()) != 0 {
		t.Errorf("edges survived below-threshold partition: %v", g.Edges())
	}
}

// When no orientation improves the score, the remaining whitelist pairs
// still receive conductance feedback. With penalizing scores B > 1, so
// every whitelisted conductance must drop.
func TestEvaluateFeedsBackOnNoImprovement(t *testing.T) {
	m := testMaze(t, 3)
	saturate(t, m, 2.0)
	g := dag.New(3)
	s := New(m, g, stubOracle{local: penalizeAll})

	if err := s.Evaluate(); err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if len(g.Edges()) != 0 {
		t.Errorf("penalizing oracle still grew edges: %v", g.Edges())
	}
	for _, e := range m.Edges() {
		if e.State.Conductance >= 2.0 {
			t.Errorf("pair (%d,%d): conductance %v did not drop", e.I, e.J, e.State.Conductance)
		}
	}
}

// A scan must leave the candidate network unchanged when it finds no
// improvement, even when edges already exist between whitelisted pairs.
func TestEvaluatePreservesExistingEdgesOnNoImprovement(t *testing.T) {
	m := testMaze(t, 3)
	saturate(t, m, 2.0)
	g := dag.New(3)
	if err := g.AddEdge(0, 1); err != nil {
		t.Fatal(err)
	}

	// Re-adding 0→1 is score-neutral and every other orientation hurts, so
	// the scan commits nothing and must restore the removed edge.
	local := func(v int, parents []int) float64 {
		if v == 1 && len(parents) == 1 && parents[0] == 0 {
			return -2
		}
		if len(parents) == 0 {
			return -2
		}
		return -3 - float64(len(parents))
	}
	s := New(m, g, stubOracle{local: local})

	if err := s.Evaluate(); err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if !g.HasEdge(0, 1) {
		t.Error("existing edge 0→1 was lost during the scan")
	}
	if got := len(g.Edges()); got != 1 {
		t.Errorf("edge count = %d, want 1", got)
	}
}

func TestEvaluateRecordsBest(t *testing.T) {
	m := testMaze(t, 3)
	saturate(t, m, 2.0)
	g := dag.New(3)
	s := New(m, g, stubOracle{local: rewardAll})

	if best, bs := s.Best(); best != nil || bs != score.Worst {
		t.Fatalf("fresh search already has a best network: %v (%v)", best, bs)
	}
	if err := s.Evaluate(); err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	best, bs := s.Best()
	if best == nil {
		t.Fatal("no best network recorded")
	}
	if bs == score.Worst {
		t.Error("best score still Worst after a successful evaluate")
	}

	// The snapshot must be a deep copy: mutating the candidate afterwards
	// must not change it.
	before := len(best.Edges())
	g.Clear()
	if got := len(best.Edges()); got != before {
		t.Errorf("best snapshot changed with the candidate: %d != %d", got, before)
	}
}

// A later, worse candidate must never displace the recorded best.
func TestRecordBestKeepsBetterSnapshot(t *testing.T) {
	m := testMaze(t, 3)
	g := dag.New(3)
	if err := g.AddEdge(0, 1); err != nil {
		t.Fatal(err)
	}
	// Each parent adds a point, so the populated network outranks the empty
	// one.
	s := New(m, g, stubOracle{local: rewardAll})

	if err := s.RecordBest(); err != nil {
		t.Fatal(err)
	}
	_, first := s.Best()

	g.Clear()
	if err := s.RecordBest(); err != nil {
		t.Fatal(err)
	}
	best, second := s.Best()
	if second != first {
		t.Errorf("worse candidate displaced best: %v -> %v", first, second)
	}
	if len(best.Edges()) != 1 {
		t.Errorf("best snapshot edges = %v, want the populated network", best.Edges())
	}
}

// Conductance must stay inside [0, cap] after feedback, for pre-update
// values well outside the normal range and strongly divergent scores.
func TestGiveFeedbackClampsConductance(t *testing.T) {
	tests := []struct {
		name string
		pre  float64
		gap  float64 // score_without − score_with for both directions
	}{
		{"push above cap", 1.0, -2.0},
		{"push below zero", 0.5, 1.0},
		{"pre above cap", 7.0, 0.0},
		{"pre above cap pushed down", 10.0, 0.5},
	}

	for _, tt := range tests {
		m := testMaze(t, 2)
		st, err := m.State(0, 1)
		if err != nil {
			t.Fatal(err)
		}
		st.Conductance = tt.pre

		// with/without chosen so without − with = tt.gap.
		local := func(v int, parents []int) float64 {
			if len(parents) > 0 {
				return -5 - tt.gap
			}
			return -5
		}
		g := dag.New(2)
		s := New(m, g, stubOracle{local: local})

		if err := s.GiveFeedback(0, 1); err != nil {
			t.Fatalf("%s: GiveFeedback: %v", tt.name, err)
		}
		if st.Conductance < 0 || st.Conductance > maze.ConductanceCap {
			t.Errorf("%s: conductance %v outside [0, %v]", tt.name, st.Conductance, maze.ConductanceCap)
		}
	}
}

// When the two directions disagree, the bias must come from the one with
// the larger local improvement.
func TestGiveFeedbackUsesBetterDirection(t *testing.T) {
	m := testMaze(t, 2)
	st, err := m.State(0, 1)
	if err != nil {
		t.Fatal(err)
	}
	st.Conductance = 2.0

	// Direction 0→1: with=-12, without=-10, improvement -2.
	// Direction 1→0: with=-10.5, without=-10, improvement -0.5 (preferred).
	local := func(v int, parents []int) float64 {
		if len(parents) == 0 {
			return -10
		}
		if v == 1 {
			return -12
		}
		return -10.5
	}
	g := dag.New(2)
	s := New(m, g, stubOracle{local: local})

	if err := s.GiveFeedback(0, 1); err != nil {
		t.Fatalf("GiveFeedback: %v", err)
	}
	want := maze.Clamp(2.0 + DefaultBias*(1-math.Exp(0.5)))
	if st.Conductance != want {
		t.Errorf("conductance = %v, want %v (half-nat deficit of the preferred direction)", st.Conductance, want)
	}
}

// Scores at parity (B = 1) must leave the conductance untouched.
func TestGiveFeedbackParityIsNeutral(t *testing.T) {
	m := testMaze(t, 2)
	st, err := m.State(0, 1)
	if err != nil {
		t.Fatal(err)
	}
	st.Conductance = 1.5

	g := dag.New(2)
	s := New(m, g, stubOracle{local: func(int, []int) float64 { return -2 }})

	if err := s.GiveFeedback(0, 1); err != nil {
		t.Fatalf("GiveFeedback: %v", err)
	}
	if st.Conductance != 1.5 {
		t.Errorf("conductance = %v, want unchanged 1.5", st.Conductance)
	}
}

// A score gap wide enough to overflow the exponential must surface as
// ErrNonFiniteBias instead of writing an infinite conductance.
func TestGiveFeedbackNonFiniteRatio(t *testing.T) {
	m := testMaze(t, 2)
	g := dag.New(2)
	s := New(m, g, stubOracle{local: func(_ int, parents []int) float64 {
		if len(parents) > 0 {
			return -1e6
		}
		return 0
	}})

	if err := s.GiveFeedback(0, 1); !errors.Is(err, ErrNonFiniteBias) {
		t.Errorf("error = %v, want ErrNonFiniteBias", err)
	}
}

// An edge that hurts its child's score must have its conductance driven to
// zero by the no-improvement feedback and its candidate edge removed by the
// next partition, while supported edges survive at the cap.
func TestEvaluatePrunesUnsupportedEdge(t *testing.T) {
	m := testMaze(t, 3)
	saturate(t, m, 2.0)
	g := dag.New(3)
	if err := g.AddEdge(0, 1); err != nil {
		t.Fatal(err)
	}

	// Parents help variable 2 and hurt everything else, so 0→2 and 1→2 are
	// the only supportable edges.
	local := func(v int, parents []int) float64 {
		if v == 2 {
			return -10 + 2*float64(len(parents))
		}
		return -10 - float64(len(parents))
	}
	s := New(m, g, stubOracle{local: local})

	if err := s.Evaluate(); err != nil {
		t.Fatalf("first Evaluate: %v", err)
	}
	cond, err := m.Conductance(0, 1)
	if err != nil {
		t.Fatal(err)
	}
	if cond != 0 {
		t.Errorf("unsupported pair conductance = %v, want 0", cond)
	}

	if err := s.Evaluate(); err != nil {
		t.Fatalf("second Evaluate: %v", err)
	}
	if g.HasEdge(0, 1) || g.HasEdge(1, 0) {
		t.Errorf("unsupported edge survived pruning: %v", g.Edges())
	}
	best, _ := s.Best()
	if best == nil {
		t.Fatal("no best network recorded")
	}
	if !best.HasEdge(0, 2) || !best.HasEdge(1, 2) || len(best.Edges()) != 2 {
		t.Errorf("best network = %v, want exactly {0→2, 1→2}", best.Edges())
	}
}
