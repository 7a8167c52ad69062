package dag

import (
	"errors"
	"math/rand"
	"reflect"
	"testing"
)

func TestAddEdgeValidation(t *testing.T) {
	tests := []struct {
		name     string
		from, to int
		wantErr  error
	}{
		{"valid", 0, 1, nil},
		{"self loop", 1, 1, ErrSelfLoop},
		{"negative from", -1, 1, ErrNodeOutOfRange},
		{"from too large", 3, 1, ErrNodeOutOfRange},
		{"to too large", 0, 3, ErrNodeOutOfRange},
	}

	for _, tt := range tests {
		g := New(3)
		err := g.AddEdge(tt.from, tt.to)
		if !errors.Is(err, tt.wantErr) {
			t.Errorf("%s: AddEdge(%d,%d) error = %v, want %v", tt.name, tt.from, tt.to, err, tt.wantErr)
		}
	}
}

func TestAddEdgeRejectsBothDirections(t *testing.T) {
	g := New(2)
	if err := g.AddEdge(0, 1); err != nil {
		t.Fatalf("AddEdge(0,1) failed: %v", err)
	}
	if err := g.AddEdge(1, 0); !errors.Is(err, ErrEdgeExists) {
		t.Errorf("reverse edge error = %v, want ErrEdgeExists", err)
	}
	if err := g.AddEdge(0, 1); !errors.Is(err, ErrEdgeExists) {
		t.Errorf("duplicate edge error = %v, want ErrEdgeExists", err)
	}
	if g.EdgeCount() != 1 {
		t.Errorf("EdgeCount = %d, want 1", g.EdgeCount())
	}
}

func TestAddEdgeRejectsCycle(t *testing.T) {
	g := New(3)
	mustAdd(t, g, 0, 1)
	mustAdd(t, g, 1, 2)
	if err := g.AddEdge(2, 0); !errors.Is(err, ErrWouldCycle) {
		t.Errorf("cycle-closing edge error = %v, want ErrWouldCycle", err)
	}
	if err := g.Validate(); err != nil {
		t.Errorf("Validate after rejected cycle: %v", err)
	}
}

func TestWouldCreateCycle(t *testing.T) {
	g := New(4)
	mustAdd(t, g, 0, 1)
	mustAdd(t, g, 1, 2)

	tests := []struct {
		from, to int
		want     bool
	}{
		{2, 0, true},  // closes 0→1→2→0
		{1, 0, true},  // closes 0→1→0
		{0, 2, false}, // shortcut, still acyclic
		{3, 0, false}, // fresh node
		{2, 3, false},
	}

	for _, tt := range tests {
		if got := g.WouldCreateCycle(tt.from, tt.to); got != tt.want {
			t.Errorf("WouldCreateCycle(%d,%d) = %v, want %v", tt.from, tt.to, got, tt.want)
		}
	}
}

// The guard must be a pure query: the edge set must be identical before and
// after any call, for both outcomes.
func TestWouldCreateCycleLeavesGraphIntact(t *testing.T) {
	g := New(4)
	mustAdd(t, g, 0, 1)
	mustAdd(t, g, 1, 2)
	before := g.Edges()

	g.WouldCreateCycle(2, 0) // true outcome
	g.WouldCreateCycle(3, 0) // false outcome

	if !reflect.DeepEqual(g.Edges(), before) {
		t.Errorf("edge set changed: before %v, after %v", before, g.Edges())
	}
}

func TestRemoveBetween(t *testing.T) {
	g := New(3)
	mustAdd(t, g, 1, 0)

	e, ok := g.RemoveBetween(0, 1)
	if !ok {
		t.Fatal("RemoveBetween(0,1) found no edge")
	}
	if e.From != 1 || e.To != 0 {
		t.Errorf("removed edge = %v, want 1→0", e)
	}
	if g.EdgeCount() != 0 {
		t.Errorf("EdgeCount = %d, want 0", g.EdgeCount())
	}

	if _, ok := g.RemoveBetween(0, 1); ok {
		t.Error("RemoveBetween on unconnected pair reported removal")
	}
}

func TestCloneIsDeep(t *testing.T) {
	g := New(3)
	mustAdd(t, g, 0, 1)
	c := g.Clone()

	mustAdd(t, g, 1, 2)
	if c.EdgeCount() != 1 {
		t.Errorf("clone edge count = %d after mutating original, want 1", c.EdgeCount())
	}
	if err := c.AddEdge(2, 1); err != nil {
		t.Errorf("clone AddEdge failed: %v", err)
	}
	if g.HasEdge(2, 1) {
		t.Error("mutating clone affected original")
	}
}

func TestClear(t *testing.T) {
	g := New(3)
	mustAdd(t, g, 0, 1)
	mustAdd(t, g, 1, 2)
	g.Clear()

	if g.EdgeCount() != 0 {
		t.Errorf("EdgeCount after Clear = %d, want 0", g.EdgeCount())
	}
	if len(g.Parents(2)) != 0 || len(g.Children(0)) != 0 {
		t.Error("adjacency not cleared")
	}
	if err := g.AddEdge(1, 0); err != nil {
		t.Errorf("AddEdge after Clear failed: %v", err)
	}
}

func TestRandomTournament(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for trial := 0; trial < 20; trial++ {
		g := New(6)
		g.RandomTournament(rng)

		want := 6 * 5 / 2
		if g.EdgeCount() != want {
			t.Fatalf("trial %d: EdgeCount = %d, want %d", trial, g.EdgeCount(), want)
		}
		if err := g.Validate(); err != nil {
			t.Fatalf("trial %d: tournament not acyclic: %v", trial, err)
		}
		for i := 0; i < 6; i++ {
			for j := i + 1; j < 6; j++ {
				if g.HasEdge(i, j) == g.HasEdge(j, i) {
					t.Fatalf("trial %d: pair (%d,%d) has %d orientations, want exactly 1",
						trial, i, j, btoi(g.HasEdge(i, j))+btoi(g.HasEdge(j, i)))
				}
			}
		}
	}
}

func TestRandomTournamentDeterministic(t *testing.T) {
	a, b := New(5), New(5)
	a.RandomTournament(rand.New(rand.NewSource(42)))
	b.RandomTournament(rand.New(rand.NewSource(42)))
	if !reflect.DeepEqual(a.Edges(), b.Edges()) {
		t.Error("same seed produced different tournaments")
	}
}

func TestValidateDetectsCycle(t *testing.T) {
	// Bypass AddEdge's guard to build a corrupt graph.
	g := New(3)
	g.edges = []Edge{{0, 1}, {1, 2}, {2, 0}}
	g.adj[0*3+1] = true
	g.adj[1*3+2] = true
	g.adj[2*3+0] = true
	g.outgoing[0] = []int{1}
	g.outgoing[1] = []int{2}
	g.outgoing[2] = []int{0}

	if err := g.Validate(); !errors.Is(err, ErrGraphHasCycle) {
		t.Errorf("Validate = %v, want ErrGraphHasCycle", err)
	}
}

func mustAdd(t *testing.T, g *DAG, from, to int) {
	t.Helper()
	if err := g.AddEdge(from, to); err != nil {
		t.Fatalf("AddEdge(%d,%d) failed: %v", from, to, err)
	}
}

func btoi(b bool) int {
	if b {
		return 1
	}
	return 0
}
