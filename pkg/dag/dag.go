package dag

import (
	"errors"
	"math/rand"
	"slices"
)

var (
	// ErrNodeOutOfRange is returned when an operation references a variable
	// index outside [0, N). Index validity is a hard contract: the learner's
	// correctness depends on it, so it is never silently tolerated.
	ErrNodeOutOfRange = errors.New("node index out of range")

	// ErrSelfLoop is returned by [DAG.AddEdge] when from == to.
	ErrSelfLoop = errors.New("self loop not allowed")

	// ErrEdgeExists is returned by [DAG.AddEdge] when an edge already exists
	// between the two variables, in either orientation. At most one directed
	// edge may connect any unordered pair.
	ErrEdgeExists = errors.New("edge already exists between pair")

	// ErrWouldCycle is returned by [DAG.AddEdge] when the edge would close a
	// directed cycle. The graph must remain acyclic after every operation.
	ErrWouldCycle = errors.New("edge would create a cycle")

	// ErrGraphHasCycle is returned by [DAG.Validate] when a cycle is detected.
	// Cycles are detected using depth-first search with white/gray/black
	// coloring.
	ErrGraphHasCycle = errors.New("graph contains a cycle")
)

// Edge represents a directed dependency from a parent variable to a child
// variable.
type Edge struct {
	From int
	To   int
}

// DAG is a directed acyclic graph over a fixed set of variables indexed
// 0..N-1. It represents a candidate dependency structure: edges point from
// parent to child, at most one edge connects any unordered pair, and the
// graph is acyclic after every completed operation.
//
// The zero value is not usable - use New to create a valid DAG instance.
// DAG is not safe for concurrent use without external synchronization.
type DAG struct {
	n        int
	edges    []Edge
	adj      []bool  // flattened n*n adjacency: adj[from*n+to]
	outgoing [][]int // children per variable
	incoming [][]int // parents per variable
}

// New creates an empty DAG over n variables. n must be non-negative;
// a zero-variable graph is valid and empty.
func New(n int) *DAG {
	return &DAG{
		n:        n,
		adj:      make([]bool, n*n),
		outgoing: make([][]int, n),
		incoming: make([][]int, n),
	}
}

// N returns the number of variables.
func (d *DAG) N() int { return d.n }

// checkNode validates a variable index.
func (d *DAG) checkNode(v int) error {
	if v < 0 || v >= d.n {
		return ErrNodeOutOfRange
	}
	return nil
}

// AddEdge adds the directed edge from→to.
// Returns ErrNodeOutOfRange for invalid indices, ErrSelfLoop when the
// endpoints coincide, ErrEdgeExists when the pair is already connected in
// either orientation, or ErrWouldCycle when the edge would close a directed
// cycle. On error the graph is unchanged.
func (d *DAG) AddEdge(from, to int) error {
	if err := d.checkNode(from); err != nil {
		return err
	}
	if err := d.checkNode(to); err != nil {
		return err
	}
	if from == to {
		return ErrSelfLoop
	}
	if d.adj[from*d.n+to] || d.adj[to*d.n+from] {
		return ErrEdgeExists
	}
	if d.WouldCreateCycle(from, to) {
		return ErrWouldCycle
	}
	d.edges = append(d.edges, Edge{From: from, To: to})
	d.adj[from*d.n+to] = true
	d.outgoing[from] = append(d.outgoing[from], to)
	d.incoming[to] = append(d.incoming[to], from)
	return nil
}

// RemoveEdge removes the edge from→to if it exists and reports whether an
// edge was removed. The reverse orientation is not touched.
func (d *DAG) RemoveEdge(from, to int) bool {
	if from < 0 || from >= d.n || to < 0 || to >= d.n || !d.adj[from*d.n+to] {
		return false
	}
	d.adj[from*d.n+to] = false
	d.edges = slices.DeleteFunc(d.edges, func(e Edge) bool { return e.From == from && e.To == to })
	d.outgoing[from] = slices.DeleteFunc(d.outgoing[from], func(v int) bool { return v == to })
	d.incoming[to] = slices.DeleteFunc(d.incoming[to], func(v int) bool { return v == from })
	return true
}

// RemoveBetween removes whichever directed edge connects the unordered pair
// {i, j}, if any. It returns the removed edge and true, or a zero edge and
// false when the pair is unconnected. The returned edge lets callers restore
// the exact prior state after a what-if evaluation.
func (d *DAG) RemoveBetween(i, j int) (Edge, bool) {
	if d.HasEdge(i, j) {
		d.RemoveEdge(i, j)
		return Edge{From: i, To: j}, true
	}
	if d.HasEdge(j, i) {
		d.RemoveEdge(j, i)
		return Edge{From: j, To: i}, true
	}
	return Edge{}, false
}

// HasEdge reports whether the directed edge from→to exists.
// Out-of-range indices report false.
func (d *DAG) HasEdge(from, to int) bool {
	if from < 0 || from >= d.n || to < 0 || to >= d.n {
		return false
	}
	return d.adj[from*d.n+to]
}

// EdgeBetween returns the directed edge connecting the unordered pair {i, j}
// and true, or a zero edge and false when the pair is unconnected.
func (d *DAG) EdgeBetween(i, j int) (Edge, bool) {
	if d.HasEdge(i, j) {
		return Edge{From: i, To: j}, true
	}
	if d.HasEdge(j, i) {
		return Edge{From: j, To: i}, true
	}
	return Edge{}, false
}

// Parents returns the parent indices of variable v.
// The returned slice should not be modified - use it as a read-only view.
// Returns nil for out-of-range indices.
func (d *DAG) Parents(v int) []int {
	if v < 0 || v >= d.n {
		return nil
	}
	return d.incoming[v]
}

// Children returns the child indices of variable v.
// The returned slice should not be modified - use it as a read-only view.
// Returns nil for out-of-range indices.
func (d *DAG) Children(v int) []int {
	if v < 0 || v >= d.n {
		return nil
	}
	return d.outgoing[v]
}

// Edges returns a copy of all edges in insertion order.
// Modifications to the returned slice do not affect the graph.
func (d *DAG) Edges() []Edge { return slices.Clone(d.edges) }

// EdgeCount returns the number of edges in the graph.
func (d *DAG) EdgeCount() int { return len(d.edges) }

// WouldCreateCycle reports whether adding the directed edge from→to would
// close a cycle, i.e. whether a directed path to→...→from already exists.
// The check is a pure reachability query: the graph is never mutated, so no
// transient inconsistent state is observable even if the caller panics.
func (d *DAG) WouldCreateCycle(from, to int) bool {
	if from == to {
		return true
	}
	// DFS from `to` looking for `from`.
	seen := make([]bool, d.n)
	stack := []int{to}
	for len(stack) > 0 {
		v := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if v == from {
			return true
		}
		if seen[v] {
			continue
		}
		seen[v] = true
		stack = append(stack, d.outgoing[v]...)
	}
	return false
}

// Clone returns a deep copy of the graph. The copy shares no state with the
// original; mutating one never affects the other. This is how best-so-far
// snapshots are taken.
func (d *DAG) Clone() *DAG {
	c := &DAG{
		n:        d.n,
		edges:    slices.Clone(d.edges),
		adj:      slices.Clone(d.adj),
		outgoing: make([][]int, d.n),
		incoming: make([][]int, d.n),
	}
	for v := 0; v < d.n; v++ {
		c.outgoing[v] = slices.Clone(d.outgoing[v])
		c.incoming[v] = slices.Clone(d.incoming[v])
	}
	return c
}

// Clear removes every edge, leaving the variable set intact.
func (d *DAG) Clear() {
	d.edges = d.edges[:0]
	clear(d.adj)
	for v := 0; v < d.n; v++ {
		d.outgoing[v] = d.outgoing[v][:0]
		d.incoming[v] = d.incoming[v][:0]
	}
}

// RandomTournament clears the graph and inserts one directed edge per
// unordered pair, oriented along a random total order of the variables.
// Each pair's direction is a fair coin flip marginally, and the result is
// always acyclic: a tournament induced by a total order has no cycles.
func (d *DAG) RandomTournament(rng *rand.Rand) {
	d.Clear()
	order := rng.Perm(d.n)
	rank := make([]int, d.n)
	for pos, v := range order {
		rank[v] = pos
	}
	for i := 0; i < d.n; i++ {
		for j := i + 1; j < d.n; j++ {
			from, to := i, j
			if rank[j] < rank[i] {
				from, to = j, i
			}
			// Safe by construction: edges follow the total order.
			d.edges = append(d.edges, Edge{From: from, To: to})
			d.adj[from*d.n+to] = true
			d.outgoing[from] = append(d.outgoing[from], to)
			d.incoming[to] = append(d.incoming[to], from)
		}
	}
}

// Validate checks graph integrity and returns nil if valid.
// Returns ErrGraphHasCycle if a directed cycle is detected.
//
// Cycle detection runs in O(N+E) time using depth-first search.
func (d *DAG) Validate() error {
	const (
		white = iota
		gray
		black
	)

	color := make([]int, d.n)
	var hasCycle bool

	var dfs func(v int)
	dfs = func(v int) {
		color[v] = gray
		for _, child := range d.outgoing[v] {
			switch color[child] {
			case white:
				dfs(child)
			case gray:
				hasCycle = true
				return
			}
		}
		color[v] = black
	}

	for v := 0; v < d.n; v++ {
		if color[v] == white {
			dfs(v)
			if hasCycle {
				return ErrGraphHasCycle
			}
		}
	}
	return nil
}
