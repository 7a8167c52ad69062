// Package dag provides the directed acyclic candidate network used during
// structure search.
//
// A DAG spans a fixed set of variables indexed 0..N-1 and holds at most one
// directed edge per unordered pair. Every mutating operation preserves
// acyclicity: AddEdge rejects cycle-closing edges up front via a pure
// reachability query (WouldCreateCycle), so no transient cyclic state is ever
// observable.
//
// # Usage
//
//	g := dag.New(3)
//	if err := g.AddEdge(0, 2); err != nil { ... }
//	if g.WouldCreateCycle(2, 0) {
//	    // adding 2→0 would close 0→2→0
//	}
//	snapshot := g.Clone() // deep copy, safe to keep while g keeps mutating
//
// RandomTournament resets the graph to a fully connected acyclic orientation
// drawn from a random total order, which is how each learning ensemble
// starts.
package dag
