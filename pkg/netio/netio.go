// Package netio provides the canonical JSON serialization for learned
// networks. The format is human-readable and round-trips exactly: variable
// order defines the index mapping, edges reference variables by name.
package netio

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/physlearn/physlearn/pkg/dag"
)

var (
	// ErrNameMismatch is returned when the variable name list does not match
	// the network's size.
	ErrNameMismatch = errors.New("variable names do not match network size")

	// ErrUnknownVariable is returned when an edge references a variable name
	// absent from the variable list.
	ErrUnknownVariable = errors.New("unknown variable name")
)

// Network is the serialization format for a learned structure.
type Network struct {
	Variables []string `json:"variables"`
	Edges     []Edge   `json:"edges"`
	Score     float64  `json:"score,omitempty"`
}

// Edge is a directed edge between named variables.
type Edge struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// FromDAG converts a network and its variable names to the serialization
// format. Edges keep the network's insertion order, which is deterministic
// for a seeded run.
func FromDAG(g *dag.DAG, names []string, score float64) (Network, error) {
	if len(names) != g.N() {
		return Network{}, fmt.Errorf("%d names for %d variables: %w", len(names), g.N(), ErrNameMismatch)
	}

	edges := g.Edges()
	out := Network{
		Variables: names,
		Edges:     make([]Edge, len(edges)),
		Score:     score,
	}
	for i, e := range edges {
		out.Edges[i] = Edge{From: names[e.From], To: names[e.To]}
	}
	return out, nil
}

// ToDAG converts a serialized network back to a DAG and its variable names.
// Returns an error if an edge references an unknown variable or violates
// the acyclicity constraint.
func (n Network) ToDAG() (*dag.DAG, []string, error) {
	index := make(map[string]int, len(n.Variables))
	for i, name := range n.Variables {
		index[name] = i
	}

	g := dag.New(len(n.Variables))
	for _, e := range n.Edges {
		from, ok := index[e.From]
		if !ok {
			return nil, nil, fmt.Errorf("edge source %q: %w", e.From, ErrUnknownVariable)
		}
		to, ok := index[e.To]
		if !ok {
			return nil, nil, fmt.Errorf("edge target %q: %w", e.To, ErrUnknownVariable)
		}
		if err := g.AddEdge(from, to); err != nil {
			return nil, nil, fmt.Errorf("add edge %s→%s: %w", e.From, e.To, err)
		}
	}
	return g, n.Variables, nil
}

// Marshal converts a network to indented JSON bytes.
func Marshal(n Network) ([]byte, error) {
	var buf bytes.Buffer
	if err := writeTo(n, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Write writes a network as JSON to an io.Writer.
func Write(n Network, w io.Writer) error {
	return writeTo(n, w)
}

// WriteFile writes a network to a JSON file.
// The file is created with 0644 permissions.
func WriteFile(n Network, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	return writeTo(n, f)
}

// Read decodes a JSON network from an io.Reader.
func Read(r io.Reader) (Network, error) {
	var n Network
	if err := json.NewDecoder(r).Decode(&n); err != nil {
		return Network{}, fmt.Errorf("decode: %w", err)
	}
	return n, nil
}

// ReadFile reads a JSON file and returns the decoded network.
func ReadFile(path string) (Network, error) {
	f, err := os.Open(path)
	if err != nil {
		return Network{}, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return Read(f)
}

func writeTo(n Network, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(n); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}
