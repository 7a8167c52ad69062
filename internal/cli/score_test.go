package cli

import (
	"strings"
	"testing"

	perrors "github.com/physlearn/physlearn/pkg/errors"
	"github.com/physlearn/physlearn/pkg/netio"
	"github.com/physlearn/physlearn/pkg/score"
)

func testDataset(t *testing.T, csv string) *score.Dataset {
	t.Helper()
	d, err := score.ReadCSV(strings.NewReader(csv))
	if err != nil {
		t.Fatalf("ReadCSV: %v", err)
	}
	return d
}

// The saved network may list variables in a different order than the
// dataset; edges must land on the dataset's indices.
func TestNetworkInDatasetOrder(t *testing.T) {
	data := testDataset(t, "A,B,C\n0,0,0\n1,1,1\n")
	net := netio.Network{
		Variables: []string{"C", "A", "B"},
		Edges:     []netio.Edge{{From: "A", To: "C"}, {From: "B", To: "C"}},
	}

	g, err := networkInDatasetOrder(net, data)
	if err != nil {
		t.Fatalf("networkInDatasetOrder: %v", err)
	}
	// Dataset order: A=0, B=1, C=2.
	if !g.HasEdge(0, 2) || !g.HasEdge(1, 2) {
		t.Errorf("edges = %v, want 0→2 and 1→2", g.Edges())
	}
}

func TestNetworkInDatasetOrderErrors(t *testing.T) {
	data := testDataset(t, "A,B\n0,0\n1,1\n")

	tests := []struct {
		name string
		net  netio.Network
		code perrors.Code
	}{
		{
			"size mismatch",
			netio.Network{Variables: []string{"A"}},
			perrors.ErrCodeInvalidInput,
		},
		{
			"unknown variable",
			netio.Network{Variables: []string{"A", "Z"}},
			perrors.ErrCodeInvalidInput,
		},
		{
			"cyclic edges",
			netio.Network{
				Variables: []string{"A", "B"},
				Edges:     []netio.Edge{{From: "A", To: "B"}, {From: "B", To: "A"}},
			},
			perrors.ErrCodeInvalidEdge,
		},
	}

	for _, tt := range tests {
		if _, err := networkInDatasetOrder(tt.net, data); !perrors.Is(err, tt.code) {
			t.Errorf("%s: code = %v, want %v", tt.name, perrors.GetCode(err), tt.code)
		}
	}
}
