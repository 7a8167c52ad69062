package score

import (
	"errors"
	"strings"
	"testing"
)

func TestReadCSV(t *testing.T) {
	d, err := ReadCSV(strings.NewReader("A,B,C\nyes,0,low\nno,1,high\nyes,1,low\n"))
	if err != nil {
		t.Fatalf("ReadCSV: %v", err)
	}

	if d.N() != 3 {
		t.Errorf("N = %d, want 3", d.N())
	}
	if d.Rows() != 3 {
		t.Errorf("Rows = %d, want 3", d.Rows())
	}
	wantNames := []string{"A", "B", "C"}
	for v, name := range wantNames {
		if d.Name(v) != name {
			t.Errorf("Name(%d) = %q, want %q", v, d.Name(v), name)
		}
	}
	for v := 0; v < 3; v++ {
		if d.Arity(v) != 2 {
			t.Errorf("Arity(%d) = %d, want 2", v, d.Arity(v))
		}
	}
}

func TestReadCSVLabelEncodingFirstAppearance(t *testing.T) {
	d, err := ReadCSV(strings.NewReader("X\nb\na\nb\nc\n"))
	if err != nil {
		t.Fatalf("ReadCSV: %v", err)
	}
	want := []int{0, 1, 0, 2} // b→0, a→1, c→2
	got := d.column(0)
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("column[%d] = %d, want %d", i, got[i], want[i])
		}
	}
}

func TestReadCSVErrors(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		wantErr error
	}{
		{"empty input", "", ErrNoColumns},
		{"header only", "A,B\n", ErrNoRows},
	}

	for _, tt := range tests {
		if _, err := ReadCSV(strings.NewReader(tt.in)); !errors.Is(err, tt.wantErr) {
			t.Errorf("%s: error = %v, want %v", tt.name, err, tt.wantErr)
		}
	}
}

func TestReadCSVRaggedRow(t *testing.T) {
	if _, err := ReadCSV(strings.NewReader("A,B\n0,1\n0\n")); err == nil {
		t.Error("ragged row accepted")
	}
}
