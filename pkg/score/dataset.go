package score

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
)

var (
	// ErrNoColumns is returned when the input has no variables.
	ErrNoColumns = errors.New("dataset has no columns")

	// ErrNoRows is returned when the input has a header but no data rows.
	ErrNoRows = errors.New("dataset has no rows")
)

// Dataset is a discrete tabular dataset with one column per variable.
// Column order defines the variable index 0..N-1 shared with the maze and
// the candidate network. Values are label-encoded per column in order of
// first appearance, so loading the same file always yields the same
// encoding.
type Dataset struct {
	names []string
	arity []int
	cols  [][]int // cols[v][row], label-encoded
	rows  int
}

// N returns the number of variables.
func (d *Dataset) N() int { return len(d.names) }

// Rows returns the number of observations.
func (d *Dataset) Rows() int { return d.rows }

// Name returns the name of variable v.
func (d *Dataset) Name(v int) string { return d.names[v] }

// Names returns the variable names in index order.
// The returned slice should not be modified.
func (d *Dataset) Names() []string { return d.names }

// Arity returns the number of distinct states observed for variable v.
func (d *Dataset) Arity(v int) int { return d.arity[v] }

// column returns the encoded values of variable v.
func (d *Dataset) column(v int) []int { return d.cols[v] }

// LoadCSV reads a dataset from a CSV file. The first record is the header
// naming the variables.
func LoadCSV(path string) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return ReadCSV(f)
}

// ReadCSV reads a dataset from CSV content. The first record is the header
// naming the variables; every following record is one observation. All
// records must have the same number of fields.
func ReadCSV(r io.Reader) (*Dataset, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil, ErrNoColumns
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	if len(header) == 0 {
		return nil, ErrNoColumns
	}

	n := len(header)
	d := &Dataset{
		names: append([]string(nil), header...),
		arity: make([]int, n),
		cols:  make([][]int, n),
	}
	encoding := make([]map[string]int, n)
	for v := range encoding {
		encoding[v] = make(map[string]int)
	}

	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row %d: %w", d.rows+1, err)
		}
		for v, raw := range record {
			code, ok := encoding[v][raw]
			if !ok {
				code = d.arity[v]
				encoding[v][raw] = code
				d.arity[v]++
			}
			d.cols[v] = append(d.cols[v], code)
		}
		d.rows++
	}

	if d.rows == 0 {
		return nil, ErrNoRows
	}
	return d, nil
}
