package flow

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/physlearn/physlearn/pkg/maze"
)

var (
	// ErrNodeOutOfRange is returned when source or sink is not a valid
	// variable index.
	ErrNodeOutOfRange = errors.New("node index out of range")

	// ErrSameSourceSink is returned when source == sink.
	ErrSameSourceSink = errors.New("source and sink must differ")

	// ErrNonFinite is returned when the solve produces NaN or Inf pressures.
	// Non-finite values must never reach the structure search: NaN comparisons
	// are non-total and would silently break best-candidate selection.
	ErrNonFinite = errors.New("non-finite pressure")
)

// Default solver constants.
const (
	// DefaultCurrent is the injected current I0.
	DefaultCurrent = 3.0

	// DefaultWeight is the reinforcement weight w in the conductance update
	// D ← w·f + (1−l·w)·D.
	DefaultWeight = 0.5

	// DefaultDecay is the decay rate l in the conductance update.
	DefaultDecay = 0.2

	// DefaultRCond is the singular-value cutoff for the pseudo-inverse:
	// singular values below RCond times the largest singular value are
	// treated as zero.
	DefaultRCond = 1e-15
)

// Solver computes nodal pressures over a maze and reinforces edge
// conductances from the resulting flows.
//
// The nodal system A·x = b has zero row sums and no grounded reference node,
// so A is structurally singular. An exact solve is attempted first; when it
// reports singularity the solver falls back to a Moore–Penrose pseudo-inverse
// built from a truncated SVD. Singularity is the expected case, not an error.
type Solver struct {
	Current  float64      // injected current I0
	Weight   float64      // reinforcement weight w
	Decay    float64      // decay rate l
	RCond    float64      // pseudo-inverse cutoff
	Feedback FeedbackFunc // flow → reinforcement, defaults to type-I
}

// NewSolver returns a solver with the default constants and type-I feedback.
func NewSolver() *Solver {
	return &Solver{
		Current:  DefaultCurrent,
		Weight:   DefaultWeight,
		Decay:    DefaultDecay,
		RCond:    DefaultRCond,
		Feedback: TypeI,
	}
}

// Step solves the pressure system for (source, sink) and reinforces every
// maze edge from its resulting flow. It returns the leveled pressure vector.
//
// This mutates the conductance of every edge in the maze, not just the
// solved pair's: D ← w·f(|q|) + (1−l·w)·D where q = (D/L)·(p_i−p_j).
func (s *Solver) Step(m *maze.Maze, source, sink int) ([]float64, error) {
	pres, err := s.Solve(m, source, sink)
	if err != nil {
		return nil, err
	}
	for _, e := range m.Edges() {
		qPart := e.State.Conductance / e.State.Length
		q := qPart * (pres[e.I] - pres[e.J])
		f := s.feedback()(math.Abs(q))
		e.State.Conductance = s.Weight*f + (1-s.Decay*s.Weight)*e.State.Conductance
	}
	return pres, nil
}

func (s *Solver) feedback() FeedbackFunc {
	if s.Feedback == nil {
		return TypeI
	}
	return s.Feedback
}

// Solve returns the length-N vector of nodal pressures for the fixed current
// I0 driven from source to sink (b[source] = -I0, b[sink] = +I0), leveled to
// the sink's reference. The maze is not mutated.
func (s *Solver) Solve(m *maze.Maze, source, sink int) ([]float64, error) {
	n := m.N()
	if source < 0 || source >= n || sink < 0 || sink >= n {
		return nil, fmt.Errorf("flow: source %d, sink %d with %d nodes: %w", source, sink, n, ErrNodeOutOfRange)
	}
	if source == sink {
		return nil, fmt.Errorf("flow: source %d: %w", source, ErrSameSourceSink)
	}

	a := mat.NewDense(n, n, nil)
	for _, e := range m.Edges() {
		w := e.State.Conductance / e.State.Length
		a.Set(e.I, e.J, w)
		a.Set(e.J, e.I, w)
	}
	for i := 0; i < n; i++ {
		var sum float64
		for j := 0; j < n; j++ {
			if j != i {
				sum += a.At(i, j)
			}
		}
		a.Set(i, i, -sum)
	}

	b := mat.NewVecDense(n, nil)
	b.SetVec(source, -s.Current)
	b.SetVec(sink, s.Current)

	pres, err := s.solve(a, b)
	if err != nil {
		return nil, err
	}

	levelPressures(pres, sink)

	for i, p := range pres {
		if math.IsNaN(p) || math.IsInf(p, 0) {
			return nil, fmt.Errorf("flow: pressure[%d] = %v: %w", i, p, ErrNonFinite)
		}
	}
	return pres, nil
}

// solve attempts an exact solve and falls back to the pseudo-inverse when the
// matrix is reported singular or the exact solution is not finite.
func (s *Solver) solve(a *mat.Dense, b *mat.VecDense) ([]float64, error) {
	n := b.Len()

	var x mat.VecDense
	if err := x.SolveVec(a, b); err == nil {
		out := make([]float64, n)
		finite := true
		for i := 0; i < n; i++ {
			out[i] = x.AtVec(i)
			if math.IsNaN(out[i]) || math.IsInf(out[i], 0) {
				finite = false
				break
			}
		}
		if finite {
			return out, nil
		}
	}

	return s.pinvSolve(a, b)
}

// pinvSolve computes x = A⁺·b from a truncated SVD. Singular values at or
// below RCond times the largest singular value are treated as zero.
func (s *Solver) pinvSolve(a *mat.Dense, b *mat.VecDense) ([]float64, error) {
	var svd mat.SVD
	if ok := svd.Factorize(a, mat.SVDThin); !ok {
		return nil, fmt.Errorf("flow: SVD factorization failed: %w", ErrNonFinite)
	}

	values := svd.Values(nil)
	var u, v mat.Dense
	svd.UTo(&u)
	svd.VTo(&v)

	rcond := s.RCond
	if rcond <= 0 {
		rcond = DefaultRCond
	}
	var smax float64
	for _, sv := range values {
		if sv > smax {
			smax = sv
		}
	}
	tol := rcond * smax

	n := b.Len()
	x := make([]float64, n)
	for k, sv := range values {
		if sv <= tol {
			continue
		}
		var dot float64
		for i := 0; i < n; i++ {
			dot += u.At(i, k) * b.AtVec(i)
		}
		coef := dot / sv
		for i := 0; i < n; i++ {
			x[i] += coef * v.At(i, k)
		}
	}
	return x, nil
}

// levelPressures applies the sign-dependent ground convention to the raw
// pressure vector. When the raw sink pressure is negative the whole vector is
// shifted so the sink sits at zero; otherwise the sink value is added to
// every entry, doubling the sink. Both branches are uniform shifts, so
// pressure differences (and hence flows) are unaffected.
func levelPressures(pres []float64, sink int) {
	s := pres[sink]
	if s < 0 {
		for i := range pres {
			pres[i] -= s
		}
		return
	}
	for i := range pres {
		pres[i] += s
	}
}
