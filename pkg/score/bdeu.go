package score

import (
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"

	"github.com/physlearn/physlearn/pkg/dag"
	"github.com/physlearn/physlearn/pkg/observability"
)

// DefaultESS is the default equivalent sample size (smoothing) for the BDeu
// score.
const DefaultESS = 1.0

// BDeu is a Bayesian-Dirichlet-equivalent-uniform scoring oracle over a
// discrete dataset. Local scores are log-marginal-likelihoods, so they are
// negative and higher-is-better. Scores are memoized by (variable, canonical
// parent set); the dataset is fixed for the oracle's lifetime, so cached
// entries never go stale.
//
// BDeu is not safe for concurrent use without external synchronization.
type BDeu struct {
	data *Dataset
	ess  float64
	memo map[string]float64
}

// NewBDeu creates a BDeu oracle for the dataset with the given equivalent
// sample size. ess must be positive.
func NewBDeu(data *Dataset, ess float64) (*BDeu, error) {
	if ess <= 0 || math.IsNaN(ess) || math.IsInf(ess, 0) {
		return nil, fmt.Errorf("equivalent sample size %v: %w", ess, ErrInvalidParentSet)
	}
	return &BDeu{
		data: data,
		ess:  ess,
		memo: make(map[string]float64),
	}, nil
}

// Dataset returns the oracle's dataset.
func (b *BDeu) Dataset() *Dataset { return b.data }

// LocalScore returns the BDeu log-score of variable v given the parent set.
// The parent set may be empty. Parents are canonicalized (sorted) before
// scoring, so order does not matter.
func (b *BDeu) LocalScore(v int, parents []int) (float64, error) {
	n := b.data.N()
	if v < 0 || v >= n {
		return 0, fmt.Errorf("variable %d with %d variables: %w", v, n, ErrVariableOutOfRange)
	}
	sorted := slices.Clone(parents)
	slices.Sort(sorted)
	for k, p := range sorted {
		if p < 0 || p >= n {
			return 0, fmt.Errorf("parent %d with %d variables: %w", p, n, ErrInvalidParentSet)
		}
		if p == v {
			return 0, fmt.Errorf("variable %d is its own parent: %w", v, ErrInvalidParentSet)
		}
		if k > 0 && sorted[k-1] == p {
			return 0, fmt.Errorf("duplicate parent %d: %w", p, ErrInvalidParentSet)
		}
	}

	key := memoKey(v, sorted)
	if s, ok := b.memo[key]; ok {
		observability.Score().OnLocalScore(v, len(sorted), true)
		return s, nil
	}

	s, err := b.localScore(v, sorted)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(s) || math.IsInf(s, 0) {
		return 0, fmt.Errorf("local score of variable %d: %w", v, ErrNonFiniteScore)
	}
	b.memo[key] = s
	observability.Score().OnLocalScore(v, len(sorted), false)
	return s, nil
}

// NetworkScore returns the sum of local scores over all variables, or Worst
// for a nil network.
func (b *BDeu) NetworkScore(g *dag.DAG) (float64, error) {
	if g == nil {
		return Worst, nil
	}
	if g.N() != b.data.N() {
		return 0, fmt.Errorf("network has %d variables, dataset has %d: %w", g.N(), b.data.N(), ErrSizeMismatch)
	}
	var total float64
	for v := 0; v < g.N(); v++ {
		s, err := b.LocalScore(v, g.Parents(v))
		if err != nil {
			return 0, err
		}
		total += s
	}
	observability.Score().OnNetworkScore(g.N(), total)
	return total, nil
}

// localScore computes the BDeu family score
//
//	Σ_j [ lnΓ(α_j) − lnΓ(α_j + N_j) + Σ_k ( lnΓ(α_jk + N_jk) − lnΓ(α_jk) ) ]
//
// over observed parent configurations j, with α_j = ess/q and
// α_jk = ess/(q·r). Unobserved configurations contribute zero, so only the
// configurations present in the data are enumerated.
func (b *BDeu) localScore(v int, parents []int) (float64, error) {
	r := b.data.Arity(v)
	q := 1.0
	for _, p := range parents {
		q *= float64(b.data.Arity(p))
	}

	alphaJ := b.ess / q
	alphaJK := b.ess / (q * float64(r))
	if alphaJ == 0 || alphaJK == 0 {
		return 0, fmt.Errorf("prior underflow for %d parent configurations: %w", int64(q), ErrNonFiniteScore)
	}

	// Counts per observed parent configuration. Configurations are indexed
	// in mixed radix over the parents' arities.
	counts := make(map[int64][]int)
	child := b.data.column(v)
	for row := 0; row < b.data.Rows(); row++ {
		var cfg int64
		for _, p := range parents {
			cfg = cfg*int64(b.data.Arity(p)) + int64(b.data.column(p)[row])
		}
		c, ok := counts[cfg]
		if !ok {
			c = make([]int, r)
			counts[cfg] = c
		}
		c[child[row]]++
	}

	var total float64
	lgAlphaJ, _ := math.Lgamma(alphaJ)
	lgAlphaJK, _ := math.Lgamma(alphaJK)
	for _, c := range counts {
		nj := 0
		for _, njk := range c {
			nj += njk
		}
		lgNj, _ := math.Lgamma(alphaJ + float64(nj))
		total += lgAlphaJ - lgNj
		for _, njk := range c {
			if njk == 0 {
				continue
			}
			lgNjk, _ := math.Lgamma(alphaJK + float64(njk))
			total += lgNjk - lgAlphaJK
		}
	}
	return total, nil
}

func memoKey(v int, sortedParents []int) string {
	var sb strings.Builder
	sb.WriteString(strconv.Itoa(v))
	sb.WriteByte('|')
	for k, p := range sortedParents {
		if k > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(strconv.Itoa(p))
	}
	return sb.String()
}
