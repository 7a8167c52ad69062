package learn

import (
	"context"
	"errors"
	"math/rand"
	"time"

	"github.com/charmbracelet/log"

	"github.com/physlearn/physlearn/pkg/dag"
	perrors "github.com/physlearn/physlearn/pkg/errors"
	"github.com/physlearn/physlearn/pkg/flow"
	"github.com/physlearn/physlearn/pkg/maze"
	"github.com/physlearn/physlearn/pkg/observability"
	"github.com/physlearn/physlearn/pkg/score"
	"github.com/physlearn/physlearn/pkg/search"
)

// Runner executes learning runs against a scoring oracle.
//
// The Runner is stateless between runs - all per-run state (maze, candidate
// network, best snapshot, RNG) lives in a session created by Run. Multiple
// goroutines can safely use the same Runner with different options as long
// as the oracle tolerates concurrent calls.
type Runner struct {
	Oracle score.Oracle
	Logger *log.Logger
}

// NewRunner creates a runner for the given oracle.
// If logger is nil, the default logger is used.
func NewRunner(oracle score.Oracle, logger *log.Logger) *Runner {
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Oracle: oracle,
		Logger: logger,
	}
}

// Result contains the outputs of a learning run.
type Result struct {
	// Network is the best-scoring acyclic structure observed across all
	// ensembles and iterations. Owned by the caller.
	Network *dag.DAG

	// Score is the network's total score under the oracle.
	Score float64

	// Stats contains timing and progress information.
	Stats Stats
}

// Stats contains run execution statistics.
type Stats struct {
	NodeCount   int
	EdgeCount   int
	Ensembles   int
	Iterations  int
	PairSteps   int // flow steps taken across the whole run
	BestUpdates int // times the best network was replaced
	Elapsed     time.Duration
}

// session holds the mutable state of one learning run.
type session struct {
	rng    *rand.Rand
	maze   *maze.Maze
	g      *dag.DAG
	solver *flow.Solver
	search *search.Search
}

// newSession draws the initial maze conductances and candidate orientation
// from the seeded RNG, in that order, so runs with equal seeds are
// bit-identical.
func (r *Runner) newSession(n int, opts Options) *session {
	rng := rand.New(rand.NewSource(opts.Seed))
	m := maze.New(n, rng)
	g := dag.New(n)
	g.RandomTournament(rng)

	sv := flow.NewSolver()
	sv.Current = opts.Current
	sv.Weight = opts.Weight
	sv.Decay = opts.Decay
	sv.RCond = opts.RCond
	sv.Feedback = flow.Power(opts.Mu)

	se := search.New(m, g, r.Oracle)
	se.Threshold = opts.Threshold
	se.Bias = opts.Bias

	return &session{rng: rng, maze: m, g: g, solver: sv, search: se}
}

// reset prepares the session for the next ensemble: candidate edges are
// cleared and re-oriented at random, maze conductances are redrawn. The
// best snapshot persists across ensembles.
func (s *session) reset() {
	s.maze.Reset(s.rng)
	s.g.Clear()
	s.g.RandomTournament(s.rng)
}

// Run executes the full ensemble × iteration loop over n variables and
// returns the best network observed.
func (r *Runner) Run(ctx context.Context, n int, opts Options) (*Result, error) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}
	logger := opts.Logger
	if n < 2 {
		return nil, perrors.New(perrors.ErrCodeInvalidDataset, "need at least 2 variables, got %d", n)
	}

	start := time.Now()
	sess := r.newSession(n, opts)
	stats := Stats{
		NodeCount:  n,
		Ensembles:  opts.Ensembles,
		Iterations: opts.Iterations,
	}

	for e := 0; e < opts.Ensembles; e++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if e > 0 {
			sess.reset()
		}
		observability.Learner().OnEnsembleStart(ctx, e)
		estart := time.Now()

		for it := 0; it < opts.Iterations; it++ {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			if err := r.iterate(ctx, sess, opts, &stats); err != nil {
				observability.Learner().OnEnsembleComplete(ctx, e, sess.bestScore(), time.Since(estart), err)
				return nil, err
			}
			observability.Learner().OnIterationComplete(ctx, e, it, len(sess.g.Edges()))
			logger.Debug("iteration complete",
				"ensemble", e,
				"iteration", it,
				"edges", len(sess.g.Edges()),
				"best", sess.bestScore())
		}

		observability.Learner().OnEnsembleComplete(ctx, e, sess.bestScore(), time.Since(estart), nil)
		logger.Info("ensemble complete",
			"ensemble", e,
			"best", sess.bestScore(),
			"duration", time.Since(estart))
	}

	best, bestScore := sess.search.Best()
	if best == nil {
		return nil, perrors.New(perrors.ErrCodeInternal, "no network recorded after %d ensembles", opts.Ensembles)
	}
	stats.EdgeCount = len(best.Edges())
	stats.Elapsed = time.Since(start)

	return &Result{
		Network: best.Clone(),
		Score:   bestScore,
		Stats:   stats,
	}, nil
}

// iterate processes one inner iteration: every unordered pair is popped in
// random order; each pop drives one flow step for that pair, floors the
// popped pair's conductance just above the whitelist threshold so it gets
// at least one shot at the whitelist this round, and runs a full
// structure-search pass.
func (r *Runner) iterate(ctx context.Context, sess *session, opts Options, stats *Stats) error {
	pairs := make([]search.Pair, 0, sess.maze.EdgeCount())
	for _, e := range sess.maze.Edges() {
		pairs = append(pairs, search.Pair{I: e.I, J: e.J})
	}

	for len(pairs) > 0 {
		if err := ctx.Err(); err != nil {
			return err
		}

		k := sess.rng.Intn(len(pairs))
		p := pairs[k]
		pairs[k] = pairs[len(pairs)-1]
		pairs = pairs[:len(pairs)-1]

		if _, err := sess.solver.Step(sess.maze, p.I, p.J); err != nil {
			return perrors.Wrap(perrors.ErrCodeNumerical, err, "flow step for pair (%d, %d)", p.I, p.J)
		}
		stats.PairSteps++

		st, err := sess.maze.State(p.I, p.J)
		if err != nil {
			return perrors.Wrap(perrors.ErrCodeInvalidNode, err, "pair (%d, %d)", p.I, p.J)
		}
		if st.Conductance < opts.Threshold {
			st.Conductance = maze.Clamp(opts.Threshold + 0.01)
		}

		_, before := sess.search.Best()
		if err := sess.search.Evaluate(); err != nil {
			return wrapSearchErr(err)
		}
		if after := sess.bestScore(); before == score.Worst || after > before {
			stats.BestUpdates++
			observability.Learner().OnBestImproved(ctx, after, len(sess.g.Edges()))
		}
	}
	return nil
}

func (s *session) bestScore() float64 {
	_, bs := s.search.Best()
	return bs
}

// wrapSearchErr maps structure-search failures onto error codes: non-finite
// values are numerical failures, everything else is a scoring failure.
func wrapSearchErr(err error) error {
	if errors.Is(err, search.ErrNonFiniteBias) || errors.Is(err, score.ErrNonFiniteScore) {
		return perrors.Wrap(perrors.ErrCodeNumerical, err, "structure search")
	}
	return perrors.Wrap(perrors.ErrCodeScoring, err, "structure search")
}
