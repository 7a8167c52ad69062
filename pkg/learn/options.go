package learn

import (
	"io"
	"math"

	"github.com/charmbracelet/log"

	perrors "github.com/physlearn/physlearn/pkg/errors"
	"github.com/physlearn/physlearn/pkg/flow"
	"github.com/physlearn/physlearn/pkg/maze"
	"github.com/physlearn/physlearn/pkg/score"
	"github.com/physlearn/physlearn/pkg/search"
)

// =============================================================================
// Default Values - Single Source of Truth for CLI and Library Callers
// =============================================================================

const (
	// DefaultEnsembles is the number of independent restart trajectories.
	DefaultEnsembles = 3

	// DefaultIterations is the number of inner iterations per ensemble.
	DefaultIterations = 10

	// DefaultSeed is the default random seed for reproducibility.
	DefaultSeed = int64(42)
)

// Options contains all configuration for a learning run. Zero values are
// replaced with defaults by ValidateAndSetDefaults. The struct supports
// TOML deserialization for config files.
type Options struct {
	// Loop control
	Ensembles  int `toml:"ensembles"`
	Iterations int `toml:"iterations"`

	// Flow dynamics
	Current float64 `toml:"current"` // injected current I0
	Weight  float64 `toml:"weight"`  // conductance smoothing weight w
	Decay   float64 `toml:"decay"`   // conductance decay weight l
	Mu      float64 `toml:"mu"`      // feedback exponent in f(|q|) = |q|^mu
	RCond   float64 `toml:"rcond"`   // pseudo-inverse singular value cutoff

	// Structure search
	Threshold float64 `toml:"threshold"` // whitelist conductance threshold Dt
	Bias      float64 `toml:"bias"`      // score feedback bias strength k

	// Scoring
	ESS float64 `toml:"ess"` // equivalent sample size for the BDeu prior

	// Seed drives every stochastic choice of the run: initial conductances,
	// initial orientations, and pair-pick order.
	Seed int64 `toml:"seed"`

	// Runtime options (not serialized)
	Logger *log.Logger `toml:"-"`

	// validated tracks whether ValidateAndSetDefaults has been called.
	validated bool `toml:"-"`
}

// ValidateAndSetDefaults checks all fields and applies defaults.
// This method is idempotent - calling it multiple times has the same effect
// as calling it once.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}

	if o.Ensembles == 0 {
		o.Ensembles = DefaultEnsembles
	}
	if o.Iterations == 0 {
		o.Iterations = DefaultIterations
	}
	if o.Current == 0 {
		o.Current = flow.DefaultCurrent
	}
	if o.Weight == 0 {
		o.Weight = flow.DefaultWeight
	}
	if o.Decay == 0 {
		o.Decay = flow.DefaultDecay
	}
	if o.Mu == 0 {
		o.Mu = flow.DefaultMu
	}
	if o.RCond == 0 {
		o.RCond = flow.DefaultRCond
	}
	if o.Threshold == 0 {
		o.Threshold = search.DefaultThreshold
	}
	if o.Bias == 0 {
		o.Bias = search.DefaultBias
	}
	if o.ESS == 0 {
		o.ESS = score.DefaultESS
	}
	if o.Seed == 0 {
		o.Seed = DefaultSeed
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}

	if err := o.validate(); err != nil {
		return err
	}
	o.validated = true
	return nil
}

func (o *Options) validate() error {
	switch {
	case o.Ensembles < 1:
		return perrors.New(perrors.ErrCodeInvalidConfig, "ensembles must be at least 1, got %d", o.Ensembles)
	case o.Iterations < 1:
		return perrors.New(perrors.ErrCodeInvalidConfig, "iterations must be at least 1, got %d", o.Iterations)
	case !(o.Current > 0) || math.IsInf(o.Current, 0):
		return perrors.New(perrors.ErrCodeInvalidConfig, "current must be positive and finite, got %v", o.Current)
	case !(o.Weight > 0) || o.Weight > 1:
		return perrors.New(perrors.ErrCodeInvalidConfig, "weight must be in (0, 1], got %v", o.Weight)
	case o.Decay < 0 || o.Decay >= 1 || math.IsNaN(o.Decay):
		return perrors.New(perrors.ErrCodeInvalidConfig, "decay must be in [0, 1), got %v", o.Decay)
	case !(o.Mu > 0) || math.IsInf(o.Mu, 0):
		return perrors.New(perrors.ErrCodeInvalidConfig, "mu must be positive and finite, got %v", o.Mu)
	case !(o.RCond > 0) || o.RCond >= 1:
		return perrors.New(perrors.ErrCodeInvalidConfig, "rcond must be in (0, 1), got %v", o.RCond)
	case !(o.Threshold > 0) || o.Threshold >= maze.ConductanceCap:
		return perrors.New(perrors.ErrCodeInvalidConfig, "threshold must be in (0, %v), got %v", maze.ConductanceCap, o.Threshold)
	case o.Bias < 0 || math.IsNaN(o.Bias) || math.IsInf(o.Bias, 0):
		return perrors.New(perrors.ErrCodeInvalidConfig, "bias must be non-negative and finite, got %v", o.Bias)
	case !(o.ESS > 0) || math.IsInf(o.ESS, 0):
		return perrors.New(perrors.ErrCodeInvalidConfig, "ess must be positive and finite, got %v", o.ESS)
	}
	return nil
}
