// Package score provides the fit-scoring side of structure learning: the
// Oracle contract the search consumes, the discrete Dataset model, and a
// BDeu (Bayesian-Dirichlet equivalent uniform) implementation.
//
// The Oracle is deliberately a small interface so alternative scoring
// metrics can be substituted without touching the search. Scores are
// higher-is-better; BDeu scores are log-marginal-likelihoods and therefore
// negative. A nil network scores Worst, the minimum representable value, so
// an empty result never displaces a real one.
package score
