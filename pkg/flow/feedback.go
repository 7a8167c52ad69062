package flow

import "math"

// FeedbackFunc maps a non-negative flow magnitude to a reinforcement value.
// Implementations must be pure and total for q ≥ 0. The function is a named
// type so alternative feedback laws (saturating, mu ≠ 1) can be substituted
// without touching the solver.
type FeedbackFunc func(q float64) float64

// DefaultMu is the exponent of the default power-law feedback.
const DefaultMu = 1.0

// TypeI is the type-I feedback f(q) = q^mu with mu = 1.
func TypeI(q float64) float64 {
	return q
}

// Power returns the power-law feedback f(q) = q^mu.
// Power(DefaultMu) is equivalent to TypeI.
func Power(mu float64) FeedbackFunc {
	return func(q float64) float64 {
		return math.Pow(q, mu)
	}
}
