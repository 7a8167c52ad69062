// Package flow implements the Physarum transport step: a current-flow solve
// over the maze followed by conductance reinforcement.
//
// For a maze with conductances D_e and lengths L_e, the solver builds the
// N×N nodal matrix A with A[i][j] = D_ij/L_ij off the diagonal and
// A[i][i] = -Σ_j A[i][j], sets b[source] = -I0 and b[sink] = +I0 for the
// fixed injected current I0, and solves A·x = b for the nodal pressures. A's rows sum
// to zero, so the system is singular by construction; the solver detects the
// failed exact solve and falls back to a Moore–Penrose pseudo-inverse from a
// truncated SVD (cutoff rcond·σ_max, rcond = 1e-15).
//
// Each solve then reinforces every edge: the flow q = (D/L)·(p_i − p_j)
// feeds a substitutable FeedbackFunc, and the conductance is updated by
// exponential smoothing, D ← w·f(|q|) + (1 − l·w)·D. Edges that carry more
// current accumulate conductance, which is the signal the structure search
// reads.
package flow
