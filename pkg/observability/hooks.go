// Package observability provides hooks for metrics, tracing, and logging.
//
// This package enables optional instrumentation without adding hard
// dependencies on specific observability backends. Consumers register hooks
// at startup to receive events about learning runs and oracle activity.
//
// # Architecture
//
// The package uses a simple hooks pattern:
//   - Define hook interfaces for different event categories
//   - Provide no-op default implementations
//   - Allow registration of custom implementations at startup
//
// This approach:
//   - Avoids import cycles (hooks are registered by main, not by libraries)
//   - Keeps the core library dependency-free from observability frameworks
//   - Allows different backends (OpenTelemetry, Prometheus, DataDog, etc.)
//
// # Usage
//
// Register hooks at application startup:
//
//	func main() {
//	    observability.SetLearnerHooks(&myLearnerHooks{})
//	    observability.SetScoreHooks(&myScoreHooks{})
//	    // ... run application
//	}
//
// Libraries call hooks to emit events:
//
//	observability.Learner().OnEnsembleStart(ctx, ensemble)
//	// ... run ensemble ...
//	observability.Learner().OnEnsembleComplete(ctx, ensemble, best, duration, err)
package observability

import (
	"context"
	"sync"
	"time"
)

// =============================================================================
// Learner Hooks
// =============================================================================

// LearnerHooks receives events from the structure-learning loop.
type LearnerHooks interface {
	// Ensemble events
	OnEnsembleStart(ctx context.Context, ensemble int)
	OnEnsembleComplete(ctx context.Context, ensemble int, bestScore float64, duration time.Duration, err error)

	// OnIterationComplete records one inner iteration: the candidate
	// network's current edge count after all pairs were processed.
	OnIterationComplete(ctx context.Context, ensemble, iteration, edgeCount int)

	// OnBestImproved records a new best network.
	OnBestImproved(ctx context.Context, score float64, edgeCount int)
}

// =============================================================================
// Score Hooks
// =============================================================================

// ScoreHooks receives events from scoring-oracle operations. Oracle calls
// carry no context, so these events do not either.
type ScoreHooks interface {
	// OnLocalScore records a local score request. cached reports whether
	// the score was served from the memo table.
	OnLocalScore(variable, parentCount int, cached bool)

	// OnNetworkScore records a full network scoring pass.
	OnNetworkScore(variableCount int, score float64)
}

// =============================================================================
// No-op Implementations
// =============================================================================

// NoopLearnerHooks is a no-op implementation of LearnerHooks.
type NoopLearnerHooks struct{}

func (NoopLearnerHooks) OnEnsembleStart(context.Context, int)                                 {}
func (NoopLearnerHooks) OnEnsembleComplete(context.Context, int, float64, time.Duration, error) {
}
func (NoopLearnerHooks) OnIterationComplete(context.Context, int, int, int) {}
func (NoopLearnerHooks) OnBestImproved(context.Context, float64, int)       {}

// NoopScoreHooks is a no-op implementation of ScoreHooks.
type NoopScoreHooks struct{}

func (NoopScoreHooks) OnLocalScore(int, int, bool) {}
func (NoopScoreHooks) OnNetworkScore(int, float64) {}

// =============================================================================
// Global Hook Registry
// =============================================================================

var (
	learnerHooks LearnerHooks = NoopLearnerHooks{}
	scoreHooks   ScoreHooks   = NoopScoreHooks{}
	hooksMu      sync.RWMutex
)

// SetLearnerHooks registers custom learner hooks.
// This should be called once at application startup before any runs.
func SetLearnerHooks(h LearnerHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		learnerHooks = h
	}
}

// SetScoreHooks registers custom score hooks.
// This should be called once at application startup before any scoring.
func SetScoreHooks(h ScoreHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		scoreHooks = h
	}
}

// Learner returns the registered learner hooks.
func Learner() LearnerHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return learnerHooks
}

// Score returns the registered score hooks.
func Score() ScoreHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return scoreHooks
}

// Reset restores all hooks to their no-op defaults.
// This is primarily useful for testing.
func Reset() {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	learnerHooks = NoopLearnerHooks{}
	scoreHooks = NoopScoreHooks{}
}
