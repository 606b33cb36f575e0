// Package observability provides hooks for metrics, tracing, and logging.
//
// This package enables optional instrumentation without adding hard
// dependencies on specific observability backends. Consumers can register
// hooks at startup to receive events about analysis stages and cache
// operations.
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
//	    observability.SetAnalysisHooks(&myAnalysisHooks{})
//	    observability.SetCacheHooks(&myCacheHooks{})
//	    // ... run application
//	}
//
// Libraries call hooks to emit events:
//
//	observability.Analysis().OnEnumerateStart(ctx, componentCount)
//	// ... enumerate cycles ...
//	observability.Analysis().OnEnumerateComplete(ctx, cycleCount, truncated, duration)
package observability

import (
	"context"
	"sync"
	"time"
)

// =============================================================================
// Analysis Hooks
// =============================================================================

// AnalysisHooks receives events from the cycle analysis pipeline.
type AnalysisHooks interface {
	// Detection events (SCC decomposition)
	OnDetectStart(ctx context.Context, nodeCount, edgeCount int)
	OnDetectComplete(ctx context.Context, componentCount int, duration time.Duration)

	// Enumeration events (elementary cycle search)
	OnEnumerateStart(ctx context.Context, componentCount int)
	OnEnumerateComplete(ctx context.Context, cycleCount int, truncated bool, duration time.Duration)

	// Selection events (feedback edge set)
	OnSelectComplete(ctx context.Context, selectedCount int, duration time.Duration)

	// Resolution events (strategy dispatch)
	OnResolveStart(ctx context.Context, edgeCount int)
	OnResolveComplete(ctx context.Context, applied, failed int, duration time.Duration)
}

// =============================================================================
// Cache Hooks
// =============================================================================

// CacheHooks receives events from cache operations.
type CacheHooks interface {
	// OnCacheHit records a cache hit.
	OnCacheHit(ctx context.Context, keyType string)

	// OnCacheMiss records a cache miss.
	OnCacheMiss(ctx context.Context, keyType string)

	// OnCacheSet records a cache write.
	OnCacheSet(ctx context.Context, keyType string, size int)
}

// =============================================================================
// No-op Implementations
// =============================================================================

// NoopAnalysisHooks is a no-op implementation of AnalysisHooks.
type NoopAnalysisHooks struct{}

func (NoopAnalysisHooks) OnDetectStart(context.Context, int, int)                          {}
func (NoopAnalysisHooks) OnDetectComplete(context.Context, int, time.Duration)             {}
func (NoopAnalysisHooks) OnEnumerateStart(context.Context, int)                            {}
func (NoopAnalysisHooks) OnEnumerateComplete(context.Context, int, bool, time.Duration)    {}
func (NoopAnalysisHooks) OnSelectComplete(context.Context, int, time.Duration)             {}
func (NoopAnalysisHooks) OnResolveStart(context.Context, int)                              {}
func (NoopAnalysisHooks) OnResolveComplete(context.Context, int, int, time.Duration)       {}

// NoopCacheHooks is a no-op implementation of CacheHooks.
type NoopCacheHooks struct{}

func (NoopCacheHooks) OnCacheHit(context.Context, string)      {}
func (NoopCacheHooks) OnCacheMiss(context.Context, string)     {}
func (NoopCacheHooks) OnCacheSet(context.Context, string, int) {}

// =============================================================================
// Global Hook Registry
// =============================================================================

var (
	analysisHooks AnalysisHooks = NoopAnalysisHooks{}
	cacheHooks    CacheHooks    = NoopCacheHooks{}
	hooksMu       sync.RWMutex
)

// SetAnalysisHooks registers custom analysis hooks.
// This should be called once at application startup before any analysis runs.
func SetAnalysisHooks(h AnalysisHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		analysisHooks = h
	}
}

// SetCacheHooks registers custom cache hooks.
// This should be called once at application startup before any cache operations.
func SetCacheHooks(h CacheHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		cacheHooks = h
	}
}

// Analysis returns the registered analysis hooks.
func Analysis() AnalysisHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return analysisHooks
}

// Cache returns the registered cache hooks.
func Cache() CacheHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return cacheHooks
}

// Reset restores all hooks to their no-op defaults.
// This is primarily useful for testing.
func Reset() {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	analysisHooks = NoopAnalysisHooks{}
	cacheHooks = NoopCacheHooks{}
}
