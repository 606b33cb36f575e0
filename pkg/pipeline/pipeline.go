// Package pipeline orchestrates the complete cycle analysis: detect
// strongly connected components, enumerate elementary cycles, select
// feedback edges, and dispatch resolution strategies.
//
// The pipeline is shared by the CLI and the HTTP API so both entry points
// behave identically. Create a Runner and execute it:
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	result, err := runner.Execute(ctx, graph, pipeline.Options{})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for _, c := range result.Remaining {
//	    fmt.Println("unresolved:", c)
//	}
//
// Strategies are dispatched per selected edge in a fixed preference order,
// cheapest first: deferred resolution, injection-kind conversion, interface
// extraction, then mediator extraction. Dispatch stops at the first
// non-skipped outcome for an edge; a failed outcome is recorded in the
// result but does not abort the run.
package pipeline

import (
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/untangle/pkg/cache"
	"github.com/matzehuels/untangle/pkg/cycles"
	"github.com/matzehuels/untangle/pkg/errors"
	"github.com/matzehuels/untangle/pkg/strategy"
	"github.com/matzehuels/untangle/pkg/wiring"
)

const (
	// DefaultPasses is the number of resolution passes. One pass resolves
	// the cycles visible in the input; additional passes re-run resolution
	// on the projected graph, which lets a conversion on one pass be
	// deferred on the next.
	DefaultPasses = 1

	// MaxPasses bounds resolution so a strategy that never converges cannot
	// loop forever.
	MaxPasses = 5
)

// Options contains all configuration for an analysis run. The struct
// serializes to JSON for API requests; runtime-only fields are excluded.
type Options struct {
	// MaxCycles caps cycle enumeration. Zero selects the enumeration
	// default; a negative value disables the cap.
	MaxCycles int `json:"max_cycles,omitempty"`

	// Passes is the number of resolution passes, between 1 and MaxPasses.
	Passes int `json:"passes,omitempty"`

	// Priority orders injection kinds for feedback edge tie-breaking, most
	// preferred first, by wire name (e.g. "field", "setter"). Kinds not
	// listed keep their default relative order after the listed ones.
	Priority []string `json:"priority,omitempty"`

	// DryRun validates changes against the sink without persisting them.
	DryRun bool `json:"dry_run,omitempty"`

	// Refresh bypasses the report cache.
	Refresh bool `json:"refresh,omitempty"`

	// Logger receives stage progress. Defaults to a discard logger.
	Logger *log.Logger `json:"-"`

	// Sink receives the accumulated change requests after a successful run.
	// When nil, changes are only recorded in the result.
	Sink strategy.Sink `json:"-"`

	priority cycles.Priority

	// validated tracks whether ValidateAndSetDefaults has been called.
	validated bool
}

// ValidateAndSetDefaults checks option fields and applies defaults. It is
// idempotent.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if o.Passes == 0 {
		o.Passes = DefaultPasses
	}
	if o.Passes < 0 || o.Passes > MaxPasses {
		return errors.New(errors.ErrCodeInvalidInput, "passes must be between 1 and %d, got %d", MaxPasses, o.Passes)
	}

	prio, err := parsePriority(o.Priority)
	if err != nil {
		return err
	}
	o.priority = prio

	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	o.validated = true
	return nil
}

// parsePriority turns wire names into a complete kind ordering: listed
// kinds first, then the remaining kinds in their default order.
func parsePriority(names []string) (cycles.Priority, error) {
	if len(names) == 0 {
		return cycles.DefaultPriority, nil
	}
	seen := make(map[wiring.Kind]bool, len(names))
	prio := make(cycles.Priority, 0, len(cycles.DefaultPriority))
	for _, name := range names {
		k, err := wiring.ParseKind(name)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "priority")
		}
		if seen[k] {
			return nil, errors.New(errors.ErrCodeInvalidInput, "duplicate priority kind %q", name)
		}
		seen[k] = true
		prio = append(prio, k)
	}
	for _, k := range cycles.DefaultPriority {
		if !seen[k] {
			prio = append(prio, k)
		}
	}
	return prio, nil
}

// reportKeyOpts returns the cache key options for this run.
func (o *Options) reportKeyOpts() cache.ReportKeyOpts {
	return cache.ReportKeyOpts{
		MaxCycles: o.MaxCycles,
		Passes:    o.Passes,
		Priority:  o.Priority,
		DryRun:    o.DryRun,
	}
}

// Result contains the outputs of one analysis run.
type Result struct {
	// RunID uniquely identifies this run in logs and reports.
	RunID string `json:"run_id"`

	// GraphHash is the content hash of the input graph.
	GraphHash string `json:"graph_hash"`

	// Resolved is set when the projected graph is cycle-free after all
	// passes.
	Resolved bool `json:"resolved"`

	// Truncated is set when any enumeration hit the cycle cap. Resolution
	// guarantees then only cover the cycles that were enumerated.
	Truncated bool `json:"truncated"`

	// Cycles are the elementary cycles found in the input graph.
	Cycles []cycles.Cycle `json:"cycles"`

	// Selected are the feedback edges chosen for resolution, across all
	// passes.
	Selected []wiring.Edge `json:"selected"`

	// Outcomes records the strategy dispatched for each selected edge.
	Outcomes []EdgeOutcome `json:"outcomes"`

	// Changes are the structural change requests the strategies produced,
	// in application order.
	Changes []strategy.Change `json:"changes,omitempty"`

	// Modified lists every component a strategy touched, sorted.
	Modified []string `json:"modified,omitempty"`

	// Remaining are the cycles still present in the projected graph after
	// the final pass.
	Remaining []cycles.Cycle `json:"remaining,omitempty"`

	// Stats contains timing and size information.
	Stats Stats `json:"stats"`

	// CacheInfo tracks whether the report came from cache.
	CacheInfo CacheInfo `json:"-"`
}

// EdgeOutcome is the resolution record for one selected feedback edge.
type EdgeOutcome struct {
	Edge     wiring.Edge     `json:"edge"`
	Strategy string          `json:"strategy"`
	Result   strategy.Result `json:"result"`
	Pass     int             `json:"pass"`
}

// Stats contains analysis statistics.
type Stats struct {
	NodeCount      int `json:"node_count"`
	EdgeCount      int `json:"edge_count"`
	ComponentCount int `json:"component_count"`
	CycleCount     int `json:"cycle_count"`
	SelectedCount  int `json:"selected_count"`
	AppliedCount   int `json:"applied_count"`
	FailedCount    int `json:"failed_count"`

	DetectTime  time.Duration `json:"detect_time"`
	ResolveTime time.Duration `json:"resolve_time"`
	VerifyTime  time.Duration `json:"verify_time"`
}

// CacheInfo tracks cache participation for a run.
type CacheInfo struct {
	// ReportHit is set when the whole report came from cache.
	ReportHit bool
}
