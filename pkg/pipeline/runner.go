package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"slices"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/matzehuels/untangle/pkg/cache"
	"github.com/matzehuels/untangle/pkg/cycles"
	"github.com/matzehuels/untangle/pkg/errors"
	"github.com/matzehuels/untangle/pkg/graphio"
	"github.com/matzehuels/untangle/pkg/observability"
	"github.com/matzehuels/untangle/pkg/strategy"
	"github.com/matzehuels/untangle/pkg/wiring"
)

// Runner encapsulates analysis execution with report caching. Both CLI and
// API use it so caching logic lives in one place.
//
// The Runner is stateless except for the cache and logger. Multiple
// goroutines can safely share one Runner with different options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger

	// TTL is how long stored reports stay valid.
	TTL time.Duration
}

// NewRunner creates a runner with the given cache and keyer. A nil keyer
// selects the default key scheme; a nil cache disables caching.
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
		TTL:    cache.DefaultReportTTL,
	}
}

// Execute runs the complete detect → enumerate → select → resolve analysis
// on g with report caching. The input graph is never modified; resolution
// is verified against projected copies.
func (r *Runner) Execute(ctx context.Context, g *wiring.Graph, opts Options) (*Result, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "invalid options")
	}
	logger := opts.Logger
	if logger == nil {
		logger = r.Logger
	}

	graphHash, err := hashGraph(g)
	if err != nil {
		return nil, err
	}
	cacheKey := r.Keyer.ReportKey(graphHash, opts.reportKeyOpts())

	if !opts.Refresh {
		if cached := r.loadReport(ctx, cacheKey); cached != nil {
			logger.Debug("report cache hit", "key", cacheKey)
			return cached, nil
		}
	}

	result := &Result{
		RunID:     uuid.NewString(),
		GraphHash: graphHash,
	}
	result.Stats.NodeCount = g.NodeCount()
	result.Stats.EdgeCount = g.EdgeCount()
	logger = logger.With("run_id", result.RunID)

	// Stage 1: Detect
	detectStart := time.Now()
	observability.Analysis().OnDetectStart(ctx, g.NodeCount(), g.EdgeCount())
	comps := cycles.CyclicComponents(g)
	result.Stats.DetectTime = time.Since(detectStart)
	result.Stats.ComponentCount = len(comps)
	observability.Analysis().OnDetectComplete(ctx, len(comps), result.Stats.DetectTime)

	logger.Info("detected cyclic components",
		"nodes", g.NodeCount(),
		"edges", g.EdgeCount(),
		"components", len(comps),
		"duration", result.Stats.DetectTime)

	// Stages 2-4: Enumerate, select and resolve, once per pass. The plan
	// accumulates changes across passes and each pass works on the graph
	// with all previous changes projected.
	plan := strategy.NewPlan()
	resolveStart := time.Now()
	work := g
	for pass := 1; pass <= opts.Passes; pass++ {
		enum := r.enumerate(ctx, work, opts, len(comps))
		if pass == 1 {
			result.Cycles = enum.Cycles
			result.Stats.CycleCount = len(enum.Cycles)
		}
		if enum.Truncated {
			result.Truncated = true
			logger.Warn("cycle enumeration truncated",
				"pass", pass,
				"cycles", len(enum.Cycles),
				"cap", opts.MaxCycles)
		}
		if len(enum.Cycles) == 0 {
			break
		}

		selectStart := time.Now()
		selected := cycles.SelectFeedback(enum.Cycles, opts.priority)
		observability.Analysis().OnSelectComplete(ctx, len(selected), time.Since(selectStart))
		result.Selected = append(result.Selected, selected...)
		result.Stats.SelectedCount += len(selected)

		logger.Info("selected feedback edges",
			"pass", pass,
			"cycles", len(enum.Cycles),
			"edges", len(selected))

		r.resolve(ctx, result, plan, work, enum, selected, pass, logger)
		work = plan.Project(g)
	}
	result.Stats.ResolveTime = time.Since(resolveStart)
	result.Changes = plan.Changes()

	// Stage 5: Verify the projected graph.
	verifyStart := time.Now()
	final := cycles.Enumerate(plan.Project(g), cycles.EnumerateOptions{MaxCycles: opts.MaxCycles})
	result.Stats.VerifyTime = time.Since(verifyStart)
	result.Remaining = final.Cycles
	if final.Truncated {
		result.Truncated = true
	}
	result.Resolved = len(final.Cycles) == 0 && !result.Truncated

	logger.Info("verified projected graph",
		"remaining", len(result.Remaining),
		"resolved", result.Resolved,
		"duration", result.Stats.VerifyTime)

	// Hand the accumulated changes to the external sink, if any. Dry runs
	// still validate every change against it.
	if opts.Sink != nil {
		for _, ch := range result.Changes {
			ch.DryRun = opts.DryRun
			if err := opts.Sink.Apply(ctx, ch); err != nil {
				return nil, errors.Wrap(errors.ErrCodeStrategyFailed, err, "apply %s change", ch.Kind)
			}
		}
	}

	if !opts.Refresh {
		r.storeReport(ctx, cacheKey, result)
	}
	return result, nil
}

// Detect runs only the detection and enumeration stages, without selecting
// or resolving anything. Used by read-only consumers.
func (r *Runner) Detect(ctx context.Context, g *wiring.Graph, opts Options) ([][]string, cycles.Enumeration, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, cycles.Enumeration{}, errors.Wrap(errors.ErrCodeInvalidInput, err, "invalid options")
	}
	comps := cycles.CyclicComponents(g)
	enum := r.enumerate(ctx, g, opts, len(comps))
	return comps, enum, nil
}

func (r *Runner) enumerate(ctx context.Context, g *wiring.Graph, opts Options, componentCount int) cycles.Enumeration {
	start := time.Now()
	observability.Analysis().OnEnumerateStart(ctx, componentCount)
	enum := cycles.Enumerate(g, cycles.EnumerateOptions{MaxCycles: opts.MaxCycles})
	observability.Analysis().OnEnumerateComplete(ctx, len(enum.Cycles), enum.Truncated, time.Since(start))
	return enum
}

// resolve dispatches the strategies over the selected edges for one pass,
// recording per-edge outcomes on the result.
func (r *Runner) resolve(ctx context.Context, result *Result, plan *strategy.Plan, work *wiring.Graph, enum cycles.Enumeration, selected []wiring.Edge, pass int, logger *log.Logger) {
	lookup := func(key wiring.EdgeKey) *cycles.Cycle {
		for i := range enum.Cycles {
			if enum.Cycles[i].Contains(key) {
				return &enum.Cycles[i]
			}
		}
		return nil
	}

	strategies := []strategy.Strategy{
		strategy.NewDeferred(plan),
		strategy.NewConvert(plan, work.Component),
		strategy.NewExtractInterface(plan),
		strategy.NewMediator(plan, work.Component, lookup),
	}

	start := time.Now()
	observability.Analysis().OnResolveStart(ctx, len(selected))
	applied, failed := 0, 0
	for _, e := range selected {
		outcome := EdgeOutcome{Edge: e, Pass: pass}
		for _, s := range strategies {
			res := s.Apply(ctx, e, false)
			outcome.Strategy = s.Name()
			outcome.Result = res
			if res.Outcome != strategy.Skipped {
				break
			}
		}
		result.Outcomes = append(result.Outcomes, outcome)

		switch outcome.Result.Outcome {
		case strategy.Applied:
			applied++
			logger.Debug("resolved edge",
				"edge", e.From+" -> "+e.To,
				"kind", e.Kind,
				"strategy", outcome.Strategy)
		case strategy.Failed:
			failed++
			logger.Warn("strategy failed",
				"edge", e.From+" -> "+e.To,
				"kind", e.Kind,
				"strategy", outcome.Strategy,
				"reason", outcome.Result.Reason)
		default:
			failed++
			logger.Warn("no strategy applies",
				"edge", e.From+" -> "+e.To,
				"kind", e.Kind)
		}
	}
	observability.Analysis().OnResolveComplete(ctx, applied, failed, time.Since(start))
	result.Stats.AppliedCount += applied
	result.Stats.FailedCount += failed

	result.Modified = mergeModified(result.Modified, strategies)
}

func mergeModified(existing []string, strategies []strategy.Strategy) []string {
	seen := make(map[string]struct{}, len(existing))
	for _, id := range existing {
		seen[id] = struct{}{}
	}
	out := existing
	for _, s := range strategies {
		for _, id := range s.Modified() {
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			out = append(out, id)
		}
	}
	slices.Sort(out)
	return out
}

// hashGraph computes the content hash used in cache keys and reports.
func hashGraph(g *wiring.Graph) (string, error) {
	var buf bytes.Buffer
	if err := graphio.WriteJSON(g, &buf); err != nil {
		return "", errors.Wrap(errors.ErrCodeInternal, err, "hash graph")
	}
	return cache.Hash(buf.Bytes()), nil
}

func (r *Runner) loadReport(ctx context.Context, key string) *Result {
	data, hit, err := r.Cache.Get(ctx, key)
	if err != nil || !hit {
		observability.Cache().OnCacheMiss(ctx, "report")
		return nil
	}
	var cached Result
	if err := json.Unmarshal(data, &cached); err != nil {
		observability.Cache().OnCacheMiss(ctx, "report")
		return nil
	}
	observability.Cache().OnCacheHit(ctx, "report")
	cached.CacheInfo.ReportHit = true
	return &cached
}

func (r *Runner) storeReport(ctx context.Context, key string, result *Result) {
	data, err := json.Marshal(result)
	if err != nil {
		return
	}
	ttl := r.TTL
	if ttl <= 0 {
		ttl = cache.DefaultReportTTL
	}
	if err := r.Cache.Set(ctx, key, data, ttl); err == nil {
		observability.Cache().OnCacheSet(ctx, "report", len(data))
	}
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}
