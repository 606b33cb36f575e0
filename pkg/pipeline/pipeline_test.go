package pipeline

import (
	"context"
	"encoding/json"
	"slices"
	"testing"

	"github.com/matzehuels/untangle/pkg/cache"
	"github.com/matzehuels/untangle/pkg/errors"
	"github.com/matzehuels/untangle/pkg/strategy"
	"github.com/matzehuels/untangle/pkg/wiring"
)

func build(t *testing.T, comps []wiring.Component, edges ...wiring.Edge) *wiring.Graph {
	t.Helper()
	g := wiring.New()
	for _, c := range comps {
		if err := g.AddComponent(c); err != nil {
			t.Fatalf("AddComponent(%s) = %v", c.ID, err)
		}
	}
	for _, e := range edges {
		if err := g.AddEdge(e); err != nil {
			t.Fatalf("AddEdge(%v) = %v", e, err)
		}
	}
	return g
}

func comps(ids ...string) []wiring.Component {
	out := make([]wiring.Component, len(ids))
	for i, id := range ids {
		out[i] = wiring.Component{ID: id}
	}
	return out
}

func edge(from, to string, kind wiring.Kind) wiring.Edge {
	return wiring.Edge{From: from, To: to, Kind: kind}
}

func execute(t *testing.T, g *wiring.Graph, opts Options) *Result {
	t.Helper()
	runner := NewRunner(nil, nil, nil)
	result, err := runner.Execute(context.Background(), g, opts)
	if err != nil {
		t.Fatalf("Execute() = %v", err)
	}
	return result
}

func TestOptions_Validate(t *testing.T) {
	tests := []struct {
		name string
		opts Options
		ok   bool
	}{
		{"defaults", Options{}, true},
		{"explicit passes", Options{Passes: 3}, true},
		{"too many passes", Options{Passes: MaxPasses + 1}, false},
		{"negative passes", Options{Passes: -1}, false},
		{"custom priority", Options{Priority: []string{"constructor", "field"}}, true},
		{"unknown priority kind", Options{Priority: []string{"telepathy"}}, false},
		{"duplicate priority kind", Options{Priority: []string{"field", "field"}}, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.opts.ValidateAndSetDefaults()
			if (err == nil) != tc.ok {
				t.Errorf("ValidateAndSetDefaults() = %v, want ok=%v", err, tc.ok)
			}
			if !tc.ok && !errors.Is(err, errors.ErrCodeInvalidInput) {
				t.Errorf("err = %v, want INVALID_INPUT", err)
			}
		})
	}
}

func TestExecute_AcyclicGraph(t *testing.T) {
	g := build(t, comps("a", "b", "c"),
		edge("a", "b", wiring.Constructor),
		edge("b", "c", wiring.Constructor),
	)
	result := execute(t, g, Options{})

	if !result.Resolved {
		t.Error("acyclic graph should be resolved")
	}
	if len(result.Cycles) != 0 || len(result.Selected) != 0 {
		t.Errorf("got %d cycles, %d selected; want none", len(result.Cycles), len(result.Selected))
	}
	if result.RunID == "" {
		t.Error("result missing run ID")
	}
}

func TestExecute_FieldCycleDeferred(t *testing.T) {
	g := build(t, comps("a", "b"),
		edge("a", "b", wiring.Constructor),
		edge("b", "a", wiring.Field),
	)
	result := execute(t, g, Options{})

	if !result.Resolved {
		t.Fatalf("not resolved, remaining: %v", result.Remaining)
	}
	if len(result.Cycles) != 1 || len(result.Selected) != 1 {
		t.Fatalf("got %d cycles, %d selected; want 1, 1", len(result.Cycles), len(result.Selected))
	}
	// field beats constructor in the default priority
	if sel := result.Selected[0]; sel.Kind != wiring.Field {
		t.Errorf("selected %s edge, want field", sel.Kind)
	}
	if got := result.Outcomes[0]; got.Strategy != "deferred-resolution" || got.Result.Outcome != strategy.Applied {
		t.Errorf("outcome = %s/%s", got.Strategy, got.Result.Outcome)
	}
	if !slices.Equal(result.Modified, []string{"b"}) {
		t.Errorf("Modified = %v, want [b]", result.Modified)
	}
}

func TestExecute_ConstructorCycleNeedsTwoPasses(t *testing.T) {
	g := build(t, comps("a", "b"),
		edge("a", "b", wiring.Constructor),
		edge("b", "a", wiring.Constructor),
	)

	one := execute(t, g, Options{Passes: 1, Refresh: true})
	if one.Resolved {
		t.Error("conversion alone should not resolve a constructor cycle")
	}
	if len(one.Remaining) != 1 {
		t.Errorf("remaining after one pass = %d, want 1", len(one.Remaining))
	}

	two := execute(t, g, Options{Passes: 2, Refresh: true})
	if !two.Resolved {
		t.Fatalf("not resolved after two passes, remaining: %v", two.Remaining)
	}

	var names []string
	for _, o := range two.Outcomes {
		if o.Result.Outcome == strategy.Applied {
			names = append(names, o.Strategy)
		}
	}
	want := []string{"injection-kind-conversion", "deferred-resolution"}
	if !slices.Equal(names, want) {
		t.Errorf("applied strategies = %v, want %v", names, want)
	}
}

func TestExecute_ParallelEdgesShareFeedbackEdge(t *testing.T) {
	g := build(t, comps("a", "b"),
		edge("a", "b", wiring.Field),
		edge("a", "b", wiring.Constructor),
		edge("b", "a", wiring.Field),
	)
	result := execute(t, g, Options{})

	if len(result.Cycles) != 2 {
		t.Fatalf("got %d cycles, want 2 (parallel kinds are distinct)", len(result.Cycles))
	}
	if len(result.Selected) != 1 {
		t.Errorf("selected %d edges, want 1 (shared edge covers both cycles)", len(result.Selected))
	}
	if !result.Resolved {
		t.Errorf("not resolved, remaining: %v", result.Remaining)
	}
}

func TestExecute_FactoryCycleMediated(t *testing.T) {
	g := build(t, []wiring.Component{
		{ID: "app.Order", Helpers: map[string][]string{"Reserve": {"lockStock"}}},
		{ID: "app.Shipment"},
	},
		wiring.Edge{From: "app.Order", To: "app.Shipment", Kind: wiring.FactoryMethod, Ops: []string{"Dispatch"}},
		wiring.Edge{From: "app.Shipment", To: "app.Order", Kind: wiring.FactoryMethod, Ops: []string{"Reserve"}},
	)
	result := execute(t, g, Options{})

	if !result.Resolved {
		t.Fatalf("not resolved, remaining: %v", result.Remaining)
	}
	out := result.Outcomes[0]
	if out.Strategy != "method-extraction" || out.Result.Outcome != strategy.Applied {
		t.Fatalf("outcome = %s/%s, want applied method-extraction", out.Strategy, out.Result.Outcome)
	}
	ch := result.Changes[len(result.Changes)-1]
	if ch.Kind != strategy.ChangeExtractMediator || ch.Mediator != "OrderShipmentMediator" {
		t.Errorf("change = %+v", ch)
	}
	if !slices.Contains(ch.Ops, "lockStock") {
		t.Errorf("hoisted ops %v missing helper closure", ch.Ops)
	}
}

func TestExecute_RecordsStrategyFailure(t *testing.T) {
	// conversion is the only applicable strategy and the mutator name
	// collides, so the failure must surface in the report without aborting
	g := build(t, []wiring.Component{
		{ID: "a", Mutators: []string{"Setb"}},
		{ID: "b", Mutators: []string{"Seta"}},
	},
		edge("a", "b", wiring.Constructor),
		edge("b", "a", wiring.Constructor),
	)
	result := execute(t, g, Options{})

	if result.Resolved {
		t.Error("conflicting mutators should leave the cycle unresolved")
	}
	if result.Stats.FailedCount == 0 {
		t.Error("failure not counted")
	}
	out := result.Outcomes[0]
	if out.Result.Outcome != strategy.Failed || out.Result.Reason == "" {
		t.Errorf("outcome = %+v, want failed with reason", out.Result)
	}
	if len(result.Remaining) == 0 {
		t.Error("remaining cycles missing from report")
	}
}

func TestExecute_TruncationSurfaces(t *testing.T) {
	// complete digraph on four nodes has twenty elementary cycles
	ids := []string{"a", "b", "c", "d"}
	g := build(t, comps(ids...))
	for _, from := range ids {
		for _, to := range ids {
			if from == to {
				continue
			}
			if err := g.AddEdge(edge(from, to, wiring.Field)); err != nil {
				t.Fatal(err)
			}
		}
	}
	result := execute(t, g, Options{MaxCycles: 3})

	if !result.Truncated {
		t.Error("truncation flag not set")
	}
	if result.Resolved {
		t.Error("a truncated run must not claim full resolution")
	}
	if len(result.Cycles) != 3 {
		t.Errorf("got %d cycles, want cap of 3", len(result.Cycles))
	}
}

func TestExecute_Deterministic(t *testing.T) {
	g := build(t, comps("a", "b", "c"),
		edge("a", "b", wiring.Constructor),
		edge("b", "c", wiring.Setter),
		edge("c", "a", wiring.Field),
		edge("b", "a", wiring.Field),
	)

	run := func() string {
		result := execute(t, g, Options{Refresh: true})
		result.RunID = ""
		result.Stats = Stats{}
		data, err := json.Marshal(result)
		if err != nil {
			t.Fatal(err)
		}
		return string(data)
	}
	if first, second := run(), run(); first != second {
		t.Errorf("runs differ:\n%s\n%s", first, second)
	}
}

func TestExecute_ReportCache(t *testing.T) {
	dir := t.TempDir()
	c, err := cache.NewFileCache(dir)
	if err != nil {
		t.Fatal(err)
	}
	runner := NewRunner(c, nil, nil)
	defer runner.Close()

	g := build(t, comps("a", "b"),
		edge("a", "b", wiring.Field),
		edge("b", "a", wiring.Field),
	)

	first, err := runner.Execute(context.Background(), g, Options{})
	if err != nil {
		t.Fatalf("first Execute() = %v", err)
	}
	if first.CacheInfo.ReportHit {
		t.Error("first run must not be a cache hit")
	}

	second, err := runner.Execute(context.Background(), g, Options{})
	if err != nil {
		t.Fatalf("second Execute() = %v", err)
	}
	if !second.CacheInfo.ReportHit {
		t.Error("second run should hit the report cache")
	}
	if second.RunID != first.RunID || second.GraphHash != first.GraphHash {
		t.Error("cached report differs from original")
	}
}

// captureSink records the changes the pipeline forwards.
type captureSink struct {
	changes []strategy.Change
}

func (s *captureSink) Apply(ctx context.Context, ch strategy.Change) error {
	s.changes = append(s.changes, ch)
	return nil
}

func TestExecute_DryRunSink(t *testing.T) {
	g := build(t, comps("a", "b"),
		edge("a", "b", wiring.Field),
		edge("b", "a", wiring.Constructor),
	)
	sink := &captureSink{}
	result := execute(t, g, Options{DryRun: true, Sink: sink})

	if len(sink.changes) != len(result.Changes) {
		t.Fatalf("sink saw %d changes, report has %d", len(sink.changes), len(result.Changes))
	}
	for _, ch := range sink.changes {
		if !ch.DryRun {
			t.Errorf("dry run forwarded a non-dry change: %+v", ch)
		}
	}
}

func TestDetect_ReturnsComponentsAndCycles(t *testing.T) {
	g := build(t, comps("a", "b", "c"),
		edge("a", "b", wiring.Field),
		edge("b", "a", wiring.Field),
		edge("c", "c", wiring.Setter),
	)
	runner := NewRunner(nil, nil, nil)
	scc, enum, err := runner.Detect(context.Background(), g, Options{})
	if err != nil {
		t.Fatalf("Detect() = %v", err)
	}
	if len(scc) != 2 {
		t.Errorf("got %d cyclic components, want 2", len(scc))
	}
	if len(enum.Cycles) != 2 {
		t.Errorf("got %d cycles, want 2", len(enum.Cycles))
	}
}
