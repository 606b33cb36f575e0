package strategy

import (
	"context"
	"slices"

	"github.com/matzehuels/untangle/pkg/wiring"
)

// ExtractInterface decouples an edge by introducing an abstract capability
// type covering exactly the operations the source invokes on the target,
// and repointing the edge's declared type to it. The edge itself survives,
// now abstract, which makes it eligible for deferral on a later pass.
type ExtractInterface struct {
	tracker
	sink Sink
}

// NewExtractInterface returns the interface-extraction strategy writing to
// sink.
func NewExtractInterface(sink Sink) *ExtractInterface {
	return &ExtractInterface{sink: sink}
}

// Name implements Strategy.
func (s *ExtractInterface) Name() string { return "interface-extraction" }

// Apply extracts a capability interface for the edge. Factory-method edges
// are skipped because abstracting the declared type does not make them
// deferrable, so extraction cannot progress toward removal. Edges with no
// recorded invoked operations fail, since the interface surface cannot be
// determined.
func (s *ExtractInterface) Apply(ctx context.Context, e wiring.Edge, dryRun bool) Result {
	if e.Kind == wiring.FactoryMethod {
		return skipped("abstracting a factory-produced dependency does not make it deferrable")
	}
	if e.Abstract {
		return skipped("edge %s -> %s already targets an abstract type", e.From, e.To)
	}
	if len(e.Ops) == 0 {
		return failed("no invoked operations recorded for %s -> %s, interface surface unknown", e.From, e.To)
	}

	ops := slices.Clone(e.Ops)
	slices.Sort(ops)
	ops = slices.Compact(ops)

	ch := Change{
		Kind:      ChangeExtractInterface,
		Edge:      &e,
		Interface: baseName(e.To) + "Contract",
		Ops:       ops,
		DryRun:    dryRun,
	}
	if err := s.sink.Apply(ctx, ch); err != nil {
		return failed("mutation sink rejected extraction: %v", err)
	}
	if !dryRun {
		s.record(e.From, e.To)
	}
	return applied(ch)
}
